package infer

import (
	"strings"
	"time"
	"unicode"

	"github.com/trialgraph/trialgraph/internal/cache"
	"github.com/trialgraph/trialgraph/internal/model"
	"github.com/trialgraph/trialgraph/internal/rules"
)

// Engine infers administration route and dosage form from free-text drug
// descriptions. It is a pure function of (text, rule set): identical input
// always yields identical output. The optional cache only memoizes.
type Engine struct {
	ruleSet *rules.RuleSet
	memo    cache.Cache // nil when memoization is disabled
	memoTTL time.Duration
}

// NewEngine creates an engine over an immutable rule set.
func NewEngine(rs *rules.RuleSet) *Engine {
	return &Engine{ruleSet: rs}
}

// WithCache enables memoization of results keyed by normalized text.
// Descriptions repeat heavily across trials, so hits are common.
func (e *Engine) WithCache(c cache.Cache, ttl time.Duration) *Engine {
	e.memo = c
	e.memoTTL = ttl
	return e
}

// Infer resolves route and dosage form for the given description text.
// Empty or whitespace-only text resolves both categories to Unknown.
// Each category is evaluated independently; within a category the first
// matching rule in file order wins. Infer never fails.
func (e *Engine) Infer(text string) model.InferenceResult {
	normalized := Normalize(text)
	if normalized == "" {
		return model.UnknownResult()
	}

	var key string
	if e.memo != nil {
		key = cache.Key(normalized)
		if result, found := e.memo.Get(key); found {
			return result
		}
	}

	result := model.InferenceResult{
		Route:      matchCategory(e.ruleSet.Route, normalized),
		DosageForm: matchCategory(e.ruleSet.DosageForm, normalized),
	}

	if e.memo != nil {
		e.memo.Set(key, result, e.memoTTL)
	}
	return result
}

// matchCategory evaluates one category's rules in order against normalized
// text. No match resolves to Unknown.
func matchCategory(group []rules.Rule, normalized string) string {
	padded := " " + normalized + " "
	for _, rule := range group {
		switch rule.Match {
		case rules.MatchKeyword:
			if strings.Contains(padded, " "+rule.Pattern+" ") {
				return rule.Value
			}
		case rules.MatchRegex:
			if rule.Regex.MatchString(normalized) {
				return rule.Value
			}
		}
	}
	return model.Unknown
}

// Normalize case-folds text and treats punctuation as a separator, collapsing
// runs of separators to single spaces. "10mg tablet, orally." becomes
// "10mg tablet orally".
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lastSpace := true
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}
