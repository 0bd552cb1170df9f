package llm

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/trialgraph/trialgraph/internal/infer"
	"github.com/trialgraph/trialgraph/internal/model"
	"github.com/trialgraph/trialgraph/internal/rules"
)

// Fallback tries the rule engine first and only consults the provider when
// the rules resolve neither category for non-empty text. A provider failure
// never fails the record: the rule result stands and a warning is logged.
type Fallback struct {
	engine   *infer.Engine
	provider Provider
	routes   []string
	forms    []string
	log      *zap.SugaredLogger
}

// NewFallback wires a provider behind the rule engine. The allowed
// vocabularies are the canonical values the rule set can produce, so the
// provider can never widen the controlled vocabulary.
func NewFallback(engine *infer.Engine, rs *rules.RuleSet, provider Provider, log *zap.SugaredLogger) *Fallback {
	return &Fallback{
		engine:   engine,
		provider: provider,
		routes:   vocabulary(rs.Route),
		forms:    vocabulary(rs.DosageForm),
		log:      log,
	}
}

// Infer implements the cleaner's Inferrer interface.
func (f *Fallback) Infer(ctx context.Context, text string) model.InferenceResult {
	result := f.engine.Infer(text)
	if result != model.UnknownResult() || strings.TrimSpace(text) == "" {
		return result
	}

	llmResult, err := f.provider.InferAttributes(ctx, InferRequest{
		Description: text,
		Routes:      f.routes,
		Forms:       f.forms,
	})
	if err != nil {
		f.log.Warnw("fallback inference failed, keeping rule result",
			"provider", f.provider.Name(), "error", err)
		return result
	}

	// Answers outside the controlled vocabulary collapse to Unknown.
	return model.InferenceResult{
		Route:      sanitize(llmResult.Route, f.routes),
		DosageForm: sanitize(llmResult.DosageForm, f.forms),
	}
}

func sanitize(value string, allowed []string) string {
	for _, v := range allowed {
		if value == v {
			return value
		}
	}
	return model.Unknown
}

// vocabulary collects the distinct canonical values of a rule group,
// preserving first appearance order.
func vocabulary(group []rules.Rule) []string {
	seen := make(map[string]struct{}, len(group))
	values := make([]string, 0, len(group))
	for _, rule := range group {
		if _, dup := seen[rule.Value]; dup {
			continue
		}
		seen[rule.Value] = struct{}{}
		values = append(values, rule.Value)
	}
	return values
}
