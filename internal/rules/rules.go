package rules

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrConfig marks a fatal rule-configuration failure. Loading errors wrap it
// so callers can distinguish "fix the rule file" from runtime failures.
var ErrConfig = errors.New("rule configuration error")

// Category names a controlled-vocabulary attribute a rule resolves.
type Category string

const (
	CategoryRoute      Category = "route"
	CategoryDosageForm Category = "dosage_form"
)

// Match names how a rule pattern is applied to normalized text.
type Match string

const (
	MatchKeyword Match = "keyword" // pattern must equal a token or token run
	MatchRegex   Match = "regex"   // pattern is matched against the full normalized text
)

// RuleSpec is one rule as written in the YAML file.
type RuleSpec struct {
	Pattern string `yaml:"pattern"`
	Value   string `yaml:"value"`
	Match   Match  `yaml:"match"` // defaults to keyword
}

// fileSpec is the on-disk shape of the rule file.
type fileSpec struct {
	Version    int        `yaml:"version"`
	Route      []RuleSpec `yaml:"route"`
	DosageForm []RuleSpec `yaml:"dosage_form"`
}

// Rule is one compiled rule. Position in its category's slice is its
// precedence: evaluation is first match in file order.
type Rule struct {
	Category Category
	Pattern  string
	Value    string
	Match    Match
	Regex    *regexp.Regexp // compiled for MatchRegex rules, nil otherwise
}

// RuleSet is the immutable ordered rule collection loaded at startup.
type RuleSet struct {
	Version    int
	Route      []Rule
	DosageForm []Rule
}

// Load reads and validates a rule file. Any problem (missing file,
// unreadable YAML, unknown match kind, empty pattern or value, invalid
// regex) wraps ErrConfig and aborts before any record is processed.
func Load(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrConfig, path, err)
	}
	return Parse(data)
}

// Parse validates and compiles rule-file bytes. Split from Load so tests can
// exercise validation without touching the filesystem.
func Parse(data []byte) (*RuleSet, error) {
	var spec fileSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %v", ErrConfig, err)
	}

	if spec.Version != 1 {
		return nil, fmt.Errorf("%w: unsupported rule file version %d", ErrConfig, spec.Version)
	}
	if len(spec.Route) == 0 && len(spec.DosageForm) == 0 {
		return nil, fmt.Errorf("%w: rule file defines no rules", ErrConfig)
	}

	rs := &RuleSet{Version: spec.Version}

	route, err := compileGroup(CategoryRoute, spec.Route)
	if err != nil {
		return nil, err
	}
	rs.Route = route

	form, err := compileGroup(CategoryDosageForm, spec.DosageForm)
	if err != nil {
		return nil, err
	}
	rs.DosageForm = form

	return rs, nil
}

// compileGroup validates one category's rules, preserving file order.
func compileGroup(cat Category, specs []RuleSpec) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for i, spec := range specs {
		pattern := strings.TrimSpace(spec.Pattern)
		value := strings.TrimSpace(spec.Value)
		if pattern == "" {
			return nil, fmt.Errorf("%w: %s rule %d: empty pattern", ErrConfig, cat, i)
		}
		if value == "" {
			return nil, fmt.Errorf("%w: %s rule %d (%q): empty value", ErrConfig, cat, i, pattern)
		}

		match := spec.Match
		if match == "" {
			match = MatchKeyword
		}

		rule := Rule{
			Category: cat,
			Pattern:  pattern,
			Value:    value,
			Match:    match,
		}

		switch match {
		case MatchKeyword:
			rule.Pattern = strings.ToLower(pattern)
		case MatchRegex:
			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("%w: %s rule %d (%q): %v", ErrConfig, cat, i, pattern, err)
			}
			rule.Regex = re
		default:
			return nil, fmt.Errorf("%w: %s rule %d (%q): unknown match kind %q", ErrConfig, cat, i, pattern, match)
		}

		rules = append(rules, rule)
	}
	return rules, nil
}

// Len reports the total number of rules across both categories.
func (rs *RuleSet) Len() int {
	return len(rs.Route) + len(rs.DosageForm)
}
