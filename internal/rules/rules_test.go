package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const validRules = `
version: 1
route:
  - pattern: orally
    value: Oral
  - pattern: oral
    value: Oral
  - pattern: intravenous
    value: Intravenous
dosage_form:
  - pattern: tablet
    value: Tablet
  - pattern: '\binject(ed|ion|able)?\b'
    value: Injection
    match: regex
`

func TestParse_Valid(t *testing.T) {
	rs, err := Parse([]byte(validRules))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if rs.Version != 1 {
		t.Errorf("expected version 1, got %d", rs.Version)
	}
	if len(rs.Route) != 3 {
		t.Fatalf("expected 3 route rules, got %d", len(rs.Route))
	}
	if len(rs.DosageForm) != 2 {
		t.Fatalf("expected 2 dosage_form rules, got %d", len(rs.DosageForm))
	}
	if rs.Len() != 5 {
		t.Errorf("expected Len 5, got %d", rs.Len())
	}

	// File order must survive the load.
	if rs.Route[0].Pattern != "orally" || rs.Route[2].Value != "Intravenous" {
		t.Errorf("route rule order not preserved: %+v", rs.Route)
	}

	if rs.DosageForm[1].Match != MatchRegex {
		t.Errorf("expected regex match kind, got %q", rs.DosageForm[1].Match)
	}
	if rs.DosageForm[1].Regex == nil {
		t.Error("regex rule not compiled")
	}
	if rs.DosageForm[0].Regex != nil {
		t.Error("keyword rule should not carry a compiled regex")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed yaml", "version: [1"},
		{"missing version", "route:\n  - pattern: oral\n    value: Oral"},
		{"unsupported version", "version: 2\nroute:\n  - pattern: oral\n    value: Oral"},
		{"no rules", "version: 1"},
		{"empty pattern", "version: 1\nroute:\n  - pattern: ''\n    value: Oral"},
		{"empty value", "version: 1\nroute:\n  - pattern: oral\n    value: ''"},
		{"bad regex", "version: 1\nroute:\n  - pattern: '('\n    value: Oral\n    match: regex"},
		{"unknown match kind", "version: 1\nroute:\n  - pattern: oral\n    value: Oral\n    match: glob"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrConfig) {
				t.Errorf("expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "no_such_rules.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
	if !errors.Is(err, ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(validRules), 0o644); err != nil {
		t.Fatal(err)
	}

	rs, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if rs.Len() != 5 {
		t.Errorf("expected 5 rules, got %d", rs.Len())
	}
}
