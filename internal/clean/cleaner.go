package clean

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/trialgraph/trialgraph/internal/infer"
	"github.com/trialgraph/trialgraph/internal/model"
)

// Inferrer resolves route and dosage form from drug description text.
// Implementations must never fail a record; unresolvable text yields Unknown.
type Inferrer interface {
	Infer(ctx context.Context, text string) model.InferenceResult
}

// RuleInferrer adapts the pure rule engine to the Inferrer interface.
type RuleInferrer struct {
	Engine *infer.Engine
}

// Infer delegates to the rule engine. The context is unused: rule matching
// never blocks.
func (r RuleInferrer) Infer(_ context.Context, text string) model.InferenceResult {
	return r.Engine.Infer(text)
}

// Cleaner normalizes raw study records. Clean is a total function: any
// well-typed record produces a record, malformed sub-entries are skipped.
type Cleaner struct {
	inferrer Inferrer
	titler   cases.Caser
}

// NewCleaner creates a cleaner that delegates free-text fields to the
// given inferrer.
func NewCleaner(inferrer Inferrer) *Cleaner {
	return &Cleaner{
		inferrer: inferrer,
		titler:   cases.Title(language.English),
	}
}

// Clean normalizes one raw study record. It never fails: absent or null
// optional fields are treated as empty, entries without a name are dropped.
func (c *Cleaner) Clean(ctx context.Context, raw *model.RawStudyRecord) model.CleanStudyRecord {
	record := model.CleanStudyRecord{
		NCTID:      deref(raw.NCTID),
		Title:      strings.TrimSpace(deref(raw.BriefTitle)),
		Phase:      raw.Phase,
		Status:     raw.OverallStatus,
		Drugs:      []model.CleanDrug{},
		Conditions: []model.Condition{},
		Sponsors:   []model.Sponsor{},
	}

	c.addDrugs(ctx, &record, raw.Drugs)
	c.addConditions(&record, raw.Conditions)
	c.addSponsors(&record, raw.Sponsors)
	return record
}

// addDrugs normalizes drug entries and attaches inferred attributes.
// Entries with a missing or empty name are dropped, never emitted nameless.
func (c *Cleaner) addDrugs(ctx context.Context, record *model.CleanStudyRecord, rawDrugs []model.RawDrug) {
	for _, drug := range rawDrugs {
		name := strings.TrimSpace(deref(drug.Name))
		if name == "" {
			continue
		}

		inferred := c.inferrer.Infer(ctx, deref(drug.Description))
		record.Drugs = append(record.Drugs, model.CleanDrug{
			Name:       c.titler.String(name),
			Route:      inferred.Route,
			DosageForm: inferred.DosageForm,
		})
	}
}

// addConditions title-cases condition names and deduplicates them on the
// normalized form, so casings that collide converge to one entry. First-seen
// order among distinct conditions is preserved.
func (c *Cleaner) addConditions(record *model.CleanStudyRecord, rawConditions []*string) {
	seen := make(map[string]struct{}, len(rawConditions))
	for _, cond := range rawConditions {
		name := strings.TrimSpace(deref(cond))
		if name == "" {
			continue
		}

		name = c.titler.String(name)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		record.Conditions = append(record.Conditions, model.Condition{Name: name})
	}
}

// addSponsors trims sponsor names and passes the agency class through
// unmodified, nulls included. Nameless entries are dropped.
func (c *Cleaner) addSponsors(record *model.CleanStudyRecord, rawSponsors []model.RawSponsor) {
	for _, sponsor := range rawSponsors {
		name := strings.TrimSpace(deref(sponsor.Name))
		if name == "" {
			continue
		}
		record.Sponsors = append(record.Sponsors, model.Sponsor{
			Name:  name,
			Class: sponsor.Class,
		})
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
