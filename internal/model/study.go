package model

// RawStudyRecord is one trial row as delivered by the extraction source.
// Every field may be absent; nothing is trusted until it passes the cleaner.
type RawStudyRecord struct {
	NCTID         *string      `json:"nct_id"`
	BriefTitle    *string      `json:"brief_title"`
	Phase         *string      `json:"phase"`
	OverallStatus *string      `json:"overall_status"`
	Drugs         []RawDrug    `json:"drugs"`
	Conditions    []*string    `json:"conditions"`
	Sponsors      []RawSponsor `json:"sponsors"`
}

// RawDrug is an intervention entry as extracted, name and description untrimmed.
type RawDrug struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// RawSponsor is a sponsor entry as extracted.
type RawSponsor struct {
	Name  *string `json:"name"`
	Class *string `json:"class"`
}

// CleanStudyRecord is the normalized form handed to the graph sink.
// It is created fresh per raw record and never mutated after batching.
type CleanStudyRecord struct {
	NCTID      string      `json:"nct_id"`
	Title      string      `json:"title"`
	Phase      *string     `json:"phase"`
	Status     *string     `json:"status"`
	Drugs      []CleanDrug `json:"drugs"`
	Conditions []Condition `json:"conditions"`
	Sponsors   []Sponsor   `json:"sponsors"`
}

// CleanDrug carries the normalized drug name plus the inferred
// administration route and dosage form (never empty, Unknown at worst).
type CleanDrug struct {
	Name       string `json:"name"`
	Route      string `json:"route"`
	DosageForm string `json:"dosage_form"`
}

// Condition is a deduplicated, title-cased condition name.
type Condition struct {
	Name string `json:"name"`
}

// Sponsor is a trimmed sponsor name with its agency class passed through.
type Sponsor struct {
	Name  string  `json:"name"`
	Class *string `json:"class"`
}

// InferenceResult holds the controlled-vocabulary attributes inferred from a
// drug description. Each value is a canonical vocabulary entry or Unknown.
type InferenceResult struct {
	Route      string `json:"route"`
	DosageForm string `json:"dosage_form"`
}

// Unknown is the sentinel for an attribute no rule could resolve.
const Unknown = "Unknown"

// UnknownResult returns an InferenceResult with both categories unresolved.
func UnknownResult() InferenceResult {
	return InferenceResult{Route: Unknown, DosageForm: Unknown}
}
