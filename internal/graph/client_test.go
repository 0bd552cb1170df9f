package graph

import (
	"testing"

	"github.com/trialgraph/trialgraph/internal/model"
)

func str(s string) *string { return &s }

func TestBatchParams(t *testing.T) {
	records := []model.CleanStudyRecord{
		{
			NCTID:  "NCT00000102",
			Title:  "Study of Drug X in Condition Y",
			Phase:  str("PHASE3"),
			Status: str("COMPLETED"),
			Drugs: []model.CleanDrug{
				{Name: "Drug X", Route: "Oral", DosageForm: "Tablet"},
				{Name: "Placebo", Route: model.Unknown, DosageForm: model.Unknown},
			},
			Conditions: []model.Condition{{Name: "Condition Y"}},
			Sponsors:   []model.Sponsor{{Name: "Example Pharma Inc", Class: str("INDUSTRY")}},
		},
		{
			NCTID: "NCT00000103",
			// Phase/status unknown at the source stay null in the graph.
		},
	}

	params := batchParams(records)
	if len(params) != 2 {
		t.Fatalf("expected 2 parameter maps, got %d", len(params))
	}

	first := params[0]
	if first["nct_id"] != "NCT00000102" || first["phase"] != "PHASE3" {
		t.Errorf("trial fields: got %v / %v", first["nct_id"], first["phase"])
	}

	drugs := first["drugs"].([]map[string]any)
	if len(drugs) != 2 {
		t.Fatalf("expected 2 drugs, got %d", len(drugs))
	}
	if drugs[0]["route"] != "Oral" || drugs[0]["dosage_form"] != "Tablet" {
		t.Errorf("drug attributes: got %v", drugs[0])
	}
	// Unknown is passed through; the load statement skips writing it.
	if drugs[1]["route"] != model.Unknown {
		t.Errorf("expected Unknown passed through, got %v", drugs[1]["route"])
	}

	sponsors := first["sponsors"].([]map[string]any)
	if sponsors[0]["class"] != "INDUSTRY" {
		t.Errorf("sponsor class: got %v", sponsors[0]["class"])
	}

	second := params[1]
	if second["phase"] != nil || second["status"] != nil {
		t.Errorf("nil phase/status must stay null, got %v / %v", second["phase"], second["status"])
	}
	if len(second["drugs"].([]map[string]any)) != 0 {
		t.Error("expected empty drugs list")
	}
}

func TestBatchParams_Empty(t *testing.T) {
	if got := batchParams(nil); len(got) != 0 {
		t.Errorf("expected empty params, got %d", len(got))
	}
}
