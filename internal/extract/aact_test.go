package extract

import (
	"testing"
)

func str(s string) *string { return &s }

func TestRecordFromRow(t *testing.T) {
	drugs := []byte(`[{"name":"Aspirin","description":"oral tablet"},{"name":null,"description":null}]`)
	conds := []byte(`["Lung Cancer","lung cancer"]`)
	spons := []byte(`[{"name":"Pfizer Inc","class":"INDUSTRY"}]`)

	record, err := recordFromRow(str("NCT00000102"), str("A Study"), str("PHASE3"), str("COMPLETED"), drugs, conds, spons)
	if err != nil {
		t.Fatalf("recordFromRow failed: %v", err)
	}

	if record.NCTID == nil || *record.NCTID != "NCT00000102" {
		t.Errorf("nct_id: got %v", record.NCTID)
	}
	if len(record.Drugs) != 2 {
		t.Fatalf("expected 2 drugs, got %d", len(record.Drugs))
	}
	if record.Drugs[0].Name == nil || *record.Drugs[0].Name != "Aspirin" {
		t.Errorf("drug name: got %v", record.Drugs[0].Name)
	}
	if record.Drugs[1].Name != nil {
		t.Errorf("null drug name must stay nil, got %v", *record.Drugs[1].Name)
	}
	if len(record.Conditions) != 2 {
		t.Errorf("expected 2 raw conditions, got %d", len(record.Conditions))
	}
	if len(record.Sponsors) != 1 || record.Sponsors[0].Class == nil || *record.Sponsors[0].Class != "INDUSTRY" {
		t.Errorf("sponsors: got %+v", record.Sponsors)
	}
}

func TestRecordFromRow_NullFields(t *testing.T) {
	record, err := recordFromRow(nil, nil, nil, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("recordFromRow failed: %v", err)
	}

	if record.NCTID != nil || record.BriefTitle != nil || record.Phase != nil || record.OverallStatus != nil {
		t.Errorf("expected all-nil scalars, got %+v", record)
	}
	if record.Drugs != nil || record.Conditions != nil || record.Sponsors != nil {
		t.Errorf("expected nil entity lists for NULL aggregates, got %+v", record)
	}
}

func TestRecordFromRow_MalformedAggregate(t *testing.T) {
	_, err := recordFromRow(str("NCT1"), nil, nil, nil, []byte(`{not json`), nil, nil)
	if err == nil {
		t.Fatal("expected error for malformed drugs aggregate")
	}
}
