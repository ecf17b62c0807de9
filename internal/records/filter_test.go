package records

import (
	"testing"

	"github.com/merchops/supplier-mdm/internal/domain"
)

func sampleBatch() []domain.Record {
	return []domain.Record{
		{"sku": "ELEC-001", "name": "Router", "category": "electronics"},
		{"sku": "ELEC-002", "name": "Switch", "category": "electronics"},
		{"sku": "FURN-001", "name": "Desk", "category": "furniture"},
		{"item_number": "ELEC-003", "name": "Hub", "category": "electronics"},
		{"product_id": 44100, "name": "Cable", "category": "electronics"},
	}
}

func TestApplyNoCriteria(t *testing.T) {
	batch := sampleBatch()
	filtered := Apply(batch, domain.TestPullFilter{})
	if len(filtered) != len(batch) {
		t.Errorf("empty filter should keep all %d records, got %d", len(batch), len(filtered))
	}
}

func TestApplyCategory(t *testing.T) {
	filtered := Apply(sampleBatch(), domain.TestPullFilter{Category: "furniture"})
	if len(filtered) != 1 || filtered[0]["sku"] != "FURN-001" {
		t.Errorf("unexpected category filter result: %v", filtered)
	}
}

func TestApplySKUPrefixChecksIdentifierFields(t *testing.T) {
	filtered := Apply(sampleBatch(), domain.TestPullFilter{SKUPrefix: "ELEC"})
	// sku, item_number and the numeric product_id=44100 all participate; the
	// numeric one fails the prefix, FURN fails too.
	if len(filtered) != 3 {
		t.Fatalf("expected 3 records, got %d: %v", len(filtered), filtered)
	}
}

func TestApplySKUPrefixOnNumericIdentifier(t *testing.T) {
	filtered := Apply(sampleBatch(), domain.TestPullFilter{SKUPrefix: "441"})
	if len(filtered) != 1 || filtered[0]["name"] != "Cable" {
		t.Errorf("numeric identifiers should match via string form, got %v", filtered)
	}
}

func TestApplyFieldContains(t *testing.T) {
	filtered := Apply(sampleBatch(), domain.TestPullFilter{
		FieldContains: map[string]string{"name": "rout"},
	})
	if len(filtered) != 1 || filtered[0]["sku"] != "ELEC-001" {
		t.Errorf("contains filter should be case-insensitive, got %v", filtered)
	}
}

func TestApplyCriteriaIntersect(t *testing.T) {
	filtered := Apply(sampleBatch(), domain.TestPullFilter{
		Category:  "electronics",
		SKUPrefix: "ELEC",
		FieldContains: map[string]string{
			"name": "s",
		},
	})
	if len(filtered) != 1 || filtered[0]["sku"] != "ELEC-002" {
		t.Errorf("expected only the Switch, got %v", filtered)
	}
}

func TestApplyLimitTruncatesLast(t *testing.T) {
	filtered := Apply(sampleBatch(), domain.TestPullFilter{SKUPrefix: "ELEC", Limit: 1})
	if len(filtered) != 1 {
		t.Fatalf("expected 1 record, got %d", len(filtered))
	}
	if filtered[0]["sku"] != "ELEC-001" {
		t.Errorf("limit should keep the earliest matches, got %v", filtered[0])
	}
}

func TestApplyLimitAbsentIsNoOp(t *testing.T) {
	filtered := Apply(sampleBatch(), domain.TestPullFilter{Limit: 0})
	if len(filtered) != len(sampleBatch()) {
		t.Errorf("zero limit must not truncate, got %d records", len(filtered))
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	batch := sampleBatch()
	Apply(batch, domain.TestPullFilter{Category: "furniture", Limit: 1})
	if len(batch) != 5 {
		t.Errorf("input batch length changed to %d", len(batch))
	}
	if batch[0]["sku"] != "ELEC-001" {
		t.Errorf("input batch order changed: %v", batch[0])
	}
}
