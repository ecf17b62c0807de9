package domain

import (
	"time"

	"github.com/google/uuid"
)

// SchemaValidationResult reports how one observed field compared against the
// expected schema.
type SchemaValidationResult struct {
	FieldName    string    `json:"field_name"`
	ExpectedType FieldType `json:"expected_type"`
	ActualType   FieldType `json:"actual_type"`
	Valid        bool      `json:"valid"`
	SampleValue  any       `json:"sample_value,omitempty"`
	Notes        string    `json:"notes,omitempty"`
}

// MatchKind distinguishes exact field-name hits from similarity-based ones.
type MatchKind string

const (
	MatchExact MatchKind = "exact"
	MatchFuzzy MatchKind = "fuzzy"
)

// FieldMatch records how one template source field was matched against the
// sampled data.
type FieldMatch struct {
	TemplateField string    `json:"template_field"`
	SampleField   string    `json:"sample_field"`
	Kind          MatchKind `json:"kind"`
	Confidence    float64   `json:"confidence"`
}

// MappingSuggestion is the winning template recommendation for a sample
// batch, with per-field match details and aggregate ratios.
type MappingSuggestion struct {
	TemplateID      uuid.UUID    `json:"template_id"`
	TemplateName    string       `json:"template_name"`
	FieldMatches    []FieldMatch `json:"field_matches"`
	ExactMatchRatio float64      `json:"exact_match_ratio"`
	FuzzyMatchRatio float64      `json:"fuzzy_match_ratio"`
	Confidence      float64      `json:"confidence"`
}

// TestPullFilter narrows a sample batch before validation and scoring. Absent
// criteria are no-ops; supplied criteria compose by intersection and Limit is
// applied last.
type TestPullFilter struct {
	Category      string            `json:"category,omitempty"`
	SKUPrefix     string            `json:"sku_prefix,omitempty"`
	FieldContains map[string]string `json:"field_contains,omitempty"`
	Limit         int               `json:"limit,omitempty"`
}

// TestPullResult is the outward-facing outcome of a test pull, merged with
// the engine's validation and suggestion output and persisted by the log
// repository.
type TestPullResult struct {
	SupplierID        uuid.UUID                `json:"supplier_id"`
	Success           bool                     `json:"success"`
	Message           string                   `json:"message"`
	SampleData        []Record                 `json:"sample_data,omitempty"`
	ErrorDetails      map[string]any           `json:"error_details,omitempty"`
	SchemaValidation  []SchemaValidationResult `json:"schema_validation,omitempty"`
	MappingSuggestion *MappingSuggestion       `json:"mapping_suggestion,omitempty"`
	MappingConfidence float64                  `json:"mapping_confidence"`
	Timestamp         time.Time                `json:"timestamp"`
}
