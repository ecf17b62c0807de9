package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SourceType identifies which kind of data source a mapping template targets.
type SourceType string

const (
	SourceTypeFTP        SourceType = "ftp"
	SourceTypeAPI        SourceType = "api"
	SourceTypeFileUpload SourceType = "file_upload"
	SourceTypeEDI        SourceType = "edi"
)

// FieldMapping pairs a supplier-side source field with the canonical
// destination field it should populate.
type FieldMapping struct {
	SourceField      string `json:"sourceField"`
	DestinationField string `json:"destinationField"`
}

// MappingTemplate describes how a supplier's fields translate into the
// canonical product schema. Transformations and ValidationRules are opaque
// payloads carried for downstream processors; the scoring engine never
// interprets them.
type MappingTemplate struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	SourceType      SourceType      `json:"source_type"`
	Mappings        []FieldMapping  `json:"mappings"`
	ExpectedSchema  Schema          `json:"expected_schema,omitempty"`
	Transformations json.RawMessage `json:"transformations,omitempty"`
	ValidationRules json.RawMessage `json:"validation_rules,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// SourceFields returns the template's declared source field names in mapping
// order, skipping empty entries.
func (t MappingTemplate) SourceFields() []string {
	fields := make([]string, 0, len(t.Mappings))
	for _, m := range t.Mappings {
		if m.SourceField != "" {
			fields = append(fields, m.SourceField)
		}
	}
	return fields
}

// DecodeFieldMappings parses a stored field mapping payload. Template stores
// may hold mappings either as a JSON array or as a doubly-encoded JSON
// string; both forms are accepted.
func DecodeFieldMappings(raw json.RawMessage) ([]FieldMapping, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var mappings []FieldMapping
	if err := json.Unmarshal(raw, &mappings); err == nil {
		return mappings, nil
	}

	var serialized string
	if err := json.Unmarshal(raw, &serialized); err != nil {
		return nil, fmt.Errorf("field mappings are neither an array nor a string: %w", err)
	}
	if err := json.Unmarshal([]byte(serialized), &mappings); err != nil {
		return nil, fmt.Errorf("failed to decode serialized field mappings: %w", err)
	}
	return mappings, nil
}
