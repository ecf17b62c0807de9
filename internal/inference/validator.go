package inference

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/merchops/supplier-mdm/internal/domain"
)

// DetectionPolicy selects how a field's expected/actual types are derived.
type DetectionPolicy string

const (
	// PolicyValueSampling detects the actual type from sampled values and
	// compares it against the configured schema. This is the default.
	PolicyValueSampling DetectionPolicy = "value_sampling"
	// PolicyNameHeuristic derives the expected type from the field name
	// instead of the configured schema, for sources where no schema has been
	// agreed yet. Actual types are still sampled from values.
	PolicyNameHeuristic DetectionPolicy = "name_heuristic"
)

// maxDiscoveryRecords bounds field-name discovery on wide or irregular data.
const maxDiscoveryRecords = 10

type dateFormat struct {
	name   string
	layout string
}

// dateFormats is tried in order; the first layout that parses wins and its
// name is reported in the validation note.
var dateFormats = []dateFormat{
	{"YYYY-MM-DD", "2006-01-02"},
	{"DD/MM/YYYY", "02/01/2006"},
	{"MM/DD/YYYY", "01/02/2006"},
	{"YYYY/MM/DD", "2006/01/02"},
	{"DD-MM-YYYY", "02-01-2006"},
	{"MM-DD-YYYY", "01-02-2006"},
	{"Mon DD, YYYY", "Jan 02, 2006"},
	{"DD Mon YYYY", "02 Jan 2006"},
}

// Validator compares inferred field types against an expected schema with
// coercion-tolerant equivalence rules. It holds no mutable state and is safe
// for concurrent use.
type Validator struct {
	schema domain.Schema
	policy DetectionPolicy
}

// NewValidator builds a validator for the given schema and policy. A nil
// schema falls back to the built-in product schema; an empty policy falls
// back to value sampling.
func NewValidator(schema domain.Schema, policy DetectionPolicy) *Validator {
	if schema == nil {
		schema = domain.DefaultProductSchema()
	}
	if policy == "" {
		policy = PolicyValueSampling
	}
	return &Validator{schema: schema.Clone(), policy: policy}
}

// Validate returns one result per field name observed across the batch.
// Field discovery is bounded to the first maxDiscoveryRecords records; value
// gathering spans the whole batch. Output order is sorted by field name for
// determinism, but callers must treat the results as a set.
func (v *Validator) Validate(records []domain.Record) []domain.SchemaValidationResult {
	if len(records) == 0 {
		return []domain.SchemaValidationResult{}
	}

	names := domain.FieldNames(records, maxDiscoveryRecords)

	fieldValues := make(map[string][]any, len(names))
	for _, record := range records {
		for name := range names {
			if value, ok := record[name]; ok {
				fieldValues[name] = append(fieldValues[name], value)
			}
		}
	}

	results := make([]domain.SchemaValidationResult, 0, len(names))
	for name := range names {
		values := fieldValues[name]
		actual := DetectFieldType(values)

		var expected domain.FieldType
		if v.policy == PolicyNameHeuristic {
			expected = ExpectedTypeFromName(name)
		} else {
			var ok bool
			expected, ok = v.schema[name]
			if !ok {
				expected = domain.FieldTypeUnknown
			}
		}

		valid, notes := compareTypes(expected, actual, values)

		results = append(results, domain.SchemaValidationResult{
			FieldName:    name,
			ExpectedType: expected,
			ActualType:   actual,
			Valid:        valid,
			SampleValue:  representative(values),
			Notes:        notes,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].FieldName < results[j].FieldName
	})
	return results
}

// representative picks the value shown in results and used for single-value
// coercion checks: the first non-null value present for the field.
func representative(values []any) any {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// compareTypes applies the tolerant equivalence rules. Batch-level number
// coercion inspects every non-null value; integer and date coercion check
// only the representative value. That asymmetry matches the contract and is
// not to be "fixed" by sampling all values.
func compareTypes(expected, actual domain.FieldType, values []any) (bool, string) {
	if actual == expected {
		// Numeric and date columns often arrive as strings; when detection
		// already coerced them, surface that in the note.
		if rep, ok := representative(values).(string); ok {
			switch expected {
			case domain.FieldTypeNumber, domain.FieldTypeInteger:
				return true, "String values parse as numbers"
			case domain.FieldTypeDate:
				if format, parsed := parseDate(rep); parsed {
					return true, fmt.Sprintf("Parsed date using format %s", format)
				}
			}
		}
		return true, ""
	}

	switch {
	case expected == domain.FieldTypeNumber && actual == domain.FieldTypeInteger:
		return true, ""

	case expected == domain.FieldTypeBoolean && actual == domain.FieldTypeInteger:
		return true, "Integer values accepted as 0/1 boolean encoding"

	case (expected == domain.FieldTypeID || expected == domain.FieldTypeUUID) && actual == domain.FieldTypeString:
		return true, ""

	case expected == domain.FieldTypeNumber && actual == domain.FieldTypeString:
		if allNumericStrings(values) {
			return true, "String values parse as numbers"
		}
		return false, fmt.Sprintf("Expected %s, found %s; string values do not all parse as numbers", expected, actual)

	case expected == domain.FieldTypeInteger && actual == domain.FieldTypeString:
		rep := representative(values)
		if s, ok := rep.(string); ok {
			if _, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
				return true, "String value parses as integer"
			}
		}
		return false, fmt.Sprintf("Expected %s, found %s; value %v does not parse as integer", expected, actual, rep)

	case expected == domain.FieldTypeDate && actual == domain.FieldTypeString:
		rep := representative(values)
		if s, ok := rep.(string); ok {
			if format, parsed := parseDate(s); parsed {
				return true, fmt.Sprintf("Parsed date using format %s", format)
			}
		}
		return false, fmt.Sprintf("Expected %s, found %s; value %v matched no known date format", expected, actual, rep)

	case expected == domain.FieldTypeUnknown:
		return false, "Field not in expected schema"
	}

	return false, fmt.Sprintf("Expected %s, found %s", expected, actual)
}

func allNumericStrings(values []any) bool {
	sawValue := false
	for _, v := range values {
		if v == nil {
			continue
		}
		sawValue = true
		if _, ok := numericValue(v); !ok {
			return false
		}
	}
	return sawValue
}

// parseDate tries the ordered format list and reports the first format that
// accepts the value.
func parseDate(value string) (string, bool) {
	trimmed := strings.TrimSpace(value)
	for _, format := range dateFormats {
		if _, err := time.Parse(format.layout, trimmed); err == nil {
			return format.name, true
		}
	}
	return "", false
}
