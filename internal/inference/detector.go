package inference

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/merchops/supplier-mdm/internal/domain"
)

// maxSampleValues bounds how many non-null values are inspected per field.
const maxSampleValues = 5

// looseDatePattern accepts D/M/Y, Y-M-D and ISO-8601 date-time prefixes.
var looseDatePattern = regexp.MustCompile(`^\d{1,4}[/-]\d{1,2}[/-]\d{1,4}|^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}`)

// DetectFieldType infers a semantic type from sampled values. Detection is
// all-or-nothing per type: a single non-conforming value drops the field to a
// looser classification, usually string. That conservatism is deliberate; a
// column that is "mostly numeric" is not numeric.
//
// Only the first maxSampleValues non-null values are inspected. An empty
// input yields unknown; all-null input yields null.
func DetectFieldType(values []any) domain.FieldType {
	if len(values) == 0 {
		return domain.FieldTypeUnknown
	}

	sampled := make([]any, 0, maxSampleValues)
	for _, v := range values {
		if v == nil {
			continue
		}
		sampled = append(sampled, v)
		if len(sampled) == maxSampleValues {
			break
		}
	}
	if len(sampled) == 0 {
		return domain.FieldTypeNull
	}

	if allNumeric(sampled) {
		if allIntegral(sampled) {
			return domain.FieldTypeInteger
		}
		return domain.FieldTypeNumber
	}
	if allBoolean(sampled) {
		return domain.FieldTypeBoolean
	}
	if allDateLike(sampled) {
		return domain.FieldTypeDate
	}
	if allObjects(sampled) {
		return domain.FieldTypeObject
	}
	if allArrays(sampled) {
		return domain.FieldTypeArray
	}
	return domain.FieldTypeString
}

func allNumeric(values []any) bool {
	for _, v := range values {
		if _, ok := numericValue(v); !ok {
			return false
		}
	}
	return true
}

func allIntegral(values []any) bool {
	for _, v := range values {
		f, ok := numericValue(v)
		if !ok || math.Mod(f, 1) != 0 {
			return false
		}
	}
	return true
}

// numericValue reports the float form of a numeric or numeric-looking value.
// Booleans are excluded even though Go would not confuse them; JSON decoding
// of loosely typed feeds can surface 0/1 as bool.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

var booleanTokens = map[string]struct{}{
	"true": {}, "false": {}, "yes": {}, "no": {}, "0": {}, "1": {},
}

func allBoolean(values []any) bool {
	for _, v := range values {
		switch b := v.(type) {
		case bool:
		case string:
			if _, ok := booleanTokens[strings.ToLower(strings.TrimSpace(b))]; !ok {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func allDateLike(values []any) bool {
	for _, v := range values {
		s, ok := v.(string)
		if !ok || !looseDatePattern.MatchString(s) {
			return false
		}
	}
	return true
}

func allObjects(values []any) bool {
	for _, v := range values {
		switch v.(type) {
		case map[string]any, domain.Record:
		default:
			return false
		}
	}
	return true
}

func allArrays(values []any) bool {
	for _, v := range values {
		if _, ok := v.([]any); !ok {
			return false
		}
	}
	return true
}
