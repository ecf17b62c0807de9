package inference

import (
	"strings"

	"github.com/merchops/supplier-mdm/internal/domain"
)

// ExpectedTypeFromName guesses a field's expected type from its name alone.
// This backs the name-heuristic detection policy, used when sample values are
// too sparse or too dirty to trust.
func ExpectedTypeFromName(name string) domain.FieldType {
	lower := strings.ToLower(strings.TrimSpace(name))

	switch {
	case containsAny(lower, "price", "cost", "msrp", "amount"):
		return domain.FieldTypeNumber
	case containsAny(lower, "qty", "quantity", "stock", "inventory", "count"):
		return domain.FieldTypeInteger
	case containsAny(lower, "date", "created", "updated", "timestamp"):
		return domain.FieldTypeDate
	case strings.HasPrefix(lower, "is_"), strings.HasPrefix(lower, "has_"),
		containsAny(lower, "active", "enabled", "flag"):
		return domain.FieldTypeBoolean
	case strings.Contains(lower, "uuid"):
		return domain.FieldTypeUUID
	case lower == "id", strings.HasSuffix(lower, "_id"):
		return domain.FieldTypeID
	default:
		return domain.FieldTypeString
	}
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
