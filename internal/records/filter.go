package records

import (
	"fmt"
	"strings"

	"github.com/merchops/supplier-mdm/internal/domain"
)

// identifierFields are the candidate fields checked by the SKU prefix
// filter, in priority order.
var identifierFields = []string{"sku", "product_id", "item_number", "part_number"}

// Apply narrows a sample batch by the supplied criteria. Absent criteria are
// no-ops; supplied ones intersect, and Limit truncates last. The input slice
// is never mutated.
func Apply(records []domain.Record, filter domain.TestPullFilter) []domain.Record {
	filtered := make([]domain.Record, len(records))
	copy(filtered, records)

	if filter.Category != "" {
		filtered = keep(filtered, func(r domain.Record) bool {
			category, ok := r["category"].(string)
			return ok && category == filter.Category
		})
	}

	if filter.SKUPrefix != "" {
		filtered = keep(filtered, func(r domain.Record) bool {
			for _, field := range identifierFields {
				if value, ok := r[field]; ok && strings.HasPrefix(text(value), filter.SKUPrefix) {
					return true
				}
			}
			return false
		})
	}

	for field, substring := range filter.FieldContains {
		if substring == "" {
			continue
		}
		needle := strings.ToLower(substring)
		name := field
		filtered = keep(filtered, func(r domain.Record) bool {
			value, ok := r[name]
			return ok && strings.Contains(strings.ToLower(text(value)), needle)
		})
	}

	if filter.Limit > 0 && len(filtered) > filter.Limit {
		filtered = filtered[:filter.Limit]
	}

	return filtered
}

func keep(records []domain.Record, predicate func(domain.Record) bool) []domain.Record {
	out := records[:0:0]
	for _, r := range records {
		if predicate(r) {
			out = append(out, r)
		}
	}
	return out
}

func text(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}
