package mapping

import "strings"

// SynonymTable groups canonical field names with their common supplier-side
// variations. It is immutable configuration: build one at startup and share.
type SynonymTable map[string][]string

// DefaultSynonyms returns the built-in table of common product field
// variations seen across supplier feeds.
func DefaultSynonyms() SynonymTable {
	return SynonymTable{
		"sku":        {"sku", "item_number", "product_id", "product_code", "item_code", "article_number", "part_number"},
		"name":       {"name", "product_name", "title", "item_name", "description", "product_title", "product_description"},
		"price":      {"price", "unit_price", "retail_price", "cost", "wholesale_price", "msrp", "list_price"},
		"inventory":  {"inventory", "stock", "quantity", "qty", "on_hand", "available", "stock_level"},
		"category":   {"category", "department", "product_type", "product_category", "group", "product_group"},
		"brand":      {"brand", "manufacturer", "vendor", "supplier", "make", "producer"},
		"upc":        {"upc", "ean", "barcode", "gtin", "isbn"},
		"weight":     {"weight", "item_weight", "shipping_weight", "package_weight"},
		"dimensions": {"dimensions", "size", "measurements", "package_dimensions", "shipping_dimensions"},
	}
}

// SameGroup reports whether two field names belong to the same synonym group
// (case-insensitive).
func (t SynonymTable) SameGroup(a, b string) bool {
	la := strings.ToLower(a)
	lb := strings.ToLower(b)
	if la == lb {
		return true
	}
	for _, variations := range t {
		foundA := false
		foundB := false
		for _, v := range variations {
			switch v {
			case la:
				foundA = true
			case lb:
				foundB = true
			}
		}
		if foundA && foundB {
			return true
		}
	}
	return false
}
