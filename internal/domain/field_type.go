package domain

// FieldType is the semantic type tag assigned to a sampled field.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeNumber  FieldType = "number"
	FieldTypeInteger FieldType = "integer"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeDate    FieldType = "date"
	FieldTypeObject  FieldType = "object"
	FieldTypeArray   FieldType = "array"
	FieldTypeID      FieldType = "id"
	FieldTypeUUID    FieldType = "uuid"
	FieldTypeUnknown FieldType = "unknown"
	// FieldTypeNull marks a field whose sampled values were all null. It is
	// distinct from FieldTypeUnknown, which means no values were seen at all.
	FieldTypeNull FieldType = "null"
)

// Schema maps canonical field names to their expected semantic types.
type Schema map[string]FieldType

// DefaultProductSchema returns a fresh copy of the built-in product schema
// used when a mapping template does not declare its own expectations.
func DefaultProductSchema() Schema {
	return Schema{
		"sku":         FieldTypeString,
		"name":        FieldTypeString,
		"description": FieldTypeString,
		"price":       FieldTypeNumber,
		"inventory":   FieldTypeNumber,
		"category":    FieldTypeString,
		"brand":       FieldTypeString,
		"upc":         FieldTypeString,
		"weight":      FieldTypeNumber,
		"dimensions":  FieldTypeObject,
	}
}

// Clone returns an independent copy of the schema.
func (s Schema) Clone() Schema {
	if s == nil {
		return nil
	}
	out := make(Schema, len(s))
	for name, t := range s {
		out[name] = t
	}
	return out
}
