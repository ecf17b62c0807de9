package domain

// Record is one flat row of supplier data as returned by a connector. Values
// may be scalars, nested objects, or lists; no fixed schema is assumed and
// records in the same batch do not need to share a field set.
type Record map[string]any

// FieldNames collects the union of field names across the first sampleSize
// records. Bounding the scan keeps cost constant on wide or irregular data.
func FieldNames(records []Record, sampleSize int) map[string]struct{} {
	if sampleSize <= 0 || sampleSize > len(records) {
		sampleSize = len(records)
	}

	names := make(map[string]struct{})
	for _, record := range records[:sampleSize] {
		for name := range record {
			names[name] = struct{}{}
		}
	}
	return names
}
