package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/merchops/supplier-mdm/internal/domain"
)

// Format selects the output encoding for a sample export.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrNoRecords is returned when there is nothing to export.
var ErrNoRecords = errors.New("no records to export")

// File is a rendered export ready to stream to a client.
type File struct {
	Name        string
	ContentType string
	Payload     []byte
}

// Render flattens a sample batch into a downloadable file. Columns are the
// union of field names across the batch, sorted for a stable layout; records
// missing a field leave the cell empty.
func Render(baseName string, records []domain.Record, format Format) (File, error) {
	if len(records) == 0 {
		return File{}, ErrNoRecords
	}

	headers := columnHeaders(records)

	switch format {
	case FormatCSV, "":
		payload, err := renderCSV(headers, records)
		if err != nil {
			return File{}, err
		}
		return File{
			Name:        baseName + ".csv",
			ContentType: "text/csv",
			Payload:     payload,
		}, nil
	case FormatXLSX:
		payload, err := renderXLSX(headers, records)
		if err != nil {
			return File{}, err
		}
		return File{
			Name:        baseName + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Payload:     payload,
		}, nil
	default:
		return File{}, fmt.Errorf("unsupported export format %q", format)
	}
}

func columnHeaders(records []domain.Record) []string {
	nameSet := domain.FieldNames(records, 0)
	headers := make([]string, 0, len(nameSet))
	for name := range nameSet {
		headers = append(headers, name)
	}
	sort.Strings(headers)
	return headers
}

func renderCSV(headers []string, records []domain.Record) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(headers))
	for _, record := range records {
		for i, header := range headers {
			row[i] = formatValue(record[header])
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush export: %w", err)
	}
	return buf.Bytes(), nil
}

func renderXLSX(headers []string, records []domain.Record) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)

	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	for rowIdx, record := range records {
		for colIdx, header := range headers {
			value, ok := record[header]
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, cellValue(value)); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// cellValue keeps scalars native for spreadsheet cells and flattens
// everything else to its display form.
func cellValue(value any) any {
	switch value.(type) {
	case string, bool,
		int, int32, int64, uint, uint32, uint64,
		float32, float64:
		return value
	default:
		return formatValue(value)
	}
}

func formatValue(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	// time.Time satisfies fmt.Stringer, so it must be matched first to get
	// RFC3339 rather than Go's default time format.
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	case json.Number:
		return v.String()
	case float32, float64, int, int32, int64, uint, uint32, uint64:
		return fmt.Sprintf("%v", v)
	case []byte:
		return string(v)
	case map[string]any, []any, domain.Record:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	default:
		return fmt.Sprintf("%v", v)
	}
}
