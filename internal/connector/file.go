package connector

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/merchops/supplier-mdm/internal/domain"
)

// ErrUnsupportedFormat is returned when an uploaded file is not CSV or XLSX.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// FileConnector reads a previously uploaded supplier file.
type FileConnector struct {
	config domain.FileUploadConfig
}

// NewFileConnector builds a connector over the uploaded file named in the
// configuration.
func NewFileConnector(config domain.FileUploadConfig) *FileConnector {
	if len(config.AllowedExtensions) == 0 {
		config.AllowedExtensions = []string{"csv", "xlsx"}
	}
	if config.Delimiter == "" {
		config.Delimiter = ","
	}
	return &FileConnector{config: config}
}

func (c *FileConnector) TestConnection(ctx context.Context) Result {
	path := c.config.UploadedFilePath
	if path == "" {
		return failure("No uploaded file configured for this supplier", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		return failure(fmt.Sprintf("Uploaded file %s is not readable", filepath.Base(path)), err)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if !c.extensionAllowed(ext) {
		return failure(fmt.Sprintf("File extension .%s is not allowed", ext), nil)
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf("File %s is available (%d bytes)", filepath.Base(path), info.Size()),
	}
}

func (c *FileConnector) PullSample(ctx context.Context, limit int) Result {
	path := c.config.UploadedFilePath
	if path == "" {
		return failure("No uploaded file configured for this supplier", nil)
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		return failure(fmt.Sprintf("Failed to read uploaded file %s", filepath.Base(path)), err)
	}

	records, err := ParseTabular(filepath.Base(path), payload, c.config, limit)
	if err != nil {
		return failure(fmt.Sprintf("Failed to parse uploaded file %s", filepath.Base(path)), err)
	}

	return Result{
		Success:    true,
		Message:    fmt.Sprintf("Successfully read %d records from %s", len(records), filepath.Base(path)),
		SampleData: records,
	}
}

func (c *FileConnector) extensionAllowed(ext string) bool {
	for _, allowed := range c.config.AllowedExtensions {
		if strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}

// ParseTabular converts a CSV or XLSX payload into flat records, keyed by
// the trimmed header labels. Cell values are coerced to int64 or float64
// when they parse cleanly; empty cells are omitted from the record.
func ParseTabular(fileName string, payload []byte, config domain.FileUploadConfig, limit int) ([]domain.Record, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	var rows [][]string
	var err error

	switch ext {
	case ".csv":
		rows, err = readCSV(payload, config.Delimiter)
	case ".xlsx":
		rows, err = readExcel(payload, config.SheetName)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	return tableToRecords(rows, config.HasHeader, limit)
}

func readCSV(payload []byte, delimiter string) ([][]string, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1
	if delimiter != "" {
		csvReader.Comma = rune(delimiter[0])
	}

	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return rows, nil
}

func readExcel(payload []byte, sheetName string) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheetName == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("excel file has no sheets")
		}
		sheetName = sheets[0]
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheetName, err)
	}
	return rows, nil
}

func tableToRecords(rows [][]string, hasHeader bool, limit int) ([]domain.Record, error) {
	if len(rows) == 0 {
		return nil, errors.New("no rows found in file")
	}

	var headers []string
	var dataRows [][]string

	if hasHeader {
		headers = make([]string, len(rows[0]))
		for i, label := range rows[0] {
			name := strings.TrimSpace(label)
			if name == "" {
				name = fmt.Sprintf("column_%d", i+1)
			}
			headers[i] = name
		}
		dataRows = rows[1:]
	} else {
		width := 0
		for _, row := range rows {
			if len(row) > width {
				width = len(row)
			}
		}
		headers = make([]string, width)
		for i := range headers {
			headers[i] = fmt.Sprintf("column_%d", i+1)
		}
		dataRows = rows
	}

	records := make([]domain.Record, 0, len(dataRows))
	for _, row := range dataRows {
		record := domain.Record{}
		for i, header := range headers {
			if i >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[i])
			if cell == "" {
				continue
			}
			record[header] = coerceCell(cell)
		}
		if len(record) == 0 {
			continue
		}
		records = append(records, record)
		if limit > 0 && len(records) >= limit {
			break
		}
	}

	return records, nil
}

// coerceCell gives spreadsheet cells their natural scalar type so the
// inference engine sees numbers as numbers.
func coerceCell(cell string) any {
	if i, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return f
	}
	return cell
}
