package connector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/merchops/supplier-mdm/internal/domain"
)

func TestParseTabularCSV(t *testing.T) {
	payload := []byte("sku,name,price,inventory\nA1,Widget,19.99,5\nA2,Gadget,4.50,12\n")
	config := domain.FileUploadConfig{HasHeader: true, Delimiter: ","}

	records, err := ParseTabular("products.csv", payload, config, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first["sku"] != "A1" {
		t.Errorf("sku = %v", first["sku"])
	}
	if first["price"] != 19.99 {
		t.Errorf("price should coerce to float64, got %T %v", first["price"], first["price"])
	}
	if first["inventory"] != int64(5) {
		t.Errorf("inventory should coerce to int64, got %T %v", first["inventory"], first["inventory"])
	}
}

func TestParseTabularCSVWithBOM(t *testing.T) {
	payload := append([]byte{0xEF, 0xBB, 0xBF}, []byte("sku,name\nA1,Widget\n")...)
	config := domain.FileUploadConfig{HasHeader: true, Delimiter: ","}

	records, err := ParseTabular("products.csv", payload, config, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records[0]["sku"] != "A1" {
		t.Errorf("BOM should be stripped from the first header, got record %v", records[0])
	}
}

func TestParseTabularCustomDelimiter(t *testing.T) {
	payload := []byte("sku;name\nA1;Widget\n")
	config := domain.FileUploadConfig{HasHeader: true, Delimiter: ";"}

	records, err := ParseTabular("products.csv", payload, config, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records[0]["name"] != "Widget" {
		t.Errorf("unexpected record %v", records[0])
	}
}

func TestParseTabularNoHeader(t *testing.T) {
	payload := []byte("A1,Widget\nA2,Gadget\n")
	config := domain.FileUploadConfig{HasHeader: false, Delimiter: ","}

	records, err := ParseTabular("products.csv", payload, config, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0]["column_1"] != "A1" || records[0]["column_2"] != "Widget" {
		t.Errorf("positional headers expected, got %v", records[0])
	}
}

func TestParseTabularLimit(t *testing.T) {
	payload := []byte("sku\nA1\nA2\nA3\n")
	config := domain.FileUploadConfig{HasHeader: true, Delimiter: ","}

	records, err := ParseTabular("products.csv", payload, config, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("limit should cap records, got %d", len(records))
	}
}

func TestParseTabularSkipsEmptyCellsAndRows(t *testing.T) {
	payload := []byte("sku,name\nA1,\n,\nA2,Gadget\n")
	config := domain.FileUploadConfig{HasHeader: true, Delimiter: ","}

	records, err := ParseTabular("products.csv", payload, config, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("blank rows should be dropped, got %d records", len(records))
	}
	if _, ok := records[0]["name"]; ok {
		t.Errorf("empty cells should be omitted, got %v", records[0])
	}
}

func TestParseTabularUnsupportedFormat(t *testing.T) {
	_, err := ParseTabular("products.txt", []byte("hello"), domain.FileUploadConfig{}, 0)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestFileConnectorPullSample(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.csv")
	if err := os.WriteFile(path, []byte("sku,price\nA1,19.99\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	conn := NewFileConnector(domain.FileUploadConfig{
		HasHeader:        true,
		Delimiter:        ",",
		UploadedFilePath: path,
	})

	result := conn.TestConnection(context.Background())
	if !result.Success {
		t.Fatalf("test connection failed: %+v", result)
	}

	result = conn.PullSample(context.Background(), 10)
	if !result.Success {
		t.Fatalf("pull failed: %+v", result)
	}
	if len(result.SampleData) != 1 {
		t.Fatalf("expected 1 record, got %d", len(result.SampleData))
	}
	if result.SampleData[0]["price"] != 19.99 {
		t.Errorf("unexpected record %v", result.SampleData[0])
	}
}

func TestFileConnectorMissingFile(t *testing.T) {
	conn := NewFileConnector(domain.FileUploadConfig{})

	result := conn.PullSample(context.Background(), 10)
	if result.Success {
		t.Error("pull without a configured file should fail")
	}

	conn = NewFileConnector(domain.FileUploadConfig{UploadedFilePath: "/nonexistent/file.csv"})
	result = conn.TestConnection(context.Background())
	if result.Success {
		t.Error("missing file should fail the connection test")
	}
	if result.ErrorDetails == nil {
		t.Error("failures should carry error details")
	}
}
