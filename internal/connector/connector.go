package connector

import (
	"context"
	"errors"
	"fmt"

	"github.com/merchops/supplier-mdm/internal/domain"
)

// ErrUnsupportedSource is returned when no connector exists for a source type.
var ErrUnsupportedSource = errors.New("unsupported data source type")

// Result is the uniform outcome of any connector operation. Failures are
// reported in-band so the onboarding pipeline can call connectors
// speculatively and tolerate partial failure; connector methods never panic.
type Result struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	SampleData   []domain.Record `json:"sample_data,omitempty"`
	ErrorDetails map[string]any  `json:"error_details,omitempty"`
}

// failure builds an error Result with the standard detail shape.
func failure(message string, err error) Result {
	details := map[string]any{}
	if err != nil {
		details["error_message"] = err.Error()
	}
	return Result{Success: false, Message: message, ErrorDetails: details}
}

// Connector pulls sample product data from one supplier data source.
type Connector interface {
	// TestConnection verifies the source is reachable without transferring
	// data.
	TestConnection(ctx context.Context) Result
	// PullSample retrieves up to limit records for inspection.
	PullSample(ctx context.Context, limit int) Result
}

// New builds the connector for a supplier data source configuration.
func New(sourceType domain.SourceType, sources domain.DataSourceConfig) (Connector, error) {
	switch sourceType {
	case domain.SourceTypeFTP:
		if sources.FTP == nil {
			return nil, fmt.Errorf("ftp source selected but not configured")
		}
		return NewFTPConnector(*sources.FTP), nil
	case domain.SourceTypeAPI:
		if sources.API == nil {
			return nil, fmt.Errorf("api source selected but not configured")
		}
		return NewAPIConnector(*sources.API), nil
	case domain.SourceTypeFileUpload:
		if sources.FileUpload == nil {
			return nil, fmt.Errorf("file upload source selected but not configured")
		}
		return NewFileConnector(*sources.FileUpload), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, sourceType)
	}
}

// Select picks the source type to use for a test pull, preferring
// FTP > API > file upload. EDI configurations are registered but not yet
// pullable.
func Select(sources *domain.DataSourceConfig) (domain.SourceType, bool) {
	if sources == nil {
		return "", false
	}
	switch {
	case sources.FTP != nil:
		return domain.SourceTypeFTP, true
	case sources.API != nil:
		return domain.SourceTypeAPI, true
	case sources.FileUpload != nil:
		return domain.SourceTypeFileUpload, true
	default:
		return "", false
	}
}
