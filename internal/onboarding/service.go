package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/merchops/supplier-mdm/internal/connector"
	"github.com/merchops/supplier-mdm/internal/domain"
	"github.com/merchops/supplier-mdm/internal/inference"
	"github.com/merchops/supplier-mdm/internal/mapping"
	"github.com/merchops/supplier-mdm/internal/records"
	"github.com/merchops/supplier-mdm/internal/repository"
)

const (
	// autoAssignThreshold is the confidence above which an onboarding run
	// assigns the suggested template without human review.
	autoAssignThreshold = 0.7

	// defaultSampleLimit bounds a test pull when the caller does not set one.
	defaultSampleLimit = 100
)

// ErrNoDataSource is returned when a supplier has nothing to pull from.
var ErrNoDataSource = errors.New("no pullable data source configured")

// Service orchestrates supplier onboarding: registration, file uploads, test
// pulls and mapping template assignment.
type Service struct {
	suppliers repository.SupplierRepository
	templates repository.MappingTemplateRepository
	logs      repository.TestPullLogRepository
	validator *inference.Validator
	scorer    *mapping.Scorer
	uploadDir string
}

// NewService creates the onboarding service. validator and scorer carry the
// engine configuration; uploadDir is where supplier file uploads are stored.
func NewService(
	suppliers repository.SupplierRepository,
	templates repository.MappingTemplateRepository,
	logs repository.TestPullLogRepository,
	validator *inference.Validator,
	scorer *mapping.Scorer,
	uploadDir string,
) *Service {
	return &Service{
		suppliers: suppliers,
		templates: templates,
		logs:      logs,
		validator: validator,
		scorer:    scorer,
		uploadDir: uploadDir,
	}
}

// Request describes a full onboarding run: the supplier to register, an
// optional uploaded file, and the sample size for the test pull.
type Request struct {
	Supplier    domain.Supplier
	FileName    string
	FilePayload []byte
	PullLimit   int
}

// Outcome reports how far an onboarding run got. Errors accumulate per step
// rather than aborting the run, so a failed test pull still leaves a
// registered supplier behind.
type Outcome struct {
	Supplier         domain.Supplier        `json:"supplier"`
	StepsCompleted   []string               `json:"steps_completed"`
	TestPull         *domain.TestPullResult `json:"test_pull,omitempty"`
	AssignedTemplate string                 `json:"assigned_template,omitempty"`
	Errors           []string               `json:"errors"`
}

// Onboard runs the onboarding pipeline: create the supplier, store the
// uploaded file if one was sent, run a test pull, and auto-assign the
// suggested template when its confidence clears the threshold.
func (s *Service) Onboard(ctx context.Context, req Request) (Outcome, error) {
	outcome := Outcome{
		StepsCompleted: []string{},
		Errors:         []string{},
	}

	supplier, err := s.CreateSupplier(ctx, req.Supplier)
	if err != nil {
		return outcome, fmt.Errorf("failed to create supplier: %w", err)
	}
	outcome.Supplier = supplier
	outcome.StepsCompleted = append(outcome.StepsCompleted, "supplier_created")

	if len(req.FilePayload) > 0 {
		supplier, err = s.StoreUpload(ctx, supplier.ID, req.FileName, req.FilePayload)
		if err != nil {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("file upload: %v", err))
		} else {
			outcome.Supplier = supplier
			outcome.StepsCompleted = append(outcome.StepsCompleted, "file_stored")
		}
	}

	limit := req.PullLimit
	if limit <= 0 {
		limit = defaultSampleLimit
	}

	result := s.pullAndAnalyze(ctx, supplier, domain.TestPullFilter{}, limit)
	s.recordLog(ctx, result)
	outcome.TestPull = &result
	if result.Success {
		outcome.StepsCompleted = append(outcome.StepsCompleted, "test_pull")
	} else {
		outcome.Errors = append(outcome.Errors, fmt.Sprintf("test pull: %s", result.Message))
		return outcome, nil
	}

	if result.MappingSuggestion != nil && result.MappingConfidence > autoAssignThreshold {
		assigned, err := s.assignTemplate(ctx, supplier, result.MappingSuggestion.TemplateID)
		if err != nil {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("template assignment: %v", err))
		} else {
			outcome.Supplier = assigned
			outcome.AssignedTemplate = result.MappingSuggestion.TemplateID.String()
			outcome.StepsCompleted = append(outcome.StepsCompleted, "template_assigned")
		}
	}

	return outcome, nil
}

// CreateSupplier registers a supplier, minting identity and timestamps when
// the caller did not.
func (s *Service) CreateSupplier(ctx context.Context, supplier domain.Supplier) (domain.Supplier, error) {
	if supplier.ID == uuid.Nil {
		supplier.ID = uuid.New()
	}
	if supplier.OnboardingStatus == "" {
		supplier.OnboardingStatus = domain.OnboardingPending
	}
	now := time.Now()
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = now
	}
	if supplier.UpdatedAt.IsZero() {
		supplier.UpdatedAt = now
	}
	return s.suppliers.Create(ctx, supplier)
}

// StoreUpload saves an uploaded data file for the supplier and records its
// path in the supplier's file upload source configuration.
func (s *Service) StoreUpload(ctx context.Context, supplierID uuid.UUID, fileName string, payload []byte) (domain.Supplier, error) {
	supplier, err := s.suppliers.GetByID(ctx, supplierID)
	if err != nil {
		return domain.Supplier{}, err
	}

	if supplier.DataSources == nil {
		supplier.DataSources = &domain.DataSourceConfig{}
	}
	if supplier.DataSources.FileUpload == nil {
		supplier.DataSources.FileUpload = &domain.FileUploadConfig{
			AllowedExtensions: []string{".csv", ".xlsx"},
			HasHeader:         true,
			Delimiter:         ",",
		}
	}

	base := filepath.Base(fileName)
	if err := checkExtension(base, supplier.DataSources.FileUpload.AllowedExtensions); err != nil {
		return domain.Supplier{}, err
	}

	dir := filepath.Join(s.uploadDir, supplierID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.Supplier{}, fmt.Errorf("failed to create upload directory: %w", err)
	}
	path := filepath.Join(dir, base)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return domain.Supplier{}, fmt.Errorf("failed to store uploaded file: %w", err)
	}

	supplier.DataSources.FileUpload.UploadedFilePath = path
	return s.suppliers.Update(ctx, supplier)
}

// RunTestPull pulls a sample from the supplier's preferred data source,
// applies the filter, validates the sample against the expected schema and
// scores mapping templates. The outcome is persisted to the test pull log.
// Pull failures are reported in the result, not as an error; an error means
// the supplier could not be loaded.
func (s *Service) RunTestPull(ctx context.Context, supplierID uuid.UUID, filter domain.TestPullFilter, limit int) (domain.TestPullResult, error) {
	supplier, err := s.suppliers.GetByID(ctx, supplierID)
	if err != nil {
		return domain.TestPullResult{}, err
	}

	if limit <= 0 {
		limit = defaultSampleLimit
	}

	result := s.pullAndAnalyze(ctx, supplier, filter, limit)
	s.recordLog(ctx, result)
	return result, nil
}

// TestConnection checks reachability of the supplier's preferred data source
// without transferring data.
func (s *Service) TestConnection(ctx context.Context, supplierID uuid.UUID) (connector.Result, error) {
	supplier, err := s.suppliers.GetByID(ctx, supplierID)
	if err != nil {
		return connector.Result{}, err
	}

	conn, _, err := s.connectorFor(supplier)
	if err != nil {
		return connector.Result{
			Success:      false,
			Message:      "No data source configured for supplier",
			ErrorDetails: map[string]any{"error_message": err.Error()},
		}, nil
	}
	return conn.TestConnection(ctx), nil
}

// PullHistory lists past test pull outcomes for a supplier, newest first.
func (s *Service) PullHistory(ctx context.Context, supplierID uuid.UUID, limit, offset int) ([]domain.TestPullResult, error) {
	return s.logs.ListBySupplier(ctx, supplierID, limit, offset)
}

func (s *Service) pullAndAnalyze(ctx context.Context, supplier domain.Supplier, filter domain.TestPullFilter, limit int) domain.TestPullResult {
	result := domain.TestPullResult{
		SupplierID: supplier.ID,
		Timestamp:  time.Now(),
	}

	conn, sourceType, err := s.connectorFor(supplier)
	if err != nil {
		result.Message = "No data source configured for supplier"
		result.ErrorDetails = map[string]any{"error_message": err.Error()}
		return result
	}

	pull := conn.PullSample(ctx, limit)
	result.Success = pull.Success
	result.Message = pull.Message
	result.ErrorDetails = pull.ErrorDetails
	if !pull.Success {
		return result
	}

	sample := records.Apply(pull.SampleData, filter)
	result.SampleData = sample
	result.SchemaValidation = s.validator.Validate(sample)

	templates, err := s.templates.ListBySourceType(ctx, sourceType)
	if err != nil {
		log.Printf("[ONBOARDING] failed to load templates for %s: %v", sourceType, err)
		return result
	}

	suggestion, confidence := s.scorer.Suggest(sample, templates)
	result.MappingSuggestion = suggestion
	result.MappingConfidence = confidence
	return result
}

func (s *Service) connectorFor(supplier domain.Supplier) (connector.Connector, domain.SourceType, error) {
	sourceType, ok := connector.Select(supplier.DataSources)
	if !ok {
		return nil, "", ErrNoDataSource
	}
	conn, err := connector.New(sourceType, *supplier.DataSources)
	if err != nil {
		return nil, "", err
	}
	return conn, sourceType, nil
}

func (s *Service) assignTemplate(ctx context.Context, supplier domain.Supplier, templateID uuid.UUID) (domain.Supplier, error) {
	if supplier.DataSources == nil {
		supplier.DataSources = &domain.DataSourceConfig{}
	}
	supplier.DataSources.MappingTemplateID = templateID.String()
	return s.suppliers.Update(ctx, supplier)
}

// recordLog persists the pull outcome. Logging is best-effort: a storage
// failure is reported but never fails the pull itself.
func (s *Service) recordLog(ctx context.Context, result domain.TestPullResult) {
	if s.logs == nil {
		return
	}
	if err := s.logs.Record(ctx, result); err != nil {
		log.Printf("[ONBOARDING] failed to record test pull for supplier %s: %v", result.SupplierID, err)
	}
}

func checkExtension(fileName string, allowed []string) error {
	if len(allowed) == 0 {
		return nil
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	for _, candidate := range allowed {
		if ext == strings.TrimPrefix(strings.ToLower(candidate), ".") {
			return nil
		}
	}
	return fmt.Errorf("file extension %q is not allowed (allowed: %s)", ext, strings.Join(allowed, ", "))
}
