package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/merchops/supplier-mdm/internal/domain"
	"github.com/merchops/supplier-mdm/internal/inference"
	"github.com/merchops/supplier-mdm/internal/mapping"
	"github.com/merchops/supplier-mdm/internal/onboarding"
	"github.com/merchops/supplier-mdm/internal/repository"
)

type memSupplierRepo struct {
	suppliers map[uuid.UUID]domain.Supplier
}

var _ repository.SupplierRepository = (*memSupplierRepo)(nil)

func (m *memSupplierRepo) Create(_ context.Context, s domain.Supplier) (domain.Supplier, error) {
	m.suppliers[s.ID] = s
	return s, nil
}

func (m *memSupplierRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Supplier, error) {
	s, ok := m.suppliers[id]
	if !ok {
		return domain.Supplier{}, fmt.Errorf("supplier %s: %w", id, repository.ErrNotFound)
	}
	return s, nil
}

func (m *memSupplierRepo) List(_ context.Context) ([]domain.Supplier, error) {
	out := []domain.Supplier{}
	for _, s := range m.suppliers {
		out = append(out, s)
	}
	return out, nil
}

func (m *memSupplierRepo) Update(_ context.Context, s domain.Supplier) (domain.Supplier, error) {
	if _, ok := m.suppliers[s.ID]; !ok {
		return domain.Supplier{}, fmt.Errorf("supplier %s: %w", s.ID, repository.ErrNotFound)
	}
	m.suppliers[s.ID] = s
	return s, nil
}

func (m *memSupplierRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.suppliers[id]; !ok {
		return fmt.Errorf("supplier %s: %w", id, repository.ErrNotFound)
	}
	delete(m.suppliers, id)
	return nil
}

type memTemplateRepo struct {
	templates []domain.MappingTemplate
}

var _ repository.MappingTemplateRepository = (*memTemplateRepo)(nil)

func (m *memTemplateRepo) Create(_ context.Context, t domain.MappingTemplate) (domain.MappingTemplate, error) {
	m.templates = append(m.templates, t)
	return t, nil
}

func (m *memTemplateRepo) GetByID(_ context.Context, id uuid.UUID) (domain.MappingTemplate, error) {
	for _, t := range m.templates {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.MappingTemplate{}, fmt.Errorf("mapping template %s: %w", id, repository.ErrNotFound)
}

func (m *memTemplateRepo) ListBySourceType(_ context.Context, sourceType domain.SourceType) ([]domain.MappingTemplate, error) {
	out := []domain.MappingTemplate{}
	for _, t := range m.templates {
		if t.SourceType == sourceType {
			out = append(out, t)
		}
	}
	return out, nil
}

type memLogRepo struct {
	recorded []domain.TestPullResult
}

var _ repository.TestPullLogRepository = (*memLogRepo)(nil)

func (m *memLogRepo) Record(_ context.Context, r domain.TestPullResult) error {
	m.recorded = append(m.recorded, r)
	return nil
}

func (m *memLogRepo) ListBySupplier(_ context.Context, supplierID uuid.UUID, limit, offset int) ([]domain.TestPullResult, error) {
	out := []domain.TestPullResult{}
	for _, r := range m.recorded {
		if r.SupplierID == supplierID {
			out = append(out, r)
		}
	}
	return out, nil
}

func newTestHandler(t *testing.T) (*Handler, *memSupplierRepo, *memTemplateRepo) {
	t.Helper()
	suppliers := &memSupplierRepo{suppliers: map[uuid.UUID]domain.Supplier{}}
	templates := &memTemplateRepo{}
	logs := &memLogRepo{}
	service := onboarding.NewService(
		suppliers,
		templates,
		logs,
		inference.NewValidator(nil, ""),
		mapping.NewScorer("", nil),
		t.TempDir(),
	)
	return NewHandler(service, suppliers, templates), suppliers, templates
}

func TestCreateAndGetSupplier(t *testing.T) {
	handler, _, _ := newTestHandler(t)
	mux := handler.Routes()

	body := `{"name":"Acme Distribution","contact_email":"ops@acme.example"}`
	req := httptest.NewRequest(http.MethodPost, "/api/suppliers", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rec.Code, rec.Body.String())
	}

	var created domain.Supplier
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == uuid.Nil {
		t.Error("created supplier should have an id")
	}
	if created.OnboardingStatus != domain.OnboardingPending {
		t.Errorf("new suppliers should be pending, got %s", created.OnboardingStatus)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/suppliers/"+created.ID.String(), nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get returned %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSupplierCredentialsStoredButRedacted(t *testing.T) {
	handler, suppliers, _ := newTestHandler(t)
	mux := handler.Routes()

	body := `{
		"name": "Acme Distribution",
		"contact_email": "ops@acme.example",
		"data_sources": {
			"ftp": {"host": "ftp.acme.example", "username": "feed", "password": "s3cret"},
			"api": {"url": "https://api.acme.example/products", "auth_type": "token", "token": "tok-123"}
		}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/suppliers", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rec.Code, rec.Body.String())
	}

	var created domain.Supplier
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	stored := suppliers.suppliers[created.ID]
	if stored.DataSources == nil || stored.DataSources.FTP == nil || stored.DataSources.FTP.Password != "s3cret" {
		t.Errorf("ftp password not stored: %+v", stored.DataSources)
	}
	if stored.DataSources.API == nil || stored.DataSources.API.Token != "tok-123" {
		t.Errorf("api token not stored: %+v", stored.DataSources)
	}

	for _, secret := range []string{"s3cret", "tok-123"} {
		if strings.Contains(rec.Body.String(), secret) {
			t.Errorf("response leaks credential %q", secret)
		}
	}

	req = httptest.NewRequest(http.MethodGet, "/api/suppliers/"+created.ID.String(), nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get returned %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "s3cret") {
		t.Error("get response leaks the ftp password")
	}
}

func TestCreateSupplierValidation(t *testing.T) {
	handler, _, _ := newTestHandler(t)
	mux := handler.Routes()

	req := httptest.NewRequest(http.MethodPost, "/api/suppliers", strings.NewReader(`{"name":""}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing name, got %d", rec.Code)
	}
}

func TestGetSupplierNotFound(t *testing.T) {
	handler, _, _ := newTestHandler(t)
	mux := handler.Routes()

	req := httptest.NewRequest(http.MethodGet, "/api/suppliers/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/suppliers/not-a-uuid", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed id, got %d", rec.Code)
	}
}

func TestDeleteSupplier(t *testing.T) {
	handler, suppliers, _ := newTestHandler(t)
	mux := handler.Routes()

	supplier := domain.NewSupplier("Acme", "a@b.example")
	suppliers.suppliers[supplier.ID] = supplier

	req := httptest.NewRequest(http.MethodDelete, "/api/suppliers/"+supplier.ID.String(), nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete returned %d", rec.Code)
	}
	if _, ok := suppliers.suppliers[supplier.ID]; ok {
		t.Error("supplier still present after delete")
	}
}

func TestUploadThenTestPull(t *testing.T) {
	handler, suppliers, _ := newTestHandler(t)
	mux := handler.Routes()

	supplier := domain.NewSupplier("Acme", "a@b.example")
	suppliers.suppliers[supplier.ID] = supplier

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	part, err := writer.CreateFormFile("file", "catalog.csv")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte("sku,price\nELEC-001,19.99\nFURN-001,3.25\n"))
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/suppliers/"+supplier.ID.String()+"/upload", &form)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload returned %d: %s", rec.Code, rec.Body.String())
	}

	filter := `{"sku_prefix":"ELEC"}`
	req = httptest.NewRequest(http.MethodPost, "/api/suppliers/"+supplier.ID.String()+"/test-pull?limit=5", strings.NewReader(filter))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("test pull returned %d: %s", rec.Code, rec.Body.String())
	}

	var result domain.TestPullResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if !result.Success {
		t.Fatalf("pull failed: %+v", result)
	}
	if len(result.SampleData) != 1 || result.SampleData[0]["sku"] != "ELEC-001" {
		t.Errorf("filter not applied: %v", result.SampleData)
	}
	if len(result.SchemaValidation) == 0 {
		t.Error("schema validation missing")
	}
}

func TestTemplateEndpoints(t *testing.T) {
	handler, _, templates := newTestHandler(t)
	mux := handler.Routes()

	payload := `{
		"name": "standard catalog",
		"source_type": "file_upload",
		"mappings": [{"sourceField":"sku","destinationField":"sku"}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/templates", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create template returned %d: %s", rec.Code, rec.Body.String())
	}
	if len(templates.templates) != 1 {
		t.Fatalf("template not stored")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/templates?source_type=file_upload", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list templates returned %d", rec.Code)
	}

	var listed []domain.MappingTemplate
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 || listed[0].Name != "standard catalog" {
		t.Errorf("unexpected listing %+v", listed)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/templates", strings.NewReader(`{"name":"x","source_type":"carrier_pigeon"}`))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad source_type, got %d", rec.Code)
	}
}

func TestOnboardEndpoint(t *testing.T) {
	handler, _, templates := newTestHandler(t)
	mux := handler.Routes()

	templateID := uuid.New()
	templates.templates = append(templates.templates, domain.MappingTemplate{
		ID:         templateID,
		Name:       "standard catalog",
		SourceType: domain.SourceTypeFileUpload,
		Mappings: []domain.FieldMapping{
			{SourceField: "sku", DestinationField: "sku"},
			{SourceField: "price", DestinationField: "price"},
		},
	})

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	_ = writer.WriteField("supplier", `{"name":"Acme","contact_email":"a@b.example"}`)
	part, err := writer.CreateFormFile("file", "catalog.csv")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte("sku,price\nA1,19.99\n"))
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/onboard", &form)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("onboard returned %d: %s", rec.Code, rec.Body.String())
	}

	var outcome onboarding.Outcome
	if err := json.Unmarshal(rec.Body.Bytes(), &outcome); err != nil {
		t.Fatal(err)
	}
	if outcome.AssignedTemplate != templateID.String() {
		t.Errorf("expected auto-assignment of %s, got %q (errors: %v)", templateID, outcome.AssignedTemplate, outcome.Errors)
	}
}
