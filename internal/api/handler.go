package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/merchops/supplier-mdm/internal/domain"
	"github.com/merchops/supplier-mdm/internal/export"
	"github.com/merchops/supplier-mdm/internal/onboarding"
	"github.com/merchops/supplier-mdm/internal/repository"
)

// maxUploadBytes bounds multipart upload memory and file size.
const maxUploadBytes = 32 << 20

// Handler exposes the supplier onboarding API over HTTP.
type Handler struct {
	service   *onboarding.Service
	suppliers repository.SupplierRepository
	templates repository.MappingTemplateRepository
}

// NewHandler builds the API handler.
func NewHandler(
	service *onboarding.Service,
	suppliers repository.SupplierRepository,
	templates repository.MappingTemplateRepository,
) *Handler {
	return &Handler{
		service:   service,
		suppliers: suppliers,
		templates: templates,
	}
}

// Routes registers all endpoints on a fresh mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/suppliers", h.createSupplier)
	mux.HandleFunc("GET /api/suppliers", h.listSuppliers)
	mux.HandleFunc("GET /api/suppliers/{id}", h.getSupplier)
	mux.HandleFunc("PUT /api/suppliers/{id}", h.updateSupplier)
	mux.HandleFunc("DELETE /api/suppliers/{id}", h.deleteSupplier)

	mux.HandleFunc("POST /api/suppliers/{id}/upload", h.uploadFile)
	mux.HandleFunc("POST /api/suppliers/{id}/test-connection", h.testConnection)
	mux.HandleFunc("POST /api/suppliers/{id}/test-pull", h.testPull)
	mux.HandleFunc("GET /api/suppliers/{id}/test-pulls", h.pullHistory)
	mux.HandleFunc("GET /api/suppliers/{id}/sample-export", h.sampleExport)

	mux.HandleFunc("POST /api/onboard", h.onboard)

	mux.HandleFunc("POST /api/templates", h.createTemplate)
	mux.HandleFunc("GET /api/templates", h.listTemplates)
	mux.HandleFunc("GET /api/templates/{id}", h.getTemplate)

	return mux
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	var supplier domain.Supplier
	if err := json.NewDecoder(r.Body).Decode(&supplier); err != nil {
		http.Error(w, fmt.Sprintf("invalid supplier payload: %v", err), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(supplier.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(supplier.ContactEmail) == "" {
		http.Error(w, "contact_email is required", http.StatusBadRequest)
		return
	}

	created, err := h.service.CreateSupplier(r.Context(), supplier)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, created.Redacted())
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.suppliers.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	redacted := make([]domain.Supplier, len(suppliers))
	for i, supplier := range suppliers {
		redacted[i] = supplier.Redacted()
	}
	writeJSON(w, http.StatusOK, redacted)
}

func (h *Handler) getSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	supplier, err := h.suppliers.GetByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, supplier.Redacted())
}

func (h *Handler) updateSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var supplier domain.Supplier
	if err := json.NewDecoder(r.Body).Decode(&supplier); err != nil {
		http.Error(w, fmt.Sprintf("invalid supplier payload: %v", err), http.StatusBadRequest)
		return
	}
	supplier.ID = id

	updated, err := h.suppliers.Update(r.Context(), supplier)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated.Redacted())
}

func (h *Handler) deleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.suppliers.Delete(r.Context(), id); err != nil {
		writeRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) uploadFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read file: %v", err), http.StatusBadRequest)
		return
	}

	supplier, err := h.service.StoreUpload(r.Context(), id, header.Filename, payload)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, supplier.Redacted())
}

func (h *Handler) testConnection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.service.TestConnection(r.Context(), id)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) testPull(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	limit := queryInt(r, "limit", 0)

	var filter domain.TestPullFilter
	if r.Body != nil {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to read request body: %v", err), http.StatusBadRequest)
			return
		}
		if len(body) > 0 {
			if err := json.Unmarshal(body, &filter); err != nil {
				http.Error(w, fmt.Sprintf("invalid filter payload: %v", err), http.StatusBadRequest)
				return
			}
		}
	}

	result, err := h.service.RunTestPull(r.Context(), id, filter, limit)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) pullHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	history, err := h.service.PullHistory(r.Context(), id, limit, offset)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// sampleExport renders the most recent successful test pull sample as a
// downloadable CSV or XLSX file.
func (h *Handler) sampleExport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	history, err := h.service.PullHistory(r.Context(), id, 10, 0)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	var sample []domain.Record
	for _, result := range history {
		if result.Success && len(result.SampleData) > 0 {
			sample = result.SampleData
			break
		}
	}

	format := export.Format(r.URL.Query().Get("format"))
	file, err := export.Render("sample-"+id.String(), sample, format)
	if err != nil {
		if errors.Is(err, export.ErrNoRecords) {
			http.Error(w, "no sample data recorded for supplier", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Payload)))
	_, _ = w.Write(file.Payload)
}

// onboard accepts multipart form data: a "supplier" JSON field and an
// optional "file" part, and runs the full onboarding pipeline.
func (h *Handler) onboard(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	supplierJSON := strings.TrimSpace(r.FormValue("supplier"))
	if supplierJSON == "" {
		http.Error(w, "supplier is required", http.StatusBadRequest)
		return
	}

	var supplier domain.Supplier
	if err := json.Unmarshal([]byte(supplierJSON), &supplier); err != nil {
		http.Error(w, fmt.Sprintf("invalid supplier payload: %v", err), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(supplier.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	req := onboarding.Request{
		Supplier:  supplier,
		PullLimit: queryInt(r, "limit", 0),
	}

	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		payload, readErr := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if readErr != nil {
			http.Error(w, fmt.Sprintf("failed to read file: %v", readErr), http.StatusBadRequest)
			return
		}
		req.FileName = header.Filename
		req.FilePayload = payload
	}

	outcome, err := h.service.Onboard(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	outcome.Supplier = outcome.Supplier.Redacted()
	writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) createTemplate(w http.ResponseWriter, r *http.Request) {
	var template domain.MappingTemplate
	if err := json.NewDecoder(r.Body).Decode(&template); err != nil {
		http.Error(w, fmt.Sprintf("invalid template payload: %v", err), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(template.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	switch template.SourceType {
	case domain.SourceTypeFTP, domain.SourceTypeAPI, domain.SourceTypeFileUpload, domain.SourceTypeEDI:
	default:
		http.Error(w, fmt.Sprintf("invalid source_type %q", template.SourceType), http.StatusBadRequest)
		return
	}

	if template.ID == uuid.Nil {
		template.ID = uuid.New()
	}
	now := time.Now()
	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}
	if template.UpdatedAt.IsZero() {
		template.UpdatedAt = now
	}

	created, err := h.templates.Create(r.Context(), template)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	sourceType := domain.SourceType(r.URL.Query().Get("source_type"))
	if sourceType == "" {
		http.Error(w, "source_type is required", http.StatusBadRequest)
		return
	}

	templates, err := h.templates.ListBySourceType(r.Context(), sourceType)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (h *Handler) getTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	template, err := h.templates.GetByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, template)
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid id: %v", err), http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func writeRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
