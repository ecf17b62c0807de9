package domain

import (
	"time"

	"github.com/google/uuid"
)

// OnboardingStatus tracks where a supplier sits in the onboarding lifecycle.
type OnboardingStatus string

const (
	OnboardingPending   OnboardingStatus = "pending"
	OnboardingActive    OnboardingStatus = "active"
	OnboardingInactive  OnboardingStatus = "inactive"
	OnboardingProbation OnboardingStatus = "probation"
)

// Address is a supplier's postal address.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// FTPConfig configures an FTP or SFTP data source. Password is accepted on
// input and persisted with the supplier; API responses strip it via
// Supplier.Redacted.
type FTPConfig struct {
	Host           string `json:"host"`
	Username       string `json:"username"`
	Password       string `json:"password,omitempty"`
	Port           int    `json:"port"`
	Path           string `json:"path"`
	IsSFTP         bool   `json:"is_sftp"`
	PrivateKeyPath string `json:"private_key_path,omitempty"`
}

// APIConfig configures an HTTP API data source. The credential fields follow
// the same rule as FTPConfig.Password: stored as configured, redacted on the
// way out.
type APIConfig struct {
	URL              string            `json:"url"`
	Headers          map[string]string `json:"headers,omitempty"`
	AuthType         string            `json:"auth_type"` // none, basic, token, oauth
	Username         string            `json:"username,omitempty"`
	Password         string            `json:"password,omitempty"`
	Token            string            `json:"token,omitempty"`
	OAuthURL         string            `json:"oauth_url,omitempty"`
	ClientID         string            `json:"client_id,omitempty"`
	ClientSecret     string            `json:"client_secret,omitempty"`
	PaginationType   string            `json:"pagination_type,omitempty"` // offset, page, cursor
	PaginationParams map[string]any    `json:"pagination_params,omitempty"`
}

// FileUploadConfig configures a manual file upload data source.
type FileUploadConfig struct {
	AllowedExtensions []string `json:"allowed_extensions"`
	HasHeader         bool     `json:"has_header"`
	Delimiter         string   `json:"delimiter"`
	SheetName         string   `json:"sheet_name,omitempty"`
	// UploadedFilePath is filled in by the orchestrator once a file has been
	// stored for the supplier; it is not client-supplied configuration.
	UploadedFilePath string `json:"uploaded_file_path,omitempty"`
}

// EDIConfig configures an EDI data source. EDI pulls are not implemented; the
// configuration is stored so a supplier can be registered ahead of support.
type EDIConfig struct {
	Enabled          bool   `json:"enabled"`
	EDIType          string `json:"edi_type,omitempty"`
	TradingPartnerID string `json:"trading_partner_id,omitempty"`
	StandardVersion  string `json:"standard_version,omitempty"`
}

// DataSourceConfig bundles every configured way of fetching a supplier's
// product data. A supplier may configure several; test pulls prefer
// FTP > API > file upload.
type DataSourceConfig struct {
	EDI               *EDIConfig        `json:"edi,omitempty"`
	FTP               *FTPConfig        `json:"ftp,omitempty"`
	API               *APIConfig        `json:"api,omitempty"`
	FileUpload        *FileUploadConfig `json:"file_upload,omitempty"`
	MappingTemplateID string            `json:"mapping_template_id,omitempty"`
}

// Supplier is a registered third-party product data supplier.
type Supplier struct {
	ID               uuid.UUID         `json:"id"`
	Name             string            `json:"name"`
	ContactName      string            `json:"contact_name,omitempty"`
	ContactEmail     string            `json:"contact_email"`
	ContactPhone     string            `json:"contact_phone,omitempty"`
	Website          string            `json:"website,omitempty"`
	Address          *Address          `json:"address,omitempty"`
	OnboardingStatus OnboardingStatus  `json:"onboarding_status"`
	DataSources      *DataSourceConfig `json:"data_sources,omitempty"`
	Notes            string            `json:"notes,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Redacted returns a copy of the supplier with data source credentials
// cleared, for serializing in API responses. The receiver is not modified;
// the stored supplier keeps its credentials.
func (s Supplier) Redacted() Supplier {
	if s.DataSources == nil {
		return s
	}
	sources := *s.DataSources
	if sources.FTP != nil {
		ftp := *sources.FTP
		ftp.Password = ""
		sources.FTP = &ftp
	}
	if sources.API != nil {
		api := *sources.API
		api.Password = ""
		api.Token = ""
		api.ClientSecret = ""
		sources.API = &api
	}
	s.DataSources = &sources
	return s
}

// NewSupplier creates a pending supplier with a fresh ID and timestamps.
func NewSupplier(name, contactEmail string) Supplier {
	now := time.Now()
	return Supplier{
		ID:               uuid.New(),
		Name:             name,
		ContactEmail:     contactEmail,
		OnboardingStatus: OnboardingPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
