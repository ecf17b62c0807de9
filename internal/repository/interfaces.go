package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/merchops/supplier-mdm/internal/domain"
)

// SupplierRepository defines the interface for supplier CRUD operations.
type SupplierRepository interface {
	Create(ctx context.Context, supplier domain.Supplier) (domain.Supplier, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Supplier, error)
	List(ctx context.Context) ([]domain.Supplier, error)
	Update(ctx context.Context, supplier domain.Supplier) (domain.Supplier, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// MappingTemplateRepository defines the interface for mapping template
// storage. ListBySourceType must return templates in a stable order so that
// scoring ties resolve deterministically.
type MappingTemplateRepository interface {
	Create(ctx context.Context, template domain.MappingTemplate) (domain.MappingTemplate, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.MappingTemplate, error)
	ListBySourceType(ctx context.Context, sourceType domain.SourceType) ([]domain.MappingTemplate, error)
}

// TestPullLogRepository persists test pull outcomes for observability.
type TestPullLogRepository interface {
	Record(ctx context.Context, result domain.TestPullResult) error
	ListBySupplier(ctx context.Context, supplierID uuid.UUID, limit, offset int) ([]domain.TestPullResult, error)
}
