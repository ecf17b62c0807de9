package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/merchops/supplier-mdm/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type supplierRepository struct {
	pool *pgxpool.Pool
}

// NewSupplierRepository wires a repository backed by pgxpool.
func NewSupplierRepository(pool *pgxpool.Pool) SupplierRepository {
	return &supplierRepository{pool: pool}
}

func (r *supplierRepository) Create(ctx context.Context, supplier domain.Supplier) (domain.Supplier, error) {
	addressJSON, dataSourcesJSON, err := marshalSupplierPayloads(supplier)
	if err != nil {
		return domain.Supplier{}, err
	}

	_, err = r.pool.Exec(
		ctx,
		`INSERT INTO suppliers (id, name, contact_name, contact_email, contact_phone, website,
		                        address, onboarding_status, data_sources, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		supplier.ID,
		supplier.Name,
		supplier.ContactName,
		supplier.ContactEmail,
		supplier.ContactPhone,
		supplier.Website,
		addressJSON,
		supplier.OnboardingStatus,
		dataSourcesJSON,
		supplier.Notes,
		supplier.CreatedAt,
		supplier.UpdatedAt,
	)
	if err != nil {
		return domain.Supplier{}, fmt.Errorf("failed to create supplier: %w", err)
	}

	return supplier, nil
}

func (r *supplierRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Supplier, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT id, name, contact_name, contact_email, contact_phone, website,
		        address, onboarding_status, data_sources, notes, created_at, updated_at
		 FROM suppliers WHERE id = $1`,
		id,
	)

	supplier, err := scanSupplier(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Supplier{}, fmt.Errorf("supplier %s: %w", id, ErrNotFound)
		}
		return domain.Supplier{}, fmt.Errorf("failed to get supplier: %w", err)
	}
	return supplier, nil
}

func (r *supplierRepository) List(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT id, name, contact_name, contact_email, contact_phone, website,
		        address, onboarding_status, data_sources, notes, created_at, updated_at
		 FROM suppliers ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	defer rows.Close()

	suppliers := []domain.Supplier{}
	for rows.Next() {
		supplier, scanErr := scanSupplier(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", scanErr)
		}
		suppliers = append(suppliers, supplier)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate suppliers: %w", rowsErr)
	}
	return suppliers, nil
}

func (r *supplierRepository) Update(ctx context.Context, supplier domain.Supplier) (domain.Supplier, error) {
	addressJSON, dataSourcesJSON, err := marshalSupplierPayloads(supplier)
	if err != nil {
		return domain.Supplier{}, err
	}

	supplier.UpdatedAt = time.Now()

	tag, err := r.pool.Exec(
		ctx,
		`UPDATE suppliers
		 SET name = $2, contact_name = $3, contact_email = $4, contact_phone = $5, website = $6,
		     address = $7, onboarding_status = $8, data_sources = $9, notes = $10, updated_at = $11
		 WHERE id = $1`,
		supplier.ID,
		supplier.Name,
		supplier.ContactName,
		supplier.ContactEmail,
		supplier.ContactPhone,
		supplier.Website,
		addressJSON,
		supplier.OnboardingStatus,
		dataSourcesJSON,
		supplier.Notes,
		supplier.UpdatedAt,
	)
	if err != nil {
		return domain.Supplier{}, fmt.Errorf("failed to update supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Supplier{}, fmt.Errorf("supplier %s: %w", supplier.ID, ErrNotFound)
	}

	return supplier, nil
}

func (r *supplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("supplier %s: %w", id, ErrNotFound)
	}
	return nil
}

func marshalSupplierPayloads(supplier domain.Supplier) ([]byte, []byte, error) {
	var addressJSON []byte
	if supplier.Address != nil {
		data, err := json.Marshal(supplier.Address)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal address: %w", err)
		}
		addressJSON = data
	}

	var dataSourcesJSON []byte
	if supplier.DataSources != nil {
		data, err := json.Marshal(supplier.DataSources)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal data sources: %w", err)
		}
		dataSourcesJSON = data
	}

	return addressJSON, dataSourcesJSON, nil
}

func scanSupplier(row pgx.Row) (domain.Supplier, error) {
	var (
		supplier        domain.Supplier
		contactName     pgtype.Text
		contactPhone    pgtype.Text
		website         pgtype.Text
		addressJSON     []byte
		dataSourcesJSON []byte
		notes           pgtype.Text
		createdAt       pgtype.Timestamptz
		updatedAt       pgtype.Timestamptz
	)

	err := row.Scan(
		&supplier.ID,
		&supplier.Name,
		&contactName,
		&supplier.ContactEmail,
		&contactPhone,
		&website,
		&addressJSON,
		&supplier.OnboardingStatus,
		&dataSourcesJSON,
		&notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Supplier{}, err
	}

	supplier.ContactName = contactName.String
	supplier.ContactPhone = contactPhone.String
	supplier.Website = website.String
	supplier.Notes = notes.String
	if createdAt.Valid {
		supplier.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		supplier.UpdatedAt = updatedAt.Time
	}

	if len(addressJSON) > 0 {
		var address domain.Address
		if err := json.Unmarshal(addressJSON, &address); err != nil {
			return domain.Supplier{}, fmt.Errorf("failed to unmarshal address: %w", err)
		}
		supplier.Address = &address
	}
	if len(dataSourcesJSON) > 0 {
		var sources domain.DataSourceConfig
		if err := json.Unmarshal(dataSourcesJSON, &sources); err != nil {
			return domain.Supplier{}, fmt.Errorf("failed to unmarshal data sources: %w", err)
		}
		supplier.DataSources = &sources
	}

	return supplier, nil
}
