package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/merchops/supplier-mdm/internal/domain"
)

type templateRepository struct {
	pool *pgxpool.Pool
}

// NewMappingTemplateRepository wires a repository backed by pgxpool.
func NewMappingTemplateRepository(pool *pgxpool.Pool) MappingTemplateRepository {
	return &templateRepository{pool: pool}
}

func (r *templateRepository) Create(ctx context.Context, template domain.MappingTemplate) (domain.MappingTemplate, error) {
	mappingsJSON, err := json.Marshal(template.Mappings)
	if err != nil {
		return domain.MappingTemplate{}, fmt.Errorf("failed to marshal field mappings: %w", err)
	}

	var schemaJSON []byte
	if template.ExpectedSchema != nil {
		schemaJSON, err = json.Marshal(template.ExpectedSchema)
		if err != nil {
			return domain.MappingTemplate{}, fmt.Errorf("failed to marshal expected schema: %w", err)
		}
	}

	_, err = r.pool.Exec(
		ctx,
		`INSERT INTO mapping_templates (id, name, description, source_type, field_mappings,
		                                expected_schema, transformations, validation_rules, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		template.ID,
		template.Name,
		template.Description,
		template.SourceType,
		mappingsJSON,
		schemaJSON,
		[]byte(template.Transformations),
		[]byte(template.ValidationRules),
		template.CreatedAt,
		template.UpdatedAt,
	)
	if err != nil {
		return domain.MappingTemplate{}, fmt.Errorf("failed to create mapping template: %w", err)
	}

	return template, nil
}

func (r *templateRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.MappingTemplate, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT id, name, description, source_type, field_mappings,
		        expected_schema, transformations, validation_rules, created_at, updated_at
		 FROM mapping_templates WHERE id = $1`,
		id,
	)

	template, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.MappingTemplate{}, fmt.Errorf("mapping template %s: %w", id, ErrNotFound)
		}
		return domain.MappingTemplate{}, fmt.Errorf("failed to get mapping template: %w", err)
	}
	return template, nil
}

// ListBySourceType returns templates for a source type ordered by creation
// time, newest first. Templates whose stored mappings cannot be decoded are
// logged and skipped rather than failing the listing.
func (r *templateRepository) ListBySourceType(ctx context.Context, sourceType domain.SourceType) ([]domain.MappingTemplate, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT id, name, description, source_type, field_mappings,
		        expected_schema, transformations, validation_rules, created_at, updated_at
		 FROM mapping_templates WHERE source_type = $1 ORDER BY created_at DESC, id`,
		sourceType,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list mapping templates: %w", err)
	}
	defer rows.Close()

	templates := []domain.MappingTemplate{}
	for rows.Next() {
		template, scanErr := scanTemplate(rows)
		if scanErr != nil {
			var decodeErr *templateDecodeError
			if errors.As(scanErr, &decodeErr) {
				log.Printf("[TEMPLATES] skipping template %s: %v", decodeErr.id, decodeErr.err)
				continue
			}
			return nil, fmt.Errorf("failed to scan mapping template: %w", scanErr)
		}
		templates = append(templates, template)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate mapping templates: %w", rowsErr)
	}
	return templates, nil
}

// templateDecodeError marks rows that scanned but carried undecodable
// payloads, so listings can skip them without aborting.
type templateDecodeError struct {
	id  uuid.UUID
	err error
}

func (e *templateDecodeError) Error() string {
	return fmt.Sprintf("template %s has undecodable payload: %v", e.id, e.err)
}

func (e *templateDecodeError) Unwrap() error { return e.err }

func scanTemplate(row pgx.Row) (domain.MappingTemplate, error) {
	var (
		template        domain.MappingTemplate
		description     pgtype.Text
		mappingsJSON    []byte
		schemaJSON      []byte
		transformations []byte
		validationRules []byte
		createdAt       pgtype.Timestamptz
		updatedAt       pgtype.Timestamptz
	)

	err := row.Scan(
		&template.ID,
		&template.Name,
		&description,
		&template.SourceType,
		&mappingsJSON,
		&schemaJSON,
		&transformations,
		&validationRules,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.MappingTemplate{}, err
	}

	template.Description = description.String
	template.Transformations = transformations
	template.ValidationRules = validationRules
	if createdAt.Valid {
		template.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		template.UpdatedAt = updatedAt.Time
	}

	mappings, err := domain.DecodeFieldMappings(mappingsJSON)
	if err != nil {
		return domain.MappingTemplate{}, &templateDecodeError{id: template.ID, err: err}
	}
	template.Mappings = mappings

	if len(schemaJSON) > 0 {
		var schema domain.Schema
		if err := json.Unmarshal(schemaJSON, &schema); err != nil {
			return domain.MappingTemplate{}, &templateDecodeError{id: template.ID, err: err}
		}
		template.ExpectedSchema = schema
	}

	return template, nil
}
