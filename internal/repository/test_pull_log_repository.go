package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/merchops/supplier-mdm/internal/domain"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

type testPullLogRepository struct {
	pool *pgxpool.Pool
}

// NewTestPullLogRepository wires a repository backed by pgxpool.
func NewTestPullLogRepository(pool *pgxpool.Pool) TestPullLogRepository {
	return &testPullLogRepository{pool: pool}
}

func (r *testPullLogRepository) Record(ctx context.Context, result domain.TestPullResult) error {
	sampleJSON, err := marshalNullable(result.SampleData)
	if err != nil {
		return fmt.Errorf("failed to marshal sample data: %w", err)
	}
	errorJSON, err := marshalNullable(result.ErrorDetails)
	if err != nil {
		return fmt.Errorf("failed to marshal error details: %w", err)
	}
	validationJSON, err := marshalNullable(result.SchemaValidation)
	if err != nil {
		return fmt.Errorf("failed to marshal schema validation: %w", err)
	}
	suggestionJSON, err := marshalNullable(result.MappingSuggestion)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping suggestion: %w", err)
	}

	_, err = r.pool.Exec(
		ctx,
		`INSERT INTO test_pull_logs (id, supplier_id, success, message, sample_data,
		                             error_details, schema_validation, mapping_suggestion,
		                             mapping_confidence, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.New(),
		result.SupplierID,
		result.Success,
		result.Message,
		sampleJSON,
		errorJSON,
		validationJSON,
		suggestionJSON,
		result.MappingConfidence,
		result.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to record test pull: %w", err)
	}
	return nil
}

func (r *testPullLogRepository) ListBySupplier(ctx context.Context, supplierID uuid.UUID, limit, offset int) ([]domain.TestPullResult, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT supplier_id, success, message, sample_data, error_details,
		        schema_validation, mapping_suggestion, mapping_confidence, created_at
		 FROM test_pull_logs
		 WHERE supplier_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		supplierID,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list test pull logs: %w", err)
	}
	defer rows.Close()

	results := []domain.TestPullResult{}
	for rows.Next() {
		result, scanErr := scanTestPullLog(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan test pull log: %w", scanErr)
		}
		results = append(results, result)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate test pull logs: %w", rowsErr)
	}
	return results, nil
}

func scanTestPullLog(row pgx.Row) (domain.TestPullResult, error) {
	var (
		result         domain.TestPullResult
		sampleJSON     []byte
		errorJSON      []byte
		validationJSON []byte
		suggestionJSON []byte
		createdAt      pgtype.Timestamptz
	)

	err := row.Scan(
		&result.SupplierID,
		&result.Success,
		&result.Message,
		&sampleJSON,
		&errorJSON,
		&validationJSON,
		&suggestionJSON,
		&result.MappingConfidence,
		&createdAt,
	)
	if err != nil {
		return domain.TestPullResult{}, err
	}

	if createdAt.Valid {
		result.Timestamp = createdAt.Time
	}
	if len(sampleJSON) > 0 {
		if err := json.Unmarshal(sampleJSON, &result.SampleData); err != nil {
			return domain.TestPullResult{}, fmt.Errorf("failed to unmarshal sample data: %w", err)
		}
	}
	if len(errorJSON) > 0 {
		if err := json.Unmarshal(errorJSON, &result.ErrorDetails); err != nil {
			return domain.TestPullResult{}, fmt.Errorf("failed to unmarshal error details: %w", err)
		}
	}
	if len(validationJSON) > 0 {
		if err := json.Unmarshal(validationJSON, &result.SchemaValidation); err != nil {
			return domain.TestPullResult{}, fmt.Errorf("failed to unmarshal schema validation: %w", err)
		}
	}
	if len(suggestionJSON) > 0 {
		var suggestion domain.MappingSuggestion
		if err := json.Unmarshal(suggestionJSON, &suggestion); err != nil {
			return domain.TestPullResult{}, fmt.Errorf("failed to unmarshal mapping suggestion: %w", err)
		}
		result.MappingSuggestion = &suggestion
	}

	return result, nil
}

// marshalNullable marshals v unless it is nil, keeping absent payloads as SQL
// NULL instead of the JSON literal "null".
func marshalNullable(v any) ([]byte, error) {
	switch value := v.(type) {
	case nil:
		return nil, nil
	case []domain.Record:
		if value == nil {
			return nil, nil
		}
	case map[string]any:
		if value == nil {
			return nil, nil
		}
	case []domain.SchemaValidationResult:
		if value == nil {
			return nil, nil
		}
	case *domain.MappingSuggestion:
		if value == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}
