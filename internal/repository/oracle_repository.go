package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"insurance-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

func (s *PostgresStore) CreateProvider(ctx context.Context, record *models.OracleProviderRecord) error {
	query := `
		INSERT INTO oracle_providers (provider, oracle_type, public_key, reputation_score, last_update, is_active, data_points_count)
		VALUES (:provider, :oracle_type, :public_key, :reputation_score, :last_update, :is_active, :data_points_count)`

	_, err := sqlx.NamedExecContext(ctx, s.q, query, record)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("provider %s already registered", record.Provider)
		}
		return fmt.Errorf("failed to create oracle provider: %w", err)
	}

	return nil
}

func (s *PostgresStore) GetProvider(ctx context.Context, provider string) (*models.OracleProviderRecord, error) {
	query := `
		SELECT provider, oracle_type, public_key, reputation_score, last_update, is_active, data_points_count
		FROM oracle_providers WHERE provider = $1`

	var record models.OracleProviderRecord
	err := sqlx.GetContext(ctx, s.q, &record, query, provider)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUnregisteredOracle
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get oracle provider: %w", err)
	}

	return &record, nil
}

func (s *PostgresStore) ListProviders(ctx context.Context) ([]models.OracleProviderRecord, error) {
	query := `
		SELECT provider, oracle_type, public_key, reputation_score, last_update, is_active, data_points_count
		FROM oracle_providers ORDER BY provider`

	var records []models.OracleProviderRecord
	if err := sqlx.SelectContext(ctx, s.q, &records, query); err != nil {
		return nil, fmt.Errorf("failed to list oracle providers: %w", err)
	}

	return records, nil
}

func (s *PostgresStore) UpdateProviderStats(ctx context.Context, record *models.OracleProviderRecord) error {
	query := `
		UPDATE oracle_providers SET
			reputation_score = :reputation_score,
			last_update = :last_update,
			is_active = :is_active,
			data_points_count = :data_points_count
		WHERE provider = :provider`

	result, err := sqlx.NamedExecContext(ctx, s.q, query, record)
	if err != nil {
		return fmt.Errorf("failed to update oracle provider stats: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrUnregisteredOracle
	}

	return nil
}
