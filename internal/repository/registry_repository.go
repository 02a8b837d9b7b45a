package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"insurance-service/internal/models"
	"insurance-service/internal/utils"

	"github.com/jmoiron/sqlx"
)

// The registry is a single row; registryRowID pins it.
const registryRowID = 1

func (s *PostgresStore) InitializeRegistry(ctx context.Context, authority string) error {
	query := `
		INSERT INTO global_registry (id, authority, total_policies, total_premiums_collected, total_payouts, is_paused)
		VALUES ($1, $2, 0, 0, 0, false)
		ON CONFLICT (id) DO NOTHING`

	inserted, err := utils.ExecReportRow(ctx, s.q, query, registryRowID, authority)
	if err != nil {
		return fmt.Errorf("failed to initialize registry: %w", err)
	}
	if !inserted {
		return models.ErrAlreadyInitialized
	}

	return nil
}

func (s *PostgresStore) GetRegistry(ctx context.Context) (*models.GlobalRegistry, error) {
	return s.getRegistry(ctx, false)
}

func (s *PostgresStore) GetRegistryLocked(ctx context.Context) (*models.GlobalRegistry, error) {
	return s.getRegistry(ctx, s.inTx())
}

func (s *PostgresStore) getRegistry(ctx context.Context, forUpdate bool) (*models.GlobalRegistry, error) {
	query := `
		SELECT authority, total_policies, total_premiums_collected, total_payouts, is_paused
		FROM global_registry WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var registry models.GlobalRegistry
	err := sqlx.GetContext(ctx, s.q, &registry, query, registryRowID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get registry: %w", err)
	}

	return &registry, nil
}

func (s *PostgresStore) SetPaused(ctx context.Context, paused bool) error {
	query := `UPDATE global_registry SET is_paused = $1 WHERE id = $2`

	set, err := utils.ExecReportRow(ctx, s.q, query, paused, registryRowID)
	if err != nil {
		return fmt.Errorf("failed to set pause flag: %w", err)
	}
	if !set {
		return models.ErrNotInitialized
	}

	return nil
}

func (s *PostgresStore) UpdateRegistryCounters(ctx context.Context, registry *models.GlobalRegistry) error {
	query := `
		UPDATE global_registry SET
			total_policies = $1,
			total_premiums_collected = $2,
			total_payouts = $3
		WHERE id = $4`

	_, err := s.q.ExecContext(ctx, query,
		registry.TotalPolicies, registry.TotalPremiumsCollected, registry.TotalPayouts, registryRowID)
	if err != nil {
		return fmt.Errorf("failed to update registry counters: %w", err)
	}

	return nil
}
