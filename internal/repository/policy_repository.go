package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"insurance-service/internal/models"
	"insurance-service/internal/utils"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// policyRow flattens the nested policy model for sqlx scanning.
type policyRow struct {
	Owner                  string              `db:"owner"`
	PolicyID               uint64              `db:"policy_id"`
	PolicyType             models.PolicyType   `db:"policy_type"`
	Latitude               float64             `db:"latitude"`
	Longitude              float64             `db:"longitude"`
	RadiusKm               float64             `db:"radius_km"`
	RainfallThreshold      *float64            `db:"rainfall_threshold"`
	TemperatureThreshold   *float64            `db:"temperature_threshold"`
	WindSpeedThreshold     *float64            `db:"wind_speed_threshold"`
	WaterLevelThreshold    *float64            `db:"water_level_threshold"`
	FireProximityThreshold *float64            `db:"fire_proximity_threshold"`
	MeasurementPeriod      int64               `db:"measurement_period"`
	MinimumDuration        int64               `db:"minimum_duration"`
	OracleSources          pq.StringArray      `db:"oracle_sources"`
	CoverageAmount         uint64              `db:"coverage_amount"`
	PremiumAmount          uint64              `db:"premium_amount"`
	EndTimestamp           int64               `db:"end_timestamp"`
	Status                 models.PolicyStatus `db:"status"`
	CreatedAt              time.Time           `db:"created_at"`
	UpdatedAt              time.Time           `db:"updated_at"`
}

func (r policyRow) toModel() models.ClimatePolicy {
	return models.ClimatePolicy{
		Owner:      r.Owner,
		PolicyID:   r.PolicyID,
		PolicyType: r.PolicyType,
		GeographicBounds: models.GeographicBounds{
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			RadiusKm:  r.RadiusKm,
		},
		TriggerConditions: models.TriggerConditions{
			RainfallThreshold:      r.RainfallThreshold,
			TemperatureThreshold:   r.TemperatureThreshold,
			WindSpeedThreshold:     r.WindSpeedThreshold,
			WaterLevelThreshold:    r.WaterLevelThreshold,
			FireProximityThreshold: r.FireProximityThreshold,
			MeasurementPeriod:      r.MeasurementPeriod,
			MinimumDuration:        r.MinimumDuration,
		},
		OracleSources:  r.OracleSources,
		CoverageAmount: r.CoverageAmount,
		PremiumAmount:  r.PremiumAmount,
		EndTimestamp:   r.EndTimestamp,
		Status:         r.Status,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

const policyColumns = `
	owner, policy_id, policy_type, latitude, longitude, radius_km,
	rainfall_threshold, temperature_threshold, wind_speed_threshold,
	water_level_threshold, fire_proximity_threshold,
	measurement_period, minimum_duration, oracle_sources,
	coverage_amount, premium_amount, end_timestamp, status, created_at, updated_at`

func (s *PostgresStore) CreatePolicy(ctx context.Context, policy *models.ClimatePolicy) error {
	now := time.Now()
	if policy.CreatedAt.IsZero() {
		policy.CreatedAt = now
	}
	policy.UpdatedAt = now

	query := `
		INSERT INTO climate_policies (` + policyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	_, err := s.q.ExecContext(ctx, query,
		policy.Owner, policy.PolicyID, policy.PolicyType,
		policy.GeographicBounds.Latitude, policy.GeographicBounds.Longitude, policy.GeographicBounds.RadiusKm,
		policy.TriggerConditions.RainfallThreshold, policy.TriggerConditions.TemperatureThreshold,
		policy.TriggerConditions.WindSpeedThreshold, policy.TriggerConditions.WaterLevelThreshold,
		policy.TriggerConditions.FireProximityThreshold,
		policy.TriggerConditions.MeasurementPeriod, policy.TriggerConditions.MinimumDuration,
		policy.OracleSources,
		policy.CoverageAmount, policy.PremiumAmount, policy.EndTimestamp, policy.Status,
		policy.CreatedAt, policy.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return models.ErrDuplicatePolicy
		}
		return fmt.Errorf("failed to create policy: %w", err)
	}

	return nil
}

func (s *PostgresStore) GetPolicy(ctx context.Context, owner string, policyID uint64) (*models.ClimatePolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM climate_policies WHERE owner = $1 AND policy_id = $2`

	var row policyRow
	err := sqlx.GetContext(ctx, s.q, &row, query, owner, policyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrPolicyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get policy: %w", err)
	}

	policy := row.toModel()
	return &policy, nil
}

func (s *PostgresStore) ListPoliciesByOwner(ctx context.Context, owner string) ([]models.ClimatePolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM climate_policies WHERE owner = $1 ORDER BY policy_id`

	var rows []policyRow
	if err := sqlx.SelectContext(ctx, s.q, &rows, query, owner); err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}

	policies := make([]models.ClimatePolicy, 0, len(rows))
	for _, row := range rows {
		policies = append(policies, row.toModel())
	}
	return policies, nil
}

func (s *PostgresStore) ListActivePastEnd(ctx context.Context, now int64) ([]models.ClimatePolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM climate_policies WHERE status = $1 AND end_timestamp < $2`

	var rows []policyRow
	if err := sqlx.SelectContext(ctx, s.q, &rows, query, models.PolicyActive, now); err != nil {
		return nil, fmt.Errorf("failed to list expired policies: %w", err)
	}

	policies := make([]models.ClimatePolicy, 0, len(rows))
	for _, row := range rows {
		policies = append(policies, row.toModel())
	}
	return policies, nil
}

func (s *PostgresStore) TransitionPolicyStatus(ctx context.Context, owner string, policyID uint64, from, to models.PolicyStatus) (bool, error) {
	query := `
		UPDATE climate_policies SET status = $1, updated_at = $2
		WHERE owner = $3 AND policy_id = $4 AND status = $5`

	moved, err := utils.ExecReportRow(ctx, s.q, query, to, time.Now(), owner, policyID, from)
	if err != nil {
		return false, fmt.Errorf("failed to transition policy status: %w", err)
	}
	return moved, nil
}
