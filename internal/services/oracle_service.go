package services

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"insurance-service/internal/config"
	"insurance-service/internal/models"
	"insurance-service/internal/oracle"
	"insurance-service/internal/repository"
)

// OracleService registers providers and ingests signed climate readings.
// Each submission is an independent atomic call; ordering between providers
// is established purely by the stored timestamps.
type OracleService struct {
	store      repository.Store
	climate    repository.ClimateDataStore
	verifier   oracle.Verifier
	replay     ReplayGuard
	reputation ReputationPolicy
	cfg        config.OracleConfig
}

func NewOracleService(
	store repository.Store,
	climate repository.ClimateDataStore,
	verifier oracle.Verifier,
	replay ReplayGuard,
	reputation ReputationPolicy,
	cfg config.OracleConfig,
) *OracleService {
	if reputation == nil {
		reputation = DefaultReputationPolicy{}
	}
	return &OracleService{
		store:      store,
		climate:    climate,
		verifier:   verifier,
		replay:     replay,
		reputation: reputation,
		cfg:        cfg,
	}
}

// RegisterProvider creates an oracle provider record with full reputation.
func (s *OracleService) RegisterProvider(ctx context.Context, req *models.RegisterOracleRequest) (*models.OracleProviderRecord, error) {
	if req.Provider == "" {
		return nil, fmt.Errorf("provider identity is required")
	}

	publicKey, err := hex.DecodeString(req.PublicKeyHex)
	if err != nil || len(publicKey) != 32 {
		return nil, fmt.Errorf("public key must be 32 hex-encoded bytes")
	}

	record := &models.OracleProviderRecord{
		Provider:        req.Provider,
		OracleType:      req.OracleType,
		PublicKey:       publicKey,
		ReputationScore: 100,
		LastUpdate:      0,
		IsActive:        true,
		DataPointsCount: 0,
	}

	if err := s.store.CreateProvider(ctx, record); err != nil {
		return nil, err
	}

	slog.Info("Oracle provider registered", "provider", req.Provider, "oracle_type", req.OracleType)
	return record, nil
}

// SubmitClimateData validates and stores a batch of signed readings. The
// batch is all-or-nothing: one bad reading rejects the submission and costs
// the provider reputation.
func (s *OracleService) SubmitClimateData(ctx context.Context, provider string, dataPoints []models.ClimateDataPoint) error {
	registry, err := s.store.GetRegistry(ctx)
	if err != nil {
		return err
	}
	if registry.IsPaused {
		return models.ErrProgramPaused
	}

	record, err := s.store.GetProvider(ctx, provider)
	if err != nil {
		return err
	}
	if !record.IsActive {
		return models.ErrUnregisteredOracle
	}

	if len(dataPoints) == 0 {
		return fmt.Errorf("submission contains no data points")
	}

	now := time.Now()
	for i := range dataPoints {
		if err := s.validateDataPoint(ctx, record, &dataPoints[i], now); err != nil {
			s.penalize(ctx, record, err)
			return err
		}
	}

	for i := range dataPoints {
		if err := s.climate.SaveDataPoint(ctx, &dataPoints[i], s.cfg.MaxDataAge); err != nil {
			return err
		}
	}

	record.DataPointsCount += int64(len(dataPoints))
	record.LastUpdate = now.Unix()
	record.ReputationScore = s.reputation.OnAccepted(record.ReputationScore)
	if err := s.store.UpdateProviderStats(ctx, record); err != nil {
		return err
	}

	slog.Info("Climate data accepted",
		"provider", provider,
		"data_points", len(dataPoints),
		"reputation", record.ReputationScore)

	return nil
}

func (s *OracleService) validateDataPoint(ctx context.Context, record *models.OracleProviderRecord, dp *models.ClimateDataPoint, now time.Time) error {
	if dp.SourceID != record.Provider {
		return models.ErrSignatureVerificationFailed
	}
	if dp.ConfidenceLevel < 0 || dp.ConfidenceLevel > 100 {
		return models.ErrSignatureVerificationFailed
	}

	if dp.Timestamp < now.Add(-s.cfg.IngestWindow).Unix() {
		return models.ErrStaleData
	}

	// A payload referencing a slothash that fell out of the retained history
	// is a replay of an old signature, not merely unverifiable.
	inHistory, err := s.replay.Contains(ctx, dp.RecentSlothash)
	if err != nil {
		return err
	}
	if !inHistory {
		return models.ErrStaleData
	}

	if !oracle.VerifyDataPoint(s.verifier, dp, record.PublicKey) {
		return models.ErrSignatureVerificationFailed
	}

	return nil
}

// penalize applies the rejection side of the reputation policy. This mutation
// is intentional on the failure path: the provider record's lifecycle tracks
// rejected submissions too.
func (s *OracleService) penalize(ctx context.Context, record *models.OracleProviderRecord, cause error) {
	score, active := s.reputation.OnRejected(record.ReputationScore)
	record.ReputationScore = score
	record.IsActive = active

	if err := s.store.UpdateProviderStats(ctx, record); err != nil {
		slog.Warn("Failed to apply reputation penalty", "provider", record.Provider, "error", err)
		return
	}

	slog.Warn("Climate data rejected",
		"provider", record.Provider,
		"cause", cause,
		"reputation", score,
		"active", active)
}

// ReadClimate returns the latest verified reading per data type for a
// provider. Read-only; available while the program is paused.
func (s *OracleService) ReadClimate(ctx context.Context, provider string) ([]models.ClimateDataPoint, error) {
	if _, err := s.store.GetProvider(ctx, provider); err != nil {
		return nil, err
	}

	points, err := s.climate.ListBySources(ctx, []string{provider})
	if err != nil {
		return nil, err
	}

	latest := make(map[models.ClimateDataType]models.ClimateDataPoint)
	for _, dp := range points {
		current, seen := latest[dp.DataType]
		if !seen || moreRecent(dp, current) {
			latest[dp.DataType] = dp
		}
	}

	result := make([]models.ClimateDataPoint, 0, len(latest))
	for _, dp := range latest {
		result = append(result, dp)
	}
	return result, nil
}

// Crank rotates the replay-protection slothash ring. Scheduled by the worker;
// also callable through the instruction interface.
func (s *OracleService) Crank(ctx context.Context) error {
	slothash, err := s.replay.Rotate(ctx)
	if err != nil {
		return err
	}

	slog.Debug("Slothash ring rotated", "head", hex.EncodeToString(slothash))
	return nil
}

// CurrentSlothash exposes the ring head so providers can bind fresh
// signatures to it.
func (s *OracleService) CurrentSlothash(ctx context.Context) ([]byte, error) {
	ring, ok := s.replay.(interface {
		Current(ctx context.Context) ([]byte, error)
	})
	if !ok {
		return nil, fmt.Errorf("replay guard does not expose its head")
	}
	return ring.Current(ctx)
}

func (s *OracleService) GetProvider(ctx context.Context, provider string) (*models.OracleProviderRecord, error) {
	return s.store.GetProvider(ctx, provider)
}

func (s *OracleService) ListProviders(ctx context.Context) ([]models.OracleProviderRecord, error) {
	return s.store.ListProviders(ctx)
}

// moreRecent is the evaluation tie-break: most recent timestamp wins, ties
// broken by higher confidence.
func moreRecent(a, b models.ClimateDataPoint) bool {
	if a.Timestamp != b.Timestamp {
		return a.Timestamp > b.Timestamp
	}
	return a.ConfidenceLevel > b.ConfidenceLevel
}
