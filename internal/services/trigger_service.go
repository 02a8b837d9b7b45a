package services

import (
	"context"
	"encoding/hex"
	"log/slog"
	"sort"
	"time"

	"insurance-service/internal/config"
	"insurance-service/internal/models"
	"insurance-service/internal/oracle"
	"insurance-service/internal/repository"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// TriggerService evaluates policy trigger conditions against verified oracle
// readings and drives the Active -> {Triggered, Expired} transitions.
// Evaluation is idempotent on the non-trigger path: no state change, no
// error, freely repeatable.
type TriggerService struct {
	store     repository.Store
	climate   repository.ClimateDataStore
	verifier  oracle.Verifier
	archiver  EvidenceArchiver
	publisher EventPublisher
	cfg       config.OracleConfig
}

func NewTriggerService(
	store repository.Store,
	climate repository.ClimateDataStore,
	verifier oracle.Verifier,
	archiver EvidenceArchiver,
	publisher EventPublisher,
	cfg config.OracleConfig,
) *TriggerService {
	return &TriggerService{
		store:     store,
		climate:   climate,
		verifier:  verifier,
		archiver:  archiver,
		publisher: publisher,
		cfg:       cfg,
	}
}

// EvaluateTrigger runs one evaluation pass for a policy.
func (s *TriggerService) EvaluateTrigger(ctx context.Context, owner string, policyID uint64) (*models.TriggerEvaluationResponse, error) {
	now := time.Now()

	var response *models.TriggerEvaluationResponse
	var evidence *models.TriggerEvidence

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		registry, err := tx.GetRegistry(ctx)
		if err != nil {
			return err
		}
		if registry.IsPaused {
			return models.ErrProgramPaused
		}

		policy, err := tx.GetPolicy(ctx, owner, policyID)
		if err != nil {
			return err
		}
		if policy.Status != models.PolicyActive {
			return models.ErrPolicyNotActive
		}

		// Expiry takes precedence over data-driven evaluation.
		if now.Unix() > policy.EndTimestamp {
			if _, err := tx.TransitionPolicyStatus(ctx, owner, policyID, models.PolicyActive, models.PolicyExpired); err != nil {
				return err
			}
			response = &models.TriggerEvaluationResponse{Status: models.PolicyExpired, Triggered: false}
			return nil
		}

		points, err := s.climate.ListBySources(ctx, policy.OracleSources)
		if err != nil {
			return err
		}

		usable, err := s.filterUsable(ctx, tx, policy, points, now)
		if err != nil {
			return err
		}
		if len(usable) == 0 {
			return models.ErrNoValidOracleData
		}

		triggered, evidencePoints := evaluateConditions(policy, usable, now.Unix())
		if !triggered {
			response = &models.TriggerEvaluationResponse{Status: models.PolicyActive, Triggered: false}
			return nil
		}

		moved, err := tx.TransitionPolicyStatus(ctx, owner, policyID, models.PolicyActive, models.PolicyTriggered)
		if err != nil {
			return err
		}
		if !moved {
			return models.ErrPolicyNotActive
		}

		evidence = &models.TriggerEvidence{
			Owner:       owner,
			PolicyID:    policyID,
			PolicyType:  policy.PolicyType,
			EvaluatedAt: now.Unix(),
			DataPoints:  evidencePoints,
		}
		response = &models.TriggerEvaluationResponse{
			Status:    models.PolicyTriggered,
			Triggered: true,
			Evidence:  evidence,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if evidence != nil {
		s.emitEvidence(ctx, evidence)
	}

	return response, nil
}

// emitEvidence archives and publishes the triggering evidence after the
// transition committed. Best-effort side channel.
func (s *TriggerService) emitEvidence(ctx context.Context, evidence *models.TriggerEvidence) {
	slog.Info("Policy triggered",
		"owner", evidence.Owner,
		"policy_id", evidence.PolicyID,
		"policy_type", evidence.PolicyType,
		"evidence_points", len(evidence.DataPoints))

	if s.archiver != nil {
		if err := s.archiver.ArchiveEvidence(ctx, evidence); err != nil {
			slog.Warn("Failed to archive trigger evidence", "owner", evidence.Owner, "policy_id", evidence.PolicyID, "error", err)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishPolicyEvent(ctx, "policy.triggered", evidence); err != nil {
			slog.Warn("Failed to publish trigger event", "owner", evidence.Owner, "policy_id", evidence.PolicyID, "error", err)
		}
	}
}

// filterUsable keeps the readings evaluation may rely on: authorized source,
// fresh enough, inside the coverage area and verifiable against the source's
// registered key.
func (s *TriggerService) filterUsable(ctx context.Context, tx repository.Store, policy *models.ClimatePolicy, points []models.ClimateDataPoint, now time.Time) ([]models.ClimateDataPoint, error) {
	keys := make(map[string][]byte, len(policy.OracleSources))
	for _, source := range policy.OracleSources {
		record, err := tx.GetProvider(ctx, source)
		if err != nil {
			// An unknown source on the policy contributes no data.
			continue
		}
		if record.IsActive {
			keys[source] = record.PublicKey
		}
	}

	oldest := now.Add(-s.cfg.MaxDataAge).Unix()
	center := orb.Point{policy.GeographicBounds.Longitude, policy.GeographicBounds.Latitude}

	var usable []models.ClimateDataPoint
	for _, dp := range points {
		key, ok := keys[dp.SourceID]
		if !ok || !policy.AuthorizesSource(dp.SourceID) {
			continue
		}
		if dp.Timestamp < oldest {
			continue
		}
		if dp.Location != nil {
			reading := orb.Point{dp.Location.Longitude, dp.Location.Latitude}
			if geo.DistanceHaversine(center, reading) > policy.GeographicBounds.RadiusKm*1000 {
				continue
			}
		}
		if !oracle.VerifyDataPoint(s.verifier, &dp, key) {
			continue
		}
		usable = append(usable, dp)
	}

	return usable, nil
}

// evaluateConditions applies the policy-type-specific aggregation rule.
// Returns whether the trigger condition holds and the evidence points.
func evaluateConditions(policy *models.ClimatePolicy, points []models.ClimateDataPoint, now int64) (bool, []models.EvidenceDataPoint) {
	byType := make(map[models.ClimateDataType][]models.ClimateDataPoint)
	for _, dp := range points {
		byType[dp.DataType] = append(byType[dp.DataType], dp)
	}
	for _, series := range byType {
		sortChronological(series)
	}

	cond := policy.TriggerConditions

	switch policy.PolicyType {
	case models.PolicyDroughtProtection:
		return evaluateDrought(byType[models.DataRainfall], cond, now)

	case models.PolicyFloodInsurance:
		if cond.RainfallThreshold == nil {
			return false, nil
		}
		return evaluateExceedance(byType[models.DataRainfall], *cond.RainfallThreshold)

	case models.PolicyHurricaneCoverage:
		if cond.WindSpeedThreshold == nil {
			return false, nil
		}
		return evaluateExceedance(byType[models.DataWindSpeed], *cond.WindSpeedThreshold)

	case models.PolicyWildfireProtection:
		return evaluateWildfire(byType, cond)
	}

	return false, nil
}

// evaluateDrought: minimum rainfall over the measurement period below the
// threshold, sustained for at least the minimum duration.
func evaluateDrought(rainfall []models.ClimateDataPoint, cond models.TriggerConditions, now int64) (bool, []models.EvidenceDataPoint) {
	if cond.RainfallThreshold == nil || len(rainfall) == 0 {
		return false, nil
	}

	var window []models.ClimateDataPoint
	periodStart := now - cond.MeasurementPeriod
	for _, dp := range rainfall {
		if dp.Timestamp >= periodStart {
			window = append(window, dp)
		}
	}
	if len(window) == 0 {
		return false, nil
	}

	threshold := *cond.RainfallThreshold

	// Longest chronological run of readings below the threshold; its time
	// span must cover the minimum duration.
	var bestRun []models.ClimateDataPoint
	var run []models.ClimateDataPoint
	for _, dp := range window {
		if dp.Value < threshold {
			run = append(run, dp)
		} else {
			run = nil
		}
		if len(run) > 0 && (len(bestRun) == 0 || runSpan(run) > runSpan(bestRun)) {
			bestRun = run
		}
	}

	if len(bestRun) == 0 || runSpan(bestRun) < cond.MinimumDuration {
		return false, nil
	}

	return true, toEvidence(bestRun)
}

// evaluateExceedance: any single reading above the threshold triggers. The
// representative evidence point is the most recent qualifying reading, ties
// broken by confidence.
func evaluateExceedance(series []models.ClimateDataPoint, threshold float64) (bool, []models.EvidenceDataPoint) {
	var qualifying []models.ClimateDataPoint
	for _, dp := range series {
		if dp.Value > threshold {
			qualifying = append(qualifying, dp)
		}
	}
	if len(qualifying) == 0 {
		return false, nil
	}

	best := qualifying[0]
	for _, dp := range qualifying[1:] {
		if moreRecent(dp, best) {
			best = dp
		}
	}

	return true, toEvidence([]models.ClimateDataPoint{best})
}

// evaluateWildfire: temperature above threshold, and when a proximity
// threshold is set the fire must also be reported within that distance.
func evaluateWildfire(byType map[models.ClimateDataType][]models.ClimateDataPoint, cond models.TriggerConditions) (bool, []models.EvidenceDataPoint) {
	if cond.TemperatureThreshold == nil {
		return false, nil
	}

	hot, heatEvidence := evaluateExceedance(byType[models.DataTemperature], *cond.TemperatureThreshold)
	if !hot {
		return false, nil
	}

	if cond.FireProximityThreshold == nil {
		return true, heatEvidence
	}

	var near []models.ClimateDataPoint
	for _, dp := range byType[models.DataFireProximity] {
		if dp.Value <= *cond.FireProximityThreshold {
			near = append(near, dp)
		}
	}
	if len(near) == 0 {
		return false, nil
	}

	best := near[0]
	for _, dp := range near[1:] {
		if moreRecent(dp, best) {
			best = dp
		}
	}

	return true, append(heatEvidence, toEvidence([]models.ClimateDataPoint{best})...)
}

func sortChronological(series []models.ClimateDataPoint) {
	sort.Slice(series, func(i, j int) bool {
		if series[i].Timestamp != series[j].Timestamp {
			return series[i].Timestamp < series[j].Timestamp
		}
		return series[i].ConfidenceLevel > series[j].ConfidenceLevel
	})
}

// runSpan is the time covered by a chronological run of readings.
func runSpan(run []models.ClimateDataPoint) int64 {
	if len(run) < 2 {
		return 0
	}
	return run[len(run)-1].Timestamp - run[0].Timestamp
}

func toEvidence(points []models.ClimateDataPoint) []models.EvidenceDataPoint {
	evidence := make([]models.EvidenceDataPoint, 0, len(points))
	for _, dp := range points {
		evidence = append(evidence, models.EvidenceDataPoint{
			DataType:         dp.DataType,
			Value:            dp.Value,
			Timestamp:        dp.Timestamp,
			ConfidenceLevel:  dp.ConfidenceLevel,
			SourceID:         dp.SourceID,
			VerificationHash: hex.EncodeToString(dp.VerificationHash),
		})
	}
	return evidence
}
