package models

import (
	"time"

	"github.com/lib/pq"
)

// GeographicBounds describes the circular coverage area of a policy.
type GeographicBounds struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
	RadiusKm  float64 `json:"radius_km" db:"radius_km"`
}

func (g GeographicBounds) Valid() bool {
	return g.Latitude >= -90 && g.Latitude <= 90 &&
		g.Longitude >= -180 && g.Longitude <= 180 &&
		g.RadiusKm > 0
}

// TriggerConditions holds the per-type thresholds. Only the thresholds
// relevant to the policy type need to be set; the evaluator ignores the rest.
type TriggerConditions struct {
	RainfallThreshold      *float64 `json:"rainfall_threshold,omitempty" db:"rainfall_threshold"`
	TemperatureThreshold   *float64 `json:"temperature_threshold,omitempty" db:"temperature_threshold"`
	WindSpeedThreshold     *float64 `json:"wind_speed_threshold,omitempty" db:"wind_speed_threshold"`
	WaterLevelThreshold    *float64 `json:"water_level_threshold,omitempty" db:"water_level_threshold"`
	FireProximityThreshold *float64 `json:"fire_proximity_threshold,omitempty" db:"fire_proximity_threshold"`
	// MeasurementPeriod and MinimumDuration are unix-second spans.
	MeasurementPeriod int64 `json:"measurement_period" db:"measurement_period"`
	MinimumDuration   int64 `json:"minimum_duration" db:"minimum_duration"`
}

// HasRelevantThreshold reports whether at least one threshold the policy type
// evaluates against is present.
func (t TriggerConditions) HasRelevantThreshold(policyType PolicyType) bool {
	switch policyType {
	case PolicyDroughtProtection, PolicyFloodInsurance:
		return t.RainfallThreshold != nil
	case PolicyHurricaneCoverage:
		return t.WindSpeedThreshold != nil
	case PolicyWildfireProtection:
		return t.TemperatureThreshold != nil
	default:
		return false
	}
}

// ClimatePolicy is a parametric insurance contract keyed by (owner, policy_id).
type ClimatePolicy struct {
	Owner             string            `json:"owner" db:"owner"`
	PolicyID          uint64            `json:"policy_id" db:"policy_id"`
	PolicyType        PolicyType        `json:"policy_type" db:"policy_type"`
	GeographicBounds  GeographicBounds  `json:"geographic_bounds"`
	TriggerConditions TriggerConditions `json:"trigger_conditions"`
	OracleSources     pq.StringArray    `json:"oracle_sources" db:"oracle_sources"`
	CoverageAmount    uint64            `json:"coverage_amount" db:"coverage_amount"`
	PremiumAmount     uint64            `json:"premium_amount" db:"premium_amount"`
	EndTimestamp      int64             `json:"end_timestamp" db:"end_timestamp"`
	Status            PolicyStatus      `json:"status" db:"status"`
	CreatedAt         time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at" db:"updated_at"`
}

// AuthorizesSource reports whether the provider is listed on the policy.
func (p *ClimatePolicy) AuthorizesSource(provider string) bool {
	for _, s := range p.OracleSources {
		if s == provider {
			return true
		}
	}
	return false
}

// TriggerEvidence is the audit record emitted when a policy transitions to
// triggered: the data point references that satisfied the condition.
type TriggerEvidence struct {
	Owner       string              `json:"owner"`
	PolicyID    uint64              `json:"policy_id"`
	PolicyType  PolicyType          `json:"policy_type"`
	EvaluatedAt int64               `json:"evaluated_at"`
	DataPoints  []EvidenceDataPoint `json:"data_points"`
}

// EvidenceDataPoint references a single reading that contributed to a trigger.
type EvidenceDataPoint struct {
	DataType         ClimateDataType `json:"data_type"`
	Value            float64         `json:"value"`
	Timestamp        int64           `json:"timestamp"`
	ConfidenceLevel  int             `json:"confidence_level"`
	SourceID         string          `json:"source_id"`
	VerificationHash string          `json:"verification_hash"`
}
