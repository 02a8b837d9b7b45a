package models

// CreatePolicyRequest is the HTTP body for policy creation. Amounts are
// integer base units; timestamps are unix seconds.
type CreatePolicyRequest struct {
	PolicyID          uint64            `json:"policy_id"`
	PolicyType        PolicyType        `json:"policy_type"`
	GeographicBounds  GeographicBounds  `json:"geographic_bounds"`
	TriggerConditions TriggerConditions `json:"trigger_conditions"`
	OracleSources     []string          `json:"oracle_sources"`
	CoverageAmount    uint64            `json:"coverage_amount"`
	PremiumAmount     uint64            `json:"premium_amount"`
	EndTimestamp      int64             `json:"end_timestamp"`
}

type DepositPremiumRequest struct {
	PolicyID uint64 `json:"policy_id"`
	Amount   uint64 `json:"amount"`
}

type RegisterOracleRequest struct {
	Provider   string     `json:"provider"`
	OracleType OracleType `json:"oracle_type"`
	// PublicKeyHex is the provider's ed25519 verification key.
	PublicKeyHex string `json:"public_key"`
}

type SubmitClimateDataRequest struct {
	Provider   string             `json:"provider"`
	DataPoints []ClimateDataPoint `json:"data_points"`
}

type EvaluateTriggerRequest struct {
	Owner    string `json:"owner"`
	PolicyID uint64 `json:"policy_id"`
}

type ExecutePayoutRequest struct {
	Owner    string `json:"owner"`
	PolicyID uint64 `json:"policy_id"`
	Amount   uint64 `json:"amount"`
}

type InitializeRequest struct {
	Authority string `json:"authority"`
}

// TriggerEvaluationResponse reports the outcome of one evaluation pass.
type TriggerEvaluationResponse struct {
	Status    PolicyStatus     `json:"status"`
	Triggered bool             `json:"triggered"`
	Evidence  *TriggerEvidence `json:"evidence,omitempty"`
}
