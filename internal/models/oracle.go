package models

// OracleProviderRecord tracks a registered source of signed climate readings.
type OracleProviderRecord struct {
	Provider        string     `json:"provider" db:"provider"`
	OracleType      OracleType `json:"oracle_type" db:"oracle_type"`
	PublicKey       []byte     `json:"public_key" db:"public_key"`
	ReputationScore int        `json:"reputation_score" db:"reputation_score"`
	LastUpdate      int64      `json:"last_update" db:"last_update"`
	IsActive        bool       `json:"is_active" db:"is_active"`
	DataPointsCount int64      `json:"data_points_count" db:"data_points_count"`
}

// Location of a reading. Altitude is optional; satellite-derived feeds omit
// a surface location entirely.
type Location struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Altitude  *float64 `json:"altitude,omitempty"`
}

// ClimateDataPoint is a single signed measurement. It is ephemeral: stored
// only for the evaluation window, never archived.
type ClimateDataPoint struct {
	DataType        ClimateDataType `json:"data_type"`
	Location        *Location       `json:"location,omitempty"`
	Value           float64         `json:"value"`
	Timestamp       int64           `json:"timestamp"`
	ConfidenceLevel int             `json:"confidence_level"`
	SourceID        string          `json:"source_id"`
	// VerificationHash is the 32-byte digest binding the reading to its
	// signed origin; Signature covers the hash, RecentSlothash ties it to a
	// recent point in ledger history for replay protection.
	VerificationHash []byte `json:"verification_hash"`
	Signature        []byte `json:"signature"`
	RecentSlothash   []byte `json:"recent_slothash"`
}
