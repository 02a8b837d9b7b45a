package instruction

import (
	"testing"

	"insurance-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	selector, payload, err := Decode([]byte{SelectorCreatePolicy, 0xAA, 0xBB})
	assert.NoError(t, err)
	assert.Equal(t, SelectorCreatePolicy, selector)
	assert.Equal(t, []byte{0xAA, 0xBB}, payload)

	_, _, err = Decode(nil)
	assert.Error(t, err)
}

func TestCreatePolicyRoundTrip(t *testing.T) {
	rainfall := 5.0
	req := &models.CreatePolicyRequest{
		PolicyID:   42,
		PolicyType: models.PolicyDroughtProtection,
		GeographicBounds: models.GeographicBounds{
			Latitude:  10.762622,
			Longitude: 106.660172,
			RadiusKm:  25,
		},
		TriggerConditions: models.TriggerConditions{
			RainfallThreshold: &rainfall,
			MeasurementPeriod: 86400 * 30,
			MinimumDuration:   86400 * 7,
		},
		CoverageAmount: 10_000_000_000,
		PremiumAmount:  100_000_000,
		EndTimestamp:   1790000000,
	}

	payload, err := EncodeCreatePolicy(req)
	assert.NoError(t, err)

	decoded, err := DecodeCreatePolicy(payload)
	assert.NoError(t, err)
	assert.Equal(t, req, decoded)
}

func TestCreatePolicyAllThresholds(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5}
	req := &models.CreatePolicyRequest{
		PolicyID:   7,
		PolicyType: models.PolicyWildfireProtection,
		GeographicBounds: models.GeographicBounds{
			Latitude: -33.87, Longitude: 151.21, RadiusKm: 10,
		},
		TriggerConditions: models.TriggerConditions{
			RainfallThreshold:      &vals[0],
			TemperatureThreshold:   &vals[1],
			WindSpeedThreshold:     &vals[2],
			WaterLevelThreshold:    &vals[3],
			FireProximityThreshold: &vals[4],
		},
		CoverageAmount: 1,
		PremiumAmount:  1,
		EndTimestamp:   1790000000,
	}

	payload, err := EncodeCreatePolicy(req)
	assert.NoError(t, err)

	decoded, err := DecodeCreatePolicy(payload)
	assert.NoError(t, err)
	assert.Equal(t, req, decoded)
}

func TestDecodeCreatePolicy_Malformed(t *testing.T) {
	rainfall := 5.0
	req := &models.CreatePolicyRequest{
		PolicyID:   1,
		PolicyType: models.PolicyFloodInsurance,
		GeographicBounds: models.GeographicBounds{
			Latitude: 1, Longitude: 1, RadiusKm: 1,
		},
		TriggerConditions: models.TriggerConditions{RainfallThreshold: &rainfall},
		CoverageAmount:    1,
		PremiumAmount:     1,
		EndTimestamp:      1790000000,
	}
	payload, err := EncodeCreatePolicy(req)
	assert.NoError(t, err)

	_, err = DecodeCreatePolicy(payload[:len(payload)-1])
	assert.Error(t, err)

	_, err = DecodeCreatePolicy(append(payload, 0))
	assert.Error(t, err)

	// Unknown policy type byte.
	bad := make([]byte, len(payload))
	copy(bad, payload)
	bad[8] = 0xFF
	_, err = DecodeCreatePolicy(bad)
	assert.Error(t, err)
}

func TestInitOracleRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	key[0] = 0x7F

	payload, err := EncodeInitOracle(models.OracleSatellite, key)
	assert.NoError(t, err)

	oracleType, decoded, err := DecodeInitOracle(payload)
	assert.NoError(t, err)
	assert.Equal(t, models.OracleSatellite, oracleType)
	assert.Equal(t, key, decoded)

	_, _, err = DecodeInitOracle(payload[:16])
	assert.Error(t, err)
}

func TestEvalTriggerRoundTrip(t *testing.T) {
	policyID, err := DecodeEvalTrigger(EncodeEvalTrigger(42))
	assert.NoError(t, err)
	assert.Equal(t, uint64(42), policyID)

	_, err = DecodeEvalTrigger([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestExecutePayoutRoundTrip(t *testing.T) {
	policyID, amount, err := DecodeExecutePayout(EncodeExecutePayout(42, 5_000_000_000))
	assert.NoError(t, err)
	assert.Equal(t, uint64(42), policyID)
	assert.Equal(t, uint64(5_000_000_000), amount)

	_, _, err = DecodeExecutePayout([]byte{1, 2, 3})
	assert.Error(t, err)
}
