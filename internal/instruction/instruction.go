package instruction

import (
	"encoding/binary"
	"fmt"
	"math"

	"insurance-service/internal/models"
)

// Operation selectors, one byte on the wire.
const (
	SelectorCrank         byte = 0
	SelectorReadClimate   byte = 1
	SelectorInitState     byte = 2
	SelectorInitOracle    byte = 3
	SelectorCreatePolicy  byte = 4
	SelectorEvalTrigger   byte = 5
	SelectorExecutePayout byte = 6
)

// Threshold presence bits in the create_policy payload.
const (
	flagRainfall      = 1 << 0
	flagTemperature   = 1 << 1
	flagWindSpeed     = 1 << 2
	flagWaterLevel    = 1 << 3
	flagFireProximity = 1 << 4
)

// Instruction is one decoded operation frame: selector byte plus payload,
// with the named accounts it executes against.
type Instruction struct {
	Selector byte
	Payload  []byte
	Accounts Accounts
}

// Accounts identifies the external accounts named by the operation. Which
// fields are meaningful depends on the selector.
type Accounts struct {
	Owner    string `json:"owner,omitempty"`
	Executor string `json:"executor,omitempty"`
	Provider string `json:"provider,omitempty"`
	// OracleSources names the providers a new policy is allowed to read.
	OracleSources []string `json:"oracle_sources,omitempty"`
}

// Decode splits a raw frame into selector and payload.
func Decode(frame []byte) (byte, []byte, error) {
	if len(frame) == 0 {
		return 0, nil, fmt.Errorf("empty instruction frame")
	}
	return frame[0], frame[1:], nil
}

// reader walks a little-endian fixed-width payload.
type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) u8() byte {
	if r.err != nil {
		return 0
	}
	if r.off+1 > len(r.buf) {
		r.err = fmt.Errorf("payload truncated at offset %d", r.off)
		return 0
	}
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *reader) u64() uint64 {
	if r.err != nil {
		return 0
	}
	if r.off+8 > len(r.buf) {
		r.err = fmt.Errorf("payload truncated at offset %d", r.off)
		return 0
	}
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v
}

func (r *reader) i64() int64 { return int64(r.u64()) }

func (r *reader) f64() float64 { return math.Float64frombits(r.u64()) }

// DecodeCreatePolicy decodes the selector-4 payload:
// policyId(8) + policyType(1) + lat(8) + lon(8) + radius(8) +
// thresholdFlags(1) + one f64 per set flag in bit order +
// measurementPeriod(8) + minimumDuration(8) +
// coverage(8) + premium(8) + endTimestamp(8).
func DecodeCreatePolicy(payload []byte) (*models.CreatePolicyRequest, error) {
	r := &reader{buf: payload}

	req := &models.CreatePolicyRequest{}
	req.PolicyID = r.u64()

	policyType, ok := models.PolicyTypeFromSelector(r.u8())
	if r.err == nil && !ok {
		return nil, fmt.Errorf("unknown policy type byte")
	}
	req.PolicyType = policyType

	req.GeographicBounds.Latitude = r.f64()
	req.GeographicBounds.Longitude = r.f64()
	req.GeographicBounds.RadiusKm = r.f64()

	flags := r.u8()
	readThreshold := func(bit byte) *float64 {
		if flags&bit == 0 {
			return nil
		}
		v := r.f64()
		return &v
	}
	req.TriggerConditions.RainfallThreshold = readThreshold(flagRainfall)
	req.TriggerConditions.TemperatureThreshold = readThreshold(flagTemperature)
	req.TriggerConditions.WindSpeedThreshold = readThreshold(flagWindSpeed)
	req.TriggerConditions.WaterLevelThreshold = readThreshold(flagWaterLevel)
	req.TriggerConditions.FireProximityThreshold = readThreshold(flagFireProximity)

	req.TriggerConditions.MeasurementPeriod = r.i64()
	req.TriggerConditions.MinimumDuration = r.i64()

	req.CoverageAmount = r.u64()
	req.PremiumAmount = r.u64()
	req.EndTimestamp = r.i64()

	if r.err != nil {
		return nil, r.err
	}
	if r.off != len(payload) {
		return nil, fmt.Errorf("trailing bytes in create_policy payload")
	}

	return req, nil
}

// EncodeCreatePolicy is the inverse of DecodeCreatePolicy.
func EncodeCreatePolicy(req *models.CreatePolicyRequest) ([]byte, error) {
	typeByte, ok := policyTypeByte(req.PolicyType)
	if !ok {
		return nil, fmt.Errorf("unknown policy type %q", req.PolicyType)
	}

	var buf []byte
	putU64 := func(v uint64) {
		var scratch [8]byte
		binary.LittleEndian.PutUint64(scratch[:], v)
		buf = append(buf, scratch[:]...)
	}
	putF64 := func(v float64) { putU64(math.Float64bits(v)) }

	putU64(req.PolicyID)
	buf = append(buf, typeByte)
	putF64(req.GeographicBounds.Latitude)
	putF64(req.GeographicBounds.Longitude)
	putF64(req.GeographicBounds.RadiusKm)

	var flags byte
	thresholds := []struct {
		bit   byte
		value *float64
	}{
		{flagRainfall, req.TriggerConditions.RainfallThreshold},
		{flagTemperature, req.TriggerConditions.TemperatureThreshold},
		{flagWindSpeed, req.TriggerConditions.WindSpeedThreshold},
		{flagWaterLevel, req.TriggerConditions.WaterLevelThreshold},
		{flagFireProximity, req.TriggerConditions.FireProximityThreshold},
	}
	for _, t := range thresholds {
		if t.value != nil {
			flags |= t.bit
		}
	}
	buf = append(buf, flags)
	for _, t := range thresholds {
		if t.value != nil {
			putF64(*t.value)
		}
	}

	putU64(uint64(req.TriggerConditions.MeasurementPeriod))
	putU64(uint64(req.TriggerConditions.MinimumDuration))
	putU64(req.CoverageAmount)
	putU64(req.PremiumAmount)
	putU64(uint64(req.EndTimestamp))

	return buf, nil
}

// DecodeInitOracle decodes the selector-3 payload:
// oracleType(1) + ed25519 public key(32).
func DecodeInitOracle(payload []byte) (models.OracleType, []byte, error) {
	if len(payload) != 1+ed25519KeyLen {
		return "", nil, fmt.Errorf("init_oracle payload must be %d bytes, got %d", 1+ed25519KeyLen, len(payload))
	}
	oracleType, ok := oracleTypeFromByte(payload[0])
	if !ok {
		return "", nil, fmt.Errorf("unknown oracle type byte")
	}
	key := make([]byte, ed25519KeyLen)
	copy(key, payload[1:])
	return oracleType, key, nil
}

// EncodeInitOracle is the inverse of DecodeInitOracle.
func EncodeInitOracle(oracleType models.OracleType, publicKey []byte) ([]byte, error) {
	typeByte, ok := oracleTypeByte(oracleType)
	if !ok {
		return nil, fmt.Errorf("unknown oracle type %q", oracleType)
	}
	if len(publicKey) != ed25519KeyLen {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519KeyLen, len(publicKey))
	}
	return append([]byte{typeByte}, publicKey...), nil
}

// DecodeEvalTrigger decodes the selector-5 payload: policyId(8).
func DecodeEvalTrigger(payload []byte) (uint64, error) {
	if len(payload) != 8 {
		return 0, fmt.Errorf("eval_trigger payload must be 8 bytes, got %d", len(payload))
	}
	return binary.LittleEndian.Uint64(payload), nil
}

// EncodeEvalTrigger is the inverse of DecodeEvalTrigger.
func EncodeEvalTrigger(policyID uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], policyID)
	return buf[:]
}

// DecodeExecutePayout decodes the selector-6 payload: policyId(8) + amount(8).
func DecodeExecutePayout(payload []byte) (policyID, amount uint64, err error) {
	if len(payload) != 16 {
		return 0, 0, fmt.Errorf("execute_payout payload must be 16 bytes, got %d", len(payload))
	}
	return binary.LittleEndian.Uint64(payload), binary.LittleEndian.Uint64(payload[8:]), nil
}

// EncodeExecutePayout is the inverse of DecodeExecutePayout.
func EncodeExecutePayout(policyID, amount uint64) []byte {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], policyID)
	binary.LittleEndian.PutUint64(buf[8:], amount)
	return buf[:]
}

const ed25519KeyLen = 32

func oracleTypeFromByte(b byte) (models.OracleType, bool) {
	switch b {
	case 0:
		return models.OracleWeatherStation, true
	case 1:
		return models.OracleSatellite, true
	case 2:
		return models.OracleAggregator, true
	default:
		return "", false
	}
}

func oracleTypeByte(t models.OracleType) (byte, bool) {
	switch t {
	case models.OracleWeatherStation:
		return 0, true
	case models.OracleSatellite:
		return 1, true
	case models.OracleAggregator:
		return 2, true
	default:
		return 0, false
	}
}

func policyTypeByte(t models.PolicyType) (byte, bool) {
	switch t {
	case models.PolicyDroughtProtection:
		return 0, true
	case models.PolicyFloodInsurance:
		return 1, true
	case models.PolicyHurricaneCoverage:
		return 2, true
	case models.PolicyWildfireProtection:
		return 3, true
	default:
		return 0, false
	}
}
