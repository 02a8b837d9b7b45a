package oracle

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"math"

	"insurance-service/internal/models"
)

// Verifier validates a signed payload against a provider's registered key.
// The core never re-implements cryptographic primitives; this is the narrow
// seam where the ledger's signature scheme plugs in.
type Verifier interface {
	Verify(payload, signature, sourceKey []byte) bool
}

// Ed25519Verifier verifies detached ed25519 signatures.
type Ed25519Verifier struct{}

func NewEd25519Verifier() *Ed25519Verifier {
	return &Ed25519Verifier{}
}

func (v *Ed25519Verifier) Verify(payload, signature, sourceKey []byte) bool {
	if len(sourceKey) != ed25519.PublicKeySize || len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(sourceKey), payload, signature)
}

// HashDataPoint computes the 32-byte digest binding a reading to its signed
// origin: data type, value, timestamp, confidence, source and the recent
// slothash the signature references. Providers sign exactly this digest.
func HashDataPoint(dp *models.ClimateDataPoint) []byte {
	var buf bytes.Buffer
	buf.WriteString(string(dp.DataType))
	buf.WriteByte(0)

	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(dp.Value))
	buf.Write(scratch[:])
	binary.LittleEndian.PutUint64(scratch[:], uint64(dp.Timestamp))
	buf.Write(scratch[:])
	buf.WriteByte(byte(dp.ConfidenceLevel))

	buf.WriteString(dp.SourceID)
	buf.WriteByte(0)

	if dp.Location != nil {
		binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(dp.Location.Latitude))
		buf.Write(scratch[:])
		binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(dp.Location.Longitude))
		buf.Write(scratch[:])
	}

	buf.Write(dp.RecentSlothash)

	sum := sha256.Sum256(buf.Bytes())
	return sum[:]
}

// VerifyDataPoint recomputes the digest, checks it matches the submitted
// verification hash and that the signature over it validates.
func VerifyDataPoint(v Verifier, dp *models.ClimateDataPoint, sourceKey []byte) bool {
	digest := HashDataPoint(dp)
	if !bytes.Equal(digest, dp.VerificationHash) {
		return false
	}
	return v.Verify(digest, dp.Signature, sourceKey)
}
