package services

import (
	"context"

	"insurance-service/internal/models"
)

// ReplayGuard is the rotating replay-protection source. Oracle signatures
// must reference a slothash still inside the retained history.
type ReplayGuard interface {
	Contains(ctx context.Context, slothash []byte) (bool, error)
	Rotate(ctx context.Context) ([]byte, error)
}

// EventPublisher pushes lifecycle events to the message broker. Publishing is
// best-effort: a failed publish never rolls back a committed transition.
type EventPublisher interface {
	PublishPolicyEvent(ctx context.Context, eventType string, payload any) error
}

// EvidenceArchiver persists the triggering evidence for audit.
type EvidenceArchiver interface {
	ArchiveEvidence(ctx context.Context, evidence *models.TriggerEvidence) error
}

// ReputationPolicy decides how a provider's score moves on accepted and
// rejected submissions. Deactivation on repeated failures is a policy
// decision, so it lives behind this seam rather than in the ingestion path.
type ReputationPolicy interface {
	OnAccepted(score int) int
	OnRejected(score int) (newScore int, stillActive bool)
}

// DefaultReputationPolicy rewards accepted submissions by one point and
// penalizes rejections by two, deactivating a provider that hits zero.
type DefaultReputationPolicy struct{}

func (DefaultReputationPolicy) OnAccepted(score int) int {
	if score >= 100 {
		return 100
	}
	return score + 1
}

func (DefaultReputationPolicy) OnRejected(score int) (int, bool) {
	score -= 2
	if score <= 0 {
		return 0, false
	}
	return score, true
}
