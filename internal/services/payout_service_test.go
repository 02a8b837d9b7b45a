package services

import (
	"context"
	"testing"
	"time"

	"insurance-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func payoutFixture(t *testing.T) (*memStore, *PayoutService, *memPublisher) {
	t.Helper()
	store := initializedStore(t)
	store.SetAccountBalance(context.Background(), models.RiskPoolAccountID, 20_000_000_000)

	store.policies[policyKey("farmer-1", 1)] = &models.ClimatePolicy{
		Owner:          "farmer-1",
		PolicyID:       1,
		PolicyType:     models.PolicyDroughtProtection,
		CoverageAmount: 10_000_000_000,
		PremiumAmount:  100_000_000,
		EndTimestamp:   time.Now().Add(24 * time.Hour).Unix(),
		Status:         models.PolicyTriggered,
	}

	publisher := &memPublisher{}
	return store, NewPayoutService(store, publisher), publisher
}

func TestExecutePayout_Succeeds(t *testing.T) {
	store, service, publisher := payoutFixture(t)
	ctx := context.Background()

	err := service.ExecutePayout(ctx, "authority", "farmer-1", 1, 5_000_000_000)
	assert.NoError(t, err)

	policy, _ := store.GetPolicy(ctx, "farmer-1", 1)
	assert.Equal(t, models.PolicyPaidOut, policy.Status)

	pool, _ := store.GetAccount(ctx, models.RiskPoolAccountID)
	beneficiary, _ := store.GetAccount(ctx, "farmer-1")
	assert.Equal(t, uint64(15_000_000_000), pool.Balance)
	assert.Equal(t, uint64(5_000_000_000), beneficiary.Balance)

	registry, _ := store.GetRegistry(ctx)
	assert.Equal(t, uint64(5_000_000_000), registry.TotalPayouts)

	assert.Equal(t, []string{"payout.executed"}, publisher.events)
}

func TestExecutePayout_AtMostOnce(t *testing.T) {
	store, service, _ := payoutFixture(t)
	ctx := context.Background()

	assert.NoError(t, service.ExecutePayout(ctx, "authority", "farmer-1", 1, 5_000_000_000))

	err := service.ExecutePayout(ctx, "authority", "farmer-1", 1, 5_000_000_000)
	assert.ErrorIs(t, err, models.ErrAlreadyPaidOut)

	// The pool was debited exactly once.
	pool, _ := store.GetAccount(ctx, models.RiskPoolAccountID)
	assert.Equal(t, uint64(15_000_000_000), pool.Balance)
}

func TestExecutePayout_RequiresAuthority(t *testing.T) {
	store, service, _ := payoutFixture(t)
	ctx := context.Background()

	err := service.ExecutePayout(ctx, "somebody-else", "farmer-1", 1, 5_000_000_000)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	policy, _ := store.GetPolicy(ctx, "farmer-1", 1)
	assert.Equal(t, models.PolicyTriggered, policy.Status)
}

func TestExecutePayout_InvalidAmount(t *testing.T) {
	_, service, _ := payoutFixture(t)
	ctx := context.Background()

	err := service.ExecutePayout(ctx, "authority", "farmer-1", 1, 0)
	assert.ErrorIs(t, err, models.ErrInvalidPayoutAmount)

	err = service.ExecutePayout(ctx, "authority", "farmer-1", 1, 10_000_000_001)
	assert.ErrorIs(t, err, models.ErrInvalidPayoutAmount)
}

func TestExecutePayout_FullCoverageAllowed(t *testing.T) {
	store, service, _ := payoutFixture(t)
	ctx := context.Background()

	err := service.ExecutePayout(ctx, "authority", "farmer-1", 1, 10_000_000_000)
	assert.NoError(t, err)

	beneficiary, _ := store.GetAccount(ctx, "farmer-1")
	assert.Equal(t, uint64(10_000_000_000), beneficiary.Balance)
}

func TestExecutePayout_InsufficientPoolBalance(t *testing.T) {
	store, service, _ := payoutFixture(t)
	ctx := context.Background()
	store.SetAccountBalance(ctx, models.RiskPoolAccountID, 1_000_000_000)

	err := service.ExecutePayout(ctx, "authority", "farmer-1", 1, 5_000_000_000)
	assert.ErrorIs(t, err, models.ErrInsufficientPoolBalance)

	// The rejection left the policy claimable.
	policy, _ := store.GetPolicy(ctx, "farmer-1", 1)
	assert.Equal(t, models.PolicyTriggered, policy.Status)
}

func TestExecutePayout_NotTriggered(t *testing.T) {
	store, service, _ := payoutFixture(t)
	ctx := context.Background()

	for _, status := range []models.PolicyStatus{
		models.PolicyInactive, models.PolicyActive, models.PolicyExpired,
	} {
		store.policies[policyKey("farmer-1", 1)].Status = status
		err := service.ExecutePayout(ctx, "authority", "farmer-1", 1, 5_000_000_000)
		assert.ErrorIs(t, err, models.ErrNotTriggered, "status %s", status)
	}
}

func TestExecutePayout_RejectedWhilePaused(t *testing.T) {
	store, service, _ := payoutFixture(t)
	store.registry.IsPaused = true

	err := service.ExecutePayout(context.Background(), "authority", "farmer-1", 1, 5_000_000_000)
	assert.ErrorIs(t, err, models.ErrProgramPaused)
}

func TestExecutePayout_UnknownPolicy(t *testing.T) {
	_, service, _ := payoutFixture(t)

	err := service.ExecutePayout(context.Background(), "authority", "farmer-1", 404, 5_000_000_000)
	assert.ErrorIs(t, err, models.ErrPolicyNotFound)
}
