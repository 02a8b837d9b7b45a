package services

import (
	"context"
	"testing"
	"time"

	"insurance-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func float64Ptr(v float64) *float64 { return &v }

func validCreateRequest() *models.CreatePolicyRequest {
	return &models.CreatePolicyRequest{
		PolicyID:   1,
		PolicyType: models.PolicyDroughtProtection,
		GeographicBounds: models.GeographicBounds{
			Latitude:  10.762622,
			Longitude: 106.660172,
			RadiusKm:  25,
		},
		TriggerConditions: models.TriggerConditions{
			RainfallThreshold: float64Ptr(5.0),
			MeasurementPeriod: 86400 * 30,
			MinimumDuration:   86400 * 7,
		},
		OracleSources:  []string{"station-1"},
		CoverageAmount: 10_000_000_000,
		PremiumAmount:  100_000_000,
		EndTimestamp:   time.Now().Add(365 * 24 * time.Hour).Unix(),
	}
}

func initializedStore(t *testing.T) *memStore {
	t.Helper()
	store := newMemStore()
	assert.NoError(t, store.InitializeRegistry(context.Background(), "authority"))
	assert.NoError(t, store.EnsureAccount(context.Background(), models.RiskPoolAccountID))
	return store
}

func TestCreatePolicy_Succeeds(t *testing.T) {
	store := initializedStore(t)
	service := NewPolicyService(store, nil)

	policy, err := service.CreatePolicy(context.Background(), "farmer-1", validCreateRequest())

	assert.NoError(t, err)
	assert.Equal(t, models.PolicyInactive, policy.Status)
	assert.Equal(t, uint64(10_000_000_000), policy.CoverageAmount)

	registry, _ := store.GetRegistry(context.Background())
	assert.Equal(t, uint64(1), registry.TotalPolicies)
}

func TestCreatePolicy_ValidationOrder(t *testing.T) {
	store := initializedStore(t)
	service := NewPolicyService(store, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*models.CreatePolicyRequest)
		wantErr error
	}{
		{
			name:    "zero coverage",
			mutate:  func(r *models.CreatePolicyRequest) { r.CoverageAmount = 0 },
			wantErr: models.ErrInvalidCoverageAmount,
		},
		{
			name:    "zero premium",
			mutate:  func(r *models.CreatePolicyRequest) { r.PremiumAmount = 0 },
			wantErr: models.ErrInvalidPremiumAmount,
		},
		{
			name:    "latitude out of range",
			mutate:  func(r *models.CreatePolicyRequest) { r.GeographicBounds.Latitude = 91 },
			wantErr: models.ErrInvalidGeographicBounds,
		},
		{
			name:    "zero radius",
			mutate:  func(r *models.CreatePolicyRequest) { r.GeographicBounds.RadiusKm = 0 },
			wantErr: models.ErrInvalidGeographicBounds,
		},
		{
			name:    "end timestamp in the past",
			mutate:  func(r *models.CreatePolicyRequest) { r.EndTimestamp = time.Now().Unix() - 1 },
			wantErr: models.ErrInvalidEndTimestamp,
		},
		{
			name:    "missing relevant threshold",
			mutate:  func(r *models.CreatePolicyRequest) { r.TriggerConditions.RainfallThreshold = nil },
			wantErr: models.ErrMissingTriggerThreshold,
		},
		{
			name: "coverage checked before bounds",
			mutate: func(r *models.CreatePolicyRequest) {
				r.CoverageAmount = 0
				r.GeographicBounds.Latitude = 91
			},
			wantErr: models.ErrInvalidCoverageAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(req)

			_, err := service.CreatePolicy(ctx, "farmer-1", req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// Nothing was created and no counter moved.
	registry, _ := store.GetRegistry(ctx)
	assert.Equal(t, uint64(0), registry.TotalPolicies)
}

func TestCreatePolicy_Duplicate(t *testing.T) {
	store := initializedStore(t)
	service := NewPolicyService(store, nil)
	ctx := context.Background()

	_, err := service.CreatePolicy(ctx, "farmer-1", validCreateRequest())
	assert.NoError(t, err)

	_, err = service.CreatePolicy(ctx, "farmer-1", validCreateRequest())
	assert.ErrorIs(t, err, models.ErrDuplicatePolicy)

	// Same policy id under another owner is a distinct policy.
	_, err = service.CreatePolicy(ctx, "farmer-2", validCreateRequest())
	assert.NoError(t, err)
}

func TestCreatePolicy_RejectedWhilePaused(t *testing.T) {
	store := initializedStore(t)
	store.registry.IsPaused = true
	service := NewPolicyService(store, nil)

	_, err := service.CreatePolicy(context.Background(), "farmer-1", validCreateRequest())
	assert.ErrorIs(t, err, models.ErrProgramPaused)
}

func TestDepositPremium_ExactAmountActivates(t *testing.T) {
	store := initializedStore(t)
	publisher := &memPublisher{}
	service := NewPolicyService(store, publisher)
	ctx := context.Background()

	_, err := service.CreatePolicy(ctx, "farmer-1", validCreateRequest())
	assert.NoError(t, err)

	store.EnsureAccount(ctx, "farmer-1")
	store.SetAccountBalance(ctx, "farmer-1", 100_000_000)

	err = service.DepositPremium(ctx, "farmer-1", 1, 100_000_000)
	assert.NoError(t, err)

	policy, _ := store.GetPolicy(ctx, "farmer-1", 1)
	assert.Equal(t, models.PolicyActive, policy.Status)

	funding, _ := store.GetAccount(ctx, "farmer-1")
	pool, _ := store.GetAccount(ctx, models.RiskPoolAccountID)
	assert.Equal(t, uint64(0), funding.Balance)
	assert.Equal(t, uint64(100_000_000), pool.Balance)

	registry, _ := store.GetRegistry(ctx)
	assert.Equal(t, uint64(100_000_000), registry.TotalPremiumsCollected)

	assert.Equal(t, []string{"policy.activated"}, publisher.events)
}

func TestDepositPremium_BelowPremiumRejected(t *testing.T) {
	store := initializedStore(t)
	service := NewPolicyService(store, nil)
	ctx := context.Background()

	_, err := service.CreatePolicy(ctx, "farmer-1", validCreateRequest())
	assert.NoError(t, err)

	store.EnsureAccount(ctx, "farmer-1")
	store.SetAccountBalance(ctx, "farmer-1", 100_000_000)

	err = service.DepositPremium(ctx, "farmer-1", 1, 99_999_999)
	assert.ErrorIs(t, err, models.ErrInsufficientPremium)

	// No partial transfer happened.
	policy, _ := store.GetPolicy(ctx, "farmer-1", 1)
	assert.Equal(t, models.PolicyInactive, policy.Status)

	funding, _ := store.GetAccount(ctx, "farmer-1")
	assert.Equal(t, uint64(100_000_000), funding.Balance)
}

func TestDepositPremium_InsufficientFunds(t *testing.T) {
	store := initializedStore(t)
	service := NewPolicyService(store, nil)
	ctx := context.Background()

	_, err := service.CreatePolicy(ctx, "farmer-1", validCreateRequest())
	assert.NoError(t, err)

	store.EnsureAccount(ctx, "farmer-1")
	store.SetAccountBalance(ctx, "farmer-1", 1_000)

	err = service.DepositPremium(ctx, "farmer-1", 1, 100_000_000)
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)

	policy, _ := store.GetPolicy(ctx, "farmer-1", 1)
	assert.Equal(t, models.PolicyInactive, policy.Status)
}

func TestDepositPremium_AlreadyActive(t *testing.T) {
	store := initializedStore(t)
	service := NewPolicyService(store, nil)
	ctx := context.Background()

	_, err := service.CreatePolicy(ctx, "farmer-1", validCreateRequest())
	assert.NoError(t, err)

	store.EnsureAccount(ctx, "farmer-1")
	store.SetAccountBalance(ctx, "farmer-1", 200_000_000)

	assert.NoError(t, service.DepositPremium(ctx, "farmer-1", 1, 100_000_000))

	err = service.DepositPremium(ctx, "farmer-1", 1, 100_000_000)
	assert.ErrorIs(t, err, models.ErrAlreadyActive)

	// The second deposit moved nothing.
	funding, _ := store.GetAccount(ctx, "farmer-1")
	assert.Equal(t, uint64(100_000_000), funding.Balance)
}

func TestDepositPremium_UnknownPolicy(t *testing.T) {
	store := initializedStore(t)
	service := NewPolicyService(store, nil)

	err := service.DepositPremium(context.Background(), "farmer-1", 404, 100_000_000)
	assert.ErrorIs(t, err, models.ErrPolicyNotFound)
}

func TestExpireDuePolicies(t *testing.T) {
	store := initializedStore(t)
	service := NewPolicyService(store, nil)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour).Unix()
	store.policies[policyKey("farmer-1", 1)] = &models.ClimatePolicy{
		Owner: "farmer-1", PolicyID: 1, Status: models.PolicyActive, EndTimestamp: past,
	}
	store.policies[policyKey("farmer-1", 2)] = &models.ClimatePolicy{
		Owner: "farmer-1", PolicyID: 2, Status: models.PolicyActive,
		EndTimestamp: time.Now().Add(time.Hour).Unix(),
	}
	store.policies[policyKey("farmer-1", 3)] = &models.ClimatePolicy{
		Owner: "farmer-1", PolicyID: 3, Status: models.PolicyTriggered, EndTimestamp: past,
	}

	expired, err := service.ExpireDuePolicies(ctx, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, 1, expired)

	p1, _ := store.GetPolicy(ctx, "farmer-1", 1)
	p2, _ := store.GetPolicy(ctx, "farmer-1", 2)
	p3, _ := store.GetPolicy(ctx, "farmer-1", 3)
	assert.Equal(t, models.PolicyExpired, p1.Status)
	assert.Equal(t, models.PolicyActive, p2.Status)
	// Triggered policies are out of reach of the sweep.
	assert.Equal(t, models.PolicyTriggered, p3.Status)
}

func TestExpireDuePolicies_SkippedWhilePaused(t *testing.T) {
	store := initializedStore(t)
	service := NewPolicyService(store, nil)
	ctx := context.Background()

	store.registry.IsPaused = true
	store.policies[policyKey("farmer-1", 1)] = &models.ClimatePolicy{
		Owner: "farmer-1", PolicyID: 1, Status: models.PolicyActive,
		EndTimestamp: time.Now().Add(-time.Hour).Unix(),
	}

	expired, err := service.ExpireDuePolicies(ctx, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, 0, expired)

	policy, _ := store.GetPolicy(ctx, "farmer-1", 1)
	assert.Equal(t, models.PolicyActive, policy.Status)

	// Unpausing lets the next sweep pick it up.
	store.registry.IsPaused = false
	expired, err = service.ExpireDuePolicies(ctx, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, 1, expired)
}
