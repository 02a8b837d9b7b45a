package services

import (
	"context"
	"math"
	"testing"

	"insurance-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestInitialize_Once(t *testing.T) {
	store := newMemStore()
	service := NewRegistryService(store)
	ctx := context.Background()

	assert.NoError(t, service.Initialize(ctx, "authority"))

	registry, err := service.GetRegistry(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "authority", registry.Authority)
	assert.False(t, registry.IsPaused)
	assert.Equal(t, uint64(0), registry.TotalPolicies)

	// The risk pool account exists from the start.
	balance, err := service.GetAccountBalance(ctx, models.RiskPoolAccountID)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), balance)

	err = service.Initialize(ctx, "someone-else")
	assert.ErrorIs(t, err, models.ErrAlreadyInitialized)

	// The original authority survived the failed re-init.
	registry, _ = service.GetRegistry(ctx)
	assert.Equal(t, "authority", registry.Authority)
}

func TestPause_AuthorityOnly(t *testing.T) {
	store := newMemStore()
	service := NewRegistryService(store)
	ctx := context.Background()
	assert.NoError(t, service.Initialize(ctx, "authority"))

	err := service.Pause(ctx, "intruder")
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	assert.NoError(t, service.Pause(ctx, "authority"))
	registry, _ := service.GetRegistry(ctx)
	assert.True(t, registry.IsPaused)

	// Pausing an already paused program is a no-op, not an error.
	assert.NoError(t, service.Pause(ctx, "authority"))

	assert.NoError(t, service.Unpause(ctx, "authority"))
	registry, _ = service.GetRegistry(ctx)
	assert.False(t, registry.IsPaused)
}

func TestGetRegistry_WorksWhilePaused(t *testing.T) {
	store := newMemStore()
	service := NewRegistryService(store)
	ctx := context.Background()
	assert.NoError(t, service.Initialize(ctx, "authority"))
	assert.NoError(t, service.Pause(ctx, "authority"))

	registry, err := service.GetRegistry(ctx)
	assert.NoError(t, err)
	assert.True(t, registry.IsPaused)
}

func TestFundAccount(t *testing.T) {
	store := newMemStore()
	service := NewRegistryService(store)
	ctx := context.Background()
	assert.NoError(t, service.Initialize(ctx, "authority"))

	assert.NoError(t, service.FundAccount(ctx, "farmer-1", 500))
	assert.NoError(t, service.FundAccount(ctx, "farmer-1", 250))

	balance, err := service.GetAccountBalance(ctx, "farmer-1")
	assert.NoError(t, err)
	assert.Equal(t, uint64(750), balance)
}

func TestFundAccount_Overflow(t *testing.T) {
	store := newMemStore()
	service := NewRegistryService(store)
	ctx := context.Background()
	assert.NoError(t, service.Initialize(ctx, "authority"))

	assert.NoError(t, service.FundAccount(ctx, "farmer-1", math.MaxUint64))

	err := service.FundAccount(ctx, "farmer-1", 1)
	assert.ErrorIs(t, err, models.ErrArithmeticOverflow)

	balance, _ := service.GetAccountBalance(ctx, "farmer-1")
	assert.Equal(t, uint64(math.MaxUint64), balance)
}

func TestOperationsRequireInitializedRegistry(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	_, err := NewRegistryService(store).GetRegistry(ctx)
	assert.ErrorIs(t, err, models.ErrNotInitialized)

	_, err = NewPolicyService(store, nil).CreatePolicy(ctx, "farmer-1", validCreateRequest())
	assert.ErrorIs(t, err, models.ErrNotInitialized)
}
