package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"insurance-service/internal/models"
	"insurance-service/internal/repository"
	"insurance-service/internal/utils"
)

// PolicyService creates policies and moves them from Inactive to Active
// through premium funding. Every mutating path is one transaction: a failed
// validation or a lost race leaves nothing behind.
type PolicyService struct {
	store     repository.Store
	publisher EventPublisher
}

func NewPolicyService(store repository.Store, publisher EventPublisher) *PolicyService {
	return &PolicyService{store: store, publisher: publisher}
}

// validateCreatePolicy runs the pure input checks. Fail-fast: nothing is
// written when any of these trips.
func validateCreatePolicy(req *models.CreatePolicyRequest, now time.Time) error {
	if req.CoverageAmount == 0 {
		return models.ErrInvalidCoverageAmount
	}
	if req.PremiumAmount == 0 {
		return models.ErrInvalidPremiumAmount
	}
	if !req.GeographicBounds.Valid() {
		return models.ErrInvalidGeographicBounds
	}
	if req.EndTimestamp <= now.Unix() {
		return models.ErrInvalidEndTimestamp
	}
	if !req.TriggerConditions.HasRelevantThreshold(req.PolicyType) {
		return models.ErrMissingTriggerThreshold
	}
	return nil
}

func (s *PolicyService) CreatePolicy(ctx context.Context, owner string, req *models.CreatePolicyRequest) (*models.ClimatePolicy, error) {
	if err := validateCreatePolicy(req, time.Now()); err != nil {
		return nil, err
	}

	policy := &models.ClimatePolicy{
		Owner:             owner,
		PolicyID:          req.PolicyID,
		PolicyType:        req.PolicyType,
		GeographicBounds:  req.GeographicBounds,
		TriggerConditions: req.TriggerConditions,
		OracleSources:     req.OracleSources,
		CoverageAmount:    req.CoverageAmount,
		PremiumAmount:     req.PremiumAmount,
		EndTimestamp:      req.EndTimestamp,
		Status:            models.PolicyInactive,
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		registry, err := tx.GetRegistryLocked(ctx)
		if err != nil {
			return err
		}
		if registry.IsPaused {
			return models.ErrProgramPaused
		}

		totalPolicies, ok := utils.CheckedAdd(registry.TotalPolicies, 1)
		if !ok {
			return models.ErrArithmeticOverflow
		}

		if err := tx.CreatePolicy(ctx, policy); err != nil {
			return err
		}

		registry.TotalPolicies = totalPolicies
		return tx.UpdateRegistryCounters(ctx, registry)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Policy created",
		"owner", owner,
		"policy_id", policy.PolicyID,
		"policy_type", policy.PolicyType,
		"coverage_amount", policy.CoverageAmount)

	return policy, nil
}

// DepositPremium funds a policy all-or-nothing. A deposit below the premium
// amount is rejected outright so that every Active policy is fully funded.
func (s *PolicyService) DepositPremium(ctx context.Context, owner string, policyID uint64, amount uint64) error {
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		registry, err := tx.GetRegistryLocked(ctx)
		if err != nil {
			return err
		}
		if registry.IsPaused {
			return models.ErrProgramPaused
		}

		policy, err := tx.GetPolicy(ctx, owner, policyID)
		if err != nil {
			return err
		}
		if policy.Status != models.PolicyInactive {
			return models.ErrAlreadyActive
		}
		if amount < policy.PremiumAmount {
			return models.ErrInsufficientPremium
		}

		if err := tx.EnsureAccount(ctx, owner); err != nil {
			return err
		}

		funding, pool, err := lockAccountPair(ctx, tx, owner, models.RiskPoolAccountID)
		if err != nil {
			return err
		}

		fundingBalance, ok := utils.CheckedSub(funding.Balance, amount)
		if !ok {
			return models.ErrInsufficientFunds
		}
		poolBalance, ok := utils.CheckedAdd(pool.Balance, amount)
		if !ok {
			return models.ErrArithmeticOverflow
		}
		totalPremiums, ok := utils.CheckedAdd(registry.TotalPremiumsCollected, amount)
		if !ok {
			return models.ErrArithmeticOverflow
		}

		moved, err := tx.TransitionPolicyStatus(ctx, owner, policyID, models.PolicyInactive, models.PolicyActive)
		if err != nil {
			return err
		}
		if !moved {
			return models.ErrAlreadyActive
		}

		if err := tx.SetAccountBalance(ctx, funding.ID, fundingBalance); err != nil {
			return err
		}
		if err := tx.SetAccountBalance(ctx, pool.ID, poolBalance); err != nil {
			return err
		}

		registry.TotalPremiumsCollected = totalPremiums
		return tx.UpdateRegistryCounters(ctx, registry)
	})
	if err != nil {
		return err
	}

	slog.Info("Premium deposited", "owner", owner, "policy_id", policyID, "amount", amount)

	if s.publisher != nil {
		if err := s.publisher.PublishPolicyEvent(ctx, "policy.activated", map[string]any{
			"owner":     owner,
			"policy_id": policyID,
			"amount":    amount,
		}); err != nil {
			slog.Warn("Failed to publish activation event", "error", err)
		}
	}

	return nil
}

func (s *PolicyService) GetPolicy(ctx context.Context, owner string, policyID uint64) (*models.ClimatePolicy, error) {
	return s.store.GetPolicy(ctx, owner, policyID)
}

func (s *PolicyService) ListPolicies(ctx context.Context, owner string) ([]models.ClimatePolicy, error) {
	return s.store.ListPoliciesByOwner(ctx, owner)
}

// ExpireDuePolicies moves Active policies past their end timestamp to
// Expired. Run by the worker sweep; it does nothing while the program is
// paused, and each policy transitions in its own conditional update so a
// concurrent evaluation can still win.
func (s *PolicyService) ExpireDuePolicies(ctx context.Context, now time.Time) (int, error) {
	registry, err := s.store.GetRegistry(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNotInitialized) {
			return 0, nil
		}
		return 0, err
	}
	if registry.IsPaused {
		slog.Debug("Skipping expiration sweep while paused")
		return 0, nil
	}

	due, err := s.store.ListActivePastEnd(ctx, now.Unix())
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, policy := range due {
		moved, err := s.store.TransitionPolicyStatus(ctx, policy.Owner, policy.PolicyID, models.PolicyActive, models.PolicyExpired)
		if err != nil {
			slog.Warn("Failed to expire policy", "owner", policy.Owner, "policy_id", policy.PolicyID, "error", err)
			continue
		}
		if moved {
			expired++
		}
	}

	if expired > 0 {
		slog.Info("Expired due policies", "count", expired)
	}
	return expired, nil
}

// lockAccountPair locks two accounts in a deterministic order to stay
// deadlock-free, returning them in argument order.
func lockAccountPair(ctx context.Context, tx repository.Store, a, b string) (*models.Account, *models.Account, error) {
	ids := []string{a, b}
	sort.Strings(ids)

	locked := make(map[string]*models.Account, 2)
	for _, id := range ids {
		account, err := tx.GetAccountLocked(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		locked[id] = account
	}

	return locked[a], locked[b], nil
}
