package services

import (
	"context"
	"log/slog"

	"insurance-service/internal/models"
	"insurance-service/internal/repository"
	"insurance-service/internal/utils"
)

// PayoutService moves funds from the risk pool to the beneficiary exactly
// once per triggered policy. The status-conditioned update is the
// serialization point: of two concurrent calls only one observes Triggered
// and wins, the other fails with AlreadyPaidOut.
type PayoutService struct {
	store     repository.Store
	publisher EventPublisher
}

func NewPayoutService(store repository.Store, publisher EventPublisher) *PayoutService {
	return &PayoutService{store: store, publisher: publisher}
}

func (s *PayoutService) ExecutePayout(ctx context.Context, executor, owner string, policyID uint64, amount uint64) error {
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		registry, err := tx.GetRegistryLocked(ctx)
		if err != nil {
			return err
		}
		if registry.IsPaused {
			return models.ErrProgramPaused
		}
		if registry.Authority != executor {
			return models.ErrUnauthorized
		}

		policy, err := tx.GetPolicy(ctx, owner, policyID)
		if err != nil {
			return err
		}
		switch policy.Status {
		case models.PolicyTriggered:
		case models.PolicyPaidOut:
			return models.ErrAlreadyPaidOut
		default:
			return models.ErrNotTriggered
		}

		if amount == 0 || amount > policy.CoverageAmount {
			return models.ErrInvalidPayoutAmount
		}

		if err := tx.EnsureAccount(ctx, owner); err != nil {
			return err
		}

		beneficiary, pool, err := lockAccountPair(ctx, tx, owner, models.RiskPoolAccountID)
		if err != nil {
			return err
		}

		if pool.Balance < amount {
			return models.ErrInsufficientPoolBalance
		}

		poolBalance, ok := utils.CheckedSub(pool.Balance, amount)
		if !ok {
			return models.ErrInsufficientPoolBalance
		}
		beneficiaryBalance, ok := utils.CheckedAdd(beneficiary.Balance, amount)
		if !ok {
			return models.ErrArithmeticOverflow
		}
		totalPayouts, ok := utils.CheckedAdd(registry.TotalPayouts, amount)
		if !ok {
			return models.ErrArithmeticOverflow
		}

		moved, err := tx.TransitionPolicyStatus(ctx, owner, policyID, models.PolicyTriggered, models.PolicyPaidOut)
		if err != nil {
			return err
		}
		if !moved {
			return models.ErrAlreadyPaidOut
		}

		if err := tx.SetAccountBalance(ctx, pool.ID, poolBalance); err != nil {
			return err
		}
		if err := tx.SetAccountBalance(ctx, beneficiary.ID, beneficiaryBalance); err != nil {
			return err
		}

		registry.TotalPayouts = totalPayouts
		return tx.UpdateRegistryCounters(ctx, registry)
	})
	if err != nil {
		return err
	}

	slog.Info("Payout executed", "owner", owner, "policy_id", policyID, "amount", amount)

	if s.publisher != nil {
		if err := s.publisher.PublishPolicyEvent(ctx, "payout.executed", map[string]any{
			"owner":     owner,
			"policy_id": policyID,
			"amount":    amount,
		}); err != nil {
			slog.Warn("Failed to publish payout event", "error", err)
		}
	}

	return nil
}
