package services

import (
	"context"
	"fmt"
	"log/slog"

	"insurance-service/internal/models"
	"insurance-service/internal/repository"
	"insurance-service/internal/utils"
)

// RegistryService owns the deployment-wide registry: init-once, authority
// gated pause flag, aggregate counters.
type RegistryService struct {
	store repository.Store
}

func NewRegistryService(store repository.Store) *RegistryService {
	return &RegistryService{store: store}
}

// Initialize creates the registry and the risk pool account. Fails with
// ErrAlreadyInitialized on a second call.
func (s *RegistryService) Initialize(ctx context.Context, authority string) error {
	if authority == "" {
		return fmt.Errorf("authority is required: %w", models.ErrUnauthorized)
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.InitializeRegistry(ctx, authority); err != nil {
			return err
		}
		return tx.EnsureAccount(ctx, models.RiskPoolAccountID)
	})
	if err != nil {
		return err
	}

	slog.Info("Registry initialized", "authority", authority)
	return nil
}

// Pause sets the global pause flag. Setting the flag to its current value is
// not an error and produces no state change.
func (s *RegistryService) Pause(ctx context.Context, caller string) error {
	return s.setPaused(ctx, caller, true)
}

func (s *RegistryService) Unpause(ctx context.Context, caller string) error {
	return s.setPaused(ctx, caller, false)
}

func (s *RegistryService) setPaused(ctx context.Context, caller string, paused bool) error {
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		registry, err := tx.GetRegistryLocked(ctx)
		if err != nil {
			return err
		}

		if registry.Authority != caller {
			return models.ErrUnauthorized
		}

		if registry.IsPaused == paused {
			return nil
		}

		return tx.SetPaused(ctx, paused)
	})
	if err != nil {
		return err
	}

	slog.Info("Pause flag updated", "paused", paused, "caller", caller)
	return nil
}

// GetRegistry returns the registry for read-only queries; it works while the
// program is paused.
func (s *RegistryService) GetRegistry(ctx context.Context) (*models.GlobalRegistry, error) {
	return s.store.GetRegistry(ctx)
}

// FundAccount credits an owner's funding account. Account provisioning and
// funding are external-ledger concerns; this is the thin wrapper around them.
func (s *RegistryService) FundAccount(ctx context.Context, owner string, amount uint64) error {
	if owner == "" || amount == 0 {
		return fmt.Errorf("owner and amount are required")
	}

	return s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.EnsureAccount(ctx, owner); err != nil {
			return err
		}

		account, err := tx.GetAccountLocked(ctx, owner)
		if err != nil {
			return err
		}

		balance, ok := utils.CheckedAdd(account.Balance, amount)
		if !ok {
			return models.ErrArithmeticOverflow
		}

		return tx.SetAccountBalance(ctx, owner, balance)
	})
}

// GetAccountBalance is a read-only balance query.
func (s *RegistryService) GetAccountBalance(ctx context.Context, id string) (uint64, error) {
	account, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}
