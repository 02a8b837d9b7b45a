package repository

import (
	"context"
	"fmt"

	"insurance-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// Store is the persistence surface the services operate on. Every mutating
// operation of the insurance core runs inside WithinTx so that a failed
// operation leaves no partial writes.
type Store interface {
	RegistryStore
	PolicyStore
	OracleStore
	AccountStore

	// WithinTx runs fn against a transaction-bound view of the store and
	// commits only if fn returns nil.
	WithinTx(ctx context.Context, fn func(Store) error) error
}

type RegistryStore interface {
	InitializeRegistry(ctx context.Context, authority string) error
	GetRegistry(ctx context.Context) (*models.GlobalRegistry, error)
	// GetRegistryLocked takes a row lock when called inside WithinTx so that
	// counter updates serialize.
	GetRegistryLocked(ctx context.Context) (*models.GlobalRegistry, error)
	SetPaused(ctx context.Context, paused bool) error
	UpdateRegistryCounters(ctx context.Context, registry *models.GlobalRegistry) error
}

type PolicyStore interface {
	CreatePolicy(ctx context.Context, policy *models.ClimatePolicy) error
	GetPolicy(ctx context.Context, owner string, policyID uint64) (*models.ClimatePolicy, error)
	ListPoliciesByOwner(ctx context.Context, owner string) ([]models.ClimatePolicy, error)
	ListActivePastEnd(ctx context.Context, now int64) ([]models.ClimatePolicy, error)
	// TransitionPolicyStatus performs a status-conditioned update and reports
	// whether the transition won. A false return means another operation got
	// there first; callers decide which error that maps to.
	TransitionPolicyStatus(ctx context.Context, owner string, policyID uint64, from, to models.PolicyStatus) (bool, error)
}

type OracleStore interface {
	CreateProvider(ctx context.Context, record *models.OracleProviderRecord) error
	GetProvider(ctx context.Context, provider string) (*models.OracleProviderRecord, error)
	ListProviders(ctx context.Context) ([]models.OracleProviderRecord, error)
	UpdateProviderStats(ctx context.Context, record *models.OracleProviderRecord) error
}

type AccountStore interface {
	EnsureAccount(ctx context.Context, id string) error
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	GetAccountLocked(ctx context.Context, id string) (*models.Account, error)
	SetAccountBalance(ctx context.Context, id string, balance uint64) error
}

// PostgresStore implements Store over sqlx. The same repository methods run
// against the root handle or a transaction via sqlx.ExtContext.
type PostgresStore struct {
	db *sqlx.DB
	q  sqlx.ExtContext
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, q: db}
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	if _, ok := s.q.(*sqlx.Tx); ok {
		// Already transactional; nested operations join the outer tx.
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txStore := &PostgresStore{db: s.db, q: tx}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (after: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// inTx reports whether the store is bound to a transaction.
func (s *PostgresStore) inTx() bool {
	_, ok := s.q.(*sqlx.Tx)
	return ok
}
