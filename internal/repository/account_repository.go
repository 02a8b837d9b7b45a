package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"insurance-service/internal/models"
	"insurance-service/internal/utils"

	"github.com/jmoiron/sqlx"
)

func (s *PostgresStore) EnsureAccount(ctx context.Context, id string) error {
	query := `INSERT INTO accounts (id, balance) VALUES ($1, 0) ON CONFLICT (id) DO NOTHING`

	if _, err := s.q.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to ensure account %s: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	return s.getAccount(ctx, id, false)
}

// GetAccountLocked takes a row lock inside a transaction. Callers lock
// accounts in a deterministic order to stay deadlock-free.
func (s *PostgresStore) GetAccountLocked(ctx context.Context, id string) (*models.Account, error) {
	return s.getAccount(ctx, id, s.inTx())
}

func (s *PostgresStore) getAccount(ctx context.Context, id string, forUpdate bool) (*models.Account, error) {
	query := `SELECT id, balance FROM accounts WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var account models.Account
	err := sqlx.GetContext(ctx, s.q, &account, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", id, err)
	}

	return &account, nil
}

func (s *PostgresStore) SetAccountBalance(ctx context.Context, id string, balance uint64) error {
	query := `UPDATE accounts SET balance = $1 WHERE id = $2`

	if err := utils.ExecExpectRows(ctx, s.q, query, balance, id); err != nil {
		return fmt.Errorf("failed to set balance for account %s: %w", id, err)
	}
	return nil
}
