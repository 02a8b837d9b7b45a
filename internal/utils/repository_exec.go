package utils

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ExecExpectRows executes a statement and fails when it touched no rows.
// Updates against known-present rows use this to surface silent misses.
func ExecExpectRows(ctx context.Context, q sqlx.ExtContext, query string, args ...any) error {
	touched, err := ExecReportRow(ctx, q, query, args...)
	if err != nil {
		return err
	}
	if !touched {
		return fmt.Errorf("no rows affected")
	}
	return nil
}

// ExecReportRow executes a statement and reports whether it touched a row.
// Status-conditioned updates use this to detect a lost race without a
// second read.
func ExecReportRow(ctx context.Context, q sqlx.ExtContext, query string, args ...any) (bool, error) {
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to execute query: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}
