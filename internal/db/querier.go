package db

import (
	"context"
	"database/sql"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx. Stores
// are written against it so a correction can run its writes in one
// transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxRunner executes fn inside a transaction scope. The production runner
// commits on nil error and rolls back otherwise; tests substitute a
// pass-through.
type TxRunner func(ctx context.Context, fn func(q Querier) error) error

// NewTxRunner returns a TxRunner backed by sdb.
func NewTxRunner(sdb *sql.DB) TxRunner {
	return func(ctx context.Context, fn func(q Querier) error) error {
		tx, err := sdb.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	}
}
