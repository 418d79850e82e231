package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the common query surface of a pgx pool and a pgx transaction.
// Repositories run against whichever the context carries.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type txKey struct{}

// SetTx stores a transaction in the context so repositories participate in it.
func SetTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// GetTx retrieves the transaction from the context, or nil if none.
func GetTx(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

// TxFn is a function executed within a transaction.
type TxFn func(ctx context.Context) error

// TransactionManager runs a function inside a single database transaction.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
