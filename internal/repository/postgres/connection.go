package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"conduit/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds environment-prefixed table names
type TableNames struct {
	Chats       string
	Messages    string
	Documents   string
	Suggestions string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Chats:       fmt.Sprintf("%schats", prefix),
		Messages:    fmt.Sprintf("%smessages", prefix),
		Documents:   fmt.Sprintf("%sdocuments", prefix),
		Suggestions: fmt.Sprintf("%ssuggestions", prefix),
	}
}

// CreateConnectionPool creates a new pgx connection pool and verifies the
// connection. Dynamic table prefixes are interpolated into SQL before it is
// sent, so each environment gets its own prepared statements.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the appropriate query executor for the context.
// If a transaction is present in the context it is used, otherwise the pool.
// This lets repositories automatically participate in transactions.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
