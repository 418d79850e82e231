package main

import (
	"context"
	"flag"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"conduit/internal/config"
	"conduit/internal/repository/postgres"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before creating the schema (fresh start)")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run --drop-tables in production environment")
	}

	log.Printf("Setting up schema (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("Tables dropped")
	}

	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("Schema ready")
}

func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	drops := []string{
		`DROP TABLE IF EXISTS ` + tables.Suggestions + ` CASCADE`,
		`DROP TABLE IF EXISTS ` + tables.Documents + ` CASCADE`,
		`DROP TABLE IF EXISTS ` + tables.Messages + ` CASCADE`,
		`DROP TABLE IF EXISTS ` + tables.Chats + ` CASCADE`,
	}
	for _, stmt := range drops {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	createChats := `
		CREATE TABLE IF NOT EXISTS ` + tables.Chats + ` (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			visibility TEXT NOT NULL DEFAULT 'private',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createChats); err != nil {
		return err
	}

	createMessages := `
		CREATE TABLE IF NOT EXISTS ` + tables.Messages + ` (
			id TEXT PRIMARY KEY,
			chat_id TEXT NOT NULL REFERENCES ` + tables.Chats + `(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			parts JSONB NOT NULL,
			attachments JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			seq BIGSERIAL
		)
	`
	if _, err := pool.Exec(ctx, createMessages); err != nil {
		return err
	}

	// Documents are versioned: identity is the (id, created_at) pair.
	createDocuments := `
		CREATE TABLE IF NOT EXISTS ` + tables.Documents + ` (
			id TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			kind TEXT NOT NULL DEFAULT 'text',
			user_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (id, created_at)
		)
	`
	if _, err := pool.Exec(ctx, createDocuments); err != nil {
		return err
	}

	createSuggestions := `
		CREATE TABLE IF NOT EXISTS ` + tables.Suggestions + ` (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			document_created_at TIMESTAMPTZ NOT NULL,
			original_text TEXT NOT NULL,
			suggested_text TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			is_resolved BOOLEAN NOT NULL DEFAULT FALSE,
			user_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			FOREIGN KEY (document_id, document_created_at)
				REFERENCES ` + tables.Documents + `(id, created_at) ON DELETE CASCADE
		)
	`
	if _, err := pool.Exec(ctx, createSuggestions); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `chats_user_created ON ` + tables.Chats + `(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `messages_chat ON ` + tables.Messages + `(chat_id, created_at, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `documents_user ON ` + tables.Documents + `(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `suggestions_document ON ` + tables.Suggestions + `(document_id, created_at)`,
	}
	for _, stmt := range indexes {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}
