package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"conduit/internal/domain"
	"conduit/internal/domain/models"
	"conduit/internal/domain/repositories"
)

// PostgresDocumentRepository implements the DocumentRepository interface using PostgreSQL
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new PostgresDocumentRepository
func NewDocumentRepository(config *RepositoryConfig) repositories.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// SaveDocument appends a new document version. The primary key is
// (id, created_at), so versions never overwrite each other.
func (r *PostgresDocumentRepository) SaveDocument(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, title, content, kind, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		doc.ID,
		doc.Title,
		doc.Content,
		doc.Kind,
		doc.UserID,
		doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}

	return nil
}

// GetLatestDocument returns the most recent version of a document
func (r *PostgresDocumentRepository) GetLatestDocument(ctx context.Context, documentID string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, title, content, kind, user_id, created_at
		FROM %s
		WHERE id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, r.tables.Documents)

	var doc models.Document
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, documentID).Scan(
		&doc.ID,
		&doc.Title,
		&doc.Content,
		&doc.Kind,
		&doc.UserID,
		&doc.CreatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return &doc, nil
}

// ListDocumentVersions returns all versions of a document, oldest first
func (r *PostgresDocumentRepository) ListDocumentVersions(ctx context.Context, documentID string) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, title, content, kind, user_id, created_at
		FROM %s
		WHERE id = $1
		ORDER BY created_at ASC
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list document versions: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var doc models.Document
		err := rows.Scan(
			&doc.ID,
			&doc.Title,
			&doc.Content,
			&doc.Kind,
			&doc.UserID,
			&doc.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	if docs == nil {
		docs = []models.Document{}
	}

	return docs, nil
}
