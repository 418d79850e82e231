package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"conduit/internal/domain/models"
	"conduit/internal/domain/repositories"
)

// PostgresSuggestionRepository implements the SuggestionRepository interface using PostgreSQL
type PostgresSuggestionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewSuggestionRepository creates a new PostgresSuggestionRepository
func NewSuggestionRepository(config *RepositoryConfig) repositories.SuggestionRepository {
	return &PostgresSuggestionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// SaveSuggestions persists a batch of suggestions
func (r *PostgresSuggestionRepository) SaveSuggestions(ctx context.Context, suggestions []models.Suggestion) error {
	if len(suggestions) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, document_created_at, original_text,
			suggested_text, description, is_resolved, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.tables.Suggestions)

	executor := GetExecutor(ctx, r.pool)
	for _, s := range suggestions {
		_, err := executor.Exec(ctx, query,
			s.ID,
			s.DocumentID,
			s.DocumentCreatedAt,
			s.OriginalText,
			s.SuggestedText,
			s.Description,
			s.IsResolved,
			s.UserID,
			s.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("save suggestion %s: %w", s.ID, err)
		}
	}

	return nil
}

// ListSuggestionsByDocument returns all suggestions for a document id,
// oldest first. An empty result is not an error.
func (r *PostgresSuggestionRepository) ListSuggestionsByDocument(ctx context.Context, documentID string) ([]models.Suggestion, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, document_created_at, original_text,
			suggested_text, description, is_resolved, user_id, created_at
		FROM %s
		WHERE document_id = $1
		ORDER BY created_at ASC
	`, r.tables.Suggestions)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	defer rows.Close()

	var suggestions []models.Suggestion
	for rows.Next() {
		var s models.Suggestion
		err := rows.Scan(
			&s.ID,
			&s.DocumentID,
			&s.DocumentCreatedAt,
			&s.OriginalText,
			&s.SuggestedText,
			&s.Description,
			&s.IsResolved,
			&s.UserID,
			&s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		suggestions = append(suggestions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suggestions: %w", err)
	}

	if suggestions == nil {
		suggestions = []models.Suggestion{}
	}

	return suggestions, nil
}
