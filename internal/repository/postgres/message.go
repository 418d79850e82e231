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

// PostgresMessageRepository implements the MessageRepository interface using PostgreSQL
type PostgresMessageRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewMessageRepository creates a new PostgresMessageRepository
func NewMessageRepository(config *RepositoryConfig) repositories.MessageRepository {
	return &PostgresMessageRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// CreateMessage appends one message to its chat. The seq column is a
// bigserial; it breaks created_at ties for ordering.
func (r *PostgresMessageRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, chat_id, role, parts, attachments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq
	`, r.tables.Messages)

	if msg.Attachments == nil {
		msg.Attachments = []models.Attachment{}
	}

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		msg.ID,
		msg.ChatID,
		msg.Role,
		msg.Parts,
		msg.Attachments,
		msg.CreatedAt,
	).Scan(&msg.Seq)

	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("message %s already exists: %w", msg.ID, domain.ErrValidation)
		}
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("chat %s: %w", msg.ChatID, domain.ErrNotFound)
		}
		return fmt.Errorf("create message: %w", err)
	}

	return nil
}

// ListMessagesByChat returns the chat's messages ordered by created_at then
// insertion sequence.
func (r *PostgresMessageRepository) ListMessagesByChat(ctx context.Context, chatID string) ([]models.Message, error) {
	query := fmt.Sprintf(`
		SELECT id, chat_id, role, parts, attachments, created_at, seq
		FROM %s
		WHERE chat_id = $1
		ORDER BY created_at ASC, seq ASC
	`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(
			&msg.ID,
			&msg.ChatID,
			&msg.Role,
			&msg.Parts,
			&msg.Attachments,
			&msg.CreatedAt,
			&msg.Seq,
		)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	if messages == nil {
		messages = []models.Message{}
	}

	return messages, nil
}
