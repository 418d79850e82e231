package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"conduit/internal/domain"
	"conduit/internal/domain/models"
	"conduit/internal/domain/repositories"
)

// PostgresChatRepository implements the ChatRepository interface using PostgreSQL
type PostgresChatRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewChatRepository creates a new PostgresChatRepository
func NewChatRepository(config *RepositoryConfig) repositories.ChatRepository {
	return &PostgresChatRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// CreateChat creates a chat idempotently. ON CONFLICT DO NOTHING guarantees
// at most one row per id even under racing creators; when the insert is a
// no-op the existing row is read back and returned unchanged.
func (r *PostgresChatRepository) CreateChat(ctx context.Context, chat *models.Chat) (*models.Chat, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, title, visibility, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, r.tables.Chats)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		chat.ID,
		chat.UserID,
		chat.Title,
		chat.Visibility,
		chat.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Lost the race or the chat already existed - return the winner's row
		return r.GetChat(ctx, chat.ID)
	}

	return chat, nil
}

// GetChat retrieves a chat by ID regardless of owner
func (r *PostgresChatRepository) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, title, visibility, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.Chats)

	var chat models.Chat
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, chatID).Scan(
		&chat.ID,
		&chat.UserID,
		&chat.Title,
		&chat.Visibility,
		&chat.CreatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("chat %s: %w", chatID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get chat: %w", err)
	}

	return &chat, nil
}

// ListChatsByUser returns one page of the user's chats, most recent first.
// The cursor chat's created_at positions the page; a cursor id that matches
// no chat is ErrNotFound. limit+1 rows are fetched to compute hasMore
// without a second query.
func (r *PostgresChatRepository) ListChatsByUser(ctx context.Context, userID string, limit int, cursor repositories.ChatCursor) (*repositories.ChatPage, error) {
	executor := GetExecutor(ctx, r.pool)

	cursorID := cursor.StartingAfter
	if cursorID == "" {
		cursorID = cursor.EndingBefore
	}

	var pivot time.Time
	if cursorID != "" {
		pivotQuery := fmt.Sprintf(`SELECT created_at FROM %s WHERE id = $1`, r.tables.Chats)
		if err := executor.QueryRow(ctx, pivotQuery, cursorID).Scan(&pivot); err != nil {
			if IsPgNoRowsError(err) {
				return nil, fmt.Errorf("cursor chat %s: %w", cursorID, domain.ErrNotFound)
			}
			return nil, fmt.Errorf("resolve cursor: %w", err)
		}
	}

	baseQuery := fmt.Sprintf(`
		SELECT id, user_id, title, visibility, created_at
		FROM %s
		WHERE user_id = $1
	`, r.tables.Chats)

	var query string
	args := []any{userID, limit + 1}

	switch {
	case cursor.StartingAfter != "":
		query = baseQuery + `
			AND created_at > $3
			ORDER BY created_at DESC
			LIMIT $2
		`
		args = append(args, pivot)
	case cursor.EndingBefore != "":
		query = baseQuery + `
			AND created_at < $3
			ORDER BY created_at DESC
			LIMIT $2
		`
		args = append(args, pivot)
	default:
		query = baseQuery + `
			ORDER BY created_at DESC
			LIMIT $2
		`
	}

	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var chats []models.Chat
	for rows.Next() {
		var chat models.Chat
		err := rows.Scan(
			&chat.ID,
			&chat.UserID,
			&chat.Title,
			&chat.Visibility,
			&chat.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, chat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}

	hasMore := len(chats) > limit
	if hasMore {
		chats = chats[:limit]
	}

	// Return empty slice instead of nil
	if chats == nil {
		chats = []models.Chat{}
	}

	return &repositories.ChatPage{Chats: chats, HasMore: hasMore}, nil
}

// DeleteChat removes the chat and its messages and returns the deleted chat.
// Callers run this inside a transaction via TransactionManager.
func (r *PostgresChatRepository) DeleteChat(ctx context.Context, chatID string) (*models.Chat, error) {
	executor := GetExecutor(ctx, r.pool)

	messagesQuery := fmt.Sprintf(`DELETE FROM %s WHERE chat_id = $1`, r.tables.Messages)
	if _, err := executor.Exec(ctx, messagesQuery, chatID); err != nil {
		return nil, fmt.Errorf("delete chat messages: %w", err)
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1
		RETURNING id, user_id, title, visibility, created_at
	`, r.tables.Chats)

	var chat models.Chat
	err := executor.QueryRow(ctx, query, chatID).Scan(
		&chat.ID,
		&chat.UserID,
		&chat.Title,
		&chat.Visibility,
		&chat.CreatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("chat %s: %w", chatID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("delete chat: %w", err)
	}

	return &chat, nil
}
