package chat

import (
	"context"
	"fmt"
	"log/slog"

	"conduit/internal/domain"
	"conduit/internal/domain/models"
	"conduit/internal/domain/repositories"
)

// History pagination bounds.
const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

// OwnerAuthorizer checks that a chat exists and is owned by a principal.
type OwnerAuthorizer interface {
	AuthorizeOwner(ctx context.Context, userID, chatID string) error
}

// Service implements the non-streaming chat operations: history listing,
// chat deletion, and suggestion retrieval.
type Service struct {
	chats       repositories.ChatRepository
	documents   repositories.DocumentRepository
	suggestions repositories.SuggestionRepository
	authorizer  OwnerAuthorizer
	txManager   repositories.TransactionManager
	logger      *slog.Logger
}

// NewService creates a chat service.
func NewService(
	chats repositories.ChatRepository,
	documents repositories.DocumentRepository,
	suggestions repositories.SuggestionRepository,
	authorizer OwnerAuthorizer,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) *Service {
	return &Service{
		chats:       chats,
		documents:   documents,
		suggestions: suggestions,
		authorizer:  authorizer,
		txManager:   txManager,
		logger:      logger,
	}
}

// ListChats returns one page of the user's chats, newest first. Supplying
// both cursors is a validation error and is rejected before any read.
// Limit is clamped to [1, MaxHistoryLimit]; zero means the default.
func (s *Service) ListChats(ctx context.Context, userID string, limit int, cursor repositories.ChatCursor) (*repositories.ChatPage, error) {
	if cursor.StartingAfter != "" && cursor.EndingBefore != "" {
		return nil, fmt.Errorf("%w: only one of starting_after or ending_before can be provided", domain.ErrValidation)
	}

	if limit == 0 {
		limit = DefaultHistoryLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	page, err := s.chats.ListChatsByUser(ctx, userID, limit, cursor)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return page, nil
}

// DeleteChat removes a chat and its messages. Only the owner may delete;
// a missing chat is ErrNotFound, a foreign chat is ErrForbidden.
func (s *Service) DeleteChat(ctx context.Context, userID, chatID string) (*models.Chat, error) {
	if err := s.authorizer.AuthorizeOwner(ctx, userID, chatID); err != nil {
		return nil, err
	}

	// Messages and the chat row go together or not at all.
	var deleted *models.Chat
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var txErr error
		deleted, txErr = s.chats.DeleteChat(txCtx, chatID)
		return txErr
	})
	if err != nil {
		return nil, fmt.Errorf("delete chat: %w", err)
	}

	s.logger.Info("chat deleted", "chat_id", chatID, "user_id", userID)
	return deleted, nil
}

// ListDocumentVersions returns all versions of a caller-owned document,
// oldest first.
func (s *Service) ListDocumentVersions(ctx context.Context, userID, documentID string) ([]models.Document, error) {
	latest, err := s.documents.GetLatestDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if latest.UserID != userID {
		return nil, fmt.Errorf("access denied to document %s: %w", documentID, domain.ErrUnauthorized)
	}

	versions, err := s.documents.ListDocumentVersions(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list document versions: %w", err)
	}
	return versions, nil
}

// ListSuggestions returns the suggestions recorded for a document. A
// document with no suggestions yields an empty list, whether or not the
// document exists; ownership is checked against the suggestion rows.
func (s *Service) ListSuggestions(ctx context.Context, userID, documentID string) ([]models.Suggestion, error) {
	rows, err := s.suggestions.ListSuggestionsByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	if len(rows) == 0 {
		return []models.Suggestion{}, nil
	}
	if rows[0].UserID != userID {
		return nil, fmt.Errorf("access denied to document %s: %w", documentID, domain.ErrUnauthorized)
	}
	return rows, nil
}
