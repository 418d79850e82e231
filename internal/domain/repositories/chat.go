package repositories

import (
	"context"

	"conduit/internal/domain/models"
)

// ChatPage is one page of a user's chats, most recent first.
type ChatPage struct {
	Chats   []models.Chat `json:"chats"`
	HasMore bool          `json:"hasMore"`
}

// ChatCursor selects the pagination direction for ListChatsByUser.
// At most one of StartingAfter/EndingBefore may be set.
type ChatCursor struct {
	StartingAfter string
	EndingBefore  string
}

// ChatRepository is the persistence boundary for chats.
type ChatRepository interface {
	// CreateChat creates the chat if no row with that id exists yet.
	// Creation is idempotent: on conflict the existing row is returned
	// unchanged, so two racing creators can never produce two chats with
	// the same id. The returned chat is the row now in the database.
	CreateChat(ctx context.Context, chat *models.Chat) (*models.Chat, error)

	// GetChat retrieves a chat by id regardless of owner.
	// Returns ErrNotFound if no such chat exists.
	GetChat(ctx context.Context, chatID string) (*models.Chat, error)

	// ListChatsByUser returns up to limit chats owned by userID ordered by
	// CreatedAt descending, positioned relative to the cursor.
	ListChatsByUser(ctx context.Context, userID string, limit int, cursor ChatCursor) (*ChatPage, error)

	// DeleteChat removes the chat and its messages. Returns the deleted chat.
	DeleteChat(ctx context.Context, chatID string) (*models.Chat, error)
}

// MessageRepository is the persistence boundary for messages.
// Messages are append-only.
type MessageRepository interface {
	// CreateMessage appends one message to its chat.
	CreateMessage(ctx context.Context, msg *models.Message) error

	// ListMessagesByChat returns the chat's messages ordered by CreatedAt
	// then insertion sequence.
	ListMessagesByChat(ctx context.Context, chatID string) ([]models.Message, error)
}

// DocumentRepository is the persistence boundary for document versions.
type DocumentRepository interface {
	// SaveDocument appends a new document version.
	SaveDocument(ctx context.Context, doc *models.Document) error

	// GetLatestDocument returns the most recent version of a document.
	GetLatestDocument(ctx context.Context, documentID string) (*models.Document, error)

	// ListDocumentVersions returns all versions of a document, oldest first.
	ListDocumentVersions(ctx context.Context, documentID string) ([]models.Document, error)
}

// SuggestionRepository is the persistence boundary for document suggestions.
type SuggestionRepository interface {
	SaveSuggestions(ctx context.Context, suggestions []models.Suggestion) error

	// ListSuggestionsByDocument returns all suggestions for a document id,
	// oldest first. An empty result is not an error.
	ListSuggestionsByDocument(ctx context.Context, documentID string) ([]models.Suggestion, error)
}
