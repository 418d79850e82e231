package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"conduit/internal/domain"
	"conduit/internal/domain/models"
	"conduit/internal/domain/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockChatRepo records list calls and serves a fixed chat set.
type mockChatRepo struct {
	chats      map[string]*models.Chat
	listCalls  int
	lastLimit  int
	lastCursor repositories.ChatCursor
}

func (m *mockChatRepo) CreateChat(ctx context.Context, chat *models.Chat) (*models.Chat, error) {
	return chat, nil
}

func (m *mockChatRepo) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	chat, ok := m.chats[chatID]
	if !ok {
		return nil, fmt.Errorf("chat %s: %w", chatID, domain.ErrNotFound)
	}
	return chat, nil
}

func (m *mockChatRepo) ListChatsByUser(ctx context.Context, userID string, limit int, cursor repositories.ChatCursor) (*repositories.ChatPage, error) {
	m.listCalls++
	m.lastLimit = limit
	m.lastCursor = cursor
	return &repositories.ChatPage{Chats: []models.Chat{}}, nil
}

func (m *mockChatRepo) DeleteChat(ctx context.Context, chatID string) (*models.Chat, error) {
	chat, err := m.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	delete(m.chats, chatID)
	return chat, nil
}

type mockDocumentRepo struct {
	docs map[string]*models.Document
}

func (m *mockDocumentRepo) SaveDocument(ctx context.Context, doc *models.Document) error {
	m.docs[doc.ID] = doc
	return nil
}

func (m *mockDocumentRepo) GetLatestDocument(ctx context.Context, documentID string) (*models.Document, error) {
	doc, ok := m.docs[documentID]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	}
	return doc, nil
}

func (m *mockDocumentRepo) ListDocumentVersions(ctx context.Context, documentID string) ([]models.Document, error) {
	return nil, nil
}

type mockSuggestionRepo struct {
	rows      []models.Suggestion
	listCalls int
}

func (m *mockSuggestionRepo) SaveSuggestions(ctx context.Context, suggestions []models.Suggestion) error {
	m.rows = append(m.rows, suggestions...)
	return nil
}

func (m *mockSuggestionRepo) ListSuggestionsByDocument(ctx context.Context, documentID string) ([]models.Suggestion, error) {
	m.listCalls++
	var out []models.Suggestion
	for _, row := range m.rows {
		if row.DocumentID == documentID {
			out = append(out, row)
		}
	}
	if out == nil {
		out = []models.Suggestion{}
	}
	return out, nil
}

// passthroughTx runs the function without a real transaction.
type passthroughTx struct{}

func (passthroughTx) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

// ownerAuthorizer is a minimal in-memory ownership check.
type ownerAuthorizer struct {
	chats *mockChatRepo
}

func (a *ownerAuthorizer) AuthorizeOwner(ctx context.Context, userID, chatID string) error {
	chat, err := a.chats.GetChat(ctx, chatID)
	if err != nil {
		return err
	}
	if chat.UserID != userID {
		return fmt.Errorf("access denied: %w", domain.ErrForbidden)
	}
	return nil
}

func newTestService() (*Service, *mockChatRepo, *mockDocumentRepo, *mockSuggestionRepo) {
	chats := &mockChatRepo{chats: map[string]*models.Chat{}}
	docs := &mockDocumentRepo{docs: map[string]*models.Document{}}
	suggs := &mockSuggestionRepo{}
	svc := NewService(chats, docs, suggs, &ownerAuthorizer{chats}, passthroughTx{}, testLogger())
	return svc, chats, docs, suggs
}

func TestListChats_BothCursorsRejectedBeforeRead(t *testing.T) {
	svc, chats, _, _ := newTestService()

	_, err := svc.ListChats(context.Background(), "user-1", 10, repositories.ChatCursor{
		StartingAfter: "a",
		EndingBefore:  "b",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("error %v is not ErrValidation", err)
	}
	if chats.listCalls != 0 {
		t.Errorf("repository read %d times despite invalid cursors", chats.listCalls)
	}
}

func TestListChats_LimitHandling(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"default", 0, DefaultHistoryLimit},
		{"clamped low", -5, 1},
		{"clamped high", 5000, MaxHistoryLimit},
		{"passed through", 25, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, chats, _, _ := newTestService()
			_, err := svc.ListChats(context.Background(), "user-1", tt.limit, repositories.ChatCursor{})
			if err != nil {
				t.Fatalf("ListChats failed: %v", err)
			}
			if chats.lastLimit != tt.want {
				t.Errorf("limit = %d, want %d", chats.lastLimit, tt.want)
			}
		})
	}
}

func TestDeleteChat_OwnerOnly(t *testing.T) {
	svc, chats, _, _ := newTestService()
	chats.chats["chat-1"] = &models.Chat{ID: "chat-1", UserID: "user-1", Title: "t"}

	if _, err := svc.DeleteChat(context.Background(), "user-2", "chat-1"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("error %v is not ErrForbidden", err)
	}
	if _, ok := chats.chats["chat-1"]; !ok {
		t.Error("chat deleted despite forbidden caller")
	}

	deleted, err := svc.DeleteChat(context.Background(), "user-1", "chat-1")
	if err != nil {
		t.Fatalf("DeleteChat failed: %v", err)
	}
	if deleted.ID != "chat-1" {
		t.Errorf("deleted id = %s", deleted.ID)
	}
	if _, ok := chats.chats["chat-1"]; ok {
		t.Error("chat still present after delete")
	}
}

func TestDeleteChat_MissingChat(t *testing.T) {
	svc, _, _, _ := newTestService()

	if _, err := svc.DeleteChat(context.Background(), "user-1", "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error %v is not ErrNotFound", err)
	}
}

func TestListSuggestions_OwnershipFromRows(t *testing.T) {
	svc, _, _, suggs := newTestService()
	suggs.rows = []models.Suggestion{{ID: "s-1", DocumentID: "doc-1", UserID: "user-1"}}

	if _, err := svc.ListSuggestions(context.Background(), "user-2", "doc-1"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("error %v is not ErrUnauthorized", err)
	}

	rows, err := svc.ListSuggestions(context.Background(), "user-1", "doc-1")
	if err != nil {
		t.Fatalf("ListSuggestions failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "s-1" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestListSuggestions_EmptyIsNotAnError(t *testing.T) {
	svc, _, _, _ := newTestService()

	// No document and no suggestions stored under this id at all.
	rows, err := svc.ListSuggestions(context.Background(), "user-1", "never-created")
	if err != nil {
		t.Fatalf("ListSuggestions failed: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("rows = %#v, want empty non-nil slice", rows)
	}
}
