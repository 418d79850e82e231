package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"conduit/internal/config"
	"conduit/internal/domain"
	"conduit/internal/domain/models"
	"conduit/internal/domain/repositories"
	authSvc "conduit/internal/service/auth"
)

type stubChatRepo struct {
	chats map[string]*models.Chat
}

func (m *stubChatRepo) CreateChat(ctx context.Context, chat *models.Chat) (*models.Chat, error) {
	if existing, ok := m.chats[chat.ID]; ok {
		return existing, nil
	}
	m.chats[chat.ID] = chat
	return chat, nil
}

func (m *stubChatRepo) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	chat, ok := m.chats[chatID]
	if !ok {
		return nil, fmt.Errorf("chat %s: %w", chatID, domain.ErrNotFound)
	}
	return chat, nil
}

func (m *stubChatRepo) ListChatsByUser(ctx context.Context, userID string, limit int, cursor repositories.ChatCursor) (*repositories.ChatPage, error) {
	return &repositories.ChatPage{Chats: []models.Chat{}}, nil
}

func (m *stubChatRepo) DeleteChat(ctx context.Context, chatID string) (*models.Chat, error) {
	chat, err := m.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	delete(m.chats, chatID)
	return chat, nil
}

type stubDocumentRepo struct{}

func (stubDocumentRepo) SaveDocument(ctx context.Context, doc *models.Document) error { return nil }
func (stubDocumentRepo) GetLatestDocument(ctx context.Context, documentID string) (*models.Document, error) {
	return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
}
func (stubDocumentRepo) ListDocumentVersions(ctx context.Context, documentID string) ([]models.Document, error) {
	return nil, nil
}

type stubSuggestionRepo struct{}

func (stubSuggestionRepo) SaveSuggestions(ctx context.Context, suggestions []models.Suggestion) error {
	return nil
}
func (stubSuggestionRepo) ListSuggestionsByDocument(ctx context.Context, documentID string) ([]models.Suggestion, error) {
	return []models.Suggestion{}, nil
}

// blockingBackend streams text forever until the context dies.
type blockingBackend struct{}

func (blockingBackend) StreamChat(ctx context.Context, req *CompletionRequest) (<-chan BackendEvent, error) {
	events := make(chan BackendEvent)
	go func() {
		defer close(events)
		for {
			select {
			case events <- BackendEvent{TextDelta: "tick "}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

func (blockingBackend) GenerateText(ctx context.Context, model, system, prompt string) (string, error) {
	return "Title", nil
}

func newTestTurnService(t *testing.T, backend Backend, messages *mockMessageRepo) (*TurnService, *stubChatRepo) {
	t.Helper()

	cfg := &config.Config{
		DefaultPoolBaseURL: "https://pool.example.com/v1",
		DefaultPoolAPIKey:  "key",
		TitleModel:         "title-model",
	}
	registry, err := NewRegistry(cfg)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	logger := testLogger()
	chats := &stubChatRepo{chats: map[string]*models.Chat{}}
	backends := &staticFactory{backend}
	svc := NewTurnService(
		registry,
		backends,
		NewInvoker(backends, logger),
		authSvc.NewOwnerBasedAuthorizer(chats),
		chats,
		messages,
		stubDocumentRepo{},
		stubSuggestionRepo{},
		NewTitleDeriver(registry, backends, cfg.TitleModel, logger),
		NewTurnPersister(messages, logger),
		logger,
	)
	return svc, chats
}

func validTurnRequest() *TurnRequest {
	return &TurnRequest{
		UserID:  "user-1",
		ChatID:  "chat-1",
		ModelID: "chat-model",
		Message: &models.Message{
			ID:    "m1",
			Role:  models.RoleUser,
			Parts: []models.MessagePart{{Type: models.PartText, Text: "hi"}},
		},
	}
}

func TestBeginTurn_ValidationFailures(t *testing.T) {
	svc, _ := newTestTurnService(t, &titleBackend{out: "Title"}, &mockMessageRepo{})

	tests := []struct {
		name   string
		mutate func(*TurnRequest)
	}{
		{"missing chat id", func(r *TurnRequest) { r.ChatID = "" }},
		{"missing model id", func(r *TurnRequest) { r.ModelID = "" }},
		{"missing message", func(r *TurnRequest) { r.Message = nil }},
		{"message without parts", func(r *TurnRequest) { r.Message.Parts = nil }},
		{"assistant role message", func(r *TurnRequest) { r.Message.Role = models.RoleAssistant }},
		{"bad visibility", func(r *TurnRequest) { r.Visibility = "secret" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validTurnRequest()
			tt.mutate(req)
			_, err := svc.BeginTurn(context.Background(), req)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("error %v is not ErrValidation", err)
			}
		})
	}
}

func TestBeginTurn_PicksMostRecentUserMessageFromArray(t *testing.T) {
	messages := &mockMessageRepo{}
	svc, _ := newTestTurnService(t, &titleBackend{out: "Title"}, messages)

	req := validTurnRequest()
	req.Message = nil
	req.Messages = []models.Message{
		{ID: "m1", Role: models.RoleUser, Parts: []models.MessagePart{{Type: models.PartText, Text: "first"}}},
		{ID: "m2", Role: models.RoleAssistant, Parts: []models.MessagePart{{Type: models.PartText, Text: "reply"}}},
		{ID: "m3", Role: models.RoleUser, Parts: []models.MessagePart{{Type: models.PartText, Text: "second"}}},
	}

	if _, err := svc.BeginTurn(context.Background(), req); err != nil {
		t.Fatalf("BeginTurn failed: %v", err)
	}
	if len(messages.created) != 1 {
		t.Fatalf("created %d messages, want 1", len(messages.created))
	}
	if got := messages.created[0].ID; got != "m3" {
		t.Errorf("persisted message id = %q, want the most recent user entry", got)
	}
}

func TestBeginTurn_MessagesWithoutUserEntryRejected(t *testing.T) {
	messages := &mockMessageRepo{}
	svc, _ := newTestTurnService(t, &titleBackend{out: "Title"}, messages)

	req := validTurnRequest()
	req.Message = nil
	req.Messages = []models.Message{
		{ID: "m1", Role: models.RoleAssistant, Parts: []models.MessagePart{{Type: models.PartText, Text: "reply"}}},
	}

	_, err := svc.BeginTurn(context.Background(), req)
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("error %v is not ErrValidation", err)
	}
	if len(messages.created) != 0 {
		t.Errorf("created %d messages, want 0", len(messages.created))
	}
}

func TestBeginTurn_CreatesChatWithDerivedTitle(t *testing.T) {
	svc, chats := newTestTurnService(t, &titleBackend{out: "A Greeting"}, &mockMessageRepo{})

	if _, err := svc.BeginTurn(context.Background(), validTurnRequest()); err != nil {
		t.Fatalf("BeginTurn failed: %v", err)
	}

	chat, ok := chats.chats["chat-1"]
	if !ok {
		t.Fatal("chat not created")
	}
	if chat.Title != "A Greeting" {
		t.Errorf("title = %q", chat.Title)
	}
	if chat.UserID != "user-1" {
		t.Errorf("owner = %q", chat.UserID)
	}
}

func TestBeginTurn_SecondTurnSkipsTitleDerivation(t *testing.T) {
	backend := &titleBackend{out: "Title"}
	svc, chats := newTestTurnService(t, backend, &mockMessageRepo{})
	chats.chats["chat-1"] = &models.Chat{ID: "chat-1", UserID: "user-1", Title: "Existing"}

	if _, err := svc.BeginTurn(context.Background(), validTurnRequest()); err != nil {
		t.Fatalf("BeginTurn failed: %v", err)
	}
	if backend.calls != 0 {
		t.Errorf("title model called %d times for existing chat", backend.calls)
	}
	if chats.chats["chat-1"].Title != "Existing" {
		t.Error("existing title overwritten")
	}
}

func TestBeginTurn_RacingCreatorLosesWithForbidden(t *testing.T) {
	svc, chats := newTestTurnService(t, &titleBackend{out: "Title"}, &mockMessageRepo{})
	// Another principal's row is already in place; the idempotent create
	// will return it unchanged.
	chats.chats["chat-1"] = &models.Chat{ID: "chat-1", UserID: "someone-else"}

	_, err := svc.BeginTurn(context.Background(), validTurnRequest())
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("error %v is not ErrForbidden", err)
	}
}

func TestBeginTurn_UnresolvableModelSurfacesConfigurationError(t *testing.T) {
	svc, _ := newTestTurnService(t, &titleBackend{out: "Title"}, &mockMessageRepo{})

	req := validTurnRequest()
	req.ModelID = "custom-llama2" // no custom endpoint configured
	_, err := svc.BeginTurn(context.Background(), req)
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("error %v is not ErrConfiguration", err)
	}
}

func TestRun_ClientDisconnectSkipsPersist(t *testing.T) {
	messages := &mockMessageRepo{}
	svc, _ := newTestTurnService(t, blockingBackend{}, messages)

	turn, err := svc.BeginTurn(context.Background(), validTurnRequest())
	if err != nil {
		t.Fatalf("BeginTurn failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	deltas := 0
	emit := func(ev Event) {
		if ev.Type == EventTextDelta {
			deltas++
			if deltas == 3 {
				// Simulates the client going away mid-stream.
				cancel()
			}
		}
	}

	_ = turn.Run(ctx, emit)

	for _, msg := range messages.created {
		if msg.Role == models.RoleAssistant {
			t.Error("assistant message persisted after client disconnect")
		}
	}
}
