package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"conduit/internal/domain"
	"conduit/internal/domain/models"
	"conduit/internal/domain/repositories"
	authSvc "conduit/internal/service/auth"
	"conduit/internal/service/llm/tools"
)

// turnTimeout bounds one whole turn including all model calls and tool
// executions.
const turnTimeout = 60 * time.Second

// TurnAuthorizer decides whether a principal may append a turn to a chat.
type TurnAuthorizer interface {
	AuthorizeTurn(ctx context.Context, userID, chatID string) (authSvc.Decision, error)
}

// TurnRequest is one POST /chat payload plus the authenticated principal.
// Clients send the conversation as a Messages array; the most recent
// user-authored entry becomes the turn's message. Message is accepted as
// a singular alias and wins when both are set.
type TurnRequest struct {
	UserID     string
	ChatID     string
	ModelID    string
	Visibility string
	Messages   []models.Message
	Message    *models.Message
}

// TurnService orchestrates a chat turn: validation, authorization, chat
// creation with a derived title, user message persistence, the model-call
// loop, and the post-stream assistant write.
type TurnService struct {
	registry   *Registry
	backends   BackendFactory
	invoker    *Invoker
	authorizer TurnAuthorizer
	chats      repositories.ChatRepository
	messages   repositories.MessageRepository
	documents  repositories.DocumentRepository
	suggs      repositories.SuggestionRepository
	titles     *TitleDeriver
	persister  *TurnPersister
	logger     *slog.Logger
}

// NewTurnService creates a turn service.
func NewTurnService(
	registry *Registry,
	backends BackendFactory,
	invoker *Invoker,
	authorizer TurnAuthorizer,
	chats repositories.ChatRepository,
	messages repositories.MessageRepository,
	documents repositories.DocumentRepository,
	suggs repositories.SuggestionRepository,
	titles *TitleDeriver,
	persister *TurnPersister,
	logger *slog.Logger,
) *TurnService {
	return &TurnService{
		registry:   registry,
		backends:   backends,
		invoker:    invoker,
		authorizer: authorizer,
		chats:      chats,
		messages:   messages,
		documents:  documents,
		suggs:      suggs,
		titles:     titles,
		persister:  persister,
		logger:     logger,
	}
}

// Turn is a prepared, authorized turn ready to stream. All failures that
// map to an HTTP status happen in BeginTurn; Run only produces stream
// events.
type Turn struct {
	svc        *TurnService
	userID     string
	chatID     string
	descriptor *models.ProviderDescriptor
	history    []models.Message
}

// BeginTurn validates and authorizes the request, creates the chat on first
// contact, persists the user message, and loads the conversation. Every
// error it returns maps to a pre-stream HTTP status.
func (s *TurnService) BeginTurn(ctx context.Context, req *TurnRequest) (*Turn, error) {
	if req.Visibility == "" {
		req.Visibility = models.VisibilityPrivate
	}
	if req.Message == nil && len(req.Messages) > 0 {
		req.Message = latestUserMessage(req.Messages)
		if req.Message == nil {
			return nil, fmt.Errorf("%w: messages contain no user entry", domain.ErrValidation)
		}
	}
	if err := s.validateTurnRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	desc, err := s.registry.Resolve(req.ModelID)
	if err != nil {
		return nil, err
	}

	decision, err := s.authorizer.AuthorizeTurn(ctx, req.UserID, req.ChatID)
	if err != nil {
		return nil, err
	}

	if decision == authSvc.AllowedNew {
		title := s.titles.DeriveTitle(ctx, req.Message)
		chat := &models.Chat{
			ID:         req.ChatID,
			UserID:     req.UserID,
			Title:      title,
			Visibility: req.Visibility,
			CreatedAt:  time.Now().UTC(),
		}
		created, err := s.chats.CreateChat(ctx, chat)
		if err != nil {
			return nil, fmt.Errorf("create chat: %w: %v", domain.ErrPersistence, err)
		}
		// A racing creator may have won with a different owner.
		if created.UserID != req.UserID {
			return nil, fmt.Errorf("access denied to chat %s: %w", req.ChatID, domain.ErrForbidden)
		}
	}

	userMsg := *req.Message
	userMsg.ChatID = req.ChatID
	userMsg.Role = models.RoleUser
	if userMsg.CreatedAt.IsZero() {
		userMsg.CreatedAt = time.Now().UTC()
	}
	if err := s.messages.CreateMessage(ctx, &userMsg); err != nil {
		return nil, fmt.Errorf("persist user message: %w: %v", domain.ErrPersistence, err)
	}

	history, err := s.messages.ListMessagesByChat(ctx, req.ChatID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w: %v", domain.ErrUnavailable, err)
	}

	return &Turn{
		svc:        s,
		userID:     req.UserID,
		chatID:     req.ChatID,
		descriptor: desc,
		history:    history,
	}, nil
}

// Run streams the turn into emit and persists the assistant response after
// the stream has ended. A cancelled context (client disconnect, timeout)
// aborts the turn without persisting.
func (t *Turn) Run(ctx context.Context, emit func(Event)) error {
	ctx, cancel := context.WithTimeout(ctx, turnTimeout)
	defer cancel()

	s := t.svc

	var registry *tools.Registry
	if t.descriptor.ToolCapable {
		backend, err := s.backends.BackendFor(t.descriptor)
		if err != nil {
			emit(Event{Type: EventError, Err: err})
			return fmt.Errorf("obtain backend: %w", err)
		}
		generate := func(ctx context.Context, system, prompt string) (string, error) {
			return backend.GenerateText(ctx, t.descriptor.ResolvedModelName, system, prompt)
		}
		emitData := func(payload interface{}) {
			emit(Event{Type: EventData, Data: payload})
		}
		registry = tools.NewRegistry()
		tools.RegisterTurnTools(registry, t.userID, s.documents, s.suggs, generate, emitData)
	}

	response, err := s.invoker.Invoke(ctx, &InvokeRequest{
		Descriptor: t.descriptor,
		System:     SystemPrompt(t.descriptor.ToolCapable),
		History:    t.history,
		Tools:      registry,
	}, emit)
	if err != nil {
		s.logger.Warn("turn aborted", "chat_id", t.chatID, "error", err)
		return err
	}

	if !response.Finished || ctx.Err() != nil {
		return nil
	}

	if err := s.persister.PersistResponse(ctx, t.chatID, response); err != nil {
		s.logger.Error("failed to persist assistant response", "chat_id", t.chatID, "error", err)
		return err
	}
	return nil
}

// latestUserMessage returns the most recent user-authored entry, or nil
// when the conversation has none.
func latestUserMessage(messages []models.Message) *models.Message {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleUser {
			msg := messages[i]
			return &msg
		}
	}
	return nil
}

func (s *TurnService) validateTurnRequest(req *TurnRequest) error {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.ChatID, validation.Required),
		validation.Field(&req.ModelID, validation.Required),
		validation.Field(&req.Visibility,
			validation.In(models.VisibilityPrivate, models.VisibilityPublic),
		),
		validation.Field(&req.Message, validation.Required),
	); err != nil {
		return err
	}

	msg := req.Message
	if msg.ID == "" {
		return fmt.Errorf("message: id is required")
	}
	if msg.Role != "" && msg.Role != models.RoleUser {
		return fmt.Errorf("message: only user role is accepted")
	}
	if len(msg.Parts) == 0 {
		return fmt.Errorf("message: at least one part is required")
	}
	return nil
}
