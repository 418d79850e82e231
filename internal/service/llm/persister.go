package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"conduit/internal/domain/models"
	"conduit/internal/domain/repositories"
)

// persistTimeout bounds the post-stream write so a stuck database cannot
// hold the handler open indefinitely.
const persistTimeout = 10 * time.Second

// TurnPersister writes the turn's assistant response after the
// client-visible stream has ended. A turn that produced no assistant entry
// is an internal invariant violation and is logged, not written.
type TurnPersister struct {
	messages repositories.MessageRepository
	logger   *slog.Logger
}

// NewTurnPersister creates a persister over the message repository.
func NewTurnPersister(messages repositories.MessageRepository, logger *slog.Logger) *TurnPersister {
	return &TurnPersister{messages: messages, logger: logger}
}

// PersistResponse folds the completed response into one assistant message
// and appends it to the chat. The message id is the id of the last
// assistant entry so clients can correlate it with the streamed turn.
func (p *TurnPersister) PersistResponse(ctx context.Context, chatID string, response *CompletedResponse) error {
	assistantID := response.LastAssistantID()
	if assistantID == "" {
		p.logger.Error("completed response has no assistant entry, skipping persist", "chat_id", chatID)
		return nil
	}

	var parts []models.MessagePart
	for _, msg := range response.Messages {
		if msg.Role != models.RoleAssistant {
			continue
		}
		parts = append(parts, msg.Parts...)
	}
	if len(parts) == 0 {
		p.logger.Warn("assistant response is empty, skipping persist", "chat_id", chatID)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	msg := &models.Message{
		ID:        assistantID,
		ChatID:    chatID,
		Role:      models.RoleAssistant,
		Parts:     parts,
		CreatedAt: time.Now().UTC(),
	}
	if err := p.messages.CreateMessage(ctx, msg); err != nil {
		return fmt.Errorf("persist assistant message: %w", err)
	}
	return nil
}
