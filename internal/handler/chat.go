package handler

import (
	"context"
	"log/slog"
	"net/http"

	"conduit/internal/domain/models"
	"conduit/internal/handler/stream"
	"conduit/internal/httputil"
	chatSvc "conduit/internal/service/chat"
	"conduit/internal/service/llm"
)

// ChatHandler handles the chat turn and chat deletion endpoints.
// Handlers only communicate with services, never repositories.
type ChatHandler struct {
	turns  *llm.TurnService
	chats  *chatSvc.Service
	logger *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(turns *llm.TurnService, chats *chatSvc.Service, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{turns: turns, chats: chats, logger: logger}
}

// turnPayload is the POST /chat request body. The conversation arrives as
// a messages array; message is a tolerated singular alias.
type turnPayload struct {
	ID                     string           `json:"id"`
	Messages               []models.Message `json:"messages"`
	Message                *models.Message  `json:"message"`
	SelectedChatModel      string           `json:"selectedChatModel"`
	SelectedVisibilityType string           `json:"selectedVisibilityType"`
}

// HandleTurn executes one chat turn and streams the response.
// POST /chat
//
// Everything that can fail with an HTTP status fails before the stream
// starts; once the 200 and headers are written, failures are reported
// in-band as error stream lines.
func (h *ChatHandler) HandleTurn(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	if userID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var payload turnPayload
	if err := httputil.ParseJSON(w, r, &payload); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	turn, err := h.turns.BeginTurn(r.Context(), &llm.TurnRequest{
		UserID:     userID,
		ChatID:     payload.ID,
		ModelID:    payload.SelectedChatModel,
		Visibility: payload.SelectedVisibilityType,
		Messages:   payload.Messages,
		Message:    payload.Message,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	sw, err := stream.NewWriter(w)
	if err != nil {
		h.logger.Error("streaming unsupported by response writer")
		httputil.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	sw.WriteHeaders()

	// A failed write means the client went away; cancel the turn so the
	// model call stops and nothing gets persisted.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	disconnected := false
	emit := func(ev llm.Event) {
		if disconnected {
			return
		}
		if err := sw.WriteEvent(ev); err != nil {
			disconnected = true
			cancel()
		}
	}

	if err := turn.Run(ctx, emit); err != nil {
		h.logger.Warn("turn ended with error", "chat_id", payload.ID, "error", err)
	}
}

// DeleteChat removes a chat and its messages.
// DELETE /chat?id=:id
func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	if userID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	chatID := r.URL.Query().Get("id")
	if chatID == "" {
		httputil.RespondError(w, http.StatusNotFound, "chat id is required")
		return
	}

	deleted, err := h.chats.DeleteChat(r.Context(), userID, chatID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, deleted)
}
