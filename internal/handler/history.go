package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"conduit/internal/domain/repositories"
	"conduit/internal/httputil"
	chatSvc "conduit/internal/service/chat"
)

// HistoryHandler handles chat history listing.
type HistoryHandler struct {
	chats  *chatSvc.Service
	logger *slog.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(chats *chatSvc.Service, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{chats: chats, logger: logger}
}

// ListChats returns one page of the caller's chats, newest first.
// GET /history?limit=10&starting_after=:id or ?ending_before=:id
func (h *HistoryHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	if userID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	query := r.URL.Query()

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}

	cursor := repositories.ChatCursor{
		StartingAfter: query.Get("starting_after"),
		EndingBefore:  query.Get("ending_before"),
	}

	page, err := h.chats.ListChats(r.Context(), userID, limit, cursor)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, page)
}
