package handler

import (
	"log/slog"
	"net/http"

	"conduit/internal/httputil"
	chatSvc "conduit/internal/service/chat"
)

// SuggestionsHandler handles document suggestion retrieval.
type SuggestionsHandler struct {
	chats  *chatSvc.Service
	logger *slog.Logger
}

// NewSuggestionsHandler creates a new suggestions handler
func NewSuggestionsHandler(chats *chatSvc.Service, logger *slog.Logger) *SuggestionsHandler {
	return &SuggestionsHandler{chats: chats, logger: logger}
}

// ListSuggestions returns the suggestions recorded for a document.
// GET /suggestions?documentId=:id
func (h *SuggestionsHandler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	if userID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	documentID := r.URL.Query().Get("documentId")
	if documentID == "" {
		httputil.RespondError(w, http.StatusNotFound, "documentId is required")
		return
	}

	rows, err := h.chats.ListSuggestions(r.Context(), userID, documentID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, rows)
}
