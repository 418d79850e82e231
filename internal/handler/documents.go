package handler

import (
	"log/slog"
	"net/http"

	"conduit/internal/httputil"
	chatSvc "conduit/internal/service/chat"
)

// DocumentsHandler handles document version retrieval.
type DocumentsHandler struct {
	chats  *chatSvc.Service
	logger *slog.Logger
}

// NewDocumentsHandler creates a new documents handler
func NewDocumentsHandler(chats *chatSvc.Service, logger *slog.Logger) *DocumentsHandler {
	return &DocumentsHandler{chats: chats, logger: logger}
}

// ListVersions returns all versions of a caller-owned document, oldest first.
// GET /documents?id=:id
func (h *DocumentsHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	if userID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	documentID := r.URL.Query().Get("id")
	if documentID == "" {
		httputil.RespondError(w, http.StatusNotFound, "id is required")
		return
	}

	versions, err := h.chats.ListDocumentVersions(r.Context(), userID, documentID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, versions)
}
