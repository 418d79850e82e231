package handler

import (
	"errors"
	"net/http"

	"conduit/internal/domain"
	"conduit/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrConfiguration):
		httputil.RespondError(w, http.StatusInternalServerError, "provider configuration error")
	case errors.Is(err, domain.ErrUnavailable):
		httputil.RespondError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	case errors.Is(err, domain.ErrUpstream):
		httputil.RespondError(w, http.StatusBadGateway, "upstream model error")
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
