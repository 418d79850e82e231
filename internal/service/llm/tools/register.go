package tools

import (
	"conduit/internal/domain/repositories"
)

// RegisterTurnTools creates and registers the chat turn tools (get_weather,
// create_document, update_document, request_suggestions) with the provided
// registry.
//
// This function is called per turn so each tool instance carries the
// requesting user, the turn's emitter, and the turn's text generator.
func RegisterTurnTools(
	registry *Registry,
	userID string,
	docs repositories.DocumentRepository,
	suggestions repositories.SuggestionRepository,
	generate GenerateFunc,
	emit Emitter,
) {
	registry.Register(NewWeatherTool())
	registry.Register(NewCreateDocumentTool(userID, docs, generate, emit))
	registry.Register(NewUpdateDocumentTool(userID, docs, generate, emit))
	registry.Register(NewRequestSuggestionsTool(userID, docs, suggestions, generate, emit))
}
