package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"conduit/internal/domain/models"
	"conduit/internal/domain/repositories"
)

const suggestionsSystemPrompt = `You are a writing assistant. Given a piece of writing, suggest improvements. Respond with a JSON array of objects, each with the fields "originalText", "suggestedText" and "description". Provide at most five suggestions. Respond with the JSON array only, no surrounding text.`

// RequestSuggestionsTool implements the 'request_suggestions' tool. It asks
// the turn's model for edit suggestions against the latest version of a
// document and persists them for later retrieval.
type RequestSuggestionsTool struct {
	userID      string
	docs        repositories.DocumentRepository
	suggestions repositories.SuggestionRepository
	generate    GenerateFunc
	emit        Emitter
}

// NewRequestSuggestionsTool creates a per-turn request_suggestions tool.
func NewRequestSuggestionsTool(
	userID string,
	docs repositories.DocumentRepository,
	suggestions repositories.SuggestionRepository,
	generate GenerateFunc,
	emit Emitter,
) *RequestSuggestionsTool {
	return &RequestSuggestionsTool{
		userID:      userID,
		docs:        docs,
		suggestions: suggestions,
		generate:    generate,
		emit:        emit,
	}
}

// Definition implements Tool.
func (t *RequestSuggestionsTool) Definition() Definition {
	return Definition{
		Name:        "request_suggestions",
		Description: "Request writing suggestions for a document",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"documentId": map[string]interface{}{
					"type":        "string",
					"description": "ID of the document to request suggestions for",
				},
			},
			"required": []string{"documentId"},
		},
	}
}

// suggestionDraft is the shape the model is asked to produce.
type suggestionDraft struct {
	OriginalText  string `json:"originalText"`
	SuggestedText string `json:"suggestedText"`
	Description   string `json:"description"`
}

// Execute implements Tool.
func (t *RequestSuggestionsTool) Execute(ctx context.Context, input map[string]interface{}) (interface{}, error) {
	documentID, ok := input["documentId"].(string)
	if !ok || strings.TrimSpace(documentID) == "" {
		return nil, errors.New("missing required parameter: documentId (string)")
	}

	doc, err := t.docs.GetLatestDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", documentID, err)
	}

	raw, err := t.generate(ctx, suggestionsSystemPrompt, doc.Content)
	if err != nil {
		return nil, fmt.Errorf("generate suggestions: %w", err)
	}

	drafts, err := parseSuggestionDrafts(raw)
	if err != nil {
		return nil, fmt.Errorf("parse suggestions: %w", err)
	}

	now := time.Now().UTC()
	rows := make([]models.Suggestion, 0, len(drafts))
	for _, d := range drafts {
		if d.OriginalText == "" || d.SuggestedText == "" {
			continue
		}
		row := models.Suggestion{
			ID:                uuid.NewString(),
			DocumentID:        doc.ID,
			DocumentCreatedAt: doc.CreatedAt,
			OriginalText:      d.OriginalText,
			SuggestedText:     d.SuggestedText,
			Description:       d.Description,
			UserID:            t.userID,
			CreatedAt:         now,
		}
		rows = append(rows, row)
		t.emit(map[string]interface{}{"type": "suggestion", "content": row})
	}

	if len(rows) > 0 {
		if err := t.suggestions.SaveSuggestions(ctx, rows); err != nil {
			return nil, fmt.Errorf("save suggestions: %w", err)
		}
	}

	return map[string]interface{}{
		"id":      doc.ID,
		"title":   doc.Title,
		"kind":    doc.Kind,
		"message": "Suggestions have been added to the document",
	}, nil
}

// parseSuggestionDrafts decodes the model's JSON array, tolerating
// surrounding prose by extracting the outermost brackets.
func parseSuggestionDrafts(raw string) ([]suggestionDraft, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end < start {
		return nil, errors.New("no JSON array in model output")
	}

	var drafts []suggestionDraft
	if err := json.Unmarshal([]byte(raw[start:end+1]), &drafts); err != nil {
		return nil, err
	}
	return drafts, nil
}
