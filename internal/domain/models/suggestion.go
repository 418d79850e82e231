package models

import "time"

// Suggestion is a proposed edit to a specific document version, produced by
// the request_suggestions tool.
type Suggestion struct {
	ID                string    `json:"id"`
	DocumentID        string    `json:"documentId"`
	DocumentCreatedAt time.Time `json:"documentCreatedAt"`
	OriginalText      string    `json:"originalText"`
	SuggestedText     string    `json:"suggestedText"`
	Description       string    `json:"description,omitempty"`
	IsResolved        bool      `json:"isResolved"`
	UserID            string    `json:"userId"`
	CreatedAt         time.Time `json:"createdAt"`
}
