package models

import "time"

// Document kinds.
const (
	DocumentKindText  = "text"
	DocumentKindCode  = "code"
	DocumentKindSheet = "sheet"
)

// Document is one version of a user-owned document produced by the document
// tools. Identity is the (ID, CreatedAt) pair: updates append a new version
// with the same ID and a later CreatedAt, never mutate an existing row.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Kind      string    `json:"kind"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}
