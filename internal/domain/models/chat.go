package models

import "time"

// Chat visibility values.
const (
	VisibilityPrivate = "private"
	VisibilityPublic  = "public"
)

// Chat represents a conversation owned by a single user.
// OwnerID is immutable after creation; only the owner may append messages
// or delete the chat.
type Chat struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Title      string    `json:"title"`
	Visibility string    `json:"visibility"`
	CreatedAt  time.Time `json:"createdAt"`
}
