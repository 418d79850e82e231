package models

import (
	"encoding/json"
	"time"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// Part types within a message.
const (
	PartText       = "text"
	PartReasoning  = "reasoning"
	PartToolCall   = "tool-call"
	PartToolResult = "tool-result"
)

// MessagePart is one ordered content segment of a message: plain text,
// reasoning text, or a tool-call/tool-result descriptor.
type MessagePart struct {
	Type string `json:"type"`

	// Text content for "text" and "reasoning" parts.
	Text string `json:"text,omitempty"`

	// Tool fields for "tool-call" and "tool-result" parts.
	ToolCallID string          `json:"toolCallId,omitempty"`
	ToolName   string          `json:"toolName,omitempty"`
	Args       json.RawMessage `json:"args,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
}

// Attachment is a reference to an uploaded file carried on a message.
type Attachment struct {
	URL         string `json:"url"`
	Name        string `json:"name,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

// Message is one append-only entry in a chat. Ordering within a chat is by
// CreatedAt, ties broken by the monotonically increasing Seq assigned on
// insert.
type Message struct {
	ID          string        `json:"id"`
	ChatID      string        `json:"chatId"`
	Role        string        `json:"role"`
	Parts       []MessagePart `json:"parts"`
	Attachments []Attachment  `json:"attachments"`
	CreatedAt   time.Time     `json:"createdAt"`
	Seq         int64         `json:"-"`
}

// TextContent concatenates the plain-text parts of the message.
// Used for title derivation and prompt building.
func (m *Message) TextContent() string {
	var out string
	for _, part := range m.Parts {
		if part.Type == PartText {
			out += part.Text
		}
	}
	return out
}
