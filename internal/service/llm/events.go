package llm

import (
	"encoding/json"

	"conduit/internal/domain/models"
)

// EventType identifies one kind of turn stream event.
type EventType int

const (
	// EventTextDelta carries a chunk of answer text.
	EventTextDelta EventType = iota
	// EventReasoningDelta carries a chunk of reasoning text.
	EventReasoningDelta
	// EventToolCall reports a model-requested tool invocation.
	EventToolCall
	// EventToolResult reports the result of an executed tool.
	EventToolResult
	// EventData carries tool progress payloads (document drafting etc).
	EventData
	// EventStepFinish closes one model call within the turn.
	EventStepFinish
	// EventFinish terminates a successful turn.
	EventFinish
	// EventError terminates a failed turn.
	EventError
)

// Event is one element of the ordered turn stream emitted by the invoker
// and serialized by the stream assembler.
type Event struct {
	Type EventType

	// Text for EventTextDelta / EventReasoningDelta.
	Text string

	// Tool fields for EventToolCall / EventToolResult.
	ToolCallID string
	ToolName   string
	Args       json.RawMessage
	Result     json.RawMessage

	// Data for EventData.
	Data any

	// FinishReason and IsContinued for EventStepFinish / EventFinish.
	FinishReason string
	IsContinued  bool

	// Err for EventError.
	Err error
}

// ResponseMessage is one logical message of the completed response, in
// emission order. One assistant entry is produced per model call.
type ResponseMessage struct {
	ID    string
	Role  string
	Parts []models.MessagePart
}

// CompletedResponse accumulates the turn's response messages for the
// persister. It is only read after the event channel has closed.
type CompletedResponse struct {
	Messages []ResponseMessage
	// Finished reports whether the turn reached a successful terminal event.
	Finished bool
}

// LastAssistantID returns the id of the last assistant-role entry, or ""
// when no assistant entry exists (an internal invariant violation).
func (r *CompletedResponse) LastAssistantID() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == models.RoleAssistant {
			return r.Messages[i].ID
		}
	}
	return ""
}
