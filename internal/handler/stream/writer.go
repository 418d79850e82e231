package stream

import (
	"encoding/json"
	"fmt"
	"net/http"

	"conduit/internal/service/llm"
)

// Line prefixes of the data stream protocol. Each stream line is
// "<prefix>:<json>\n" and is flushed individually.
const (
	prefixText          = "0"
	prefixReasoning     = "g"
	prefixData          = "2"
	prefixError         = "3"
	prefixToolCallStart = "b"
	prefixToolCall      = "9"
	prefixToolResult    = "a"
	prefixStepFinish    = "e"
	prefixFinish        = "d"
)

// Writer serializes turn events onto an HTTP response using the line-based
// data stream protocol. It is not safe for concurrent use; the turn's
// events arrive in order from a single goroutine.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

// NewWriter wraps a response writer. Returns an error when the underlying
// writer cannot flush, since incremental delivery is the whole point.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flushing")
	}
	return &Writer{w: w, flusher: flusher}, nil
}

// WriteHeaders emits the stream headers and the 200 status. Must be called
// before the first event; after this point errors can only be reported
// in-band.
func (sw *Writer) WriteHeaders() {
	sw.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	sw.w.Header().Set("Cache-Control", "no-cache")
	sw.w.Header().Set("X-Data-Stream", "v1")
	sw.w.WriteHeader(http.StatusOK)
	sw.started = true
}

// WriteEvent serializes one turn event. Write failures are returned so the
// caller can abort the turn on client disconnect.
func (sw *Writer) WriteEvent(ev llm.Event) error {
	switch ev.Type {
	case llm.EventTextDelta:
		return sw.writeLine(prefixText, ev.Text)

	case llm.EventReasoningDelta:
		return sw.writeLine(prefixReasoning, ev.Text)

	case llm.EventToolCall:
		if err := sw.writeLine(prefixToolCallStart, map[string]interface{}{
			"toolCallId": ev.ToolCallID,
			"toolName":   ev.ToolName,
		}); err != nil {
			return err
		}
		return sw.writeLine(prefixToolCall, map[string]interface{}{
			"toolCallId": ev.ToolCallID,
			"toolName":   ev.ToolName,
			"args":       rawOrNull(ev.Args),
		})

	case llm.EventToolResult:
		return sw.writeLine(prefixToolResult, map[string]interface{}{
			"toolCallId": ev.ToolCallID,
			"result":     rawOrNull(ev.Result),
		})

	case llm.EventData:
		return sw.writeLine(prefixData, []interface{}{ev.Data})

	case llm.EventStepFinish:
		return sw.writeLine(prefixStepFinish, map[string]interface{}{
			"finishReason": ev.FinishReason,
			"isContinued":  ev.IsContinued,
		})

	case llm.EventFinish:
		return sw.writeLine(prefixFinish, map[string]interface{}{
			"finishReason": ev.FinishReason,
		})

	case llm.EventError:
		return sw.writeLine(prefixError, "An error occurred while processing your request")
	}

	return nil
}

// rawOrNull guards against empty raw JSON, which would fail to marshal.
func rawOrNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}

func (sw *Writer) writeLine(prefix string, payload interface{}) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode stream line: %w", err)
	}
	if _, err := fmt.Fprintf(sw.w, "%s:%s\n", prefix, encoded); err != nil {
		return fmt.Errorf("write stream line: %w", err)
	}
	sw.flusher.Flush()
	return nil
}
