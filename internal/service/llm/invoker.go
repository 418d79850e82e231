package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"conduit/internal/domain"
	"conduit/internal/domain/models"
	"conduit/internal/service/llm/tools"
)

// MaxModelCalls bounds the number of model calls per turn. A model that
// keeps requesting tools is cut off after this many generations.
const MaxModelCalls = 5

// InvokeRequest is one turn's worth of work for the invoker.
type InvokeRequest struct {
	Descriptor *models.ProviderDescriptor

	// System is the system instruction for the turn.
	System string

	// History is the persisted conversation including the new user message.
	History []models.Message

	// Tools is the turn's tool registry. Nil (or a tool-incapable
	// descriptor) disables tool use entirely.
	Tools *tools.Registry
}

// Invoker runs the bounded model-call loop of a turn: it streams model
// output, executes requested tools, feeds results back, and emits ordered
// events until the model stops or the call bound is reached.
type Invoker struct {
	backends BackendFactory
	logger   *slog.Logger
}

// NewInvoker creates an invoker over the given backend factory.
func NewInvoker(backends BackendFactory, logger *slog.Logger) *Invoker {
	return &Invoker{backends: backends, logger: logger}
}

// Invoke executes the turn. Events are delivered to emit in order; the
// returned response accumulates everything the model produced, whether or
// not the turn finished cleanly. A non-nil error means the turn ended on
// an upstream failure after an EventError was emitted.
func (inv *Invoker) Invoke(ctx context.Context, req *InvokeRequest, emit func(Event)) (*CompletedResponse, error) {
	backend, err := inv.backends.BackendFor(req.Descriptor)
	if err != nil {
		return nil, fmt.Errorf("obtain backend: %w", err)
	}

	toolsEnabled := req.Tools != nil && req.Descriptor.ToolCapable
	var schemas []ToolSchema
	if toolsEnabled {
		for _, def := range req.Tools.Definitions() {
			schemas = append(schemas, ToolSchema{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			})
		}
	}

	conversation := historyToPrompt(req.History)
	response := &CompletedResponse{}

	for call := 1; call <= MaxModelCalls; call++ {
		completion := &CompletionRequest{
			Model:    req.Descriptor.ResolvedModelName,
			System:   req.System,
			Messages: conversation,
			Tools:    schemas,
		}

		assistant, toolCalls, finishReason, err := inv.streamCall(ctx, backend, req.Descriptor, completion, emit)
		if assistant != nil {
			response.Messages = append(response.Messages, *assistant)
		}
		if err != nil {
			emit(Event{Type: EventError, Err: err})
			return response, err
		}

		if len(toolCalls) == 0 {
			emit(Event{Type: EventStepFinish, FinishReason: finishReason})
			emit(Event{Type: EventFinish, FinishReason: finishReason})
			response.Finished = true
			return response, nil
		}

		if call == MaxModelCalls {
			inv.logger.Warn("model call bound reached with pending tool calls",
				"model", req.Descriptor.ModelID, "pending", len(toolCalls))
			emit(Event{Type: EventStepFinish, FinishReason: "tool-calls"})
			emit(Event{Type: EventFinish, FinishReason: "tool-calls"})
			response.Finished = true
			return response, nil
		}

		emit(Event{Type: EventStepFinish, FinishReason: "tool-calls", IsContinued: true})

		conversation = append(conversation, assistantPromptMessage(assistant, toolCalls))
		for _, tc := range toolCalls {
			resultMsg, resultPart := inv.executeTool(ctx, req.Tools, tc, emit)
			assistantAppendPart(response, resultPart)
			conversation = append(conversation, resultMsg)
		}
	}

	// Unreachable: the loop always returns on or before the final call.
	return response, nil
}

// streamCall runs one model call. It classifies reasoning content, smooths
// answer text at word boundaries, and returns the assembled assistant
// entry plus any tool calls the model requested.
func (inv *Invoker) streamCall(
	ctx context.Context,
	backend Backend,
	desc *models.ProviderDescriptor,
	req *CompletionRequest,
	emit func(Event),
) (*ResponseMessage, []ToolCallRef, string, error) {
	events, err := backend.StreamChat(ctx, req)
	if err != nil {
		return nil, nil, "", fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	assistant := &ResponseMessage{
		ID:   uuid.NewString(),
		Role: models.RoleAssistant,
	}
	splitter := NewReasoningSplitter(desc.ReasoningTag)
	smoother := NewWordSmoother()
	var toolCalls []ToolCallRef
	finishReason := "stop"

	emitText := func(text string) {
		for _, word := range smoother.Feed(text) {
			emit(Event{Type: EventTextDelta, Text: word})
		}
		appendPart(assistant, models.MessagePart{Type: models.PartText, Text: text})
	}
	emitReasoning := func(text string) {
		emit(Event{Type: EventReasoningDelta, Text: text})
		appendPart(assistant, models.MessagePart{Type: models.PartReasoning, Text: text})
	}
	classify := func(delta string) {
		if splitter == nil {
			emitText(delta)
			return
		}
		for _, seg := range splitter.Feed(delta) {
			if seg.Reasoning {
				emitReasoning(seg.Text)
			} else {
				emitText(seg.Text)
			}
		}
	}
	flush := func() {
		if splitter != nil {
			for _, seg := range splitter.Flush() {
				if seg.Reasoning {
					emitReasoning(seg.Text)
				} else {
					emitText(seg.Text)
				}
			}
		}
		if tail := smoother.Flush(); tail != "" {
			emit(Event{Type: EventTextDelta, Text: tail})
		}
	}

	for ev := range events {
		select {
		case <-ctx.Done():
			return assistant, nil, "", fmt.Errorf("turn cancelled: %w", ctx.Err())
		default:
		}

		switch {
		case ev.Err != nil:
			flush()
			return assistant, nil, "", fmt.Errorf("%w: %v", domain.ErrUpstream, ev.Err)

		case ev.ToolCall != nil:
			tc := *ev.ToolCall
			toolCalls = append(toolCalls, tc)
			emit(Event{
				Type:       EventToolCall,
				ToolCallID: tc.ID,
				ToolName:   tc.Name,
				Args:       json.RawMessage(tc.ArgsJSON),
			})
			appendPart(assistant, models.MessagePart{
				Type:       models.PartToolCall,
				ToolCallID: tc.ID,
				ToolName:   tc.Name,
				Args:       json.RawMessage(tc.ArgsJSON),
			})

		case ev.TextDelta != "":
			classify(ev.TextDelta)

		case ev.FinishReason != "":
			finishReason = ev.FinishReason
		}
	}

	flush()

	if err := ctx.Err(); err != nil {
		return assistant, nil, "", fmt.Errorf("turn cancelled: %w", err)
	}

	return assistant, toolCalls, finishReason, nil
}

// executeTool runs one requested tool call and emits its result. Tool
// failures are reported to the model as error payloads, not turn failures.
func (inv *Invoker) executeTool(ctx context.Context, registry *tools.Registry, tc ToolCallRef, emit func(Event)) (PromptMessage, models.MessagePart) {
	var input map[string]interface{}
	if err := json.Unmarshal([]byte(tc.ArgsJSON), &input); err != nil {
		inv.logger.Warn("malformed tool arguments", "tool", tc.Name, "error", err)
		input = map[string]interface{}{}
	}

	result := registry.Execute(ctx, tools.Call{ID: tc.ID, Name: tc.Name, Input: input})

	var payload json.RawMessage
	if result.IsError {
		payload, _ = json.Marshal(map[string]string{"error": result.Error.Error()})
	} else {
		encoded, err := json.Marshal(result.Result)
		if err != nil {
			inv.logger.Warn("tool result not serializable", "tool", tc.Name, "error", err)
			encoded, _ = json.Marshal(map[string]string{"error": "tool result not serializable"})
		}
		payload = encoded
	}

	emit(Event{
		Type:       EventToolResult,
		ToolCallID: tc.ID,
		ToolName:   tc.Name,
		Result:     payload,
	})

	part := models.MessagePart{
		Type:       models.PartToolResult,
		ToolCallID: tc.ID,
		ToolName:   tc.Name,
		Result:     payload,
	}

	return PromptMessage{
		Role:       models.RoleTool,
		Content:    string(payload),
		ToolCallID: tc.ID,
	}, part
}

// historyToPrompt converts persisted messages to prompt messages. Only text
// content participates in the prompt; tool traces from prior turns are
// already folded into assistant text.
func historyToPrompt(history []models.Message) []PromptMessage {
	out := make([]PromptMessage, 0, len(history))
	for i := range history {
		msg := &history[i]
		out = append(out, PromptMessage{
			Role:    msg.Role,
			Content: msg.TextContent(),
		})
	}
	return out
}

// assistantPromptMessage rebuilds the assistant turn that requested tools
// for the follow-up model call.
func assistantPromptMessage(assistant *ResponseMessage, calls []ToolCallRef) PromptMessage {
	var content string
	for _, part := range assistant.Parts {
		if part.Type == models.PartText {
			content += part.Text
		}
	}
	return PromptMessage{
		Role:      models.RoleAssistant,
		Content:   content,
		ToolCalls: calls,
	}
}

// appendPart appends a part to the assistant entry, merging consecutive
// runs of the same textual type.
func appendPart(assistant *ResponseMessage, part models.MessagePart) {
	n := len(assistant.Parts)
	if n > 0 && part.Type == assistant.Parts[n-1].Type &&
		(part.Type == models.PartText || part.Type == models.PartReasoning) {
		assistant.Parts[n-1].Text += part.Text
		return
	}
	assistant.Parts = append(assistant.Parts, part)
}

// assistantAppendPart attaches a tool result part to the most recent
// assistant entry of the response.
func assistantAppendPart(response *CompletedResponse, part models.MessagePart) {
	for i := len(response.Messages) - 1; i >= 0; i-- {
		if response.Messages[i].Role == models.RoleAssistant {
			response.Messages[i].Parts = append(response.Messages[i].Parts, part)
			return
		}
	}
}
