package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"conduit/internal/domain/models"
)

// PromptMessage is one provider-agnostic conversation entry sent upstream.
type PromptMessage struct {
	Role    string
	Content string

	// ToolCallID links a tool-role message to the call it answers.
	ToolCallID string

	// ToolCalls are carried on assistant messages that requested tools.
	ToolCalls []ToolCallRef
}

// ToolCallRef identifies one requested tool invocation.
type ToolCallRef struct {
	ID       string
	Name     string
	ArgsJSON string
}

// ToolSchema describes one callable tool to the backend.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// CompletionRequest is one model call.
type CompletionRequest struct {
	Model    string
	System   string
	Messages []PromptMessage
	Tools    []ToolSchema
}

// BackendEvent is one element of a backend completion stream. Exactly one
// field group is set: a text delta, a finished tool call, a terminal finish
// reason, or an error.
type BackendEvent struct {
	TextDelta    string
	ToolCall     *ToolCallRef
	FinishReason string
	Err          error
}

// Backend streams chat completions and runs one-shot generations against a
// single resolved provider descriptor.
type Backend interface {
	StreamChat(ctx context.Context, req *CompletionRequest) (<-chan BackendEvent, error)
	GenerateText(ctx context.Context, model, system, prompt string) (string, error)
}

// BackendFactory obtains a live backend for a resolved descriptor.
type BackendFactory interface {
	BackendFor(desc *models.ProviderDescriptor) (Backend, error)
}

// OpenAIBackend implements Backend over the OpenAI-compatible chat
// completion protocol, which every supported backend kind speaks.
type OpenAIBackend struct {
	client openai.Client
}

// NewOpenAIBackend creates a backend client for a descriptor's endpoint and
// credential. Credential presence has already been checked at resolution.
func NewOpenAIBackend(endpointURL, apiKey string) *OpenAIBackend {
	opts := []option.RequestOption{option.WithBaseURL(endpointURL)}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &OpenAIBackend{client: openai.NewClient(opts...)}
}

// StreamChat starts a streaming completion and converts SDK chunks into
// BackendEvents. The returned channel is closed after the terminal event.
func (b *OpenAIBackend) StreamChat(ctx context.Context, req *CompletionRequest) (<-chan BackendEvent, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: buildMessages(req),
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}

	stream := b.client.Chat.Completions.NewStreaming(ctx, params)

	events := make(chan BackendEvent)
	go func() {
		defer close(events)

		acc := openai.ChatCompletionAccumulator{}
		finishReason := "stop"

		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)

			if tool, ok := acc.JustFinishedToolCall(); ok {
				call := ToolCallRef{
					ID:       tool.ID,
					Name:     tool.Name,
					ArgsJSON: tool.Arguments,
				}
				select {
				case events <- BackendEvent{ToolCall: &call}:
				case <-ctx.Done():
					return
				}
			}

			if len(chunk.Choices) == 0 {
				continue
			}
			choice := chunk.Choices[0]

			if choice.Delta.Content != "" {
				select {
				case events <- BackendEvent{TextDelta: choice.Delta.Content}:
				case <-ctx.Done():
					return
				}
			}

			if choice.FinishReason != "" {
				finishReason = choice.FinishReason
			}
		}

		if err := stream.Err(); err != nil {
			select {
			case events <- BackendEvent{Err: fmt.Errorf("stream completion: %w", err)}:
			case <-ctx.Done():
			}
			return
		}

		select {
		case events <- BackendEvent{FinishReason: finishReason}:
		case <-ctx.Done():
		}
	}()

	return events, nil
}

// GenerateText runs a single non-streaming completion. Used for title
// derivation and document drafting.
func (b *OpenAIBackend) GenerateText(ctx context.Context, model, system, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
	}

	completion, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("generate text: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("generate text: empty response")
	}

	return completion.Choices[0].Message.Content, nil
}

// buildMessages converts the provider-agnostic conversation to SDK params.
func buildMessages(req *CompletionRequest) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		out = append(out, openai.SystemMessage(req.System))
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case models.RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				out = append(out, assistantToolCallMessage(msg))
				continue
			}
			out = append(out, openai.AssistantMessage(msg.Content))
		case models.RoleTool:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		case models.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}

	return out
}

// assistantToolCallMessage rebuilds an assistant message that requested
// tool invocations, for the follow-up call of the tool-use loop.
func assistantToolCallMessage(msg PromptMessage) openai.ChatCompletionMessageParamUnion {
	calls := make([]openai.ChatCompletionMessageToolCallUnionParam, len(msg.ToolCalls))
	for i, tc := range msg.ToolCalls {
		calls[i] = openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: tc.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      tc.Name,
					Arguments: tc.ArgsJSON,
				},
			},
		}
	}

	assistant := openai.ChatCompletionAssistantMessageParam{ToolCalls: calls}
	if msg.Content != "" {
		assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: openai.String(msg.Content),
		}
	}

	return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}

// buildTools converts tool schemas to SDK function tools.
func buildTools(schemas []ToolSchema) []openai.ChatCompletionToolUnionParam {
	out := make([]openai.ChatCompletionToolUnionParam, len(schemas))
	for i, schema := range schemas {
		out[i] = openai.ChatCompletionFunctionTool(
			openai.FunctionDefinitionParam{
				Name:        schema.Name,
				Description: openai.String(schema.Description),
				Parameters:  openai.FunctionParameters(schema.Parameters),
			},
		)
	}
	return out
}

// openaiBackendFactory builds OpenAI-compatible clients per descriptor.
type openaiBackendFactory struct{}

// NewBackendFactory returns the production backend factory.
func NewBackendFactory() BackendFactory {
	return &openaiBackendFactory{}
}

func (f *openaiBackendFactory) BackendFor(desc *models.ProviderDescriptor) (Backend, error) {
	if desc.EndpointURL == "" {
		return nil, fmt.Errorf("descriptor for %s has no endpoint", desc.ModelID)
	}
	return NewOpenAIBackend(desc.EndpointURL, desc.Credential.Value), nil
}
