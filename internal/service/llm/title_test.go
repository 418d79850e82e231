package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"conduit/internal/domain/models"
)

// titleBackend records GenerateText inputs and returns a canned result.
type titleBackend struct {
	system string
	prompt string
	calls  int
	out    string
	err    error
}

func (b *titleBackend) StreamChat(ctx context.Context, req *CompletionRequest) (<-chan BackendEvent, error) {
	ch := make(chan BackendEvent)
	close(ch)
	return ch, nil
}

func (b *titleBackend) GenerateText(ctx context.Context, model, system, prompt string) (string, error) {
	b.calls++
	b.system = system
	b.prompt = prompt
	return b.out, b.err
}

func userMessage(text string) *models.Message {
	return &models.Message{
		ID:    "msg-1",
		Role:  models.RoleUser,
		Parts: []models.MessagePart{{Type: models.PartText, Text: text}},
	}
}

func newTitleDeriver(t *testing.T, backend Backend) *TitleDeriver {
	t.Helper()
	registry := mustRegistry(t, testConfig())
	return NewTitleDeriver(registry, &staticFactory{backend}, "title-model", testLogger())
}

func TestTitleDeriver_UsesModelOutput(t *testing.T) {
	backend := &titleBackend{out: "  Weather in Paris  "}
	deriver := newTitleDeriver(t, backend)

	title := deriver.DeriveTitle(context.Background(), userMessage("what is the weather in paris?"))

	if title != "Weather in Paris" {
		t.Errorf("title = %q, want trimmed model output", title)
	}
	if backend.prompt != "what is the weather in paris?" {
		t.Errorf("prompt = %q", backend.prompt)
	}
}

func TestTitleDeriver_TruncatesLongInput(t *testing.T) {
	backend := &titleBackend{out: "Long input"}
	deriver := newTitleDeriver(t, backend)

	long := strings.Repeat("a", 3*maxTitleInputBytes)
	deriver.DeriveTitle(context.Background(), userMessage(long))

	if len(backend.prompt) != maxTitleInputBytes {
		t.Errorf("prompt length = %d, want %d", len(backend.prompt), maxTitleInputBytes)
	}
}

func TestTitleDeriver_FallbackOnModelError(t *testing.T) {
	backend := &titleBackend{err: errors.New("rate limited")}
	deriver := newTitleDeriver(t, backend)

	title := deriver.DeriveTitle(context.Background(), userMessage("hello"))

	if title != fallbackTitle {
		t.Errorf("title = %q, want fallback", title)
	}
}

func TestTitleDeriver_FallbackOnEmptyInput(t *testing.T) {
	backend := &titleBackend{out: "should not be used"}
	deriver := newTitleDeriver(t, backend)

	title := deriver.DeriveTitle(context.Background(), userMessage("   "))

	if title != fallbackTitle {
		t.Errorf("title = %q, want fallback", title)
	}
	if backend.calls != 0 {
		t.Errorf("backend called %d times for empty input, want 0", backend.calls)
	}
}

func TestTitleDeriver_FallbackOnEmptyOutput(t *testing.T) {
	backend := &titleBackend{out: "   "}
	deriver := newTitleDeriver(t, backend)

	title := deriver.DeriveTitle(context.Background(), userMessage("hello"))

	if title != fallbackTitle {
		t.Errorf("title = %q, want fallback", title)
	}
}
