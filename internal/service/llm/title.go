package llm

import (
	"context"
	"log/slog"
	"strings"

	"conduit/internal/domain/models"
)

// maxTitleInputBytes bounds how much of the first user message is sent to
// the title model.
const maxTitleInputBytes = 2048

const fallbackTitle = "New Chat"

// TitleDeriver derives a short chat title from the first user message of a
// conversation. Derivation is best effort: any failure falls back to a
// placeholder so chat creation never fails on the title path.
type TitleDeriver struct {
	registry *Registry
	backends BackendFactory
	modelID  string
	logger   *slog.Logger
}

// NewTitleDeriver creates a title deriver using the given title model id.
func NewTitleDeriver(registry *Registry, backends BackendFactory, modelID string, logger *slog.Logger) *TitleDeriver {
	return &TitleDeriver{
		registry: registry,
		backends: backends,
		modelID:  modelID,
		logger:   logger,
	}
}

// DeriveTitle generates a title for the given first message.
func (d *TitleDeriver) DeriveTitle(ctx context.Context, message *models.Message) string {
	input := message.TextContent()
	if len(input) > maxTitleInputBytes {
		input = input[:maxTitleInputBytes]
	}
	if strings.TrimSpace(input) == "" {
		return fallbackTitle
	}

	desc, err := d.registry.Resolve(d.modelID)
	if err != nil {
		d.logger.Warn("title model unresolved, using fallback", "model", d.modelID, "error", err)
		return fallbackTitle
	}

	backend, err := d.backends.BackendFor(desc)
	if err != nil {
		d.logger.Warn("title backend unavailable, using fallback", "model", d.modelID, "error", err)
		return fallbackTitle
	}

	title, err := backend.GenerateText(ctx, desc.ResolvedModelName, titlePrompt, input)
	if err != nil {
		d.logger.Warn("title generation failed, using fallback", "model", d.modelID, "error", err)
		return fallbackTitle
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return fallbackTitle
	}
	return title
}
