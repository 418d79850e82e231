package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"conduit/internal/domain/models"
	"conduit/internal/domain/repositories"
)

const textDocumentPrompt = "Write about the given topic. Markdown is supported. Use headings wherever appropriate."

const codeDocumentPrompt = `You are a code generator that creates self-contained, executable code snippets. Keep snippets concise (generally under 15 lines), include helpful comments, and prefer standard library functionality. Do not wrap the code in markdown fences.`

const sheetDocumentPrompt = "Create a spreadsheet in CSV format based on the given prompt. The spreadsheet should contain meaningful column headers and data."

// draftSystemPrompt returns the drafting instruction for a document kind.
func draftSystemPrompt(kind string) string {
	switch kind {
	case models.DocumentKindCode:
		return codeDocumentPrompt
	case models.DocumentKindSheet:
		return sheetDocumentPrompt
	default:
		return textDocumentPrompt
	}
}

// CreateDocumentTool implements the 'create_document' tool. It drafts
// content with the turn's model, saves it as a new document owned by the
// requesting user, and streams progress onto the turn.
type CreateDocumentTool struct {
	userID   string
	docs     repositories.DocumentRepository
	generate GenerateFunc
	emit     Emitter
}

// NewCreateDocumentTool creates a per-turn create_document tool.
func NewCreateDocumentTool(userID string, docs repositories.DocumentRepository, generate GenerateFunc, emit Emitter) *CreateDocumentTool {
	return &CreateDocumentTool{userID: userID, docs: docs, generate: generate, emit: emit}
}

// Definition implements Tool.
func (t *CreateDocumentTool) Definition() Definition {
	return Definition{
		Name:        "create_document",
		Description: "Create a document for writing or content creation activities. The document content is generated from the title and kind.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Title of the document",
				},
				"kind": map[string]interface{}{
					"type": "string",
					"enum": []string{models.DocumentKindText, models.DocumentKindCode, models.DocumentKindSheet},
				},
			},
			"required": []string{"title", "kind"},
		},
	}
}

// Execute implements Tool.
func (t *CreateDocumentTool) Execute(ctx context.Context, input map[string]interface{}) (interface{}, error) {
	title, ok := input["title"].(string)
	if !ok || strings.TrimSpace(title) == "" {
		return nil, errors.New("missing required parameter: title (string)")
	}
	kind, _ := input["kind"].(string)
	switch kind {
	case models.DocumentKindText, models.DocumentKindCode, models.DocumentKindSheet:
	default:
		return nil, fmt.Errorf("invalid kind %q: must be text, code or sheet", kind)
	}

	id := uuid.NewString()
	t.emit(map[string]interface{}{"type": "kind", "content": kind})
	t.emit(map[string]interface{}{"type": "id", "content": id})
	t.emit(map[string]interface{}{"type": "title", "content": title})

	content, err := t.generate(ctx, draftSystemPrompt(kind), title)
	if err != nil {
		return nil, fmt.Errorf("draft document: %w", err)
	}

	doc := &models.Document{
		ID:        id,
		Title:     title,
		Content:   content,
		Kind:      kind,
		UserID:    t.userID,
		CreatedAt: time.Now().UTC(),
	}
	if err := t.docs.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	t.emit(map[string]interface{}{"type": "finish", "content": ""})

	return map[string]interface{}{
		"id":      id,
		"title":   title,
		"kind":    kind,
		"content": "A document was created and is now visible to the user.",
	}, nil
}

// UpdateDocumentTool implements the 'update_document' tool. It revises the
// latest version of a document and appends the result as a new version.
type UpdateDocumentTool struct {
	userID   string
	docs     repositories.DocumentRepository
	generate GenerateFunc
	emit     Emitter
}

// NewUpdateDocumentTool creates a per-turn update_document tool.
func NewUpdateDocumentTool(userID string, docs repositories.DocumentRepository, generate GenerateFunc, emit Emitter) *UpdateDocumentTool {
	return &UpdateDocumentTool{userID: userID, docs: docs, generate: generate, emit: emit}
}

// Definition implements Tool.
func (t *UpdateDocumentTool) Definition() Definition {
	return Definition{
		Name:        "update_document",
		Description: "Update a document with the given description of changes.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the document to update",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Description of the changes to make",
				},
			},
			"required": []string{"id", "description"},
		},
	}
}

// Execute implements Tool.
func (t *UpdateDocumentTool) Execute(ctx context.Context, input map[string]interface{}) (interface{}, error) {
	id, ok := input["id"].(string)
	if !ok || strings.TrimSpace(id) == "" {
		return nil, errors.New("missing required parameter: id (string)")
	}
	description, ok := input["description"].(string)
	if !ok || strings.TrimSpace(description) == "" {
		return nil, errors.New("missing required parameter: description (string)")
	}

	doc, err := t.docs.GetLatestDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", id, err)
	}

	t.emit(map[string]interface{}{"type": "clear", "content": doc.Title})

	prompt := fmt.Sprintf("Update the following document based on this description: %s\n\n%s", description, doc.Content)
	content, err := t.generate(ctx, draftSystemPrompt(doc.Kind), prompt)
	if err != nil {
		return nil, fmt.Errorf("revise document: %w", err)
	}

	revision := &models.Document{
		ID:        doc.ID,
		Title:     doc.Title,
		Content:   content,
		Kind:      doc.Kind,
		UserID:    t.userID,
		CreatedAt: time.Now().UTC(),
	}
	if err := t.docs.SaveDocument(ctx, revision); err != nil {
		return nil, fmt.Errorf("save document revision: %w", err)
	}

	t.emit(map[string]interface{}{"type": "finish", "content": ""})

	return map[string]interface{}{
		"id":      doc.ID,
		"title":   doc.Title,
		"kind":    doc.Kind,
		"content": "The document has been updated successfully.",
	}, nil
}
