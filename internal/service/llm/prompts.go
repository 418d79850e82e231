package llm

const regularPrompt = "You are a friendly assistant! Keep your responses concise and helpful."

const artifactsPrompt = `Documents are a special mode for writing, editing, and other content creation tasks. When a document is created or updated it is shown alongside the conversation.

When asked to write code, prefer the create_document tool and specify code as the kind. Default to a single self-contained snippet.

Use create_document for substantial content (longer than 10 lines) or content the user is likely to save and reuse (emails, code, essays). Do not update a document immediately after creating it; wait for user feedback first.`

const titlePrompt = `Generate a short title based on the first message a user begins a conversation with. Ensure it is not more than 80 characters long. The title should be a summary of the user's message. Do not use quotes or colons.`

// SystemPrompt returns the system instruction for a turn. Models that can
// call tools get the document-authoring instructions appended.
func SystemPrompt(toolCapable bool) string {
	if !toolCapable {
		return regularPrompt
	}
	return regularPrompt + "\n\n" + artifactsPrompt
}
