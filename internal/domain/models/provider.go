package models

// BackendKind enumerates the upstream client families a model can resolve to.
// All of them speak the OpenAI-compatible chat completion protocol; the kind
// determines which endpoint and credential the descriptor carries.
type BackendKind string

const (
	BackendDefaultPool BackendKind = "default-pool"
	BackendOpenAI      BackendKind = "openai"
	BackendFireworks   BackendKind = "fireworks"
	BackendDeepInfra   BackendKind = "deepinfra"
	BackendCustom      BackendKind = "custom"
)

// Credential is an API key plus whether the backend mandates one.
// A required credential with an empty value is a configuration error at
// resolution time, never a silent fallback.
type Credential struct {
	Value    string
	Required bool
}

// ProviderDescriptor is the resolved, immutable backend configuration for a
// client-facing model identifier. Exactly one descriptor resolves per model
// id; resolution is total (unknown ids fall back to the default pool).
type ProviderDescriptor struct {
	// ModelID is the client-facing identifier the descriptor was resolved for.
	ModelID string

	Backend     BackendKind
	EndpointURL string

	// ResolvedModelName is the name passed to the backend; may differ from
	// ModelID (e.g. fireworks account-scoped paths).
	ResolvedModelName string

	Credential Credential

	// ReasoningTag, when non-empty, is the delimiter tag whose content is
	// classified as reasoning output rather than answer text (e.g. "think").
	ReasoningTag string

	// ToolCapable gates the tool-use loop. Models not known to support
	// function calling are always invoked with an empty tool set.
	ToolCapable bool
}
