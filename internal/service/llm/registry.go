package llm

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"conduit/internal/config"
	"conduit/internal/domain"
	"conduit/internal/domain/models"
)

//go:embed models.yaml
var modelTableYAML []byte

// Backend endpoints for the provider-native special cases.
const (
	openAIEndpoint    = "https://api.openai.com/v1"
	fireworksEndpoint = "https://api.fireworks.ai/inference/v1"
	deepInfraEndpoint = "https://api.deepinfra.com/v1/openai"
)

// modelTable is the parsed shape of models.yaml.
type modelTable struct {
	Models []modelTableEntry `yaml:"models"`
}

type modelTableEntry struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	Resolved     string `yaml:"resolved"`
	ReasoningTag string `yaml:"reasoning_tag"`
	Tools        bool   `yaml:"tools"`
}

// Registry resolves client-facing model identifiers to immutable provider
// descriptors. Resolution precedence:
//
//  1. hard-coded special-case ids whose endpoint/credential come from
//     environment-level configuration,
//  2. the static model table (models.yaml), served by the default pool,
//  3. a default pool descriptor for any other identifier.
//
// Resolution is total; the only errors are configuration errors (a backend
// that mandates a credential without one configured).
type Registry struct {
	cfg   *config.Config
	table map[string]modelTableEntry
}

// NewRegistry parses the embedded model table and captures the backend
// configuration. The registry is immutable and safe for concurrent use.
func NewRegistry(cfg *config.Config) (*Registry, error) {
	var parsed modelTable
	if err := yaml.Unmarshal(modelTableYAML, &parsed); err != nil {
		return nil, fmt.Errorf("parse model table: %w", err)
	}

	table := make(map[string]modelTableEntry, len(parsed.Models))
	for _, entry := range parsed.Models {
		if entry.ID == "" {
			return nil, fmt.Errorf("model table entry without id")
		}
		if _, dup := table[entry.ID]; dup {
			return nil, fmt.Errorf("duplicate model table id %q", entry.ID)
		}
		table[entry.ID] = entry
	}

	return &Registry{cfg: cfg, table: table}, nil
}

// Resolve returns the descriptor for a client-supplied model id.
func (r *Registry) Resolve(modelID string) (*models.ProviderDescriptor, error) {
	switch modelID {
	case "custom-llama2":
		return r.resolveCustom(modelID)

	case "gpt-4.5-preview":
		return r.checked(&models.ProviderDescriptor{
			ModelID:           modelID,
			Backend:           models.BackendOpenAI,
			EndpointURL:       openAIEndpoint,
			ResolvedModelName: modelID,
			Credential:        models.Credential{Value: r.cfg.OpenAIAPIKey, Required: true},
			ToolCapable:       true,
		})

	case "fireworks-deepseek-r1":
		return r.checked(&models.ProviderDescriptor{
			ModelID:           modelID,
			Backend:           models.BackendFireworks,
			EndpointURL:       fireworksEndpoint,
			ResolvedModelName: "accounts/fireworks/models/deepseek-r1",
			Credential:        models.Credential{Value: r.cfg.FireworksAPIKey, Required: true},
			ReasoningTag:      "think",
			ToolCapable:       false,
		})

	case "deepinfra-llama4-maverick":
		return r.checked(&models.ProviderDescriptor{
			ModelID:           modelID,
			Backend:           models.BackendDeepInfra,
			EndpointURL:       deepInfraEndpoint,
			ResolvedModelName: "meta-llama/Llama-4-Maverick-17B-128E-Instruct-FP8",
			Credential:        models.Credential{Value: r.cfg.DeepInfraAPIToken, Required: true},
			ToolCapable:       false,
		})
	}

	if entry, ok := r.table[modelID]; ok {
		return r.checked(&models.ProviderDescriptor{
			ModelID:           modelID,
			Backend:           models.BackendDefaultPool,
			EndpointURL:       r.cfg.DefaultPoolBaseURL,
			ResolvedModelName: entry.Resolved,
			Credential:        models.Credential{Value: r.cfg.DefaultPoolAPIKey, Required: true},
			ReasoningTag:      entry.ReasoningTag,
			ToolCapable:       entry.Tools,
		})
	}

	// Default pool fallback: the id is passed through unchanged.
	return r.checked(&models.ProviderDescriptor{
		ModelID:           modelID,
		Backend:           models.BackendDefaultPool,
		EndpointURL:       r.cfg.DefaultPoolBaseURL,
		ResolvedModelName: modelID,
		Credential:        models.Credential{Value: r.cfg.DefaultPoolAPIKey, Required: true},
		ToolCapable:       true,
	})
}

// resolveCustom builds the descriptor for the custom self-hosted endpoint.
// Endpoint and model name come from environment configuration; the API key
// is optional (self-hosted servers commonly accept any value).
func (r *Registry) resolveCustom(modelID string) (*models.ProviderDescriptor, error) {
	if r.cfg.CustomLLMBaseURL == "" || r.cfg.CustomLLMModelID == "" {
		return nil, &domain.ConfigurationError{
			Message: fmt.Sprintf("model %s: CUSTOM_LLM_BASE_URL and CUSTOM_LLM_MODEL_ID must be set", modelID),
		}
	}

	return &models.ProviderDescriptor{
		ModelID:           modelID,
		Backend:           models.BackendCustom,
		EndpointURL:       r.cfg.CustomLLMBaseURL,
		ResolvedModelName: r.cfg.CustomLLMModelID,
		Credential:        models.Credential{Value: r.cfg.CustomLLMAPIKey, Required: false},
		ToolCapable:       false,
	}, nil
}

// checked enforces the credential invariant: a backend that mandates a
// credential with none configured is a configuration error, never a
// silent fallback.
func (r *Registry) checked(desc *models.ProviderDescriptor) (*models.ProviderDescriptor, error) {
	if desc.Credential.Required && desc.Credential.Value == "" {
		return nil, &domain.ConfigurationError{
			Message: fmt.Sprintf("model %s: backend %s requires a credential and none is configured", desc.ModelID, desc.Backend),
		}
	}
	return desc, nil
}
