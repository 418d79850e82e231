package config

import (
	"os"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	JWKSURL     string
	CORSOrigins string
	TablePrefix string
	// Model backends. The default pool is the OpenAI-compatible gateway that
	// serves the static model table; the rest are per-backend credentials.
	DefaultPoolBaseURL string
	DefaultPoolAPIKey  string
	OpenAIAPIKey       string
	FireworksAPIKey    string
	DeepInfraAPIToken  string
	CustomLLMBaseURL   string
	CustomLLMAPIKey    string
	CustomLLMModelID   string
	// TitleModel is the small model used for chat title derivation.
	TitleModel string
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWKSURL:     getEnv("AUTH_JWKS_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: getTablePrefix(env),

		DefaultPoolBaseURL: getEnv("POOL_BASE_URL", "https://api.openai.com/v1"),
		DefaultPoolAPIKey:  getEnv("POOL_API_KEY", ""),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		FireworksAPIKey:    getEnv("FIREWORKS_API_KEY", ""),
		DeepInfraAPIToken:  getEnv("DEEPINFRA_API_TOKEN", ""),
		CustomLLMBaseURL:   getEnv("CUSTOM_LLM_BASE_URL", ""),
		CustomLLMAPIKey:    getEnv("CUSTOM_LLM_API_KEY", ""),
		CustomLLMModelID:   getEnv("CUSTOM_LLM_MODEL_ID", ""),

		TitleModel: getEnv("TITLE_MODEL", "title-model"),
	}
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
