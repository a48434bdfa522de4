package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Upstream completion API
	Provider      string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	GeminiAPIKey  string
	GeminiModel   string

	// Exchange archive (optional)
	DatabaseURL string

	// HTTP
	CORSAllowedOrigin string
	ChatRatePerMinute int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:              getEnvOrDefault("PORT", "3001"),
		Env:               getEnvOrDefault("ENV", "production"),
		Provider:          strings.ToLower(getEnvOrDefault("UPSTREAM_PROVIDER", ProviderOpenAI)),
		OpenAIModel:       getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:     getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		GeminiModel:       getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		DatabaseURL:       getEnvOrDefault("DATABASE_URL", ""),
		CORSAllowedOrigin: getEnvOrDefault("CORS_ALLOWED_ORIGIN", "*"),
		ChatRatePerMinute: getEnvAsIntOrDefault("CHAT_RATE_LIMIT_PER_MINUTE", 0),
	}

	// Only the selected provider's key is required.
	switch cfg.Provider {
	case ProviderOpenAI:
		cfg.OpenAIAPIKey = mustGetEnv("OPENAI_API_KEY")
	case ProviderGemini:
		cfg.GeminiAPIKey = mustGetEnv("GEMINI_API_KEY")
	default:
		panic(fmt.Sprintf("unsupported UPSTREAM_PROVIDER %q (supported: openai, gemini)", cfg.Provider))
	}

	return cfg
}

// IsDevelopment reports whether error responses may carry stack traces.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Model returns the model name of the selected provider.
func (c *Config) Model() string {
	if c.Provider == ProviderGemini {
		return c.GeminiModel
	}
	return c.OpenAIModel
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
