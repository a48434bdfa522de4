package config

import (
	"os"
	"testing"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestMustGetEnv_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for missing required env var")
		}
	}()

	os.Unsetenv("NONEXISTENT_REQUIRED_VAR")
	mustGetEnv("NONEXISTENT_REQUIRED_VAR")
}

func TestMustGetEnv_ReturnsValue(t *testing.T) {
	os.Setenv("TEST_REQUIRED", "value123")
	defer os.Unsetenv("TEST_REQUIRED")

	result := mustGetEnv("TEST_REQUIRED")
	if result != "value123" {
		t.Errorf("Expected 'value123', got %q", result)
	}
}

func TestLoad_OpenAIDefaults(t *testing.T) {
	t.Setenv("UPSTREAM_PROVIDER", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")

	cfg := Load()

	if cfg.Provider != ProviderOpenAI {
		t.Errorf("Expected provider %q, got %q", ProviderOpenAI, cfg.Provider)
	}
	if cfg.Model() != "gpt-4o-mini" {
		t.Errorf("Expected default model 'gpt-4o-mini', got %q", cfg.Model())
	}
	if cfg.Port != "3001" {
		t.Errorf("Expected default port '3001', got %q", cfg.Port)
	}
	if cfg.IsDevelopment() {
		t.Error("Expected production mode by default")
	}
	if cfg.ChatRatePerMinute != 0 {
		t.Errorf("Expected rate limiting disabled, got %d", cfg.ChatRatePerMinute)
	}
}

func TestLoad_ModelOverrideAndDevelopment(t *testing.T) {
	t.Setenv("UPSTREAM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("ENV", "development")

	cfg := Load()

	if cfg.Model() != "gpt-4o" {
		t.Errorf("Expected model override 'gpt-4o', got %q", cfg.Model())
	}
	if !cfg.IsDevelopment() {
		t.Error("Expected development mode")
	}
}

func TestLoad_GeminiRequiresItsOwnKey(t *testing.T) {
	t.Setenv("UPSTREAM_PROVIDER", "Gemini")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "g-test")
	t.Setenv("GEMINI_MODEL", "")

	cfg := Load()

	if cfg.Provider != ProviderGemini {
		t.Errorf("Expected provider %q, got %q", ProviderGemini, cfg.Provider)
	}
	if cfg.Model() != "gemini-2.0-flash" {
		t.Errorf("Expected default gemini model, got %q", cfg.Model())
	}
}

func TestLoad_UnknownProviderPanics(t *testing.T) {
	t.Setenv("UPSTREAM_PROVIDER", "cohere")

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for unsupported provider")
		}
	}()

	Load()
}
