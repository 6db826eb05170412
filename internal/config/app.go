package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/sandevgo/chorus/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"CHORUS_RUNTIME_PATH" envDefault:".chorus"`
	Debug       bool   `env:"CHORUS_DEBUG" envDefault:"false"`

	LLMProvider      string `env:"CHORUS_LLM_PROVIDER" envDefault:"openai" validate:"oneof=openai anthropic openrouter ollama custom gemini"`
	ChatModel        string `env:"CHORUS_CHAT_MODEL" envDefault:"gpt-4o-2024-08-06" validate:"required"`
	MaintenanceModel string `env:"CHORUS_MAINTENANCE_MODEL" envDefault:"gpt-4o-mini" validate:"required"`

	OpenAIAPIKey     string `env:"CHORUS_OPENAI_API_KEY" validate:"required_if=LLMProvider openai"`
	AnthropicAPIKey  string `env:"CHORUS_ANTHROPIC_API_KEY" validate:"required_if=LLMProvider anthropic"`
	OpenRouterAPIKey string `env:"CHORUS_OPENROUTER_API_KEY" validate:"required_if=LLMProvider openrouter"`
	GeminiAPIKey     string `env:"CHORUS_GEMINI_API_KEY" validate:"required_if=LLMProvider gemini"`
	OllamaBaseURL    string `env:"CHORUS_OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	OllamaAPIKey     string `env:"CHORUS_OLLAMA_API_KEY"`
	CustomBaseURL    string `env:"CHORUS_CUSTOM_BASE_URL" validate:"required_if=LLMProvider custom"`
	CustomAPIKey     string `env:"CHORUS_CUSTOM_API_KEY"`

	// Orchestration
	HistoryLimit        int           `env:"CHORUS_HISTORY_LIMIT" envDefault:"10" validate:"min=1"`
	InteractionLimit    int           `env:"CHORUS_INTERACTION_LIMIT" envDefault:"2" validate:"min=1"`
	DebounceWindowMs    int64         `env:"CHORUS_DEBOUNCE_WINDOW_MS" envDefault:"5000" validate:"min=0"`
	ChannelDecayMs      int64         `env:"CHORUS_CHANNEL_DECAY_MS" envDefault:"300000" validate:"min=0"`
	PropagationDepth    int           `env:"CHORUS_PROPAGATION_DEPTH" envDefault:"1" validate:"min=0"`
	MaxMessageLength    int           `env:"CHORUS_MAX_MESSAGE_LENGTH" envDefault:"2000" validate:"min=1"`
	MaintenanceInterval time.Duration `env:"CHORUS_MAINTENANCE_INTERVAL" envDefault:"24h" validate:"gt=0"`
	ModelTimeout        time.Duration `env:"CHORUS_MODEL_TIMEOUT" envDefault:"2m" validate:"gt=0"`

	PersonasFile string `env:"CHORUS_PERSONAS_FILE" envDefault:"personas.yaml"`
	LinkPreview  bool   `env:"CHORUS_LINK_PREVIEW" envDefault:"false"`

	// Transport Flags
	EnableTelegram    bool `env:"CHORUS_ENABLE_TELEGRAM" envDefault:"false"`
	EnableCLI         bool `env:"CHORUS_ENABLE_CLI" envDefault:"true"`
	EnableMaintenance bool `env:"CHORUS_ENABLE_MAINTENANCE" envDefault:"true"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c, err := ParseAppConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

// ParseAppConfig reads the environment and validates the result.
func ParseAppConfig() (*AppConfig, error) {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *AppConfig) GetRuntimePath() string {
	return resolveRuntimePath(c.RuntimePath)
}

func (c *AppConfig) GetDatabasePath() string {
	return filepath.Join(c.GetRuntimePath(), "chorus.db")
}

func (c *AppConfig) GetPersonasPath() string {
	if filepath.IsAbs(c.PersonasFile) {
		return c.PersonasFile
	}
	return filepath.Join(c.GetRuntimePath(), c.PersonasFile)
}

func (c *AppConfig) GetDebounceWindow() time.Duration {
	return time.Duration(c.DebounceWindowMs) * time.Millisecond
}

func (c *AppConfig) GetChannelDecay() time.Duration {
	return time.Duration(c.ChannelDecayMs) * time.Millisecond
}

func (c *AppConfig) GetProvider() string { return c.LLMProvider }
func (c *AppConfig) GetOpenAIAPIKey() string { return c.OpenAIAPIKey }
func (c *AppConfig) GetAnthropicAPIKey() string { return c.AnthropicAPIKey }
func (c *AppConfig) GetOpenRouterAPIKey() string { return c.OpenRouterAPIKey }
func (c *AppConfig) GetGeminiAPIKey() string { return c.GeminiAPIKey }
func (c *AppConfig) GetOllamaBaseURL() string { return c.OllamaBaseURL }
func (c *AppConfig) GetOllamaAPIKey() string { return c.OllamaAPIKey }
func (c *AppConfig) GetCustomBaseURL() string { return c.CustomBaseURL }
func (c *AppConfig) GetCustomAPIKey() string { return c.CustomAPIKey }
func (c *AppConfig) GetModelTimeout() time.Duration { return c.ModelTimeout }
