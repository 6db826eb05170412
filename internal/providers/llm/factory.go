package llm

import (
	"context"
	"fmt"

	"github.com/sandevgo/chorus/internal/core"
	"github.com/sandevgo/chorus/pkg/log"
)

// NewProvider creates the model caller for the configured provider. The
// chat and maintenance models each get their own instance.
func NewProvider(ctx context.Context, cfg core.ProviderConfig, model string) (core.ModelCaller, error) {
	log.FromCtx(ctx).Info().
		Str("provider", cfg.GetProvider()).
		Str("model", model).
		Msg("starting llm provider")

	timeout := cfg.GetModelTimeout()

	switch cfg.GetProvider() {
	case "openai":
		return NewOpenAI(cfg.GetOpenAIAPIKey(), model, timeout), nil
	case "anthropic":
		return NewAnthropic(cfg.GetAnthropicAPIKey(), model, timeout), nil
	case "openrouter":
		return NewOpenRouter(cfg.GetOpenRouterAPIKey(), model, timeout), nil
	case "ollama":
		return NewOllama(cfg.GetOllamaBaseURL(), cfg.GetOllamaAPIKey(), model, timeout), nil
	case "custom":
		return NewCustomOpenAI(cfg.GetCustomBaseURL(), cfg.GetCustomAPIKey(), model, timeout), nil
	case "gemini":
		return NewGemini(ctx, cfg.GetGeminiAPIKey(), model, "", timeout)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.GetProvider())
	}
}

// ModelLister is implemented by providers that can enumerate models.
type ModelLister interface {
	Models(ctx context.Context) ([]string, error)
}
