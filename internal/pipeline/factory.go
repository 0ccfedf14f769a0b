package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/findoc-ai/analyzer-be/internal/config"
)

// NewAnalyzer constructs the configured Analyzer implementation.
// Called once at worker startup.
func NewAnalyzer(cfg config.PipelineConfig, logger *slog.Logger) (Analyzer, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("pipeline base_url is required for the openai provider")
		}
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("pipeline api_key is required for the openai provider")
		}
		chat := NewOpenAIClient(OpenAIConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
		return NewRunner(chat, logger), nil
	case "mock":
		return NewMockAnalyzer(), nil
	default:
		return nil, fmt.Errorf("unknown pipeline provider %q: must be one of openai, mock", cfg.Provider)
	}
}
