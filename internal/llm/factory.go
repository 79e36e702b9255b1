package llm

import (
	"context"
	"fmt"

	"kids_edu_backend/internal/config"

	"go.uber.org/zap"
)

// NewProvider 按配置创建 provider，外层依次为 retry -> logging -> base
func NewProvider(ctx context.Context, cfg config.AIConfig, log *zap.Logger) (Provider, error) {
	var (
		base Provider
		err  error
	)

	switch cfg.Provider {
	case "edge", "":
		base, err = NewEdgeProvider(cfg)
	case "openai":
		base, err = NewOpenAIProvider(cfg)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return WithRetry(WithLogging(base, log), DefaultRetryConfig(cfg.MaxAttempts)), nil
}
