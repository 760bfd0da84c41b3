package insights

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Provider names accepted in configuration.
const (
	ProviderCortex  = "cortex"
	ProviderBedrock = "bedrock"
	ProviderOpenAI  = "openai"
	ProviderStatic  = "static"
)

const systemPrompt = "You are a customer experience analyst. Answer in concise Markdown for an executive audience."

// Config selects and tunes the completion provider.
type Config struct {
	Provider       string        `yaml:"provider"`
	Timeout        time.Duration `yaml:"timeout"`
	Fallback       string        `yaml:"fallback"`
	PromptTemplate string        `yaml:"prompt_template"`
	Bedrock        BedrockConfig `yaml:"bedrock"`
	OpenAI         OpenAIConfig  `yaml:"openai"`
}

// NewCompleter returns the completer named by cfg.Provider. cortex is the
// warehouse-hosted model and must be supplied by the caller. The static
// provider returns a nil Completer so every request uses the fallback.
func NewCompleter(ctx context.Context, cfg Config, cortex Completer) (Completer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderCortex:
		if cortex == nil {
			return nil, fmt.Errorf("insights: cortex provider needs a warehouse connection")
		}
		return cortex, nil
	case ProviderBedrock:
		c, err := NewBedrockCompleter(ctx, cfg.Bedrock)
		if err != nil {
			return nil, err
		}
		return c, nil
	case ProviderOpenAI:
		c, err := NewOpenAICompleter(cfg.OpenAI)
		if err != nil {
			return nil, err
		}
		return c, nil
	case ProviderStatic:
		return nil, nil
	default:
		return nil, fmt.Errorf("insights: unknown provider %q", cfg.Provider)
	}
}

// NewFromConfig builds the completer, the prompt renderer and the service.
func NewFromConfig(ctx context.Context, cfg Config, cortex Completer) (*Service, error) {
	completer, err := NewCompleter(ctx, cfg, cortex)
	if err != nil {
		return nil, err
	}
	renderer, err := NewPromptRenderer(cfg.PromptTemplate)
	if err != nil {
		return nil, err
	}

	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if name == "" {
		name = ProviderCortex
	}
	return NewService(completer, name, renderer, cfg.Timeout, cfg.Fallback), nil
}
