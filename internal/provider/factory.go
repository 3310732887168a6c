package provider

import (
	"fmt"
	"log/slog"
	"time"

	"toolchat/internal/config"
	"toolchat/internal/domain"
)

// Constructor builds a Generator from the provider section of the config.
type Constructor func(pc config.ProviderConfig, logger *slog.Logger) domain.Generator

var constructors = map[string]Constructor{
	"ollama": func(pc config.ProviderConfig, logger *slog.Logger) domain.Generator {
		return NewOllama(OllamaConfig{APIBase: pc.APIBase, Model: pc.Model, Logger: logger},
			SharedHTTPClient(time.Duration(pc.TimeoutSeconds)*time.Second))
	},
	"openai": func(pc config.ProviderConfig, logger *slog.Logger) domain.Generator {
		return NewOpenAI(OpenAIConfig{APIKey: pc.APIKey, APIBase: pc.APIBase, Model: pc.Model, Logger: logger},
			SharedHTTPClient(time.Duration(pc.TimeoutSeconds)*time.Second))
	},
}

// New builds the configured backend. Unless pc.FailFast is set, the result
// is wrapped in Degrading.
func New(pc config.ProviderConfig, logger *slog.Logger) (domain.Generator, error) {
	ctor, ok := constructors[pc.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown provider kind %q", pc.Kind)
	}
	gen := ctor(pc, logger)
	if pc.FailFast {
		return gen, nil
	}
	return NewDegrading(gen, logger), nil
}
