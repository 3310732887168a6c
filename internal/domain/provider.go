package domain

import "context"

// GenerateOptions are the sampling parameters forwarded to a model backend.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
	Model       string // optional: override the backend's default model
}

// Generator turns a prompt into a complete continuation.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	Healthy(ctx context.Context) error
}
