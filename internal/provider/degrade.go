package provider

import (
	"context"
	"fmt"
	"log/slog"

	"toolchat/internal/domain"
)

// Degrading wraps a Generator so backend failures come back as reply text
// instead of an error.
type Degrading struct {
	inner  domain.Generator
	logger *slog.Logger
}

func NewDegrading(inner domain.Generator, logger *slog.Logger) *Degrading {
	if logger == nil {
		logger = slog.Default()
	}
	return &Degrading{inner: inner, logger: logger}
}

func (d *Degrading) Name() string { return d.inner.Name() }

func (d *Degrading) Healthy(ctx context.Context) error { return d.inner.Healthy(ctx) }

func (d *Degrading) Generate(ctx context.Context, prompt string, opts domain.GenerateOptions) (string, error) {
	out, err := d.inner.Generate(ctx, prompt, opts)
	if err != nil {
		d.logger.Error("model backend failed", "backend", d.inner.Name(), "err", err)
		return fmt.Sprintf("Error: model backend %s is unavailable: %v", d.inner.Name(), err), nil
	}
	return out, nil
}

// Unwrap returns the wrapped generator.
func (d *Degrading) Unwrap() domain.Generator { return d.inner }

var _ domain.Generator = (*Degrading)(nil)
