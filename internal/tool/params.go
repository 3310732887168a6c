package tool

import (
	"context"
	"strings"

	"toolchat/internal/domain"
)

// Param describes a single tool parameter.
type Param struct {
	Type        string
	Description string
}

// ToolParameters builds a JSON Schema "parameters" object for a tool.
func ToolParameters(properties map[string]Param, required []string) map[string]any {
	props := make(map[string]any)
	for name, p := range properties {
		props[name] = map[string]any{"type": p.Type, "description": p.Description}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// requireArg returns the trimmed value of key or an input_rejected error.
func requireArg(args map[string]string, key string) (string, error) {
	v := strings.TrimSpace(args[key])
	if v == "" {
		return "", domain.Rejected("missing argument: %s", key)
	}
	return v, nil
}

// HandlerFunc is the plain calling convention for ad-hoc tools.
type HandlerFunc func(ctx context.Context, args map[string]string) (string, error)

// Func adapts a HandlerFunc to domain.Tool.
type Func struct {
	name        string
	description string
	fn          HandlerFunc
}

func NewFunc(name, description string, fn HandlerFunc) *Func {
	return &Func{name: name, description: description, fn: fn}
}

func (f *Func) Name() string               { return f.name }
func (f *Func) Description() string        { return f.description }
func (f *Func) Parameters() map[string]any { return ToolParameters(nil, nil) }
func (f *Func) Execute(ctx context.Context, args map[string]string) (string, error) {
	return f.fn(ctx, args)
}

var _ domain.Tool = (*Func)(nil)
