package tool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"toolchat/internal/domain"
	"toolchat/internal/metrics"
	"toolchat/internal/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const unknownToolLabel = "unknown"

// Registry holds the available tools in registration order and invokes
// them without ever letting a failure escape.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]domain.Tool
	order  []string
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:  make(map[string]domain.Tool),
		logger: logger,
	}
}

// Register inserts or replaces a tool. A replaced tool keeps its original
// position in List.
func (r *Registry) Register(t domain.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := t.Name()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
	r.logger.Debug("registered tool", "name", name)
}

// RegisterFunc registers a plain handler under name.
func (r *Registry) RegisterFunc(name, description string, fn HandlerFunc) {
	r.Register(NewFunc(name, description, fn))
}

// Get returns the tool registered under name, or nil.
func (r *Registry) Get(name string) domain.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// List returns name and description of every tool in registration order.
func (r *Registry) List() []domain.ToolInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]domain.ToolInfo, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		infos = append(infos, domain.ToolInfo{
			Name:        name,
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return infos
}

// Invoke runs the named tool. Unknown tools, handler errors and panics all
// come back as a ToolResult carrying a ToolError.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]string) domain.ToolResult {
	if args == nil {
		args = map[string]string{}
	}
	res := domain.ToolResult{Tool: name, Args: args}

	ctx, span := tracing.Tracer().Start(ctx, "tool.invoke")
	span.SetAttributes(attribute.String("tool.name", name))
	defer span.End()

	t := r.Get(name)
	if t == nil {
		res.Err = &domain.ToolError{Kind: domain.KindNotFound, Tool: name, Message: "no such tool"}
		res.Result = res.Err.Error()
		r.finish(span, res, 0)
		return res
	}

	start := time.Now()
	out, err := safeExecute(ctx, t, args)
	elapsed := time.Since(start)

	if err != nil {
		res.Err = classify(name, err)
		res.Result = res.Err.Error()
	} else {
		res.Result = out
	}
	r.finish(span, res, elapsed)
	return res
}

func (r *Registry) finish(span trace.Span, res domain.ToolResult, elapsed time.Duration) {
	outcome := "ok"
	if res.Err != nil {
		outcome = string(res.Err.Kind)
		span.SetStatus(codes.Error, res.Err.Message)
		r.logger.Warn("tool failed", "tool", res.Tool, "kind", res.Err.Kind, "err", res.Err.Message)
	} else {
		r.logger.Debug("tool executed", "tool", res.Tool, "duration", elapsed)
	}
	span.SetAttributes(attribute.String("tool.outcome", outcome))
	// Unknown names come from model output; they share one series.
	label := res.Tool
	if res.Err != nil && res.Err.Kind == domain.KindNotFound {
		label = unknownToolLabel
	}
	metrics.ToolCall(label, outcome)
	if elapsed > 0 {
		metrics.ToolLatency.Observe(elapsed.Seconds())
	}
}

func safeExecute(ctx context.Context, t domain.Tool, args map[string]string) (out string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return t.Execute(ctx, args)
}

// classify turns any handler error into a ToolError naming the tool.
func classify(name string, err error) *domain.ToolError {
	var te *domain.ToolError
	if errors.As(err, &te) {
		out := *te
		out.Tool = name
		if out.Message == "" {
			out.Message = err.Error()
		}
		return &out
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.ToolError{Kind: domain.KindTimeout, Tool: name, Message: err.Error(), Err: err}
	}
	return &domain.ToolError{Kind: domain.KindExecutionFailed, Tool: name, Message: err.Error(), Err: err}
}
