package domain

import (
	"context"
	"errors"
	"fmt"
)

// Tool is the interface for a named capability the model can request
// through an embedded directive.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Execute(ctx context.Context, args map[string]string) (string, error)
}

// ToolCall is a single directive extracted from generated text.
type ToolCall struct {
	Tool string            `json:"tool"`
	Args map[string]string `json:"args"`
}

// ToolResult is the outcome of dispatching one ToolCall.
type ToolResult struct {
	Tool   string            `json:"tool"`
	Args   map[string]string `json:"args"`
	Result string            `json:"result"`
	Err    *ToolError        `json:"-"`
}

// Failed reports whether the call ended in a ToolError.
func (r ToolResult) Failed() bool { return r.Err != nil }

// ToolInfo is the discovery view of a registered tool.
type ToolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ErrorKind classifies why a tool call failed.
type ErrorKind string

const (
	KindNotFound           ErrorKind = "not_found"
	KindExecutionFailed    ErrorKind = "execution_failed"
	KindInputRejected      ErrorKind = "input_rejected"
	KindBackendUnavailable ErrorKind = "backend_unavailable"
	KindTimeout            ErrorKind = "timeout"
)

// ToolError is a typed tool failure. It stays structured until it is
// rendered into the reply with Error().
type ToolError struct {
	Kind    ErrorKind
	Tool    string
	Message string
	Err     error
}

func (e *ToolError) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("Error: tool %q does not exist", e.Tool)
	case KindTimeout:
		return fmt.Sprintf("Error: tool %q timed out: %s", e.Tool, e.Message)
	case KindInputRejected:
		return fmt.Sprintf("Error: tool %q rejected input: %s", e.Tool, e.Message)
	case KindBackendUnavailable:
		return fmt.Sprintf("Error: tool %q backend unavailable: %s", e.Tool, e.Message)
	default:
		return fmt.Sprintf("Error: tool %q failed: %s", e.Tool, e.Message)
	}
}

func (e *ToolError) Unwrap() error { return e.Err }

// Is matches another *ToolError by kind, so errors.Is(err, ErrTimeout) works.
func (e *ToolError) Is(target error) bool {
	var t *ToolError
	if !errors.As(target, &t) {
		return false
	}
	return t.Tool == "" && t.Message == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound           = &ToolError{Kind: KindNotFound}
	ErrExecutionFailed    = &ToolError{Kind: KindExecutionFailed}
	ErrInputRejected      = &ToolError{Kind: KindInputRejected}
	ErrBackendUnavailable = &ToolError{Kind: KindBackendUnavailable}
	ErrTimeout            = &ToolError{Kind: KindTimeout}
)

// Rejected returns an input_rejected error. The tool name is filled in by
// the registry.
func Rejected(format string, args ...any) error {
	return &ToolError{Kind: KindInputRejected, Message: fmt.Sprintf(format, args...)}
}

// Unavailable wraps an infrastructure failure (network, subprocess start).
func Unavailable(err error) error {
	return &ToolError{Kind: KindBackendUnavailable, Message: err.Error(), Err: err}
}

// TimedOut returns a timeout error with a human-readable reason.
func TimedOut(format string, args ...any) error {
	return &ToolError{Kind: KindTimeout, Message: fmt.Sprintf(format, args...)}
}
