package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"toolchat/internal/domain"
)

// MarkerPolicy decides what happens to inline directives in the reply.
type MarkerPolicy string

const (
	// MarkerKeep leaves directives in the text and appends the summary.
	MarkerKeep MarkerPolicy = "keep"
	// MarkerStrip removes directives from the text before appending the summary.
	MarkerStrip MarkerPolicy = "strip"
)

// ParseMarkerPolicy accepts "", "keep" or "strip".
func ParseMarkerPolicy(s string) (MarkerPolicy, error) {
	switch MarkerPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", MarkerKeep:
		return MarkerKeep, nil
	case MarkerStrip:
		return MarkerStrip, nil
	}
	return "", fmt.Errorf("unknown marker policy %q (want keep or strip)", s)
}

const summaryHeader = "\n\nTools used:\n"

// Invoker runs a named tool and always returns a result.
type Invoker interface {
	Invoke(ctx context.Context, name string, args map[string]string) domain.ToolResult
}

// Orchestrator parses directives from generated text, dispatches each one
// and folds the results back into the reply.
type Orchestrator struct {
	parser *Parser
	tools  Invoker
	policy MarkerPolicy
	logger *slog.Logger
}

func NewOrchestrator(parser *Parser, tools Invoker, policy MarkerPolicy, logger *slog.Logger) *Orchestrator {
	if parser == nil {
		parser = NewParser()
	}
	if policy == "" {
		policy = MarkerKeep
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{parser: parser, tools: tools, policy: policy, logger: logger}
}

// Run dispatches every directive in text, in order, exactly once. Each call
// is independent: a failed call still yields a result and later calls run.
// With tools disabled the text is returned unchanged and nothing is parsed.
func (o *Orchestrator) Run(ctx context.Context, text string, enableTools bool) (string, []domain.ToolResult) {
	if !enableTools {
		return text, nil
	}
	calls := o.parser.Parse(text)
	if len(calls) == 0 {
		return text, nil
	}

	results := make([]domain.ToolResult, 0, len(calls))
	for _, call := range calls {
		results = append(results, o.tools.Invoke(ctx, call.Tool, call.Args))
	}
	o.logger.Debug("dispatched tool calls", "count", len(results))

	body := text
	if o.policy == MarkerStrip {
		body = StripDirectives(text)
	}
	return body + RenderSummary(results), results
}

// RenderSummary formats results as the "Tools used" section, one
// "- tool: result" line per call.
func RenderSummary(results []domain.ToolResult) string {
	if len(results) == 0 {
		return ""
	}
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("- %s: %s", r.Tool, r.Result))
	}
	return summaryHeader + strings.Join(lines, "\n")
}
