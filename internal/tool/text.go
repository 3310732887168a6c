package tool

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"toolchat/internal/domain"
)

// --- DateTimeTool ---

// DateTimeTool reports the current local time.
type DateTimeTool struct {
	now func() time.Time
}

func NewDateTimeTool() *DateTimeTool {
	return &DateTimeTool{now: time.Now}
}

func (t *DateTimeTool) Name() string               { return "get_datetime" }
func (t *DateTimeTool) Description() string        { return "Return the current local date and time." }
func (t *DateTimeTool) Parameters() map[string]any { return ToolParameters(nil, nil) }

func (t *DateTimeTool) Execute(ctx context.Context, args map[string]string) (string, error) {
	now := t.now()
	return fmt.Sprintf("%s (%s)", now.Format(time.DateTime), now.Weekday()), nil
}

// --- CountWordsTool ---

// CountWordsTool reports word, character and line counts.
type CountWordsTool struct{}

func NewCountWordsTool() *CountWordsTool { return &CountWordsTool{} }

func (t *CountWordsTool) Name() string { return "count_words" }
func (t *CountWordsTool) Description() string {
	return "Count words, characters and lines in a text. Args: text"
}
func (t *CountWordsTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"text": {Type: "string", Description: "Text to analyze"},
		},
		[]string{"text"},
	)
}

func (t *CountWordsTool) Execute(ctx context.Context, args map[string]string) (string, error) {
	text, ok := args["text"]
	if !ok {
		return "", domain.Rejected("missing argument: text")
	}
	words := len(strings.Fields(text))
	chars := utf8.RuneCountInString(text)
	lines := strings.Count(text, "\n") + 1
	return fmt.Sprintf("Text statistics:\n- Words: %d\n- Characters: %d\n- Lines: %d", words, chars, lines), nil
}

var (
	_ domain.Tool = (*DateTimeTool)(nil)
	_ domain.Tool = (*CountWordsTool)(nil)
)
