package agent

import (
	"strings"

	"toolchat/internal/domain"
)

// ToolLister is the discovery side of the registry.
type ToolLister interface {
	List() []domain.ToolInfo
}

// PromptBuilder flattens a conversation into a single prompt string for a
// completion-style model.
type PromptBuilder struct {
	tools ToolLister
}

func NewPromptBuilder(tools ToolLister) *PromptBuilder {
	return &PromptBuilder{tools: tools}
}

// SystemPrompt describes the available tools and the directive syntax.
func (p *PromptBuilder) SystemPrompt() string {
	var b strings.Builder
	b.WriteString("You are a helpful AI assistant with access to tools.\n\nAvailable tools:\n")
	for _, t := range p.tools.List() {
		b.WriteString("- ")
		b.WriteString(t.Name)
		b.WriteString(": ")
		b.WriteString(t.Description)
		b.WriteByte('\n')
	}
	b.WriteString("\nTo use a tool, write: [TOOL:name]arguments[/TOOL]\n")
	b.WriteString("Example: [TOOL:calculator]2+2[/TOOL]\n")
	b.WriteString("Named arguments are separated by |, e.g. [TOOL:write_file]path=notes.txt|content=hello[/TOOL]\n\n")
	b.WriteString("Always explain to the user what you are doing before using a tool.")
	return b.String()
}

// Build renders turns as "role: text" lines, preceded by the system prompt
// when tools are enabled.
func (p *PromptBuilder) Build(turns []domain.Turn, useTools bool) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, t.Role+": "+t.Text)
	}
	conversation := strings.Join(lines, "\n")
	if !useTools || p.tools == nil {
		return conversation
	}
	return p.SystemPrompt() + "\n\n" + conversation
}
