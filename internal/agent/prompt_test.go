package agent

import (
	"strings"
	"testing"

	"toolchat/internal/domain"
)

type staticLister []domain.ToolInfo

func (s staticLister) List() []domain.ToolInfo { return s }

func TestPromptBuilder_WithTools(t *testing.T) {
	pb := NewPromptBuilder(staticLister{
		{Name: "calculator", Description: "math"},
		{Name: "read_file", Description: "read"},
	})
	turns := []domain.Turn{{Role: "user", Text: "hi"}, {Role: "assistant", Text: "hello"}}

	got := pb.Build(turns, true)
	for _, want := range []string{"- calculator: math\n- read_file: read", "[TOOL:name]arguments[/TOOL]", "[TOOL:calculator]2+2[/TOOL]"} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q:\n%s", want, got)
		}
	}
	if !strings.HasSuffix(got, "\n\nuser: hi\nassistant: hello") {
		t.Errorf("turns should follow the preamble:\n%s", got)
	}
	if strings.Index(got, "calculator: math") > strings.Index(got, "read_file: read") {
		t.Error("tools must be listed in registry order")
	}
}

func TestPromptBuilder_WithoutTools(t *testing.T) {
	pb := NewPromptBuilder(staticLister{{Name: "calculator", Description: "math"}})
	got := pb.Build([]domain.Turn{{Role: "user", Text: "hi"}}, false)
	if got != "user: hi" {
		t.Fatalf("got %q", got)
	}
}
