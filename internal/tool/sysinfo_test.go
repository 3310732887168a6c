package tool

import (
	"context"
	"runtime"
	"strings"
	"testing"
)

func TestSysInfoTool_Execute(t *testing.T) {
	tool := NewSysInfoTool()
	if tool.Name() != "system_info" {
		t.Errorf("Name: got %q", tool.Name())
	}
	out, err := tool.Execute(context.Background(), map[string]string{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, want := range []string{"- System: ", "- Release: ", "- Machine: ", "- Processor: ", "- Runtime: " + runtime.Version()} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestOrUnknown(t *testing.T) {
	if got := orUnknown("  "); got != unknown {
		t.Errorf("orUnknown(blank) = %q", got)
	}
	if got := orUnknown("x86_64"); got != "x86_64" {
		t.Errorf("orUnknown(value) = %q", got)
	}
	if got := firstNonEmpty("", "", "b", "c"); got != "b" {
		t.Errorf("firstNonEmpty = %q", got)
	}
}
