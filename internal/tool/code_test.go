package tool

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"testing"
	"time"

	"toolchat/internal/domain"
)

func shCodeTool(t *testing.T, timeout time.Duration) *CodeTool {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	return NewCodeTool(CodeConfig{Interpreter: []string{"sh", "-c"}, Timeout: timeout, MaxOutput: 50})
}

func TestCodeTool_Denylist(t *testing.T) {
	tool := NewCodeTool(CodeConfig{})
	for _, code := range []string{"import os\nprint(1)", "import sys", "exec('x')", "eval('1')", "print(__name__)"} {
		_, err := tool.Execute(context.Background(), map[string]string{"code": code})
		if !errors.Is(err, domain.ErrInputRejected) {
			t.Errorf("%q: expected input_rejected, got %v", code, err)
		}
	}
}

func TestCodeTool_RunsAndCapturesOutput(t *testing.T) {
	tool := shCodeTool(t, 5*time.Second)
	out, err := tool.Execute(context.Background(), map[string]string{"code": "echo out; echo err 1>&2"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "out") || !strings.Contains(out, "err") {
		t.Fatalf("expected combined stdout/stderr, got %q", out)
	}
}

func TestCodeTool_TruncatesOutput(t *testing.T) {
	tool := shCodeTool(t, 5*time.Second)
	out, err := tool.Execute(context.Background(), map[string]string{"code": "i=0; while [ $i -lt 100 ]; do printf x; i=$((i+1)); done"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if strings.Count(out, "x") != 50 || !strings.Contains(out, "truncated") {
		t.Fatalf("expected 50 chars and truncation marker, got %q", out)
	}
}

func TestCodeTool_NonZeroExit(t *testing.T) {
	tool := shCodeTool(t, 5*time.Second)
	out, err := tool.Execute(context.Background(), map[string]string{"code": "echo nope; exit 3"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "exit status 3") {
		t.Fatalf("expected exit status in output, got %q", out)
	}
}

func TestCodeTool_InfiniteLoopTimesOut(t *testing.T) {
	tool := shCodeTool(t, 500*time.Millisecond)

	start := time.Now()
	_, err := tool.Execute(context.Background(), map[string]string{"code": "while true; do :; done"})
	elapsed := time.Since(start)

	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected 'timed out' in message, got %q", err.Error())
	}
	if elapsed > 3*time.Second {
		t.Fatalf("execution was not bounded: took %s", elapsed)
	}
}

func TestCodeTool_MissingInterpreter(t *testing.T) {
	tool := NewCodeTool(CodeConfig{Interpreter: []string{"definitely-not-an-interpreter-xyz", "-c"}})
	_, err := tool.Execute(context.Background(), map[string]string{"code": "print(1)"})
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected backend_unavailable, got %v", err)
	}
}

func TestDockerSandbox_Args(t *testing.T) {
	ds := NewDockerSandbox(DockerSandboxConfig{Enabled: true})
	args := strings.Join(ds.dockerArgs("c1", []string{"python3", "-c", "print(1)"}), " ")
	for _, want := range []string{"--network none", "--name c1", "--read-only", "python:3-alpine python3 -c print(1)"} {
		if !strings.Contains(args, want) {
			t.Errorf("expected %q in %q", want, args)
		}
	}
	if (&DockerSandbox{}).IsEnabled() {
		t.Error("zero sandbox should be disabled")
	}
}
