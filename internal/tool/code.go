package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"toolchat/internal/domain"
)

const (
	defaultCodeTimeout   = 5 * time.Second
	defaultCodeMaxOutput = 500
)

// codeDenylist is a substring filter, not a sandbox.
var codeDenylist = []string{"import os", "import sys", "exec", "eval", "__"}

// CodeConfig configures the execute_code tool.
type CodeConfig struct {
	Interpreter []string // argv prefix; the code is appended as the last argument
	WorkDir     string
	Timeout     time.Duration
	MaxOutput   int
	Sandbox     *DockerSandbox // optional; used when enabled
}

// CodeTool runs a snippet in a separate interpreter process.
type CodeTool struct {
	cfg CodeConfig
}

func NewCodeTool(cfg CodeConfig) *CodeTool {
	if len(cfg.Interpreter) == 0 {
		cfg.Interpreter = []string{"python3", "-c"}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultCodeTimeout
	}
	if cfg.MaxOutput <= 0 {
		cfg.MaxOutput = defaultCodeMaxOutput
	}
	return &CodeTool{cfg: cfg}
}

func (t *CodeTool) Name() string { return "execute_code" }
func (t *CodeTool) Description() string {
	return fmt.Sprintf("Run a short %s snippet and return its output (timeout %s). Args: code",
		t.cfg.Interpreter[0], t.cfg.Timeout)
}
func (t *CodeTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"code": {Type: "string", Description: "Source code to execute"},
		},
		[]string{"code"},
	)
}

func (t *CodeTool) Execute(ctx context.Context, args map[string]string) (string, error) {
	code := args["code"]
	if strings.TrimSpace(code) == "" {
		return "", domain.Rejected("missing argument: code")
	}
	for _, bad := range codeDenylist {
		if strings.Contains(code, bad) {
			return "", domain.Rejected("code contains forbidden construct %q", bad)
		}
	}

	argv := append(append([]string(nil), t.cfg.Interpreter...), code)

	var (
		res processResult
		err error
	)
	if t.cfg.Sandbox != nil && t.cfg.Sandbox.IsEnabled() {
		res, err = t.cfg.Sandbox.Run(ctx, argv, t.cfg.Timeout, t.cfg.MaxOutput)
	} else {
		res, err = runProcess(ctx, argv, t.cfg.WorkDir, t.cfg.Timeout, t.cfg.MaxOutput)
	}
	if err != nil {
		return "", err
	}

	out := "Output:\n" + res.Output
	if res.ExitCode != 0 {
		out += fmt.Sprintf("\n(exit status %d)", res.ExitCode)
	}
	return out, nil
}

var _ domain.Tool = (*CodeTool)(nil)
