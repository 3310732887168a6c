package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"toolchat/internal/domain"
)

// CommandDef declares a tool backed by an external command. Args may
// contain {{name}} placeholders filled from the call's arguments.
type CommandDef struct {
	Name           string   `yaml:"name" toml:"name"`
	Description    string   `yaml:"description" toml:"description"`
	Command        string   `yaml:"command" toml:"command"`
	Args           []string `yaml:"args" toml:"args"`
	Param          string   `yaml:"param" toml:"param"` // parameter a bare directive argument maps to
	TimeoutSeconds int      `yaml:"timeoutSeconds" toml:"timeout_seconds"`
	MaxOutput      int      `yaml:"maxOutput" toml:"max_output"`
}

func (d CommandDef) validate() error {
	if d.Name == "" {
		return fmt.Errorf("tool definition has no name")
	}
	for _, r := range d.Name {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return fmt.Errorf("tool name %q must be a word identifier", d.Name)
		}
	}
	if d.Command == "" {
		return fmt.Errorf("tool %q has no command", d.Name)
	}
	return nil
}

// CommandTool runs a CommandDef. The command is executed directly, never
// through a shell, so argument values cannot inject extra commands.
type CommandTool struct {
	def     CommandDef
	workDir string
}

func NewCommandTool(def CommandDef, workDir string) (*CommandTool, error) {
	if err := def.validate(); err != nil {
		return nil, err
	}
	if def.Description == "" {
		def.Description = "Run " + def.Command
	}
	return &CommandTool{def: def, workDir: workDir}, nil
}

func (t *CommandTool) Name() string        { return t.def.Name }
func (t *CommandTool) Description() string { return t.def.Description }
func (t *CommandTool) Parameters() map[string]any {
	props := map[string]Param{}
	for _, name := range t.placeholders() {
		props[name] = Param{Type: "string", Description: "value for {{" + name + "}}"}
	}
	return ToolParameters(props, nil)
}

// Def returns the definition the tool was built from.
func (t *CommandTool) Def() CommandDef { return t.def }

func (t *CommandTool) Execute(ctx context.Context, args map[string]string) (string, error) {
	argv := []string{t.def.Command}
	for _, a := range t.def.Args {
		argv = append(argv, expandPlaceholders(a, args))
	}
	timeout := time.Duration(t.def.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultCodeTimeout
	}
	maxOutput := t.def.MaxOutput
	if maxOutput <= 0 {
		maxOutput = 2000
	}

	res, err := runProcess(ctx, argv, t.workDir, timeout, maxOutput)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("%s exited with status %d: %s", t.def.Command, res.ExitCode, strings.TrimSpace(res.Output))
	}
	return strings.TrimSpace(res.Output), nil
}

func (t *CommandTool) placeholders() []string {
	var names []string
	seen := map[string]bool{}
	for _, a := range t.def.Args {
		rest := a
		for {
			i := strings.Index(rest, "{{")
			if i < 0 {
				break
			}
			j := strings.Index(rest[i:], "}}")
			if j < 0 {
				break
			}
			name := strings.TrimSpace(rest[i+2 : i+j])
			if name != "" && !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
			rest = rest[i+j+2:]
		}
	}
	return names
}

// expandPlaceholders fills {{name}} from args in one left-to-right pass, so
// substituted values are never expanded again. Unknown names stay as written.
func expandPlaceholders(s string, args map[string]string) string {
	var b strings.Builder
	for {
		i := strings.Index(s, "{{")
		if i < 0 {
			break
		}
		j := strings.Index(s[i:], "}}")
		if j < 0 {
			break
		}
		b.WriteString(s[:i])
		if v, ok := args[strings.TrimSpace(s[i+2:i+j])]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(s[i : i+j+2])
		}
		s = s[i+j+2:]
	}
	b.WriteString(s)
	return b.String()
}

var _ domain.Tool = (*CommandTool)(nil)
