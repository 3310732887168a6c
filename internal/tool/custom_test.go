package tool

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"toolchat/internal/domain"
)

func TestCommandDef_Validate(t *testing.T) {
	tests := []struct {
		def     CommandDef
		wantErr bool
	}{
		{CommandDef{Name: "echo_it", Command: "echo"}, false},
		{CommandDef{Command: "echo"}, true},
		{CommandDef{Name: "bad name", Command: "echo"}, true},
		{CommandDef{Name: "no_cmd"}, true},
	}
	for _, tt := range tests {
		if err := tt.def.validate(); (err != nil) != tt.wantErr {
			t.Errorf("validate(%+v) = %v, wantErr %v", tt.def, err, tt.wantErr)
		}
	}
}

func TestCommandTool_PlaceholdersAndExecute(t *testing.T) {
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not available")
	}
	ct, err := NewCommandTool(CommandDef{
		Name:    "greet",
		Command: "echo",
		Args:    []string{"hello", "{{who}}", "{{who}}-{{suffix}}"},
	}, "")
	if err != nil {
		t.Fatalf("NewCommandTool: %v", err)
	}
	if got := strings.Join(ct.placeholders(), ","); got != "who,suffix" {
		t.Errorf("placeholders = %q", got)
	}
	if ct.Description() != "Run echo" {
		t.Errorf("default description = %q", ct.Description())
	}

	out, err := ct.Execute(context.Background(), map[string]string{"who": "bob; rm -rf /", "suffix": "x"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "hello bob; rm -rf / bob; rm -rf /-x" {
		t.Fatalf("got %q", out)
	}
}

func TestExpandPlaceholders(t *testing.T) {
	args := map[string]string{"a": "{{b}}", "b": "x", "c": "{{a}}"}
	tests := []struct {
		in   string
		want string
	}{
		{"{{a}}-{{b}}", "{{b}}-x"},
		{"{{c}}/{{a}}", "{{a}}/{{b}}"},
		{"{{ b }}", "x"},
		{"{{missing}} {{b}}", "{{missing}} x"},
		{"open {{b", "open {{b"},
	}
	for _, tt := range tests {
		if got := expandPlaceholders(tt.in, args); got != tt.want {
			t.Errorf("expandPlaceholders(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCommandTool_NonZeroExitFails(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}
	ct, _ := NewCommandTool(CommandDef{Name: "fail", Command: "false"}, "")
	reg := NewRegistry(testLogger())
	reg.Register(ct)

	res := reg.Invoke(context.Background(), "fail", nil)
	if !res.Failed() || !errors.Is(res.Err, domain.ErrExecutionFailed) {
		t.Fatalf("expected execution_failed, got %+v", res)
	}
}

func TestLoadCommandDefs(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"uptime.yaml": "name: uptime\ndescription: Host uptime\ncommand: uptime\n",
		"greet.toml":  "name = \"greet\"\ncommand = \"echo\"\nargs = [\"hi\", \"{{name}}\"]\nparam = \"name\"\ntimeout_seconds = 2\n",
		"noname.yml":  "command: date\n",
		"broken.yaml": "name: [unterminated\n",
		"invalid.yml": "name: nocommand\n",
		"notes.txt":   "ignored",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	defs, err := LoadCommandDefs(dir, testLogger())
	if err != nil {
		t.Fatalf("LoadCommandDefs: %v", err)
	}
	byName := map[string]CommandDef{}
	for _, d := range defs {
		byName[d.Name] = d
	}
	if len(byName) != 3 {
		t.Fatalf("expected 3 definitions, got %+v", defs)
	}
	if g := byName["greet"]; g.Param != "name" || g.TimeoutSeconds != 2 || len(g.Args) != 2 {
		t.Errorf("toml definition decoded wrong: %+v", g)
	}
	if u := byName["uptime"]; u.Description != "Host uptime" {
		t.Errorf("yaml definition decoded wrong: %+v", u)
	}
	if _, ok := byName["noname"]; !ok {
		t.Error("file name should be used when name is absent")
	}
}

func TestLoadCommandDefs_MissingDir(t *testing.T) {
	defs, err := LoadCommandDefs(filepath.Join(t.TempDir(), "nope"), testLogger())
	if err != nil || defs != nil {
		t.Fatalf("expected nothing, got %v %v", defs, err)
	}
}

func TestRegisterCommands_AfterBuiltins(t *testing.T) {
	reg := NewBuiltinRegistry(BuiltinConfig{SafeDir: t.TempDir()}, testLogger())
	added := reg.RegisterCommands([]CommandDef{
		{Name: "mytool", Command: "echo"},
		{Name: "", Command: "echo"},
	}, "")
	if len(added) != 1 {
		t.Fatalf("expected 1 tool added, got %d", len(added))
	}
	names := reg.Names()
	if names[len(names)-1] != "mytool" {
		t.Fatalf("custom tool should follow built-ins, got %v", names)
	}
}
