package agent

import (
	"reflect"
	"testing"

	"toolchat/internal/domain"
)

func TestParse_NoDirectives(t *testing.T) {
	p := NewParser()
	for _, text := range []string{"", "plain answer", "[TOOL:]x[/TOOL]", "[TOOL calc]2[/TOOL]", "[/TOOL]"} {
		if calls := p.Parse(text); len(calls) != 0 {
			t.Errorf("Parse(%q) = %+v, want none", text, calls)
		}
	}
}

func TestParse_Positional(t *testing.T) {
	p := NewParser()
	tests := []struct {
		text string
		want domain.ToolCall
	}{
		{"[TOOL:calculator] 2+2 [/TOOL]", domain.ToolCall{Tool: "calculator", Args: map[string]string{"expression": "2+2"}}},
		{"[TOOL:read_file]notes.txt[/TOOL]", domain.ToolCall{Tool: "read_file", Args: map[string]string{"path": "notes.txt"}}},
		{"[TOOL:write_file]a.txt | hello[/TOOL]", domain.ToolCall{Tool: "write_file", Args: map[string]string{"path": "a.txt", "content": "hello"}}},
		{"[TOOL:write_file]a.txt[/TOOL]", domain.ToolCall{Tool: "write_file", Args: map[string]string{"path": "a.txt", "content": ""}}},
		{"[TOOL:web_search]golang[/TOOL]", domain.ToolCall{Tool: "web_search", Args: map[string]string{"query": "golang"}}},
		{"[TOOL:count_words]one two[/TOOL]", domain.ToolCall{Tool: "count_words", Args: map[string]string{"text": "one two"}}},
		{"[TOOL:execute_code]print(1)[/TOOL]", domain.ToolCall{Tool: "execute_code", Args: map[string]string{"code": "print(1)"}}},
		{"[TOOL:get_weather]Paris[/TOOL]", domain.ToolCall{Tool: "get_weather", Args: map[string]string{"query": "Paris"}}},
		{"[TOOL:get_datetime][/TOOL]", domain.ToolCall{Tool: "get_datetime", Args: map[string]string{}}},
	}
	for _, tt := range tests {
		calls := p.Parse(tt.text)
		if len(calls) != 1 {
			t.Errorf("Parse(%q): got %d calls", tt.text, len(calls))
			continue
		}
		if !reflect.DeepEqual(calls[0], tt.want) {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.text, calls[0], tt.want)
		}
	}
}

func TestParse_KeyValue(t *testing.T) {
	calls := NewParser().Parse("[TOOL:write_file] path = out.txt | content=a=b | junk [/TOOL]")
	want := map[string]string{"path": "out.txt", "content": "a=b"}
	if len(calls) != 1 || !reflect.DeepEqual(calls[0].Args, want) {
		t.Fatalf("got %+v, want args %v", calls, want)
	}
}

func TestParse_OrderAndNonGreedy(t *testing.T) {
	text := "First [TOOL:calculator]1+1[/TOOL], then [TOOL:read_file]a[/TOOL]\n" +
		"and [TOOL:count_words]line one\n[TOOL:x]inner[/TOOL] trailing [/TOOL]"
	calls := NewParser().Parse(text)
	got := make([]string, len(calls))
	for i, c := range calls {
		got[i] = c.Tool
	}
	want := []string{"calculator", "read_file", "count_words"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tools = %v, want %v", got, want)
	}
	if calls[2].Args["text"] != "line one\n[TOOL:x]inner" {
		t.Fatalf("argument should stop at first closing tag, got %q", calls[2].Args["text"])
	}
}

func TestParse_Unterminated(t *testing.T) {
	calls := NewParser().Parse("[TOOL:calculator]1+1[/TOOL] [TOOL:calculator]2+2 never closed")
	if len(calls) != 1 || calls[0].Args["expression"] != "1+1" {
		t.Fatalf("got %+v", calls)
	}
}

func TestParse_SkipsMalformedOpenTag(t *testing.T) {
	calls := NewParser().Parse("[TOOL:bad name]x[TOOL:calculator]3*3[/TOOL]")
	if len(calls) != 1 || calls[0].Tool != "calculator" || calls[0].Args["expression"] != "3*3" {
		t.Fatalf("got %+v", calls)
	}
}

func TestParse_Multiline(t *testing.T) {
	calls := NewParser().Parse("[TOOL:execute_code]\nprint(1)\nprint(2)\n[/TOOL]")
	if len(calls) != 1 || calls[0].Args["code"] != "print(1)\nprint(2)" {
		t.Fatalf("got %+v", calls)
	}
}

func TestParser_SetPositional(t *testing.T) {
	p := NewParser()
	p.SetPositional("greet", Single("name"))
	calls := p.Parse("[TOOL:greet]bob[/TOOL]")
	if len(calls) != 1 || calls[0].Args["name"] != "bob" {
		t.Fatalf("got %+v", calls)
	}
}

func TestStripDirectives(t *testing.T) {
	tests := []struct{ in, want string }{
		{"no markers", "no markers"},
		{"Sum: [TOOL:calculator]2+2[/TOOL]", "Sum:"},
		{"a [TOOL:x]1[/TOOL] b [TOOL:y]2[/TOOL] c", "a  b  c"},
		{"keep [TOOL:x]unterminated", "keep [TOOL:x]unterminated"},
	}
	for _, tt := range tests {
		if got := StripDirectives(tt.in); got != tt.want {
			t.Errorf("StripDirectives(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
