package agent

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"toolchat/internal/domain"
)

const (
	openPrefix = "[TOOL:"
	closeTag   = "[/TOOL]"

	// defaultParam receives the bare argument of tools without a table entry.
	defaultParam = "query"
)

// ArgMapper turns the bare (positional) argument text of a directive into
// named arguments.
type ArgMapper func(text string) map[string]string

// Single maps the whole trimmed text to one parameter.
func Single(param string) ArgMapper {
	return func(text string) map[string]string {
		return map[string]string{param: strings.TrimSpace(text)}
	}
}

// pathAndContent splits once on "|" into path and content.
func pathAndContent(text string) map[string]string {
	path, content, _ := strings.Cut(text, "|")
	return map[string]string{
		"path":    strings.TrimSpace(path),
		"content": strings.TrimSpace(content),
	}
}

// Parser extracts [TOOL:name]args[/TOOL] directives from generated text.
// The positional table is set up before use; Parse itself is read-only
// and safe for concurrent callers.
type Parser struct {
	positional map[string]ArgMapper
}

func NewParser() *Parser {
	return &Parser{positional: map[string]ArgMapper{
		"read_file":      Single("path"),
		"write_file":     pathAndContent,
		"list_directory": Single("path"),
		"web_search":     Single("query"),
		"calculator":     Single("expression"),
		"execute_code":   Single("code"),
		"count_words":    Single("text"),
	}}
}

// SetPositional registers how a bare argument maps to named arguments for
// tool. Call it during setup only.
func (p *Parser) SetPositional(tool string, m ArgMapper) {
	p.positional[tool] = m
}

// directive is one matched occurrence with its byte span in the source.
type directive struct {
	name       string
	args       string
	start, end int
}

// scan finds all non-overlapping directives left to right. Arguments end
// at the first closing tag. An opening tag without a valid name is skipped;
// an opening tag with no closing tag after it ends the scan, since no later
// directive could be closed either.
func scan(text string) []directive {
	var out []directive
	pos := 0
	for pos < len(text) {
		i := strings.Index(text[pos:], openPrefix)
		if i < 0 {
			break
		}
		start := pos + i
		nameStart := start + len(openPrefix)
		nameEnd := nameStart
		for nameEnd < len(text) {
			r, size := utf8.DecodeRuneInString(text[nameEnd:])
			if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				break
			}
			nameEnd += size
		}
		if nameEnd == nameStart || nameEnd >= len(text) || text[nameEnd] != ']' {
			pos = start + 1
			continue
		}
		argStart := nameEnd + 1
		j := strings.Index(text[argStart:], closeTag)
		if j < 0 {
			break
		}
		out = append(out, directive{
			name:  text[nameStart:nameEnd],
			args:  text[argStart : argStart+j],
			start: start,
			end:   argStart + j + len(closeTag),
		})
		pos = argStart + j + len(closeTag)
	}
	return out
}

// Parse returns the directives in text as tool calls, in source order.
// It never executes anything.
func (p *Parser) Parse(text string) []domain.ToolCall {
	found := scan(text)
	if len(found) == 0 {
		return nil
	}
	calls := make([]domain.ToolCall, 0, len(found))
	for _, d := range found {
		calls = append(calls, domain.ToolCall{Tool: d.name, Args: p.decodeArgs(d.name, d.args)})
	}
	return calls
}

func (p *Parser) decodeArgs(tool, text string) map[string]string {
	if strings.Contains(text, "=") {
		args := map[string]string{}
		for _, pair := range strings.Split(text, "|") {
			key, value, ok := strings.Cut(pair, "=")
			if !ok {
				continue
			}
			args[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
		return args
	}
	if strings.TrimSpace(text) == "" {
		return map[string]string{}
	}
	if m, ok := p.positional[tool]; ok {
		return m(text)
	}
	return Single(defaultParam)(text)
}

// StripDirectives removes every directive from text and trims the result.
func StripDirectives(text string) string {
	found := scan(text)
	if len(found) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, d := range found {
		b.WriteString(text[last:d.start])
		last = d.end
	}
	b.WriteString(text[last:])
	return strings.TrimSpace(b.String())
}
