package tool

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"toolchat/internal/domain"

	"github.com/dustin/go-humanize"
)

const (
	defaultReadPreview = 500
	defaultListLimit   = 20
)

// safeName reduces path to its final segment so writes cannot leave the
// safe directory. Both separators are stripped regardless of platform.
func safeName(path string) (string, error) {
	path = strings.TrimSpace(path)
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		path = path[i+1:]
	}
	if path == "" || path == "." || path == ".." {
		return "", domain.Rejected("path %q has no usable file name", path)
	}
	return path, nil
}

// --- ReadFileTool ---

// ReadFileTool returns a preview of a text file.
type ReadFileTool struct {
	previewChars int
}

func NewReadFileTool(previewChars int) *ReadFileTool {
	if previewChars <= 0 {
		previewChars = defaultReadPreview
	}
	return &ReadFileTool{previewChars: previewChars}
}

func (t *ReadFileTool) Name() string { return "read_file" }
func (t *ReadFileTool) Description() string {
	return "Read the contents of a file (first characters only). Args: path"
}
func (t *ReadFileTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"path": {Type: "string", Description: "File path to read"},
		},
		[]string{"path"},
	)
}

func (t *ReadFileTool) Execute(ctx context.Context, args map[string]string) (string, error) {
	path, err := requireArg(args, "path")
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("file %q not found", path)
		}
		return "", fmt.Errorf("read file: %w", err)
	}

	content := string(data)
	header := fmt.Sprintf("Contents of %q (%s):\n", path, humanize.Bytes(uint64(len(data))))
	if utf8.RuneCountInString(content) > t.previewChars {
		return header + string([]rune(content)[:t.previewChars]) + "...", nil
	}
	return header + content, nil
}

// --- WriteFileTool ---

// WriteFileTool writes content into the safe directory. Directory
// components of the requested path are discarded.
type WriteFileTool struct {
	safeDir string
}

func NewWriteFileTool(safeDir string) *WriteFileTool {
	return &WriteFileTool{safeDir: safeDir}
}

func (t *WriteFileTool) Name() string { return "write_file" }
func (t *WriteFileTool) Description() string {
	return "Write text to a file in the workspace directory. Args: path, content"
}
func (t *WriteFileTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"path":    {Type: "string", Description: "File name; directories are ignored"},
			"content": {Type: "string", Description: "Content to write to the file"},
		},
		[]string{"path", "content"},
	)
}

func (t *WriteFileTool) Execute(ctx context.Context, args map[string]string) (string, error) {
	name, err := safeName(args["path"])
	if err != nil {
		return "", err
	}
	content := args["content"]

	if err := os.MkdirAll(t.safeDir, 0o755); err != nil {
		return "", fmt.Errorf("create safe directory: %w", err)
	}
	resolved := filepath.Join(t.safeDir, name)
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return fmt.Sprintf("Wrote %d characters to %s", utf8.RuneCountInString(content), resolved), nil
}

// --- ListDirTool ---

// ListDirTool lists the first entries of a directory.
type ListDirTool struct {
	limit int
}

func NewListDirTool(limit int) *ListDirTool {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return &ListDirTool{limit: limit}
}

func (t *ListDirTool) Name() string { return "list_directory" }
func (t *ListDirTool) Description() string {
	return "List files and directories at a path. Args: path (default '.')"
}
func (t *ListDirTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"path": {Type: "string", Description: "Directory path to list (default '.')"},
		},
		nil,
	)
}

func (t *ListDirTool) Execute(ctx context.Context, args map[string]string) (string, error) {
	path := strings.TrimSpace(args["path"])
	if path == "" {
		path = "."
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("directory %q not found", path)
		}
		return "", fmt.Errorf("list dir: %w", err)
	}

	lines := []string{fmt.Sprintf("Contents of %q:", path)}
	for i, e := range entries {
		if i >= t.limit {
			lines = append(lines, fmt.Sprintf("... and %d more", len(entries)-t.limit))
			break
		}
		if e.IsDir() {
			lines = append(lines, "[dir]  "+e.Name())
			continue
		}
		size := ""
		if info, err := e.Info(); err == nil {
			size = " (" + humanize.Bytes(uint64(info.Size())) + ")"
		}
		lines = append(lines, "[file] "+e.Name()+size)
	}
	return strings.Join(lines, "\n"), nil
}

// Compile-time interface checks.
var (
	_ domain.Tool = (*ReadFileTool)(nil)
	_ domain.Tool = (*WriteFileTool)(nil)
	_ domain.Tool = (*ListDirTool)(nil)
)
