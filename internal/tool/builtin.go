package tool

import (
	"log/slog"
	"time"
)

// BuiltinConfig carries the knobs of the built-in tool set.
type BuiltinConfig struct {
	SafeDir        string
	ReadPreview    int
	ListLimit      int
	SearchEndpoint string
	SearchTimeout  time.Duration
	Code           CodeConfig
}

// NewBuiltinRegistry returns a registry holding the built-in tools in
// their fixed declaration order.
func NewBuiltinRegistry(cfg BuiltinConfig, logger *slog.Logger) *Registry {
	reg := NewRegistry(logger)
	reg.Register(NewReadFileTool(cfg.ReadPreview))
	reg.Register(NewWriteFileTool(cfg.SafeDir))
	reg.Register(NewListDirTool(cfg.ListLimit))
	reg.Register(NewWebSearchTool(cfg.SearchEndpoint, cfg.SearchTimeout))
	reg.Register(NewCalculatorTool())
	reg.Register(NewCodeTool(cfg.Code))
	reg.Register(NewSysInfoTool())
	reg.Register(NewDateTimeTool())
	reg.Register(NewCountWordsTool())
	return reg
}

// RegisterCommands adds command-backed tools after the built-ins. Invalid
// definitions are logged and skipped.
func (r *Registry) RegisterCommands(defs []CommandDef, workDir string) []*CommandTool {
	var added []*CommandTool
	for _, def := range defs {
		t, err := NewCommandTool(def, workDir)
		if err != nil {
			r.logger.Warn("skipping custom tool", "name", def.Name, "err", err)
			continue
		}
		r.Register(t)
		added = append(added, t)
	}
	return added
}
