package main

import (
	"fmt"
	"log/slog"

	"toolchat/internal/agent"
	"toolchat/internal/config"
	"toolchat/internal/memory"
	"toolchat/internal/tool"
)

// buildTools creates the registry with built-ins followed by custom
// command tools, and a parser that knows the custom tools' bare argument.
func buildTools(cfg *config.Config, logger *slog.Logger) (*tool.Registry, *agent.Parser) {
	code := cfg.Tools.Code
	sandbox := tool.NewDockerSandbox(tool.DockerSandboxConfig{
		Enabled:   code.Docker.Enabled,
		Image:     code.Docker.Image,
		MaxMemory: code.Docker.MaxMemory,
		MaxCPU:    code.Docker.MaxCPU,
		Logger:    logger,
	})

	reg := tool.NewBuiltinRegistry(tool.BuiltinConfig{
		SafeDir:        cfg.Tools.SafeDir,
		ReadPreview:    cfg.Tools.ReadPreviewChars,
		ListLimit:      cfg.Tools.ListLimit,
		SearchEndpoint: cfg.Tools.SearchEndpoint,
		SearchTimeout:  cfg.Tools.SearchTimeout(),
		Code: tool.CodeConfig{
			Interpreter: code.Interpreter,
			Timeout:     code.Timeout(),
			MaxOutput:   code.MaxOutputChars,
			Sandbox:     sandbox,
		},
	}, logger)

	parser := agent.NewParser()
	defs, err := tool.LoadCommandDefs(cfg.Tools.CustomDir, logger)
	if err != nil {
		logger.Warn("custom tools not loaded", "dir", cfg.Tools.CustomDir, "err", err)
		return reg, parser
	}
	for _, t := range reg.RegisterCommands(defs, cfg.Tools.SafeDir) {
		if p := t.Def().Param; p != "" {
			parser.SetPositional(t.Name(), agent.Single(p))
		}
	}
	if len(defs) > 0 {
		logger.Info("custom tools loaded", "dir", cfg.Tools.CustomDir, "count", len(defs))
	}
	return reg, parser
}

func openStore(cfg *config.Config) (*memory.SQLiteStore, error) {
	store, err := memory.NewSQLiteStore(cfg.Memory.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("memory store: %w", err)
	}
	return store, nil
}
