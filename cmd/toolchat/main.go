package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"toolchat/internal/config"
	"toolchat/internal/provider"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "toolchat",
		Short: "toolchat: local chat backend with model-invoked tools",
		Long: `toolchat forwards conversations to a locally hosted language model and
runs the tools the model requests with [TOOL:name]arguments[/TOOL] directives.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.toolchat/config.json)")

	root.AddCommand(serveCmd())
	root.AddCommand(initCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(toolsCmd())
	root.AddCommand(parseCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

// loadConfig loads the effective configuration and switches the logger to
// the configured level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, err
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.General.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return cfg, nil
}

func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file and create the safe directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			if _, err := os.Stat(cfgPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
			}
			cfg := config.Defaults()
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			safeDir := config.ExpandPath(cfg.Tools.SafeDir)
			if err := os.MkdirAll(safeDir, 0o755); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath, "safe_dir", safeDir)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the model backend and the conversation database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "toolchat %s\n", version)
			fmt.Fprintf(out, "config:   %s\n", resolveConfigPath())

			gen, err := provider.New(cfg.Provider, logger)
			if err != nil {
				return err
			}
			if err := gen.Healthy(ctx); err != nil {
				fmt.Fprintf(out, "model:    %s UNAVAILABLE (%v)\n", gen.Name(), err)
			} else {
				fmt.Fprintf(out, "model:    %s ok\n", gen.Name())
			}

			if !cfg.Memory.Enabled {
				fmt.Fprintln(out, "database: disabled")
				return nil
			}
			store, err := openStore(cfg)
			if err != nil {
				fmt.Fprintf(out, "database: %s ERROR (%v)\n", cfg.Memory.DBPath, err)
				return nil
			}
			defer store.Close()
			if err := store.Ping(ctx); err != nil {
				fmt.Fprintf(out, "database: %s ERROR (%v)\n", cfg.Memory.DBPath, err)
			} else {
				fmt.Fprintf(out, "database: %s ok\n", cfg.Memory.DBPath)
			}
			return nil
		},
	}
}
