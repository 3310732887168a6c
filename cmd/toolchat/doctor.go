package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"toolchat/internal/config"
	"toolchat/internal/provider"
	"toolchat/internal/tool"

	"github.com/spf13/cobra"
)

// report collects check outcomes for the doctor command.
type report struct {
	out                    io.Writer
	passed, warned, failed int
}

func (r *report) pass(check, detail string) {
	r.passed++
	fmt.Fprintf(r.out, "  [PASS] %-16s %s\n", check, detail)
}

func (r *report) warn(check, detail string) {
	r.warned++
	fmt.Fprintf(r.out, "  [WARN] %-16s %s\n", check, detail)
}

func (r *report) fail(check, detail string) {
	r.failed++
	fmt.Fprintf(r.out, "  [FAIL] %-16s %s\n", check, detail)
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on the installation",
		Long: `Verifies the configuration, safe directory, conversation database, listen
port, code interpreter, custom tools and model backend.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := &report{out: cmd.OutOrStdout()}
			fmt.Fprintf(r.out, "toolchat doctor v%s\n\n", version)

			cfg, err := loadConfig()
			if err != nil {
				r.fail("Config", err.Error())
				return fmt.Errorf("1 check(s) failed")
			}
			if _, err := os.Stat(resolveConfigPath()); err != nil {
				r.warn("Config", "no file at "+resolveConfigPath()+", using defaults")
			} else {
				r.pass("Config", resolveConfigPath())
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			runChecks(ctx, cfg, r)

			fmt.Fprintf(r.out, "\nResults: %d passed, %d warnings, %d failed\n", r.passed, r.warned, r.failed)
			if r.failed > 0 {
				return fmt.Errorf("%d check(s) failed", r.failed)
			}
			return nil
		},
	}
}

func runChecks(ctx context.Context, cfg *config.Config, r *report) {
	if err := checkWritableDir(cfg.Tools.SafeDir); err != nil {
		r.fail("Safe directory", err.Error())
	} else {
		r.pass("Safe directory", cfg.Tools.SafeDir)
	}

	if !cfg.Memory.Enabled {
		r.warn("Database", "conversation history disabled")
	} else if err := checkDatabase(ctx, cfg); err != nil {
		r.fail("Database", err.Error())
	} else {
		r.pass("Database", cfg.Memory.DBPath)
	}

	if err := checkPort(cfg.Server.Addr()); err != nil {
		r.warn("Listen address", fmt.Sprintf("%s may be in use: %v", cfg.Server.Addr(), err))
	} else {
		r.pass("Listen address", cfg.Server.Addr()+" available")
	}

	code := cfg.Tools.Code
	if code.Docker.Enabled {
		if path, err := exec.LookPath("docker"); err != nil {
			r.fail("Code sandbox", "docker sandbox enabled but docker is not on PATH")
		} else {
			r.pass("Code sandbox", path+" ("+code.Docker.Image+")")
		}
	} else if path, err := exec.LookPath(code.Interpreter[0]); err != nil {
		r.warn("Interpreter", code.Interpreter[0]+" not found; execute_code will fail")
	} else {
		r.pass("Interpreter", path)
	}

	defs, err := tool.LoadCommandDefs(cfg.Tools.CustomDir, logger)
	switch {
	case err != nil:
		r.fail("Custom tools", err.Error())
	case len(defs) == 0:
		r.pass("Custom tools", "none")
	default:
		r.pass("Custom tools", fmt.Sprintf("%d in %s", len(defs), cfg.Tools.CustomDir))
	}

	gen, err := provider.New(cfg.Provider, logger)
	if err != nil {
		r.fail("Model backend", err.Error())
		return
	}
	if err := gen.Healthy(ctx); err != nil {
		r.warn("Model backend", fmt.Sprintf("%s unavailable: %v", gen.Name(), err))
	} else {
		r.pass("Model backend", gen.Name())
	}
}

func checkWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	probe, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return fmt.Errorf("%s is not writable: %w", dir, err)
	}
	probe.Close()
	return os.Remove(probe.Name())
}

func checkDatabase(ctx context.Context, cfg *config.Config) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("cannot ping %s: %w", filepath.Base(cfg.Memory.DBPath), err)
	}
	return nil
}

func checkPort(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return ln.Close()
}
