package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"toolchat/internal/agent"
	"toolchat/internal/channel"
	"toolchat/internal/domain"
	"toolchat/internal/memory"
	"toolchat/internal/provider"
	"toolchat/internal/tracing"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket chat API",
		Long:  "Serves /api/chat, /api/tools, /api/health, /api/chat/ws and /metrics until interrupted.",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Tools.SafeDir, 0o755); err != nil {
		return fmt.Errorf("create safe directory: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Enabled:        cfg.Tracing.Enabled,
		Stdout:         cfg.Tracing.Stdout,
		ServiceVersion: version,
	})
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}

	gen, err := provider.New(cfg.Provider, logger)
	if err != nil {
		return err
	}
	if err := gen.Healthy(ctx); err != nil {
		logger.Warn("model backend unhealthy at startup", "model", gen.Name(), "err", err)
	} else {
		logger.Info("model backend healthy", "model", gen.Name())
	}

	// Left as a nil interface when history is disabled.
	var store domain.ConversationStore
	var retention *memory.Retention
	if cfg.Memory.Enabled {
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
		retention = memory.NewRetention(s, cfg.Memory.RetentionDays, logger)
	}

	policy, err := agent.ParseMarkerPolicy(cfg.Tools.MarkerPolicy)
	if err != nil {
		return err
	}
	reg, parser := buildTools(cfg, logger)
	logger.Info("tools registered", "tools", reg.Names())

	chat := agent.NewChatService(agent.ChatConfig{
		Generator:     gen,
		Tools:         reg,
		Store:         store,
		Parser:        parser,
		MarkerPolicy:  policy,
		MaxConcurrent: cfg.General.MaxConcurrentRequests,
		Logger:        logger,
	})

	server := channel.NewHTTPServer(channel.HTTPConfig{
		Addr:           cfg.Server.Addr(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Chat:           chat,
		Model:          gen,
		Store:          store,
		Logger:         logger,
	})

	if retention != nil && retention.Enabled() {
		if _, err := retention.Purge(ctx); err != nil {
			logger.Warn("initial retention purge failed", "err", err)
		}
		if err := retention.Start(cfg.Memory.PurgeSchedule); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})
	if retention != nil {
		g.Go(func() error {
			<-gctx.Done()
			retention.Stop()
			return nil
		})
	}

	logger.Info("toolchat started. Press Ctrl+C to stop.", "version", version)
	err = g.Wait()

	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if terr := shutdownTracing(shutdownCtx); terr != nil {
		logger.Warn("tracing shutdown failed", "err", terr)
	}
	return err
}
