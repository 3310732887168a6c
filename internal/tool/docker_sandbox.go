package tool

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/google/uuid"
)

// DockerSandboxConfig configures the Docker sandbox.
type DockerSandboxConfig struct {
	Enabled   bool
	Image     string // Docker image providing the interpreter (default: "python:3-alpine")
	MaxMemory string // e.g., "256m"
	MaxCPU    string // e.g., "0.5"
	Logger    *slog.Logger
}

// DockerSandbox executes interpreter processes inside throwaway containers.
type DockerSandbox struct {
	enabled   bool
	image     string
	maxMemory string
	maxCPU    string
	logger    *slog.Logger
}

// NewDockerSandbox creates a new Docker sandbox executor.
func NewDockerSandbox(cfg DockerSandboxConfig) *DockerSandbox {
	if cfg.Image == "" {
		cfg.Image = "python:3-alpine"
	}
	if cfg.MaxMemory == "" {
		cfg.MaxMemory = "256m"
	}
	if cfg.MaxCPU == "" {
		cfg.MaxCPU = "0.5"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &DockerSandbox{
		enabled:   cfg.Enabled,
		image:     cfg.Image,
		maxMemory: cfg.MaxMemory,
		maxCPU:    cfg.MaxCPU,
		logger:    cfg.Logger,
	}
}

// IsEnabled returns whether the sandbox is enabled.
func (ds *DockerSandbox) IsEnabled() bool {
	return ds != nil && ds.enabled
}

// dockerArgs builds the `docker run` argument list for argv.
func (ds *DockerSandbox) dockerArgs(name string, argv []string) []string {
	args := []string{
		"run", "--rm",
		"--name", name,
		"--network", "none",
		"--memory", ds.maxMemory,
		"--cpus", ds.maxCPU,
		"--pids-limit", "100",
		"--read-only",
		"--tmpfs", "/tmp:rw,size=64m",
		ds.image,
	}
	return append(args, argv...)
}

// Run executes argv in a new container. On timeout the container is
// force-removed in addition to killing the docker client.
func (ds *DockerSandbox) Run(ctx context.Context, argv []string, timeout time.Duration, maxOutput int) (processResult, error) {
	if !ds.IsEnabled() {
		return processResult{}, fmt.Errorf("docker sandbox is disabled")
	}
	name := "toolchat-" + uuid.NewString()
	ds.logger.Info("sandbox executing", "container", name, "image", ds.image)

	res, err := runProcess(ctx, append([]string{"docker"}, ds.dockerArgs(name, argv)...), "", timeout, maxOutput)
	if err != nil {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if rmErr := exec.CommandContext(cleanupCtx, "docker", "rm", "-f", name).Run(); rmErr != nil {
			ds.logger.Debug("sandbox cleanup", "container", name, "err", rmErr)
		}
	}
	return res, err
}
