package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config is the root configuration for toolchat.
type Config struct {
	General  GeneralConfig  `json:"general"`
	Server   ServerConfig   `json:"server"`
	Provider ProviderConfig `json:"provider"`
	Tools    ToolsConfig    `json:"tools"`
	Memory   MemoryConfig   `json:"memory"`
	Tracing  TracingConfig  `json:"tracing"`
}

type GeneralConfig struct {
	LogLevel              string `json:"logLevel"`
	MaxConcurrentRequests int    `json:"maxConcurrentRequests"`
}

type ServerConfig struct {
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	AllowedOrigins []string `json:"allowedOrigins"`
}

// Addr is host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type ProviderConfig struct {
	Kind           string `json:"kind"` // "ollama" | "openai"
	APIBase        string `json:"apiBase,omitempty"`
	APIKey         string `json:"apiKey,omitempty"`
	Model          string `json:"model"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
	FailFast       bool   `json:"failFast,omitempty"` // return backend errors instead of degrading to text
}

type ToolsConfig struct {
	SafeDir              string         `json:"safeDir"`
	ReadPreviewChars     int            `json:"readPreviewChars"`
	ListLimit            int            `json:"listLimit"`
	SearchEndpoint       string         `json:"searchEndpoint,omitempty"`
	SearchTimeoutSeconds int            `json:"searchTimeoutSeconds"`
	CustomDir            string         `json:"customDir,omitempty"`
	MarkerPolicy         string         `json:"markerPolicy"` // "keep" | "strip"
	Code                 CodeToolConfig `json:"code"`
}

// SearchTimeout is the web_search timeout as a duration.
func (t ToolsConfig) SearchTimeout() time.Duration {
	return time.Duration(t.SearchTimeoutSeconds) * time.Second
}

type CodeToolConfig struct {
	Interpreter    []string     `json:"interpreter"`
	TimeoutSeconds int          `json:"timeoutSeconds"`
	MaxOutputChars int          `json:"maxOutputChars"`
	Docker         DockerConfig `json:"docker"`
}

// Timeout is the execute_code wall-clock limit as a duration.
func (c CodeToolConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type DockerConfig struct {
	Enabled   bool   `json:"enabled"`
	Image     string `json:"image,omitempty"`
	MaxMemory string `json:"maxMemory,omitempty"`
	MaxCPU    string `json:"maxCpu,omitempty"`
}

type MemoryConfig struct {
	Enabled       bool   `json:"enabled"`
	DBPath        string `json:"dbPath"`
	RetentionDays int    `json:"retentionDays"` // 0 keeps conversations forever
	PurgeSchedule string `json:"purgeSchedule"` // cron expression
}

type TracingConfig struct {
	Enabled bool `json:"enabled"`
	Stdout  bool `json:"stdout"`
}

// DefaultConfigDir returns the default config directory (~/.toolchat).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".toolchat"
	}
	return filepath.Join(home, ".toolchat")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// Load builds the effective configuration: .env in the working directory,
// then defaults, then the JSON file at path (skipped when it does not exist),
// then environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Defaults()
	path = ExpandPath(path)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	default:
		// Substitute environment variables: ${VAR} and ${VAR:-default}
		data = []byte(ExpandEnvVars(string(data)))
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
		}
	}

	ApplyEnv(cfg)
	cfg.Tools.SafeDir = ExpandPath(cfg.Tools.SafeDir)
	cfg.Tools.CustomDir = ExpandPath(cfg.Tools.CustomDir)
	cfg.Memory.DBPath = ExpandPath(cfg.Memory.DBPath)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// ApplyEnv applies the environment overrides recognized by the server.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("MCP_SAFE_DIR"); v != "" {
		cfg.Tools.SafeDir = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Server.AllowedOrigins = origins
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.Memory.DBPath = v
	}
	if v := os.Getenv("MODEL_NAME"); v != "" {
		cfg.Provider.Model = v
	}
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// ${VAR:-default} uses "default" when VAR is unset or empty; an unset
// variable without a default is left as written.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		hasDefault := len(groups) >= 3 && groups[2] != ""

		val, exists := os.LookupEnv(groups[1])
		if !exists || val == "" {
			if hasDefault {
				return groups[2]
			}
			return match
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values, reporting every
// problem at once.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.General.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}
	if cfg.General.MaxConcurrentRequests < 1 || cfg.General.MaxConcurrentRequests > 100 {
		errs = append(errs, "general.maxConcurrentRequests must be between 1 and 100")
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 0 and 65535")
	}

	switch cfg.Provider.Kind {
	case "ollama":
	case "openai":
		if cfg.Provider.APIBase == "" && cfg.Provider.APIKey == "" {
			errs = append(errs, "provider: openai needs apiBase (local server) or apiKey")
		}
	default:
		errs = append(errs, "provider.kind must be one of: ollama, openai")
	}
	if cfg.Provider.TimeoutSeconds < 1 {
		errs = append(errs, "provider.timeoutSeconds must be >= 1")
	}

	if cfg.Tools.SafeDir == "" {
		errs = append(errs, "tools.safeDir is required")
	}
	if cfg.Tools.SearchTimeoutSeconds < 1 || cfg.Tools.SearchTimeoutSeconds > 60 {
		errs = append(errs, "tools.searchTimeoutSeconds must be between 1 and 60")
	}
	if cfg.Tools.Code.TimeoutSeconds < 1 || cfg.Tools.Code.TimeoutSeconds > 300 {
		errs = append(errs, "tools.code.timeoutSeconds must be between 1 and 300")
	}
	if len(cfg.Tools.Code.Interpreter) == 0 {
		errs = append(errs, "tools.code.interpreter must name a program")
	}
	switch cfg.Tools.MarkerPolicy {
	case "", "keep", "strip":
	default:
		errs = append(errs, "tools.markerPolicy must be one of: keep, strip")
	}

	if cfg.Memory.Enabled && cfg.Memory.DBPath == "" {
		errs = append(errs, "memory.dbPath is required when memory is enabled")
	}
	if cfg.Memory.RetentionDays < 0 {
		errs = append(errs, "memory.retentionDays must be >= 0")
	}
	if cfg.Memory.RetentionDays > 0 {
		if _, err := cron.ParseStandard(cfg.Memory.PurgeSchedule); err != nil {
			errs = append(errs, fmt.Sprintf("memory.purgeSchedule %q is not a valid cron schedule: %v", cfg.Memory.PurgeSchedule, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
