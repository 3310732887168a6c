package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:              "info",
			MaxConcurrentRequests: 4,
		},
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8000,
			AllowedOrigins: []string{"*"},
		},
		Provider: ProviderConfig{
			Kind:           "ollama",
			APIBase:        "http://localhost:11434",
			Model:          "llama3.1:8b",
			TimeoutSeconds: 120,
		},
		Tools: ToolsConfig{
			SafeDir:              "./mcp_workspace",
			ReadPreviewChars:     500,
			ListLimit:            20,
			SearchTimeoutSeconds: 5,
			CustomDir:            "~/.toolchat/tools",
			MarkerPolicy:         "keep",
			Code: CodeToolConfig{
				Interpreter:    []string{"python3", "-c"},
				TimeoutSeconds: 5,
				MaxOutputChars: 500,
				Docker: DockerConfig{
					Enabled:   false,
					Image:     "python:3-alpine",
					MaxMemory: "256m",
					MaxCPU:    "0.5",
				},
			},
		},
		Memory: MemoryConfig{
			Enabled:       true,
			DBPath:        "./chat.db",
			RetentionDays: 0,
			PurgeSchedule: "@daily",
		},
		Tracing: TracingConfig{
			Enabled: false,
		},
	}
}
