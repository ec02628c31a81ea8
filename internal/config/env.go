package config

import (
	"log/slog"
	"os"
)

// Environment variable names for overrides.
const (
	EnvConfig = "DOCSYNC_CONFIG"
)

// EnvOverrides holds values derived from environment variables. Resolved by
// ReadEnvOverrides; callers apply the relevant fields themselves.
type EnvOverrides struct {
	ConfigPath string // DOCSYNC_CONFIG: override config file path
}

// ReadEnvOverrides reads environment variables and returns any overrides found.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
	}
}

// CLIOverrides holds values sourced from CLI flags, taking precedence over
// both the config file and environment variables.
type CLIOverrides struct {
	ConfigPath string
}

// ResolveConfigPath determines the config file path using the three-layer
// priority: CLI flag > environment variable > platform default.
func ResolveConfigPath(env EnvOverrides, cli CLIOverrides, logger *slog.Logger) string {
	cfgPath := DefaultConfigPath()
	source := "default"

	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
		source = "env"
	}

	if cli.ConfigPath != "" {
		cfgPath = cli.ConfigPath
		source = "cli"
	}

	if logger != nil {
		logger.Debug("config path resolved", "path", cfgPath, "source", source)
	}

	return cfgPath
}
