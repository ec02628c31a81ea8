package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadEnvOverrides_ReadsConfigEnvVar(t *testing.T) {
	t.Setenv(EnvConfig, "/custom/config.toml")
	got := ReadEnvOverrides()
	assert.Equal(t, "/custom/config.toml", got.ConfigPath)
}

func TestResolveConfigPath_CLIWinsOverEnvAndDefault(t *testing.T) {
	env := EnvOverrides{ConfigPath: "/env/config.toml"}
	cli := CLIOverrides{ConfigPath: "/cli/config.toml"}

	got := ResolveConfigPath(env, cli, nil)
	assert.Equal(t, "/cli/config.toml", got)
}

func TestResolveConfigPath_EnvWinsOverDefault(t *testing.T) {
	env := EnvOverrides{ConfigPath: "/env/config.toml"}

	got := ResolveConfigPath(env, CLIOverrides{}, nil)
	assert.Equal(t, "/env/config.toml", got)
}
