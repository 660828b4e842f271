package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/pantry/errors"
)

// isolate points HOME and the working directory at empty temp dirs so no
// real config file leaks into a test.
func isolate(t *testing.T) (home, project string) {
	t.Helper()
	home = t.TempDir()
	project = t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(project)
	Reset()
	t.Cleanup(Reset)
	return home, project
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), DefaultDirPermissions))
	require.NoError(t, os.WriteFile(path, []byte(content), DefaultFilePermissions))
}

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, "pantry.db", cfg.Database.Path)
	assert.Equal(t, "clamp_to_one", cfg.Executor.FloorPolicy)
	assert.Equal(t, DefaultParallelism, cfg.Executor.Parallelism)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, 5.0, cfg.Server.RateLimitPerSecond)
	assert.Equal(t, 10, cfg.Server.RateBurst)
	assert.Contains(t, cfg.Server.AllowedOrigins, "http://localhost")
	assert.False(t, cfg.Log.JSON)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		v := viper.New()
		SetDefaults(v)
		cfg, err := LoadWithViper(v)
		require.NoError(t, err)
		return *cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"empty database path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"unknown floor policy", func(c *Config) { c.Executor.FloorPolicy = "floor" }, "executor.floor_policy"},
		{"dashed floor policy is accepted", func(c *Config) { c.Executor.FloorPolicy = "delete-at-zero" }, ""},
		{"zero parallelism", func(c *Config) { c.Executor.Parallelism = 0 }, "executor.parallelism"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"zero port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"zero rate limit is unlimited", func(c *Config) { c.Server.RateLimitPerSecond = 0; c.Server.RateBurst = 0 }, ""},
		{"negative rate limit", func(c *Config) { c.Server.RateLimitPerSecond = -1 }, "rate_limit_per_second"},
		{"rate limit without burst", func(c *Config) { c.Server.RateBurst = 0 }, "rate_burst"},
		{"unknown theme", func(c *Config) { c.Server.LogTheme = "solarized" }, "log_theme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pantry.toml")
	writeFile(t, path, `
[executor]
floor_policy = "delete_at_zero"

[server]
port = 9000
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "delete_at_zero", cfg.Executor.FloorPolicy)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, DefaultParallelism, cfg.Executor.Parallelism, "unset keys keep defaults")

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoad_MergeChain(t *testing.T) {
	home, project := isolate(t)

	writeFile(t, filepath.Join(home, UserConfigDir, ConfigFileName), `
[executor]
floor_policy = "clamp_to_zero"
parallelism = 2

[database]
path = "/var/lib/pantry/list.db"
`)
	projectPath := filepath.Join(project, ConfigFileName)
	writeFile(t, projectPath, `
[executor]
floor_policy = "delete_at_zero"
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "delete_at_zero", cfg.Executor.FloorPolicy, "project overrides user")
	assert.Equal(t, 2, cfg.Executor.Parallelism, "user value survives project merge")
	assert.Equal(t, "/var/lib/pantry/list.db", cfg.Database.Path)

	want, err := filepath.EvalSymlinks(projectPath)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(ConfigFileUsed())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	again, err := Load()
	require.NoError(t, err)
	assert.Same(t, cfg, again, "Load is cached until Reset")
}

func TestLoad_EnvOverridesFiles(t *testing.T) {
	home, _ := isolate(t)
	writeFile(t, filepath.Join(home, UserConfigDir, ConfigFileName), `
[executor]
parallelism = 2
`)
	t.Setenv("PANTRY_EXECUTOR_PARALLELISM", "7")
	t.Setenv("PANTRY_DB", "/tmp/env.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Executor.Parallelism)
	assert.Equal(t, "/tmp/env.db", cfg.Database.Path)
}

func TestIntrospect(t *testing.T) {
	home, _ := isolate(t)
	userPath := filepath.Join(home, UserConfigDir, ConfigFileName)
	writeFile(t, userPath, `
[executor]
floor_policy = "clamp_to_zero"
`)
	t.Setenv("PANTRY_SERVER_PORT", "9999")

	ci := Introspect()
	settings := map[string]SettingInfo{}
	for _, s := range ci.Settings {
		settings[s.Key] = s
	}

	assert.Equal(t, SourceUser, settings["executor.floor_policy"].Source)
	assert.Equal(t, userPath, settings["executor.floor_policy"].SourcePath)
	assert.Equal(t, SourceEnvironment, settings["server.port"].Source)
	assert.Equal(t, "PANTRY_SERVER_PORT", settings["server.port"].SourcePath)
	assert.Equal(t, SourceDefault, settings["executor.parallelism"].Source)

	counts := ci.CountBySource()
	assert.Equal(t, 1, counts[SourceUser])
	assert.Equal(t, 1, counts[SourceEnvironment])
}

func TestSetUserValue(t *testing.T) {
	home, _ := isolate(t)
	userPath := filepath.Join(home, UserConfigDir, ConfigFileName)

	t.Run("creates file with typed value", func(t *testing.T) {
		path, err := SetUserValue("executor.parallelism", "3")
		require.NoError(t, err)
		assert.Equal(t, userPath, path)

		cfg, err := LoadFromFile(userPath)
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Executor.Parallelism)
	})

	t.Run("keeps other keys and rotates a backup", func(t *testing.T) {
		_, err := SetUserValue("executor.floor_policy", "delete_at_zero")
		require.NoError(t, err)

		cfg, err := LoadFromFile(userPath)
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Executor.Parallelism)
		assert.Equal(t, "delete_at_zero", cfg.Executor.FloorPolicy)

		_, err = os.Stat(userPath + ".back1")
		assert.NoError(t, err)
	})

	t.Run("rejects unknown key", func(t *testing.T) {
		_, err := SetUserValue("executor.speed", "fast")
		require.Error(t, err)
		assert.True(t, errors.IsInvalidRequestError(err))
	})

	t.Run("rejects mistyped value", func(t *testing.T) {
		_, err := SetUserValue("server.port", "eighty")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expects an integer")
	})

	t.Run("rejects invalid result without writing", func(t *testing.T) {
		before, err := os.ReadFile(userPath)
		require.NoError(t, err)

		_, err = SetUserValue("executor.floor_policy", "floor")
		require.Error(t, err)

		after, err := os.ReadFile(userPath)
		require.NoError(t, err)
		assert.Equal(t, string(before), string(after))
	})
}

func TestIsBackupFile(t *testing.T) {
	assert.True(t, isBackupFile("/home/u/.pantry/pantry.toml.back1"))
	assert.True(t, isBackupFile("pantry.toml.back3"))
	assert.False(t, isBackupFile("/home/u/.pantry/pantry.toml"))
}
