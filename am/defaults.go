package am

import (
	"fmt"

	"github.com/spf13/viper"
)

// Default values
const (
	DefaultDatabasePath = "pantry.db"
	DefaultFloorPolicy  = "clamp_to_one"
	DefaultParallelism  = 4
	DefaultLogTheme     = "everforest"
)

var defaultAllowedOrigins = []string{
	"http://localhost",
	"https://localhost",
	"http://127.0.0.1",
	"https://127.0.0.1",
}

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)

	v.SetDefault("executor.floor_policy", DefaultFloorPolicy)
	v.SetDefault("executor.parallelism", DefaultParallelism)

	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", defaultAllowedOrigins)
	v.SetDefault("server.rate_limit_per_second", 5.0) // per client
	v.SetDefault("server.rate_burst", 10)
	v.SetDefault("server.log_theme", DefaultLogTheme)

	v.SetDefault("log.json", false)
}

// BindEnvVars binds settings that also answer to shorter environment names
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("database.path", "PANTRY_DATABASE_PATH", "PANTRY_DB")
	v.BindEnv("executor.floor_policy", "PANTRY_EXECUTOR_FLOOR_POLICY", "PANTRY_FLOOR_POLICY")
}

// GetDatabasePath returns the configured database path
func (c *Config) GetDatabasePath() string {
	if c.Database.Path == "" {
		return DefaultDatabasePath
	}
	return c.Database.Path
}

// GetServerPort returns the configured port or DefaultServerPort
func (c *Config) GetServerPort() int {
	if c.Server.Port == 0 {
		return DefaultServerPort
	}
	return c.Server.Port
}

// GetServerAllowedOrigins returns the allowed CORS origins
func (c *Config) GetServerAllowedOrigins() []string {
	if len(c.Server.AllowedOrigins) == 0 {
		return append([]string(nil), defaultAllowedOrigins...)
	}
	return c.Server.AllowedOrigins
}

// GetServerLogTheme returns the log theme (default: everforest)
func (c *Config) GetServerLogTheme() string {
	if c.Server.LogTheme == "" {
		return DefaultLogTheme
	}
	return c.Server.LogTheme
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Database: %s, Executor: {FloorPolicy: %s, Parallelism: %d}, Server: {Port: %d}}",
		c.Database.Path, c.Executor.FloorPolicy, c.Executor.Parallelism, c.Server.Port)
}
