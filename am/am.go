// Package am loads pantry's configuration.
//
// Sources merge in precedence order, lowest first: built-in defaults,
// /etc/pantry/pantry.toml, ~/.pantry/pantry.toml, the nearest pantry.toml
// found walking up from the working directory, then PANTRY_* environment
// variables.
package am

// Config represents the pantry configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database" json:"database" yaml:"database" toml:"database"`
	Executor ExecutorConfig `mapstructure:"executor" json:"executor" yaml:"executor" toml:"executor"`
	Server   ServerConfig   `mapstructure:"server" json:"server" yaml:"server" toml:"server"`
	Log      LogConfig      `mapstructure:"log" json:"log" yaml:"log" toml:"log"`
}

// DatabaseConfig configures the SQLite database
type DatabaseConfig struct {
	Path string `mapstructure:"path" json:"path" yaml:"path" toml:"path"`
}

// ExecutorConfig configures how plans are applied to the list
type ExecutorConfig struct {
	FloorPolicy string `mapstructure:"floor_policy" json:"floor_policy" yaml:"floor_policy" toml:"floor_policy"` // clamp_to_one, clamp_to_zero, delete_at_zero
	Parallelism int    `mapstructure:"parallelism" json:"parallelism" yaml:"parallelism" toml:"parallelism"`     // concurrent writes per plan section
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Port               int      `mapstructure:"port" json:"port" yaml:"port" toml:"port"`
	AllowedOrigins     []string `mapstructure:"allowed_origins" json:"allowed_origins" yaml:"allowed_origins" toml:"allowed_origins"`
	RateLimitPerSecond float64  `mapstructure:"rate_limit_per_second" json:"rate_limit_per_second" yaml:"rate_limit_per_second" toml:"rate_limit_per_second"` // 0 = unlimited
	RateBurst          int      `mapstructure:"rate_burst" json:"rate_burst" yaml:"rate_burst" toml:"rate_burst"`
	LogTheme           string   `mapstructure:"log_theme" json:"log_theme" yaml:"log_theme" toml:"log_theme"` // gruvbox, everforest
}

// LogConfig configures logger output
type LogConfig struct {
	JSON bool `mapstructure:"json" json:"json" yaml:"json" toml:"json"`
}

// Server port constants
const (
	DefaultServerPort = 8787
)

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)

// Config file locations
const (
	ConfigFileName   = "pantry.toml"
	SystemConfigPath = "/etc/pantry/pantry.toml"
	UserConfigDir    = ".pantry"
	EnvPrefix        = "PANTRY"
)
