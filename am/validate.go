package am

import (
	"github.com/teranos/pantry/errors"
	"github.com/teranos/pantry/plan/executor"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.WithHint(
			errors.New("database.path cannot be empty"),
			"omit the key to use "+DefaultDatabasePath)
	}

	if _, err := executor.ParseFloorPolicy(c.Executor.FloorPolicy); err != nil {
		return errors.Wrap(err, "executor.floor_policy")
	}

	// Parallelism: 0 would never run a write
	if c.Executor.Parallelism < 1 {
		return errors.Newf("executor.parallelism must be >= 1, got %d", c.Executor.Parallelism)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.Newf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	// Rate limit: 0 = unlimited, negative = invalid
	if c.Server.RateLimitPerSecond < 0 {
		return errors.Newf("server.rate_limit_per_second must be >= 0, got %f", c.Server.RateLimitPerSecond)
	}
	if c.Server.RateLimitPerSecond > 0 && c.Server.RateBurst < 1 {
		return errors.Newf("server.rate_burst must be >= 1 when rate limiting, got %d", c.Server.RateBurst)
	}

	switch c.Server.LogTheme {
	case "", "everforest", "gruvbox":
	default:
		return errors.WithHint(
			errors.Newf("unknown server.log_theme %q", c.Server.LogTheme),
			"valid themes: everforest, gruvbox")
	}

	return nil
}
