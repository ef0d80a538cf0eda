package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix namespaces the application's environment variables, e.g.
// PULSE_DATABASE_URL.
const envPrefix = "PULSE"

// Load reads configuration from environment variables (and an optional
// config file in the working directory), applies defaults, and validates
// the result. Missing required settings fail startup; throttling and
// dispatch must never start half-configured.
func Load() (*Config, error) {
	v := viper.New()

	// Keys without a real default still need to be known to viper for
	// AutomaticEnv to feed them into Unmarshal.
	v.SetDefault("database.url", "")
	v.SetDefault("redis.url", "")
	v.SetDefault("llm.gemini_api_key", "")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("ratelimit.requests", 60)
	v.SetDefault("ratelimit.window_seconds", 60)
	v.SetDefault("insights.daily_job_cap", 5)
	v.SetDefault("llm.model", "gemini-2.0-flash")
	v.SetDefault("llm.fallback_model", "gemini-1.5-flash")
	v.SetDefault("wearables.staleness_minutes", 360)
	v.SetDefault("wearables.sweep_schedule", "@every 30m")
	v.SetDefault("wearables.dispatch_schedule", "@every 1m")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A config file is optional; environment variables alone are a
		// complete configuration.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
