package config

// Config holds all application configuration, grouped by concern.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"`
	LLM       LLMConfig       `mapstructure:"llm"       validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit" validate:"required"`
	Insights  InsightsConfig  `mapstructure:"insights"  validate:"required"`
	Wearables WearablesConfig `mapstructure:"wearables" validate:"required"`
}

// ServerConfig contains server-related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// RedisConfig contains the optional distributed cache settings. An empty
// URL selects the in-process rate-limit counter, which is exact for a
// single process only.
type RedisConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// LLMConfig contains the insight generation model pipeline settings.
type LLMConfig struct {
	GeminiAPIKey  string `mapstructure:"gemini_api_key" validate:"required"`
	Model         string `mapstructure:"model"          validate:"required"`
	FallbackModel string `mapstructure:"fallback_model"`
}

// ModelPipeline returns the ordered model list embedded in insight task
// payloads.
func (c LLMConfig) ModelPipeline() []string {
	if c.FallbackModel == "" {
		return []string{c.Model}
	}
	return []string{c.Model, c.FallbackModel}
}

// RateLimitConfig contains the generic windowed limiter settings applied
// to producer endpoints.
type RateLimitConfig struct {
	Requests      int `mapstructure:"requests"       validate:"required,gt=0"`
	WindowSeconds int `mapstructure:"window_seconds" validate:"required,gt=0"`
}

// InsightsConfig contains the insight producer's policy settings.
type InsightsConfig struct {
	DailyJobCap int `mapstructure:"daily_job_cap" validate:"required,gt=0"`
}

// WearablesConfig contains the wearable sync sweep settings.
type WearablesConfig struct {
	StalenessMinutes int    `mapstructure:"staleness_minutes" validate:"required,gt=0"`
	SweepSchedule    string `mapstructure:"sweep_schedule"    validate:"required"`
	DispatchSchedule string `mapstructure:"dispatch_schedule" validate:"required"`
}
