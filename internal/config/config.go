package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server             ServerConfig             `mapstructure:"server"`
	Auth               AuthConfig               `mapstructure:"auth"`
	Email              EmailConfig              `mapstructure:"email"`
	Weather            WeatherConfig            `mapstructure:"weather"`
	CORS               CORSConfig               `mapstructure:"cors"`
	RateLimit          RateLimitConfig          `mapstructure:"rate_limit"`
	Redis              RedisConfig              `mapstructure:"redis"`
	Supabase           SupabaseConfig           `mapstructure:"supabase"`
	Dispatch           DispatchConfig           `mapstructure:"dispatch"`
	Queue              QueueConfig              `mapstructure:"queue"`
	Schedule           ScheduleConfig           `mapstructure:"schedule"`
	RecipientRateLimit RecipientRateLimitConfig `mapstructure:"recipient_rate_limit"`
	Reaper             ReaperConfigYAML         `mapstructure:"reaper"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// AuthConfig holds the shared secret the cron scheduler presents as a bearer token.
type AuthConfig struct {
	CronSecret string `mapstructure:"cron_secret"`
}

// EmailConfig holds email provider settings. Each alert category sends from its
// own address so recipients can filter them independently.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api_key"`
	WeatherFrom string `mapstructure:"weather_from"`
	PriceFrom   string `mapstructure:"price_from"`
	WelcomeFrom string `mapstructure:"welcome_from"`
	AppURL      string `mapstructure:"app_url"`
}

// WeatherConfig holds OpenWeather API settings.
type WeatherConfig struct {
	APIKey          string `mapstructure:"api_key"`
	BaseURL         string `mapstructure:"base_url"`
	TimeoutSec      int    `mapstructure:"timeout_sec"`
	DefaultLocation string `mapstructure:"default_location"`
}

// CORSConfig holds CORS policy settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// RateLimitConfig holds per-IP HTTP rate limiting settings.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SupabaseConfig holds Supabase project settings.
type SupabaseConfig struct {
	URL        string `mapstructure:"url"`
	ServiceKey string `mapstructure:"service_key"`
}

// DispatchConfig holds batch dispatcher settings. BatchSize bounds the number of
// in-flight sends at any instant; InterBatchDelayMs is the pause between batches
// that keeps the run under the email provider's rate limit.
type DispatchConfig struct {
	BatchSize         int `mapstructure:"batch_size"`
	InterBatchDelayMs int `mapstructure:"inter_batch_delay_ms"`
}

// QueueConfig holds async queue settings for welcome email delivery.
type QueueConfig struct {
	Concurrency   int `mapstructure:"concurrency"`
	MaxRetry      int `mapstructure:"max_retry"`
	RetryDelaySec int `mapstructure:"retry_delay_sec"`
}

// ScheduleConfig holds cron specs for the periodic alert runs.
type ScheduleConfig struct {
	WeatherCron string `mapstructure:"weather_cron"`
	PriceCron   string `mapstructure:"price_cron"`
}

// RecipientRateLimitConfig caps how many emails one recipient address can
// receive per hour.
type RecipientRateLimitConfig struct {
	MaxPerHour int `mapstructure:"max_per_hour"`
}

// ReaperConfigYAML holds stale delivery reaper settings (durations as seconds for YAML/env compat).
type ReaperConfigYAML struct {
	IntervalSec       int `mapstructure:"interval_sec"`
	StaleThresholdSec int `mapstructure:"stale_threshold_sec"`
	BatchSize         int `mapstructure:"batch_size"`
}

// Load reads configuration from config.yaml and environment variables.
// Environment variables use the AGROALERT_ prefix and underscore separators.
// Example: AGROALERT_SERVER_PORT overrides server.port in config.yaml.
func Load() (*Config, error) {
	v := viper.New()

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Load .env file if it exists
	_ = godotenv.Load()

	// Environment variable settings
	v.SetEnvPrefix("AGROALERT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Secrets default to empty so AutomaticEnv values survive Unmarshal.
	v.SetDefault("auth.cron_secret", "")
	v.SetDefault("email.api_key", "")
	v.SetDefault("weather.api_key", "")
	v.SetDefault("supabase.url", "")
	v.SetDefault("supabase.service_key", "")

	// Defaults
	v.SetDefault("server.port", 8081)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("email.provider", "resend")
	v.SetDefault("email.weather_from", "AgroAlert Weather <weather@agroalert.app>")
	v.SetDefault("email.price_from", "AgroAlert Prices <prices@agroalert.app>")
	v.SetDefault("email.welcome_from", "AgroAlert Team <welcome@agroalert.app>")
	v.SetDefault("email.app_url", "https://agroalert.app")
	v.SetDefault("weather.base_url", "https://api.openweathermap.org/data/2.5")
	v.SetDefault("weather.timeout_sec", 10)
	v.SetDefault("weather.default_location", "Ludhiana, India")
	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("dispatch.batch_size", 10)
	v.SetDefault("dispatch.inter_batch_delay_ms", 1000)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.max_retry", 5)
	v.SetDefault("queue.retry_delay_sec", 30)
	v.SetDefault("schedule.weather_cron", "0 6 * * *")
	v.SetDefault("schedule.price_cron", "0 7 * * *")
	v.SetDefault("recipient_rate_limit.max_per_hour", 3)
	v.SetDefault("reaper.interval_sec", 300)        // 5 minutes
	v.SetDefault("reaper.stale_threshold_sec", 600) // 10 minutes
	v.SetDefault("reaper.batch_size", 50)

	// Read config file (optional, env vars can provide everything)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Handle comma-separated CORS origins from env var
	if originsStr := v.GetString("cors.allowed_origins"); originsStr != "" && len(cfg.CORS.AllowedOrigins) == 0 {
		origins := strings.Split(originsStr, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORS.AllowedOrigins = origins
	}

	return &cfg, nil
}
