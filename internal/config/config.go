package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	LogLevel          string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	EventChannel      string
	JWTSecret         string
	DashboardCacheTTL time.Duration
	RequestTimeout    time.Duration
	ReconcileSchedule string
	RateLimitMax      int
	RateLimitWindow   time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GEMA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	v.SetDefault("app.name", "GEMA Courses API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("events.channel", "gema:courses")
	v.SetDefault("dashboard.cache_ttl", "5m")
	v.SetDefault("http.request_timeout", "10s")
	v.SetDefault("rate_limit.max", 30)
	v.SetDefault("rate_limit.window", "1m")

	ttl, err := parseDuration(v, "dashboard.cache_ttl", 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid dashboard cache ttl: %w", err)
	}

	timeout, err := parseDuration(v, "http.request_timeout", 10*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid request timeout: %w", err)
	}

	window, err := parseDuration(v, "rate_limit.window", time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid rate limit window: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		LogLevel:          strings.ToLower(v.GetString("log.level")),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		EventChannel:      v.GetString("events.channel"),
		JWTSecret:         v.GetString("jwt.secret"),
		DashboardCacheTTL: ttl,
		RequestTimeout:    timeout,
		ReconcileSchedule: strings.TrimSpace(v.GetString("reconcile.schedule")),
		RateLimitMax:      v.GetInt("rate_limit.max"),
		RateLimitWindow:   window,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = 30
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if parsed <= 0 {
		return fallback, nil
	}
	return parsed, nil
}
