package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds every runtime setting the service needs. Values come from
// app.env in the given path and may be overridden by environment variables.
type Config struct {
	ServerPort   string `mapstructure:"SERVER_PORT"`
	ClientOrigin string `mapstructure:"CLIENT_ORIGIN"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	RedisAddr    string `mapstructure:"REDIS_ADDR"`
	RedisDB      int    `mapstructure:"REDIS_DB"`
	JWTSecret    string `mapstructure:"JWT_SECRET"`

	AWSRegion       string `mapstructure:"AWS_REGION"`
	NotifyFromEmail string `mapstructure:"NOTIFY_FROM_EMAIL"`

	CalendarBaseURL string `mapstructure:"CALENDAR_BASE_URL"`
	GeocodeBaseURL  string `mapstructure:"GEOCODE_BASE_URL"`

	// DrainInterval is how often the offline drain worker retries queued
	// captures while the store is reachable.
	DrainInterval time.Duration `mapstructure:"DRAIN_INTERVAL"`
}

// LoadConfig reads configuration from app.env in the given path, with
// environment variables taking precedence over file values.
func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("DRAIN_INTERVAL", "30s")

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine when everything comes from the environment.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that the service cannot run without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("config: JWT_SECRET must be at least 16 characters")
	}
	if c.DrainInterval <= 0 {
		return errors.New("config: DRAIN_INTERVAL must be positive")
	}
	return nil
}
