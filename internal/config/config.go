package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Bucketing modes for the grid clusterer
const (
	BucketingFloor    = "floor"
	BucketingTruncate = "truncate"
)

// Config holds the server settings
type Config struct {
	Port     string
	DBPath   string // Writable store location
	SeedPath string // Bundled read-only snapshot

	GridSize      float64 // Grid cell size in degrees
	GridBucketing string  // floor | truncate
	ZoomThreshold float64 // Markers are hidden below this zoom level
	Workers       int     // Background workers for store I/O

	DefaultCenterLat float64
	DefaultCenterLng float64

	LogLevel      string
	LogTimeFormat string

	RateLimit  int
	RateWindow time.Duration

	MaxSessions        int           // 0 means unlimited
	SessionIdleTimeout time.Duration // 0 keeps idle sessions open
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", ":8080")
	v.SetDefault("DB_PATH", "./data/toiletdb.db")
	v.SetDefault("SEED_PATH", "./assets/toiletdb.db")
	v.SetDefault("GRID_SIZE", 0.01)
	v.SetDefault("GRID_BUCKETING", BucketingFloor)
	v.SetDefault("ZOOM_THRESHOLD", 10)
	v.SetDefault("WORKERS", 2)
	v.SetDefault("DEFAULT_CENTER_LAT", 37.5665) // Seoul City Hall
	v.SetDefault("DEFAULT_CENTER_LNG", 126.9780)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_TIME_FORMAT", time.RFC3339Nano)
	v.SetDefault("RATE_LIMIT", 30)
	v.SetDefault("RATE_WINDOW", "1m")
	v.SetDefault("MAX_SESSIONS", 1000)
	v.SetDefault("SESSION_IDLE_TIMEOUT", "30m")
}

// Load reads .env, then config.yaml in the working directory (optional),
// then environment variables.
func Load() (*Config, error) {
	// .env is optional, system environment variables still apply
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:             v.GetString("PORT"),
		DBPath:           v.GetString("DB_PATH"),
		SeedPath:         v.GetString("SEED_PATH"),
		GridSize:         v.GetFloat64("GRID_SIZE"),
		GridBucketing:    v.GetString("GRID_BUCKETING"),
		ZoomThreshold:    v.GetFloat64("ZOOM_THRESHOLD"),
		Workers:          v.GetInt("WORKERS"),
		DefaultCenterLat: v.GetFloat64("DEFAULT_CENTER_LAT"),
		DefaultCenterLng: v.GetFloat64("DEFAULT_CENTER_LNG"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogTimeFormat:    v.GetString("LOG_TIME_FORMAT"),
		RateLimit:        v.GetInt("RATE_LIMIT"),
		RateWindow:       v.GetDuration("RATE_WINDOW"),

		MaxSessions:        v.GetInt("MAX_SESSIONS"),
		SessionIdleTimeout: v.GetDuration("SESSION_IDLE_TIMEOUT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that would make the pipeline misbehave
func (c *Config) Validate() error {
	if c.GridSize <= 0 {
		return fmt.Errorf("GRID_SIZE must be positive, got %v", c.GridSize)
	}
	if c.GridBucketing != BucketingFloor && c.GridBucketing != BucketingTruncate {
		return fmt.Errorf("GRID_BUCKETING must be %q or %q, got %q", BucketingFloor, BucketingTruncate, c.GridBucketing)
	}
	if c.Workers < 1 {
		return fmt.Errorf("WORKERS must be at least 1, got %d", c.Workers)
	}
	if c.DBPath == "" {
		return errors.New("DB_PATH must not be empty")
	}
	if c.RateLimit < 1 || c.RateWindow <= 0 {
		return fmt.Errorf("invalid rate limit %d per %v", c.RateLimit, c.RateWindow)
	}
	if c.MaxSessions < 0 || c.SessionIdleTimeout < 0 {
		return fmt.Errorf("invalid session limits: max %d, idle timeout %v", c.MaxSessions, c.SessionIdleTimeout)
	}
	return nil
}
