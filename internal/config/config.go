package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Redis    RedisConfig
	JWT      JWTConfig
	RabbitMQ RabbitMQConfig
	Log      LogConfig
	Admin    AdminConfig
}

// AppConfig holds HTTP server settings.
type AppConfig struct {
	Port     string
	Env      string
	BaseURL  string
	Location *time.Location
}

// DatabaseConfig selects the GORM driver and its DSN.
type DatabaseConfig struct {
	Driver   string // sqlite or postgres
	DSN      string
	LogLevel string // silent, error, warn, info
}

// CacheConfig selects the cache backend used for order exports.
type CacheConfig struct {
	Backend   string // memory or redis
	OrdersTTL time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

// RabbitMQConfig holds the broker URL. An empty URL disables order events.
type RabbitMQConfig struct {
	URL string
}

type LogConfig struct {
	Level  string
	Format string
}

// AdminConfig describes the staff account ensured at start-up.
type AdminConfig struct {
	Username string
	Email    string
	Password string
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory when one exists.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_BASE_URL", "http://localhost:8080")
	v.SetDefault("TIME_ZONE", "UTC")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "shop.db")
	v.SetDefault("DB_LOG_LEVEL", "warn")
	v.SetDefault("CACHE_BACKEND", "memory")
	v.SetDefault("CACHE_ORDERS_TTL", "60s")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("ADMIN_USERNAME", "")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	loc, err := time.LoadLocation(v.GetString("TIME_ZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIME_ZONE: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Port:     v.GetString("APP_PORT"),
			Env:      v.GetString("APP_ENV"),
			BaseURL:  v.GetString("APP_BASE_URL"),
			Location: loc,
		},
		Database: DatabaseConfig{
			Driver:   v.GetString("DATABASE_DRIVER"),
			DSN:      v.GetString("DATABASE_DSN"),
			LogLevel: v.GetString("DB_LOG_LEVEL"),
		},
		Cache: CacheConfig{
			Backend:   v.GetString("CACHE_BACKEND"),
			OrdersTTL: v.GetDuration("CACHE_ORDERS_TTL"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT:      JWTConfig{Secret: v.GetString("JWT_SECRET")},
		RabbitMQ: RabbitMQConfig{URL: v.GetString("RABBITMQ_URL")},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Admin: AdminConfig{
			Username: v.GetString("ADMIN_USERNAME"),
			Email:    v.GetString("ADMIN_EMAIL"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that have a closed set of options.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported CACHE_BACKEND %q", c.Cache.Backend)
	}
	if c.Cache.OrdersTTL <= 0 {
		return fmt.Errorf("CACHE_ORDERS_TTL must be positive, got %s", c.Cache.OrdersTTL)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
