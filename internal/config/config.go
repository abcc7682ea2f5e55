package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the full application configuration, populated from environment
// variables (and CLI flags bound into the same viper instance).
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Version     string

	// MaxImportItems caps the number of items one import batch may carry.
	MaxImportItems int
}

type ServerConfig struct {
	Host  string
	Port  int
	Debug bool
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "catalog-analyzer")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_VERSION", "1.0.0")
	v.SetDefault("APP_MAX_IMPORT_ITEMS", 10000)

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_DEBUG", false)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "catalog")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 25)
	v.SetDefault("DB_MIN_CONNS", 5)

	v.SetDefault("DB_MAX_CONN_LIFETIME", "5m")
	v.SetDefault("DB_MAX_CONN_IDLE_TIME", "1m")
	v.SetDefault("DB_HEALTH_CHECK_PERIOD", "1m")
	v.SetDefault("DB_MAX_RETRIES", 5)
	v.SetDefault("DB_RETRY_DELAY", "1s")
	v.SetDefault("DB_CONNECT_TIMEOUT", "10s")
}

// Load reads the configuration out of v. Callers bind CLI flags onto v
// before calling so flags beat environment variables, which beat defaults.
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:           v.GetString("APP_NAME"),
			Environment:    v.GetString("APP_ENV"),
			Version:        v.GetString("APP_VERSION"),
			MaxImportItems: v.GetInt("APP_MAX_IMPORT_ITEMS"),
		},
		Server: ServerConfig{
			Host:  v.GetString("SERVER_HOST"),
			Port:  v.GetInt("SERVER_PORT"),
			Debug: v.GetBool("SERVER_DEBUG"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Database: v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			MaxConns: v.GetInt("DB_MAX_CONNS"),
			MinConns: v.GetInt("DB_MIN_CONNS"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.App.MaxImportItems <= 0 {
		return fmt.Errorf("APP_MAX_IMPORT_ITEMS must be positive")
	}
	if c.App.Environment == "production" && c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD must be set in production")
	}
	return nil
}
