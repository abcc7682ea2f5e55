package config

import (
	"github.com/spf13/viper"

	"catalog-analyzer/internal/infrastructure/database"
)

// LoadDatabaseConfig builds the pgx pool configuration from the same viper
// instance the rest of the config comes from. Durations use Go syntax
// ("5m", "10s").
func LoadDatabaseConfig(v *viper.Viper, cfg *Config) *database.DBConfig {
	return &database.DBConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Username: cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.Database,
		SSLMode:  cfg.Database.SSLMode,

		MaxConns:          int32(cfg.Database.MaxConns),
		MinConns:          int32(cfg.Database.MinConns),
		MaxConnLifetime:   v.GetDuration("DB_MAX_CONN_LIFETIME"),
		MaxConnIdleTime:   v.GetDuration("DB_MAX_CONN_IDLE_TIME"),
		HealthCheckPeriod: v.GetDuration("DB_HEALTH_CHECK_PERIOD"),

		MaxRetries:     v.GetInt("DB_MAX_RETRIES"),
		RetryDelay:     v.GetDuration("DB_RETRY_DELAY"),
		ConnectTimeout: v.GetDuration("DB_CONNECT_TIMEOUT"),
	}
}
