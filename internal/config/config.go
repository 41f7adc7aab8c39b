package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/maxviazov/sideline-stats-service/internal/logger"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	App      AppConfig           `mapstructure:"app"`
	Logger   logger.LoggerConfig `mapstructure:"logger"`
	Storage  StorageConfig       `mapstructure:"storage"`
	Postgres PostgresConfig      `mapstructure:"postgres"`
	Backup   BackupConfig        `mapstructure:"backup"`
}

type AppConfig struct {
	Name    string `mapstructure:"name" validate:"required"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env" validate:"oneof=dev staging prod"`
	Port    int    `mapstructure:"port" validate:"min=1,max=65535"`
	// ShutdownTimeout is in seconds.
	ShutdownTimeout int      `mapstructure:"shutdown_timeout" validate:"min=1"`
	CORSOrigins     []string `mapstructure:"cors_origins"`
}

type StorageConfig struct {
	Driver     string `mapstructure:"driver" validate:"oneof=sqlite postgres"`
	SQLitePath string `mapstructure:"sqlite_path"`
	// QuotaBytes caps the store size for the space guard; 0 turns the guard off.
	QuotaBytes int64 `mapstructure:"quota_bytes" validate:"min=0"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"min=0,max=65535"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns int32  `mapstructure:"max_conns" validate:"min=0"`
	MinConns int32  `mapstructure:"min_conns" validate:"min=0"`
	// durations below are in seconds
	MaxConnLifetime   int `mapstructure:"max_conn_lifetime" validate:"min=0"`
	MaxConnIdleTime   int `mapstructure:"max_conn_idle_time" validate:"min=0"`
	HealthCheckPeriod int `mapstructure:"health_check_period" validate:"min=0"`
}

type BackupConfig struct {
	ReminderDays int `mapstructure:"reminder_days" validate:"min=1"`
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.App.Port) }

// ShutdownTimeout as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.App.ShutdownTimeout) * time.Second
}

// Validate checks field rules plus the cross-field ones validator tags cannot express.
// Logger settings are validated by logger.New.
func (c *Config) Validate() error {
	v := validator.New()
	for _, s := range []any{c.App, c.Storage, c.Postgres, c.Backup} {
		if err := v.Struct(s); err != nil {
			return fmt.Errorf("config validation error: %w", err)
		}
	}
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("config validation error: storage.sqlite_path is required for the sqlite driver")
		}
	case DriverPostgres:
		var missing []string
		if c.Postgres.Host == "" {
			missing = append(missing, "postgres.host")
		}
		if c.Postgres.User == "" {
			missing = append(missing, "postgres.user")
		}
		if c.Postgres.Password == "" {
			missing = append(missing, "postgres.password")
		}
		if c.Postgres.DBName == "" {
			missing = append(missing, "postgres.db")
		}
		if len(missing) > 0 {
			return fmt.Errorf("config validation error: %v required for the postgres driver", missing)
		}
		if c.Postgres.MinConns > c.Postgres.MaxConns && c.Postgres.MaxConns > 0 {
			return errors.New("config validation error: postgres.min_conns exceeds postgres.max_conns")
		}
	}
	return nil
}
