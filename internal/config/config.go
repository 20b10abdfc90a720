// Package config loads hearth's settings from HEARTH_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/dukerupert/hearth/internal/backup"
)

type Config struct {
	Env  string `env:"HEARTH_ENV" envDefault:"development"`
	Port int    `env:"HEARTH_PORT" envDefault:"8080"`

	DBPath string `env:"HEARTH_DB_PATH" envDefault:"hearth.db"`

	LogLevel  string `env:"HEARTH_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"HEARTH_LOG_FORMAT" envDefault:"text"`

	// Bearer tokens are HS256 JWTs signed by the identity provider with
	// this key. Issuer is checked only when set. The key is required to
	// serve, not for the backup commands.
	IdentityKey    string `env:"HEARTH_IDENTITY_KEY"`
	IdentityIssuer string `env:"HEARTH_IDENTITY_ISSUER"`

	CORSOrigin string `env:"HEARTH_CORS_ORIGIN" envDefault:"http://localhost:5173"`

	// Zero disables the verification code cleanup loop.
	CleanupInterval time.Duration `env:"HEARTH_CLEANUP_INTERVAL" envDefault:"1h"`

	// Backups are enabled when bucket, credentials and passphrase are all
	// set. A zero interval leaves only the backup subcommand.
	BackupEndpoint   string        `env:"HEARTH_BACKUP_S3_ENDPOINT"`
	BackupBucket     string        `env:"HEARTH_BACKUP_S3_BUCKET"`
	BackupRegion     string        `env:"HEARTH_BACKUP_S3_REGION" envDefault:"us-east-1"`
	BackupAccessKey  string        `env:"HEARTH_BACKUP_S3_ACCESS_KEY"`
	BackupSecretKey  string        `env:"HEARTH_BACKUP_S3_SECRET_KEY"`
	BackupPrefix     string        `env:"HEARTH_BACKUP_PREFIX" envDefault:"hearth/"`
	BackupPassphrase string        `env:"HEARTH_BACKUP_PASSPHRASE"`
	BackupInterval   time.Duration `env:"HEARTH_BACKUP_INTERVAL" envDefault:"24h"`
	BackupRetention  time.Duration `env:"HEARTH_BACKUP_RETENTION" envDefault:"720h"`

	ReadTimeout     time.Duration `env:"HEARTH_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"HEARTH_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"HEARTH_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Backup returns the backup settings in the form the backup package takes.
func (c *Config) Backup() backup.Config {
	return backup.Config{
		S3: backup.S3Config{
			Endpoint:  c.BackupEndpoint,
			Bucket:    c.BackupBucket,
			Region:    c.BackupRegion,
			AccessKey: c.BackupAccessKey,
			SecretKey: c.BackupSecretKey,
		},
		Passphrase: c.BackupPassphrase,
		Prefix:     c.BackupPrefix,
	}
}

// Load parses the environment into a Config for serving HTTP.
func Load() (*Config, error) {
	cfg, err := LoadOffline()
	if err != nil {
		return nil, err
	}
	if cfg.IdentityKey == "" {
		return nil, fmt.Errorf("HEARTH_IDENTITY_KEY is required")
	}
	return cfg, nil
}

// LoadOffline parses the environment for commands that never verify bearer
// tokens, so HEARTH_IDENTITY_KEY may be unset.
func LoadOffline() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	switch cfg.Env {
	case "development", "production":
	default:
		return nil, fmt.Errorf("HEARTH_ENV must be development or production, got %q", cfg.Env)
	}
	if cfg.CleanupInterval < 0 {
		return nil, fmt.Errorf("HEARTH_CLEANUP_INTERVAL must not be negative")
	}
	if cfg.BackupInterval < 0 || cfg.BackupRetention < 0 {
		return nil, fmt.Errorf("HEARTH_BACKUP_INTERVAL and HEARTH_BACKUP_RETENTION must not be negative")
	}
	return cfg, nil
}
