// Package config loads process configuration from the environment so main
// stays lean. Every backing service is optional: with an empty DSN, endpoint,
// or broker list the corresponding in-memory or no-op adapter is wired
// instead, which keeps local development free of infrastructure.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains all server configuration parameters.
type Config struct {
	Addr     string `env:"ATTEST_ADDR" envDefault:":8080"`
	LogLevel int    `env:"LOG_LEVEL" envDefault:"0"`

	JWT      JWT      `envPrefix:"JWT_"`
	Database Database `envPrefix:"DATABASE_"`
	Redis    Redis    `envPrefix:"REDIS_"`
	Storage  Storage  `envPrefix:"MINIO_"`
	SMTP     SMTP     `envPrefix:"SMTP_"`
	Audit    Audit    `envPrefix:"AUDIT_"`

	// PasswordChangeIntervalDays seeds the security policy record on first
	// boot. 0 means credential changes are unrestricted until an
	// administrator tightens the policy.
	PasswordChangeIntervalDays int `env:"PASSWORD_CHANGE_INTERVAL_DAYS" envDefault:"0"`
}

// JWT contains API session token parameters.
type JWT struct {
	SigningKey string        `env:"SIGNING_KEY" envDefault:"dev-secret-change-in-production"`
	Issuer     string        `env:"ISSUER" envDefault:"attest"`
	TTL        time.Duration `env:"TTL" envDefault:"1h"`
}

// Database contains PostgreSQL connection parameters. Empty DSN selects the
// in-memory stores.
type Database struct {
	DSN          string        `env:"DSN"`
	MaxOpenConns int           `env:"MAX_OPEN_CONNS" envDefault:"10"`
	ConnLifetime time.Duration `env:"CONN_LIFETIME" envDefault:"30m"`
}

// Redis contains connection parameters for the pending-code and email-token
// stores. Empty URL selects the in-memory stores.
type Redis struct {
	URL          string        `env:"URL"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
}

// Storage contains object storage parameters for identity documents. Empty
// endpoint means document submission reports storage as not configured.
type Storage struct {
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET_NAME" envDefault:"attest-documents"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

// SMTP contains mail delivery parameters for verification links. Empty host
// selects the logging notifier.
type SMTP struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" envDefault:"no-reply@attest.local"`
	// BaseURL is prefixed to email verification deep links.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`
}

// Audit contains Kafka parameters for the audit event stream. Empty broker
// list selects the no-op publisher.
type Audit struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_TOPIC" envDefault:"attest.audit"`
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}
