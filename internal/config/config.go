// Package config loads the service configuration from environment variables.
// envconfig maps the variables onto the Config struct; defaults cover local
// development, secrets are required.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every setting of the affiliate service.
type Config struct {
	// --- HTTP ---
	HTTPHost string `envconfig:"HTTP_HOST" default:"0.0.0.0"`
	HTTPPort int    `envconfig:"HTTP_PORT" default:"8080"`
	// Origins allowed to call the API (the SPA). Comma-separated.
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"https://app.docsafe.com.br"`

	// --- Database ---
	// Inside docker-compose "localhost" is almost never right; the default is
	// the compose service name. Override DB_HOST=localhost for a local run.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"affiliates"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"docsafe_affiliates"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	// Commission month windows and cron schedules are evaluated in this zone.
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"America/Sao_Paulo"`

	// --- Auth ---
	// HS256 secret shared with the main DocSafe backend; the JWT subject is
	// the DocSafe user id.
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
	// bcrypt hash of the back-office password (see scripts/generate_hash.go).
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`

	// --- Affiliate program ---
	ReferralCodeLength      int    `envconfig:"REFERRAL_CODE_LENGTH" default:"8"`
	ReferralCodeMaxAttempts int    `envconfig:"REFERRAL_CODE_MAX_ATTEMPTS" default:"5"`
	CommissionBatchCron     string `envconfig:"COMMISSION_BATCH_CRON" default:"0 4 1 * *"`

	// --- Rate limiting ---
	RateLimitRequests int `envconfig:"RATE_LIMIT_REQUESTS" default:"30"`
	RateLimitWindowS  int `envconfig:"RATE_LIMIT_WINDOW_SECONDS" default:"60"`

	// --- Feature flags ---
	FeatureWithdrawalsEnabled bool `envconfig:"FEATURE_WITHDRAWALS_ENABLED" default:"true"`
	FeatureBatchEnabled       bool `envconfig:"FEATURE_COMMISSION_BATCH_ENABLED" default:"true"`
}

// DatabaseDSN returns the PostgreSQL connection string.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Location resolves AppTimezone. Falls back to fixed UTC-3 when the tz
// database is unavailable (Brasília has had no DST since 2019).
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		return time.FixedZone("BRT", -3*60*60)
	}
	return loc
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTPHost, c.HTTPPort)
}

// Validate rejects configurations that would fail at a worse moment later.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT inválido: %d", c.HTTPPort)
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS/DB_MAX_CONNS incorretos")
	}
	if c.ReferralCodeLength < 4 {
		return fmt.Errorf("REFERRAL_CODE_LENGTH deve ser >= 4")
	}
	if c.ReferralCodeMaxAttempts <= 0 {
		return fmt.Errorf("REFERRAL_CODE_MAX_ATTEMPTS deve ser > 0")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindowS <= 0 {
		return fmt.Errorf("configuração de rate limit incorreta")
	}
	return nil
}

// Load reads the environment and fills the Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("não foi possível carregar a configuração: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
