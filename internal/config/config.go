// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Ledger and upload backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendLocal  = "local"
	BackendS3     = "s3"

	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr    string `mapstructure:"HTTP_ADDR"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// Env is the application environment; "production" forbids dev OTP mode.
	Env        string `mapstructure:"APP_ENV"`
	BcryptCost int    `mapstructure:"BCRYPT_COST"`

	// OTP lifetimes, parsed by OTPTTLDuration and LoginTokenTTLDuration.
	OTPTTL        string `mapstructure:"OTP_TTL"`
	LoginTokenTTL string `mapstructure:"LOGIN_TOKEN_TTL"`
	// OTPMaxAttempts is the number of wrong codes tolerated per OTP; 0 means unbounded.
	OTPMaxAttempts int `mapstructure:"OTP_MAX_ATTEMPTS"`

	// LedgerBackend is "memory" (single instance) or "redis" (shared).
	LedgerBackend          string `mapstructure:"LEDGER_BACKEND"`
	LedgerSweepInterval    string `mapstructure:"LEDGER_SWEEP_INTERVAL"`
	LedgerExpiredRetention string `mapstructure:"LEDGER_EXPIRED_RETENTION"`
	RedisAddr              string `mapstructure:"REDIS_ADDR"`
	RedisPassword          string `mapstructure:"REDIS_PASSWORD"`
	RedisDB                int    `mapstructure:"REDIS_DB"`

	// OTPChannel is "email" or "sms".
	OTPChannel    string `mapstructure:"OTP_CHANNEL"`
	NotifyTimeout string `mapstructure:"NOTIFY_TIMEOUT"`
	SMTPHost      string `mapstructure:"SMTP_HOST"`
	SMTPPort      int    `mapstructure:"SMTP_PORT"`
	SMTPUser      string `mapstructure:"SMTP_USER"`
	SMTPPass      string `mapstructure:"SMTP_PASS"`
	FromEmail     string `mapstructure:"FROM_EMAIL"`
	// SMS Local credentials, used when OTPChannel is "sms".
	SMSLocalAPIKey  string `mapstructure:"SMS_LOCAL_API_KEY"`
	SMSLocalSender  string `mapstructure:"SMS_LOCAL_SENDER"`
	SMSLocalBaseURL string `mapstructure:"SMS_LOCAL_BASE_URL"`
	// OTPReturnToClient enables dev OTP mode: codes go to the dev store and GET /dev/otp
	// instead of email/SMS. Rejected when Env is production.
	OTPReturnToClient bool `mapstructure:"OTP_RETURN_TO_CLIENT"`
	// ResetRevealUnknownAccount makes a reset request for an unknown email fail with 404.
	ResetRevealUnknownAccount bool `mapstructure:"RESET_REVEAL_UNKNOWN_ACCOUNT"`

	// UploadBackend is "local" or "s3".
	UploadBackend   string `mapstructure:"UPLOAD_BACKEND"`
	UploadDir       string `mapstructure:"UPLOAD_DIR"`
	S3Bucket        string `mapstructure:"S3_BUCKET"`
	S3Region        string `mapstructure:"S3_REGION"`
	S3Endpoint      string `mapstructure:"S3_ENDPOINT"`
	S3PublicBaseURL string `mapstructure:"S3_PUBLIC_BASE_URL"`

	OTLPEndpoint    string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure    bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	OTELServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// AuthRateLimit is the sustained requests per second allowed per client IP on auth routes.
	AuthRateLimit float64 `mapstructure:"AUTH_RATE_LIMIT"`
	AuthRateBurst int     `mapstructure:"AUTH_RATE_BURST"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("OTP_TTL", "5m")
	v.SetDefault("LOGIN_TOKEN_TTL", "5m")
	v.SetDefault("OTP_MAX_ATTEMPTS", 5)
	v.SetDefault("LEDGER_BACKEND", BackendMemory)
	v.SetDefault("LEDGER_SWEEP_INTERVAL", "1m")
	v.SetDefault("LEDGER_EXPIRED_RETENTION", "10m")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("OTP_CHANNEL", ChannelEmail)
	v.SetDefault("NOTIFY_TIMEOUT", "10s")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASS", "")
	v.SetDefault("FROM_EMAIL", "")
	v.SetDefault("SMS_LOCAL_API_KEY", "")
	v.SetDefault("SMS_LOCAL_SENDER", "")
	v.SetDefault("SMS_LOCAL_BASE_URL", "https://www.smslocal.com/dev/bulkV2")
	v.SetDefault("OTP_RETURN_TO_CLIENT", false)
	v.SetDefault("RESET_REVEAL_UNKNOWN_ACCOUNT", false)
	v.SetDefault("UPLOAD_BACKEND", BackendLocal)
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_REGION", "")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_PUBLIC_BASE_URL", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "internship-portal")
	v.SetDefault("AUTH_RATE_LIMIT", 5.0)
	v.SetDefault("AUTH_RATE_BURST", 10)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	if c.OTPReturnToClient && c.Env == "production" {
		return errors.New("config: OTP_RETURN_TO_CLIENT must not be true when APP_ENV=production")
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 12
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if c.OTPMaxAttempts < 0 {
		return errors.New("config: OTP_MAX_ATTEMPTS must not be negative")
	}
	switch c.LedgerBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("config: REDIS_ADDR must be set when LEDGER_BACKEND=redis")
		}
	default:
		return fmt.Errorf("config: LEDGER_BACKEND must be memory or redis, got %q", c.LedgerBackend)
	}
	if c.OTPChannel != ChannelEmail && c.OTPChannel != ChannelSMS {
		return fmt.Errorf("config: OTP_CHANNEL must be email or sms, got %q", c.OTPChannel)
	}
	switch c.UploadBackend {
	case BackendLocal:
		if c.UploadDir == "" {
			return errors.New("config: UPLOAD_DIR must be set when UPLOAD_BACKEND=local")
		}
	case BackendS3:
		if c.S3Bucket == "" {
			return errors.New("config: S3_BUCKET must be set when UPLOAD_BACKEND=s3")
		}
	default:
		return fmt.Errorf("config: UPLOAD_BACKEND must be local or s3, got %q", c.UploadBackend)
	}
	return nil
}

// DevOTP reports whether dev OTP mode is active.
func (c *Config) DevOTP() bool {
	return c.OTPReturnToClient && c.Env != "production"
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// OTPTTLDuration returns OTP_TTL, or 5m if unset or invalid.
func (c *Config) OTPTTLDuration() time.Duration {
	return parseDuration(c.OTPTTL, 5*time.Minute)
}

// LoginTokenTTLDuration returns LOGIN_TOKEN_TTL, or 5m if unset or invalid.
func (c *Config) LoginTokenTTLDuration() time.Duration {
	return parseDuration(c.LoginTokenTTL, 5*time.Minute)
}

// SweepInterval returns LEDGER_SWEEP_INTERVAL, or 1m if unset or invalid.
func (c *Config) SweepInterval() time.Duration {
	return parseDuration(c.LedgerSweepInterval, time.Minute)
}

// ExpiredRetention returns LEDGER_EXPIRED_RETENTION, or 10m if unset or invalid.
func (c *Config) ExpiredRetention() time.Duration {
	return parseDuration(c.LedgerExpiredRetention, 10*time.Minute)
}

// NotifyTimeoutDuration returns NOTIFY_TIMEOUT, or 10s if unset or invalid.
func (c *Config) NotifyTimeoutDuration() time.Duration {
	return parseDuration(c.NotifyTimeout, 10*time.Second)
}
