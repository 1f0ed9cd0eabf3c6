// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Mail backends.
const (
	MailBackendMailgun = "mailgun"
	MailBackendSMTP    = "smtp"
	MailBackendLog     = "log"
)

// Config holds all application configuration.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	RedisURL    string `env:"REDIS_URL,required,notEmpty"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// GraphQL
	GraphQLMaxDepth int `env:"GRAPHQL_MAX_DEPTH" envDefault:"10"`

	// Mail delivery
	Mail MailConfig

	// Rate limiting
	RateLimitAPIEnabled   bool `env:"RATE_LIMIT_API_ENABLED" envDefault:"true"`
	RateLimitAnonRPS      int  `env:"RATE_LIMIT_ANON_RPS" envDefault:"5"`
	RateLimitAnonBurst    int  `env:"RATE_LIMIT_ANON_BURST" envDefault:"20"`
	VerificationSendLimit int  `env:"VERIFICATION_SEND_LIMIT" envDefault:"3"`
	// Window over which VerificationSendLimit applies.
	VerificationSendWindow time.Duration `env:"VERIFICATION_SEND_WINDOW" envDefault:"10m"`

	// Comma-separated list of allowed origins.
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// MailConfig selects and configures the outbound mail backend.
type MailConfig struct {
	Backend string `env:"MAIL_BACKEND" envDefault:"mailgun"`
	From    string `env:"MAIL_FROM" envDefault:"no-reply@nuber.com"`
	// To overrides the recipient of every message. Empty sends to the user.
	To string `env:"MAIL_TO" envDefault:""`

	VerificationBaseURL string `env:"VERIFICATION_BASE_URL" envDefault:"http://nuber.com"`

	MailgunAPIKey  string `env:"MAILGUN_API_KEY" envDefault:""`
	MailgunDomain  string `env:"MAILGUN_DOMAIN" envDefault:"sandboxd450e169c47441c482686592965902ce.mailgun.org"`
	MailgunAPIBase string `env:"MAILGUN_API_BASE" envDefault:""`

	SMTPHost     string `env:"SMTP_HOST" envDefault:""`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME" envDefault:""`
	SMTPPassword string `env:"SMTP_PASSWORD" envDefault:""`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	var result []string
	for _, origin := range strings.Split(c.CORSAllowedOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Validate checks cross-field constraints the env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL must not be empty"))
	}
	if strings.TrimSpace(c.RedisURL) == "" {
		errs = append(errs, errors.New("REDIS_URL must not be empty"))
	}
	if c.GraphQLMaxDepth < 1 {
		errs = append(errs, errors.New("GRAPHQL_MAX_DEPTH must be positive"))
	}
	if c.VerificationSendLimit < 1 {
		errs = append(errs, errors.New("VERIFICATION_SEND_LIMIT must be positive"))
	}
	if err := c.Mail.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Validate checks the mail backend settings.
func (m *MailConfig) Validate() error {
	switch m.Backend {
	case MailBackendMailgun:
		if m.MailgunDomain == "" {
			return errors.New("MAILGUN_DOMAIN is required for the mailgun backend")
		}
	case MailBackendSMTP:
		if m.SMTPHost == "" {
			return errors.New("SMTP_HOST is required for the smtp backend")
		}
	case MailBackendLog:
	default:
		return fmt.Errorf("unknown MAIL_BACKEND %q", m.Backend)
	}
	if m.From == "" {
		return errors.New("MAIL_FROM must not be empty")
	}
	return nil
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadMail parses only the mail settings. Used by tools that send mail
// without talking to the database.
func LoadMail() (*MailConfig, error) {
	cfg := &MailConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse mail config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mail config: %w", err)
	}
	return cfg, nil
}
