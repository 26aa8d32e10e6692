// Package config holds the environment-driven configuration shared by the
// verification server binaries. Values are read with cleanenv from env tags.
package config

import (
	"time"

	"github.com/rentora/contact-verify/pkg/delivery"
)

type AppConfig struct {
	Env  string `env:"APP_ENV" env-default:"development"`
	Port uint16 `env:"HTTP_PORT" env-default:"4000"`
}

// IsProduction reports whether the app runs in a production environment.
// Code disclosure is never allowed in production regardless of other flags.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// EmailConfig holds SMTP email configuration
type EmailConfig struct {
	Host           string `env:"EMAIL_HOST"`
	Port           uint16 `env:"EMAIL_PORT" env-default:"1025"`
	Username       string `env:"EMAIL_USERNAME" env-default:"noreply@example.com"`
	Password       string `env:"EMAIL_PASSWORD" env-default:"pwd"`
	From           string `env:"EMAIL_FROM" env-default:"noreply@example.com"`
	TLS            bool   `env:"EMAIL_TLS" env-default:"false"`
	TLSSkipVerify  bool   `env:"EMAIL_TLS_SKIP_VERIFY" env-default:"false"`
	TimeoutSeconds int    `env:"EMAIL_TIMEOUT_SECONDS" env-default:"30"`
}

// ToSMTPConfig converts the config to a delivery.SMTPConfig
func (e EmailConfig) ToSMTPConfig() delivery.SMTPConfig {
	return delivery.SMTPConfig{
		Host:          e.Host,
		Port:          int(e.Port),
		Username:      e.Username,
		Password:      e.Password,
		From:          e.From,
		TLS:           e.TLS,
		TLSSkipVerify: e.TLSSkipVerify,
		Timeout:       time.Duration(e.TimeoutSeconds) * time.Second,
	}
}

// MessagingConfig holds the settings for the in-app messaging bot channel.
// The channel is registered only when BaseURL is set.
type MessagingConfig struct {
	BaseURL        string `env:"MESSAGING_BOT_URL"`
	TimeoutSeconds int    `env:"MESSAGING_TIMEOUT_SECONDS" env-default:"10"`
}

// AuthorityConfig points at the central account authority service.
type AuthorityConfig struct {
	BaseURL        string `env:"AUTHORITY_URL" env-default:"http://localhost:8081"`
	TimeoutSeconds int    `env:"AUTHORITY_TIMEOUT_SECONDS" env-default:"10"`
}

// RedisConfig selects the challenge store backend. An empty Addr means the
// in-memory store is used instead of Redis.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

type VerificationConfig struct {
	CooldownSeconds int `env:"CODE_COOLDOWN_SECONDS" env-default:"60"`
	CodeTTLMinutes  int `env:"CODE_TTL_MINUTES" env-default:"10"`

	// DiscloseOnUnavailable allows handing the code back to the caller when
	// no notifier serves the channel. Only honored outside production.
	DiscloseOnUnavailable bool `env:"CODE_DISCLOSE_ON_UNAVAILABLE" env-default:"false"`
}

func (v VerificationConfig) Cooldown() time.Duration {
	return time.Duration(v.CooldownSeconds) * time.Second
}

func (v VerificationConfig) CodeTTL() time.Duration {
	return time.Duration(v.CodeTTLMinutes) * time.Minute
}

// SessionConfig controls the cached session and its background reconciler.
// A zero ReconcileIntervalMinutes disables periodic reconciliation, leaving
// only startup and focus-triggered runs.
type SessionConfig struct {
	DataDir                  string `env:"SESSION_DATA_DIR" env-default:".data"`
	ReconcileIntervalMinutes int    `env:"RECONCILE_INTERVAL_MINUTES" env-default:"0"`
}

func (s SessionConfig) ReconcileInterval() time.Duration {
	return time.Duration(s.ReconcileIntervalMinutes) * time.Minute
}

type Config struct {
	App          AppConfig
	Email        EmailConfig
	Messaging    MessagingConfig
	Authority    AuthorityConfig
	Redis        RedisConfig
	Verification VerificationConfig
	Session      SessionConfig
}
