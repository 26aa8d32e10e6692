package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEmailConfigToSMTPConfig(t *testing.T) {
	cfg := EmailConfig{
		Host:           "smtp.example.com",
		Port:           587,
		Username:       "noreply@example.com",
		Password:       "pwd",
		From:           "noreply@example.com",
		TLS:            true,
		TLSSkipVerify:  true,
		TimeoutSeconds: 5,
	}

	smtp := cfg.ToSMTPConfig()
	assert.Equal(t, "smtp.example.com", smtp.Host)
	assert.Equal(t, 587, smtp.Port)
	assert.True(t, smtp.TLS)
	assert.True(t, smtp.TLSSkipVerify)
	assert.Equal(t, 5*time.Second, smtp.Timeout)
}

func TestAppConfigIsProduction(t *testing.T) {
	assert.True(t, AppConfig{Env: "production"}.IsProduction())
	assert.False(t, AppConfig{Env: "development"}.IsProduction())
}
