package email

import (
	"time"

	"seribro_backend/internal/config"
)

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	Timeout   time.Duration
}

// ConfigFromApp: без smtp_host/smtp_port берется localhost:587
func ConfigFromApp(cfg *config.Config) *SMTPConfig {
	ec := cfg.Email
	c := &SMTPConfig{
		Host:      ec.SMTPHost,
		Port:      ec.SMTPPort,
		Username:  ec.SMTPUsername,
		Password:  ec.SMTPPassword,
		FromEmail: ec.FromEmail,
		FromName:  ec.FromName,
		Timeout:   defaultSendTimeout,
	}
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port <= 0 {
		c.Port = 587
	}
	return c
}

// NewProvider: email.provider=smtp шлет письма, все остальное - MockProvider
func NewProvider(cfg *config.Config) Provider {
	if cfg.Email.Provider == "smtp" {
		return NewSMTPProvider(ConfigFromApp(cfg), DefaultTemplates())
	}
	return NewMockProvider(DefaultTemplates())
}
