package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

const defaultSendTimeout = 30 * time.Second

// SMTPProvider - отправка через gomail, соединение открывается на каждое письмо
type SMTPProvider struct {
	cfg       *SMTPConfig
	dialer    *gomail.Dialer
	templates TemplateRenderer
}

func NewSMTPProvider(cfg *SMTPConfig, templates TemplateRenderer) *SMTPProvider {
	return &SMTPProvider{
		cfg:       cfg,
		dialer:    gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		templates: templates,
	}
}

// Send ждет DialAndSend не дольше ctx и cfg.Timeout
func (p *SMTPProvider) Send(ctx context.Context, msg *Message) error {
	if err := p.Validate(); err != nil {
		return err
	}

	timeout := p.cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.dialer.DialAndSend(p.buildMessage(msg)) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp: send to %v: %w", msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp: send to %v: %w", msg.To, ctx.Err())
	}
}

func (p *SMTPProvider) SendTemplate(ctx context.Context, to []string, subject, templateName string, data TemplateData) error {
	if p.templates == nil {
		return errors.New("smtp: no template renderer")
	}
	msg, err := renderInto(p.templates, to, subject, templateName, data)
	if err != nil {
		return err
	}
	return p.Send(ctx, msg)
}

func (p *SMTPProvider) SendOTP(ctx context.Context, to, code string, ttl time.Duration) error {
	return p.SendTemplate(ctx, []string{to}, otpSubject, TemplateOTP, otpData(code, ttl))
}

func (p *SMTPProvider) SendPasswordReset(ctx context.Context, to, code string, ttl time.Duration) error {
	return p.SendTemplate(ctx, []string{to}, resetSubject, TemplatePasswordReset, otpData(code, ttl))
}

func (p *SMTPProvider) Validate() error {
	switch {
	case p.cfg.Host == "":
		return errors.New("smtp: host is not set")
	case p.cfg.Port <= 0 || p.cfg.Port > 65535:
		return fmt.Errorf("smtp: bad port %d", p.cfg.Port)
	case p.cfg.FromEmail == "":
		return errors.New("smtp: sender address is not set")
	}
	return nil
}

func (p *SMTPProvider) Close() error { return nil }

func (p *SMTPProvider) buildMessage(msg *Message) *gomail.Message {
	m := gomail.NewMessage()

	from := msg.From
	if from == "" {
		from = m.FormatAddress(p.cfg.FromEmail, p.cfg.FromName)
	}
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)

	switch {
	case msg.HTML == "":
		m.SetBody("text/plain", msg.Text)
	case msg.Text == "":
		m.SetBody("text/html", msg.HTML)
	default:
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	}
	return m
}
