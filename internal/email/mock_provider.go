package email

import (
	"context"
	"sync"
	"time"

	"seribro_backend/internal/logger"
)

// MockProvider пишет письма в лог и хранит их в памяти.
// email.provider: mock в development и все тесты.
type MockProvider struct {
	templates TemplateRenderer

	mu       sync.Mutex
	outbox   []Message
	lastOTP  map[string]string
	failWith error
}

func NewMockProvider(templates TemplateRenderer) *MockProvider {
	return &MockProvider{templates: templates, lastOTP: make(map[string]string)}
}

// FailWith - следующие отправки вернут err (nil снимает)
func (p *MockProvider) FailWith(err error) {
	p.mu.Lock()
	p.failWith = err
	p.mu.Unlock()
}

func (p *MockProvider) Send(ctx context.Context, msg *Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return p.failWith
	}
	p.outbox = append(p.outbox, *msg)
	logger.CtxInfo(ctx, "📧 Mock email", "to", msg.To, "subject", msg.Subject)
	return nil
}

func (p *MockProvider) SendTemplate(ctx context.Context, to []string, subject, templateName string, data TemplateData) error {
	msg, err := renderInto(p.templates, to, subject, templateName, data)
	if err != nil {
		return err
	}
	return p.Send(ctx, msg)
}

func (p *MockProvider) SendOTP(ctx context.Context, to, code string, ttl time.Duration) error {
	return p.sendCode(ctx, to, code, otpSubject, TemplateOTP, ttl)
}

func (p *MockProvider) SendPasswordReset(ctx context.Context, to, code string, ttl time.Duration) error {
	return p.sendCode(ctx, to, code, resetSubject, TemplatePasswordReset, ttl)
}

func (p *MockProvider) sendCode(ctx context.Context, to, code, subject, templateName string, ttl time.Duration) error {
	if err := p.SendTemplate(ctx, []string{to}, subject, templateName, otpData(code, ttl)); err != nil {
		return err
	}
	p.mu.Lock()
	p.lastOTP[to] = code
	p.mu.Unlock()
	return nil
}

// LastOTP - код из последнего успешно отправленного письма на адрес (подтверждение или сброс)
func (p *MockProvider) LastOTP(to string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	code, ok := p.lastOTP[to]
	return code, ok
}

func (p *MockProvider) Sent() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Message, len(p.outbox))
	copy(out, p.outbox)
	return out
}

func (p *MockProvider) Validate() error { return nil }

func (p *MockProvider) Close() error { return nil }
