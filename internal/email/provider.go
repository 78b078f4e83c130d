package email

import (
	"context"
	"time"
)

// Message - одно исходящее письмо. Text - необязательная plain-версия HTML.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
}

type TemplateData map[string]interface{}

// Provider - отправка писем: OTP, сброс пароля, решения модерации, статусы откликов
type Provider interface {
	Send(ctx context.Context, msg *Message) error
	SendTemplate(ctx context.Context, to []string, subject, templateName string, data TemplateData) error
	SendOTP(ctx context.Context, to, code string, ttl time.Duration) error
	SendPasswordReset(ctx context.Context, to, code string, ttl time.Duration) error
	Validate() error
	Close() error
}

type TemplateRenderer interface {
	Render(templateName string, data TemplateData) (string, error)
}

const (
	otpSubject   = "Your verification code"
	resetSubject = "Reset your password"
)

// otpData - общее для всех провайдеров наполнение письма с кодом
func otpData(code string, ttl time.Duration) TemplateData {
	return TemplateData{"Code": code, "Minutes": int(ttl.Minutes())}
}

// renderInto рендерит шаблон в Message, общий путь SendTemplate
func renderInto(r TemplateRenderer, to []string, subject, name string, data TemplateData) (*Message, error) {
	body, err := r.Render(name, data)
	if err != nil {
		return nil, err
	}
	return &Message{To: to, Subject: subject, HTML: body}, nil
}
