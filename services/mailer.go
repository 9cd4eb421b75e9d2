package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// PasscodeSender delivers a passcode out of band.
type PasscodeSender interface {
	SendPasscode(ctx context.Context, destination, code string, expiresAt time.Time) error
}

const passcodeSubject = "MovieFlix - Your OTP Code"

func passcodeBodies(code string, expiresAt time.Time) (plain, html string) {
	minutes := int(math.Ceil(time.Until(expiresAt).Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	plain = fmt.Sprintf(`Your MovieFlix verification code is: %s

This code will expire in %d minutes.
If you didn't request this code, please ignore this email.`, code, minutes)

	html = fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #e50914;">MovieFlix</h2>
  <h3>Your OTP Code</h3>
  <p>Your verification code is:</p>
  <div style="background: #f5f5f5; padding: 20px; text-align: center; font-size: 24px; font-weight: bold; letter-spacing: 5px; color: #e50914;">%s</div>
  <p>This code will expire in %d minutes.</p>
  <p>If you didn't request this code, please ignore this email.</p>
</div>`, code, minutes)
	return plain, html
}

type sendgridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridSender mails passcodes through the SendGrid v3 API.
type SendGridSender struct {
	client sendgridClient
	from   *mail.Email
	log    *zap.Logger
}

func NewSendGridSender(apiKey, fromAddress, fromName string, log *zap.Logger) *SendGridSender {
	if log == nil {
		log = zap.NewNop()
	}
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromAddress),
		log:    log,
	}
}

func (s *SendGridSender) SendPasscode(ctx context.Context, to, code string, expiresAt time.Time) error {
	plain, html := passcodeBodies(code, expiresAt)
	message := mail.NewSingleEmail(s.from, passcodeSubject, mail.NewEmail("", to), plain, html)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid: status %d", resp.StatusCode)
	}
	s.log.Debug("passcode email sent", zap.Int("status", resp.StatusCode))
	return nil
}

type smtpDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender mails passcodes through a plain SMTP relay.
type SMTPSender struct {
	dialer   smtpDialer
	from     string
	fromName string
}

func NewSMTPSender(host string, port int, username, password, fromAddress, fromName string) *SMTPSender {
	return &SMTPSender{
		dialer:   gomail.NewDialer(host, port, username, password),
		from:     fromAddress,
		fromName: fromName,
	}
}

func (s *SMTPSender) SendPasscode(_ context.Context, to, code string, expiresAt time.Time) error {
	plain, html := passcodeBodies(code, expiresAt)

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", passcodeSubject)
	m.SetBody("text/plain", plain)
	m.AddAlternative("text/html", html)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}
	return nil
}

// LogSender writes passcodes to the log. Used for phone numbers and for
// local runs without a mail provider.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogSender{log: log}
}

func (s *LogSender) SendPasscode(_ context.Context, to, code string, expiresAt time.Time) error {
	s.log.Info("passcode issued",
		zap.String("destination", to),
		zap.String("code", code),
		zap.Time("expires_at", expiresAt),
	)
	return nil
}
