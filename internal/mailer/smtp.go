// Package mailer provides notify.Sender implementations: a real SMTP sender
// and a log-only sender for environments without an outbound mail relay.
package mailer

import (
	"context"

	"github.com/go-faster/errors"
	mail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/tradegate/orderdesk/internal/domain/notify"
)

// Config holds SMTP relay settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

var _ notify.Sender = (*SMTPSender)(nil)

// SMTPSender delivers plain-text messages through an SMTP relay. A fresh
// connection is dialed per message; dispatch volume is low and sequential,
// so connection reuse is not worth the session state.
type SMTPSender struct {
	cfg Config
}

// NewSMTPSender creates an SMTPSender with the given relay settings.
func NewSMTPSender(cfg Config) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send delivers one message, honoring context cancellation during dial and
// transfer.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return errors.Wrap(err, "set from address")
	}
	if err := msg.To(to); err != nil {
		return errors.Wrap(err, "set to address")
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{mail.WithPort(s.cfg.Port)}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return errors.Wrap(err, "create smtp client")
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Wrap(err, "send mail")
	}
	return nil
}

var _ notify.Sender = (*LogSender)(nil)

// LogSender records messages to the log instead of sending them. Used when
// no SMTP relay is configured.
type LogSender struct {
	lg *zap.Logger
}

// NewLogSender creates a LogSender writing to the given logger.
func NewLogSender(lg *zap.Logger) *LogSender {
	return &LogSender{lg: lg}
}

// Send logs the message and reports success.
func (s *LogSender) Send(_ context.Context, to, subject, _ string) error {
	s.lg.Info("mail suppressed (no SMTP relay configured)",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}
