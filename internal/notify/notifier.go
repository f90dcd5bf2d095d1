// Package notify delivers booking notifications to an operator channel.
package notify

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

// Notifier sends message to destination.  The destination format depends
// on the driver: a phone number for WhatsApp, an address for e-mail.
type Notifier interface {
	Send(ctx context.Context, destination, message string) error
	Name() string
}

// NoopSender logs and drops every message.
type NoopSender struct{}

func NewNoopSender() *NoopSender { return &NoopSender{} }

func (NoopSender) Name() string { return "noop" }

func (NoopSender) Send(_ context.Context, destination, message string) error {
	logrus.WithFields(logrus.Fields{"destination": destination, "chars": len(message)}).
		Debug("notify: noop driver dropped message")
	return nil
}

// Options selects and configures a Notifier.
type Options struct {
	Driver string

	FonnteURL string
	FonnteKey string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	MailSubject  string
}

// New builds the Notifier named by opts.Driver.  Unknown drivers and
// drivers missing credentials fall back to NoopSender.
func New(opts Options) Notifier {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "whatsapp", "fonnte":
		if opts.FonnteKey == "" {
			logrus.Warn("notify: FONNTE_API_KEY not set, notifications disabled")
			return NewNoopSender()
		}
		return NewWhatsAppSender(opts.FonnteURL, opts.FonnteKey)
	case "email", "mail", "smtp":
		if opts.SMTPHost == "" {
			logrus.Warn("notify: SMTP_HOST not set, notifications disabled")
			return NewNoopSender()
		}
		return NewMailSender(opts.SMTPHost, opts.SMTPPort, opts.SMTPUsername, opts.SMTPPassword, opts.MailFrom, opts.MailSubject)
	default:
		return NewNoopSender()
	}
}
