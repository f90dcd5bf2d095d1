package notify

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"
)

// MailSender delivers notifications as plain-text e-mail over SMTP.
type MailSender struct {
	dialer  *gomail.Dialer
	from    string
	subject string
}

func NewMailSender(host string, port int, username, password, from, subject string) *MailSender {
	if port == 0 {
		port = 587
	}
	if from == "" {
		from = username
	}
	if subject == "" {
		subject = "Room booking update"
	}
	d := gomail.NewDialer(host, port, username, password)
	d.TLSConfig = &tls.Config{ServerName: host}
	return &MailSender{dialer: d, from: from, subject: subject}
}

func (s *MailSender) Name() string { return "email" }

func (s *MailSender) Send(ctx context.Context, destination, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(s.message(destination, message)); err != nil {
		logrus.WithError(err).WithField("destination", destination).Error("notify: smtp send failed")
		return fmt.Errorf("notify: smtp send: %w", err)
	}
	return nil
}

func (s *MailSender) message(to, body string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", s.subject)
	m.SetBody("text/plain", body)
	return m
}
