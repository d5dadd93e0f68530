package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// mailDialer is the part of *gomail.Dialer used by EmailSender.
type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailSender sends OTPs over SMTP.
type EmailSender struct {
	dialer mailDialer
	from   string
}

// NewEmailSender returns a sender using the given SMTP server. from defaults to user.
func NewEmailSender(host string, port int, user, pass, from string) (*EmailSender, error) {
	if from == "" {
		from = user
	}
	if host == "" || from == "" {
		return nil, fmt.Errorf("notify: SMTP configuration is incomplete: check SMTP_HOST, SMTP_USER and FROM_EMAIL")
	}
	return &EmailSender{dialer: gomail.NewDialer(host, port, user, pass), from: from}, nil
}

// SendOTP mails msg.Code to msg.Email. gomail has no context support, so the send runs in a
// goroutine and SendOTP returns ctx.Err() if ctx ends first.
func (s *EmailSender) SendOTP(ctx context.Context, msg Message) error {
	if msg.Email == "" {
		return ErrNoRecipient
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.Email)
	m.SetHeader("Subject", subject(msg.Purpose))
	m.SetBody("text/plain", textBody(msg))
	m.AddAlternative("text/html", htmlBody(msg))

	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("notify: send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
