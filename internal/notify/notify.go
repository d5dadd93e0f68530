// Package notify delivers OTP codes to users over email, SMS or, in development, the dev store.
// Senders are called after the ledger write and never while holding a ledger lock.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"internship-portal/backend/internal/ledger"
)

// ErrNoRecipient is returned when the message has no address usable by the sender.
var ErrNoRecipient = errors.New("notify: no recipient address")

// Message is one OTP delivery.
type Message struct {
	Purpose ledger.Purpose
	Email   string
	Phone   string
	Name    string
	Code    string
	TTL     time.Duration
}

// Sender delivers an OTP message. Implementations must respect ctx cancellation.
type Sender interface {
	SendOTP(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) SendOTP(ctx context.Context, msg Message) error { return f(ctx, msg) }

func subject(p ledger.Purpose) string {
	switch p {
	case ledger.PurposeRegister:
		return "Verify your email"
	case ledger.PurposeLogin:
		return "Your login code"
	case ledger.PurposeReset:
		return "Reset your password"
	default:
		return "Your verification code"
	}
}

type bodyParts struct {
	name    string
	code    string
	action  string
	heading string
	minutes int
}

func partsFor(msg Message) bodyParts {
	b := bodyParts{name: msg.Name, code: msg.Code}
	if b.name == "" {
		b.name = "there"
	}
	b.minutes = int(msg.TTL.Round(time.Minute) / time.Minute)
	if b.minutes < 1 {
		b.minutes = 1
	}
	switch msg.Purpose {
	case ledger.PurposeRegister:
		b.action, b.heading = "complete your registration", "Verify Your Email"
	case ledger.PurposeLogin:
		b.action, b.heading = "sign in", "Your Login Code"
	case ledger.PurposeReset:
		b.action, b.heading = "reset your password", "Reset Your Password"
	default:
		b.action, b.heading = "continue", "Your Verification Code"
	}
	return b
}

// textBody renders the plain-text email body.
func textBody(msg Message) string {
	b := partsFor(msg)
	return fmt.Sprintf("Hi %s,\n\nUse %s to %s. The code expires in %d minute(s).\n\nIf you did not request this, you can ignore this message.\n",
		b.name, b.code, b.action, b.minutes)
}

// htmlBody renders the HTML alternative. Name and code are escaped.
func htmlBody(msg Message) string {
	b := partsFor(msg)
	return fmt.Sprintf(`<html>
<body>
	<h2>%s</h2>
	<p>Hi %s,</p>
	<p>Use the following code to %s:</p>
	<h3 style="background-color: #f0f0f0; padding: 10px; font-size: 24px; letter-spacing: 5px; text-align: center;">%s</h3>
	<p>This code will expire in %d minute(s).</p>
	<p>If you did not request this, you can ignore this message.</p>
</body>
</html>
`, b.heading, html.EscapeString(b.name), b.action, html.EscapeString(b.code), b.minutes)
}
