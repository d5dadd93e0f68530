package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"gopkg.in/gomail.v2"

	"internship-portal/backend/internal/devotp"
	"internship-portal/backend/internal/ledger"
)

type fakeDialer struct {
	mu    sync.Mutex
	sent  []*gomail.Message
	err   error
	block chan struct{}
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if d.block != nil {
		<-d.block
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, m...)
	return d.err
}

func TestEmailSender_Send(t *testing.T) {
	d := &fakeDialer{}
	s := &EmailSender{dialer: d, from: "noreply@portal.test"}
	msg := Message{Purpose: ledger.PurposeReset, Email: "a@x.com", Name: "Alice", Code: "123456", TTL: 5 * time.Minute}
	if err := s.SendOTP(context.Background(), msg); err != nil {
		t.Fatalf("SendOTP: %v", err)
	}
	if len(d.sent) != 1 {
		t.Fatalf("sent %d messages; want 1", len(d.sent))
	}
	m := d.sent[0]
	if got := m.GetHeader("To"); len(got) != 1 || got[0] != "a@x.com" {
		t.Errorf("To = %v", got)
	}
	if got := m.GetHeader("Subject"); len(got) != 1 || got[0] != "Reset your password" {
		t.Errorf("Subject = %v", got)
	}
}

func TestEmailSender_Errors(t *testing.T) {
	s := &EmailSender{dialer: &fakeDialer{err: errors.New("smtp down")}, from: "f@x.com"}
	if err := s.SendOTP(context.Background(), Message{Email: "a@x.com", Code: "1"}); err == nil || !strings.Contains(err.Error(), "smtp down") {
		t.Errorf("err = %v; want smtp down", err)
	}
	if err := s.SendOTP(context.Background(), Message{Code: "1"}); !errors.Is(err, ErrNoRecipient) {
		t.Errorf("no email err = %v; want ErrNoRecipient", err)
	}
}

func TestEmailSender_RespectsContext(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	s := &EmailSender{dialer: &fakeDialer{block: block}, from: "f@x.com"}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.SendOTP(ctx, Message{Email: "a@x.com", Code: "1"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v; want DeadlineExceeded", err)
	}
}

func TestNewEmailSender_Validation(t *testing.T) {
	if _, err := NewEmailSender("", 587, "u", "p", ""); err == nil {
		t.Error("missing host should fail")
	}
	s, err := NewEmailSender("smtp.test", 587, "user@x.com", "p", "")
	if err != nil {
		t.Fatalf("NewEmailSender: %v", err)
	}
	if s.from != "user@x.com" {
		t.Errorf("from = %q; want SMTP user", s.from)
	}
}

func TestTextBody(t *testing.T) {
	body := textBody(Message{Purpose: ledger.PurposeRegister, Name: "Bob", Code: "654321", TTL: 5 * time.Minute})
	for _, want := range []string{"Hi Bob", "654321", "complete your registration", "5 minute"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
	if !strings.Contains(textBody(Message{Code: "1"}), "Hi there") {
		t.Error("empty name should fall back to a greeting")
	}
}

func TestEmailSender_HTMLAlternative(t *testing.T) {
	d := &fakeDialer{}
	s := &EmailSender{dialer: d, from: "noreply@portal.test"}
	msg := Message{Purpose: ledger.PurposeLogin, Email: "a@x.com", Name: "<Eve>", Code: "123456", TTL: time.Minute}
	if err := s.SendOTP(context.Background(), msg); err != nil {
		t.Fatalf("SendOTP: %v", err)
	}
	var buf bytes.Buffer
	if _, err := d.sent[0].WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{"multipart/alternative", "text/plain", "text/html"} {
		if !strings.Contains(raw, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestHTMLBody(t *testing.T) {
	body := htmlBody(Message{Purpose: ledger.PurposeReset, Name: "<Eve>", Code: "654321", TTL: 15 * time.Minute})
	for _, want := range []string{"Reset Your Password", "&lt;Eve&gt;", "654321", "15 minute"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "<Eve>") {
		t.Error("name must be escaped")
	}
}

func TestDevSender(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := devotp.NewMemoryStore(clock)
	s := NewDevSender(store, clock)
	ctx := context.Background()
	if err := s.SendOTP(ctx, Message{Purpose: ledger.PurposeLogin, Email: "a@x.com", Code: "123456", TTL: time.Minute}); err != nil {
		t.Fatalf("SendOTP: %v", err)
	}
	if otp, ok := store.Get(ctx, "login", "a@x.com"); !ok || otp != "123456" {
		t.Errorf("store = %q, %v", otp, ok)
	}
	clock.Advance(2 * time.Minute)
	if _, ok := store.Get(ctx, "login", "a@x.com"); ok {
		t.Error("dev code should expire with the OTP")
	}
}

func TestWithTimeout(t *testing.T) {
	slow := SenderFunc(func(ctx context.Context, msg Message) error {
		<-ctx.Done()
		return ctx.Err()
	})
	err := WithTimeout(slow, 10*time.Millisecond).SendOTP(context.Background(), Message{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v; want DeadlineExceeded", err)
	}

	var called bool
	fast := SenderFunc(func(ctx context.Context, msg Message) error { called = true; return nil })
	if err := WithTimeout(fast, 0).SendOTP(context.Background(), Message{}); err != nil || !called {
		t.Errorf("zero timeout should pass through, err=%v called=%v", err, called)
	}
}

func TestInstrumented_PassesThrough(t *testing.T) {
	want := errors.New("boom")
	s := Instrumented(SenderFunc(func(ctx context.Context, msg Message) error { return want }), "email")
	if err := s.SendOTP(context.Background(), Message{Purpose: ledger.PurposeLogin}); !errors.Is(err, want) {
		t.Errorf("err = %v; want %v", err, want)
	}
}

func TestOutcome(t *testing.T) {
	tests := map[string]error{
		"sent":         nil,
		"timeout":      context.DeadlineExceeded,
		"no_recipient": ErrNoRecipient,
		"error":        errors.New("x"),
	}
	for want, err := range tests {
		if got := outcome(err); got != want {
			t.Errorf("outcome(%v) = %q; want %q", err, got, want)
		}
	}
}
