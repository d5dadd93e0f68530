package notify

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var sends = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "notify_otp_sends_total",
	Help: "OTP notification attempts by channel, purpose and result",
}, []string{"channel", "purpose", "result"})

// WithTimeout bounds every send of next by d.
func WithTimeout(next Sender, d time.Duration) Sender {
	if d <= 0 {
		return next
	}
	return SenderFunc(func(ctx context.Context, msg Message) error {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return next.SendOTP(ctx, msg)
	})
}

// Instrumented counts the outcome of every send of next under channel.
func Instrumented(next Sender, channel string) Sender {
	return SenderFunc(func(ctx context.Context, msg Message) error {
		err := next.SendOTP(ctx, msg)
		sends.WithLabelValues(channel, string(msg.Purpose), outcome(err)).Inc()
		return err
	})
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "sent"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrNoRecipient):
		return "no_recipient"
	default:
		return "error"
	}
}
