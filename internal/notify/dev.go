package notify

import (
	"context"

	"github.com/jonboulle/clockwork"

	"internship-portal/backend/internal/devotp"
)

// DevSender stores codes in the dev OTP store instead of delivering them.
type DevSender struct {
	store devotp.Store
	clock clockwork.Clock
}

// NewDevSender returns a sender writing to store. A nil clock uses the real clock.
func NewDevSender(store devotp.Store, clock clockwork.Clock) *DevSender {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &DevSender{store: store, clock: clock}
}

func (s *DevSender) SendOTP(ctx context.Context, msg Message) error {
	if msg.Email == "" {
		return ErrNoRecipient
	}
	s.store.Put(ctx, string(msg.Purpose), msg.Email, msg.Code, s.clock.Now().Add(msg.TTL))
	return nil
}
