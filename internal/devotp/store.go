// Package devotp keeps plaintext OTPs for local development so they can be read back over
// GET /dev/otp instead of being delivered by email or SMS. Never enabled in production.
package devotp

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Store holds plaintext OTPs keyed by purpose and subject.
type Store interface {
	// Put stores otp for (purpose, subject) until expiresAt, replacing any previous one.
	Put(ctx context.Context, purpose, subject, otp string, expiresAt time.Time)
	// Get returns the otp if present and not expired.
	Get(ctx context.Context, purpose, subject string) (otp string, ok bool)
}

type entry struct {
	otp       string
	expiresAt time.Time
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu    sync.RWMutex
	m     map[string]entry
	clock clockwork.Clock
}

// NewMemoryStore returns a new in-memory dev OTP store. A nil clock uses the real clock.
func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		m:     make(map[string]entry),
		clock: clock,
	}
}

func key(purpose, subject string) string {
	return purpose + ":" + subject
}

func (s *MemoryStore) Put(ctx context.Context, purpose, subject, otp string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key(purpose, subject)] = entry{otp: otp, expiresAt: expiresAt}
}

// Get drops the entry once it has expired.
func (s *MemoryStore) Get(ctx context.Context, purpose, subject string) (string, bool) {
	k := key(purpose, subject)
	s.mu.RLock()
	e, ok := s.m[k]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	if s.clock.Now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.m, k)
		s.mu.Unlock()
		return "", false
	}
	return e.otp, true
}
