package ledger

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/jonboulle/clockwork"

	"internship-portal/backend/internal/otp"
)

const shardCount = 32

type record struct {
	codeHash  string
	expiresAt time.Time
	attempts  int
}

type tempToken struct {
	email     string
	expiresAt time.Time
}

type shard struct {
	mu      sync.Mutex
	records map[string]*record
	tokens  map[string]tempToken
}

// MemoryLedger is a single-process Ledger. Keys are spread over shards by hash so that
// only operations landing on the same shard contend for a lock.
type MemoryLedger struct {
	shards [shardCount]*shard
	clock  clockwork.Clock
	opts   Options
}

// NewMemoryLedger returns an empty in-memory ledger reading time from clock.
// A nil clock uses the real clock.
func NewMemoryLedger(clock clockwork.Clock, opts Options) *MemoryLedger {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	l := &MemoryLedger{clock: clock, opts: opts}
	for i := range l.shards {
		l.shards[i] = &shard{
			records: make(map[string]*record),
			tokens:  make(map[string]tempToken),
		}
	}
	return l
}

func (l *MemoryLedger) shardFor(key string) *shard {
	return l.shards[xxhash.Sum64String(key)%shardCount]
}

// Put stores a record for (purpose, subject), replacing any prior one.
func (l *MemoryLedger) Put(ctx context.Context, purpose Purpose, subject, code string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	key := recordKey(purpose, subject)
	s := l.shardFor(key)
	rec := &record{codeHash: otp.Hash(code), expiresAt: l.clock.Now().Add(ttl)}
	s.mu.Lock()
	s.records[key] = rec
	s.mu.Unlock()
	observe("put", purpose, Success)
	return nil
}

// Verify adjudicates code and keeps the record on Success.
func (l *MemoryLedger) Verify(ctx context.Context, purpose Purpose, subject, code string) (Result, error) {
	r := l.adjudicate(purpose, subject, code, false)
	observe("verify", purpose, r)
	return r, nil
}

// VerifyAndConsume adjudicates code and deletes the record on Success.
func (l *MemoryLedger) VerifyAndConsume(ctx context.Context, purpose Purpose, subject, code string) (Result, error) {
	r := l.adjudicate(purpose, subject, code, true)
	observe("consume", purpose, r)
	return r, nil
}

func (l *MemoryLedger) adjudicate(purpose Purpose, subject, code string, consume bool) Result {
	key := recordKey(purpose, subject)
	s := l.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return NotFound
	}
	if l.clock.Now().After(rec.expiresAt) {
		return Expired
	}
	if !otp.Equal(code, rec.codeHash) {
		rec.attempts++
		if l.opts.MaxAttempts > 0 && rec.attempts >= l.opts.MaxAttempts {
			delete(s.records, key)
		}
		return Mismatch
	}
	if consume {
		delete(s.records, key)
	}
	return Success
}

// BindTempToken binds token to email for ttl.
func (l *MemoryLedger) BindTempToken(ctx context.Context, token, email string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	s := l.shardFor(token)
	s.mu.Lock()
	s.tokens[token] = tempToken{email: email, expiresAt: l.clock.Now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

// ResolveTempToken returns the email bound to token. Expired tokens are deleted.
func (l *MemoryLedger) ResolveTempToken(ctx context.Context, token string) (string, Result, error) {
	s := l.shardFor(token)
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok {
		observe("resolve", PurposeLogin, NotFound)
		return "", NotFound, nil
	}
	if l.clock.Now().After(t.expiresAt) {
		delete(s.tokens, token)
		observe("resolve", PurposeLogin, Expired)
		return "", Expired, nil
	}
	observe("resolve", PurposeLogin, Success)
	return t.email, Success, nil
}

// RevokeTempToken deletes token.
func (l *MemoryLedger) RevokeTempToken(ctx context.Context, token string) error {
	s := l.shardFor(token)
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
	return nil
}

// Sweep removes records and temp-tokens that expired more than ExpiredRetention ago.
// Returns the number of entries removed.
func (l *MemoryLedger) Sweep() int {
	cutoff := l.clock.Now().Add(-l.opts.ExpiredRetention)
	removed := 0
	for _, s := range l.shards {
		s.mu.Lock()
		for k, rec := range s.records {
			if rec.expiresAt.Before(cutoff) {
				delete(s.records, k)
				removed++
			}
		}
		for k, t := range s.tokens {
			if t.expiresAt.Before(cutoff) {
				delete(s.tokens, k)
				removed++
			}
		}
		s.mu.Unlock()
	}
	if removed > 0 {
		sweptTotal.Add(float64(removed))
	}
	return removed
}

// Len returns the number of records and temp-tokens currently held, expired or not.
func (l *MemoryLedger) Len() int {
	n := 0
	for _, s := range l.shards {
		s.mu.Lock()
		n += len(s.records) + len(s.tokens)
		s.mu.Unlock()
	}
	return n
}

// Run sweeps every interval until ctx is cancelled. Blocks; start it in a goroutine.
func (l *MemoryLedger) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := l.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if n := l.Sweep(); n > 0 {
				log.Printf("ledger: swept %d expired entries", n)
			}
		}
	}
}
