package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jonboulle/clockwork"

	"internship-portal/backend/internal/otp"
)

// verifyScript adjudicates one OTP record atomically.
// KEYS[1] record key; ARGV: code hash, now (unix ms), consume flag, max attempts.
// Returns the Result value.
var verifyScript = redis.NewScript(`
local rec = redis.call('HMGET', KEYS[1], 'code', 'exp')
if not rec[1] then
	return 0
end
if tonumber(ARGV[2]) > tonumber(rec[2]) then
	return 1
end
if rec[1] ~= ARGV[1] then
	local n = redis.call('HINCRBY', KEYS[1], 'attempts', 1)
	local max = tonumber(ARGV[4])
	if max > 0 and n >= max then
		redis.call('DEL', KEYS[1])
	end
	return 2
end
if ARGV[3] == '1' then
	redis.call('DEL', KEYS[1])
end
return 3
`)

// resolveScript resolves a temp-token. KEYS[1] token key; ARGV[1] now (unix ms).
// Returns {result, email}.
var resolveScript = redis.NewScript(`
local rec = redis.call('HMGET', KEYS[1], 'email', 'exp')
if not rec[1] then
	return {0, ''}
end
if tonumber(ARGV[1]) > tonumber(rec[2]) then
	redis.call('DEL', KEYS[1])
	return {1, ''}
end
return {3, rec[1]}
`)

// RedisLedger is a Ledger shared by every backend instance through Redis. Each record is a
// hash (code, exp, attempts); compare-then-mutate runs in Lua so it is atomic per key.
// Redis key expiry (ttl + ExpiredRetention) collects stale records.
type RedisLedger struct {
	rdb    redis.UniversalClient
	clock  clockwork.Clock
	opts   Options
	prefix string
}

// NewRedisLedger returns a ledger storing its keys under prefix (default "ledger:").
func NewRedisLedger(rdb redis.UniversalClient, clock clockwork.Clock, opts Options, prefix string) *RedisLedger {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if prefix == "" {
		prefix = "ledger:"
	}
	return &RedisLedger{rdb: rdb, clock: clock, opts: opts, prefix: prefix}
}

func (l *RedisLedger) otpKey(purpose Purpose, subject string) string {
	return l.prefix + "otp:" + recordKey(purpose, subject)
}

func (l *RedisLedger) tokenKey(token string) string {
	return l.prefix + "tmp:" + token
}

func (l *RedisLedger) nowMillis() int64 {
	return l.clock.Now().UnixMilli()
}

// Put stores a record for (purpose, subject), replacing any prior one.
func (l *RedisLedger) Put(ctx context.Context, purpose Purpose, subject, code string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	key := l.otpKey(purpose, subject)
	exp := l.clock.Now().Add(ttl).UnixMilli()
	_, err := l.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key, "code", otp.Hash(code), "exp", exp, "attempts", 0)
		p.PExpire(ctx, key, ttl+l.opts.ExpiredRetention)
		return nil
	})
	if err != nil {
		return fmt.Errorf("ledger: put: %w", err)
	}
	observe("put", purpose, Success)
	return nil
}

// Verify adjudicates code and keeps the record on Success.
func (l *RedisLedger) Verify(ctx context.Context, purpose Purpose, subject, code string) (Result, error) {
	return l.adjudicate(ctx, "verify", purpose, subject, code, false)
}

// VerifyAndConsume adjudicates code and deletes the record on Success.
func (l *RedisLedger) VerifyAndConsume(ctx context.Context, purpose Purpose, subject, code string) (Result, error) {
	return l.adjudicate(ctx, "consume", purpose, subject, code, true)
}

func (l *RedisLedger) adjudicate(ctx context.Context, op string, purpose Purpose, subject, code string, consume bool) (Result, error) {
	flag := "0"
	if consume {
		flag = "1"
	}
	n, err := verifyScript.Run(ctx, l.rdb,
		[]string{l.otpKey(purpose, subject)},
		otp.Hash(code), l.nowMillis(), flag, l.opts.MaxAttempts,
	).Int64()
	if err != nil {
		return NotFound, fmt.Errorf("ledger: %s: %w", op, err)
	}
	r := Result(n)
	observe(op, purpose, r)
	return r, nil
}

// BindTempToken binds token to email for ttl.
func (l *RedisLedger) BindTempToken(ctx context.Context, token, email string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	key := l.tokenKey(token)
	exp := l.clock.Now().Add(ttl).UnixMilli()
	_, err := l.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, "email", email, "exp", exp)
		p.PExpire(ctx, key, ttl+l.opts.ExpiredRetention)
		return nil
	})
	if err != nil {
		return fmt.Errorf("ledger: bind temp token: %w", err)
	}
	return nil
}

// ResolveTempToken returns the email bound to token. Expired tokens are deleted.
func (l *RedisLedger) ResolveTempToken(ctx context.Context, token string) (string, Result, error) {
	raw, err := resolveScript.Run(ctx, l.rdb, []string{l.tokenKey(token)}, l.nowMillis()).Slice()
	if err != nil {
		return "", NotFound, fmt.Errorf("ledger: resolve temp token: %w", err)
	}
	if len(raw) != 2 {
		return "", NotFound, fmt.Errorf("ledger: resolve temp token: unexpected reply %v", raw)
	}
	code, _ := raw[0].(int64)
	email, _ := raw[1].(string)
	r := Result(code)
	observe("resolve", PurposeLogin, r)
	return email, r, nil
}

// RevokeTempToken deletes token.
func (l *RedisLedger) RevokeTempToken(ctx context.Context, token string) error {
	if err := l.rdb.Del(ctx, l.tokenKey(token)).Err(); err != nil {
		return fmt.Errorf("ledger: revoke temp token: %w", err)
	}
	return nil
}

// Ping checks connectivity; used by the health endpoint.
func (l *RedisLedger) Ping(ctx context.Context) error {
	return l.rdb.Ping(ctx).Err()
}
