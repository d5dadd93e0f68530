// Package ledger holds the ephemeral, time-bounded credentials of the auth flows:
// pending OTP records keyed by purpose and subject, and login temp-tokens.
//
// Every OTP flow adjudicates through Verify / VerifyAndConsume, which return one of
// NotFound, Expired, Mismatch or Success. Operations on the same key are linearized;
// operations on different keys are independent.
package ledger

import (
	"context"
	"errors"
	"time"
)

// Result is the outcome of adjudicating a supplied code or temp-token.
type Result int

const (
	// NotFound means no pending record exists for the key (never requested, consumed, or collected).
	NotFound Result = iota
	// Expired means the record exists but its validity window has passed. The record is kept.
	Expired
	// Mismatch means the supplied code differs from the pending one. The record is kept
	// unless the attempt limit has been reached.
	Mismatch
	// Success means the code matched (and, for VerifyAndConsume, the record was deleted).
	Success
)

// String returns the metric/log label for r.
func (r Result) String() string {
	switch r {
	case NotFound:
		return "not_found"
	case Expired:
		return "expired"
	case Mismatch:
		return "mismatch"
	case Success:
		return "success"
	default:
		return "unknown"
	}
}

// Purpose namespaces OTP records so the same email can have independent pending
// registration, login and reset codes.
type Purpose string

const (
	PurposeRegister Purpose = "register"
	PurposeLogin    Purpose = "login"
	PurposeReset    Purpose = "reset"
)

// ErrInvalidTTL is returned by Put and BindTempToken for a non-positive ttl.
var ErrInvalidTTL = errors.New("ledger: ttl must be positive")

// Ledger stores and adjudicates OTP records and login temp-tokens.
type Ledger interface {
	// Put stores a record for (purpose, subject) valid for ttl, silently replacing any
	// prior record for the same key and resetting its attempt counter.
	Put(ctx context.Context, purpose Purpose, subject, code string, ttl time.Duration) error
	// Verify adjudicates code without consuming the record on Success.
	Verify(ctx context.Context, purpose Purpose, subject, code string) (Result, error)
	// VerifyAndConsume adjudicates code and deletes the record on Success.
	VerifyAndConsume(ctx context.Context, purpose Purpose, subject, code string) (Result, error)
	// BindTempToken binds token to email for ttl.
	BindTempToken(ctx context.Context, token, email string, ttl time.Duration) error
	// ResolveTempToken returns the email bound to token with Success, or NotFound / Expired.
	// An expired token is deleted when it is resolved.
	ResolveTempToken(ctx context.Context, token string) (string, Result, error)
	// RevokeTempToken deletes token. Deleting a missing token is not an error.
	RevokeTempToken(ctx context.Context, token string) error
}

// Options tunes attempt limits and garbage collection shared by all implementations.
type Options struct {
	// MaxAttempts is the number of mismatches after which a record is discarded. 0 disables the limit.
	MaxAttempts int
	// ExpiredRetention is how long an expired record keeps answering Expired before it may be collected.
	ExpiredRetention time.Duration
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{MaxAttempts: 5, ExpiredRetention: 10 * time.Minute}
}

func recordKey(purpose Purpose, subject string) string {
	return string(purpose) + ":" + subject
}
