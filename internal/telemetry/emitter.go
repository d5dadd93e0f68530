// Package telemetry carries security-relevant auth events (OTP requested, verified or
// rejected, logins, password resets) to the OpenTelemetry log pipeline.
package telemetry

import (
	"context"
	"time"
)

// Auth event types.
const (
	EventOTPRequested  = "otp_requested"
	EventOTPVerified   = "otp_verified"
	EventOTPRejected   = "otp_rejected"
	EventRegistered    = "user_registered"
	EventLogin         = "login"
	EventLoginFailed   = "login_failed"
	EventPasswordReset = "password_reset"
	EventLogout        = "logout"
)

// AuthEvent is one auth outcome. It never carries codes, passwords or tokens.
type AuthEvent struct {
	Type    string
	Purpose string
	Outcome string
	UserID  int64
	At      time.Time
}

// EventEmitter emits auth events. Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *AuthEvent) error
}
