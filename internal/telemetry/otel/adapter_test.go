package otel

import (
	"context"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"internship-portal/backend/internal/telemetry"
)

type recordCapture struct {
	rec   otellog.Record
	calls int
}

func (r *recordCapture) Emit(ctx context.Context, rec otellog.Record) {
	r.rec = rec
	r.calls++
}

func attributes(rec otellog.Record) map[string]otellog.Value {
	attrs := map[string]otellog.Value{}
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value
		return true
	})
	return attrs
}

func TestNewEventEmitter_NilProvider_ReturnsNoop(t *testing.T) {
	em := NewEventEmitter(nil)
	if err := em.Emit(context.Background(), &telemetry.AuthEvent{Type: telemetry.EventLogin}); err != nil {
		t.Errorf("noop Emit: %v", err)
	}
}

func TestNewEventEmitter_WithProvider(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()
	em := NewEventEmitter(provider)
	if err := em.Emit(context.Background(), nil); err != nil {
		t.Errorf("Emit(nil): %v", err)
	}
	if err := em.Emit(context.Background(), &telemetry.AuthEvent{Type: telemetry.EventLogin}); err != nil {
		t.Errorf("Emit: %v", err)
	}
}

func TestEmit_AttributeMapping(t *testing.T) {
	cap := &recordCapture{}
	em := NewEventEmitterWithLogger(cap)
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	err := em.Emit(context.Background(), &telemetry.AuthEvent{
		Type: telemetry.EventOTPVerified, Purpose: "reset", Outcome: "success", UserID: 42, At: at,
	})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	rec := cap.rec
	if !rec.Timestamp().Equal(at) {
		t.Errorf("timestamp = %v; want %v", rec.Timestamp(), at)
	}
	if rec.Body().AsString() != telemetry.EventOTPVerified {
		t.Errorf("body = %q", rec.Body().AsString())
	}
	attrs := attributes(rec)
	if attrs["event_type"].AsString() != telemetry.EventOTPVerified ||
		attrs["purpose"].AsString() != "reset" ||
		attrs["outcome"].AsString() != "success" ||
		attrs["user_id"].AsInt64() != 42 {
		t.Errorf("attributes = %v", attrs)
	}
	if rec.Severity() != otellog.SeverityInfo {
		t.Errorf("severity = %v; want info", rec.Severity())
	}
}

func TestEmit_OptionalFieldsOmitted(t *testing.T) {
	cap := &recordCapture{}
	em := NewEventEmitterWithLogger(cap)
	if err := em.Emit(context.Background(), &telemetry.AuthEvent{Type: telemetry.EventLoginFailed}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	attrs := attributes(cap.rec)
	for _, k := range []string{"purpose", "outcome", "user_id"} {
		if _, ok := attrs[k]; ok {
			t.Errorf("attribute %q should be omitted", k)
		}
	}
	if cap.rec.Timestamp().IsZero() {
		t.Error("zero At should be replaced with now")
	}
	if cap.rec.Severity() != otellog.SeverityWarn {
		t.Errorf("severity = %v; want warn", cap.rec.Severity())
	}
}

func TestEmit_NilEvent(t *testing.T) {
	cap := &recordCapture{}
	em := NewEventEmitterWithLogger(cap)
	if err := em.Emit(context.Background(), nil); err != nil {
		t.Fatalf("Emit(nil): %v", err)
	}
	if cap.calls != 0 {
		t.Error("nil event should not be emitted")
	}
}
