package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"internship-portal/backend/internal/telemetry"
)

const loggerName = "internship-portal.auth"

// recordEmitter is the part of otellog.Logger used by the emitter.
type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitter returns an EventEmitter writing auth events as OTel log records via provider.
// A nil provider yields a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger(loggerName)}
}

// NewEventEmitterWithLogger returns an EventEmitter over logger.
func NewEventEmitterWithLogger(logger recordEmitter) telemetry.EventEmitter {
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *telemetry.AuthEvent) error { return nil }

type otelEmitter struct {
	logger recordEmitter
}

func (e *otelEmitter) Emit(ctx context.Context, event *telemetry.AuthEvent) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	at := event.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	rec.SetTimestamp(at)
	rec.SetSeverity(severity(event))
	rec.SetBody(otellog.StringValue(event.Type))
	rec.AddAttributes(otellog.String("event_type", event.Type))
	if event.Purpose != "" {
		rec.AddAttributes(otellog.String("purpose", event.Purpose))
	}
	if event.Outcome != "" {
		rec.AddAttributes(otellog.String("outcome", event.Outcome))
	}
	if event.UserID != 0 {
		rec.AddAttributes(otellog.Int64("user_id", event.UserID))
	}
	e.logger.Emit(ctx, rec)
	return nil
}

func severity(event *telemetry.AuthEvent) otellog.Severity {
	switch event.Type {
	case telemetry.EventOTPRejected, telemetry.EventLoginFailed:
		return otellog.SeverityWarn
	default:
		return otellog.SeverityInfo
	}
}
