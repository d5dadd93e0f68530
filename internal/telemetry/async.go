package telemetry

import (
	"context"
	"log"
	"sync"
	"time"
)

// emitTimeout bounds a single async emit.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration bounds Drain at shutdown. Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

var inflight sync.WaitGroup

// EmitAsync runs Emit in a goroutine with its own timeout so the request is not blocked
// and request cancellation does not abort the emit. Nil emitter or event is a no-op.
func EmitAsync(emitter EventEmitter, event *AuthEvent) {
	if emitter == nil || event == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	inflight.Add(1)
	go func() {
		defer inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(ctx, event); err != nil {
			log.Printf("telemetry: async emit failed: %v", err)
		}
	}()
}

// Drain waits for in-flight EmitAsync calls to finish or for ctx to end. Call it after the
// HTTP server has stopped and before the OTel providers shut down.
func Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
