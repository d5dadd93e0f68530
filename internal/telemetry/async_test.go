package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type mockEventEmitter struct {
	mu      sync.Mutex
	events  []*AuthEvent
	emitErr error
	done    chan struct{}
}

func newMockEmitter() *mockEventEmitter {
	return &mockEventEmitter{done: make(chan struct{}, 16)}
}

func (m *mockEventEmitter) Emit(ctx context.Context, event *AuthEvent) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	m.done <- struct{}{}
	return m.emitErr
}

func (m *mockEventEmitter) wait(t *testing.T) {
	t.Helper()
	select {
	case <-m.done:
	case <-time.After(time.Second):
		t.Fatal("emit did not happen")
	}
}

func TestEmitAsync_NilEmitterOrEvent(t *testing.T) {
	EmitAsync(nil, &AuthEvent{Type: EventLogin})

	em := newMockEmitter()
	EmitAsync(em, nil)
	time.Sleep(10 * time.Millisecond)
	em.mu.Lock()
	defer em.mu.Unlock()
	if len(em.events) != 0 {
		t.Errorf("expected 0 events, got %d", len(em.events))
	}
}

func TestEmitAsync_Emits(t *testing.T) {
	em := newMockEmitter()
	EmitAsync(em, &AuthEvent{Type: EventOTPRequested, Purpose: "login", UserID: 4})
	em.wait(t)

	em.mu.Lock()
	defer em.mu.Unlock()
	if len(em.events) != 1 {
		t.Fatalf("events = %d; want 1", len(em.events))
	}
	got := em.events[0]
	if got.Type != EventOTPRequested || got.UserID != 4 {
		t.Errorf("event = %+v", got)
	}
	if got.At.IsZero() {
		t.Error("timestamp should be filled")
	}
}

func TestEmitAsync_ErrorIsSwallowed(t *testing.T) {
	em := newMockEmitter()
	em.emitErr = errors.New("collector down")
	EmitAsync(em, &AuthEvent{Type: EventLoginFailed})
	em.wait(t)
}

func TestEmitAsync_KeepsTimestamp(t *testing.T) {
	em := newMockEmitter()
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	EmitAsync(em, &AuthEvent{Type: EventLogout, At: at})
	em.wait(t)
	em.mu.Lock()
	defer em.mu.Unlock()
	if !em.events[0].At.Equal(at) {
		t.Errorf("At = %v; want %v", em.events[0].At, at)
	}
}

type blockingEmitter struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingEmitter) Emit(ctx context.Context, event *AuthEvent) error {
	close(b.started)
	<-b.release
	return nil
}

func TestDrain_WaitsForInflightEmits(t *testing.T) {
	em := &blockingEmitter{started: make(chan struct{}), release: make(chan struct{})}
	EmitAsync(em, &AuthEvent{Type: EventLogin})
	<-em.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := Drain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Drain with blocked emit = %v; want DeadlineExceeded", err)
	}

	close(em.release)
	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	if err := Drain(ctx2); err != nil {
		t.Fatalf("Drain after release = %v; want nil", err)
	}
}
