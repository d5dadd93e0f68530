package devotp

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestMemoryStore_PutGet(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewMemoryStore(clock)
	ctx := context.Background()

	store.Put(ctx, "register", "a@x.com", "123456", clock.Now().Add(5*time.Minute))

	otp, ok := store.Get(ctx, "register", "a@x.com")
	if !ok || otp != "123456" {
		t.Fatalf("Get = %q, %v; want 123456, true", otp, ok)
	}
	if _, ok := store.Get(ctx, "login", "a@x.com"); ok {
		t.Error("different purpose must not match")
	}
	if _, ok := store.Get(ctx, "register", "b@x.com"); ok {
		t.Error("different subject must not match")
	}
}

func TestMemoryStore_Overwrite(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewMemoryStore(clock)
	ctx := context.Background()
	store.Put(ctx, "reset", "a@x.com", "111111", clock.Now().Add(time.Minute))
	store.Put(ctx, "reset", "a@x.com", "222222", clock.Now().Add(time.Minute))
	if otp, _ := store.Get(ctx, "reset", "a@x.com"); otp != "222222" {
		t.Errorf("otp = %q; want 222222", otp)
	}
}

func TestMemoryStore_ExpiredIsRemoved(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewMemoryStore(clock)
	ctx := context.Background()
	store.Put(ctx, "login", "a@x.com", "123456", clock.Now().Add(time.Minute))

	clock.Advance(2 * time.Minute)
	if otp, ok := store.Get(ctx, "login", "a@x.com"); ok || otp != "" {
		t.Fatalf("Get after expiry = %q, %v; want empty, false", otp, ok)
	}
	store.mu.RLock()
	_, exists := store.m[key("login", "a@x.com")]
	store.mu.RUnlock()
	if exists {
		t.Error("expired entry should be removed")
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			subject := fmt.Sprintf("u%d@x.com", i)
			store.Put(ctx, "register", subject, "123456", time.Now().Add(time.Minute))
			if _, ok := store.Get(ctx, "register", subject); !ok {
				t.Errorf("Get(%s) missing", subject)
			}
		}(i)
	}
	wg.Wait()
}
