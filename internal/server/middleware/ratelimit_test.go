package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
)

func TestRateLimiter_Allow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rl := NewRateLimiter(1, 2, clock)

	if !rl.Allow("1.1.1.1") || !rl.Allow("1.1.1.1") {
		t.Fatal("burst of 2 should be allowed")
	}
	if rl.Allow("1.1.1.1") {
		t.Fatal("third request should be limited")
	}
	if !rl.Allow("2.2.2.2") {
		t.Error("other IPs have their own bucket")
	}
	clock.Advance(time.Second)
	if !rl.Allow("1.1.1.1") {
		t.Error("bucket should refill after 1s")
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(0, 1, clockwork.NewFakeClock())
	for i := 0; i < 50; i++ {
		if !rl.Allow("1.1.1.1") {
			t.Fatalf("request %d limited with limiting disabled", i)
		}
	}
}

func TestRateLimiter_EvictsIdle(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rl := NewRateLimiter(1, 1, clock)
	rl.Allow("1.1.1.1")
	clock.Advance(11 * time.Minute)
	rl.Allow("2.2.2.2")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.visitors["1.1.1.1"]; ok {
		t.Error("idle visitor should be evicted")
	}
}

func TestRateLimiter_SweepIsTimeGated(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rl := NewRateLimiter(1, 1, clock)
	for i := 0; i < 1000; i++ {
		rl.Allow(fmt.Sprintf("10.0.%d.%d", i/256, i%256))
	}
	rl.mu.Lock()
	sweeps := rl.sweeps
	rl.mu.Unlock()
	if sweeps != 1 {
		t.Fatalf("sweeps = %d after 1000 new IPs in one instant; want 1", sweeps)
	}

	clock.Advance(time.Minute)
	rl.Allow("10.9.9.9")
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.sweeps != 2 {
		t.Errorf("sweeps = %d after interval; want 2", rl.sweeps)
	}
	if len(rl.visitors) != 1001 {
		t.Errorf("visitors = %d; recent visitors must survive the sweep", len(rl.visitors))
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiter(1, 1, clockwork.NewFakeClock())
	e.POST("/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, rl.Middleware())

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.Header.Set(echo.HeaderXRealIP, "9.9.9.9")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 429]", codes)
	}
}
