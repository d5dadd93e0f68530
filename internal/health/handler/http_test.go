package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type mockPinger struct {
	pingErr error
}

func (m *mockPinger) Ping(context.Context) error {
	return m.pingErr
}

type healthBody struct {
	Success bool              `json:"success"`
	Checks  map[string]string `json:"checks"`
}

func check(t *testing.T, h *Handler) (int, healthBody) {
	t.Helper()
	e := echo.New()
	e.GET("/healthz", h.Check)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var body healthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec.Code, body
}

func TestCheck_NoDependencies(t *testing.T) {
	code, body := check(t, New(nil))
	if code != http.StatusOK || !body.Success || len(body.Checks) != 0 {
		t.Errorf("code = %d, body = %+v", code, body)
	}
}

func TestCheck_NilPingerSkipped(t *testing.T) {
	code, body := check(t, New(map[string]Pinger{"database": &mockPinger{}, "redis": nil}))
	if code != http.StatusOK {
		t.Errorf("code = %d, want 200", code)
	}
	if _, has := body.Checks["redis"]; has {
		t.Error("nil pinger must not be reported")
	}
	if body.Checks["database"] != "ok" {
		t.Errorf("checks = %v", body.Checks)
	}
}

func TestCheck_Failure(t *testing.T) {
	code, body := check(t, New(map[string]Pinger{
		"database": &mockPinger{},
		"redis":    &mockPinger{pingErr: errors.New("connection refused")},
	}))
	if code != http.StatusServiceUnavailable || body.Success {
		t.Errorf("code = %d, success = %v", code, body.Success)
	}
	if body.Checks["redis"] != "unavailable" || body.Checks["database"] != "ok" {
		t.Errorf("checks = %v", body.Checks)
	}
}
