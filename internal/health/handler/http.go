package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const checkTimeout = 2 * time.Second

// Pinger is a dependency checked for readiness (pgxpool, redis ledger).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler reports liveness and the state of each named dependency.
type Handler struct {
	checks map[string]Pinger
}

// New returns a Handler checking every non-nil pinger in checks.
func New(checks map[string]Pinger) *Handler {
	h := &Handler{checks: make(map[string]Pinger, len(checks))}
	for name, p := range checks {
		if p != nil {
			h.checks[name] = p
		}
	}
	return h
}

// Check handles GET /healthz: 200 when every dependency answers, otherwise 503.
func (h *Handler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), checkTimeout)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			log.Printf("health: %s: %v", name, err)
			deps[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}
	return c.JSON(status, echo.Map{"success": status == http.StatusOK, "checks": deps})
}
