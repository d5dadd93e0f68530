// Package handler serves the dev-only OTP lookup endpoint.
package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"internship-portal/backend/internal/devotp"
)

const devOTPNote = "DEV MODE ONLY"

// Handler reads OTPs from the dev store. Only registered when dev OTP mode is enabled outside production.
type Handler struct {
	store devotp.Store
}

// New returns a Handler reading from store.
func New(store devotp.Store) *Handler {
	return &Handler{store: store}
}

// Register mounts GET /dev/otp on g.
func (h *Handler) Register(g *echo.Group) {
	g.GET("/otp", h.GetOTP)
}

// GetOTP handles GET /dev/otp?purpose=&subject=.
func (h *Handler) GetOTP(c echo.Context) error {
	purpose := strings.TrimSpace(c.QueryParam("purpose"))
	subject := strings.ToLower(strings.TrimSpace(c.QueryParam("subject")))
	if purpose == "" || subject == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "purpose and subject are required"})
	}
	otp, ok := h.store.Get(c.Request().Context(), purpose, subject)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "OTP not found or expired"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "otp": otp, "note": devOTPNote})
}
