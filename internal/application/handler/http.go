// Package handler serves POST /apply.
package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"internship-portal/backend/internal/application/domain"
	"internship-portal/backend/internal/application/service"
	"internship-portal/backend/internal/server/httpx"
)

// Applier submits applications (*service.ApplyService).
type Applier interface {
	Apply(ctx context.Context, a *domain.Application) error
}

// Handler serves application submission.
type Handler struct {
	apps Applier
}

// New returns a Handler over apps.
func New(apps Applier) *Handler {
	return &Handler{apps: apps}
}

// Register mounts POST /apply on g.
func (h *Handler) Register(g *echo.Group) {
	g.POST("/apply", h.Apply)
}

type applyRequest struct {
	InternshipID httpx.Int `json:"internship_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Country      string    `json:"country"`
	Age          httpx.Int `json:"age"`
	CollegeName  string    `json:"college_name"`
}

// Apply handles POST /apply.
func (h *Handler) Apply(c echo.Context) error {
	var req applyRequest
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(c, http.StatusBadRequest, "Invalid request body")
	}
	a := &domain.Application{
		InternshipID: int64(req.InternshipID),
		Name:         req.Name,
		Email:        req.Email,
		Country:      req.Country,
		Age:          int(req.Age),
		CollegeName:  req.CollegeName,
	}
	if err := h.apps.Apply(c.Request().Context(), a); err != nil {
		if errors.Is(err, service.ErrMissingField) {
			return httpx.Fail(c, http.StatusBadRequest, err.Error())
		}
		log.Printf("application: apply: %v", err)
		return httpx.Fail(c, http.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(http.StatusOK, httpx.Response{Success: true, Message: "Application submitted"})
}
