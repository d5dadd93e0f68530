// Package handler serves the internship catalog: list, lookup and filtered search.
package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"internship-portal/backend/internal/internship/domain"
	"internship-portal/backend/internal/internship/repository"
	"internship-portal/backend/internal/server/httpx"
)

// Handler serves /internships.
type Handler struct {
	repo repository.Repository
}

// New returns a Handler over repo.
func New(repo repository.Repository) *Handler {
	return &Handler{repo: repo}
}

// Register mounts the catalog routes on g.
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.POST("/search", h.Search)
	g.GET("/:id", h.Get)
}

type listResponse struct {
	Success bool                `json:"success"`
	Count   int                 `json:"count"`
	Results []domain.Internship `json:"results"`
}

// List handles GET /internships.
func (h *Handler) List(c echo.Context) error {
	items, err := h.repo.List(c.Request().Context())
	if err != nil {
		log.Printf("internship: list: %v", err)
		return httpx.Fail(c, http.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(http.StatusOK, listResponse{Success: true, Count: len(items), Results: items})
}

// Get handles GET /internships/:id.
func (h *Handler) Get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return httpx.Fail(c, http.StatusNotFound, "Internship not found")
	}
	item, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		log.Printf("internship: get %d: %v", id, err)
		return httpx.Fail(c, http.StatusInternalServerError, "Internal server error")
	}
	if item == nil {
		return httpx.Fail(c, http.StatusNotFound, "Internship not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "internship": item})
}

// terms decodes either a single string or a list of strings.
type terms []string

func (t *terms) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = nil
		return nil
	}
	if len(b) > 0 && b[0] == '[' {
		var list []string
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
		*t = list
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*t = terms{s}
	return nil
}

type searchRequest struct {
	Domain   terms     `json:"domain"`
	Skill    terms     `json:"skill"`
	Location string    `json:"location"`
	Mode     string    `json:"mode"`
	Paid     string    `json:"paid"`
	Page     httpx.Int `json:"page"`
	PageSize httpx.Int `json:"page_size"`
}

// Search handles POST /internships/search. An empty body lists the first page.
func (h *Handler) Search(c echo.Context) error {
	var req searchRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return httpx.Fail(c, http.StatusBadRequest, "Invalid search filters")
	}
	page, err := h.repo.Search(c.Request().Context(), domain.Filter{
		Domains:  req.Domain,
		Skills:   req.Skill,
		Location: req.Location,
		Mode:     req.Mode,
		Paid:     req.Paid,
		Page:     int(req.Page),
		PageSize: int(req.PageSize),
	})
	if err != nil {
		log.Printf("internship: search: %v", err)
		return httpx.Fail(c, http.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(http.StatusOK, listResponse{Success: true, Count: page.Total, Results: page.Items})
}
