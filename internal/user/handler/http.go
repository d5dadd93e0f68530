// Package handler serves the authenticated profile endpoints under /api/me.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"internship-portal/backend/internal/server/httpx"
	"internship-portal/backend/internal/server/middleware"
	"internship-portal/backend/internal/storage"
	"internship-portal/backend/internal/user/domain"
)

// ProfileStore is the part of the user repository the profile endpoints write to.
type ProfileStore interface {
	Update(ctx context.Context, u *domain.User) error
	SetProfilePic(ctx context.Context, id int64, path string) error
}

// AppliedCounter recomputes a user's application count, falling back to stored.
type AppliedCounter interface {
	AppliedCount(ctx context.Context, email string, stored int) int
}

// Handler serves /api/me. All routes expect RequireUser to have run.
type Handler struct {
	users   ProfileStore
	files   storage.Store
	counter AppliedCounter
}

// New returns a profile Handler.
func New(users ProfileStore, files storage.Store, counter AppliedCounter) *Handler {
	return &Handler{users: users, files: files, counter: counter}
}

// Register mounts the profile routes on g, which must already require a user. upload
// wraps the picture routes only, typically with a body limit.
func (h *Handler) Register(g *echo.Group, upload ...echo.MiddlewareFunc) {
	g.GET("", h.Get)
	g.PUT("", h.Update)
	g.POST("", h.Update)
	g.PUT("/picture", h.UploadPicture, upload...)
	g.POST("/picture", h.UploadPicture, upload...)
}

func (h *Handler) profile(ctx context.Context, u *domain.User) domain.Profile {
	p := u.Profile()
	p.AppliedCount = h.counter.AppliedCount(ctx, u.Email, u.AppliedCount)
	return p
}

// Get handles GET /api/me. The body is the bare profile object.
func (h *Handler) Get(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return httpx.Fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	return c.JSON(http.StatusOK, h.profile(c.Request().Context(), u))
}

type updateRequest struct {
	Username *string `json:"username"`
	Phone    *string `json:"phone"`
	Org      *string `json:"org"`
}

// bindUpdate reads a JSON body or form fields. Absent fields stay nil.
func bindUpdate(c echo.Context) (updateRequest, error) {
	var req updateRequest
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		err := json.NewDecoder(c.Request().Body).Decode(&req)
		if err != nil && !errors.Is(err, io.EOF) {
			return req, err
		}
		return req, nil
	}
	form, err := c.FormParams()
	if err != nil {
		return req, err
	}
	field := func(name string) *string {
		if vs, ok := form[name]; ok && len(vs) > 0 {
			v := vs[0]
			return &v
		}
		return nil
	}
	req.Username, req.Phone, req.Org = field("username"), field("phone"), field("org")
	return req, nil
}

// Update handles PUT and POST /api/me. Only the fields present in the request change.
func (h *Handler) Update(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return httpx.Fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	req, err := bindUpdate(c)
	if err != nil {
		return httpx.Fail(c, http.StatusBadRequest, "Invalid request body")
	}
	updated := *u
	if req.Username != nil {
		updated.Username = strings.TrimSpace(*req.Username)
		if updated.Username == "" {
			return httpx.Fail(c, http.StatusBadRequest, "username is required")
		}
	}
	if req.Phone != nil {
		updated.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Org != nil {
		updated.Org = strings.TrimSpace(*req.Org)
	}
	ctx := c.Request().Context()
	if err := h.users.Update(ctx, &updated); err != nil {
		log.Printf("user: update profile %d: %v", u.ID, err)
		return httpx.Fail(c, http.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(http.StatusOK, httpx.Response{Success: true, User: h.profile(ctx, &updated)})
}

// UploadPicture handles PUT and POST /api/me/picture with a multipart profile_pic file.
func (h *Handler) UploadPicture(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return httpx.Fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	fh, err := c.FormFile("profile_pic")
	if err != nil {
		return httpx.Fail(c, http.StatusBadRequest, "No file uploaded")
	}
	if strings.TrimSpace(fh.Filename) == "" {
		return httpx.Fail(c, http.StatusBadRequest, "Empty filename")
	}
	f, err := fh.Open()
	if err != nil {
		return httpx.Fail(c, http.StatusBadRequest, "No file uploaded")
	}
	defer f.Close()

	ctx := c.Request().Context()
	name := storage.ProfilePicName(u.ID, fh.Filename)
	path, err := h.files.Save(ctx, name, fh.Header.Get(echo.HeaderContentType), f)
	if err != nil {
		log.Printf("user: save picture for %d: %v", u.ID, err)
		return httpx.Fail(c, http.StatusInternalServerError, "Internal server error")
	}
	if err := h.users.SetProfilePic(ctx, u.ID, path); err != nil {
		log.Printf("user: set picture for %d: %v", u.ID, err)
		return httpx.Fail(c, http.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "profile_pic": path})
}
