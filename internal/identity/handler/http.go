// Package handler exposes the auth flows over HTTP: direct register and login, OTP-gated
// registration and login, password reset and logout.
package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"internship-portal/backend/internal/identity/service"
	"internship-portal/backend/internal/server/httpx"
	"internship-portal/backend/internal/server/middleware"
	userdomain "internship-portal/backend/internal/user/domain"
)

// AuthService is the orchestrator used by the handler (*service.AuthService).
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	Authenticate(ctx context.Context, email, password string) (*userdomain.User, error)
	RequestRegistrationOTP(ctx context.Context, email, username, phone string) error
	VerifyRegistrationOTP(ctx context.Context, in service.RegisterInput, code string) (*service.AuthResult, error)
	RequestLoginOTP(ctx context.Context, email, password string) (string, error)
	VerifyLoginOTP(ctx context.Context, tempToken, code string) (*service.AuthResult, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	Logout(ctx context.Context, userID int64) error
}

// Handler serves the auth endpoints.
type Handler struct {
	auth AuthService
}

// New returns a Handler over auth.
func New(auth AuthService) *Handler {
	return &Handler{auth: auth}
}

// Register mounts the /api/auth routes on g. requireUser guards logout.
func (h *Handler) Register(g *echo.Group, requireUser echo.MiddlewareFunc) {
	g.POST("/register", h.RegisterUser)
	g.POST("/login", h.Login)
	g.POST("/register/otp/request", h.RequestRegistrationOTP)
	g.POST("/register/otp/verify", h.VerifyRegistrationOTP)
	g.POST("/login/otp/request", h.RequestLoginOTP)
	g.POST("/login/otp/verify", h.VerifyLoginOTP)
	g.POST("/password/forgot", h.ForgotPassword)
	g.POST("/password/reset", h.ResetPassword)
	g.POST("/logout", h.Logout, requireUser)
}

// RegisterLegacy mounts POST /register and POST /login on g, wrapped in m. They answer
// without a token.
func (h *Handler) RegisterLegacy(g *echo.Group, m ...echo.MiddlewareFunc) {
	g.POST("/register", h.LegacyRegister, m...)
	g.POST("/login", h.LegacyLogin, m...)
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" validate:"required"`
	Org      string `json:"org"`
}

func (r registerRequest) input() service.RegisterInput {
	return service.RegisterInput{Username: r.Username, Email: r.Email, Phone: r.Phone, Password: r.Password, Org: r.Org}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registrationOTPRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
}

type verifyRegistrationRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" validate:"required"`
	Org      string `json:"org"`
	OTP      string `json:"otp" validate:"required"`
}

type verifyLoginRequest struct {
	TempToken string `json:"tempToken" validate:"required"`
	OTP       string `json:"otp" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// RegisterUser handles POST /api/auth/register.
func (h *Handler) RegisterUser(c echo.Context) error {
	var req registerRequest
	if ok, err := httpx.BindAndValidate(c, &req); !ok {
		return err
	}
	res, err := h.auth.Register(c.Request().Context(), req.input())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, sessionResponse("User registered", res))
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if ok, err := httpx.BindAndValidate(c, &req); !ok {
		return err
	}
	res, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, sessionResponse("Login successful", res))
}

// RequestRegistrationOTP handles POST /api/auth/register/otp/request.
func (h *Handler) RequestRegistrationOTP(c echo.Context) error {
	var req registrationOTPRequest
	if ok, err := httpx.BindAndValidate(c, &req); !ok {
		return err
	}
	if err := h.auth.RequestRegistrationOTP(c.Request().Context(), req.Email, req.Username, req.Phone); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, httpx.Response{Success: true, Message: "OTP sent"})
}

// VerifyRegistrationOTP handles POST /api/auth/register/otp/verify.
func (h *Handler) VerifyRegistrationOTP(c echo.Context) error {
	var req verifyRegistrationRequest
	if ok, err := httpx.BindAndValidate(c, &req); !ok {
		return err
	}
	in := service.RegisterInput{Username: req.Username, Email: req.Email, Phone: req.Phone, Password: req.Password, Org: req.Org}
	res, err := h.auth.VerifyRegistrationOTP(c.Request().Context(), in, req.OTP)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, sessionResponse("User registered", res))
}

// RequestLoginOTP handles POST /api/auth/login/otp/request.
func (h *Handler) RequestLoginOTP(c echo.Context) error {
	var req loginRequest
	if ok, err := httpx.BindAndValidate(c, &req); !ok {
		return err
	}
	tempToken, err := h.auth.RequestLoginOTP(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, httpx.Response{Success: true, Message: "OTP sent", TempToken: tempToken})
}

// VerifyLoginOTP handles POST /api/auth/login/otp/verify.
func (h *Handler) VerifyLoginOTP(c echo.Context) error {
	var req verifyLoginRequest
	if ok, err := httpx.BindAndValidate(c, &req); !ok {
		return err
	}
	res, err := h.auth.VerifyLoginOTP(c.Request().Context(), req.TempToken, req.OTP)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, sessionResponse("Login successful", res))
}

// ForgotPassword handles POST /api/auth/password/forgot.
func (h *Handler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if ok, err := httpx.BindAndValidate(c, &req); !ok {
		return err
	}
	if err := h.auth.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, httpx.Response{Success: true, Message: "If an account exists for this email, an OTP has been sent"})
}

// ResetPassword handles POST /api/auth/password/reset.
func (h *Handler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if ok, err := httpx.BindAndValidate(c, &req); !ok {
		return err
	}
	if err := h.auth.ResetPassword(c.Request().Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, httpx.Response{Success: true, Message: "Password updated"})
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return httpx.Fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	if err := h.auth.Logout(c.Request().Context(), u.ID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, httpx.Response{Success: true, Message: "Logged out"})
}

// LegacyRegister handles POST /register.
func (h *Handler) LegacyRegister(c echo.Context) error {
	var req registerRequest
	if ok, err := httpx.BindAndValidate(c, &req); !ok {
		return err
	}
	if _, err := h.auth.Register(c.Request().Context(), req.input()); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, httpx.Response{Success: true, Message: "User registered successfully"})
}

// LegacyLogin handles POST /login.
func (h *Handler) LegacyLogin(c echo.Context) error {
	var req loginRequest
	if ok, err := httpx.BindAndValidate(c, &req); !ok {
		return err
	}
	u, err := h.auth.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, httpx.Response{
		Success: true,
		Message: "Login successful",
		User:    echo.Map{"id": u.ID, "username": u.Username, "email": u.Email},
	})
}

func sessionResponse(message string, res *service.AuthResult) httpx.Response {
	return httpx.Response{Success: true, Message: message, Token: res.Token, User: res.User.Profile()}
}

// writeError maps auth errors to status codes.
func writeError(c echo.Context, err error) error {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("identity: %s %s: %v", c.Request().Method, c.Path(), err)
	}
	return httpx.Fail(c, status, msg)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrDuplicateIdentity):
		return http.StatusConflict, "Email already exists"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, service.ErrOTPMismatch):
		return http.StatusUnauthorized, "Invalid OTP"
	case errors.Is(err, service.ErrOTPExpired):
		return http.StatusUnauthorized, "OTP expired"
	case errors.Is(err, service.ErrInvalidTempToken):
		return http.StatusUnauthorized, "Invalid or expired temp token"
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, service.ErrOTPNotRequested):
		return http.StatusNotFound, "OTP not requested"
	case errors.Is(err, service.ErrNoAccount):
		return http.StatusNotFound, "No account associated with this email"
	case errors.Is(err, service.ErrNotification):
		return http.StatusBadGateway, "Failed to send OTP, please retry"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
