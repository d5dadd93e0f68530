package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"internship-portal/backend/internal/application/domain"
	"internship-portal/backend/internal/application/service"
)

type stubApplier struct {
	got *domain.Application
	err error
}

func (s *stubApplier) Apply(ctx context.Context, a *domain.Application) error {
	s.got = a
	if s.err != nil {
		return s.err
	}
	if f := a.MissingField(); f != "" {
		return &service.MissingFieldError{Field: f}
	}
	return nil
}

func postApply(apps *stubApplier, body string) *httptest.ResponseRecorder {
	e := echo.New()
	New(apps).Register(e.Group(""))
	req := httptest.NewRequest(http.MethodPost, "/apply", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestApply_AcceptsStringNumbers(t *testing.T) {
	apps := &stubApplier{}
	rec := postApply(apps, `{"internship_id":"4","name":"Ann","email":"a@x.com","country":"IN","age":"20","college_name":"IIT"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body)
	}
	want := domain.Application{InternshipID: 4, Name: "Ann", Email: "a@x.com", Country: "IN", Age: 20, CollegeName: "IIT"}
	if *apps.got != want {
		t.Errorf("application = %+v, want %+v", *apps.got, want)
	}
	if !strings.Contains(rec.Body.String(), "Application submitted") {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestApply_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		err     error
		want    int
		message string
	}{
		{"missing age", `{"internship_id":4,"name":"Ann","email":"a@x.com","country":"IN"}`, nil, http.StatusBadRequest, "age is required"},
		{"bad number", `{"internship_id":"four"}`, nil, http.StatusBadRequest, "Invalid request body"},
		{"store failure", `{"internship_id":4,"name":"Ann","email":"a@x.com","country":"IN","age":20}`, errors.New("db"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postApply(&stubApplier{err: tt.err}, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if !strings.Contains(rec.Body.String(), tt.message) {
				t.Errorf("body = %s, want message %q", rec.Body, tt.message)
			}
		})
	}
}
