// Package service records internship applications and keeps the applicant's counter in step.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"internship-portal/backend/internal/application/domain"
	"internship-portal/backend/internal/application/repository"
)

// ErrMissingField is matched by every *MissingFieldError.
var ErrMissingField = errors.New("missing required field")

// MissingFieldError names the required field that was absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string { return fmt.Sprintf("%s is required", e.Field) }

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// CounterStore bumps the applied_count of a registered user (user repository).
type CounterStore interface {
	IncrementAppliedCount(ctx context.Context, email string) error
}

// ApplyService handles application submission.
type ApplyService struct {
	apps     repository.Repository
	counters CounterStore
}

// NewApplyService returns an ApplyService.
func NewApplyService(apps repository.Repository, counters CounterStore) *ApplyService {
	return &ApplyService{apps: apps, counters: counters}
}

// Apply stores a. The applicant's counter is bumped afterwards; a failure there is
// logged and does not fail the submission.
func (s *ApplyService) Apply(ctx context.Context, a *domain.Application) error {
	a.Normalize()
	if f := a.MissingField(); f != "" {
		return &MissingFieldError{Field: f}
	}
	if err := s.apps.Create(ctx, a); err != nil {
		return err
	}
	if err := s.counters.IncrementAppliedCount(ctx, a.Email); err != nil {
		log.Printf("application: saved %d but failed to bump applied_count: %v", a.ID, err)
	}
	return nil
}

// AppliedCount returns the number of applications submitted with email. When the count
// cannot be read it falls back to stored.
func (s *ApplyService) AppliedCount(ctx context.Context, email string, stored int) int {
	n, err := s.apps.CountByEmail(ctx, email)
	if err != nil {
		log.Printf("application: count for profile: %v", err)
		return stored
	}
	return n
}
