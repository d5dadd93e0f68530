package repository

import (
	"context"

	"internship-portal/backend/internal/application/domain"
)

// Repository defines persistence for applications.
type Repository interface {
	// Create inserts a and fills ID and CreatedAt.
	Create(ctx context.Context, a *domain.Application) error
	// CountByEmail returns how many applications were submitted with email (case-insensitive).
	CountByEmail(ctx context.Context, email string) (int, error)
}
