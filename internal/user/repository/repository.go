package repository

import (
	"context"

	"internship-portal/backend/internal/user/domain"
)

// Repository defines persistence for users. Getters return (nil, nil) when no row matches.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetBySessionTokenHash(ctx context.Context, hash string) (*domain.User, error)
	// Create inserts u, including its SessionTokenHash, in one statement and fills ID and timestamps.
	// Returns domain.ErrDuplicateEmail when the email is taken.
	Create(ctx context.Context, u *domain.User) error
	// Update writes username, phone and org.
	Update(ctx context.Context, u *domain.User) error
	// UpdatePassword replaces the password hash and clears the session token.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	// SetSessionTokenHash replaces the session token hash; empty clears it.
	SetSessionTokenHash(ctx context.Context, id int64, hash string) error
	SetProfilePic(ctx context.Context, id int64, path string) error
	// IncrementAppliedCount bumps applied_count of the user with email, if any.
	IncrementAppliedCount(ctx context.Context, email string) error
}
