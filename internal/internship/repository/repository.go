package repository

import (
	"context"

	"internship-portal/backend/internal/internship/domain"
)

// Repository defines persistence for the internship catalog. GetByID returns (nil, nil) when no row matches.
type Repository interface {
	List(ctx context.Context) ([]domain.Internship, error)
	GetByID(ctx context.Context, id int64) (*domain.Internship, error)
	Search(ctx context.Context, f domain.Filter) (*domain.Page, error)
	// BulkInsert inserts all rows in one transaction and returns how many were written.
	BulkInsert(ctx context.Context, rows []domain.Internship) (int, error)
}
