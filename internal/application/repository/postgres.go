package repository

import (
	"context"

	"github.com/samber/oops"

	"internship-portal/backend/internal/application/domain"
	"internship-portal/backend/internal/db"
)

type PostgresRepository struct {
	pool db.Pool
}

// NewPostgresRepository returns an application repository backed by pool.
func NewPostgresRepository(pool db.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, a *domain.Application) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO applications (internship_id, name, email, country, age, college_name)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		RETURNING id, created_at
	`, a.InternshipID, a.Name, a.Email, a.Country, a.Age, a.CollegeName).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return oops.Code("APPLICATION_INSERT_FAILED").With("internship_id", a.InternshipID).Wrap(err)
	}
	return nil
}

func (r *PostgresRepository) CountByEmail(ctx context.Context, email string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM applications WHERE lower(email) = lower($1)`, email).Scan(&n)
	if err != nil {
		return 0, oops.Code("APPLICATION_QUERY_FAILED").Wrap(err)
	}
	return n, nil
}
