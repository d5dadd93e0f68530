package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"internship-portal/backend/internal/db"
	"internship-portal/backend/internal/user/domain"
)

const emailUniqueIndex = "users_email_lower_key"

const selectUser = `SELECT id, username, email, COALESCE(phone, ''), password_hash,
	COALESCE(session_token_hash, ''), COALESCE(org, ''), COALESCE(profile_pic, ''),
	applied_count, created_at, updated_at
FROM users`

type PostgresRepository struct {
	pool db.Pool
}

// NewPostgresRepository returns a user repository backed by pool.
func NewPostgresRepository(pool db.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Phone, &u.PasswordHash,
		&u.SessionTokenHash, &u.Org, &u.ProfilePic, &u.AppliedCount, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns the user for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE id = $1`, id))
	if err != nil {
		return nil, oops.Code("USER_QUERY_FAILED").With("id", id).Wrap(err)
	}
	return u, nil
}

// GetByEmail returns the user with email (case-insensitive), or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE lower(email) = lower($1)`, email))
	if err != nil {
		return nil, oops.Code("USER_QUERY_FAILED").Wrap(err)
	}
	return u, nil
}

// GetBySessionTokenHash returns the user currently holding the token with hash, or nil.
func (r *PostgresRepository) GetBySessionTokenHash(ctx context.Context, hash string) (*domain.User, error) {
	if hash == "" {
		return nil, nil
	}
	u, err := scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE session_token_hash = $1`, hash))
	if err != nil {
		return nil, oops.Code("USER_QUERY_FAILED").Wrap(err)
	}
	return u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, phone, password_hash, session_token_hash, org)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''))
		RETURNING id, created_at, updated_at
	`, u.Username, u.Email, u.Phone, u.PasswordHash, u.SessionTokenHash, u.Org).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == emailUniqueIndex {
			return domain.ErrDuplicateEmail
		}
		return oops.Code("USER_CREATE_FAILED").Wrap(err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, u *domain.User) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET username = $2, phone = NULLIF($3, ''), org = NULLIF($4, ''), updated_at = now()
		WHERE id = $1
	`, u.ID, u.Username, u.Phone, u.Org)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("id", u.ID).Wrap(err)
	}
	return nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, session_token_hash = NULL, updated_at = now()
		WHERE id = $1
	`, id, passwordHash)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("id", id).Wrap(err)
	}
	return nil
}

func (r *PostgresRepository) SetSessionTokenHash(ctx context.Context, id int64, hash string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET session_token_hash = NULLIF($2, ''), updated_at = now() WHERE id = $1`, id, hash)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("id", id).Wrap(err)
	}
	return nil
}

func (r *PostgresRepository) SetProfilePic(ctx context.Context, id int64, path string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET profile_pic = $2, updated_at = now() WHERE id = $1`, id, path)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("id", id).Wrap(err)
	}
	return nil
}

func (r *PostgresRepository) IncrementAppliedCount(ctx context.Context, email string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET applied_count = applied_count + 1 WHERE lower(email) = lower($1)`, email)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").Wrap(err)
	}
	return nil
}
