package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"internship-portal/backend/internal/db"
	"internship-portal/backend/internal/internship/domain"
)

const selectInternship = `SELECT id, COALESCE(name, ''), COALESCE(domains, ''), COALESCE(skills, ''),
	COALESCE(paid, ''), COALESCE(duration, ''), COALESCE(role, ''), COALESCE(location, ''),
	COALESCE(mode, ''), COALESCE(prerequisites, ''), COALESCE(stipend, ''), COALESCE(other, '')
FROM internships`

const insertInternship = `INSERT INTO internships
	(name, domains, skills, paid, duration, role, location, mode, prerequisites, stipend, other)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

type PostgresRepository struct {
	pool db.Pool
}

// NewPostgresRepository returns an internship repository backed by pool.
func NewPostgresRepository(pool db.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func scanInternship(row pgx.Row) (domain.Internship, error) {
	var i domain.Internship
	err := row.Scan(&i.ID, &i.Name, &i.Domains, &i.Skills, &i.Paid, &i.Duration, &i.Role,
		&i.Location, &i.Mode, &i.Prerequisites, &i.Stipend, &i.Other)
	return i, err
}

func (r *PostgresRepository) query(ctx context.Context, sql string, args ...any) ([]domain.Internship, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Internship{}
	for rows.Next() {
		i, err := scanInternship(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// List returns every internship ordered by id.
func (r *PostgresRepository) List(ctx context.Context) ([]domain.Internship, error) {
	items, err := r.query(ctx, selectInternship+` ORDER BY id`)
	if err != nil {
		return nil, oops.Code("INTERNSHIP_QUERY_FAILED").Wrap(err)
	}
	return items, nil
}

// GetByID returns the internship for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Internship, error) {
	i, err := scanInternship(r.pool.QueryRow(ctx, selectInternship+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("INTERNSHIP_QUERY_FAILED").With("id", id).Wrap(err)
	}
	return &i, nil
}

// Search returns the page of internships matching f and the total match count.
func (r *PostgresRepository) Search(ctx context.Context, f domain.Filter) (*domain.Page, error) {
	f = f.Normalize()
	where, args := buildWhere(f)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM internships`+where, args...).Scan(&total); err != nil {
		return nil, oops.Code("INTERNSHIP_SEARCH_FAILED").Wrap(err)
	}
	n := len(args)
	pageSQL := fmt.Sprintf("%s%s ORDER BY id LIMIT $%d OFFSET $%d", selectInternship, where, n+1, n+2)
	items, err := r.query(ctx, pageSQL, append(args, f.PageSize, f.Offset())...)
	if err != nil {
		return nil, oops.Code("INTERNSHIP_SEARCH_FAILED").Wrap(err)
	}
	return &domain.Page{Total: total, Items: items}, nil
}

// buildWhere renders f as a WHERE clause with positional args. Every term is a
// case-insensitive substring match with LIKE wildcards in the term escaped.
func buildWhere(f domain.Filter) (string, []any) {
	var conds []string
	var args []any
	like := func(column, term string) string {
		args = append(args, "%"+escapeLike(strings.ToLower(term))+"%")
		return fmt.Sprintf("lower(COALESCE(%s, '')) LIKE $%d", column, len(args))
	}
	anyOf := func(column string, terms []string) {
		if len(terms) == 0 {
			return
		}
		parts := make([]string, len(terms))
		for i, t := range terms {
			parts[i] = like(column, t)
		}
		conds = append(conds, "("+strings.Join(parts, " OR ")+")")
	}
	anyOf("domains", f.Domains)
	anyOf("skills", f.Skills)
	for _, c := range []struct{ column, term string }{
		{"location", f.Location},
		{"mode", f.Mode},
		{"paid", f.Paid},
	} {
		if c.term != "" {
			conds = append(conds, like(c.column, c.term))
		}
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// BulkInsert writes rows in a single transaction; on any failure nothing is written.
func (r *PostgresRepository) BulkInsert(ctx context.Context, rows []domain.Internship) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, oops.Code("INTERNSHIP_IMPORT_FAILED").Wrap(err)
	}
	for n, i := range rows {
		if _, err := tx.Exec(ctx, insertInternship, i.Name, i.Domains, i.Skills, i.Paid, i.Duration,
			i.Role, i.Location, i.Mode, i.Prerequisites, i.Stipend, i.Other); err != nil {
			_ = tx.Rollback(ctx)
			return 0, oops.Code("INTERNSHIP_IMPORT_FAILED").With("row", n).Wrap(err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, oops.Code("INTERNSHIP_IMPORT_FAILED").Wrap(err)
	}
	return len(rows), nil
}
