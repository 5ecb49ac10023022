package member

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectMemberSQL = `
	SELECT id, name, email, created_at, updated_at
	FROM members
`

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) Create(ctx context.Context, m *Member) error {
	const query = `
		INSERT INTO members (name, email)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, m.Name, m.Email).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	return mapMemberError(err)
}

func (r *PostgresRepo) Update(ctx context.Context, m *Member) error {
	const query = `
		UPDATE members
		SET name = $2, email = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, m.ID, m.Name, m.Email).Scan(&m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return mapMemberError(err)
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return mapMemberError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Member, error) {
	return r.getOne(ctx, selectMemberSQL+" WHERE id = $1", id)
}

func (r *PostgresRepo) GetByEmail(ctx context.Context, email string) (Member, error) {
	return r.getOne(ctx, selectMemberSQL+" WHERE email = $1", email)
}

func (r *PostgresRepo) getOne(ctx context.Context, sql string, args ...any) (Member, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var m Member
	err := r.db.QueryRow(timeoutCtx, sql, args...).
		Scan(&m.ID, &m.Name, &m.Email, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Member{}, ErrNotFound
		}
		return Member{}, err
	}
	return m, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]Member, error) {
	return r.queryMembers(ctx, selectMemberSQL+" ORDER BY name")
}

func (r *PostgresRepo) SearchByName(ctx context.Context, name string) ([]Member, error) {
	return r.queryMembers(ctx, selectMemberSQL+" WHERE name ILIKE $1 ORDER BY name", "%"+name+"%")
}

func (r *PostgresRepo) ListWithMostLoans(ctx context.Context) ([]Member, error) {
	const query = `
		SELECT m.id, m.name, m.email, m.created_at, m.updated_at
		FROM members m
		JOIN loans l ON l.member_id = m.id
		GROUP BY m.id
		ORDER BY COUNT(l.id) DESC
	`
	return r.queryMembers(ctx, query)
}

func (r *PostgresRepo) ListWithHighestFineTotals(ctx context.Context) ([]Member, error) {
	const query = `
		SELECT m.id, m.name, m.email, m.created_at, m.updated_at
		FROM members m
		JOIN fines f ON f.member_id = m.id
		GROUP BY m.id
		ORDER BY SUM(f.amount) DESC
	`
	return r.queryMembers(ctx, query)
}

func (r *PostgresRepo) ListWithAllLoansReturned(ctx context.Context) ([]Member, error) {
	const query = `
		SELECT m.id, m.name, m.email, m.created_at, m.updated_at
		FROM members m
		JOIN loans l ON l.member_id = m.id
		GROUP BY m.id
		HAVING COUNT(*) FILTER (WHERE l.return_date IS NULL) = 0
		ORDER BY m.name
	`
	return r.queryMembers(ctx, query)
}

func (r *PostgresRepo) ListWithAtLeastOpenLoans(ctx context.Context, n int) ([]Member, error) {
	const query = `
		SELECT m.id, m.name, m.email, m.created_at, m.updated_at
		FROM members m
		JOIN loans l ON l.member_id = m.id AND l.return_date IS NULL
		GROUP BY m.id
		HAVING COUNT(l.id) >= $1
		ORDER BY m.name
	`
	return r.queryMembers(ctx, query, n)
}

func (r *PostgresRepo) queryMembers(ctx context.Context, sql string, args ...any) ([]Member, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func mapMemberError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrEmailTaken
		case "23503":
			return ErrInUse
		}
	}
	return err
}
