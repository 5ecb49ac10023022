package fine

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const selectFineSQL = `
	SELECT f.id, f.loan_id, f.member_id, m.name, b.title,
	       f.amount, f.issued_at, f.created_at
	FROM fines f
	JOIN members m ON m.id = f.member_id
	JOIN loans l ON l.id = f.loan_id
	JOIN books b ON b.id = l.book_id
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

// Create inserts the fine in a single statement. Foreign-key failures on
// the loan or member reference surface as the matching not-found error.
func (r *PostgresRepo) Create(ctx context.Context, f *Fine) error {
	const query = `
		INSERT INTO fines (loan_id, member_id, amount, issued_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, f.LoanID, f.MemberID, f.Amount, f.IssuedAt).
		Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return mapReferenceError(err)
	}
	return nil
}

func (r *PostgresRepo) UpdateAmount(ctx context.Context, id string, amount decimal.Decimal) (Fine, error) {
	const query = `UPDATE fines SET amount = $2 WHERE id = $1`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, query, id, amount)
	if err != nil {
		return Fine{}, err
	}
	if tag.RowsAffected() == 0 {
		return Fine{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, `DELETE FROM fines WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Fine, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	row := r.db.QueryRow(timeoutCtx, selectFineSQL+" WHERE f.id = $1", id)
	f, err := scanFine(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Fine{}, ErrNotFound
		}
		return Fine{}, err
	}
	return f, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]Fine, error) {
	return r.queryFines(ctx, selectFineSQL+" ORDER BY f.issued_at DESC")
}

func (r *PostgresRepo) ListByMember(ctx context.Context, memberID string) ([]Fine, error) {
	return r.queryFines(ctx, selectFineSQL+" WHERE f.member_id = $1 ORDER BY f.issued_at DESC", memberID)
}

func (r *PostgresRepo) ListByLoan(ctx context.Context, loanID string) ([]Fine, error) {
	return r.queryFines(ctx, selectFineSQL+" WHERE f.loan_id = $1 ORDER BY f.issued_at DESC", loanID)
}

func (r *PostgresRepo) ListAboveAmount(ctx context.Context, min decimal.Decimal) ([]Fine, error) {
	return r.queryFines(ctx, selectFineSQL+" WHERE f.amount > $1 ORDER BY f.amount DESC", min)
}

func (r *PostgresRepo) ListIssuedBetween(ctx context.Context, from, to time.Time) ([]Fine, error) {
	return r.queryFines(ctx, selectFineSQL+" WHERE f.issued_at BETWEEN $1 AND $2 ORDER BY f.issued_at DESC", from, to)
}

func (r *PostgresRepo) ListByAmountDesc(ctx context.Context) ([]Fine, error) {
	return r.queryFines(ctx, selectFineSQL+" ORDER BY f.amount DESC")
}

func (r *PostgresRepo) SumByMember(ctx context.Context, memberID string) (decimal.Decimal, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM fines WHERE member_id = $1`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var total decimal.Decimal
	if err := r.db.QueryRow(timeoutCtx, query, memberID).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *PostgresRepo) queryFines(ctx context.Context, sql string, args ...any) ([]Fine, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Fine
	for rows.Next() {
		f, err := scanFine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func scanFine(row pgx.Row) (Fine, error) {
	var f Fine
	err := row.Scan(
		&f.ID, &f.LoanID, &f.MemberID, &f.MemberName, &f.BookTitle,
		&f.Amount, &f.IssuedAt, &f.CreatedAt,
	)
	return f, err
}

func mapReferenceError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		switch pgErr.ConstraintName {
		case "fines_loan_id_fkey":
			return ErrLoanNotFound
		case "fines_member_id_fkey":
			return ErrMemberNotFound
		}
	}
	return err
}
