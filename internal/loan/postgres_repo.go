package loan

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"libraryapi/internal/fine"
)

const selectLoanSQL = `
	SELECT l.id, l.member_id, l.book_id, m.name, b.title,
	       l.loan_date, l.due_date, l.return_date, l.created_at, l.updated_at
	FROM loans l
	JOIN members m ON m.id = l.member_id
	JOIN books b ON b.id = l.book_id
`

type PostgresStore struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresStore(db *pgxpool.Pool, timeout time.Duration) *PostgresStore {
	return &PostgresStore{db: db, timeout: timeout}
}

func (s *PostgresStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// InTx runs fn inside one database transaction; fn's error rolls the
// whole transaction back.
func (s *PostgresStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	return pgx.BeginFunc(timeoutCtx, s.db, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (Loan, error) {
	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	row := s.db.QueryRow(timeoutCtx, selectLoanSQL+" WHERE l.id = $1", id)
	l, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Loan{}, ErrNotFound
		}
		return Loan{}, err
	}
	return l, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Loan, error) {
	return s.queryLoans(ctx, selectLoanSQL+" ORDER BY l.loan_date DESC")
}

func (s *PostgresStore) ListByMember(ctx context.Context, memberID string) ([]Loan, error) {
	return s.queryLoans(ctx, selectLoanSQL+" WHERE l.member_id = $1 ORDER BY l.loan_date DESC", memberID)
}

func (s *PostgresStore) ListByBook(ctx context.Context, bookID string) ([]Loan, error) {
	return s.queryLoans(ctx, selectLoanSQL+" WHERE l.book_id = $1 ORDER BY l.loan_date DESC", bookID)
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]Loan, error) {
	return s.queryLoans(ctx, selectLoanSQL+" WHERE l.return_date IS NULL ORDER BY l.loan_date DESC")
}

func (s *PostgresStore) ListActiveByMember(ctx context.Context, memberID string) ([]Loan, error) {
	return s.queryLoans(ctx, selectLoanSQL+" WHERE l.member_id = $1 AND l.return_date IS NULL ORDER BY l.loan_date DESC", memberID)
}

func (s *PostgresStore) ListOverdue(ctx context.Context, today time.Time) ([]Loan, error) {
	return s.queryLoans(ctx, selectLoanSQL+" WHERE l.return_date IS NULL AND l.due_date < $1 ORDER BY l.due_date ASC", today)
}

func (s *PostgresStore) ListByReturnDateRange(ctx context.Context, from, to time.Time) ([]Loan, error) {
	return s.queryLoans(ctx, selectLoanSQL+" WHERE l.return_date >= $1 AND l.return_date <= $2 ORDER BY l.return_date DESC", from, to)
}

func (s *PostgresStore) ListHistoryByBook(ctx context.Context, bookID string) ([]Loan, error) {
	return s.queryLoans(ctx, selectLoanSQL+" WHERE l.book_id = $1 ORDER BY l.loan_date DESC", bookID)
}

func (s *PostgresStore) CountActiveByMember(ctx context.Context, memberID string) (int, error) {
	const query = `SELECT COUNT(*) FROM loans WHERE member_id = $1 AND return_date IS NULL`
	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	var n int
	if err := s.db.QueryRow(timeoutCtx, query, memberID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *PostgresStore) queryLoans(ctx context.Context, sql string, args ...any) ([]Loan, error) {
	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	rows, err := s.db.Query(timeoutCtx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanLoan(row pgx.Row) (Loan, error) {
	var l Loan
	err := row.Scan(
		&l.ID, &l.MemberID, &l.BookID, &l.MemberName, &l.BookTitle,
		&l.LoanDate, &l.DueDate, &l.ReturnDate, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

// pgTx implements Tx on top of a pgx transaction.
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) MemberExists(ctx context.Context, memberID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM members WHERE id = $1)`, memberID).Scan(&exists)
	return exists, err
}

func (t *pgTx) GetBookStatusForUpdate(ctx context.Context, bookID string) (string, error) {
	var status string
	err := t.tx.QueryRow(ctx, `SELECT status FROM books WHERE id = $1 FOR UPDATE`, bookID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrBookNotFound
	}
	return status, err
}

func (t *pgTx) SetBookStatus(ctx context.Context, bookID, status string) error {
	tag, err := t.tx.Exec(ctx, `UPDATE books SET status = $2, updated_at = NOW() WHERE id = $1`, bookID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBookNotFound
	}
	return nil
}

func (t *pgTx) CountOpenLoansByMember(ctx context.Context, memberID string) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM loans WHERE member_id = $1 AND return_date IS NULL`, memberID).Scan(&n)
	return n, err
}

func (t *pgTx) GetLoanForUpdate(ctx context.Context, id string) (Loan, error) {
	const query = `
		SELECT id, member_id, book_id, loan_date, due_date, return_date, created_at, updated_at
		FROM loans
		WHERE id = $1
		FOR UPDATE
	`
	var l Loan
	err := t.tx.QueryRow(ctx, query, id).Scan(
		&l.ID, &l.MemberID, &l.BookID, &l.LoanDate, &l.DueDate, &l.ReturnDate, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Loan{}, ErrNotFound
	}
	return l, err
}

func (t *pgTx) InsertLoan(ctx context.Context, l *Loan) error {
	const query = `
		INSERT INTO loans (member_id, book_id, loan_date, due_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	return t.tx.QueryRow(ctx, query, l.MemberID, l.BookID, l.LoanDate, l.DueDate).
		Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

func (t *pgTx) UpdateLoanDates(ctx context.Context, l *Loan) error {
	const query = `
		UPDATE loans
		SET loan_date = $2, due_date = $3, return_date = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return t.tx.QueryRow(ctx, query, l.ID, l.LoanDate, l.DueDate, l.ReturnDate).Scan(&l.UpdatedAt)
}

func (t *pgTx) DeleteLoan(ctx context.Context, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM loans WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) CountFinesByLoan(ctx context.Context, loanID string) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM fines WHERE loan_id = $1`, loanID).Scan(&n)
	return n, err
}

func (t *pgTx) InsertFine(ctx context.Context, f *fine.Fine) error {
	const query = `
		INSERT INTO fines (loan_id, member_id, amount, issued_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return t.tx.QueryRow(ctx, query, f.LoanID, f.MemberID, f.Amount, f.IssuedAt).
		Scan(&f.ID, &f.CreatedAt)
}
