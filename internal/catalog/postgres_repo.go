package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectBookSQL = `
	SELECT id, title, publication_year, status, created_at, updated_at
	FROM books
`

const selectAuthorSQL = `
	SELECT id, name, created_at, updated_at
	FROM authors
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

func (r *PostgresRepo) CreateBook(ctx context.Context, b *Book, authorIDs []string) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return pgx.BeginFunc(timeoutCtx, r.db, func(tx pgx.Tx) error {
		const query = `
			INSERT INTO books (title, publication_year, status)
			VALUES ($1, $2, $3)
			RETURNING id, created_at, updated_at
		`
		if err := tx.QueryRow(timeoutCtx, query, b.Title, b.PublicationYear, b.Status).
			Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return err
		}
		authors, err := linkAuthors(timeoutCtx, tx, b.ID, authorIDs)
		if err != nil {
			return err
		}
		b.Authors = authors
		return nil
	})
}

func (r *PostgresRepo) UpdateBook(ctx context.Context, b *Book, authorIDs []string) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return pgx.BeginFunc(timeoutCtx, r.db, func(tx pgx.Tx) error {
		const query = `
			UPDATE books
			SET title = $2, publication_year = $3, updated_at = NOW()
			WHERE id = $1
		`
		tag, err := tx.Exec(timeoutCtx, query, b.ID, b.Title, b.PublicationYear)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrBookNotFound
		}
		if authorIDs == nil {
			return nil
		}
		if _, err := tx.Exec(timeoutCtx, `DELETE FROM book_authors WHERE book_id = $1`, b.ID); err != nil {
			return err
		}
		authors, err := linkAuthors(timeoutCtx, tx, b.ID, authorIDs)
		if err != nil {
			return err
		}
		b.Authors = authors
		return nil
	})
}

// linkAuthors attaches the given authors to a book. Every author must
// already exist.
func linkAuthors(ctx context.Context, tx pgx.Tx, bookID string, authorIDs []string) ([]Author, error) {
	var authors []Author
	for _, authorID := range authorIDs {
		var a Author
		err := tx.QueryRow(ctx, selectAuthorSQL+" WHERE id = $1", authorID).
			Scan(&a.ID, &a.Name, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrAuthorNotFound
			}
			return nil, err
		}
		const query = `
			INSERT INTO book_authors (book_id, author_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`
		if _, err := tx.Exec(ctx, query, bookID, authorID); err != nil {
			return nil, err
		}
		authors = append(authors, a)
	}
	return authors, nil
}

func (r *PostgresRepo) DeleteBook(ctx context.Context, id string) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return mapInUseError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookNotFound
	}
	return nil
}

func (r *PostgresRepo) GetBookByID(ctx context.Context, id string) (Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var b Book
	err := r.db.QueryRow(timeoutCtx, selectBookSQL+" WHERE id = $1", id).
		Scan(&b.ID, &b.Title, &b.PublicationYear, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrBookNotFound
		}
		return Book{}, err
	}

	const authorsSQL = `
		SELECT a.id, a.name, a.created_at, a.updated_at
		FROM authors a
		JOIN book_authors ba ON ba.author_id = a.id
		WHERE ba.book_id = $1
		ORDER BY a.name
	`
	rows, err := r.db.Query(timeoutCtx, authorsSQL, id)
	if err != nil {
		return Book{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var a Author
		if err := rows.Scan(&a.ID, &a.Name, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return Book{}, err
		}
		b.Authors = append(b.Authors, a)
	}
	return b, rows.Err()
}

func (r *PostgresRepo) ListBooks(ctx context.Context) ([]Book, error) {
	return r.queryBooks(ctx, selectBookSQL+" ORDER BY title")
}

func (r *PostgresRepo) SearchBooksByTitle(ctx context.Context, title string) ([]Book, error) {
	return r.queryBooks(ctx, selectBookSQL+" WHERE title ILIKE $1 ORDER BY title", "%"+title+"%")
}

func (r *PostgresRepo) ListBooksByStatus(ctx context.Context, status string) ([]Book, error) {
	return r.queryBooks(ctx, selectBookSQL+" WHERE status = $1 ORDER BY title", status)
}

func (r *PostgresRepo) ListBooksByYear(ctx context.Context, year int) ([]Book, error) {
	return r.queryBooks(ctx, selectBookSQL+" WHERE publication_year = $1 ORDER BY title", year)
}

func (r *PostgresRepo) ListBooksByYearRange(ctx context.Context, from, to int) ([]Book, error) {
	return r.queryBooks(ctx, selectBookSQL+" WHERE publication_year BETWEEN $1 AND $2 ORDER BY publication_year, title", from, to)
}

func (r *PostgresRepo) ListBooksByAuthor(ctx context.Context, authorID string) ([]Book, error) {
	const query = `
		SELECT b.id, b.title, b.publication_year, b.status, b.created_at, b.updated_at
		FROM books b
		JOIN book_authors ba ON ba.book_id = b.id
		WHERE ba.author_id = $1
		ORDER BY b.title
	`
	return r.queryBooks(ctx, query, authorID)
}

func (r *PostgresRepo) ListMostBorrowedBooks(ctx context.Context) ([]Book, error) {
	const query = `
		SELECT b.id, b.title, b.publication_year, b.status, b.created_at, b.updated_at
		FROM books b
		JOIN loans l ON l.book_id = b.id
		GROUP BY b.id
		ORDER BY COUNT(l.id) DESC
	`
	return r.queryBooks(ctx, query)
}

// ListAvailableBooks derives availability from open loans rather than
// the status column; the two agree because the ledger updates the column
// in the same transaction that opens or closes a loan.
func (r *PostgresRepo) ListAvailableBooks(ctx context.Context) ([]Book, error) {
	const query = selectBookSQL + `
		WHERE id NOT IN (SELECT book_id FROM loans WHERE return_date IS NULL)
		ORDER BY title
	`
	return r.queryBooks(ctx, query)
}

func (r *PostgresRepo) ListRandomBooks(ctx context.Context, limit int) ([]Book, error) {
	return r.queryBooks(ctx, selectBookSQL+" ORDER BY random() LIMIT $1", limit)
}

func (r *PostgresRepo) queryBooks(ctx context.Context, sql string, args ...any) ([]Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.PublicationYear, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) CreateAuthor(ctx context.Context, a *Author) error {
	const query = `
		INSERT INTO authors (name)
		VALUES ($1)
		RETURNING id, created_at, updated_at
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.QueryRow(timeoutCtx, query, a.Name).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *PostgresRepo) UpdateAuthor(ctx context.Context, a *Author) error {
	const query = `
		UPDATE authors
		SET name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, a.ID, a.Name).Scan(&a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAuthorNotFound
	}
	return err
}

func (r *PostgresRepo) DeleteAuthor(ctx context.Context, id string) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		return mapInUseError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAuthorNotFound
	}
	return nil
}

func (r *PostgresRepo) GetAuthorByID(ctx context.Context, id string) (Author, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var a Author
	err := r.db.QueryRow(timeoutCtx, selectAuthorSQL+" WHERE id = $1", id).
		Scan(&a.ID, &a.Name, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Author{}, ErrAuthorNotFound
		}
		return Author{}, err
	}
	return a, nil
}

func (r *PostgresRepo) ListAuthors(ctx context.Context) ([]Author, error) {
	return r.queryAuthors(ctx, selectAuthorSQL+" ORDER BY name")
}

func (r *PostgresRepo) SearchAuthorsByName(ctx context.Context, name string) ([]Author, error) {
	return r.queryAuthors(ctx, selectAuthorSQL+" WHERE name ILIKE $1 ORDER BY name", "%"+name+"%")
}

func (r *PostgresRepo) ListAuthorsWithMostBooks(ctx context.Context) ([]Author, error) {
	const query = `
		SELECT a.id, a.name, a.created_at, a.updated_at
		FROM authors a
		JOIN book_authors ba ON ba.author_id = a.id
		GROUP BY a.id
		ORDER BY COUNT(ba.book_id) DESC
	`
	return r.queryAuthors(ctx, query)
}

func (r *PostgresRepo) ListAuthorsWithMostLoans(ctx context.Context) ([]Author, error) {
	const query = `
		SELECT a.id, a.name, a.created_at, a.updated_at
		FROM authors a
		JOIN book_authors ba ON ba.author_id = a.id
		JOIN loans l ON l.book_id = ba.book_id
		GROUP BY a.id
		ORDER BY COUNT(l.id) DESC
	`
	return r.queryAuthors(ctx, query)
}

func (r *PostgresRepo) ListAuthorsByPublicationYear(ctx context.Context, year int) ([]Author, error) {
	const query = `
		SELECT DISTINCT a.id, a.name, a.created_at, a.updated_at
		FROM authors a
		JOIN book_authors ba ON ba.author_id = a.id
		JOIN books b ON b.id = ba.book_id
		WHERE b.publication_year = $1
		ORDER BY a.name
	`
	return r.queryAuthors(ctx, query, year)
}

func (r *PostgresRepo) queryAuthors(ctx context.Context, sql string, args ...any) ([]Author, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Author
	for rows.Next() {
		var a Author
		if err := rows.Scan(&a.ID, &a.Name, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func mapInUseError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return ErrInUse
	}
	return err
}
