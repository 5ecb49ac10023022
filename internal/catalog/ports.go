package catalog

import (
	"context"
)

// Repository defines the contract for catalog data storage. Books and
// authors share a many-to-many association kept in a join table;
// reporting queries derive their answers from loans without the catalog
// ever mutating loan state.
type Repository interface {
	CreateBook(ctx context.Context, b *Book, authorIDs []string) error
	UpdateBook(ctx context.Context, b *Book, authorIDs []string) error
	DeleteBook(ctx context.Context, id string) error
	GetBookByID(ctx context.Context, id string) (Book, error)
	ListBooks(ctx context.Context) ([]Book, error)
	SearchBooksByTitle(ctx context.Context, title string) ([]Book, error)
	ListBooksByStatus(ctx context.Context, status string) ([]Book, error)
	ListBooksByYear(ctx context.Context, year int) ([]Book, error)
	ListBooksByYearRange(ctx context.Context, from, to int) ([]Book, error)
	ListBooksByAuthor(ctx context.Context, authorID string) ([]Book, error)
	ListMostBorrowedBooks(ctx context.Context) ([]Book, error)
	ListAvailableBooks(ctx context.Context) ([]Book, error)
	ListRandomBooks(ctx context.Context, limit int) ([]Book, error)

	CreateAuthor(ctx context.Context, a *Author) error
	UpdateAuthor(ctx context.Context, a *Author) error
	DeleteAuthor(ctx context.Context, id string) error
	GetAuthorByID(ctx context.Context, id string) (Author, error)
	ListAuthors(ctx context.Context) ([]Author, error)
	SearchAuthorsByName(ctx context.Context, name string) ([]Author, error)
	ListAuthorsWithMostBooks(ctx context.Context) ([]Author, error)
	ListAuthorsWithMostLoans(ctx context.Context) ([]Author, error)
	ListAuthorsByPublicationYear(ctx context.Context, year int) ([]Author, error)
}
