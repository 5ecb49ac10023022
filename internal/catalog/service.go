package catalog

import (
	"context"
	"errors"
)

// ErrInvalidStatus is returned for an unknown availability status value.
var ErrInvalidStatus = errors.New("invalid book status")

// Service provides catalog business logic. Books always enter the
// catalog AVAILABLE; availability afterwards belongs to the loan ledger,
// so updates here never touch the status column.
type Service struct {
	repo Repository
}

// NewService creates a catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateBook adds a book referencing the given authors.
func (s *Service) CreateBook(ctx context.Context, title string, year int, authorIDs []string) (Book, error) {
	b := Book{
		Title:           title,
		PublicationYear: year,
		Status:          StatusAvailable,
	}
	if err := s.repo.CreateBook(ctx, &b, authorIDs); err != nil {
		return Book{}, err
	}
	return b, nil
}

// UpdateBook updates a book's attributes. A nil author list leaves the
// author set untouched.
func (s *Service) UpdateBook(ctx context.Context, id, title string, year int, authorIDs []string) (Book, error) {
	b, err := s.repo.GetBookByID(ctx, id)
	if err != nil {
		return Book{}, err
	}
	b.Title = title
	b.PublicationYear = year
	if err := s.repo.UpdateBook(ctx, &b, authorIDs); err != nil {
		return Book{}, err
	}
	return s.repo.GetBookByID(ctx, id)
}

// DeleteBook removes a book that no loan references.
func (s *Service) DeleteBook(ctx context.Context, id string) error {
	return s.repo.DeleteBook(ctx, id)
}

// GetBookByID returns a book with its authors.
func (s *Service) GetBookByID(ctx context.Context, id string) (Book, error) {
	return s.repo.GetBookByID(ctx, id)
}

// ListBooks returns all books.
func (s *Service) ListBooks(ctx context.Context) ([]Book, error) {
	return s.repo.ListBooks(ctx)
}

// SearchBooksByTitle returns books whose title contains the given
// substring, case-insensitively.
func (s *Service) SearchBooksByTitle(ctx context.Context, title string) ([]Book, error) {
	return s.repo.SearchBooksByTitle(ctx, title)
}

// ListBooksByStatus returns books with the given availability status.
func (s *Service) ListBooksByStatus(ctx context.Context, status string) ([]Book, error) {
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}
	return s.repo.ListBooksByStatus(ctx, status)
}

// ListBooksByYear returns books published in the given year.
func (s *Service) ListBooksByYear(ctx context.Context, year int) ([]Book, error) {
	return s.repo.ListBooksByYear(ctx, year)
}

// ListBooksByYearRange returns books published within [from, to].
func (s *Service) ListBooksByYearRange(ctx context.Context, from, to int) ([]Book, error) {
	return s.repo.ListBooksByYearRange(ctx, from, to)
}

// ListBooksByAuthor returns the books of one author.
func (s *Service) ListBooksByAuthor(ctx context.Context, authorID string) ([]Book, error) {
	return s.repo.ListBooksByAuthor(ctx, authorID)
}

// ListMostBorrowedBooks returns books ordered by loan count descending.
func (s *Service) ListMostBorrowedBooks(ctx context.Context) ([]Book, error) {
	return s.repo.ListMostBorrowedBooks(ctx)
}

// ListAvailableBooks returns books with no open loan. This is derived
// from the loans table, not from the status column, so the two agree by
// construction.
func (s *Service) ListAvailableBooks(ctx context.Context) ([]Book, error) {
	return s.repo.ListAvailableBooks(ctx)
}

// ListRandomBooks returns a random sample of at most limit books.
func (s *Service) ListRandomBooks(ctx context.Context, limit int) ([]Book, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.repo.ListRandomBooks(ctx, limit)
}

// CreateAuthor adds an author.
func (s *Service) CreateAuthor(ctx context.Context, name string) (Author, error) {
	a := Author{Name: name}
	if err := s.repo.CreateAuthor(ctx, &a); err != nil {
		return Author{}, err
	}
	return a, nil
}

// UpdateAuthor renames an author.
func (s *Service) UpdateAuthor(ctx context.Context, id, name string) (Author, error) {
	a, err := s.repo.GetAuthorByID(ctx, id)
	if err != nil {
		return Author{}, err
	}
	a.Name = name
	if err := s.repo.UpdateAuthor(ctx, &a); err != nil {
		return Author{}, err
	}
	return a, nil
}

// DeleteAuthor removes an author.
func (s *Service) DeleteAuthor(ctx context.Context, id string) error {
	return s.repo.DeleteAuthor(ctx, id)
}

// GetAuthorByID returns an author by id.
func (s *Service) GetAuthorByID(ctx context.Context, id string) (Author, error) {
	return s.repo.GetAuthorByID(ctx, id)
}

// ListAuthors returns all authors.
func (s *Service) ListAuthors(ctx context.Context) ([]Author, error) {
	return s.repo.ListAuthors(ctx)
}

// SearchAuthorsByName returns authors whose name contains the given
// substring, case-insensitively.
func (s *Service) SearchAuthorsByName(ctx context.Context, name string) ([]Author, error) {
	return s.repo.SearchAuthorsByName(ctx, name)
}

// ListAuthorsWithMostBooks returns authors ordered by book count
// descending.
func (s *Service) ListAuthorsWithMostBooks(ctx context.Context) ([]Author, error) {
	return s.repo.ListAuthorsWithMostBooks(ctx)
}

// ListAuthorsWithMostLoans returns authors ordered by how often their
// books were borrowed.
func (s *Service) ListAuthorsWithMostLoans(ctx context.Context) ([]Author, error) {
	return s.repo.ListAuthorsWithMostLoans(ctx)
}

// ListAuthorsByPublicationYear returns authors who published a book in
// the given year.
func (s *Service) ListAuthorsByPublicationYear(ctx context.Context, year int) ([]Author, error) {
	return s.repo.ListAuthorsByPublicationYear(ctx, year)
}
