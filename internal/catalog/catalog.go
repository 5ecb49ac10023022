package catalog

import (
	"errors"
	"time"
)

// Book availability. AVAILABLE flips to ON_LOAN when an open loan is
// created for the book and back when the loan closes; the loan ledger
// performs both transitions inside its own transactions.
const (
	StatusAvailable = "AVAILABLE"
	StatusOnLoan    = "ON_LOAN"
)

var (
	// ErrBookNotFound is returned when a book is not found.
	ErrBookNotFound = errors.New("book not found")

	// ErrAuthorNotFound is returned when an author is not found.
	ErrAuthorNotFound = errors.New("author not found")

	// ErrInUse is returned when deleting a record that loans still
	// reference.
	ErrInUse = errors.New("record is referenced by loans")
)

// ValidStatus reports whether s is a known availability status.
func ValidStatus(s string) bool {
	return s == StatusAvailable || s == StatusOnLoan
}

// Book represents a catalog entry. Authors is a shared many-to-many
// association; books reference authors without owning them.
type Book struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	PublicationYear int       `json:"publication_year"`
	Status          string    `json:"status"`
	Authors         []Author  `json:"authors,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Author represents a book author. The books an author wrote are a
// lookup query, not a stored back-reference.
type Author struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
