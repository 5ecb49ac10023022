package loan

import (
	"errors"
	"time"
)

// MaxOpenLoans is the borrowing limit per member. The count of a
// member's open loans is evaluated at call time, inside the same
// transaction as the insert.
const MaxOpenLoans = 3

var (
	// ErrNotFound is returned when a loan is not found.
	ErrNotFound = errors.New("loan not found")

	// ErrMemberNotFound is returned when the referenced member does not exist.
	ErrMemberNotFound = errors.New("member not found")

	// ErrBookNotFound is returned when the referenced book does not exist.
	ErrBookNotFound = errors.New("book not found")

	// ErrBookUnavailable is returned when the book already has an open loan.
	ErrBookUnavailable = errors.New("book already on loan")

	// ErrLoanLimitReached is returned when the member already holds
	// MaxOpenLoans open loans.
	ErrLoanLimitReached = errors.New("member loan limit reached")

	// ErrAlreadyReturned is returned when registering a return on a loan
	// whose return date is already set.
	ErrAlreadyReturned = errors.New("loan already returned")

	// ErrHasFines is returned when deleting a loan that still has fines
	// attached. Fines must be removed first.
	ErrHasFines = errors.New("loan has fines attached")

	// ErrInvalidDates is returned when the due date is not strictly after
	// the loan date.
	ErrInvalidDates = errors.New("due date must be after loan date")
)

// Loan represents a single borrowing of a book by a member. The member
// and book references are immutable after creation; a loan is open while
// ReturnDate is nil and closes exactly once.
type Loan struct {
	ID         string     `json:"id"`
	MemberID   string     `json:"member_id"`
	BookID     string     `json:"book_id"`
	MemberName string     `json:"member_name,omitempty"`
	BookTitle  string     `json:"book_title,omitempty"`
	LoanDate   time.Time  `json:"loan_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Open reports whether the loan has not been returned yet.
func (l Loan) Open() bool {
	return l.ReturnDate == nil
}

// Overdue reports whether the loan is open and past its due date.
func (l Loan) Overdue(today time.Time) bool {
	return l.Open() && l.DueDate.Before(today)
}
