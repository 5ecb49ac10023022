package fine

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a fine is not found.
	ErrNotFound = errors.New("fine not found")

	// ErrLoanNotFound is returned when the referenced loan does not exist.
	ErrLoanNotFound = errors.New("loan not found")

	// ErrMemberNotFound is returned when the referenced member does not exist.
	ErrMemberNotFound = errors.New("member not found")

	// ErrNonPositiveAmount is returned when the fine amount is zero or
	// negative.
	ErrNonPositiveAmount = errors.New("fine amount must be positive")
)

// Fine is a monetary penalty attached to a loan and its member. The loan
// and member references are immutable after creation; only the amount
// may be corrected later.
type Fine struct {
	ID         string          `json:"id"`
	LoanID     string          `json:"loan_id"`
	MemberID   string          `json:"member_id"`
	MemberName string          `json:"member_name,omitempty"`
	BookTitle  string          `json:"book_title,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	IssuedAt   time.Time       `json:"issued_at"`
	CreatedAt  time.Time       `json:"created_at"`
}
