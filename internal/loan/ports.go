package loan

import (
	"context"
	"time"

	"libraryapi/internal/fine"
)

// Store defines the contract for loan data storage. Reads run outside
// any explicit transaction; all writes go through InTx so that
// eligibility checks and their resulting mutations commit atomically.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error

	GetByID(ctx context.Context, id string) (Loan, error)
	List(ctx context.Context) ([]Loan, error)
	ListByMember(ctx context.Context, memberID string) ([]Loan, error)
	ListByBook(ctx context.Context, bookID string) ([]Loan, error)
	ListActive(ctx context.Context) ([]Loan, error)
	ListActiveByMember(ctx context.Context, memberID string) ([]Loan, error)
	ListOverdue(ctx context.Context, today time.Time) ([]Loan, error)
	ListByReturnDateRange(ctx context.Context, from, to time.Time) ([]Loan, error)
	ListHistoryByBook(ctx context.Context, bookID string) ([]Loan, error)
	CountActiveByMember(ctx context.Context, memberID string) (int, error)
}

// Tx is the write-side view of the store inside a single database
// transaction. GetBookStatusForUpdate must lock the book row so two
// concurrent creates against the same book cannot both pass the
// availability check.
type Tx interface {
	MemberExists(ctx context.Context, memberID string) (bool, error)
	GetBookStatusForUpdate(ctx context.Context, bookID string) (string, error)
	SetBookStatus(ctx context.Context, bookID, status string) error

	CountOpenLoansByMember(ctx context.Context, memberID string) (int, error)
	GetLoanForUpdate(ctx context.Context, id string) (Loan, error)
	InsertLoan(ctx context.Context, l *Loan) error
	UpdateLoanDates(ctx context.Context, l *Loan) error
	DeleteLoan(ctx context.Context, id string) error

	CountFinesByLoan(ctx context.Context, loanID string) (int, error)
	InsertFine(ctx context.Context, f *fine.Fine) error
}
