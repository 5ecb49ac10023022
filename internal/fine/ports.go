package fine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository defines the contract for fine data storage. Create inserts
// in a single statement; referential failures surface as ErrLoanNotFound
// or ErrMemberNotFound.
type Repository interface {
	Create(ctx context.Context, f *Fine) error
	UpdateAmount(ctx context.Context, id string, amount decimal.Decimal) (Fine, error)
	Delete(ctx context.Context, id string) error

	GetByID(ctx context.Context, id string) (Fine, error)
	List(ctx context.Context) ([]Fine, error)
	ListByMember(ctx context.Context, memberID string) ([]Fine, error)
	ListByLoan(ctx context.Context, loanID string) ([]Fine, error)
	ListAboveAmount(ctx context.Context, min decimal.Decimal) ([]Fine, error)
	ListIssuedBetween(ctx context.Context, from, to time.Time) ([]Fine, error)
	ListByAmountDesc(ctx context.Context) ([]Fine, error)
	SumByMember(ctx context.Context, memberID string) (decimal.Decimal, error)
}
