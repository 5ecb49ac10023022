package member

import (
	"context"
)

// Repository defines the contract for member data storage. Reporting
// queries derive their answers from the loans and fines tables without
// this package ever mutating loan state.
type Repository interface {
	Create(ctx context.Context, m *Member) error
	Update(ctx context.Context, m *Member) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Member, error)
	GetByEmail(ctx context.Context, email string) (Member, error)
	List(ctx context.Context) ([]Member, error)
	SearchByName(ctx context.Context, name string) ([]Member, error)
	ListWithMostLoans(ctx context.Context) ([]Member, error)
	ListWithHighestFineTotals(ctx context.Context) ([]Member, error)
	ListWithAllLoansReturned(ctx context.Context) ([]Member, error)
	ListWithAtLeastOpenLoans(ctx context.Context, n int) ([]Member, error)
}
