package fine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Service provides the standalone fine mutation and reporting API.
// Fines for overdue returns are generated by the loan ledger inside its
// own transaction; this service covers manually issued fines and
// corrections.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a fine service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create issues a fine against an existing loan and member. The issue
// timestamp defaults to now. The amount must be positive.
func (s *Service) Create(ctx context.Context, f Fine) (Fine, error) {
	if !f.Amount.IsPositive() {
		return Fine{}, ErrNonPositiveAmount
	}
	if f.IssuedAt.IsZero() {
		f.IssuedAt = s.now()
	}
	if err := s.repo.Create(ctx, &f); err != nil {
		return Fine{}, err
	}
	return f, nil
}

// UpdateAmount corrects a fine's amount. The loan and member references
// are immutable after creation.
func (s *Service) UpdateAmount(ctx context.Context, id string, amount decimal.Decimal) (Fine, error) {
	if !amount.IsPositive() {
		return Fine{}, ErrNonPositiveAmount
	}
	return s.repo.UpdateAmount(ctx, id, amount)
}

// Delete removes a fine.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// GetByID returns a fine by its id.
func (s *Service) GetByID(ctx context.Context, id string) (Fine, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all fines.
func (s *Service) List(ctx context.Context) ([]Fine, error) {
	return s.repo.List(ctx)
}

// ListByMember returns a member's fines.
func (s *Service) ListByMember(ctx context.Context, memberID string) ([]Fine, error) {
	return s.repo.ListByMember(ctx, memberID)
}

// ListByLoan returns a loan's fines.
func (s *Service) ListByLoan(ctx context.Context, loanID string) ([]Fine, error) {
	return s.repo.ListByLoan(ctx, loanID)
}

// ListAboveAmount returns fines above the given amount, largest first.
func (s *Service) ListAboveAmount(ctx context.Context, min decimal.Decimal) ([]Fine, error) {
	return s.repo.ListAboveAmount(ctx, min)
}

// ListIssuedBetween returns fines issued within [from, to], newest
// first.
func (s *Service) ListIssuedBetween(ctx context.Context, from, to time.Time) ([]Fine, error) {
	return s.repo.ListIssuedBetween(ctx, from, to)
}

// ListByAmountDesc returns all fines ordered by amount descending.
func (s *Service) ListByAmountDesc(ctx context.Context) ([]Fine, error) {
	return s.repo.ListByAmountDesc(ctx)
}

// SumByMember returns the total fined amount for a member; zero when the
// member has no fines.
func (s *Service) SumByMember(ctx context.Context, memberID string) (decimal.Decimal, error) {
	return s.repo.SumByMember(ctx, memberID)
}
