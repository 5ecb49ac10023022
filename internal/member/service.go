package member

import (
	"context"
	"strings"
)

// Service provides membership business logic.
type Service struct {
	repo Repository
}

// NewService creates a member service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new member. Email is stored lowercased so the
// unique constraint is case-insensitive in practice.
func (s *Service) Create(ctx context.Context, name, email string) (Member, error) {
	m := Member{
		Name:  name,
		Email: normalizeEmail(email),
	}
	if err := s.repo.Create(ctx, &m); err != nil {
		return Member{}, err
	}
	return m, nil
}

// Update changes a member's name and email.
func (s *Service) Update(ctx context.Context, id, name, email string) (Member, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Member{}, err
	}
	m.Name = name
	m.Email = normalizeEmail(email)
	if err := s.repo.Update(ctx, &m); err != nil {
		return Member{}, err
	}
	return m, nil
}

// Delete removes a member that no loan or fine references.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// GetByID returns a member by id.
func (s *Service) GetByID(ctx context.Context, id string) (Member, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail returns a member by email.
func (s *Service) GetByEmail(ctx context.Context, email string) (Member, error) {
	return s.repo.GetByEmail(ctx, normalizeEmail(email))
}

// List returns all members.
func (s *Service) List(ctx context.Context) ([]Member, error) {
	return s.repo.List(ctx)
}

// SearchByName returns members whose name contains the given substring,
// case-insensitively.
func (s *Service) SearchByName(ctx context.Context, name string) ([]Member, error) {
	return s.repo.SearchByName(ctx, name)
}

// ListWithMostLoans returns members ordered by loan count descending.
func (s *Service) ListWithMostLoans(ctx context.Context) ([]Member, error) {
	return s.repo.ListWithMostLoans(ctx)
}

// ListWithHighestFineTotals returns members ordered by the sum of their
// fines descending.
func (s *Service) ListWithHighestFineTotals(ctx context.Context) ([]Member, error) {
	return s.repo.ListWithHighestFineTotals(ctx)
}

// ListWithAllLoansReturned returns members who have borrowed at least
// once and hold no open loan.
func (s *Service) ListWithAllLoansReturned(ctx context.Context) ([]Member, error) {
	return s.repo.ListWithAllLoansReturned(ctx)
}

// ListWithAtLeastOpenLoans returns members holding n or more open
// loans. n below 1 counts as 1.
func (s *Service) ListWithAtLeastOpenLoans(ctx context.Context, n int) ([]Member, error) {
	if n < 1 {
		n = 1
	}
	return s.repo.ListWithAtLeastOpenLoans(ctx, n)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
