package loan

import (
	"context"
	"time"

	"libraryapi/internal/catalog"
	"libraryapi/internal/fine"
)

// Service owns the loan lifecycle: eligibility checks on creation,
// return processing, and fine generation for overdue returns. Every
// write runs inside a single store transaction so that checks and
// mutations commit atomically.
type Service struct {
	store  Store
	policy fine.Policy
	now    func() time.Time
}

// NewService creates a loan service using the given fine policy.
func NewService(store Store, policy fine.Policy) *Service {
	return &Service{store: store, policy: policy, now: time.Now}
}

// CreateParams carries the caller-supplied fields for a new loan.
// LoanDate defaults to today when zero.
type CreateParams struct {
	MemberID string
	BookID   string
	LoanDate time.Time
	DueDate  time.Time
}

// UpdateParams carries date corrections for an existing loan. Member and
// book references are immutable and deliberately absent here.
type UpdateParams struct {
	LoanDate   time.Time
	DueDate    time.Time
	ReturnDate *time.Time
}

// Create opens a new loan. The member and book must exist, the book must
// not have an open loan, and the member must hold fewer than
// MaxOpenLoans open loans; the open-loan count is read inside the same
// transaction that inserts the loan and flips the book to ON_LOAN.
func (s *Service) Create(ctx context.Context, p CreateParams) (Loan, error) {
	loanDate := dateOnly(p.LoanDate)
	if loanDate.IsZero() {
		loanDate = dateOnly(s.now())
	}
	dueDate := dateOnly(p.DueDate)
	if !dueDate.After(loanDate) {
		return Loan{}, ErrInvalidDates
	}

	var created Loan
	err := s.store.InTx(ctx, func(tx Tx) error {
		exists, err := tx.MemberExists(ctx, p.MemberID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrMemberNotFound
		}

		status, err := tx.GetBookStatusForUpdate(ctx, p.BookID)
		if err != nil {
			return err
		}
		if status == catalog.StatusOnLoan {
			return ErrBookUnavailable
		}

		open, err := tx.CountOpenLoansByMember(ctx, p.MemberID)
		if err != nil {
			return err
		}
		if open >= MaxOpenLoans {
			return ErrLoanLimitReached
		}

		l := Loan{
			MemberID: p.MemberID,
			BookID:   p.BookID,
			LoanDate: loanDate,
			DueDate:  dueDate,
		}
		if err := tx.InsertLoan(ctx, &l); err != nil {
			return err
		}
		if err := tx.SetBookStatus(ctx, p.BookID, catalog.StatusOnLoan); err != nil {
			return err
		}
		created = l
		return nil
	})
	if err != nil {
		return Loan{}, err
	}
	return created, nil
}

// RegisterReturn closes an open loan. The return date defaults to today.
// The book becomes AVAILABLE again and, when the return is past the due
// date, exactly one fine is generated for the loan's member in the same
// transaction. Closing an already-closed loan fails with
// ErrAlreadyReturned and mutates nothing.
func (s *Service) RegisterReturn(ctx context.Context, id string, returnDate *time.Time) (Loan, error) {
	var closed Loan
	err := s.store.InTx(ctx, func(tx Tx) error {
		l, err := tx.GetLoanForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !l.Open() {
			return ErrAlreadyReturned
		}

		ret := dateOnly(s.now())
		if returnDate != nil {
			ret = dateOnly(*returnDate)
		}
		l.ReturnDate = &ret

		if err := tx.UpdateLoanDates(ctx, &l); err != nil {
			return err
		}
		if err := tx.SetBookStatus(ctx, l.BookID, catalog.StatusAvailable); err != nil {
			return err
		}

		if ret.After(l.DueDate) {
			f := fine.Fine{
				LoanID:   l.ID,
				MemberID: l.MemberID,
				Amount:   s.policy.Amount(daysBetween(l.DueDate, ret)),
				IssuedAt: s.now(),
			}
			if err := tx.InsertFine(ctx, &f); err != nil {
				return err
			}
		}
		closed = l
		return nil
	})
	if err != nil {
		return Loan{}, err
	}
	return closed, nil
}

// Update corrects the dates of an existing loan. The member and book
// references never change. When the correction flips the loan between
// open and closed, the book's availability follows.
func (s *Service) Update(ctx context.Context, id string, p UpdateParams) (Loan, error) {
	loanDate := dateOnly(p.LoanDate)
	dueDate := dateOnly(p.DueDate)
	if !dueDate.After(loanDate) {
		return Loan{}, ErrInvalidDates
	}

	var updated Loan
	err := s.store.InTx(ctx, func(tx Tx) error {
		l, err := tx.GetLoanForUpdate(ctx, id)
		if err != nil {
			return err
		}
		wasOpen := l.Open()

		l.LoanDate = loanDate
		l.DueDate = dueDate
		if p.ReturnDate != nil {
			ret := dateOnly(*p.ReturnDate)
			l.ReturnDate = &ret
		} else {
			l.ReturnDate = nil
		}

		if err := tx.UpdateLoanDates(ctx, &l); err != nil {
			return err
		}
		if wasOpen != l.Open() {
			status := catalog.StatusAvailable
			if l.Open() {
				status = catalog.StatusOnLoan
			}
			if err := tx.SetBookStatus(ctx, l.BookID, status); err != nil {
				return err
			}
		}
		updated = l
		return nil
	})
	if err != nil {
		return Loan{}, err
	}
	return updated, nil
}

// Delete removes a loan that has no fines attached. Deleting a loan with
// fines fails with ErrHasFines; billing records must be removed first.
// Deleting an open loan frees its book.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.InTx(ctx, func(tx Tx) error {
		l, err := tx.GetLoanForUpdate(ctx, id)
		if err != nil {
			return err
		}

		fines, err := tx.CountFinesByLoan(ctx, id)
		if err != nil {
			return err
		}
		if fines > 0 {
			return ErrHasFines
		}

		if err := tx.DeleteLoan(ctx, id); err != nil {
			return err
		}
		if l.Open() {
			return tx.SetBookStatus(ctx, l.BookID, catalog.StatusAvailable)
		}
		return nil
	})
}

// GetByID returns a loan by its id.
func (s *Service) GetByID(ctx context.Context, id string) (Loan, error) {
	return s.store.GetByID(ctx, id)
}

// List returns all loans.
func (s *Service) List(ctx context.Context) ([]Loan, error) {
	return s.store.List(ctx)
}

// ListByMember returns all loans of a member.
func (s *Service) ListByMember(ctx context.Context, memberID string) ([]Loan, error) {
	return s.store.ListByMember(ctx, memberID)
}

// ListByBook returns all loans of a book.
func (s *Service) ListByBook(ctx context.Context, bookID string) ([]Loan, error) {
	return s.store.ListByBook(ctx, bookID)
}

// ListActive returns all open loans.
func (s *Service) ListActive(ctx context.Context) ([]Loan, error) {
	return s.store.ListActive(ctx)
}

// ListActiveByMember returns a member's open loans.
func (s *Service) ListActiveByMember(ctx context.Context, memberID string) ([]Loan, error) {
	return s.store.ListActiveByMember(ctx, memberID)
}

// ListOverdue returns open loans whose due date has passed.
func (s *Service) ListOverdue(ctx context.Context) ([]Loan, error) {
	return s.store.ListOverdue(ctx, dateOnly(s.now()))
}

// ListByReturnDateRange returns loans returned within [from, to].
func (s *Service) ListByReturnDateRange(ctx context.Context, from, to time.Time) ([]Loan, error) {
	return s.store.ListByReturnDateRange(ctx, dateOnly(from), dateOnly(to))
}

// ListHistoryByBook returns a book's full loan history, most recent
// first.
func (s *Service) ListHistoryByBook(ctx context.Context, bookID string) ([]Loan, error) {
	return s.store.ListHistoryByBook(ctx, bookID)
}

// CountActiveByMember returns the number of open loans a member holds.
func (s *Service) CountActiveByMember(ctx context.Context, memberID string) (int, error) {
	return s.store.CountActiveByMember(ctx, memberID)
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(dateOnly(to).Sub(dateOnly(from)).Hours() / 24)
}
