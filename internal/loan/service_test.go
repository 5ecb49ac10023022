package loan

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryapi/internal/catalog"
	"libraryapi/internal/fine"
)

// memStore is an in-memory Store/Tx used to exercise the loan state
// machine. InTx snapshots the state and restores it when fn fails, so
// rejected operations leave no partial writes behind, like a rolled-back
// transaction.
type memStore struct {
	members map[string]bool
	books   map[string]string
	loans   map[string]Loan
	fines   []fine.Fine
	seq     int
}

func newMemStore() *memStore {
	return &memStore{
		members: make(map[string]bool),
		books:   make(map[string]string),
		loans:   make(map[string]Loan),
	}
}

func (s *memStore) addMember(id string)       { s.members[id] = true }
func (s *memStore) addBook(id, status string) { s.books[id] = status }

func (s *memStore) InTx(_ context.Context, fn func(tx Tx) error) error {
	booksBefore := make(map[string]string, len(s.books))
	for k, v := range s.books {
		booksBefore[k] = v
	}
	loansBefore := make(map[string]Loan, len(s.loans))
	for k, v := range s.loans {
		loansBefore[k] = v
	}
	finesBefore := append([]fine.Fine(nil), s.fines...)
	seqBefore := s.seq

	if err := fn(s); err != nil {
		s.books = booksBefore
		s.loans = loansBefore
		s.fines = finesBefore
		s.seq = seqBefore
		return err
	}
	return nil
}

func (s *memStore) MemberExists(_ context.Context, memberID string) (bool, error) {
	return s.members[memberID], nil
}

func (s *memStore) GetBookStatusForUpdate(_ context.Context, bookID string) (string, error) {
	status, ok := s.books[bookID]
	if !ok {
		return "", ErrBookNotFound
	}
	return status, nil
}

func (s *memStore) SetBookStatus(_ context.Context, bookID, status string) error {
	if _, ok := s.books[bookID]; !ok {
		return ErrBookNotFound
	}
	s.books[bookID] = status
	return nil
}

func (s *memStore) CountOpenLoansByMember(_ context.Context, memberID string) (int, error) {
	n := 0
	for _, l := range s.loans {
		if l.MemberID == memberID && l.Open() {
			n++
		}
	}
	return n, nil
}

func (s *memStore) GetLoanForUpdate(_ context.Context, id string) (Loan, error) {
	l, ok := s.loans[id]
	if !ok {
		return Loan{}, ErrNotFound
	}
	return l, nil
}

func (s *memStore) InsertLoan(_ context.Context, l *Loan) error {
	l.ID = uuid.NewString()
	s.loans[l.ID] = *l
	return nil
}

func (s *memStore) UpdateLoanDates(_ context.Context, l *Loan) error {
	if _, ok := s.loans[l.ID]; !ok {
		return ErrNotFound
	}
	s.loans[l.ID] = *l
	return nil
}

func (s *memStore) DeleteLoan(_ context.Context, id string) error {
	if _, ok := s.loans[id]; !ok {
		return ErrNotFound
	}
	delete(s.loans, id)
	return nil
}

func (s *memStore) CountFinesByLoan(_ context.Context, loanID string) (int, error) {
	n := 0
	for _, f := range s.fines {
		if f.LoanID == loanID {
			n++
		}
	}
	return n, nil
}

func (s *memStore) InsertFine(_ context.Context, f *fine.Fine) error {
	s.seq++
	f.ID = fmt.Sprintf("fine-%d", s.seq)
	s.fines = append(s.fines, *f)
	return nil
}

func (s *memStore) GetByID(_ context.Context, id string) (Loan, error) {
	l, ok := s.loans[id]
	if !ok {
		return Loan{}, ErrNotFound
	}
	return l, nil
}

func (s *memStore) List(_ context.Context) ([]Loan, error) { return s.all(), nil }

func (s *memStore) ListByMember(_ context.Context, memberID string) ([]Loan, error) {
	return s.filter(func(l Loan) bool { return l.MemberID == memberID }), nil
}

func (s *memStore) ListByBook(_ context.Context, bookID string) ([]Loan, error) {
	return s.filter(func(l Loan) bool { return l.BookID == bookID }), nil
}

func (s *memStore) ListActive(_ context.Context) ([]Loan, error) {
	return s.filter(Loan.Open), nil
}

func (s *memStore) ListActiveByMember(_ context.Context, memberID string) ([]Loan, error) {
	return s.filter(func(l Loan) bool { return l.MemberID == memberID && l.Open() }), nil
}

func (s *memStore) ListOverdue(_ context.Context, today time.Time) ([]Loan, error) {
	return s.filter(func(l Loan) bool { return l.Overdue(today) }), nil
}

func (s *memStore) ListByReturnDateRange(_ context.Context, from, to time.Time) ([]Loan, error) {
	return s.filter(func(l Loan) bool {
		return l.ReturnDate != nil && !l.ReturnDate.Before(from) && !l.ReturnDate.After(to)
	}), nil
}

func (s *memStore) ListHistoryByBook(ctx context.Context, bookID string) ([]Loan, error) {
	return s.ListByBook(ctx, bookID)
}

func (s *memStore) CountActiveByMember(ctx context.Context, memberID string) (int, error) {
	return s.CountOpenLoansByMember(ctx, memberID)
}

func (s *memStore) all() []Loan {
	return s.filter(func(Loan) bool { return true })
}

func (s *memStore) filter(keep func(Loan) bool) []Loan {
	var out []Loan
	for _, l := range s.loans {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(store *memStore) *Service {
	s := NewService(store, fine.DefaultPolicy())
	s.now = func() time.Time { return date(2024, 1, 10) }
	return s
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success marks book on loan", func(t *testing.T) {
		store := newMemStore()
		store.addMember("m1")
		store.addBook("b1", catalog.StatusAvailable)
		s := newTestService(store)

		l, err := s.Create(ctx, CreateParams{
			MemberID: "m1", BookID: "b1",
			LoanDate: date(2024, 1, 1), DueDate: date(2024, 1, 15),
		})
		require.NoError(t, err)
		assert.NotEmpty(t, l.ID)
		assert.True(t, l.Open())
		assert.Equal(t, catalog.StatusOnLoan, store.books["b1"])
	})

	t.Run("loan date defaults to today", func(t *testing.T) {
		store := newMemStore()
		store.addMember("m1")
		store.addBook("b1", catalog.StatusAvailable)
		s := newTestService(store)

		l, err := s.Create(ctx, CreateParams{
			MemberID: "m1", BookID: "b1", DueDate: date(2024, 1, 20),
		})
		require.NoError(t, err)
		assert.Equal(t, date(2024, 1, 10), l.LoanDate)
	})

	t.Run("due date not after loan date", func(t *testing.T) {
		store := newMemStore()
		store.addMember("m1")
		store.addBook("b1", catalog.StatusAvailable)
		s := newTestService(store)

		_, err := s.Create(ctx, CreateParams{
			MemberID: "m1", BookID: "b1",
			LoanDate: date(2024, 1, 15), DueDate: date(2024, 1, 15),
		})
		assert.ErrorIs(t, err, ErrInvalidDates)
	})

	t.Run("due date in the past when loan date absent", func(t *testing.T) {
		store := newMemStore()
		store.addMember("m1")
		store.addBook("b1", catalog.StatusAvailable)
		s := newTestService(store)

		_, err := s.Create(ctx, CreateParams{
			MemberID: "m1", BookID: "b1", DueDate: date(2024, 1, 5),
		})
		assert.ErrorIs(t, err, ErrInvalidDates)
	})

	t.Run("unknown member", func(t *testing.T) {
		store := newMemStore()
		store.addBook("b1", catalog.StatusAvailable)
		s := newTestService(store)

		_, err := s.Create(ctx, CreateParams{
			MemberID: "ghost", BookID: "b1",
			LoanDate: date(2024, 1, 1), DueDate: date(2024, 1, 15),
		})
		assert.ErrorIs(t, err, ErrMemberNotFound)
	})

	t.Run("unknown book", func(t *testing.T) {
		store := newMemStore()
		store.addMember("m1")
		s := newTestService(store)

		_, err := s.Create(ctx, CreateParams{
			MemberID: "m1", BookID: "ghost",
			LoanDate: date(2024, 1, 1), DueDate: date(2024, 1, 15),
		})
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("book already on loan", func(t *testing.T) {
		store := newMemStore()
		store.addMember("m1")
		store.addMember("m2")
		store.addBook("b1", catalog.StatusAvailable)
		s := newTestService(store)

		_, err := s.Create(ctx, CreateParams{
			MemberID: "m1", BookID: "b1",
			LoanDate: date(2024, 1, 1), DueDate: date(2024, 1, 15),
		})
		require.NoError(t, err)

		_, err = s.Create(ctx, CreateParams{
			MemberID: "m2", BookID: "b1",
			LoanDate: date(2024, 1, 2), DueDate: date(2024, 1, 16),
		})
		assert.ErrorIs(t, err, ErrBookUnavailable)
		assert.Len(t, store.loans, 1)
	})

	t.Run("member loan limit reached", func(t *testing.T) {
		store := newMemStore()
		store.addMember("m1")
		for i := 1; i <= 4; i++ {
			store.addBook(fmt.Sprintf("b%d", i), catalog.StatusAvailable)
		}
		s := newTestService(store)

		for i := 1; i <= MaxOpenLoans; i++ {
			_, err := s.Create(ctx, CreateParams{
				MemberID: "m1", BookID: fmt.Sprintf("b%d", i),
				LoanDate: date(2024, 1, 1), DueDate: date(2024, 1, 15),
			})
			require.NoError(t, err)
		}

		_, err := s.Create(ctx, CreateParams{
			MemberID: "m1", BookID: "b4",
			LoanDate: date(2024, 1, 1), DueDate: date(2024, 1, 15),
		})
		assert.ErrorIs(t, err, ErrLoanLimitReached)
		assert.Len(t, store.loans, MaxOpenLoans)
		assert.Equal(t, catalog.StatusAvailable, store.books["b4"])

		n, err := store.CountActiveByMember(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, MaxOpenLoans, n)
	})
}

func TestService_RegisterReturn(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Service, *memStore, Loan) {
		t.Helper()
		store := newMemStore()
		store.addMember("m1")
		store.addBook("b1", catalog.StatusAvailable)
		s := newTestService(store)
		l, err := s.Create(ctx, CreateParams{
			MemberID: "m1", BookID: "b1",
			LoanDate: date(2024, 1, 1), DueDate: date(2024, 1, 15),
		})
		require.NoError(t, err)
		return s, store, l
	}

	t.Run("on-time return creates no fine", func(t *testing.T) {
		s, store, l := setup(t)

		ret := date(2024, 1, 14)
		closed, err := s.RegisterReturn(ctx, l.ID, &ret)
		require.NoError(t, err)
		require.NotNil(t, closed.ReturnDate)
		assert.Equal(t, ret, *closed.ReturnDate)
		assert.Equal(t, catalog.StatusAvailable, store.books["b1"])
		assert.Empty(t, store.fines)
	})

	t.Run("return on due date creates no fine", func(t *testing.T) {
		s, store, l := setup(t)

		ret := date(2024, 1, 15)
		_, err := s.RegisterReturn(ctx, l.ID, &ret)
		require.NoError(t, err)
		assert.Empty(t, store.fines)
	})

	t.Run("late return creates exactly one fine", func(t *testing.T) {
		s, store, l := setup(t)

		ret := date(2024, 1, 20)
		_, err := s.RegisterReturn(ctx, l.ID, &ret)
		require.NoError(t, err)

		require.Len(t, store.fines, 1)
		f := store.fines[0]
		assert.Equal(t, l.ID, f.LoanID)
		assert.Equal(t, "m1", f.MemberID)
		assert.True(t, f.Amount.IsPositive())
		assert.Equal(t, catalog.StatusAvailable, store.books["b1"])
	})

	t.Run("return date defaults to today", func(t *testing.T) {
		s, store, l := setup(t)

		closed, err := s.RegisterReturn(ctx, l.ID, nil)
		require.NoError(t, err)
		require.NotNil(t, closed.ReturnDate)
		assert.Equal(t, date(2024, 1, 10), *closed.ReturnDate)
		assert.Empty(t, store.fines)
	})

	t.Run("already returned", func(t *testing.T) {
		s, store, l := setup(t)

		ret := date(2024, 1, 20)
		_, err := s.RegisterReturn(ctx, l.ID, &ret)
		require.NoError(t, err)
		require.Len(t, store.fines, 1)

		later := date(2024, 1, 25)
		_, err = s.RegisterReturn(ctx, l.ID, &later)
		assert.ErrorIs(t, err, ErrAlreadyReturned)

		// No duplicate fine, no date change.
		assert.Len(t, store.fines, 1)
		assert.Equal(t, ret, *store.loans[l.ID].ReturnDate)
	})

	t.Run("unknown loan", func(t *testing.T) {
		s, _, _ := setup(t)
		_, err := s.RegisterReturn(ctx, "ghost", nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Service, *memStore, Loan) {
		t.Helper()
		store := newMemStore()
		store.addMember("m1")
		store.addBook("b1", catalog.StatusAvailable)
		s := newTestService(store)
		l, err := s.Create(ctx, CreateParams{
			MemberID: "m1", BookID: "b1",
			LoanDate: date(2024, 1, 1), DueDate: date(2024, 1, 15),
		})
		require.NoError(t, err)
		return s, store, l
	}

	t.Run("corrects dates without touching references", func(t *testing.T) {
		s, _, l := setup(t)

		updated, err := s.Update(ctx, l.ID, UpdateParams{
			LoanDate: date(2024, 1, 2), DueDate: date(2024, 1, 16),
		})
		require.NoError(t, err)
		assert.Equal(t, l.MemberID, updated.MemberID)
		assert.Equal(t, l.BookID, updated.BookID)
		assert.Equal(t, date(2024, 1, 2), updated.LoanDate)
	})

	t.Run("setting return date frees the book", func(t *testing.T) {
		s, store, l := setup(t)

		ret := date(2024, 1, 12)
		_, err := s.Update(ctx, l.ID, UpdateParams{
			LoanDate: date(2024, 1, 1), DueDate: date(2024, 1, 15), ReturnDate: &ret,
		})
		require.NoError(t, err)
		assert.Equal(t, catalog.StatusAvailable, store.books["b1"])
	})

	t.Run("clearing return date reopens the loan", func(t *testing.T) {
		s, store, l := setup(t)

		ret := date(2024, 1, 12)
		_, err := s.RegisterReturn(ctx, l.ID, &ret)
		require.NoError(t, err)
		require.Equal(t, catalog.StatusAvailable, store.books["b1"])

		_, err = s.Update(ctx, l.ID, UpdateParams{
			LoanDate: date(2024, 1, 1), DueDate: date(2024, 1, 15),
		})
		require.NoError(t, err)
		assert.Equal(t, catalog.StatusOnLoan, store.books["b1"])
	})

	t.Run("invalid dates", func(t *testing.T) {
		s, _, l := setup(t)
		_, err := s.Update(ctx, l.ID, UpdateParams{
			LoanDate: date(2024, 1, 16), DueDate: date(2024, 1, 15),
		})
		assert.ErrorIs(t, err, ErrInvalidDates)
	})

	t.Run("unknown loan", func(t *testing.T) {
		s, _, _ := setup(t)
		_, err := s.Update(ctx, "ghost", UpdateParams{
			LoanDate: date(2024, 1, 1), DueDate: date(2024, 1, 15),
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("open loan is deleted and book freed", func(t *testing.T) {
		store := newMemStore()
		store.addMember("m1")
		store.addBook("b1", catalog.StatusAvailable)
		s := newTestService(store)
		l, err := s.Create(ctx, CreateParams{
			MemberID: "m1", BookID: "b1",
			LoanDate: date(2024, 1, 1), DueDate: date(2024, 1, 15),
		})
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, l.ID))
		assert.Empty(t, store.loans)
		assert.Equal(t, catalog.StatusAvailable, store.books["b1"])
	})

	t.Run("loan with fines is kept", func(t *testing.T) {
		store := newMemStore()
		store.addMember("m1")
		store.addBook("b1", catalog.StatusAvailable)
		s := newTestService(store)
		l, err := s.Create(ctx, CreateParams{
			MemberID: "m1", BookID: "b1",
			LoanDate: date(2024, 1, 1), DueDate: date(2024, 1, 15),
		})
		require.NoError(t, err)

		ret := date(2024, 1, 20)
		_, err = s.RegisterReturn(ctx, l.ID, &ret)
		require.NoError(t, err)
		require.Len(t, store.fines, 1)

		err = s.Delete(ctx, l.ID)
		assert.ErrorIs(t, err, ErrHasFines)
		assert.Len(t, store.loans, 1)
	})

	t.Run("unknown loan", func(t *testing.T) {
		store := newMemStore()
		s := newTestService(store)
		assert.ErrorIs(t, s.Delete(ctx, "ghost"), ErrNotFound)
	})
}

// Walks the full lifecycle: loan, conflicting loan, late return, re-close.
func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addMember("m1")
	store.addMember("m2")
	store.addBook("b1", catalog.StatusAvailable)
	s := newTestService(store)

	l, err := s.Create(ctx, CreateParams{
		MemberID: "m1", BookID: "b1",
		LoanDate: date(2024, 1, 1), DueDate: date(2024, 1, 15),
	})
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusOnLoan, store.books["b1"])

	_, err = s.Create(ctx, CreateParams{
		MemberID: "m2", BookID: "b1",
		LoanDate: date(2024, 1, 2), DueDate: date(2024, 1, 16),
	})
	assert.ErrorIs(t, err, ErrBookUnavailable)

	ret := date(2024, 1, 20)
	closed, err := s.RegisterReturn(ctx, l.ID, &ret)
	require.NoError(t, err)
	assert.False(t, closed.Open())
	assert.Equal(t, catalog.StatusAvailable, store.books["b1"])
	require.Len(t, store.fines, 1)
	assert.True(t, store.fines[0].Amount.IsPositive())

	_, err = s.RegisterReturn(ctx, l.ID, &ret)
	assert.ErrorIs(t, err, ErrAlreadyReturned)
	assert.Len(t, store.fines, 1)
}
