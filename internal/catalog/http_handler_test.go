package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
)

const (
	testBookID   = "11111111-1111-1111-1111-111111111111"
	testAuthorID = "22222222-2222-2222-2222-222222222222"
)

func newTestHandler(t *testing.T) (*MockRepository, *HTTPHandler) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockRepo := NewMockRepository(ctrl)
	return mockRepo, NewHTTPHandler(NewService(mockRepo))
}

func TestHTTPHandler_CreateBook(t *testing.T) {
	t.Run("success starts available", func(t *testing.T) {
		mockRepo, handler := newTestHandler(t)
		mockRepo.EXPECT().
			CreateBook(gomock.Any(), gomock.Any(), []string{testAuthorID}).
			DoAndReturn(func(_ context.Context, b *Book, _ []string) error {
				assert.Equal(t, StatusAvailable, b.Status)
				b.ID = testBookID
				return nil
			})

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/books",
			strings.NewReader(`{"title":"Dom Casmurro","publication_year":1899,"author_ids":["`+testAuthorID+`"]}`))

		handler.CreateBook(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("missing title", func(t *testing.T) {
		_, handler := newTestHandler(t)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/books",
			strings.NewReader(`{"publication_year":1899}`))

		handler.CreateBook(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	})

	t.Run("unknown author", func(t *testing.T) {
		mockRepo, handler := newTestHandler(t)
		mockRepo.EXPECT().
			CreateBook(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(ErrAuthorNotFound)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/books",
			strings.NewReader(`{"title":"X","publication_year":2000,"author_ids":["`+testAuthorID+`"]}`))

		handler.CreateBook(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHTTPHandler_GetBookByID(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockRepo, handler := newTestHandler(t)
		mockRepo.EXPECT().GetBookByID(gomock.Any(), testBookID).
			Return(Book{ID: testBookID, Title: "Dom Casmurro", Status: StatusAvailable}, nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/books/"+testBookID, nil)
		r.SetPathValue("id", testBookID)

		handler.GetBookByID(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Dom Casmurro")
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo, handler := newTestHandler(t)
		mockRepo.EXPECT().GetBookByID(gomock.Any(), testBookID).
			Return(Book{}, ErrBookNotFound)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/books/"+testBookID, nil)
		r.SetPathValue("id", testBookID)

		handler.GetBookByID(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		_, handler := newTestHandler(t)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/books/not-a-uuid", nil)
		r.SetPathValue("id", "not-a-uuid")

		handler.GetBookByID(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHTTPHandler_ListBooksByStatus(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockRepo, handler := newTestHandler(t)
		mockRepo.EXPECT().ListBooksByStatus(gomock.Any(), StatusOnLoan).
			Return([]Book{{ID: testBookID, Status: StatusOnLoan}}, nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/books/status/ON_LOAN", nil)
		r.SetPathValue("status", StatusOnLoan)

		handler.ListBooksByStatus(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, handler := newTestHandler(t)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/books/status/LOST", nil)
		r.SetPathValue("status", "LOST")

		handler.ListBooksByStatus(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHTTPHandler_DeleteBook(t *testing.T) {
	t.Run("referenced by loans", func(t *testing.T) {
		mockRepo, handler := newTestHandler(t)
		mockRepo.EXPECT().DeleteBook(gomock.Any(), testBookID).Return(ErrInUse)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodDelete, "/books/"+testBookID, nil)
		r.SetPathValue("id", testBookID)

		handler.DeleteBook(w, r)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("success", func(t *testing.T) {
		mockRepo, handler := newTestHandler(t)
		mockRepo.EXPECT().DeleteBook(gomock.Any(), testBookID).Return(nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodDelete, "/books/"+testBookID, nil)
		r.SetPathValue("id", testBookID)

		handler.DeleteBook(w, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestHTTPHandler_ListRandomBooks(t *testing.T) {
	// Missing and out-of-range limits fall back to 10.
	mockRepo, handler := newTestHandler(t)
	mockRepo.EXPECT().ListRandomBooks(gomock.Any(), 10).Return([]Book{}, nil)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/books/random", nil)

	handler.ListRandomBooks(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPHandler_SearchBooksByTitle(t *testing.T) {
	t.Run("missing query", func(t *testing.T) {
		_, handler := newTestHandler(t)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/books/search", nil)

		handler.SearchBooksByTitle(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("success", func(t *testing.T) {
		mockRepo, handler := newTestHandler(t)
		mockRepo.EXPECT().SearchBooksByTitle(gomock.Any(), "casmurro").
			Return([]Book{{ID: testBookID, Title: "Dom Casmurro"}}, nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/books/search?title=casmurro", nil)

		handler.SearchBooksByTitle(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestHTTPHandler_Authors(t *testing.T) {
	t.Run("create success", func(t *testing.T) {
		mockRepo, handler := newTestHandler(t)
		mockRepo.EXPECT().CreateAuthor(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, a *Author) error {
				a.ID = testAuthorID
				return nil
			})

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/authors",
			strings.NewReader(`{"name":"Machado de Assis"}`))

		handler.CreateAuthor(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("create missing name", func(t *testing.T) {
		_, handler := newTestHandler(t)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/authors", strings.NewReader(`{}`))

		handler.CreateAuthor(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("update not found", func(t *testing.T) {
		mockRepo, handler := newTestHandler(t)
		mockRepo.EXPECT().GetAuthorByID(gomock.Any(), testAuthorID).
			Return(Author{}, ErrAuthorNotFound)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPut, "/authors/"+testAuthorID,
			strings.NewReader(`{"name":"New Name"}`))
		r.SetPathValue("id", testAuthorID)

		handler.UpdateAuthor(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete with books", func(t *testing.T) {
		mockRepo, handler := newTestHandler(t)
		mockRepo.EXPECT().DeleteAuthor(gomock.Any(), testAuthorID).Return(ErrInUse)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodDelete, "/authors/"+testAuthorID, nil)
		r.SetPathValue("id", testAuthorID)

		handler.DeleteAuthor(w, r)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("year must be numeric", func(t *testing.T) {
		_, handler := newTestHandler(t)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/authors/year/abc", nil)
		r.SetPathValue("year", "abc")

		handler.ListAuthorsByPublicationYear(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
