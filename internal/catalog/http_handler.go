package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"libraryapi/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type bookRequest struct {
	Title           string   `json:"title" validate:"required,min=1,max=255"`
	PublicationYear int      `json:"publication_year" validate:"required,min=1,max=2100"`
	AuthorIDs       []string `json:"author_ids" validate:"omitempty,dive,uuid"`
}

type authorRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// CreateBook handles POST /books
func (h *HTTPHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_BODY", "Invalid JSON body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", details)
		return
	}

	created, err := h.service.CreateBook(r.Context(), req.Title, req.PublicationYear, req.AuthorIDs)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	httpx.JSONSuccessCreated(w, r, created)
}

// UpdateBook handles PUT /books/{id}
func (h *HTTPHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := catalogPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_BODY", "Invalid JSON body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", details)
		return
	}

	updated, err := h.service.UpdateBook(r.Context(), id, req.Title, req.PublicationYear, req.AuthorIDs)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, updated, nil)
}

// DeleteBook handles DELETE /books/{id}
func (h *HTTPHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := catalogPathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteBook(r.Context(), id); err != nil {
		writeCatalogError(w, r, err)
		return
	}
	httpx.JSONSuccessNoContent(w)
}

// GetBookByID handles GET /books/{id}
func (h *HTTPHandler) GetBookByID(w http.ResponseWriter, r *http.Request) {
	id, ok := catalogPathUUID(w, r, "id")
	if !ok {
		return
	}
	b, err := h.service.GetBookByID(r.Context(), id)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

// ListBooks handles GET /books
func (h *HTTPHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	h.respondBooks(w, r)(h.service.ListBooks(r.Context()))
}

// SearchBooksByTitle handles GET /books/search?title=...
func (h *HTTPHandler) SearchBooksByTitle(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", []httpx.ErrorDetail{
			{Field: "title", Message: "title query parameter is required"},
		})
		return
	}
	h.respondBooks(w, r)(h.service.SearchBooksByTitle(r.Context(), title))
}

// ListBooksByStatus handles GET /books/status/{status}
func (h *HTTPHandler) ListBooksByStatus(w http.ResponseWriter, r *http.Request) {
	h.respondBooks(w, r)(h.service.ListBooksByStatus(r.Context(), r.PathValue("status")))
}

// ListBooksByYear handles GET /books/year/{year}
func (h *HTTPHandler) ListBooksByYear(w http.ResponseWriter, r *http.Request) {
	year, ok := pathYear(w, r, "year")
	if !ok {
		return
	}
	h.respondBooks(w, r)(h.service.ListBooksByYear(r.Context(), year))
}

// ListBooksByYearRange handles GET /books/year-range?from=YYYY&to=YYYY
func (h *HTTPHandler) ListBooksByYearRange(w http.ResponseWriter, r *http.Request) {
	from, err1 := strconv.Atoi(r.URL.Query().Get("from"))
	to, err2 := strconv.Atoi(r.URL.Query().Get("to"))
	if err1 != nil || err2 != nil || from > to {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", []httpx.ErrorDetail{
			{Field: "from/to", Message: "from and to must be years with from <= to"},
		})
		return
	}
	h.respondBooks(w, r)(h.service.ListBooksByYearRange(r.Context(), from, to))
}

// ListBooksByAuthor handles GET /books/author/{authorID}
func (h *HTTPHandler) ListBooksByAuthor(w http.ResponseWriter, r *http.Request) {
	authorID, ok := catalogPathUUID(w, r, "authorID")
	if !ok {
		return
	}
	h.respondBooks(w, r)(h.service.ListBooksByAuthor(r.Context(), authorID))
}

// ListMostBorrowedBooks handles GET /books/most-borrowed
func (h *HTTPHandler) ListMostBorrowedBooks(w http.ResponseWriter, r *http.Request) {
	h.respondBooks(w, r)(h.service.ListMostBorrowedBooks(r.Context()))
}

// ListAvailableBooks handles GET /books/available
func (h *HTTPHandler) ListAvailableBooks(w http.ResponseWriter, r *http.Request) {
	h.respondBooks(w, r)(h.service.ListAvailableBooks(r.Context()))
}

// ListRandomBooks handles GET /books/random?limit=N
func (h *HTTPHandler) ListRandomBooks(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	h.respondBooks(w, r)(h.service.ListRandomBooks(r.Context(), limit))
}

// CreateAuthor handles POST /authors
func (h *HTTPHandler) CreateAuthor(w http.ResponseWriter, r *http.Request) {
	var req authorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_BODY", "Invalid JSON body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", details)
		return
	}

	created, err := h.service.CreateAuthor(r.Context(), req.Name)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	httpx.JSONSuccessCreated(w, r, created)
}

// UpdateAuthor handles PUT /authors/{id}
func (h *HTTPHandler) UpdateAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := catalogPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req authorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_BODY", "Invalid JSON body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", details)
		return
	}

	updated, err := h.service.UpdateAuthor(r.Context(), id, req.Name)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, updated, nil)
}

// DeleteAuthor handles DELETE /authors/{id}
func (h *HTTPHandler) DeleteAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := catalogPathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteAuthor(r.Context(), id); err != nil {
		writeCatalogError(w, r, err)
		return
	}
	httpx.JSONSuccessNoContent(w)
}

// GetAuthorByID handles GET /authors/{id}
func (h *HTTPHandler) GetAuthorByID(w http.ResponseWriter, r *http.Request) {
	id, ok := catalogPathUUID(w, r, "id")
	if !ok {
		return
	}
	a, err := h.service.GetAuthorByID(r.Context(), id)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, a, nil)
}

// ListAuthors handles GET /authors
func (h *HTTPHandler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	h.respondAuthors(w, r)(h.service.ListAuthors(r.Context()))
}

// SearchAuthorsByName handles GET /authors/search?name=...
func (h *HTTPHandler) SearchAuthorsByName(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", []httpx.ErrorDetail{
			{Field: "name", Message: "name query parameter is required"},
		})
		return
	}
	h.respondAuthors(w, r)(h.service.SearchAuthorsByName(r.Context(), name))
}

// ListAuthorsWithMostBooks handles GET /authors/most-books
func (h *HTTPHandler) ListAuthorsWithMostBooks(w http.ResponseWriter, r *http.Request) {
	h.respondAuthors(w, r)(h.service.ListAuthorsWithMostBooks(r.Context()))
}

// ListAuthorsWithMostLoans handles GET /authors/most-loans
func (h *HTTPHandler) ListAuthorsWithMostLoans(w http.ResponseWriter, r *http.Request) {
	h.respondAuthors(w, r)(h.service.ListAuthorsWithMostLoans(r.Context()))
}

// ListAuthorsByPublicationYear handles GET /authors/year/{year}
func (h *HTTPHandler) ListAuthorsByPublicationYear(w http.ResponseWriter, r *http.Request) {
	year, ok := pathYear(w, r, "year")
	if !ok {
		return
	}
	h.respondAuthors(w, r)(h.service.ListAuthorsByPublicationYear(r.Context(), year))
}

func (h *HTTPHandler) respondBooks(w http.ResponseWriter, r *http.Request) func([]Book, error) {
	return func(books []Book, err error) {
		if err != nil {
			writeCatalogError(w, r, err)
			return
		}
		if books == nil {
			books = []Book{}
		}
		httpx.JSONSuccess(w, r, books, nil)
	}
}

func (h *HTTPHandler) respondAuthors(w http.ResponseWriter, r *http.Request) func([]Author, error) {
	return func(authors []Author, err error) {
		if err != nil {
			writeCatalogError(w, r, err)
			return
		}
		if authors == nil {
			authors = []Author{}
		}
		httpx.JSONSuccess(w, r, authors, nil)
	}
}

func catalogPathUUID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := r.PathValue(name)
	if uuid.Validate(id) != nil {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Resource not found", nil)
		return "", false
	}
	return id, true
}

func pathYear(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	year, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", []httpx.ErrorDetail{
			{Field: name, Message: name + " must be an integer"},
		})
		return 0, false
	}
	return year, true
}

func writeCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrBookNotFound), errors.Is(err, ErrAuthorNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrInUse):
		httpx.JSONError(w, r, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, ErrInvalidStatus):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	default:
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
