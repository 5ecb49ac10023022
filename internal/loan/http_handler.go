package loan

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"libraryapi/internal/httpx"
)

const dateLayout = "2006-01-02"

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type createLoanRequest struct {
	MemberID string `json:"member_id" validate:"required,uuid"`
	BookID   string `json:"book_id" validate:"required,uuid"`
	LoanDate string `json:"loan_date" validate:"omitempty,datetime=2006-01-02"`
	DueDate  string `json:"due_date" validate:"required,datetime=2006-01-02"`
}

type returnLoanRequest struct {
	ReturnDate string `json:"return_date" validate:"omitempty,datetime=2006-01-02"`
}

type updateLoanRequest struct {
	LoanDate   string `json:"loan_date" validate:"required,datetime=2006-01-02"`
	DueDate    string `json:"due_date" validate:"required,datetime=2006-01-02"`
	ReturnDate string `json:"return_date" validate:"omitempty,datetime=2006-01-02"`
}

// Create handles POST /loans
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_BODY", "Invalid JSON body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", details)
		return
	}

	params := CreateParams{
		MemberID: req.MemberID,
		BookID:   req.BookID,
	}
	if req.LoanDate != "" {
		params.LoanDate, _ = time.Parse(dateLayout, req.LoanDate)
	}
	params.DueDate, _ = time.Parse(dateLayout, req.DueDate)

	created, err := h.service.Create(r.Context(), params)
	if err != nil {
		writeLoanError(w, r, err)
		return
	}
	httpx.JSONSuccessCreated(w, r, created)
}

// RegisterReturn handles PUT /loans/{id}/return
func (h *HTTPHandler) RegisterReturn(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var returnDate *time.Time
	body, err := io.ReadAll(r.Body)
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_BODY", "Invalid JSON body", nil)
		return
	}
	if len(body) > 0 {
		var req returnLoanRequest
		if err := json.Unmarshal(body, &req); err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_BODY", "Invalid JSON body", nil)
			return
		}
		if details := httpx.ValidateStruct(req); details != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", details)
			return
		}
		if req.ReturnDate != "" {
			t, _ := time.Parse(dateLayout, req.ReturnDate)
			returnDate = &t
		}
	}

	closed, err := h.service.RegisterReturn(r.Context(), id, returnDate)
	if err != nil {
		writeLoanError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, closed, nil)
}

// Update handles PUT /loans/{id}
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_BODY", "Invalid JSON body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", details)
		return
	}

	var params UpdateParams
	params.LoanDate, _ = time.Parse(dateLayout, req.LoanDate)
	params.DueDate, _ = time.Parse(dateLayout, req.DueDate)
	if req.ReturnDate != "" {
		t, _ := time.Parse(dateLayout, req.ReturnDate)
		params.ReturnDate = &t
	}

	updated, err := h.service.Update(r.Context(), id, params)
	if err != nil {
		writeLoanError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, updated, nil)
}

// Delete handles DELETE /loans/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeLoanError(w, r, err)
		return
	}
	httpx.JSONSuccessNoContent(w)
}

// GetByID handles GET /loans/{id}
func (h *HTTPHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	l, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeLoanError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, l, nil)
}

// List handles GET /loans
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r)(h.service.List(r.Context()))
}

// ListByMember handles GET /loans/member/{memberID}
func (h *HTTPHandler) ListByMember(w http.ResponseWriter, r *http.Request) {
	memberID, ok := pathUUID(w, r, "memberID")
	if !ok {
		return
	}
	h.respondList(w, r)(h.service.ListByMember(r.Context(), memberID))
}

// ListByBook handles GET /loans/book/{bookID}
func (h *HTTPHandler) ListByBook(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}
	h.respondList(w, r)(h.service.ListByBook(r.Context(), bookID))
}

// ListActive handles GET /loans/active
func (h *HTTPHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r)(h.service.ListActive(r.Context()))
}

// ListActiveByMember handles GET /loans/active/member/{memberID}
func (h *HTTPHandler) ListActiveByMember(w http.ResponseWriter, r *http.Request) {
	memberID, ok := pathUUID(w, r, "memberID")
	if !ok {
		return
	}
	h.respondList(w, r)(h.service.ListActiveByMember(r.Context(), memberID))
}

// CountActiveByMember handles GET /loans/active/member/{memberID}/count
func (h *HTTPHandler) CountActiveByMember(w http.ResponseWriter, r *http.Request) {
	memberID, ok := pathUUID(w, r, "memberID")
	if !ok {
		return
	}
	n, err := h.service.CountActiveByMember(r.Context(), memberID)
	if err != nil {
		writeLoanError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, map[string]int{"count": n}, nil)
}

// ListOverdue handles GET /loans/overdue
func (h *HTTPHandler) ListOverdue(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r)(h.service.ListOverdue(r.Context()))
}

// ListByReturnDateRange handles GET /loans/returned?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *HTTPHandler) ListByReturnDateRange(w http.ResponseWriter, r *http.Request) {
	from, err1 := time.Parse(dateLayout, r.URL.Query().Get("from"))
	to, err2 := time.Parse(dateLayout, r.URL.Query().Get("to"))
	if err1 != nil || err2 != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", []httpx.ErrorDetail{
			{Field: "from/to", Message: "from and to must be dates in 2006-01-02 format"},
		})
		return
	}
	h.respondList(w, r)(h.service.ListByReturnDateRange(r.Context(), from, to))
}

// ListHistoryByBook handles GET /loans/history/book/{bookID}
func (h *HTTPHandler) ListHistoryByBook(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}
	h.respondList(w, r)(h.service.ListHistoryByBook(r.Context(), bookID))
}

func (h *HTTPHandler) respondList(w http.ResponseWriter, r *http.Request) func([]Loan, error) {
	return func(loans []Loan, err error) {
		if err != nil {
			writeLoanError(w, r, err)
			return
		}
		if loans == nil {
			loans = []Loan{}
		}
		httpx.JSONSuccess(w, r, loans, nil)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	return pathUUID(w, r, "id")
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := r.PathValue(name)
	if uuid.Validate(id) != nil {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Resource not found", nil)
		return "", false
	}
	return id, true
}

func writeLoanError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrMemberNotFound), errors.Is(err, ErrBookNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrBookUnavailable), errors.Is(err, ErrLoanLimitReached),
		errors.Is(err, ErrAlreadyReturned), errors.Is(err, ErrHasFines):
		httpx.JSONError(w, r, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, ErrInvalidDates):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	default:
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
