package fine

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"libraryapi/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type createFineRequest struct {
	LoanID   string          `json:"loan_id" validate:"required,uuid"`
	MemberID string          `json:"member_id" validate:"required,uuid"`
	Amount   decimal.Decimal `json:"amount"`
	IssuedAt *time.Time      `json:"issued_at"`
}

type updateFineRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Create handles POST /fines
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createFineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_BODY", "Invalid JSON body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", details)
		return
	}

	f := Fine{
		LoanID:   req.LoanID,
		MemberID: req.MemberID,
		Amount:   req.Amount,
	}
	if req.IssuedAt != nil {
		f.IssuedAt = *req.IssuedAt
	}

	created, err := h.service.Create(r.Context(), f)
	if err != nil {
		writeFineError(w, r, err)
		return
	}
	httpx.JSONSuccessCreated(w, r, created)
}

// Update handles PUT /fines/{id}; only the amount may change.
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := finePathUUID(w, r, "id")
	if !ok {
		return
	}

	var req updateFineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_BODY", "Invalid JSON body", nil)
		return
	}

	updated, err := h.service.UpdateAmount(r.Context(), id, req.Amount)
	if err != nil {
		writeFineError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, updated, nil)
}

// Delete handles DELETE /fines/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := finePathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeFineError(w, r, err)
		return
	}
	httpx.JSONSuccessNoContent(w)
}

// GetByID handles GET /fines/{id}
func (h *HTTPHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := finePathUUID(w, r, "id")
	if !ok {
		return
	}
	f, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeFineError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, f, nil)
}

// List handles GET /fines
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r)(h.service.List(r.Context()))
}

// ListByMember handles GET /fines/member/{memberID}
func (h *HTTPHandler) ListByMember(w http.ResponseWriter, r *http.Request) {
	memberID, ok := finePathUUID(w, r, "memberID")
	if !ok {
		return
	}
	h.respondList(w, r)(h.service.ListByMember(r.Context(), memberID))
}

// SumByMember handles GET /fines/member/{memberID}/total
func (h *HTTPHandler) SumByMember(w http.ResponseWriter, r *http.Request) {
	memberID, ok := finePathUUID(w, r, "memberID")
	if !ok {
		return
	}
	total, err := h.service.SumByMember(r.Context(), memberID)
	if err != nil {
		writeFineError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, map[string]decimal.Decimal{"total": total}, nil)
}

// ListByLoan handles GET /fines/loan/{loanID}
func (h *HTTPHandler) ListByLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := finePathUUID(w, r, "loanID")
	if !ok {
		return
	}
	h.respondList(w, r)(h.service.ListByLoan(r.Context(), loanID))
}

// ListAboveAmount handles GET /fines/above?amount=10.00
func (h *HTTPHandler) ListAboveAmount(w http.ResponseWriter, r *http.Request) {
	min, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", []httpx.ErrorDetail{
			{Field: "amount", Message: "amount must be a decimal number"},
		})
		return
	}
	h.respondList(w, r)(h.service.ListAboveAmount(r.Context(), min))
}

// ListIssuedBetween handles GET /fines/period?from=...&to=... (RFC 3339)
func (h *HTTPHandler) ListIssuedBetween(w http.ResponseWriter, r *http.Request) {
	from, err1 := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	to, err2 := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err1 != nil || err2 != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", []httpx.ErrorDetail{
			{Field: "from/to", Message: "from and to must be RFC 3339 timestamps"},
		})
		return
	}
	h.respondList(w, r)(h.service.ListIssuedBetween(r.Context(), from, to))
}

// ListByAmountDesc handles GET /fines/by-amount
func (h *HTTPHandler) ListByAmountDesc(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r)(h.service.ListByAmountDesc(r.Context()))
}

func (h *HTTPHandler) respondList(w http.ResponseWriter, r *http.Request) func([]Fine, error) {
	return func(fines []Fine, err error) {
		if err != nil {
			writeFineError(w, r, err)
			return
		}
		if fines == nil {
			fines = []Fine{}
		}
		httpx.JSONSuccess(w, r, fines, nil)
	}
}

func finePathUUID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := r.PathValue(name)
	if uuid.Validate(id) != nil {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Resource not found", nil)
		return "", false
	}
	return id, true
}

func writeFineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrLoanNotFound), errors.Is(err, ErrMemberNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrNonPositiveAmount):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", []httpx.ErrorDetail{
			{Field: "amount", Message: err.Error()},
		})
	default:
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
