package member

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

type memberRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
}

// Create handles POST /members
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_BODY", "Invalid JSON body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", details)
		return
	}

	created, err := h.service.Create(r.Context(), req.Name, req.Email)
	if err != nil {
		writeMemberError(w, r, err)
		return
	}
	httpx.JSONSuccessCreated(w, r, created)
}

// Update handles PUT /members/{id}
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := memberPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_BODY", "Invalid JSON body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", details)
		return
	}

	updated, err := h.service.Update(r.Context(), id, req.Name, req.Email)
	if err != nil {
		writeMemberError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, updated, nil)
}

// Delete handles DELETE /members/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := memberPathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeMemberError(w, r, err)
		return
	}
	httpx.JSONSuccessNoContent(w)
}

// GetByID handles GET /members/{id}
func (h *HTTPHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := memberPathUUID(w, r, "id")
	if !ok {
		return
	}
	m, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeMemberError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, m, nil)
}

// GetByEmail handles GET /members/email?email=...
func (h *HTTPHandler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", []httpx.ErrorDetail{
			{Field: "email", Message: "email query parameter is required"},
		})
		return
	}
	m, err := h.service.GetByEmail(r.Context(), email)
	if err != nil {
		writeMemberError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, m, nil)
}

// List handles GET /members
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r)(h.service.List(r.Context()))
}

// SearchByName handles GET /members/search?name=...
func (h *HTTPHandler) SearchByName(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", []httpx.ErrorDetail{
			{Field: "name", Message: "name query parameter is required"},
		})
		return
	}
	h.respondList(w, r)(h.service.SearchByName(r.Context(), name))
}

// ListWithMostLoans handles GET /members/most-loans
func (h *HTTPHandler) ListWithMostLoans(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r)(h.service.ListWithMostLoans(r.Context()))
}

// ListWithHighestFineTotals handles GET /members/most-fines
func (h *HTTPHandler) ListWithHighestFineTotals(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r)(h.service.ListWithHighestFineTotals(r.Context()))
}

// ListWithAllLoansReturned handles GET /members/all-returned
func (h *HTTPHandler) ListWithAllLoansReturned(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r)(h.service.ListWithAllLoansReturned(r.Context()))
}

// ListWithAtLeastOpenLoans handles GET /members/open-loans?min=N
func (h *HTTPHandler) ListWithAtLeastOpenLoans(w http.ResponseWriter, r *http.Request) {
	min, err := strconv.Atoi(r.URL.Query().Get("min"))
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", []httpx.ErrorDetail{
			{Field: "min", Message: "min must be an integer"},
		})
		return
	}
	h.respondList(w, r)(h.service.ListWithAtLeastOpenLoans(r.Context(), min))
}

func (h *HTTPHandler) respondList(w http.ResponseWriter, r *http.Request) func([]Member, error) {
	return func(members []Member, err error) {
		if err != nil {
			writeMemberError(w, r, err)
			return
		}
		if members == nil {
			members = []Member{}
		}
		httpx.JSONSuccess(w, r, members, nil)
	}
}

func memberPathUUID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := r.PathValue(name)
	if uuid.Validate(id) != nil {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Resource not found", nil)
		return "", false
	}
	return id, true
}

func writeMemberError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrEmailTaken), errors.Is(err, ErrInUse):
		httpx.JSONError(w, r, http.StatusConflict, "CONFLICT", err.Error(), nil)
	default:
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
