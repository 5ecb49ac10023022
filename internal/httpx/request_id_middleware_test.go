package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if RequestIDFrom(r) == "" {
			t.Error("expected request id in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	got := w.Header().Get(requestIDHeader)
	if uuid.Validate(got) != nil {
		t.Errorf("expected a UUID response header, got %q", got)
	}
}

func TestRequestIDMiddleware_KeepsValidInboundID(t *testing.T) {
	inbound := uuid.New().String()
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	req.Header.Set(requestIDHeader, inbound)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if got := w.Header().Get(requestIDHeader); got != inbound {
		t.Errorf("expected inbound id %q to be kept, got %q", inbound, got)
	}
}

func TestRequestIDMiddleware_ReplacesInvalidInboundID(t *testing.T) {
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	req.Header.Set(requestIDHeader, "<script>alert(1)</script>")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	got := w.Header().Get(requestIDHeader)
	if uuid.Validate(got) != nil {
		t.Errorf("expected injected header to be replaced with a UUID, got %q", got)
	}
}
