package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddlewarePassesThrough(t *testing.T) {
	p, err := New(context.Background(), &Config{Enabled: false})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	h := p.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/watchdogs", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 through middleware, got %d", rec.Code)
	}
}

func TestMiddlewareRecordsServerErrors(t *testing.T) {
	p, err := New(context.Background(), &Config{Enabled: false})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Instruments are nil on a disabled provider; a 500 must still be
	// relayed without panicking.
	h := p.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/proposals/x", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 through middleware, got %d", rec.Code)
	}
}
