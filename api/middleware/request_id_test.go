package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gocart/storefront/pkg/logger"
	"github.com/gocart/storefront/pkg/types"
)

func TestRequestIDKeepsWellFormedHeader(t *testing.T) {
	var seen string
	h := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = types.RequestIDFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "edge-7f3a")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "edge-7f3a" || rec.Header().Get(requestIDHeader) != "edge-7f3a" {
		t.Fatalf("expected inbound id to be reused, got ctx=%q header=%q", seen, rec.Header().Get(requestIDHeader))
	}
}

func TestRequestIDReplacesMalformedHeader(t *testing.T) {
	h := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "bad id\twith spaces")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	got := rec.Header().Get(requestIDHeader)
	if got == "" || strings.Contains(got, " ") {
		t.Fatalf("expected generated id, got %q", got)
	}
}

func TestRecovererWritesInternalEnvelope(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
	h := RequestID(logg)(Recoverer(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("cart exploded")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body types.ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Contains(body.Error.Message, "cart exploded") {
		t.Fatalf("panic text leaked: %q", body.Error.Message)
	}
	if body.Error.RequestID == "" {
		t.Fatalf("expected request id in envelope")
	}
	if !strings.Contains(buf.String(), "panic.recovered") {
		t.Fatalf("expected panic log, got %s", buf.String())
	}
}

func TestRecovererRepanicsOnAbort(t *testing.T) {
	h := Recoverer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler, got %v", rec)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}
