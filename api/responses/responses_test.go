package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/gocart/storefront/pkg/errors"
	"github.com/gocart/storefront/pkg/logger"
	"github.com/gocart/storefront/pkg/types"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"hello": "world"})

	if got := w.Code; got != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", got)
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode success envelope: %v", err)
	}
	if body.Data.(map[string]any)["hello"] != "world" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "bad input").
		WithDetails(map[string]string{"field": "demo"})
	WriteError(context.Background(), nil, w, err)

	if got := w.Code; got != http.StatusBadRequest {
		t.Fatalf("expected status 400 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeValidation) || body.Error.Message != "bad input" {
		t.Fatalf("unexpected error %+v", body.Error)
	}
	if body.Error.Details == nil {
		t.Fatalf("expected details in public payload")
	}
}

func TestWriteErrorDefaultsToInternalForUntrustedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("boom"))

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}
	if strings.Contains(w.Body.String(), "boom") {
		t.Fatalf("internal error text leaked: %s", w.Body.String())
	}
}

func TestWriteErrorStorefrontCodes(t *testing.T) {
	cases := []struct {
		err       error
		status    int
		message   string
		retryable bool
	}{
		{pkgerrors.New(pkgerrors.CodeTransport, "dial tcp: refused"), http.StatusServiceUnavailable, "order service unreachable", true},
		{pkgerrors.New(pkgerrors.CodeRejected, "order service answered 400"), http.StatusBadGateway, "order service rejected the request", false},
		{pkgerrors.New(pkgerrors.CodeIllegalTransition, "status transition not allowed"), http.StatusUnprocessableEntity, "status transition not allowed", false},
		{pkgerrors.New(pkgerrors.CodeConflict, "checkout already in progress"), http.StatusConflict, "checkout already in progress", false},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		WriteError(context.Background(), nil, w, tc.err)
		if w.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, w.Code)
		}
		var body types.ErrorEnvelope
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Error.Message != tc.message {
			t.Fatalf("%v: unexpected message %q", tc.err, body.Error.Message)
		}
		if got := w.Header().Get("Retry-After") != ""; got != tc.retryable {
			t.Fatalf("%v: retry-after presence %v", tc.err, got)
		}
		if body.Error.Retryable != tc.retryable {
			t.Fatalf("%v: retryable flag %v", tc.err, body.Error.Retryable)
		}
	}
}

func TestWriteErrorLogsChain(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})

	w := httptest.NewRecorder()
	WriteError(context.Background(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("redis down"), "persist cart"))

	if !strings.Contains(buf.String(), "redis down") || !strings.Contains(buf.String(), "request.error") {
		t.Fatalf("expected error chain in log, got %s", buf.String())
	}
}

func TestWriteErrorEchoesRequestID(t *testing.T) {
	ctx := types.WithRequestID(context.Background(), "req-42")
	w := httptest.NewRecorder()
	WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.RequestID != "req-42" {
		t.Fatalf("expected request id echo, got %q", body.Error.RequestID)
	}
}
