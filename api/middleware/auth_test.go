package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgAuth "github.com/gocart/storefront/pkg/auth"
	"github.com/gocart/storefront/pkg/config"
	"github.com/gocart/storefront/pkg/types"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "middleware-secret",
		Issuer:            "gocart-test",
		ExpirationMinutes: 5,
	}
}

func mintToken(t *testing.T, cfg config.JWTConfig, accountID string, role pkgAuth.Role) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		AccountID: accountID,
		Role:      role,
		Name:      "Asha",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	called := false
	h := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if called {
		t.Fatal("handler should not run")
	}
}

func TestAuthRejectsForeignSignature(t *testing.T) {
	other := testJWTConfig()
	other.Secret = "someone-else"
	token := mintToken(t, other, "c1", pkgAuth.RoleConsumer)

	h := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthSeedsContext(t *testing.T) {
	cfg := testJWTConfig()
	token := mintToken(t, cfg, "v7", pkgAuth.RoleVendor)

	var gotID, gotRole, gotName string
	h := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = AccountIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		gotName = NameFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/vendor/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if gotID != "v7" || gotRole != "vendor" || gotName != "Asha" {
		t.Fatalf("unexpected context values %q %q %q", gotID, gotRole, gotName)
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(pkgAuth.RoleVendor, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	consumer := httptest.NewRequest(http.MethodGet, "/api/v1/vendor/orders", nil)
	consumer = consumer.WithContext(WithAccount(consumer.Context(), "c1", "consumer", ""))
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, consumer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}

	vendor := httptest.NewRequest(http.MethodGet, "/api/v1/vendor/orders", nil)
	vendor = vendor.WithContext(WithAccount(vendor.Context(), "v1", "vendor", ""))
	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, vendor)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
}

func TestAuthReportsExpiredToken(t *testing.T) {
	cfg := testJWTConfig()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now().Add(-time.Hour), pkgAuth.AccessTokenPayload{
		AccountID: "c1",
		Role:      pkgAuth.RoleConsumer,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	h := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	var body types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Message != "token expired" {
		t.Fatalf("unexpected message %q", body.Error.Message)
	}
}
