package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gocart/storefront/api/responses"
	pkgerrors "github.com/gocart/storefront/pkg/errors"
	"github.com/gocart/storefront/pkg/logger"
	pkgredis "github.com/gocart/storefront/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"

	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour
	// An in-flight claim expires on its own if the process dies mid-request.
	pendingIdempotencyTTL = 2 * time.Minute
)

type keyedRoute struct {
	method string
	match  func(pattern string) bool
	ttl    time.Duration
}

// Mutations that must carry an Idempotency-Key. Checkout keys live longer
// because a duplicate order is the costlier mistake.
var keyedRoutes = []keyedRoute{
	{
		method: http.MethodPost,
		match:  func(p string) bool { return p == "/api/v1/checkout" },
		ttl:    criticalIdempotencyTTL,
	},
	{
		method: http.MethodPost,
		match: func(p string) bool {
			return strings.HasPrefix(p, "/api/v1/vendor/orders/") && strings.HasSuffix(p, "/status")
		},
		ttl: defaultIdempotencyTTL,
	},
	{
		method: http.MethodPost,
		match:  func(p string) bool { return p == "/api/v1/vendor/products" },
		ttl:    defaultIdempotencyTTL,
	},
}

type recordState string

const (
	statePending recordState = "pending"
	stateDone    recordState = "done"
)

type idempotencyRecord struct {
	State       recordState `json:"state"`
	RequestHash string      `json:"request_hash"`
	Status      int         `json:"status,omitempty"`
	ContentType string      `json:"content_type,omitempty"`
	Body        string      `json:"body,omitempty"`
}

// Idempotency claims the key before the handler runs so a concurrent retry
// gets 409 instead of a second order. Only 2xx responses are kept; any other
// outcome releases the key so the client may retry with it.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, keyed := routeTTL(r.Method, routePattern(r))
			if !keyed || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if clientKey == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := hashBody(body)
			key := store.IdempotencyKey(requestScope(r), clientKey)

			claimed, err := claim(ctx, store, key, hash)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if !claimed {
				existing, err := load(ctx, store, key)
				if err != nil {
					responses.WriteError(ctx, logg, w, err)
					return
				}
				if existing == nil {
					// Claim expired between SetNX and Get.
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "idempotent request still in progress, retry shortly"))
					return
				}
				if err := checkExisting(existing, hash); err != nil {
					responses.WriteError(ctx, logg, w, err)
					return
				}
				replay(w, existing)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			// The handler already answered the client; store failures are only logged.
			status := capture.statusOrOK()
			if status < http.StatusOK || status >= http.StatusMultipleChoices {
				if err := store.Del(ctx, key); err != nil {
					logError(ctx, logg, "idempotency.release_failed", err)
				}
				return
			}
			done := idempotencyRecord{
				State:       stateDone,
				RequestHash: hash,
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
			}
			if err := save(ctx, store, key, done, ttl); err != nil {
				logError(ctx, logg, "idempotency.persist_failed", err)
			}
		})
	}
}

func claim(ctx context.Context, store pkgredis.IdempotencyStore, key, hash string) (bool, error) {
	payload, err := json.Marshal(idempotencyRecord{State: statePending, RequestHash: hash})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode idempotency claim")
	}
	ok, err := store.SetNX(ctx, key, string(payload), pendingIdempotencyTTL)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key")
	}
	return ok, nil
}

func load(ctx context.Context, store pkgredis.IdempotencyStore, key string) (*idempotencyRecord, error) {
	raw, err := store.Get(ctx, key)
	if pkgredis.IsNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
	}
	var rec idempotencyRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
	}
	return &rec, nil
}

func save(ctx context.Context, store pkgredis.IdempotencyStore, key string, rec idempotencyRecord, ttl time.Duration) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, string(payload), ttl)
}

func checkExisting(rec *idempotencyRecord, hash string) error {
	if rec.RequestHash != hash {
		return pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body")
	}
	if rec.State != stateDone {
		return pkgerrors.New(pkgerrors.CodeConflict, "idempotent request still in progress, retry shortly")
	}
	return nil
}

func replay(w http.ResponseWriter, rec *idempotencyRecord) {
	if rec.ContentType != "" {
		w.Header().Set("Content-Type", rec.ContentType)
	}
	w.Header().Set(replayedHeader, "true")
	w.WriteHeader(rec.Status)
	if body, err := base64.StdEncoding.DecodeString(rec.Body); err == nil {
		_, _ = w.Write(body)
	}
}

// requestScope keeps keys from colliding across accounts, roles and endpoints.
func requestScope(r *http.Request) string {
	ctx := r.Context()
	return strings.Join([]string{AccountIDFromContext(ctx), RoleFromContext(ctx), r.Method, r.URL.Path}, "|")
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		// Group middleware sees a partial pattern ending in "/*".
		if p := rc.RoutePattern(); p != "" && !strings.HasSuffix(p, "*") {
			return p
		}
	}
	return r.URL.Path
}

func routeTTL(method, pattern string) (time.Duration, bool) {
	for _, route := range keyedRoutes {
		if route.method == method && route.match(pattern) {
			return route.ttl, true
		}
	}
	return 0, false
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusOrOK() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Error(ctx, msg, err)
}
