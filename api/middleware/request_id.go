package middleware

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/gocart/storefront/pkg/logger"
	"github.com/gocart/storefront/pkg/types"
)

const requestIDHeader = "X-Request-Id"

// Caller-supplied ids outside this shape are replaced so log lines stay clean.
var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,64}$`)

// RequestID reuses a well-formed inbound X-Request-Id or mints a UUID, echoes
// it on the response and makes it available to logs and error envelopes.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(requestIDHeader)
			if !requestIDPattern.MatchString(reqID) {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)

			ctx := types.WithRequestID(r.Context(), reqID)
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
