package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gocart/storefront/api/responses"
	pkgAuth "github.com/gocart/storefront/pkg/auth"
	"github.com/gocart/storefront/pkg/config"
	pkgerrors "github.com/gocart/storefront/pkg/errors"
	"github.com/gocart/storefront/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the claims.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, pkgAuth.ErrTokenExpired) {
					msg = "token expired"
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msg))
				return
			}

			ctx := WithAccount(r.Context(), claims.AccountID, string(claims.Role), claims.Name)
			ctx = logg.WithAccount(ctx, claims.Role.String(), claims.AccountID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
