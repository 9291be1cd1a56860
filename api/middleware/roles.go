package middleware

import (
	"net/http"

	"github.com/gocart/storefront/api/responses"
	pkgAuth "github.com/gocart/storefront/pkg/auth"
	pkgerrors "github.com/gocart/storefront/pkg/errors"
	"github.com/gocart/storefront/pkg/logger"
)

func RequireRole(role pkgAuth.Role, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFromContext(r.Context()) != string(role) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, string(role)+" role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
