package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gocart/storefront/api/middleware"
	pkgerrors "github.com/gocart/storefront/pkg/errors"
)

func accountFromContext(r *http.Request) (string, error) {
	id := strings.TrimSpace(middleware.AccountIDFromContext(r.Context()))
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "account context missing")
	}
	return id, nil
}

func pathParam(r *http.Request, name string) (string, error) {
	value := strings.TrimSpace(chi.URLParam(r, name))
	if value == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, name+" is required").
			WithDetails(map[string]string{name: "is required"})
	}
	return value, nil
}

func serviceUnavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" unavailable")
}
