package controllers

import (
	"net/http"

	"github.com/gocart/storefront/api/responses"
	"github.com/gocart/storefront/internal/analytics"
	"github.com/gocart/storefront/pkg/logger"
)

func VendorMetrics(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("analytics service"))
			return
		}
		vendorID, err := accountFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		m, err := svc.VendorMetrics(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, m)
	}
}
