package controllers

import (
	"net/http"
	"strings"

	"github.com/gocart/storefront/api/responses"
	"github.com/gocart/storefront/api/validators"
	checkoutsvc "github.com/gocart/storefront/internal/checkout"
	"github.com/gocart/storefront/pkg/logger"
)

type checkoutRequest struct {
	Address string `json:"address" validate:"max=500"`
}

// Checkout submits the consumer's cart as one order. The body is optional;
// without an address the saved profile address is used.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("checkout service"))
			return
		}
		consumerID, err := accountFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Submit(r.Context(), consumerID, strings.TrimSpace(payload.Address))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

