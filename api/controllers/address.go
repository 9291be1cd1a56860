package controllers

import (
	"context"
	"net/http"

	"github.com/gocart/storefront/api/responses"
	"github.com/gocart/storefront/api/validators"
	"github.com/gocart/storefront/pkg/geocode"
	"github.com/gocart/storefront/pkg/logger"
)

type reverseGeocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (*geocode.Place, error)
}

// AddressReverse turns the device's coordinates into a display address.
func AddressReverse(geo reverseGeocoder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if geo == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("geocoding"))
			return
		}
		query := r.URL.Query()
		lat, err := validators.ParseFloatQuery(query, "lat")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lon, err := validators.ParseFloatQuery(query, "lon")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		place, err := geo.Reverse(r.Context(), lat, lon)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, place)
	}
}
