package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gocart/storefront/api/middleware"
	"github.com/gocart/storefront/api/responses"
	"github.com/gocart/storefront/api/validators"
	"github.com/gocart/storefront/internal/cart"
	pkgerrors "github.com/gocart/storefront/pkg/errors"
	"github.com/gocart/storefront/pkg/logger"
)

type updateProfileRequest struct {
	Name    string `json:"name" validate:"max=120"`
	Address string `json:"address" validate:"required,notblank,max=500"`
}

// ProfileFetch returns the stored profile, or an empty one seeded from the
// token when nothing has been saved yet.
func ProfileFetch(profiles cart.ProfileStorage, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if profiles == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("profile storage"))
			return
		}
		consumerID, err := accountFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := profiles.LoadProfile(r.Context(), consumerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile"))
			return
		}
		if profile == nil {
			profile = &cart.Profile{
				ConsumerID: consumerID,
				Name:       middleware.NameFromContext(r.Context()),
			}
		}
		responses.WriteSuccess(w, profile)
	}
}

func ProfileUpdate(profiles cart.ProfileStorage, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if profiles == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("profile storage"))
			return
		}
		consumerID, err := accountFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProfileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		name := strings.TrimSpace(payload.Name)
		if name == "" {
			name = middleware.NameFromContext(r.Context())
		}
		profile := cart.Profile{
			ConsumerID: consumerID,
			Name:       name,
			Address:    strings.TrimSpace(payload.Address),
			UpdatedAt:  time.Now().UTC(),
		}
		if err := profiles.SaveProfile(r.Context(), profile); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save profile"))
			return
		}
		responses.WriteSuccess(w, profile)
	}
}
