package controllers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/gocart/storefront/api/responses"
	"github.com/gocart/storefront/api/validators"
	"github.com/gocart/storefront/internal/cart"
	"github.com/gocart/storefront/internal/pricing"
	"github.com/gocart/storefront/pkg/logger"
)

type cartSessions interface {
	Open(ctx context.Context, consumerID string) (*cart.Store, error)
}

type productResolver interface {
	Resolve(ctx context.Context, vendorID, productID string) (cart.Product, error)
}

type cartPricer interface {
	Price(snapshot cart.Snapshot) pricing.Breakdown
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required,notblank"`
	VendorID  string `json:"vendor_id" validate:"required,notblank"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=999"`
}

type cartLineResponse struct {
	cart.LineItem
	LineTotal decimal.Decimal `json:"line_total"`
}

type cartResponse struct {
	ConsumerID string             `json:"consumer_id"`
	VendorID   string             `json:"vendor_id,omitempty"`
	Items      []cartLineResponse `json:"items"`
	LineCount  int                `json:"line_count"`
	Quantities map[string]int     `json:"quantities"`
	Breakdown  pricing.Display    `json:"breakdown"`
}

func newCartResponse(consumerID string, snapshot cart.Snapshot, pricer cartPricer) cartResponse {
	items := snapshot.Items()
	resp := cartResponse{
		ConsumerID: consumerID,
		VendorID:   snapshot.VendorID(),
		Items:      make([]cartLineResponse, 0, len(items)),
		LineCount:  snapshot.Len(),
		Quantities: make(map[string]int, len(items)),
		Breakdown:  pricer.Price(snapshot).Display(),
	}
	for _, item := range items {
		resp.Items = append(resp.Items, cartLineResponse{LineItem: item, LineTotal: item.LineTotal()})
		resp.Quantities[item.ProductID] = item.Quantity
	}
	return resp
}

// CartFetch returns the consumer's cart with its price breakdown.
func CartFetch(sessions cartSessions, pricer cartPricer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil || pricer == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cart service"))
			return
		}
		consumerID, err := accountFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store, err := sessions.Open(r.Context(), consumerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(consumerID, store.Snapshot(), pricer))
	}
}

// CartAddItem resolves the product against the vendor catalog and adds it.
// The unit price always comes from the catalog.
func CartAddItem(sessions cartSessions, products productResolver, pricer cartPricer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil || products == nil || pricer == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cart service"))
			return
		}
		consumerID, err := accountFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := products.Resolve(r.Context(), payload.VendorID, payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := sessions.Open(r.Context(), consumerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.AddItem(r.Context(), product, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(consumerID, store.Snapshot(), pricer))
	}
}

type cartItemMutation func(store *cart.Store, ctx context.Context, productID string) error

func CartIncrementItem(sessions cartSessions, pricer cartPricer, logg *logger.Logger) http.HandlerFunc {
	return cartItemHandler(sessions, pricer, logg, (*cart.Store).IncrementItem)
}

// CartDecrementItem drops the line when its quantity reaches zero.
func CartDecrementItem(sessions cartSessions, pricer cartPricer, logg *logger.Logger) http.HandlerFunc {
	return cartItemHandler(sessions, pricer, logg, (*cart.Store).DecrementItem)
}

func CartRemoveItem(sessions cartSessions, pricer cartPricer, logg *logger.Logger) http.HandlerFunc {
	return cartItemHandler(sessions, pricer, logg, (*cart.Store).RemoveItem)
}

func cartItemHandler(sessions cartSessions, pricer cartPricer, logg *logger.Logger, mutate cartItemMutation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil || pricer == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cart service"))
			return
		}
		consumerID, err := accountFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store, err := sessions.Open(r.Context(), consumerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := mutate(store, r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(consumerID, store.Snapshot(), pricer))
	}
}
