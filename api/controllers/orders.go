package controllers

import (
	"context"
	"net/http"

	"github.com/gocart/storefront/api/responses"
	"github.com/gocart/storefront/api/validators"
	"github.com/gocart/storefront/internal/orders"
	"github.com/gocart/storefront/pkg/logger"
)

type consumerOrderLister interface {
	ConsumerOrders(ctx context.Context, consumerID string) ([]orders.Order, error)
}

type vendorOrderService interface {
	LoadBoard(ctx context.Context, vendorID string) (*orders.Board, error)
	Transition(ctx context.Context, vendorID, orderID string, target orders.Status) (orders.Order, error)
}

type transitionRequest struct {
	Status string `json:"status" validate:"required,notblank"`
}

type vendorOrdersResponse struct {
	Filter  orders.StatusFilter `json:"filter"`
	Orders  []orders.Order      `json:"orders"`
	Pending int                 `json:"pending"`
}

// ConsumerOrders lists the consumer's order history.
func ConsumerOrders(svc consumerOrderLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("order service"))
			return
		}
		consumerID, err := accountFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ConsumerOrders(r.Context(), consumerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"orders": list})
	}
}

// VendorOrders lists the vendor's board, optionally narrowed by ?status=.
func VendorOrders(svc vendorOrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("order service"))
			return
		}
		vendorID, err := accountFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter, err := orders.ParseStatusFilter(r.URL.Query().Get("status"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		board, err := svc.LoadBoard(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vendorOrdersResponse{
			Filter:  filter,
			Orders:  board.Orders(filter),
			Pending: len(board.Pending()),
		})
	}
}

// VendorOrderTransition moves a pending order to completed or cancelled.
func VendorOrderTransition(svc vendorOrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("order service"))
			return
		}
		vendorID, err := accountFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload transitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, _ := orders.ParseStatus(payload.Status)

		order, err := svc.Transition(r.Context(), vendorID, orderID, target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
