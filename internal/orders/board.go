package orders

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/gocart/storefront/pkg/backend"
	pkgerrors "github.com/gocart/storefront/pkg/errors"
	"github.com/gocart/storefront/pkg/metrics"
)

// StatusUpdater issues status changes to the order backend.
type StatusUpdater interface {
	UpdateOrderStatus(ctx context.Context, orderID, status string) (*backend.Order, error)
}

// Board is a vendor's working set of orders. Local status changes are
// applied only after the backend confirms them.
type Board struct {
	mu       sync.Mutex
	vendorID string
	orders   []Order
	updater  StatusUpdater
	metrics  *metrics.Storefront
}

// NewBoard holds orders for vendorID.
func NewBoard(vendorID string, orders []Order, updater StatusUpdater, m *metrics.Storefront) *Board {
	held := make([]Order, len(orders))
	copy(held, orders)
	return &Board{vendorID: vendorID, orders: held, updater: updater, metrics: m}
}

func (b *Board) VendorID() string {
	return b.vendorID
}

// Orders returns a copy of the orders matching filter, in backend order.
func (b *Board) Orders(filter StatusFilter) []Order {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Order, 0, len(b.orders))
	for _, o := range b.orders {
		if filter.matches(o) {
			out = append(out, o)
		}
	}
	return out
}

// Pending is the vendor's action queue.
func (b *Board) Pending() []Order {
	return b.Orders(FilterPending)
}

// Find returns the order with id.
func (b *Board) Find(orderID string) (Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if idx := b.indexOf(orderID); idx >= 0 {
		return b.orders[idx], true
	}
	return Order{}, false
}

// Transition moves orderID to target. The transition is validated locally
// before any network call and applied locally only after a 2xx answer.
func (b *Board) Transition(ctx context.Context, orderID string, target Status) (Order, error) {
	orderID = strings.TrimSpace(orderID)

	b.mu.Lock()
	idx := b.indexOf(orderID)
	if idx < 0 {
		b.mu.Unlock()
		b.metrics.IncTransition(string(target), "not_found")
		return Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	current := b.orders[idx].Status
	b.mu.Unlock()

	if err := CanTransition(current, target); err != nil {
		b.metrics.IncTransition(string(target), "illegal")
		return Order{}, err
	}
	if b.updater == nil {
		return Order{}, pkgerrors.New(pkgerrors.CodeDependency, "order backend not configured")
	}

	if _, err := b.updater.UpdateOrderStatus(ctx, orderID, string(target)); err != nil {
		mapped := mapUpdateError(err, current, target)
		b.metrics.IncTransition(string(target), outcomeFor(mapped))
		return Order{}, mapped
	}

	b.mu.Lock()
	idx = b.indexOf(orderID)
	if idx < 0 {
		b.mu.Unlock()
		return Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	b.orders[idx].Status = target
	updated := b.orders[idx]
	b.mu.Unlock()

	b.metrics.IncTransition(string(target), "ok")
	return updated, nil
}

func (b *Board) indexOf(orderID string) int {
	for i, o := range b.orders {
		if o.ID == orderID {
			return i
		}
	}
	return -1
}

// mapUpdateError maps a backend failure: transport errors pass through,
// 404 becomes NOT_FOUND and any other answer is an illegal transition.
func mapUpdateError(err error, from, to Status) error {
	if pkgerrors.CodeOf(err) == pkgerrors.CodeTransport {
		return err
	}
	status := backend.StatusOf(err)
	if status == http.StatusNotFound {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
	}
	if status == 0 {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeIllegalTransition, err, "order service refused the transition").
		WithDetails(map[string]any{"from": string(from), "to": string(to), "status": status})
}

func outcomeFor(err error) string {
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeTransport:
		return "transport"
	case pkgerrors.CodeNotFound:
		return "not_found"
	case pkgerrors.CodeIllegalTransition:
		return "rejected"
	}
	return "error"
}
