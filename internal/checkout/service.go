package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gocart/storefront/internal/cart"
	"github.com/gocart/storefront/internal/orders"
	"github.com/gocart/storefront/internal/pricing"
	"github.com/gocart/storefront/pkg/backend"
	pkgerrors "github.com/gocart/storefront/pkg/errors"
	"github.com/gocart/storefront/pkg/logger"
	"github.com/gocart/storefront/pkg/metrics"
)

var (
	ErrEmptyCart      = pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	ErrMissingAddress = pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
)

// OrderCreator submits new orders to the order backend.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req backend.CreateOrderRequest) (*backend.Order, error)
}

type cartOpener interface {
	Open(ctx context.Context, consumerID string) (*cart.Store, error)
}

// Service turns a consumer's cart into a backend order.
type Service interface {
	Submit(ctx context.Context, consumerID, address string) (*orders.Order, error)
}

// ServiceParams groups checkout dependencies. Profiles and Guard are optional.
type ServiceParams struct {
	Carts    cartOpener
	Pricing  *pricing.Engine
	Backend  OrderCreator
	Profiles cart.ProfileStorage
	Guard    Guard
	Metrics  *metrics.Storefront
	Logger   *logger.Logger
}

type service struct {
	carts    cartOpener
	pricing  *pricing.Engine
	backend  OrderCreator
	profiles cart.ProfileStorage
	guard    Guard
	metrics  *metrics.Storefront
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Carts == nil {
		return nil, fmt.Errorf("cart sessions required")
	}
	if params.Pricing == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	if params.Backend == nil {
		return nil, fmt.Errorf("order backend required")
	}
	guard := params.Guard
	if guard == nil {
		guard = NewMemoryGuard()
	}
	return &service{
		carts:    params.Carts,
		pricing:  params.Pricing,
		backend:  params.Backend,
		profiles: params.Profiles,
		guard:    guard,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// Submit places one order for the whole cart. Validation failures issue no
// backend call; on any backend failure the cart is left untouched and the
// call is not retried.
func (s *service) Submit(ctx context.Context, consumerID, address string) (*orders.Order, error) {
	store, err := s.carts.Open(ctx, consumerID)
	if err != nil {
		return nil, err
	}
	if store.Snapshot().IsEmpty() {
		s.metrics.IncCheckout("empty_cart")
		return nil, ErrEmptyCart
	}

	address, err = s.resolveAddress(ctx, store.ConsumerID(), address)
	if err != nil {
		return nil, err
	}
	if address == "" {
		s.metrics.IncCheckout("missing_address")
		return nil, ErrMissingAddress
	}

	release, err := s.guard.Acquire(ctx, store.ConsumerID())
	if err != nil {
		s.metrics.IncCheckout("in_flight")
		return nil, err
	}
	defer release()

	// Another process may have checked this cart out while we waited.
	if err := store.Refresh(ctx); err != nil {
		return nil, err
	}
	snapshot := store.Snapshot()
	if snapshot.IsEmpty() {
		s.metrics.IncCheckout("empty_cart")
		return nil, ErrEmptyCart
	}

	req := s.buildRequest(store.ConsumerID(), address, snapshot)
	if s.logg != nil {
		ctx = s.logg.WithFields(s.logg.WithConsumerID(ctx, store.ConsumerID()), map[string]any{
			"vendor_id":   req.VendorID,
			"line_count":  len(req.Products),
			"total_price": req.TotalPrice.String(),
		})
	}

	created, err := s.backend.CreateOrder(ctx, req)
	if err != nil {
		s.metrics.IncCheckout(strings.ToLower(string(pkgerrors.CodeOf(err))))
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "code", string(pkgerrors.CodeOf(err))), "checkout submission failed")
		}
		return nil, err
	}

	order := orders.FromBackend(*created)
	fillFromRequest(&order, req, snapshot)

	if err := store.Clear(ctx); err != nil {
		// Best effort once the order exists.
		if s.logg != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, order.ID), "clear cart after checkout", err)
		}
	}

	s.metrics.IncCheckout("ok")
	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, order.ID), "order placed")
	}
	return &order, nil
}

func (s *service) resolveAddress(ctx context.Context, consumerID, address string) (string, error) {
	address = strings.TrimSpace(address)
	if address != "" || s.profiles == nil {
		return address, nil
	}
	profile, err := s.profiles.LoadProfile(ctx, consumerID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load consumer profile")
	}
	if profile == nil {
		return "", nil
	}
	return strings.TrimSpace(profile.Address), nil
}

func (s *service) buildRequest(consumerID, address string, snapshot cart.Snapshot) backend.CreateOrderRequest {
	items := snapshot.Items()
	lines := make([]backend.CreateOrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, backend.CreateOrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	total := s.pricing.Price(snapshot).GrandTotal
	return backend.CreateOrderRequest{
		ConsumerID: consumerID,
		VendorID:   snapshot.VendorID(),
		Address:    address,
		Status:     string(orders.StatusPending),
		Products:   lines,
		TotalPrice: json.Number(total.String()),
	}
}

// fillFromRequest completes fields a sparse create response leaves out.
func fillFromRequest(order *orders.Order, req backend.CreateOrderRequest, snapshot cart.Snapshot) {
	if order.ConsumerID == "" {
		order.ConsumerID = req.ConsumerID
	}
	if order.VendorID == "" {
		order.VendorID = req.VendorID
	}
	if order.Address == "" {
		order.Address = req.Address
	}
	if order.Status == "" {
		order.Status = orders.StatusPending
	}
	if order.TotalPrice.IsZero() {
		if total, err := decimal.NewFromString(req.TotalPrice.String()); err == nil {
			order.TotalPrice = total
		}
	}
	if len(order.Products) == 0 {
		for _, item := range snapshot.Items() {
			order.Products = append(order.Products, orders.Line{
				ProductID: item.ProductID,
				Name:      item.Name,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				VendorID:  item.VendorID,
			})
		}
	}
}
