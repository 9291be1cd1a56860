package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/gocart/storefront/pkg/backend"
	pkgerrors "github.com/gocart/storefront/pkg/errors"
	"github.com/gocart/storefront/pkg/logger"
	"github.com/gocart/storefront/pkg/metrics"
)

// Backend is the slice of the order backend used for order views.
type Backend interface {
	StatusUpdater
	ListOrders(ctx context.Context) ([]backend.Order, error)
	ListVendorOrders(ctx context.Context, vendorID string) ([]backend.Order, error)
	ListConsumerOrders(ctx context.Context, consumerID string) ([]backend.Order, error)
}

// Service loads vendor boards and consumer order history.
type Service struct {
	backend     Backend
	vendorQuery bool
	metrics     *metrics.Storefront
	logg        *logger.Logger
}

// ServiceParams groups the dependencies of Service.
type ServiceParams struct {
	Backend Backend
	// VendorQuery selects GET /orders/vendor/{id} instead of filtering the bulk feed.
	VendorQuery bool
	Metrics     *metrics.Storefront
	Logger      *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Backend == nil {
		return nil, fmt.Errorf("order backend required")
	}
	return &Service{
		backend:     params.Backend,
		vendorQuery: params.VendorQuery,
		metrics:     params.Metrics,
		logg:        params.Logger,
	}, nil
}

// LoadBoard fetches the vendor's orders into a new Board.
func (s *Service) LoadBoard(ctx context.Context, vendorID string) (*Board, error) {
	vendorID = strings.TrimSpace(vendorID)
	if vendorID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}

	var (
		raw []backend.Order
		err error
	)
	if s.vendorQuery {
		raw, err = s.backend.ListVendorOrders(ctx, vendorID)
	} else {
		raw, err = s.backend.ListOrders(ctx)
	}
	if err != nil {
		return nil, err
	}

	list := VendorFilter(FromBackendList(raw), vendorID)
	return NewBoard(vendorID, list, s.backend, s.metrics), nil
}

// Transition loads the vendor's board and transitions one of its orders.
// Orders outside the vendor's board are reported as not found.
func (s *Service) Transition(ctx context.Context, vendorID, orderID string, target Status) (Order, error) {
	if !target.IsValid() {
		return Order{}, CanTransition(StatusPending, target)
	}
	board, err := s.LoadBoard(ctx, vendorID)
	if err != nil {
		return Order{}, err
	}

	if s.logg != nil {
		ctx = s.logg.WithOrderID(s.logg.WithVendorID(ctx, vendorID), orderID)
	}
	updated, err := board.Transition(ctx, orderID, target)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"target": string(target),
				"code":   string(pkgerrors.CodeOf(err)),
			}), "order transition refused")
		}
		return Order{}, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "status", string(target)), "order status updated")
	}
	return updated, nil
}

// ConsumerOrders returns the consumer's order history.
func (s *Service) ConsumerOrders(ctx context.Context, consumerID string) ([]Order, error) {
	consumerID = strings.TrimSpace(consumerID)
	if consumerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "consumer id is required")
	}
	raw, err := s.backend.ListConsumerOrders(ctx, consumerID)
	if err != nil {
		return nil, err
	}
	return FromBackendList(raw), nil
}
