package analytics

import (
	"context"
	"fmt"

	"github.com/gocart/storefront/internal/orders"
	"github.com/gocart/storefront/pkg/backend"
)

type boardLoader interface {
	LoadBoard(ctx context.Context, vendorID string) (*orders.Board, error)
}

type productLister interface {
	ListVendorProducts(ctx context.Context, vendorID string) ([]backend.Product, error)
}

// Service computes vendor dashboard metrics.
type Service interface {
	VendorMetrics(ctx context.Context, vendorID string) (*VendorMetrics, error)
}

type service struct {
	boards   boardLoader
	products productLister
}

// NewService builds the metrics service over the order board and catalog.
func NewService(boards boardLoader, products productLister) (Service, error) {
	if boards == nil {
		return nil, fmt.Errorf("board loader required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lister required")
	}
	return &service{boards: boards, products: products}, nil
}

func (s *service) VendorMetrics(ctx context.Context, vendorID string) (*VendorMetrics, error) {
	board, err := s.boards.LoadBoard(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	products, err := s.products.ListVendorProducts(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	m := Fold(board.Orders(orders.FilterAll), len(products))
	return &m, nil
}
