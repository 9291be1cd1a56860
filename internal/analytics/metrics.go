package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/gocart/storefront/internal/orders"
)

// VendorMetrics are derived from the vendor's orders on every read and never
// persisted.
type VendorMetrics struct {
	PendingItemCount  int             `json:"pending_item_count"`
	CompletedEarnings decimal.Decimal `json:"completed_earnings"`
	ProductCount      int             `json:"product_count"`
	PendingOrders     int             `json:"pending_orders"`
	CompletedOrders   int             `json:"completed_orders"`
	CancelledOrders   int             `json:"cancelled_orders"`
}

// Fold aggregates orders. Pending item count is the number of product lines
// on pending orders; earnings sum quantity times the line's historical unit
// price over completed orders.
func Fold(list []orders.Order, productCount int) VendorMetrics {
	m := VendorMetrics{
		CompletedEarnings: decimal.Zero,
		ProductCount:      productCount,
	}
	for _, o := range list {
		switch o.Status {
		case orders.StatusPending:
			m.PendingOrders++
			m.PendingItemCount += len(o.Products)
		case orders.StatusCompleted:
			m.CompletedOrders++
			for _, line := range o.Products {
				m.CompletedEarnings = m.CompletedEarnings.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
			}
		case orders.StatusCancelled:
			m.CancelledOrders++
		}
	}
	return m
}
