package orders

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gocart/storefront/pkg/backend"
)

// Line is one product of an order. UnitPrice is the price the backend
// recorded for this historical line.
type Line struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	VendorID  string          `json:"vendor_id,omitempty"`
}

// Order is the storefront view of a backend order.
type Order struct {
	ID         string          `json:"id"`
	ConsumerID string          `json:"consumer_id"`
	VendorID   string          `json:"vendor_id"`
	Address    string          `json:"address"`
	Products   []Line          `json:"products"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Status     Status          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

// HasVendor reports whether the order or any of its lines belongs to vendorID.
func (o Order) HasVendor(vendorID string) bool {
	if vendorID == "" {
		return false
	}
	if o.VendorID == vendorID {
		return true
	}
	for _, line := range o.Products {
		if line.VendorID == vendorID {
			return true
		}
	}
	return false
}

// FromBackend converts a backend order document.
func FromBackend(src backend.Order) Order {
	status, ok := ParseStatus(src.Status)
	if !ok {
		status = Status(strings.TrimSpace(src.Status))
	}
	lines := make([]Line, 0, len(src.Products))
	for _, p := range src.Products {
		lines = append(lines, Line{
			ProductID: p.Product.ID,
			Name:      p.Product.Name,
			Quantity:  p.Quantity,
			UnitPrice: p.Product.Price,
			VendorID:  string(p.Product.VendorID),
		})
	}
	return Order{
		ID:         src.ID,
		ConsumerID: string(src.ConsumerID),
		VendorID:   string(src.VendorID),
		Address:    src.Address,
		Products:   lines,
		TotalPrice: src.TotalPrice,
		Status:     status,
		CreatedAt:  src.CreatedAt,
	}
}

// FromBackendList converts a slice of backend orders.
func FromBackendList(src []backend.Order) []Order {
	out := make([]Order, 0, len(src))
	for _, o := range src {
		out = append(out, FromBackend(o))
	}
	return out
}
