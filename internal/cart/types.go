package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is what catalog browsing hands to the cart. Stock is display
// metadata and is never decremented by the cart.
type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	VendorID  string          `json:"vendor_id"`
	ImageRef  string          `json:"image_ref,omitempty"`
	Category  string          `json:"category,omitempty"`
	Stock     int             `json:"stock"`
}

// LineItem is one product in a consumer's cart. Quantity is at least 1 while
// the item exists.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	VendorID  string          `json:"vendor_id"`
	ImageRef  string          `json:"image_ref,omitempty"`
	Position  int64           `json:"position"`
}

// LineTotal is unit price times quantity.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot is an immutable, insertion-ordered view of a cart.
type Snapshot struct {
	items []LineItem
}

// NewSnapshot copies items into a snapshot. Callers pass items already in
// position order.
func NewSnapshot(items []LineItem) Snapshot {
	out := make([]LineItem, len(items))
	copy(out, items)
	return Snapshot{items: out}
}

// Items returns a copy of the line items in insertion order.
func (s Snapshot) Items() []LineItem {
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s Snapshot) Len() int {
	return len(s.items)
}

func (s Snapshot) IsEmpty() bool {
	return len(s.items) == 0
}

// First returns the earliest-added line item.
func (s Snapshot) First() (LineItem, bool) {
	if len(s.items) == 0 {
		return LineItem{}, false
	}
	return s.items[0], true
}

// QuantityOf returns the quantity of productID, 0 when absent.
func (s Snapshot) QuantityOf(productID string) int {
	for _, item := range s.items {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}

// VendorID is the vendor shared by every item, empty for an empty cart.
func (s Snapshot) VendorID() string {
	if first, ok := s.First(); ok {
		return first.VendorID
	}
	return ""
}

// Profile is the last-known consumer profile; Address is the default
// delivery address offered at checkout.
type Profile struct {
	ConsumerID string    `json:"consumer_id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	UpdatedAt  time.Time `json:"updated_at"`
}
