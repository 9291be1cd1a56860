package orders

import (
	"strings"

	pkgerrors "github.com/gocart/storefront/pkg/errors"
)

// VendorFilter keeps orders where the order vendor or any line's vendor is
// vendorID. Used when the backend cannot query by vendor.
func VendorFilter(orders []Order, vendorID string) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.HasVendor(vendorID) {
			out = append(out, o)
		}
	}
	return out
}

// StatusFilter selects orders on the vendor order list.
type StatusFilter string

const (
	FilterAll       StatusFilter = "all"
	FilterPending   StatusFilter = "pending"
	FilterCompleted StatusFilter = "completed"
	FilterCancelled StatusFilter = "cancelled"
)

// ParseStatusFilter defaults an empty value to all.
func ParseStatusFilter(value string) (StatusFilter, error) {
	f := StatusFilter(strings.ToLower(strings.TrimSpace(value)))
	switch f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterPending, FilterCompleted, FilterCancelled:
		return f, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter").
		WithDetails(map[string]any{"status": value})
}

func (f StatusFilter) matches(o Order) bool {
	if f == FilterAll || f == "" {
		return true
	}
	return string(o.Status) == string(f)
}
