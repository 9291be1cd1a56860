package cart

import pkgerrors "github.com/gocart/storefront/pkg/errors"

// ErrVendorMismatch rejects adding a product from a second vendor.
var ErrVendorMismatch = pkgerrors.New(pkgerrors.CodeConflict, "cart already holds items from another vendor")
