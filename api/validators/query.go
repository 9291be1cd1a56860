package validators

import (
	"net/url"
	"strconv"
	"strings"

	pkgerrors "github.com/gocart/storefront/pkg/errors"
)

// ParseFloatQuery reads a required float query parameter.
func ParseFloatQuery(values url.Values, name string) (float64, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, name+" is required").
			WithDetails(map[string]string{name: "is required"})
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, name+" must be a number").
			WithDetails(map[string]string{name: "must be a number"})
	}
	return v, nil
}
