package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gocart/storefront/api/responses"
	"github.com/gocart/storefront/api/validators"
	"github.com/gocart/storefront/internal/catalog"
	pkgerrors "github.com/gocart/storefront/pkg/errors"
	"github.com/gocart/storefront/pkg/logger"
)

type catalogLister interface {
	List(ctx context.Context, q catalog.Query) (*catalog.Listing, error)
}

// CatalogList browses a vendor's products with optional q and category filters.
func CatalogList(svc catalogLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("catalog service"))
			return
		}
		vendorID, err := pathParam(r, "vendorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		listing, err := svc.List(r.Context(), catalog.Query{
			VendorID: vendorID,
			Search:   strings.TrimSpace(query.Get("q")),
			Category: strings.TrimSpace(query.Get("category")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

type vendorCatalog interface {
	VendorProducts(ctx context.Context, vendorID string) ([]catalog.Item, error)
	CreateProduct(ctx context.Context, vendorID string, draft catalog.Draft) (catalog.Item, error)
	DeleteProduct(ctx context.Context, vendorID, productID string) error
}

type createProductRequest struct {
	Name     string      `json:"name" validate:"required,notblank,max=120"`
	Price    json.Number `json:"price" validate:"required,numeric"`
	Category string      `json:"category" validate:"required,notblank,max=60"`
	Stock    int         `json:"stock" validate:"min=0,max=1000000"`
	Discount json.Number `json:"discount" validate:"omitempty,numeric"`
	Image    string      `json:"image" validate:"omitempty,url,max=2048"`
}

func (p createProductRequest) draft() (catalog.Draft, error) {
	price, err := decimal.NewFromString(p.Price.String())
	if err != nil {
		return catalog.Draft{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price").
			WithDetails(map[string]string{"price": "must be a number"})
	}
	discount := decimal.Zero
	if p.Discount != "" {
		discount, err = decimal.NewFromString(p.Discount.String())
		if err != nil {
			return catalog.Draft{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount").
				WithDetails(map[string]string{"discount": "must be a number"})
		}
	}
	return catalog.Draft{
		Name:     p.Name,
		Price:    price,
		Category: p.Category,
		Stock:    p.Stock,
		Discount: discount,
		Image:    p.Image,
	}, nil
}

// VendorProducts lists the authenticated vendor's catalog.
func VendorProducts(svc vendorCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("catalog service"))
			return
		}
		vendorID, err := accountFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.VendorProducts(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"products": items, "product_count": len(items)})
	}
}

// VendorProductCreate adds a product to the authenticated vendor's catalog.
func VendorProductCreate(svc vendorCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("catalog service"))
			return
		}
		vendorID, err := accountFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		draft, err := payload.draft()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.CreateProduct(r.Context(), vendorID, draft)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		logg.Info(logg.WithField(logg.WithVendorID(r.Context(), vendorID), "product_id", item.ID), "product created")
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// VendorProductDelete removes one of the authenticated vendor's products.
func VendorProductDelete(svc vendorCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("catalog service"))
			return
		}
		vendorID, err := accountFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), vendorID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		logg.Info(logg.WithField(logg.WithVendorID(r.Context(), vendorID), "product_id", productID), "product deleted")
		responses.WriteSuccess(w, map[string]string{"product_id": productID})
	}
}
