package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gocart/storefront/internal/cart"
	"github.com/gocart/storefront/pkg/backend"
	pkgerrors "github.com/gocart/storefront/pkg/errors"
)

// AllCategories disables the category filter.
const AllCategories = "All"

type productLister interface {
	ListVendorProducts(ctx context.Context, vendorID string) ([]backend.Product, error)
}

type productWriter interface {
	CreateProduct(ctx context.Context, req backend.CreateProductRequest) (*backend.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
}

var maxDiscount = decimal.NewFromInt(100)

// Item is a browsable product with its display discount.
type Item struct {
	cart.Product
	Discount decimal.Decimal `json:"discount"`
}

// Query narrows a vendor's catalog.
type Query struct {
	VendorID string
	Search   string
	Category string
}

// Listing is a filtered catalog page. Categories covers the whole catalog,
// prefixed with AllCategories, in first-seen order.
type Listing struct {
	Products   []Item   `json:"products"`
	Categories []string `json:"categories"`
}

// Draft is a product a vendor adds to its own catalog.
type Draft struct {
	Name     string
	Price    decimal.Decimal
	Category string
	Stock    int
	Discount decimal.Decimal
	Image    string
}

func (d Draft) validate() error {
	details := map[string]string{}
	if strings.TrimSpace(d.Name) == "" {
		details["name"] = "is required"
	}
	if strings.TrimSpace(d.Category) == "" {
		details["category"] = "is required"
	}
	if !d.Price.IsPositive() {
		details["price"] = "must be greater than 0"
	}
	if d.Stock < 0 {
		details["stock"] = "must not be negative"
	}
	if d.Discount.IsNegative() || d.Discount.GreaterThan(maxDiscount) {
		details["discount"] = "must be between 0 and 100"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product").WithDetails(details)
	}
	return nil
}

// Service browses vendor catalogs served by the order backend and, when the
// backend accepts writes, lets vendors manage their own products.
type Service struct {
	products productLister
	writer   productWriter
}

func NewService(products productLister) (*Service, error) {
	if products == nil {
		return nil, fmt.Errorf("product lister required")
	}
	svc := &Service{products: products}
	if w, ok := products.(productWriter); ok {
		svc.writer = w
	}
	return svc, nil
}

// List returns the vendor's products matching a case-insensitive name search
// and an exact category.
func (s *Service) List(ctx context.Context, q Query) (*Listing, error) {
	all, err := s.load(ctx, q.VendorID)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(q.Search))
	category := strings.TrimSpace(q.Category)
	if strings.EqualFold(category, AllCategories) {
		category = ""
	}

	listing := &Listing{Products: []Item{}, Categories: []string{AllCategories}}
	seen := map[string]struct{}{}
	for _, item := range all {
		if _, ok := seen[item.Category]; !ok {
			seen[item.Category] = struct{}{}
			listing.Categories = append(listing.Categories, item.Category)
		}
		if search != "" && !strings.Contains(strings.ToLower(item.Name), search) {
			continue
		}
		if category != "" && item.Category != category {
			continue
		}
		listing.Products = append(listing.Products, item)
	}
	return listing, nil
}

// Resolve returns the catalog entry for productID so the cart records the
// backend's price rather than a client-supplied one.
func (s *Service) Resolve(ctx context.Context, vendorID, productID string) (cart.Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return cart.Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	all, err := s.load(ctx, vendorID)
	if err != nil {
		return cart.Product{}, err
	}
	for _, item := range all {
		if item.ID == productID {
			return item.Product, nil
		}
	}
	return cart.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
		WithDetails(map[string]any{"product_id": productID, "vendor_id": vendorID})
}

// VendorProducts returns the vendor's whole catalog.
func (s *Service) VendorProducts(ctx context.Context, vendorID string) ([]Item, error) {
	return s.load(ctx, vendorID)
}

// CreateProduct adds d to the vendor's catalog. Fields the backend leaves out
// of its answer are taken from the draft.
func (s *Service) CreateProduct(ctx context.Context, vendorID string, d Draft) (Item, error) {
	if s.writer == nil {
		return Item{}, pkgerrors.New(pkgerrors.CodeDependency, "catalog backend is read-only")
	}
	vendorID = strings.TrimSpace(vendorID)
	if vendorID == "" {
		return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	if err := d.validate(); err != nil {
		return Item{}, err
	}

	req := backend.CreateProductRequest{
		VendorID: vendorID,
		Name:     strings.TrimSpace(d.Name),
		Price:    json.Number(d.Price.String()),
		Category: strings.TrimSpace(d.Category),
		Stock:    d.Stock,
		Image:    strings.TrimSpace(d.Image),
	}
	if !d.Discount.IsZero() {
		req.Discount = json.Number(d.Discount.String())
	}
	created, err := s.writer.CreateProduct(ctx, req)
	if err != nil {
		return Item{}, err
	}

	item := toItem(*created, vendorID)
	if item.Name == "" {
		item.Name = req.Name
	}
	if item.UnitPrice.IsZero() {
		item.UnitPrice = d.Price
	}
	if item.Category == "" {
		item.Category = req.Category
	}
	if item.Stock == 0 {
		item.Stock = d.Stock
	}
	if item.ImageRef == "" {
		item.ImageRef = req.Image
	}
	if item.Discount.IsZero() {
		item.Discount = d.Discount
	}
	return item, nil
}

// DeleteProduct removes productID, which must belong to the vendor.
func (s *Service) DeleteProduct(ctx context.Context, vendorID, productID string) error {
	if s.writer == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "catalog backend is read-only")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	all, err := s.load(ctx, vendorID)
	if err != nil {
		return err
	}
	owned := false
	for _, item := range all {
		if item.ID == productID {
			owned = true
			break
		}
	}
	if !owned {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{"product_id": productID})
	}

	if err := s.writer.DeleteProduct(ctx, productID); err != nil {
		if backend.StatusOf(err) == http.StatusNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return err
	}
	return nil
}

func (s *Service) load(ctx context.Context, vendorID string) ([]Item, error) {
	vendorID = strings.TrimSpace(vendorID)
	if vendorID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	raw, err := s.products.ListVendorProducts(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(raw))
	for _, p := range raw {
		items = append(items, toItem(p, vendorID))
	}
	return items, nil
}

func toItem(p backend.Product, vendorID string) Item {
	owner := string(p.VendorID)
	if owner == "" {
		owner = vendorID
	}
	return Item{
		Product: cart.Product{
			ID:        p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			VendorID:  owner,
			ImageRef:  p.Image,
			Category:  p.Category,
			Stock:     p.Stock,
		},
		Discount: p.Discount,
	}
}
