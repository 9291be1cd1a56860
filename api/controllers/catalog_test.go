package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/gocart/storefront/internal/cart"
	"github.com/gocart/storefront/internal/catalog"
	pkgerrors "github.com/gocart/storefront/pkg/errors"
)

type stubVendorCatalog struct {
	items   []catalog.Item
	drafts  []catalog.Draft
	deleted []string
}

func (s *stubVendorCatalog) VendorProducts(context.Context, string) ([]catalog.Item, error) {
	return s.items, nil
}

func (s *stubVendorCatalog) CreateProduct(_ context.Context, vendorID string, d catalog.Draft) (catalog.Item, error) {
	s.drafts = append(s.drafts, d)
	return catalog.Item{Product: cart.Product{ID: "p-new", Name: d.Name, UnitPrice: d.Price, VendorID: vendorID}}, nil
}

func (s *stubVendorCatalog) DeleteProduct(_ context.Context, vendorID, productID string) error {
	for _, item := range s.items {
		if item.ID == productID && item.VendorID == vendorID {
			s.deleted = append(s.deleted, productID)
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func TestVendorProductCreate(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"number price", `{"name":"Paneer","price":89.5,"category":"Dairy","stock":4}`, http.StatusCreated},
		{"string price and discount", `{"name":"Paneer","price":"89.5","category":"Dairy","discount":"10"}`, http.StatusCreated},
		{"missing price", `{"name":"Paneer","category":"Dairy"}`, http.StatusBadRequest},
		{"blank name", `{"name":"  ","price":10,"category":"Dairy"}`, http.StatusBadRequest},
		{"negative stock", `{"name":"Paneer","price":10,"category":"Dairy","stock":-1}`, http.StatusBadRequest},
		{"bad image", `{"name":"Paneer","price":10,"category":"Dairy","image":"not a url"}`, http.StatusBadRequest},
		{"vendor from body", `{"vendorId":"v2","name":"Paneer","price":10,"category":"Dairy"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		svc := &stubVendorCatalog{}
		req := newAuthedRequest(http.MethodPost, "/api/v1/vendor/products", strings.NewReader(tt.body), "v1", "vendor")
		resp := httptest.NewRecorder()
		VendorProductCreate(svc, nil).ServeHTTP(resp, req)
		if resp.Code != tt.want {
			t.Fatalf("%s: expected %d got %d: %s", tt.name, tt.want, resp.Code, resp.Body.String())
		}
		if tt.want != http.StatusCreated {
			if len(svc.drafts) != 0 {
				t.Fatalf("%s: rejected body reached the service", tt.name)
			}
			continue
		}
		if len(svc.drafts) != 1 || !svc.drafts[0].Price.Equal(decimal.RequireFromString("89.5")) {
			t.Fatalf("%s: unexpected drafts %+v", tt.name, svc.drafts)
		}
		var item catalog.Item
		decodeData(t, resp, &item)
		if item.ID != "p-new" || item.VendorID != "v1" {
			t.Fatalf("%s: unexpected item %+v", tt.name, item)
		}
	}
}

func TestVendorProductListAndDelete(t *testing.T) {
	svc := &stubVendorCatalog{items: []catalog.Item{
		{Product: cart.Product{ID: "p1", Name: "Milk", VendorID: "v1"}},
		{Product: cart.Product{ID: "p2", Name: "Bread", VendorID: "v1"}},
	}}

	req := newAuthedRequest(http.MethodGet, "/api/v1/vendor/products", nil, "v1", "vendor")
	resp := httptest.NewRecorder()
	VendorProducts(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var listing struct {
		Products     []catalog.Item `json:"products"`
		ProductCount int            `json:"product_count"`
	}
	decodeData(t, resp, &listing)
	if listing.ProductCount != 2 || len(listing.Products) != 2 {
		t.Fatalf("unexpected listing %+v", listing)
	}

	req = newAuthedRequest(http.MethodDelete, "/api/v1/vendor/products/p2", nil, "v1", "vendor")
	req = withURLParams(req, map[string]string{"productId": "p2"})
	resp = httptest.NewRecorder()
	VendorProductDelete(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	req = newAuthedRequest(http.MethodDelete, "/api/v1/vendor/products/p2", nil, "v2", "vendor")
	req = withURLParams(req, map[string]string{"productId": "p2"})
	resp = httptest.NewRecorder()
	VendorProductDelete(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("other vendor: expected 404 got %d", resp.Code)
	}
	if len(svc.deleted) != 1 || svc.deleted[0] != "p2" {
		t.Fatalf("unexpected deletes %v", svc.deleted)
	}
}
