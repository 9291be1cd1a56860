package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/gocart/storefront/pkg/backend"
	pkgerrors "github.com/gocart/storefront/pkg/errors"
)

type stubLister struct {
	products []backend.Product
	calls    int
}

func (s *stubLister) ListVendorProducts(context.Context, string) ([]backend.Product, error) {
	s.calls++
	return s.products, nil
}

func fixture() *stubLister {
	return &stubLister{products: []backend.Product{
		{ID: "p1", Name: "Amul Milk", Price: decimal.NewFromInt(30), Category: "Dairy", Stock: 5},
		{ID: "p2", Name: "Brown Bread", Price: decimal.NewFromInt(45), Category: "Bakery", VendorID: "v1"},
		{ID: "p3", Name: "Milk Bread", Price: decimal.RequireFromString("40.5"), Category: "Bakery", Discount: decimal.NewFromInt(10)},
	}}
}

func TestListFilters(t *testing.T) {
	t.Parallel()

	svc, err := NewService(fixture())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	cases := []struct {
		name  string
		query Query
		want  []string
	}{
		{"all", Query{VendorID: "v1"}, []string{"p1", "p2", "p3"}},
		{"search is case insensitive", Query{VendorID: "v1", Search: "MILK"}, []string{"p1", "p3"}},
		{"category", Query{VendorID: "v1", Category: "Bakery"}, []string{"p2", "p3"}},
		{"all category", Query{VendorID: "v1", Category: "all"}, []string{"p1", "p2", "p3"}},
		{"both", Query{VendorID: "v1", Search: "milk", Category: "Bakery"}, []string{"p3"}},
		{"none", Query{VendorID: "v1", Search: "cheese"}, []string{}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			listing, err := svc.List(context.Background(), tc.query)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(listing.Products) != len(tc.want) {
				t.Fatalf("expected %v, got %+v", tc.want, listing.Products)
			}
			for i, id := range tc.want {
				if listing.Products[i].ID != id {
					t.Fatalf("position %d: expected %s, got %s", i, id, listing.Products[i].ID)
				}
			}
			if len(listing.Categories) != 3 || listing.Categories[0] != AllCategories || listing.Categories[1] != "Dairy" {
				t.Fatalf("unexpected categories %v", listing.Categories)
			}
		})
	}
}

func TestResolveUsesBackendPrice(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(fixture())
	product, err := svc.Resolve(context.Background(), "v1", "p3")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !product.UnitPrice.Equal(decimal.RequireFromString("40.5")) || product.VendorID != "v1" {
		t.Fatalf("unexpected product %+v", product)
	}

	if _, err := svc.Resolve(context.Background(), "v1", "p404"); pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Resolve(context.Background(), "", "p1"); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

type stubCatalogBackend struct {
	stubLister
	created []backend.CreateProductRequest
	deleted []string
	resp    *backend.Product
	delErr  error
}

func (s *stubCatalogBackend) CreateProduct(_ context.Context, req backend.CreateProductRequest) (*backend.Product, error) {
	s.created = append(s.created, req)
	if s.resp != nil {
		return s.resp, nil
	}
	return &backend.Product{}, nil
}

func (s *stubCatalogBackend) DeleteProduct(_ context.Context, productID string) error {
	s.deleted = append(s.deleted, productID)
	return s.delErr
}

func newWritableService(t *testing.T) (*Service, *stubCatalogBackend) {
	t.Helper()
	stub := &stubCatalogBackend{stubLister: *fixture()}
	svc, err := NewService(stub)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, stub
}

func TestCreateProductFillsSparseAnswer(t *testing.T) {
	t.Parallel()

	svc, stub := newWritableService(t)
	item, err := svc.CreateProduct(context.Background(), " v1 ", Draft{
		Name:     " Paneer ",
		Price:    decimal.RequireFromString("89.5"),
		Category: "Dairy",
		Stock:    4,
		Discount: decimal.NewFromInt(5),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(stub.created) != 1 {
		t.Fatalf("expected one backend call, got %d", len(stub.created))
	}
	req := stub.created[0]
	if req.VendorID != "v1" || req.Name != "Paneer" || req.Price.String() != "89.5" || req.Discount.String() != "5" {
		t.Fatalf("unexpected request %+v", req)
	}
	if item.Name != "Paneer" || item.VendorID != "v1" || !item.UnitPrice.Equal(decimal.RequireFromString("89.5")) || item.Stock != 4 {
		t.Fatalf("sparse answer not completed from the draft: %+v", item)
	}
}

func TestCreateProductValidatesDraft(t *testing.T) {
	t.Parallel()

	svc, stub := newWritableService(t)
	cases := map[string]Draft{
		"blank name":       {Price: decimal.NewFromInt(1), Category: "Dairy"},
		"zero price":       {Name: "Milk", Category: "Dairy"},
		"negative stock":   {Name: "Milk", Price: decimal.NewFromInt(1), Category: "Dairy", Stock: -1},
		"discount too big": {Name: "Milk", Price: decimal.NewFromInt(1), Category: "Dairy", Discount: decimal.NewFromInt(101)},
		"blank category":   {Name: "Milk", Price: decimal.NewFromInt(1), Category: " "},
	}
	for name, draft := range cases {
		if _, err := svc.CreateProduct(context.Background(), "v1", draft); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
	if len(stub.created) != 0 {
		t.Fatalf("invalid drafts must not reach the backend")
	}
}

func TestDeleteProductChecksOwnership(t *testing.T) {
	t.Parallel()

	svc, stub := newWritableService(t)
	if err := svc.DeleteProduct(context.Background(), "v1", "p2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteProduct(context.Background(), "v1", "p-other"); pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(stub.deleted) != 1 || stub.deleted[0] != "p2" {
		t.Fatalf("unexpected deletes %v", stub.deleted)
	}

	stub.delErr = pkgerrors.Wrap(pkgerrors.CodeRejected, &backend.StatusError{Status: 404}, "order service answered 404")
	if err := svc.DeleteProduct(context.Background(), "v1", "p1"); pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected backend 404 to map to not found, got %v", err)
	}
}

func TestReadOnlyCatalogRefusesWrites(t *testing.T) {
	t.Parallel()

	svc, err := NewService(fixture())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := svc.CreateProduct(context.Background(), "v1", Draft{}); pkgerrors.CodeOf(err) != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if err := svc.DeleteProduct(context.Background(), "v1", "p1"); pkgerrors.CodeOf(err) != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
