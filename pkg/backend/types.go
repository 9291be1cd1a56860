package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry as served by GET /products/{vendorId}.
type Product struct {
	ID       string          `json:"_id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	VendorID Ref             `json:"vendorId"`
	Image    string          `json:"image,omitempty"`
	Category string          `json:"category,omitempty"`
	Stock    int             `json:"stock,omitempty"`
	Discount decimal.Decimal `json:"discount"`
}

// ProductRef is the product snapshot embedded in an order line. The backend
// sends either a bare id string or a populated object.
type ProductRef struct {
	ID       string          `json:"_id"`
	Name     string          `json:"name,omitempty"`
	Price    decimal.Decimal `json:"price"`
	VendorID Ref             `json:"vendorId,omitempty"`
}

func (p *ProductRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &p.ID)
	}
	type plain ProductRef
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode product ref: %w", err)
	}
	*p = ProductRef(v)
	return nil
}

// OrderLine is one product line of a backend order.
type OrderLine struct {
	Product  ProductRef `json:"productId"`
	Quantity int        `json:"quantity"`
}

// Ref is an id that may arrive populated ({"_id": ...}) or bare.
type Ref string

func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Ref(s)
		return nil
	}
	var obj struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode ref: %w", err)
	}
	*r = Ref(obj.ID)
	return nil
}

// Order is an order document owned by the backend.
type Order struct {
	ID         string          `json:"_id"`
	ConsumerID Ref             `json:"consumerId"`
	VendorID   Ref             `json:"vendorId"`
	Address    string          `json:"address"`
	Products   []OrderLine     `json:"products"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// CreateOrderRequest is the body of POST /orders.
type CreateOrderRequest struct {
	ConsumerID string            `json:"consumerId"`
	VendorID   string            `json:"vendorId"`
	Address    string            `json:"address"`
	Status     string            `json:"status"`
	Products   []CreateOrderLine `json:"products"`
	TotalPrice json.Number       `json:"totalPrice"`
}

type CreateOrderLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CreateProductRequest is the body of POST /products.
type CreateProductRequest struct {
	VendorID string      `json:"vendorId"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Category string      `json:"category"`
	Stock    int         `json:"stock"`
	Discount json.Number `json:"discount,omitempty"`
	Image    string      `json:"image,omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// unwrapData accepts both {"data": X} and a bare X.
func unwrapData(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return trimmed
	}
	if data, ok := envelope["data"]; ok && len(data) > 0 && !bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return data
	}
	return trimmed
}
