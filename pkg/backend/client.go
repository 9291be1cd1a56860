package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gocart/storefront/pkg/config"
	pkgerrors "github.com/gocart/storefront/pkg/errors"
	"github.com/gocart/storefront/pkg/logger"
	"github.com/gocart/storefront/pkg/metrics"
)

const (
	defaultTimeout       = 10 * time.Second
	responseBodyLimit    = 4 << 20
	errorBodyExcerptSize = 512
)

var errBaseURLRequired = errors.New("order backend base url is required")

// Client speaks the remote order backend's REST contract.
type Client struct {
	httpClient *http.Client
	baseURL    string
	breaker    *gobreaker.CircuitBreaker[*rawResponse]
	metrics    *metrics.Storefront
	logg       *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the instrumented default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMetrics records per-call latency.
func WithMetrics(m *metrics.Storefront) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger reports backend answers the client had to tolerate.
func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		c.logg = logg
	}
}

// WithBreaker replaces the circuit breaker settings.
func WithBreaker(settings gobreaker.Settings) Option {
	return func(c *Client) {
		c.breaker = newBreaker(settings)
	}
}

// NewClient builds the backend client from configuration.
func NewClient(cfg config.BackendConfig, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse backend base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: newBreaker(BreakerSettings(cfg)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// BreakerSettings derives circuit breaker settings from configuration. The
// breaker trips after consecutive transport failures or 5xx answers.
func BreakerSettings(cfg config.BackendConfig) gobreaker.Settings {
	threshold := cfg.BreakerFailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	return gobreaker.Settings{
		Name:        "order-backend",
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	}
}

func newBreaker(settings gobreaker.Settings) *gobreaker.CircuitBreaker[*rawResponse] {
	return gobreaker.NewCircuitBreaker[*rawResponse](settings)
}

// CreateOrder submits a new order. Exactly one HTTP request is issued. Any
// 2xx answer means the order exists; a body that does not decode yields a
// sparse Order the caller completes from its request.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	resp, err := c.do(ctx, "create_order", http.MethodPost, "/orders", req)
	if err != nil {
		return nil, err
	}
	order := &Order{}
	if len(bytes.TrimSpace(resp.body)) > 0 {
		if err := json.Unmarshal(unwrapData(resp.body), order); err != nil {
			order = &Order{}
			c.logg.Warn(c.logg.WithFields(ctx, map[string]any{
				"status": resp.status,
				"body":   excerpt(resp.body),
				"error":  err.Error(),
			}), "backend.create_order_body_ignored")
		}
	}
	if order.Status == "" {
		order.Status = req.Status
	}
	return order, nil
}

// UpdateOrderStatus issues PUT /orders/{id}. The returned order is nil when
// the backend answers without a body.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID, status string) (*Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	resp, err := c.do(ctx, "update_order_status", http.MethodPut, "/orders/"+url.PathEscape(orderID), updateStatusRequest{Status: status})
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(resp.body)) == 0 {
		return nil, nil
	}
	// The update is already applied; an unexpected body shape is not an error.
	var order Order
	if json.Unmarshal(unwrapData(resp.body), &order) != nil {
		return nil, nil
	}
	return &order, nil
}

// ListOrders returns the backend's bulk order feed.
func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	return c.listOrders(ctx, "list_orders", "/orders")
}

// ListVendorOrders uses the backend's query-by-vendor capability.
func (c *Client) ListVendorOrders(ctx context.Context, vendorID string) ([]Order, error) {
	if strings.TrimSpace(vendorID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	return c.listOrders(ctx, "list_vendor_orders", "/orders/vendor/"+url.PathEscape(vendorID))
}

// ListConsumerOrders returns a consumer's order history.
func (c *Client) ListConsumerOrders(ctx context.Context, consumerID string) ([]Order, error) {
	if strings.TrimSpace(consumerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "consumer id is required")
	}
	return c.listOrders(ctx, "list_consumer_orders", "/orders/consumer/"+url.PathEscape(consumerID))
}

// ListVendorProducts returns a vendor's catalog.
func (c *Client) ListVendorProducts(ctx context.Context, vendorID string) ([]Product, error) {
	if strings.TrimSpace(vendorID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	resp, err := c.do(ctx, "list_vendor_products", http.MethodGet, "/products/"+url.PathEscape(vendorID), nil)
	if err != nil {
		return nil, err
	}
	var products []Product
	if err := decodeList(resp.body, &products); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRejected, err, "decode products")
	}
	return products, nil
}

// CreateProduct issues POST /products. As with orders, a 2xx answer whose
// body does not decode yields an empty Product for the caller to complete.
func (c *Client) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	resp, err := c.do(ctx, "create_product", http.MethodPost, "/products", req)
	if err != nil {
		return nil, err
	}
	product := &Product{}
	if len(bytes.TrimSpace(resp.body)) > 0 {
		if err := json.Unmarshal(unwrapData(resp.body), product); err != nil {
			product = &Product{}
			c.logg.Warn(c.logg.WithFields(ctx, map[string]any{
				"status": resp.status,
				"body":   excerpt(resp.body),
				"error":  err.Error(),
			}), "backend.create_product_body_ignored")
		}
	}
	return product, nil
}

// DeleteProduct issues DELETE /products/{id}.
func (c *Client) DeleteProduct(ctx context.Context, productID string) error {
	if strings.TrimSpace(productID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	_, err := c.do(ctx, "delete_product", http.MethodDelete, "/products/"+url.PathEscape(productID), nil)
	return err
}

func (c *Client) listOrders(ctx context.Context, op, path string) ([]Order, error) {
	resp, err := c.do(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var orders []Order
	if err := decodeList(resp.body, &orders); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRejected, err, "decode orders")
	}
	return orders, nil
}

func decodeList(body []byte, dest any) error {
	payload := unwrapData(body)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return nil
	}
	return json.Unmarshal(payload, dest)
}

type rawResponse struct {
	status int
	body   []byte
}

// do runs one request through the breaker. Transport failures map to
// TRANSPORT_ERROR; any non-2xx answer maps to REJECTED with a *StatusError cause.
func (c *Client) do(ctx context.Context, op, method, path string, payload any) (*rawResponse, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order backend client not configured")
	}

	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode backend request")
		}
		body = encoded
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*rawResponse, error) {
		return c.roundTrip(ctx, method, path, body)
	})
	outcome := "ok"
	defer func() { c.metrics.ObserveBackend(op, outcome, time.Since(start)) }()

	if resp != nil && !isSuccess(resp.status) {
		outcome = "rejected"
		statusErr := &StatusError{Method: method, Path: path, Status: resp.status, Body: excerpt(resp.body)}
		return nil, pkgerrors.Wrap(pkgerrors.CodeRejected, statusErr, fmt.Sprintf("order service answered %d", resp.status)).
			WithDetails(map[string]any{"status": resp.status})
	}
	if err != nil {
		outcome = "transport"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeTransport, err, "order service temporarily unavailable")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransport, err, "order service unreachable")
	}
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte) (*rawResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, responseBodyLimit))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	out := &rawResponse{status: res.StatusCode, body: data}
	if res.StatusCode >= http.StatusInternalServerError {
		return out, errServerFault
	}
	return out, nil
}

var errServerFault = errors.New("order service server fault")

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > errorBodyExcerptSize {
		return s[:errorBodyExcerptSize]
	}
	return s
}
