package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gocart/storefront/pkg/config"
	pkgerrors "github.com/gocart/storefront/pkg/errors"
)

const (
	defaultBaseURL              = "https://nominatim.openstreetmap.org"
	defaultUserAgent            = "gocart-storefront/1.0"
	defaultTimeout              = 5 * time.Second
	requestBodyReadLimit  int64 = 1024
	responseBodyReadLimit int64 = 1 << 20
)

var errBaseURLRequired = errors.New("geocode base url is required")

// Client resolves coordinates to a postal address via a Nominatim endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the reverse geocoding client.
func NewClient(cfg config.GeocodeConfig, opts ...Option) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &Client{
		baseURL:   strings.TrimSpace(cfg.BaseURL),
		userAgent: strings.TrimSpace(cfg.UserAgent),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	if client.userAgent == "" {
		client.userAgent = defaultUserAgent
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if _, err := url.Parse(client.baseURL); err != nil || client.baseURL == "" {
		return nil, errBaseURLRequired
	}
	return client, nil
}

// Place is the normalized reverse geocoding result.
type Place struct {
	DisplayName string  `json:"display_name"`
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
}

// Reverse returns the display address nearest to the coordinate.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*Place, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "geocode client not configured")
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range").
			WithDetails(map[string]any{"lat": lat, "lon": lon})
	}

	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	endpoint := fmt.Sprintf("%s/reverse?%s", strings.TrimRight(c.baseURL, "/"), query.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build reverse geocode request")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute reverse geocode request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "reverse geocode request failed")
	}

	var apiResp struct {
		DisplayName string `json:"display_name"`
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		Error       string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyReadLimit)).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode reverse geocode response")
	}
	// Nominatim answers 200 with {"error": "..."} for points it cannot place.
	if apiResp.Error != "" || strings.TrimSpace(apiResp.DisplayName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no address found for location")
	}

	place := &Place{DisplayName: strings.TrimSpace(apiResp.DisplayName), Latitude: lat, Longitude: lon}
	if v, err := strconv.ParseFloat(apiResp.Lat, 64); err == nil {
		place.Latitude = v
	}
	if v, err := strconv.ParseFloat(apiResp.Lon, 64); err == nil {
		place.Longitude = v
	}
	return place, nil
}
