package yandex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/storm-data-geocoder/internal/domain"
	"github.com/couchcryptid/storm-data-geocoder/internal/observability"
)

// DefaultBaseURL is the Yandex Geocoder HTTP endpoint.
const DefaultBaseURL = "https://geocode-maps.yandex.ru/1.x/"

const defaultCheckTimeout = 5 * time.Second

// Client implements domain.Resolver using the Yandex Geocoder API.
type Client struct {
	apiKey     string
	baseURL    string
	lang       string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLanguage sets the response locale, e.g. "ru_RU" or "en_US".
func WithLanguage(lang string) Option {
	return func(c *Client) {
		c.lang = lang
	}
}

// NewClient creates a Yandex geocoding client. An empty apiKey omits the
// apikey parameter.
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Client {
	c := &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: DefaultBaseURL,
		logger:  logger,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchRaw returns the raw "<lon> <lat>" position of every feature member,
// in service order.
func (c *Client) FetchRaw(ctx context.Context, address string) ([]string, error) {
	params := url.Values{
		"format":  {"json"},
		"geocode": {address},
	}
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}
	if c.lang != "" {
		params.Set("lang", c.lang)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: geocode request: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: yandex API error: status %d: %s", domain.ErrTransport, resp.StatusCode, body)
	}

	var yResp envelope
	if err := json.NewDecoder(resp.Body).Decode(&yResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", domain.ErrParse, err)
	}
	if yResp.Response == nil || yResp.Response.Collection == nil {
		return nil, fmt.Errorf("%w: response has no GeoObjectCollection", domain.ErrParse)
	}

	members := yResp.Response.Collection.FeatureMember
	raw := make([]string, 0, len(members))
	for _, m := range members {
		raw = append(raw, m.GeoObject.Point.Pos)
	}
	c.logger.Debug("geocode response", "address", address, "matches", len(raw))
	return raw, nil
}

// CheckReachable reports whether the service answers a HEAD request within
// timeout. A non-positive timeout uses five seconds.
func (c *Client) CheckReachable(ctx context.Context, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("geocoding service unreachable", "error", err)
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

// Close releases idle keep-alive connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Yandex API response types.

type envelope struct {
	Response *struct {
		Collection *collection `json:"GeoObjectCollection"`
	} `json:"response"`
}

type collection struct {
	FeatureMember []featureMember `json:"featureMember"`
}

type featureMember struct {
	GeoObject struct {
		Name  string `json:"name"`
		Point struct {
			Pos string `json:"pos"` // "lon lat"
		} `json:"Point"`
	} `json:"GeoObject"`
}
