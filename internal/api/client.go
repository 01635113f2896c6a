package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
	_ "time/tzdata" // board times are rendered in Europe/Zurich on any host
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/perron-board/perron/internal/models"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "perron"
)

// Cache stores raw lookup responses keyed by request URL
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
}

// Client is the API client for transport.opendata.ch
type Client struct {
	httpClient *http.Client
	baseURL    string
	timezone   *time.Location
	cache      Cache
	userAgent  string
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCache enables caching of station lookups. Departure boards are never cached.
func WithCache(cache Cache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithBaseURL points the client at another deployment of the API
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithUserAgent sets the User-Agent header sent with every request
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a new API client
func NewClient(opts ...ClientOption) (*Client, error) {
	tz, err := time.LoadLocation("Europe/Zurich")
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    BaseURL,
		timezone:   tz,
		userAgent:  defaultUserAgent,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Timezone returns the client's timezone
func (c *Client) Timezone() *time.Location {
	return c.timezone
}

// SearchStations looks up stations by free text. Every failure wraps
// ErrLookupFailed.
func (c *Client) SearchStations(ctx context.Context, query string) ([]models.Candidate, error) {
	body, err := c.SearchStationsRaw(ctx, query)
	if err != nil {
		return nil, err
	}

	var resp models.LocationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrLookupFailed, ErrMalformedResponse, err)
	}

	candidates := make([]models.Candidate, 0, len(resp.Stations))
	for _, entry := range resp.Stations {
		if cand, ok := entry.ToCandidate(); ok {
			candidates = append(candidates, cand)
		}
	}

	return candidates, nil
}

// SearchStationsRaw looks up stations and returns raw JSON
func (c *Client) SearchStationsRaw(ctx context.Context, query string) (json.RawMessage, error) {
	if utf8.RuneCountInString(query) < MinQueryLength {
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed,
			NewValidationError("query", fmt.Sprintf("must be at least %d characters", MinQueryLength), ErrQueryTooShort))
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("type", "station")

	reqURL := c.baseURL + EndpointLocations + "?" + params.Encode()

	body, err := c.doRequest(ctx, reqURL, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	return body, nil
}

// GetStationboard fetches the next departures for a station, in the order
// the service returns them. Every failure wraps ErrDeparturesFetchFailed.
func (c *Client) GetStationboard(ctx context.Context, stationID string, limit int) ([]models.Departure, error) {
	body, err := c.GetStationboardRaw(ctx, stationID, limit)
	if err != nil {
		return nil, err
	}

	var resp models.StationboardResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrDeparturesFetchFailed, ErrMalformedResponse, err)
	}

	departures := make([]models.Departure, 0, len(resp.Stationboard))
	for _, entry := range resp.Stationboard {
		departures = append(departures, *entry.ToDeparture(c.timezone))
	}

	return departures, nil
}

// GetStationboardRaw fetches a departure board and returns raw JSON
func (c *Client) GetStationboardRaw(ctx context.Context, stationID string, limit int) (json.RawMessage, error) {
	if stationID == "" {
		return nil, fmt.Errorf("%w: %w", ErrDeparturesFetchFailed,
			NewValidationError("id", "field is required", ErrInvalidRequest))
	}
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{}
	params.Set("id", stationID)
	params.Set("limit", strconv.Itoa(limit))

	reqURL := c.baseURL + EndpointStationboard + "?" + params.Encode()

	body, err := c.doRequest(ctx, reqURL, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeparturesFetchFailed, err)
	}
	return body, nil
}

// doRequest performs an HTTP GET request, consulting the cache when allowed
func (c *Client) doRequest(ctx context.Context, reqURL string, cacheable bool) ([]byte, error) {
	useCache := cacheable && c.cache != nil
	if useCache {
		if data, ok := c.cache.Get(reqURL); ok {
			return data, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, NewAPIError(resp.StatusCode, resp.Status, extractEndpoint(reqURL))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// Only well-formed bodies are worth replaying
	if useCache && json.Valid(body) {
		_ = c.cache.Set(reqURL, body)
	}

	return body, nil
}

// extractEndpoint extracts the endpoint path from a full URL
func extractEndpoint(fullURL string) string {
	u, err := url.Parse(fullURL)
	if err != nil {
		return fullURL
	}
	return u.Path
}
