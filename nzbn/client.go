package nzbn

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

	"go.uber.org/zap"
)

const (
	DefaultBaseURL       = "https://api.business.govt.nz/gateway/nzbn/v5"
	DefaultSearchTimeout = 5 * time.Second
	DefaultDetailTimeout = 10 * time.Second

	entitiesEndpoint   = "/entities"
	subscriptionHeader = "Ocp-Apim-Subscription-Key"
)

var (
	ErrMissingSubscriptionKey = errors.New("nzbn: subscription key is not configured")
	ErrUnauthorized           = errors.New("nzbn: subscription key rejected")
)

// StatusError reports a non-2xx response from the registry.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("nzbn: unexpected status %d %s", e.StatusCode, e.Reason())
}

// Reason is the status text without the numeric code, e.g. "Not Found".
func (e *StatusError) Reason() string {
	reason := strings.TrimSpace(strings.TrimPrefix(e.Status, strconv.Itoa(e.StatusCode)))
	if reason == "" {
		reason = http.StatusText(e.StatusCode)
	}

	return reason
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.client = httpClient
	}
}

func WithTimeouts(search, detail time.Duration) ClientOption {
	return func(c *Client) {
		if search > 0 {
			c.searchTimeout = search
		}

		if detail > 0 {
			c.detailTimeout = detail
		}
	}
}

func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client talks to the NZBN entity API. The subscription key is fixed at
// construction and never read from the environment.
type Client struct {
	baseURL         string
	subscriptionKey string
	searchTimeout   time.Duration
	detailTimeout   time.Duration
	client          *http.Client
	logger          *zap.Logger
}

func NewClient(subscriptionKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:         DefaultBaseURL,
		subscriptionKey: subscriptionKey,
		searchTimeout:   DefaultSearchTimeout,
		detailTimeout:   DefaultDetailTimeout,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				DisableKeepAlives:   false,
				MaxIdleConnsPerHost: 2,
			},
		},
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SearchEntities runs an entity search for term, asking for at most pageSize items.
func (c *Client) SearchEntities(ctx context.Context, term string, pageSize int) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("search-term", term)
	params.Set("page-size", strconv.Itoa(pageSize))

	searchURL := fmt.Sprintf("%s%s?%s", c.baseURL, entitiesEndpoint, params.Encode())

	ctx, cancel := context.WithTimeout(ctx, c.searchTimeout)
	defer cancel()

	var searchResponse SearchResponse
	if err := c.getJSON(ctx, searchURL, &searchResponse); err != nil {
		return nil, fmt.Errorf("searching entities for %q: %w", term, err)
	}

	c.logger.Debug("nzbn search",
		zap.String("term", term),
		zap.Int("page_size", pageSize),
		zap.Int("items", len(searchResponse.Items)))

	return &searchResponse, nil
}

// GetEntity fetches the full entity record, roles included.
func (c *Client) GetEntity(ctx context.Context, nzbn string) (*EntityResponse, error) {
	entityURL := fmt.Sprintf("%s%s/%s", c.baseURL, entitiesEndpoint, url.PathEscape(nzbn))

	ctx, cancel := context.WithTimeout(ctx, c.detailTimeout)
	defer cancel()

	var entity EntityResponse
	if err := c.getJSON(ctx, entityURL, &entity); err != nil {
		return nil, fmt.Errorf("fetching entity %s: %w", nzbn, err)
	}

	c.logger.Debug("nzbn entity",
		zap.String("nzbn", nzbn),
		zap.Int("roles", len(entity.Roles)))

	return &entity, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	if c.subscriptionKey == "" {
		return ErrMissingSubscriptionKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set(subscriptionHeader, c.subscriptionKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		c.logger.Warn("nzbn api error",
			zap.Int("status", resp.StatusCode),
			zap.String("url", u),
			zap.String("body", string(body)))

		return &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
