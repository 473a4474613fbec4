package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/pricelens/backend/internal/domain"
)

// Client talks to the remote search aggregator exposing the per-store
// search APIs behind one endpoint. It performs no retries of its own:
// retry discipline lives in the batch orchestrator, the client just fails
// fast with a typed error.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new aggregator API client. requestsPerHour bounds
// outgoing calls; individual requests are cut off after 30 seconds so a
// hung provider cannot stall a batch indefinitely.
func NewClient(apiKey, baseURL string, requestsPerHour int) *Client {
	if requestsPerHour <= 0 {
		requestsPerHour = 1000
	}
	limiter := rate.NewLimiter(rate.Limit(float64(requestsPerHour)/3600.0), 10)

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: limiter,
	}
}

// SetDebug toggles request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// Search looks up product listings for a text query across all stores.
func (c *Client) Search(ctx context.Context, query string) (*domain.SearchResult, error) {
	params := url.Values{}
	params.Add("query", query)

	var resp searchResponse
	if err := c.get(ctx, "/v1/products/search", params, &resp); err != nil {
		return nil, err
	}

	return &domain.SearchResult{
		Query:   resp.Query,
		Records: mapRecords(resp.Items),
	}, nil
}

// Compare fetches listings for both sides of a product comparison.
func (c *Client) Compare(ctx context.Context, a, b string) (*domain.ComparisonResult, error) {
	params := url.Values{}
	params.Add("a", a)
	params.Add("b", b)

	var resp compareResponse
	if err := c.get(ctx, "/v1/products/compare", params, &resp); err != nil {
		return nil, err
	}

	return &domain.ComparisonResult{
		A: domain.SearchResult{Query: resp.A.Query, Records: mapRecords(resp.A.Items)},
		B: domain.SearchResult{Query: resp.B.Query, Records: mapRecords(resp.B.Items)},
	}, nil
}

// SearchByImage looks up listings similar to an image, referenced by URL
// or upload handle.
func (c *Client) SearchByImage(ctx context.Context, image string) (*domain.ImageSearchResult, error) {
	body, err := json.Marshal(map[string]string{"image": image})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	var resp imageResponse
	if err := c.post(ctx, "/v1/products/search-by-image", body, &resp); err != nil {
		return nil, err
	}

	return &domain.ImageSearchResult{
		Image:   resp.Image,
		Records: mapRecords(resp.Items),
	}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	params.Add("api_key", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body []byte, out interface{}) error {
	reqURL := fmt.Sprintf("%s%s?api_key=%s", c.baseURL, path, url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

// do executes the request behind the rate limiter and decodes either the
// payload or the structured error envelope.
func (c *Client) do(req *http.Request, out interface{}) error {
	if err := c.rateLimiter.Wait(req.Context()); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	req.Header.Set("User-Agent", "PriceLens/1.0")

	if c.debug {
		log.Printf("[PROVIDER] %s %s", req.Method, req.URL.Path)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		return c.errorFromResponse(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorFromResponse builds a ProviderError, pulling the message out of the
// structured error envelope when the provider sent one.
func (c *Client) errorFromResponse(statusCode int, body []byte) error {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		if c.debug {
			log.Printf("[PROVIDER] error status %d: %s", statusCode, envelope.Error.Message)
		}
		return &domain.ProviderError{
			StatusCode: statusCode,
			Message:    envelope.Error.Message,
			Err:        domain.ErrProviderFailure,
		}
	}

	if c.debug {
		log.Printf("[PROVIDER] error status %d: %s", statusCode, string(body))
	}
	return &domain.ProviderError{
		StatusCode: statusCode,
		Err:        domain.ErrProviderFailure,
	}
}
