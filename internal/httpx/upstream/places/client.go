// Package places provides the client for the local-search data provider
// used for ranking lookups and business profile reads.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultBaseURL = "https://api.datalayer-serp.com"
	defaultTimeout = 30 * time.Second
	defaultDepth   = 20 // listings requested per lookup
)

// Client is a local-search API client
type Client struct {
	baseURL    string
	apiKey     string
	depth      int
	httpClient *http.Client
}

// ClientOption is a function that configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithAPIKey sets the API key sent with every request
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithDepth sets how many listings each lookup requests
func WithDepth(depth int) ClientOption {
	return func(c *Client) {
		if depth > 0 {
			c.depth = depth
		}
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a new local-search API client
func New(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		depth:   defaultDepth,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an error from the local-search API
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Code       string `json:"code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("places API error: %s (status: %d, code: %s)", e.Message, e.StatusCode, e.Code)
}

// Temporary reports whether the request may succeed if retried.
// Rate limits and server-side failures are retryable; other 4xx are not.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Listing is one ranked business in a lookup response
type Listing struct {
	Name        string   `json:"name"`
	PlaceID     string   `json:"place_id"`
	Rank        int      `json:"rank"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`
}

// LookupRankInput represents input for a ranking lookup
type LookupRankInput struct {
	Keyword       string
	Lat           float64
	Lng           float64
	TargetPlaceID string
}

// LookupRankOutput represents output from a ranking lookup
type LookupRankOutput struct {
	TargetRank *int      `json:"target_rank,omitempty"`
	Listings   []Listing `json:"listings"`
}

// LookupRank fetches the ordered local results for a keyword as seen from
// the given coordinate, and the target business's 1-based position if it
// appears in the returned listings.
func (c *Client) LookupRank(ctx context.Context, in LookupRankInput) (*LookupRankOutput, error) {
	endpoint := fmt.Sprintf("%s/v1/local/search", c.baseURL)

	params := url.Values{}
	params.Set("keyword", in.Keyword)
	params.Set("lat", strconv.FormatFloat(in.Lat, 'f', 6, 64))
	params.Set("lng", strconv.FormatFloat(in.Lng, 'f', 6, 64))
	params.Set("depth", strconv.Itoa(c.depth))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var out LookupRankOutput
	if err := c.do(req, &out); err != nil {
		return nil, err
	}

	// The provider does not know our target; resolve its rank locally.
	if in.TargetPlaceID != "" {
		for _, l := range out.Listings {
			if l.PlaceID == in.TargetPlaceID {
				rank := l.Rank
				out.TargetRank = &rank
				break
			}
		}
	}

	return &out, nil
}

// BusinessProfile represents the provider's view of a single business
type BusinessProfile struct {
	PlaceID     string   `json:"place_id"`
	Name        string   `json:"name"`
	Address     string   `json:"address,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Website     string   `json:"website,omitempty"`
	Category    string   `json:"category,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`
}

// GetBusinessProfile retrieves the current profile data for a business.
// Used by the post-scan refresh to keep the target's listing data fresh.
func (c *Client) GetBusinessProfile(ctx context.Context, placeID string) (*BusinessProfile, error) {
	endpoint := fmt.Sprintf("%s/v1/local/place/%s", c.baseURL, url.PathEscape(placeID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var out BusinessProfile
	if err := c.do(req, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// do executes an HTTP request and decodes the response
func (c *Client) do(req *http.Request, out interface{}) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(body, apiErr); err != nil {
			apiErr.Message = string(body)
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
