// Package yelp is a minimal client for the Yelp business search endpoint.
package yelp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.yelp.com/v3"

// Client performs Yelp business searches.
type Client interface {
	Search(ctx context.Context, q Query) (*SearchResponse, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithVersion selects the API generation. Defaults to V3.
func WithVersion(v Version) Option {
	return func(c *httpClient) {
		c.version = v
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	version Version
	http    *http.Client
}

// NewClient creates a Yelp API client. An empty key is allowed so the service
// can start, but every search will be rejected upstream.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		version: V3,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	if apiKey == "" {
		zap.L().Warn("yelp: no API key configured; set yelp.key or YELPFS_YELP_KEY")
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, q Query) (*SearchResponse, error) {
	params := q.Values()

	endpoint := c.baseURL + "/businesses/search"
	if c.version == V2 {
		endpoint = c.baseURL + "/search"
		params.Set("oauth_consumer_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "yelp: create request")
	}

	req.Header.Set("Accept", "application/json")
	if c.version != V2 {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "yelp: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "yelp: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError(resp.StatusCode, respBody)
	}

	var result SearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "yelp: unmarshal response")
	}

	return &result, nil
}
