// internal/scraper/api.go
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pagesift/pagesift/internal/config"
)

// URLPlaceholder in an endpoint parameter value is replaced with the page
// URL currently being scraped.
const URLPlaceholder = "{url}"

// APIFetcher tries configured API endpoints, in order, as a direct-fetch
// alternative to rendering. The first endpoint answering with a JSON object
// wins; that object becomes the record data directly.
type APIFetcher struct {
	endpoints []config.APIEndpoint
	client    *http.Client
}

// NewAPIFetcher creates a fetcher over the configured endpoints. Returns
// nil when no endpoints are configured.
func NewAPIFetcher(endpoints []config.APIEndpoint, timeout time.Duration) *APIFetcher {
	if len(endpoints) == 0 {
		return nil
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &APIFetcher{
		endpoints: endpoints,
		client:    &http.Client{Timeout: timeout},
	}
}

// FetchData queries the endpoints in order and returns the first JSON
// object received.
func (a *APIFetcher) FetchData(ctx context.Context, pageURL string) (map[string]interface{}, error) {
	var lastErr error

	for _, ep := range a.endpoints {
		data, err := a.fetchEndpoint(ctx, ep, pageURL)
		if err != nil {
			lastErr = err
			continue
		}
		return data, nil
	}

	return nil, fmt.Errorf("all API endpoints failed: %w", lastErr)
}

func (a *APIFetcher) fetchEndpoint(ctx context.Context, ep config.APIEndpoint, pageURL string) (map[string]interface{}, error) {
	method := strings.ToUpper(ep.Method)
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, ep.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create API request: %w", err)
	}

	query := url.Values{}
	for key, value := range ep.Params {
		if value == URLPlaceholder {
			value = pageURL
		}
		query.Set(key, value)
	}
	req.URL.RawQuery = query.Encode()

	req.Header.Set("Accept", "application/json")
	for key, value := range ep.Headers {
		req.Header.Set(key, value)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error: %d %s", resp.StatusCode, resp.Status)
	}

	var data map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode API response: %w", err)
	}
	return data, nil
}
