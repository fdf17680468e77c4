// Package search provides a core.WebSearcher backed by the Google Custom
// Search JSON API. The orchestrator core only sees the query/result
// contract; HTTP details, credentials and result capping live here.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/modemneko/HakusAI/core"
)

const defaultEndpoint = "https://www.googleapis.com/customsearch/v1"

// Options configures the Google searcher.
type Options struct {
	// Endpoint overrides the API base URL (useful for tests).
	Endpoint string

	// HTTPClient overrides the default client.
	HTTPClient *http.Client

	// NumResults caps how many items are requested. The contract allows at
	// most a few; defaults to 3.
	NumResults int
}

// GoogleSearcher implements core.WebSearcher over the Custom Search API.
type GoogleSearcher struct {
	apiKey   string
	cseID    string
	endpoint string
	client   *http.Client
	num      int
}

var _ core.WebSearcher = (*GoogleSearcher)(nil)

// NewGoogleSearcher constructs a searcher from an API key and a custom
// search engine id.
func NewGoogleSearcher(apiKey, cseID string, optFns ...func(o *Options)) *GoogleSearcher {
	opts := Options{
		Endpoint:   defaultEndpoint,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		NumResults: 3,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &GoogleSearcher{
		apiKey:   apiKey,
		cseID:    cseID,
		endpoint: opts.Endpoint,
		client:   opts.HTTPClient,
		num:      opts.NumResults,
	}
}

// searchResponse is the subset of the API reply we consume.
type searchResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"items"`
}

// Lookup implements core.WebSearcher.
func (g *GoogleSearcher) Lookup(ctx context.Context, query string) ([]core.SearchResult, error) {
	q := url.Values{}
	q.Set("key", g.apiKey)
	q.Set("cx", g.cseID)
	q.Set("q", query)
	q.Set("num", fmt.Sprintf("%d", g.num))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request failed: status %d", resp.StatusCode)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]core.SearchResult, 0, len(decoded.Items))
	for _, item := range decoded.Items {
		results = append(results, core.SearchResult{
			Title:   item.Title,
			Snippet: item.Snippet,
			Link:    item.Link,
		})
	}
	return results, nil
}
