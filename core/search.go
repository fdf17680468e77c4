package core

import "context"

// SearchResult is one ranked hit returned by the external search contract.
type SearchResult struct {
	Title   string
	Snippet string
	Link    string
}

// WebSearcher is the external search lookup contract (query in, up to a few
// ranked results out). Network behavior, timeouts and retries belong to the
// implementation.
type WebSearcher interface {
	Lookup(ctx context.Context, query string) ([]SearchResult, error)
}

// Describer turns attached image bytes into a short textual description used
// to annotate the captured query. Optional collaborator; turns without it
// skip annotation.
type Describer interface {
	Describe(ctx context.Context, images [][]byte) (string, error)
}
