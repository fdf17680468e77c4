package tool

import (
	"fmt"
	"strings"
	"time"

	"github.com/modemneko/HakusAI/core"
)

// maxSearchResults caps how many ranked hits are rendered into the
// observation block.
const maxSearchResults = 3

// SearchTool wraps the external web-search contract behind the Tool
// interface with a per-session result cache.
//
// Cache semantics are correctness-relevant, not just an optimization: a
// repeated query within one session replays the identical observation
// without touching the network, so the reasoning loop sees idempotent
// results. The cache is keyed by the exact input string, unbounded, and
// never evicted.
//
// Failures never surface as errors. A failed lookup yields a user-safe
// error string the reasoning service can react to as an observation.
type SearchTool struct {
	searcher core.WebSearcher
}

var _ Tool = (*SearchTool)(nil)

// NewSearchTool constructs the bundled search tool around a searcher.
func NewSearchTool(searcher core.WebSearcher) *SearchTool {
	return &SearchTool{searcher: searcher}
}

// Name implements Tool.
func (t *SearchTool) Name() string { return "search" }

// Description implements Tool.
func (t *SearchTool) Description() string {
	return "使用网络搜索获取实时信息。输入应为清晰的搜索查询。"
}

// Call implements Tool.
func (t *SearchTool) Call(toolCtx *core.ToolContext, input string) (string, error) {
	logger := toolCtx.Logger()
	session := toolCtx.Session()

	if session != nil {
		if cached, ok := session.CachedSearch(input); ok {
			logger.Info("tool.search.cache_hit", "uid", session.UID, "query", input)
			return cached, nil
		}
	}

	start := time.Now()
	results, err := t.searcher.Lookup(toolCtx.Context(), input)
	if err != nil {
		logger.Error("tool.search.lookup_failed", "query", input, "error", err.Error())
		return fmt.Sprintf("哎呀，搜索出错了: %v", err), nil
	}
	logger.Info("tool.search.lookup", "query", input, "results", len(results), "duration_ms", time.Since(start).Milliseconds())

	if len(results) == 0 {
		return "搜索没有返回结果。", nil
	}
	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}

	formatted := formatResults(results)
	if session != nil {
		session.CacheSearch(input, formatted)
	}
	return formatted, nil
}

// formatResults renders ranked hits into the fixed textual observation block.
func formatResults(results []core.SearchResult) string {
	blocks := make([]string, 0, len(results))
	for _, res := range results {
		blocks = append(blocks, fmt.Sprintf("Title: %s\nSnippet: %s\nLink: %s\n---",
			orNA(res.Title), orNA(res.Snippet), orNA(res.Link)))
	}
	return strings.Join(blocks, "\n")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
