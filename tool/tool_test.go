package tool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modemneko/HakusAI/core"
	"github.com/modemneko/HakusAI/logging"
)

type staticTool struct {
	name, desc, out string
	err             error
}

func (t staticTool) Name() string        { return t.name }
func (t staticTool) Description() string { return t.desc }

func (t staticTool) Call(_ *core.ToolContext, _ string) (string, error) {
	return t.out, t.err
}

func newToolCtx(state *core.SessionState) *core.ToolContext {
	return core.NewToolContext(context.Background(), state, logging.NoOpLogger{})
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry(
		staticTool{name: "search", desc: "查点东西"},
		staticTool{name: "echo", desc: "照搬输入"},
	)

	assert.True(t, r.Has("search"))
	assert.False(t, r.Has("calculator"))

	got, ok := r.Get("echo")
	require.True(t, ok)
	assert.Equal(t, "echo", got.Name())
}

func TestRegistry_CatalogPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry(
		staticTool{name: "search", desc: "查点东西"},
		staticTool{name: "echo", desc: "照搬输入"},
	)

	assert.Equal(t, []string{"search", "echo"}, r.Names())
	assert.Equal(t, "search: 查点东西\necho: 照搬输入", r.Catalog())
}

func TestRegistry_RegisterReplacesSameName(t *testing.T) {
	r := NewRegistry(staticTool{name: "echo", desc: "旧的"})
	r.Register(staticTool{name: "echo", desc: "新的"})

	assert.Equal(t, []string{"echo"}, r.Names())
	assert.Equal(t, "echo: 新的", r.Catalog())
}

func TestRegistry_InvokeUnknownTool(t *testing.T) {
	r := NewRegistry()

	_, err := r.Invoke(newToolCtx(nil), "calculator", "1+1")
	require.Error(t, err)

	var unknown *UnknownToolError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "calculator", unknown.Name)
}

func TestRegistry_InvokePropagatesToolError(t *testing.T) {
	r := NewRegistry(staticTool{name: "flaky", err: NewToolError("flaky", "boom", "E_IO")})

	_, err := r.Invoke(newToolCtx(nil), "flaky", "")
	require.Error(t, err)

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "flaky", toolErr.Tool)
	assert.Equal(t, "E_IO", toolErr.Code)
}

// countingSearcher records how often the backend is actually hit.
type countingSearcher struct {
	calls   int
	results []core.SearchResult
	err     error
}

func (s *countingSearcher) Lookup(_ context.Context, _ string) ([]core.SearchResult, error) {
	s.calls++
	return s.results, s.err
}

func TestSearchTool_CacheHitSkipsBackend(t *testing.T) {
	searcher := &countingSearcher{results: []core.SearchResult{
		{Title: "北京天气", Snippet: "晴，23度", Link: "https://example.com/weather"},
	}}
	st := NewSearchTool(searcher)

	state := core.NewSessionState("u1")
	state.BeginTurn("天气", time.Now())
	toolCtx := newToolCtx(state)

	first, err := st.Call(toolCtx, "北京天气")
	require.NoError(t, err)
	second, err := st.Call(toolCtx, "北京天气")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, searcher.calls, "second call must be served from the session cache")

	// A different query string is a different cache key.
	_, err = st.Call(toolCtx, "上海天气")
	require.NoError(t, err)
	assert.Equal(t, 2, searcher.calls)
}

func TestSearchTool_FormatsResults(t *testing.T) {
	searcher := &countingSearcher{results: []core.SearchResult{
		{Title: "北京天气", Snippet: "晴，23度", Link: "https://example.com/weather"},
		{Snippet: "少云"},
	}}
	st := NewSearchTool(searcher)

	out, err := st.Call(newToolCtx(nil), "北京天气")
	require.NoError(t, err)
	assert.Equal(t,
		"Title: 北京天气\nSnippet: 晴，23度\nLink: https://example.com/weather\n---\n"+
			"Title: N/A\nSnippet: 少云\nLink: N/A\n---",
		out)
}

func TestSearchTool_TruncatesToTopResults(t *testing.T) {
	searcher := &countingSearcher{results: []core.SearchResult{
		{Title: "r1"}, {Title: "r2"}, {Title: "r3"}, {Title: "r4"},
	}}
	st := NewSearchTool(searcher)

	out, err := st.Call(newToolCtx(nil), "q")
	require.NoError(t, err)
	assert.Contains(t, out, "Title: r3")
	assert.NotContains(t, out, "Title: r4")
}

func TestSearchTool_LookupFailureIsUserSafe(t *testing.T) {
	searcher := &countingSearcher{err: errors.New("connection refused")}
	st := NewSearchTool(searcher)

	state := core.NewSessionState("u1")
	out, err := st.Call(newToolCtx(state), "北京天气")
	require.NoError(t, err, "lookup failures degrade to an observation, never an error")
	assert.Contains(t, out, "哎呀，搜索出错了")

	// Failures are not cached: the next call retries the backend.
	_, _ = st.Call(newToolCtx(state), "北京天气")
	assert.Equal(t, 2, searcher.calls)
}

func TestSearchTool_EmptyResultsNotCached(t *testing.T) {
	searcher := &countingSearcher{}
	st := NewSearchTool(searcher)

	state := core.NewSessionState("u1")
	toolCtx := newToolCtx(state)

	out, err := st.Call(toolCtx, "不存在的东西")
	require.NoError(t, err)
	assert.Equal(t, "搜索没有返回结果。", out)

	_, _ = st.Call(toolCtx, "不存在的东西")
	assert.Equal(t, 2, searcher.calls)
}
