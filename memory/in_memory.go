package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/modemneko/HakusAI/core"
)

// storedItem is the internal representation persisted by InMemoryStore.
type storedItem struct {
	id   string
	item core.MemoryItem
}

// InMemoryStore is a naive process-local core.VectorStore. Relevance is a
// character-bigram overlap between query and content (an empty query matches
// everything), which is enough for tests and demos where queries and
// memories share surface text. Swap in an embedding-backed store for real
// semantic retrieval.
//
// Concurrency: protected by RWMutex. Results are ordered by descending
// score; ties keep insertion order.
type InMemoryStore struct {
	mu    sync.RWMutex
	items map[string][]storedItem // uid -> insertion ordered
}

// NewInMemoryStore creates an empty in-memory vector store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{items: make(map[string][]storedItem)}
}

// Search implements core.VectorStore.
func (s *InMemoryStore) Search(ctx context.Context, uid, query string, k int, filter *core.SearchFilter) ([]core.ScoredItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]core.ScoredItem, 0, k)
	for _, stored := range s.items[uid] {
		if !matchesFilter(stored.item, filter) {
			continue
		}
		score := similarity(query, stored.item.Content)
		if score <= 0 {
			continue
		}
		results = append(results, core.ScoredItem{Item: stored.item, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Insert implements core.VectorStore.
func (s *InMemoryStore) Insert(ctx context.Context, uid string, items []core.MemoryItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		s.items[uid] = append(s.items[uid], storedItem{id: uuid.NewString(), item: item})
	}
	return nil
}

// Len reports how many items are stored for a uid.
func (s *InMemoryStore) Len(uid string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items[uid])
}

func matchesFilter(item core.MemoryItem, filter *core.SearchFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Type != "" && item.Type != filter.Type {
		return false
	}
	if filter.StepGreaterThan != nil && item.Step <= *filter.StepGreaterThan {
		return false
	}
	return true
}

// similarity scores content against query in [0, 1]. An empty query matches
// everything with score 1; a contained query scores 1; otherwise the share
// of the query's rune bigrams found in the content. Bigrams keep this usable
// for unsegmented CJK text where whitespace tokenization finds nothing.
func similarity(query, content string) float64 {
	query = strings.ToLower(strings.TrimSpace(query))
	content = strings.ToLower(content)
	if query == "" {
		return 1
	}
	if strings.Contains(content, query) {
		return 1
	}

	grams := bigrams(query)
	if len(grams) == 0 {
		return 0
	}
	matched := 0
	for _, g := range grams {
		if strings.Contains(content, g) {
			matched++
		}
	}
	return float64(matched) / float64(len(grams))
}

func bigrams(s string) []string {
	runes := []rune(s)
	if len(runes) < 2 {
		return []string{string(runes)}
	}
	grams := make([]string, 0, len(runes)-1)
	for i := 0; i+1 < len(runes); i++ {
		grams = append(grams, string(runes[i:i+2]))
	}
	return grams
}
