package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modemneko/HakusAI/core"
)

func item(content string, memType core.MemoryType, step int) core.MemoryItem {
	return core.MemoryItem{
		Content:   content,
		Type:      memType,
		Timestamp: time.Now(),
		Step:      step,
	}
}

func TestInMemoryStore_InsertAndSearch(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	err := store.Insert(ctx, "u1", []core.MemoryItem{
		item("个人信息: 姓名=小明", core.MemoryTypePersonalInfo, 1),
		item("偏好: 喜欢蓝色", core.MemoryTypePreference, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len("u1"))

	results, err := store.Search(ctx, "u1", "喜欢蓝色", 5, nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "偏好: 喜欢蓝色", results[0].Item.Content)
	assert.Equal(t, 1.0, results[0].Score)
}

func TestInMemoryStore_SessionsAreIsolated(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, "u1", []core.MemoryItem{item("偏好: 喜欢蓝色", core.MemoryTypePreference, 1)}))

	results, err := store.Search(ctx, "u2", "蓝色", 5, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, store.Len("u2"))
}

func TestInMemoryStore_EmptyQueryMatchesEverything(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, "u1", []core.MemoryItem{
		item("a", core.MemoryTypeObservation, 1),
		item("b", core.MemoryTypeObservation, 2),
		item("c", core.MemoryTypeObservation, 3),
	}))

	results, err := store.Search(ctx, "u1", "", 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	// Equal scores keep insertion order.
	assert.Equal(t, "a", results[0].Item.Content)
	assert.Equal(t, "c", results[2].Item.Content)
}

func TestInMemoryStore_KLimitsResults(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Insert(ctx, "u1", []core.MemoryItem{
			item(fmt.Sprintf("观察 %d", i), core.MemoryTypeObservation, i),
		}))
	}

	results, err := store.Search(ctx, "u1", "", 2, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestInMemoryStore_TypeFilter(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, "u1", []core.MemoryItem{
		item("个人信息: 姓名=小明", core.MemoryTypePersonalInfo, 1),
		item("观察: 经常深夜聊天", core.MemoryTypeObservation, 2),
	}))

	results, err := store.Search(ctx, "u1", "", 10, &core.SearchFilter{Type: core.MemoryTypeObservation})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, core.MemoryTypeObservation, results[0].Item.Type)
}

func TestInMemoryStore_StepGreaterThanFilter(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, "u1", []core.MemoryItem{
		item("旧观察", core.MemoryTypeObservation, 3),
		item("新观察", core.MemoryTypeObservation, 7),
	}))

	after := 3
	results, err := store.Search(ctx, "u1", "", 10, &core.SearchFilter{StepGreaterThan: &after})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "新观察", results[0].Item.Content)
}

func TestInMemoryStore_BigramSimilarityRanksCloserContentFirst(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, "u1", []core.MemoryItem{
		item("今天天气不错", core.MemoryTypeObservation, 1),
		item("偏好: 喜欢蓝色", core.MemoryTypePreference, 2),
	}))

	results, err := store.Search(ctx, "u1", "北京天气", 10, nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "今天天气不错", results[0].Item.Content)
}

func TestInMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.Insert(ctx, "u1", []core.MemoryItem{
				item(fmt.Sprintf("观察 %d", i), core.MemoryTypeObservation, i),
			})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = store.Search(ctx, "u1", "观察", 5, nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, 8, store.Len("u1"))
}
