package repository

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oatext/internal/model"
	"github.com/oatext/internal/store"
)

func newRedisAllocator(t *testing.T, engine store.Engine) (*RedisAllocator, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	ids, err := NewRedisAllocator(context.Background(), mr.Addr(), "", engine)
	require.NoError(t, err)
	t.Cleanup(func() { ids.Close() })
	return ids, mr
}

func TestRedisAllocatorEmptyKindStartsAtZero(t *testing.T) {
	ids, mr := newRedisAllocator(t, store.NewMemoryEngine())
	ctx := context.Background()

	id, err := ids.NextID(ctx, model.KindArticle)
	require.NoError(t, err)
	assert.Equal(t, int64(0), id)

	id, err = ids.NextID(ctx, model.KindArticle)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	// 不同种类互不影响
	id, err = ids.NextID(ctx, model.KindUser)
	require.NoError(t, err)
	assert.Equal(t, int64(0), id)

	counter, err := mr.Get("oatext:ids:" + string(model.KindArticle))
	require.NoError(t, err)
	assert.Equal(t, "1", counter)
}

func TestRedisAllocatorSeedsFromMaxID(t *testing.T) {
	engine := store.NewMemoryEngine()
	ctx := context.Background()
	for _, id := range []int64{0, 1, 2} {
		_, err := engine.Post(ctx, newUser(id, "user"+string(rune('a'+id))))
		require.NoError(t, err)
	}
	ids, _ := newRedisAllocator(t, engine)

	id, err := ids.NextID(ctx, model.KindUser)
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
}

func TestRedisAllocatorConcurrentFirstUse(t *testing.T) {
	engine := store.NewMemoryEngine()
	ctx := context.Background()
	_, err := engine.Post(ctx, newUser(4, "eve"))
	require.NoError(t, err)
	ids, _ := newRedisAllocator(t, engine)

	const callers = 20
	got := make([]int64, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := ids.NextID(ctx, model.KindUser)
			if assert.NoError(t, err) {
				got[i] = id
			}
		}(i)
	}
	wg.Wait()

	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	for i, id := range got {
		assert.Equal(t, int64(5+i), id)
	}
}

func TestCreateWithRedisAllocatorIsDense(t *testing.T) {
	engine := store.NewMemoryEngine()
	ids, _ := newRedisAllocator(t, engine)
	repo := New(engine, ids)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		id, err := repo.Create(ctx, newUser(0, "u"))
		require.NoError(t, err)
		assert.Equal(t, int64(i), id)
	}
	count, err := repo.Count(ctx, model.KindUser)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestCreateWithRedisAllocatorRetriesCollision(t *testing.T) {
	engine := store.NewMemoryEngine()
	ids, _ := newRedisAllocator(t, engine)
	repo := New(engine, ids)
	ctx := context.Background()

	id, err := repo.Create(ctx, newUser(0, "first"))
	require.NoError(t, err)
	require.Equal(t, int64(0), id)

	// 另一个写者绕过计数器直接占用了下一个 id
	_, err = engine.Post(ctx, newUser(1, "squatter"))
	require.NoError(t, err)

	id, err = repo.Create(ctx, newUser(0, "second"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)

	stored, err := repo.User(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "squatter", stored.Username)
	stored, err = repo.User(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "second", stored.Username)
}
