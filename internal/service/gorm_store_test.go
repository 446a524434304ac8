package service

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm/logger"

	"github.com/oatext/internal/db"
	"github.com/oatext/internal/model"
	"github.com/oatext/internal/repository"
	"github.com/oatext/internal/store"
)

// setupGormRepo 使用文件型 sqlite，多个连接会真实地竞争同一行。
func setupGormRepo(t *testing.T) *repository.Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "oatext.db")
	gdb, err := db.Open(sqlite.Open(path+"?_busy_timeout=5000&_journal_mode=WAL"), logger.Silent)
	require.NoError(t, err)
	engine := store.NewGormEngine(gdb)
	t.Cleanup(func() { engine.Close() })
	return repository.New(engine, nil)
}

func TestChangeNicknameOnStoredNilMap(t *testing.T) {
	repo := setupGormRepo(t)
	alice := seedUser(t, repo, "alice")
	ctx := context.Background()

	// 旧数据里 nicknames 可能是 null
	require.NoError(t, repo.Update(ctx, &model.Room{ID: 0, Name: "legacy", Members: []int64{alice.ID}}))

	svc := NewRoomService(repo)
	require.NoError(t, svc.ChangeNickname(ctx, 0, alice.ID, "al"))

	room, err := svc.Get(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"0": "al"}, room.Nicknames)
}

func TestChangeNicknameSetThenClear(t *testing.T) {
	repo := setupRepo(t)
	alice := seedUser(t, repo, "alice")
	ctx := context.Background()
	require.NoError(t, repo.Update(ctx, &model.Room{ID: 0, Members: []int64{alice.ID}}))

	svc := NewRoomService(repo)
	require.NoError(t, svc.ChangeNickname(ctx, 0, alice.ID, "al"))
	require.NoError(t, svc.ChangeNickname(ctx, 0, alice.ID, ""))

	room, err := svc.Get(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, room.Nicknames)
}

func TestGormAddCommentConcurrentSiblings(t *testing.T) {
	repo := setupGormRepo(t)
	author := seedUser(t, repo, "author")
	article := seedArticle(t, repo, author.ID, "A")
	svc := newCommentService(repo)
	ctx := context.Background()

	// 每次失败都意味着另一个写者已提交，写者数小于重试上限时必然全部成功
	const writers = 8
	indices := make([]int64, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			comment, err := svc.AddComment(ctx, article.ID, model.Path{article.ID}, author.ID, "hi")
			if assert.NoError(t, err) {
				indices[i] = comment.Path[1]
			}
		}(i)
	}
	wg.Wait()

	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	for i, idx := range indices {
		assert.Equal(t, int64(i), idx)
	}
	stored, err := repo.Article(ctx, article.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Comments, writers)
}

func TestGormAppendSessionConcurrent(t *testing.T) {
	repo := setupGormRepo(t)
	user := seedUser(t, repo, "alice")
	sessions := NewSessionService(repo)
	ctx := context.Background()

	const writers = 8
	ids := make([]int64, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := sessions.AppendSession(ctx, user.ID)
			if assert.NoError(t, err) {
				ids[i] = id
			}
		}(i)
	}
	wg.Wait()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		assert.Equal(t, int64(i), id)
	}
	stored, err := repo.User(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, stored.ActiveSessions, writers)
	assert.Equal(t, int64(writers-1), stored.LastSessionID)
}
