package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oatext/internal/model"
	"github.com/oatext/internal/repository"
	"github.com/oatext/internal/store"
)

var fixedNow = time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

func setupRepo(t *testing.T) *repository.Repository {
	t.Helper()
	return repository.New(store.NewMemoryEngine(), nil)
}

func seedUser(t *testing.T, repo *repository.Repository, username string) *model.User {
	t.Helper()
	user := model.NewUser(0, username, username+"@example.com", "hash", fixedNow)
	_, err := repo.Create(context.Background(), user)
	require.NoError(t, err)
	return user
}

func seedArticle(t *testing.T, repo *repository.Repository, author int64, title string) *model.Article {
	t.Helper()
	article := model.NewArticle(0, model.ArticleFields{
		Author:   author,
		Title:    title,
		Content:  "content of " + title,
		Previous: model.NoChapter,
	}, fixedNow)
	_, err := repo.Create(context.Background(), article)
	require.NoError(t, err)
	return article
}

func newCommentService(repo *repository.Repository) *CommentService {
	svc := NewCommentService(repo)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestAddCommentTopLevelPaths(t *testing.T) {
	repo := setupRepo(t)
	author := seedUser(t, repo, "author")
	article := seedArticle(t, repo, author.ID, "A")
	svc := newCommentService(repo)
	ctx := context.Background()

	first, err := svc.AddComment(ctx, article.ID, model.Path{article.ID}, author.ID, "x")
	require.NoError(t, err)
	assert.Equal(t, model.Path{article.ID, 0}, first.Path)

	second, err := svc.AddComment(ctx, article.ID, model.Path{article.ID}, author.ID, "x")
	require.NoError(t, err)
	assert.Equal(t, model.Path{article.ID, 1}, second.Path)
}

func TestAddCommentNestedReplies(t *testing.T) {
	repo := setupRepo(t)
	author := seedUser(t, repo, "author")
	article := seedArticle(t, repo, author.ID, "A")
	svc := newCommentService(repo)
	ctx := context.Background()
	a := article.ID

	_, err := svc.AddComment(ctx, a, model.Path{a}, author.ID, "top")
	require.NoError(t, err)

	reply, err := svc.AddComment(ctx, a, model.Path{a, 0}, author.ID, "y")
	require.NoError(t, err)
	assert.Equal(t, model.Path{a, 0, 0}, reply.Path)

	deeper, err := svc.AddComment(ctx, a, reply.Path, author.ID, "y")
	require.NoError(t, err)
	assert.Equal(t, model.Path{a, 0, 0, 0}, deeper.Path)
}

func TestAddCommentDerivedFlags(t *testing.T) {
	repo := setupRepo(t)
	articleAuthor := seedUser(t, repo, "writer")
	reader := seedUser(t, repo, "reader")
	other := seedUser(t, repo, "other")
	article := seedArticle(t, repo, articleAuthor.ID, "A")
	svc := newCommentService(repo)
	ctx := context.Background()
	a := article.ID

	root, err := svc.AddComment(ctx, a, model.Path{a}, reader.ID, "root")
	require.NoError(t, err)
	assert.False(t, root.IsArticleAuthor)
	assert.True(t, root.IsRootAuthor)

	byWriter, err := svc.AddComment(ctx, a, root.Path, articleAuthor.ID, "thanks")
	require.NoError(t, err)
	assert.True(t, byWriter.IsArticleAuthor)
	assert.False(t, byWriter.IsRootAuthor)

	byRootAuthor, err := svc.AddComment(ctx, a, byWriter.Path, reader.ID, "welcome")
	require.NoError(t, err)
	assert.False(t, byRootAuthor.IsArticleAuthor)
	assert.True(t, byRootAuthor.IsRootAuthor)

	byOther, err := svc.AddComment(ctx, a, root.Path, other.ID, "me too")
	require.NoError(t, err)
	assert.False(t, byOther.IsRootAuthor)
}

func TestAddCommentInvalidPath(t *testing.T) {
	repo := setupRepo(t)
	author := seedUser(t, repo, "author")
	article := seedArticle(t, repo, author.ID, "A")
	svc := newCommentService(repo)
	ctx := context.Background()
	a := article.ID

	_, err := svc.AddComment(ctx, a, model.Path{a}, author.ID, "only")
	require.NoError(t, err)

	cases := map[string]model.Path{
		"index out of range": {a, 7},
		"negative index":     {a, -1},
		"empty path":         {},
		"other article":      {a + 1},
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.AddComment(ctx, a, path, author.ID, "z")
			assert.True(t, errors.Is(err, repository.ErrInvalidPath), "got %v", err)
		})
	}

	stored, err := repo.Article(ctx, a)
	require.NoError(t, err)
	assert.Len(t, stored.Comments, 1)
}

func TestAddCommentMissingRecords(t *testing.T) {
	repo := setupRepo(t)
	author := seedUser(t, repo, "author")
	article := seedArticle(t, repo, author.ID, "A")
	svc := newCommentService(repo)
	ctx := context.Background()

	_, err := svc.AddComment(ctx, article.ID, model.Path{article.ID}, 42, "x")
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	_, err = svc.AddComment(ctx, 9, model.Path{9}, author.ID, "x")
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	_, err = svc.AddComment(ctx, article.ID, model.Path{article.ID}, author.ID, "  ")
	assert.True(t, errors.Is(err, repository.ErrValidation))
}

func TestCommentEndToEnd(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	for _, name := range []string{"zero", "one", "two"} {
		seedUser(t, repo, name)
	}
	article := seedArticle(t, repo, 0, "A")
	require.Equal(t, int64(0), article.ID)
	svc := newCommentService(repo)

	first, err := svc.AddComment(ctx, 0, model.Path{0}, 1, "first")
	require.NoError(t, err)
	assert.Equal(t, model.Path{0, 0}, first.Path)
	assert.Equal(t, "first", first.Content)
	assert.Equal(t, int64(1), first.Author)

	stored, err := repo.Article(ctx, 0)
	require.NoError(t, err)
	require.Len(t, stored.Comments, 1)

	reply, err := svc.AddComment(ctx, 0, model.Path{0, 0}, 2, "reply")
	require.NoError(t, err)
	assert.Equal(t, model.Path{0, 0, 0}, reply.Path)
	assert.False(t, reply.IsRootAuthor)

	stored, err = repo.Article(ctx, 0)
	require.NoError(t, err)
	require.Len(t, stored.Comments[0].Reply, 1)
	want := model.Comment{
		Path:     model.Path{0, 0, 0},
		Content:  "reply",
		Author:   2,
		Likes:    []int64{},
		Dislikes: []int64{},
		Time:     fixedNow,
		Reply:    []model.Comment{},
		Status:   model.StatusActive,
	}
	if diff := cmp.Diff(want, stored.Comments[0].Reply[0]); diff != "" {
		t.Fatalf("stored reply mismatch (-want +got):\n%s", diff)
	}

	_, err = svc.AddComment(ctx, 0, model.Path{0, 5}, 1, "z")
	assert.True(t, errors.Is(err, repository.ErrInvalidPath))
}

func TestAddCommentConcurrentSiblings(t *testing.T) {
	repo := setupRepo(t)
	author := seedUser(t, repo, "author")
	article := seedArticle(t, repo, author.ID, "A")
	svc := newCommentService(repo)
	ctx := context.Background()

	const writers = 25
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

func TestLocateChildListAndNextChildID(t *testing.T) {
	article := model.NewArticle(3, model.ArticleFields{Previous: model.NoChapter}, fixedNow)
	article.Comments = []model.Comment{
		{Path: model.Path{3, 0}, Reply: []model.Comment{
			{Path: model.Path{3, 0, 0}},
			{Path: model.Path{3, 0, 1}},
		}},
	}

	list, err := LocateChildList(article, nil)
	require.NoError(t, err)
	assert.Len(t, *list, 1)

	list, err = LocateChildList(article, []int64{0})
	require.NoError(t, err)
	assert.Len(t, *list, 2)

	next, err := NextChildID(article, model.Path{3, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, int64(0), next)

	_, err = LocateChildList(article, []int64{0, 2})
	assert.True(t, errors.Is(err, repository.ErrInvalidPath))
}

func TestCommentReactAndStatus(t *testing.T) {
	repo := setupRepo(t)
	author := seedUser(t, repo, "author")
	fan := seedUser(t, repo, "fan")
	article := seedArticle(t, repo, author.ID, "A")
	svc := newCommentService(repo)
	ctx := context.Background()

	comment, err := svc.AddComment(ctx, article.ID, model.Path{article.ID}, author.ID, "hello")
	require.NoError(t, err)

	liked, err := svc.React(ctx, comment.Path, fan.ID, true)
	require.NoError(t, err)
	assert.Equal(t, []int64{fan.ID}, liked.Likes)

	disliked, err := svc.React(ctx, comment.Path, fan.ID, false)
	require.NoError(t, err)
	assert.Empty(t, disliked.Likes)
	assert.Equal(t, []int64{fan.ID}, disliked.Dislikes)

	cleared, err := svc.React(ctx, comment.Path, fan.ID, false)
	require.NoError(t, err)
	assert.Empty(t, cleared.Dislikes)

	require.NoError(t, svc.SetStatus(ctx, comment.Path, model.StatusDeletedByUser))
	got, err := svc.Get(ctx, comment.Path)
	require.NoError(t, err)
	assert.True(t, got.Status.Deleted())

	_, err = svc.Get(ctx, model.Path{article.ID, 3})
	assert.True(t, errors.Is(err, repository.ErrInvalidPath))
}
