package service

import (
	"bytes"
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jinzhu/copier"
	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/oatext/internal/model"
	"github.com/oatext/internal/repository"
)

var (
	ErrNotAuthor       = errors.Wrap(repository.ErrValidation, "only the author can change this article")
	ErrChapterLinked   = errors.Wrap(repository.ErrConflict, "chapter is already linked to another chapter")
	ErrInvalidRange    = errors.Wrap(repository.ErrValidation, "annotation range is outside the content")
	ErrEmptySearchTerm = errors.Wrap(repository.ErrValidation, "search term is empty")
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	contentSanitizer = bluemonday.UGCPolicy()
)

// ArticleService 管理文章（章节）的发布、编辑、互动与检索。
type ArticleService struct {
	repo *repository.Repository
	now  func() time.Time
}

// NewArticleService creates an ArticleService instance.
func NewArticleService(repo *repository.Repository) *ArticleService {
	return &ArticleService{repo: repo, now: time.Now}
}

// ArticleUpdate carries an edit. Empty strings are left unchanged. Price and
// Tags change only when present, so a zero price or an empty tag list can be
// set explicitly. Next, when set, relinks the following chapter
// (model.NoChapter unlinks it).
type ArticleUpdate struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Content string   `json:"content"`
	Tags    []string `json:"tags" copier:"-"`
	Price   *float64 `json:"price" copier:"-"`
	Next    *int64   `json:"next" copier:"-"`
}

// ChapterRef names one article in a chapter chain.
type ChapterRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Upload publishes a new article. When fields.Previous names an article, the
// new one becomes its next chapter.
func (s *ArticleService) Upload(ctx context.Context, fields model.ArticleFields) (*model.Article, error) {
	fields.Title = strings.TrimSpace(fields.Title)
	if fields.Title == "" {
		return nil, errors.Wrap(repository.ErrValidation, "article title is required")
	}
	if strings.TrimSpace(fields.Content) == "" {
		return nil, errors.Wrap(repository.ErrValidation, "article content is required")
	}

	author, err := s.repo.User(ctx, fields.Author)
	if err != nil {
		return nil, errors.Wrap(err, "load article author")
	}
	if author.Status.Deleted() {
		return nil, errors.Wrapf(repository.ErrNotFound, "user %d is deleted", author.ID)
	}

	if fields.Previous >= 0 {
		previous, err := s.Get(ctx, fields.Previous)
		if err != nil {
			return nil, errors.Wrap(err, "load previous chapter")
		}
		if previous.Author != fields.Author {
			return nil, ErrNotAuthor
		}
		if previous.Next != model.NoChapter {
			return nil, ErrChapterLinked
		}
	}

	article := model.NewArticle(0, fields, s.now().UTC())
	id, err := s.repo.Create(ctx, article)
	if err != nil {
		return nil, err
	}

	if article.Previous != model.NoChapter {
		_, err := s.repo.ModifyArticle(ctx, article.Previous, func(previous *model.Article) error {
			if previous.Next != model.NoChapter {
				return ErrChapterLinked
			}
			previous.Next = id
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if _, err := s.repo.ModifyUser(ctx, fields.Author, func(user *model.User) error {
		user.Publications, _ = model.AddID(user.Publications, id)
		return nil
	}); err != nil {
		return nil, err
	}
	return article, nil
}

// Get returns an article unless it has been soft deleted.
func (s *ArticleService) Get(ctx context.Context, articleID int64) (*model.Article, error) {
	article, err := s.repo.Article(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if article.Status.Deleted() {
		return nil, errors.Wrapf(repository.ErrNotFound, "article %d is deleted", articleID)
	}
	return article, nil
}

// GetPartial projects the named fields of a visible article.
func (s *ArticleService) GetPartial(ctx context.Context, articleID int64, fields ...string) (map[string]any, error) {
	if _, err := s.Get(ctx, articleID); err != nil {
		return nil, err
	}
	return s.repo.GetPartial(ctx, model.KindArticle, articleID, fields...)
}

// Update edits an article owned by userID. Relinking Next follows the same
// rules as Upload: the new next chapter must belong to the same author and
// must not already follow another chapter. The old next chapter is unlinked.
func (s *ArticleService) Update(ctx context.Context, articleID, userID int64, input ArticleUpdate) (*model.Article, error) {
	current, err := s.Get(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if current.Author != userID {
		return nil, ErrNotAuthor
	}

	newNext := model.NoChapter
	if input.Next != nil && *input.Next >= 0 {
		newNext = *input.Next
	}
	claimed := input.Next != nil && newNext != model.NoChapter && newNext != current.Next
	if claimed {
		if err := s.claimNext(ctx, articleID, newNext, userID); err != nil {
			return nil, err
		}
	}

	oldNext := model.NoChapter
	updated, err := s.repo.ModifyArticle(ctx, articleID, func(article *model.Article) error {
		if article.Status.Deleted() {
			return errors.Wrapf(repository.ErrNotFound, "article %d is deleted", articleID)
		}
		if article.Author != userID {
			return ErrNotAuthor
		}
		if err := copier.CopyWithOption(article, &input, copier.Option{IgnoreEmpty: true, DeepCopy: true}); err != nil {
			return err
		}
		if input.Tags != nil {
			article.Tags = append([]string{}, input.Tags...)
		}
		if input.Price != nil {
			article.Price = *input.Price
		}
		oldNext = article.Next
		if input.Next != nil {
			article.Next = newNext
		}
		article.EditTime = s.now().UTC()
		return nil
	})
	if err != nil {
		if claimed {
			s.releasePrevious(ctx, newNext, articleID)
		}
		return nil, err
	}

	if input.Next != nil && oldNext != model.NoChapter && oldNext != newNext {
		if err := s.releasePrevious(ctx, oldNext, articleID); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// claimNext points nextID's Previous at articleID.
func (s *ArticleService) claimNext(ctx context.Context, articleID, nextID, userID int64) error {
	if nextID == articleID {
		return errors.Wrap(repository.ErrValidation, "an article cannot be its own next chapter")
	}
	_, err := s.repo.ModifyArticle(ctx, nextID, func(next *model.Article) error {
		if next.Status.Deleted() {
			return errors.Wrapf(repository.ErrNotFound, "article %d is deleted", nextID)
		}
		if next.Author != userID {
			return ErrNotAuthor
		}
		if next.Previous != model.NoChapter && next.Previous != articleID {
			return ErrChapterLinked
		}
		next.Previous = articleID
		return nil
	})
	return errors.Wrap(err, "link next chapter")
}

// releasePrevious unlinks chapterID from articleID if it still points back.
func (s *ArticleService) releasePrevious(ctx context.Context, chapterID, articleID int64) error {
	_, err := s.repo.ModifyArticle(ctx, chapterID, func(chapter *model.Article) error {
		if chapter.Previous == articleID {
			chapter.Previous = model.NoChapter
		}
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}

// Delete soft deletes an article owned by userID.
func (s *ArticleService) Delete(ctx context.Context, articleID, userID int64) error {
	_, err := s.repo.ModifyArticle(ctx, articleID, func(article *model.Article) error {
		if article.Author != userID {
			return ErrNotAuthor
		}
		article.Status = model.StatusDeletedByUser
		return nil
	})
	return err
}

// React toggles a like or dislike by userID.
func (s *ArticleService) React(ctx context.Context, articleID, userID int64, like bool) (*model.Article, error) {
	if _, err := s.repo.User(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.ModifyArticle(ctx, articleID, func(article *model.Article) error {
		if article.Status.Deleted() {
			return errors.Wrapf(repository.ErrNotFound, "article %d is deleted", articleID)
		}
		article.Likes, article.Dislikes = toggleReaction(article.Likes, article.Dislikes, userID, like)
		return nil
	})
}

// Bookmark toggles the article in the user's library and reports whether it
// is bookmarked afterwards.
func (s *ArticleService) Bookmark(ctx context.Context, articleID, userID int64) (bool, error) {
	if _, err := s.Get(ctx, articleID); err != nil {
		return false, err
	}

	var bookmarked bool
	_, err := s.repo.ModifyUser(ctx, userID, func(user *model.User) error {
		var removed bool
		user.Library, removed = model.RemoveID(user.Library, articleID)
		if !removed {
			user.Library, _ = model.AddID(user.Library, articleID)
		}
		bookmarked = !removed
		return nil
	})
	return bookmarked, err
}

// Search returns visible articles whose title, summary or content contain
// term (case-insensitive), ordered by id.
func (s *ArticleService) Search(ctx context.Context, term string) ([]*model.Article, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrEmptySearchTerm
	}
	records, err := s.repo.Search(ctx, model.KindArticle, term)
	if err != nil {
		return nil, err
	}

	out := make([]*model.Article, 0, len(records))
	for _, rec := range records {
		article := rec.(*model.Article)
		if article.Status.Deleted() {
			continue
		}
		out = append(out, article)
	}
	return out, nil
}

// Render converts the article's markdown content to sanitized HTML.
func (s *ArticleService) Render(ctx context.Context, articleID int64) (string, error) {
	article, err := s.Get(ctx, articleID)
	if err != nil {
		return "", err
	}
	return RenderMarkdown(article.Content)
}

// RenderMarkdown converts markdown to HTML and strips anything outside the
// user generated content policy.
func RenderMarkdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(source), &buf); err != nil {
		return "", errors.Wrap(err, "render markdown")
	}
	return string(contentSanitizer.SanitizeBytes(buf.Bytes())), nil
}

// Annotate attaches a note to the [start, end) character range of the
// article's content.
func (s *ArticleService) Annotate(ctx context.Context, articleID, authorID int64, start, end int, content string) (*model.Annotation, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.Wrap(repository.ErrValidation, "annotation content is empty")
	}
	if _, err := s.repo.User(ctx, authorID); err != nil {
		return nil, err
	}
	article, err := s.Get(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if start < 0 || end < start || end > utf8.RuneCountInString(article.Content) {
		return nil, ErrInvalidRange
	}

	annotation := model.NewAnnotation(0, articleID, authorID, start, end, content, s.now().UTC())
	if _, err := s.repo.Create(ctx, annotation); err != nil {
		return nil, err
	}

	_, err = s.repo.ModifyArticle(ctx, articleID, func(a *model.Article) error {
		a.Annotations = append(a.Annotations, *annotation)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return annotation, nil
}

// Chapters follows next pointers from articleID. The walk is bounded by the
// number of stored articles, so a cycle cannot loop forever.
func (s *ArticleService) Chapters(ctx context.Context, articleID int64) ([]ChapterRef, error) {
	total, err := s.repo.Count(ctx, model.KindArticle)
	if err != nil {
		return nil, err
	}

	var chain []ChapterRef
	seen := map[int64]bool{}
	for id := articleID; id != model.NoChapter && int64(len(chain)) < total; {
		if seen[id] {
			break
		}
		seen[id] = true

		article, err := s.Get(ctx, id)
		if err != nil {
			if len(chain) > 0 && errors.Is(err, repository.ErrNotFound) {
				break
			}
			return nil, err
		}
		chain = append(chain, ChapterRef{ID: article.ID, Title: article.Title})
		id = article.Next
	}
	return chain, nil
}
