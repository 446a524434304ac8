package service

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/oatext/internal/model"
	"github.com/oatext/internal/repository"
)

// CommentService 维护文章内嵌的评论树，评论按路径寻址。
type CommentService struct {
	repo *repository.Repository
	now  func() time.Time
}

// NewCommentService creates a CommentService instance.
func NewCommentService(repo *repository.Repository) *CommentService {
	return &CommentService{repo: repo, now: time.Now}
}

// LocateChildList walks indices (a comment path without its article id)
// down through the reply lists and returns the list owned by the last node.
// An empty tail addresses the article's top-level comments.
func LocateChildList(article *model.Article, indices []int64) (*[]model.Comment, error) {
	list := &article.Comments
	for depth, idx := range indices {
		if idx < 0 || idx >= int64(len(*list)) {
			return nil, errors.Wrapf(repository.ErrInvalidPath, "index %d out of range at depth %d", idx, depth+1)
		}
		list = &(*list)[idx].Reply
	}
	return list, nil
}

// NextChildID returns the append position of the child list at parentPath.
func NextChildID(article *model.Article, parentPath model.Path) (int64, error) {
	if err := checkPath(article.ID, parentPath, 1); err != nil {
		return 0, err
	}
	list, err := LocateChildList(article, parentPath[1:])
	if err != nil {
		return 0, err
	}
	return int64(len(*list)), nil
}

func checkPath(articleID int64, path model.Path, minLen int) error {
	if len(path) < minLen {
		return errors.Wrapf(repository.ErrInvalidPath, "path %v is too short", path)
	}
	if path[0] != articleID {
		return errors.Wrapf(repository.ErrInvalidPath, "path %v does not belong to article %d", path, articleID)
	}
	return nil
}

// commentAt resolves a full comment path (length >= 2) inside article.
func commentAt(article *model.Article, path model.Path) (*model.Comment, error) {
	if err := checkPath(article.ID, path, 2); err != nil {
		return nil, err
	}
	list, err := LocateChildList(article, path[1:len(path)-1])
	if err != nil {
		return nil, err
	}
	idx := path[len(path)-1]
	if idx < 0 || idx >= int64(len(*list)) {
		return nil, errors.Wrapf(repository.ErrInvalidPath, "index %d out of range at depth %d", idx, path.Depth())
	}
	return &(*list)[idx], nil
}

// AddComment appends a new comment under parentPath. parentPath [articleID]
// creates a top-level comment. The append runs as one atomic modification of
// the article, so concurrent replies to the same parent get distinct indices.
func (s *CommentService) AddComment(ctx context.Context, articleID int64, parentPath model.Path, authorID int64, content string) (*model.Comment, error) {
	if err := checkPath(articleID, parentPath, 1); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, errors.Wrap(repository.ErrValidation, "comment content is empty")
	}

	author, err := s.repo.User(ctx, authorID)
	if err != nil {
		return nil, errors.Wrap(err, "load comment author")
	}
	if author.Status.Deleted() {
		return nil, errors.Wrapf(repository.ErrNotFound, "user %d is deleted", authorID)
	}

	var created model.Comment
	_, err = s.repo.ModifyArticle(ctx, articleID, func(article *model.Article) error {
		if article.Status.Deleted() {
			return errors.Wrapf(repository.ErrNotFound, "article %d is deleted", articleID)
		}
		list, err := LocateChildList(article, parentPath[1:])
		if err != nil {
			return err
		}

		path := parentPath.Child(int64(len(*list)))
		var root *model.Comment
		if path.Depth() >= 2 {
			root = &article.Comments[path[1]]
		}
		comment := model.NewComment(path, content, authorID, s.now().UTC(), article, root)
		*list = append(*list, comment)
		created = comment.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Get returns the comment at path.
func (s *CommentService) Get(ctx context.Context, path model.Path) (*model.Comment, error) {
	if len(path) < 2 {
		return nil, errors.Wrapf(repository.ErrInvalidPath, "path %v is too short", path)
	}
	article, err := s.repo.Article(ctx, path[0])
	if err != nil {
		return nil, err
	}
	comment, err := commentAt(article, path)
	if err != nil {
		return nil, err
	}
	out := comment.Clone()
	return &out, nil
}

// React toggles a like (or dislike) by userID on the comment at path. Likes
// and dislikes are mutually exclusive.
func (s *CommentService) React(ctx context.Context, path model.Path, userID int64, like bool) (*model.Comment, error) {
	if len(path) < 2 {
		return nil, errors.Wrapf(repository.ErrInvalidPath, "path %v is too short", path)
	}
	if _, err := s.repo.User(ctx, userID); err != nil {
		return nil, err
	}

	var updated model.Comment
	_, err := s.repo.ModifyArticle(ctx, path[0], func(article *model.Article) error {
		comment, err := commentAt(article, path)
		if err != nil {
			return err
		}
		comment.Likes, comment.Dislikes = toggleReaction(comment.Likes, comment.Dislikes, userID, like)
		updated = comment.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// SetStatus changes the status of the comment at path, used for soft deletion.
func (s *CommentService) SetStatus(ctx context.Context, path model.Path, status model.Status) error {
	if len(path) < 2 {
		return errors.Wrapf(repository.ErrInvalidPath, "path %v is too short", path)
	}
	_, err := s.repo.ModifyArticle(ctx, path[0], func(article *model.Article) error {
		comment, err := commentAt(article, path)
		if err != nil {
			return err
		}
		comment.Status = status
		return nil
	})
	return err
}

// toggleReaction flips userID in the chosen set and clears it from the other.
func toggleReaction(likes, dislikes []int64, userID int64, like bool) ([]int64, []int64) {
	chosen, other := likes, dislikes
	if !like {
		chosen, other = dislikes, likes
	}

	if model.ContainsID(chosen, userID) {
		chosen, _ = model.RemoveID(chosen, userID)
	} else {
		chosen, _ = model.AddID(chosen, userID)
		other, _ = model.RemoveID(other, userID)
	}

	if like {
		return chosen, other
	}
	return other, chosen
}
