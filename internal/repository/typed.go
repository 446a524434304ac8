package repository

import (
	"context"

	"github.com/pkg/errors"

	"github.com/oatext/internal/model"
)

func getAs[T model.Record](ctx context.Context, r *Repository, kind model.Kind, id int64) (T, error) {
	var zero T
	rec, err := r.Get(ctx, kind, id)
	if err != nil {
		return zero, err
	}
	typed, ok := rec.(T)
	if !ok {
		return zero, errors.Errorf("%s %d has unexpected type %T", kind, id, rec)
	}
	return typed, nil
}

func modifyAs[T model.Record](ctx context.Context, r *Repository, kind model.Kind, id int64, fn func(T) error) (T, error) {
	var zero T
	rec, err := r.Modify(ctx, kind, id, func(rec model.Record) error {
		typed, ok := rec.(T)
		if !ok {
			return errors.Errorf("%s %d has unexpected type %T", kind, id, rec)
		}
		return fn(typed)
	})
	if err != nil {
		return zero, err
	}
	return rec.(T), nil
}

func (r *Repository) User(ctx context.Context, id int64) (*model.User, error) {
	return getAs[*model.User](ctx, r, model.KindUser, id)
}

func (r *Repository) Article(ctx context.Context, id int64) (*model.Article, error) {
	return getAs[*model.Article](ctx, r, model.KindArticle, id)
}

func (r *Repository) Room(ctx context.Context, id int64) (*model.Room, error) {
	return getAs[*model.Room](ctx, r, model.KindRoom, id)
}

func (r *Repository) Image(ctx context.Context, id int64) (*model.Image, error) {
	return getAs[*model.Image](ctx, r, model.KindImage, id)
}

func (r *Repository) ModifyUser(ctx context.Context, id int64, fn func(*model.User) error) (*model.User, error) {
	return modifyAs(ctx, r, model.KindUser, id, fn)
}

func (r *Repository) ModifyArticle(ctx context.Context, id int64, fn func(*model.Article) error) (*model.Article, error) {
	return modifyAs(ctx, r, model.KindArticle, id, fn)
}

func (r *Repository) ModifyRoom(ctx context.Context, id int64, fn func(*model.Room) error) (*model.Room, error) {
	return modifyAs(ctx, r, model.KindRoom, id, fn)
}

func (r *Repository) ModifyImage(ctx context.Context, id int64, fn func(*model.Image) error) (*model.Image, error) {
	return modifyAs(ctx, r, model.KindImage, id, fn)
}
