// Package repository is the generic record repository over a store.Engine.
package repository

import (
	stderrors "errors"

	"github.com/pkg/errors"

	"github.com/oatext/internal/model"
	"github.com/oatext/internal/store"
)

var (
	// ErrNotFound 记录或评论路径不存在。
	ErrNotFound = stderrors.New("record not found")
	// ErrInvalidPath 评论路径越界或格式错误。
	ErrInvalidPath = stderrors.New("invalid comment path")
	// ErrConflict 同一类型下 id 重复。
	ErrConflict = stderrors.New("record already exists")
	// ErrValidation 输入被拒绝。
	ErrValidation = stderrors.New("validation failed")
)

// translate maps engine errors onto the repository taxonomy. Errors that are
// not engine errors pass through untouched so callers can return their own.
func translate(err error, kind model.Kind, id int64) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, store.ErrNoDocument):
		return errors.Wrapf(ErrNotFound, "%s %d", kind, id)
	case stderrors.Is(err, store.ErrDuplicate):
		return errors.Wrapf(ErrConflict, "%s %d", kind, id)
	case stderrors.Is(err, model.ErrUnknownKind):
		return errors.Wrapf(ErrValidation, "kind %q", kind)
	default:
		return err
	}
}
