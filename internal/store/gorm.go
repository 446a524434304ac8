package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/oatext/internal/db"
	"github.com/oatext/internal/model"
)

const searchBatchSize = 200

// GormEngine stores every record as a JSON document row in the documents
// table. Writes bump the row version; Modify uses it for optimistic locking.
type GormEngine struct {
	db *gorm.DB
}

// NewGormEngine wraps an already migrated connection.
func NewGormEngine(gdb *gorm.DB) *GormEngine {
	return &GormEngine{db: gdb}
}

// scope narrows a documents query to the kind's collection and the query.
func (e *GormEngine) scope(ctx context.Context, kind model.Kind, q Query) *gorm.DB {
	tx := e.db.WithContext(ctx).Model(&db.Document{}).Where("collection = ?", kind.Collection())
	for _, key := range q.keys() {
		if key == "id" {
			tx = tx.Where("record_id = ?", q[key])
			continue
		}
		tx = tx.Where(datatypes.JSONQuery("body").Equals(q[key], key))
	}
	return tx.Order("record_id asc")
}

func (e *GormEngine) first(ctx context.Context, kind model.Kind, q Query) (*db.Document, error) {
	var doc db.Document
	if err := e.scope(ctx, kind, q).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoDocument
		}
		return nil, err
	}
	return &doc, nil
}

func (e *GormEngine) Get(ctx context.Context, kind model.Kind, q Query) (model.Record, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	doc, err := e.first(ctx, kind, q)
	if err != nil {
		return nil, err
	}
	return decodeRecord(kind, doc.Body)
}

func (e *GormEngine) Post(ctx context.Context, rec model.Record) (int64, error) {
	kind := rec.Kind()
	if err := checkKind(kind); err != nil {
		return 0, err
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return 0, err
	}

	doc := db.Document{
		Collection: kind.Collection(),
		RecordID:   rec.RecordID(),
		Body:       datatypes.JSON(body),
	}
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&db.Document{}).
			Where("collection = ? AND record_id = ?", doc.Collection, doc.RecordID).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return ErrDuplicate
		}
		return tx.Create(&doc).Error
	})
	if err != nil {
		return 0, translateWriteError(err)
	}
	return rec.RecordID(), nil
}

func (e *GormEngine) Put(ctx context.Context, kind model.Kind, q Query, rec model.Record) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txEngine := &GormEngine{db: tx}
		existing, err := txEngine.first(ctx, kind, q)
		if errors.Is(err, ErrNoDocument) {
			return tx.Create(&db.Document{
				Collection: kind.Collection(),
				RecordID:   rec.RecordID(),
				Body:       datatypes.JSON(body),
			}).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&db.Document{}).Where("id = ?", existing.ID).Updates(map[string]any{
			"record_id": rec.RecordID(),
			"body":      datatypes.JSON(body),
			"version":   existing.Version + 1,
		}).Error
	})
	return translateWriteError(err)
}

func (e *GormEngine) Count(ctx context.Context, kind model.Kind) (int64, error) {
	if err := checkKind(kind); err != nil {
		return 0, err
	}
	var count int64
	err := e.db.WithContext(ctx).Model(&db.Document{}).
		Where("collection = ?", kind.Collection()).
		Count(&count).Error
	return count, err
}

func (e *GormEngine) MaxID(ctx context.Context, kind model.Kind) (int64, error) {
	if err := checkKind(kind); err != nil {
		return 0, err
	}
	var max int64
	err := e.db.WithContext(ctx).Model(&db.Document{}).
		Select("COALESCE(MAX(record_id), -1)").
		Where("collection = ?", kind.Collection()).
		Scan(&max).Error
	return max, err
}

func (e *GormEngine) Remove(ctx context.Context, kind model.Kind, q Query) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	doc, err := e.first(ctx, kind, q)
	if errors.Is(err, ErrNoDocument) {
		return nil
	}
	if err != nil {
		return err
	}
	return e.db.WithContext(ctx).Delete(&db.Document{}, doc.ID).Error
}

// Search 分批加载集合并在内存中按关键字过滤。
func (e *GormEngine) Search(ctx context.Context, kind model.Kind, term string) ([]model.Record, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}

	var (
		out     []model.Record
		docs    []db.Document
		decoded error
	)
	// FindInBatches pages by primary key, so no record_id ordering here.
	result := e.db.WithContext(ctx).Where("collection = ?", kind.Collection()).FindInBatches(&docs, searchBatchSize, func(tx *gorm.DB, batch int) error {
		for _, doc := range docs {
			rec, err := decodeRecord(kind, doc.Body)
			if err != nil {
				decoded = err
				return err
			}
			if matchesTerm(rec, term) {
				out = append(out, rec)
			}
		}
		return nil
	})
	if decoded != nil {
		return nil, decoded
	}
	if result.Error != nil {
		return nil, result.Error
	}
	sortRecords(out)
	return out, nil
}

// Modify 读取-修改-按版本号条件写回，版本不一致时重试。
func (e *GormEngine) Modify(ctx context.Context, kind model.Kind, id int64, fn ModifyFunc) (model.Record, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxModifyAttempts; attempt++ {
		doc, err := e.first(ctx, kind, ByID(id))
		if err != nil {
			return nil, err
		}
		decoded, err := decodeRecord(kind, doc.Body)
		if err != nil {
			return nil, err
		}
		// 解码得到的 nil map/slice 先归一化
		rec := decoded.CloneRecord()
		if err := fn(rec); err != nil {
			return nil, err
		}
		rec.SetRecordID(id)

		body, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}
		result := e.db.WithContext(ctx).Model(&db.Document{}).
			Where("id = ? AND version = ?", doc.ID, doc.Version).
			Updates(map[string]any{
				"body":    datatypes.JSON(body),
				"version": doc.Version + 1,
			})
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 1 {
			return rec, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return nil, ErrConcurrentModification
}

func (e *GormEngine) Close() error {
	sqlDB, err := e.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translateWriteError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrDuplicate), errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return ErrDuplicate
	default:
		return err
	}
}
