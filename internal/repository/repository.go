package repository

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"

	"github.com/pkg/errors"

	"github.com/oatext/internal/model"
	"github.com/oatext/internal/store"
)

// maxCreateAttempts bounds the allocate-then-insert retry loop in Create.
const maxCreateAttempts = 8

// Repository 提供按类型的通用记录读写。返回的记录都是独立副本，
// 修改它们不会影响存储，直到显式调用 Update 或 Modify。
type Repository struct {
	engine store.Engine
	ids    Allocator

	mu       sync.Mutex
	creating map[model.Kind]*sync.Mutex
}

// New builds a repository. A nil allocator falls back to CountAllocator.
func New(engine store.Engine, ids Allocator) *Repository {
	if ids == nil {
		ids = NewCountAllocator(engine)
	}
	return &Repository{
		engine:   engine,
		ids:      ids,
		creating: map[model.Kind]*sync.Mutex{},
	}
}

// Engine exposes the underlying storage collaborator.
func (r *Repository) Engine() store.Engine {
	return r.engine
}

// NextID returns the next identifier for kind from the configured allocator.
func (r *Repository) NextID(ctx context.Context, kind model.Kind) (int64, error) {
	return r.ids.NextID(ctx, kind)
}

func (r *Repository) Get(ctx context.Context, kind model.Kind, id int64) (model.Record, error) {
	rec, err := r.engine.Get(ctx, kind, store.ByID(id))
	if err != nil {
		return nil, translate(err, kind, id)
	}
	return rec.CloneRecord(), nil
}

// Find returns the lowest-id record whose JSON fields equal every query value.
func (r *Repository) Find(ctx context.Context, kind model.Kind, q store.Query) (model.Record, error) {
	rec, err := r.engine.Get(ctx, kind, q)
	if err != nil {
		if stderrors.Is(err, store.ErrNoDocument) {
			return nil, errors.Wrapf(ErrNotFound, "%s matching %v", kind, q)
		}
		return nil, translate(err, kind, -1)
	}
	return rec.CloneRecord(), nil
}

// GetPartial fetches the whole record and projects the named JSON fields.
// Unknown field names are ignored.
func (r *Repository) GetPartial(ctx context.Context, kind model.Kind, id int64, fields ...string) (map[string]any, error) {
	rec, err := r.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s %d", kind, id)
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(body, &all); err != nil {
		return nil, errors.Wrapf(err, "decode %s %d", kind, id)
	}

	out := make(map[string]any, len(fields))
	for _, field := range fields {
		raw, ok := all[field]
		if !ok {
			continue
		}
		decoder := json.NewDecoder(bytes.NewReader(raw))
		decoder.UseNumber()
		var value any
		if err := decoder.Decode(&value); err != nil {
			return nil, errors.Wrapf(err, "decode field %s", field)
		}
		out[field] = value
	}
	return out, nil
}

// Add inserts rec under its own id. A taken id is a Conflict.
func (r *Repository) Add(ctx context.Context, rec model.Record) error {
	if _, err := r.engine.Post(ctx, rec); err != nil {
		return translate(err, rec.Kind(), rec.RecordID())
	}
	return nil
}

// Update replaces the stored record with the same kind and id, inserting it
// when absent.
func (r *Repository) Update(ctx context.Context, rec model.Record) error {
	id := rec.RecordID()
	if err := r.engine.Put(ctx, rec.Kind(), store.ByID(id), rec); err != nil {
		return translate(err, rec.Kind(), id)
	}
	return nil
}

// Create allocates an id for rec and inserts it. Creates of one kind are
// serialized in-process; a collision with another writer moves on to the
// id after the current maximum.
func (r *Repository) Create(ctx context.Context, rec model.Record) (int64, error) {
	kind := rec.Kind()
	lock := r.createLock(kind)
	lock.Lock()
	defer lock.Unlock()

	id, err := r.ids.NextID(ctx, kind)
	if err != nil {
		return 0, err
	}

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		rec.SetRecordID(id)
		err := r.Add(ctx, rec)
		if err == nil {
			return id, nil
		}
		if !stderrors.Is(err, ErrConflict) {
			return 0, err
		}

		max, err := r.engine.MaxID(ctx, kind)
		if err != nil {
			return 0, translate(err, kind, -1)
		}
		id = max + 1
	}
	return 0, errors.Wrapf(ErrConflict, "allocate %s id after %d attempts", kind, maxCreateAttempts)
}

func (r *Repository) createLock(kind model.Kind) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.creating[kind]
	if !ok {
		lock = &sync.Mutex{}
		r.creating[kind] = lock
	}
	return lock
}

// Modify runs fn on a fresh copy of the record and stores the result
// atomically. Errors returned by fn abort the write and are returned as is.
func (r *Repository) Modify(ctx context.Context, kind model.Kind, id int64, fn store.ModifyFunc) (model.Record, error) {
	rec, err := r.engine.Modify(ctx, kind, id, fn)
	if err != nil {
		return nil, translate(err, kind, id)
	}
	return rec.CloneRecord(), nil
}

// Remove physically deletes the first record matching q. Only ancillary
// kinds may be removed; everything else is soft deleted through its status.
func (r *Repository) Remove(ctx context.Context, kind model.Kind, q store.Query) error {
	if !kind.Ancillary() {
		return errors.Wrapf(ErrValidation, "%s records cannot be removed", kind)
	}
	if err := r.engine.Remove(ctx, kind, q); err != nil {
		return translate(err, kind, -1)
	}
	return nil
}

func (r *Repository) Count(ctx context.Context, kind model.Kind) (int64, error) {
	count, err := r.engine.Count(ctx, kind)
	if err != nil {
		return 0, translate(err, kind, -1)
	}
	return count, nil
}

func (r *Repository) Search(ctx context.Context, kind model.Kind, term string) ([]model.Record, error) {
	records, err := r.engine.Search(ctx, kind, term)
	if err != nil {
		return nil, translate(err, kind, -1)
	}
	out := make([]model.Record, len(records))
	for i, rec := range records {
		out[i] = rec.CloneRecord()
	}
	return out, nil
}

func (r *Repository) Close() error {
	return r.engine.Close()
}
