package store

import (
	"context"
	"sort"
	"sync"

	"github.com/oatext/internal/model"
)

// MemoryEngine keeps records in process memory. Every record crossing the
// engine boundary is cloned, so callers never share state with the store.
type MemoryEngine struct {
	mu   sync.RWMutex
	docs map[model.Kind]map[int64]model.Record
}

// NewMemoryEngine creates an empty engine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{docs: map[model.Kind]map[int64]model.Record{}}
}

// Reset drops every stored record.
func (e *MemoryEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.docs = map[model.Kind]map[int64]model.Record{}
}

func (e *MemoryEngine) collection(kind model.Kind) map[int64]model.Record {
	docs, ok := e.docs[kind]
	if !ok {
		docs = map[int64]model.Record{}
		e.docs[kind] = docs
	}
	return docs
}

// find returns the first record (lowest id) matching q. Callers hold the lock.
func (e *MemoryEngine) find(kind model.Kind, q Query) (model.Record, error) {
	docs := e.docs[kind]
	if id, ok := q.idOnly(); ok {
		if rec, found := docs[id]; found {
			return rec, nil
		}
		return nil, ErrNoDocument
	}

	ids := make([]int64, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		ok, err := matches(docs[id], q)
		if err != nil {
			return nil, err
		}
		if ok {
			return docs[id], nil
		}
	}
	return nil, ErrNoDocument
}

func (e *MemoryEngine) Get(ctx context.Context, kind model.Kind, q Query) (model.Record, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	rec, err := e.find(kind, q)
	if err != nil {
		return nil, err
	}
	return rec.CloneRecord(), nil
}

func (e *MemoryEngine) Post(ctx context.Context, rec model.Record) (int64, error) {
	if err := checkKind(rec.Kind()); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	docs := e.collection(rec.Kind())
	if _, exists := docs[rec.RecordID()]; exists {
		return 0, ErrDuplicate
	}
	docs[rec.RecordID()] = rec.CloneRecord()
	return rec.RecordID(), nil
}

func (e *MemoryEngine) Put(ctx context.Context, kind model.Kind, q Query, rec model.Record) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	docs := e.collection(kind)
	existing, err := e.find(kind, q)
	switch {
	case err == nil:
		delete(docs, existing.RecordID())
	case err != ErrNoDocument:
		return err
	}
	docs[rec.RecordID()] = rec.CloneRecord()
	return nil
}

func (e *MemoryEngine) Count(ctx context.Context, kind model.Kind) (int64, error) {
	if err := checkKind(kind); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return int64(len(e.docs[kind])), nil
}

func (e *MemoryEngine) MaxID(ctx context.Context, kind model.Kind) (int64, error) {
	if err := checkKind(kind); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	max := int64(-1)
	for id := range e.docs[kind] {
		if id > max {
			max = id
		}
	}
	return max, nil
}

func (e *MemoryEngine) Remove(ctx context.Context, kind model.Kind, q Query) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.find(kind, q)
	if err == ErrNoDocument {
		return nil
	}
	if err != nil {
		return err
	}
	delete(e.docs[kind], rec.RecordID())
	return nil
}

func (e *MemoryEngine) Search(ctx context.Context, kind model.Kind, term string) ([]model.Record, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []model.Record
	for _, rec := range e.docs[kind] {
		if matchesTerm(rec, term) {
			out = append(out, rec.CloneRecord())
		}
	}
	sortRecords(out)
	return out, nil
}

func (e *MemoryEngine) Modify(ctx context.Context, kind model.Kind, id int64, fn ModifyFunc) (model.Record, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	stored, ok := e.docs[kind][id]
	if !ok {
		return nil, ErrNoDocument
	}

	working := stored.CloneRecord()
	if err := fn(working); err != nil {
		return nil, err
	}
	working.SetRecordID(id)
	e.docs[kind][id] = working.CloneRecord()
	return working, nil
}

func (e *MemoryEngine) Close() error {
	return nil
}
