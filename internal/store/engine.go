// Package store implements the document-store collaborator behind the
// record repository. Engines are atomic at the single-document level only.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/oatext/internal/model"
)

var (
	ErrNoDocument             = errors.New("store: no matching document")
	ErrDuplicate              = errors.New("store: duplicate document")
	ErrConcurrentModification = errors.New("store: document changed concurrently")
)

// maxModifyAttempts bounds optimistic read-modify-write retries.
const maxModifyAttempts = 16

// Query 是按 JSON 字段名做等值匹配的条件，键 "id" 对应记录 id。
type Query map[string]any

// ByID addresses a single record by its id.
func ByID(id int64) Query {
	return Query{"id": id}
}

// keys returns the query keys in a stable order.
func (q Query) keys() []string {
	out := make([]string, 0, len(q))
	for key := range q {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// idOnly reports whether the query addresses exactly one id.
func (q Query) idOnly() (int64, bool) {
	if len(q) != 1 {
		return 0, false
	}
	id, ok := toInt64(q["id"])
	return id, ok
}

// ModifyFunc mutates a fresh copy of the stored record. Returning an error
// aborts the write.
type ModifyFunc func(model.Record) error

// Engine is the storage collaborator consumed by the repository.
type Engine interface {
	Get(ctx context.Context, kind model.Kind, q Query) (model.Record, error)
	// Post inserts rec under its own id and fails with ErrDuplicate when the
	// (kind, id) pair is taken.
	Post(ctx context.Context, rec model.Record) (int64, error)
	// Put replaces the first document matching q with rec, inserting rec when
	// nothing matches.
	Put(ctx context.Context, kind model.Kind, q Query, rec model.Record) error
	Count(ctx context.Context, kind model.Kind) (int64, error)
	// MaxID returns the highest stored id of kind, or -1 for an empty kind.
	MaxID(ctx context.Context, kind model.Kind) (int64, error)
	Remove(ctx context.Context, kind model.Kind, q Query) error
	Search(ctx context.Context, kind model.Kind, term string) ([]model.Record, error)
	// Modify applies fn to the record with the given id atomically.
	Modify(ctx context.Context, kind model.Kind, id int64, fn ModifyFunc) (model.Record, error)
	Close() error
}

func checkKind(kind model.Kind) error {
	if !kind.Stored() {
		return model.ErrUnknownKind
	}
	return nil
}

func decodeRecord(kind model.Kind, body []byte) (model.Record, error) {
	rec, err := kind.New()
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// matches compares query values against the record's JSON fields by their
// JSON encoding, so 3 and int64(3) are equal.
func matches(rec model.Record, q Query) (bool, error) {
	if id, ok := q.idOnly(); ok {
		return rec.RecordID() == id, nil
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return false, err
	}

	for _, key := range q.keys() {
		want, err := json.Marshal(q[key])
		if err != nil {
			return false, err
		}
		got, ok := fields[key]
		if !ok || !bytes.Equal(bytes.TrimSpace(got), want) {
			return false, nil
		}
	}
	return true, nil
}

func matchesTerm(rec model.Record, term string) bool {
	searchable, ok := rec.(model.Searchable)
	if !ok {
		return false
	}
	return strings.Contains(searchable.SearchText(), strings.ToLower(term))
}

func sortRecords(records []model.Record) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].RecordID() < records[j].RecordID()
	})
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), v == float64(int64(v))
	default:
		return 0, false
	}
}
