package model

import (
	"slices"
	"sort"
	"strings"
)

// NoChapter marks an absent previous/next chapter pointer.
const NoChapter int64 = -1

// Record 是所有可存储实体的公共接口，实现集合是封闭的。
type Record interface {
	Kind() Kind
	RecordID() int64
	SetRecordID(id int64)
	// CloneRecord returns a structural copy sharing no mutable state.
	CloneRecord() Record
	record()
}

// Searchable is implemented by records that take part in full text search.
type Searchable interface {
	SearchText() string
}

// Status 沿用原系统的状态哨兵值。
type Status uint32

const (
	StatusActive         Status = 0x00000000
	StatusPrivate        Status = 0x00000001
	StatusPublic         Status = 0x00000002
	StatusFriendsOnly    Status = 0x00000003
	StatusAuthorOnly     Status = 0x00000004
	StatusDeletedByUser  Status = 0xf0000000
	StatusDeletedByAdmin Status = 0xf0000001
)

// Deleted reports whether s is one of the soft-delete sentinels.
func (s Status) Deleted() bool {
	return s == StatusDeletedByUser || s == StatusDeletedByAdmin
}

// ContainsID reports whether id is in the sorted set.
func ContainsID(set []int64, id int64) bool {
	_, found := slices.BinarySearch(set, id)
	return found
}

// AddID inserts id into the sorted set, returning the set and whether it changed.
func AddID(set []int64, id int64) ([]int64, bool) {
	pos, found := slices.BinarySearch(set, id)
	if found {
		return set, false
	}
	return slices.Insert(set, pos, id), true
}

// RemoveID deletes id from the sorted set, returning the set and whether it changed.
func RemoveID(set []int64, id int64) ([]int64, bool) {
	pos, found := slices.BinarySearch(set, id)
	if !found {
		return set, false
	}
	return slices.Delete(set, pos, pos+1), true
}

// NormalizeIDs sorts ids and drops duplicates.
func NormalizeIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	out = append(out, ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return slices.Compact(out)
}

func cloneIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return slices.Clone(ids)
}

func cloneStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return slices.Clone(values)
}

func joinSearchText(parts ...string) string {
	return strings.ToLower(strings.Join(parts, "\n"))
}
