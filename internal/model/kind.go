package model

import (
	"errors"
	"sort"
	"strings"
)

// ErrUnknownKind 表示记录类型不在已知的枚举中。
var ErrUnknownKind = errors.New("unknown record kind")

// Kind 标识记录所属的逻辑集合。
type Kind string

const (
	KindUser             Kind = "user"
	KindArticle          Kind = "article"
	KindComment          Kind = "comment"
	KindRoom             Kind = "room"
	KindMessage          Kind = "message"
	KindImage            Kind = "image"
	KindAnnotation       Kind = "annotation"
	KindVerificationCode Kind = "verificationCode"
)

type kindInfo struct {
	collection string
	// ancillary kinds may be physically removed.
	ancillary bool
	newRecord func() Record
}

// kinds is the single dispatch table for every record kind. Embedded kinds
// (comment, message) have no collection and no constructor.
var kinds = map[Kind]kindInfo{
	KindUser:             {collection: "users", newRecord: func() Record { return &User{} }},
	KindArticle:          {collection: "articles", newRecord: func() Record { return &Article{} }},
	KindRoom:             {collection: "rooms", newRecord: func() Record { return &Room{} }},
	KindImage:            {collection: "images", newRecord: func() Record { return &Image{} }},
	KindAnnotation:       {collection: "annotations", ancillary: true, newRecord: func() Record { return &Annotation{} }},
	KindVerificationCode: {collection: "verificationCodes", ancillary: true, newRecord: func() Record { return &VerificationCode{} }},
	KindComment:          {},
	KindMessage:          {},
}

var kindAliases = map[string]Kind{
	"u":                 KindUser,
	"user":              KindUser,
	"users":             KindUser,
	"a":                 KindArticle,
	"article":           KindArticle,
	"articles":          KindArticle,
	"r":                 KindRoom,
	"room":              KindRoom,
	"rooms":             KindRoom,
	"i":                 KindImage,
	"image":             KindImage,
	"images":            KindImage,
	"annotation":        KindAnnotation,
	"annotations":       KindAnnotation,
	"verificationcode":  KindVerificationCode,
	"verificationcodes": KindVerificationCode,
	"comment":           KindComment,
	"message":           KindMessage,
}

// ParseKind 将字符串（含历史别名）解析为 Kind。
func ParseKind(raw string) (Kind, error) {
	if kind, ok := kindAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return kind, nil
	}
	return "", ErrUnknownKind
}

// Valid reports whether k belongs to the closed set of kinds.
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// Stored reports whether records of k live in their own collection.
func (k Kind) Stored() bool {
	return kinds[k].collection != ""
}

// Ancillary reports whether records of k may be removed physically.
func (k Kind) Ancillary() bool {
	return kinds[k].ancillary
}

// Collection returns the physical collection name, empty for embedded kinds.
func (k Kind) Collection() string {
	return kinds[k].collection
}

// New returns an empty record of kind k.
func (k Kind) New() (Record, error) {
	info, ok := kinds[k]
	if !ok || info.newRecord == nil {
		return nil, ErrUnknownKind
	}
	return info.newRecord(), nil
}

// StoredKinds lists every kind that owns a collection, sorted by name.
func StoredKinds() []Kind {
	out := make([]Kind, 0, len(kinds))
	for kind := range kinds {
		if kind.Stored() {
			out = append(out, kind)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
