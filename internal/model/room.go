package model

import (
	"maps"
	"slices"
	"time"
)

// NoQuote marks a message that does not quote an earlier one.
const NoQuote int64 = -1

// Message 是聊天室中的一条消息，只追加不修改。
type Message struct {
	Author int64     `json:"author"`
	Quote  int64     `json:"quote"`
	Body   string    `json:"body"`
	Time   time.Time `json:"time"`
}

// Room 定义了私信聊天室模型
type Room struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Members   []int64           `json:"members"`
	Nicknames map[string]string `json:"nicknames"`
	Status    Status            `json:"status"`
	Messages  []Message         `json:"messages"`
}

// NewRoom assembles an empty room; members are normalized into a set.
func NewRoom(id int64, members []int64, name string) *Room {
	return &Room{
		ID:        id,
		Name:      name,
		Members:   NormalizeIDs(members),
		Nicknames: map[string]string{},
		Status:    StatusActive,
		Messages:  []Message{},
	}
}

// NewMessage assembles a message; quote is NoQuote or an earlier message index.
func NewMessage(author, quote int64, body string, at time.Time) Message {
	if quote < 0 {
		quote = NoQuote
	}
	return Message{Author: author, Quote: quote, Body: body, Time: at}
}

// IsMember reports whether uid belongs to the room.
func (r *Room) IsMember(uid int64) bool {
	return ContainsID(r.Members, uid)
}

func (r *Room) Kind() Kind { return KindRoom }
func (r *Room) RecordID() int64 { return r.ID }
func (r *Room) SetRecordID(id int64) { r.ID = id }
func (*Room) record() {}

func (r *Room) CloneRecord() Record {
	clone := *r
	clone.Members = cloneIDs(r.Members)
	clone.Nicknames = maps.Clone(r.Nicknames)
	if clone.Nicknames == nil {
		clone.Nicknames = map[string]string{}
	}
	clone.Messages = slices.Clone(r.Messages)
	if clone.Messages == nil {
		clone.Messages = []Message{}
	}
	return &clone
}
