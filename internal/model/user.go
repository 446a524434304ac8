package model

import (
	"slices"
	"time"
)

// User 定义了用户模型
type User struct {
	ID              int64     `json:"id"`
	Username        string    `json:"username"`
	NameFirst       string    `json:"nameFirst"`
	NameLast        string    `json:"nameLast"`
	Email           string    `json:"email"`
	Password        string    `json:"password"`
	PasswordAttempt int       `json:"passwordAttempt"`
	CreateTime      time.Time `json:"createTime"`
	Library         []int64   `json:"library"`
	Publications    []int64   `json:"publications"`
	Followers       []int64   `json:"followers"`
	Following       []int64   `json:"following"`
	ActiveSessions  []int64   `json:"activeSessions"`
	LastSessionID   int64     `json:"lastSessionId"`
	Status          Status    `json:"status"`
}

// NewUser assembles a fresh active account. password must already be hashed.
func NewUser(id int64, username, email, password string, createTime time.Time) *User {
	return &User{
		ID:             id,
		Username:       username,
		Email:          email,
		Password:       password,
		CreateTime:     createTime,
		Library:        []int64{},
		Publications:   []int64{},
		Followers:      []int64{},
		Following:      []int64{},
		ActiveSessions: []int64{},
		LastSessionID:  -1,
		Status:         StatusActive,
	}
}

func (u *User) Kind() Kind { return KindUser }
func (u *User) RecordID() int64 { return u.ID }
func (u *User) SetRecordID(id int64) { u.ID = id }
func (*User) record() {}
func (u *User) SearchText() string { return joinSearchText(u.Username, u.NameFirst, u.NameLast) }

func (u *User) CloneRecord() Record {
	clone := *u
	clone.Library = cloneIDs(u.Library)
	clone.Publications = cloneIDs(u.Publications)
	clone.Followers = cloneIDs(u.Followers)
	clone.Following = cloneIDs(u.Following)
	clone.ActiveSessions = slices.Clone(u.ActiveSessions)
	if clone.ActiveSessions == nil {
		clone.ActiveSessions = []int64{}
	}
	return &clone
}
