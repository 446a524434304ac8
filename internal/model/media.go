package model

import (
	"strings"
	"time"
)

// Image 记录一次图片上传。
type Image struct {
	ID          int64     `json:"id"`
	Owner       int64     `json:"owner"`
	URL         string    `json:"url"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Size        int64     `json:"size"`
	CreateTime  time.Time `json:"createTime"`
	Status      Status    `json:"status"`
}

// ImageFields carries the decoded attributes of an uploaded file.
type ImageFields struct {
	Owner       int64
	URL         string
	FileName    string
	ContentType string
	Width       int
	Height      int
	Size        int64
}

func NewImage(id int64, fields ImageFields, createTime time.Time) *Image {
	return &Image{
		ID:          id,
		Owner:       fields.Owner,
		URL:         fields.URL,
		FileName:    fields.FileName,
		ContentType: fields.ContentType,
		Width:       fields.Width,
		Height:      fields.Height,
		Size:        fields.Size,
		CreateTime:  createTime,
		Status:      StatusActive,
	}
}

func (i *Image) Kind() Kind { return KindImage }
func (i *Image) RecordID() int64 { return i.ID }
func (i *Image) SetRecordID(id int64) { i.ID = id }
func (*Image) record() {}

func (i *Image) CloneRecord() Record {
	clone := *i
	return &clone
}

// Annotation 是对文章正文某一区间（按字符计）的批注。
type Annotation struct {
	ID      int64     `json:"id"`
	Article int64     `json:"article"`
	Author  int64     `json:"author"`
	Start   int       `json:"start"`
	End     int       `json:"end"`
	Content string    `json:"content"`
	Time    time.Time `json:"time"`
	Status  Status    `json:"status"`
}

func NewAnnotation(id, article, author int64, start, end int, content string, at time.Time) *Annotation {
	return &Annotation{
		ID:      id,
		Article: article,
		Author:  author,
		Start:   start,
		End:     end,
		Content: content,
		Time:    at,
		Status:  StatusActive,
	}
}

func (a *Annotation) Kind() Kind { return KindAnnotation }
func (a *Annotation) RecordID() int64 { return a.ID }
func (a *Annotation) SetRecordID(id int64) { a.ID = id }
func (*Annotation) record() {}
func (a *Annotation) SearchText() string { return strings.ToLower(a.Content) }

func (a *Annotation) CloneRecord() Record {
	clone := *a
	return &clone
}

// VerificationCode 是发往邮箱的一次性验证码。
type VerificationCode struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Code       string    `json:"code"`
	Expiration time.Time `json:"expiration"`
}

func NewVerificationCode(id int64, email, code string, expiration time.Time) *VerificationCode {
	return &VerificationCode{ID: id, Email: email, Code: code, Expiration: expiration}
}

// Expired reports whether the code is no longer valid at now.
func (v *VerificationCode) Expired(now time.Time) bool {
	return !now.Before(v.Expiration)
}

func (v *VerificationCode) Kind() Kind { return KindVerificationCode }
func (v *VerificationCode) RecordID() int64 { return v.ID }
func (v *VerificationCode) SetRecordID(id int64) { v.ID = id }
func (*VerificationCode) record() {}

func (v *VerificationCode) CloneRecord() Record {
	clone := *v
	return &clone
}
