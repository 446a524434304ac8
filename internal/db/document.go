package db

import (
	"time"

	"gorm.io/datatypes"
)

// Document 是文档存储中的一行：集合名 + 记录 id 唯一定位一条 JSON 记录。
// Version 在每次写入时递增，用于乐观并发控制。
type Document struct {
	ID         uint           `gorm:"primaryKey"`
	Collection string         `gorm:"size:32;not null;uniqueIndex:idx_documents_collection_record"`
	RecordID   int64          `gorm:"not null;uniqueIndex:idx_documents_collection_record"`
	Body       datatypes.JSON `gorm:"not null"`
	Version    int64          `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName 指定自定义表名。
func (Document) TableName() string {
	return "documents"
}
