package models

import (
	"time"

	"github.com/google/uuid"
)

// STORAGE ORPHAN — key trên object store xóa thất bại trong lúc cascade.
// Transaction DB không chờ store: key lỗi được ghi lại đây và job nền
// xóa lại định kỳ cho tới khi thành công.
type StorageOrphan struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Key       string    `gorm:"type:text;not null;uniqueIndex" json:"key"`
	LastError string    `gorm:"type:text" json:"last_error"`
	Attempts  int       `gorm:"not null;default:0" json:"attempts"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
