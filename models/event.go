package models

import (
	"time"

	"github.com/google/uuid"
)

// EVENT (SỰ KIỆN) — thông báo độc lập, không gắn với khóa học
type Event struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Slug        string    `gorm:"size:255;index" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	Date        time.Time `gorm:"not null" json:"date"`
	Time        string    `gorm:"size:50;not null" json:"time"`
	Location    string    `gorm:"size:255;not null" json:"location"`
	Link        string    `gorm:"type:text;not null" json:"link"` // bắt buộc dạng http(s)://
	ImageURL    string    `gorm:"type:text" json:"image_url"`
	ImageKey    string    `gorm:"type:text" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
