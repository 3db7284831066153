package models

import (
	"time"

	"github.com/google/uuid"
)

// LECTURE (BÀI GIẢNG)
// is_reviewed chỉ tự chuyển false -> true khi quá hạn review_deadline;
// chiều ngược lại chỉ có giảng viên toggle tay.
type Lecture struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"course_id"`
	Course         Course     `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	Title          string     `gorm:"size:255;not null" json:"title"`
	Content        string     `gorm:"type:text" json:"content"`
	VideoURL       string     `gorm:"type:text" json:"video_url"`
	VideoKey       string     `gorm:"type:text" json:"-"` // key trên object store, dùng khi xóa
	IsReviewed     bool       `gorm:"not null;default:false" json:"is_reviewed"`
	ReviewDeadline *time.Time `json:"review_deadline"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
