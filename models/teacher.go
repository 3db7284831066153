package models

import (
	"time"

	"github.com/google/uuid"
)

// Hồ sơ giảng viên, 1:1 với User có role teacher
type Teacher struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE;" json:"user"`
	Email     string    `gorm:"size:150;not null" json:"email"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Students []Student `gorm:"foreignKey:TeacherID" json:"students,omitempty"`
	Courses  []Course  `gorm:"foreignKey:TeacherID" json:"courses,omitempty"`
}

// Hồ sơ sinh viên, 1:1 với User có role student.
// Mỗi sinh viên thuộc đúng một giảng viên tại một thời điểm.
type Student struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User         User       `gorm:"constraint:OnDelete:CASCADE;" json:"user"`
	TeacherID    *uuid.UUID `gorm:"type:uuid" json:"teacher_id"`
	Teacher      *Teacher   `gorm:"foreignKey:TeacherID" json:"teacher,omitempty"`
	TeacherEmail string     `gorm:"size:150" json:"teacher_email"` // denormalized, cập nhật khi đổi giảng viên
	Program      string     `gorm:"size:150" json:"program"`
	Semester     int        `gorm:"default:1" json:"semester"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Enrollments []Enrollment `gorm:"foreignKey:StudentID" json:"enrollments,omitempty"`
}
