package models

import (
	"time"

	"github.com/google/uuid"
)

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentDropped   EnrollmentStatus = "dropped"
)

// ENROLLMENT — bảng nối sinh viên/khóa học.
// Unique (student_id, course_id): không bao giờ có bản ghi trùng.
type Enrollment struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID      uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_enrollments_student_course" json:"student_id"`
	Student        Student          `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	CourseID       uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_enrollments_student_course" json:"course_id"`
	Course         Course           `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	EnrollmentDate time.Time        `gorm:"not null" json:"enrollment_date"`
	Status         EnrollmentStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}
