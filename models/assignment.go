package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// File đính kèm bài tập, lưu trên object store
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Key  string `json:"key"`
}

// ASSIGNMENT (BÀI TẬP)
type Assignment struct {
	ID          uuid.UUID                       `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID    uuid.UUID                       `gorm:"type:uuid;not null;index" json:"course_id"`
	Course      Course                          `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	Title       string                          `gorm:"size:255;not null" json:"title"`
	Description string                          `gorm:"type:text;not null" json:"description"`
	DueDate     time.Time                       `gorm:"not null" json:"due_date"`
	TotalPoints float64                         `gorm:"type:numeric(6,2);not null" json:"total_points"`
	IsActive    bool                            `gorm:"not null;default:true" json:"is_active"`
	Attachments datatypes.JSONSlice[Attachment] `json:"attachments"`
	CreatedAt   time.Time                       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time                       `gorm:"autoUpdateTime" json:"updated_at"`

	Submissions []Submission `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE;" json:"submissions,omitempty"`
}

type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionGraded    SubmissionStatus = "graded"
	SubmissionReturned  SubmissionStatus = "returned" // giữ trong enum, hiện chưa có luồng nào tạo ra
)

// SUBMISSION (BÀI NỘP)
// Tối đa một bản ghi cho mỗi cặp (assignment_id, student_id); nộp lại thì
// ghi đè bản ghi cũ thay vì thêm dòng mới.
type Submission struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	AssignmentID   uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_submissions_assignment_student" json:"assignment_id"`
	Assignment     Assignment       `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	StudentID      uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_submissions_assignment_student" json:"student_id"`
	Student        Student          `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	SubmissionFile string           `gorm:"type:text;not null" json:"submission_file"`
	SubmissionKey  string           `gorm:"type:text" json:"-"`
	SubmissionDate time.Time        `gorm:"not null" json:"submission_date"`
	Grade          *float64         `gorm:"type:numeric(6,2)" json:"grade"`
	Feedback       *string          `gorm:"type:text" json:"feedback"`
	Status         SubmissionStatus `gorm:"type:varchar(20);not null;default:'submitted'" json:"status"`
	IsLate         bool             `gorm:"not null;default:false" json:"is_late"` // chốt tại thời điểm nộp, không tính lại
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}
