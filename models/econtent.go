package models

import (
	"time"

	"github.com/google/uuid"
)

// E-CONTENT — mỗi khóa học có tối đa một bản ghi, chứa nhiều module,
// mỗi module chứa nhiều file tài liệu bổ trợ.
type EContent struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"course_id"`
	Course    Course    `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Modules []EContentModule `gorm:"foreignKey:EContentID;constraint:OnDelete:CASCADE;" json:"modules,omitempty"`
}

type EContentModule struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EContentID   uuid.UUID `gorm:"type:uuid;not null;index" json:"e_content_id"`
	EContent     EContent  `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	ModuleNumber int       `gorm:"not null;default:1" json:"module_number"`
	ModuleTitle  string    `gorm:"size:255;not null" json:"module_title"`
	Link         string    `gorm:"type:text" json:"link"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Files []EContentFile `gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE;" json:"files,omitempty"`
}

type EContentFile struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ModuleID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"module_id"`
	Module     EContentModule `gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE;" json:"-"`
	FileType   string         `gorm:"size:20" json:"file_type"` // pdf | ppt | pptx | doc | docx
	FileName   string         `gorm:"size:255;not null" json:"file_name"`
	FileURL    string         `gorm:"type:text;not null" json:"file_url"`
	FileKey    string         `gorm:"type:text" json:"-"`
	UploadDate time.Time      `gorm:"not null" json:"upload_date"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}
