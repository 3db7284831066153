package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ID sinh ở tầng ứng dụng, không phụ thuộc extension pgcrypto của Postgres
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (m *User) BeforeCreate(*gorm.DB) error            { ensureID(&m.ID); return nil }
func (m *Teacher) BeforeCreate(*gorm.DB) error         { ensureID(&m.ID); return nil }
func (m *Student) BeforeCreate(*gorm.DB) error         { ensureID(&m.ID); return nil }
func (m *Semester) BeforeCreate(*gorm.DB) error        { ensureID(&m.ID); return nil }
func (m *Course) BeforeCreate(*gorm.DB) error          { ensureID(&m.ID); return nil }
func (m *CourseOutcome) BeforeCreate(*gorm.DB) error   { ensureID(&m.ID); return nil }
func (m *CourseSchedule) BeforeCreate(*gorm.DB) error  { ensureID(&m.ID); return nil }
func (m *CourseSyllabus) BeforeCreate(*gorm.DB) error  { ensureID(&m.ID); return nil }
func (m *WeeklyPlan) BeforeCreate(*gorm.DB) error      { ensureID(&m.ID); return nil }
func (m *CreditPoints) BeforeCreate(*gorm.DB) error    { ensureID(&m.ID); return nil }
func (m *CourseAttendance) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }
func (m *Lecture) BeforeCreate(*gorm.DB) error         { ensureID(&m.ID); return nil }
func (m *Enrollment) BeforeCreate(*gorm.DB) error      { ensureID(&m.ID); return nil }
func (m *Assignment) BeforeCreate(*gorm.DB) error      { ensureID(&m.ID); return nil }
func (m *Submission) BeforeCreate(*gorm.DB) error      { ensureID(&m.ID); return nil }
func (m *EContent) BeforeCreate(*gorm.DB) error        { ensureID(&m.ID); return nil }
func (m *EContentModule) BeforeCreate(*gorm.DB) error  { ensureID(&m.ID); return nil }
func (m *EContentFile) BeforeCreate(*gorm.DB) error    { ensureID(&m.ID); return nil }
func (m *Event) BeforeCreate(*gorm.DB) error           { ensureID(&m.ID); return nil }
func (m *StorageOrphan) BeforeCreate(*gorm.DB) error   { ensureID(&m.ID); return nil }
