package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// COURSE (KHÓA HỌC) — gốc của aggregate gồm 7 bảng thành phần 1:1,
// lecture/assignment 1:n và sinh viên qua bảng Enrollment.
type Course struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Slug        string    `gorm:"size:255;index" json:"slug"`
	AboutCourse string    `gorm:"type:text;not null" json:"about_course"`
	SemesterID  uuid.UUID `gorm:"type:uuid;not null" json:"semester_id"`
	Semester    Semester  `gorm:"foreignKey:SemesterID" json:"semester"`
	TeacherID   uuid.UUID `gorm:"type:uuid;not null" json:"teacher_id"`
	Teacher     Teacher   `gorm:"foreignKey:TeacherID" json:"teacher"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Outcomes     *CourseOutcome    `gorm:"foreignKey:CourseID" json:"outcomes,omitempty"`
	Schedule     *CourseSchedule   `gorm:"foreignKey:CourseID" json:"schedule,omitempty"`
	Syllabus     *CourseSyllabus   `gorm:"foreignKey:CourseID" json:"syllabus,omitempty"`
	WeeklyPlan   *WeeklyPlan       `gorm:"foreignKey:CourseID" json:"weekly_plan,omitempty"`
	CreditPoints *CreditPoints     `gorm:"foreignKey:CourseID" json:"credit_points,omitempty"`
	Attendance   *CourseAttendance `gorm:"foreignKey:CourseID" json:"attendance,omitempty"`
	EContent     *EContent         `gorm:"foreignKey:CourseID" json:"e_content,omitempty"`

	Lectures    []Lecture    `gorm:"foreignKey:CourseID" json:"lectures,omitempty"`
	Assignments []Assignment `gorm:"foreignKey:CourseID" json:"assignments,omitempty"`
	Students    []Student    `gorm:"many2many:enrollments;joinForeignKey:CourseID;joinReferences:StudentID" json:"students,omitempty"`
}

// Chuẩn đầu ra của khóa học
type CourseOutcome struct {
	ID        uuid.UUID                    `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID  uuid.UUID                    `gorm:"type:uuid;not null;uniqueIndex" json:"course_id"`
	Outcomes  datatypes.JSONSlice[string]  `gorm:"not null" json:"outcomes"`
	CreatedAt time.Time                    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time                    `gorm:"autoUpdateTime" json:"updated_at"`
}

type ClassDayTime struct {
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type CourseSchedule struct {
	ID                  uuid.UUID                         `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID            uuid.UUID                         `gorm:"type:uuid;not null;uniqueIndex" json:"course_id"`
	ClassStartDate      time.Time                         `gorm:"not null" json:"class_start_date"`
	ClassEndDate        time.Time                         `gorm:"not null" json:"class_end_date"`
	MidSemesterExamDate time.Time                         `gorm:"not null" json:"mid_semester_exam_date"`
	EndSemesterExamDate time.Time                         `gorm:"not null" json:"end_semester_exam_date"`
	ClassDaysAndTimes   datatypes.JSONSlice[ClassDayTime] `gorm:"not null" json:"class_days_and_times"`
	CreatedAt           time.Time                         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time                         `gorm:"autoUpdateTime" json:"updated_at"`
}

type SyllabusModule struct {
	ModuleNumber int      `json:"module_number"`
	ModuleTitle  string   `json:"module_title"`
	Topics       []string `json:"topics"`
}

type CourseSyllabus struct {
	ID        uuid.UUID                           `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID  uuid.UUID                           `gorm:"type:uuid;not null;uniqueIndex" json:"course_id"`
	Modules   datatypes.JSONSlice[SyllabusModule] `gorm:"not null" json:"modules"`
	CreatedAt time.Time                           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time                           `gorm:"autoUpdateTime" json:"updated_at"`
}

type PlanWeek struct {
	WeekNumber int      `json:"week_number"`
	Topics     []string `json:"topics"`
}

type WeeklyPlan struct {
	ID        uuid.UUID                     `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID  uuid.UUID                     `gorm:"type:uuid;not null;uniqueIndex" json:"course_id"`
	Weeks     datatypes.JSONSlice[PlanWeek] `gorm:"not null" json:"weeks"`
	CreatedAt time.Time                     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time                     `gorm:"autoUpdateTime" json:"updated_at"`
}

// Số tín chỉ theo từng hình thức học
type CreditPoints struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"course_id"`
	Lecture   int       `gorm:"not null;default:0" json:"lecture"`
	Tutorial  int       `gorm:"not null;default:0" json:"tutorial"`
	Practical int       `gorm:"not null;default:0" json:"practical"`
	Project   int       `gorm:"not null;default:0" json:"project"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Điểm danh theo buổi: map "tên buổi" -> danh sách id sinh viên có mặt
type CourseAttendance struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID  uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex" json:"course_id"`
	Sessions  datatypes.JSONMap `gorm:"not null" json:"sessions"`
	CreatedAt time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}
