package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vnkhanh/lms-backend/models"
	"github.com/vnkhanh/lms-backend/utils"
)

// setupTestDB mở một database sqlite in-memory riêng cho từng test
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Teacher{},
		&models.Student{},
		&models.Semester{},
		&models.Course{},
		&models.CourseOutcome{},
		&models.CourseSchedule{},
		&models.CourseSyllabus{},
		&models.WeeklyPlan{},
		&models.CreditPoints{},
		&models.CourseAttendance{},
		&models.Enrollment{},
		&models.Lecture{},
		&models.Assignment{},
		&models.Submission{},
		&models.EContent{},
		&models.EContentModule{},
		&models.EContentFile{},
		&models.Event{},
		&models.StorageOrphan{},
	))

	return db
}

func seedTeacher(t *testing.T, db *gorm.DB, email string) *models.Teacher {
	t.Helper()

	user := models.User{
		Name:     "GV " + email,
		Email:    email,
		Password: "x",
		Role:     models.RoleTeacher,
	}
	require.NoError(t, db.Create(&user).Error)

	teacher := models.Teacher{UserID: user.ID, Email: email}
	require.NoError(t, db.Create(&teacher).Error)
	teacher.User = user
	return &teacher
}

func seedStudent(t *testing.T, db *gorm.DB, email string, teacher *models.Teacher) *models.Student {
	t.Helper()

	user := models.User{
		Name:     "SV " + email,
		Email:    email,
		Password: "x",
		Role:     models.RoleStudent,
	}
	require.NoError(t, db.Create(&user).Error)

	student := models.Student{UserID: user.ID, Program: "CNTT", Semester: 1}
	if teacher != nil {
		student.TeacherID = &teacher.ID
		student.TeacherEmail = teacher.Email
	}
	require.NoError(t, db.Create(&student).Error)
	student.User = user
	return &student
}

func seedSemester(t *testing.T, db *gorm.DB, name string) *models.Semester {
	t.Helper()

	semester := models.Semester{
		Name:      name,
		StartDate: time.Now().AddDate(0, -1, 0),
		EndDate:   time.Now().AddDate(0, 4, 0),
	}
	require.NoError(t, db.Create(&semester).Error)
	return &semester
}

func seedCourse(t *testing.T, db *gorm.DB, teacher *models.Teacher, semester *models.Semester) *models.Course {
	t.Helper()

	course, err := CreateCourse(db, teacher, CreateCourseInput{
		Title:       "Khóa học test " + uuid.NewString()[:8],
		AboutCourse: "Mô tả",
		SemesterID:  semester.ID,
	})
	require.NoError(t, err)
	return course
}

// fakeStore là FileStore giả cho test: đếm upload, ghi lại key đã xóa,
// và có thể ép lỗi xóa theo key hoặc toàn bộ.
type fakeStore struct {
	uploads  int
	deleted  []string
	failAll  bool
	failKeys map[string]bool
}

func (s *fakeStore) Upload(data []byte, contentType, pathPrefix, fileName string) (utils.UploadResult, error) {
	s.uploads++
	key := fmt.Sprintf("%s/%s", pathPrefix, fileName)
	return utils.UploadResult{Key: key, URL: "https://store.test/" + key}, nil
}

func (s *fakeStore) Delete(key string) error {
	if s.failAll || s.failKeys[key] {
		return fmt.Errorf("store không phản hồi")
	}
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeStore) hasDeleted(key string) bool {
	for _, k := range s.deleted {
		if k == key {
			return true
		}
	}
	return false
}
