package controllers

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vnkhanh/lms-backend/models"
	"github.com/vnkhanh/lms-backend/services"
)

// setupTestDB mở một database sqlite in-memory riêng cho từng test
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

// testContext dựng gin context như sau khi qua AuthMiddleware + DBMiddleware
func testContext(t *testing.T, db *gorm.DB, userID uuid.UUID, role string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("db", db)
	c.Set("user_id", userID.String())
	c.Set("role", role)
	return c, w
}

func jsonRequest(c *gin.Context, method, body string) {
	c.Request = httptest.NewRequest(method, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
}

// formRequest dựng request multipart chỉ có field text, không file
func formRequest(t *testing.T, c *gin.Context, method string, fields map[string]string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	c.Request = httptest.NewRequest(method, "/", &buf)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())
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

	course, err := services.CreateCourse(db, teacher, services.CreateCourseInput{
		Title:       "Khóa học test " + uuid.NewString()[:8],
		AboutCourse: "Mô tả",
		SemesterID:  semester.ID,
	})
	require.NoError(t, err)
	return course
}

func seedAssignment(t *testing.T, db *gorm.DB, courseID uuid.UUID, totalPoints float64) *models.Assignment {
	t.Helper()

	assignment := models.Assignment{
		CourseID:    courseID,
		Title:       "Bài tập",
		Description: "Mô tả",
		DueDate:     time.Now().Add(24 * time.Hour),
		TotalPoints: totalPoints,
		IsActive:    true,
	}
	require.NoError(t, db.Create(&assignment).Error)
	return &assignment
}

func seedSubmission(t *testing.T, db *gorm.DB, assignment *models.Assignment, student *models.Student) *models.Submission {
	t.Helper()

	submission := models.Submission{
		AssignmentID:   assignment.ID,
		StudentID:      student.ID,
		SubmissionFile: "https://store.test/bai.pdf",
		SubmissionKey:  "submissions/bai.pdf",
		SubmissionDate: time.Now(),
		Status:         models.SubmissionSubmitted,
	}
	require.NoError(t, db.Create(&submission).Error)
	return &submission
}
