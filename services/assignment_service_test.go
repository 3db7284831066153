package services

import (
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vnkhanh/lms-backend/config"
	"github.com/vnkhanh/lms-backend/models"
)

func seedAssignment(t *testing.T, db *gorm.DB, courseID uuid.UUID, dueDate time.Time, totalPoints float64) *models.Assignment {
	t.Helper()
	assignment := models.Assignment{
		CourseID:    courseID,
		Title:       "Bài tập",
		Description: "Mô tả",
		DueDate:     dueDate,
		TotalPoints: totalPoints,
		IsActive:    true,
	}
	require.NoError(t, db.Create(&assignment).Error)
	return &assignment
}

func TestSubmitAssignmentUpsert(t *testing.T) {
	db := setupTestDB(t)
	teacher := seedTeacher(t, db, "gv@test.edu")
	semester := seedSemester(t, db, "HK1")
	student := seedStudent(t, db, "sv@test.edu", teacher)
	course := seedCourse(t, db, teacher, semester)
	assignment := seedAssignment(t, db, course.ID, time.Now().Add(24*time.Hour), 10)

	// Nộp lần đầu, trước hạn
	first, err := SubmitAssignment(db, assignment, student, "url-1", "key-1")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionSubmitted, first.Status)
	assert.False(t, first.IsLate)

	// Giảng viên chấm
	require.NoError(t, GradeSubmission(db, assignment, first, 8, "Tốt"))
	assert.Equal(t, models.SubmissionGraded, first.Status)

	// Nộp lại: vẫn đúng 1 dòng, trạng thái quay về submitted, điểm bị xóa
	second, err := SubmitAssignment(db, assignment, student, "url-2", "key-2")
	require.NoError(t, err)

	var count int64
	db.Model(&models.Submission{}).
		Where("assignment_id = ? AND student_id = ?", assignment.ID, student.ID).
		Count(&count)
	assert.EqualValues(t, 1, count)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "url-2", second.SubmissionFile)
	assert.Equal(t, models.SubmissionSubmitted, second.Status)
	assert.Nil(t, second.Grade)
	assert.Nil(t, second.Feedback)
}

func TestSubmitAssignmentLateFlag(t *testing.T) {
	db := setupTestDB(t)
	teacher := seedTeacher(t, db, "gv@test.edu")
	semester := seedSemester(t, db, "HK1")
	student := seedStudent(t, db, "sv@test.edu", teacher)
	course := seedCourse(t, db, teacher, semester)

	// Hạn đã qua -> is_late chốt true tại thời điểm nộp
	assignment := seedAssignment(t, db, course.ID, time.Now().Add(-time.Hour), 10)

	submission, err := SubmitAssignment(db, assignment, student, "url", "key")
	require.NoError(t, err)
	assert.True(t, submission.IsLate)

	// Đổi hạn về tương lai rồi chấm: is_late không được tính lại
	require.NoError(t, db.Model(assignment).Update("due_date", time.Now().Add(48*time.Hour)).Error)
	require.NoError(t, db.First(assignment, "id = ?", assignment.ID).Error)
	require.NoError(t, GradeSubmission(db, assignment, submission, 5, ""))

	var reloaded models.Submission
	require.NoError(t, db.First(&reloaded, "id = ?", submission.ID).Error)
	assert.True(t, reloaded.IsLate, "is_late chốt lúc nộp, không tính lại khi chấm hay đổi hạn")
}

func TestSubmitAssignmentInactiveRejected(t *testing.T) {
	db := setupTestDB(t)
	teacher := seedTeacher(t, db, "gv@test.edu")
	semester := seedSemester(t, db, "HK1")
	student := seedStudent(t, db, "sv@test.edu", teacher)
	course := seedCourse(t, db, teacher, semester)

	assignment := seedAssignment(t, db, course.ID, time.Now().Add(24*time.Hour), 10)
	require.NoError(t, db.Model(assignment).Update("is_active", false).Error)
	assignment.IsActive = false

	_, err := SubmitAssignment(db, assignment, student, "url", "key")
	require.ErrorIs(t, err, ErrValidation)

	var count int64
	db.Model(&models.Submission{}).Count(&count)
	assert.Zero(t, count)
}

func TestGradeSubmissionBounds(t *testing.T) {
	db := setupTestDB(t)
	teacher := seedTeacher(t, db, "gv@test.edu")
	semester := seedSemester(t, db, "HK1")
	student := seedStudent(t, db, "sv@test.edu", teacher)
	course := seedCourse(t, db, teacher, semester)
	assignment := seedAssignment(t, db, course.ID, time.Now().Add(24*time.Hour), 10)

	submission, err := SubmitAssignment(db, assignment, student, "url", "key")
	require.NoError(t, err)

	// Quá khung trên
	err = GradeSubmission(db, assignment, submission, 10.5, "")
	require.ErrorIs(t, err, ErrValidation)

	// Âm
	err = GradeSubmission(db, assignment, submission, -1, "")
	require.ErrorIs(t, err, ErrValidation)

	// Bài nộp giữ nguyên trạng thái sau hai lần chấm hỏng
	var reloaded models.Submission
	require.NoError(t, db.First(&reloaded, "id = ?", submission.ID).Error)
	assert.Equal(t, models.SubmissionSubmitted, reloaded.Status)
	assert.Nil(t, reloaded.Grade)

	// Biên hợp lệ: 0 và total_points đều được chấp nhận
	require.NoError(t, GradeSubmission(db, assignment, submission, 0, ""))
	require.NoError(t, GradeSubmission(db, assignment, submission, 10, "Tuyệt đối"))

	require.NoError(t, db.First(&reloaded, "id = ?", submission.ID).Error)
	assert.Equal(t, models.SubmissionGraded, reloaded.Status)
	require.NotNil(t, reloaded.Grade)
	assert.Equal(t, 10.0, *reloaded.Grade)
}

func TestValidateUploadFiles(t *testing.T) {
	makeFile := func(name, contentType string, size int64) *multipart.FileHeader {
		return &multipart.FileHeader{
			Filename: name,
			Size:     size,
			Header:   textproto.MIMEHeader{"Content-Type": []string{contentType}},
		}
	}

	// Hợp lệ
	err := ValidateUploadFiles([]*multipart.FileHeader{
		makeFile("de.pdf", "application/pdf", 1024),
		makeFile("anh.png", "image/png", 2048),
	}, config.AllowedAttachmentTypes, config.MaxAttachmentSize)
	assert.NoError(t, err)

	// MIME lạ -> từ chối cả lô
	err = ValidateUploadFiles([]*multipart.FileHeader{
		makeFile("de.pdf", "application/pdf", 1024),
		makeFile("script.sh", "application/x-sh", 100),
	}, config.AllowedAttachmentTypes, config.MaxAttachmentSize)
	require.ErrorIs(t, err, ErrValidation)

	// Quá 5MB
	err = ValidateUploadFiles([]*multipart.FileHeader{
		makeFile("to.pdf", "application/pdf", config.MaxAttachmentSize+1),
	}, config.AllowedAttachmentTypes, config.MaxAttachmentSize)
	require.ErrorIs(t, err, ErrValidation)
}
