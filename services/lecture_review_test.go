package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vnkhanh/lms-backend/models"
)

func seedLecture(t *testing.T, db *gorm.DB, courseID uuid.UUID, reviewed bool, deadline *time.Time) *models.Lecture {
	t.Helper()
	lecture := models.Lecture{
		CourseID:       courseID,
		Title:          "Bài giảng",
		IsReviewed:     reviewed,
		ReviewDeadline: deadline,
	}
	require.NoError(t, db.Create(&lecture).Error)
	return &lecture
}

func TestReconcileCourseReviews(t *testing.T) {
	db := setupTestDB(t)
	teacher := seedTeacher(t, db, "gv@test.edu")
	semester := seedSemester(t, db, "HK1")
	course := seedCourse(t, db, teacher, semester)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(24 * time.Hour)

	overdue := seedLecture(t, db, course.ID, false, &past)
	pending := seedLecture(t, db, course.ID, false, &future)
	noDeadline := seedLecture(t, db, course.ID, false, nil)
	alreadyReviewed := seedLecture(t, db, course.ID, true, &past)

	updated, err := ReconcileCourseReviews(db, course.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated, "chỉ bài quá hạn chưa review được bật")

	check := func(id uuid.UUID) bool {
		var lecture models.Lecture
		require.NoError(t, db.First(&lecture, "id = ?", id).Error)
		return lecture.IsReviewed
	}
	assert.True(t, check(overdue.ID))
	assert.False(t, check(pending.ID))
	assert.False(t, check(noDeadline.ID), "không có hạn thì không bao giờ tự bật")
	assert.True(t, check(alreadyReviewed.ID))

	// Idempotent: gọi lại không đổi thêm dòng nào
	updated, err = ReconcileCourseReviews(db, course.ID)
	require.NoError(t, err)
	assert.Zero(t, updated)
}

func TestReconcileCourseReviewsNoAutoRevert(t *testing.T) {
	db := setupTestDB(t)
	teacher := seedTeacher(t, db, "gv@test.edu")
	semester := seedSemester(t, db, "HK1")
	course := seedCourse(t, db, teacher, semester)

	// Giảng viên bật review tay trước hạn
	future := time.Now().Add(24 * time.Hour)
	manual := seedLecture(t, db, course.ID, true, &future)

	updated, err := ReconcileCourseReviews(db, course.ID)
	require.NoError(t, err)
	assert.Zero(t, updated)

	var lecture models.Lecture
	require.NoError(t, db.First(&lecture, "id = ?", manual.ID).Error)
	assert.True(t, lecture.IsReviewed, "reconcile không bao giờ tắt review")
}

func TestReconcileLectureLazy(t *testing.T) {
	db := setupTestDB(t)
	teacher := seedTeacher(t, db, "gv@test.edu")
	semester := seedSemester(t, db, "HK1")
	course := seedCourse(t, db, teacher, semester)

	past := time.Now().Add(-time.Minute)
	overdue := seedLecture(t, db, course.ID, false, &past)

	require.NoError(t, ReconcileLecture(db, overdue))
	assert.True(t, overdue.IsReviewed, "struct trong tay caller phải được cập nhật")

	var reloaded models.Lecture
	require.NoError(t, db.First(&reloaded, "id = ?", overdue.ID).Error)
	assert.True(t, reloaded.IsReviewed, "trạng thái phải được persist")

	future := time.Now().Add(time.Hour)
	pending := seedLecture(t, db, course.ID, false, &future)
	require.NoError(t, ReconcileLecture(db, pending))
	assert.False(t, pending.IsReviewed)
}

func TestVisibleLectures(t *testing.T) {
	lectures := []models.Lecture{
		{Title: "Đã review", IsReviewed: true},
		{Title: "Chưa review", IsReviewed: false},
	}

	forStudent := VisibleLectures(lectures, models.RoleStudent)
	require.Len(t, forStudent, 1)
	assert.Equal(t, "Đã review", forStudent[0].Title)

	forTeacher := VisibleLectures(lectures, models.RoleTeacher)
	assert.Len(t, forTeacher, 2)
}
