package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/lms-backend/models"
)

// Người không có quyền truy cập bị chặn trước khi trạng thái review
// của bài giảng được đồng bộ
func TestGetCourseByIDGuardBeforeReconcile(t *testing.T) {
	db := setupTestDB(t)
	owner := seedTeacher(t, db, "gv@test.edu")
	otherTeacher := seedTeacher(t, db, "gv2@test.edu")
	outsider := seedStudent(t, db, "sv-ngoai@test.edu", otherTeacher)
	semester := seedSemester(t, db, "HK1")
	course := seedCourse(t, db, owner, semester)

	past := time.Now().Add(-time.Hour)
	lecture := models.Lecture{
		CourseID:       course.ID,
		Title:          "Bài giảng quá hạn",
		IsReviewed:     false,
		ReviewDeadline: &past,
	}
	require.NoError(t, db.Create(&lecture).Error)

	c, w := testContext(t, db, outsider.UserID, "student")
	c.Params = gin.Params{{Key: "courseId", Value: course.ID.String()}}
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	GetCourseByID(c)

	assert.Equal(t, http.StatusForbidden, w.Code)

	var saved models.Lecture
	require.NoError(t, db.First(&saved, "id = ?", lecture.ID).Error)
	assert.False(t, saved.IsReviewed, "request bị chặn không được đụng vào dữ liệu")

	// Chủ khóa học truy cập thì bài giảng quá hạn được bật review
	c2, w2 := testContext(t, db, owner.UserID, "teacher")
	c2.Params = gin.Params{{Key: "courseId", Value: course.ID.String()}}
	c2.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	GetCourseByID(c2)

	require.Equal(t, http.StatusOK, w2.Code, w2.Body.String())
	require.NoError(t, db.First(&saved, "id = ?", lecture.ID).Error)
	assert.True(t, saved.IsReviewed)
}
