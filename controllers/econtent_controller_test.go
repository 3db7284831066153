package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vnkhanh/lms-backend/models"
)

func seedEContentModule(t *testing.T, db *gorm.DB, courseID uuid.UUID) *models.EContentModule {
	t.Helper()

	econtent := models.EContent{}
	require.NoError(t, db.Where("course_id = ?", courseID).
		FirstOrCreate(&econtent, models.EContent{CourseID: courseID}).Error)

	module := models.EContentModule{
		EContentID:   econtent.ID,
		ModuleNumber: 1,
		ModuleTitle:  "Chương 1",
		Link:         "https://tailieu.test/ch1",
	}
	require.NoError(t, db.Create(&module).Error)
	return &module
}

// Chủ khóa học sửa được thông tin module, field vắng mặt giữ nguyên
func TestUpdateEContentModuleMetadata(t *testing.T) {
	db := setupTestDB(t)
	teacher := seedTeacher(t, db, "gv@test.edu")
	semester := seedSemester(t, db, "HK1")
	course := seedCourse(t, db, teacher, semester)
	module := seedEContentModule(t, db, course.ID)

	c, w := testContext(t, db, teacher.UserID, "teacher")
	c.Params = gin.Params{{Key: "moduleId", Value: module.ID.String()}}
	formRequest(t, c, http.MethodPut, map[string]string{
		"module_number": "2",
		"module_title":  "Chương 2",
	})

	UpdateEContentModule(c)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var saved models.EContentModule
	require.NoError(t, db.First(&saved, "id = ?", module.ID).Error)
	assert.Equal(t, 2, saved.ModuleNumber)
	assert.Equal(t, "Chương 2", saved.ModuleTitle)
	assert.Equal(t, "https://tailieu.test/ch1", saved.Link) // không gửi thì giữ nguyên
}

func TestUpdateEContentModuleInvalidNumber(t *testing.T) {
	db := setupTestDB(t)
	teacher := seedTeacher(t, db, "gv@test.edu")
	semester := seedSemester(t, db, "HK1")
	course := seedCourse(t, db, teacher, semester)
	module := seedEContentModule(t, db, course.ID)

	c, w := testContext(t, db, teacher.UserID, "teacher")
	c.Params = gin.Params{{Key: "moduleId", Value: module.ID.String()}}
	formRequest(t, c, http.MethodPut, map[string]string{"module_number": "0"})

	UpdateEContentModule(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var saved models.EContentModule
	require.NoError(t, db.First(&saved, "id = ?", module.ID).Error)
	assert.Equal(t, 1, saved.ModuleNumber)
}

// Giảng viên khác không sửa được module của khóa học không thuộc mình
func TestUpdateEContentModuleNotOwner(t *testing.T) {
	db := setupTestDB(t)
	owner := seedTeacher(t, db, "gv@test.edu")
	other := seedTeacher(t, db, "gv2@test.edu")
	semester := seedSemester(t, db, "HK1")
	course := seedCourse(t, db, owner, semester)
	module := seedEContentModule(t, db, course.ID)

	c, w := testContext(t, db, other.UserID, "teacher")
	c.Params = gin.Params{{Key: "moduleId", Value: module.ID.String()}}
	formRequest(t, c, http.MethodPut, map[string]string{"module_title": "Chiếm module"})

	UpdateEContentModule(c)

	assert.Equal(t, http.StatusForbidden, w.Code)

	var saved models.EContentModule
	require.NoError(t, db.First(&saved, "id = ?", module.ID).Error)
	assert.Equal(t, "Chương 1", saved.ModuleTitle)
}
