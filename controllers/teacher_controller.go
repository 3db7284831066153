package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/lms-backend/models"
	"github.com/vnkhanh/lms-backend/services"
)

// ==================== GIẢNG VIÊN ====================

// GET /api/teachers/me/students — danh sách sinh viên do giảng viên phụ trách,
// kèm số khóa học mỗi em đang ghi danh
func GetMyStudents(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	userUUID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id không hợp lệ"})
		return
	}

	teacher, err := services.ResolveTeacher(db, userUUID)
	if err != nil {
		handleServiceError(c, err, "Không thể tải hồ sơ giảng viên")
		return
	}

	var students []models.Student
	if err := db.Preload("User").
		Find(&students, "teacher_id = ?", teacher.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải danh sách sinh viên"})
		return
	}

	list := make([]gin.H, 0, len(students))
	for _, student := range students {
		var enrollmentCount int64
		db.Model(&models.Enrollment{}).
			Where("student_id = ?", student.ID).Count(&enrollmentCount)

		list = append(list, gin.H{
			"id":               student.ID,
			"name":             student.User.Name,
			"email":            student.User.Email,
			"program":          student.Program,
			"semester":         student.Semester,
			"enrolled_courses": enrollmentCount,
		})
	}

	c.JSON(http.StatusOK, gin.H{"students": list})
}

// PUT /api/students/:studentId/teacher — admin gán/đổi giảng viên phụ trách.
// teacher_email denormalized nên phải cập nhật cùng lúc.
func AssignStudentTeacher(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	studentUUID, err := uuid.Parse(c.Param("studentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "studentId không hợp lệ"})
		return
	}

	var input struct {
		TeacherEmail string `json:"teacher_email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var student models.Student
	if err := db.First(&student, "id = ?", studentUUID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy sinh viên"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải sinh viên"})
		}
		return
	}

	var teacher models.Teacher
	if err := db.First(&teacher, "email = ?", input.TeacherEmail).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy giảng viên với email này"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải giảng viên"})
		}
		return
	}

	updates := map[string]interface{}{
		"teacher_id":    teacher.ID,
		"teacher_email": teacher.Email,
	}
	if err := db.Model(&student).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật giảng viên phụ trách"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cập nhật giảng viên phụ trách thành công",
		"student": gin.H{
			"id":            student.ID,
			"teacher_id":    teacher.ID,
			"teacher_email": teacher.Email,
		},
	})
}
