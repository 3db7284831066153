package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/lms-backend/models"
	"github.com/vnkhanh/lms-backend/services"
)

// ==================== SINH VIÊN ====================

// POST /api/courses/:courseId/enroll — sinh viên tự ghi danh.
// Chỉ ghi danh được khóa học của giảng viên phụ trách mình;
// ghi danh trùng trả 409.
func EnrollCourse(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	userUUID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id không hợp lệ"})
		return
	}
	courseUUID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "courseId không hợp lệ"})
		return
	}

	student, err := services.ResolveStudent(db, userUUID)
	if err != nil {
		handleServiceError(c, err, "Không thể tải hồ sơ sinh viên")
		return
	}

	course, err := services.FindCourse(db, courseUUID)
	if err != nil {
		handleServiceError(c, err, "Không thể tải khóa học")
		return
	}

	if student.TeacherID == nil || *student.TeacherID != course.TeacherID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Khóa học này không thuộc giảng viên phụ trách của bạn"})
		return
	}

	enrolled, err := services.IsEnrolled(db, student.ID, course.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể kiểm tra ghi danh"})
		return
	}
	if enrolled {
		c.JSON(http.StatusConflict, gin.H{"error": "Bạn đã ghi danh khóa học này rồi"})
		return
	}

	enrollment := models.Enrollment{
		StudentID:      student.ID,
		CourseID:       course.ID,
		EnrollmentDate: time.Now(),
		Status:         models.EnrollmentActive,
	}
	if err := db.Create(&enrollment).Error; err != nil {
		// Unique index chặn race khi hai request ghi danh cùng lúc
		c.JSON(http.StatusConflict, gin.H{"error": "Bạn đã ghi danh khóa học này rồi"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Ghi danh thành công",
		"enrollment": enrollment,
	})
}

// DELETE /api/courses/:courseId/enroll — sinh viên hủy ghi danh
func UnenrollCourse(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	userUUID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id không hợp lệ"})
		return
	}
	courseUUID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "courseId không hợp lệ"})
		return
	}

	student, err := services.ResolveStudent(db, userUUID)
	if err != nil {
		handleServiceError(c, err, "Không thể tải hồ sơ sinh viên")
		return
	}

	result := db.Delete(&models.Enrollment{},
		"student_id = ? AND course_id = ?", student.ID, courseUUID)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể hủy ghi danh"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Bạn chưa ghi danh khóa học này"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Hủy ghi danh thành công"})
}

// GET /api/students/me/submissions — toàn bộ bài nộp của sinh viên đang đăng nhập
func GetMySubmissions(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	userUUID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id không hợp lệ"})
		return
	}

	student, err := services.ResolveStudent(db, userUUID)
	if err != nil {
		handleServiceError(c, err, "Không thể tải hồ sơ sinh viên")
		return
	}

	var submissions []models.Submission
	if err := db.Order("submission_date DESC").
		Find(&submissions, "student_id = ?", student.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải danh sách bài nộp"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"submissions": submissions})
}

// GET /api/students/me — hồ sơ sinh viên kèm giảng viên phụ trách
func GetMyStudentProfile(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	userUUID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id không hợp lệ"})
		return
	}

	var student models.Student
	if err := db.Preload("User").Preload("Teacher.User").
		First(&student, "user_id = ?", userUUID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy hồ sơ sinh viên"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải hồ sơ sinh viên"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"student": student})
}

// PUT /api/students/me — sinh viên tự sửa ngành học và học kỳ,
// chỉ cập nhật field có trong body
func UpdateMyStudentProfile(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	userUUID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id không hợp lệ"})
		return
	}

	student, err := services.ResolveStudent(db, userUUID)
	if err != nil {
		handleServiceError(c, err, "Không thể tải hồ sơ sinh viên")
		return
	}

	var input struct {
		Program  *string `json:"program"`
		Semester *int    `json:"semester"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if input.Program != nil {
		updates["program"] = *input.Program
	}
	if input.Semester != nil {
		if *input.Semester < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "semester phải là số nguyên dương"})
			return
		}
		updates["semester"] = *input.Semester
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Không có thông tin nào để cập nhật"})
		return
	}

	if err := db.Model(student).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật hồ sơ"})
		return
	}

	db.Preload("User").Preload("Teacher.User").First(student, "id = ?", student.ID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Cập nhật hồ sơ thành công",
		"student": student,
	})
}
