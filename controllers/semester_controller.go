package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/lms-backend/models"
)

// ==================== HỌC KỲ ====================

type semesterInput struct {
	Name      string    `json:"name" binding:"required"`
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required"`
}

// POST /api/semesters — tạo học kỳ, end_date phải sau start_date
func CreateSemester(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	var input semesterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !input.EndDate.After(input.StartDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date phải sau start_date"})
		return
	}

	semester := models.Semester{
		Name:      input.Name,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	}
	if err := db.Create(&semester).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo học kỳ"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Tạo học kỳ thành công",
		"semester": semester,
	})
}

// GET /api/semesters
func GetSemesters(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	var semesters []models.Semester
	if err := db.Order("start_date DESC").Find(&semesters).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải danh sách học kỳ"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"semesters": semesters})
}

// GET /api/semesters/:semesterId — kèm các khóa học trong kỳ
func GetSemesterByID(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	semester, ok := findSemester(c, db)
	if !ok {
		return
	}

	db.Preload("Courses").First(semester, "id = ?", semester.ID)

	c.JSON(http.StatusOK, gin.H{"semester": semester})
}

// PUT /api/semesters/:semesterId — đổi tên/ngày.
// Ngày mới chỉ cần hợp lệ nội bộ, không đối chiếu với lịch các khóa học.
func UpdateSemester(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	semester, ok := findSemester(c, db)
	if !ok {
		return
	}

	var input struct {
		Name      *string    `json:"name"`
		StartDate *time.Time `json:"start_date"`
		EndDate   *time.Time `json:"end_date"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Name != nil {
		semester.Name = *input.Name
	}
	if input.StartDate != nil {
		semester.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		semester.EndDate = *input.EndDate
	}
	if !semester.EndDate.After(semester.StartDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date phải sau start_date"})
		return
	}

	if err := db.Save(semester).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật học kỳ"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Cập nhật học kỳ thành công",
		"semester": semester,
	})
}

// DELETE /api/semesters/:semesterId — chặn xóa khi còn khóa học tham chiếu
func DeleteSemester(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	semester, ok := findSemester(c, db)
	if !ok {
		return
	}

	var courseCount int64
	if err := db.Model(&models.Course{}).
		Where("semester_id = ?", semester.ID).Count(&courseCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể kiểm tra khóa học trong kỳ"})
		return
	}
	if courseCount > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Không thể xóa học kỳ khi vẫn còn khóa học tham chiếu",
		})
		return
	}

	if err := db.Delete(&models.Semester{}, "id = ?", semester.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể xóa học kỳ"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Xóa học kỳ thành công"})
}

func findSemester(c *gin.Context, db *gorm.DB) (*models.Semester, bool) {
	semesterUUID, err := uuid.Parse(c.Param("semesterId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "semesterId không hợp lệ"})
		return nil, false
	}

	var semester models.Semester
	if err := db.First(&semester, "id = ?", semesterUUID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy học kỳ"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải học kỳ"})
		}
		return nil, false
	}

	return &semester, true
}
