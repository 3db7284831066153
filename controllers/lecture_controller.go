package controllers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/lms-backend/config"
	"github.com/vnkhanh/lms-backend/models"
	"github.com/vnkhanh/lms-backend/services"
)

// ==================== BÀI GIẢNG ====================

// POST /api/courses/:courseId/lectures — tạo bài giảng, video tùy chọn
func CreateLecture(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	course, _, ok := ownedCourse(c, db)
	if !ok {
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tiêu đề bài giảng là bắt buộc"})
		return
	}

	lecture := models.Lecture{
		CourseID: course.ID,
		Title:    title,
		Content:  c.PostForm("content"),
	}

	// Hạn review: client gửi RFC3339, không gửi thì mặc định 7 ngày
	if raw := c.PostForm("review_deadline"); raw != "" {
		deadline, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "review_deadline không hợp lệ (cần RFC3339)"})
			return
		}
		lecture.ReviewDeadline = &deadline
	} else {
		deadline := time.Now().Add(config.DefaultReviewDeadlineOffset)
		lecture.ReviewDeadline = &deadline
	}

	if fileHeader, err := c.FormFile("video"); err == nil {
		data, contentType, err := readUpload(fileHeader)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !strings.HasPrefix(contentType, config.LectureVideoPrefix) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File video không đúng định dạng"})
			return
		}

		result, err := services.SupabaseStore{}.Upload(data, contentType,
			fmt.Sprintf("courses/%s/lectures", course.ID), fileHeader.Filename)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể upload video"})
			return
		}
		lecture.VideoURL = result.URL
		lecture.VideoKey = result.Key
	}

	if err := db.Create(&lecture).Error; err != nil {
		// Upload đã xong mà insert fail thì dọn blob vừa tạo
		if lecture.VideoKey != "" {
			services.CleanupStoreKeys(db, services.SupabaseStore{}, []string{lecture.VideoKey})
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo bài giảng"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Tạo bài giảng thành công",
		"lecture": lecture,
	})
}

// GET /api/courses/:courseId/lectures — danh sách bài giảng,
// sinh viên chỉ thấy bài đã review
func GetLectures(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	role := models.UserRole(c.GetString("role"))

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

	course, err := services.FindCourse(db, courseUUID)
	if err != nil {
		handleServiceError(c, err, "Không thể tải khóa học")
		return
	}

	hasAccess, err := services.CanAccessCourse(db, userUUID, role, course)
	if err != nil {
		handleServiceError(c, err, "Không thể kiểm tra quyền truy cập")
		return
	}
	if !hasAccess {
		c.JSON(http.StatusForbidden, gin.H{"error": "Bạn không có quyền truy cập khóa học này"})
		return
	}

	if _, err := services.ReconcileCourseReviews(db, courseUUID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật trạng thái bài giảng"})
		return
	}

	var lectures []models.Lecture
	if err := db.Order("created_at ASC").Find(&lectures, "course_id = ?", courseUUID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải danh sách bài giảng"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"lectures": services.VisibleLectures(lectures, role)})
}

// GET /api/lectures/:lectureId — chi tiết bài giảng,
// reconcile lười ngay trên đường đọc
func GetLectureByID(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	role := models.UserRole(c.GetString("role"))

	lecture, course, ok := loadLecture(c, db)
	if !ok {
		return
	}

	userUUID, _ := uuid.Parse(c.GetString("user_id"))
	hasAccess, err := services.CanAccessCourse(db, userUUID, role, course)
	if err != nil {
		handleServiceError(c, err, "Không thể kiểm tra quyền truy cập")
		return
	}
	if !hasAccess {
		c.JSON(http.StatusForbidden, gin.H{"error": "Bạn không có quyền truy cập bài giảng này"})
		return
	}

	if err := services.ReconcileLecture(db, lecture); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật trạng thái bài giảng"})
		return
	}

	// Sinh viên không thấy bài chưa review
	if role == models.RoleStudent && !lecture.IsReviewed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy bài giảng"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"lecture": lecture})
}

// PUT /api/lectures/:lectureId — cập nhật bài giảng, video thay thế tùy chọn
func UpdateLecture(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	lecture, _, ok := ownedLecture(c, db)
	if !ok {
		return
	}

	if title := strings.TrimSpace(c.PostForm("title")); title != "" {
		lecture.Title = title
	}
	if content, exists := c.GetPostForm("content"); exists {
		lecture.Content = content
	}
	if raw := c.PostForm("review_deadline"); raw != "" {
		deadline, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "review_deadline không hợp lệ (cần RFC3339)"})
			return
		}
		lecture.ReviewDeadline = &deadline
	}

	if fileHeader, err := c.FormFile("video"); err == nil {
		data, contentType, err := readUpload(fileHeader)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !strings.HasPrefix(contentType, config.LectureVideoPrefix) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File video không đúng định dạng"})
			return
		}

		url, key, err := services.LectureVideoReplacement(db, services.SupabaseStore{},
			lecture, data, contentType, fileHeader.Filename)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể upload video"})
			return
		}
		lecture.VideoURL = url
		lecture.VideoKey = key
	}

	if err := db.Save(lecture).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật bài giảng"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cập nhật bài giảng thành công",
		"lecture": lecture,
	})
}

// DELETE /api/lectures/:lectureId — xóa bài giảng, blob dọn sau khi commit
func DeleteLecture(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	lecture, _, ok := ownedLecture(c, db)
	if !ok {
		return
	}

	if err := db.Delete(&models.Lecture{}, "id = ?", lecture.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể xóa bài giảng"})
		return
	}

	if key := services.StoreKeyFor(lecture.VideoKey, lecture.VideoURL); key != "" {
		services.CleanupStoreKeys(db, services.SupabaseStore{}, []string{key})
	}

	c.JSON(http.StatusOK, gin.H{"message": "Xóa bài giảng thành công"})
}

// PATCH /api/lectures/:lectureId/review — giảng viên toggle trạng thái review.
// Đây là đường duy nhất để quay bài giảng về chưa review.
func ToggleLectureReview(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	lecture, _, ok := ownedLecture(c, db)
	if !ok {
		return
	}

	lecture.IsReviewed = !lecture.IsReviewed
	if err := db.Model(lecture).Update("is_reviewed", lecture.IsReviewed).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật trạng thái review"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Cập nhật trạng thái review thành công",
		"is_reviewed": lecture.IsReviewed,
	})
}

// POST /api/courses/:courseId/lectures/reconcile — quét hạn review cả khóa
func ReconcileLectures(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	course, _, ok := ownedCourse(c, db)
	if !ok {
		return
	}

	updated, err := services.ReconcileCourseReviews(db, course.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật trạng thái bài giảng"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Đã quét hạn review",
		"updated": updated,
	})
}

// loadLecture đọc bài giảng + khóa học cha theo :lectureId.
func loadLecture(c *gin.Context, db *gorm.DB) (*models.Lecture, *models.Course, bool) {
	lectureUUID, err := uuid.Parse(c.Param("lectureId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lectureId không hợp lệ"})
		return nil, nil, false
	}

	var lecture models.Lecture
	if err := db.First(&lecture, "id = ?", lectureUUID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy bài giảng"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải bài giảng"})
		}
		return nil, nil, false
	}

	course, err := services.FindCourse(db, lecture.CourseID)
	if err != nil {
		handleServiceError(c, err, "Không thể tải khóa học")
		return nil, nil, false
	}

	return &lecture, course, true
}

// ownedLecture như loadLecture nhưng chỉ cho chủ khóa học đi tiếp.
func ownedLecture(c *gin.Context, db *gorm.DB) (*models.Lecture, *models.Course, bool) {
	lecture, course, ok := loadLecture(c, db)
	if !ok {
		return nil, nil, false
	}

	userUUID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id không hợp lệ"})
		return nil, nil, false
	}
	teacher, err := services.ResolveTeacher(db, userUUID)
	if err != nil {
		handleServiceError(c, err, "Không thể tải hồ sơ giảng viên")
		return nil, nil, false
	}
	if !services.IsCourseOwner(teacher, course) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Bạn không có quyền trên bài giảng này"})
		return nil, nil, false
	}

	return lecture, course, true
}

// readUpload đọc toàn bộ file multipart và suy content type.
func readUpload(fileHeader *multipart.FileHeader) ([]byte, string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", fmt.Errorf("không thể đọc file upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("không thể đọc file upload: %w", err)
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}
