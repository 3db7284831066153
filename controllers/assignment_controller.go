package controllers

import (
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/lms-backend/config"
	"github.com/vnkhanh/lms-backend/models"
	"github.com/vnkhanh/lms-backend/services"
	"github.com/vnkhanh/lms-backend/utils"
)

// ==================== BÀI TẬP & BÀI NỘP ====================

// POST /api/courses/:courseId/assignments — tạo bài tập, validate toàn bộ
// file đính kèm trước khi upload bất cứ file nào
func CreateAssignment(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	course, _, ok := ownedCourse(c, db)
	if !ok {
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	description := strings.TrimSpace(c.PostForm("description"))
	if title == "" || description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tiêu đề và mô tả bài tập là bắt buộc"})
		return
	}

	dueDate, err := time.Parse(time.RFC3339, c.PostForm("due_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "due_date không hợp lệ (cần RFC3339)"})
		return
	}

	totalPoints, err := strconv.ParseFloat(c.PostForm("total_points"), 64)
	if err != nil || totalPoints <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "total_points phải là số dương"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Form dữ liệu không hợp lệ"})
		return
	}
	files := form.File["attachments"]

	if err := services.ValidateUploadFiles(files, config.AllowedAttachmentTypes, config.MaxAttachmentSize); err != nil {
		handleServiceError(c, err, "File đính kèm không hợp lệ")
		return
	}

	attachments, uploadedKeys, err := uploadAttachments(files, fmt.Sprintf("courses/%s/assignments", course.ID))
	if err != nil {
		services.CleanupStoreKeys(db, services.SupabaseStore{}, uploadedKeys)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể upload file đính kèm"})
		return
	}

	assignment := models.Assignment{
		CourseID:    course.ID,
		Title:       title,
		Description: description,
		DueDate:     dueDate,
		TotalPoints: totalPoints,
		IsActive:    true,
		Attachments: attachments,
	}

	if err := db.Create(&assignment).Error; err != nil {
		services.CleanupStoreKeys(db, services.SupabaseStore{}, uploadedKeys)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo bài tập"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Tạo bài tập thành công",
		"assignment": assignment,
	})
}

// GET /api/courses/:courseId/assignments — danh sách bài tập.
// Giảng viên thấy tất cả; sinh viên chỉ thấy bài đang mở kèm bài nộp của mình.
func GetAssignments(c *gin.Context) {
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

	query := db.Where("course_id = ?", courseUUID).Order("due_date ASC")

	if role == models.RoleStudent {
		student, err := services.ResolveStudent(db, userUUID)
		if err != nil {
			handleServiceError(c, err, "Không thể tải hồ sơ sinh viên")
			return
		}
		var assignments []models.Assignment
		if err := query.
			Preload("Submissions", "student_id = ?", student.ID).
			Find(&assignments, "is_active = ?", true).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải danh sách bài tập"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"assignments": assignments})
		return
	}

	var assignments []models.Assignment
	if err := query.Preload("Submissions").Find(&assignments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải danh sách bài tập"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": assignments})
}

// GET /api/assignments/:assignmentId — chi tiết bài tập
func GetAssignmentByID(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	role := models.UserRole(c.GetString("role"))

	assignment, course, ok := loadAssignment(c, db)
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
		c.JSON(http.StatusForbidden, gin.H{"error": "Bạn không có quyền truy cập bài tập này"})
		return
	}

	if role == models.RoleStudent {
		if !assignment.IsActive {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy bài tập"})
			return
		}
		student, err := services.ResolveStudent(db, userUUID)
		if err != nil {
			handleServiceError(c, err, "Không thể tải hồ sơ sinh viên")
			return
		}
		db.Preload("Submissions", "student_id = ?", student.ID).
			First(assignment, "id = ?", assignment.ID)
	} else {
		db.Preload("Submissions").First(assignment, "id = ?", assignment.ID)
	}

	c.JSON(http.StatusOK, gin.H{"assignment": assignment})
}

// PUT /api/assignments/:assignmentId — cập nhật bài tập.
// File mới validate rồi append; remove_keys gỡ file đính kèm cũ.
func UpdateAssignment(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	assignment, _, ok := ownedAssignment(c, db)
	if !ok {
		return
	}

	if title := strings.TrimSpace(c.PostForm("title")); title != "" {
		assignment.Title = title
	}
	if description, exists := c.GetPostForm("description"); exists && strings.TrimSpace(description) != "" {
		assignment.Description = description
	}
	if raw := c.PostForm("due_date"); raw != "" {
		dueDate, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "due_date không hợp lệ (cần RFC3339)"})
			return
		}
		assignment.DueDate = dueDate
	}
	if raw := c.PostForm("total_points"); raw != "" {
		totalPoints, err := strconv.ParseFloat(raw, 64)
		if err != nil || totalPoints <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "total_points phải là số dương"})
			return
		}
		assignment.TotalPoints = totalPoints
	}
	if raw := c.PostForm("is_active"); raw != "" {
		isActive, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "is_active không hợp lệ"})
			return
		}
		assignment.IsActive = isActive
	}

	// Gỡ file đính kèm theo key
	removedKeys := c.PostFormArray("remove_keys")
	if len(removedKeys) > 0 {
		kept := assignment.Attachments[:0]
		for _, attachment := range assignment.Attachments {
			if !containsKey(removedKeys, attachment.Key) {
				kept = append(kept, attachment)
			}
		}
		assignment.Attachments = kept
	}

	var newKeys []string
	if form, err := c.MultipartForm(); err == nil {
		files := form.File["attachments"]
		if len(files) > 0 {
			if err := services.ValidateUploadFiles(files, config.AllowedAttachmentTypes, config.MaxAttachmentSize); err != nil {
				handleServiceError(c, err, "File đính kèm không hợp lệ")
				return
			}
			added, keys, err := uploadAttachments(files, fmt.Sprintf("courses/%s/assignments", assignment.CourseID))
			if err != nil {
				services.CleanupStoreKeys(db, services.SupabaseStore{}, keys)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể upload file đính kèm"})
				return
			}
			assignment.Attachments = append(assignment.Attachments, added...)
			newKeys = keys
		}
	}

	if err := db.Save(assignment).Error; err != nil {
		services.CleanupStoreKeys(db, services.SupabaseStore{}, newKeys)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật bài tập"})
		return
	}

	// DB đã commit, giờ mới dọn blob của file vừa gỡ
	if len(removedKeys) > 0 {
		services.CleanupStoreKeys(db, services.SupabaseStore{}, removedKeys)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Cập nhật bài tập thành công",
		"assignment": assignment,
	})
}

// DELETE /api/assignments/:assignmentId — xóa bài tập kèm bài nộp,
// blob dọn best-effort sau khi commit
func DeleteAssignment(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	assignment, _, ok := ownedAssignment(c, db)
	if !ok {
		return
	}

	var keys []string
	for _, attachment := range assignment.Attachments {
		if attachment.Key != "" {
			keys = append(keys, attachment.Key)
		}
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var submissions []models.Submission
		if err := tx.Find(&submissions, "assignment_id = ?", assignment.ID).Error; err != nil {
			return err
		}
		for _, submission := range submissions {
			if submission.SubmissionKey != "" {
				keys = append(keys, submission.SubmissionKey)
			}
		}
		if err := tx.Delete(&models.Submission{}, "assignment_id = ?", assignment.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Assignment{}, "id = ?", assignment.ID).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể xóa bài tập"})
		return
	}

	services.CleanupStoreKeys(db, services.SupabaseStore{}, keys)

	c.JSON(http.StatusOK, gin.H{"message": "Xóa bài tập thành công"})
}

// POST /api/assignments/:assignmentId/submissions — sinh viên nộp bài.
// Nộp lại ghi đè bản ghi cũ, không tạo dòng mới.
func SubmitAssignment(c *gin.Context) {
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

	assignment, course, ok := loadAssignment(c, db)
	if !ok {
		return
	}

	enrolled, err := services.IsEnrolled(db, student.ID, course.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể kiểm tra ghi danh"})
		return
	}
	if !enrolled {
		c.JSON(http.StatusForbidden, gin.H{"error": "Bạn chưa ghi danh khóa học này"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Thiếu file bài nộp"})
		return
	}
	if err := services.ValidateUploadFiles([]*multipart.FileHeader{fileHeader}, config.AllowedSubmissionTypes, config.MaxAttachmentSize); err != nil {
		handleServiceError(c, err, "File bài nộp không hợp lệ")
		return
	}

	result, err := utils.UploadFileToSupabase(fileHeader,
		fmt.Sprintf("courses/%s/submissions/%s", course.ID, student.ID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể upload bài nộp"})
		return
	}

	// Giữ key cũ để dọn sau khi bản ghi mới đã vào DB
	var oldKey string
	var previous models.Submission
	if err := db.First(&previous,
		"assignment_id = ? AND student_id = ?", assignment.ID, student.ID).Error; err == nil {
		oldKey = previous.SubmissionKey
	}

	submission, err := services.SubmitAssignment(db, assignment, student, result.URL, result.Key)
	if err != nil {
		services.CleanupStoreKeys(db, services.SupabaseStore{}, []string{result.Key})
		handleServiceError(c, err, "Không thể ghi nhận bài nộp")
		return
	}

	if oldKey != "" && oldKey != result.Key {
		services.CleanupStoreKeys(db, services.SupabaseStore{}, []string{oldKey})
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Nộp bài thành công",
		"submission": submission,
	})
}

// PUT /api/submissions/:submissionId/grade — giảng viên chấm điểm,
// gửi email thông báo cho sinh viên (best-effort)
func GradeSubmission(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	submissionUUID, err := uuid.Parse(c.Param("submissionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "submissionId không hợp lệ"})
		return
	}

	var submission models.Submission
	if err := db.Preload("Student.User").First(&submission, "id = ?", submissionUUID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy bài nộp"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải bài nộp"})
		}
		return
	}

	var assignment models.Assignment
	if err := db.First(&assignment, "id = ?", submission.AssignmentID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải bài tập"})
		return
	}

	course, err := services.FindCourse(db, assignment.CourseID)
	if err != nil {
		handleServiceError(c, err, "Không thể tải khóa học")
		return
	}

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
	if !services.IsCourseOwner(teacher, course) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Bạn không có quyền chấm bài nộp này"})
		return
	}

	// Dùng con trỏ để phân biệt "thiếu grade" với điểm 0 hợp lệ
	var input struct {
		Grade    *float64 `json:"grade" binding:"required"`
		Feedback string   `json:"feedback"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := services.GradeSubmission(db, &assignment, &submission, *input.Grade, input.Feedback); err != nil {
		handleServiceError(c, err, "Không thể chấm điểm")
		return
	}

	// Thông báo điểm qua email, lỗi chỉ log
	go func(email, courseName, assignmentTitle string, grade, total float64) {
		subject := fmt.Sprintf("Điểm bài tập: %s", assignmentTitle)
		body := fmt.Sprintf(
			"<p>Bài nộp của bạn cho <b>%s</b> (khóa học %s) đã được chấm.</p><p>Điểm: <b>%.2f / %.2f</b></p>",
			assignmentTitle, courseName, grade, total)
		if err := utils.SendEmail(email, subject, body); err != nil {
			log.Printf("Gửi email thông báo điểm thất bại: %v", err)
		}
	}(submission.Student.User.Email, course.Title, assignment.Title, *input.Grade, assignment.TotalPoints)

	c.JSON(http.StatusOK, gin.H{
		"message":    "Chấm điểm thành công",
		"submission": submission,
	})
}

func loadAssignment(c *gin.Context, db *gorm.DB) (*models.Assignment, *models.Course, bool) {
	assignmentUUID, err := uuid.Parse(c.Param("assignmentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "assignmentId không hợp lệ"})
		return nil, nil, false
	}

	var assignment models.Assignment
	if err := db.First(&assignment, "id = ?", assignmentUUID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy bài tập"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải bài tập"})
		}
		return nil, nil, false
	}

	course, err := services.FindCourse(db, assignment.CourseID)
	if err != nil {
		handleServiceError(c, err, "Không thể tải khóa học")
		return nil, nil, false
	}

	return &assignment, course, true
}

func ownedAssignment(c *gin.Context, db *gorm.DB) (*models.Assignment, *models.Course, bool) {
	assignment, course, ok := loadAssignment(c, db)
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
		c.JSON(http.StatusForbidden, gin.H{"error": "Bạn không có quyền trên bài tập này"})
		return nil, nil, false
	}

	return assignment, course, true
}

// uploadAttachments upload lần lượt, trả về cả danh sách key đã lên
// để caller dọn khi có lỗi giữa chừng.
func uploadAttachments(files []*multipart.FileHeader, pathPrefix string) ([]models.Attachment, []string, error) {
	var attachments []models.Attachment
	var keys []string
	for _, fileHeader := range files {
		result, err := utils.UploadFileToSupabase(fileHeader, pathPrefix)
		if err != nil {
			return nil, keys, err
		}
		keys = append(keys, result.Key)
		attachments = append(attachments, models.Attachment{
			Name: fileHeader.Filename,
			URL:  result.URL,
			Key:  result.Key,
		})
	}
	return attachments, keys, nil
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
