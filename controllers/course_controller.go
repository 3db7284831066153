package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/lms-backend/models"
	"github.com/vnkhanh/lms-backend/services"
)

// ==================== KHÓA HỌC ====================

// GET /api/courses — danh sách khóa học của người đang đăng nhập
func GetUserCourses(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userIDStr := c.GetString("user_id")
	role := c.GetString("role")

	userUUID, err := uuid.Parse(userIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id không hợp lệ"})
		return
	}

	switch models.UserRole(role) {
	case models.RoleTeacher:
		teacher, err := services.ResolveTeacher(db, userUUID)
		if err != nil {
			handleServiceError(c, err, "Không thể tải hồ sơ giảng viên")
			return
		}

		var studentCount int64
		db.Model(&models.Student{}).Where("teacher_id = ?", teacher.ID).Count(&studentCount)

		var courses []models.Course
		if err := db.Preload("Semester").Find(&courses, "teacher_id = ?", teacher.ID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải danh sách khóa học"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"user": gin.H{
				"id":             teacher.ID,
				"name":           teacher.User.Name,
				"email":          teacher.User.Email,
				"role":           "teacher",
				"total_students": studentCount,
				"total_courses":  len(courses),
			},
			"courses": summarizeCourses(courses),
		})

	case models.RoleStudent:
		student, err := services.ResolveStudent(db, userUUID)
		if err != nil {
			handleServiceError(c, err, "Không thể tải hồ sơ sinh viên")
			return
		}

		courses, err := enrolledCourses(db, student.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải danh sách khóa học"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"user": gin.H{
				"id":            student.ID,
				"name":          student.User.Name,
				"email":         student.User.Email,
				"role":          "student",
				"total_courses": len(courses),
			},
			"courses": summarizeCourses(courses),
		})

	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "Vai trò không hợp lệ"})
	}
}

func enrolledCourses(db *gorm.DB, studentID uuid.UUID) ([]models.Course, error) {
	var courses []models.Course
	err := db.Preload("Semester").
		Joins("JOIN enrollments ON enrollments.course_id = courses.id").
		Where("enrollments.student_id = ?", studentID).
		Find(&courses).Error
	return courses, err
}

func summarizeCourses(courses []models.Course) []gin.H {
	out := make([]gin.H, 0, len(courses))
	for _, course := range courses {
		summary := gin.H{
			"id":           course.ID,
			"title":        course.Title,
			"slug":         course.Slug,
			"about_course": course.AboutCourse,
			"semester":     nil,
		}
		if course.Semester.ID != uuid.Nil {
			summary["semester"] = gin.H{
				"id":         course.Semester.ID,
				"name":       course.Semester.Name,
				"start_date": course.Semester.StartDate,
				"end_date":   course.Semester.EndDate,
			}
		}
		out = append(out, summary)
	}
	return out
}

// GET /api/courses/:courseId — chi tiết khóa học kèm toàn bộ thành phần
func GetCourseByID(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userIDStr := c.GetString("user_id")
	role := models.UserRole(c.GetString("role"))

	userUUID, err := uuid.Parse(userIDStr)
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

	// Bật review cho bài giảng quá hạn, rồi load lại để trả dữ liệu mới
	if updated, err := services.ReconcileCourseReviews(db, courseUUID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật trạng thái bài giảng"})
		return
	} else if updated > 0 {
		if course, err = services.FindCourse(db, courseUUID); err != nil {
			handleServiceError(c, err, "Không thể tải khóa học")
			return
		}
	}

	view := services.FormatCourse(course)
	view.Lectures = services.VisibleLectures(view.Lectures, role)

	response := gin.H{"course": view}

	if role == models.RoleTeacher {
		// Giảng viên thấy danh sách sinh viên đang ghi danh
		var students []models.Student
		db.Preload("User").
			Joins("JOIN enrollments ON enrollments.student_id = students.id").
			Where("enrollments.course_id = ?", course.ID).
			Find(&students)

		list := make([]gin.H, 0, len(students))
		for _, student := range students {
			list = append(list, gin.H{
				"id":       student.ID,
				"name":     student.User.Name,
				"email":    student.User.Email,
				"program":  student.Program,
				"semester": student.Semester,
			})
		}
		response["students"] = list
	} else {
		response["teacher"] = gin.H{
			"id":    course.Teacher.ID,
			"name":  course.Teacher.User.Name,
			"email": course.Teacher.User.Email,
		}
	}

	c.JSON(http.StatusOK, response)
}

// POST /api/courses — tạo khóa học cùng toàn bộ thành phần trong một transaction
func CreateCourse(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userIDStr := c.GetString("user_id")

	userUUID, err := uuid.Parse(userIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id không hợp lệ"})
		return
	}

	teacher, err := services.ResolveTeacher(db, userUUID)
	if err != nil {
		handleServiceError(c, err, "Không thể tải hồ sơ giảng viên")
		return
	}

	var input services.CreateCourseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course, err := services.CreateCourse(db, teacher, input)
	if err != nil {
		handleServiceError(c, err, "Không thể tạo khóa học")
		return
	}

	created, err := services.FindCourse(db, course.ID)
	if err != nil {
		handleServiceError(c, err, "Không thể tải khóa học vừa tạo")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Tạo khóa học thành công",
		"course":  services.FormatCourse(created),
	})
}

// PUT /api/courses/:courseId — cập nhật một phần, thành phần vệ tinh upsert
func UpdateCourse(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	course, _, ok := ownedCourse(c, db)
	if !ok {
		return
	}

	var input services.UpdateCourseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := services.UpdateCourse(db, course, input); err != nil {
		handleServiceError(c, err, "Không thể cập nhật khóa học")
		return
	}

	updated, err := services.FindCourse(db, course.ID)
	if err != nil {
		handleServiceError(c, err, "Không thể tải khóa học sau cập nhật")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cập nhật khóa học thành công",
		"course":  services.FormatCourse(updated),
	})
}

// DELETE /api/courses/:courseId — xóa cascade cả aggregate,
// file trên store dọn best-effort sau khi DB commit
func DeleteCourse(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	course, _, ok := ownedCourse(c, db)
	if !ok {
		return
	}

	if err := services.DeleteCourse(db, services.SupabaseStore{}, course); err != nil {
		handleServiceError(c, err, "Không thể xóa khóa học")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Xóa khóa học thành công"})
}

// ownedCourse resolve giảng viên + khóa học và chặn mọi truy cập
// không phải chủ sở hữu. Trả về ok=false nếu đã ghi response lỗi.
func ownedCourse(c *gin.Context, db *gorm.DB) (*models.Course, *models.Teacher, bool) {
	userUUID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id không hợp lệ"})
		return nil, nil, false
	}
	courseUUID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "courseId không hợp lệ"})
		return nil, nil, false
	}

	teacher, err := services.ResolveTeacher(db, userUUID)
	if err != nil {
		handleServiceError(c, err, "Không thể tải hồ sơ giảng viên")
		return nil, nil, false
	}

	course, err := services.FindCourse(db, courseUUID)
	if err != nil {
		handleServiceError(c, err, "Không thể tải khóa học")
		return nil, nil, false
	}

	if !services.IsCourseOwner(teacher, course) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Bạn không có quyền trên khóa học này"})
		return nil, nil, false
	}

	return course, teacher, true
}
