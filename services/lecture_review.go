package services

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/lms-backend/models"
)

// Máy trạng thái review của bài giảng: Unreviewed -> Reviewed khi quá hạn
// hoặc khi giảng viên set tay. Không có chiều tự động quay lại Unreviewed.

// ReconcileCourseReviews là thao tác batch duy nhất: bật is_reviewed cho mọi
// bài giảng đã quá hạn của khóa học. Idempotent — gọi lại lần hai không đổi
// thêm dòng nào. Các đường đọc gọi hàm này trước khi load danh sách,
// job định kỳ cũng có thể gọi.
func ReconcileCourseReviews(db *gorm.DB, courseID uuid.UUID) (int64, error) {
	result := db.Model(&models.Lecture{}).
		Where("course_id = ? AND is_reviewed = ? AND review_deadline IS NOT NULL AND review_deadline <= ?",
			courseID, false, time.Now()).
		Update("is_reviewed", true)
	return result.RowsAffected, result.Error
}

// ReconcileLecture xử lý nhánh lazy cho một bài giảng vừa đọc lên:
// quá hạn thì persist ngay rồi cập nhật struct trong tay caller.
func ReconcileLecture(db *gorm.DB, lecture *models.Lecture) error {
	if lecture.IsReviewed || lecture.ReviewDeadline == nil {
		return nil
	}
	if time.Now().Before(*lecture.ReviewDeadline) {
		return nil
	}
	err := db.Model(&models.Lecture{}).Where("id = ?", lecture.ID).
		Update("is_reviewed", true).Error
	if err != nil {
		return err
	}
	lecture.IsReviewed = true
	return nil
}

// VisibleLectures lọc theo vai trò: sinh viên chỉ thấy bài giảng đã reviewed,
// giảng viên thấy tất cả bài giảng của mình.
func VisibleLectures(lectures []models.Lecture, role models.UserRole) []models.Lecture {
	if role != models.RoleStudent {
		return lectures
	}
	visible := make([]models.Lecture, 0, len(lectures))
	for _, lecture := range lectures {
		if lecture.IsReviewed {
			visible = append(visible, lecture)
		}
	}
	return visible
}
