package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/lms-backend/models"
)

// Guard phân quyền: các predicate thuần trên (actor, resource),
// gọi trước mọi mutation nên fail ở đây không bao giờ cần rollback.

// ResolveTeacher tìm hồ sơ giảng viên theo user id.
// Không có hồ sơ -> ErrProfileNotFound (khác với không có quyền).
func ResolveTeacher(db *gorm.DB, userID uuid.UUID) (*models.Teacher, error) {
	var teacher models.Teacher
	err := db.Preload("User").First(&teacher, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &teacher, nil
}

// ResolveStudent tìm hồ sơ sinh viên theo user id
func ResolveStudent(db *gorm.DB, userID uuid.UUID) (*models.Student, error) {
	var student models.Student
	err := db.Preload("User").First(&student, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// IsCourseOwner: giảng viên có sở hữu khóa học không
func IsCourseOwner(teacher *models.Teacher, course *models.Course) bool {
	return teacher != nil && course != nil && teacher.ID == course.TeacherID
}

// IsEnrolled: sinh viên có bản ghi enrollment cho khóa học không
func IsEnrolled(db *gorm.DB, studentID, courseID uuid.UUID) (bool, error) {
	var count int64
	err := db.Model(&models.Enrollment{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsAssignedTeacher: sở hữu khóa học KHÔNG suy ra quyền trên sinh viên;
// sửa hồ sơ sinh viên đòi hỏi đúng giảng viên phụ trách.
func IsAssignedTeacher(teacher *models.Teacher, student *models.Student) bool {
	return teacher != nil && student != nil &&
		student.TeacherID != nil && *student.TeacherID == teacher.ID
}

// CanAccessCourse gom cả hai nhánh: giảng viên phải sở hữu,
// sinh viên phải đang ghi danh, vai trò khác bị từ chối.
func CanAccessCourse(db *gorm.DB, userID uuid.UUID, role models.UserRole, course *models.Course) (bool, error) {
	switch role {
	case models.RoleTeacher:
		teacher, err := ResolveTeacher(db, userID)
		if err != nil {
			return false, err
		}
		return IsCourseOwner(teacher, course), nil
	case models.RoleStudent:
		student, err := ResolveStudent(db, userID)
		if err != nil {
			return false, err
		}
		return IsEnrolled(db, student.ID, course.ID)
	default:
		return false, nil
	}
}
