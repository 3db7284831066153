package services

import (
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"gorm.io/gorm"

	"github.com/vnkhanh/lms-backend/models"
)

// Luồng bài tập/bài nộp: validate file trước khi ghi bất cứ thứ gì,
// bài nộp upsert theo (assignment_id, student_id), điểm phải trong khung.

// ValidateUploadFiles kiểm tra MIME và kích thước toàn bộ file trước khi
// upload — một file hỏng là từ chối cả request, không có upload dở dang.
func ValidateUploadFiles(files []*multipart.FileHeader, allowedTypes []string, maxSize int64) error {
	for _, file := range files {
		contentType := file.Header.Get("Content-Type")
		if !isAllowedType(contentType, allowedTypes) {
			return NewValidationError(fmt.Sprintf("Định dạng file không được hỗ trợ: %s", contentType))
		}
		if file.Size > maxSize {
			return NewValidationError(fmt.Sprintf("File %s vượt quá %dMB", file.Filename, maxSize/(1024*1024)))
		}
	}
	return nil
}

func isAllowedType(contentType string, allowedTypes []string) bool {
	for _, allowed := range allowedTypes {
		if contentType == allowed {
			return true
		}
	}
	return false
}

// SubmitAssignment ghi nhận bài nộp theo kiểu upsert: đã có bản ghi cho cặp
// (assignment, student) thì ghi đè file/ngày nộp/trạng thái, không thêm dòng.
// is_late chốt tại thời điểm nộp và không bao giờ tính lại.
// Nộp lại sau khi đã chấm vẫn được phép, nhưng trạng thái quay về "submitted"
// và điểm cũ bị xóa để giảng viên chấm đúng file đang lưu.
func SubmitAssignment(db *gorm.DB, assignment *models.Assignment, student *models.Student, fileURL, fileKey string) (*models.Submission, error) {
	if !assignment.IsActive {
		return nil, NewValidationError("Bài tập này đã ngừng nhận bài nộp")
	}

	now := time.Now()
	isLate := now.After(assignment.DueDate)

	var submission models.Submission
	err := db.First(&submission,
		"assignment_id = ? AND student_id = ?", assignment.ID, student.ID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		submission = models.Submission{
			AssignmentID:   assignment.ID,
			StudentID:      student.ID,
			SubmissionFile: fileURL,
			SubmissionKey:  fileKey,
			SubmissionDate: now,
			Status:         models.SubmissionSubmitted,
			IsLate:         isLate,
		}
		if err := db.Create(&submission).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		updates := map[string]interface{}{
			"submission_file": fileURL,
			"submission_key":  fileKey,
			"submission_date": now,
			"status":          models.SubmissionSubmitted,
			"is_late":         isLate,
			"grade":           nil,
			"feedback":        nil,
		}
		if err := db.Model(&models.Submission{}).Where("id = ?", submission.ID).Updates(updates).Error; err != nil {
			return nil, err
		}
		if err := db.First(&submission, "id = ?", submission.ID).Error; err != nil {
			return nil, err
		}
	}

	return &submission, nil
}

// GradeSubmission kiểm tra 0 <= grade <= total_points trước khi ghi;
// điểm ngoài khung bị từ chối và bài nộp giữ nguyên trạng thái cũ.
func GradeSubmission(db *gorm.DB, assignment *models.Assignment, submission *models.Submission, grade float64, feedback string) error {
	if grade < 0 || grade > assignment.TotalPoints {
		return NewValidationError(fmt.Sprintf("Điểm phải nằm trong khoảng 0 đến %.2f", assignment.TotalPoints))
	}

	updates := map[string]interface{}{
		"grade":    grade,
		"feedback": feedback,
		"status":   models.SubmissionGraded,
	}
	if err := db.Model(&models.Submission{}).Where("id = ?", submission.ID).Updates(updates).Error; err != nil {
		return err
	}

	submission.Grade = &grade
	submission.Feedback = &feedback
	submission.Status = models.SubmissionGraded
	return nil
}

// LectureVideoReplacement thay video bài giảng: xóa blob cũ best-effort
// (lỗi chỉ log + ghi orphan), upload blob mới. Upload lỗi thì caller hủy
// update và bài giảng giữ nguyên tham chiếu cũ.
func LectureVideoReplacement(db *gorm.DB, store FileStore, lecture *models.Lecture, data []byte, contentType, fileName string) (string, string, error) {
	if key := StoreKeyFor(lecture.VideoKey, lecture.VideoURL); key != "" {
		CleanupStoreKeys(db, store, []string{key})
	}

	result, err := store.Upload(data, contentType, fmt.Sprintf("courses/%s/lectures", lecture.CourseID), fileName)
	if err != nil {
		return "", "", err
	}
	return result.URL, result.Key, nil
}
