package services

import "errors"

// Lỗi nghiệp vụ dùng chung. Controller map sang HTTP status:
// ErrNotFound -> 404, ErrProfileNotFound -> 404, ErrForbidden -> 403,
// ErrConflict -> 409, ErrValidation -> 400, còn lại -> 500.
var (
	ErrNotFound = errors.New("không tìm thấy tài nguyên")

	// Tài khoản không có hồ sơ Teacher/Student tương ứng — khác với
	// ErrForbidden (có hồ sơ nhưng không có quyền trên tài nguyên này).
	ErrProfileNotFound = errors.New("không tìm thấy hồ sơ vai trò")

	ErrForbidden  = errors.New("không có quyền thực hiện thao tác này")
	ErrConflict   = errors.New("dữ liệu đã tồn tại")
	ErrValidation = errors.New("dữ liệu không hợp lệ")
)

// ValidationError gói ErrValidation kèm thông điệp cho client
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}
