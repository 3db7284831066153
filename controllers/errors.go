package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/lms-backend/services"
)

// handleServiceError map lỗi nghiệp vụ sang HTTP status.
// fallback dùng khi lỗi không thuộc taxonomy (lỗi DB/store bất ngờ).
func handleServiceError(c *gin.Context, err error, fallback string) {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message})
	case errors.Is(err, services.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy hồ sơ vai trò của tài khoản"})
	case errors.Is(err, services.ErrSemesterNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy học kỳ"})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy tài nguyên"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Bạn không có quyền thực hiện thao tác này"})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Dữ liệu đã tồn tại"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback, "details": err.Error()})
	}
}
