package controllers

import (
	"mime/multipart"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/vnkhanh/lms-backend/config"
	"github.com/vnkhanh/lms-backend/models"
	"github.com/vnkhanh/lms-backend/services"
	"github.com/vnkhanh/lms-backend/utils"
)

// ==================== SỰ KIỆN ====================

var eventLinkPattern = regexp.MustCompile(`^https?://\S+$`)

// POST /api/events — tạo sự kiện, ảnh minh họa tùy chọn
func CreateEvent(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	name := strings.TrimSpace(c.PostForm("name"))
	location := strings.TrimSpace(c.PostForm("location"))
	eventTime := strings.TrimSpace(c.PostForm("time"))
	link := strings.TrimSpace(c.PostForm("link"))

	if name == "" || location == "" || eventTime == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tên, địa điểm và giờ diễn ra là bắt buộc"})
		return
	}
	if !eventLinkPattern.MatchString(link) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Link sự kiện phải là URL http(s) hợp lệ"})
		return
	}

	date, err := time.Parse("2006-01-02", c.PostForm("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date không hợp lệ (cần YYYY-MM-DD)"})
		return
	}

	event := models.Event{
		Name:        name,
		Slug:        slug.Make(name),
		Description: c.PostForm("description"),
		Date:        date,
		Time:        eventTime,
		Location:    location,
		Link:        link,
	}

	if fileHeader, err := c.FormFile("image"); err == nil {
		result, ok := uploadEventImage(c, fileHeader)
		if !ok {
			return
		}
		event.ImageURL = result.URL
		event.ImageKey = result.Key
	}

	if err := db.Create(&event).Error; err != nil {
		if event.ImageKey != "" {
			services.CleanupStoreKeys(db, services.SupabaseStore{}, []string{event.ImageKey})
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo sự kiện"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Tạo sự kiện thành công",
		"event":   event,
	})
}

// GET /api/events — mọi người dùng đã đăng nhập đều xem được
func GetEvents(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	var events []models.Event
	if err := db.Order("date ASC").Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải danh sách sự kiện"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// GET /api/events/:eventId
func GetEventByID(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	event, ok := findEvent(c, db)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"event": event})
}

// PUT /api/events/:eventId — cập nhật sự kiện, ảnh mới thay ảnh cũ
func UpdateEvent(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	event, ok := findEvent(c, db)
	if !ok {
		return
	}

	if name := strings.TrimSpace(c.PostForm("name")); name != "" {
		event.Name = name
		event.Slug = slug.Make(name)
	}
	if description, exists := c.GetPostForm("description"); exists {
		event.Description = description
	}
	if location := strings.TrimSpace(c.PostForm("location")); location != "" {
		event.Location = location
	}
	if eventTime := strings.TrimSpace(c.PostForm("time")); eventTime != "" {
		event.Time = eventTime
	}
	if link := strings.TrimSpace(c.PostForm("link")); link != "" {
		if !eventLinkPattern.MatchString(link) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Link sự kiện phải là URL http(s) hợp lệ"})
			return
		}
		event.Link = link
	}
	if raw := c.PostForm("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date không hợp lệ (cần YYYY-MM-DD)"})
			return
		}
		event.Date = date
	}

	oldImageKey := ""
	if fileHeader, err := c.FormFile("image"); err == nil {
		result, ok := uploadEventImage(c, fileHeader)
		if !ok {
			return
		}
		oldImageKey = event.ImageKey
		event.ImageURL = result.URL
		event.ImageKey = result.Key
	}

	if err := db.Save(event).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật sự kiện"})
		return
	}

	if oldImageKey != "" {
		services.CleanupStoreKeys(db, services.SupabaseStore{}, []string{oldImageKey})
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cập nhật sự kiện thành công",
		"event":   event,
	})
}

// DELETE /api/events/:eventId
func DeleteEvent(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	event, ok := findEvent(c, db)
	if !ok {
		return
	}

	if err := db.Delete(&models.Event{}, "id = ?", event.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể xóa sự kiện"})
		return
	}

	if event.ImageKey != "" {
		services.CleanupStoreKeys(db, services.SupabaseStore{}, []string{event.ImageKey})
	}

	c.JSON(http.StatusOK, gin.H{"message": "Xóa sự kiện thành công"})
}

func findEvent(c *gin.Context, db *gorm.DB) (*models.Event, bool) {
	eventUUID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "eventId không hợp lệ"})
		return nil, false
	}

	var event models.Event
	if err := db.First(&event, "id = ?", eventUUID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy sự kiện"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải sự kiện"})
		}
		return nil, false
	}

	return &event, true
}

// uploadEventImage validate rồi upload ảnh; ghi response lỗi và trả
// ok=false khi thất bại.
func uploadEventImage(c *gin.Context, fileHeader *multipart.FileHeader) (utils.UploadResult, bool) {
	if err := services.ValidateUploadFiles([]*multipart.FileHeader{fileHeader},
		config.AllowedEventImageTypes, config.MaxEventImageSize); err != nil {
		handleServiceError(c, err, "Ảnh sự kiện không hợp lệ")
		return utils.UploadResult{}, false
	}

	result, err := utils.UploadFileToSupabase(fileHeader, "events")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể upload ảnh sự kiện"})
		return utils.UploadResult{}, false
	}
	return result, true
}
