package controllers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
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

// ==================== E-CONTENT ====================

// GET /api/courses/:courseId/econtent — tài liệu bổ trợ của khóa học
func GetEContent(c *gin.Context) {
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

	var econtent models.EContent
	err = db.Preload("Modules", func(db *gorm.DB) *gorm.DB {
		return db.Order("module_number ASC")
	}).Preload("Modules.Files").
		First(&econtent, "course_id = ?", courseUUID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// Chưa có e-content thì trả danh sách module rỗng
			c.JSON(http.StatusOK, gin.H{"e_content": gin.H{
				"course_id": courseUUID,
				"modules":   []models.EContentModule{},
			}})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải e-content"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"e_content": econtent})
}

// POST /api/courses/:courseId/econtent/modules — thêm module tài liệu.
// Bản ghi e-content của khóa học được find-or-create.
func CreateEContentModule(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	course, _, ok := ownedCourse(c, db)
	if !ok {
		return
	}

	moduleTitle := strings.TrimSpace(c.PostForm("module_title"))
	if moduleTitle == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "module_title là bắt buộc"})
		return
	}

	moduleNumber := 1
	if raw := c.PostForm("module_number"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "module_number phải là số nguyên dương"})
			return
		}
		moduleNumber = parsed
	}

	var files []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil {
		files = form.File["files"]
	}
	if err := services.ValidateUploadFiles(files, config.AllowedEContentTypes, config.MaxAttachmentSize); err != nil {
		handleServiceError(c, err, "File tài liệu không hợp lệ")
		return
	}

	// find-or-create bản ghi e-content của khóa học
	var econtent models.EContent
	err := db.Where("course_id = ?", course.ID).
		FirstOrCreate(&econtent, models.EContent{CourseID: course.ID}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể khởi tạo e-content"})
		return
	}

	module := models.EContentModule{
		EContentID:   econtent.ID,
		ModuleNumber: moduleNumber,
		ModuleTitle:  moduleTitle,
		Link:         c.PostForm("link"),
	}
	if err := db.Create(&module).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo module"})
		return
	}

	var uploadedKeys []string
	for _, fileHeader := range files {
		result, err := utils.UploadFileToSupabase(fileHeader,
			fmt.Sprintf("courses/%s/econtent", course.ID))
		if err != nil {
			services.CleanupStoreKeys(db, services.SupabaseStore{}, uploadedKeys)
			db.Delete(&models.EContentFile{}, "module_id = ?", module.ID)
			db.Delete(&models.EContentModule{}, "id = ?", module.ID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể upload tài liệu"})
			return
		}
		uploadedKeys = append(uploadedKeys, result.Key)

		file := models.EContentFile{
			ModuleID:   module.ID,
			FileType:   strings.TrimPrefix(filepath.Ext(fileHeader.Filename), "."),
			FileName:   fileHeader.Filename,
			FileURL:    result.URL,
			FileKey:    result.Key,
			UploadDate: time.Now(),
		}
		if err := db.Create(&file).Error; err != nil {
			services.CleanupStoreKeys(db, services.SupabaseStore{}, uploadedKeys)
			db.Delete(&models.EContentFile{}, "module_id = ?", module.ID)
			db.Delete(&models.EContentModule{}, "id = ?", module.ID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lưu tài liệu"})
			return
		}
	}

	db.Preload("Files").First(&module, "id = ?", module.ID)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Tạo module tài liệu thành công",
		"module":  module,
	})
}

// POST /api/econtent/modules/:moduleId/files — thêm file vào module có sẵn
func AddEContentFiles(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	module, course, ok := ownedEContentModule(c, db)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Form dữ liệu không hợp lệ"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Thiếu file tài liệu"})
		return
	}
	if err := services.ValidateUploadFiles(files, config.AllowedEContentTypes, config.MaxAttachmentSize); err != nil {
		handleServiceError(c, err, "File tài liệu không hợp lệ")
		return
	}

	var created []models.EContentFile
	var uploadedKeys []string
	for _, fileHeader := range files {
		result, err := utils.UploadFileToSupabase(fileHeader,
			fmt.Sprintf("courses/%s/econtent", course.ID))
		if err != nil {
			services.CleanupStoreKeys(db, services.SupabaseStore{}, uploadedKeys)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể upload tài liệu"})
			return
		}
		uploadedKeys = append(uploadedKeys, result.Key)

		file := models.EContentFile{
			ModuleID:   module.ID,
			FileType:   strings.TrimPrefix(filepath.Ext(fileHeader.Filename), "."),
			FileName:   fileHeader.Filename,
			FileURL:    result.URL,
			FileKey:    result.Key,
			UploadDate: time.Now(),
		}
		if err := db.Create(&file).Error; err != nil {
			services.CleanupStoreKeys(db, services.SupabaseStore{}, uploadedKeys)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lưu tài liệu"})
			return
		}
		created = append(created, file)
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Thêm tài liệu thành công",
		"files":   created,
	})
}

// PUT /api/econtent/modules/:moduleId — sửa thông tin module,
// chỉ cập nhật field có trong form; có thể kèm file mới
func UpdateEContentModule(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	module, course, ok := ownedEContentModule(c, db)
	if !ok {
		return
	}

	updates := map[string]interface{}{}
	if raw, exists := c.GetPostForm("module_number"); exists {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "module_number phải là số nguyên dương"})
			return
		}
		updates["module_number"] = parsed
	}
	if title, exists := c.GetPostForm("module_title"); exists {
		title = strings.TrimSpace(title)
		if title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "module_title không được rỗng"})
			return
		}
		updates["module_title"] = title
	}
	if link, exists := c.GetPostForm("link"); exists {
		updates["link"] = link
	}

	var files []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil {
		files = form.File["files"]
	}
	if err := services.ValidateUploadFiles(files, config.AllowedEContentTypes, config.MaxAttachmentSize); err != nil {
		handleServiceError(c, err, "File tài liệu không hợp lệ")
		return
	}

	if len(updates) > 0 {
		if err := db.Model(module).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật module"})
			return
		}
	}

	var uploadedKeys []string
	for _, fileHeader := range files {
		result, err := utils.UploadFileToSupabase(fileHeader,
			fmt.Sprintf("courses/%s/econtent", course.ID))
		if err != nil {
			services.CleanupStoreKeys(db, services.SupabaseStore{}, uploadedKeys)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể upload tài liệu"})
			return
		}
		uploadedKeys = append(uploadedKeys, result.Key)

		file := models.EContentFile{
			ModuleID:   module.ID,
			FileType:   strings.TrimPrefix(filepath.Ext(fileHeader.Filename), "."),
			FileName:   fileHeader.Filename,
			FileURL:    result.URL,
			FileKey:    result.Key,
			UploadDate: time.Now(),
		}
		if err := db.Create(&file).Error; err != nil {
			services.CleanupStoreKeys(db, services.SupabaseStore{}, uploadedKeys)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lưu tài liệu"})
			return
		}
	}

	db.Preload("Files").First(module, "id = ?", module.ID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Cập nhật module thành công",
		"module":  module,
	})
}

// DELETE /api/econtent/modules/:moduleId — xóa module cùng file
func DeleteEContentModule(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	module, _, ok := ownedEContentModule(c, db)
	if !ok {
		return
	}

	var keys []string
	var files []models.EContentFile
	db.Find(&files, "module_id = ?", module.ID)
	for _, file := range files {
		if file.FileKey != "" {
			keys = append(keys, file.FileKey)
		}
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.EContentFile{}, "module_id = ?", module.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.EContentModule{}, "id = ?", module.ID).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể xóa module"})
		return
	}

	services.CleanupStoreKeys(db, services.SupabaseStore{}, keys)

	c.JSON(http.StatusOK, gin.H{"message": "Xóa module thành công"})
}

// DELETE /api/econtent/files/:fileId — xóa một file tài liệu
func DeleteEContentFile(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	fileUUID, err := uuid.Parse(c.Param("fileId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fileId không hợp lệ"})
		return
	}

	var file models.EContentFile
	if err := db.First(&file, "id = ?", fileUUID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy tài liệu"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải tài liệu"})
		}
		return
	}

	// Xác quyền qua module cha
	c.Params = append(c.Params, gin.Param{Key: "moduleId", Value: file.ModuleID.String()})
	_, _, ok := ownedEContentModule(c, db)
	if !ok {
		return
	}

	if err := db.Delete(&models.EContentFile{}, "id = ?", file.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể xóa tài liệu"})
		return
	}

	if file.FileKey != "" {
		services.CleanupStoreKeys(db, services.SupabaseStore{}, []string{file.FileKey})
	}

	c.JSON(http.StatusOK, gin.H{"message": "Xóa tài liệu thành công"})
}

// ownedEContentModule đọc module theo :moduleId và chặn người
// không phải chủ khóa học.
func ownedEContentModule(c *gin.Context, db *gorm.DB) (*models.EContentModule, *models.Course, bool) {
	moduleUUID, err := uuid.Parse(c.Param("moduleId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "moduleId không hợp lệ"})
		return nil, nil, false
	}

	var module models.EContentModule
	if err := db.First(&module, "id = ?", moduleUUID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy module"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải module"})
		}
		return nil, nil, false
	}

	var econtent models.EContent
	if err := db.First(&econtent, "id = ?", module.EContentID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải e-content"})
		return nil, nil, false
	}

	course, err := services.FindCourse(db, econtent.CourseID)
	if err != nil {
		handleServiceError(c, err, "Không thể tải khóa học")
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
		c.JSON(http.StatusForbidden, gin.H{"error": "Bạn không có quyền trên tài liệu này"})
		return nil, nil, false
	}

	return &module, course, true
}
