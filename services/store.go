package services

import (
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vnkhanh/lms-backend/models"
	"github.com/vnkhanh/lms-backend/utils"
)

// FileStore trừu tượng hóa object store: upload trả về {key, url},
// delete theo key và có thể thất bại mà không kéo theo transaction DB.
type FileStore interface {
	Upload(data []byte, contentType, pathPrefix, fileName string) (utils.UploadResult, error)
	Delete(key string) error
}

// SupabaseStore là FileStore chạy trên Supabase Storage
type SupabaseStore struct{}

func (SupabaseStore) Upload(data []byte, contentType, pathPrefix, fileName string) (utils.UploadResult, error) {
	return utils.UploadBytesToSupabase(data, contentType, pathPrefix, fileName)
}

func (SupabaseStore) Delete(key string) error {
	return utils.DeleteFileFromSupabase(key)
}

// StoreKeyFor trả về key của một file trên store; bản ghi cũ chỉ lưu
// public URL thì tách key từ URL ra. Không tách được thì trả rỗng.
func StoreKeyFor(key, publicURL string) string {
	if key != "" {
		return key
	}
	derived, err := utils.KeyFromPublicURL(publicURL)
	if err != nil {
		log.Printf("Không tách được key từ URL %s: %v", publicURL, err)
		return ""
	}
	return derived
}

// CleanupStoreKeys xóa best-effort các key trên store sau khi transaction DB
// đã commit. Key xóa lỗi được ghi vào bảng storage_orphans để job nền thử lại,
// không bao giờ làm fail thao tác gọi nó.
func CleanupStoreKeys(db *gorm.DB, store FileStore, keys []string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := store.Delete(key); err != nil {
			log.Printf("Xóa file trên store thất bại, đưa vào hàng đợi: key=%s err=%v", key, err)
			recordOrphan(db, key, err)
		}
	}
}

func recordOrphan(db *gorm.DB, key string, cause error) {
	orphan := models.StorageOrphan{
		Key:       key,
		LastError: cause.Error(),
		Attempts:  1,
	}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_error": cause.Error(),
			"attempts":   gorm.Expr("storage_orphans.attempts + 1"),
		}),
	}).Create(&orphan).Error
	if err != nil {
		log.Printf("Không ghi được storage orphan: key=%s err=%v", key, err)
	}
}

// SweepStorageOrphans thử xóa lại toàn bộ key còn tồn đọng.
// Trả về số key đã xóa thành công.
func SweepStorageOrphans(db *gorm.DB, store FileStore) (int, error) {
	var orphans []models.StorageOrphan
	if err := db.Order("created_at").Find(&orphans).Error; err != nil {
		return 0, err
	}

	cleaned := 0
	for _, orphan := range orphans {
		if err := store.Delete(orphan.Key); err != nil {
			db.Model(&models.StorageOrphan{}).Where("id = ?", orphan.ID).
				Updates(map[string]interface{}{
					"last_error": err.Error(),
					"attempts":   gorm.Expr("attempts + 1"),
				})
			continue
		}
		db.Delete(&models.StorageOrphan{}, "id = ?", orphan.ID)
		cleaned++
	}
	return cleaned, nil
}

// StartStorageSweepJob chạy sweep định kỳ mỗi 6 giờ
func StartStorageSweepJob(db *gorm.DB, store FileStore) {
	log.Println("Đang chạy storage sweep lần đầu...")
	if n, err := SweepStorageOrphans(db, store); err != nil {
		log.Printf("Storage sweep lỗi: %v", err)
	} else if n > 0 {
		log.Printf("Đã dọn %d file tồn đọng trên store", n)
	}

	ticker := time.NewTicker(6 * time.Hour)

	go func() {
		defer ticker.Stop()
		for range ticker.C {
			if n, err := SweepStorageOrphans(db, store); err != nil {
				log.Printf("Storage sweep lỗi: %v", err)
			} else if n > 0 {
				log.Printf("Đã dọn %d file tồn đọng trên store", n)
			}
		}
	}()

	log.Println("Storage sweep job đã được khởi động (chạy mỗi 6 giờ)")
}
