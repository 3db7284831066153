package utils

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"
)

// Kết quả upload: key để xóa sau này, url public để client dùng
type UploadResult struct {
	Key string
	URL string
}

const storageBucket = "uploads"

// UploadBytesToSupabase đẩy dữ liệu lên Supabase Storage.
// Key luôn chứa một đoạn uuid nên hai file trùng tên không bao giờ đè nhau.
func UploadBytesToSupabase(data []byte, contentType, pathPrefix, fileName string) (UploadResult, error) {
	supabaseURL := os.Getenv("SUPABASE_URL")
	supabaseKey := os.Getenv("SUPABASE_KEY")

	storageClient := storage.NewClient(supabaseURL+"/storage/v1", supabaseKey, nil)

	safeName := strings.ReplaceAll(fileName, " ", "-")
	objectPath := fmt.Sprintf("%s/%s-%s", strings.Trim(pathPrefix, "/"), uuid.New().String(), safeName)

	buf := bytes.NewBuffer(data)
	options := storage.FileOptions{
		ContentType: &contentType,
	}

	_, err := storageClient.UploadFile(storageBucket, objectPath, buf, options)
	if err != nil {
		return UploadResult{}, err
	}

	publicURL := fmt.Sprintf("%s/storage/v1/object/public/%s/%s", supabaseURL, storageBucket, objectPath)
	return UploadResult{Key: objectPath, URL: publicURL}, nil
}

// UploadFileToSupabase đọc multipart file rồi upload như UploadBytesToSupabase
func UploadFileToSupabase(fileHeader *multipart.FileHeader, pathPrefix string) (UploadResult, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return UploadResult{}, err
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return UploadResult{}, err
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	name := filepath.Base(fileHeader.Filename)
	return UploadBytesToSupabase(buf.Bytes(), contentType, pathPrefix, name)
}

// DeleteFileFromSupabase xóa object theo key (đường dẫn dưới bucket).
// Yêu cầu: SUPABASE_URL và SUPABASE_KEY (service role key có quyền xóa) đã set trong ENV.
func DeleteFileFromSupabase(key string) error {
	if key == "" {
		return nil
	}

	supabaseURL := os.Getenv("SUPABASE_URL")
	supabaseKey := os.Getenv("SUPABASE_KEY")
	if supabaseURL == "" || supabaseKey == "" {
		return fmt.Errorf("SUPABASE_URL hoặc SUPABASE_KEY chưa cấu hình")
	}

	deleteURL := fmt.Sprintf("%s/storage/v1/object/%s/%s",
		strings.TrimRight(supabaseURL, "/"), storageBucket, key)

	req, err := http.NewRequest("DELETE", deleteURL, nil)
	if err != nil {
		return err
	}
	// Supabase expects Authorization: Bearer <SERVICE_KEY> and apikey header
	req.Header.Set("Authorization", "Bearer "+supabaseKey)
	req.Header.Set("apikey", supabaseKey)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	// Supabase trả 200 hoặc 204 khi xóa thành công
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("xóa file Supabase thất bại: status=%d body=%s", resp.StatusCode, string(body))
	}
	return nil
}

// KeyFromPublicURL tách object key từ public URL (dùng cho dữ liệu cũ chỉ lưu URL)
func KeyFromPublicURL(publicURL string) (string, error) {
	if publicURL == "" {
		return "", nil
	}

	idx := strings.Index(publicURL, "/storage/v1/object/")
	if idx == -1 {
		return "", fmt.Errorf("không xác định được đường dẫn object trong URL: %s", publicURL)
	}

	rest := publicURL[idx+len("/storage/v1/object/"):]
	rest = strings.TrimPrefix(rest, "public/")

	// rest => "<bucket>/<path/to/object...>"
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) < 2 {
		return "", fmt.Errorf("không parse được bucket/object từ URL: %s", publicURL)
	}
	object := parts[1]
	if qIdx := strings.Index(object, "?"); qIdx != -1 {
		object = object[:qIdx]
	}
	if u, err := url.PathUnescape(object); err == nil {
		object = u
	}
	return object, nil
}
