package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFromPublicURL(t *testing.T) {
	key, err := KeyFromPublicURL(
		"https://abc.supabase.co/storage/v1/object/public/uploads/courses/123/lectures/video.mp4")
	require.NoError(t, err)
	assert.Equal(t, "courses/123/lectures/video.mp4", key)

	// Query string bị cắt bỏ
	key, err = KeyFromPublicURL(
		"https://abc.supabase.co/storage/v1/object/public/uploads/events/anh%20bia.png?t=123")
	require.NoError(t, err)
	assert.Equal(t, "events/anh bia.png", key)

	// URL rỗng không phải lỗi
	key, err = KeyFromPublicURL("")
	require.NoError(t, err)
	assert.Empty(t, key)

	// URL lạ
	_, err = KeyFromPublicURL("https://example.com/khong-phai-supabase.png")
	assert.Error(t, err)
}
