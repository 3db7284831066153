package config

import "time"

// Các giới hạn dùng chung cho upload và bài giảng
const (
	// Hạn review mặc định của bài giảng: 7 ngày kể từ lúc tạo
	DefaultReviewDeadlineOffset = 7 * 24 * time.Hour

	// File đính kèm / bài nộp tối đa 5MB
	MaxAttachmentSize = 5 * 1024 * 1024

	// Ảnh sự kiện tối đa 5MB
	MaxEventImageSize = 5 * 1024 * 1024
)

// MIME cho phép với file đính kèm bài tập
var AllowedAttachmentTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
	"image/jpg",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// MIME cho phép với bài nộp của sinh viên
var AllowedSubmissionTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"image/jpeg",
	"image/png",
	"application/zip",
	"application/x-zip-compressed",
}

// MIME cho phép với file e-content
var AllowedEContentTypes = []string{
	"application/pdf",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// MIME cho phép với ảnh sự kiện
var AllowedEventImageTypes = []string{
	"image/jpeg",
	"image/png",
	"image/jpg",
	"image/gif",
}

// Video bài giảng chỉ cần đúng nhóm video/*
const LectureVideoPrefix = "video/"
