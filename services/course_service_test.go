package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/lms-backend/models"
)

func TestCreateCourseFullAggregate(t *testing.T) {
	db := setupTestDB(t)
	teacher := seedTeacher(t, db, "gv@test.edu")
	otherTeacher := seedTeacher(t, db, "gv2@test.edu")
	semester := seedSemester(t, db, "HK1 2026-2027")

	// 2 sinh viên của giảng viên, 1 của giảng viên khác
	seedStudent(t, db, "sv1@test.edu", teacher)
	seedStudent(t, db, "sv2@test.edu", teacher)
	seedStudent(t, db, "sv3@test.edu", otherTeacher)

	input := CreateCourseInput{
		Title:            "Cấu trúc dữ liệu",
		AboutCourse:      "Môn học nền tảng",
		SemesterID:       semester.ID,
		LearningOutcomes: []string{"Hiểu danh sách liên kết", "Cài đặt cây nhị phân"},
		CourseSchedule: &ScheduleInput{
			ClassStartDate:      time.Now(),
			ClassEndDate:        time.Now().AddDate(0, 3, 0),
			MidSemesterExamDate: time.Now().AddDate(0, 1, 15),
			EndSemesterExamDate: time.Now().AddDate(0, 3, 5),
			ClassDaysAndTimes: []models.ClassDayTime{
				{Day: "Thứ 2", StartTime: "07:30", EndTime: "09:30"},
			},
		},
		Syllabus: []models.SyllabusModule{
			{ModuleNumber: 1, ModuleTitle: "Mở đầu", Topics: []string{"Big-O"}},
		},
		WeeklyPlan: []models.PlanWeek{
			{WeekNumber: 1, Topics: []string{"Giới thiệu"}},
		},
		CreditPoints: &CreditPointsInput{Lecture: 2, Practical: 1},
		Attendance: &AttendanceInput{
			Sessions: map[string]interface{}{"buoi-1": []interface{}{}},
		},
		Lectures: []LectureSeedInput{
			{Title: "Bài 1"},
			{Title: "Bài 2", Content: "Nội dung bài 2"},
		},
	}

	course, err := CreateCourse(db, teacher, input)
	require.NoError(t, err)
	assert.Equal(t, "cau-truc-du-lieu", course.Slug)

	// Các bảng vệ tinh đều được tạo
	var outcomeCount, scheduleCount, syllabusCount, planCount, creditCount, attendanceCount int64
	db.Model(&models.CourseOutcome{}).Where("course_id = ?", course.ID).Count(&outcomeCount)
	db.Model(&models.CourseSchedule{}).Where("course_id = ?", course.ID).Count(&scheduleCount)
	db.Model(&models.CourseSyllabus{}).Where("course_id = ?", course.ID).Count(&syllabusCount)
	db.Model(&models.WeeklyPlan{}).Where("course_id = ?", course.ID).Count(&planCount)
	db.Model(&models.CreditPoints{}).Where("course_id = ?", course.ID).Count(&creditCount)
	db.Model(&models.CourseAttendance{}).Where("course_id = ?", course.ID).Count(&attendanceCount)
	assert.EqualValues(t, 1, outcomeCount)
	assert.EqualValues(t, 1, scheduleCount)
	assert.EqualValues(t, 1, syllabusCount)
	assert.EqualValues(t, 1, planCount)
	assert.EqualValues(t, 1, creditCount)
	assert.EqualValues(t, 1, attendanceCount)

	// Bài giảng khởi tạo có hạn review mặc định ~7 ngày
	var lectures []models.Lecture
	require.NoError(t, db.Find(&lectures, "course_id = ?", course.ID).Error)
	require.Len(t, lectures, 2)
	for _, lecture := range lectures {
		require.NotNil(t, lecture.ReviewDeadline)
		assert.False(t, lecture.IsReviewed)
		assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), *lecture.ReviewDeadline, time.Minute)
	}

	// Ghi danh tự động: đúng 2 sinh viên của giảng viên, trạng thái active
	var enrollments []models.Enrollment
	require.NoError(t, db.Find(&enrollments, "course_id = ?", course.ID).Error)
	require.Len(t, enrollments, 2)
	for _, enrollment := range enrollments {
		assert.Equal(t, models.EnrollmentActive, enrollment.Status)
	}
}

func TestCreateCourseUnknownSemesterRollsBack(t *testing.T) {
	db := setupTestDB(t)
	teacher := seedTeacher(t, db, "gv@test.edu")
	seedStudent(t, db, "sv@test.edu", teacher)

	_, err := CreateCourse(db, teacher, CreateCourseInput{
		Title:       "Khóa học mồ côi",
		AboutCourse: "Không có học kỳ",
		SemesterID:  uuid.New(),
		Lectures:    []LectureSeedInput{{Title: "Bài 1"}},
	})
	require.ErrorIs(t, err, ErrSemesterNotFound)
	require.ErrorIs(t, err, ErrNotFound)

	// Không được để lại bất kỳ dấu vết nào
	var courseCount, lectureCount, enrollmentCount int64
	db.Model(&models.Course{}).Count(&courseCount)
	db.Model(&models.Lecture{}).Count(&lectureCount)
	db.Model(&models.Enrollment{}).Count(&enrollmentCount)
	assert.Zero(t, courseCount)
	assert.Zero(t, lectureCount)
	assert.Zero(t, enrollmentCount)
}

func TestFormatCourseZeroValues(t *testing.T) {
	db := setupTestDB(t)
	teacher := seedTeacher(t, db, "gv@test.edu")
	semester := seedSemester(t, db, "HK1")

	created, err := CreateCourse(db, teacher, CreateCourseInput{
		Title:       "Khóa học tối giản",
		AboutCourse: "Không có thành phần vệ tinh",
		SemesterID:  semester.ID,
	})
	require.NoError(t, err)

	course, err := FindCourse(db, created.ID)
	require.NoError(t, err)
	view := FormatCourse(course)

	// Hợp đồng đọc: vệ tinh vắng mặt trả về giá trị zero xác định
	assert.Equal(t, CreditPointsView{}, view.CreditPoints)
	assert.NotNil(t, view.LearningOutcomes)
	assert.Empty(t, view.LearningOutcomes)
	assert.NotNil(t, view.WeeklyPlan)
	assert.Empty(t, view.WeeklyPlan)
	assert.NotNil(t, view.Syllabus)
	assert.Empty(t, view.Syllabus)
	assert.Nil(t, view.CourseSchedule)
	assert.NotNil(t, view.Attendance)
	assert.Empty(t, view.Attendance)
	assert.NotNil(t, view.Lectures)
	assert.NotNil(t, view.Assignments)
	require.NotNil(t, view.Semester)
	assert.Equal(t, semester.ID, view.Semester.ID)
}

func TestUpdateCourseUpsertsSatellites(t *testing.T) {
	db := setupTestDB(t)
	teacher := seedTeacher(t, db, "gv@test.edu")
	semester := seedSemester(t, db, "HK1")
	course := seedCourse(t, db, teacher, semester)

	// Lần 1: chưa có bảng outcome -> tạo mới
	outcomes := []string{"Chuẩn A"}
	require.NoError(t, UpdateCourse(db, course, UpdateCourseInput{
		LearningOutcomes: &outcomes,
	}))

	var count int64
	db.Model(&models.CourseOutcome{}).Where("course_id = ?", course.ID).Count(&count)
	require.EqualValues(t, 1, count)

	// Lần 2: đã có -> update tại chỗ, vẫn đúng 1 dòng
	outcomes = []string{"Chuẩn A", "Chuẩn B"}
	require.NoError(t, UpdateCourse(db, course, UpdateCourseInput{
		LearningOutcomes: &outcomes,
	}))

	db.Model(&models.CourseOutcome{}).Where("course_id = ?", course.ID).Count(&count)
	assert.EqualValues(t, 1, count)

	var outcome models.CourseOutcome
	require.NoError(t, db.First(&outcome, "course_id = ?", course.ID).Error)
	assert.Len(t, []string(outcome.Outcomes), 2)

	// Field nil không bị đụng tới
	var reloaded models.Course
	require.NoError(t, db.First(&reloaded, "id = ?", course.ID).Error)
	assert.Equal(t, course.Title, reloaded.Title)
}

func TestUpdateCourseUnknownSemesterRejected(t *testing.T) {
	db := setupTestDB(t)
	teacher := seedTeacher(t, db, "gv@test.edu")
	semester := seedSemester(t, db, "HK1")
	course := seedCourse(t, db, teacher, semester)

	badSemester := uuid.New()
	newTitle := "Tên mới"
	err := UpdateCourse(db, course, UpdateCourseInput{
		Title:      &newTitle,
		SemesterID: &badSemester,
	})
	require.ErrorIs(t, err, ErrSemesterNotFound)

	// Rollback cả title dù title hợp lệ
	var reloaded models.Course
	require.NoError(t, db.First(&reloaded, "id = ?", course.ID).Error)
	assert.Equal(t, course.Title, reloaded.Title)
	assert.Equal(t, semester.ID, reloaded.SemesterID)
}

func TestDeleteCourseCascades(t *testing.T) {
	db := setupTestDB(t)
	teacher := seedTeacher(t, db, "gv@test.edu")
	semester := seedSemester(t, db, "HK1")
	student := seedStudent(t, db, "sv@test.edu", teacher)

	course, err := CreateCourse(db, teacher, CreateCourseInput{
		Title:            "Khóa học sắp xóa",
		AboutCourse:      "x",
		SemesterID:       semester.ID,
		LearningOutcomes: []string{"A"},
		CreditPoints:     &CreditPointsInput{Lecture: 2},
	})
	require.NoError(t, err)

	// Gắn file vào mọi tầng của aggregate
	lecture := models.Lecture{
		CourseID: course.ID, Title: "Bài 1", VideoKey: "video/bai1.mp4",
	}
	require.NoError(t, db.Create(&lecture).Error)

	assignment := models.Assignment{
		CourseID: course.ID, Title: "BT1", Description: "x",
		DueDate: time.Now().AddDate(0, 0, 7), TotalPoints: 10,
		Attachments: []models.Attachment{{Name: "de.pdf", Key: "attachments/de.pdf"}},
	}
	require.NoError(t, db.Create(&assignment).Error)

	submission := models.Submission{
		AssignmentID: assignment.ID, StudentID: student.ID,
		SubmissionFile: "url", SubmissionKey: "submissions/bai.pdf",
		SubmissionDate: time.Now(), Status: models.SubmissionSubmitted,
	}
	require.NoError(t, db.Create(&submission).Error)

	econtent := models.EContent{CourseID: course.ID}
	require.NoError(t, db.Create(&econtent).Error)
	module := models.EContentModule{EContentID: econtent.ID, ModuleNumber: 1, ModuleTitle: "M1"}
	require.NoError(t, db.Create(&module).Error)
	file := models.EContentFile{
		ModuleID: module.ID, FileName: "slide.pdf", FileURL: "url",
		FileKey: "econtent/slide.pdf", UploadDate: time.Now(),
	}
	require.NoError(t, db.Create(&file).Error)

	store := &fakeStore{}
	require.NoError(t, DeleteCourse(db, store, course))

	// Mọi bảng liên quan phải sạch
	for name, model := range map[string]interface{}{
		"course":      &models.Course{},
		"outcome":     &models.CourseOutcome{},
		"credits":     &models.CreditPoints{},
		"lecture":     &models.Lecture{},
		"assignment":  &models.Assignment{},
		"submission":  &models.Submission{},
		"enrollment":  &models.Enrollment{},
		"econtent":    &models.EContent{},
		"module":      &models.EContentModule{},
		"file":        &models.EContentFile{},
	} {
		var count int64
		db.Model(model).Count(&count)
		assert.Zero(t, count, "bảng %s còn dữ liệu sau khi xóa", name)
	}

	// Mọi key đều được gửi sang store
	assert.True(t, store.hasDeleted("video/bai1.mp4"))
	assert.True(t, store.hasDeleted("attachments/de.pdf"))
	assert.True(t, store.hasDeleted("submissions/bai.pdf"))
	assert.True(t, store.hasDeleted("econtent/slide.pdf"))
}

func TestDeleteCourseStoreFailureKeepsDBDeleted(t *testing.T) {
	db := setupTestDB(t)
	teacher := seedTeacher(t, db, "gv@test.edu")
	semester := seedSemester(t, db, "HK1")
	course := seedCourse(t, db, teacher, semester)

	lecture := models.Lecture{CourseID: course.ID, Title: "Bài 1", VideoKey: "video/bai1.mp4"}
	require.NoError(t, db.Create(&lecture).Error)

	store := &fakeStore{failAll: true}
	require.NoError(t, DeleteCourse(db, store, course), "store lỗi không được làm fail thao tác xóa")

	var courseCount int64
	db.Model(&models.Course{}).Count(&courseCount)
	assert.Zero(t, courseCount)

	// Key xóa hụt nằm trong hàng đợi orphan
	var orphans []models.StorageOrphan
	require.NoError(t, db.Find(&orphans).Error)
	require.Len(t, orphans, 1)
	assert.Equal(t, "video/bai1.mp4", orphans[0].Key)
	assert.Equal(t, 1, orphans[0].Attempts)

	// Store hồi phục -> sweep dọn sạch hàng đợi
	recovered := &fakeStore{}
	cleaned, err := SweepStorageOrphans(db, recovered)
	require.NoError(t, err)
	assert.Equal(t, 1, cleaned)

	var remaining int64
	db.Model(&models.StorageOrphan{}).Count(&remaining)
	assert.Zero(t, remaining)
}
