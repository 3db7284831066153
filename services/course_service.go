package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/vnkhanh/lms-backend/config"
	"github.com/vnkhanh/lms-backend/models"
)

var ErrSemesterNotFound = fmt.Errorf("%w: học kỳ", ErrNotFound)

// ==================== INPUT ====================

type ScheduleInput struct {
	ClassStartDate      time.Time             `json:"class_start_date" binding:"required"`
	ClassEndDate        time.Time             `json:"class_end_date" binding:"required"`
	MidSemesterExamDate time.Time             `json:"mid_semester_exam_date" binding:"required"`
	EndSemesterExamDate time.Time             `json:"end_semester_exam_date" binding:"required"`
	ClassDaysAndTimes   []models.ClassDayTime `json:"class_days_and_times"`
}

type CreditPointsInput struct {
	Lecture   int `json:"lecture"`
	Tutorial  int `json:"tutorial"`
	Practical int `json:"practical"`
	Project   int `json:"project"`
}

type AttendanceInput struct {
	Sessions map[string]interface{} `json:"sessions"`
}

type LectureSeedInput struct {
	Title          string     `json:"title" binding:"required"`
	Content        string     `json:"content"`
	VideoURL       string     `json:"video_url"`
	IsReviewed     bool       `json:"is_reviewed"`
	ReviewDeadline *time.Time `json:"review_deadline"`
}

// CreateCourseInput: các thành phần vệ tinh đều tùy chọn,
// thiếu thành phần nào thì khóa học đơn giản là không có thành phần đó.
type CreateCourseInput struct {
	Title            string                  `json:"title" binding:"required"`
	AboutCourse      string                  `json:"about_course" binding:"required"`
	SemesterID       uuid.UUID               `json:"semester_id" binding:"required"`
	LearningOutcomes []string                `json:"learning_outcomes"`
	CourseSchedule   *ScheduleInput          `json:"course_schedule"`
	Syllabus         []models.SyllabusModule `json:"syllabus"`
	WeeklyPlan       []models.PlanWeek       `json:"weekly_plan"`
	CreditPoints     *CreditPointsInput      `json:"credit_points"`
	Attendance       *AttendanceInput        `json:"attendance"`
	Lectures         []LectureSeedInput      `json:"lectures"`
}

// UpdateCourseInput: chỉ field khác nil mới được cập nhật;
// thành phần vệ tinh cập nhật theo kiểu upsert.
type UpdateCourseInput struct {
	Title            *string                  `json:"title"`
	AboutCourse      *string                  `json:"about_course"`
	SemesterID       *uuid.UUID               `json:"semester_id"`
	LearningOutcomes *[]string                `json:"learning_outcomes"`
	CourseSchedule   *ScheduleInput           `json:"course_schedule"`
	Syllabus         *[]models.SyllabusModule `json:"syllabus"`
	WeeklyPlan       *[]models.PlanWeek       `json:"weekly_plan"`
	CreditPoints     *CreditPointsInput       `json:"credit_points"`
	Attendance       *AttendanceInput         `json:"attendance"`
}

// ==================== CREATE ====================

// CreateCourse dựng toàn bộ aggregate trong một transaction:
// khóa học + các bảng vệ tinh có mặt trong input + bài giảng khởi tạo +
// ghi danh tự động toàn bộ sinh viên của giảng viên.
// Bất kỳ bước nào lỗi là rollback hết, không bao giờ có khóa học dở dang.
func CreateCourse(db *gorm.DB, teacher *models.Teacher, input CreateCourseInput) (*models.Course, error) {
	course := models.Course{
		Title:       input.Title,
		Slug:        slug.Make(input.Title),
		AboutCourse: input.AboutCourse,
		SemesterID:  input.SemesterID,
		TeacherID:   teacher.ID,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		// Học kỳ phải tồn tại
		var semester models.Semester
		if err := tx.First(&semester, "id = ?", input.SemesterID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSemesterNotFound
			}
			return err
		}

		if err := tx.Create(&course).Error; err != nil {
			return err
		}

		if len(input.LearningOutcomes) > 0 {
			outcome := models.CourseOutcome{
				CourseID: course.ID,
				Outcomes: datatypes.NewJSONSlice(input.LearningOutcomes),
			}
			if err := tx.Create(&outcome).Error; err != nil {
				return err
			}
		}

		if input.CourseSchedule != nil {
			schedule := models.CourseSchedule{
				CourseID:            course.ID,
				ClassStartDate:      input.CourseSchedule.ClassStartDate,
				ClassEndDate:        input.CourseSchedule.ClassEndDate,
				MidSemesterExamDate: input.CourseSchedule.MidSemesterExamDate,
				EndSemesterExamDate: input.CourseSchedule.EndSemesterExamDate,
				ClassDaysAndTimes:   datatypes.NewJSONSlice(input.CourseSchedule.ClassDaysAndTimes),
			}
			if err := tx.Create(&schedule).Error; err != nil {
				return err
			}
		}

		if len(input.Syllabus) > 0 {
			syllabus := models.CourseSyllabus{
				CourseID: course.ID,
				Modules:  datatypes.NewJSONSlice(input.Syllabus),
			}
			if err := tx.Create(&syllabus).Error; err != nil {
				return err
			}
		}

		if len(input.WeeklyPlan) > 0 {
			plan := models.WeeklyPlan{
				CourseID: course.ID,
				Weeks:    datatypes.NewJSONSlice(input.WeeklyPlan),
			}
			if err := tx.Create(&plan).Error; err != nil {
				return err
			}
		}

		if input.CreditPoints != nil {
			credits := models.CreditPoints{
				CourseID:  course.ID,
				Lecture:   input.CreditPoints.Lecture,
				Tutorial:  input.CreditPoints.Tutorial,
				Practical: input.CreditPoints.Practical,
				Project:   input.CreditPoints.Project,
			}
			if err := tx.Create(&credits).Error; err != nil {
				return err
			}
		}

		if input.Attendance != nil && input.Attendance.Sessions != nil {
			attendance := models.CourseAttendance{
				CourseID: course.ID,
				Sessions: datatypes.JSONMap(input.Attendance.Sessions),
			}
			if err := tx.Create(&attendance).Error; err != nil {
				return err
			}
		}

		// Bài giảng khởi tạo, hạn review mặc định 7 ngày
		for _, seed := range input.Lectures {
			deadline := seed.ReviewDeadline
			if deadline == nil {
				d := time.Now().Add(config.DefaultReviewDeadlineOffset)
				deadline = &d
			}
			content := seed.Content
			if content == "" {
				content = seed.Title
			}
			lecture := models.Lecture{
				CourseID:       course.ID,
				Title:          seed.Title,
				Content:        content,
				VideoURL:       seed.VideoURL,
				IsReviewed:     seed.IsReviewed,
				ReviewDeadline: deadline,
			}
			if err := tx.Create(&lecture).Error; err != nil {
				return err
			}
		}

		// Ghi danh tự động: khóa học mới mặc định hiện ra với mọi sinh viên
		// của giảng viên, không phải opt-in.
		var students []models.Student
		if err := tx.Find(&students, "teacher_id = ?", teacher.ID).Error; err != nil {
			return err
		}
		if len(students) > 0 {
			enrollments := make([]models.Enrollment, 0, len(students))
			now := time.Now()
			for _, student := range students {
				enrollments = append(enrollments, models.Enrollment{
					StudentID:      student.ID,
					CourseID:       course.ID,
					EnrollmentDate: now,
					Status:         models.EnrollmentActive,
				})
			}
			if err := tx.Create(&enrollments).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &course, nil
}

// ==================== UPDATE ====================

// UpdateCourse cập nhật một phần: field nil giữ nguyên,
// thành phần vệ tinh có thì update tại chỗ, chưa có thì tạo mới.
func UpdateCourse(db *gorm.DB, course *models.Course, input UpdateCourseInput) error {
	return db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{}
		if input.Title != nil {
			updates["title"] = *input.Title
			updates["slug"] = slug.Make(*input.Title)
		}
		if input.AboutCourse != nil {
			updates["about_course"] = *input.AboutCourse
		}
		if input.SemesterID != nil {
			// Học kỳ mới phải tồn tại; không đối chiếu lại ngày tháng
			// với lecture/assignment hiện có.
			var semester models.Semester
			if err := tx.First(&semester, "id = ?", *input.SemesterID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrSemesterNotFound
				}
				return err
			}
			updates["semester_id"] = *input.SemesterID
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.Course{}).Where("id = ?", course.ID).Updates(updates).Error; err != nil {
				return err
			}
		}

		if input.LearningOutcomes != nil {
			var outcome models.CourseOutcome
			err := tx.First(&outcome, "course_id = ?", course.ID).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				outcome = models.CourseOutcome{
					CourseID: course.ID,
					Outcomes: datatypes.NewJSONSlice(*input.LearningOutcomes),
				}
				if err := tx.Create(&outcome).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				outcome.Outcomes = datatypes.NewJSONSlice(*input.LearningOutcomes)
				if err := tx.Save(&outcome).Error; err != nil {
					return err
				}
			}
		}

		if input.CourseSchedule != nil {
			var schedule models.CourseSchedule
			err := tx.First(&schedule, "course_id = ?", course.ID).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				schedule = models.CourseSchedule{CourseID: course.ID}
				applySchedule(&schedule, input.CourseSchedule)
				if err := tx.Create(&schedule).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				applySchedule(&schedule, input.CourseSchedule)
				if err := tx.Save(&schedule).Error; err != nil {
					return err
				}
			}
		}

		if input.Syllabus != nil {
			var syllabus models.CourseSyllabus
			err := tx.First(&syllabus, "course_id = ?", course.ID).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				syllabus = models.CourseSyllabus{
					CourseID: course.ID,
					Modules:  datatypes.NewJSONSlice(*input.Syllabus),
				}
				if err := tx.Create(&syllabus).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				syllabus.Modules = datatypes.NewJSONSlice(*input.Syllabus)
				if err := tx.Save(&syllabus).Error; err != nil {
					return err
				}
			}
		}

		if input.WeeklyPlan != nil {
			var plan models.WeeklyPlan
			err := tx.First(&plan, "course_id = ?", course.ID).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				plan = models.WeeklyPlan{
					CourseID: course.ID,
					Weeks:    datatypes.NewJSONSlice(*input.WeeklyPlan),
				}
				if err := tx.Create(&plan).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				plan.Weeks = datatypes.NewJSONSlice(*input.WeeklyPlan)
				if err := tx.Save(&plan).Error; err != nil {
					return err
				}
			}
		}

		if input.CreditPoints != nil {
			var credits models.CreditPoints
			err := tx.First(&credits, "course_id = ?", course.ID).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				credits = models.CreditPoints{CourseID: course.ID}
				applyCredits(&credits, input.CreditPoints)
				if err := tx.Create(&credits).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				applyCredits(&credits, input.CreditPoints)
				if err := tx.Save(&credits).Error; err != nil {
					return err
				}
			}
		}

		if input.Attendance != nil && input.Attendance.Sessions != nil {
			var attendance models.CourseAttendance
			err := tx.First(&attendance, "course_id = ?", course.ID).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				attendance = models.CourseAttendance{
					CourseID: course.ID,
					Sessions: datatypes.JSONMap(input.Attendance.Sessions),
				}
				if err := tx.Create(&attendance).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				attendance.Sessions = datatypes.JSONMap(input.Attendance.Sessions)
				if err := tx.Save(&attendance).Error; err != nil {
					return err
				}
			}
		}

		return nil
	})
}

func applySchedule(schedule *models.CourseSchedule, input *ScheduleInput) {
	schedule.ClassStartDate = input.ClassStartDate
	schedule.ClassEndDate = input.ClassEndDate
	schedule.MidSemesterExamDate = input.MidSemesterExamDate
	schedule.EndSemesterExamDate = input.EndSemesterExamDate
	schedule.ClassDaysAndTimes = datatypes.NewJSONSlice(input.ClassDaysAndTimes)
}

func applyCredits(credits *models.CreditPoints, input *CreditPointsInput) {
	credits.Lecture = input.Lecture
	credits.Tutorial = input.Tutorial
	credits.Practical = input.Practical
	credits.Project = input.Project
}

// ==================== DELETE ====================

// DeleteCourse xóa cascade toàn bộ aggregate trong một transaction DB,
// sau đó mới dọn file trên object store best-effort: store lỗi không bao giờ
// rollback DB, key dọn hụt rơi vào storage_orphans.
func DeleteCourse(db *gorm.DB, store FileStore, course *models.Course) error {
	var storeKeys []string

	err := db.Transaction(func(tx *gorm.DB) error {
		// Gom key file trước khi các dòng DB biến mất
		var lectures []models.Lecture
		if err := tx.Find(&lectures, "course_id = ?", course.ID).Error; err != nil {
			return err
		}
		for _, lecture := range lectures {
			if key := StoreKeyFor(lecture.VideoKey, lecture.VideoURL); key != "" {
				storeKeys = append(storeKeys, key)
			}
		}

		var assignments []models.Assignment
		if err := tx.Find(&assignments, "course_id = ?", course.ID).Error; err != nil {
			return err
		}
		assignmentIDs := make([]uuid.UUID, 0, len(assignments))
		for _, assignment := range assignments {
			assignmentIDs = append(assignmentIDs, assignment.ID)
			for _, attachment := range assignment.Attachments {
				if key := StoreKeyFor(attachment.Key, attachment.URL); key != "" {
					storeKeys = append(storeKeys, key)
				}
			}
		}

		if len(assignmentIDs) > 0 {
			var submissions []models.Submission
			if err := tx.Find(&submissions, "assignment_id IN ?", assignmentIDs).Error; err != nil {
				return err
			}
			for _, submission := range submissions {
				if key := StoreKeyFor(submission.SubmissionKey, submission.SubmissionFile); key != "" {
					storeKeys = append(storeKeys, key)
				}
			}
			if err := tx.Delete(&models.Submission{}, "assignment_id IN ?", assignmentIDs).Error; err != nil {
				return err
			}
		}

		var econtent models.EContent
		hasEContent := true
		if err := tx.First(&econtent, "course_id = ?", course.ID).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			hasEContent = false
		}
		if hasEContent {
			var modules []models.EContentModule
			if err := tx.Find(&modules, "e_content_id = ?", econtent.ID).Error; err != nil {
				return err
			}
			moduleIDs := make([]uuid.UUID, 0, len(modules))
			for _, module := range modules {
				moduleIDs = append(moduleIDs, module.ID)
			}
			if len(moduleIDs) > 0 {
				var files []models.EContentFile
				if err := tx.Find(&files, "module_id IN ?", moduleIDs).Error; err != nil {
					return err
				}
				for _, f := range files {
					if key := StoreKeyFor(f.FileKey, f.FileURL); key != "" {
						storeKeys = append(storeKeys, key)
					}
				}
				if err := tx.Delete(&models.EContentFile{}, "module_id IN ?", moduleIDs).Error; err != nil {
					return err
				}
				if err := tx.Delete(&models.EContentModule{}, "e_content_id = ?", econtent.ID).Error; err != nil {
					return err
				}
			}
			if err := tx.Delete(&models.EContent{}, "id = ?", econtent.ID).Error; err != nil {
				return err
			}
		}

		if err := tx.Delete(&models.Enrollment{}, "course_id = ?", course.ID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Lecture{}, "course_id = ?", course.ID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Assignment{}, "course_id = ?", course.ID).Error; err != nil {
			return err
		}

		// 7 bảng vệ tinh
		if err := tx.Delete(&models.CourseOutcome{}, "course_id = ?", course.ID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.CourseSchedule{}, "course_id = ?", course.ID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.CourseSyllabus{}, "course_id = ?", course.ID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.WeeklyPlan{}, "course_id = ?", course.ID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.CreditPoints{}, "course_id = ?", course.ID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.CourseAttendance{}, "course_id = ?", course.ID).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Course{}, "id = ?", course.ID).Error
	})
	if err != nil {
		return err
	}

	CleanupStoreKeys(db, store, storeKeys)
	return nil
}

// ==================== READ ====================

// FindCourse load khóa học kèm toàn bộ thành phần
func FindCourse(db *gorm.DB, courseID uuid.UUID) (*models.Course, error) {
	var course models.Course
	err := db.
		Preload("Semester").
		Preload("Teacher").
		Preload("Teacher.User").
		Preload("Outcomes").
		Preload("Schedule").
		Preload("Syllabus").
		Preload("WeeklyPlan").
		Preload("CreditPoints").
		Preload("Attendance").
		Preload("Lectures").
		Preload("Assignments").
		First(&course, "id = ?", courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

type SemesterView struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type CreditPointsView struct {
	Lecture   int `json:"lecture"`
	Tutorial  int `json:"tutorial"`
	Practical int `json:"practical"`
	Project   int `json:"project"`
}

type ScheduleView struct {
	ClassStartDate      time.Time             `json:"class_start_date"`
	ClassEndDate        time.Time             `json:"class_end_date"`
	MidSemesterExamDate time.Time             `json:"mid_semester_exam_date"`
	EndSemesterExamDate time.Time             `json:"end_semester_exam_date"`
	ClassDaysAndTimes   []models.ClassDayTime `json:"class_days_and_times"`
}

// CourseView là hợp đồng đọc của aggregate: thành phần vệ tinh vắng mặt
// được trả về dưới dạng giá trị zero có tài liệu, không bao giờ null lung tung.
type CourseView struct {
	ID               uuid.UUID               `json:"id"`
	Title            string                  `json:"title"`
	Slug             string                  `json:"slug"`
	AboutCourse      string                  `json:"about_course"`
	Semester         *SemesterView           `json:"semester"`
	CreditPoints     CreditPointsView        `json:"credit_points"`
	LearningOutcomes []string                `json:"learning_outcomes"`
	WeeklyPlan       []models.PlanWeek       `json:"weekly_plan"`
	Syllabus         []models.SyllabusModule `json:"syllabus"`
	CourseSchedule   *ScheduleView           `json:"course_schedule"`
	Attendance       map[string]interface{}  `json:"attendance"`
	Lectures         []models.Lecture        `json:"lectures"`
	Assignments      []models.Assignment     `json:"assignments"`
}

// FormatCourse chuẩn hóa dữ liệu trả về:
// credit_points -> toàn 0, outcomes/weekly_plan/syllabus -> slice rỗng,
// course_schedule -> null, attendance -> map rỗng.
func FormatCourse(course *models.Course) CourseView {
	view := CourseView{
		ID:               course.ID,
		Title:            course.Title,
		Slug:             course.Slug,
		AboutCourse:      course.AboutCourse,
		LearningOutcomes: []string{},
		WeeklyPlan:       []models.PlanWeek{},
		Syllabus:         []models.SyllabusModule{},
		Attendance:       map[string]interface{}{},
		Lectures:         course.Lectures,
		Assignments:      course.Assignments,
	}
	if view.Lectures == nil {
		view.Lectures = []models.Lecture{}
	}
	if view.Assignments == nil {
		view.Assignments = []models.Assignment{}
	}

	if course.Semester.ID != uuid.Nil {
		view.Semester = &SemesterView{
			ID:        course.Semester.ID,
			Name:      course.Semester.Name,
			StartDate: course.Semester.StartDate,
			EndDate:   course.Semester.EndDate,
		}
	}
	if course.CreditPoints != nil {
		view.CreditPoints = CreditPointsView{
			Lecture:   course.CreditPoints.Lecture,
			Tutorial:  course.CreditPoints.Tutorial,
			Practical: course.CreditPoints.Practical,
			Project:   course.CreditPoints.Project,
		}
	}
	if course.Outcomes != nil {
		view.LearningOutcomes = course.Outcomes.Outcomes
	}
	if course.WeeklyPlan != nil {
		view.WeeklyPlan = course.WeeklyPlan.Weeks
	}
	if course.Syllabus != nil {
		view.Syllabus = course.Syllabus.Modules
	}
	if course.Schedule != nil {
		view.CourseSchedule = &ScheduleView{
			ClassStartDate:      course.Schedule.ClassStartDate,
			ClassEndDate:        course.Schedule.ClassEndDate,
			MidSemesterExamDate: course.Schedule.MidSemesterExamDate,
			EndSemesterExamDate: course.Schedule.EndSemesterExamDate,
			ClassDaysAndTimes:   course.Schedule.ClassDaysAndTimes,
		}
	}
	if course.Attendance != nil {
		view.Attendance = course.Attendance.Sessions
	}
	return view
}
