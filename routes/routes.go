package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/lms-backend/controllers"
	"github.com/vnkhanh/lms-backend/middleware"
)

func SetupRouter(r *gin.Engine, db *gorm.DB) *gin.Engine {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/health", controllers.HealthCheck)

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
		auth.POST("/logingoogle", controllers.GoogleLogin)
	}

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(), middleware.DBMiddleware(db))
	{
		// Khóa học — ai đã đăng nhập cũng xem được danh sách của mình
		authed.GET("/courses", controllers.GetUserCourses)
		authed.GET("/courses/:courseId", controllers.GetCourseByID)

		// Bài giảng
		authed.GET("/courses/:courseId/lectures", controllers.GetLectures)
		authed.GET("/lectures/:lectureId", controllers.GetLectureByID)

		// Bài tập
		authed.GET("/courses/:courseId/assignments", controllers.GetAssignments)
		authed.GET("/assignments/:assignmentId", controllers.GetAssignmentByID)

		// E-content
		authed.GET("/courses/:courseId/econtent", controllers.GetEContent)

		// Sự kiện
		authed.GET("/events", controllers.GetEvents)
		authed.GET("/events/:eventId", controllers.GetEventByID)
	}

	teacher := api.Group("")
	teacher.Use(middleware.AuthMiddleware(), middleware.DBMiddleware(db), middleware.RequireRoles("teacher"))
	{
		// Quản lý khóa học
		teacher.POST("/courses", controllers.CreateCourse)
		teacher.PUT("/courses/:courseId", controllers.UpdateCourse)
		teacher.DELETE("/courses/:courseId", controllers.DeleteCourse)

		// Quản lý bài giảng
		teacher.POST("/courses/:courseId/lectures", controllers.CreateLecture)
		teacher.PUT("/lectures/:lectureId", controllers.UpdateLecture)
		teacher.DELETE("/lectures/:lectureId", controllers.DeleteLecture)
		teacher.PATCH("/lectures/:lectureId/review", controllers.ToggleLectureReview)
		teacher.POST("/courses/:courseId/lectures/reconcile", controllers.ReconcileLectures)

		// Quản lý bài tập & chấm điểm
		teacher.POST("/courses/:courseId/assignments", controllers.CreateAssignment)
		teacher.PUT("/assignments/:assignmentId", controllers.UpdateAssignment)
		teacher.DELETE("/assignments/:assignmentId", controllers.DeleteAssignment)
		teacher.PUT("/submissions/:submissionId/grade", controllers.GradeSubmission)

		// Quản lý e-content
		teacher.POST("/courses/:courseId/econtent/modules", controllers.CreateEContentModule)
		teacher.PUT("/econtent/modules/:moduleId", controllers.UpdateEContentModule)
		teacher.POST("/econtent/modules/:moduleId/files", controllers.AddEContentFiles)
		teacher.DELETE("/econtent/modules/:moduleId", controllers.DeleteEContentModule)
		teacher.DELETE("/econtent/files/:fileId", controllers.DeleteEContentFile)

		// Sinh viên của giảng viên
		teacher.GET("/teachers/me/students", controllers.GetMyStudents)
	}

	student := api.Group("")
	student.Use(middleware.AuthMiddleware(), middleware.DBMiddleware(db), middleware.RequireRoles("student"))
	{
		student.POST("/courses/:courseId/enroll", controllers.EnrollCourse)
		student.DELETE("/courses/:courseId/enroll", controllers.UnenrollCourse)
		student.POST("/assignments/:assignmentId/submissions", controllers.SubmitAssignment)
		student.GET("/students/me", controllers.GetMyStudentProfile)
		student.PUT("/students/me", controllers.UpdateMyStudentProfile)
		student.GET("/students/me/submissions", controllers.GetMySubmissions)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.DBMiddleware(db), middleware.RequireRoles("admin", "teacher"))
	{
		// Quản lý học kỳ
		admin.POST("/semesters", controllers.CreateSemester)
		admin.GET("/semesters", controllers.GetSemesters)
		admin.GET("/semesters/:semesterId", controllers.GetSemesterByID)
		admin.PUT("/semesters/:semesterId", controllers.UpdateSemester)
		admin.DELETE("/semesters/:semesterId", controllers.DeleteSemester)

		// Quản lý sự kiện
		admin.POST("/events", controllers.CreateEvent)
		admin.PUT("/events/:eventId", controllers.UpdateEvent)
		admin.DELETE("/events/:eventId", controllers.DeleteEvent)
	}

	adminOnly := api.Group("/admin")
	adminOnly.Use(middleware.AuthMiddleware(), middleware.DBMiddleware(db), middleware.RequireRoles("admin"))
	{
		adminOnly.PUT("/students/:studentId/teacher", controllers.AssignStudentTeacher)
	}

	return r
}
