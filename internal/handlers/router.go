package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/services"
	"github.com/achievers-lc/learning-center/internal/utils"
)

type HandlerManager struct {
	serviceManager    services.ServiceManager
	accountHandler    *AccountHandler
	courseHandler     *CourseHandler
	enrollmentHandler *EnrollmentHandler
	attendanceHandler *AttendanceHandler
	authMiddleware    *CasdoorAuthMiddleware
}

func NewHandlerManager(serviceManager services.ServiceManager, resolver AccountResolver, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		serviceManager:    serviceManager,
		accountHandler:    NewAccountHandler(serviceManager.Users(), logger),
		courseHandler:     NewCourseHandler(serviceManager.Courses(), serviceManager.Enrollments(), serviceManager.ImportExport(), logger),
		enrollmentHandler: NewEnrollmentHandler(serviceManager.Enrollments(), logger),
		attendanceHandler: NewAttendanceHandler(serviceManager.Attendance(), serviceManager.ImportExport(), logger),
		authMiddleware:    NewCasdoorAuthMiddleware(resolver, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	admin := hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin)
	teacher := hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher)

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		accounts := v1.Group("/accounts")
		{
			accounts.GET("/me", hm.accountHandler.Me)
			accounts.PUT("/me", hm.accountHandler.UpdateMe)
			accounts.PUT("/me/password", hm.accountHandler.ChangeMyPassword)

			accounts.POST("", admin, hm.accountHandler.Register)
			accounts.GET("", admin, hm.accountHandler.ListAccounts)
			accounts.GET("/:id", admin, hm.accountHandler.GetAccount)
			accounts.PUT("/:id", admin, hm.accountHandler.UpdateAccount)
			accounts.PUT("/:id/status", admin, hm.accountHandler.ChangeStatus)
			accounts.DELETE("/:id", admin, hm.accountHandler.DeleteAccount)

			// Profiles
			accounts.GET("/:id/profile", admin, hm.accountHandler.GetProfile)
			accounts.POST("/:id/profile/student", admin, hm.accountHandler.AttachStudentProfile)
			accounts.PUT("/:id/profile/student", admin, hm.accountHandler.UpdateStudentProfile)
			accounts.POST("/:id/profile/teacher", admin, hm.accountHandler.AttachTeacherProfile)
			accounts.PUT("/:id/profile/teacher", admin, hm.accountHandler.UpdateTeacherProfile)
			accounts.POST("/:id/profile/parent", admin, hm.accountHandler.AttachParentProfile)
			accounts.PUT("/:id/profile/parent", admin, hm.accountHandler.UpdateParentProfile)
			accounts.GET("/:id/children", hm.authMiddleware.RequireRoleMiddleware(models.RoleParent), hm.accountHandler.ListChildren)
		}

		courses := v1.Group("/courses")
		{
			courses.GET("", hm.courseHandler.ListCourses)
			courses.GET("/slug/:slug", hm.courseHandler.GetCourseBySlug)
			courses.GET("/:id", hm.courseHandler.GetCourse)
			courses.GET("/:id/outline", hm.courseHandler.GetOutline)
			courses.GET("/:id/capacity", hm.courseHandler.GetCapacity)
			courses.GET("/:id/modules", hm.courseHandler.ListModules)

			// Ownership is checked by the course service
			courses.POST("", teacher, hm.courseHandler.CreateCourse)
			courses.PUT("/:id", teacher, hm.courseHandler.UpdateCourse)
			courses.PUT("/:id/status", teacher, hm.courseHandler.SetStatus)
			courses.POST("/:id/publish", teacher, hm.courseHandler.PublishCourse)
			courses.POST("/:id/archive", teacher, hm.courseHandler.ArchiveCourse)
			courses.DELETE("/:id", teacher, hm.courseHandler.DeleteCourse)
			courses.POST("/:id/modules", teacher, hm.courseHandler.AddModule)

			courses.GET("/:id/enrollments", teacher, hm.courseHandler.ListEnrollments)
			courses.GET("/:id/roster/export", teacher, hm.courseHandler.ExportRoster)
		}

		modules := v1.Group("/modules")
		{
			modules.GET("/:id/lessons", hm.courseHandler.ListLessons)
			modules.PUT("/:id", teacher, hm.courseHandler.UpdateModule)
			modules.DELETE("/:id", teacher, hm.courseHandler.DeleteModule)
			modules.POST("/:id/lessons", teacher, hm.courseHandler.AddLesson)
		}

		lessons := v1.Group("/lessons")
		lessons.Use(teacher)
		{
			lessons.PUT("/:id", hm.courseHandler.UpdateLesson)
			lessons.DELETE("/:id", hm.courseHandler.DeleteLesson)
		}

		enrollments := v1.Group("/enrollments")
		{
			enrollments.POST("", admin, hm.enrollmentHandler.Enroll)
			enrollments.GET("/:id", teacher, hm.enrollmentHandler.GetEnrollment)
			enrollments.PUT("/:id/status", admin, hm.enrollmentHandler.UpdateStatus)
			enrollments.PUT("/:id/payment", admin, hm.enrollmentHandler.UpdatePaymentStatus)
			enrollments.PUT("/:id/completion", teacher, hm.enrollmentHandler.SetCompletion)
			enrollments.PUT("/:id/grade", teacher, hm.enrollmentHandler.SetGrade)
			enrollments.POST("/:id/cancel", admin, hm.enrollmentHandler.Cancel)
			enrollments.POST("/:id/progress", teacher, hm.enrollmentHandler.RecordProgress)
			enrollments.GET("/:id/progress", teacher, hm.enrollmentHandler.ListProgress)
		}

		students := v1.Group("/students")
		{
			students.GET("/:id/enrollments", teacher, hm.enrollmentHandler.ListByStudent)
			students.GET("/:id/barcode", teacher, hm.attendanceHandler.GetBarcode)
			students.POST("/:id/barcode", admin, hm.attendanceHandler.IssueBarcode)
			students.PUT("/:id/barcode", admin, hm.attendanceHandler.ReissueBarcode)
			students.DELETE("/:id/barcode", admin, hm.attendanceHandler.RevokeBarcode)
		}

		liveClasses := v1.Group("/live-classes")
		{
			liveClasses.GET("", hm.attendanceHandler.ListLiveClasses)
			liveClasses.GET("/:id", hm.attendanceHandler.GetLiveClass)
			liveClasses.POST("", teacher, hm.attendanceHandler.ScheduleLiveClass)
			liveClasses.PUT("/:id", teacher, hm.attendanceHandler.UpdateLiveClass)
			liveClasses.PUT("/:id/status", teacher, hm.attendanceHandler.SetLiveClassStatus)
			liveClasses.GET("/:id/attendance", teacher, hm.attendanceHandler.ListAttendance)
			liveClasses.POST("/:id/attendance", teacher, hm.attendanceHandler.RecordAttendance)
			liveClasses.GET("/:id/attendance/export", teacher, hm.attendanceHandler.ExportRegister)
		}

		// Scanning stations sign in with a teacher or admin account
		attendance := v1.Group("/attendance")
		attendance.Use(teacher)
		{
			attendance.POST("/scan", hm.attendanceHandler.ScanCheckIn)
			attendance.POST("/check-out", hm.attendanceHandler.CheckOut)
			attendance.GET("/logs", hm.attendanceHandler.ListLogs)
		}
	}

	router.GET("/health", hm.health)
}

func (hm *HandlerManager) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := hm.serviceManager.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "learning-center",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "learning-center",
	})
}
