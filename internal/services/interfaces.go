package services

import (
	"bytes"
	"context"
	"time"

	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/repositories"
	"github.com/achievers-lc/learning-center/internal/validator"
)

// ===== REQUEST DTOs =====

// Identity
type RegisterRequest = validator.RegisterRequest
type SuperAdminRequest = validator.SuperAdminRequest
type UpdateAccountRequest = validator.UpdateAccountRequest
type ChangePasswordRequest = validator.ChangePasswordRequest
type StudentProfileRequest = validator.StudentProfileRequest
type UpdateStudentProfileRequest = validator.UpdateStudentProfileRequest
type TeacherProfileRequest = validator.TeacherProfileRequest
type UpdateTeacherProfileRequest = validator.UpdateTeacherProfileRequest
type ParentProfileRequest = validator.ParentProfileRequest
type UpdateParentProfileRequest = validator.UpdateParentProfileRequest

// Catalog
type CreateCourseRequest = validator.CourseCreateRequest
type UpdateCourseRequest = validator.CourseUpdateRequest
type ModuleRequest = validator.ModuleRequest
type UpdateModuleRequest = validator.ModuleUpdateRequest
type LessonRequest = validator.LessonRequest
type UpdateLessonRequest = validator.LessonUpdateRequest

// Enrollment
type EnrollRequest = validator.EnrollRequest
type LessonProgressRequest = validator.LessonProgressRequest

// Attendance
type LiveClassRequest = validator.LiveClassRequest
type UpdateLiveClassRequest = validator.LiveClassUpdateRequest
type RecordAttendanceRequest = validator.RecordAttendanceRequest
type ScanRequest = validator.ScanRequest
type CheckOutRequest = validator.CheckOutRequest

// ===== RESPONSE DTOs =====

// ScanResult is returned for every scan, successful or not. Log is always set.
type ScanResult struct {
	Success    bool                    `json:"success"`
	Action     models.AttendanceAction `json:"action"`
	Attendance *models.Attendance      `json:"attendance,omitempty"`
	Student    *models.Student         `json:"student,omitempty"`
	Log        *models.AttendanceLog   `json:"log"`
	Reason     string                  `json:"reason,omitempty"`
}

type ChildrenResponse struct {
	ParentAccountID uint              `json:"parent_account_id"`
	Children        []*models.Student `json:"children"`
	ChildrenCount   int               `json:"children_count"`
}

// ===== SERVICE INTERFACES =====

type UserService interface {
	// Accounts
	Register(ctx context.Context, req *RegisterRequest) (*models.Account, error)
	CreateSuperAdmin(ctx context.Context, req *SuperAdminRequest) (*models.Account, error)
	EnsureSuperAdmin(ctx context.Context, req *SuperAdminRequest) (account *models.Account, created bool, err error)
	GetAccount(ctx context.Context, id uint) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	ListAccounts(ctx context.Context, filters repositories.AccountFilters, page models.PageParams) (*models.ListResponse[*models.Account], error)
	UpdateAccount(ctx context.Context, id uint, req *UpdateAccountRequest) (*models.Account, error)
	ChangeStatus(ctx context.Context, id uint, status models.AccountStatus) (*models.Account, error)
	ChangePassword(ctx context.Context, id uint, req *ChangePasswordRequest) error
	Authenticate(ctx context.Context, email, password string) (*models.Account, error)
	DeleteAccount(ctx context.Context, id uint) error

	// Profiles
	AttachStudentProfile(ctx context.Context, accountID uint, req *StudentProfileRequest) (*models.Student, error)
	AttachTeacherProfile(ctx context.Context, accountID uint, req *TeacherProfileRequest) (*models.Teacher, error)
	AttachParentProfile(ctx context.Context, accountID uint, req *ParentProfileRequest) (*models.Parent, error)
	UpdateStudentProfile(ctx context.Context, accountID uint, req *UpdateStudentProfileRequest) (*models.Student, error)
	UpdateTeacherProfile(ctx context.Context, accountID uint, req *UpdateTeacherProfileRequest) (*models.Teacher, error)
	UpdateParentProfile(ctx context.Context, accountID uint, req *UpdateParentProfileRequest) (*models.Parent, error)
	GetProfile(ctx context.Context, accountID uint) (*models.Profile, error)
	ListChildren(ctx context.Context, parentAccountID uint) (*ChildrenResponse, error)
}

// CourseService owns the catalog. actor is the authenticated account; nil means a trusted internal caller.
type CourseService interface {
	Create(ctx context.Context, req *CreateCourseRequest, actor *models.Account) (*models.Course, error)
	GetByID(ctx context.Context, id uint) (*models.Course, error)
	GetBySlug(ctx context.Context, slug string) (*models.Course, error)
	List(ctx context.Context, filters repositories.CourseFilters, page models.PageParams) (*models.ListResponse[*models.Course], error)
	Update(ctx context.Context, id uint, req *UpdateCourseRequest, actor *models.Account) (*models.Course, error)
	Publish(ctx context.Context, id uint, actor *models.Account) (*models.Course, error)
	Archive(ctx context.Context, id uint, actor *models.Account) (*models.Course, error)
	SetStatus(ctx context.Context, id uint, status models.CourseStatus, actor *models.Account) (*models.Course, error)
	Delete(ctx context.Context, id uint, actor *models.Account) error
	Capacity(ctx context.Context, id uint) (*models.CourseCapacity, error)
	Outline(ctx context.Context, id uint) (*models.Course, error)

	// Modules
	AddModule(ctx context.Context, courseID uint, req *ModuleRequest, actor *models.Account) (*models.CourseModule, error)
	UpdateModule(ctx context.Context, moduleID uint, req *UpdateModuleRequest, actor *models.Account) (*models.CourseModule, error)
	DeleteModule(ctx context.Context, moduleID uint, actor *models.Account) error
	ListModules(ctx context.Context, courseID uint) ([]*models.CourseModule, error)

	// Lessons
	AddLesson(ctx context.Context, moduleID uint, req *LessonRequest, actor *models.Account) (*models.Lesson, error)
	UpdateLesson(ctx context.Context, lessonID uint, req *UpdateLessonRequest, actor *models.Account) (*models.Lesson, error)
	DeleteLesson(ctx context.Context, lessonID uint, actor *models.Account) error
	ListLessons(ctx context.Context, moduleID uint) ([]*models.Lesson, error)
}

type EnrollmentService interface {
	Enroll(ctx context.Context, req *EnrollRequest) (*models.Enrollment, error)
	Get(ctx context.Context, id uint) (*models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID uint, filters repositories.EnrollmentFilters, page models.PageParams) (*models.ListResponse[*models.Enrollment], error)
	ListByCourse(ctx context.Context, courseID uint, filters repositories.EnrollmentFilters, page models.PageParams) (*models.ListResponse[*models.Enrollment], error)
	UpdateStatus(ctx context.Context, id uint, status models.EnrollmentStatus) (*models.Enrollment, error)
	UpdatePaymentStatus(ctx context.Context, id uint, status models.PaymentStatus) (*models.Enrollment, error)
	SetCompletion(ctx context.Context, id uint, percentage float64) (*models.Enrollment, error)
	SetGrade(ctx context.Context, id uint, grade string) (*models.Enrollment, error)
	Cancel(ctx context.Context, id uint) (*models.Enrollment, error)

	// Lesson progress
	RecordLessonProgress(ctx context.Context, enrollmentID uint, req *LessonProgressRequest) (*models.LessonProgress, error)
	ListLessonProgress(ctx context.Context, enrollmentID uint) ([]*models.LessonProgress, error)
}

type AttendanceService interface {
	// Barcodes
	IssueBarcode(ctx context.Context, studentID uint, expiresAt *time.Time) (*models.StudentBarcode, error)
	ReissueBarcode(ctx context.Context, studentID uint, expiresAt *time.Time) (*models.StudentBarcode, error)
	RevokeBarcode(ctx context.Context, studentID uint) (*models.StudentBarcode, error)
	GetBarcode(ctx context.Context, studentID uint) (*models.StudentBarcode, error)

	// Live classes
	ScheduleLiveClass(ctx context.Context, courseID uint, req *LiveClassRequest) (*models.LiveClass, error)
	GetLiveClass(ctx context.Context, id uint) (*models.LiveClass, error)
	ListLiveClasses(ctx context.Context, filters repositories.LiveClassFilters, page models.PageParams) (*models.ListResponse[*models.LiveClass], error)
	UpdateLiveClass(ctx context.Context, id uint, req *UpdateLiveClassRequest) (*models.LiveClass, error)
	SetLiveClassStatus(ctx context.Context, id uint, status models.LiveClassStatus) (*models.LiveClass, error)

	// Register
	RecordAttendance(ctx context.Context, req *RecordAttendanceRequest) (*models.Attendance, error)
	ScanCheckIn(ctx context.Context, req *ScanRequest) (*ScanResult, error)
	CheckOut(ctx context.Context, req *CheckOutRequest) (*ScanResult, error)
	ListAttendance(ctx context.Context, liveClassID uint) ([]*models.Attendance, error)
	ListLogs(ctx context.Context, filters repositories.AttendanceLogFilters, page models.PageParams) (*models.ListResponse[*models.AttendanceLog], error)
}

// ImportExportService renders registers as xlsx workbooks
type ImportExportService interface {
	ExportAttendanceRegister(ctx context.Context, liveClassID uint) (*bytes.Buffer, string, error)
	ExportCourseRoster(ctx context.Context, courseID uint) (*bytes.Buffer, string, error)
}

// ServiceManager interface for managing all services
type ServiceManager interface {
	Users() UserService
	Courses() CourseService
	Enrollments() EnrollmentService
	Attendance() AttendanceService
	ImportExport() ImportExportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
