package repositories

import "context"

// Repository aggregates every store of the learning center.
// Sub-repositories obtained inside WithTransaction share one database transaction.
type Repository interface {
	// Identity domain
	Account() AccountRepository
	Student() StudentRepository
	Teacher() TeacherRepository
	Parent() ParentRepository

	// Catalog domain
	Course() CourseRepository
	CourseModule() CourseModuleRepository
	Lesson() LessonRepository

	// Enrollment domain
	Enrollment() EnrollmentRepository
	LessonProgress() LessonProgressRepository

	// Attendance domain
	Barcode() BarcodeRepository
	LiveClass() LiveClassRepository
	Attendance() AttendanceRepository
	AttendanceLog() AttendanceLogRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
