package repositories

import (
	"context"

	"github.com/achievers-lc/learning-center/internal/models"
)

type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, id uint) (*models.Enrollment, error)
	GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (*models.Enrollment, error)
	List(ctx context.Context, filters EnrollmentFilters) ([]*models.Enrollment, int64, error)
	Update(ctx context.Context, enrollment *models.Enrollment) error

	// CountActiveByCourse counts enrollments in status active, straight from the table.
	CountActiveByCourse(ctx context.Context, courseID uint) (int64, error)
}

type LessonProgressRepository interface {
	// CreateIfAbsent inserts the row unless the (enrollment, lesson) pair already exists.
	CreateIfAbsent(ctx context.Context, progress *models.LessonProgress) (created bool, err error)
	// GetForUpdate loads the (enrollment, lesson) row and locks it for the current transaction.
	GetForUpdate(ctx context.Context, enrollmentID, lessonID uint) (*models.LessonProgress, error)
	Update(ctx context.Context, progress *models.LessonProgress) error
	ListByEnrollment(ctx context.Context, enrollmentID uint) ([]*models.LessonProgress, error)
}
