package repositories

import (
	"context"

	"github.com/achievers-lc/learning-center/internal/models"
)

// CourseRepository interface for course catalog operations
type CourseRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id uint) (*models.Course, error)
	GetBySlug(ctx context.Context, slug string) (*models.Course, error)
	GetOutline(ctx context.Context, id uint) (*models.Course, error) // modules and lessons in order
	Update(ctx context.Context, course *models.Course) error
	UpdateStatus(ctx context.Context, id uint, status models.CourseStatus) error
	Delete(ctx context.Context, id uint) error

	// Query operations
	List(ctx context.Context, filters CourseFilters) ([]*models.Course, int64, error)

	// Validation and checks
	ExistsBySlug(ctx context.Context, slug string, excludeID *uint) (bool, error)
}

type CourseModuleRepository interface {
	Create(ctx context.Context, module *models.CourseModule) error
	GetByID(ctx context.Context, id uint) (*models.CourseModule, error)
	ListByCourse(ctx context.Context, courseID uint) ([]*models.CourseModule, error)
	Update(ctx context.Context, module *models.CourseModule) error
	Delete(ctx context.Context, id uint) error
}

type LessonRepository interface {
	Create(ctx context.Context, lesson *models.Lesson) error
	GetByID(ctx context.Context, id uint) (*models.Lesson, error)
	ListByModule(ctx context.Context, moduleID uint) ([]*models.Lesson, error)
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, id uint) error

	// CourseIDOf resolves the course owning the lesson through its module.
	CourseIDOf(ctx context.Context, lessonID uint) (uint, error)
}
