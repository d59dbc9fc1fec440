package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/repositories"
)

type EnrollmentPostgreSQL struct {
	db *gorm.DB
}

func NewEnrollmentPostgreSQL(db *gorm.DB) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{db: db}
}

func (e *EnrollmentPostgreSQL) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return wrap("create enrollment", e.db.WithContext(ctx).Omit("Student", "Course").Create(enrollment).Error)
}

func (e *EnrollmentPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := e.db.WithContext(ctx).
		Preload("Course").
		Preload("Student.Account").
		First(&enrollment, id).Error
	if err != nil {
		return nil, wrap("get enrollment", err)
	}
	return &enrollment, nil
}

func (e *EnrollmentPostgreSQL) GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := e.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error
	if err != nil {
		return nil, wrap("get enrollment", err)
	}
	return &enrollment, nil
}

func (e *EnrollmentPostgreSQL) List(ctx context.Context, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	query := e.db.WithContext(ctx).Model(&models.Enrollment{})

	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filters.PaymentStatus)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrap("count enrollments", err)
	}

	var enrollments []*models.Enrollment
	query = applyPagination(query.Order("enrollment_date DESC, id DESC"), filters.Limit, filters.Offset)
	if err := query.Preload("Course").Preload("Student.Account").Find(&enrollments).Error; err != nil {
		return nil, 0, wrap("list enrollments", err)
	}
	return enrollments, total, nil
}

func (e *EnrollmentPostgreSQL) Update(ctx context.Context, enrollment *models.Enrollment) error {
	err := e.db.WithContext(ctx).Model(&models.Enrollment{}).Where("id = ?", enrollment.ID).Updates(map[string]interface{}{
		"status":                enrollment.Status,
		"payment_status":        enrollment.PaymentStatus,
		"completion_percentage": enrollment.CompletionPercentage,
		"grade":                 enrollment.Grade,
	}).Error
	return wrap("update enrollment", err)
}

func (e *EnrollmentPostgreSQL) CountActiveByCourse(ctx context.Context, courseID uint) (int64, error) {
	var count int64
	err := e.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("course_id = ? AND status = ?", courseID, models.EnrollmentActive).
		Count(&count).Error
	if err != nil {
		return 0, wrap("count active enrollments", err)
	}
	return count, nil
}

// ===== LESSON PROGRESS =====

type LessonProgressPostgreSQL struct {
	db *gorm.DB
}

func NewLessonProgressPostgreSQL(db *gorm.DB) repositories.LessonProgressRepository {
	return &LessonProgressPostgreSQL{db: db}
}

func (p *LessonProgressPostgreSQL) CreateIfAbsent(ctx context.Context, progress *models.LessonProgress) (bool, error) {
	result := p.db.WithContext(ctx).
		Omit("Enrollment", "Lesson").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "enrollment_id"}, {Name: "lesson_id"}},
			DoNothing: true,
		}).
		Create(progress)
	if result.Error != nil {
		return false, wrap("create lesson progress", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (p *LessonProgressPostgreSQL) GetForUpdate(ctx context.Context, enrollmentID, lessonID uint) (*models.LessonProgress, error) {
	var progress models.LessonProgress
	err := p.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("enrollment_id = ? AND lesson_id = ?", enrollmentID, lessonID).
		First(&progress).Error
	if err != nil {
		return nil, wrap("lock lesson progress", err)
	}
	return &progress, nil
}

func (p *LessonProgressPostgreSQL) Update(ctx context.Context, progress *models.LessonProgress) error {
	err := p.db.WithContext(ctx).Model(&models.LessonProgress{}).Where("id = ?", progress.ID).Updates(map[string]interface{}{
		"status":             progress.Status,
		"time_spent_minutes": progress.TimeSpentMinutes,
		"last_accessed_at":   progress.LastAccessedAt,
		"completed_at":       progress.CompletedAt,
	}).Error
	return wrap("update lesson progress", err)
}

func (p *LessonProgressPostgreSQL) ListByEnrollment(ctx context.Context, enrollmentID uint) ([]*models.LessonProgress, error) {
	var progress []*models.LessonProgress
	err := p.db.WithContext(ctx).
		Preload("Lesson").
		Where("enrollment_id = ?", enrollmentID).
		Order("id ASC").
		Find(&progress).Error
	if err != nil {
		return nil, wrap("list lesson progress", err)
	}
	return progress, nil
}
