package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/achievers-lc/learning-center/internal/cache"
	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/repositories"
)

type CoursePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.CourseRepository {
	return &CoursePostgreSQL{db: db, cacheManager: cacheManager}
}

func (c *CoursePostgreSQL) Create(ctx context.Context, course *models.Course) error {
	return wrap("create course", c.db.WithContext(ctx).Omit("Teacher", "Modules").Create(course).Error)
}

// GetByID reads through to the database; the service layer owns read caching
func (c *CoursePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	if err := c.db.WithContext(ctx).Preload("Teacher.Account").First(&course, id).Error; err != nil {
		return nil, wrap("get course", err)
	}
	return &course, nil
}

func (c *CoursePostgreSQL) GetBySlug(ctx context.Context, slug string) (*models.Course, error) {
	var course models.Course
	err := c.db.WithContext(ctx).
		Preload("Teacher.Account").
		Where("slug = ?", slug).
		First(&course).Error
	if err != nil {
		return nil, wrap("get course by slug", err)
	}
	return &course, nil
}

func (c *CoursePostgreSQL) GetOutline(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	err := c.db.WithContext(ctx).
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("course_modules.order_index ASC, course_modules.id ASC")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("lessons.order_index ASC, lessons.id ASC")
		}).
		First(&course, id).Error
	if err != nil {
		return nil, wrap("get course outline", err)
	}
	return &course, nil
}

func (c *CoursePostgreSQL) Update(ctx context.Context, course *models.Course) error {
	var current models.Course
	if err := c.db.WithContext(ctx).Select("id, slug").First(&current, course.ID).Error; err != nil {
		return wrap("get course", err)
	}

	err := c.db.WithContext(ctx).Model(&models.Course{}).Where("id = ?", course.ID).Updates(map[string]interface{}{
		"title":            course.Title,
		"slug":             course.Slug,
		"description":      course.Description,
		"grade_level":      course.GradeLevel,
		"subject":          course.Subject,
		"teacher_id":       course.TeacherID,
		"course_type":      course.CourseType,
		"language":         course.Language,
		"duration_weeks":   course.DurationWeeks,
		"price":            course.Price,
		"thumbnail":        course.Thumbnail,
		"syllabus":         course.Syllabus,
		"prerequisites":    course.Prerequisites,
		"enrollment_limit": course.EnrollmentLimit,
		"updated_at":       gorm.Expr("NOW()"),
	}).Error
	if err != nil {
		return wrap("update course", err)
	}

	cache.InvalidateCourseCache(ctx, c.cacheManager, course.ID, current.Slug, course.Slug)
	return nil
}

func (c *CoursePostgreSQL) UpdateStatus(ctx context.Context, id uint, status models.CourseStatus) error {
	var current models.Course
	if err := c.db.WithContext(ctx).Select("id, slug").First(&current, id).Error; err != nil {
		return wrap("get course", err)
	}

	err := c.db.WithContext(ctx).Model(&models.Course{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": gorm.Expr("NOW()"),
	}).Error
	if err != nil {
		return wrap("update course status", err)
	}

	cache.InvalidateCourseCache(ctx, c.cacheManager, id, current.Slug)
	return nil
}

// Delete hard deletes a course; modules, lessons, enrollments and live classes cascade
func (c *CoursePostgreSQL) Delete(ctx context.Context, id uint) error {
	var current models.Course
	if err := c.db.WithContext(ctx).Select("id, slug").First(&current, id).Error; err != nil {
		return wrap("get course before delete", err)
	}
	if err := c.db.WithContext(ctx).Delete(&models.Course{}, id).Error; err != nil {
		return wrap("delete course", err)
	}

	cache.InvalidateCourseCache(ctx, c.cacheManager, id, current.Slug)
	return nil
}

func (c *CoursePostgreSQL) List(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	query := c.db.WithContext(ctx).Model(&models.Course{})

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filters.TeacherID)
	}
	if filters.Subject != "" {
		query = query.Where("subject = ?", filters.Subject)
	}
	if filters.GradeLevel != "" {
		query = query.Where("grade_level = ?", filters.GradeLevel)
	}
	if filters.CourseType != nil {
		query = query.Where("course_type = ?", *filters.CourseType)
	}
	if filters.Query != "" {
		pattern := likePattern(filters.Query)
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrap("count courses", err)
	}

	var courses []*models.Course
	query = applyPaginationAndSort(query, "courses", filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&courses).Error; err != nil {
		return nil, 0, wrap("list courses", err)
	}
	return courses, total, nil
}

func (c *CoursePostgreSQL) ExistsBySlug(ctx context.Context, slug string, excludeID *uint) (bool, error) {
	query := c.db.WithContext(ctx).Model(&models.Course{}).Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, wrap("check slug", err)
	}
	return count > 0, nil
}

// ===== MODULES =====

type CourseModulePostgreSQL struct {
	db *gorm.DB
}

func NewCourseModulePostgreSQL(db *gorm.DB) repositories.CourseModuleRepository {
	return &CourseModulePostgreSQL{db: db}
}

func (m *CourseModulePostgreSQL) Create(ctx context.Context, module *models.CourseModule) error {
	return wrap("create module", m.db.WithContext(ctx).Omit("Course", "Lessons").Create(module).Error)
}

func (m *CourseModulePostgreSQL) GetByID(ctx context.Context, id uint) (*models.CourseModule, error) {
	var module models.CourseModule
	if err := m.db.WithContext(ctx).First(&module, id).Error; err != nil {
		return nil, wrap("get module", err)
	}
	return &module, nil
}

func (m *CourseModulePostgreSQL) ListByCourse(ctx context.Context, courseID uint) ([]*models.CourseModule, error) {
	var modules []*models.CourseModule
	err := m.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("order_index ASC, id ASC").
		Find(&modules).Error
	if err != nil {
		return nil, wrap("list modules", err)
	}
	return modules, nil
}

func (m *CourseModulePostgreSQL) Update(ctx context.Context, module *models.CourseModule) error {
	err := m.db.WithContext(ctx).Model(&models.CourseModule{}).Where("id = ?", module.ID).Updates(map[string]interface{}{
		"title":       module.Title,
		"description": module.Description,
		"order_index": module.OrderIndex,
	}).Error
	return wrap("update module", err)
}

func (m *CourseModulePostgreSQL) Delete(ctx context.Context, id uint) error {
	result := m.db.WithContext(ctx).Delete(&models.CourseModule{}, id)
	if result.Error != nil {
		return wrap("delete module", result.Error)
	}
	if result.RowsAffected == 0 {
		return wrap("delete module", gorm.ErrRecordNotFound)
	}
	return nil
}

// ===== LESSONS =====

type LessonPostgreSQL struct {
	db *gorm.DB
}

func NewLessonPostgreSQL(db *gorm.DB) repositories.LessonRepository {
	return &LessonPostgreSQL{db: db}
}

func (l *LessonPostgreSQL) Create(ctx context.Context, lesson *models.Lesson) error {
	return wrap("create lesson", l.db.WithContext(ctx).Omit("Module").Create(lesson).Error)
}

func (l *LessonPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := l.db.WithContext(ctx).First(&lesson, id).Error; err != nil {
		return nil, wrap("get lesson", err)
	}
	return &lesson, nil
}

func (l *LessonPostgreSQL) ListByModule(ctx context.Context, moduleID uint) ([]*models.Lesson, error) {
	var lessons []*models.Lesson
	err := l.db.WithContext(ctx).
		Where("module_id = ?", moduleID).
		Order("order_index ASC, id ASC").
		Find(&lessons).Error
	if err != nil {
		return nil, wrap("list lessons", err)
	}
	return lessons, nil
}

func (l *LessonPostgreSQL) Update(ctx context.Context, lesson *models.Lesson) error {
	err := l.db.WithContext(ctx).Model(&models.Lesson{}).Where("id = ?", lesson.ID).Updates(map[string]interface{}{
		"title":            lesson.Title,
		"content_type":     lesson.ContentType,
		"video_url":        lesson.VideoURL,
		"article_content":  lesson.ArticleContent,
		"file_attachment":  lesson.FileAttachment,
		"duration_minutes": lesson.DurationMinutes,
		"order_index":      lesson.OrderIndex,
		"is_free_preview":  lesson.IsFreePreview,
	}).Error
	return wrap("update lesson", err)
}

func (l *LessonPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := l.db.WithContext(ctx).Delete(&models.Lesson{}, id)
	if result.Error != nil {
		return wrap("delete lesson", result.Error)
	}
	if result.RowsAffected == 0 {
		return wrap("delete lesson", gorm.ErrRecordNotFound)
	}
	return nil
}

func (l *LessonPostgreSQL) CourseIDOf(ctx context.Context, lessonID uint) (uint, error) {
	var courseIDs []uint
	err := l.db.WithContext(ctx).
		Table("lessons").
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("lessons.id = ?", lessonID).
		Pluck("course_modules.course_id", &courseIDs).Error
	if err != nil {
		return 0, wrap("resolve lesson course", err)
	}
	if len(courseIDs) == 0 {
		return 0, wrap("resolve lesson course", gorm.ErrRecordNotFound)
	}
	return courseIDs[0], nil
}
