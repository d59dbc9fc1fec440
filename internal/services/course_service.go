package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/achievers-lc/learning-center/internal/cache"
	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/repositories"
	"github.com/achievers-lc/learning-center/internal/utils"
	"github.com/achievers-lc/learning-center/internal/validator"
)

// slugInsertAttempts bounds how often a write is retried after losing a slug race
const slugInsertAttempts = 3

type courseService struct {
	repo      repositories.Repository
	cache     *cache.CacheManager
	logger    *slog.Logger
	validator *validator.Validator
}

func NewCourseService(deps Dependencies) CourseService {
	deps = deps.withDefaults()
	return &courseService{
		repo:      deps.Repo,
		cache:     deps.Cache,
		logger:    deps.Logger,
		validator: deps.Validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *courseService) Create(ctx context.Context, req *CreateCourseRequest, actor *models.Account) (*models.Course, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	teacher, err := s.resolveOwner(ctx, req.TeacherID, actor)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Creating course", "teacher_id", teacher.ID, "title", req.Title)

	course := &models.Course{
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		GradeLevel:      req.GradeLevel,
		Subject:         req.Subject,
		TeacherID:       teacher.ID,
		CourseType:      models.CourseRecorded,
		Language:        models.LanguageEnglish,
		DurationWeeks:   12,
		Thumbnail:       req.Thumbnail,
		Syllabus:        req.Syllabus,
		Prerequisites:   req.Prerequisites,
		Status:          models.CourseDraft,
		EnrollmentLimit: req.EnrollmentLimit,
	}
	if req.CourseType != nil {
		course.CourseType = *req.CourseType
	}
	if req.Language != nil {
		course.Language = *req.Language
	}
	if req.DurationWeeks != nil {
		course.DurationWeeks = *req.DurationWeeks
	}
	if req.Price != nil {
		course.Price = *req.Price
	}

	err = s.withFreeSlug(ctx, course.Title, nil, func(slug string) error {
		course.Slug = slug
		return s.repo.Course().Create(ctx, course)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Course created successfully", "course_id", course.ID, "slug", course.Slug)
	return s.GetByID(ctx, course.ID)
}

// resolveOwner picks the teacher that will own a new course
func (s *courseService) resolveOwner(ctx context.Context, teacherID *uint, actor *models.Account) (*models.Teacher, error) {
	if actor != nil && !actor.IsAdmin() && actor.Role != models.RoleTeacher {
		return nil, NewPermissionError(actor.ID, 0, "course", "create", "only teachers and admins create courses")
	}

	var own *models.Teacher
	if actor != nil && actor.Role == models.RoleTeacher {
		teacher, err := s.repo.Teacher().GetByAccountID(ctx, actor.ID)
		if repositories.IsNotFoundError(err) {
			return nil, NewIntegrityError("teacher_id", "a teacher profile is required to own a course")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get teacher profile: %w", err)
		}
		own = teacher
	}

	if teacherID == nil {
		if own == nil {
			return nil, NewValidationError("teacher_id", "is required", nil)
		}
		return own, nil
	}

	if own != nil && own.ID != *teacherID {
		return nil, NewPermissionError(actor.ID, 0, "course", "create", "teachers create courses for themselves only")
	}
	teacher, err := s.repo.Teacher().GetByID(ctx, *teacherID)
	if repositories.IsNotFoundError(err) {
		return nil, NewIntegrityError("teacher_id", "teacher profile does not exist")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher: %w", err)
	}
	return teacher, nil
}

// withFreeSlug probes base, base-1, base-2... for a free slug and runs write with it.
// A write that still loses the race on the slug constraint is retried from the next candidate.
func (s *courseService) withFreeSlug(ctx context.Context, title string, excludeID *uint, write func(slug string) error) error {
	base := utils.Slugify(title)
	if base == "" {
		base = "course"
	}

	n := 0
	var err error
	for attempt := 1; attempt <= slugInsertAttempts; attempt++ {
		var slug string
		slug, n, err = s.freeSlug(ctx, base, n, excludeID)
		if err != nil {
			return err
		}

		err = write(slug)
		if err == nil {
			return nil
		}
		if !repositories.IsDuplicateError(err) {
			return fmt.Errorf("failed to save course: %w", notFoundOr(err, ErrCourseNotFound))
		}
		s.logger.Warn("Course slug collided, retrying", "slug", slug, "attempt", attempt)
		n++
	}
	return conflictFromDuplicate(err, "slug")
}

func (s *courseService) freeSlug(ctx context.Context, base string, from int, excludeID *uint) (string, int, error) {
	for n := from; ; n++ {
		candidate := utils.SlugCandidate(base, n)
		exists, err := s.repo.Course().ExistsBySlug(ctx, candidate, excludeID)
		if err != nil {
			return "", n, fmt.Errorf("failed to check slug: %w", err)
		}
		if !exists {
			return candidate, n, nil
		}
	}
}

func (s *courseService) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	err := s.cache.Course.CacheOrExecute(ctx, cache.CourseIDKey(id), &course, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		return s.repo.Course().GetByID(ctx, id)
	})
	if err != nil {
		return nil, notFoundOr(err, ErrCourseNotFound)
	}
	return &course, nil
}

func (s *courseService) GetBySlug(ctx context.Context, slug string) (*models.Course, error) {
	var course models.Course
	err := s.cache.Course.CacheOrExecute(ctx, cache.CourseSlugKey(slug), &course, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		return s.repo.Course().GetBySlug(ctx, slug)
	})
	if err != nil {
		return nil, notFoundOr(err, ErrCourseNotFound)
	}
	return &course, nil
}

func (s *courseService) List(ctx context.Context, filters repositories.CourseFilters, page models.PageParams) (*models.ListResponse[*models.Course], error) {
	page = page.Normalize()
	filters.Limit = page.Size
	filters.Offset = page.Offset()

	courses, total, err := s.repo.Course().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return &models.ListResponse[*models.Course]{Items: courses, Total: total, Page: page.Page, Size: page.Size}, nil
}

func (s *courseService) Update(ctx context.Context, id uint, req *UpdateCourseRequest, actor *models.Account) (*models.Course, error) {
	s.logger.Info("Updating course", "course_id", id)

	// "" asks for a fresh slug and is checked below, not by the slug rule
	reslug := req.Slug != nil && *req.Slug == ""
	r := *req
	if reslug {
		r.Slug = nil
	}
	if err := s.validator.Validate(&r); err != nil {
		return nil, err
	}

	course, err := s.loadForWrite(ctx, id, actor, "update")
	if err != nil {
		return nil, err
	}
	oldSlug := course.Slug
	applyCourseUpdates(course, &r)

	if reslug {
		err = s.withFreeSlug(ctx, course.Title, &course.ID, func(slug string) error {
			course.Slug = slug
			return s.repo.Course().Update(ctx, course)
		})
	} else if err = s.repo.Course().Update(ctx, course); err != nil {
		if repositories.IsDuplicateError(err) {
			err = conflictFromDuplicate(err, "slug")
		} else {
			err = fmt.Errorf("failed to update course: %w", notFoundOr(err, ErrCourseNotFound))
		}
	}
	if err != nil {
		return nil, err
	}

	cache.InvalidateCourseCache(ctx, s.cache, id, oldSlug, course.Slug)
	s.logger.Info("Course updated successfully", "course_id", id, "slug", course.Slug)
	return s.GetByID(ctx, id)
}

// applyCourseUpdates copies the set fields of req; the title never touches the slug
func applyCourseUpdates(course *models.Course, req *UpdateCourseRequest) {
	if req.Title != nil {
		course.Title = strings.TrimSpace(*req.Title)
	}
	if req.Slug != nil {
		course.Slug = *req.Slug
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.GradeLevel != nil {
		course.GradeLevel = *req.GradeLevel
	}
	if req.Subject != nil {
		course.Subject = *req.Subject
	}
	if req.CourseType != nil {
		course.CourseType = *req.CourseType
	}
	if req.Language != nil {
		course.Language = *req.Language
	}
	if req.DurationWeeks != nil {
		course.DurationWeeks = *req.DurationWeeks
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.Thumbnail != nil {
		course.Thumbnail = req.Thumbnail
	}
	if req.Syllabus != nil {
		course.Syllabus = *req.Syllabus
	}
	if req.Prerequisites != nil {
		course.Prerequisites = *req.Prerequisites
	}
	if req.EnrollmentLimit != nil {
		course.EnrollmentLimit = req.EnrollmentLimit
	}
}

func (s *courseService) Publish(ctx context.Context, id uint, actor *models.Account) (*models.Course, error) {
	return s.SetStatus(ctx, id, models.CoursePublished, actor)
}

func (s *courseService) Archive(ctx context.Context, id uint, actor *models.Account) (*models.Course, error) {
	return s.SetStatus(ctx, id, models.CourseArchived, actor)
}

// SetStatus only moves the status; enrollments are left alone
func (s *courseService) SetStatus(ctx context.Context, id uint, status models.CourseStatus, actor *models.Account) (*models.Course, error) {
	if err := s.validator.Validate(&validator.CourseStatusRequest{Status: status}); err != nil {
		return nil, err
	}

	course, err := s.loadForWrite(ctx, id, actor, "change status of")
	if err != nil {
		return nil, err
	}
	if err := s.repo.Course().UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("failed to update course status: %w", notFoundOr(err, ErrCourseNotFound))
	}

	s.logger.Info("Course status changed", "course_id", id, "from", course.Status, "to", status)
	cache.InvalidateCourseCache(ctx, s.cache, id, course.Slug)
	return s.GetByID(ctx, id)
}

func (s *courseService) Delete(ctx context.Context, id uint, actor *models.Account) error {
	course, err := s.loadForWrite(ctx, id, actor, "delete")
	if err != nil {
		return err
	}
	if err := s.repo.Course().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete course: %w", notFoundOr(err, ErrCourseNotFound))
	}

	s.logger.Info("Course deleted", "course_id", id)
	cache.InvalidateCourseCache(ctx, s.cache, id, course.Slug)
	return nil
}

// Capacity is read from the enrollment table every time and never cached
func (s *courseService) Capacity(ctx context.Context, id uint) (*models.CourseCapacity, error) {
	course, err := s.repo.Course().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrCourseNotFound)
	}
	count, err := s.repo.Enrollment().CountActiveByCourse(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count enrollments: %w", err)
	}
	return models.NewCourseCapacity(course, count), nil
}

func (s *courseService) Outline(ctx context.Context, id uint) (*models.Course, error) {
	course, err := s.repo.Course().GetOutline(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrCourseNotFound)
	}
	return course, nil
}

// ===== MODULES =====

func (s *courseService) AddModule(ctx context.Context, courseID uint, req *ModuleRequest, actor *models.Account) (*models.CourseModule, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.loadForWrite(ctx, courseID, actor, "add module to"); err != nil {
		return nil, err
	}

	module := &models.CourseModule{
		CourseID:    courseID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		OrderIndex:  req.OrderIndex,
	}
	if err := s.repo.CourseModule().Create(ctx, module); err != nil {
		return nil, fmt.Errorf("failed to create module: %w", err)
	}
	return module, nil
}

func (s *courseService) UpdateModule(ctx context.Context, moduleID uint, req *UpdateModuleRequest, actor *models.Account) (*models.CourseModule, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	module, err := s.moduleForWrite(ctx, moduleID, actor, "update module of")
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		module.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		module.Description = *req.Description
	}
	if req.OrderIndex != nil {
		module.OrderIndex = *req.OrderIndex
	}
	if err := s.repo.CourseModule().Update(ctx, module); err != nil {
		return nil, fmt.Errorf("failed to update module: %w", notFoundOr(err, ErrModuleNotFound))
	}
	return module, nil
}

func (s *courseService) DeleteModule(ctx context.Context, moduleID uint, actor *models.Account) error {
	if _, err := s.moduleForWrite(ctx, moduleID, actor, "delete module of"); err != nil {
		return err
	}
	if err := s.repo.CourseModule().Delete(ctx, moduleID); err != nil {
		return fmt.Errorf("failed to delete module: %w", notFoundOr(err, ErrModuleNotFound))
	}
	return nil
}

func (s *courseService) ListModules(ctx context.Context, courseID uint) ([]*models.CourseModule, error) {
	if _, err := s.repo.Course().GetByID(ctx, courseID); err != nil {
		return nil, notFoundOr(err, ErrCourseNotFound)
	}
	modules, err := s.repo.CourseModule().ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	return modules, nil
}

// ===== LESSONS =====

func (s *courseService) AddLesson(ctx context.Context, moduleID uint, req *LessonRequest, actor *models.Account) (*models.Lesson, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.moduleForWrite(ctx, moduleID, actor, "add lesson to"); err != nil {
		return nil, err
	}

	lesson := &models.Lesson{
		ModuleID:        moduleID,
		Title:           strings.TrimSpace(req.Title),
		ContentType:     models.ContentVideo,
		VideoURL:        req.VideoURL,
		ArticleContent:  req.ArticleContent,
		FileAttachment:  req.FileAttachment,
		DurationMinutes: req.DurationMinutes,
		OrderIndex:      req.OrderIndex,
		IsFreePreview:   req.IsFreePreview,
	}
	if req.ContentType != nil {
		lesson.ContentType = *req.ContentType
	}
	if err := s.repo.Lesson().Create(ctx, lesson); err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}
	return lesson, nil
}

func (s *courseService) UpdateLesson(ctx context.Context, lessonID uint, req *UpdateLessonRequest, actor *models.Account) (*models.Lesson, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	lesson, err := s.lessonForWrite(ctx, lessonID, actor, "update lesson of")
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		lesson.Title = strings.TrimSpace(*req.Title)
	}
	if req.ContentType != nil {
		lesson.ContentType = *req.ContentType
	}
	if req.VideoURL != nil {
		lesson.VideoURL = *req.VideoURL
	}
	if req.ArticleContent != nil {
		lesson.ArticleContent = *req.ArticleContent
	}
	if req.FileAttachment != nil {
		lesson.FileAttachment = req.FileAttachment
	}
	if req.DurationMinutes != nil {
		lesson.DurationMinutes = *req.DurationMinutes
	}
	if req.OrderIndex != nil {
		lesson.OrderIndex = *req.OrderIndex
	}
	if req.IsFreePreview != nil {
		lesson.IsFreePreview = *req.IsFreePreview
	}
	if err := s.repo.Lesson().Update(ctx, lesson); err != nil {
		return nil, fmt.Errorf("failed to update lesson: %w", notFoundOr(err, ErrLessonNotFound))
	}
	return lesson, nil
}

func (s *courseService) DeleteLesson(ctx context.Context, lessonID uint, actor *models.Account) error {
	if _, err := s.lessonForWrite(ctx, lessonID, actor, "delete lesson of"); err != nil {
		return err
	}
	if err := s.repo.Lesson().Delete(ctx, lessonID); err != nil {
		return fmt.Errorf("failed to delete lesson: %w", notFoundOr(err, ErrLessonNotFound))
	}
	return nil
}

func (s *courseService) ListLessons(ctx context.Context, moduleID uint) ([]*models.Lesson, error) {
	if _, err := s.repo.CourseModule().GetByID(ctx, moduleID); err != nil {
		return nil, notFoundOr(err, ErrModuleNotFound)
	}
	lessons, err := s.repo.Lesson().ListByModule(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, nil
}

// ===== PERMISSIONS =====

// loadForWrite fetches the course uncached and checks that actor may change it
func (s *courseService) loadForWrite(ctx context.Context, courseID uint, actor *models.Account, action string) (*models.Course, error) {
	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		return nil, notFoundOr(err, ErrCourseNotFound)
	}
	if err := s.authorize(ctx, course, actor, action); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *courseService) moduleForWrite(ctx context.Context, moduleID uint, actor *models.Account, action string) (*models.CourseModule, error) {
	module, err := s.repo.CourseModule().GetByID(ctx, moduleID)
	if err != nil {
		return nil, notFoundOr(err, ErrModuleNotFound)
	}
	if _, err := s.loadForWrite(ctx, module.CourseID, actor, action); err != nil {
		return nil, err
	}
	return module, nil
}

func (s *courseService) lessonForWrite(ctx context.Context, lessonID uint, actor *models.Account, action string) (*models.Lesson, error) {
	lesson, err := s.repo.Lesson().GetByID(ctx, lessonID)
	if err != nil {
		return nil, notFoundOr(err, ErrLessonNotFound)
	}
	courseID, err := s.repo.Lesson().CourseIDOf(ctx, lessonID)
	if err != nil {
		return nil, notFoundOr(err, ErrLessonNotFound)
	}
	if _, err := s.loadForWrite(ctx, courseID, actor, action); err != nil {
		return nil, err
	}
	return lesson, nil
}

// authorize lets admins and the owning teacher through; a nil actor is a trusted internal call
func (s *courseService) authorize(ctx context.Context, course *models.Course, actor *models.Account, action string) error {
	if actor == nil || actor.IsAdmin() {
		return nil
	}
	if actor.Role == models.RoleTeacher {
		teacher, err := s.repo.Teacher().GetByAccountID(ctx, actor.ID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to get teacher profile: %w", err)
		}
		if err == nil && teacher.ID == course.TeacherID {
			return nil
		}
	}
	return NewPermissionError(actor.ID, course.ID, "course", action, "not the owning teacher")
}
