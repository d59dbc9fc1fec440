package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/repositories"
)

// ===== COURSES =====

type courseRepo struct{ s *store }

func (r *courseRepo) Create(ctx context.Context, course *models.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := r.s.t

	if _, ok := t.teachers[course.TeacherID]; !ok {
		return foreignKey("create course", "courses_teacher_id_fkey")
	}
	for _, c := range t.courses {
		if c.Slug == course.Slug {
			return duplicate("create course", "uq_courses_slug")
		}
	}
	row := *course
	row.Teacher, row.Modules = nil, nil
	if row.CourseType == "" {
		row.CourseType = models.CourseRecorded
	}
	if row.Language == "" {
		row.Language = models.LanguageEnglish
	}
	if row.DurationWeeks == 0 {
		row.DurationWeeks = 12
	}
	if row.Status == "" {
		row.Status = models.CourseDraft
	}
	row.ID = t.id("courses")
	row.CreatedAt = now()
	row.UpdatedAt = row.CreatedAt
	t.courses[row.ID] = row
	*course = row
	return nil
}

func (r *courseRepo) withTeacher(c models.Course) *models.Course {
	c.Teacher = r.s.t.teacherWithAccount(c.TeacherID)
	return &c
}

func (r *courseRepo) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.t.courses[id]
	if !ok {
		return nil, notFound("get course")
	}
	return r.withTeacher(c), nil
}

func (r *courseRepo) GetBySlug(ctx context.Context, slug string) (*models.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.t.courses {
		if c.Slug == slug {
			return r.withTeacher(c), nil
		}
	}
	return nil, notFound("get course by slug")
}

func (r *courseRepo) GetOutline(ctx context.Context, id uint) (*models.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := r.s.t
	c, ok := t.courses[id]
	if !ok {
		return nil, notFound("get course outline")
	}
	c.Modules = nil
	for _, m := range sortedModules(t, id) {
		m.Lessons = nil
		for _, l := range sortedLessons(t, m.ID) {
			m.Lessons = append(m.Lessons, *l)
		}
		c.Modules = append(c.Modules, *m)
	}
	return &c, nil
}

func (r *courseRepo) Update(ctx context.Context, course *models.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := r.s.t
	row, ok := t.courses[course.ID]
	if !ok {
		return notFound("get course")
	}
	for id, c := range t.courses {
		if id != course.ID && c.Slug == course.Slug {
			return duplicate("update course", "uq_courses_slug")
		}
	}
	row.Title = course.Title
	row.Slug = course.Slug
	row.Description = course.Description
	row.GradeLevel = course.GradeLevel
	row.Subject = course.Subject
	row.TeacherID = course.TeacherID
	row.CourseType = course.CourseType
	row.Language = course.Language
	row.DurationWeeks = course.DurationWeeks
	row.Price = course.Price
	row.Thumbnail = course.Thumbnail
	row.Syllabus = course.Syllabus
	row.Prerequisites = course.Prerequisites
	row.EnrollmentLimit = course.EnrollmentLimit
	row.UpdatedAt = now()
	t.courses[row.ID] = row
	return nil
}

func (r *courseRepo) UpdateStatus(ctx context.Context, id uint, status models.CourseStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.t.courses[id]
	if !ok {
		return notFound("get course")
	}
	row.Status = status
	row.UpdatedAt = now()
	r.s.t.courses[id] = row
	return nil
}

func (r *courseRepo) Delete(ctx context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.t.courses[id]; !ok {
		return notFound("get course before delete")
	}
	r.s.t.deleteCourse(id)
	return nil
}

func (r *courseRepo) List(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	query := strings.ToLower(strings.TrimSpace(filters.Query))
	var rows []*models.Course
	for _, c := range r.s.t.courses {
		if filters.Status != nil && c.Status != *filters.Status {
			continue
		}
		if filters.TeacherID != nil && c.TeacherID != *filters.TeacherID {
			continue
		}
		if filters.Subject != "" && c.Subject != filters.Subject {
			continue
		}
		if filters.GradeLevel != "" && c.GradeLevel != filters.GradeLevel {
			continue
		}
		if filters.CourseType != nil && c.CourseType != *filters.CourseType {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(c.Title), query) &&
			!strings.Contains(strings.ToLower(c.Description), query) {
			continue
		}
		c := c
		rows = append(rows, &c)
	}

	less := func(a, b *models.Course) bool {
		switch filters.SortBy {
		case "title":
			if a.Title != b.Title {
				return a.Title < b.Title
			}
		case "price":
			if a.Price != b.Price {
				return a.Price < b.Price
			}
		}
		return a.ID < b.ID
	}
	asc := strings.EqualFold(filters.SortOrder, "asc")
	sort.Slice(rows, func(i, j int) bool {
		if asc {
			return less(rows[i], rows[j])
		}
		return less(rows[j], rows[i])
	})
	return page(rows, filters.Limit, filters.Offset), int64(len(rows)), nil
}

func (r *courseRepo) ExistsBySlug(ctx context.Context, slug string, excludeID *uint) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, c := range r.s.t.courses {
		if c.Slug != slug {
			continue
		}
		if excludeID != nil && id == *excludeID {
			continue
		}
		return true, nil
	}
	return false, nil
}

// ===== MODULES =====

type moduleRepo struct{ s *store }

func sortedModules(t *tables, courseID uint) []*models.CourseModule {
	var rows []*models.CourseModule
	for _, m := range t.modules {
		if m.CourseID == courseID {
			m := m
			rows = append(rows, &m)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].OrderIndex != rows[j].OrderIndex {
			return rows[i].OrderIndex < rows[j].OrderIndex
		}
		return rows[i].ID < rows[j].ID
	})
	return rows
}

func (r *moduleRepo) Create(ctx context.Context, module *models.CourseModule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := r.s.t
	if _, ok := t.courses[module.CourseID]; !ok {
		return foreignKey("create module", "course_modules_course_id_fkey")
	}
	row := *module
	row.Course, row.Lessons = nil, nil
	row.ID = t.id("course_modules")
	row.CreatedAt = now()
	t.modules[row.ID] = row
	*module = row
	return nil
}

func (r *moduleRepo) GetByID(ctx context.Context, id uint) (*models.CourseModule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.t.modules[id]
	if !ok {
		return nil, notFound("get module")
	}
	return &m, nil
}

func (r *moduleRepo) ListByCourse(ctx context.Context, courseID uint) ([]*models.CourseModule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return sortedModules(r.s.t, courseID), nil
}

func (r *moduleRepo) Update(ctx context.Context, module *models.CourseModule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.t.modules[module.ID]
	if !ok {
		return notFound("update module")
	}
	row.Title = module.Title
	row.Description = module.Description
	row.OrderIndex = module.OrderIndex
	r.s.t.modules[row.ID] = row
	return nil
}

func (r *moduleRepo) Delete(ctx context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.t.modules[id]; !ok {
		return notFound("delete module")
	}
	r.s.t.deleteModule(id)
	return nil
}

// ===== LESSONS =====

type lessonRepo struct{ s *store }

func sortedLessons(t *tables, moduleID uint) []*models.Lesson {
	var rows []*models.Lesson
	for _, l := range t.lessons {
		if l.ModuleID == moduleID {
			l := l
			rows = append(rows, &l)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].OrderIndex != rows[j].OrderIndex {
			return rows[i].OrderIndex < rows[j].OrderIndex
		}
		return rows[i].ID < rows[j].ID
	})
	return rows
}

func (r *lessonRepo) Create(ctx context.Context, lesson *models.Lesson) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := r.s.t
	if _, ok := t.modules[lesson.ModuleID]; !ok {
		return foreignKey("create lesson", "lessons_module_id_fkey")
	}
	row := *lesson
	row.Module = nil
	if row.ContentType == "" {
		row.ContentType = models.ContentVideo
	}
	row.ID = t.id("lessons")
	row.CreatedAt = now()
	t.lessons[row.ID] = row
	*lesson = row
	return nil
}

func (r *lessonRepo) GetByID(ctx context.Context, id uint) (*models.Lesson, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.t.lessons[id]
	if !ok {
		return nil, notFound("get lesson")
	}
	return &l, nil
}

func (r *lessonRepo) ListByModule(ctx context.Context, moduleID uint) ([]*models.Lesson, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return sortedLessons(r.s.t, moduleID), nil
}

func (r *lessonRepo) Update(ctx context.Context, lesson *models.Lesson) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.t.lessons[lesson.ID]
	if !ok {
		return notFound("update lesson")
	}
	row.Title = lesson.Title
	row.ContentType = lesson.ContentType
	row.VideoURL = lesson.VideoURL
	row.ArticleContent = lesson.ArticleContent
	row.FileAttachment = lesson.FileAttachment
	row.DurationMinutes = lesson.DurationMinutes
	row.OrderIndex = lesson.OrderIndex
	row.IsFreePreview = lesson.IsFreePreview
	r.s.t.lessons[row.ID] = row
	return nil
}

func (r *lessonRepo) Delete(ctx context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.t.lessons[id]; !ok {
		return notFound("delete lesson")
	}
	r.s.t.deleteLesson(id)
	return nil
}

func (r *lessonRepo) CourseIDOf(ctx context.Context, lessonID uint) (uint, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.t.lessons[lessonID]
	if !ok {
		return 0, notFound("resolve lesson course")
	}
	m, ok := r.s.t.modules[l.ModuleID]
	if !ok {
		return 0, notFound("resolve lesson course")
	}
	return m.CourseID, nil
}
