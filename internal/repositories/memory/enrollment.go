package memory

import (
	"context"
	"sort"

	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/repositories"
)

// ===== ENROLLMENTS =====

type enrollmentRepo struct{ s *store }

func (r *enrollmentRepo) preload(e models.Enrollment) *models.Enrollment {
	e.Course = r.s.t.coursePtr(e.CourseID)
	e.Student = r.s.t.studentWithAccount(e.StudentID)
	return &e
}

func (r *enrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := r.s.t

	if _, ok := t.students[enrollment.StudentID]; !ok {
		return foreignKey("create enrollment", "enrollments_student_id_fkey")
	}
	if _, ok := t.courses[enrollment.CourseID]; !ok {
		return foreignKey("create enrollment", "enrollments_course_id_fkey")
	}
	for _, e := range t.enrollments {
		if e.StudentID == enrollment.StudentID && e.CourseID == enrollment.CourseID {
			return duplicate("create enrollment", "idx_enrollment_student_course")
		}
	}
	row := *enrollment
	row.Student, row.Course = nil, nil
	if row.Status == "" {
		row.Status = models.EnrollmentPending
	}
	if row.PaymentStatus == "" {
		row.PaymentStatus = models.PaymentUnpaid
	}
	if row.EnrollmentDate.IsZero() {
		row.EnrollmentDate = now()
	}
	row.ID = t.id("enrollments")
	t.enrollments[row.ID] = row
	*enrollment = row
	return nil
}

func (r *enrollmentRepo) GetByID(ctx context.Context, id uint) (*models.Enrollment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.t.enrollments[id]
	if !ok {
		return nil, notFound("get enrollment")
	}
	return r.preload(e), nil
}

func (r *enrollmentRepo) GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (*models.Enrollment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.t.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			return &e, nil
		}
	}
	return nil, notFound("get enrollment")
}

func (r *enrollmentRepo) List(ctx context.Context, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rows []*models.Enrollment
	for _, e := range r.s.t.enrollments {
		if filters.StudentID != nil && e.StudentID != *filters.StudentID {
			continue
		}
		if filters.CourseID != nil && e.CourseID != *filters.CourseID {
			continue
		}
		if filters.Status != nil && e.Status != *filters.Status {
			continue
		}
		if filters.PaymentStatus != nil && e.PaymentStatus != *filters.PaymentStatus {
			continue
		}
		rows = append(rows, r.preload(e))
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].EnrollmentDate.Equal(rows[j].EnrollmentDate) {
			return rows[i].EnrollmentDate.After(rows[j].EnrollmentDate)
		}
		return rows[i].ID > rows[j].ID
	})
	return page(rows, filters.Limit, filters.Offset), int64(len(rows)), nil
}

func (r *enrollmentRepo) Update(ctx context.Context, enrollment *models.Enrollment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.t.enrollments[enrollment.ID]
	if !ok {
		return notFound("update enrollment")
	}
	row.Status = enrollment.Status
	row.PaymentStatus = enrollment.PaymentStatus
	row.CompletionPercentage = enrollment.CompletionPercentage
	row.Grade = enrollment.Grade
	r.s.t.enrollments[row.ID] = row
	return nil
}

func (r *enrollmentRepo) CountActiveByCourse(ctx context.Context, courseID uint) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, e := range r.s.t.enrollments {
		if e.CourseID == courseID && e.Status == models.EnrollmentActive {
			n++
		}
	}
	return n, nil
}

// ===== LESSON PROGRESS =====

type progressRepo struct{ s *store }

func (r *progressRepo) CreateIfAbsent(ctx context.Context, progress *models.LessonProgress) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.checkRefs(progress); err != nil {
		return false, err
	}
	if _, exists := r.find(progress.EnrollmentID, progress.LessonID); exists {
		return false, nil
	}
	r.insert(progress)
	return true, nil
}

func (r *progressRepo) checkRefs(progress *models.LessonProgress) error {
	if _, ok := r.s.t.enrollments[progress.EnrollmentID]; !ok {
		return foreignKey("create lesson progress", "lesson_progress_enrollment_id_fkey")
	}
	if _, ok := r.s.t.lessons[progress.LessonID]; !ok {
		return foreignKey("create lesson progress", "lesson_progress_lesson_id_fkey")
	}
	return nil
}

func (r *progressRepo) find(enrollmentID, lessonID uint) (models.LessonProgress, bool) {
	for _, p := range r.s.t.progress {
		if p.EnrollmentID == enrollmentID && p.LessonID == lessonID {
			return p, true
		}
	}
	return models.LessonProgress{}, false
}

// insert must be called with the store lock held
func (r *progressRepo) insert(progress *models.LessonProgress) {
	t := r.s.t
	row := *progress
	row.Enrollment, row.Lesson = nil, nil
	if row.Status == "" {
		row.Status = models.ProgressNotStarted
	}
	row.ID = t.id("lesson_progress")
	t.progress[row.ID] = row
	*progress = row
}

// GetForUpdate needs no row lock here: transactions are already serialized
func (r *progressRepo) GetForUpdate(ctx context.Context, enrollmentID, lessonID uint) (*models.LessonProgress, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.find(enrollmentID, lessonID)
	if !ok {
		return nil, notFound("lock lesson progress")
	}
	return &p, nil
}

func (r *progressRepo) Update(ctx context.Context, progress *models.LessonProgress) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.t.progress[progress.ID]
	if !ok {
		return notFound("update lesson progress")
	}
	row.Status = progress.Status
	row.TimeSpentMinutes = progress.TimeSpentMinutes
	row.LastAccessedAt = progress.LastAccessedAt
	row.CompletedAt = progress.CompletedAt
	r.s.t.progress[row.ID] = row
	return nil
}

func (r *progressRepo) ListByEnrollment(ctx context.Context, enrollmentID uint) ([]*models.LessonProgress, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rows []*models.LessonProgress
	for _, p := range r.s.t.progress {
		if p.EnrollmentID != enrollmentID {
			continue
		}
		if l, ok := r.s.t.lessons[p.LessonID]; ok {
			p.Lesson = &l
		}
		rows = append(rows, &p)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}
