package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/achievers-lc/learning-center/internal/events"
	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/repositories"
	"github.com/achievers-lc/learning-center/internal/validator"
)

type enrollmentService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	events    events.Publisher
	now       func() time.Time
}

func NewEnrollmentService(deps Dependencies) EnrollmentService {
	deps = deps.withDefaults()
	return &enrollmentService{
		repo:      deps.Repo,
		logger:    deps.Logger,
		validator: deps.Validator,
		events:    deps.Events,
		now:       deps.Now,
	}
}

// Enroll links a student to a course. Fullness is not checked here.
func (s *enrollmentService) Enroll(ctx context.Context, req *EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	s.logger.Info("Enrolling student", "student_id", req.StudentID, "course_id", req.CourseID)

	if _, err := s.repo.Student().GetByID(ctx, req.StudentID); err != nil {
		return nil, notFoundOr(err, ErrStudentNotFound)
	}
	if _, err := s.repo.Course().GetByID(ctx, req.CourseID); err != nil {
		return nil, notFoundOr(err, ErrCourseNotFound)
	}

	enrollment := &models.Enrollment{
		StudentID:      req.StudentID,
		CourseID:       req.CourseID,
		EnrollmentDate: s.now(),
		Status:         models.EnrollmentPending,
		PaymentStatus:  models.PaymentUnpaid,
	}
	if err := s.repo.Enrollment().Create(ctx, enrollment); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, conflictFromDuplicate(err, "course_id")
		}
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	s.logger.Info("Enrollment created successfully", "enrollment_id", enrollment.ID)
	s.events.Publish(ctx, events.New(events.EnrollmentCreated, events.EnrollmentCreatedPayload{
		EnrollmentID: enrollment.ID,
		StudentID:    enrollment.StudentID,
		CourseID:     enrollment.CourseID,
	}))
	return s.Get(ctx, enrollment.ID)
}

func (s *enrollmentService) Get(ctx context.Context, id uint) (*models.Enrollment, error) {
	enrollment, err := s.repo.Enrollment().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrEnrollmentNotFound)
	}
	return enrollment, nil
}

func (s *enrollmentService) ListByStudent(ctx context.Context, studentID uint, filters repositories.EnrollmentFilters, page models.PageParams) (*models.ListResponse[*models.Enrollment], error) {
	if _, err := s.repo.Student().GetByID(ctx, studentID); err != nil {
		return nil, notFoundOr(err, ErrStudentNotFound)
	}
	filters.StudentID = &studentID
	return s.list(ctx, filters, page)
}

func (s *enrollmentService) ListByCourse(ctx context.Context, courseID uint, filters repositories.EnrollmentFilters, page models.PageParams) (*models.ListResponse[*models.Enrollment], error) {
	if _, err := s.repo.Course().GetByID(ctx, courseID); err != nil {
		return nil, notFoundOr(err, ErrCourseNotFound)
	}
	filters.CourseID = &courseID
	return s.list(ctx, filters, page)
}

func (s *enrollmentService) list(ctx context.Context, filters repositories.EnrollmentFilters, page models.PageParams) (*models.ListResponse[*models.Enrollment], error) {
	page = page.Normalize()
	filters.Limit = page.Size
	filters.Offset = page.Offset()

	enrollments, total, err := s.repo.Enrollment().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return &models.ListResponse[*models.Enrollment]{Items: enrollments, Total: total, Page: page.Page, Size: page.Size}, nil
}

func (s *enrollmentService) UpdateStatus(ctx context.Context, id uint, status models.EnrollmentStatus) (*models.Enrollment, error) {
	if err := s.validator.Validate(&validator.EnrollmentStatusRequest{Status: status}); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(e *models.Enrollment) { e.Status = status })
}

func (s *enrollmentService) UpdatePaymentStatus(ctx context.Context, id uint, status models.PaymentStatus) (*models.Enrollment, error) {
	if err := s.validator.Validate(&validator.PaymentStatusRequest{PaymentStatus: status}); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(e *models.Enrollment) { e.PaymentStatus = status })
}

// SetCompletion stores a percentage computed outside this service
func (s *enrollmentService) SetCompletion(ctx context.Context, id uint, percentage float64) (*models.Enrollment, error) {
	if err := s.validator.Validate(&validator.CompletionRequest{CompletionPercentage: percentage}); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(e *models.Enrollment) { e.CompletionPercentage = percentage })
}

func (s *enrollmentService) SetGrade(ctx context.Context, id uint, grade string) (*models.Enrollment, error) {
	if err := s.validator.Validate(&validator.GradeRequest{Grade: grade}); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(e *models.Enrollment) { e.Grade = grade })
}

func (s *enrollmentService) Cancel(ctx context.Context, id uint) (*models.Enrollment, error) {
	return s.UpdateStatus(ctx, id, models.EnrollmentCancelled)
}

func (s *enrollmentService) mutate(ctx context.Context, id uint, apply func(*models.Enrollment)) (*models.Enrollment, error) {
	enrollment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(enrollment)
	if err := s.repo.Enrollment().Update(ctx, enrollment); err != nil {
		return nil, fmt.Errorf("failed to update enrollment: %w", notFoundOr(err, ErrEnrollmentNotFound))
	}
	s.logger.Info("Enrollment updated",
		"enrollment_id", id,
		"status", enrollment.Status,
		"payment_status", enrollment.PaymentStatus)
	return s.Get(ctx, id)
}

// ===== LESSON PROGRESS =====

// RecordLessonProgress creates the record on first access. Minutes only accumulate and
// completed_at is stamped once, on the first move to completed.
func (s *enrollmentService) RecordLessonProgress(ctx context.Context, enrollmentID uint, req *LessonProgressRequest) (*models.LessonProgress, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var progress *models.LessonProgress
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		enrollment, err := tx.Enrollment().GetByID(ctx, enrollmentID)
		if err != nil {
			return notFoundOr(err, ErrEnrollmentNotFound)
		}
		courseID, err := tx.Lesson().CourseIDOf(ctx, req.LessonID)
		if err != nil {
			return notFoundOr(err, ErrLessonNotFound)
		}
		if courseID != enrollment.CourseID {
			return NewValidationError("lesson_id", "lesson does not belong to the enrolled course", req.LessonID)
		}

		// first access inserts an empty row, then every writer accumulates under the row lock
		if _, err := tx.LessonProgress().CreateIfAbsent(ctx, &models.LessonProgress{
			EnrollmentID: enrollmentID,
			LessonID:     req.LessonID,
			Status:       models.ProgressNotStarted,
		}); err != nil {
			return fmt.Errorf("failed to create lesson progress: %w", err)
		}
		progress, err = tx.LessonProgress().GetForUpdate(ctx, enrollmentID, req.LessonID)
		if err != nil {
			return fmt.Errorf("failed to lock lesson progress: %w", err)
		}

		now := s.now()
		applyProgress(progress, req, now)
		return tx.LessonProgress().Update(ctx, progress)
	})
	if err != nil {
		return nil, err
	}
	return progress, nil
}

func applyProgress(progress *models.LessonProgress, req *LessonProgressRequest, now time.Time) {
	progress.TimeSpentMinutes += req.AddedMinutes
	progress.LastAccessedAt = &now
	if req.Status != nil {
		progress.Status = *req.Status
	}
	if progress.Status == models.ProgressCompleted && progress.CompletedAt == nil {
		progress.CompletedAt = &now
	}
}

func (s *enrollmentService) ListLessonProgress(ctx context.Context, enrollmentID uint) ([]*models.LessonProgress, error) {
	if _, err := s.repo.Enrollment().GetByID(ctx, enrollmentID); err != nil {
		return nil, notFoundOr(err, ErrEnrollmentNotFound)
	}
	progress, err := s.repo.LessonProgress().ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lesson progress: %w", err)
	}
	return progress, nil
}
