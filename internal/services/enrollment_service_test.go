package services

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achievers-lc/learning-center/internal/events"
	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/repositories"
)

func TestEnroll(t *testing.T) {
	f := newFixture(t)
	owner, _ := f.teacher(t, "teacher@example.com")
	course := f.course(t, owner, "Optics")
	student := f.student(t, "student@example.com")

	enrollment, err := f.enrollments.Enroll(f.ctx, &EnrollRequest{StudentID: student.ID, CourseID: course.ID})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentPending, enrollment.Status)
	assert.Equal(t, models.PaymentUnpaid, enrollment.PaymentStatus)
	assert.Equal(t, testNow, enrollment.EnrollmentDate)
	assert.Len(t, f.events.OfType(events.EnrollmentCreated), 1)

	_, err = f.enrollments.Enroll(f.ctx, &EnrollRequest{StudentID: student.ID, CourseID: course.ID})
	require.True(t, IsConflict(err))
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "idx_enrollment_student_course", conflict.Constraint)
	assert.Len(t, f.events.OfType(events.EnrollmentCreated), 1)

	_, err = f.enrollments.Enroll(f.ctx, &EnrollRequest{StudentID: 999, CourseID: course.ID})
	assert.ErrorIs(t, err, ErrStudentNotFound)
	_, err = f.enrollments.Enroll(f.ctx, &EnrollRequest{StudentID: student.ID, CourseID: 999})
	assert.ErrorIs(t, err, ErrCourseNotFound)

	list, err := f.enrollments.ListByStudent(f.ctx, student.ID, repositories.EnrollmentFilters{}, models.PageParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Items, 1)
	assert.Equal(t, course.ID, list.Items[0].CourseID)
}

func TestEnrollment_Updates(t *testing.T) {
	f := newFixture(t)
	owner, _ := f.teacher(t, "teacher@example.com")
	course := f.course(t, owner, "Optics")
	student := f.student(t, "student@example.com")
	enrollment, err := f.enrollments.Enroll(f.ctx, &EnrollRequest{StudentID: student.ID, CourseID: course.ID})
	require.NoError(t, err)

	paid, err := f.enrollments.UpdatePaymentStatus(f.ctx, enrollment.ID, models.PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, paid.PaymentStatus)

	_, err = f.enrollments.SetCompletion(f.ctx, enrollment.ID, 120)
	assert.True(t, IsValidation(err))
	done, err := f.enrollments.SetCompletion(f.ctx, enrollment.ID, 62.5)
	require.NoError(t, err)
	assert.Equal(t, 62.5, done.CompletionPercentage)

	_, err = f.enrollments.UpdateStatus(f.ctx, enrollment.ID, models.EnrollmentStatus("frozen"))
	assert.True(t, IsValidation(err))

	cancelled, err := f.enrollments.Cancel(f.ctx, enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentCancelled, cancelled.Status)

	_, err = f.enrollments.Cancel(f.ctx, 999)
	assert.ErrorIs(t, err, ErrEnrollmentNotFound)
}

func TestRecordLessonProgress(t *testing.T) {
	f := newFixture(t)
	owner, _ := f.teacher(t, "teacher@example.com")
	course := f.course(t, owner, "Optics")
	other := f.course(t, owner, "Acoustics")
	student := f.student(t, "student@example.com")

	module, err := f.courses.AddModule(f.ctx, course.ID, &ModuleRequest{Title: "Lenses"}, owner)
	require.NoError(t, err)
	lesson, err := f.courses.AddLesson(f.ctx, module.ID, &LessonRequest{Title: "Focal length"}, owner)
	require.NoError(t, err)
	otherModule, err := f.courses.AddModule(f.ctx, other.ID, &ModuleRequest{Title: "Waves"}, owner)
	require.NoError(t, err)
	foreign, err := f.courses.AddLesson(f.ctx, otherModule.ID, &LessonRequest{Title: "Pitch"}, owner)
	require.NoError(t, err)

	enrollment, err := f.enrollments.Enroll(f.ctx, &EnrollRequest{StudentID: student.ID, CourseID: course.ID})
	require.NoError(t, err)

	_, err = f.enrollments.RecordLessonProgress(f.ctx, enrollment.ID, &LessonProgressRequest{LessonID: foreign.ID, AddedMinutes: 5})
	assert.True(t, IsValidation(err))

	inProgress := models.ProgressInProgress
	progress, err := f.enrollments.RecordLessonProgress(f.ctx, enrollment.ID, &LessonProgressRequest{
		LessonID:     lesson.ID,
		Status:       &inProgress,
		AddedMinutes: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, progress.TimeSpentMinutes)
	assert.Nil(t, progress.CompletedAt)

	completed := models.ProgressCompleted
	progress, err = f.enrollments.RecordLessonProgress(f.ctx, enrollment.ID, &LessonProgressRequest{
		LessonID:     lesson.ID,
		Status:       &completed,
		AddedMinutes: 15,
	})
	require.NoError(t, err)
	assert.Equal(t, 25, progress.TimeSpentMinutes)
	require.NotNil(t, progress.CompletedAt)
	assert.Equal(t, testNow, *progress.CompletedAt)

	all, err := f.enrollments.ListLessonProgress(f.ctx, enrollment.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, models.ProgressCompleted, all[0].Status)
}

func TestRecordLessonProgress_ConcurrentMinutesAccumulate(t *testing.T) {
	f := newFixture(t)
	owner, _ := f.teacher(t, "teacher@example.com")
	course := f.course(t, owner, "Optics")
	student := f.student(t, "student@example.com")
	module, err := f.courses.AddModule(f.ctx, course.ID, &ModuleRequest{Title: "Lenses"}, owner)
	require.NoError(t, err)
	lesson, err := f.courses.AddLesson(f.ctx, module.ID, &LessonRequest{Title: "Focal length"}, owner)
	require.NoError(t, err)
	enrollment, err := f.enrollments.Enroll(f.ctx, &EnrollRequest{StudentID: student.ID, CourseID: course.ID})
	require.NoError(t, err)

	const writers = 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.enrollments.RecordLessonProgress(f.ctx, enrollment.ID, &LessonProgressRequest{
				LessonID:     lesson.ID,
				AddedMinutes: 3,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := f.enrollments.ListLessonProgress(f.ctx, enrollment.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, writers*3, all[0].TimeSpentMinutes)
	assert.Equal(t, models.ProgressNotStarted, all[0].Status)
}
