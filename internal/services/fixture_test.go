package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/achievers-lc/learning-center/internal/barcode"
	"github.com/achievers-lc/learning-center/internal/events"
	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/repositories/memory"
	"github.com/achievers-lc/learning-center/internal/storage"
)

var testNow = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

type fixture struct {
	ctx    context.Context
	now    time.Time
	repo   *memory.Repository
	events *events.MockEventPublisher
	deps   Dependencies

	users       UserService
	courses     CourseService
	enrollments EnrollmentService
	attendance  AttendanceService
	exports     ImportExportService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	blobs, err := storage.NewLocalStore(t.TempDir(), "/media")
	require.NoError(t, err)

	var key [32]byte
	copy(key[:], "learning-center-test-key-32bytes")

	repo := memory.New()
	f := &fixture{
		ctx:    context.Background(),
		now:    testNow,
		repo:   repo,
		events: events.NewMockEventPublisher(discardLogger()),
	}
	f.deps = Dependencies{
		Repo:         repo,
		Logger:       discardLogger(),
		Events:       f.events,
		Blobs:        blobs,
		Codec:        barcode.NewCodec(key),
		PasswordCost: bcrypt.MinCost,
		Now:          func() time.Time { return f.now },
	}
	f.rebuild()
	return f
}

// rebuild recreates the services after deps changed
func (f *fixture) rebuild() {
	f.users = NewUserService(f.deps)
	f.courses = NewCourseService(f.deps)
	f.enrollments = NewEnrollmentService(f.deps)
	f.attendance = NewAttendanceService(f.deps)
	f.exports = NewImportExportService(f.deps)
}

func (f *fixture) account(t *testing.T, email string, role models.UserRole) *models.Account {
	t.Helper()
	account, err := f.users.Register(f.ctx, &RegisterRequest{
		Email:     email,
		Password:  "correct-horse-battery",
		FirstName: "Test",
		LastName:  string(role),
		Role:      &role,
	})
	require.NoError(t, err)
	return account
}

func (f *fixture) student(t *testing.T, email string) *models.Student {
	t.Helper()
	account := f.account(t, email, models.RoleStudent)
	student, err := f.users.AttachStudentProfile(f.ctx, account.ID, &StudentProfileRequest{GradeLevel: models.Grade8})
	require.NoError(t, err)
	return student
}

func (f *fixture) teacher(t *testing.T, email string) (*models.Account, *models.Teacher) {
	t.Helper()
	account := f.account(t, email, models.RoleTeacher)
	teacher, err := f.users.AttachTeacherProfile(f.ctx, account.ID, &TeacherProfileRequest{Subjects: []string{"physics"}})
	require.NoError(t, err)
	return account, teacher
}

func (f *fixture) course(t *testing.T, owner *models.Account, title string) *models.Course {
	t.Helper()
	course, err := f.courses.Create(f.ctx, &CreateCourseRequest{Title: title}, owner)
	require.NoError(t, err)
	return course
}

func (f *fixture) liveClass(t *testing.T, courseID uint) *models.LiveClass {
	t.Helper()
	liveClass, err := f.attendance.ScheduleLiveClass(f.ctx, courseID, &LiveClassRequest{
		Title:       "Week 1",
		ScheduledAt: testNow.Add(time.Hour),
	})
	require.NoError(t, err)
	return liveClass
}
