//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/achievers-lc/learning-center/internal/barcode"
	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/repositories"
	"github.com/achievers-lc/learning-center/internal/repositories/postgres"
	"github.com/achievers-lc/learning-center/internal/services"
	"github.com/achievers-lc/learning-center/internal/storage"
	"github.com/achievers-lc/learning-center/pkg"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "TEST_DATABASE_URL not set, skipping postgres integration tests")
		os.Exit(0)
	}

	var err error
	testDB, err = gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to test database: %v\n", err)
		os.Exit(1)
	}

	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get database instance: %v\n", err)
		os.Exit(1)
	}
	if err := pkg.RunMigrations(sqlDB); err != nil {
		fmt.Fprintf(os.Stderr, "migrations failed: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func resetTables(t *testing.T) {
	t.Helper()
	require.NoError(t, testDB.Exec(`TRUNCATE accounts, students, teachers, parents, courses, course_modules, lessons, enrollments, lesson_progress, student_barcodes, live_classes, attendances, attendance_logs RESTART IDENTITY CASCADE`).Error)
}

func newUsers(repo repositories.Repository) services.UserService {
	return services.NewUserService(services.Dependencies{
		Repo:         repo,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		PasswordCost: bcrypt.MinCost,
	})
}

func TestDuplicateEmailReportsConstraint(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: testDB})

	require.NoError(t, repo.Account().Create(ctx, &models.Account{Email: "dup@example.com", PasswordHash: "x"}))
	err := repo.Account().Create(ctx, &models.Account{Email: "dup@example.com", PasswordHash: "y"})

	require.True(t, repositories.IsDuplicateError(err), "got %v", err)
	assert.Equal(t, "uq_accounts_email", repositories.DuplicateConstraint(err))

	_, err = newUsers(repo).Register(ctx, &services.RegisterRequest{Email: "DUP@example.com", Password: "long-enough-password"})
	assert.True(t, services.IsConflict(err))
}

func TestConcurrentScansProduceOneRow(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: testDB})

	blobs, err := storage.NewLocalStore(t.TempDir(), "/media")
	require.NoError(t, err)
	var key [32]byte
	copy(key[:], "learning-center-test-key-32bytes")

	deps := services.Dependencies{
		Repo:         repo,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Blobs:        blobs,
		Codec:        barcode.NewCodec(key),
		PasswordCost: bcrypt.MinCost,
	}
	users := services.NewUserService(deps)
	courses := services.NewCourseService(deps)
	attendance := services.NewAttendanceService(deps)

	teacherRole, studentRole := models.RoleTeacher, models.RoleStudent
	owner, err := users.Register(ctx, &services.RegisterRequest{Email: "t@example.com", Password: "long-enough-password", Role: &teacherRole})
	require.NoError(t, err)
	_, err = users.AttachTeacherProfile(ctx, owner.ID, &services.TeacherProfileRequest{})
	require.NoError(t, err)
	learner, err := users.Register(ctx, &services.RegisterRequest{Email: "s@example.com", Password: "long-enough-password", Role: &studentRole})
	require.NoError(t, err)
	student, err := users.AttachStudentProfile(ctx, learner.ID, &services.StudentProfileRequest{GradeLevel: models.Grade10})
	require.NoError(t, err)

	course, err := courses.Create(ctx, &services.CreateCourseRequest{Title: "Electrostatics"}, owner)
	require.NoError(t, err)
	liveClass, err := attendance.ScheduleLiveClass(ctx, course.ID, &services.LiveClassRequest{
		Title:       "Week 1",
		ScheduledAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	issued, err := attendance.IssueBarcode(ctx, student.ID, nil)
	require.NoError(t, err)

	const scanners = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := range scanners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := attendance.ScanCheckIn(ctx, &services.ScanRequest{
				LiveClassID: liveClass.ID,
				Payload:     issued.BarcodeData,
				DeviceID:    fmt.Sprintf("gate-%d", i),
				IPAddress:   "10.0.0.7",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case services.IsConflict(err):
				conflicts++
			default:
				t.Errorf("unexpected scan error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, scanners-1, conflicts)

	rows, err := attendance.ListAttendance(ctx, liveClass.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	logs, err := attendance.ListLogs(ctx, repositories.AttendanceLogFilters{LiveClassID: &liveClass.ID}, models.PageParams{Size: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(scanners), logs.Total)
}

func TestConcurrentLessonProgressKeepsEveryMinute(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: testDB})

	deps := services.Dependencies{
		Repo:         repo,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		PasswordCost: bcrypt.MinCost,
	}
	users := services.NewUserService(deps)
	courses := services.NewCourseService(deps)
	enrollments := services.NewEnrollmentService(deps)

	teacherRole, studentRole := models.RoleTeacher, models.RoleStudent
	owner, err := users.Register(ctx, &services.RegisterRequest{Email: "t@example.com", Password: "long-enough-password", Role: &teacherRole})
	require.NoError(t, err)
	_, err = users.AttachTeacherProfile(ctx, owner.ID, &services.TeacherProfileRequest{})
	require.NoError(t, err)
	learner, err := users.Register(ctx, &services.RegisterRequest{Email: "s@example.com", Password: "long-enough-password", Role: &studentRole})
	require.NoError(t, err)
	student, err := users.AttachStudentProfile(ctx, learner.ID, &services.StudentProfileRequest{GradeLevel: models.Grade10})
	require.NoError(t, err)

	course, err := courses.Create(ctx, &services.CreateCourseRequest{Title: "Optics"}, owner)
	require.NoError(t, err)
	module, err := courses.AddModule(ctx, course.ID, &services.ModuleRequest{Title: "Lenses"}, owner)
	require.NoError(t, err)
	lesson, err := courses.AddLesson(ctx, module.ID, &services.LessonRequest{Title: "Focal length"}, owner)
	require.NoError(t, err)
	enrollment, err := enrollments.Enroll(ctx, &services.EnrollRequest{StudentID: student.ID, CourseID: course.ID})
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := enrollments.RecordLessonProgress(ctx, enrollment.ID, &services.LessonProgressRequest{
				LessonID:     lesson.ID,
				AddedMinutes: 5,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := enrollments.ListLessonProgress(ctx, enrollment.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, writers*5, all[0].TimeSpentMinutes)
}
