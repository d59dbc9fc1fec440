package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/achievers-lc/learning-center/internal/barcode"
	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/repositories/casdoor"
	"github.com/achievers-lc/learning-center/internal/repositories/memory"
	"github.com/achievers-lc/learning-center/internal/services"
	"github.com/achievers-lc/learning-center/internal/storage"
	"github.com/achievers-lc/learning-center/internal/utils"
)

type testServer struct {
	router   *gin.Engine
	services services.ServiceManager
}

// tokens are "token-<email>"
func tokenVerifier(token string) (string, error) {
	email, ok := strings.CutPrefix(token, "token-")
	if !ok {
		return "", errors.New("signature mismatch")
	}
	return email, nil
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	blobs, err := storage.NewLocalStore(t.TempDir(), "/media")
	require.NoError(t, err)

	var key [32]byte
	copy(key[:], "learning-center-test-key-32bytes")

	repo := memory.New()
	sm := services.NewServiceManager(services.Dependencies{
		Repo:         repo,
		Logger:       logger,
		Blobs:        blobs,
		Codec:        barcode.NewCodec(key),
		PasswordCost: bcrypt.MinCost,
	})
	require.NoError(t, sm.Initialize(context.Background()))

	resolver := casdoor.NewAccountResolverWithVerifier(tokenVerifier, repo.Account(), nil)

	router := gin.New()
	SetupMiddleware(router, utils.NewSlogLogger(logger))
	NewHandlerManager(sm, resolver, utils.NewSlogLogger(logger)).SetupRoutes(router)

	return &testServer{router: router, services: sm}
}

func (s *testServer) do(method, path, email string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			data, _ := json.Marshal(b)
			reader = bytes.NewReader(data)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		req.Header.Set("Authorization", "Bearer token-"+email)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) account(t *testing.T, email string, role models.UserRole) *models.Account {
	t.Helper()
	account, err := s.services.Users().Register(context.Background(), &services.RegisterRequest{
		Email:    email,
		Password: "correct-horse-battery",
		Role:     &role,
	})
	require.NoError(t, err)
	return account
}

func (s *testServer) teacher(t *testing.T, email string) *models.Account {
	t.Helper()
	account := s.account(t, email, models.RoleTeacher)
	_, err := s.services.Users().AttachTeacherProfile(context.Background(), account.ID, &services.TeacherProfileRequest{})
	require.NoError(t, err)
	return account
}

func (s *testServer) student(t *testing.T, email string) *models.Student {
	t.Helper()
	account := s.account(t, email, models.RoleStudent)
	student, err := s.services.Users().AttachStudentProfile(context.Background(), account.ID, &services.StudentProfileRequest{GradeLevel: models.Grade9})
	require.NoError(t, err)
	return student
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)
	s.teacher(t, "teacher@example.com")
	s.student(t, "student@example.com")
	suspended := s.account(t, "suspended@example.com", models.RoleTeacher)
	_, err := s.services.Users().ChangeStatus(context.Background(), suspended.ID, models.AccountSuspended)
	require.NoError(t, err)

	rec := s.do(http.MethodGet, "/api/v1/courses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/courses", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	raw := httptest.NewRecorder()
	s.router.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusUnauthorized, raw.Code)

	rec = s.do(http.MethodGet, "/api/v1/courses", "ghost@example.com", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/courses", "suspended@example.com", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/courses", "student@example.com", map[string]string{"title": "Algebra"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/accounts/me", "teacher@example.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[models.Profile](t, rec)
	assert.Equal(t, models.RoleTeacher, profile.Role)
	assert.NotNil(t, profile.Teacher)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	s.account(t, "admin@example.com", models.RoleAdmin)
	s.teacher(t, "teacher@example.com")
	s.account(t, "bare@example.com", models.RoleTeacher)

	rec := s.do(http.MethodGet, "/api/v1/courses/999", "teacher@example.com", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/courses/abc", "teacher@example.com", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/courses", "teacher@example.com", "{not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_payload", decode[ErrorResponse](t, rec).Error)

	rec = s.do(http.MethodPost, "/api/v1/courses", "teacher@example.com", map[string]string{"title": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_failed", decode[ErrorResponse](t, rec).Error)

	rec = s.do(http.MethodPost, "/api/v1/courses", "bare@example.com", map[string]string{"title": "Algebra"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/accounts", "admin@example.com", map[string]string{
		"email":    "Teacher@Example.com",
		"password": "long-enough-password",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	details := decode[ErrorResponse](t, rec).Details.(map[string]interface{})
	assert.Equal(t, "email", details["field"])
	assert.Equal(t, "uq_accounts_email", details["constraint"])
}

func TestCourseVisibility(t *testing.T) {
	s := newTestServer(t)
	s.teacher(t, "teacher@example.com")
	s.student(t, "student@example.com")

	rec := s.do(http.MethodPost, "/api/v1/courses", "teacher@example.com", map[string]string{"title": "Wave Optics"})
	require.Equal(t, http.StatusCreated, rec.Code)
	course := decode[models.Course](t, rec)
	assert.Equal(t, "wave-optics", course.Slug)

	list := decode[models.ListResponse[models.Course]](t, s.do(http.MethodGet, "/api/v1/courses", "student@example.com", nil))
	assert.Equal(t, int64(0), list.Total)
	list = decode[models.ListResponse[models.Course]](t, s.do(http.MethodGet, "/api/v1/courses", "teacher@example.com", nil))
	assert.Equal(t, int64(1), list.Total)

	rec = s.do(http.MethodPost, "/api/v1/courses/"+strconv.Itoa(int(course.ID))+"/publish", "teacher@example.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	list = decode[models.ListResponse[models.Course]](t, s.do(http.MethodGet, "/api/v1/courses", "student@example.com", nil))
	assert.Equal(t, int64(1), list.Total)

	rec = s.do(http.MethodGet, "/api/v1/courses/slug/wave-optics", "student@example.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, course.ID, decode[models.Course](t, rec).ID)
}

func TestScanCheckInOverHTTP(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	s.account(t, "admin@example.com", models.RoleAdmin)
	s.teacher(t, "teacher@example.com")
	student := s.student(t, "student@example.com")

	rec := s.do(http.MethodPost, "/api/v1/courses", "teacher@example.com", map[string]string{"title": "Mechanics"})
	require.Equal(t, http.StatusCreated, rec.Code)
	course := decode[models.Course](t, rec)

	rec = s.do(http.MethodPost, "/api/v1/live-classes", "teacher@example.com", map[string]interface{}{
		"course_id":    course.ID,
		"title":        "Week 1",
		"scheduled_at": time.Now().Add(time.Hour).UTC(),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	liveClass := decode[models.LiveClass](t, rec)

	studentPath := "/api/v1/students/" + strconv.Itoa(int(student.ID)) + "/barcode"
	rec = s.do(http.MethodPost, studentPath, "teacher@example.com", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodPost, studentPath, "admin@example.com", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	issued := decode[models.StudentBarcode](t, rec)

	scan := map[string]interface{}{
		"live_class_id": liveClass.ID,
		"payload":       issued.BarcodeData,
		"device_id":     "gate-1",
	}
	rec = s.do(http.MethodPost, "/api/v1/attendance/scan", "teacher@example.com", scan)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[services.ScanResult](t, rec)
	assert.True(t, result.Success)
	require.NotNil(t, result.Attendance)
	assert.Equal(t, student.ID, result.Attendance.StudentID)

	rec = s.do(http.MethodPost, "/api/v1/attendance/scan", "teacher@example.com", scan)
	require.Equal(t, http.StatusConflict, rec.Code)
	details := decode[ErrorResponse](t, rec).Details.(map[string]interface{})
	assert.Equal(t, "student_id", details["field"])
	assert.Equal(t, "idx_attendance_class_student", details["constraint"])

	rec = s.do(http.MethodPost, "/api/v1/attendance/scan", "teacher@example.com", map[string]interface{}{
		"live_class_id": liveClass.ID,
		"payload":       "not-a-barcode",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	logsPath := "/api/v1/attendance/logs?live_class_id=" + strconv.Itoa(int(liveClass.ID))
	logs := decode[models.ListResponse[models.AttendanceLog]](t, s.do(http.MethodGet, logsPath, "teacher@example.com", nil))
	require.Equal(t, int64(3), logs.Total)
	for _, entry := range logs.Items {
		require.NotNil(t, entry.IPAddress)
		assert.Equal(t, "192.0.2.1", *entry.IPAddress)
	}

	failed := decode[models.ListResponse[models.AttendanceLog]](t, s.do(http.MethodGet, logsPath+"&success=false", "teacher@example.com", nil))
	assert.Equal(t, int64(2), failed.Total)

	rec = s.do(http.MethodGet, "/api/v1/live-classes/"+strconv.Itoa(int(liveClass.ID))+"/attendance/export", "teacher@example.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attendance_week-1_")

	rows, err := s.services.Attendance().ListAttendance(ctx, liveClass.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
