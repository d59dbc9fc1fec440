package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achievers-lc/learning-center/internal/barcode"
	"github.com/achievers-lc/learning-center/internal/events"
	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/repositories"
)

type registerFixture struct {
	*fixture
	learner   *models.Student
	liveClass *models.LiveClass
	barcode   *models.StudentBarcode
}

func newRegisterFixture(t *testing.T) *registerFixture {
	t.Helper()
	f := newFixture(t)
	owner, _ := f.teacher(t, "teacher@example.com")
	course := f.course(t, owner, "Electromagnetism")
	student := f.student(t, "student@example.com")

	code, err := f.attendance.IssueBarcode(f.ctx, student.ID, nil)
	require.NoError(t, err)

	return &registerFixture{
		fixture:   f,
		learner:   student,
		liveClass: f.liveClass(t, course.ID),
		barcode:   code,
	}
}

func (f *registerFixture) scan(payload string) (*ScanResult, error) {
	return f.attendance.ScanCheckIn(f.ctx, &ScanRequest{
		LiveClassID: f.liveClass.ID,
		Payload:     payload,
		DeviceID:    "gate-1",
		IPAddress:   "10.0.0.7",
	})
}

func (f *registerFixture) logs(t *testing.T) []*models.AttendanceLog {
	t.Helper()
	list, err := f.attendance.ListLogs(f.ctx, repositories.AttendanceLogFilters{}, models.PageParams{Size: 100})
	require.NoError(t, err)
	return list.Items
}

func (f *registerFixture) rows(t *testing.T) []*models.Attendance {
	t.Helper()
	rows, err := f.attendance.ListAttendance(f.ctx, f.liveClass.ID)
	require.NoError(t, err)
	return rows
}

func TestIssueBarcode(t *testing.T) {
	f := newRegisterFixture(t)

	assert.Equal(t, models.BarcodeActive, f.barcode.Status)
	assert.NotEmpty(t, f.barcode.BarcodeImage)
	assert.NotEmpty(t, f.barcode.QRCodeImage)
	assert.Nil(t, f.barcode.ExpiresAt)

	plain, err := f.deps.Codec.Open(f.barcode.BarcodeData)
	require.NoError(t, err)
	assert.Equal(t, f.learner.StudentIDNumber, plain)

	_, err = f.attendance.IssueBarcode(f.ctx, f.learner.ID, nil)
	assert.True(t, IsConflict(err))

	_, err = f.attendance.IssueBarcode(f.ctx, 999, nil)
	assert.ErrorIs(t, err, ErrStudentNotFound)

	past := time.Now().Add(-time.Hour)
	other := f.student(t, "other@example.com")
	_, err = f.attendance.IssueBarcode(f.ctx, other.ID, &past)
	assert.True(t, IsValidation(err))
}

func TestScanCheckIn_UnknownBarcode(t *testing.T) {
	f := newRegisterFixture(t)

	var key [32]byte
	foreign, err := barcode.NewCodec(key).Seal(f.learner.StudentIDNumber)
	require.NoError(t, err)

	for _, payload := range []string{"garbage", foreign} {
		result, err := f.scan(payload)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBarcodeNotFound)
		require.NotNil(t, result)
		assert.False(t, result.Success)
		require.NotNil(t, result.Log)
		assert.Equal(t, models.ActionScanAttempt, result.Log.Action)
	}

	logs := f.logs(t)
	require.Len(t, logs, 2)
	for _, entry := range logs {
		assert.False(t, entry.Success)
		assert.Nil(t, entry.StudentID)
		assert.Equal(t, "unknown barcode", entry.FailureReason)
		assert.Equal(t, "gate-1", entry.DeviceID)
	}
	assert.Empty(t, f.rows(t))
	assert.Len(t, f.events.OfType(events.AttendanceScanFailed), 2)
}

func TestScanCheckIn_Success(t *testing.T) {
	f := newRegisterFixture(t)

	result, err := f.scan(f.barcode.BarcodeData)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, models.ActionCheckIn, result.Action)
	require.NotNil(t, result.Student)
	assert.Equal(t, f.learner.ID, result.Student.ID)

	rows := f.rows(t)
	require.Len(t, rows, 1)
	assert.Equal(t, models.AttendancePresent, rows[0].Status)
	assert.Equal(t, models.MethodBarcodeScan, rows[0].AttendanceMethod)
	require.NotNil(t, rows[0].CheckInTime)
	assert.Equal(t, testNow, *rows[0].CheckInTime)
	assert.Nil(t, rows[0].CheckOutTime)

	logs := f.logs(t)
	require.Len(t, logs, 1)
	assert.True(t, logs[0].Success)
	assert.Equal(t, models.ActionCheckIn, logs[0].Action)
	require.NotNil(t, logs[0].AttendanceID)
	assert.Equal(t, rows[0].ID, *logs[0].AttendanceID)
	require.NotNil(t, logs[0].IPAddress)
	assert.Equal(t, "10.0.0.7", *logs[0].IPAddress)

	assert.Len(t, f.events.OfType(events.AttendanceCheckedIn), 1)
}

func TestScanCheckIn_Twice(t *testing.T) {
	f := newRegisterFixture(t)

	_, err := f.scan(f.barcode.BarcodeData)
	require.NoError(t, err)

	f.now = testNow.Add(10 * time.Minute)
	result, err := f.scan(f.barcode.BarcodeData)
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.False(t, result.Success)
	assert.Equal(t, "already checked in", result.Reason)

	rows := f.rows(t)
	require.Len(t, rows, 1)
	assert.Equal(t, testNow, *rows[0].CheckInTime)

	logs := f.logs(t)
	require.Len(t, logs, 2)
	assert.False(t, logs[0].Success, "newest entry first")
	assert.True(t, logs[1].Success)
}

func TestScanCheckIn_Concurrent(t *testing.T) {
	f := newRegisterFixture(t)

	const scanners = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.scan(f.barcode.BarcodeData)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case IsConflict(err):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, scanners-1, conflicts)
	assert.Len(t, f.rows(t), 1)
	assert.Len(t, f.logs(t), scanners)
}

func TestScanCheckIn_Rejections(t *testing.T) {
	t.Run("unknown live class", func(t *testing.T) {
		f := newRegisterFixture(t)
		result, err := f.attendance.ScanCheckIn(f.ctx, &ScanRequest{LiveClassID: 999, Payload: f.barcode.BarcodeData})
		assert.ErrorIs(t, err, ErrLiveClassNotFound)
		require.NotNil(t, result.Log)
		assert.Nil(t, result.Log.LiveClassID)
		assert.Len(t, f.logs(t), 1)
	})

	t.Run("revoked barcode", func(t *testing.T) {
		f := newRegisterFixture(t)
		_, err := f.attendance.RevokeBarcode(f.ctx, f.learner.ID)
		require.NoError(t, err)

		result, err := f.scan(f.barcode.BarcodeData)
		assert.True(t, IsPermission(err))
		assert.Equal(t, "barcode revoked", result.Reason)
		assert.Empty(t, f.rows(t))
		require.Len(t, f.logs(t), 1)
		assert.Equal(t, f.learner.ID, *f.logs(t)[0].StudentID)
	})

	t.Run("expired barcode", func(t *testing.T) {
		f := newFixture(t)
		f.deps.BarcodeTTL = time.Hour
		f.rebuild()
		owner, _ := f.teacher(t, "teacher@example.com")
		liveClass := f.liveClass(t, f.course(t, owner, "Statics").ID)
		student := f.student(t, "student@example.com")
		code, err := f.attendance.IssueBarcode(f.ctx, student.ID, nil)
		require.NoError(t, err)
		require.NotNil(t, code.ExpiresAt)

		f.now = testNow.Add(2 * time.Hour)
		result, err := f.attendance.ScanCheckIn(f.ctx, &ScanRequest{LiveClassID: liveClass.ID, Payload: code.BarcodeData})
		assert.True(t, IsPermission(err))
		assert.Equal(t, "barcode expired", result.Reason)
	})

	t.Run("suspended account", func(t *testing.T) {
		f := newRegisterFixture(t)
		_, err := f.users.ChangeStatus(f.ctx, f.learner.AccountID, models.AccountSuspended)
		require.NoError(t, err)

		result, err := f.scan(f.barcode.BarcodeData)
		assert.True(t, IsPermission(err))
		assert.Equal(t, "account suspended", result.Reason)
		assert.Empty(t, f.rows(t))
	})

	t.Run("malformed request", func(t *testing.T) {
		f := newRegisterFixture(t)
		_, err := f.attendance.ScanCheckIn(f.ctx, &ScanRequest{LiveClassID: f.liveClass.ID})
		assert.True(t, IsValidation(err))
		assert.Empty(t, f.logs(t))
	})
}

func TestReissueBarcode(t *testing.T) {
	f := newRegisterFixture(t)
	old := *f.barcode

	_, err := f.attendance.RevokeBarcode(f.ctx, f.learner.ID)
	require.NoError(t, err)

	fresh, err := f.attendance.ReissueBarcode(f.ctx, f.learner.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.BarcodeActive, fresh.Status)
	assert.NotEqual(t, old.BarcodeData, fresh.BarcodeData)
	assert.NotEqual(t, old.BarcodeImage, fresh.BarcodeImage)

	_, err = f.scan(old.BarcodeData)
	assert.ErrorIs(t, err, ErrBarcodeNotFound)
	_, err = f.scan(fresh.BarcodeData)
	assert.NoError(t, err)
}

func TestCheckOut(t *testing.T) {
	f := newRegisterFixture(t)
	byStudent := &CheckOutRequest{LiveClassID: f.liveClass.ID, StudentID: &f.learner.ID}

	_, err := f.attendance.CheckOut(f.ctx, byStudent)
	assert.ErrorIs(t, err, ErrAttendanceNotFound)

	_, err = f.scan(f.barcode.BarcodeData)
	require.NoError(t, err)

	f.now = testNow.Add(45 * time.Minute)
	result, err := f.attendance.CheckOut(f.ctx, &CheckOutRequest{LiveClassID: f.liveClass.ID, Payload: f.barcode.BarcodeData})
	require.NoError(t, err)
	assert.Equal(t, models.ActionCheckOut, result.Action)
	require.NotNil(t, result.Attendance.CheckOutTime)
	assert.Equal(t, f.now, *result.Attendance.CheckOutTime)

	_, err = f.attendance.CheckOut(f.ctx, byStudent)
	assert.True(t, IsConflict(err))

	_, err = f.attendance.CheckOut(f.ctx, &CheckOutRequest{LiveClassID: f.liveClass.ID})
	assert.True(t, IsValidation(err))

	checkOut := models.ActionCheckOut
	list, err := f.attendance.ListLogs(f.ctx, repositories.AttendanceLogFilters{Action: &checkOut}, models.PageParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), list.Total)
	assert.Len(t, f.events.OfType(events.AttendanceCheckedOut), 1)
}

func TestRecordAttendance(t *testing.T) {
	f := newRegisterFixture(t)
	checkIn := testNow.Add(20 * time.Minute)
	checkOut := testNow.Add(-time.Minute)

	_, err := f.attendance.RecordAttendance(f.ctx, &RecordAttendanceRequest{
		LiveClassID:  f.liveClass.ID,
		StudentID:    f.learner.ID,
		Status:       models.AttendanceLate,
		CheckInTime:  &checkIn,
		CheckOutTime: &checkOut,
	})
	assert.True(t, IsValidation(err))

	row, err := f.attendance.RecordAttendance(f.ctx, &RecordAttendanceRequest{
		LiveClassID: f.liveClass.ID,
		StudentID:   f.learner.ID,
		Status:      models.AttendanceLate,
		CheckInTime: &checkIn,
		IPAddress:   "not-an-ip",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceLate, row.Status)
	assert.Equal(t, models.MethodManual, row.AttendanceMethod)

	logs := f.logs(t)
	require.Len(t, logs, 1)
	assert.True(t, logs[0].Success)
	assert.Nil(t, logs[0].IPAddress)

	_, err = f.scan(f.barcode.BarcodeData)
	assert.True(t, IsConflict(err))

	absent, err := f.attendance.RecordAttendance(f.ctx, &RecordAttendanceRequest{
		LiveClassID: f.liveClass.ID,
		StudentID:   f.learner.ID,
		Status:      models.AttendanceAbsent,
	})
	require.NoError(t, err)
	assert.Equal(t, row.ID, absent.ID)
	assert.Equal(t, models.AttendanceAbsent, absent.Status)
	assert.Equal(t, checkIn, *absent.CheckInTime)
	assert.Len(t, f.rows(t), 1)
}

func TestLiveClassStatus(t *testing.T) {
	f := newRegisterFixture(t)

	ongoing, err := f.attendance.SetLiveClassStatus(f.ctx, f.liveClass.ID, models.LiveClassOngoing)
	require.NoError(t, err)
	assert.Equal(t, models.LiveClassOngoing, ongoing.Status)

	_, err = f.attendance.SetLiveClassStatus(f.ctx, f.liveClass.ID, models.LiveClassScheduled)
	assert.True(t, IsValidation(err))

	_, err = f.attendance.SetLiveClassStatus(f.ctx, f.liveClass.ID, models.LiveClassCompleted)
	require.NoError(t, err)
	_, err = f.attendance.SetLiveClassStatus(f.ctx, f.liveClass.ID, models.LiveClassCancelled)
	assert.True(t, IsValidation(err))

	assert.Equal(t, 60, f.liveClass.DurationMinutes)

	title := "Week 1 (moved)"
	updated, err := f.attendance.UpdateLiveClass(f.ctx, f.liveClass.ID, &UpdateLiveClassRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)

	_, err = f.attendance.ScheduleLiveClass(f.ctx, 999, &LiveClassRequest{Title: "x", ScheduledAt: testNow})
	assert.ErrorIs(t, err, ErrCourseNotFound)
}
