package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/achievers-lc/learning-center/internal/models"
)

func TestExportAttendanceRegister(t *testing.T) {
	f := newRegisterFixture(t)
	_, err := f.scan(f.barcode.BarcodeData)
	require.NoError(t, err)

	buf, filename, err := f.exports.ExportAttendanceRegister(f.ctx, f.liveClass.ID)
	require.NoError(t, err)
	assert.Equal(t, "attendance_week-1_20260314.xlsx", filename)

	book, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer book.Close()

	assert.Equal(t, []string{"Attendance"}, book.GetSheetList())
	rows, err := book.GetRows("Attendance")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Student ID", rows[1][0])
	assert.Equal(t, f.learner.StudentIDNumber, rows[2][0])
	assert.Equal(t, string(models.AttendancePresent), rows[2][2])
	assert.Equal(t, string(models.MethodBarcodeScan), rows[2][3])
	assert.Equal(t, "2026-03-14 09:30", rows[2][4])

	_, _, err = f.exports.ExportAttendanceRegister(f.ctx, 999)
	assert.ErrorIs(t, err, ErrLiveClassNotFound)
}

func TestExportCourseRoster(t *testing.T) {
	f := newFixture(t)
	owner, _ := f.teacher(t, "teacher@example.com")
	course := f.course(t, owner, "Thermodynamics")
	for _, email := range []string{"a@example.com", "b@example.com"} {
		student := f.student(t, email)
		_, err := f.enrollments.Enroll(f.ctx, &EnrollRequest{StudentID: student.ID, CourseID: course.ID})
		require.NoError(t, err)
	}

	buf, filename, err := f.exports.ExportCourseRoster(f.ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "roster_thermodynamics.xlsx", filename)

	book, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows("Roster")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Thermodynamics", rows[0][0])

	var emails []string
	for _, row := range rows[2:] {
		emails = append(emails, row[2])
		assert.True(t, strings.HasPrefix(row[0], "STU2026"))
		assert.Equal(t, string(models.EnrollmentPending), row[4])
	}
	assert.ElementsMatch(t, []string{"a@example.com", "b@example.com"}, emails)
}
