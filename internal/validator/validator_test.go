package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achievers-lc/learning-center/internal/models"
)

func validationErrors(t *testing.T, err error) ValidationErrors {
	t.Helper()
	require.Error(t, err)
	ve, ok := err.(ValidationErrors)
	require.True(t, ok, "expected ValidationErrors, got %T", err)
	return ve
}

func TestValidate_FieldNamesFollowJSON(t *testing.T) {
	v := New()

	ve := validationErrors(t, v.Validate(&RegisterRequest{Password: "short"}))
	assert.Equal(t, []string{"email", "password"}, ve.Fields())
	assert.Equal(t, "required", ve[0].Rule)
	assert.Equal(t, "must be at least 8 characters", ve[1].Message)

	assert.NoError(t, v.Validate(&RegisterRequest{Email: "a@example.com", Password: "long-enough"}))
}

func TestValidate_CustomRules(t *testing.T) {
	v := New()

	grade := models.GradeLevel("grade_14")
	ve := validationErrors(t, v.Validate(&UpdateStudentProfileRequest{GradeLevel: &grade}))
	assert.Equal(t, "grade_level", ve[0].Rule)
	assert.Contains(t, ve[0].Message, "grade_1")

	blank := "   "
	slug := "Not A Slug"
	ve = validationErrors(t, v.Validate(&CourseUpdateRequest{Title: &blank, Slug: &slug}))
	assert.ElementsMatch(t, []string{"title", "slug"}, ve.Fields())

	for _, good := range []string{"intro-to-physics-2", "grade_10-maths"} {
		assert.NoError(t, v.Validate(&CourseUpdateRequest{Slug: &good}), good)
	}
	for _, bad := range []string{"grade--10", "-maths", "maths-"} {
		ve = validationErrors(t, v.Validate(&CourseUpdateRequest{Slug: &bad}))
		assert.Equal(t, []string{"slug"}, ve.Fields(), bad)
	}

	past := time.Now().Add(-time.Hour)
	ve = validationErrors(t, v.Validate(&IssueBarcodeRequest{ExpiresAt: &past}))
	assert.Equal(t, "future_date", ve[0].Rule)
	assert.NoError(t, v.Validate(&IssueBarcodeRequest{}))

	method := models.MethodManual
	ve = validationErrors(t, v.Validate(&ScanRequest{LiveClassID: 1, Payload: "x", Method: &method}))
	assert.Equal(t, []string{"method"}, ve.Fields())
}

func TestValidate_CheckOutNeedsStudentOrPayload(t *testing.T) {
	v := New()

	ve := validationErrors(t, v.Validate(&CheckOutRequest{LiveClassID: 1}))
	assert.Equal(t, []string{"student_id", "payload"}, ve.Fields())

	assert.NoError(t, v.Validate(&CheckOutRequest{LiveClassID: 1, Payload: "sealed"}))
	id := uint(4)
	assert.NoError(t, v.Validate(&CheckOutRequest{LiveClassID: 1, StudentID: &id}))
}

func TestBusinessRules(t *testing.T) {
	bv := New().GetBusinessValidator()

	assert.Empty(t, bv.ValidateLiveClassTransition(models.LiveClassScheduled, models.LiveClassOngoing))
	assert.Empty(t, bv.ValidateLiveClassTransition(models.LiveClassCompleted, models.LiveClassCompleted))
	ve := bv.ValidateLiveClassTransition(models.LiveClassCompleted, models.LiveClassOngoing)
	require.Len(t, ve, 1)
	assert.Equal(t, "status_transition", ve[0].Rule)

	in := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	out := in.Add(-time.Minute)
	assert.Equal(t, []string{"check_out_time"}, bv.ValidateCheckInWindow(&in, &out).Fields())
	later := in.Add(time.Hour)
	assert.Empty(t, bv.ValidateCheckInWindow(&in, &later))
	assert.Empty(t, bv.ValidateCheckInWindow(nil, &out))

	no := false
	assert.Equal(t, []string{"is_staff", "is_superuser"}, bv.ValidateSuperAdminFlags(&no, &no).Fields())
	assert.Empty(t, bv.ValidateSuperAdminFlags(nil, nil))
}
