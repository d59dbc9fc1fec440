package services

import (
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achievers-lc/learning-center/internal/cache"
	"github.com/achievers-lc/learning-center/internal/models"
)

func TestCreateCourse_Slugs(t *testing.T) {
	f := newFixture(t)
	owner, teacher := f.teacher(t, "teacher@example.com")

	first := f.course(t, owner, "Intro to Physics")
	second := f.course(t, owner, "Intro to Physics!")
	third := f.course(t, owner, "  intro TO physics ")

	assert.Equal(t, "intro-to-physics", first.Slug)
	assert.Equal(t, "intro-to-physics-1", second.Slug)
	assert.Equal(t, "intro-to-physics-2", third.Slug)

	assert.Equal(t, teacher.ID, first.TeacherID)
	assert.Equal(t, models.CourseDraft, first.Status)
	assert.Equal(t, models.CourseRecorded, first.CourseType)
	assert.Equal(t, models.LanguageEnglish, first.Language)
	assert.Equal(t, 12, first.DurationWeeks)

	bySlug, err := f.courses.GetBySlug(f.ctx, "intro-to-physics-1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, bySlug.ID)

	punctuated := f.course(t, owner, "Grade_10 Maths (A/L)")
	assert.Equal(t, "grade_10-maths-al", punctuated.Slug)

	untitled := f.course(t, owner, "!!!")
	assert.Equal(t, "course", untitled.Slug)
}

func TestCreateCourse_Ownership(t *testing.T) {
	f := newFixture(t)
	owner, _ := f.teacher(t, "owner@example.com")
	_, otherTeacher := f.teacher(t, "other@example.com")
	student := f.account(t, "student@example.com", models.RoleStudent)
	bare := f.account(t, "bare@example.com", models.RoleTeacher)
	admin := f.account(t, "admin@example.com", models.RoleAdmin)

	_, err := f.courses.Create(f.ctx, &CreateCourseRequest{Title: "Algebra"}, student)
	assert.True(t, IsPermission(err))

	_, err = f.courses.Create(f.ctx, &CreateCourseRequest{Title: "Algebra"}, bare)
	assert.True(t, IsIntegrity(err))

	_, err = f.courses.Create(f.ctx, &CreateCourseRequest{Title: "Algebra", TeacherID: &otherTeacher.ID}, owner)
	assert.True(t, IsPermission(err))

	_, err = f.courses.Create(f.ctx, &CreateCourseRequest{Title: "Algebra"}, admin)
	assert.True(t, IsValidation(err))

	missing := uint(999)
	_, err = f.courses.Create(f.ctx, &CreateCourseRequest{Title: "Algebra", TeacherID: &missing}, admin)
	assert.True(t, IsIntegrity(err))

	course, err := f.courses.Create(f.ctx, &CreateCourseRequest{Title: "Algebra", TeacherID: &otherTeacher.ID}, admin)
	require.NoError(t, err)
	assert.Equal(t, otherTeacher.ID, course.TeacherID)
}

func TestUpdateCourse_SlugRules(t *testing.T) {
	f := newFixture(t)
	owner, _ := f.teacher(t, "teacher@example.com")
	course := f.course(t, owner, "Intro to Physics")

	title := "Advanced Chemistry"
	updated, err := f.courses.Update(f.ctx, course.ID, &UpdateCourseRequest{Title: &title}, owner)
	require.NoError(t, err)
	assert.Equal(t, "Advanced Chemistry", updated.Title)
	assert.Equal(t, "intro-to-physics", updated.Slug)

	empty := ""
	updated, err = f.courses.Update(f.ctx, course.ID, &UpdateCourseRequest{Slug: &empty}, owner)
	require.NoError(t, err)
	assert.Equal(t, "advanced-chemistry", updated.Slug)

	_, err = f.courses.GetBySlug(f.ctx, "intro-to-physics")
	assert.ErrorIs(t, err, ErrCourseNotFound)

	other := f.course(t, owner, "Biology")
	taken := "advanced-chemistry"
	_, err = f.courses.Update(f.ctx, other.ID, &UpdateCourseRequest{Slug: &taken}, owner)
	assert.True(t, IsConflict(err))

	bad := "Not A Slug"
	_, err = f.courses.Update(f.ctx, other.ID, &UpdateCourseRequest{Slug: &bad}, owner)
	assert.True(t, IsValidation(err))
}

func TestCourse_WritePermissions(t *testing.T) {
	f := newFixture(t)
	owner, _ := f.teacher(t, "owner@example.com")
	intruder, _ := f.teacher(t, "intruder@example.com")
	admin := f.account(t, "admin@example.com", models.RoleAdmin)
	course := f.course(t, owner, "Geometry")

	_, err := f.courses.Publish(f.ctx, course.ID, intruder)
	assert.True(t, IsPermission(err))

	_, err = f.courses.AddModule(f.ctx, course.ID, &ModuleRequest{Title: "Angles"}, intruder)
	assert.True(t, IsPermission(err))

	published, err := f.courses.Publish(f.ctx, course.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, models.CoursePublished, published.Status)

	archived, err := f.courses.Archive(f.ctx, course.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, models.CourseArchived, archived.Status)

	require.NoError(t, f.courses.Delete(f.ctx, course.ID, admin))
	_, err = f.courses.GetByID(f.ctx, course.ID)
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestCourse_OutlineAndCapacity(t *testing.T) {
	f := newFixture(t)
	owner, _ := f.teacher(t, "teacher@example.com")

	limit := 2
	course, err := f.courses.Create(f.ctx, &CreateCourseRequest{Title: "Mechanics", EnrollmentLimit: &limit}, owner)
	require.NoError(t, err)

	second, err := f.courses.AddModule(f.ctx, course.ID, &ModuleRequest{Title: "Dynamics", OrderIndex: 2}, owner)
	require.NoError(t, err)
	first, err := f.courses.AddModule(f.ctx, course.ID, &ModuleRequest{Title: "Kinematics", OrderIndex: 1}, owner)
	require.NoError(t, err)
	_, err = f.courses.AddLesson(f.ctx, first.ID, &LessonRequest{Title: "Velocity"}, owner)
	require.NoError(t, err)
	_, err = f.courses.AddLesson(f.ctx, second.ID, &LessonRequest{Title: "Forces"}, owner)
	require.NoError(t, err)

	outline, err := f.courses.Outline(f.ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, outline.Modules, 2)
	assert.Equal(t, "Kinematics", outline.Modules[0].Title)
	require.Len(t, outline.Modules[0].Lessons, 1)
	assert.Equal(t, "Velocity", outline.Modules[0].Lessons[0].Title)

	capacity, err := f.courses.Capacity(f.ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), capacity.EnrollmentCount)
	assert.False(t, capacity.IsFull)

	for _, email := range []string{"a@example.com", "b@example.com"} {
		student := f.student(t, email)
		enrollment, err := f.enrollments.Enroll(f.ctx, &EnrollRequest{StudentID: student.ID, CourseID: course.ID})
		require.NoError(t, err)

		capacity, err = f.courses.Capacity(f.ctx, course.ID)
		require.NoError(t, err)
		before := capacity.EnrollmentCount

		_, err = f.enrollments.UpdateStatus(f.ctx, enrollment.ID, models.EnrollmentActive)
		require.NoError(t, err)

		capacity, err = f.courses.Capacity(f.ctx, course.ID)
		require.NoError(t, err)
		assert.Equal(t, before+1, capacity.EnrollmentCount)
	}
	assert.True(t, capacity.IsFull)
}

func TestCourseCache_TeacherWrites(t *testing.T) {
	f := newFixture(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	f.deps.Cache = cache.NewCacheManager(client)
	f.rebuild()

	owner, _ := f.teacher(t, "teacher@example.com")
	course := f.course(t, owner, "Optics")
	idKey := fmt.Sprintf("course:id:%d", course.ID)

	warm := func() {
		t.Helper()
		_, err := f.courses.GetByID(f.ctx, course.ID)
		require.NoError(t, err)
		_, err = f.courses.GetBySlug(f.ctx, "optics")
		require.NoError(t, err)
		require.True(t, mr.Exists(idKey))
		require.True(t, mr.Exists("course:slug:optics"))
	}

	warm()
	name := "Renamed"
	_, err := f.users.UpdateAccount(f.ctx, owner.ID, &UpdateAccountRequest{FirstName: &name})
	require.NoError(t, err)
	assert.False(t, mr.Exists(idKey))
	assert.False(t, mr.Exists("course:slug:optics"))

	warm()
	bio := "Optics since 2009"
	_, err = f.users.UpdateTeacherProfile(f.ctx, owner.ID, &UpdateTeacherProfileRequest{Bio: &bio})
	require.NoError(t, err)
	assert.False(t, mr.Exists(idKey))

	warm()
	require.NoError(t, f.users.DeleteAccount(f.ctx, owner.ID))
	_, err = f.courses.GetByID(f.ctx, course.ID)
	assert.ErrorIs(t, err, ErrCourseNotFound)
	_, err = f.courses.GetBySlug(f.ctx, "optics")
	assert.ErrorIs(t, err, ErrCourseNotFound)
}
