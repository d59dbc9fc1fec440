package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achievers-lc/learning-center/internal/events"
	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/repositories"
	"github.com/achievers-lc/learning-center/internal/repositories/memory"
)

func TestRegister(t *testing.T) {
	f := newFixture(t)

	account, err := f.users.Register(f.ctx, &RegisterRequest{
		Email:    "  Alice@Example.COM ",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", account.Email)
	assert.Equal(t, models.RoleStudent, account.Role)
	assert.Equal(t, models.AccountActive, account.Status)
	assert.NotEqual(t, "correct-horse-battery", account.PasswordHash)
	assert.Len(t, f.events.OfType(events.AccountCreated), 1)

	_, err = f.users.Register(f.ctx, &RegisterRequest{Email: "ALICE@example.com", Password: "another-password"})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "email", conflict.Field)
	assert.Equal(t, "uq_accounts_email", conflict.Constraint)

	_, err = f.users.Register(f.ctx, &RegisterRequest{Email: "not-an-email", Password: "correct-horse-battery"})
	assert.True(t, IsValidation(err))

	_, err = f.users.Register(f.ctx, &RegisterRequest{Email: "bob@example.com", Password: "short"})
	assert.True(t, IsValidation(err))
	assert.Len(t, f.events.OfType(events.AccountCreated), 1)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	account := f.account(t, "carol@example.com", models.RoleParent)

	got, err := f.users.Authenticate(f.ctx, "Carol@Example.com", "correct-horse-battery")
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)

	_, err = f.users.Authenticate(f.ctx, "carol@example.com", "wrong-password")
	assert.True(t, IsPermission(err))

	_, err = f.users.Authenticate(f.ctx, "nobody@example.com", "correct-horse-battery")
	assert.True(t, IsPermission(err))

	_, err = f.users.ChangeStatus(f.ctx, account.ID, models.AccountSuspended)
	require.NoError(t, err)
	_, err = f.users.Authenticate(f.ctx, "carol@example.com", "correct-horse-battery")
	assert.True(t, IsPermission(err))
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	account := f.account(t, "dan@example.com", models.RoleStudent)

	err := f.users.ChangePassword(f.ctx, account.ID, &ChangePasswordRequest{OldPassword: "nope", NewPassword: "a-new-password"})
	require.True(t, IsValidation(err))
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, []string{"old_password"}, verrs.Fields())

	require.NoError(t, f.users.ChangePassword(f.ctx, account.ID, &ChangePasswordRequest{
		OldPassword: "correct-horse-battery",
		NewPassword: "a-new-password",
	}))
	_, err = f.users.Authenticate(f.ctx, "dan@example.com", "a-new-password")
	assert.NoError(t, err)
}

func TestEnsureSuperAdmin(t *testing.T) {
	f := newFixture(t)
	req := &SuperAdminRequest{Email: "Root@Example.com", Password: "correct-horse-battery"}

	first, created, err := f.users.EnsureSuperAdmin(f.ctx, req)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.RoleSuperAdmin, first.Role)
	assert.True(t, first.IsStaff)
	assert.True(t, first.IsSuperuser)

	second, created, err := f.users.EnsureSuperAdmin(f.ctx, req)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	notStaff := false
	_, err = f.users.CreateSuperAdmin(f.ctx, &SuperAdminRequest{
		Email:    "other@example.com",
		Password: "correct-horse-battery",
		IsStaff:  &notStaff,
	})
	assert.True(t, IsValidation(err))
}

func TestAttachStudentProfile_IDNumbers(t *testing.T) {
	f := newFixture(t)

	first := f.student(t, "s1@example.com")
	second := f.student(t, "s2@example.com")
	assert.Equal(t, "STU2026001", first.StudentIDNumber)
	assert.Equal(t, "STU2026002", second.StudentIDNumber)
	assert.Equal(t, testNow.Year(), first.EnrollmentDate.Year())
}

func TestAttachStudentProfile_RetriesStaleSequence(t *testing.T) {
	f := newFixture(t)
	f.student(t, "s1@example.com")

	stale := &staleSequenceRepo{Repository: f.repo, staleReads: 1}
	f.deps.Repo = stale
	f.rebuild()

	second := f.student(t, "s2@example.com")
	assert.Equal(t, "STU2026002", second.StudentIDNumber)
	assert.Equal(t, 0, stale.staleReads)
}

func TestAttachStudentProfile_Rules(t *testing.T) {
	f := newFixture(t)

	teacherAccount := f.account(t, "t@example.com", models.RoleTeacher)
	_, err := f.users.AttachStudentProfile(f.ctx, teacherAccount.ID, &StudentProfileRequest{GradeLevel: models.Grade5})
	assert.True(t, IsIntegrity(err))

	student := f.student(t, "s@example.com")
	_, err = f.users.AttachStudentProfile(f.ctx, student.AccountID, &StudentProfileRequest{GradeLevel: models.Grade5})
	assert.True(t, IsConflict(err))

	other := f.account(t, "s2@example.com", models.RoleStudent)
	_, err = f.users.AttachStudentProfile(f.ctx, other.ID, &StudentProfileRequest{
		GradeLevel:      models.Grade5,
		ParentAccountID: &teacherAccount.ID,
	})
	assert.True(t, IsValidation(err))

	_, err = f.users.AttachStudentProfile(f.ctx, 9999, &StudentProfileRequest{GradeLevel: models.Grade5})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestDeleteParent_KeepsChildren(t *testing.T) {
	f := newFixture(t)

	parent := f.account(t, "parent@example.com", models.RoleParent)
	_, err := f.users.AttachParentProfile(f.ctx, parent.ID, &ParentProfileRequest{Occupation: "nurse"})
	require.NoError(t, err)

	childAccount := f.account(t, "child@example.com", models.RoleStudent)
	child, err := f.users.AttachStudentProfile(f.ctx, childAccount.ID, &StudentProfileRequest{
		GradeLevel:      models.Grade3,
		ParentAccountID: &parent.ID,
	})
	require.NoError(t, err)

	children, err := f.users.ListChildren(f.ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, children.ChildrenCount)

	require.NoError(t, f.users.DeleteAccount(f.ctx, parent.ID))

	reloaded, err := f.repo.Student().GetByID(f.ctx, child.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.ParentAccountID)

	_, err = f.users.GetAccount(f.ctx, parent.ID)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestGetProfile(t *testing.T) {
	f := newFixture(t)
	account, teacher := f.teacher(t, "teacher@example.com")

	profile, err := f.users.GetProfile(f.ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, profile.Role)
	require.NotNil(t, profile.Teacher)
	assert.Equal(t, teacher.ID, profile.Teacher.ID)
	assert.Nil(t, profile.Student)
}

// staleSequenceRepo makes the first LatestIDNumber reads return nothing,
// as if another writer inserted between read and write
type staleSequenceRepo struct {
	*memory.Repository
	staleReads int
}

func (r *staleSequenceRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.Repository.WithTransaction(ctx, func(tx repositories.Repository) error {
		return fn(&staleSequenceTx{Repository: tx, parent: r})
	})
}

type staleSequenceTx struct {
	repositories.Repository
	parent *staleSequenceRepo
}

func (tx *staleSequenceTx) Student() repositories.StudentRepository {
	return &staleStudents{StudentRepository: tx.Repository.Student(), parent: tx.parent}
}

type staleStudents struct {
	repositories.StudentRepository
	parent *staleSequenceRepo
}

func (s *staleStudents) LatestIDNumber(ctx context.Context, prefix string) (string, error) {
	if s.parent.staleReads > 0 {
		s.parent.staleReads--
		return "", nil
	}
	return s.StudentRepository.LatestIDNumber(ctx, prefix)
}
