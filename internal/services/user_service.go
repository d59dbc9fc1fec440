package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"

	"github.com/achievers-lc/learning-center/internal/cache"
	"github.com/achievers-lc/learning-center/internal/events"
	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/repositories"
	"github.com/achievers-lc/learning-center/internal/validator"
)

const (
	studentIDPrefix   = "STU"
	studentIDAttempts = 3
)

type userService struct {
	repo         repositories.Repository
	cache        *cache.CacheManager
	logger       *slog.Logger
	validator    *validator.Validator
	events       events.Publisher
	passwordCost int
	now          func() time.Time
}

func NewUserService(deps Dependencies) UserService {
	deps = deps.withDefaults()
	return &userService{
		repo:         deps.Repo,
		cache:        deps.Cache,
		logger:       deps.Logger,
		validator:    deps.Validator,
		events:       deps.Events,
		passwordCost: deps.PasswordCost,
		now:          deps.Now,
	}
}

// NormalizeEmail trims and lowercases an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ===== ACCOUNTS =====

func (s *userService) Register(ctx context.Context, req *RegisterRequest) (*models.Account, error) {
	r := *req
	r.Email = NormalizeEmail(r.Email)
	if err := s.validator.Validate(&r); err != nil {
		return nil, err
	}

	role := models.RoleStudent
	if r.Role != nil {
		role = *r.Role
	}

	account := &models.Account{
		Email:        r.Email,
		FirstName:    strings.TrimSpace(r.FirstName),
		LastName:     strings.TrimSpace(r.LastName),
		Role:         role,
		Status:       models.AccountActive,
		Phone:        r.Phone,
		DateOfBirth:  r.DateOfBirth,
		Address:      r.Address,
		ProfileImage: r.ProfileImage,
	}
	if err := s.createAccount(ctx, account, r.Password); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *userService) CreateSuperAdmin(ctx context.Context, req *SuperAdminRequest) (*models.Account, error) {
	r := *req
	r.Email = NormalizeEmail(r.Email)
	if err := s.validator.Validate(&r); err != nil {
		return nil, err
	}
	if errs := s.validator.GetBusinessValidator().ValidateSuperAdminFlags(r.IsStaff, r.IsSuperuser); len(errs) > 0 {
		return nil, errs
	}

	account := &models.Account{
		Email:       r.Email,
		FirstName:   strings.TrimSpace(r.FirstName),
		LastName:    strings.TrimSpace(r.LastName),
		Role:        models.RoleSuperAdmin,
		Status:      models.AccountActive,
		IsStaff:     true,
		IsSuperuser: true,
	}
	if err := s.createAccount(ctx, account, r.Password); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *userService) EnsureSuperAdmin(ctx context.Context, req *SuperAdminRequest) (*models.Account, bool, error) {
	existing, err := s.repo.Account().GetByEmail(ctx, NormalizeEmail(req.Email))
	if err == nil {
		s.logger.Info("Super admin already present", "account_id", existing.ID)
		return existing, false, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, false, fmt.Errorf("failed to look up account: %w", err)
	}

	account, err := s.CreateSuperAdmin(ctx, req)
	if IsConflict(err) {
		// created concurrently by another bootstrap run
		existing, getErr := s.repo.Account().GetByEmail(ctx, NormalizeEmail(req.Email))
		if getErr != nil {
			return nil, false, fmt.Errorf("failed to look up account: %w", getErr)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return account, true, nil
}

func (s *userService) createAccount(ctx context.Context, account *models.Account, password string) error {
	s.logger.Info("Creating account", "email", account.Email, "role", account.Role)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.passwordCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	account.PasswordHash = string(hash)

	if err := s.repo.Account().Create(ctx, account); err != nil {
		if repositories.IsDuplicateError(err) {
			return conflictFromDuplicate(err, "email")
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Info("Account created successfully", "account_id", account.ID)
	s.events.Publish(ctx, events.New(events.AccountCreated, events.AccountCreatedPayload{
		AccountID: account.ID,
		Email:     account.Email,
		Role:      string(account.Role),
	}))
	return nil
}

func (s *userService) GetAccount(ctx context.Context, id uint) (*models.Account, error) {
	account, err := s.repo.Account().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrAccountNotFound)
	}
	return account, nil
}

func (s *userService) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	account, err := s.repo.Account().GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, notFoundOr(err, ErrAccountNotFound)
	}
	return account, nil
}

func (s *userService) ListAccounts(ctx context.Context, filters repositories.AccountFilters, page models.PageParams) (*models.ListResponse[*models.Account], error) {
	page = page.Normalize()
	filters.Limit = page.Size
	filters.Offset = page.Offset()

	accounts, total, err := s.repo.Account().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return &models.ListResponse[*models.Account]{Items: accounts, Total: total, Page: page.Page, Size: page.Size}, nil
}

func (s *userService) UpdateAccount(ctx context.Context, id uint, req *UpdateAccountRequest) (*models.Account, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		account.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		account.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		account.Phone = *req.Phone
	}
	if req.DateOfBirth != nil {
		account.DateOfBirth = req.DateOfBirth
	}
	if req.Address != nil {
		account.Address = *req.Address
	}
	if req.ProfileImage != nil {
		account.ProfileImage = req.ProfileImage
	}

	if err := s.repo.Account().Update(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", notFoundOr(err, ErrAccountNotFound))
	}
	s.invalidateAccount(ctx, account)
	return s.GetAccount(ctx, id)
}

func (s *userService) ChangeStatus(ctx context.Context, id uint, status models.AccountStatus) (*models.Account, error) {
	if err := s.validator.Validate(&validator.ChangeStatusRequest{Status: status}); err != nil {
		return nil, err
	}

	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Account().UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("failed to change account status: %w", notFoundOr(err, ErrAccountNotFound))
	}

	s.logger.Info("Account status changed", "account_id", id, "from", account.Status, "to", status)
	s.invalidateAccount(ctx, account)
	account.Status = status
	return account, nil
}

func (s *userService) ChangePassword(ctx context.Context, id uint, req *ChangePasswordRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.OldPassword)) != nil {
		return NewValidationError("old_password", "does not match the current password", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.passwordCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.Account().UpdatePassword(ctx, id, string(hash)); err != nil {
		return fmt.Errorf("failed to change password: %w", notFoundOr(err, ErrAccountNotFound))
	}
	return nil
}

// Authenticate checks a password login. Unknown email and wrong password look the same to the caller.
func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	account, err := s.repo.Account().GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewPermissionError(0, 0, "account", "authenticate", "invalid credentials")
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, NewPermissionError(account.ID, account.ID, "account", "authenticate", "invalid credentials")
	}
	if !account.IsActive() {
		return nil, NewPermissionError(account.ID, account.ID, "account", "authenticate", fmt.Sprintf("account is %s", account.Status))
	}
	return account, nil
}

func (s *userService) DeleteAccount(ctx context.Context, id uint) error {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Account().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete account: %w", notFoundOr(err, ErrAccountNotFound))
	}
	s.logger.Info("Account deleted", "account_id", id, "role", account.Role)
	s.invalidateAccount(ctx, account)
	return nil
}

// invalidateAccount drops the cached account and, for teachers, every cached course
// since those embed the teacher's account
func (s *userService) invalidateAccount(ctx context.Context, account *models.Account) {
	cache.InvalidateAccountCache(ctx, s.cache, account.Email)
	if account.Role == models.RoleTeacher {
		cache.InvalidateAllCourses(ctx, s.cache)
	}
}

// ===== PROFILES =====

// profileTarget loads the account a profile is about to be attached to and enforces
// that the role matches and no profile exists yet
func (s *userService) profileTarget(ctx context.Context, repo repositories.Repository, accountID uint, role models.UserRole) (*models.Account, error) {
	account, err := repo.Account().GetByID(ctx, accountID)
	if err != nil {
		return nil, notFoundOr(err, ErrAccountNotFound)
	}
	if account.Role != role {
		return nil, NewIntegrityError("role", fmt.Sprintf("account role is %s, a %s profile needs role %s", account.Role, role, role))
	}

	existing, err := s.existingProfile(ctx, repo, accountID)
	if err != nil {
		return nil, err
	}
	switch {
	case existing == role:
		return nil, &ConflictError{Field: "account_id", Message: fmt.Sprintf("account already has a %s profile", role)}
	case existing != "":
		return nil, NewIntegrityError("account_id", fmt.Sprintf("account already carries a %s profile", existing))
	}
	return account, nil
}

// existingProfile reports which profile kind hangs off the account, or "" for none
func (s *userService) existingProfile(ctx context.Context, repo repositories.Repository, accountID uint) (models.UserRole, error) {
	checks := []struct {
		role models.UserRole
		get  func() error
	}{
		{models.RoleStudent, func() error { _, err := repo.Student().GetByAccountID(ctx, accountID); return err }},
		{models.RoleTeacher, func() error { _, err := repo.Teacher().GetByAccountID(ctx, accountID); return err }},
		{models.RoleParent, func() error { _, err := repo.Parent().GetByAccountID(ctx, accountID); return err }},
	}
	for _, c := range checks {
		err := c.get()
		if err == nil {
			return c.role, nil
		}
		if !repositories.IsNotFoundError(err) {
			return "", fmt.Errorf("failed to check %s profile: %w", c.role, err)
		}
	}
	return "", nil
}

func (s *userService) checkParent(ctx context.Context, repo repositories.Repository, parentAccountID uint) error {
	parent, err := repo.Account().GetByID(ctx, parentAccountID)
	if repositories.IsNotFoundError(err) {
		return NewValidationError("parent_account_id", "parent account does not exist", parentAccountID)
	}
	if err != nil {
		return fmt.Errorf("failed to get parent account: %w", err)
	}
	if parent.Role != models.RoleParent {
		return NewValidationError("parent_account_id", "account is not a parent", parentAccountID)
	}
	return nil
}

// nextStudentIDNumber increments the numeric suffix of latest, or starts at 001
func nextStudentIDNumber(prefix, latest string) (string, error) {
	seq := 0
	if latest != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(latest, prefix))
		if err != nil {
			return "", fmt.Errorf("malformed student id number %q: %w", latest, err)
		}
		seq = n
	}
	return fmt.Sprintf("%s%03d", prefix, seq+1), nil
}

func (s *userService) AttachStudentProfile(ctx context.Context, accountID uint, req *StudentProfileRequest) (*models.Student, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	today := s.today()
	prefix := fmt.Sprintf("%s%d", studentIDPrefix, today.Year())

	var student *models.Student
	var number string
	var err error
	for attempt := 1; attempt <= studentIDAttempts; attempt++ {
		err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
			if _, err := s.profileTarget(ctx, tx, accountID, models.RoleStudent); err != nil {
				return err
			}
			if req.ParentAccountID != nil {
				if err := s.checkParent(ctx, tx, *req.ParentAccountID); err != nil {
					return err
				}
			}

			latest, err := tx.Student().LatestIDNumber(ctx, prefix)
			if err != nil {
				return fmt.Errorf("failed to read student id sequence: %w", err)
			}
			number, err = nextStudentIDNumber(prefix, latest)
			if err != nil {
				return err
			}

			student = &models.Student{
				AccountID:       accountID,
				GradeLevel:      req.GradeLevel,
				ParentAccountID: req.ParentAccountID,
				EnrollmentDate:  today,
				StudentIDNumber: number,
			}
			return tx.Student().Create(ctx, student)
		})
		if err == nil || !repositories.IsDuplicateError(err) ||
			repositories.DuplicateConstraint(err) == "uq_students_account" {
			break
		}
		s.logger.Warn("Student id number collided, retrying",
			"account_id", accountID,
			"student_id_number", number,
			"attempt", attempt)
	}
	if err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, conflictFromDuplicate(err, "student_id_number")
		}
		return nil, err
	}

	s.logger.Info("Student profile attached", "account_id", accountID, "student_id_number", student.StudentIDNumber)
	return s.repo.Student().GetByID(ctx, student.ID)
}

func (s *userService) AttachTeacherProfile(ctx context.Context, accountID uint, req *TeacherProfileRequest) (*models.Teacher, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	subjects, err := subjectsJSON(req.Subjects)
	if err != nil {
		return nil, err
	}

	var teacher *models.Teacher
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if _, err := s.profileTarget(ctx, tx, accountID, models.RoleTeacher); err != nil {
			return err
		}
		teacher = &models.Teacher{
			AccountID:       accountID,
			Qualifications:  req.Qualifications,
			Subjects:        subjects,
			Bio:             req.Bio,
			ExperienceYears: req.ExperienceYears,
			HourlyRate:      req.HourlyRate,
			JoinedDate:      s.today(),
		}
		return tx.Teacher().Create(ctx, teacher)
	})
	if err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, conflictFromDuplicate(err, "account_id")
		}
		return nil, err
	}

	s.logger.Info("Teacher profile attached", "account_id", accountID, "teacher_id", teacher.ID)
	return s.repo.Teacher().GetByID(ctx, teacher.ID)
}

func (s *userService) AttachParentProfile(ctx context.Context, accountID uint, req *ParentProfileRequest) (*models.Parent, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var parent *models.Parent
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if _, err := s.profileTarget(ctx, tx, accountID, models.RoleParent); err != nil {
			return err
		}
		parent = &models.Parent{
			AccountID:        accountID,
			Occupation:       req.Occupation,
			EmergencyContact: req.EmergencyContact,
		}
		return tx.Parent().Create(ctx, parent)
	})
	if err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, conflictFromDuplicate(err, "account_id")
		}
		return nil, err
	}

	s.logger.Info("Parent profile attached", "account_id", accountID, "parent_id", parent.ID)
	return parent, nil
}

func (s *userService) UpdateStudentProfile(ctx context.Context, accountID uint, req *UpdateStudentProfileRequest) (*models.Student, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	student, err := s.repo.Student().GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, notFoundOr(err, ErrStudentNotFound)
	}

	if req.GradeLevel != nil {
		student.GradeLevel = *req.GradeLevel
	}
	switch {
	case req.ClearParent:
		student.ParentAccountID = nil
	case req.ParentAccountID != nil:
		if err := s.checkParent(ctx, s.repo, *req.ParentAccountID); err != nil {
			return nil, err
		}
		student.ParentAccountID = req.ParentAccountID
	}

	if err := s.repo.Student().Update(ctx, student); err != nil {
		return nil, fmt.Errorf("failed to update student profile: %w", notFoundOr(err, ErrStudentNotFound))
	}
	return s.repo.Student().GetByID(ctx, student.ID)
}

func (s *userService) UpdateTeacherProfile(ctx context.Context, accountID uint, req *UpdateTeacherProfileRequest) (*models.Teacher, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	teacher, err := s.repo.Teacher().GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, notFoundOr(err, ErrTeacherNotFound)
	}

	if req.Qualifications != nil {
		teacher.Qualifications = *req.Qualifications
	}
	if req.Subjects != nil {
		subjects, err := subjectsJSON(req.Subjects)
		if err != nil {
			return nil, err
		}
		teacher.Subjects = subjects
	}
	if req.Bio != nil {
		teacher.Bio = *req.Bio
	}
	if req.ExperienceYears != nil {
		teacher.ExperienceYears = *req.ExperienceYears
	}
	if req.HourlyRate != nil {
		teacher.HourlyRate = *req.HourlyRate
	}
	if req.Rating != nil {
		teacher.Rating = *req.Rating
	}
	if req.IsVerified != nil {
		teacher.IsVerified = *req.IsVerified
	}

	if err := s.repo.Teacher().Update(ctx, teacher); err != nil {
		return nil, fmt.Errorf("failed to update teacher profile: %w", notFoundOr(err, ErrTeacherNotFound))
	}
	cache.InvalidateAllCourses(ctx, s.cache)
	return s.repo.Teacher().GetByID(ctx, teacher.ID)
}

func (s *userService) UpdateParentProfile(ctx context.Context, accountID uint, req *UpdateParentProfileRequest) (*models.Parent, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	parent, err := s.repo.Parent().GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, notFoundOr(err, ErrParentNotFound)
	}
	if req.Occupation != nil {
		parent.Occupation = *req.Occupation
	}
	if req.EmergencyContact != nil {
		parent.EmergencyContact = *req.EmergencyContact
	}

	if err := s.repo.Parent().Update(ctx, parent); err != nil {
		return nil, fmt.Errorf("failed to update parent profile: %w", notFoundOr(err, ErrParentNotFound))
	}
	return parent, nil
}

// GetProfile returns the account with whichever profile its role carries.
// Roles without a profile, and profiles not attached yet, leave every pointer nil.
func (s *userService) GetProfile(ctx context.Context, accountID uint) (*models.Profile, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{Account: account, Role: account.Role}
	switch account.Role {
	case models.RoleStudent:
		profile.Student, err = s.repo.Student().GetByAccountID(ctx, accountID)
	case models.RoleTeacher:
		profile.Teacher, err = s.repo.Teacher().GetByAccountID(ctx, accountID)
	case models.RoleParent:
		profile.Parent, err = s.repo.Parent().GetByAccountID(ctx, accountID)
	}
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (s *userService) ListChildren(ctx context.Context, parentAccountID uint) (*ChildrenResponse, error) {
	if _, err := s.GetAccount(ctx, parentAccountID); err != nil {
		return nil, err
	}
	children, err := s.repo.Student().ListByParent(ctx, parentAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	if children == nil {
		children = []*models.Student{}
	}
	return &ChildrenResponse{
		ParentAccountID: parentAccountID,
		Children:        children,
		ChildrenCount:   len(children),
	}, nil
}

// ===== HELPERS =====

func (s *userService) today() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func subjectsJSON(subjects []string) (datatypes.JSON, error) {
	if subjects == nil {
		subjects = []string{}
	}
	raw, err := json.Marshal(subjects)
	if err != nil {
		return nil, fmt.Errorf("failed to encode subjects: %w", err)
	}
	return datatypes.JSON(raw), nil
}
