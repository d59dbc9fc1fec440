package postgres

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/achievers-lc/learning-center/internal/cache"
	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/repositories"
)

type AccountPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewAccountPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.AccountRepository {
	return &AccountPostgreSQL{db: db, cacheManager: cacheManager}
}

func (a *AccountPostgreSQL) Create(ctx context.Context, account *models.Account) error {
	return wrap("create account", a.db.WithContext(ctx).Create(account).Error)
}

func (a *AccountPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	if err := a.db.WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, wrap("get account", err)
	}
	return &account, nil
}

// GetByEmail matches case-insensitively; emails are stored lowercased
func (a *AccountPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := a.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&account).Error
	if err != nil {
		return nil, wrap("get account by email", err)
	}
	return &account, nil
}

func (a *AccountPostgreSQL) List(ctx context.Context, filters repositories.AccountFilters) ([]*models.Account, int64, error) {
	query := a.db.WithContext(ctx).Model(&models.Account{})

	if filters.Role != nil {
		query = query.Where("role = ?", *filters.Role)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Query != "" {
		pattern := likePattern(filters.Query)
		query = query.Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrap("count accounts", err)
	}

	var accounts []*models.Account
	query = applyPaginationAndSort(query, "accounts", "created_at", "desc", filters.Limit, filters.Offset)
	if err := query.Find(&accounts).Error; err != nil {
		return nil, 0, wrap("list accounts", err)
	}
	return accounts, total, nil
}

func (a *AccountPostgreSQL) Update(ctx context.Context, account *models.Account) error {
	err := a.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", account.ID).Updates(map[string]interface{}{
		"first_name":    account.FirstName,
		"last_name":     account.LastName,
		"phone":         account.Phone,
		"date_of_birth": account.DateOfBirth,
		"address":       account.Address,
		"profile_image": account.ProfileImage,
		"is_staff":      account.IsStaff,
		"updated_at":    gorm.Expr("NOW()"),
	}).Error
	if err != nil {
		return wrap("update account", err)
	}
	cache.InvalidateAccountCache(ctx, a.cacheManager, account.Email)
	return nil
}

func (a *AccountPostgreSQL) UpdateStatus(ctx context.Context, id uint, status models.AccountStatus) error {
	return a.updateColumn(ctx, id, "status", status)
}

func (a *AccountPostgreSQL) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	return a.updateColumn(ctx, id, "password_hash", passwordHash)
}

func (a *AccountPostgreSQL) updateColumn(ctx context.Context, id uint, column string, value interface{}) error {
	var account models.Account
	if err := a.db.WithContext(ctx).Select("id, email").First(&account, id).Error; err != nil {
		return wrap("get account", err)
	}

	err := a.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Updates(map[string]interface{}{
		column:       value,
		"updated_at": gorm.Expr("NOW()"),
	}).Error
	if err != nil {
		return wrap("update account "+column, err)
	}
	cache.InvalidateAccountCache(ctx, a.cacheManager, account.Email)
	return nil
}

// Delete removes the account. Profiles cascade; students pointing at it as parent are detached.
func (a *AccountPostgreSQL) Delete(ctx context.Context, id uint) error {
	var account models.Account
	if err := a.db.WithContext(ctx).Select("id, email").First(&account, id).Error; err != nil {
		return wrap("get account before delete", err)
	}
	if err := a.db.WithContext(ctx).Delete(&models.Account{}, id).Error; err != nil {
		return wrap("delete account", err)
	}
	cache.InvalidateAccountCache(ctx, a.cacheManager, account.Email)
	return nil
}

func (a *AccountPostgreSQL) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := a.db.WithContext(ctx).Model(&models.Account{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error
	if err != nil {
		return false, wrap("check email", err)
	}
	return count > 0, nil
}

// ===== STUDENT =====

type StudentPostgreSQL struct {
	db *gorm.DB
}

func NewStudentPostgreSQL(db *gorm.DB) repositories.StudentRepository {
	return &StudentPostgreSQL{db: db}
}

func (s *StudentPostgreSQL) Create(ctx context.Context, student *models.Student) error {
	return wrap("create student", s.db.WithContext(ctx).Omit("Account", "Parent").Create(student).Error)
}

func (s *StudentPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Student, error) {
	var student models.Student
	if err := s.db.WithContext(ctx).Preload("Account").First(&student, id).Error; err != nil {
		return nil, wrap("get student", err)
	}
	return &student, nil
}

func (s *StudentPostgreSQL) GetByAccountID(ctx context.Context, accountID uint) (*models.Student, error) {
	var student models.Student
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountID).First(&student).Error; err != nil {
		return nil, wrap("get student by account", err)
	}
	return &student, nil
}

func (s *StudentPostgreSQL) Update(ctx context.Context, student *models.Student) error {
	err := s.db.WithContext(ctx).Model(&models.Student{}).Where("id = ?", student.ID).Updates(map[string]interface{}{
		"grade_level":       student.GradeLevel,
		"parent_account_id": student.ParentAccountID,
		"enrollment_date":   student.EnrollmentDate,
	}).Error
	return wrap("update student", err)
}

// LatestIDNumber orders by length first so that a four digit sequence sorts after a three digit one
func (s *StudentPostgreSQL) LatestIDNumber(ctx context.Context, prefix string) (string, error) {
	var numbers []string
	err := s.db.WithContext(ctx).Model(&models.Student{}).
		Where("student_id_number LIKE ?", prefix+"%").
		Order("LENGTH(student_id_number) DESC, student_id_number DESC").
		Limit(1).
		Pluck("student_id_number", &numbers).Error
	if err != nil {
		return "", wrap("find latest student id", err)
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

func (s *StudentPostgreSQL) ListByParent(ctx context.Context, parentAccountID uint) ([]*models.Student, error) {
	var students []*models.Student
	err := s.db.WithContext(ctx).
		Preload("Account").
		Where("parent_account_id = ?", parentAccountID).
		Order("id ASC").
		Find(&students).Error
	if err != nil {
		return nil, wrap("list children", err)
	}
	return students, nil
}

// ===== TEACHER =====

type TeacherPostgreSQL struct {
	db *gorm.DB
}

func NewTeacherPostgreSQL(db *gorm.DB) repositories.TeacherRepository {
	return &TeacherPostgreSQL{db: db}
}

func (t *TeacherPostgreSQL) Create(ctx context.Context, teacher *models.Teacher) error {
	return wrap("create teacher", t.db.WithContext(ctx).Omit("Account").Create(teacher).Error)
}

func (t *TeacherPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Teacher, error) {
	var teacher models.Teacher
	if err := t.db.WithContext(ctx).Preload("Account").First(&teacher, id).Error; err != nil {
		return nil, wrap("get teacher", err)
	}
	return &teacher, nil
}

func (t *TeacherPostgreSQL) GetByAccountID(ctx context.Context, accountID uint) (*models.Teacher, error) {
	var teacher models.Teacher
	if err := t.db.WithContext(ctx).Where("account_id = ?", accountID).First(&teacher).Error; err != nil {
		return nil, wrap("get teacher by account", err)
	}
	return &teacher, nil
}

func (t *TeacherPostgreSQL) Update(ctx context.Context, teacher *models.Teacher) error {
	err := t.db.WithContext(ctx).Model(&models.Teacher{}).Where("id = ?", teacher.ID).Updates(map[string]interface{}{
		"qualifications":   teacher.Qualifications,
		"subjects":         teacher.Subjects,
		"bio":              teacher.Bio,
		"experience_years": teacher.ExperienceYears,
		"rating":           teacher.Rating,
		"hourly_rate":      teacher.HourlyRate,
		"is_verified":      teacher.IsVerified,
	}).Error
	return wrap("update teacher", err)
}

// ===== PARENT =====

type ParentPostgreSQL struct {
	db *gorm.DB
}

func NewParentPostgreSQL(db *gorm.DB) repositories.ParentRepository {
	return &ParentPostgreSQL{db: db}
}

func (p *ParentPostgreSQL) Create(ctx context.Context, parent *models.Parent) error {
	return wrap("create parent", p.db.WithContext(ctx).Omit("Account").Create(parent).Error)
}

func (p *ParentPostgreSQL) GetByAccountID(ctx context.Context, accountID uint) (*models.Parent, error) {
	var parent models.Parent
	if err := p.db.WithContext(ctx).Where("account_id = ?", accountID).First(&parent).Error; err != nil {
		return nil, wrap("get parent by account", err)
	}
	return &parent, nil
}

func (p *ParentPostgreSQL) Update(ctx context.Context, parent *models.Parent) error {
	err := p.db.WithContext(ctx).Model(&models.Parent{}).Where("id = ?", parent.ID).Updates(map[string]interface{}{
		"occupation":        parent.Occupation,
		"emergency_contact": parent.EmergencyContact,
	}).Error
	return wrap("update parent", err)
}

