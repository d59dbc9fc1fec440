package repositories

import (
	"context"

	"github.com/achievers-lc/learning-center/internal/models"
)

// AccountRepository persists base identity records
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id uint) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	List(ctx context.Context, filters AccountFilters) ([]*models.Account, int64, error)
	Update(ctx context.Context, account *models.Account) error
	UpdateStatus(ctx context.Context, id uint, status models.AccountStatus) error
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
	Delete(ctx context.Context, id uint) error

	// Validation and checks
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id uint) (*models.Student, error)
	GetByAccountID(ctx context.Context, accountID uint) (*models.Student, error)
	Update(ctx context.Context, student *models.Student) error

	// LatestIDNumber returns the numerically highest student id number that starts with
	// prefix, or "" when there is none.
	LatestIDNumber(ctx context.Context, prefix string) (string, error)

	// Reverse relation of Student.ParentAccountID
	ListByParent(ctx context.Context, parentAccountID uint) ([]*models.Student, error)
}

type TeacherRepository interface {
	Create(ctx context.Context, teacher *models.Teacher) error
	GetByID(ctx context.Context, id uint) (*models.Teacher, error)
	GetByAccountID(ctx context.Context, accountID uint) (*models.Teacher, error)
	Update(ctx context.Context, teacher *models.Teacher) error
}

type ParentRepository interface {
	Create(ctx context.Context, parent *models.Parent) error
	GetByAccountID(ctx context.Context, accountID uint) (*models.Parent, error)
	Update(ctx context.Context, parent *models.Parent) error
}
