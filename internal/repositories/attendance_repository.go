package repositories

import (
	"context"

	"github.com/achievers-lc/learning-center/internal/models"
)

type BarcodeRepository interface {
	Create(ctx context.Context, barcode *models.StudentBarcode) error
	GetByStudentID(ctx context.Context, studentID uint) (*models.StudentBarcode, error)
	GetByData(ctx context.Context, data string) (*models.StudentBarcode, error)
	Update(ctx context.Context, barcode *models.StudentBarcode) error
}

type LiveClassRepository interface {
	Create(ctx context.Context, liveClass *models.LiveClass) error
	GetByID(ctx context.Context, id uint) (*models.LiveClass, error)
	List(ctx context.Context, filters LiveClassFilters) ([]*models.LiveClass, int64, error)
	Update(ctx context.Context, liveClass *models.LiveClass) error
}

type AttendanceRepository interface {
	// GetForUpdate loads the (live class, student) row and locks it for the current transaction.
	GetForUpdate(ctx context.Context, liveClassID, studentID uint) (*models.Attendance, error)
	GetByClassAndStudent(ctx context.Context, liveClassID, studentID uint) (*models.Attendance, error)

	// CreateIfAbsent inserts the row unless the (live class, student) pair already exists.
	// created is false when another writer got there first.
	CreateIfAbsent(ctx context.Context, attendance *models.Attendance) (created bool, err error)
	Update(ctx context.Context, attendance *models.Attendance) error
	ListByLiveClass(ctx context.Context, liveClassID uint) ([]*models.Attendance, error)
}

// AttendanceLogRepository is append-only: there is no update or delete.
type AttendanceLogRepository interface {
	Create(ctx context.Context, entry *models.AttendanceLog) error
	List(ctx context.Context, filters AttendanceLogFilters) ([]*models.AttendanceLog, int64, error)
}
