package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/repositories"
)

// ===== BARCODES =====

type BarcodePostgreSQL struct {
	db *gorm.DB
}

func NewBarcodePostgreSQL(db *gorm.DB) repositories.BarcodeRepository {
	return &BarcodePostgreSQL{db: db}
}

func (b *BarcodePostgreSQL) Create(ctx context.Context, barcode *models.StudentBarcode) error {
	return wrap("create barcode", b.db.WithContext(ctx).Omit("Student").Create(barcode).Error)
}

func (b *BarcodePostgreSQL) GetByStudentID(ctx context.Context, studentID uint) (*models.StudentBarcode, error) {
	var barcode models.StudentBarcode
	if err := b.db.WithContext(ctx).Where("student_id = ?", studentID).First(&barcode).Error; err != nil {
		return nil, wrap("get barcode", err)
	}
	return &barcode, nil
}

func (b *BarcodePostgreSQL) GetByData(ctx context.Context, data string) (*models.StudentBarcode, error) {
	var barcode models.StudentBarcode
	err := b.db.WithContext(ctx).
		Preload("Student.Account").
		Where("barcode_data = ?", data).
		First(&barcode).Error
	if err != nil {
		return nil, wrap("get barcode by payload", err)
	}
	return &barcode, nil
}

func (b *BarcodePostgreSQL) Update(ctx context.Context, barcode *models.StudentBarcode) error {
	err := b.db.WithContext(ctx).Model(&models.StudentBarcode{}).Where("id = ?", barcode.ID).Updates(map[string]interface{}{
		"barcode_data":  barcode.BarcodeData,
		"barcode_image": barcode.BarcodeImage,
		"qr_code_image": barcode.QRCodeImage,
		"issued_at":     barcode.IssuedAt,
		"expires_at":    barcode.ExpiresAt,
		"status":        barcode.Status,
	}).Error
	return wrap("update barcode", err)
}

// ===== LIVE CLASSES =====

type LiveClassPostgreSQL struct {
	db *gorm.DB
}

func NewLiveClassPostgreSQL(db *gorm.DB) repositories.LiveClassRepository {
	return &LiveClassPostgreSQL{db: db}
}

func (l *LiveClassPostgreSQL) Create(ctx context.Context, liveClass *models.LiveClass) error {
	return wrap("create live class", l.db.WithContext(ctx).Omit("Course").Create(liveClass).Error)
}

func (l *LiveClassPostgreSQL) GetByID(ctx context.Context, id uint) (*models.LiveClass, error) {
	var liveClass models.LiveClass
	if err := l.db.WithContext(ctx).Preload("Course").First(&liveClass, id).Error; err != nil {
		return nil, wrap("get live class", err)
	}
	return &liveClass, nil
}

func (l *LiveClassPostgreSQL) List(ctx context.Context, filters repositories.LiveClassFilters) ([]*models.LiveClass, int64, error) {
	query := l.db.WithContext(ctx).Model(&models.LiveClass{})

	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.From != nil {
		query = query.Where("scheduled_at >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("scheduled_at <= ?", *filters.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrap("count live classes", err)
	}

	var classes []*models.LiveClass
	query = applyPagination(query.Order("scheduled_at ASC, id ASC"), filters.Limit, filters.Offset)
	if err := query.Find(&classes).Error; err != nil {
		return nil, 0, wrap("list live classes", err)
	}
	return classes, total, nil
}

func (l *LiveClassPostgreSQL) Update(ctx context.Context, liveClass *models.LiveClass) error {
	err := l.db.WithContext(ctx).Model(&models.LiveClass{}).Where("id = ?", liveClass.ID).Updates(map[string]interface{}{
		"title":            liveClass.Title,
		"scheduled_at":     liveClass.ScheduledAt,
		"duration_minutes": liveClass.DurationMinutes,
		"meeting_url":      liveClass.MeetingURL,
		"meeting_id":       liveClass.MeetingID,
		"meeting_password": liveClass.MeetingPassword,
		"recording_url":    liveClass.RecordingURL,
		"status":           liveClass.Status,
	}).Error
	return wrap("update live class", err)
}

// ===== ATTENDANCE =====

type AttendancePostgreSQL struct {
	db *gorm.DB
}

func NewAttendancePostgreSQL(db *gorm.DB) repositories.AttendanceRepository {
	return &AttendancePostgreSQL{db: db}
}

func (a *AttendancePostgreSQL) GetForUpdate(ctx context.Context, liveClassID, studentID uint) (*models.Attendance, error) {
	var attendance models.Attendance
	err := a.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("live_class_id = ? AND student_id = ?", liveClassID, studentID).
		First(&attendance).Error
	if err != nil {
		return nil, wrap("lock attendance", err)
	}
	return &attendance, nil
}

func (a *AttendancePostgreSQL) GetByClassAndStudent(ctx context.Context, liveClassID, studentID uint) (*models.Attendance, error) {
	var attendance models.Attendance
	err := a.db.WithContext(ctx).
		Where("live_class_id = ? AND student_id = ?", liveClassID, studentID).
		First(&attendance).Error
	if err != nil {
		return nil, wrap("get attendance", err)
	}
	return &attendance, nil
}

func (a *AttendancePostgreSQL) CreateIfAbsent(ctx context.Context, attendance *models.Attendance) (bool, error) {
	result := a.db.WithContext(ctx).
		Omit("LiveClass", "Student").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "live_class_id"}, {Name: "student_id"}},
			DoNothing: true,
		}).
		Create(attendance)
	if result.Error != nil {
		return false, wrap("create attendance", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (a *AttendancePostgreSQL) Update(ctx context.Context, attendance *models.Attendance) error {
	err := a.db.WithContext(ctx).Model(&models.Attendance{}).Where("id = ?", attendance.ID).Updates(map[string]interface{}{
		"status":            attendance.Status,
		"attendance_method": attendance.AttendanceMethod,
		"check_in_time":     attendance.CheckInTime,
		"check_out_time":    attendance.CheckOutTime,
		"location_lat":      attendance.LocationLat,
		"location_lng":      attendance.LocationLng,
		"device_info":       attendance.DeviceInfo,
	}).Error
	return wrap("update attendance", err)
}

func (a *AttendancePostgreSQL) ListByLiveClass(ctx context.Context, liveClassID uint) ([]*models.Attendance, error) {
	var rows []*models.Attendance
	err := a.db.WithContext(ctx).
		Preload("Student.Account").
		Where("live_class_id = ?", liveClassID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, wrap("list attendance", err)
	}
	return rows, nil
}

// ===== ATTENDANCE LOG =====

type AttendanceLogPostgreSQL struct {
	db *gorm.DB
}

func NewAttendanceLogPostgreSQL(db *gorm.DB) repositories.AttendanceLogRepository {
	return &AttendanceLogPostgreSQL{db: db}
}

func (l *AttendanceLogPostgreSQL) Create(ctx context.Context, entry *models.AttendanceLog) error {
	return wrap("append attendance log", l.db.WithContext(ctx).Omit("Student", "Attendance").Create(entry).Error)
}

func (l *AttendanceLogPostgreSQL) List(ctx context.Context, filters repositories.AttendanceLogFilters) ([]*models.AttendanceLog, int64, error) {
	query := l.db.WithContext(ctx).Model(&models.AttendanceLog{})

	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.LiveClassID != nil {
		query = query.Where("live_class_id = ?", *filters.LiveClassID)
	}
	if filters.Action != nil {
		query = query.Where("action = ?", *filters.Action)
	}
	if filters.Success != nil {
		query = query.Where("success = ?", *filters.Success)
	}
	if filters.DateFrom != nil {
		query = query.Where("timestamp >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("timestamp <= ?", *filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrap("count attendance logs", err)
	}

	var entries []*models.AttendanceLog
	query = applyPagination(query.Order("timestamp DESC, id DESC"), filters.Limit, filters.Offset)
	if err := query.Find(&entries).Error; err != nil {
		return nil, 0, wrap("list attendance logs", err)
	}
	return entries, total, nil
}
