package memory

import (
	"context"
	"sort"

	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/repositories"
)

// ===== BARCODES =====

type barcodeRepo struct{ s *store }

func (r *barcodeRepo) Create(ctx context.Context, barcode *models.StudentBarcode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := r.s.t
	if _, ok := t.students[barcode.StudentID]; !ok {
		return foreignKey("create barcode", "student_barcodes_student_id_fkey")
	}
	for _, b := range t.barcodes {
		if b.StudentID == barcode.StudentID {
			return duplicate("create barcode", "uq_student_barcodes_student")
		}
		if b.BarcodeData == barcode.BarcodeData {
			return duplicate("create barcode", "uq_student_barcodes_data")
		}
	}
	row := *barcode
	row.Student = nil
	if row.Status == "" {
		row.Status = models.BarcodeActive
	}
	if row.IssuedAt.IsZero() {
		row.IssuedAt = now()
	}
	row.ID = t.id("student_barcodes")
	t.barcodes[row.ID] = row
	*barcode = row
	return nil
}

func (r *barcodeRepo) GetByStudentID(ctx context.Context, studentID uint) (*models.StudentBarcode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.t.barcodes {
		if b.StudentID == studentID {
			return &b, nil
		}
	}
	return nil, notFound("get barcode")
}

func (r *barcodeRepo) GetByData(ctx context.Context, data string) (*models.StudentBarcode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.t.barcodes {
		if b.BarcodeData == data {
			b.Student = r.s.t.studentWithAccount(b.StudentID)
			return &b, nil
		}
	}
	return nil, notFound("get barcode by payload")
}

func (r *barcodeRepo) Update(ctx context.Context, barcode *models.StudentBarcode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := r.s.t
	row, ok := t.barcodes[barcode.ID]
	if !ok {
		return notFound("update barcode")
	}
	for id, b := range t.barcodes {
		if id != barcode.ID && b.BarcodeData == barcode.BarcodeData {
			return duplicate("update barcode", "uq_student_barcodes_data")
		}
	}
	row.BarcodeData = barcode.BarcodeData
	row.BarcodeImage = barcode.BarcodeImage
	row.QRCodeImage = barcode.QRCodeImage
	row.IssuedAt = barcode.IssuedAt
	row.ExpiresAt = barcode.ExpiresAt
	row.Status = barcode.Status
	t.barcodes[row.ID] = row
	return nil
}

// ===== LIVE CLASSES =====

type liveClassRepo struct{ s *store }

func (r *liveClassRepo) Create(ctx context.Context, liveClass *models.LiveClass) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := r.s.t
	if _, ok := t.courses[liveClass.CourseID]; !ok {
		return foreignKey("create live class", "live_classes_course_id_fkey")
	}
	row := *liveClass
	row.Course = nil
	if row.DurationMinutes == 0 {
		row.DurationMinutes = 60
	}
	if row.Status == "" {
		row.Status = models.LiveClassScheduled
	}
	row.ID = t.id("live_classes")
	t.liveClasses[row.ID] = row
	*liveClass = row
	return nil
}

func (r *liveClassRepo) GetByID(ctx context.Context, id uint) (*models.LiveClass, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lc, ok := r.s.t.liveClasses[id]
	if !ok {
		return nil, notFound("get live class")
	}
	lc.Course = r.s.t.coursePtr(lc.CourseID)
	return &lc, nil
}

func (r *liveClassRepo) List(ctx context.Context, filters repositories.LiveClassFilters) ([]*models.LiveClass, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rows []*models.LiveClass
	for _, lc := range r.s.t.liveClasses {
		if filters.CourseID != nil && lc.CourseID != *filters.CourseID {
			continue
		}
		if filters.Status != nil && lc.Status != *filters.Status {
			continue
		}
		if filters.From != nil && lc.ScheduledAt.Before(*filters.From) {
			continue
		}
		if filters.To != nil && lc.ScheduledAt.After(*filters.To) {
			continue
		}
		rows = append(rows, &lc)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].ScheduledAt.Equal(rows[j].ScheduledAt) {
			return rows[i].ScheduledAt.Before(rows[j].ScheduledAt)
		}
		return rows[i].ID < rows[j].ID
	})
	return page(rows, filters.Limit, filters.Offset), int64(len(rows)), nil
}

func (r *liveClassRepo) Update(ctx context.Context, liveClass *models.LiveClass) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.t.liveClasses[liveClass.ID]
	if !ok {
		return notFound("update live class")
	}
	row.Title = liveClass.Title
	row.ScheduledAt = liveClass.ScheduledAt
	row.DurationMinutes = liveClass.DurationMinutes
	row.MeetingURL = liveClass.MeetingURL
	row.MeetingID = liveClass.MeetingID
	row.MeetingPassword = liveClass.MeetingPassword
	row.RecordingURL = liveClass.RecordingURL
	row.Status = liveClass.Status
	r.s.t.liveClasses[row.ID] = row
	return nil
}

// ===== ATTENDANCE =====

type attendanceRepo struct{ s *store }

func (r *attendanceRepo) find(liveClassID, studentID uint) (models.Attendance, bool) {
	for _, a := range r.s.t.attendances {
		if a.LiveClassID == liveClassID && a.StudentID == studentID {
			return a, true
		}
	}
	return models.Attendance{}, false
}

// GetForUpdate needs no row lock here: transactions are already serialized
func (r *attendanceRepo) GetForUpdate(ctx context.Context, liveClassID, studentID uint) (*models.Attendance, error) {
	return r.GetByClassAndStudent(ctx, liveClassID, studentID)
}

func (r *attendanceRepo) GetByClassAndStudent(ctx context.Context, liveClassID, studentID uint) (*models.Attendance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.find(liveClassID, studentID)
	if !ok {
		return nil, notFound("get attendance")
	}
	return &a, nil
}

func (r *attendanceRepo) CreateIfAbsent(ctx context.Context, attendance *models.Attendance) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := r.s.t
	if _, ok := t.liveClasses[attendance.LiveClassID]; !ok {
		return false, foreignKey("create attendance", "attendances_live_class_id_fkey")
	}
	if _, ok := t.students[attendance.StudentID]; !ok {
		return false, foreignKey("create attendance", "attendances_student_id_fkey")
	}
	if _, exists := r.find(attendance.LiveClassID, attendance.StudentID); exists {
		return false, nil
	}
	row := *attendance
	row.LiveClass, row.Student = nil, nil
	if row.Status == "" {
		row.Status = models.AttendancePresent
	}
	if row.AttendanceMethod == "" {
		row.AttendanceMethod = models.MethodManual
	}
	row.ID = t.id("attendances")
	row.CreatedAt = now()
	t.attendances[row.ID] = row
	*attendance = row
	return true, nil
}

func (r *attendanceRepo) Update(ctx context.Context, attendance *models.Attendance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.t.attendances[attendance.ID]
	if !ok {
		return notFound("update attendance")
	}
	row.Status = attendance.Status
	row.AttendanceMethod = attendance.AttendanceMethod
	row.CheckInTime = attendance.CheckInTime
	row.CheckOutTime = attendance.CheckOutTime
	row.LocationLat = attendance.LocationLat
	row.LocationLng = attendance.LocationLng
	row.DeviceInfo = attendance.DeviceInfo
	r.s.t.attendances[row.ID] = row
	return nil
}

func (r *attendanceRepo) ListByLiveClass(ctx context.Context, liveClassID uint) ([]*models.Attendance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rows []*models.Attendance
	for _, a := range r.s.t.attendances {
		if a.LiveClassID != liveClassID {
			continue
		}
		a.Student = r.s.t.studentWithAccount(a.StudentID)
		rows = append(rows, &a)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

// ===== ATTENDANCE LOG =====

type logRepo struct{ s *store }

func (r *logRepo) Create(ctx context.Context, entry *models.AttendanceLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := r.s.t
	if entry.StudentID != nil {
		if _, ok := t.students[*entry.StudentID]; !ok {
			return foreignKey("append attendance log", "attendance_logs_student_id_fkey")
		}
	}
	if entry.AttendanceID != nil {
		if _, ok := t.attendances[*entry.AttendanceID]; !ok {
			return foreignKey("append attendance log", "attendance_logs_attendance_id_fkey")
		}
	}
	if entry.LiveClassID != nil {
		if _, ok := t.liveClasses[*entry.LiveClassID]; !ok {
			return foreignKey("append attendance log", "attendance_logs_live_class_id_fkey")
		}
	}
	row := *entry
	row.Student, row.Attendance = nil, nil
	if row.Timestamp.IsZero() {
		row.Timestamp = now()
	}
	row.ID = t.id("attendance_logs")
	t.logs[row.ID] = row
	*entry = row
	return nil
}

func (r *logRepo) List(ctx context.Context, filters repositories.AttendanceLogFilters) ([]*models.AttendanceLog, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rows []*models.AttendanceLog
	for _, l := range r.s.t.logs {
		if filters.StudentID != nil && (l.StudentID == nil || *l.StudentID != *filters.StudentID) {
			continue
		}
		if filters.LiveClassID != nil && (l.LiveClassID == nil || *l.LiveClassID != *filters.LiveClassID) {
			continue
		}
		if filters.Action != nil && l.Action != *filters.Action {
			continue
		}
		if filters.Success != nil && l.Success != *filters.Success {
			continue
		}
		if filters.DateFrom != nil && l.Timestamp.Before(*filters.DateFrom) {
			continue
		}
		if filters.DateTo != nil && l.Timestamp.After(*filters.DateTo) {
			continue
		}
		rows = append(rows, &l)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Timestamp.Equal(rows[j].Timestamp) {
			return rows[i].Timestamp.After(rows[j].Timestamp)
		}
		return rows[i].ID > rows[j].ID
	})
	return page(rows, filters.Limit, filters.Offset), int64(len(rows)), nil
}
