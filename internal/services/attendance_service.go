package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"time"

	"github.com/achievers-lc/learning-center/internal/barcode"
	"github.com/achievers-lc/learning-center/internal/events"
	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/repositories"
	"github.com/achievers-lc/learning-center/internal/storage"
	"github.com/achievers-lc/learning-center/internal/validator"
)

const barcodeFolder = "barcodes"

type attendanceService struct {
	repo       repositories.Repository
	logger     *slog.Logger
	validator  *validator.Validator
	events     events.Publisher
	blobs      storage.BlobStore
	codec      *barcode.Codec
	barcodeTTL time.Duration
	now        func() time.Time
}

func NewAttendanceService(deps Dependencies) AttendanceService {
	deps = deps.withDefaults()
	return &attendanceService{
		repo:       deps.Repo,
		logger:     deps.Logger,
		validator:  deps.Validator,
		events:     deps.Events,
		blobs:      deps.Blobs,
		codec:      deps.Codec,
		barcodeTTL: deps.BarcodeTTL,
		now:        deps.Now,
	}
}

// ===== BARCODES =====

// credential is a sealed payload plus its rendered images
type credential struct {
	payload string
	code128 string
	qr      string
}

func (s *attendanceService) newCredential(ctx context.Context, studentIDNumber string) (*credential, error) {
	payload, err := s.codec.Seal(studentIDNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to seal barcode: %w", err)
	}

	code128PNG, err := barcode.RenderCode128(payload)
	if err != nil {
		return nil, err
	}
	qrPNG, err := barcode.RenderQR(payload)
	if err != nil {
		return nil, err
	}

	c := &credential{payload: payload}
	if c.code128, err = s.blobs.Save(ctx, barcodeFolder, "png", code128PNG); err != nil {
		return nil, err
	}
	if c.qr, err = s.blobs.Save(ctx, barcodeFolder, "png", qrPNG); err != nil {
		s.discardImages(ctx, c.code128)
		return nil, err
	}
	return c, nil
}

func (s *attendanceService) discardImages(ctx context.Context, paths ...string) {
	for _, p := range paths {
		if err := s.blobs.Delete(ctx, p); err != nil {
			s.logger.Warn("Failed to delete barcode image", "path", p, "error", err)
		}
	}
}

func (s *attendanceService) expiry(expiresAt *time.Time) (*time.Time, error) {
	if expiresAt != nil {
		if err := s.validator.Validate(&validator.IssueBarcodeRequest{ExpiresAt: expiresAt}); err != nil {
			return nil, err
		}
		return expiresAt, nil
	}
	if s.barcodeTTL > 0 {
		t := s.now().Add(s.barcodeTTL)
		return &t, nil
	}
	return nil, nil
}

func (s *attendanceService) IssueBarcode(ctx context.Context, studentID uint, expiresAt *time.Time) (*models.StudentBarcode, error) {
	expires, err := s.expiry(expiresAt)
	if err != nil {
		return nil, err
	}
	student, err := s.repo.Student().GetByID(ctx, studentID)
	if err != nil {
		return nil, notFoundOr(err, ErrStudentNotFound)
	}
	if _, err := s.repo.Barcode().GetByStudentID(ctx, studentID); err == nil {
		return nil, &ConflictError{Field: "student_id", Constraint: "uq_student_barcodes_student", Message: "student already has a barcode"}
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get barcode: %w", err)
	}

	cred, err := s.newCredential(ctx, student.StudentIDNumber)
	if err != nil {
		return nil, err
	}

	row := &models.StudentBarcode{
		StudentID:    studentID,
		BarcodeData:  cred.payload,
		BarcodeImage: cred.code128,
		QRCodeImage:  cred.qr,
		IssuedAt:     s.now(),
		ExpiresAt:    expires,
		Status:       models.BarcodeActive,
	}
	if err := s.repo.Barcode().Create(ctx, row); err != nil {
		s.discardImages(ctx, cred.code128, cred.qr)
		if repositories.IsDuplicateError(err) {
			return nil, conflictFromDuplicate(err, "student_id")
		}
		return nil, fmt.Errorf("failed to create barcode: %w", err)
	}

	s.logger.Info("Barcode issued", "student_id", studentID, "barcode_id", row.ID)
	return row, nil
}

// ReissueBarcode replaces payload and images and reactivates the barcode
func (s *attendanceService) ReissueBarcode(ctx context.Context, studentID uint, expiresAt *time.Time) (*models.StudentBarcode, error) {
	expires, err := s.expiry(expiresAt)
	if err != nil {
		return nil, err
	}
	row, err := s.GetBarcode(ctx, studentID)
	if err != nil {
		return nil, err
	}
	student, err := s.repo.Student().GetByID(ctx, studentID)
	if err != nil {
		return nil, notFoundOr(err, ErrStudentNotFound)
	}

	cred, err := s.newCredential(ctx, student.StudentIDNumber)
	if err != nil {
		return nil, err
	}
	oldImages := []string{row.BarcodeImage, row.QRCodeImage}

	row.BarcodeData = cred.payload
	row.BarcodeImage = cred.code128
	row.QRCodeImage = cred.qr
	row.IssuedAt = s.now()
	row.ExpiresAt = expires
	row.Status = models.BarcodeActive
	if err := s.repo.Barcode().Update(ctx, row); err != nil {
		s.discardImages(ctx, cred.code128, cred.qr)
		if repositories.IsDuplicateError(err) {
			return nil, conflictFromDuplicate(err, "barcode_data")
		}
		return nil, fmt.Errorf("failed to update barcode: %w", notFoundOr(err, ErrBarcodeNotFound))
	}

	s.discardImages(ctx, oldImages...)
	s.logger.Info("Barcode reissued", "student_id", studentID, "barcode_id", row.ID)
	return row, nil
}

func (s *attendanceService) RevokeBarcode(ctx context.Context, studentID uint) (*models.StudentBarcode, error) {
	row, err := s.GetBarcode(ctx, studentID)
	if err != nil {
		return nil, err
	}
	row.Status = models.BarcodeRevoked
	if err := s.repo.Barcode().Update(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to revoke barcode: %w", notFoundOr(err, ErrBarcodeNotFound))
	}
	s.logger.Info("Barcode revoked", "student_id", studentID, "barcode_id", row.ID)
	return row, nil
}

func (s *attendanceService) GetBarcode(ctx context.Context, studentID uint) (*models.StudentBarcode, error) {
	row, err := s.repo.Barcode().GetByStudentID(ctx, studentID)
	if err != nil {
		return nil, notFoundOr(err, ErrBarcodeNotFound)
	}
	return row, nil
}

// ===== LIVE CLASSES =====

func (s *attendanceService) ScheduleLiveClass(ctx context.Context, courseID uint, req *LiveClassRequest) (*models.LiveClass, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.repo.Course().GetByID(ctx, courseID); err != nil {
		return nil, notFoundOr(err, ErrCourseNotFound)
	}

	liveClass := &models.LiveClass{
		CourseID:        courseID,
		Title:           req.Title,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		MeetingURL:      req.MeetingURL,
		MeetingID:       req.MeetingID,
		MeetingPassword: req.MeetingPassword,
		Status:          models.LiveClassScheduled,
	}
	if liveClass.DurationMinutes == 0 {
		liveClass.DurationMinutes = 60
	}
	if err := s.repo.LiveClass().Create(ctx, liveClass); err != nil {
		return nil, fmt.Errorf("failed to create live class: %w", err)
	}

	s.logger.Info("Live class scheduled", "live_class_id", liveClass.ID, "course_id", courseID, "scheduled_at", liveClass.ScheduledAt)
	return liveClass, nil
}

func (s *attendanceService) GetLiveClass(ctx context.Context, id uint) (*models.LiveClass, error) {
	liveClass, err := s.repo.LiveClass().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrLiveClassNotFound)
	}
	return liveClass, nil
}

func (s *attendanceService) ListLiveClasses(ctx context.Context, filters repositories.LiveClassFilters, page models.PageParams) (*models.ListResponse[*models.LiveClass], error) {
	page = page.Normalize()
	filters.Limit = page.Size
	filters.Offset = page.Offset()

	classes, total, err := s.repo.LiveClass().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list live classes: %w", err)
	}
	return &models.ListResponse[*models.LiveClass]{Items: classes, Total: total, Page: page.Page, Size: page.Size}, nil
}

func (s *attendanceService) UpdateLiveClass(ctx context.Context, id uint, req *UpdateLiveClassRequest) (*models.LiveClass, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	liveClass, err := s.GetLiveClass(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		liveClass.Title = *req.Title
	}
	if req.ScheduledAt != nil {
		liveClass.ScheduledAt = *req.ScheduledAt
	}
	if req.DurationMinutes != nil {
		liveClass.DurationMinutes = *req.DurationMinutes
	}
	if req.MeetingURL != nil {
		liveClass.MeetingURL = *req.MeetingURL
	}
	if req.MeetingID != nil {
		liveClass.MeetingID = *req.MeetingID
	}
	if req.MeetingPassword != nil {
		liveClass.MeetingPassword = *req.MeetingPassword
	}
	if req.RecordingURL != nil {
		liveClass.RecordingURL = *req.RecordingURL
	}

	if err := s.repo.LiveClass().Update(ctx, liveClass); err != nil {
		return nil, fmt.Errorf("failed to update live class: %w", notFoundOr(err, ErrLiveClassNotFound))
	}
	return liveClass, nil
}

// SetLiveClassStatus advances the status; nothing moves it on a timer
func (s *attendanceService) SetLiveClassStatus(ctx context.Context, id uint, status models.LiveClassStatus) (*models.LiveClass, error) {
	if err := s.validator.Validate(&validator.LiveClassStatusRequest{Status: status}); err != nil {
		return nil, err
	}
	liveClass, err := s.GetLiveClass(ctx, id)
	if err != nil {
		return nil, err
	}
	if errs := s.validator.GetBusinessValidator().ValidateLiveClassTransition(liveClass.Status, status); len(errs) > 0 {
		return nil, errs
	}

	from := liveClass.Status
	liveClass.Status = status
	if err := s.repo.LiveClass().Update(ctx, liveClass); err != nil {
		return nil, fmt.Errorf("failed to update live class status: %w", notFoundOr(err, ErrLiveClassNotFound))
	}
	s.logger.Info("Live class status changed", "live_class_id", id, "from", from, "to", status)
	return liveClass, nil
}

// ===== REGISTER =====

// lockAttendance returns the locked (live class, student) row, inserting template when there is none.
// created reports whether template was the row inserted.
func lockAttendance(ctx context.Context, tx repositories.Repository, template *models.Attendance) (*models.Attendance, bool, error) {
	row, err := tx.Attendance().GetForUpdate(ctx, template.LiveClassID, template.StudentID)
	if err == nil {
		return row, false, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, false, fmt.Errorf("failed to lock attendance: %w", err)
	}

	created, err := tx.Attendance().CreateIfAbsent(ctx, template)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create attendance: %w", err)
	}
	if created {
		return template, true, nil
	}

	// another writer inserted the pair in between
	row, err = tx.Attendance().GetForUpdate(ctx, template.LiveClassID, template.StudentID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to lock attendance: %w", err)
	}
	return row, false, nil
}

// RecordAttendance is the caller-driven register entry. The status is taken as given.
func (s *attendanceService) RecordAttendance(ctx context.Context, req *RecordAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if errs := s.validator.GetBusinessValidator().ValidateCheckInWindow(req.CheckInTime, req.CheckOutTime); len(errs) > 0 {
		return nil, errs
	}

	method := models.MethodManual
	if req.Method != nil {
		method = *req.Method
	}

	var attendance *models.Attendance
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if _, err := tx.LiveClass().GetByID(ctx, req.LiveClassID); err != nil {
			return notFoundOr(err, ErrLiveClassNotFound)
		}
		if _, err := tx.Student().GetByID(ctx, req.StudentID); err != nil {
			return notFoundOr(err, ErrStudentNotFound)
		}

		template := &models.Attendance{
			LiveClassID:      req.LiveClassID,
			StudentID:        req.StudentID,
			Status:           req.Status,
			AttendanceMethod: method,
			CheckInTime:      req.CheckInTime,
			CheckOutTime:     req.CheckOutTime,
			LocationLat:      req.LocationLat,
			LocationLng:      req.LocationLng,
			DeviceInfo:       req.DeviceInfo,
		}
		row, created, err := lockAttendance(ctx, tx, template)
		if err != nil {
			return err
		}
		if !created {
			row.Status = req.Status
			row.AttendanceMethod = method
			if req.CheckInTime != nil {
				row.CheckInTime = req.CheckInTime
			}
			if req.CheckOutTime != nil {
				row.CheckOutTime = req.CheckOutTime
			}
			if errs := s.validator.GetBusinessValidator().ValidateCheckInWindow(row.CheckInTime, row.CheckOutTime); len(errs) > 0 {
				return errs
			}
			if req.LocationLat != nil {
				row.LocationLat = req.LocationLat
			}
			if req.LocationLng != nil {
				row.LocationLng = req.LocationLng
			}
			if req.DeviceInfo != "" {
				row.DeviceInfo = req.DeviceInfo
			}
			if err := tx.Attendance().Update(ctx, row); err != nil {
				return fmt.Errorf("failed to update attendance: %w", err)
			}
		}
		attendance = row

		if req.CheckInTime != nil {
			entry := &models.AttendanceLog{
				StudentID:    &row.StudentID,
				AttendanceID: &row.ID,
				LiveClassID:  &row.LiveClassID,
				Action:       models.ActionCheckIn,
				Timestamp:    s.now(),
				Success:      true,
				IPAddress:    ipAddress(req.IPAddress),
				DeviceID:     req.DeviceInfo,
			}
			if err := tx.AttendanceLog().Create(ctx, entry); err != nil {
				return fmt.Errorf("failed to write attendance log: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Attendance recorded",
		"attendance_id", attendance.ID,
		"live_class_id", attendance.LiveClassID,
		"student_id", attendance.StudentID,
		"status", attendance.Status)
	return attendance, nil
}

// resolveBarcode maps a scanned payload to its barcode row with the student preloaded.
// Anything this service did not seal, or that no longer matches a row, is unknown.
func (s *attendanceService) resolveBarcode(ctx context.Context, tx repositories.Repository, payload string) (*models.StudentBarcode, error) {
	plain, err := s.codec.Open(payload)
	if err != nil {
		return nil, ErrBarcodeNotFound
	}
	row, err := tx.Barcode().GetByData(ctx, payload)
	if err != nil {
		return nil, notFoundOr(err, ErrBarcodeNotFound)
	}
	if row.Student == nil || row.Student.StudentIDNumber != plain {
		return nil, ErrBarcodeNotFound
	}
	return row, nil
}

// scanAttempt collects one audit entry and the outcome handed back to the caller
type scanAttempt struct {
	tx     repositories.Repository
	entry  *models.AttendanceLog
	result *ScanResult
	err    error
}

// fail appends the failure entry. The transaction still commits so the entry survives;
// the typed cause is returned to the caller after the commit.
func (a *scanAttempt) fail(ctx context.Context, cause error, reason string) error {
	a.entry.Success = false
	a.entry.FailureReason = reason
	if err := a.tx.AttendanceLog().Create(ctx, a.entry); err != nil {
		return fmt.Errorf("failed to write attendance log: %w", err)
	}
	a.result.Success = false
	a.result.Action = a.entry.Action
	a.result.Reason = reason
	a.result.Log = a.entry
	a.err = cause
	return nil
}

func (a *scanAttempt) succeed(ctx context.Context, attendance *models.Attendance) error {
	a.entry.Success = true
	a.entry.AttendanceID = &attendance.ID
	if err := a.tx.AttendanceLog().Create(ctx, a.entry); err != nil {
		return fmt.Errorf("failed to write attendance log: %w", err)
	}
	a.result.Success = true
	a.result.Action = a.entry.Action
	a.result.Attendance = attendance
	a.result.Log = a.entry
	return nil
}

// ScanCheckIn resolves a barcode or QR payload and checks the student in.
// Every attempt leaves exactly one log entry; a failed attempt returns the result and a typed error.
func (s *attendanceService) ScanCheckIn(ctx context.Context, req *ScanRequest) (*ScanResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	method := models.MethodBarcodeScan
	if req.Method != nil {
		method = *req.Method
	}

	var attempt *scanAttempt
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		now := s.now()
		attempt = &scanAttempt{
			tx: tx,
			entry: &models.AttendanceLog{
				Action:         models.ActionCheckIn,
				Timestamp:      now,
				IPAddress:      ipAddress(req.IPAddress),
				DeviceID:       req.DeviceID,
				ScannedPayload: req.Payload,
			},
			result: &ScanResult{},
		}

		if _, err := tx.LiveClass().GetByID(ctx, req.LiveClassID); err != nil {
			if !repositories.IsNotFoundError(err) {
				return fmt.Errorf("failed to get live class: %w", err)
			}
			attempt.entry.Action = models.ActionScanAttempt
			return attempt.fail(ctx, ErrLiveClassNotFound, "live class not found")
		}
		attempt.entry.LiveClassID = &req.LiveClassID

		row, err := s.resolveBarcode(ctx, tx, req.Payload)
		if err != nil {
			if !IsNotFound(err) {
				return err
			}
			attempt.entry.Action = models.ActionScanAttempt
			return attempt.fail(ctx, err, "unknown barcode")
		}
		student := row.Student
		attempt.entry.StudentID = &row.StudentID
		attempt.result.Student = student

		if status := row.EffectiveStatus(now); status != models.BarcodeActive {
			return attempt.fail(ctx,
				NewPermissionError(student.AccountID, row.ID, "barcode", "check in", fmt.Sprintf("barcode is %s", status)),
				fmt.Sprintf("barcode %s", status))
		}
		if student.Account != nil && !student.Account.IsActive() {
			return attempt.fail(ctx,
				NewPermissionError(student.AccountID, row.ID, "barcode", "check in", fmt.Sprintf("account is %s", student.Account.Status)),
				fmt.Sprintf("account %s", student.Account.Status))
		}

		template := &models.Attendance{
			LiveClassID:      req.LiveClassID,
			StudentID:        row.StudentID,
			Status:           models.AttendancePresent,
			AttendanceMethod: method,
			CheckInTime:      &now,
			LocationLat:      req.LocationLat,
			LocationLng:      req.LocationLng,
			DeviceInfo:       req.DeviceID,
		}
		attendance, created, err := lockAttendance(ctx, tx, template)
		if err != nil {
			return err
		}
		if !created {
			if attendance.CheckInTime != nil {
				attempt.entry.AttendanceID = &attendance.ID
				attempt.result.Attendance = attendance
				return attempt.fail(ctx,
					&ConflictError{Field: "student_id", Constraint: "idx_attendance_class_student", Message: "student already checked in to this live class"},
					"already checked in")
			}
			attendance.Status = models.AttendancePresent
			attendance.AttendanceMethod = method
			attendance.CheckInTime = &now
			attendance.LocationLat = req.LocationLat
			attendance.LocationLng = req.LocationLng
			if req.DeviceID != "" {
				attendance.DeviceInfo = req.DeviceID
			}
			if err := tx.Attendance().Update(ctx, attendance); err != nil {
				return fmt.Errorf("failed to update attendance: %w", err)
			}
		}
		return attempt.succeed(ctx, attendance)
	})
	if err != nil {
		return nil, err
	}

	s.publishScan(ctx, events.AttendanceCheckedIn, req.LiveClassID, attempt)
	if attempt.err != nil {
		s.logger.Warn("Scan check-in rejected",
			"live_class_id", req.LiveClassID,
			"reason", attempt.result.Reason,
			"log_id", attempt.entry.ID)
		return attempt.result, attempt.err
	}

	s.logger.Info("Student checked in",
		"live_class_id", req.LiveClassID,
		"student_id", attempt.result.Attendance.StudentID,
		"method", method)
	return attempt.result, nil
}

// CheckOut closes an open check-in, identified by student id or scan payload
func (s *attendanceService) CheckOut(ctx context.Context, req *CheckOutRequest) (*ScanResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var attempt *scanAttempt
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		now := s.now()
		attempt = &scanAttempt{
			tx: tx,
			entry: &models.AttendanceLog{
				Action:         models.ActionCheckOut,
				Timestamp:      now,
				IPAddress:      ipAddress(req.IPAddress),
				DeviceID:       req.DeviceID,
				ScannedPayload: req.Payload,
			},
			result: &ScanResult{},
		}

		if _, err := tx.LiveClass().GetByID(ctx, req.LiveClassID); err != nil {
			if !repositories.IsNotFoundError(err) {
				return fmt.Errorf("failed to get live class: %w", err)
			}
			return attempt.fail(ctx, ErrLiveClassNotFound, "live class not found")
		}
		attempt.entry.LiveClassID = &req.LiveClassID

		var student *models.Student
		if req.StudentID != nil {
			found, err := tx.Student().GetByID(ctx, *req.StudentID)
			if err != nil {
				if !repositories.IsNotFoundError(err) {
					return fmt.Errorf("failed to get student: %w", err)
				}
				return attempt.fail(ctx, ErrStudentNotFound, "student not found")
			}
			student = found
		} else {
			row, err := s.resolveBarcode(ctx, tx, req.Payload)
			if err != nil {
				if !IsNotFound(err) {
					return err
				}
				return attempt.fail(ctx, err, "unknown barcode")
			}
			student = row.Student
		}
		attempt.entry.StudentID = &student.ID
		attempt.result.Student = student

		attendance, err := tx.Attendance().GetForUpdate(ctx, req.LiveClassID, student.ID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to lock attendance: %w", err)
		}
		if err != nil || attendance.CheckInTime == nil {
			return attempt.fail(ctx, ErrAttendanceNotFound, "no open check-in")
		}
		attempt.entry.AttendanceID = &attendance.ID
		if attendance.CheckOutTime != nil {
			attempt.result.Attendance = attendance
			return attempt.fail(ctx,
				&ConflictError{Field: "student_id", Message: "student already checked out of this live class"},
				"already checked out")
		}

		attendance.CheckOutTime = &now
		if err := tx.Attendance().Update(ctx, attendance); err != nil {
			return fmt.Errorf("failed to update attendance: %w", err)
		}
		return attempt.succeed(ctx, attendance)
	})
	if err != nil {
		return nil, err
	}

	s.publishScan(ctx, events.AttendanceCheckedOut, req.LiveClassID, attempt)
	if attempt.err != nil {
		s.logger.Warn("Check-out rejected",
			"live_class_id", req.LiveClassID,
			"reason", attempt.result.Reason,
			"log_id", attempt.entry.ID)
		return attempt.result, attempt.err
	}

	s.logger.Info("Student checked out", "live_class_id", req.LiveClassID, "student_id", attempt.result.Attendance.StudentID)
	return attempt.result, nil
}

// publishScan emits onSuccess for a successful attempt and scan_failed otherwise
func (s *attendanceService) publishScan(ctx context.Context, onSuccess string, liveClassID uint, attempt *scanAttempt) {
	payload := events.AttendancePayload{
		LiveClassID: liveClassID,
		StudentID:   attempt.entry.StudentID,
		At:          &attempt.entry.Timestamp,
		Reason:      attempt.result.Reason,
	}
	if attempt.result.Attendance != nil {
		payload.AttendanceID = &attempt.result.Attendance.ID
		payload.Method = string(attempt.result.Attendance.AttendanceMethod)
	}

	eventType := onSuccess
	if !attempt.result.Success {
		eventType = events.AttendanceScanFailed
	}
	s.events.Publish(ctx, events.New(eventType, payload))
}

func (s *attendanceService) ListAttendance(ctx context.Context, liveClassID uint) ([]*models.Attendance, error) {
	if _, err := s.GetLiveClass(ctx, liveClassID); err != nil {
		return nil, err
	}
	rows, err := s.repo.Attendance().ListByLiveClass(ctx, liveClassID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return rows, nil
}

// ListLogs returns audit entries newest first
func (s *attendanceService) ListLogs(ctx context.Context, filters repositories.AttendanceLogFilters, page models.PageParams) (*models.ListResponse[*models.AttendanceLog], error) {
	page = page.Normalize()
	filters.Limit = page.Size
	filters.Offset = page.Offset()

	entries, total, err := s.repo.AttendanceLog().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance logs: %w", err)
	}
	return &models.ListResponse[*models.AttendanceLog]{Items: entries, Total: total, Page: page.Page, Size: page.Size}, nil
}

// ipAddress keeps only parseable addresses; the column is inet
func ipAddress(raw string) *string {
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return nil
	}
	s := addr.String()
	return &s
}
