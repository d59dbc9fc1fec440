package models

import (
	"time"
)

type BarcodeStatus string

const (
	BarcodeActive  BarcodeStatus = "active"
	BarcodeExpired BarcodeStatus = "expired"
	BarcodeRevoked BarcodeStatus = "revoked"
)

type StudentBarcode struct {
	ID           uint          `json:"id" gorm:"primaryKey"`
	StudentID    uint          `json:"student_id" gorm:"uniqueIndex;not null"`
	BarcodeData  string        `json:"barcode_data" gorm:"uniqueIndex;not null;size:255"`
	BarcodeImage string        `json:"barcode_image" gorm:"size:500"`
	QRCodeImage  string        `json:"qr_code_image" gorm:"size:500"`
	IssuedAt     time.Time     `json:"issued_at" gorm:"not null"`
	ExpiresAt    *time.Time    `json:"expires_at"`
	Status       BarcodeStatus `json:"status" gorm:"not null;size:10;default:active"`

	Student *Student `json:"student,omitempty" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
}

func (StudentBarcode) TableName() string {
	return "student_barcodes"
}

// EffectiveStatus reports expired for an active barcode whose expiry has passed.
func (b *StudentBarcode) EffectiveStatus(now time.Time) BarcodeStatus {
	if b.Status == BarcodeActive && b.ExpiresAt != nil && !now.Before(*b.ExpiresAt) {
		return BarcodeExpired
	}
	return b.Status
}

type LiveClassStatus string

const (
	LiveClassScheduled LiveClassStatus = "scheduled"
	LiveClassOngoing   LiveClassStatus = "ongoing"
	LiveClassCompleted LiveClassStatus = "completed"
	LiveClassCancelled LiveClassStatus = "cancelled"
)

type LiveClass struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	CourseID        uint            `json:"course_id" gorm:"not null;index"`
	Title           string          `json:"title" gorm:"not null;size:200"`
	ScheduledAt     time.Time       `json:"scheduled_at" gorm:"not null;index"`
	DurationMinutes int             `json:"duration_minutes" gorm:"not null;default:60"`
	MeetingURL      string          `json:"meeting_url" gorm:"size:500"`
	MeetingID       string          `json:"meeting_id" gorm:"size:50"`
	MeetingPassword string          `json:"meeting_password" gorm:"size:50"`
	RecordingURL    string          `json:"recording_url" gorm:"size:500"`
	Status          LiveClassStatus `json:"status" gorm:"not null;size:15;default:scheduled"`

	Course *Course `json:"course,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}

func (LiveClass) TableName() string {
	return "live_classes"
}

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
)

type AttendanceMethod string

const (
	MethodManual      AttendanceMethod = "manual"
	MethodBarcodeScan AttendanceMethod = "barcode_scan"
	MethodQRScan      AttendanceMethod = "qr_scan"
	MethodAutoOnline  AttendanceMethod = "auto_online"
)

type Attendance struct {
	ID               uint             `json:"id" gorm:"primaryKey"`
	LiveClassID      uint             `json:"live_class_id" gorm:"not null;uniqueIndex:idx_attendance_class_student"`
	StudentID        uint             `json:"student_id" gorm:"not null;uniqueIndex:idx_attendance_class_student;index"`
	Status           AttendanceStatus `json:"status" gorm:"not null;size:10;default:present"`
	AttendanceMethod AttendanceMethod `json:"attendance_method" gorm:"not null;size:15;default:manual"`
	CheckInTime      *time.Time       `json:"check_in_time"`
	CheckOutTime     *time.Time       `json:"check_out_time"`
	LocationLat      *float64         `json:"location_lat" gorm:"type:numeric(9,6)"`
	LocationLng      *float64         `json:"location_lng" gorm:"type:numeric(9,6)"`
	DeviceInfo       string           `json:"device_info" gorm:"size:100"`
	CreatedAt        time.Time        `json:"created_at"`

	LiveClass *LiveClass `json:"live_class,omitempty" gorm:"foreignKey:LiveClassID;constraint:OnDelete:CASCADE"`
	Student   *Student   `json:"student,omitempty" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
}

func (Attendance) TableName() string {
	return "attendances"
}

type AttendanceAction string

const (
	ActionCheckIn     AttendanceAction = "check_in"
	ActionCheckOut    AttendanceAction = "check_out"
	ActionScanAttempt AttendanceAction = "scan_attempt"
)

// AttendanceLog rows are insert-only.
type AttendanceLog struct {
	ID             uint             `json:"id" gorm:"primaryKey"`
	StudentID      *uint            `json:"student_id" gorm:"index"`
	AttendanceID   *uint            `json:"attendance_id" gorm:"index"`
	LiveClassID    *uint            `json:"live_class_id" gorm:"index"`
	Action         AttendanceAction `json:"action" gorm:"not null;size:15"`
	Timestamp      time.Time        `json:"timestamp" gorm:"not null;index"`
	Success        bool             `json:"success" gorm:"not null"`
	FailureReason  string           `json:"failure_reason" gorm:"size:100"`
	IPAddress      *string          `json:"ip_address" gorm:"type:inet"`
	DeviceID       string           `json:"device_id" gorm:"size:100"`
	ScannedPayload string           `json:"scanned_payload,omitempty" gorm:"size:255"`

	Student    *Student    `json:"student,omitempty" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
	Attendance *Attendance `json:"-" gorm:"foreignKey:AttendanceID;constraint:OnDelete:CASCADE"`
}

func (AttendanceLog) TableName() string {
	return "attendance_logs"
}
