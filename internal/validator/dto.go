package validator

import (
	"time"

	"github.com/achievers-lc/learning-center/internal/models"
)

// ===== IDENTITY =====

// RegisterRequest creates an account. Email is normalized before validation.
type RegisterRequest struct {
	Email        string           `json:"email" validate:"required,email,max=254"`
	Password     string           `json:"password" validate:"required,min=8,max=128"`
	FirstName    string           `json:"first_name" validate:"max=150"`
	LastName     string           `json:"last_name" validate:"max=150"`
	Role         *models.UserRole `json:"role" validate:"omitempty,account_role"`
	Phone        string           `json:"phone" validate:"max=15"`
	DateOfBirth  *time.Time       `json:"date_of_birth"`
	Address      string           `json:"address" validate:"max=2000"`
	ProfileImage *string          `json:"profile_image" validate:"omitempty,max=500"`
}

// SuperAdminRequest is the privileged variant used by bootstrap and admins
type SuperAdminRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
	FirstName   string `json:"first_name" validate:"max=150"`
	LastName    string `json:"last_name" validate:"max=150"`
	IsStaff     *bool  `json:"is_staff"`
	IsSuperuser *bool  `json:"is_superuser"`
}

type UpdateAccountRequest struct {
	FirstName    *string    `json:"first_name" validate:"omitempty,max=150"`
	LastName     *string    `json:"last_name" validate:"omitempty,max=150"`
	Phone        *string    `json:"phone" validate:"omitempty,max=15"`
	DateOfBirth  *time.Time `json:"date_of_birth"`
	Address      *string    `json:"address" validate:"omitempty,max=2000"`
	ProfileImage *string    `json:"profile_image" validate:"omitempty,max=500"`
}

type ChangeStatusRequest struct {
	Status models.AccountStatus `json:"status" validate:"required,account_status"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

type StudentProfileRequest struct {
	GradeLevel      models.GradeLevel `json:"grade_level" validate:"required,grade_level"`
	ParentAccountID *uint             `json:"parent_account_id"`
}

type UpdateStudentProfileRequest struct {
	GradeLevel      *models.GradeLevel `json:"grade_level" validate:"omitempty,grade_level"`
	ParentAccountID *uint              `json:"parent_account_id"`
	ClearParent     bool               `json:"clear_parent"`
}

type TeacherProfileRequest struct {
	Qualifications  string   `json:"qualifications" validate:"max=5000"`
	Subjects        []string `json:"subjects" validate:"omitempty,max=20,dive,required,max=100"`
	Bio             string   `json:"bio" validate:"max=5000"`
	ExperienceYears int      `json:"experience_years" validate:"min=0,max=80"`
	HourlyRate      float64  `json:"hourly_rate" validate:"min=0"`
}

type UpdateTeacherProfileRequest struct {
	Qualifications  *string  `json:"qualifications" validate:"omitempty,max=5000"`
	Subjects        []string `json:"subjects" validate:"omitempty,max=20,dive,required,max=100"`
	Bio             *string  `json:"bio" validate:"omitempty,max=5000"`
	ExperienceYears *int     `json:"experience_years" validate:"omitempty,min=0,max=80"`
	HourlyRate      *float64 `json:"hourly_rate" validate:"omitempty,min=0"`
	Rating          *float64 `json:"rating" validate:"omitempty,min=0,max=5"`
	IsVerified      *bool    `json:"is_verified"`
}

type ParentProfileRequest struct {
	Occupation       string `json:"occupation" validate:"max=100"`
	EmergencyContact string `json:"emergency_contact" validate:"max=15"`
}

type UpdateParentProfileRequest struct {
	Occupation       *string `json:"occupation" validate:"omitempty,max=100"`
	EmergencyContact *string `json:"emergency_contact" validate:"omitempty,max=15"`
}

// ===== CATALOG =====

type CourseCreateRequest struct {
	Title           string                 `json:"title" validate:"required,not_blank,max=200"`
	Description     string                 `json:"description" validate:"max=10000"`
	GradeLevel      string                 `json:"grade_level" validate:"omitempty,grade_level"`
	Subject         string                 `json:"subject" validate:"max=100"`
	TeacherID       *uint                  `json:"teacher_id"` // admins may create on behalf of a teacher
	CourseType      *models.CourseType     `json:"course_type" validate:"omitempty,course_type"`
	Language        *models.CourseLanguage `json:"language" validate:"omitempty,course_language"`
	DurationWeeks   *int                   `json:"duration_weeks" validate:"omitempty,min=1,max=520"`
	Price           *float64               `json:"price" validate:"omitempty,min=0"`
	Thumbnail       *string                `json:"thumbnail" validate:"omitempty,max=500"`
	Syllabus        string                 `json:"syllabus"`
	Prerequisites   string                 `json:"prerequisites"`
	EnrollmentLimit *int                   `json:"enrollment_limit" validate:"omitempty,min=0"`
}

// CourseUpdateRequest changes catalog fields. Title edits keep the slug; sending "slug": "" regenerates it.
type CourseUpdateRequest struct {
	Title           *string                `json:"title" validate:"omitempty,not_blank,max=200"`
	Slug            *string                `json:"slug" validate:"omitempty,slug,max=255"`
	Description     *string                `json:"description" validate:"omitempty,max=10000"`
	GradeLevel      *string                `json:"grade_level" validate:"omitempty,grade_level"`
	Subject         *string                `json:"subject" validate:"omitempty,max=100"`
	CourseType      *models.CourseType     `json:"course_type" validate:"omitempty,course_type"`
	Language        *models.CourseLanguage `json:"language" validate:"omitempty,course_language"`
	DurationWeeks   *int                   `json:"duration_weeks" validate:"omitempty,min=1,max=520"`
	Price           *float64               `json:"price" validate:"omitempty,min=0"`
	Thumbnail       *string                `json:"thumbnail" validate:"omitempty,max=500"`
	Syllabus        *string                `json:"syllabus"`
	Prerequisites   *string                `json:"prerequisites"`
	EnrollmentLimit *int                   `json:"enrollment_limit" validate:"omitempty,min=0"`
}

type CourseStatusRequest struct {
	Status models.CourseStatus `json:"status" validate:"required,course_status"`
}

type ModuleRequest struct {
	Title       string `json:"title" validate:"required,not_blank,max=200"`
	Description string `json:"description"`
	OrderIndex  int    `json:"order_index" validate:"min=0"`
}

type ModuleUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,not_blank,max=200"`
	Description *string `json:"description"`
	OrderIndex  *int    `json:"order_index" validate:"omitempty,min=0"`
}

type LessonRequest struct {
	Title           string              `json:"title" validate:"required,not_blank,max=200"`
	ContentType     *models.ContentType `json:"content_type" validate:"omitempty,content_type"`
	VideoURL        string              `json:"video_url" validate:"omitempty,url,max=500"`
	ArticleContent  string              `json:"article_content"`
	FileAttachment  *string             `json:"file_attachment" validate:"omitempty,max=500"`
	DurationMinutes int                 `json:"duration_minutes" validate:"min=0"`
	OrderIndex      int                 `json:"order_index" validate:"min=0"`
	IsFreePreview   bool                `json:"is_free_preview"`
}

type LessonUpdateRequest struct {
	Title           *string             `json:"title" validate:"omitempty,not_blank,max=200"`
	ContentType     *models.ContentType `json:"content_type" validate:"omitempty,content_type"`
	VideoURL        *string             `json:"video_url" validate:"omitempty,url,max=500"`
	ArticleContent  *string             `json:"article_content"`
	FileAttachment  *string             `json:"file_attachment" validate:"omitempty,max=500"`
	DurationMinutes *int                `json:"duration_minutes" validate:"omitempty,min=0"`
	OrderIndex      *int                `json:"order_index" validate:"omitempty,min=0"`
	IsFreePreview   *bool               `json:"is_free_preview"`
}

// ===== ENROLLMENT =====

type EnrollRequest struct {
	StudentID uint `json:"student_id" validate:"required"`
	CourseID  uint `json:"course_id" validate:"required"`
}

type EnrollmentStatusRequest struct {
	Status models.EnrollmentStatus `json:"status" validate:"required,enrollment_status"`
}

type PaymentStatusRequest struct {
	PaymentStatus models.PaymentStatus `json:"payment_status" validate:"required,payment_status"`
}

type CompletionRequest struct {
	CompletionPercentage float64 `json:"completion_percentage" validate:"min=0,max=100"`
}

type GradeRequest struct {
	Grade string `json:"grade" validate:"max=5"`
}

// LessonProgressRequest records a study session; AddedMinutes is added to the running total
type LessonProgressRequest struct {
	LessonID     uint                   `json:"lesson_id" validate:"required"`
	Status       *models.ProgressStatus `json:"status" validate:"omitempty,progress_status"`
	AddedMinutes int                    `json:"added_minutes" validate:"min=0,max=1440"`
}

// ===== ATTENDANCE =====

type IssueBarcodeRequest struct {
	ExpiresAt *time.Time `json:"expires_at" validate:"omitempty,future_date"`
}

type LiveClassRequest struct {
	Title           string    `json:"title" validate:"required,not_blank,max=200"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"omitempty,min=1,max=600"`
	MeetingURL      string    `json:"meeting_url" validate:"omitempty,url,max=500"`
	MeetingID       string    `json:"meeting_id" validate:"max=50"`
	MeetingPassword string    `json:"meeting_password" validate:"max=50"`
}

type LiveClassUpdateRequest struct {
	Title           *string    `json:"title" validate:"omitempty,not_blank,max=200"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
	DurationMinutes *int       `json:"duration_minutes" validate:"omitempty,min=1,max=600"`
	MeetingURL      *string    `json:"meeting_url" validate:"omitempty,url,max=500"`
	MeetingID       *string    `json:"meeting_id" validate:"omitempty,max=50"`
	MeetingPassword *string    `json:"meeting_password" validate:"omitempty,max=50"`
	RecordingURL    *string    `json:"recording_url" validate:"omitempty,url,max=500"`
}

type LiveClassStatusRequest struct {
	Status models.LiveClassStatus `json:"status" validate:"required,live_class_status"`
}

// RecordAttendanceRequest is the caller-driven register entry; status is never inferred
type RecordAttendanceRequest struct {
	LiveClassID  uint                     `json:"live_class_id" validate:"required"`
	StudentID    uint                     `json:"student_id" validate:"required"`
	Status       models.AttendanceStatus  `json:"status" validate:"required,attendance_status"`
	Method       *models.AttendanceMethod `json:"attendance_method" validate:"omitempty,attendance_method"`
	CheckInTime  *time.Time               `json:"check_in_time"`
	CheckOutTime *time.Time               `json:"check_out_time"`
	LocationLat  *float64                 `json:"location_lat" validate:"omitempty,min=-90,max=90"`
	LocationLng  *float64                 `json:"location_lng" validate:"omitempty,min=-180,max=180"`
	DeviceInfo   string                   `json:"device_info" validate:"max=100"`
	IPAddress    string                   `json:"-"`
}

// ScanRequest is a barcode or QR check-in at a live class
type ScanRequest struct {
	LiveClassID uint                     `json:"live_class_id" validate:"required"`
	Payload     string                   `json:"payload" validate:"required,max=255"`
	Method      *models.AttendanceMethod `json:"method" validate:"omitempty,oneof=barcode_scan qr_scan"`
	LocationLat *float64                 `json:"location_lat" validate:"omitempty,min=-90,max=90"`
	LocationLng *float64                 `json:"location_lng" validate:"omitempty,min=-180,max=180"`
	DeviceID    string                   `json:"device_id" validate:"max=100"`
	IPAddress   string                   `json:"-"`
}

// CheckOutRequest identifies the student either directly or by scan payload
type CheckOutRequest struct {
	LiveClassID uint   `json:"live_class_id" validate:"required"`
	StudentID   *uint  `json:"student_id" validate:"required_without=Payload"`
	Payload     string `json:"payload" validate:"required_without=StudentID,max=255"`
	DeviceID    string `json:"device_id" validate:"max=100"`
	IPAddress   string `json:"-"`
}
