package repositories

import (
	"time"

	"github.com/achievers-lc/learning-center/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type AccountFilters struct {
	Role   *models.UserRole      `json:"role"`
	Status *models.AccountStatus `json:"status"`
	Query  string                `json:"query"` // matches name or email
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

type CourseFilters struct {
	Status     *models.CourseStatus `json:"status"`
	TeacherID  *uint                `json:"teacher_id"`
	Subject    string               `json:"subject"`
	GradeLevel string               `json:"grade_level"`
	CourseType *models.CourseType   `json:"course_type"`
	Query      string               `json:"query"`
	Limit      int                  `json:"limit"`
	Offset     int                  `json:"offset"`
	SortBy     string               `json:"sort_by"`    // "created_at", "title", "price"
	SortOrder  string               `json:"sort_order"` // "asc", "desc"
}

type EnrollmentFilters struct {
	StudentID     *uint                    `json:"student_id"`
	CourseID      *uint                    `json:"course_id"`
	Status        *models.EnrollmentStatus `json:"status"`
	PaymentStatus *models.PaymentStatus    `json:"payment_status"`
	Limit         int                      `json:"limit"`
	Offset        int                      `json:"offset"`
}

type LiveClassFilters struct {
	CourseID *uint                   `json:"course_id"`
	Status   *models.LiveClassStatus `json:"status"`
	From     *time.Time              `json:"from"`
	To       *time.Time              `json:"to"`
	Limit    int                     `json:"limit"`
	Offset   int                     `json:"offset"`
}

type AttendanceLogFilters struct {
	StudentID   *uint                    `json:"student_id"`
	LiveClassID *uint                    `json:"live_class_id"`
	Action      *models.AttendanceAction `json:"action"`
	Success     *bool                    `json:"success"`
	DateFrom    *time.Time               `json:"date_from"`
	DateTo      *time.Time               `json:"date_to"`
	Limit       int                      `json:"limit"`
	Offset      int                      `json:"offset"`
}
