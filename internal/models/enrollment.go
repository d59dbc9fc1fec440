package models

import (
	"time"
)

type EnrollmentStatus string

const (
	EnrollmentPending   EnrollmentStatus = "pending"
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

type Enrollment struct {
	ID                   uint             `json:"id" gorm:"primaryKey"`
	StudentID            uint             `json:"student_id" gorm:"not null;uniqueIndex:idx_enrollment_student_course"`
	CourseID             uint             `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollment_student_course;index"`
	EnrollmentDate       time.Time        `json:"enrollment_date" gorm:"not null"`
	Status               EnrollmentStatus `json:"status" gorm:"not null;size:10;default:pending;index"`
	PaymentStatus        PaymentStatus    `json:"payment_status" gorm:"not null;size:10;default:unpaid"`
	CompletionPercentage float64          `json:"completion_percentage" gorm:"type:numeric(5,2);not null;default:0"`
	Grade                string           `json:"grade" gorm:"size:5"`

	Student *Student `json:"student,omitempty" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
	Course  *Course  `json:"course,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "not_started"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
)

type LessonProgress struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	EnrollmentID     uint           `json:"enrollment_id" gorm:"not null;uniqueIndex:idx_progress_enrollment_lesson"`
	LessonID         uint           `json:"lesson_id" gorm:"not null;uniqueIndex:idx_progress_enrollment_lesson"`
	Status           ProgressStatus `json:"status" gorm:"not null;size:15;default:not_started"`
	TimeSpentMinutes int            `json:"time_spent_minutes" gorm:"not null;default:0"`
	LastAccessedAt   *time.Time     `json:"last_accessed_at"`
	CompletedAt      *time.Time     `json:"completed_at"`

	Enrollment *Enrollment `json:"-" gorm:"foreignKey:EnrollmentID;constraint:OnDelete:CASCADE"`
	Lesson     *Lesson     `json:"lesson,omitempty" gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}
