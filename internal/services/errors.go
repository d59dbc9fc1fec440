package services

import (
	"errors"
	"fmt"

	"github.com/achievers-lc/learning-center/internal/repositories"
	"github.com/achievers-lc/learning-center/internal/validator"
)

// Error kinds matched by the HTTP layer with errors.Is
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrPermissionDenied = errors.New("permission denied")
	ErrIntegrity        = errors.New("integrity violation")
)

// ===== NOT FOUND =====

type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

var (
	ErrAccountNotFound    = &NotFoundError{Resource: "account"}
	ErrProfileNotFound    = &NotFoundError{Resource: "profile"}
	ErrStudentNotFound    = &NotFoundError{Resource: "student"}
	ErrTeacherNotFound    = &NotFoundError{Resource: "teacher"}
	ErrParentNotFound     = &NotFoundError{Resource: "parent"}
	ErrCourseNotFound     = &NotFoundError{Resource: "course"}
	ErrModuleNotFound     = &NotFoundError{Resource: "module"}
	ErrLessonNotFound     = &NotFoundError{Resource: "lesson"}
	ErrEnrollmentNotFound = &NotFoundError{Resource: "enrollment"}
	ErrBarcodeNotFound    = &NotFoundError{Resource: "barcode"}
	ErrLiveClassNotFound  = &NotFoundError{Resource: "live class"}
	ErrAttendanceNotFound = &NotFoundError{Resource: "attendance"}
)

// ===== VALIDATION =====

type ValidationError = validator.ValidationError
type ValidationErrors = validator.ValidationErrors

func NewValidationError(field, message string, value interface{}) ValidationErrors {
	return ValidationErrors{{
		Field:   field,
		Message: message,
		Value:   value,
		Rule:    "business_logic",
	}}
}

// ===== CONFLICT =====

// ConflictError reports a uniqueness clash on Field
type ConflictError struct {
	Field      string
	Constraint string
	Message    string
}

func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s already exists", e.Field)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

func NewConflictError(field, message string) *ConflictError {
	return &ConflictError{Field: field, Message: message}
}

// constraintFields maps unique constraint names onto the request field they guard
var constraintFields = map[string]string{
	"uq_accounts_email":              "email",
	"uq_students_account":            "account_id",
	"uq_teachers_account":            "account_id",
	"uq_parents_account":             "account_id",
	"uq_students_student_id_number":  "student_id_number",
	"uq_courses_slug":                "slug",
	"idx_enrollment_student_course":  "course_id",
	"idx_progress_enrollment_lesson": "lesson_id",
	"uq_student_barcodes_student":    "student_id",
	"uq_student_barcodes_data":       "barcode_data",
	"idx_attendance_class_student":   "student_id",
}

// conflictFromDuplicate turns a repository duplicate into a ConflictError.
// fallbackField is used when the driver did not report the constraint.
func conflictFromDuplicate(err error, fallbackField string) error {
	if !repositories.IsDuplicateError(err) {
		return err
	}
	constraint := repositories.DuplicateConstraint(err)
	field, ok := constraintFields[constraint]
	if !ok {
		field = fallbackField
	}
	return &ConflictError{Field: field, Constraint: constraint}
}

// ===== PERMISSION =====

type PermissionError struct {
	UserID     uint   `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: cannot %s %s: %s", e.Action, e.Resource, e.Reason)
}

func (e *PermissionError) Is(target error) bool {
	return target == ErrPermissionDenied
}

func NewPermissionError(userID, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// ===== INTEGRITY =====

// IntegrityError is a write that would break a cross-entity rule, such as a profile on the wrong role
type IntegrityError struct {
	Field   string
	Message string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

func NewIntegrityError(field, message string) *IntegrityError {
	return &IntegrityError{Field: field, Message: message}
}

// ===== CLASSIFICATION =====

func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool   { return errors.Is(err, ErrConflict) }
func IsPermission(err error) bool { return errors.Is(err, ErrPermissionDenied) }
func IsIntegrity(err error) bool  { return errors.Is(err, ErrIntegrity) }

func IsValidation(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}

// notFoundOr maps a repository miss onto the given sentinel and leaves other errors alone
func notFoundOr(err error, sentinel *NotFoundError) error {
	if repositories.IsNotFoundError(err) {
		return sentinel
	}
	return err
}
