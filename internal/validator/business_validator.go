package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/achievers-lc/learning-center/internal/models"
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

var slugPattern = regexp.MustCompile(`^[a-z0-9_]+(?:-[a-z0-9_]+)*$`)

// enumRules maps a custom tag to the values it accepts
var enumRules = map[string][]string{
	"account_role":      stringsOf(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher, models.RoleStudent, models.RoleParent, models.RoleGuest),
	"account_status":    stringsOf(models.AccountActive, models.AccountInactive, models.AccountSuspended),
	"grade_level":       stringsOf(models.Grade1, models.Grade2, models.Grade3, models.Grade4, models.Grade5, models.Grade6, models.Grade7, models.Grade8, models.Grade9, models.Grade10, models.Grade11, models.Grade12, models.Grade13, models.GradeLanguage),
	"course_type":       stringsOf(models.CoursePhysical, models.CourseOnlineLive, models.CourseRecorded, models.CourseHybrid),
	"course_language":   stringsOf(models.LanguageEnglish, models.LanguageSinhala, models.LanguageTamil),
	"course_status":     stringsOf(models.CourseDraft, models.CoursePublished, models.CourseArchived),
	"content_type":      stringsOf(models.ContentVideo, models.ContentArticle, models.ContentQuiz, models.ContentFile),
	"enrollment_status": stringsOf(models.EnrollmentPending, models.EnrollmentActive, models.EnrollmentCompleted, models.EnrollmentCancelled),
	"payment_status":    stringsOf(models.PaymentUnpaid, models.PaymentPartial, models.PaymentPaid),
	"progress_status":   stringsOf(models.ProgressNotStarted, models.ProgressInProgress, models.ProgressCompleted),
	"barcode_status":    stringsOf(models.BarcodeActive, models.BarcodeExpired, models.BarcodeRevoked),
	"live_class_status": stringsOf(models.LiveClassScheduled, models.LiveClassOngoing, models.LiveClassCompleted, models.LiveClassCancelled),
	"attendance_status": stringsOf(models.AttendancePresent, models.AttendanceAbsent, models.AttendanceLate),
	"attendance_method": stringsOf(models.MethodManual, models.MethodBarcodeScan, models.MethodQRScan, models.MethodAutoOnline),
}

func stringsOf[T ~string](values ...T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// report json names so errors line up with request bodies
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	if err := bv.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateSuperAdminFlags rejects a privileged account that explicitly opts out of staff or superuser
func (bv *BusinessValidator) ValidateSuperAdminFlags(isStaff, isSuperuser *bool) ValidationErrors {
	var errors ValidationErrors

	if isStaff != nil && !*isStaff {
		errors = append(errors, ValidationError{
			Field:   "is_staff",
			Message: "super admin must have is_staff=true",
			Value:   false,
			Rule:    "business_logic",
		})
	}
	if isSuperuser != nil && !*isSuperuser {
		errors = append(errors, ValidationError{
			Field:   "is_superuser",
			Message: "super admin must have is_superuser=true",
			Value:   false,
			Rule:    "business_logic",
		})
	}

	return errors
}

// liveClassTransitions lists the statuses reachable from each live class status
var liveClassTransitions = map[models.LiveClassStatus][]models.LiveClassStatus{
	models.LiveClassScheduled: {models.LiveClassOngoing, models.LiveClassCancelled},
	models.LiveClassOngoing:   {models.LiveClassCompleted, models.LiveClassCancelled},
	models.LiveClassCompleted: {},
	models.LiveClassCancelled: {},
}

// ValidateLiveClassTransition validates live class status transitions
func (bv *BusinessValidator) ValidateLiveClassTransition(current, next models.LiveClassStatus) ValidationErrors {
	if current == next {
		return nil
	}
	for _, allowed := range liveClassTransitions[current] {
		if next == allowed {
			return nil
		}
	}
	return ValidationErrors{{
		Field:   "status",
		Message: fmt.Sprintf("cannot transition from %s to %s", current, next),
		Value:   next,
		Rule:    "status_transition",
	}}
}

// ValidateCheckInWindow rejects check-out times that precede the check-in
func (bv *BusinessValidator) ValidateCheckInWindow(checkIn, checkOut *time.Time) ValidationErrors {
	if checkIn == nil || checkOut == nil || !checkOut.Before(*checkIn) {
		return nil
	}
	return ValidationErrors{{
		Field:   "check_out_time",
		Message: "must not be before check_in_time",
		Value:   checkOut,
		Rule:    "business_logic",
	}}
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	for tag, allowed := range enumRules {
		allowed := allowed
		bv.validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			value := fl.Field().String()
			for _, a := range allowed {
				if value == a {
					return true
				}
			}
			return false
		})
	}

	bv.validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})

	// Must be in the future; nil pointers are accepted
	bv.validate.RegisterValidation("future_date", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				return true
			}
			field = field.Elem()
		}
		t, ok := field.Interface().(time.Time)
		return ok && t.After(time.Now())
	})

	// Trimmed text must not be empty
	bv.validate.RegisterValidation("not_blank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}
