package events

import (
	"context"
	"time"
)

// Event types published after a committed write
const (
	AccountCreated       = "account.created"
	EnrollmentCreated    = "enrollment.created"
	AttendanceCheckedIn  = "attendance.checked_in"
	AttendanceCheckedOut = "attendance.checked_out"
	AttendanceScanFailed = "attendance.scan_failed"
)

const (
	metadataEventType  = "event_type"
	metadataOccurredAt = "occurred_at"
)

type Event struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

func New(eventType string, payload interface{}) Event {
	return Event{Type: eventType, OccurredAt: time.Now().UTC(), Payload: payload}
}

// Publisher delivers events to the integration feed.
// Publish never fails the caller; delivery problems are logged.
type Publisher interface {
	Publish(ctx context.Context, event Event)
	Close() error
}

type nopPublisher struct{}

// Nop drops every event
func Nop() Publisher { return nopPublisher{} }

func (nopPublisher) Publish(context.Context, Event) {}
func (nopPublisher) Close() error                  { return nil }

// ===== PAYLOADS =====

type AccountCreatedPayload struct {
	AccountID uint   `json:"account_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

type EnrollmentCreatedPayload struct {
	EnrollmentID uint `json:"enrollment_id"`
	StudentID    uint `json:"student_id"`
	CourseID     uint `json:"course_id"`
}

type AttendancePayload struct {
	AttendanceID *uint      `json:"attendance_id,omitempty"`
	LiveClassID  uint       `json:"live_class_id"`
	StudentID    *uint      `json:"student_id,omitempty"`
	Method       string     `json:"method,omitempty"`
	At           *time.Time `json:"at,omitempty"`
	Reason       string     `json:"reason,omitempty"`
}
