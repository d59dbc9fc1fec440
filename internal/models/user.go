package models

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type UserRole string
type Role = UserRole

const (
	RoleSuperAdmin UserRole = "super_admin"
	RoleAdmin      UserRole = "admin"
	RoleTeacher    UserRole = "teacher"
	RoleStudent    UserRole = "student"
	RoleParent     UserRole = "parent"
	RoleGuest      UserRole = "guest"
)

type AccountStatus string

const (
	AccountActive    AccountStatus = "active"
	AccountInactive  AccountStatus = "inactive"
	AccountSuspended AccountStatus = "suspended"
)

type GradeLevel string

const (
	Grade1        GradeLevel = "grade_1"
	Grade2        GradeLevel = "grade_2"
	Grade3        GradeLevel = "grade_3"
	Grade4        GradeLevel = "grade_4"
	Grade5        GradeLevel = "grade_5"
	Grade6        GradeLevel = "grade_6"
	Grade7        GradeLevel = "grade_7"
	Grade8        GradeLevel = "grade_8"
	Grade9        GradeLevel = "grade_9"
	Grade10       GradeLevel = "grade_10"
	Grade11       GradeLevel = "grade_11"
	Grade12       GradeLevel = "grade_12"
	Grade13       GradeLevel = "grade_13"
	GradeLanguage GradeLevel = "language"
)

// Account is the base identity record. The role decides which profile, if any, hangs off it.
type Account struct {
	ID           uint          `json:"id" gorm:"primaryKey"`
	Email        string        `json:"email" gorm:"uniqueIndex;not null;size:254"`
	PasswordHash string        `json:"-" gorm:"not null;size:255"`
	FirstName    string        `json:"first_name" gorm:"size:150"`
	LastName     string        `json:"last_name" gorm:"size:150"`
	Role         UserRole      `json:"role" gorm:"not null;size:20;default:student;index"`
	Status       AccountStatus `json:"status" gorm:"not null;size:10;default:active;index"`
	IsStaff      bool          `json:"is_staff" gorm:"not null;default:false"`
	IsSuperuser  bool          `json:"is_superuser" gorm:"not null;default:false"`

	// Profile info
	Phone        string     `json:"phone" gorm:"size:15"`
	DateOfBirth  *time.Time `json:"date_of_birth" gorm:"type:date"`
	Address      string     `json:"address" gorm:"type:text"`
	ProfileImage *string    `json:"profile_image" gorm:"size:500"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

// FullName falls back to the email when no name is set.
func (a *Account) FullName() string {
	name := strings.TrimSpace(a.FirstName + " " + a.LastName)
	if name == "" {
		return a.Email
	}
	return name
}

func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleSuperAdmin
}

func (a *Account) IsActive() bool {
	return a.Status == AccountActive
}

type Student struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	AccountID       uint       `json:"account_id" gorm:"uniqueIndex;not null"`
	GradeLevel      GradeLevel `json:"grade_level" gorm:"not null;size:15"`
	ParentAccountID *uint      `json:"parent_account_id" gorm:"index"`
	EnrollmentDate  time.Time  `json:"enrollment_date" gorm:"type:date;not null"`
	StudentIDNumber string     `json:"student_id_number" gorm:"uniqueIndex;not null;size:20"`

	// Relations
	Account *Account `json:"account,omitempty" gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
	Parent  *Account `json:"parent,omitempty" gorm:"foreignKey:ParentAccountID;constraint:OnDelete:SET NULL"`
}

func (Student) TableName() string {
	return "students"
}

type Teacher struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	AccountID       uint           `json:"account_id" gorm:"uniqueIndex;not null"`
	Qualifications  string         `json:"qualifications" gorm:"type:text"`
	Subjects        datatypes.JSON `json:"subjects" gorm:"type:jsonb;not null;default:'[]'"`
	Bio             string         `json:"bio" gorm:"type:text"`
	ExperienceYears int            `json:"experience_years" gorm:"not null;default:0"`
	Rating          float64        `json:"rating" gorm:"type:numeric(3,2);not null;default:0"`
	HourlyRate      float64        `json:"hourly_rate" gorm:"type:numeric(10,2);not null;default:0"`
	IsVerified      bool           `json:"is_verified" gorm:"not null;default:false"`
	JoinedDate      time.Time      `json:"joined_date" gorm:"type:date;not null"`

	Account *Account `json:"account,omitempty" gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
}

func (Teacher) TableName() string {
	return "teachers"
}

func (t *Teacher) SubjectNames() []string {
	var names []string
	if len(t.Subjects) == 0 {
		return names
	}
	_ = json.Unmarshal(t.Subjects, &names)
	return names
}

func (t *Teacher) SubjectList() string {
	names := t.SubjectNames()
	if len(names) == 0 {
		return "No subjects"
	}
	return strings.Join(names, ", ")
}

type Parent struct {
	ID               uint   `json:"id" gorm:"primaryKey"`
	AccountID        uint   `json:"account_id" gorm:"uniqueIndex;not null"`
	Occupation       string `json:"occupation" gorm:"size:100"`
	EmergencyContact string `json:"emergency_contact" gorm:"size:15"`

	Account *Account `json:"account,omitempty" gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
}

func (Parent) TableName() string {
	return "parents"
}

// Profile is the role-tagged view of an account: at most one of the pointers is set,
// and which one matches Role.
type Profile struct {
	Account *Account `json:"account"`
	Role    UserRole `json:"role"`
	Student *Student `json:"student,omitempty"`
	Teacher *Teacher `json:"teacher,omitempty"`
	Parent  *Parent  `json:"parent,omitempty"`
}
