package models

import (
	"time"
)

type CourseType string

const (
	CoursePhysical   CourseType = "physical"
	CourseOnlineLive CourseType = "online_live"
	CourseRecorded   CourseType = "recorded"
	CourseHybrid     CourseType = "hybrid"
)

type CourseLanguage string

const (
	LanguageEnglish CourseLanguage = "english"
	LanguageSinhala CourseLanguage = "sinhala"
	LanguageTamil   CourseLanguage = "tamil"
)

type CourseStatus string

const (
	CourseDraft     CourseStatus = "draft"
	CoursePublished CourseStatus = "published"
	CourseArchived  CourseStatus = "archived"
)

type Course struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	Title           string         `json:"title" gorm:"not null;size:200;index"`
	Slug            string         `json:"slug" gorm:"uniqueIndex;not null;size:255"`
	Description     string         `json:"description" gorm:"type:text"`
	GradeLevel      string         `json:"grade_level" gorm:"size:15"`
	Subject         string         `json:"subject" gorm:"size:100;index"`
	TeacherID       uint           `json:"teacher_id" gorm:"not null;index"`
	CourseType      CourseType     `json:"course_type" gorm:"not null;size:20;default:recorded"`
	Language        CourseLanguage `json:"language" gorm:"not null;size:10;default:english"`
	DurationWeeks   int            `json:"duration_weeks" gorm:"not null;default:12"`
	Price           float64        `json:"price" gorm:"type:numeric(10,2);not null;default:0"`
	Thumbnail       *string        `json:"thumbnail" gorm:"size:500"`
	Syllabus        string         `json:"syllabus" gorm:"type:text"`
	Prerequisites   string         `json:"prerequisites" gorm:"type:text"`
	Status          CourseStatus   `json:"status" gorm:"not null;size:10;default:draft;index"`
	EnrollmentLimit *int           `json:"enrollment_limit"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Teacher *Teacher       `json:"teacher,omitempty" gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE"`
	Modules []CourseModule `json:"modules,omitempty" gorm:"foreignKey:CourseID"`
}

func (Course) TableName() string {
	return "courses"
}

// CourseCapacity is recomputed from live enrollment rows on every read.
type CourseCapacity struct {
	CourseID        uint  `json:"course_id"`
	EnrollmentCount int64 `json:"enrollment_count"`
	EnrollmentLimit *int  `json:"enrollment_limit"`
	IsFull          bool  `json:"is_full"`
}

// NewCourseCapacity derives fullness; a nil or zero limit means unlimited.
func NewCourseCapacity(course *Course, activeCount int64) *CourseCapacity {
	capacity := &CourseCapacity{
		CourseID:        course.ID,
		EnrollmentCount: activeCount,
		EnrollmentLimit: course.EnrollmentLimit,
	}
	if course.EnrollmentLimit != nil && *course.EnrollmentLimit > 0 {
		capacity.IsFull = activeCount >= int64(*course.EnrollmentLimit)
	}
	return capacity
}

type CourseModule struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CourseID    uint      `json:"course_id" gorm:"not null;index"`
	Title       string    `json:"title" gorm:"not null;size:200"`
	Description string    `json:"description" gorm:"type:text"`
	OrderIndex  int       `json:"order_index" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at"`

	Course  *Course  `json:"-" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	Lessons []Lesson `json:"lessons,omitempty" gorm:"foreignKey:ModuleID"`
}

func (CourseModule) TableName() string {
	return "course_modules"
}

type ContentType string

const (
	ContentVideo   ContentType = "video"
	ContentArticle ContentType = "article"
	ContentQuiz    ContentType = "quiz"
	ContentFile    ContentType = "file"
)

type Lesson struct {
	ID              uint        `json:"id" gorm:"primaryKey"`
	ModuleID        uint        `json:"module_id" gorm:"not null;index"`
	Title           string      `json:"title" gorm:"not null;size:200"`
	ContentType     ContentType `json:"content_type" gorm:"not null;size:10;default:video"`
	VideoURL        string      `json:"video_url" gorm:"size:500"`
	ArticleContent  string      `json:"article_content" gorm:"type:text"`
	FileAttachment  *string     `json:"file_attachment" gorm:"size:500"`
	DurationMinutes int         `json:"duration_minutes" gorm:"not null;default:0"`
	OrderIndex      int         `json:"order_index" gorm:"not null;default:0"`
	IsFreePreview   bool        `json:"is_free_preview" gorm:"not null;default:false"`
	CreatedAt       time.Time   `json:"created_at"`

	Module *CourseModule `json:"-" gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE"`
}

func (Lesson) TableName() string {
	return "lessons"
}
