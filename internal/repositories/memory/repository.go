// Package memory is an in-memory Repository. It enforces the unique keys, foreign keys,
// cascades and SET NULL rules of the Postgres schema, and rolls a transaction back when its
// callback fails. Transactions are serialized.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/repositories"
)

type tables struct {
	nextID map[string]uint

	accounts    map[uint]models.Account
	students    map[uint]models.Student
	teachers    map[uint]models.Teacher
	parents     map[uint]models.Parent
	courses     map[uint]models.Course
	modules     map[uint]models.CourseModule
	lessons     map[uint]models.Lesson
	enrollments map[uint]models.Enrollment
	progress    map[uint]models.LessonProgress
	barcodes    map[uint]models.StudentBarcode
	liveClasses map[uint]models.LiveClass
	attendances map[uint]models.Attendance
	logs        map[uint]models.AttendanceLog
}

func newTables() *tables {
	return &tables{
		nextID:      map[string]uint{},
		accounts:    map[uint]models.Account{},
		students:    map[uint]models.Student{},
		teachers:    map[uint]models.Teacher{},
		parents:     map[uint]models.Parent{},
		courses:     map[uint]models.Course{},
		modules:     map[uint]models.CourseModule{},
		lessons:     map[uint]models.Lesson{},
		enrollments: map[uint]models.Enrollment{},
		progress:    map[uint]models.LessonProgress{},
		barcodes:    map[uint]models.StudentBarcode{},
		liveClasses: map[uint]models.LiveClass{},
		attendances: map[uint]models.Attendance{},
		logs:        map[uint]models.AttendanceLog{},
	}
}

func (t *tables) clone() *tables {
	return &tables{
		nextID:      maps.Clone(t.nextID),
		accounts:    maps.Clone(t.accounts),
		students:    maps.Clone(t.students),
		teachers:    maps.Clone(t.teachers),
		parents:     maps.Clone(t.parents),
		courses:     maps.Clone(t.courses),
		modules:     maps.Clone(t.modules),
		lessons:     maps.Clone(t.lessons),
		enrollments: maps.Clone(t.enrollments),
		progress:    maps.Clone(t.progress),
		barcodes:    maps.Clone(t.barcodes),
		liveClasses: maps.Clone(t.liveClasses),
		attendances: maps.Clone(t.attendances),
		logs:        maps.Clone(t.logs),
	}
}

func (t *tables) id(table string) uint {
	t.nextID[table]++
	return t.nextID[table]
}

type store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	t    *tables
}

// Repository implements repositories.Repository
type Repository struct {
	s    *store
	inTx bool
}

func New() *Repository {
	return &Repository{s: &store{t: newTables()}}
}

func (r *Repository) Account() repositories.AccountRepository { return &accountRepo{r.s} }
func (r *Repository) Student() repositories.StudentRepository { return &studentRepo{r.s} }
func (r *Repository) Teacher() repositories.TeacherRepository { return &teacherRepo{r.s} }
func (r *Repository) Parent() repositories.ParentRepository   { return &parentRepo{r.s} }
func (r *Repository) Course() repositories.CourseRepository   { return &courseRepo{r.s} }
func (r *Repository) CourseModule() repositories.CourseModuleRepository {
	return &moduleRepo{r.s}
}
func (r *Repository) Lesson() repositories.LessonRepository { return &lessonRepo{r.s} }
func (r *Repository) Enrollment() repositories.EnrollmentRepository {
	return &enrollmentRepo{r.s}
}
func (r *Repository) LessonProgress() repositories.LessonProgressRepository {
	return &progressRepo{r.s}
}
func (r *Repository) Barcode() repositories.BarcodeRepository     { return &barcodeRepo{r.s} }
func (r *Repository) LiveClass() repositories.LiveClassRepository { return &liveClassRepo{r.s} }
func (r *Repository) Attendance() repositories.AttendanceRepository {
	return &attendanceRepo{r.s}
}
func (r *Repository) AttendanceLog() repositories.AttendanceLogRepository {
	return &logRepo{r.s}
}

// WithTransaction runs fn against a snapshot; the snapshot is restored when fn fails.
// A nested call joins the outer transaction.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()

	r.s.mu.Lock()
	snapshot := r.s.t.clone()
	r.s.mu.Unlock()

	if err := fn(&Repository{s: r.s, inTx: true}); err != nil {
		r.s.mu.Lock()
		r.s.t = snapshot
		r.s.mu.Unlock()
		return err
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error { return ctx.Err() }
func (r *Repository) Close() error                   { return nil }

// Counts reports the number of rows per table
func (r *Repository) Counts() map[string]int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := r.s.t
	return map[string]int{
		"accounts":         len(t.accounts),
		"students":         len(t.students),
		"teachers":         len(t.teachers),
		"parents":          len(t.parents),
		"courses":          len(t.courses),
		"course_modules":   len(t.modules),
		"lessons":          len(t.lessons),
		"enrollments":      len(t.enrollments),
		"lesson_progress":  len(t.progress),
		"student_barcodes": len(t.barcodes),
		"live_classes":     len(t.liveClasses),
		"attendances":      len(t.attendances),
		"attendance_logs":  len(t.logs),
	}
}

// ===== ERRORS =====

func notFound(op string) error {
	return fmt.Errorf("failed to %s: %w", op, repositories.ErrNotFound)
}

func duplicate(op, constraint string) error {
	return fmt.Errorf("failed to %s: %w", op, &repositories.DuplicateError{Constraint: constraint})
}

func foreignKey(op, constraint string) error {
	return fmt.Errorf("failed to %s: %w: %s", op, repositories.ErrForeignKeyViolation, constraint)
}

// ===== PAGING =====

func page[T any](rows []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(rows) {
			return []T{}
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func now() time.Time { return time.Now().UTC() }

// ===== CASCADES =====

func (t *tables) deleteAccount(id uint) {
	for sid, s := range t.students {
		if s.AccountID == id {
			t.deleteStudent(sid)
		} else if s.ParentAccountID != nil && *s.ParentAccountID == id {
			s.ParentAccountID = nil
			t.students[sid] = s
		}
	}
	for tid, teacher := range t.teachers {
		if teacher.AccountID == id {
			t.deleteTeacher(tid)
		}
	}
	for pid, p := range t.parents {
		if p.AccountID == id {
			delete(t.parents, pid)
		}
	}
	delete(t.accounts, id)
}

func (t *tables) deleteStudent(id uint) {
	for eid, e := range t.enrollments {
		if e.StudentID == id {
			t.deleteEnrollment(eid)
		}
	}
	for bid, b := range t.barcodes {
		if b.StudentID == id {
			delete(t.barcodes, bid)
		}
	}
	for aid, a := range t.attendances {
		if a.StudentID == id {
			t.deleteAttendance(aid)
		}
	}
	for lid, l := range t.logs {
		if l.StudentID != nil && *l.StudentID == id {
			delete(t.logs, lid)
		}
	}
	delete(t.students, id)
}

func (t *tables) deleteTeacher(id uint) {
	for cid, c := range t.courses {
		if c.TeacherID == id {
			t.deleteCourse(cid)
		}
	}
	delete(t.teachers, id)
}

func (t *tables) deleteCourse(id uint) {
	for mid, m := range t.modules {
		if m.CourseID == id {
			t.deleteModule(mid)
		}
	}
	for eid, e := range t.enrollments {
		if e.CourseID == id {
			t.deleteEnrollment(eid)
		}
	}
	for lid, lc := range t.liveClasses {
		if lc.CourseID == id {
			t.deleteLiveClass(lid)
		}
	}
	delete(t.courses, id)
}

func (t *tables) deleteModule(id uint) {
	for lid, l := range t.lessons {
		if l.ModuleID == id {
			t.deleteLesson(lid)
		}
	}
	delete(t.modules, id)
}

func (t *tables) deleteLesson(id uint) {
	for pid, p := range t.progress {
		if p.LessonID == id {
			delete(t.progress, pid)
		}
	}
	delete(t.lessons, id)
}

func (t *tables) deleteEnrollment(id uint) {
	for pid, p := range t.progress {
		if p.EnrollmentID == id {
			delete(t.progress, pid)
		}
	}
	delete(t.enrollments, id)
}

func (t *tables) deleteLiveClass(id uint) {
	for aid, a := range t.attendances {
		if a.LiveClassID == id {
			t.deleteAttendance(aid)
		}
	}
	for lid, l := range t.logs {
		if l.LiveClassID != nil && *l.LiveClassID == id {
			delete(t.logs, lid)
		}
	}
	delete(t.liveClasses, id)
}

func (t *tables) deleteAttendance(id uint) {
	for lid, l := range t.logs {
		if l.AttendanceID != nil && *l.AttendanceID == id {
			delete(t.logs, lid)
		}
	}
	delete(t.attendances, id)
}

// ===== PRELOADS =====

func (t *tables) accountPtr(id uint) *models.Account {
	a, ok := t.accounts[id]
	if !ok {
		return nil
	}
	return &a
}

func (t *tables) studentWithAccount(id uint) *models.Student {
	s, ok := t.students[id]
	if !ok {
		return nil
	}
	s.Account = t.accountPtr(s.AccountID)
	return &s
}

func (t *tables) teacherWithAccount(id uint) *models.Teacher {
	teacher, ok := t.teachers[id]
	if !ok {
		return nil
	}
	teacher.Account = t.accountPtr(teacher.AccountID)
	return &teacher
}

func (t *tables) coursePtr(id uint) *models.Course {
	c, ok := t.courses[id]
	if !ok {
		return nil
	}
	return &c
}
