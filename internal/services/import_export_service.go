package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/repositories"
	"github.com/achievers-lc/learning-center/internal/utils"
)

const exportTimeLayout = "2006-01-02 15:04"

type importExportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewImportExportService(deps Dependencies) ImportExportService {
	deps = deps.withDefaults()
	return &importExportService{repo: deps.Repo, logger: deps.Logger}
}

// sheet is one worksheet: a title row, a header row, then data rows
type sheet struct {
	name    string
	title   string
	headers []string
	widths  []float64
	rows    [][]interface{}
}

func (s *importExportService) render(sh sheet) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sh.name)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	for i, w := range sh.widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sh.name, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	lastCol, _ := excelize.ColumnNumberToName(len(sh.headers))
	f.SetCellValue(sh.name, "A1", sh.title)
	f.MergeCell(sh.name, "A1", lastCol+"1")
	f.SetCellStyle(sh.name, "A1", "A1", headerStyle)

	for i, h := range sh.headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sh.name, cell, h)
	}
	f.SetCellStyle(sh.name, "A2", lastCol+"2", headerStyle)

	for r, row := range sh.rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+3)
			f.SetCellValue(sh.name, cell, v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}

// ExportAttendanceRegister writes one row per attendance record of the live class
func (s *importExportService) ExportAttendanceRegister(ctx context.Context, liveClassID uint) (*bytes.Buffer, string, error) {
	liveClass, err := s.repo.LiveClass().GetByID(ctx, liveClassID)
	if err != nil {
		return nil, "", notFoundOr(err, ErrLiveClassNotFound)
	}
	rows, err := s.repo.Attendance().ListByLiveClass(ctx, liveClassID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list attendance: %w", err)
	}

	sh := sheet{
		name:    "Attendance",
		title:   fmt.Sprintf("%s (%s)", liveClass.Title, liveClass.ScheduledAt.Format(exportTimeLayout)),
		headers: []string{"Student ID", "Name", "Status", "Method", "Check-in", "Check-out", "Device"},
		widths:  []float64{14, 28, 10, 14, 18, 18, 20},
	}
	for _, a := range rows {
		number, name := studentColumns(a.Student)
		sh.rows = append(sh.rows, []interface{}{
			number,
			name,
			string(a.Status),
			string(a.AttendanceMethod),
			formatTime(a.CheckInTime),
			formatTime(a.CheckOutTime),
			a.DeviceInfo,
		})
	}

	buf, err := s.render(sh)
	if err != nil {
		s.logger.Error("Failed to export attendance register", "live_class_id", liveClassID, "error", err)
		return nil, "", err
	}

	filename := fmt.Sprintf("attendance_%s_%s.xlsx", exportName(liveClass.Title, "live-class"), liveClass.ScheduledAt.Format("20060102"))
	s.logger.Info("Attendance register exported", "live_class_id", liveClassID, "rows", len(rows))
	return buf, filename, nil
}

// ExportCourseRoster writes every enrollment of the course, newest first
func (s *importExportService) ExportCourseRoster(ctx context.Context, courseID uint) (*bytes.Buffer, string, error) {
	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		return nil, "", notFoundOr(err, ErrCourseNotFound)
	}
	enrollments, _, err := s.repo.Enrollment().List(ctx, repositories.EnrollmentFilters{CourseID: &courseID})
	if err != nil {
		return nil, "", fmt.Errorf("failed to list enrollments: %w", err)
	}

	sh := sheet{
		name:    "Roster",
		title:   course.Title,
		headers: []string{"Student ID", "Name", "Email", "Enrolled", "Status", "Payment", "Completion %", "Grade"},
		widths:  []float64{14, 28, 30, 18, 12, 10, 14, 8},
	}
	for _, e := range enrollments {
		number, name := studentColumns(e.Student)
		email := ""
		if e.Student != nil && e.Student.Account != nil {
			email = e.Student.Account.Email
		}
		sh.rows = append(sh.rows, []interface{}{
			number,
			name,
			email,
			e.EnrollmentDate.Format(exportTimeLayout),
			string(e.Status),
			string(e.PaymentStatus),
			e.CompletionPercentage,
			e.Grade,
		})
	}

	buf, err := s.render(sh)
	if err != nil {
		s.logger.Error("Failed to export course roster", "course_id", courseID, "error", err)
		return nil, "", err
	}

	filename := fmt.Sprintf("roster_%s.xlsx", exportName(course.Slug, "course"))
	s.logger.Info("Course roster exported", "course_id", courseID, "rows", len(enrollments))
	return buf, filename, nil
}

func studentColumns(student *models.Student) (string, string) {
	if student == nil {
		return "", ""
	}
	name := ""
	if student.Account != nil {
		name = student.Account.FullName()
	}
	return student.StudentIDNumber, name
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(exportTimeLayout)
}

func exportName(raw, fallback string) string {
	if slug := utils.Slugify(raw); slug != "" {
		return slug
	}
	return fallback
}
