package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/repositories"
	"github.com/achievers-lc/learning-center/internal/services"
	"github.com/achievers-lc/learning-center/internal/utils"
	"github.com/achievers-lc/learning-center/internal/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type CourseHandler struct {
	BaseHandler
	courses     services.CourseService
	enrollments services.EnrollmentService
	exports     services.ImportExportService
}

func NewCourseHandler(
	courses services.CourseService,
	enrollments services.EnrollmentService,
	exports services.ImportExportService,
	logger utils.Logger,
) *CourseHandler {
	return &CourseHandler{
		BaseHandler: NewBaseHandler(logger),
		courses:     courses,
		enrollments: enrollments,
		exports:     exports,
	}
}

// CreateCourse creates a draft course owned by the calling teacher
// @Summary Create course
// @Description Teachers create courses for themselves; admins pass teacher_id
// @Tags courses
// @Accept json
// @Produce json
// @Param course body services.CreateCourseRequest true "Course data"
// @Success 201 {object} models.Course
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse "Caller has no teacher profile"
// @Router /courses [post]
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req services.CreateCourseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	actor, _ := CurrentAccount(c)
	course, err := h.courses.Create(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, course)
}

// ListCourses lists the catalog. Accounts outside staff only see published courses.
// @Summary List courses
// @Tags courses
// @Produce json
// @Param status query string false "draft, published or archived"
// @Param teacher_id query int false "Owning teacher"
// @Param subject query string false "Subject"
// @Param grade_level query string false "Grade level"
// @Param course_type query string false "physical, online_live, recorded or hybrid"
// @Param q query string false "Matches title or description"
// @Param sort_by query string false "created_at, title or price"
// @Param sort_order query string false "asc or desc"
// @Router /courses [get]
func (h *CourseHandler) ListCourses(c *gin.Context) {
	filters := repositories.CourseFilters{
		Status:     stringQuery[models.CourseStatus](c, "status"),
		TeacherID:  parseUintQuery(c, "teacher_id"),
		Subject:    c.Query("subject"),
		GradeLevel: c.Query("grade_level"),
		CourseType: stringQuery[models.CourseType](c, "course_type"),
		Query:      c.Query("q"),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
	}

	if actor, _ := CurrentAccount(c); !isStaff(actor) {
		published := models.CoursePublished
		filters.Status = &published
	}

	list, err := h.courses.List(c.Request.Context(), filters, pageParams(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *CourseHandler) GetCourse(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	course, err := h.courses.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) GetCourseBySlug(c *gin.Context) {
	course, err := h.courses.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// GetOutline returns the course with its ordered modules and lessons
func (h *CourseHandler) GetOutline(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	course, err := h.courses.Outline(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) GetCapacity(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	capacity, err := h.courses.Capacity(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, capacity)
}

func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateCourseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	actor, _ := CurrentAccount(c)
	course, err := h.courses.Update(c.Request.Context(), id, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) SetStatus(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req validator.CourseStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	actor, _ := CurrentAccount(c)
	course, err := h.courses.SetStatus(c.Request.Context(), id, req.Status, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) PublishCourse(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	actor, _ := CurrentAccount(c)
	course, err := h.courses.Publish(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) ArchiveCourse(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	actor, _ := CurrentAccount(c)
	course, err := h.courses.Archive(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	actor, _ := CurrentAccount(c)
	if err := h.courses.Delete(c.Request.Context(), id, actor); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListEnrollments lists the enrollments of one course
func (h *CourseHandler) ListEnrollments(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	filters := repositories.EnrollmentFilters{
		Status:        stringQuery[models.EnrollmentStatus](c, "status"),
		PaymentStatus: stringQuery[models.PaymentStatus](c, "payment_status"),
	}

	list, err := h.enrollments.ListByCourse(c.Request.Context(), id, filters, pageParams(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// ExportRoster downloads the course roster as an xlsx workbook
func (h *CourseHandler) ExportRoster(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	buf, filename, err := h.exports.ExportCourseRoster(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ===== MODULES =====

func (h *CourseHandler) ListModules(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	modules, err := h.courses.ListModules(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, modules)
}

func (h *CourseHandler) AddModule(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.ModuleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	actor, _ := CurrentAccount(c)
	module, err := h.courses.AddModule(c.Request.Context(), id, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, module)
}

func (h *CourseHandler) UpdateModule(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateModuleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	actor, _ := CurrentAccount(c)
	module, err := h.courses.UpdateModule(c.Request.Context(), id, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, module)
}

func (h *CourseHandler) DeleteModule(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	actor, _ := CurrentAccount(c)
	if err := h.courses.DeleteModule(c.Request.Context(), id, actor); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== LESSONS =====

func (h *CourseHandler) ListLessons(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	lessons, err := h.courses.ListLessons(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, lessons)
}

func (h *CourseHandler) AddLesson(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.LessonRequest
	if !h.bindJSON(c, &req) {
		return
	}

	actor, _ := CurrentAccount(c)
	lesson, err := h.courses.AddLesson(c.Request.Context(), id, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, lesson)
}

func (h *CourseHandler) UpdateLesson(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateLessonRequest
	if !h.bindJSON(c, &req) {
		return
	}

	actor, _ := CurrentAccount(c)
	lesson, err := h.courses.UpdateLesson(c.Request.Context(), id, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, lesson)
}

func (h *CourseHandler) DeleteLesson(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	actor, _ := CurrentAccount(c)
	if err := h.courses.DeleteLesson(c.Request.Context(), id, actor); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func isStaff(account *models.Account) bool {
	return account != nil && (account.IsAdmin() || account.IsStaff || account.Role == models.RoleTeacher)
}
