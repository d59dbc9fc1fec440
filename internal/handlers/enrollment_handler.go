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

type EnrollmentHandler struct {
	BaseHandler
	service services.EnrollmentService
}

func NewEnrollmentHandler(service services.EnrollmentService, logger utils.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// Enroll
// @Summary Enroll a student in a course
// @Tags enrollments
// @Accept json
// @Produce json
// @Param enrollment body services.EnrollRequest true "Student and course"
// @Success 201 {object} models.Enrollment
// @Failure 404 {object} ErrorResponse "Student or course not found"
// @Failure 409 {object} ErrorResponse "Already enrolled"
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req services.EnrollRequest
	if !h.bindJSON(c, &req) {
		return
	}

	enrollment, err := h.service.Enroll(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, enrollment)
}

func (h *EnrollmentHandler) GetEnrollment(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	enrollment, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

func (h *EnrollmentHandler) ListByStudent(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	filters := repositories.EnrollmentFilters{
		Status:        stringQuery[models.EnrollmentStatus](c, "status"),
		PaymentStatus: stringQuery[models.PaymentStatus](c, "payment_status"),
	}

	list, err := h.service.ListByStudent(c.Request.Context(), id, filters, pageParams(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *EnrollmentHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req validator.EnrollmentStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	enrollment, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

func (h *EnrollmentHandler) UpdatePaymentStatus(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req validator.PaymentStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	enrollment, err := h.service.UpdatePaymentStatus(c.Request.Context(), id, req.PaymentStatus)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

func (h *EnrollmentHandler) SetCompletion(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req validator.CompletionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	enrollment, err := h.service.SetCompletion(c.Request.Context(), id, req.CompletionPercentage)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

func (h *EnrollmentHandler) SetGrade(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req validator.GradeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	enrollment, err := h.service.SetGrade(c.Request.Context(), id, req.Grade)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

func (h *EnrollmentHandler) Cancel(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	enrollment, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

// RecordProgress adds a study session to one lesson of the enrollment's course
func (h *EnrollmentHandler) RecordProgress(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.LessonProgressRequest
	if !h.bindJSON(c, &req) {
		return
	}

	progress, err := h.service.RecordLessonProgress(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

func (h *EnrollmentHandler) ListProgress(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	progress, err := h.service.ListLessonProgress(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}
