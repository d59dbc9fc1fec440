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

type AttendanceHandler struct {
	BaseHandler
	service services.AttendanceService
	exports services.ImportExportService
}

func NewAttendanceHandler(service services.AttendanceService, exports services.ImportExportService, logger utils.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		exports:     exports,
	}
}

type scheduleLiveClassRequest struct {
	CourseID uint `json:"course_id"`
	services.LiveClassRequest
}

// ===== BARCODES =====

func (h *AttendanceHandler) GetBarcode(c *gin.Context) {
	studentID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	barcode, err := h.service.GetBarcode(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, barcode)
}

// IssueBarcode
// @Summary Issue a student barcode
// @Description Seals the student ID number into a scan payload and renders Code128 and QR images
// @Tags barcodes
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param request body validator.IssueBarcodeRequest false "Optional expiry"
// @Success 201 {object} models.StudentBarcode
// @Failure 404 {object} ErrorResponse "Student not found"
// @Failure 409 {object} ErrorResponse "Student already has a barcode"
// @Router /students/{id}/barcode [post]
func (h *AttendanceHandler) IssueBarcode(c *gin.Context) {
	studentID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req validator.IssueBarcodeRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	barcode, err := h.service.IssueBarcode(c.Request.Context(), studentID, req.ExpiresAt)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, barcode)
}

// ReissueBarcode replaces the payload and images of an existing barcode
func (h *AttendanceHandler) ReissueBarcode(c *gin.Context) {
	studentID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req validator.IssueBarcodeRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	barcode, err := h.service.ReissueBarcode(c.Request.Context(), studentID, req.ExpiresAt)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, barcode)
}

func (h *AttendanceHandler) RevokeBarcode(c *gin.Context) {
	studentID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	barcode, err := h.service.RevokeBarcode(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, barcode)
}

// ===== LIVE CLASSES =====

func (h *AttendanceHandler) ScheduleLiveClass(c *gin.Context) {
	var req scheduleLiveClassRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if req.CourseID == 0 {
		h.handleServiceError(c, services.NewValidationError("course_id", "is required", nil))
		return
	}

	liveClass, err := h.service.ScheduleLiveClass(c.Request.Context(), req.CourseID, &req.LiveClassRequest)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, liveClass)
}

func (h *AttendanceHandler) ListLiveClasses(c *gin.Context) {
	filters := repositories.LiveClassFilters{
		CourseID: parseUintQuery(c, "course_id"),
		Status:   stringQuery[models.LiveClassStatus](c, "status"),
		From:     parseTimeQuery(c, "from"),
		To:       parseTimeQuery(c, "to"),
	}

	list, err := h.service.ListLiveClasses(c.Request.Context(), filters, pageParams(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *AttendanceHandler) GetLiveClass(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	liveClass, err := h.service.GetLiveClass(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, liveClass)
}

func (h *AttendanceHandler) UpdateLiveClass(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateLiveClassRequest
	if !h.bindJSON(c, &req) {
		return
	}

	liveClass, err := h.service.UpdateLiveClass(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, liveClass)
}

func (h *AttendanceHandler) SetLiveClassStatus(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req validator.LiveClassStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	liveClass, err := h.service.SetLiveClassStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, liveClass)
}

// ===== REGISTER =====

func (h *AttendanceHandler) ListAttendance(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	rows, err := h.service.ListAttendance(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

// RecordAttendance writes a register entry by hand; the live class comes from the path
func (h *AttendanceHandler) RecordAttendance(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.RecordAttendanceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.LiveClassID = id
	req.IPAddress = c.ClientIP()

	attendance, err := h.service.RecordAttendance(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attendance)
}

// ScanCheckIn
// @Summary Check a student in by barcode or QR scan
// @Description Every attempt is written to the attendance log, including rejected ones
// @Tags attendance
// @Accept json
// @Produce json
// @Param scan body services.ScanRequest true "Live class and scanned payload"
// @Success 200 {object} services.ScanResult
// @Failure 403 {object} ErrorResponse "Barcode or account not usable"
// @Failure 404 {object} ErrorResponse "Unknown barcode or live class"
// @Failure 409 {object} ErrorResponse "Already checked in"
// @Router /attendance/scan [post]
func (h *AttendanceHandler) ScanCheckIn(c *gin.Context) {
	var req services.ScanRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.IPAddress = c.ClientIP()

	result, err := h.service.ScanCheckIn(c.Request.Context(), &req)
	if err != nil {
		h.LogRequest(c, "Scan rejected", "live_class_id", req.LiveClassID, "device_id", req.DeviceID, "error", err)
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AttendanceHandler) CheckOut(c *gin.Context) {
	var req services.CheckOutRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.IPAddress = c.ClientIP()

	result, err := h.service.CheckOut(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListLogs returns the scan audit trail, newest first
func (h *AttendanceHandler) ListLogs(c *gin.Context) {
	filters := repositories.AttendanceLogFilters{
		StudentID:   parseUintQuery(c, "student_id"),
		LiveClassID: parseUintQuery(c, "live_class_id"),
		Action:      stringQuery[models.AttendanceAction](c, "action"),
		Success:     parseBoolQuery(c, "success"),
		DateFrom:    parseTimeQuery(c, "date_from"),
		DateTo:      parseTimeQuery(c, "date_to"),
	}

	list, err := h.service.ListLogs(c.Request.Context(), filters, pageParams(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *AttendanceHandler) ExportRegister(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	buf, filename, err := h.exports.ExportAttendanceRegister(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// bindOptionalJSON accepts an empty body
func (h *AttendanceHandler) bindOptionalJSON(c *gin.Context, dst interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return h.bindJSON(c, dst)
}
