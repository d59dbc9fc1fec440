package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/services"
	"github.com/achievers-lc/learning-center/internal/utils"
)

type ErrorResponse = models.ErrorResponse
type SuccessResponse = models.SuccessResponse

// BaseHandler carries the logging and error mapping shared by every handler
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// requestLogger prefers the request scoped logger set by ContextLogger
func (h *BaseHandler) requestLogger(c *gin.Context) utils.Logger {
	if logger, ok := c.Get("logger"); ok {
		if l, ok := logger.(utils.Logger); ok {
			return l
		}
	}
	return h.logger
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	args = append([]any{"method", c.Request.Method, "path", c.FullPath()}, args...)
	h.requestLogger(c).Debug(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string) {
	h.requestLogger(c).Error(msg, "error", err, "path", c.Request.URL.Path)
}

func (h *BaseHandler) RespondWithError(c *gin.Context, status int, code, message string, details interface{}) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		Path:      c.Request.URL.Path,
	})
}

func (h *BaseHandler) RespondWithSuccess(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, SuccessResponse{
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// handleServiceError maps typed service errors onto HTTP statuses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.RespondWithError(c, http.StatusBadRequest, "validation_failed", "Validation failed", validationErrors)
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		h.RespondWithError(c, http.StatusForbidden, "forbidden", "Access denied", map[string]interface{}{
			"resource": permissionError.Resource,
			"action":   permissionError.Action,
			"reason":   permissionError.Reason,
		})
		return
	}

	var notFound *services.NotFoundError
	if errors.As(err, &notFound) {
		h.RespondWithError(c, http.StatusNotFound, "not_found", notFound.Error(), nil)
		return
	}

	var conflict *services.ConflictError
	if errors.As(err, &conflict) {
		h.RespondWithError(c, http.StatusConflict, "conflict", conflict.Error(), map[string]interface{}{
			"field":      conflict.Field,
			"constraint": conflict.Constraint,
		})
		return
	}

	var integrity *services.IntegrityError
	if errors.As(err, &integrity) {
		h.RespondWithError(c, http.StatusUnprocessableEntity, "integrity_violation", integrity.Message, map[string]interface{}{
			"field": integrity.Field,
		})
		return
	}

	h.LogError(c, err, "Unhandled service error")
	h.RespondWithError(c, http.StatusInternalServerError, "internal_error", "Internal server error", nil)
}

// bindJSON decodes the body into dst and answers 400 when it is malformed
func (h *BaseHandler) bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid_payload", "Invalid request payload", err.Error())
		return false
	}
	return true
}

func (h *BaseHandler) parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		h.RespondWithError(c, http.StatusBadRequest, "invalid_id", "Invalid "+name, c.Param(name))
		return 0, false
	}
	return uint(id), true
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return value
}

func parseUintQuery(c *gin.Context, key string) *uint {
	value, err := strconv.ParseUint(c.Query(key), 10, 64)
	if err != nil || value == 0 {
		return nil
	}
	id := uint(value)
	return &id
}

func parseBoolQuery(c *gin.Context, key string) *bool {
	value, err := strconv.ParseBool(c.Query(key))
	if err != nil {
		return nil
	}
	return &value
}

// parseTimeQuery accepts RFC3339 or a bare date
func parseTimeQuery(c *gin.Context, key string) *time.Time {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

// stringQuery returns a typed pointer for an optional enum filter
func stringQuery[T ~string](c *gin.Context, key string) *T {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	value := T(raw)
	return &value
}

func pageParams(c *gin.Context) models.PageParams {
	return models.PageParams{
		Page: parseIntQuery(c, "page", 1),
		Size: parseIntQuery(c, "size", 20),
	}.Normalize()
}
