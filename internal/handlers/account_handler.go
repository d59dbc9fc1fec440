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

type AccountHandler struct {
	BaseHandler
	service services.UserService
}

func NewAccountHandler(service services.UserService, logger utils.Logger) *AccountHandler {
	return &AccountHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ===== ACCOUNTS =====

// Register creates a local account
// @Summary Register account
// @Tags accounts
// @Accept json
// @Produce json
// @Param account body services.RegisterRequest true "Account data"
// @Success 201 {object} models.Account
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Email already registered"
// @Router /accounts [post]
func (h *AccountHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	account, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, account)
}

// ListAccounts supports role, status and q filters
// @Summary List accounts
// @Tags accounts
// @Produce json
// @Param role query string false "Role"
// @Param status query string false "Status"
// @Param q query string false "Matches name or email"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Router /accounts [get]
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	filters := repositories.AccountFilters{
		Role:   stringQuery[models.UserRole](c, "role"),
		Status: stringQuery[models.AccountStatus](c, "status"),
		Query:  c.Query("q"),
	}

	list, err := h.service.ListAccounts(c.Request.Context(), filters, pageParams(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *AccountHandler) GetAccount(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	account, err := h.service.GetAccount(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

// Me returns the authenticated account with its profile
func (h *AccountHandler) Me(c *gin.Context) {
	account, _ := CurrentAccount(c)

	profile, err := h.service.GetProfile(c.Request.Context(), account.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *AccountHandler) UpdateMe(c *gin.Context) {
	account, _ := CurrentAccount(c)
	h.updateAccount(c, account.ID)
}

func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	h.updateAccount(c, id)
}

func (h *AccountHandler) updateAccount(c *gin.Context, id uint) {
	var req services.UpdateAccountRequest
	if !h.bindJSON(c, &req) {
		return
	}

	account, err := h.service.UpdateAccount(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

func (h *AccountHandler) ChangeMyPassword(c *gin.Context) {
	account, _ := CurrentAccount(c)

	var req services.ChangePasswordRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), account.ID, &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Password changed", nil)
}

// ChangeStatus activates, deactivates or suspends an account
func (h *AccountHandler) ChangeStatus(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req validator.ChangeStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	account, err := h.service.ChangeStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteAccount(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== PROFILES =====

func (h *AccountHandler) GetProfile(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// AttachStudentProfile
// @Summary Attach student profile
// @Description Creates the student profile of a student-role account and assigns its student ID number
// @Tags profiles
// @Accept json
// @Produce json
// @Param id path int true "Account ID"
// @Success 201 {object} models.Student
// @Failure 409 {object} ErrorResponse "Profile already exists"
// @Failure 422 {object} ErrorResponse "Account role does not match"
// @Router /accounts/{id}/profile/student [post]
func (h *AccountHandler) AttachStudentProfile(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.StudentProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	student, err := h.service.AttachStudentProfile(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, student)
}

func (h *AccountHandler) UpdateStudentProfile(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateStudentProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	student, err := h.service.UpdateStudentProfile(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, student)
}

func (h *AccountHandler) AttachTeacherProfile(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.TeacherProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	teacher, err := h.service.AttachTeacherProfile(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, teacher)
}

func (h *AccountHandler) UpdateTeacherProfile(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateTeacherProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	teacher, err := h.service.UpdateTeacherProfile(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, teacher)
}

func (h *AccountHandler) AttachParentProfile(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.ParentProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	parent, err := h.service.AttachParentProfile(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, parent)
}

func (h *AccountHandler) UpdateParentProfile(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateParentProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	parent, err := h.service.UpdateParentProfile(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, parent)
}

// ListChildren is open to admins and to the parent themself
func (h *AccountHandler) ListChildren(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	actor, _ := CurrentAccount(c)
	if !actor.IsAdmin() && actor.ID != id {
		h.handleServiceError(c, services.NewPermissionError(actor.ID, id, "children", "list", "only the parent or an admin may list children"))
		return
	}

	children, err := h.service.ListChildren(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, children)
}
