package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/admin_api/internal/models"
	"github.com/GTDGit/admin_api/internal/service"
	"github.com/GTDGit/admin_api/internal/utils"
)

// AdminUserHandler exposes account management endpoints. All routes are
// capability-gated in the router; only roles holding manage_users reach
// the mutating handlers.
type AdminUserHandler struct {
	userService *service.AdminUserService
}

func NewAdminUserHandler(userService *service.AdminUserService) *AdminUserHandler {
	return &AdminUserHandler{userService: userService}
}

// List returns all accounts ordered by "<last>, <first>". An optional
// ?role= query narrows the result to one role.
func (h *AdminUserHandler) List(c *gin.Context) {
	if roleParam := c.Query("role"); roleParam != "" {
		users, err := h.userService.ListByRole(models.Role(roleParam))
		if err != nil {
			h.writeError(c, err)
			return
		}
		utils.Success(c, 200, "OK", users)
		return
	}

	users, err := h.userService.ListByName()
	if err != nil {
		h.writeError(c, err)
		return
	}
	utils.Success(c, 200, "OK", users)
}

func (h *AdminUserHandler) Create(c *gin.Context) {
	var req service.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	user, err := h.userService.Create(&req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	utils.Success(c, 201, "Admin account created", user)
}

func (h *AdminUserHandler) Get(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	user, err := h.userService.Get(id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	utils.Success(c, 200, "OK", user)
}

func (h *AdminUserHandler) Update(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}

	var req service.UpdateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	user, err := h.userService.Update(id, &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	utils.Success(c, 200, "Admin account updated", user)
}

func (h *AdminUserHandler) ChangeRole(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}

	var req struct {
		Role models.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	user, err := h.userService.ChangeRole(id, req.Role)
	if err != nil {
		h.writeError(c, err)
		return
	}
	utils.Success(c, 200, "Role updated", user)
}

// SetStatus enables or disables (locks) an account. Disabling normalizes
// the failed login counter to the lockout threshold.
func (h *AdminUserHandler) SetStatus(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}

	var req struct {
		Disabled *bool `json:"disabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	user, err := h.userService.SetAccountDisabled(id, *req.Disabled)
	if err != nil {
		h.writeError(c, err)
		return
	}
	utils.Success(c, 200, "Account status updated", user)
}

func (h *AdminUserHandler) Delete(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	if err := h.userService.Delete(id); err != nil {
		h.writeError(c, err)
		return
	}
	utils.Success(c, 200, "Admin account deleted", nil)
}

func (h *AdminUserHandler) paramID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		utils.Error(c, 400, "INVALID_ID", "Invalid user id")
		return 0, false
	}
	return id, true
}

func (h *AdminUserHandler) writeError(c *gin.Context, err error) {
	var verrs models.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		utils.ValidationFailed(c, verrs)
	case errors.Is(err, utils.ErrUserNotFound):
		utils.Error(c, 404, "USER_NOT_FOUND", "Admin account not found")
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Unexpected error")
	}
}
