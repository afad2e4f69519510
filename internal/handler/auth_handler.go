package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/admin_api/internal/middleware"
	"github.com/GTDGit/admin_api/internal/models"
	"github.com/GTDGit/admin_api/internal/service"
	"github.com/GTDGit/admin_api/internal/utils"
)

// AuthHandler exposes login, logout, and password rotation endpoints.
type AuthHandler struct {
	authService *service.AdminAuthService
	userService *service.AdminUserService
	rateLimiter *middleware.InvalidAuthRateLimiter
}

func NewAuthHandler(authService *service.AdminAuthService, userService *service.AdminUserService, rateLimiter *middleware.InvalidAuthRateLimiter) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		rateLimiter: rateLimiter,
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if h.rateLimiter != nil && !h.rateLimiter.Allow(c.ClientIP()) {
		utils.Error(c, 429, "TOO_MANY_ATTEMPTS", "Too many login attempts, try again later")
		return
	}

	result, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, utils.ErrAccountLocked) {
			utils.Error(c, 403, "ACCOUNT_LOCKED", "Account is locked")
			return
		}
		utils.Error(c, 401, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}

	utils.Success(c, 200, "Login successful", gin.H{
		"token":              result.Token,
		"mustChangePassword": result.MustChangePassword,
		"user":               result.User,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := c.MustGet("claims").(*utils.JWTClaims)
	if !ok {
		utils.Error(c, 401, "UNAUTHORIZED", "Missing token claims")
		return
	}
	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		utils.Error(c, 500, "LOGOUT_FAILED", "Could not revoke token")
		return
	}
	utils.Success(c, 200, "Logged out", nil)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword      string `json:"currentPassword" binding:"required"`
		Password             string `json:"password" binding:"required"`
		PasswordConfirmation string `json:"passwordConfirmation" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	userID := c.GetInt("user_id")
	err := h.authService.ChangePassword(userID, req.CurrentPassword, req.Password, req.PasswordConfirmation)
	if err != nil {
		var verrs models.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			utils.ValidationFailed(c, verrs)
		case errors.Is(err, utils.ErrPasswordMismatch):
			utils.Error(c, 401, "PASSWORD_MISMATCH", "Current password is incorrect")
		default:
			utils.Error(c, 500, "INTERNAL_ERROR", "Could not change password")
		}
		return
	}

	utils.Success(c, 200, "Password changed", nil)
}

// Me returns the authenticated account with its capability set so the
// frontend can hide actions the role does not hold.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetInt("user_id")
	user, err := h.userService.Get(userID)
	if err != nil {
		utils.Error(c, 404, "USER_NOT_FOUND", "Account not found")
		return
	}

	utils.Success(c, 200, "OK", gin.H{
		"user":               user,
		"mustChangePassword": h.authService.MustChangePassword(user),
		"capabilities": gin.H{
			"canTakeContentDown": user.CanTakeContentDown(),
			"canManageUsers":     user.Can(models.CapManageUsers),
		},
	})
}
