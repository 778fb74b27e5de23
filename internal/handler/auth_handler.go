package handler

import (
	"errors"

	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/repository"
	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/service"
	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/token"
	"github.com/gin-gonic/gin"
)

// AuthHandler serves login sessions and the password reset flow.
type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body")
		return
	}

	user, pair, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		Unauthorized(c, err.Error())
		return
	}

	Success(c, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_in":    pair.ExpiresIn,
		"user": gin.H{
			"id":        user.ID,
			"full_name": user.FullName,
			"email":     user.Email,
			"role":      user.Role,
		},
	})
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body")
		return
	}

	pair, err := h.svc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		Unauthorized(c, "Invalid or expired refresh token")
		return
	}

	Success(c, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_in":    pair.ExpiresIn,
	})
}

func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID := GetUserID(c)
	if userID == "" {
		Unauthorized(c, "User not authenticated")
		return
	}

	user, err := h.svc.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		NotFound(c, "User not found")
		return
	}

	Success(c, gin.H{
		"id":            user.ID,
		"full_name":     user.FullName,
		"email":         user.Email,
		"role":          user.Role,
		"status":        user.Status,
		"last_login_at": user.LastLoginAt,
		"created_at":    user.CreatedAt,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	userID := GetUserID(c)
	if userID == "" {
		Unauthorized(c, "User not authenticated")
		return
	}

	if err := h.svc.Logout(c.Request.Context(), userID); err != nil {
		InternalError(c, "Failed to logout")
		return
	}

	Success(c, nil)
}

type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RequestPasswordReset issues a reset token and emails the link.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body")
		return
	}

	if err := h.svc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "No account with that email")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, gin.H{"message": "Password reset email sent"})
}

// VerifyResetToken checks the reset token from the link and returns its
// claims so the client can prefill the reset form.
func (h *AuthHandler) VerifyResetToken(c *gin.Context) {
	tokenString := c.Param("token")
	if tokenString == "" {
		BadRequest(c, "Missing reset token")
		return
	}

	claims, err := h.svc.VerifyResetToken(tokenString)
	if err != nil {
		Unauthorized(c, err.Error())
		return
	}

	Success(c, gin.H{
		"id":        claims.UserID,
		"full_name": claims.FullName,
		"email":     claims.Email,
		"role":      claims.Role,
	})
}

type ConfirmResetRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req ConfirmResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body")
		return
	}

	if err := h.svc.ConfirmPasswordReset(c.Request.Context(), req.Token, req.Password); err != nil {
		if errors.Is(err, token.ErrExpired) || errors.Is(err, token.ErrInvalid) {
			Unauthorized(c, err.Error())
			return
		}
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "User not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, gin.H{"message": "Password updated"})
}
