package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"accounts/api/internal/models"
	"accounts/api/internal/service"
)

type accountResponse struct {
	ID                   string     `json:"id"`
	DisplayName          string     `json:"displayName"`
	JoinedOn             time.Time  `json:"joinedOn"`
	Email                string     `json:"email"`
	EmailConfirmed       bool       `json:"emailConfirmed"`
	PhoneNumber          *string    `json:"phoneNumber"`
	PhoneNumberConfirmed bool       `json:"phoneNumberConfirmed"`
	TermsAgreedTo        bool       `json:"termsAgreedTo"`
	TermsAgreedToOn      time.Time  `json:"termsAgreedToOn"`
	PasswordLastChanged  time.Time  `json:"passwordLastChanged"`
	LockoutEnabled       bool       `json:"lockoutEnabled"`
	LockoutEnd           *time.Time `json:"lockoutEnd"`
}

func toAccountResponse(u models.User) accountResponse {
	return accountResponse{
		ID:                   u.ID,
		DisplayName:          u.DisplayName,
		JoinedOn:             u.JoinedOn,
		Email:                u.Email,
		EmailConfirmed:       u.EmailConfirmed,
		PhoneNumber:          u.PhoneNumber,
		PhoneNumberConfirmed: u.PhoneNumberConfirmed,
		TermsAgreedTo:        u.TermsAgreedTo,
		TermsAgreedToOn:      u.TermsAgreedToOn,
		PasswordLastChanged:  u.PasswordLastChanged,
		LockoutEnabled:       u.LockoutEnabled,
		LockoutEnd:           u.LockoutEnd,
	}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h HandlerSet) GetAccount(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	user, err := h.accounts.GetAccount(c.Request.Context(), caller)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAccountResponse(user))
}

func (h HandlerSet) ChangePassword(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := h.accounts.ChangePassword(c.Request.Context(), caller, service.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
