package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"accounts/api/internal/service"
)

type updateUserRequest struct {
	ID                   string     `json:"id"`
	Email                string     `json:"email"`
	EmailConfirmed       bool       `json:"emailConfirmed"`
	PhoneNumber          *string    `json:"phoneNumber"`
	PhoneNumberConfirmed bool       `json:"phoneNumberConfirmed"`
	TermsAgreedTo        bool       `json:"termsAgreedTo"`
	TermsAgreedToOn      time.Time  `json:"termsAgreedToOn"`
	LockoutEnabled       bool       `json:"lockoutEnabled"`
	LockoutEnd           *time.Time `json:"lockoutEnd"`
}

func (h HandlerSet) ListUsers(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	users, err := h.users.List(c.Request.Context(), caller)
	if err != nil {
		h.writeError(c, err)
		return
	}
	items := make([]accountResponse, 0, len(users))
	for _, u := range users {
		items = append(items, toAccountResponse(u))
	}
	c.JSON(http.StatusOK, items)
}

func (h HandlerSet) UpdateUser(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.users.Update(c.Request.Context(), caller, service.UpdateUserInput{
		ID:                   req.ID,
		Email:                req.Email,
		EmailConfirmed:       req.EmailConfirmed,
		PhoneNumber:          req.PhoneNumber,
		PhoneNumberConfirmed: req.PhoneNumberConfirmed,
		TermsAgreedTo:        req.TermsAgreedTo,
		TermsAgreedToOn:      req.TermsAgreedToOn,
		LockoutEnabled:       req.LockoutEnabled,
		LockoutEnd:           req.LockoutEnd,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAccountResponse(user))
}

func (h HandlerSet) ConfirmEmail(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	if err := h.accounts.ConfirmEmail(c.Request.Context(), caller, c.Query("code")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
