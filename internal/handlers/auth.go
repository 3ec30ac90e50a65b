package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"accounts/api/internal/service"
)

type signUpRequest struct {
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	Password      string `json:"password"`
	TermsAgreedTo bool   `json:"termsAgreedTo"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	IsAuthSuccessful bool    `json:"isAuthSuccessful"`
	ErrorMessage     string  `json:"errorMessage,omitempty"`
	Token            *string `json:"token"`
}

func (h HandlerSet) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, authResponse{ErrorMessage: "invalid request body"})
		return
	}

	token, err := h.accounts.SignUp(c.Request.Context(), service.SignUpInput{
		Email:         req.Email,
		DisplayName:   req.DisplayName,
		Password:      req.Password,
		TermsAgreedTo: req.TermsAgreedTo,
	})
	h.recorder.RecordAuth("signup", outcome(err))
	if err != nil {
		h.writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse{IsAuthSuccessful: true, Token: &token})
}

func (h HandlerSet) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, authResponse{ErrorMessage: "invalid request body"})
		return
	}

	token, err := h.accounts.SignIn(c.Request.Context(), service.SignInInput{
		Email:    req.Email,
		Password: req.Password,
	})
	h.recorder.RecordAuth("signin", outcome(err))
	if err != nil {
		h.writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse{IsAuthSuccessful: true, Token: &token})
}

func (h HandlerSet) writeAuthError(c *gin.Context, err error) {
	status, msg := clientMessage(err)
	if status == http.StatusInternalServerError {
		h.logFailure(c, err)
	}
	_ = c.Error(err)
	c.JSON(status, authResponse{ErrorMessage: msg})
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, service.ErrLockedOut):
		return "locked_out"
	}
	return string(service.KindOf(err))
}
