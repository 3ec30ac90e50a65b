package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"accounts/api/internal/models"
)

type recordLoginRequest struct {
	UserAgentInfo string `json:"userAgentInfo"`
}

type loginResponse struct {
	ID            string    `json:"id"`
	IPAddress     string    `json:"ipAddress"`
	UserAgentInfo string    `json:"userAgentInfo"`
	LoggedInOn    time.Time `json:"loggedInOn"`
	UserID        string    `json:"userId"`
	DisplayName   string    `json:"displayName"`
}

func toLoginResponse(e models.LoginEvent) loginResponse {
	return loginResponse{
		ID:            e.ID,
		IPAddress:     e.IPAddress,
		UserAgentInfo: e.UserAgentInfo,
		LoggedInOn:    e.LoggedInOn,
		UserID:        e.UserID,
		DisplayName:   e.DisplayName,
	}
}

func (h HandlerSet) RecordLogin(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	var req recordLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	event, err := h.logins.Record(c.Request.Context(), caller, c.ClientIP(), req.UserAgentInfo)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLoginResponse(event))
}

func (h HandlerSet) ListLogins(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	events, err := h.logins.List(c.Request.Context(), caller, c.Query("userId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	items := make([]loginResponse, 0, len(events))
	for _, e := range events {
		items = append(items, toLoginResponse(e))
	}
	c.JSON(http.StatusOK, items)
}

func (h HandlerSet) ExportLogins(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	key, err := h.logins.Export(c.Request.Context(), caller, c.Query("userId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key})
}
