package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bfall/sawshift/internal/service/auth"
)

// AuthHandler authenticates workers against the sheet-backed user list.
type AuthHandler struct {
	svc    *auth.Service
	logger *zap.Logger
}

// NewAuthHandler constructs the auth handler adapter.
func NewAuthHandler(svc *auth.Service, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{svc: svc, logger: logger}
}

type loginRequest struct {
	Login string `json:"login" binding:"required"`
	Pin   string `json:"pin" binding:"required"`
}

// Login verifies credentials and returns the user with its capabilities.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	session, err := h.svc.Authenticate(c.Request.Context(), req.Login, req.Pin)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid login or pin"})
			return
		}
		h.logger.Error("authentication backend failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "user list unavailable"})
		return
	}

	c.JSON(http.StatusOK, session)
}
