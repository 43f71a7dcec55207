package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/scam-sniffer/pkg/common"
	"github.com/richxcame/scam-sniffer/pkg/logger"
	"github.com/richxcame/scam-sniffer/pkg/middleware"
	"github.com/richxcame/scam-sniffer/pkg/pagination"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for authentication
type Handler struct {
	service *Service
}

// NewHandler creates a new auth handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register creates a new account
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := middleware.ValidateJSON(c, &req); err != nil {
		middleware.RespondWithValidationError(c, err)
		return
	}

	resp, err := h.service.Register(c.Request.Context(), &req)
	if errors.Is(err, ErrEmailTaken) {
		common.ErrorResponse(c, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("Registration failed", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to register")
		return
	}

	common.CreatedResponse(c, resp)
}

// Login authenticates a user
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := middleware.ValidateJSON(c, &req); err != nil {
		middleware.RespondWithValidationError(c, err)
		return
	}

	resp, err := h.service.Login(c.Request.Context(), &req)
	if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrAccountDisabled) {
		common.ErrorResponse(c, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("Login failed", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to login")
		return
	}

	common.SuccessResponse(c, resp)
}

// Logout revokes the current token
func (h *Handler) Logout(c *gin.Context) {
	jti := c.GetString(middleware.ContextTokenID)
	remaining := middleware.GetTokenRemainingTTL(c)

	if err := h.service.Logout(c.Request.Context(), jti, remaining); err != nil {
		logger.WithContext(c.Request.Context()).Error("Logout failed", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to logout")
		return
	}

	common.SuccessResponse(c, gin.H{"message": "logged out"})
}

// Me returns the authenticated user's profile
func (h *Handler) Me(c *gin.Context) {
	userID, err := uuid.Parse(c.GetString(middleware.ContextUserID))
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "invalid token subject")
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), userID)
	if errors.Is(err, ErrUserNotFound) {
		common.ErrorResponse(c, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to get user")
		return
	}

	common.SuccessResponse(c, ToUserResponse(user))
}

// ListUsers returns all users (email + role), admin only
func (h *Handler) ListUsers(c *gin.Context) {
	params := pagination.ParseParams(c)

	users, err := h.service.ListUsers(c.Request.Context(), params.Limit, params.Offset)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to list users")
		return
	}

	responses := make([]UserResponse, len(users))
	for i, user := range users {
		responses[i] = ToUserResponse(user)
	}

	total, err := h.service.CountUsers(c.Request.Context())
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to count users")
		return
	}

	common.SuccessResponse(c, gin.H{
		"users":      responses,
		"pagination": pagination.NewMeta(params, total),
	})
}
