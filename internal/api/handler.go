package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/milktrack/server/internal/apperrors"
	"github.com/milktrack/server/internal/auth"
	"github.com/milktrack/server/internal/models"
	"github.com/milktrack/server/internal/service"
)

// Handler holds the API dependencies and registers the HTTP routes.
type Handler struct {
	svc    service.Service
	tokens *auth.Manager
}

// NewHandler creates a new API handler
func NewHandler(svc service.Service, tokens *auth.Manager) *Handler {
	return &Handler{svc: svc, tokens: tokens}
}

// SetupRoutes registers all API routes on the router.
func (h *Handler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.Register)
		authRoutes.POST("/login", h.Login)
		authRoutes.POST("/refresh", h.Refresh)
		authRoutes.POST("/logout", AuthMiddleware(h.tokens), h.Logout)
		authRoutes.GET("/me", AuthMiddleware(h.tokens), h.Me)
	}

	milkRoutes := api.Group("/milk", AuthMiddleware(h.tokens))
	{
		milkRoutes.GET("/records", h.ListRecords)
		milkRoutes.POST("/records", h.CreateRecord)
		milkRoutes.PUT("/records/:id", h.UpdateRecord)
		milkRoutes.DELETE("/records/:id", h.DeleteRecord)
	}

	settingsRoutes := api.Group("/settings", AuthMiddleware(h.tokens))
	{
		settingsRoutes.GET("", h.GetSettings)
		settingsRoutes.PUT("", h.UpdateSettings)
	}
}

// Authentication handlers

func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	resp, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), c.GetString(contextUserID)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "logged out"})
}

func (h *Handler) Me(c *gin.Context) {
	resp, err := h.svc.CurrentUser(c.Request.Context(), c.GetString(contextUserID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Milk record handlers

func (h *Handler) ListRecords(c *gin.Context) {
	resp, err := h.svc.ListRecords(c.Request.Context(), c.GetString(contextUserID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) CreateRecord(c *gin.Context) {
	var req models.CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	resp, err := h.svc.CreateRecord(c.Request.Context(), c.GetString(contextUserID), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) UpdateRecord(c *gin.Context) {
	var req models.UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	resp, err := h.svc.UpdateRecord(c.Request.Context(), c.GetString(contextUserID), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) DeleteRecord(c *gin.Context) {
	if err := h.svc.DeleteRecord(c.Request.Context(), c.GetString(contextUserID), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "record deleted"})
}

// Settings handlers

func (h *Handler) GetSettings(c *gin.Context) {
	resp, err := h.svc.GetSettings(c.Request.Context(), c.GetString(contextUserID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var req models.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	resp, err := h.svc.UpdateSettings(c.Request.Context(), c.GetString(contextUserID), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Error mapping

func respondBindingError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Status:  "error",
		Code:    "INVALID_INPUT",
		Message: err.Error(),
	})
}

// respondError maps the error taxonomy to wire-level responses. Only this
// function decides HTTP status codes; the core packages never do.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status: "error", Code: "INVALID_INPUT", Message: err.Error(),
		})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Status: "error", Code: "UNAUTHORIZED", Message: "Invalid credentials or token",
		})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Status: "error", Code: "FORBIDDEN", Message: "Account is not allowed to perform this action",
		})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Status: "error", Code: "NOT_FOUND", Message: "Resource not found",
		})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Status: "error", Code: "CONFLICT", Message: "Email is already registered",
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Status: "error", Code: "INTERNAL_ERROR", Message: "Internal server error",
		})
	}
}
