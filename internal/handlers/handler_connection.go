package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/finlens/finlens_backend/internal/apperrors"
	portssvc "github.com/finlens/finlens_backend/internal/core/ports/services"
	"github.com/finlens/finlens_backend/internal/dto"
	"github.com/finlens/finlens_backend/internal/middleware"
	"github.com/finlens/finlens_backend/internal/utils"
	"github.com/gin-gonic/gin"
)

// connectionHandler handles HTTP requests for the accounting-provider link
type connectionHandler struct {
	connectionService portssvc.ConnectionSvcFacade
}

// newConnectionHandler creates a new connectionHandler
func newConnectionHandler(cs portssvc.ConnectionSvcFacade) *connectionHandler {
	return &connectionHandler{connectionService: cs}
}

// registerConnectionRoutes registers routes for managing the provider connection
func registerConnectionRoutes(rg *gin.RouterGroup, connectionService portssvc.ConnectionSvcFacade) {
	h := newConnectionHandler(connectionService)

	connection := rg.Group("/connection")
	{
		connection.GET("/authorize", h.getAuthorizeURL)
		connection.POST("/complete", h.completeAuthorization)
		connection.GET("/status", h.getStatus)
		connection.DELETE("", h.disconnect)
	}
}

// completeAuthorizationRequest is the callback payload forwarded by the frontend.
type completeAuthorizationRequest struct {
	Code    string `json:"code" binding:"required"`
	RealmID string `json:"realmId" binding:"required"`
}

// getAuthorizeURL godoc
// @Summary Get the provider consent URL
// @Description Returns the URL to redirect the user to for linking their accounting provider
// @Tags connection
// @Produce json
// @Param state query string false "Opaque state echoed back on the callback"
// @Success 200 {object} dto.AuthorizeURLResponse
// @Security BearerAuth
// @Router /connection/authorize [get]
func (h *connectionHandler) getAuthorizeURL(c *gin.Context) {
	state := c.Query("state")
	if state == "" {
		generated, err := utils.GenerateSecureRandomString(16)
		if err != nil {
			middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to generate OAuth state", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build authorization URL"})
			return
		}
		state = generated
	}
	c.JSON(http.StatusOK, dto.AuthorizeURLResponse{URL: h.connectionService.AuthorizationURL(state), State: state})
}

// completeAuthorization godoc
// @Summary Complete the provider authorization
// @Description Exchanges the provider callback code and stores the credential for the caller
// @Tags connection
// @Accept json
// @Produce json
// @Param body body completeAuthorizationRequest true "Callback code and realm"
// @Success 204 "Connection established"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 502 {object} map[string]string "Provider rejected the exchange"
// @Security BearerAuth
// @Router /connection/complete [post]
func (h *connectionHandler) completeAuthorization(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.GetLoggerFromCtx(ctx)

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req completeAuthorizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid complete-authorization payload", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code and realmId required"})
		return
	}

	if err := h.connectionService.CompleteAuthorization(ctx, userID, req.Code, req.RealmID); err != nil {
		if errors.Is(err, apperrors.ErrUpstreamTransient) {
			logger.Warn("Provider rejected authorization code", slog.String("error", err.Error()))
			appErr := apperrors.NewUpstreamError(err)
			c.JSON(appErr.Code, appErr)
			return
		}
		logger.Error("Failed to complete authorization", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete authorization"})
		return
	}

	c.Status(http.StatusNoContent)
}

// getStatus godoc
// @Summary Get the provider connection status
// @Description Reports whether the caller has a linked accounting-provider realm
// @Tags connection
// @Produce json
// @Success 200 {object} dto.ConnectionStatusResponse
// @Security BearerAuth
// @Router /connection/status [get]
func (h *connectionHandler) getStatus(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.GetLoggerFromCtx(ctx)

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	conn, err := h.connectionService.Status(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotConnected) {
			c.JSON(http.StatusOK, dto.ConnectionStatusResponse{Connected: false})
			return
		}
		logger.Error("Failed to read connection status", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read connection status"})
		return
	}

	c.JSON(http.StatusOK, dto.ToConnectionStatusResponse(conn))
}

// disconnect godoc
// @Summary Disconnect the accounting provider
// @Description Deletes the stored provider credential, forcing re-authorization
// @Tags connection
// @Success 204 "Disconnected"
// @Security BearerAuth
// @Router /connection [delete]
func (h *connectionHandler) disconnect(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.GetLoggerFromCtx(ctx)

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.connectionService.Disconnect(ctx, userID); err != nil {
		logger.Error("Failed to disconnect provider", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disconnect"})
		return
	}

	c.Status(http.StatusNoContent)
}
