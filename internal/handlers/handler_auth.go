package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/finlens/finlens_backend/internal/core/ports/services"
	"github.com/finlens/finlens_backend/internal/dto"
	"github.com/finlens/finlens_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// authHandler handles the Google sign-in exchange that bootstraps a session.
type authHandler struct {
	googleOAuthService portssvc.GoogleOAuthSvcFacade
	tokenService       portssvc.TokenSvcFacade
}

// newAuthHandler creates a new authHandler
func newAuthHandler(googleOAuthService portssvc.GoogleOAuthSvcFacade, tokenService portssvc.TokenSvcFacade) *authHandler {
	return &authHandler{
		googleOAuthService: googleOAuthService,
		tokenService:       tokenService,
	}
}

// registerAuthRoutes registers the public authentication routes
func registerAuthRoutes(r *gin.Engine, googleOAuthService portssvc.GoogleOAuthSvcFacade, tokenService portssvc.TokenSvcFacade) {
	h := newAuthHandler(googleOAuthService, tokenService)

	auth := r.Group("/auth")
	{
		auth.GET("/google/url", h.getGoogleAuthURL)
		auth.POST("/google/exchange-code", h.exchangeGoogleCode)
	}
}

// getGoogleAuthURL godoc
// @Summary Get the Google consent URL
// @Description Returns the URL the frontend should redirect to for Google login
// @Tags auth
// @Produce json
// @Param state query string false "Opaque state echoed back on the callback"
// @Success 200 {object} dto.AuthorizeURLResponse
// @Router /auth/google/url [get]
func (h *authHandler) getGoogleAuthURL(c *gin.Context) {
	state := c.DefaultQuery("state", "")
	c.JSON(http.StatusOK, dto.AuthorizeURLResponse{URL: h.googleOAuthService.GetAuthURL(state)})
}

// exchangeGoogleCode godoc
// @Summary Exchange a Google authorization code for an application token
// @Description Exchanges the code, validates the Google ID token and issues an application JWT
// @Tags auth
// @Accept json
// @Produce json
// @Param code body dto.ExchangeCodeRequest true "Authorization code"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Code rejected by Google"
// @Failure 500 {object} map[string]string "Failed to issue token"
// @Router /auth/google/exchange-code [post]
func (h *authHandler) exchangeGoogleCode(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.GetLoggerFromCtx(ctx)

	var req dto.ExchangeCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind exchange-code request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Authorization code required"})
		return
	}

	googleToken, err := h.googleOAuthService.ExchangeCodeForToken(ctx, req.Code)
	if err != nil {
		logger.Warn("Google code exchange failed", slog.String("error", err.Error()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization code"})
		return
	}

	rawIDToken, ok := googleToken.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		logger.Error("Google token response missing id_token")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization code"})
		return
	}

	payload, err := h.googleOAuthService.ValidateGoogleIDToken(ctx, rawIDToken)
	if err != nil {
		logger.Warn("Google ID token validation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization code"})
		return
	}

	// Google's stable subject identifier doubles as the user ID; there is no
	// local user store to reconcile against.
	userID := payload.Subject

	token, expiresAt, err := h.tokenService.GenerateAccessToken(ctx, userID)
	if err != nil {
		logger.Error("Failed to issue access token", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue access token"})
		return
	}

	response := dto.AuthResponse{Token: token, ExpiresAt: expiresAt}
	if email, ok := payload.Claims["email"].(string); ok {
		response.Email = email
	}
	if name, ok := payload.Claims["name"].(string); ok {
		response.Name = name
	}

	logger.Info("User signed in", slog.String("user_id", userID))
	c.JSON(http.StatusOK, response)
}
