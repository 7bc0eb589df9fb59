package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/finlens/finlens_backend/internal/apperrors"
	portssvc "github.com/finlens/finlens_backend/internal/core/ports/services"
	"github.com/finlens/finlens_backend/internal/dto"
	"github.com/finlens/finlens_backend/internal/middleware"
	"github.com/finlens/finlens_backend/internal/utils/periods"
	"github.com/gin-gonic/gin"
)

// dashboardHandler handles HTTP requests for the aggregated dashboard views
type dashboardHandler struct {
	dashboardService portssvc.DashboardSvcFacade
}

// newDashboardHandler creates a new dashboardHandler
func newDashboardHandler(ds portssvc.DashboardSvcFacade) *dashboardHandler {
	return &dashboardHandler{dashboardService: ds}
}

// RegisterDashboardRoutes registers routes for the dashboard views
func RegisterDashboardRoutes(rg *gin.RouterGroup, dashboardService portssvc.DashboardSvcFacade) {
	h := newDashboardHandler(dashboardService)

	dashboard := rg.Group("/dashboard")
	{
		dashboard.GET("/metrics", h.getMetrics)
		dashboard.GET("/expense-categories", h.getExpenseCategories)
	}
}

// getMetrics godoc
// @Summary Get dashboard metrics
// @Description Returns current vs. prior revenue, expenses and net profit for a period
// @Tags dashboard
// @Produce json
// @Param period query string false "Period token" default(ytd)
// @Success 200 {object} dto.DashboardMetricsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 502 {object} map[string]string "Provider unavailable"
// @Security BearerAuth
// @Router /dashboard/metrics [get]
func (h *dashboardHandler) getMetrics(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.GetLoggerFromCtx(ctx)

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	period := periods.Key(c.DefaultQuery("period", string(periods.YTD)))

	metrics, err := h.dashboardService.Metrics(ctx, userID, period)
	if err != nil {
		h.respondFetchError(c, logger, err, "dashboard metrics")
		return
	}

	c.JSON(http.StatusOK, dto.ToDashboardMetricsResponse(metrics))
}

// getExpenseCategories godoc
// @Summary Get expenses by category
// @Description Returns the per-account expense breakdown for a period, compared to the prior period
// @Tags dashboard
// @Produce json
// @Param period query string false "Period token" default(ytd)
// @Success 200 {object} dto.ExpenseCategoriesResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 502 {object} map[string]string "Provider unavailable"
// @Security BearerAuth
// @Router /dashboard/expense-categories [get]
func (h *dashboardHandler) getExpenseCategories(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.GetLoggerFromCtx(ctx)

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	period := periods.Key(c.DefaultQuery("period", string(periods.YTD)))

	report, err := h.dashboardService.ExpenseCategories(ctx, userID, period)
	if err != nil {
		h.respondFetchError(c, logger, err, "expense categories")
		return
	}

	c.JSON(http.StatusOK, dto.ToExpenseCategoriesResponse(report))
}

// respondFetchError maps the shared aggregation failure modes to HTTP statuses.
func (h *dashboardHandler) respondFetchError(c *gin.Context, logger *slog.Logger, err error, what string) {
	switch {
	case errors.Is(err, apperrors.ErrReauthRequired):
		logger.Warn("Provider connection requires re-authorization")
		appErr := apperrors.NewReauthRequiredError()
		c.JSON(appErr.Code, appErr)
	case errors.Is(err, apperrors.ErrUpstreamTransient):
		logger.Warn("Provider temporarily unavailable", slog.String("error", err.Error()))
		appErr := apperrors.NewUpstreamError(err)
		c.JSON(appErr.Code, appErr)
	default:
		logger.Error("Failed to build "+what, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build " + what})
	}
}
