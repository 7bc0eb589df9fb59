package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/finlens/finlens_backend/internal/apperrors"
	portssvc "github.com/finlens/finlens_backend/internal/core/ports/services"
	"github.com/finlens/finlens_backend/internal/dto"
	"github.com/finlens/finlens_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// snapshotHandler handles snapshot sync and embedding maintenance
type snapshotHandler struct {
	snapshotService portssvc.SnapshotSvcFacade
}

// newSnapshotHandler creates a new snapshotHandler
func newSnapshotHandler(ss portssvc.SnapshotSvcFacade) *snapshotHandler {
	return &snapshotHandler{snapshotService: ss}
}

// registerSnapshotRoutes registers routes for snapshot maintenance
func registerSnapshotRoutes(rg *gin.RouterGroup, snapshotService portssvc.SnapshotSvcFacade) {
	h := newSnapshotHandler(snapshotService)

	snapshots := rg.Group("/snapshots")
	{
		snapshots.POST("/sync", h.sync)
		snapshots.POST("/embeddings/backfill", h.backfillEmbeddings)
	}
}

// sync godoc
// @Summary Sync monthly snapshots for a year
// @Description Fetches one report per elapsed month of the year and upserts snapshot rows
// @Tags snapshots
// @Accept json
// @Produce json
// @Param body body dto.SyncRequest true "Year to sync"
// @Success 200 {object} dto.SyncResponse
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Unauthorized or reconnection required"
// @Failure 502 {object} map[string]string "Provider unavailable"
// @Security BearerAuth
// @Router /snapshots/sync [post]
func (h *snapshotHandler) sync(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.GetLoggerFromCtx(ctx)

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid year required"})
		return
	}

	synced, err := h.snapshotService.SyncYear(ctx, userID, req.Year)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotConnected):
			appErr := apperrors.NewBadRequestError("No accounting provider connected")
			c.JSON(appErr.Code, appErr)
		case errors.Is(err, apperrors.ErrReauthRequired):
			appErr := apperrors.NewReauthRequiredError()
			c.JSON(appErr.Code, appErr)
		case errors.Is(err, apperrors.ErrUpstreamTransient):
			logger.Warn("Provider unavailable during sync", slog.String("error", err.Error()))
			appErr := apperrors.NewUpstreamError(err)
			c.JSON(appErr.Code, appErr)
		default:
			logger.Error("Snapshot sync failed", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Snapshot sync failed"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.SyncResponse{SyncedMonths: synced})
}

// backfillEmbeddings godoc
// @Summary Backfill snapshot embeddings
// @Description Embeds up to limit snapshots missing a semantic embedding
// @Tags snapshots
// @Produce json
// @Param limit query int false "Maximum snapshots to embed" default(50)
// @Success 200 {object} map[string]int
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /snapshots/embeddings/backfill [post]
func (h *snapshotHandler) backfillEmbeddings(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.GetLoggerFromCtx(ctx)

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
		return
	}

	embedded, err := h.snapshotService.BackfillEmbeddings(ctx, userID, limit)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotConnected) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No accounting provider connected"})
			return
		}
		logger.Error("Embedding backfill failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Embedding backfill failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"embedded": embedded})
}
