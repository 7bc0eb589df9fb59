package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/finlens/finlens_backend/internal/core/domain"
	portssvc "github.com/finlens/finlens_backend/internal/core/ports/services"
	"github.com/finlens/finlens_backend/internal/dto"
	"github.com/finlens/finlens_backend/internal/middleware"
	"github.com/finlens/finlens_backend/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// queryHandler handles natural-language financial questions
type queryHandler struct {
	queryService portssvc.QuerySvcFacade
}

// newQueryHandler creates a new queryHandler
func newQueryHandler(qs portssvc.QuerySvcFacade) *queryHandler {
	return &queryHandler{queryService: qs}
}

// RegisterQueryRoutes registers the query routes behind a per-user rate limit.
// Model calls are the expensive path, so the limit sits here rather than on
// the whole API group.
func RegisterQueryRoutes(rg *gin.RouterGroup, cfg *config.Config, queryService portssvc.QuerySvcFacade) {
	h := newQueryHandler(queryService)

	query := rg.Group("/query")
	if rate, err := limiter.NewRateFromFormatted(cfg.QueryRateLimit); err == nil {
		query.Use(middleware.RateLimit(limiter.New(memory.NewStore(), rate)))
	}
	{
		query.POST("/ask", h.ask)
		query.POST("/stream", h.stream)
	}
}

// ask godoc
// @Summary Answer a financial question
// @Description Answers a natural-language question over the synced monthly snapshots
// @Tags query
// @Accept json
// @Produce json
// @Param body body dto.AskRequest true "Question"
// @Success 200 {object} dto.AskResponse
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 429 {object} map[string]string "Rate limit exceeded"
// @Failure 502 {object} map[string]string "Model unavailable"
// @Security BearerAuth
// @Router /query/ask [post]
func (h *queryHandler) ask(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.GetLoggerFromCtx(ctx)

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err)})
		return
	}

	answer, err := h.queryService.Answer(ctx, domain.Question{UserID: userID, Text: req.Question})
	if err != nil {
		logger.Error("Failed to answer question", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to answer question"})
		return
	}

	c.JSON(http.StatusOK, dto.ToAskResponse(answer))
}

// stream godoc
// @Summary Answer a financial question as a server-sent event stream
// @Description Streams answer fragments as SSE; the stream always terminates with a done event
// @Tags query
// @Accept json
// @Produce text/event-stream
// @Param body body dto.AskRequest true "Question"
// @Success 200 {string} string "SSE stream of token, error and done events"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 429 {object} map[string]string "Rate limit exceeded"
// @Security BearerAuth
// @Router /query/stream [post]
func (h *queryHandler) stream(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.GetLoggerFromCtx(ctx)

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err)})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)

	flusher, canFlush := c.Writer.(http.Flusher)

	h.queryService.StreamAnswer(ctx, domain.Question{UserID: userID, Text: req.Question}, func(event domain.StreamEvent) error {
		if err := writeSSE(c.Writer, event); err != nil {
			logger.Debug("SSE client went away", slog.String("error", err.Error()))
			return err
		}
		if canFlush {
			flusher.Flush()
		}
		return nil
	})
}

// bindErrorMessage turns a binding failure into a field-level message.
func bindErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Tag() {
		case "required":
			return "Question required"
		case "min":
			return "Question too short"
		case "max":
			return "Question too long"
		}
	}
	return "Invalid request body"
}

// writeSSE writes one event in the text/event-stream framing.
func writeSSE(w http.ResponseWriter, event domain.StreamEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}
