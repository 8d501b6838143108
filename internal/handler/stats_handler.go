package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizgen/internal/middleware"
	"github.com/stemsi/quizgen/internal/response"
	"github.com/stemsi/quizgen/internal/service"
)

// StatsHandler serves per-client statistics.
type StatsHandler struct {
	statsService *service.StatsService
	log          zerolog.Logger
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsService *service.StatsService, log zerolog.Logger) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
		log:          log.With().Str("component", "stats_handler").Logger(),
	}
}

// GetStats godoc
// GET /api/v1/stats
func (h *StatsHandler) GetStats(c *gin.Context) {
	clientID := middleware.ClientID(c)
	stats, err := h.statsService.ForClient(c.Request.Context(), clientID)
	if err != nil {
		h.log.Error().Err(err).Str("client_id", clientID).Msg("Failed to load stats")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, stats)
}
