package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizgen/internal/config"
	"github.com/stemsi/quizgen/internal/response"
	"github.com/stemsi/quizgen/internal/service"
)

const healthTimeout = 2 * time.Second

// SystemHandler reports liveness and runtime status.
type SystemHandler struct {
	rdb         *redis.Client
	pool        *pgxpool.Pool
	quizService *service.QuizService
	startTime   time.Time
	log         zerolog.Logger
}

// NewSystemHandler creates a SystemHandler. rdb and pool may be nil when the
// corresponding backend is not configured.
func NewSystemHandler(rdb *redis.Client, pool *pgxpool.Pool, quizService *service.QuizService, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		rdb:         rdb,
		pool:        pool,
		quizService: quizService,
		startTime:   time.Now(),
		log:         log.With().Str("component", "system_handler").Logger(),
	}
}

type systemStatus struct {
	Uptime        string `json:"uptime"`
	Goroutines    int    `json:"goroutines"`
	HeapAlloc     uint64 `json:"heap_alloc"`
	NumGC         uint32 `json:"num_gc"`
	GoVersion     string `json:"go_version"`
	ActiveClients int    `json:"active_clients"`
	QueueResults  int64  `json:"queue_results"`
}

// Health godoc
// GET /health
// Pings every configured backend.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	checks := gin.H{}
	healthy := true

	if h.rdb != nil {
		checks["redis"] = "ok"
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			h.log.Warn().Err(err).Msg("Redis health check failed")
			checks["redis"] = "down"
			healthy = false
		}
	}
	if h.pool != nil {
		checks["postgres"] = "ok"
		if err := h.pool.Ping(ctx); err != nil {
			h.log.Warn().Err(err).Msg("PostgreSQL health check failed")
			checks["postgres"] = "down"
			healthy = false
		}
	}

	if !healthy {
		response.FailWithMessage(c, http.StatusServiceUnavailable, response.ErrInternal, "unhealthy", gin.H{"status": "degraded", "checks": checks})
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "ok", "checks": checks})
}

// Status godoc
// GET /api/v1/system/status
func (h *SystemHandler) Status(c *gin.Context) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	st := systemStatus{
		Uptime:        formatDuration(time.Since(h.startTime)),
		Goroutines:    runtime.NumGoroutine(),
		HeapAlloc:     ms.HeapAlloc,
		NumGC:         ms.NumGC,
		GoVersion:     runtime.Version(),
		ActiveClients: h.quizService.ActiveClients(),
	}

	if h.rdb != nil {
		n, err := h.rdb.LLen(c.Request.Context(), config.WorkerKey.PersistResultsQueue).Result()
		if err == nil {
			st.QueueResults = n
		}
	}

	response.Success(c, http.StatusOK, st)
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
