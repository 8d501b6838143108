package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizgen/internal/config"
	"github.com/stemsi/quizgen/internal/handler"
	"github.com/stemsi/quizgen/internal/logger"
	"github.com/stemsi/quizgen/internal/middleware"
	"github.com/stemsi/quizgen/internal/response"
	"github.com/stemsi/quizgen/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Quiz    *handler.QuizHandler
	History *handler.HistoryHandler
	Stats   *handler.StatsHandler
	Options *handler.OptionsHandler
	System  *handler.SystemHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// limiter guards client registration and the provider-backed quiz routes.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
	limiter *middleware.RateLimiter,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// Multipart bodies above this spill to temp files.
	router.MaxMultipartMemory = cfg.MaxUploadBytes

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so the access log can carry it.
	router.Use(response.RequestIDMiddleware())
	router.Use(logger.RequestLogger(log))
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)

	// ─── 0. Public Group (No Auth) ─────────────────────────────────────
	publicAPI := router.Group("/api/v1/public")
	publicAPI.Use(middleware.CacheControl(3600))
	{
		publicAPI.GET("/options", handlers.Options.GetOptions)
	}

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(middleware.NoStore())
	{
		auth.POST("/client", limiter.Middleware(), handlers.Auth.RegisterClient)
		auth.GET("/me", middleware.RequireClientJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Client Group (JWT) ─────────────────────────────────────────
	clientAPI := router.Group("/api/v1")
	clientAPI.Use(middleware.RequireClientJWT(authService), middleware.NoStore())
	{
		quizGroup := clientAPI.Group("/quiz")
		{
			quizGroup.GET("", handlers.Quiz.GetState)
			quizGroup.POST("/start", limiter.Middleware(), handlers.Quiz.StartQuiz)
			quizGroup.POST("/answer", limiter.Middleware(), handlers.Quiz.SubmitAnswer)
			quizGroup.POST("/next", handlers.Quiz.Next)
			quizGroup.POST("/previous", handlers.Quiz.Previous)
			quizGroup.POST("/restart", handlers.Quiz.Restart)
		}

		historyGroup := clientAPI.Group("/history")
		{
			historyGroup.GET("", handlers.History.ListHistory)
			historyGroup.POST("/open", handlers.History.OpenHistory)
			historyGroup.POST("/exit", handlers.History.ExitHistory)
			historyGroup.POST("/:id/review", handlers.History.ReviewQuiz)
		}

		clientAPI.GET("/stats", handlers.Stats.GetStats)
		clientAPI.GET("/system/status", handlers.System.Status)
	}

	// ─── 3. WebSocket Group (Query Token Auth) ─────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireClientWSAuth(authService))
	{
		ws.GET("/quiz/stream", handlers.WS.QuizStream)
	}

	return router
}
