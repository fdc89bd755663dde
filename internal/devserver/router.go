package devserver

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/medpass/examkit/internal/config"
	"github.com/medpass/examkit/internal/response"
)

// SetupRouter configures the stub backend's routes and middleware.
func SetupRouter(handler *Handler, authService *AuthService, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

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

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── Auth (public) ─────────────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", handler.Login)
	}

	// ─── Exam taking (JWT) ─────────────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(RequireJWT(authService))
	{
		api.GET("/exams/:exam_id", handler.GetExam)
		api.GET("/questions/:question_id", handler.GetQuestion)
		api.POST("/exams/:exam_id/questions/:question_id/answer", handler.SubmitAnswer)
		api.POST("/questions/:question_id/check", handler.CheckAnswer)
		api.POST("/exams/:exam_id/submit", handler.SubmitExam)
	}

	return router
}
