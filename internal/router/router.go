package router

import (
	"context"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/polytech/coursedesk/internal/config"
	"github.com/polytech/coursedesk/internal/handler"
	"github.com/polytech/coursedesk/internal/middleware"
	"github.com/polytech/coursedesk/internal/response"
	"github.com/polytech/coursedesk/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Course    *handler.CourseHandler
	Content   *handler.ContentHandler
	Authoring *handler.AuthoringHandler
	Attempt   *handler.AttemptHandler
	Progress  *handler.ProgressHandler
	Stream    *handler.AttemptStreamHandler
	System    *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds the background cleanup of the sign-in rate limiter.
func SetupRouter(
	ctx context.Context,
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	gatherer prometheus.Gatherer,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Scrapers read /metrics often and rarely accept br.
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Skipper: func(c *gin.Context) bool {
			return strings.HasPrefix(c.Request.URL.Path, "/metrics")
		},
	}))

	router.GET("/health", handlers.System.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	signInLimiter := middleware.NewRateLimiter(ctx, cfg.SignInRatePerMinute, time.Minute)

	api := router.Group("/api/v1")
	api.Use(middleware.NoStore())

	// ─── 1. Auth Group (Public) ────────────────────────────────────────
	auth := api.Group("/auth")
	{
		auth.POST("/sign-up", handlers.Auth.SignUp)
		auth.POST("/sign-in", signInLimiter.Middleware(), handlers.Auth.SignIn)
		auth.GET("/session", middleware.OptionalSession(authService), handlers.Auth.Session)
		auth.POST("/sign-out", middleware.RequireSession(authService), handlers.Auth.SignOut)
	}

	// ─── 2. Signed-in Group ────────────────────────────────────────────
	user := api.Group("")
	user.Use(middleware.RequireSession(authService))
	{
		user.GET("/me", handlers.Auth.Me)
		user.GET("/profile", handlers.Progress.Profile)

		user.GET("/assignments", handlers.Course.List)
		user.GET("/assignments/:id", handlers.Course.Detail)
		user.GET("/lessons/:id", handlers.Content.Lesson)

		attempt := user.Group("/tests/:id")
		{
			attempt.POST("/attempt", handlers.Attempt.Start)
			attempt.GET("/attempt", handlers.Attempt.State)
			attempt.DELETE("/attempt", handlers.Attempt.Abandon)
			attempt.PUT("/attempt/answer", handlers.Attempt.Answer)
			attempt.POST("/attempt/navigate", handlers.Attempt.Navigate)
			attempt.POST("/attempt/submit", handlers.Attempt.Submit)
			attempt.GET("/result", handlers.Attempt.Result)
		}
	}

	// ─── 3. Instructor Group ───────────────────────────────────────────
	instructor := api.Group("")
	instructor.Use(middleware.RequireSession(authService), middleware.RequireInstructor())
	{
		instructor.GET("/assignments/options", handlers.Course.Options)
		instructor.POST("/assignments", handlers.Course.Create)
		instructor.POST("/assignments/:id/materials", handlers.Content.AddMaterial)
		instructor.POST("/assignments/:id/lessons", handlers.Content.AddLesson)
		instructor.GET("/assignments/:id/results", handlers.Progress.AssignmentResults)

		draft := instructor.Group("/assignments/:id/test-draft")
		{
			draft.POST("", handlers.Authoring.Open)
			draft.GET("", handlers.Authoring.Get)
			draft.DELETE("", handlers.Authoring.Discard)
			draft.PUT("/title", handlers.Authoring.SetTitle)
			draft.POST("/questions", handlers.Authoring.AddQuestion)
			draft.PUT("/questions/:q", handlers.Authoring.SetQuestion)
			draft.DELETE("/questions/:q", handlers.Authoring.RemoveQuestion)
			draft.POST("/questions/:q/answers", handlers.Authoring.AddAnswer)
			draft.PUT("/questions/:q/answers/:a", handlers.Authoring.SetAnswer)
			draft.DELETE("/questions/:q/answers/:a", handlers.Authoring.RemoveAnswer)
			draft.POST("/questions/:q/answers/:a/correct", handlers.Authoring.MarkCorrect)
			draft.POST("/next", handlers.Authoring.Next)
			draft.POST("/back", handlers.Authoring.Back)
			draft.POST("/submit", handlers.Authoring.Submit)
		}
	}

	// ─── 4. WebSocket Group (token in query) ───────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireSession(authService))
	{
		ws.GET("/tests/:id/attempt/stream", handlers.Stream.Stream)
	}

	return router
}
