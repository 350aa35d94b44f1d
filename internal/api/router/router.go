package router

import (
	"skillswap/internal/api/handlers"
	"skillswap/internal/api/middleware"
	"skillswap/internal/config"
	"skillswap/internal/metrics"

	"github.com/gin-gonic/gin"
)

func NewRouter(cfg *config.Config, comp *Components) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Logger())
	r.Use(middleware.Metrics(comp.Collector))
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(gin.Recovery())

	authHandler := handlers.NewAuthHandler(comp.Directory, comp.Auth)
	userHandler := handlers.NewUserHandler(comp.Directory, comp.Search)
	swapHandler := handlers.NewSwapHandler(comp.Swaps, comp.Idempotency)
	healthHandler := handlers.NewHealthHandler(cfg.App.Version, comp.Checkers)

	r.GET("/health", healthHandler.HealthCheck)
	r.GET("/ready", healthHandler.ReadinessCheck)
	r.GET("/live", healthHandler.LivenessCheck)
	r.GET("/metrics", gin.WrapH(metrics.Handler(comp.Registry)))

	var limit, limitCreate gin.HandlerFunc = passThrough, passThrough
	if comp.RateLimiter != nil {
		limit, limitCreate = comp.RateLimiter.General(), comp.RateLimiter.CreateRequest()
	}
	requireAuth := middleware.RequireAuth(comp.Auth)
	optionalAuth := middleware.OptionalAuth(comp.Auth)
	idempotent := middleware.IdempotencyMiddleware()

	v1 := r.Group("/api/v1")
	{
		authGroup := v1.Group("/auth", limit)
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		users := v1.Group("/users")
		{
			users.GET("/public", requireAuth, limit, userHandler.ListPublic)
			users.GET("/search", optionalAuth, limit, userHandler.Search)

			me := users.Group("/me", requireAuth, limit)
			{
				me.GET("", userHandler.Me)
				me.DELETE("", userHandler.Deactivate)
				me.PUT("/skills", userHandler.UpdateSkills)
				me.PUT("/visibility", userHandler.SetVisibility)
			}
		}

		requests := v1.Group("/requests", requireAuth, limit)
		{
			requests.POST("", limitCreate, idempotent, swapHandler.CreateRequest)
			requests.GET("", swapHandler.ListRequests)
			requests.GET("/:id", swapHandler.GetRequest)
			requests.POST("/:id/accept", swapHandler.Accept)
			requests.POST("/:id/decline", swapHandler.Decline)
		}
	}

	// Route names kept for clients of the first release.
	if cfg.Server.LegacyRoutes {
		r.POST("/register", limit, authHandler.Register)
		r.POST("/login", limit, authHandler.Login)
		r.PUT("/users/skills", requireAuth, limit, userHandler.UpdateSkills)
		r.GET("/users/public", requireAuth, limit, userHandler.ListPublic)
		r.GET("/users/search", optionalAuth, limit, userHandler.Search)
		r.POST("/request", requireAuth, limit, limitCreate, idempotent, swapHandler.CreateRequest)
		r.GET("/getAllreqest", requireAuth, limit, swapHandler.ListRequests)
		r.POST("/acceptRequest/:id", requireAuth, limit, swapHandler.Accept)
		r.POST("/declineRequest/:id", requireAuth, limit, swapHandler.Decline)
	}

	return r
}

func passThrough(c *gin.Context) {
	c.Next()
}
