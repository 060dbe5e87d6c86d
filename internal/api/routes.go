package api

import (
	"github.com/gin-gonic/gin"
	"github.com/playmatatu/eightball/internal/api/handlers"
	"github.com/playmatatu/eightball/internal/config"
	"github.com/playmatatu/eightball/internal/logger"
	"github.com/playmatatu/eightball/internal/middleware"
	"github.com/playmatatu/eightball/internal/store"
	"github.com/playmatatu/eightball/internal/ws"
)

// Deps carries what the routes need.
type Deps struct {
	Config   *config.Config
	Users    *store.Users
	Games    *store.Games
	Limiter  handlers.Limiter
	Hub      *ws.Hub
	Presence handlers.PresenceSource
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, d Deps) {
	cfg := d.Config
	router.Use(middleware.CORSMiddleware(cfg))

	if !cfg.IsProduction() {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		logger.Log.Info("[DEV MODE] no-cache headers enabled for all routes")
	}

	router.GET("/ws", middleware.WebSocketCORSCheck(cfg), handlers.HandleGameWebSocket(d.Hub, d.Users, cfg))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(d.Hub))
		v1.GET("/config", handlers.GetConfig(cfg))
		v1.GET("/online", handlers.GetOnline(d.Presence))

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/guest", handlers.GuestLogin(d.Limiter, cfg))
			authGroup.POST("/register", handlers.Register(d.Users, cfg))
			authGroup.POST("/login", handlers.Login(d.Users, cfg))
		}

		players := v1.Group("/players")
		{
			players.GET("/:id", handlers.GetPlayerProfile(d.Users))
			players.GET("/:id/games", handlers.GetPlayerGames(d.Games))
		}
	}
}
