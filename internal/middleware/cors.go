package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/playmatatu/eightball/internal/config"
	"github.com/playmatatu/eightball/internal/logger"
)

// devOrigins are accepted outside production in addition to FrontendURL.
var devOrigins = []string{
	"http://localhost:5173", // Vite dev server
	"http://127.0.0.1:5173",
}

// AllowedOrigins lists the browser origins allowed for the environment.
func AllowedOrigins(cfg *config.Config) []string {
	var origins []string
	if !cfg.IsProduction() {
		origins = append(origins, devOrigins...)
	}
	if cfg.FrontendURL != "" {
		for _, o := range origins {
			if o == cfg.FrontendURL {
				return origins
			}
		}
		origins = append(origins, cfg.FrontendURL)
	}
	return origins
}

// CORSMiddleware returns a CORS middleware configured for the environment
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	origins := AllowedOrigins(cfg)
	logger.Log.Infof("[CORS] Environment: %s, allowed origins: %v", cfg.Environment, origins)

	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Length", "Content-Type", "Authorization",
			"Accept", "Cache-Control", "X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour, // Cache preflight responses
	})
}

// WebSocketCORSCheck validates WebSocket upgrade origins. Upgrades without an
// Origin header come from non-browser clients and are let through.
func WebSocketCORSCheck(cfg *config.Config) gin.HandlerFunc {
	origins := AllowedOrigins(cfg)
	return func(c *gin.Context) {
		if !strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			c.Next()
			return
		}

		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		allowed := false
		if !cfg.IsProduction() {
			allowed = strings.HasPrefix(origin, "http://localhost:") ||
				strings.HasPrefix(origin, "http://127.0.0.1:")
		}
		for _, o := range origins {
			if origin == o {
				allowed = true
				break
			}
		}

		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "WebSocket origin not allowed"})
			return
		}
		c.Next()
	}
}
