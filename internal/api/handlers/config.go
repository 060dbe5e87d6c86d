package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/eightball/internal/config"
	"github.com/playmatatu/eightball/internal/game"
)

// GetConfig returns the table constants the client draws with
func GetConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"width":       game.TableWidth,
			"height":      game.TableHeight,
			"ball_radius": game.BallRadius,
			"max_power":   game.MaxPower,
			"tick_rate":   cfg.TickRate,
		})
	}
}
