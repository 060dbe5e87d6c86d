package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/playmatatu/eightball/internal/config"
	"github.com/playmatatu/eightball/internal/ws"
)

// HandleGameWebSocket handles real-time game communication
func HandleGameWebSocket(hub *ws.Hub, users ws.UserLookup, cfg *config.Config) gin.HandlerFunc {
	return ws.HandleWebSocket(hub, cfg, users)
}
