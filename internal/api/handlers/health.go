package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

const version = "1.0.0"

// ConnCounter reports how many WebSocket connections are open.
type ConnCounter interface {
	Count() int
}

// HealthCheck returns server health status
func HealthCheck(conns ConnCounter) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":  "ok",
			"service": "eightball-api",
			"version": version,
			"uptime":  time.Since(startTime).String(),
		}
		if conns != nil {
			body["connections"] = conns.Count()
		}
		c.JSON(http.StatusOK, body)
	}
}
