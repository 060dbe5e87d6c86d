package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/eightball/internal/logger"
)

// pathUserID parses the :id route param, replying 400 when it is not a positive integer.
func pathUserID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
		return 0, false
	}
	return id, true
}

// internalError logs err under tag and replies with a generic 500.
func internalError(c *gin.Context, tag string, err error) {
	logger.Log.Errorf("%s %s %s: %v", tag, c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
