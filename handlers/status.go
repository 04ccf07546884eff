package handlers

import (
	"context"
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/quotes_backend/config"
	"github.com/gin-gonic/gin"
)

type connectionStatus struct {
	Connected bool   `json:"connected"`
	LatencyMs int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

func HealthzHandler(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// StatusHandler pings the database and redis and reports both.
func StatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"database": pingDatabase(ctx),
				"redis":    pingRedis(ctx),
			},
		})
	}
}

func pingDatabase(ctx context.Context) connectionStatus {
	db := config.GetDB()
	if db == nil {
		return connectionStatus{Error: "not connected"}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return connectionStatus{Error: err.Error()}
	}
	start := time.Now()
	if err := sqlDB.PingContext(ctx); err != nil {
		return connectionStatus{Error: err.Error()}
	}
	return connectionStatus{Connected: true, LatencyMs: time.Since(start).Milliseconds()}
}

func pingRedis(ctx context.Context) connectionStatus {
	start := time.Now()
	ok, err := config.PingRedis(ctx)
	if err != nil {
		return connectionStatus{Error: err.Error()}
	}
	if !ok {
		return connectionStatus{Error: "not connected"}
	}
	return connectionStatus{Connected: true, LatencyMs: time.Since(start).Milliseconds()}
}
