package handler

import (
	"context"
	"net/http"
	"time"

	"hotelbilling/internal/infra"
	"hotelbilling/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health checks DB and Redis connectivity. Redis only degrades the report: invoice
// operations keep working without it. The reconciliation breaker state is informational.
func Health(db *gorm.DB, rdb *redis.Client, cb *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		var dlqDepth int64 = -1
		if rdb == nil {
			redisStatus = "disabled"
		} else if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		} else if n, err := worker.DLQLength(ctx, rdb, worker.QueueReconciliation); err == nil {
			dlqDepth = n
		}

		status := http.StatusOK
		if dbStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		body := gin.H{
			"ok":    status == http.StatusOK,
			"db":    dbStatus,
			"redis": redisStatus,
		}
		if dlqDepth >= 0 {
			body["reconciliation_dlq"] = dlqDepth
		}
		if cb != nil {
			body["reconciliation"] = cb.State().String()
		}
		c.JSON(status, body)
	}
}
