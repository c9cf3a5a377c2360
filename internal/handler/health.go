package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewHealthHandler(db *gorm.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb}
}

// Check reports liveness of the service and its backing stores. The tenant
// databases are deliberately not probed here; they belong to the clients.
func (h *HealthHandler) Check(c *gin.Context) {
	status := gin.H{"status": "ok"}
	code := http.StatusOK

	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			status["database"] = "down"
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
		} else {
			status["database"] = "up"
		}
	}
	if h.rdb != nil {
		if err := h.rdb.Ping(c.Request.Context()).Err(); err != nil {
			status["redis"] = "down"
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
		} else {
			status["redis"] = "up"
		}
	}

	c.JSON(code, status)
}
