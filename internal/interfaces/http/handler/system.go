package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SystemHandler exposes health and service information endpoints
type SystemHandler struct {
	BaseHandler
	db        *gorm.DB
	redis     *redis.Client
	name      string
	env       string
	startedAt time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db *gorm.DB, redisClient *redis.Client, name, env string) *SystemHandler {
	return &SystemHandler{
		db:        db,
		redis:     redisClient,
		name:      name,
		env:       env,
		startedAt: time.Now(),
	}
}

// RegisterRoutes registers the system endpoints on the root engine so they
// stay outside the versioned API group
func (h *SystemHandler) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/health", h.Health)
	engine.GET("/ping", h.Ping)
	engine.GET("/info", h.Info)
}

// Ping is a minimal liveness probe
func (h *SystemHandler) Ping(c *gin.Context) {
	c.JSON(200, gin.H{"message": "pong"})
}

// Health reports the status of the service and its dependencies
func (h *SystemHandler) Health(c *gin.Context) {
	checks := gin.H{}
	healthy := true

	if h.db != nil {
		status := "ok"
		sqlDB, err := h.db.DB()
		if err != nil {
			status = "error: " + err.Error()
			healthy = false
		} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
			status = "error: " + err.Error()
			healthy = false
		}
		checks["database"] = status
	}

	if h.redis != nil {
		status := "ok"
		if err := h.redis.Ping(c.Request.Context()).Err(); err != nil {
			status = "error: " + err.Error()
			healthy = false
		}
		checks["redis"] = status
	}

	statusCode := 200
	overall := "healthy"
	if !healthy {
		statusCode = 503
		overall = "unhealthy"
	}

	c.JSON(statusCode, gin.H{
		"status": overall,
		"checks": checks,
	})
}

// Info returns basic service metadata
func (h *SystemHandler) Info(c *gin.Context) {
	h.Success(c, gin.H{
		"name":        h.name,
		"environment": h.env,
		"uptime":      time.Since(h.startedAt).Round(time.Second).String(),
	})
}
