package handlers

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/database"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/dto"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Pinger reports connectivity of an optional backend such as Redis.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db    *gorm.DB
	cache Pinger
}

func NewHealthHandler(db *gorm.DB, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "ok"

	dbStatus := "ok"
	if err := database.Ping(h.db); err != nil {
		dbStatus = "unhealthy: " + err.Error()
		status = "degraded"
	}

	cacheStatus := "ok"
	if h.cache != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := h.cache.Ping(ctx); err != nil {
			cacheStatus = "unhealthy: " + err.Error()
			status = "degraded"
		}
	}

	return c.JSON(dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Cache:     cacheStatus,
	})
}
