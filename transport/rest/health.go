package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 3 * time.Second

// Pinger checks one dependency of the relay.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (that PingFunc) Ping(ctx context.Context) error {
	return that(ctx)
}

type healthHandler struct {
	logger    *slog.Logger
	storage   Pinger
	startTime time.Time
}

type healthResponse struct {
	Status string            `json:"status"`
	Uptime string            `json:"uptime"`
	Checks map[string]string `json:"checks"`
}

func (that *healthHandler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{
		Status: "ok",
		Uptime: time.Since(that.startTime).Round(time.Second).String(),
		Checks: map[string]string{"redis": "ok"},
	}

	if err := that.storage.Ping(ctx); err != nil {
		that.logger.Warn("redis is unhealthy", "method", "health", "error", err)

		resp.Status = "unhealthy"
		resp.Checks["redis"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, resp)

		return
	}

	c.JSON(http.StatusOK, resp)
}
