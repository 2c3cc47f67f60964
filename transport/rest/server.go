package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

// NewRouter serves the relay endpoints: /ping, /healthz, /metrics and the websocket at /ws.
func NewRouter(logger *slog.Logger, storage Pinger, relay http.Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	health := &healthHandler{
		logger:    logger.With("component", "health"),
		storage:   storage,
		startTime: time.Now(),
	}

	router.GET("/ping", pingHandler)
	router.GET("/healthz", health.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", gin.WrapH(relay))

	return router
}

// Start serves handler until ctx is canceled, then shuts down gracefully.
func Start(ctx context.Context, logger *slog.Logger, port string, handler http.Handler) error {
	log := logger.With("method", "Start")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
