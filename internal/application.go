package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-sync/internal/config"
	"github.com/rocketscienceinc/tictactoe-sync/internal/repository"
	"github.com/rocketscienceinc/tictactoe-sync/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-sync/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-sync/transport/rest"
	"github.com/rocketscienceinc/tictactoe-sync/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the relay until SIGINT or SIGTERM.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if conf.Redis.GetRedisAddr() == "" {
		return ErrAddrNotFound
	}

	redisClient, err := storage.New(ctx, conf.Redis)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	playerRepo := repository.NewPlayerRepository(redisClient, conf.Room.TTL)
	roomRepo := repository.NewRoomRepository(redisClient, conf.Room.TTL)
	roomManager := usecase.NewRoomManager(logger, playerRepo, roomRepo)

	relay := websocket.New(logger, roomManager)
	router := rest.NewRouter(logger, rest.PingFunc(func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	}), relay)

	if err = rest.Start(ctx, logger, conf.HTTPPort, router); err != nil {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	log.Info("Application context canceled, shutting down")

	return nil
}
