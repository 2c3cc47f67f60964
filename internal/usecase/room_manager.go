package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rocketscienceinc/tictactoe-sync/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sync/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-sync/internal/tictactoe"
)

var ErrWaitingForPeer = errors.New("room is waiting for a second player")

type playerRepoDep interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
	DeleteByID(ctx context.Context, id string) error
}

type roomRepoDep interface {
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	Modify(ctx context.Context, id string, fn func(room *entity.Room) (*entity.Room, error)) (*entity.Room, error)
}

// RoomManager applies the relay's room rules against storage. Every room change runs in one
// repository transaction, so the stored room is the only source of truth.
type RoomManager struct {
	logger     *slog.Logger
	playerRepo playerRepoDep
	roomRepo   roomRepoDep
}

func NewRoomManager(logger *slog.Logger, playerRepo playerRepoDep, roomRepo roomRepoDep) *RoomManager {
	return &RoomManager{
		logger: logger.With("component", "room_manager"),

		playerRepo: playerRepo,
		roomRepo:   roomRepo,
	}
}

// JoinRoom seats the player, creating the room with the requested size when it does not exist.
// The size of an existing room wins. A player that sits in another room leaves it first.
func (that *RoomManager) JoinRoom(ctx context.Context, playerID, roomID string, size int) (*entity.Room, error) {
	log := that.logger.With("method", "JoinRoom", "playerID", playerID, "roomID", roomID)

	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return nil, apperror.ErrEmptyRoomID
	}

	if size == 0 {
		size = entity.ClassicBoardSize
	}

	conf, err := entity.NewGameConfig(size)
	if err != nil {
		return nil, fmt.Errorf("failed to join room: %w", err)
	}

	player, err := that.GetOrCreatePlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if player.InRoom() && player.RoomID != roomID {
		if _, err = that.leave(ctx, playerID, player.RoomID); err != nil {
			return nil, fmt.Errorf("failed to leave room %s: %w", player.RoomID, err)
		}
	}

	created := false
	room, err := that.roomRepo.Modify(ctx, roomID, func(current *entity.Room) (*entity.Room, error) {
		created = current == nil
		if created {
			current = entity.NewRoom(roomID, conf)
		}

		if err := current.AddPlayer(playerID); err != nil {
			return nil, err
		}

		return current, nil
	})
	if errors.Is(err, apperror.ErrRoomFull) {
		metrics.Rooms.WithLabelValues(metrics.RoomRejected).Inc()
		log.Info("room is full")

		return nil, apperror.ErrRoomFull
	}

	if err != nil {
		return nil, fmt.Errorf("failed to join room: %w", err)
	}

	if created {
		metrics.Rooms.WithLabelValues(metrics.RoomCreated).Inc()
	}

	player.RoomID = roomID
	if err = that.updatePlayer(ctx, player); err != nil {
		return nil, err
	}

	log.Info("player joined", "players", len(room.Members()), "size", room.Config.BoardSize)

	return room, nil
}

// MakeMove applies the player's move to the room it names.
func (that *RoomManager) MakeMove(ctx context.Context, playerID, roomID string, index int) (*entity.Room, error) {
	room, err := that.roomRepo.Modify(ctx, roomID, func(current *entity.Room) (*entity.Room, error) {
		if current == nil {
			return nil, apperror.ErrRoomNotFound
		}

		mark, ok := current.MarkOf(playerID)
		if !ok {
			return nil, apperror.ErrNotInRoom
		}

		if !current.IsFull() {
			return nil, ErrWaitingForPeer
		}

		if err := tictactoe.MakeTurn(current, mark, index); err != nil {
			return nil, err
		}

		return current, nil
	})
	if err != nil {
		metrics.Moves.WithLabelValues(metrics.MoveRejected).Inc()
		return nil, fmt.Errorf("failed make turn: %w", err)
	}

	metrics.Moves.WithLabelValues(metrics.MoveAccepted).Inc()

	return room, nil
}

// ResetGame clears the board of a room the player sits in.
func (that *RoomManager) ResetGame(ctx context.Context, playerID, roomID string) (*entity.Room, error) {
	room, err := that.roomRepo.Modify(ctx, roomID, func(current *entity.Room) (*entity.Room, error) {
		if current == nil {
			return nil, apperror.ErrRoomNotFound
		}

		if !current.HasPlayer(playerID) {
			return nil, apperror.ErrNotInRoom
		}

		current.Reset()

		return current, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reset game: %w", err)
	}

	return room, nil
}

// LeaveRoom frees the player's seat and forgets the player. It returns the room the player
// left, or nil when the player sat nowhere or the room is now gone.
func (that *RoomManager) LeaveRoom(ctx context.Context, playerID string) (*entity.Room, error) {
	log := that.logger.With("method", "LeaveRoom", "playerID", playerID)

	player, err := that.playerRepo.GetByID(ctx, playerID)
	if errors.Is(err, apperror.ErrPlayerNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	var room *entity.Room
	if player.InRoom() {
		if room, err = that.leave(ctx, playerID, player.RoomID); err != nil {
			return nil, fmt.Errorf("failed to leave room %s: %w", player.RoomID, err)
		}
	}

	if err = that.playerRepo.DeleteByID(ctx, playerID); err != nil {
		log.Error("failed to delete player", "error", err)
	}

	log.Info("player left", "roomID", player.RoomID)

	return room, nil
}

func (that *RoomManager) GetRoom(ctx context.Context, roomID string) (*entity.Room, error) {
	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return room, nil
}

func (that *RoomManager) GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error) {
	player, err := that.playerRepo.GetByID(ctx, id)
	if errors.Is(err, apperror.ErrPlayerNotFound) {
		return &entity.Player{ID: id}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	return player, nil
}

func (that *RoomManager) leave(ctx context.Context, playerID, roomID string) (*entity.Room, error) {
	deleted := false

	room, err := that.roomRepo.Modify(ctx, roomID, func(current *entity.Room) (*entity.Room, error) {
		if current == nil {
			return nil, nil
		}

		current.RemovePlayer(playerID)
		if current.IsEmpty() {
			deleted = true
			return nil, nil
		}

		return current, nil
	})
	if err != nil {
		return nil, err
	}

	if deleted {
		metrics.Rooms.WithLabelValues(metrics.RoomDeleted).Inc()
	}

	return room, nil
}

func (that *RoomManager) updatePlayer(ctx context.Context, player *entity.Player) error {
	if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	return nil
}
