package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-sync/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
)

const (
	roomKeyPrefix = "room:"

	maxModifyRetries = 10
)

type RoomRepository interface {
	CreateOrUpdate(ctx context.Context, room *entity.Room) error
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	DeleteByID(ctx context.Context, id string) error
	// Modify passes the stored room, or nil when there is none, to fn and stores what fn
	// returns. A nil result deletes the room, an error aborts without writing.
	Modify(ctx context.Context, id string, fn func(room *entity.Room) (*entity.Room, error)) (*entity.Room, error)
}

type dbRoom struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRoomRepository stores rooms as JSON. Every write refreshes the ttl, zero keeps rooms forever.
func NewRoomRepository(client *redis.Client, ttl time.Duration) RoomRepository {
	return &dbRoom{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbRoom) CreateOrUpdate(ctx context.Context, room *entity.Room) error {
	roomJSON, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("could not marshal room: %w", err)
	}

	err = that.client.Set(ctx, roomKeyPrefix+room.ID, roomJSON, that.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	return nil
}

func (that *dbRoom) GetByID(ctx context.Context, id string) (*entity.Room, error) {
	return getRoom(ctx, that.client, roomKeyPrefix+id)
}

func (that *dbRoom) DeleteByID(ctx context.Context, id string) error {
	deleted, err := that.client.Del(ctx, roomKeyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete room by ID: %w", err)
	}

	if deleted == 0 {
		return apperror.ErrRoomNotFound
	}

	return nil
}

// Modify runs fn inside an optimistic transaction on the room key and retries when another
// writer changed the room in between.
func (that *dbRoom) Modify(ctx context.Context, id string, fn func(room *entity.Room) (*entity.Room, error)) (*entity.Room, error) {
	key := roomKeyPrefix + id

	var result *entity.Room

	txf := func(tx *redis.Tx) error {
		current, err := getRoom(ctx, tx, key)
		if errors.Is(err, apperror.ErrRoomNotFound) {
			current = nil
		} else if err != nil {
			return err
		}

		updated, err := fn(current)
		if err != nil {
			return err
		}

		var roomJSON []byte
		if updated != nil {
			if roomJSON, err = json.Marshal(updated); err != nil {
				return fmt.Errorf("could not marshal room: %w", err)
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if updated == nil {
				pipe.Del(ctx, key)
				return nil
			}

			pipe.Set(ctx, key, roomJSON, that.ttl)
			return nil
		})
		if err != nil {
			return err
		}

		result = updated

		return nil
	}

	for i := 0; i < maxModifyRetries; i++ {
		err := that.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("failed to modify room %s: %w", id, err)
		}

		return result, nil
	}

	return nil, fmt.Errorf("%w: room %s", apperror.ErrTooManyRetries, id)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getRoom(ctx context.Context, client getter, key string) (*entity.Room, error) {
	response, err := client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrRoomNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	var room entity.Room
	if err = json.Unmarshal([]byte(response), &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	return &room, nil
}
