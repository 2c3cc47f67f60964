package websocket

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-sync/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sync/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-sync/internal/tictactoe"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// memoryRooms follows the room rules of the relay without storage.
type memoryRooms struct {
	mu    sync.Mutex
	rooms map[string]*entity.Room
	seats map[string]string
}

func newMemoryRooms() *memoryRooms {
	return &memoryRooms{
		rooms: make(map[string]*entity.Room),
		seats: make(map[string]string),
	}
}

func (that *memoryRooms) JoinRoom(_ context.Context, playerID, roomID string, size int) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if size == 0 {
		size = entity.ClassicBoardSize
	}

	conf, err := entity.NewGameConfig(size)
	if err != nil {
		return nil, err
	}

	if previous, ok := that.seats[playerID]; ok && previous != roomID {
		that.leave(playerID, previous)
	}

	room, ok := that.rooms[roomID]
	if !ok {
		room = entity.NewRoom(roomID, conf)
	}

	if err = room.AddPlayer(playerID); err != nil {
		return nil, err
	}

	that.rooms[roomID] = room
	that.seats[playerID] = roomID

	return snapshot(room), nil
}

func (that *memoryRooms) MakeMove(_ context.Context, playerID, roomID string, index int) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[roomID]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	mark, ok := room.MarkOf(playerID)
	if !ok {
		return nil, apperror.ErrNotInRoom
	}

	if !room.IsFull() {
		return nil, apperror.ErrNotInRoom
	}

	if err := tictactoe.MakeTurn(room, mark, index); err != nil {
		return nil, err
	}

	return snapshot(room), nil
}

func (that *memoryRooms) ResetGame(_ context.Context, playerID, roomID string) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[roomID]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	if !room.HasPlayer(playerID) {
		return nil, apperror.ErrNotInRoom
	}

	room.Reset()

	return snapshot(room), nil
}

func (that *memoryRooms) LeaveRoom(_ context.Context, playerID string) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	roomID, ok := that.seats[playerID]
	if !ok {
		return nil, nil
	}

	return that.leave(playerID, roomID), nil
}

func (that *memoryRooms) GetOrCreatePlayer(_ context.Context, id string) (*entity.Player, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return &entity.Player{ID: id, RoomID: that.seats[id]}, nil
}

func (that *memoryRooms) leave(playerID, roomID string) *entity.Room {
	delete(that.seats, playerID)

	room, ok := that.rooms[roomID]
	if !ok {
		return nil
	}

	room.RemovePlayer(playerID)
	if room.IsEmpty() {
		delete(that.rooms, roomID)
		return nil
	}

	return snapshot(room)
}

func (that *memoryRooms) room(roomID string) (*entity.Room, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[roomID]
	if !ok {
		return nil, false
	}

	return snapshot(room), true
}

func snapshot(room *entity.Room) *entity.Room {
	copied := *room
	copied.Board = room.Board.Clone()
	copied.Players = append([]string(nil), room.Players...)

	return &copied
}

func startRelay(t *testing.T) (*httptest.Server, *memoryRooms) {
	t.Helper()

	rooms := newMemoryRooms()

	return startRelayWith(t, rooms), rooms
}

func startRelayWith(t *testing.T, rooms uRoom) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(New(discardLogger(), rooms))
	t.Cleanup(server.Close)

	return server
}

// gatedRooms stores a move and then holds it until released, like a slow handler
// between the store and the send.
type gatedRooms struct {
	*memoryRooms

	moveStored  chan struct{}
	releaseMove chan struct{}
	resetCalled atomic.Bool
}

func newGatedRooms() *gatedRooms {
	return &gatedRooms{
		memoryRooms: newMemoryRooms(),
		moveStored:  make(chan struct{}),
		releaseMove: make(chan struct{}),
	}
}

func (that *gatedRooms) MakeMove(ctx context.Context, playerID, roomID string, index int) (*entity.Room, error) {
	room, err := that.memoryRooms.MakeMove(ctx, playerID, roomID, index)

	close(that.moveStored)
	<-that.releaseMove

	return room, err
}

func (that *gatedRooms) ResetGame(ctx context.Context, playerID, roomID string) (*entity.Room, error) {
	that.resetCalled.Store(true)
	return that.memoryRooms.ResetGame(ctx, playerID, roomID)
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

// rawClient talks the wire protocol directly.
type rawClient struct {
	t  *testing.T
	ws *websocket.Conn
}

func dialRaw(t *testing.T, server *httptest.Server, clientID string) *rawClient {
	t.Helper()

	ws, _, err := websocket.DefaultDialer.Dial(wsURL(server)+"?client="+clientID, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	return &rawClient{t: t, ws: ws}
}

func (that *rawClient) send(action string, payload any) {
	that.t.Helper()

	data, err := protocol.Encode(action, payload)
	require.NoError(that.t, err)
	require.NoError(that.t, that.ws.WriteMessage(websocket.TextMessage, data))
}

func (that *rawClient) read() *protocol.Message {
	that.t.Helper()

	require.NoError(that.t, that.ws.SetReadDeadline(time.Now().Add(2*time.Second)))

	_, data, err := that.ws.ReadMessage()
	require.NoError(that.t, err)

	msg, err := protocol.Decode(data)
	require.NoError(that.t, err)

	return msg
}

// silent checks nothing arrives for a short while. The read deadline breaks the
// connection, so it has to be the last read.
func (that *rawClient) silent() {
	that.t.Helper()

	require.NoError(that.t, that.ws.SetReadDeadline(time.Now().Add(150*time.Millisecond)))

	_, data, err := that.ws.ReadMessage()
	require.Error(that.t, err, "unexpected message %s", data)
}
