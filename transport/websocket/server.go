package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sync/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-sync/internal/protocol"
)

const clientQueryParam = "client"

type uRoom interface {
	JoinRoom(ctx context.Context, playerID, roomID string, size int) (*entity.Room, error)
	MakeMove(ctx context.Context, playerID, roomID string, index int) (*entity.Room, error)
	ResetGame(ctx context.Context, playerID, roomID string) (*entity.Room, error)
	LeaveRoom(ctx context.Context, playerID string) (*entity.Room, error)
	GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error)
}

type handlerFunc func(ctx context.Context, conn *connection, msg *protocol.Message) error

// Server is the relay: it keeps one connection per client id and fans room events out
// to every member of the room.
type Server struct {
	logger   *slog.Logger
	uRoom    uRoom
	upgrader websocket.Upgrader

	handlers map[string]handlerFunc
	rooms    roomLocks

	connections      map[string]*connection
	connectionsMutex sync.RWMutex
}

func New(logger *slog.Logger, uRoom uRoom) *Server {
	server := &Server{
		logger: logger.With("component", "relay"),
		uRoom:  uRoom,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},

		handlers:    make(map[string]handlerFunc),
		connections: make(map[string]*connection),
	}

	server.handlers[protocol.ActionJoinRoom] = server.handleJoinRoom
	server.handlers[protocol.ActionMakeMove] = server.handleMakeMove
	server.handlers[protocol.ActionResetGame] = server.handleResetGame

	return server
}

// ServeHTTP upgrades the request of one client. The client id comes from the client query parameter.
func (that *Server) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	clientID := req.URL.Query().Get(clientQueryParam)
	if _, err := uuid.Parse(clientID); err != nil {
		http.Error(writer, "client must be a uuid", http.StatusBadRequest)
		return
	}

	ws, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	conn := newConnection(clientID, ws, that.logger)
	that.register(conn)

	log.Info("client connected", "clientID", clientID)

	go conn.writePump()

	ctx := context.WithoutCancel(req.Context())
	conn.readPump(func(data []byte) {
		that.handleMessage(ctx, conn, data)
	})

	if that.unregister(conn) {
		that.disconnect(ctx, clientID)
	}

	log.Info("client disconnected", "clientID", clientID)
}

func (that *Server) handleMessage(ctx context.Context, conn *connection, data []byte) {
	log := that.logger.With("method", "handleMessage", "clientID", conn.id)

	msg, err := protocol.Decode(data)
	if err != nil {
		log.Warn("failed to decode message", "error", err)
		metrics.Messages.WithLabelValues("malformed").Inc()

		return
	}

	handler, ok := that.handlers[msg.Action]
	if !ok {
		log.Warn("unknown action", "action", msg.Action)
		metrics.Messages.WithLabelValues("unknown").Inc()

		return
	}

	metrics.Messages.WithLabelValues(msg.Action).Inc()

	if err = handler(ctx, conn, msg); err != nil {
		log.Info("message ignored", "action", msg.Action, "error", err)
	}
}

// register replaces an older connection of the same client.
func (that *Server) register(conn *connection) {
	that.connectionsMutex.Lock()
	previous, ok := that.connections[conn.id]
	that.connections[conn.id] = conn
	that.connectionsMutex.Unlock()

	if ok {
		previous.close()
	} else {
		metrics.Connections.Inc()
	}
}

// unregister reports whether conn was still the client's current connection.
func (that *Server) unregister(conn *connection) bool {
	conn.close()

	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	if that.connections[conn.id] != conn {
		return false
	}

	delete(that.connections, conn.id)
	metrics.Connections.Dec()

	return true
}

func (that *Server) disconnect(ctx context.Context, clientID string) {
	if err := that.leave(ctx, clientID, ""); err != nil {
		that.logger.Error("failed to leave room", "method", "disconnect", "clientID", clientID, "error", err)
	}
}

// leave takes the player out of its room unless that room is keep. An empty keep also
// forgets the player. The member left behind gets the room with the free seat.
func (that *Server) leave(ctx context.Context, playerID, keep string) error {
	player, err := that.uRoom.GetOrCreatePlayer(ctx, playerID)
	if err != nil {
		return err
	}

	if !player.InRoom() || player.RoomID == keep {
		if keep == "" {
			_, err = that.uRoom.LeaveRoom(ctx, playerID)
		}

		return err
	}

	unlock := that.rooms.lock(player.RoomID)
	defer unlock()

	room, err := that.uRoom.LeaveRoom(ctx, playerID)
	if err != nil {
		return err
	}

	if room == nil {
		return nil
	}

	return that.broadcast(room, protocol.ActionRoomData, roomData(room))
}

func (that *Server) lookup(clientID string) (*connection, bool) {
	that.connectionsMutex.RLock()
	defer that.connectionsMutex.RUnlock()

	conn, ok := that.connections[clientID]

	return conn, ok
}

// broadcast sends the message to every member of the room that is connected.
func (that *Server) broadcast(room *entity.Room, action string, payload any) error {
	data, err := protocol.Encode(action, payload)
	if err != nil {
		return err
	}

	for _, playerID := range room.Members() {
		conn, ok := that.lookup(playerID)
		if !ok {
			that.logger.Warn("connection not found for player", "method", "broadcast", "playerID", playerID)
			continue
		}

		conn.enqueue(data)
	}

	return nil
}

func (that *Server) reply(conn *connection, action string, payload any) error {
	data, err := protocol.Encode(action, payload)
	if err != nil {
		return err
	}

	conn.enqueue(data)

	return nil
}
