package websocket

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	maxMessageSize = 4096
	sendBuffer     = 64
)

// connection is one client socket. Only writePump writes to ws.
type connection struct {
	id     string
	ws     *websocket.Conn
	logger *slog.Logger

	send chan []byte
	done chan struct{}
	once sync.Once
}

func newConnection(id string, ws *websocket.Conn, logger *slog.Logger) *connection {
	return &connection{
		id:     id,
		ws:     ws,
		logger: logger.With("clientID", id),
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// enqueue drops the connection when the client does not keep up.
func (that *connection) enqueue(data []byte) {
	select {
	case <-that.done:
	case that.send <- data:
	default:
		that.logger.Warn("send buffer is full, closing connection")
		that.close()
	}
}

func (that *connection) close() {
	that.once.Do(func() {
		close(that.done)
		_ = that.ws.Close()
	})
}

func (that *connection) readPump(handle func(data []byte)) {
	defer that.close()

	that.ws.SetReadLimit(maxMessageSize)
	_ = that.ws.SetReadDeadline(time.Now().Add(pongWait))
	that.ws.SetPongHandler(func(string) error {
		return that.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := that.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				that.logger.Warn("read failed", "method", "readPump", "error", err)
			}

			return
		}

		handle(data)
	}
}

func (that *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		that.close()
	}()

	for {
		select {
		case <-that.done:
			_ = that.ws.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
			return
		case data := <-that.send:
			_ = that.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				that.logger.Warn("write failed", "method", "writePump", "error", err)
				return
			}
		case <-ticker.C:
			_ = that.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
