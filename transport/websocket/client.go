package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-sync/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-sync/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-sync/internal/syncctl"
)

var _ syncctl.Relay = (*Client)(nil)

// Client is the process-wide relay connection of a player. Inbound events are routed
// to the subscription of the room they name.
type Client struct {
	logger   *slog.Logger
	clientID string
	ws       *websocket.Conn

	writeMutex sync.Mutex

	subscriptions      map[string]*subscription
	subscriptionsMutex sync.RWMutex

	done chan struct{}
	once sync.Once
}

type subscription struct {
	client  *Client
	roomID  string
	deliver func(syncctl.Event)
}

func (that *subscription) Close() {
	that.client.unsubscribe(that)
}

// Dial connects to the relay at rawURL as clientID.
func Dial(ctx context.Context, logger *slog.Logger, rawURL, clientID string) (*Client, error) {
	relayURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid relay url: %w", err)
	}

	query := relayURL.Query()
	query.Set(clientQueryParam, clientID)
	relayURL.RawQuery = query.Encode()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, relayURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrRelayUnavailable, err)
	}

	client := &Client{
		logger:   logger.With("component", "relay_client", "clientID", clientID),
		clientID: clientID,
		ws:       ws,

		subscriptions: make(map[string]*subscription),
		done:          make(chan struct{}),
	}

	go client.readLoop()

	return client, nil
}

func (that *Client) ClientID() string {
	return that.clientID
}

// Subscribe replaces an earlier subscription to the same room.
func (that *Client) Subscribe(roomID string, deliver func(syncctl.Event)) (syncctl.Subscription, error) {
	select {
	case <-that.done:
		return nil, apperror.ErrRelayUnavailable
	default:
	}

	sub := &subscription{client: that, roomID: roomID, deliver: deliver}

	that.subscriptionsMutex.Lock()
	that.subscriptions[roomID] = sub
	that.subscriptionsMutex.Unlock()

	return sub, nil
}

func (that *Client) JoinRoom(ctx context.Context, roomID string, size int) error {
	return that.send(ctx, protocol.ActionJoinRoom, protocol.JoinRoom{RoomID: roomID, Size: size})
}

func (that *Client) MakeMove(ctx context.Context, roomID string, index int) error {
	return that.send(ctx, protocol.ActionMakeMove, protocol.MakeMove{RoomID: roomID, Index: index})
}

func (that *Client) ResetGame(ctx context.Context, roomID string) error {
	return that.send(ctx, protocol.ActionResetGame, roomID)
}

// Done is closed once the connection is gone.
func (that *Client) Done() <-chan struct{} {
	return that.done
}

func (that *Client) Close() error {
	that.writeMutex.Lock()
	_ = that.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	that.writeMutex.Unlock()

	err := that.ws.Close()
	<-that.done

	return err
}

func (that *Client) unsubscribe(sub *subscription) {
	that.subscriptionsMutex.Lock()
	defer that.subscriptionsMutex.Unlock()

	if that.subscriptions[sub.roomID] == sub {
		delete(that.subscriptions, sub.roomID)
	}
}

func (that *Client) send(ctx context.Context, action string, payload any) error {
	data, err := protocol.Encode(action, payload)
	if err != nil {
		return err
	}

	select {
	case <-that.done:
		return apperror.ErrRelayUnavailable
	default:
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(writeWait)
	}

	that.writeMutex.Lock()
	defer that.writeMutex.Unlock()

	_ = that.ws.SetWriteDeadline(deadline)
	if err = that.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrRelayUnavailable, err)
	}

	return nil
}

func (that *Client) readLoop() {
	log := that.logger.With("method", "readLoop")

	defer that.once.Do(func() { close(that.done) })

	for {
		_, data, err := that.ws.ReadMessage()
		if err != nil {
			if !errors.Is(err, websocket.ErrCloseSent) &&
				websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("relay connection lost", "error", err)
			}

			return
		}

		that.route(data)
	}
}

func (that *Client) route(data []byte) {
	log := that.logger.With("method", "route")

	msg, err := protocol.Decode(data)
	if err != nil {
		log.Warn("dropped malformed message", "error", err)
		return
	}

	roomID, err := protocol.RoomIDOf(msg)
	if err != nil {
		log.Warn("dropped message without room", "action", msg.Action, "error", err)
		return
	}

	event, err := toEvent(msg)
	if err != nil {
		log.Warn("dropped message", "action", msg.Action, "error", err)
		return
	}

	that.subscriptionsMutex.RLock()
	sub, ok := that.subscriptions[roomID]
	that.subscriptionsMutex.RUnlock()

	if !ok {
		log.Debug("no subscription for room", "roomID", roomID, "action", msg.Action)
		return
	}

	sub.deliver(event)
}

func toEvent(msg *protocol.Message) (syncctl.Event, error) {
	switch msg.Action {
	case protocol.ActionRoomData:
		payload, err := protocol.DecodePayload[protocol.RoomData](msg)
		if err != nil {
			return nil, err
		}

		return syncctl.RoomSnapshot{
			Size:    payload.Size,
			Players: payload.Players,
			Board:   payload.Board,
			XIsNext: payload.XIsNext,
		}, nil
	case protocol.ActionRoomFull:
		return syncctl.RoomFull{}, nil
	case protocol.ActionMoveMade:
		payload, err := protocol.DecodePayload[protocol.MoveMade](msg)
		if err != nil {
			return nil, err
		}

		return syncctl.MoveMade{Board: payload.Board, XIsNext: payload.XIsNext}, nil
	case protocol.ActionResetBoard:
		return syncctl.BoardReset{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown action %s", protocol.ErrMalformedMessage, msg.Action)
	}
}
