package syncctl

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-sync/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sync/internal/tictactoe"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type sentMove struct {
	roomID string
	index  int
}

type sentJoin struct {
	roomID string
	size   int
}

// scriptedRelay records what the controller sends and lets a test push events by hand.
type scriptedRelay struct {
	clientID string
	subs     []*scriptedSub

	joins  []sentJoin
	moves  []sentMove
	resets []string

	subscribeErr error
	sendErr      error
}

type scriptedSub struct {
	roomID  string
	deliver func(Event)
	closed  bool
}

func (that *scriptedSub) Close() {
	that.closed = true
}

func (that *scriptedRelay) ClientID() string {
	return that.clientID
}

func (that *scriptedRelay) Subscribe(roomID string, deliver func(Event)) (Subscription, error) {
	if that.subscribeErr != nil {
		return nil, that.subscribeErr
	}

	sub := &scriptedSub{roomID: roomID, deliver: deliver}
	that.subs = append(that.subs, sub)

	return sub, nil
}

func (that *scriptedRelay) JoinRoom(_ context.Context, roomID string, size int) error {
	that.joins = append(that.joins, sentJoin{roomID: roomID, size: size})
	return that.sendErr
}

func (that *scriptedRelay) MakeMove(_ context.Context, roomID string, index int) error {
	that.moves = append(that.moves, sentMove{roomID: roomID, index: index})
	return that.sendErr
}

func (that *scriptedRelay) ResetGame(_ context.Context, roomID string) error {
	that.resets = append(that.resets, roomID)
	return that.sendErr
}

// push delivers an event to every open subscription of the room.
func (that *scriptedRelay) push(roomID string, event Event) {
	for _, sub := range that.subs {
		if sub.roomID == roomID && !sub.closed {
			sub.deliver(event)
		}
	}
}

func (that *scriptedRelay) lastSub() *scriptedSub {
	if len(that.subs) == 0 {
		return nil
	}

	return that.subs[len(that.subs)-1]
}

// memoryHub is an in-process relay that applies the same room rules as the relay server.
type memoryHub struct {
	rooms   map[string]*entity.Room
	clients map[string]*hubClient
}

func newMemoryHub() *memoryHub {
	return &memoryHub{
		rooms:   make(map[string]*entity.Room),
		clients: make(map[string]*hubClient),
	}
}

func (that *memoryHub) client(id string) *hubClient {
	client := &hubClient{hub: that, id: id, subs: make(map[string]*hubSub)}
	that.clients[id] = client

	return client
}

func (that *memoryHub) broadcast(room *entity.Room, event Event) {
	for _, id := range room.Members() {
		that.clients[id].deliver(room.ID, event)
	}
}

func (that *memoryHub) snapshot(room *entity.Room) RoomSnapshot {
	return RoomSnapshot{
		Size:    room.Config.BoardSize,
		Players: append([]string(nil), room.Players...),
		Board:   room.Board.Clone(),
		XIsNext: room.XIsNext,
	}
}

type hubClient struct {
	hub  *memoryHub
	id   string
	subs map[string]*hubSub
}

type hubSub struct {
	deliver func(Event)
	closed  bool
}

func (that *hubSub) Close() {
	that.closed = true
}

func (that *hubClient) deliver(roomID string, event Event) {
	if sub, ok := that.subs[roomID]; ok && !sub.closed {
		sub.deliver(event)
	}
}

func (that *hubClient) ClientID() string {
	return that.id
}

func (that *hubClient) Subscribe(roomID string, deliver func(Event)) (Subscription, error) {
	sub := &hubSub{deliver: deliver}
	that.subs[roomID] = sub

	return sub, nil
}

func (that *hubClient) JoinRoom(_ context.Context, roomID string, size int) error {
	room, ok := that.hub.rooms[roomID]
	if !ok {
		conf, err := entity.NewGameConfig(size)
		if err != nil {
			return nil
		}

		room = entity.NewRoom(roomID, conf)
		that.hub.rooms[roomID] = room
	}

	if err := room.AddPlayer(that.id); errors.Is(err, apperror.ErrRoomFull) {
		that.deliver(roomID, RoomFull{})
		return nil
	}

	if room.IsFull() {
		that.hub.broadcast(room, that.hub.snapshot(room))
	}

	return nil
}

func (that *hubClient) MakeMove(_ context.Context, roomID string, index int) error {
	room, ok := that.hub.rooms[roomID]
	if !ok {
		return nil
	}

	mark, ok := room.MarkOf(that.id)
	if !ok {
		return nil
	}

	if err := tictactoe.MakeTurn(room, mark, index); err != nil {
		return nil
	}

	that.hub.broadcast(room, MoveMade{Board: room.Board.Clone(), XIsNext: room.XIsNext})

	return nil
}

func (that *hubClient) ResetGame(_ context.Context, roomID string) error {
	room, ok := that.hub.rooms[roomID]
	if !ok || !room.HasPlayer(that.id) {
		return nil
	}

	room.Reset()
	that.hub.broadcast(room, BoardReset{})

	return nil
}
