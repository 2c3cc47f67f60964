package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
)

const (
	ActionJoinRoom   = "join-room"
	ActionRoomData   = "room-data"
	ActionRoomFull   = "room-full"
	ActionMakeMove   = "make-move"
	ActionMoveMade   = "move-made"
	ActionResetGame  = "reset-game"
	ActionResetBoard = "reset-board"
)

var ErrMalformedMessage = errors.New("malformed message")

// Message represents a relay message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinRoom struct {
	RoomID string `json:"roomId"`
	Size   int    `json:"size"`
}

type RoomData struct {
	RoomID  string       `json:"roomId"`
	Size    int          `json:"size"`
	Players []string     `json:"players"`
	Board   entity.Board `json:"board"`
	XIsNext bool         `json:"xIsNext"`
}

type RoomFull struct {
	RoomID string `json:"roomId"`
}

type MakeMove struct {
	RoomID string `json:"roomId"`
	Index  int    `json:"index"`
}

type MoveMade struct {
	RoomID  string       `json:"roomId"`
	Board   entity.Board `json:"board"`
	XIsNext bool         `json:"xIsNext"`
}

type ResetBoard struct {
	RoomID string `json:"roomId"`
}

// roomRef is the part every relay-to-client payload shares.
type roomRef struct {
	RoomID string `json:"roomId"`
}

// Encode wraps the payload into a message and serializes it.
func Encode(action string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", action, err)
	}

	data, err := json.Marshal(Message{Action: action, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s message: %w", action, err)
	}

	return data, nil
}

func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	if msg.Action == "" {
		return nil, fmt.Errorf("%w: action is missing", ErrMalformedMessage)
	}

	return &msg, nil
}

func DecodePayload[T any](msg *Message) (T, error) {
	var payload T
	if len(msg.Payload) == 0 {
		return payload, fmt.Errorf("%w: %s has no payload", ErrMalformedMessage, msg.Action)
	}

	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return payload, fmt.Errorf("%w: %s: %w", ErrMalformedMessage, msg.Action, err)
	}

	return payload, nil
}

// RoomIDOf reads the room a message belongs to. reset-game carries the bare room id,
// every other action carries an object with a roomId field.
func RoomIDOf(msg *Message) (string, error) {
	if msg.Action == ActionResetGame {
		return DecodePayload[string](msg)
	}

	ref, err := DecodePayload[roomRef](msg)
	if err != nil {
		return "", err
	}

	return ref.RoomID, nil
}
