package websocket

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sync/internal/protocol"
)

func pairedClients(t *testing.T) (*rawClient, *rawClient) {
	t.Helper()

	server, rooms := startRelay(t)
	aliceID, bobID := uuid.NewString(), uuid.NewString()

	alice := dialRaw(t, server, aliceID)
	bob := dialRaw(t, server, bobID)

	alice.send(protocol.ActionJoinRoom, protocol.JoinRoom{RoomID: "r1", Size: 3})
	waitSeated(t, rooms, "r1", aliceID)
	bob.send(protocol.ActionJoinRoom, protocol.JoinRoom{RoomID: "r1", Size: 3})

	for _, client := range []*rawClient{alice, bob} {
		msg := client.read()
		require.Equal(t, protocol.ActionRoomData, msg.Action)
	}

	return alice, bob
}

func waitSeated(t *testing.T, rooms *memoryRooms, roomID, playerID string) {
	t.Helper()

	require.Eventually(t, func() bool {
		room, ok := rooms.room(roomID)
		return ok && room.HasPlayer(playerID)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServer_RejectsMissingClientID(t *testing.T) {
	server, _ := startRelay(t)

	for _, query := range []string{"", "?client=", "?client=not-a-uuid"} {
		resp, err := http.Get(server.URL + "/ws" + query)
		require.NoError(t, err)
		_ = resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, query)
	}
}

func TestServer_JoinRoom(t *testing.T) {
	t.Run("Lone player waits, both get the room when it fills", func(t *testing.T) {
		// Given: a relay and two clients
		server, rooms := startRelay(t)
		aliceID, bobID := uuid.NewString(), uuid.NewString()
		alice := dialRaw(t, server, aliceID)
		bob := dialRaw(t, server, bobID)

		// When: alice joins alone
		alice.send(protocol.ActionJoinRoom, protocol.JoinRoom{RoomID: "r1", Size: 5})

		// Then: the room waits for a second player
		waitSeated(t, rooms, "r1", aliceID)

		// When: bob joins
		bob.send(protocol.ActionJoinRoom, protocol.JoinRoom{RoomID: "r1", Size: 3})

		// Then: both get the 5x5 room with alice on X
		for _, client := range []*rawClient{alice, bob} {
			msg := client.read()
			require.Equal(t, protocol.ActionRoomData, msg.Action)

			data, err := protocol.DecodePayload[protocol.RoomData](msg)
			require.NoError(t, err)
			assert.Equal(t, "r1", data.RoomID)
			assert.Equal(t, 5, data.Size)
			assert.Equal(t, []string{aliceID, bobID}, data.Players)
			assert.Len(t, data.Board, 25)
			assert.True(t, data.XIsNext)
		}
	})

	t.Run("Third player gets room-full", func(t *testing.T) {
		// Given: a full room
		server, _ := startRelay(t)
		first := dialRaw(t, server, uuid.NewString())
		second := dialRaw(t, server, uuid.NewString())
		third := dialRaw(t, server, uuid.NewString())
		first.send(protocol.ActionJoinRoom, protocol.JoinRoom{RoomID: "r1"})
		second.send(protocol.ActionJoinRoom, protocol.JoinRoom{RoomID: "r1"})
		first.read()
		second.read()

		// When: a third client joins
		third.send(protocol.ActionJoinRoom, protocol.JoinRoom{RoomID: "r1"})

		// Then: only the third client hears about it
		msg := third.read()
		require.Equal(t, protocol.ActionRoomFull, msg.Action)

		roomID, err := protocol.RoomIDOf(msg)
		require.NoError(t, err)
		assert.Equal(t, "r1", roomID)

		first.silent()
		second.silent()
	})

	t.Run("Invalid joins are ignored", func(t *testing.T) {
		server, rooms := startRelay(t)
		client := dialRaw(t, server, uuid.NewString())

		client.send(protocol.ActionJoinRoom, protocol.JoinRoom{RoomID: "r1", Size: 4})
		client.send(protocol.ActionJoinRoom, protocol.JoinRoom{RoomID: " ", Size: 3})

		client.silent()
		_, ok := rooms.room("r1")
		assert.False(t, ok)
	})
}

func TestServer_MakeMove(t *testing.T) {
	// Given: two paired clients
	alice, bob := pairedClients(t)

	// When: bob moves out of turn on the cell alice takes
	bob.send(protocol.ActionMakeMove, protocol.MakeMove{RoomID: "r1", Index: 4})
	alice.send(protocol.ActionMakeMove, protocol.MakeMove{RoomID: "r1", Index: 4})

	// Then: both only see alice's move
	for _, client := range []*rawClient{alice, bob} {
		msg := client.read()
		require.Equal(t, protocol.ActionMoveMade, msg.Action)

		move, err := protocol.DecodePayload[protocol.MoveMade](msg)
		require.NoError(t, err)
		assert.Equal(t, "r1", move.RoomID)
		assert.Equal(t, entity.MarkX, move.Board[4])
		assert.Equal(t, 1, move.Board.Count(entity.MarkX)+move.Board.Count(entity.MarkO))
		assert.False(t, move.XIsNext)
	}

	// When: alice tries the occupied cell again out of turn
	alice.send(protocol.ActionMakeMove, protocol.MakeMove{RoomID: "r1", Index: 4})

	// Then: nothing is broadcast
	alice.silent()
	bob.silent()
}

func TestServer_ResetGame(t *testing.T) {
	// Given: a room with a move on the board
	alice, bob := pairedClients(t)
	alice.send(protocol.ActionMakeMove, protocol.MakeMove{RoomID: "r1", Index: 0})
	alice.read()
	bob.read()

	// When: bob asks for a reset
	bob.send(protocol.ActionResetGame, "r1")

	// Then: both get reset-board
	for _, client := range []*rawClient{alice, bob} {
		msg := client.read()
		require.Equal(t, protocol.ActionResetBoard, msg.Action)

		roomID, err := protocol.RoomIDOf(msg)
		require.NoError(t, err)
		assert.Equal(t, "r1", roomID)
	}
}

func TestServer_DisconnectFreesTheSeat(t *testing.T) {
	// Given: a full room
	server, rooms := startRelay(t)
	aliceID, bobID, carolID := uuid.NewString(), uuid.NewString(), uuid.NewString()
	alice := dialRaw(t, server, aliceID)
	bob := dialRaw(t, server, bobID)
	alice.send(protocol.ActionJoinRoom, protocol.JoinRoom{RoomID: "r1"})
	waitSeated(t, rooms, "r1", aliceID)
	bob.send(protocol.ActionJoinRoom, protocol.JoinRoom{RoomID: "r1"})
	alice.read()
	bob.read()

	// When: alice disconnects
	require.NoError(t, alice.ws.Close())

	require.Eventually(t, func() bool {
		room, ok := rooms.room("r1")
		return ok && !room.HasPlayer(aliceID)
	}, 2*time.Second, 10*time.Millisecond)

	// Then: bob is told the X seat is free
	data, err := protocol.DecodePayload[protocol.RoomData](bob.read())
	require.NoError(t, err)
	assert.Equal(t, []string{"", bobID}, data.Players)

	// When: carol joins
	carol := dialRaw(t, server, carolID)
	carol.send(protocol.ActionJoinRoom, protocol.JoinRoom{RoomID: "r1"})

	// Then: carol takes the free X seat
	for _, client := range []*rawClient{bob, carol} {
		data, err := protocol.DecodePayload[protocol.RoomData](client.read())
		require.NoError(t, err)
		assert.Equal(t, []string{carolID, bobID}, data.Players)
	}
}

func TestServer_JoiningAnotherRoomFreesTheSeat(t *testing.T) {
	// Given: a full room r1
	server, rooms := startRelay(t)
	aliceID, bobID := uuid.NewString(), uuid.NewString()
	alice := dialRaw(t, server, aliceID)
	bob := dialRaw(t, server, bobID)
	alice.send(protocol.ActionJoinRoom, protocol.JoinRoom{RoomID: "r1"})
	waitSeated(t, rooms, "r1", aliceID)
	bob.send(protocol.ActionJoinRoom, protocol.JoinRoom{RoomID: "r1"})
	alice.read()
	bob.read()

	// When: alice moves on to r2
	alice.send(protocol.ActionJoinRoom, protocol.JoinRoom{RoomID: "r2"})

	// Then: bob gets r1 with alice's seat free
	data, err := protocol.DecodePayload[protocol.RoomData](bob.read())
	require.NoError(t, err)
	assert.Equal(t, "r1", data.RoomID)
	assert.Equal(t, []string{"", bobID}, data.Players)
	waitSeated(t, rooms, "r2", aliceID)
}

func TestServer_RoomEventsKeepStoreOrder(t *testing.T) {
	// Given: a full room on a relay whose moves stall after they are stored
	rooms := newGatedRooms()
	server := startRelayWith(t, rooms)
	aliceID, bobID := uuid.NewString(), uuid.NewString()
	alice := dialRaw(t, server, aliceID)
	bob := dialRaw(t, server, bobID)
	alice.send(protocol.ActionJoinRoom, protocol.JoinRoom{RoomID: "r1"})
	waitSeated(t, rooms.memoryRooms, "r1", aliceID)
	bob.send(protocol.ActionJoinRoom, protocol.JoinRoom{RoomID: "r1"})
	alice.read()
	bob.read()

	// When: alice's move is stored and bob asks for a reset before it is sent
	alice.send(protocol.ActionMakeMove, protocol.MakeMove{RoomID: "r1", Index: 0})
	<-rooms.moveStored
	bob.send(protocol.ActionResetGame, "r1")

	time.Sleep(100 * time.Millisecond)
	assert.False(t, rooms.resetCalled.Load(), "reset ran while the move was still unsent")
	close(rooms.releaseMove)

	// Then: both see the move and then the reset, the order the relay stored them
	for _, client := range []*rawClient{alice, bob} {
		require.Equal(t, protocol.ActionMoveMade, client.read().Action)
		require.Equal(t, protocol.ActionResetBoard, client.read().Action)
	}

	room, ok := rooms.room("r1")
	require.True(t, ok)
	assert.Equal(t, entity.DefaultGameConfig().NewBoard(), room.Board)
	assert.True(t, room.XIsNext)
}
