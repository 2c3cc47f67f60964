package entity

// Player links a connected client to the room it currently sits in.
type Player struct {
	ID     string `json:"id"`
	RoomID string `json:"room_id,omitempty"`
}

func (that *Player) InRoom() bool {
	return that.RoomID != ""
}
