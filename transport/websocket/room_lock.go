package websocket

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// roomLocks serializes the store-and-send of one room, so members get the room's
// events in the order they were stored.
type roomLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (that *roomLocks) lock(roomID string) func() {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(roomID))

	mu := &that.stripes[hash.Sum32()%lockStripes]
	mu.Lock()

	return mu.Unlock
}
