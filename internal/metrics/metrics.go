package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	RoomCreated  = "created"
	RoomDeleted  = "deleted"
	RoomRejected = "full"

	MoveAccepted = "accepted"
	MoveRejected = "rejected"
)

var (
	Connections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_connections",
			Help: "Open relay websocket connections",
		},
	)
	Messages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_messages_total",
			Help: "Messages received by the relay",
		},
		[]string{"action"},
	)
	Rooms = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_rooms_total",
			Help: "Room lifecycle events",
		},
		[]string{"event"},
	)
	Moves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_moves_total",
			Help: "Moves handled by the relay",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(Connections)
	prometheus.MustRegister(Messages)
	prometheus.MustRegister(Rooms)
	prometheus.MustRegister(Moves)
}
