package matchmaker

import (
	"net"
	"time"
)

// Ticket is a connection that completed its want-game handshake and waits
// to be paired.
type Ticket struct {
	ID       string    `json:"id"`
	Addr     string    `json:"addr"`
	QueuedAt time.Time `json:"queuedAt"`
	Conn     net.Conn  `json:"-"`
}

// Room is a pairing of the two oldest tickets. Players[0] arrived first.
type Room struct {
	ID        uint64     `json:"id"`
	Players   [2]*Ticket `json:"players"`
	CreatedAt time.Time  `json:"createdAt"`
}

// QueueResponse is the admin view of the waiting queue.
type QueueResponse struct {
	Waiting int64  `json:"waiting"`
	Paired  uint64 `json:"paired"`
}
