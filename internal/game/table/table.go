package table

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrTableClosed is returned for any play made after the table was killed.
	ErrTableClosed = errors.New("table closed")
	// ErrFinished is the kill reason once every card has been played.
	ErrFinished = errors.New("all rounds played")
)

// Seat is one side of a match.
type Seat struct {
	Conn net.Conn
	Hand []Card // deal order, immutable

	inHand     [DeckSize]bool
	Pending    Card
	HasPending bool
	Score      int // rounds won
}

// Table is the shared state of one match. The embedded mutex guards the
// pending plays, the played set, the round counter and the scores; it must be
// held across validation, recording and result dispatch of a play.
type Table struct {
	sync.Mutex

	ID        uint64
	Seats     [2]*Seat
	CreatedAt time.Time
	Rounds    int

	played [DeckSize]bool

	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
	reason    error

	// OnClose runs once, after both connections are closed, in the goroutine
	// that killed the table. It must not be called with the table locked.
	OnClose func(t *Table, reason error)
}

func New(id uint64, conns [2]net.Conn, hands [2][]Card) *Table {
	t := &Table{
		ID:        id,
		CreatedAt: time.Now(),
		done:      make(chan struct{}),
	}
	for i := range t.Seats {
		s := &Seat{Conn: conns[i], Hand: hands[i]}
		for _, c := range hands[i] {
			if c.Valid() {
				s.inHand[c] = true
			}
		}
		t.Seats[i] = s
	}
	return t
}

// Holds reports whether c was dealt to seat.
func (t *Table) Holds(seat int, c Card) bool {
	return c.Valid() && t.Seats[seat].inHand[c]
}

// Played reports whether either side has already played c. Caller holds the lock.
func (t *Table) Played(c Card) bool {
	return c.Valid() && t.played[c]
}

// Record stores c as seat's pending play, replacing any earlier one, and
// marks it played. Caller holds the lock and has validated c.
func (t *Table) Record(seat int, c Card) {
	s := t.Seats[seat]
	s.Pending = c
	s.HasPending = true
	t.played[c] = true
}

func (t *Table) BothPending() bool {
	return t.Seats[0].HasPending && t.Seats[1].HasPending
}

func (t *Table) ClearPending() {
	for _, s := range t.Seats {
		s.Pending = 0
		s.HasPending = false
	}
}

// Finished reports whether every dealt card has been played in a resolved round.
func (t *Table) Finished() bool {
	return t.Rounds >= HandSize
}

func (t *Table) Closed() bool {
	return t.closed.Load()
}

// Kill closes both connections and marks the table dead. Only the first
// call has any effect; the reason it carries is kept.
func (t *Table) Kill(reason error) {
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		t.reason = reason
		for _, s := range t.Seats {
			if s.Conn != nil {
				_ = s.Conn.Close()
			}
		}
		close(t.done)
		if t.OnClose != nil {
			t.OnClose(t, reason)
		}
	})
}

// Done is closed once the table has been killed.
func (t *Table) Done() <-chan struct{} {
	return t.done
}

// Err returns the kill reason, or nil while the table is live.
func (t *Table) Err() error {
	select {
	case <-t.done:
		return t.reason
	default:
		return nil
	}
}

// Snapshot is a point-in-time view of a table for logs and the admin API.
type Snapshot struct {
	ID        uint64    `json:"id"`
	Players   [2]string `json:"players"`
	Rounds    int       `json:"rounds"`
	Scores    [2]int    `json:"scores"`
	CreatedAt time.Time `json:"createdAt"`
	Closed    bool      `json:"closed"`
	Reason    string    `json:"reason,omitempty"`
}

func (t *Table) Snapshot() Snapshot {
	t.Lock()
	defer t.Unlock()

	s := Snapshot{
		ID:        t.ID,
		Rounds:    t.Rounds,
		CreatedAt: t.CreatedAt,
		Closed:    t.Closed(),
	}
	for i, seat := range t.Seats {
		if seat.Conn != nil {
			s.Players[i] = seat.Conn.RemoteAddr().String()
		}
		s.Scores[i] = seat.Score
	}
	if err := t.Err(); err != nil {
		s.Reason = err.Error()
	}
	return s
}
