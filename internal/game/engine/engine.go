package engine

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"CardWar/internal/game/table"
	"CardWar/internal/protocol"

	"github.com/charmbracelet/log"
)

var (
	ErrUnexpectedCommand = errors.New("unexpected command")
	ErrNotInHand         = errors.New("card not in dealt hand")
	ErrAlreadyPlayed     = errors.New("card already played")
)

// Engine arbitrates one table: it sends each side its hand, then runs one
// handler per connection until the table is killed.
type Engine struct {
	Table *table.Table
	log   *log.Logger
}

func NewEngine(t *table.Table, logger *log.Logger) *Engine {
	return &Engine{
		Table: t,
		log:   logger.With("game", t.ID),
	}
}

// Start sends the game-start frames and launches both handlers. If either
// frame cannot be written the table is killed and no handler starts.
func (e *Engine) Start() {
	for i, s := range e.Table.Seats {
		var msg protocol.GameStart
		for j, c := range s.Hand {
			msg.Hand[j] = byte(c)
		}
		if err := protocol.Write(s.Conn, msg); err != nil {
			e.Table.Kill(fmt.Errorf("seat %d: send game start: %w", i, err))
			return
		}
	}
	e.log.Info("game started",
		"a", e.Table.Seats[0].Conn.RemoteAddr(),
		"b", e.Table.Seats[1].Conn.RemoteAddr())

	for i := range e.Table.Seats {
		go e.serve(i)
	}
}

// serve is the per-connection handler. Any read, protocol or validation
// failure kills the table; the peer's handler then fails its next read.
func (e *Engine) serve(seat int) {
	conn := e.Table.Seats[seat].Conn
	for {
		msg, err := protocol.ReadFrame(conn)
		if err != nil {
			e.Table.Kill(fmt.Errorf("seat %d: read: %w", seat, err))
			return
		}
		play, ok := msg.(protocol.PlayCard)
		if !ok {
			e.Table.Kill(fmt.Errorf("seat %d: %w: %s", seat, ErrUnexpectedCommand, msg.Command()))
			return
		}
		if err := e.play(seat, table.Card(play.Card)); err != nil {
			e.Table.Kill(fmt.Errorf("seat %d: %w", seat, err))
			return
		}
	}
}

// play validates and records one card, resolving the round when both sides
// have played. A second card from the same side before the round resolves
// replaces the pending one; both stay spent. The whole step runs under the
// table lock.
func (e *Engine) play(seat int, c table.Card) error {
	t := e.Table
	t.Lock()
	defer t.Unlock()

	if t.Closed() {
		return table.ErrTableClosed
	}
	if !t.Holds(seat, c) {
		return fmt.Errorf("%w: %d", ErrNotInHand, c)
	}
	if t.Played(c) {
		return fmt.Errorf("%w: %v", ErrAlreadyPlayed, c)
	}
	t.Record(seat, c)
	e.log.Debug("card played", "seat", seat, "card", c)

	if !t.BothPending() {
		return nil
	}
	return e.resolve()
}

// resolve settles a round with both plays pending. Caller holds the lock.
func (e *Engine) resolve() error {
	t := e.Table
	a, b := t.Seats[0].Pending, t.Seats[1].Pending
	results := outcomes(Compare(a, b))

	t.ClearPending()
	t.Rounds++
	for i, r := range results {
		if r == protocol.Win {
			t.Seats[i].Score++
		}
	}

	for i, s := range t.Seats {
		if err := protocol.Write(s.Conn, protocol.PlayResult{Result: results[i]}); err != nil {
			return fmt.Errorf("send result to seat %d: %w", i, err)
		}
	}
	e.log.Debug("round resolved", "round", t.Rounds, "a", a, "b", b, "result", results[0])

	if t.Finished() {
		return table.ErrFinished
	}
	return nil
}

// IsConnectionError reports whether err came from the transport rather than
// from a protocol violation.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return true
	}
	var syscallErr *os.SyscallError
	return errors.As(err, &syscallErr)
}
