// Package client plays war against a server: a single session, or many at
// once as a load test.
package client

import (
	"context"
	"fmt"
	"io"
	"net"

	"CardWar/internal/protocol"
)

type Outcome int

const (
	Drew Outcome = iota
	Won
	Lost
)

func (o Outcome) String() string {
	switch o {
	case Won:
		return "won"
	case Lost:
		return "lost"
	}
	return "drew"
}

// Play connects to addr and plays one game to the end. Cancelling ctx
// abandons the game.
func Play(ctx context.Context, addr string) (Outcome, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Drew, err
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	return PlayConn(conn)
}

// PlayConn sends want-game, then plays every dealt card once in hand order.
// Each WIN counts +1 and each LOSE -1; the sign of the total is the outcome.
func PlayConn(conn io.ReadWriter) (Outcome, error) {
	if err := protocol.Write(conn, protocol.WantGame{}); err != nil {
		return Drew, fmt.Errorf("send want game: %w", err)
	}
	start, err := protocol.ReadGameStart(conn)
	if err != nil {
		return Drew, fmt.Errorf("read game start: %w", err)
	}

	score := 0
	for i, card := range start.Hand {
		if err := protocol.Write(conn, protocol.PlayCard{Card: card}); err != nil {
			return Drew, fmt.Errorf("round %d: send card: %w", i+1, err)
		}
		msg, err := protocol.ReadFrame(conn)
		if err != nil {
			return Drew, fmt.Errorf("round %d: read result: %w", i+1, err)
		}
		res, ok := msg.(protocol.PlayResult)
		if !ok {
			return Drew, fmt.Errorf("round %d: unexpected %s", i+1, msg.Command())
		}
		switch res.Result {
		case protocol.Win:
			score++
		case protocol.Lose:
			score--
		}
	}

	switch {
	case score > 0:
		return Won, nil
	case score < 0:
		return Lost, nil
	}
	return Drew, nil
}
