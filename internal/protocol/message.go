// Package protocol implements the fixed-layout binary frames exchanged between
// the war server and its clients.
//
// Every frame starts with a one-byte command tag. Game-start frames carry the
// receiver's 26 card codes; every other frame is exactly two bytes.
package protocol

import (
	"errors"
	"fmt"
	"io"
)

type Command byte

const (
	CmdWantGame Command = iota
	CmdGameStart
	CmdPlayCard
	CmdPlayResult
)

func (c Command) String() string {
	switch c {
	case CmdWantGame:
		return "want_game"
	case CmdGameStart:
		return "game_start"
	case CmdPlayCard:
		return "play_card"
	case CmdPlayResult:
		return "play_result"
	}
	return fmt.Sprintf("command(%d)", byte(c))
}

// Result is the outcome of a round, relative to the receiving side.
type Result byte

const (
	Win Result = iota
	Draw
	Lose
)

func (r Result) String() string {
	switch r {
	case Win:
		return "win"
	case Draw:
		return "draw"
	case Lose:
		return "lose"
	}
	return fmt.Sprintf("result(%d)", byte(r))
}

const (
	FrameSize     = 2
	HandSize      = 26
	GameStartSize = 1 + HandSize
)

var (
	ErrUnknownCommand = errors.New("protocol: unknown command")
	ErrMalformed      = errors.New("protocol: malformed frame")
)

// Message is one of WantGame, GameStart, PlayCard or PlayResult.
type Message interface {
	Command() Command
	Bytes() []byte
	message()
}

type WantGame struct{}

type GameStart struct {
	Hand [HandSize]byte // deal order
}

type PlayCard struct {
	Card byte
}

type PlayResult struct {
	Result Result
}

func (WantGame) Command() Command   { return CmdWantGame }
func (GameStart) Command() Command  { return CmdGameStart }
func (PlayCard) Command() Command   { return CmdPlayCard }
func (PlayResult) Command() Command { return CmdPlayResult }

func (WantGame) message()   {}
func (GameStart) message()  {}
func (PlayCard) message()   {}
func (PlayResult) message() {}

// The second byte of a want-game frame is unused and sent as zero.
func (WantGame) Bytes() []byte { return []byte{byte(CmdWantGame), 0} }

func (m GameStart) Bytes() []byte {
	b := make([]byte, 0, GameStartSize)
	b = append(b, byte(CmdGameStart))
	return append(b, m.Hand[:]...)
}

func (m PlayCard) Bytes() []byte { return []byte{byte(CmdPlayCard), m.Card} }

func (m PlayResult) Bytes() []byte { return []byte{byte(CmdPlayResult), byte(m.Result)} }

// Decode parses one complete frame. A two-byte buffer never decodes to
// GameStart and a 27-byte buffer decodes only to GameStart.
func Decode(frame []byte) (Message, error) {
	if len(frame) == 0 {
		return nil, ErrMalformed
	}
	cmd := Command(frame[0])
	switch cmd {
	case CmdWantGame, CmdPlayCard, CmdPlayResult:
		if len(frame) != FrameSize {
			return nil, fmt.Errorf("%w: %s with %d bytes", ErrMalformed, cmd, len(frame))
		}
	case CmdGameStart:
		if len(frame) != GameStartSize {
			return nil, fmt.Errorf("%w: %s with %d bytes", ErrMalformed, cmd, len(frame))
		}
	default:
		return nil, fmt.Errorf("%w: tag %d", ErrUnknownCommand, frame[0])
	}

	switch cmd {
	case CmdWantGame:
		return WantGame{}, nil
	case CmdPlayCard:
		return PlayCard{Card: frame[1]}, nil
	case CmdPlayResult:
		r := Result(frame[1])
		if r > Lose {
			return nil, fmt.Errorf("%w: result %d", ErrMalformed, frame[1])
		}
		return PlayResult{Result: r}, nil
	default:
		var m GameStart
		copy(m.Hand[:], frame[1:])
		return m, nil
	}
}

// ReadFrame reads exactly one two-byte frame. A short read is reported as
// io.ErrUnexpectedEOF (or io.EOF when nothing arrived).
func ReadFrame(r io.Reader) (Message, error) {
	var buf [FrameSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	return Decode(buf[:])
}

// ReadGameStart reads the 27-byte frame a client receives once paired.
func ReadGameStart(r io.Reader) (GameStart, error) {
	var buf [GameStartSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return GameStart{}, err
	}
	m, err := Decode(buf[:])
	if err != nil {
		return GameStart{}, err
	}
	return m.(GameStart), nil
}

// Write sends m as a single frame.
func Write(w io.Writer, m Message) error {
	_, err := w.Write(m.Bytes())
	return err
}
