// Package server accepts game connections and hands them to the matchmaker
// once they have sent their want-game handshake.
package server

import (
	"context"
	"errors"
	"net"
	"sync"

	"CardWar/internal/matchmaker"
	"CardWar/internal/protocol"
	"CardWar/internal/utils"

	"github.com/charmbracelet/log"
)

// Joiner queues a connection that completed the handshake.
type Joiner interface {
	Join(ctx context.Context, conn net.Conn) (*matchmaker.Room, bool, error)
}

type Acceptor struct {
	mm  Joiner
	log *log.Logger
	wg  sync.WaitGroup
}

func NewAcceptor(mm Joiner) *Acceptor {
	return &Acceptor{
		mm:  mm,
		log: utils.Component("acceptor"),
	}
}

// ListenAndServe binds addr and serves until ctx is cancelled. A bind failure
// is returned immediately.
func (a *Acceptor) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return a.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled or ln fails. The
// handshake of each connection is read in its own goroutine, so a slow
// client never holds up the accept loop. Handshakes still pending when Serve
// returns are hung up.
func (a *Acceptor) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()
	a.log.Info("listening", "addr", ln.Addr())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				a.wg.Wait()
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			a.log.Error("accept failed", "err", err)
			cancel()
			a.wg.Wait()
			return err
		}
		a.log.Debug("connected", "addr", conn.RemoteAddr())
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.Admit(ctx, conn)
		}()
	}
}

// Admit reads exactly one frame from conn. A want-game request queues the
// connection; anything else, including a short read, closes it without a
// reply. Cancelling ctx hangs up on a connection still in its handshake.
func (a *Acceptor) Admit(ctx context.Context, conn net.Conn) {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	msg, err := protocol.ReadFrame(conn)
	if !stop() {
		_ = conn.Close()
		return
	}
	if err != nil {
		a.log.Debug("handshake failed", "addr", conn.RemoteAddr(), "err", err)
		_ = conn.Close()
		return
	}
	if _, ok := msg.(protocol.WantGame); !ok {
		a.log.Warn("handshake rejected", "addr", conn.RemoteAddr(), "command", msg.Command())
		_ = conn.Close()
		return
	}
	if _, _, err := a.mm.Join(ctx, conn); err != nil {
		a.log.Error("join failed", "addr", conn.RemoteAddr(), "err", err)
		_ = conn.Close()
	}
}
