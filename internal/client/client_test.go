package client

import (
	"context"
	"net"
	"testing"
	"time"

	"CardWar/internal/game/dealer"
	"CardWar/internal/game/manager"
	"CardWar/internal/matchmaker"
	"CardWar/internal/protocol"
	"CardWar/internal/server"
	"CardWar/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer answers one client over a pipe, judging each card against a
// fixed threshold rank.
func fakeServer(t *testing.T, conn net.Conn, hand [protocol.HandSize]byte, threshold int) {
	t.Helper()
	defer conn.Close()
	m, err := protocol.ReadFrame(conn)
	if !assert.NoError(t, err) || !assert.IsType(t, protocol.WantGame{}, m) {
		return
	}
	if !assert.NoError(t, protocol.Write(conn, protocol.GameStart{Hand: hand})) {
		return
	}
	for range hand {
		m, err := protocol.ReadFrame(conn)
		if !assert.NoError(t, err) {
			return
		}
		card := int(m.(protocol.PlayCard).Card)
		res := protocol.Draw
		switch {
		case card%13 > threshold:
			res = protocol.Win
		case card%13 < threshold:
			res = protocol.Lose
		}
		if !assert.NoError(t, protocol.Write(conn, protocol.PlayResult{Result: res})) {
			return
		}
	}
}

func TestPlayConnTallies(t *testing.T) {
	var hand [protocol.HandSize]byte
	for i := range hand {
		hand[i] = byte(i)
	}
	cases := []struct {
		threshold int
		want      Outcome
	}{
		{threshold: 0, want: Won},
		{threshold: 12, want: Lost},
		{threshold: 6, want: Drew},
	}
	for _, tc := range cases {
		srv, cli := net.Pipe()
		go fakeServer(t, srv, hand, tc.threshold)

		got, err := PlayConn(cli)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "threshold %d", tc.threshold)
		_ = cli.Close()
	}
}

func TestPlayConnRejectsUnexpectedFrame(t *testing.T) {
	srv, cli := net.Pipe()
	defer cli.Close()
	go func() {
		defer srv.Close()
		_, _ = protocol.ReadFrame(srv)
		var hand [protocol.HandSize]byte
		_ = protocol.Write(srv, protocol.GameStart{Hand: hand})
		_, _ = protocol.ReadFrame(srv)
		_ = protocol.Write(srv, protocol.PlayCard{Card: 1})
	}()

	_, err := PlayConn(cli)
	assert.Error(t, err)
}

func startServer(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	svc := matchmaker.NewService(matchmaker.NewMemoryRepo(), 60)
	mgr := manager.NewGameManager(dealer.NewDealer(), storage.NewMemoryArchive(10))
	svc.OnRoomReady = func(r *matchmaker.Room) { _ = mgr.StartRoom(r) }

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = server.NewAcceptor(svc).Serve(ctx, ln) }()
	return ln.Addr().String()
}

func TestPlayAgainstServer(t *testing.T) {
	addr := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results := make(chan Outcome, 2)
	for i := 0; i < 2; i++ {
		go func() {
			o, err := Play(ctx, addr)
			assert.NoError(t, err)
			results <- o
		}()
	}
	a, b := <-results, <-results
	switch a {
	case Won:
		assert.Equal(t, Lost, b)
	case Lost:
		assert.Equal(t, Won, b)
	default:
		assert.Equal(t, Drew, b)
	}
}

func TestRunLoad(t *testing.T) {
	addr := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	rep, err := RunLoad(ctx, addr, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, 10, rep.Requested)
	assert.Equal(t, 10, rep.Completed)
	assert.Zero(t, rep.Failed)
	assert.Equal(t, rep.Won, rep.Lost, "every game has one winner per loser")
	assert.Equal(t, 10, rep.Won+rep.Lost+rep.Drew)
}
