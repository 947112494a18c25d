package manager

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"CardWar/internal/game/dealer"
	"CardWar/internal/game/table"
	"CardWar/internal/matchmaker"
	"CardWar/internal/protocol"
	"CardWar/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connPair(t *testing.T) (server, client net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- c
	}()

	client, err = net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	server, ok := <-accepted
	require.True(t, ok, "accept failed")
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})
	require.NoError(t, client.SetDeadline(time.Now().Add(5*time.Second)))
	return server, client
}

// newRoom builds a room over two loopback connections and returns the
// client ends.
func newRoom(t *testing.T, id uint64) (*matchmaker.Room, [2]net.Conn) {
	t.Helper()
	room := &matchmaker.Room{ID: id, CreatedAt: time.Now()}
	var clients [2]net.Conn
	for i := range room.Players {
		s, c := connPair(t)
		room.Players[i] = &matchmaker.Ticket{ID: strconv.Itoa(i), Addr: s.RemoteAddr().String(), Conn: s}
		clients[i] = c
	}
	return room, clients
}

func newManager() (*GameManager, *storage.MemoryArchive) {
	archive := storage.NewMemoryArchive(0)
	return NewGameManager(dealer.NewDealer(), archive), archive
}

func TestGameManagerStartRoom(t *testing.T) {
	mgr, _ := newManager()
	room, clients := newRoom(t, 1)

	require.NoError(t, mgr.StartRoom(room))

	var count [table.DeckSize]int
	for _, c := range clients {
		gs, err := protocol.ReadGameStart(c)
		require.NoError(t, err)
		for _, card := range gs.Hand {
			require.Less(t, int(card), table.DeckSize)
			count[card]++
		}
	}
	for card, n := range count {
		assert.Equal(t, 1, n, "card %d dealt %d times", card, n)
	}

	snap, ok := mgr.Get(1)
	require.True(t, ok)
	assert.Equal(t, uint64(1), snap.ID)
	assert.False(t, snap.Closed)
	assert.Equal(t, Stats{Active: 1, Started: 1}, mgr.Stats())
}

func TestGameManagerDuplicateRoom(t *testing.T) {
	mgr, _ := newManager()
	room, _ := newRoom(t, 3)
	require.NoError(t, mgr.StartRoom(room))

	again, _ := newRoom(t, 3)
	assert.Error(t, mgr.StartRoom(again))
}

func TestGameManagerMissingPlayer(t *testing.T) {
	mgr, _ := newManager()
	assert.Error(t, mgr.StartRoom(&matchmaker.Room{ID: 1}))
}

func TestGameManagerKill(t *testing.T) {
	mgr, archive := newManager()
	room, clients := newRoom(t, 5)
	require.NoError(t, mgr.StartRoom(room))
	for _, c := range clients {
		_, err := protocol.ReadGameStart(c)
		require.NoError(t, err)
	}

	require.NoError(t, mgr.Kill(5))
	assert.ErrorIs(t, mgr.Kill(5), ErrNoSuchGame)

	for _, c := range clients {
		_, err := protocol.ReadFrame(c)
		assert.Error(t, err)
	}
	_, ok := mgr.Get(5)
	assert.False(t, ok)
	assert.Equal(t, Stats{Started: 1, Killed: 1}, mgr.Stats())

	recs := archive.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, uint64(5), recs[0].ID)
	assert.False(t, recs[0].Finished)
	assert.Equal(t, ErrKilled.Error(), recs[0].Reason)
}

func TestGameManagerFullGameArchived(t *testing.T) {
	mgr, archive := newManager()
	room, clients := newRoom(t, 9)
	require.NoError(t, mgr.StartRoom(room))

	var hands [2]protocol.GameStart
	for i, c := range clients {
		gs, err := protocol.ReadGameStart(c)
		require.NoError(t, err)
		hands[i] = gs
	}

	var wins [2]int
	for round := 0; round < table.HandSize; round++ {
		for i, c := range clients {
			require.NoError(t, protocol.Write(c, protocol.PlayCard{Card: hands[i].Hand[round]}))
		}
		for i, c := range clients {
			m, err := protocol.ReadFrame(c)
			require.NoError(t, err)
			if m.(protocol.PlayResult).Result == protocol.Win {
				wins[i]++
			}
		}
	}

	assert.Eventually(t, func() bool { return len(archive.Records()) == 1 }, 2*time.Second, 10*time.Millisecond)
	rec := archive.Records()[0]
	assert.True(t, rec.Finished)
	assert.Equal(t, table.HandSize, rec.Rounds)
	assert.Equal(t, wins, rec.Scores)
	assert.Equal(t, Stats{Started: 1, Finished: 1}, mgr.Stats())
}

func TestGameManagerShutdown(t *testing.T) {
	mgr, archive := newManager()
	for id := uint64(1); id <= 3; id++ {
		room, _ := newRoom(t, id)
		require.NoError(t, mgr.StartRoom(room))
	}
	require.Len(t, mgr.List(), 3)

	mgr.Shutdown()

	assert.Empty(t, mgr.List())
	assert.Len(t, archive.Records(), 3)
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mgr, _ := newManager()
	for id := uint64(1); id <= 2; id++ {
		room, _ := newRoom(t, id)
		require.NoError(t, mgr.StartRoom(room))
	}

	h := NewHandler(mgr)
	r := gin.New()
	r.GET("/games", h.List)
	r.GET("/games/:id", h.Get)
	r.DELETE("/games/:id", h.Kill)
	r.GET("/stats", h.Stats)

	do := func(method, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return w
	}

	w := do(http.MethodGet, "/games")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Games []table.Snapshot `json:"games"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Games, 2)
	assert.Equal(t, uint64(1), list.Games[0].ID)
	assert.Equal(t, uint64(2), list.Games[1].ID)

	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/games/2").Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/games/42").Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodGet, "/games/abc").Code)

	assert.Equal(t, http.StatusOK, do(http.MethodDelete, "/games/2").Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodDelete, "/games/2").Code)

	w = do(http.MethodGet, "/stats")
	var stats Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, Stats{Active: 1, Started: 2, Killed: 1}, stats)
}
