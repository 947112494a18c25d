package manager

import (
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"CardWar/internal/game/dealer"
	"CardWar/internal/game/engine"
	"CardWar/internal/game/table"
	"CardWar/internal/matchmaker"
	"CardWar/internal/storage"
	"CardWar/internal/utils"

	"github.com/charmbracelet/log"
)

var (
	ErrNoSuchGame = errors.New("no such game")
	ErrKilled     = errors.New("killed by operator")
	ErrShutdown   = errors.New("server shutting down")
)

const archiveTimeout = 5 * time.Second

// Stats are process-lifetime counters.
type Stats struct {
	Active   int    `json:"active"`
	Started  uint64 `json:"started"`
	Finished uint64 `json:"finished"`
	Killed   uint64 `json:"killed"`
}

// GameManager turns rooms into running tables and tracks them until they die.
type GameManager struct {
	mu     sync.RWMutex
	tables map[uint64]*table.Table // game id → table

	dealer  *dealer.Dealer
	archive storage.Archive
	log     *log.Logger

	started  atomic.Uint64
	finished atomic.Uint64
	killed   atomic.Uint64
}

func NewGameManager(d *dealer.Dealer, archive storage.Archive) *GameManager {
	return &GameManager{
		tables:  make(map[uint64]*table.Table),
		dealer:  d,
		archive: archive,
		log:     utils.Component("games"),
	}
}

// StartRoom deals a fresh deck to the room's two connections, sends each its
// hand and starts both round handlers.
func (m *GameManager) StartRoom(r *matchmaker.Room) error {
	if r.Players[0] == nil || r.Players[1] == nil {
		return fmt.Errorf("room %d is missing a player", r.ID)
	}

	hands := m.dealer.Deal()
	t := table.New(r.ID, [2]net.Conn{r.Players[0].Conn, r.Players[1].Conn}, hands)
	t.OnClose = m.onClose

	m.mu.Lock()
	if _, ok := m.tables[r.ID]; ok {
		m.mu.Unlock()
		return fmt.Errorf("game %d exists", r.ID)
	}
	m.tables[r.ID] = t
	m.mu.Unlock()

	m.started.Add(1)
	engine.NewEngine(t, m.log).Start()
	return nil
}

func (m *GameManager) onClose(t *table.Table, reason error) {
	m.mu.Lock()
	delete(m.tables, t.ID)
	m.mu.Unlock()

	snap := t.Snapshot()
	finished := errors.Is(reason, table.ErrFinished)
	if finished {
		m.finished.Add(1)
		m.log.Info("game finished", "game", t.ID, "scores", snap.Scores)
	} else {
		m.killed.Add(1)
		if engine.IsConnectionError(reason) {
			m.log.Info("game killed", "game", t.ID, "rounds", snap.Rounds, "reason", reason)
		} else {
			m.log.Warn("game killed", "game", t.ID, "rounds", snap.Rounds, "reason", reason)
		}
	}

	if m.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	rec := storage.GameRecord{
		ID:        snap.ID,
		Players:   snap.Players,
		Rounds:    snap.Rounds,
		Scores:    snap.Scores,
		Reason:    snap.Reason,
		Finished:  finished,
		StartedAt: snap.CreatedAt,
		EndedAt:   time.Now(),
	}
	if err := m.archive.Record(ctx, rec); err != nil {
		m.log.Error("archive game failed", "game", t.ID, "err", err)
	}
}

// Get returns a snapshot of a live game.
func (m *GameManager) Get(id uint64) (table.Snapshot, bool) {
	m.mu.RLock()
	t, ok := m.tables[id]
	m.mu.RUnlock()
	if !ok {
		return table.Snapshot{}, false
	}
	return t.Snapshot(), true
}

// List returns snapshots of all live games ordered by id.
func (m *GameManager) List() []table.Snapshot {
	m.mu.RLock()
	tables := make([]*table.Table, 0, len(m.tables))
	for _, t := range m.tables {
		tables = append(tables, t)
	}
	m.mu.RUnlock()

	out := make([]table.Snapshot, 0, len(tables))
	for _, t := range tables {
		out = append(out, t.Snapshot())
	}
	slices.SortFunc(out, func(a, b table.Snapshot) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// Kill ends a live game exactly as a protocol violation would.
func (m *GameManager) Kill(id uint64) error {
	m.mu.RLock()
	t, ok := m.tables[id]
	m.mu.RUnlock()
	if !ok {
		return ErrNoSuchGame
	}
	t.Kill(ErrKilled)
	return nil
}

func (m *GameManager) Stats() Stats {
	m.mu.RLock()
	active := len(m.tables)
	m.mu.RUnlock()
	return Stats{
		Active:   active,
		Started:  m.started.Load(),
		Finished: m.finished.Load(),
		Killed:   m.killed.Load(),
	}
}

// Shutdown kills every live game.
func (m *GameManager) Shutdown() {
	m.mu.RLock()
	tables := make([]*table.Table, 0, len(m.tables))
	for _, t := range m.tables {
		tables = append(tables, t)
	}
	m.mu.RUnlock()

	for _, t := range tables {
		t.Kill(ErrShutdown)
	}
}
