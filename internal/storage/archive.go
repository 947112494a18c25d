package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// GameRecord is what remains of a match once its table is gone.
type GameRecord struct {
	ID        uint64
	Players   [2]string
	Rounds    int
	Scores    [2]int
	Reason    string
	Finished  bool // every round was played
	StartedAt time.Time
	EndedAt   time.Time
}

// Archive stores finished and killed games.
type Archive interface {
	Record(ctx context.Context, rec GameRecord) error
}

const createGames = `
CREATE TABLE IF NOT EXISTS war_games (
	id          BIGINT      NOT NULL,
	player_a    TEXT        NOT NULL,
	player_b    TEXT        NOT NULL,
	rounds      INTEGER     NOT NULL,
	score_a     INTEGER     NOT NULL,
	score_b     INTEGER     NOT NULL,
	finished    BOOLEAN     NOT NULL,
	reason      TEXT        NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	ended_at    TIMESTAMPTZ NOT NULL
)`

const insertGame = `
INSERT INTO war_games
	(id, player_a, player_b, rounds, score_a, score_b, finished, reason, started_at, ended_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// PostgresArchive appends one row per game. Ids restart with the process, so
// id is not a key.
type PostgresArchive struct {
	db *sql.DB
}

func NewPostgresArchive(ctx context.Context, db *sql.DB) (*PostgresArchive, error) {
	if _, err := db.ExecContext(ctx, createGames); err != nil {
		return nil, fmt.Errorf("create war_games: %w", err)
	}
	return &PostgresArchive{db: db}, nil
}

func (a *PostgresArchive) Record(ctx context.Context, rec GameRecord) error {
	_, err := a.db.ExecContext(ctx, insertGame,
		int64(rec.ID), rec.Players[0], rec.Players[1],
		rec.Rounds, rec.Scores[0], rec.Scores[1],
		rec.Finished, rec.Reason, rec.StartedAt, rec.EndedAt)
	return err
}

// MemoryArchive keeps records in memory; used when no database is configured.
type MemoryArchive struct {
	mu      sync.Mutex
	records []GameRecord
	limit   int
}

// NewMemoryArchive keeps at most limit records, dropping the oldest.
func NewMemoryArchive(limit int) *MemoryArchive {
	return &MemoryArchive{limit: limit}
}

func (a *MemoryArchive) Record(ctx context.Context, rec GameRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, rec)
	if a.limit > 0 && len(a.records) > a.limit {
		a.records = a.records[len(a.records)-a.limit:]
	}
	return nil
}

// Records returns the kept records, oldest first.
func (a *MemoryArchive) Records() []GameRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]GameRecord, len(a.records))
	copy(out, a.records)
	return out
}
