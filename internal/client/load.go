package client

import (
	"context"
	"sync"
	"time"

	"CardWar/internal/utils"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultLimit bounds simultaneously active sessions in a load test.
const DefaultLimit = 1000

// Report tallies a load test.
type Report struct {
	Requested int
	Completed int
	Failed    int
	Won       int
	Lost      int
	Drew      int
	Elapsed   time.Duration
}

// RunLoad plays n sessions against addr with at most limit in flight. A
// failed session is counted, never fatal to the run. The error is non-nil
// only when ctx ended before every session could start.
func RunLoad(ctx context.Context, addr string, n, limit int) (Report, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	logger := utils.Component("load")
	rep := Report{Requested: n}
	begin := time.Now()

	sem := semaphore.NewWeighted(int64(limit))
	var g errgroup.Group
	var mu sync.Mutex

	var startErr error
	for i := 0; i < n; i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			startErr = err
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			outcome, err := Play(ctx, addr)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				rep.Failed++
				logger.Error("session failed", "err", err)
				return nil
			}
			rep.Completed++
			switch outcome {
			case Won:
				rep.Won++
			case Lost:
				rep.Lost++
			default:
				rep.Drew++
			}
			logger.Debug("game complete", "result", outcome)
			return nil
		})
	}
	_ = g.Wait()

	rep.Elapsed = time.Since(begin)
	return rep, startErr
}
