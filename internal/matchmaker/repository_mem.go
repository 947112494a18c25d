package matchmaker

import (
	"context"
	"slices"
	"sync"
)

type memRepo struct {
	mu    sync.Mutex
	queue []string
}

func NewMemoryRepo() Repo {
	return &memRepo{}
}

func (m *memRepo) Enqueue(ctx context.Context, ticketID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, ticketID)
	return nil
}

func (m *memRepo) PopOldest(ctx context.Context, n int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) < n {
		return []string{}, nil
	}
	out := slices.Clone(m.queue[:n])
	m.queue = slices.Delete(m.queue, 0, n)
	return out, nil
}

func (m *memRepo) Remove(ctx context.Context, ticketID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = slices.DeleteFunc(m.queue, func(id string) bool { return id == ticketID })
	return nil
}

func (m *memRepo) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.queue)), nil
}
