package matchmaker

import "context"

// Repo is the FIFO queue of ticket ids.
type Repo interface {
	// Enqueue appends a ticket id to the tail.
	Enqueue(ctx context.Context, ticketID string) error
	// PopOldest atomically removes and returns the n oldest ids, or nothing
	// when fewer than n are queued.
	PopOldest(ctx context.Context, n int) ([]string, error)
	// Remove drops a ticket wherever it sits in the queue.
	Remove(ctx context.Context, ticketID string) error
	// Count returns the queue length.
	Count(ctx context.Context) (int64, error)
}
