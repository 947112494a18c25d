package matchmaker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"CardWar/internal/utils"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

var ErrClosed = errors.New("matchmaker closed")

// Service pairs waiting connections in strict arrival order. Join calls are
// serialized, so the queue never holds two or more tickets between calls.
type Service struct {
	mu      sync.Mutex
	repo    Repo
	roomTTL int // seconds a room record is kept when the repo can store it
	tickets map[string]*Ticket
	nextID  uint64
	closed  bool
	log     *log.Logger

	// OnRoomReady receives every new room in its own goroutine.
	OnRoomReady func(*Room)
}

func NewService(repo Repo, roomTTL int) *Service {
	return &Service{
		repo:    repo,
		roomTTL: roomTTL,
		tickets: make(map[string]*Ticket),
		log:     utils.Component("matchmaker"),
	}
}

// Join queues conn and pairs the two oldest tickets once two are waiting.
// It returns the room when conn's arrival completed a pair, otherwise
// queued is true.
func (s *Service) Join(ctx context.Context, conn net.Conn) (*Room, bool, error) {
	t := &Ticket{
		ID:       uuid.NewString(),
		Addr:     conn.RemoteAddr().String(),
		QueuedAt: time.Now(),
		Conn:     conn,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, false, ErrClosed
	}
	if err := s.repo.Enqueue(ctx, t.ID); err != nil {
		return nil, false, err
	}
	s.tickets[t.ID] = t

	cnt, err := s.repo.Count(ctx)
	if err != nil {
		return nil, false, s.withdrawLocked(ctx, t.ID, err)
	}
	if cnt < 2 {
		s.log.Debug("queued", "addr", t.Addr, "waiting", cnt)
		return nil, true, nil
	}
	ids, err := s.repo.PopOldest(ctx, 2)
	if err != nil {
		return nil, false, s.withdrawLocked(ctx, t.ID, err)
	}
	if len(ids) < 2 {
		s.log.Debug("queued", "addr", t.Addr, "waiting", cnt)
		return nil, true, nil
	}

	s.nextID++
	room := &Room{ID: s.nextID, CreatedAt: time.Now()}
	for i, id := range ids {
		p, ok := s.tickets[id]
		if !ok {
			s.dropLocked(ids)
			return nil, false, fmt.Errorf("queue returned unknown ticket %s", id)
		}
		room.Players[i] = p
	}
	for _, id := range ids {
		delete(s.tickets, id)
	}

	if saver, ok := s.repo.(interface {
		SaveRoom(context.Context, *Room, int) error
	}); ok {
		if err := saver.SaveRoom(ctx, room, s.roomTTL); err != nil {
			s.log.Warn("save room failed", "game", room.ID, "err", err)
		}
	}

	s.log.Info("paired", "game", room.ID, "a", room.Players[0].Addr, "b", room.Players[1].Addr)
	if s.OnRoomReady != nil {
		go s.OnRoomReady(room)
	}
	return room, false, nil
}

// withdrawLocked takes a ticket whose join failed back out of the queue so
// it is never paired. The caller owns and closes the connection.
func (s *Service) withdrawLocked(ctx context.Context, id string, cause error) error {
	delete(s.tickets, id)
	if err := s.repo.Remove(ctx, id); err != nil {
		return errors.Join(cause, fmt.Errorf("withdraw ticket %s: %w", id, err))
	}
	return cause
}

// dropLocked closes and forgets the given tickets.
func (s *Service) dropLocked(ids []string) {
	for _, id := range ids {
		if p, ok := s.tickets[id]; ok {
			_ = p.Conn.Close()
			delete(s.tickets, id)
		}
	}
}

// Cancel removes a waiting ticket and closes its connection.
func (s *Service) Cancel(ctx context.Context, ticketID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.Remove(ctx, ticketID); err != nil {
		return err
	}
	s.dropLocked([]string{ticketID})
	return nil
}

// Status reports the queue length and how many rooms were formed.
func (s *Service) Status(ctx context.Context) (QueueResponse, error) {
	s.mu.Lock()
	paired := s.nextID
	s.mu.Unlock()

	cnt, err := s.repo.Count(ctx)
	if err != nil {
		return QueueResponse{}, err
	}
	return QueueResponse{Waiting: cnt, Paired: paired}, nil
}

// Close refuses further joins and hangs up on everyone still waiting.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true

	var errs []error
	for id := range s.tickets {
		if err := s.repo.Remove(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	ids := make([]string, 0, len(s.tickets))
	for id := range s.tickets {
		ids = append(ids, id)
	}
	s.dropLocked(ids)
	return errors.Join(errs...)
}
