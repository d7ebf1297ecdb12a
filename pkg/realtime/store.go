package realtime

import (
	"context"
	"sync"
	"time"
)

// Room holds state and a broadcaster for one room.
type Room[T any] struct {
	ID       string
	State    T
	hub      *Broadcaster
	lastSeen time.Time
}

// RoomStore manages rooms and their broadcasters.
type RoomStore[T any] struct {
	mu    sync.RWMutex
	clock Clock
	rooms map[string]*Room[T]
}

// NewRoomStore creates an empty room store timed by clock.
func NewRoomStore[T any](clock Clock) *RoomStore[T] {
	if clock == nil {
		clock = RealClock{}
	}
	return &RoomStore[T]{
		clock: clock,
		rooms: make(map[string]*Room[T]),
	}
}

// Create adds a room with the given id and state, and a new Broadcaster.
func (s *RoomStore[T]) Create(id string, state T) *Room[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &Room[T]{ID: id, State: state, hub: NewBroadcaster(), lastSeen: s.clock.Now()}
	s.rooms[id] = r
	return r
}

// Get returns the room by ID if it exists and marks it as recently used.
func (s *RoomStore[T]) Get(id string) (*Room[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if ok {
		r.lastSeen = s.clock.Now()
	}
	return r, ok
}

// Delete removes the room, disconnects its subscribers and returns its state.
func (s *RoomStore[T]) Delete(id string) (T, bool) {
	s.mu.Lock()
	r, ok := s.rooms[id]
	if ok {
		delete(s.rooms, id)
	}
	s.mu.Unlock()
	if !ok {
		var zero T
		return zero, false
	}
	r.hub.Close()
	return r.State, true
}

// Len reports the number of live rooms.
func (s *RoomStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Publish notifies subscribers of the room's broadcaster. Unknown rooms are ignored.
func (s *RoomStore[T]) Publish(id string, event Event) {
	hub, ok := s.Broadcaster(id)
	if !ok {
		return
	}
	hub.Publish(event)
}

// Broadcaster returns the broadcaster for the room.
func (s *RoomStore[T]) Broadcaster(id string) (*Broadcaster, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, false
	}
	return r.hub, true
}

// Sweep removes rooms idle for longer than ttl and hands each evicted state
// to evict. Rooms with live subscribers are kept.
func (s *RoomStore[T]) Sweep(ttl time.Duration, evict func(id string, state T)) int {
	now := s.clock.Now()
	s.mu.Lock()
	var stale []*Room[T]
	for id, r := range s.rooms {
		if now.Sub(r.lastSeen) <= ttl || r.hub.Subscribers() > 0 {
			continue
		}
		delete(s.rooms, id)
		stale = append(stale, r)
	}
	s.mu.Unlock()

	for _, r := range stale {
		r.hub.Close()
		if evict != nil {
			evict(r.ID, r.State)
		}
	}
	return len(stale)
}

// RunJanitor sweeps idle rooms every interval until ctx is cancelled.
func (s *RoomStore[T]) RunJanitor(ctx context.Context, interval, ttl time.Duration, evict func(id string, state T)) {
	if interval <= 0 || ttl <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(ttl, evict)
			}
		}
	}()
}
