package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"whopays/internal/wheel"
	"whopays/pkg/realtime"
)

// Stream event names published to a session's subscribers.
const (
	EventSpin   = "spin"
	EventResult = "result"
	EventState  = "state"
)

// Options configures the wheels created by a Store.
type Options struct {
	Clock        realtime.Clock
	Source       wheel.Source
	SpinDuration time.Duration
	SettleDelay  time.Duration
	Watchdog     time.Duration
	Logger       *slog.Logger
}

// Store holds sessions and delegates to realtime.RoomStore for lookup and broadcast.
type Store struct {
	r    *realtime.RoomStore[*Session]
	opts Options
}

// NewStore creates an in-memory session store with SSE broadcasters.
func NewStore(opts Options) *Store {
	if opts.Clock == nil {
		opts.Clock = realtime.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Store{r: realtime.NewRoomStore[*Session](opts.Clock), opts: opts}
}

// CreateSession starts a new session in the setup phase.
func (s *Store) CreateSession(title string) *Session {
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: s.opts.Clock.Now(),
		Title:     NormalizeTitle(title),
		Phase:     PhaseSetup,
		store:     s,
	}
	s.r.Create(sess.ID, sess)
	s.opts.Logger.Info("session created", "session", sess.ID)
	return sess
}

// GetSession returns a session by ID if it exists.
func (s *Store) GetSession(id string) (*Session, bool) {
	room, ok := s.r.Get(id)
	if !ok {
		return nil, false
	}
	return room.State, true
}

// DeleteSession tears the session down: its wheel stops without announcing
// and every stream is disconnected.
func (s *Store) DeleteSession(id string) bool {
	sess, ok := s.r.Delete(id)
	if !ok {
		return false
	}
	sess.teardown()
	s.opts.Logger.Info("session deleted", "session", id)
	return true
}

// Broadcaster returns the SSE broadcaster for a session.
func (s *Store) Broadcaster(id string) (*realtime.Broadcaster, bool) {
	return s.r.Broadcaster(id)
}

// Publish notifies subscribers of a session update.
func (s *Store) Publish(id string, event realtime.Event) {
	s.r.Publish(id, event)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	return s.r.Len()
}

// Sweep drops sessions unused for longer than ttl.
func (s *Store) Sweep(ttl time.Duration) int {
	return s.r.Sweep(ttl, s.evict)
}

// RunJanitor sweeps idle sessions in the background until ctx ends.
func (s *Store) RunJanitor(ctx context.Context, ttl time.Duration) {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	s.r.RunJanitor(ctx, interval, ttl, s.evict)
}

func (s *Store) evict(id string, sess *Session) {
	sess.teardown()
	s.opts.Logger.Info("session expired", "session", id)
}

// newController builds the wheel for a session entering the spinner phase.
func (s *Store) newController(sess *Session, participants []wheel.Participant) *wheel.Controller {
	anim := &streamAnimator{
		clock:   s.opts.Clock,
		logger:  s.opts.Logger.With("session", sess.ID),
		publish: func(e realtime.Event) { s.Publish(sess.ID, e) },
	}
	var c *wheel.Controller
	onComplete := func(p wheel.Participant) { sess.recordWinner(c, p) }
	c = wheel.NewController(participants, anim, onComplete, wheel.Options{
		Source:      s.opts.Source,
		Clock:       s.opts.Clock,
		Duration:    s.opts.SpinDuration,
		SettleDelay: s.opts.SettleDelay,
		Watchdog:    s.opts.Watchdog,
		Observer: wheel.LogObserver{
			Logger: s.opts.Logger,
			Attrs:  []any{"session", sess.ID},
		},
	})
	return c
}

// Now reads the store clock.
func (s *Store) Now() time.Time {
	return s.opts.Clock.Now()
}
