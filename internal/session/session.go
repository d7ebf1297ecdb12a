package session

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"whopays/internal/wheel"
	"whopays/pkg/realtime"
)

const (
	PhaseSetup   = "setup"
	PhaseSpinner = "spinner"
)

// Session holds one user's wheel: the participant list edited during setup
// and, once started, the wheel controller spinning over a copy of it.
type Session struct {
	mu           sync.Mutex
	ID           string
	CreatedAt    time.Time
	Title        string
	Phase        string
	Participants []wheel.Participant
	History      []Result

	store *Store
	wheel *wheel.Controller
}

// Result is one announced winner.
type Result struct {
	Seq    int
	Winner wheel.Participant
	At     time.Time
}

// AddParticipant validates name and appends it. A name already on the list
// (ignoring case) is refused with ErrDuplicateName unless allowDuplicate is
// set, so callers can ask before adding it anyway.
func (s *Session) AddParticipant(raw string, allowDuplicate bool) (wheel.Participant, error) {
	name, err := NormalizeName(raw)
	if err != nil {
		return wheel.Participant{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Phase != PhaseSetup {
		return wheel.Participant{}, ErrNotInSetup
	}
	if !allowDuplicate {
		for _, existing := range s.Participants {
			if strings.EqualFold(existing.Name, name) {
				return existing, ErrDuplicateName
			}
		}
	}
	p := wheel.Participant{ID: uuid.NewString(), Name: name}
	s.Participants = append(s.Participants, p)
	return p, nil
}

// AddPreset appends the named quick-add list.
func (s *Session) AddPreset(key string) error {
	names, ok := Presets[key]
	if !ok {
		return ErrUnknownPreset
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Phase != PhaseSetup {
		return ErrNotInSetup
	}
	for _, name := range names {
		s.Participants = append(s.Participants, wheel.Participant{ID: uuid.NewString(), Name: name})
	}
	return nil
}

// RemoveParticipant drops the participant with the given ID.
func (s *Session) RemoveParticipant(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Phase != PhaseSetup {
		return false
	}
	for i, p := range s.Participants {
		if p.ID == id {
			s.Participants = append(s.Participants[:i:i], s.Participants[i+1:]...)
			return true
		}
	}
	return false
}

// ClearParticipants removes everyone and reports how many were removed.
func (s *Session) ClearParticipants() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Phase != PhaseSetup {
		return 0
	}
	n := len(s.Participants)
	s.Participants = nil
	return n
}

// SetTitle renames the wheel.
func (s *Session) SetTitle(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Title = NormalizeTitle(raw)
}

// StartSpinner moves to the spinner phase with a wheel over the current participants.
func (s *Session) StartSpinner() error {
	s.mu.Lock()
	if s.Phase == PhaseSpinner {
		s.mu.Unlock()
		return nil
	}
	if len(s.Participants) < MinParticipants {
		s.mu.Unlock()
		return ErrTooFewParticipants
	}
	participants := append([]wheel.Participant(nil), s.Participants...)
	s.Phase = PhaseSpinner
	s.wheel = s.store.newController(s, participants)
	s.mu.Unlock()

	s.store.Publish(s.ID, realtime.Event{Name: EventState})
	return nil
}

// BackToSetup tears the wheel down and returns to editing participants.
// A spin in flight is abandoned without announcing.
func (s *Session) BackToSetup() {
	s.mu.Lock()
	w := s.wheel
	s.wheel = nil
	s.Phase = PhaseSetup
	s.mu.Unlock()

	if w != nil {
		w.Close()
	}
	s.store.Publish(s.ID, realtime.Event{Name: EventState})
}

// Reset starts a new game in the same session: the wheel is torn down and
// setup begins with no participants, the default title and no history.
func (s *Session) Reset() {
	s.mu.Lock()
	w := s.wheel
	s.wheel = nil
	s.Phase = PhaseSetup
	s.Title = DefaultTitle
	s.Participants = nil
	s.History = nil
	s.mu.Unlock()

	if w != nil {
		w.Close()
	}
	s.store.Publish(s.ID, realtime.Event{Name: EventState})
}

// Spin requests a spin. It reports whether a spin started; declined
// requests are not errors.
func (s *Session) Spin() bool {
	w := s.controller()
	if w == nil {
		return false
	}
	return w.RequestSpin()
}

// SpinAgain consumes the announced result and spins again.
func (s *Session) SpinAgain() bool {
	w := s.controller()
	if w == nil {
		return false
	}
	if w.Dismiss() {
		s.store.Publish(s.ID, realtime.Event{Name: EventResult})
	}
	return w.RequestSpin()
}

// DismissResult consumes the announced result, leaving the wheel idle.
func (s *Session) DismissResult() bool {
	w := s.controller()
	if w == nil {
		return false
	}
	if !w.Dismiss() {
		return false
	}
	s.store.Publish(s.ID, realtime.Event{Name: EventResult})
	return true
}

func (s *Session) controller() *wheel.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wheel
}

// recordWinner appends an announcement from w. Announcements from a wheel
// that has since been torn down are dropped, so a result racing Reset or
// BackToSetup never reaches the next game.
func (s *Session) recordWinner(w *wheel.Controller, p wheel.Participant) {
	s.mu.Lock()
	if w == nil || s.wheel != w {
		s.mu.Unlock()
		return
	}
	s.History = append(s.History, Result{
		Seq:    len(s.History) + 1,
		Winner: p,
		At:     s.store.opts.Clock.Now(),
	})
	s.mu.Unlock()
	s.store.Publish(s.ID, realtime.Event{Name: EventResult})
}

func (s *Session) teardown() {
	s.mu.Lock()
	w := s.wheel
	s.wheel = nil
	s.mu.Unlock()
	if w != nil {
		w.Close()
	}
}

// Snapshot captures the state needed for rendering pages and fragments.
type Snapshot struct {
	ID           string
	Title        string
	Phase        string
	Participants []wheel.Participant
	Wheel        wheel.Snapshot
	History      []Result
	// Winner is the announced result waiting to be dismissed.
	Winner *wheel.Participant
}

// CanStart reports whether setup has enough participants to spin.
func (s Snapshot) CanStart() bool {
	return len(s.Participants) >= MinParticipants
}

// Spinning reports whether a spin is in flight or waiting to be announced.
func (s Snapshot) Spinning() bool {
	return s.Phase == PhaseSpinner && s.Wheel.State != wheel.Idle && s.Winner == nil
}

// Snapshot returns a consistent view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		ID:           s.ID,
		Title:        s.Title,
		Phase:        s.Phase,
		Participants: append([]wheel.Participant(nil), s.Participants...),
		History:      append([]Result(nil), s.History...),
	}
	w := s.wheel
	s.mu.Unlock()

	if w != nil {
		snap.Wheel = w.Snapshot()
		snap.Participants = w.Participants()
		if snap.Wheel.State == wheel.Settled && snap.Wheel.Spin != nil {
			snap.Winner = snap.Wheel.Spin.Winner
		}
	}
	return snap
}
