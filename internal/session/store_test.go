package session

import (
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"whopays/internal/wheel"
	"whopays/pkg/realtime"
)

// firstSource always picks index 0 with the minimum number of extra turns.
type firstSource struct{}

func (firstSource) Float64() float64 { return 0 }
func (firstSource) IntN(int) int     { return 0 }

func newTestStore() (*Store, *realtime.ManualClock) {
	clock := realtime.NewManualClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	return NewStore(Options{Clock: clock, Source: firstSource{}}), clock
}

func TestNewStore(t *testing.T) {
	s := NewStore(Options{})
	if s == nil {
		t.Fatal("NewStore returned nil")
	}
}

func TestStore_CreateSession_GetSession(t *testing.T) {
	s, _ := newTestStore()
	sess := s.CreateSession("Lunch")
	if sess == nil {
		t.Fatal("CreateSession returned nil")
	}
	if sess.ID == "" {
		t.Error("session ID is empty")
	}
	if sess.Phase != PhaseSetup {
		t.Errorf("Phase %q, want %q", sess.Phase, PhaseSetup)
	}
	if sess.Title != "Lunch" {
		t.Errorf("Title %q, want Lunch", sess.Title)
	}

	got, ok := s.GetSession(sess.ID)
	if !ok {
		t.Fatal("GetSession returned false for existing session")
	}
	if got != sess {
		t.Error("GetSession returned different pointer")
	}

	_, ok = s.GetSession("nonexistent")
	if ok {
		t.Error("GetSession should return false for missing ID")
	}
	if s.Len() != 1 {
		t.Errorf("Len %d, want 1", s.Len())
	}
}

func TestStore_CreateSession_DefaultTitle(t *testing.T) {
	s, _ := newTestStore()
	if sess := s.CreateSession("   "); sess.Title != DefaultTitle {
		t.Errorf("Title %q, want %q", sess.Title, DefaultTitle)
	}
}

func TestStore_Publish(t *testing.T) {
	s, _ := newTestStore()
	sess := s.CreateSession("")
	hub, ok := s.Broadcaster(sess.ID)
	if !ok {
		t.Fatal("Broadcaster returned false for existing session")
	}
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	s.Publish(sess.ID, realtime.Event{Name: EventState})
	got := <-ch
	if got.Name != EventState {
		t.Errorf("got event %q, want %q", got.Name, EventState)
	}
}

func TestStore_SpinStreamsAnimation(t *testing.T) {
	s, clock := newTestStore()
	sess := s.CreateSession("")
	sess.AddPreset("sample")
	if err := sess.StartSpinner(); err != nil {
		t.Fatalf("StartSpinner: %v", err)
	}
	hub, _ := s.Broadcaster(sess.ID)
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	if !sess.Spin() {
		t.Fatal("Spin should start")
	}
	ev := <-ch
	if ev.Name != EventSpin {
		t.Fatalf("event %q, want %q", ev.Name, EventSpin)
	}
	var payload SpinPayload
	if err := json.Unmarshal([]byte(ev.Data), &payload); err != nil {
		t.Fatalf("decode spin payload: %v", err)
	}
	// Index 0 of 4: center 45, needs 315 plus three turns.
	if payload.From != 0 || payload.To != 3*360+315 || payload.DurationMs != 3000 {
		t.Errorf("payload %+v", payload)
	}

	clock.Advance(wheel.DefaultSpinDuration + wheel.DefaultSettleDelay)
	ev = <-ch
	if ev.Name != EventResult {
		t.Errorf("event %q, want %q", ev.Name, EventResult)
	}
}

func TestStore_DeleteSession(t *testing.T) {
	s, clock := newTestStore()
	sess := s.CreateSession("")
	sess.AddPreset("food")
	_ = sess.StartSpinner()
	hub, _ := s.Broadcaster(sess.ID)
	ch := hub.Subscribe()
	sess.Spin()
	<-ch // spin

	if !s.DeleteSession(sess.ID) {
		t.Fatal("DeleteSession returned false")
	}
	clock.Advance(time.Minute)
	if len(sess.Snapshot().History) != 0 {
		t.Error("deleted session should not record a winner")
	}
	if _, open := <-ch; open {
		t.Error("stream should be closed after delete")
	}
	if s.DeleteSession(sess.ID) {
		t.Error("second delete should return false")
	}
}

func TestStore_Sweep(t *testing.T) {
	s, clock := newTestStore()
	old := s.CreateSession("old")
	clock.Advance(3 * time.Hour)
	fresh := s.CreateSession("fresh")

	if n := s.Sweep(2 * time.Hour); n != 1 {
		t.Fatalf("Sweep removed %d, want 1", n)
	}
	if _, ok := s.GetSession(old.ID); ok {
		t.Error("idle session should be swept")
	}
	if _, ok := s.GetSession(fresh.ID); !ok {
		t.Error("fresh session should survive")
	}
}

func TestStreamAnimator_EncodeFailureStillCompletes(t *testing.T) {
	clock := realtime.NewManualClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	var published []realtime.Event
	a := &streamAnimator{
		clock:   clock,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		publish: func(e realtime.Event) { published = append(published, e) },
	}

	done := false
	a.Animate(wheel.Animation{From: math.NaN(), To: 90, Duration: time.Second}, func() { done = true })
	if len(published) != 0 {
		t.Errorf("published %v, want nothing for an unencodable spin", published)
	}
	clock.Advance(time.Second)
	if !done {
		t.Error("completion timer should fire even when the spin event could not be sent")
	}
}
