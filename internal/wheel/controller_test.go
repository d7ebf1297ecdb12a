package wheel

import (
	"errors"
	"sync"
	"testing"
	"time"

	"whopays/pkg/realtime"
)

// clockAnimator completes each animation on the manual clock after its duration.
type clockAnimator struct {
	clock     *realtime.ManualClock
	requests  []Animation
	cancelled int
}

func (a *clockAnimator) Animate(anim Animation, done func()) func() {
	a.requests = append(a.requests, anim)
	timer := a.clock.AfterFunc(anim.Duration, done)
	return func() {
		if timer.Stop() {
			a.cancelled++
		}
	}
}

// silentAnimator never reports completion.
type silentAnimator struct {
	requests  []Animation
	cancelled int
}

func (a *silentAnimator) Animate(anim Animation, done func()) func() {
	a.requests = append(a.requests, anim)
	return func() { a.cancelled++ }
}

type recordingObserver struct {
	mu        sync.Mutex
	started   []SpinEvent
	completed []SpinEvent
	stalled   []SpinEvent
}

func (o *recordingObserver) SpinStarted(e SpinEvent) {
	o.mu.Lock()
	o.started = append(o.started, e)
	o.mu.Unlock()
}

func (o *recordingObserver) SpinCompleted(e SpinEvent) {
	o.mu.Lock()
	o.completed = append(o.completed, e)
	o.mu.Unlock()
}

func (o *recordingObserver) SpinStalled(e SpinEvent) {
	o.mu.Lock()
	o.stalled = append(o.stalled, e)
	o.mu.Unlock()
}

func testParticipants(names ...string) []Participant {
	out := make([]Participant, len(names))
	for i, n := range names {
		out[i] = Participant{ID: "id-" + n, Name: n}
	}
	return out
}

func newTestClock() *realtime.ManualClock {
	return realtime.NewManualClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

func TestController_EmptyParticipantsIsNoop(t *testing.T) {
	clock := newTestClock()
	anim := &clockAnimator{clock: clock}
	called := false
	c := NewController(nil, anim, func(Participant) { called = true }, Options{Clock: clock})

	if c.RequestSpin() {
		t.Error("RequestSpin should decline with no participants")
	}
	if err := c.TrySpin(); !errors.Is(err, ErrEmptyParticipantSet) {
		t.Errorf("TrySpin err %v, want ErrEmptyParticipantSet", err)
	}
	if c.State() != Idle {
		t.Errorf("State %v, want idle", c.State())
	}
	if len(anim.requests) != 0 {
		t.Errorf("animator called %d times, want 0", len(anim.requests))
	}
	clock.Advance(10 * time.Second)
	if called {
		t.Error("completion callback should not fire")
	}
}

func TestController_Lifecycle(t *testing.T) {
	clock := newTestClock()
	anim := &clockAnimator{clock: clock}
	src := &fixedSource{floats: []float64{0.5}, ints: []int{0}}
	var winners []Participant
	c := NewController(testParticipants("alice", "bob", "carol"), anim,
		func(p Participant) { winners = append(winners, p) },
		Options{Source: src, Clock: clock})

	if !c.RequestSpin() {
		t.Fatal("RequestSpin should start a spin")
	}
	if c.State() != Spinning {
		t.Fatalf("State %v, want spinning", c.State())
	}
	if len(anim.requests) != 1 {
		t.Fatalf("animator called %d times, want 1", len(anim.requests))
	}
	got := anim.requests[0]
	want := Animation{From: 0, To: 3*360 + 180, Duration: 3 * time.Second}
	if got != want {
		t.Errorf("animation %+v, want %+v", got, want)
	}
	if c.Rotation() != 0 {
		t.Errorf("Rotation %v before completion, want 0", c.Rotation())
	}

	clock.Advance(3 * time.Second)
	if c.State() != Settled {
		t.Fatalf("State %v, want settled", c.State())
	}
	if c.Rotation() != want.To {
		t.Errorf("Rotation %v, want %v", c.Rotation(), want.To)
	}
	if snap := c.Snapshot(); snap.Spin == nil || snap.Spin.Winner != nil {
		t.Error("winner should not be exposed before the settle delay")
	}

	clock.Advance(799 * time.Millisecond)
	if len(winners) != 0 {
		t.Fatal("callback fired before the settle delay")
	}
	if c.Dismiss() {
		t.Error("Dismiss should fail before the result is announced")
	}
	clock.Advance(time.Millisecond)
	if len(winners) != 1 {
		t.Fatalf("callback fired %d times, want 1", len(winners))
	}
	if winners[0].Name != "bob" {
		t.Errorf("winner %q, want bob", winners[0].Name)
	}
	snap := c.Snapshot()
	if snap.Spin == nil || snap.Spin.Winner == nil || snap.Spin.Winner.ID != "id-bob" {
		t.Errorf("snapshot winner %+v, want bob", snap.Spin)
	}

	if err := c.TrySpin(); !errors.Is(err, ErrResultPending) {
		t.Errorf("TrySpin while settled err %v, want ErrResultPending", err)
	}
	if !c.Dismiss() {
		t.Fatal("Dismiss should succeed after announcement")
	}
	if c.State() != Idle {
		t.Errorf("State %v, want idle", c.State())
	}
	if c.Dismiss() {
		t.Error("second Dismiss should fail")
	}
}

func TestController_RejectsOverlappingSpins(t *testing.T) {
	clock := newTestClock()
	anim := &clockAnimator{clock: clock}
	calls := 0
	c := NewController(testParticipants("a", "b"), anim, func(Participant) { calls++ }, Options{Clock: clock})

	if !c.RequestSpin() {
		t.Fatal("first spin should start")
	}
	for i := 0; i < 5; i++ {
		if c.RequestSpin() {
			t.Fatal("overlapping spin should be declined")
		}
	}
	if err := c.TrySpin(); !errors.Is(err, ErrSpinInProgress) {
		t.Errorf("TrySpin err %v, want ErrSpinInProgress", err)
	}
	clock.Advance(10 * time.Second)
	if len(anim.requests) != 1 {
		t.Errorf("animator called %d times, want 1", len(anim.requests))
	}
	if calls != 1 {
		t.Errorf("callback fired %d times, want 1", calls)
	}
}

func TestController_ConcurrentRequests(t *testing.T) {
	clock := newTestClock()
	c := NewController(testParticipants("a", "b", "c"), AnimatorFunc(func(a Animation, done func()) func() {
		return nil
	}), nil, Options{Clock: clock})

	var wg sync.WaitGroup
	var mu sync.Mutex
	started := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.RequestSpin() {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if started != 1 {
		t.Errorf("%d spins started, want 1", started)
	}
}

func TestController_RotationStrictlyIncreases(t *testing.T) {
	clock := newTestClock()
	anim := &clockAnimator{clock: clock}
	participants := testParticipants("a", "b", "c", "d", "e", "f", "g")
	var winners []Participant
	c := NewController(participants, anim, func(p Participant) { winners = append(winners, p) },
		Options{Source: newSeededSource(99), Clock: clock})

	prev := c.Rotation()
	for i := 0; i < 50; i++ {
		if !c.RequestSpin() {
			t.Fatalf("spin %d declined", i)
		}
		clock.Advance(DefaultSpinDuration + DefaultSettleDelay)
		rot := c.Rotation()
		if rot <= prev {
			t.Fatalf("spin %d: rotation %v did not increase from %v", i, rot, prev)
		}
		if rot-prev < MinExtraSpins*360-epsilon {
			t.Errorf("spin %d: turned only %v degrees", i, rot-prev)
		}
		w := winners[len(winners)-1]
		idx := -1
		for j, p := range participants {
			if p.ID == w.ID {
				idx = j
			}
		}
		if !atPointer(SegmentCenter(idx, len(participants)) + rot) {
			t.Errorf("spin %d: winner %s not under pointer", i, w.Name)
		}
		if !c.Dismiss() {
			t.Fatalf("spin %d: Dismiss failed", i)
		}
		prev = rot
	}
	if len(winners) != 50 {
		t.Errorf("callbacks %d, want 50", len(winners))
	}
}

func TestController_DuplicateCompletionIgnored(t *testing.T) {
	clock := newTestClock()
	calls := 0
	c := NewController(testParticipants("a", "b"), AnimatorFunc(func(a Animation, done func()) func() {
		clock.AfterFunc(a.Duration, done)
		clock.AfterFunc(a.Duration+time.Millisecond, done)
		return nil
	}), func(Participant) { calls++ }, Options{Clock: clock})

	c.RequestSpin()
	clock.Advance(5 * time.Second)
	if calls != 1 {
		t.Errorf("callback fired %d times, want 1", calls)
	}
}

func TestController_SynchronousAnimator(t *testing.T) {
	clock := newTestClock()
	calls := 0
	c := NewController(testParticipants("a", "b"), AnimatorFunc(func(a Animation, done func()) func() {
		done()
		return nil
	}), func(Participant) { calls++ }, Options{Clock: clock})

	if !c.RequestSpin() {
		t.Fatal("spin should start")
	}
	if c.State() != Settled {
		t.Errorf("State %v, want settled", c.State())
	}
	clock.Advance(DefaultSettleDelay)
	if calls != 1 {
		t.Errorf("callback fired %d times, want 1", calls)
	}
}

func TestController_CloseWhileSpinning(t *testing.T) {
	clock := newTestClock()
	anim := &clockAnimator{clock: clock}
	obs := &recordingObserver{}
	calls := 0
	c := NewController(testParticipants("a", "b"), anim, func(Participant) { calls++ }, Options{Clock: clock, Observer: obs})

	c.RequestSpin()
	c.Close()
	if anim.cancelled != 1 {
		t.Errorf("animation cancelled %d times, want 1", anim.cancelled)
	}
	clock.Advance(10 * time.Second)
	if calls != 0 {
		t.Errorf("callback fired %d times after Close", calls)
	}
	if len(obs.completed) != 0 {
		t.Errorf("observer saw %d completions after Close", len(obs.completed))
	}
	if err := c.TrySpin(); !errors.Is(err, ErrClosed) {
		t.Errorf("TrySpin err %v, want ErrClosed", err)
	}
	c.Close()
}

func TestController_CloseDuringSettleDelay(t *testing.T) {
	clock := newTestClock()
	anim := &clockAnimator{clock: clock}
	calls := 0
	c := NewController(testParticipants("a", "b"), anim, func(Participant) { calls++ }, Options{Clock: clock})

	c.RequestSpin()
	clock.Advance(DefaultSpinDuration)
	c.Close()
	clock.Advance(time.Second)
	if calls != 0 {
		t.Errorf("callback fired %d times after Close", calls)
	}
	if anim.cancelled != 0 {
		t.Errorf("finished animation cancelled %d times", anim.cancelled)
	}
	if !c.Snapshot().Closed {
		t.Error("snapshot should report closed")
	}
}

func TestController_NoWatchdogStaysSpinning(t *testing.T) {
	clock := newTestClock()
	anim := &silentAnimator{}
	c := NewController(testParticipants("a", "b"), anim, nil, Options{Clock: clock})

	c.RequestSpin()
	clock.Advance(time.Hour)
	if c.State() != Spinning {
		t.Errorf("State %v, want spinning", c.State())
	}
	if c.Rotation() != 0 {
		t.Errorf("Rotation %v, want 0", c.Rotation())
	}
}

func TestController_WatchdogSettlesStalledSpin(t *testing.T) {
	clock := newTestClock()
	anim := &silentAnimator{}
	obs := &recordingObserver{}
	var winner *Participant
	c := NewController(testParticipants("a", "b", "c"), anim, func(p Participant) { winner = &p },
		Options{Clock: clock, Watchdog: 2 * time.Second, Observer: obs})

	c.RequestSpin()
	clock.Advance(4999 * time.Millisecond)
	if c.State() != Spinning {
		t.Fatalf("State %v before watchdog, want spinning", c.State())
	}
	clock.Advance(time.Millisecond)
	if c.State() != Settled {
		t.Fatalf("State %v after watchdog, want settled", c.State())
	}
	if anim.cancelled != 1 {
		t.Errorf("stalled animation cancelled %d times, want 1", anim.cancelled)
	}
	if len(obs.stalled) != 1 {
		t.Errorf("stalled events %d, want 1", len(obs.stalled))
	}
	if c.Rotation() != anim.requests[0].To {
		t.Errorf("Rotation %v, want %v", c.Rotation(), anim.requests[0].To)
	}
	clock.Advance(DefaultSettleDelay)
	if winner == nil {
		t.Fatal("watchdog spin should still announce a winner")
	}
}

func TestController_WatchdogStoppedOnCompletion(t *testing.T) {
	clock := newTestClock()
	anim := &clockAnimator{clock: clock}
	obs := &recordingObserver{}
	c := NewController(testParticipants("a", "b"), anim, nil,
		Options{Clock: clock, Watchdog: time.Second, Observer: obs})

	c.RequestSpin()
	clock.Advance(time.Minute)
	if len(obs.stalled) != 0 {
		t.Errorf("stalled events %d, want 0", len(obs.stalled))
	}
	if len(obs.completed) != 1 {
		t.Errorf("completed events %d, want 1", len(obs.completed))
	}
}

func TestController_ObserverEvents(t *testing.T) {
	clock := newTestClock()
	anim := &clockAnimator{clock: clock}
	obs := &recordingObserver{}
	src := &fixedSource{floats: []float64{0.1}, ints: []int{4}}
	c := NewController(testParticipants("a", "b", "c", "d"), anim, nil,
		Options{Clock: clock, Observer: obs, Source: src})

	c.RequestSpin()
	if len(obs.started) != 1 {
		t.Fatalf("started events %d, want 1", len(obs.started))
	}
	e := obs.started[0]
	if e.Seq != 1 || e.WinnerIndex != 0 || e.ExtraSpins != 7 || e.Participants != 4 {
		t.Errorf("started event %+v", e)
	}
	if e.RotationNeeded != 315 {
		t.Errorf("RotationNeeded %v, want 315", e.RotationNeeded)
	}
	clock.Advance(DefaultSpinDuration)
	if len(obs.completed) != 1 || obs.completed[0].Winner.Name != "a" {
		t.Errorf("completed events %+v", obs.completed)
	}
}

func TestController_ParticipantsAreSnapshotted(t *testing.T) {
	participants := testParticipants("a", "b")
	c := NewController(participants, &silentAnimator{}, nil, Options{})
	participants[0].Name = "changed"
	if c.Participants()[0].Name != "a" {
		t.Error("controller should hold its own copy of participants")
	}
}

func TestController_CustomTiming(t *testing.T) {
	clock := newTestClock()
	anim := &clockAnimator{clock: clock}
	calls := 0
	c := NewController(testParticipants("a", "b"), anim, func(Participant) { calls++ },
		Options{Clock: clock, Duration: time.Second, SettleDelay: -1})

	c.RequestSpin()
	if anim.requests[0].Duration != time.Second {
		t.Errorf("Duration %v, want 1s", anim.requests[0].Duration)
	}
	clock.Advance(time.Second)
	if calls != 1 {
		t.Errorf("negative settle delay should announce immediately, got %d callbacks", calls)
	}
}

func TestState_String(t *testing.T) {
	for s, want := range map[State]string{Idle: "idle", Spinning: "spinning", Settled: "settled", State(9): "unknown"} {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(s), s.String(), want)
		}
	}
}
