package wheel

import (
	"sync"
	"time"

	"whopays/pkg/realtime"
)

const (
	DefaultSpinDuration = 3000 * time.Millisecond
	DefaultSettleDelay  = 800 * time.Millisecond
)

// State is the spin lifecycle position of a Controller.
type State int

const (
	Idle State = iota
	Spinning
	Settled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Spinning:
		return "spinning"
	case Settled:
		return "settled"
	default:
		return "unknown"
	}
}

// Animation is one clockwise rotation request handed to the renderer.
type Animation struct {
	From     float64
	To       float64
	Duration time.Duration
}

// Animator plays rotations. It must call done exactly once when the
// animation finishes, unless cancel is called first. cancel may be nil.
type Animator interface {
	Animate(a Animation, done func()) (cancel func())
}

// AnimatorFunc adapts a function to the Animator interface.
type AnimatorFunc func(a Animation, done func()) (cancel func())

func (f AnimatorFunc) Animate(a Animation, done func()) func() { return f(a, done) }

// Options tune a Controller. Zero values select the defaults.
type Options struct {
	Source      Source
	Clock       realtime.Clock
	Duration    time.Duration
	SettleDelay time.Duration
	// Watchdog, when positive, settles a spin whose animator has not
	// reported completion within Duration+Watchdog.
	Watchdog time.Duration
	Observer Observer
}

// Controller owns the cumulative rotation of one wheel and sequences spins:
// Idle -> Spinning -> Settled -> (Dismiss) -> Idle.
type Controller struct {
	participants []Participant
	animator     Animator
	onComplete   func(Participant)

	src         Source
	clock       realtime.Clock
	duration    time.Duration
	settleDelay time.Duration
	watchdog    time.Duration
	observer    Observer

	mu       sync.Mutex
	state    State
	rotation float64
	seq      int
	current  *spin
	closed   bool
}

type spin struct {
	event     SpinEvent
	startedAt time.Time
	announced bool

	cancel   func()
	watchdog realtime.Timer
	settle   realtime.Timer
}

// NewController builds a controller over a snapshot of participants.
// onComplete receives the winner once per completed spin after the settle delay.
func NewController(participants []Participant, animator Animator, onComplete func(Participant), opts Options) *Controller {
	c := &Controller{
		participants: append([]Participant(nil), participants...),
		animator:     animator,
		onComplete:   onComplete,
		src:          opts.Source,
		clock:        opts.Clock,
		duration:     opts.Duration,
		settleDelay:  opts.SettleDelay,
		watchdog:     opts.Watchdog,
		observer:     opts.Observer,
	}
	if c.src == nil {
		c.src = DefaultSource()
	}
	if c.clock == nil {
		c.clock = realtime.RealClock{}
	}
	if c.duration <= 0 {
		c.duration = DefaultSpinDuration
	}
	if c.settleDelay < 0 {
		c.settleDelay = 0
	} else if c.settleDelay == 0 {
		c.settleDelay = DefaultSettleDelay
	}
	if c.observer == nil {
		c.observer = nopObserver{}
	}
	return c
}

// Participants returns the wheel's participants in segment order.
func (c *Controller) Participants() []Participant {
	return append([]Participant(nil), c.participants...)
}

// RequestSpin starts a spin if the wheel is idle and has participants.
// Otherwise it does nothing. It never blocks on the animation.
func (c *Controller) RequestSpin() bool {
	return c.TrySpin() == nil
}

// TrySpin is RequestSpin reporting why a request was declined.
func (c *Controller) TrySpin() error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.state == Spinning:
		c.mu.Unlock()
		return ErrSpinInProgress
	case c.state == Settled:
		c.mu.Unlock()
		return ErrResultPending
	case len(c.participants) == 0:
		c.mu.Unlock()
		return ErrEmptyParticipantSet
	}

	pick, _ := SelectRandom(c.participants, c.src)
	n := len(c.participants)
	extra := ExtraSpins(c.src)
	c.seq++
	sp := &spin{
		startedAt: c.clock.Now(),
		event: SpinEvent{
			Seq:            c.seq,
			Participants:   n,
			Winner:         pick.Item,
			WinnerIndex:    pick.Index,
			ExtraSpins:     extra,
			RotationNeeded: RotationNeeded(pick.Index, n, c.rotation),
			From:           c.rotation,
			To:             Target(c.rotation, pick.Index, n, extra),
			Duration:       c.duration,
		},
	}
	c.state = Spinning
	c.current = sp
	c.mu.Unlock()

	c.observer.SpinStarted(sp.event)

	anim := Animation{From: sp.event.From, To: sp.event.To, Duration: sp.event.Duration}
	cancel := c.animator.Animate(anim, func() { c.complete(sp, false) })

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		if cancel != nil {
			cancel()
		}
		return nil
	}
	if c.current == sp && c.state == Spinning {
		sp.cancel = cancel
		if c.watchdog > 0 {
			sp.watchdog = c.clock.AfterFunc(c.duration+c.watchdog, func() { c.complete(sp, true) })
		}
	}
	return nil
}

func (c *Controller) complete(sp *spin, stalled bool) {
	c.mu.Lock()
	if c.closed || c.current != sp || c.state != Spinning {
		c.mu.Unlock()
		return
	}
	c.rotation = sp.event.To
	c.state = Settled
	if sp.watchdog != nil {
		sp.watchdog.Stop()
	}
	cancel := sp.cancel
	sp.settle = c.clock.AfterFunc(c.settleDelay, func() { c.announce(sp) })
	c.mu.Unlock()

	if stalled {
		if cancel != nil {
			cancel()
		}
		c.observer.SpinStalled(sp.event)
	}
	c.observer.SpinCompleted(sp.event)
}

func (c *Controller) announce(sp *spin) {
	c.mu.Lock()
	if c.closed || c.current != sp || sp.announced {
		c.mu.Unlock()
		return
	}
	sp.announced = true
	c.mu.Unlock()

	if c.onComplete != nil {
		c.onComplete(sp.event.Winner)
	}
}

// Dismiss marks the announced result as consumed and returns the wheel to
// Idle. It reports false before the result has been announced.
func (c *Controller) Dismiss() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state != Settled || c.current == nil || !c.current.announced {
		return false
	}
	c.state = Idle
	return true
}

// Close tears the wheel down. Any running animation is cancelled and no
// callback or observer event is delivered afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	var cancel func()
	if sp := c.current; sp != nil {
		if c.state == Spinning {
			cancel = sp.cancel
		}
		if sp.watchdog != nil {
			sp.watchdog.Stop()
		}
		if sp.settle != nil {
			sp.settle.Stop()
		}
	}
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Snapshot is a read-only view of a controller.
type Snapshot struct {
	State    State
	Rotation float64
	Closed   bool
	// Spin is the latest spin, nil before the first one.
	Spin *SpinSnapshot
}

// SpinSnapshot describes the latest spin. Winner is only set once the
// result has been announced.
type SpinSnapshot struct {
	Seq       int
	From      float64
	To        float64
	Duration  time.Duration
	StartedAt time.Time
	Winner    *Participant
}

// Snapshot returns the current state. Rotation is the cumulative rotation
// applied by completed spins only.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{State: c.state, Rotation: c.rotation, Closed: c.closed}
	if sp := c.current; sp != nil {
		s := &SpinSnapshot{
			Seq:       sp.event.Seq,
			From:      sp.event.From,
			To:        sp.event.To,
			Duration:  sp.event.Duration,
			StartedAt: sp.startedAt,
		}
		if sp.announced {
			w := sp.event.Winner
			s.Winner = &w
		}
		snap.Spin = s
	}
	return snap
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Rotation returns the cumulative rotation in degrees.
func (c *Controller) Rotation() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rotation
}
