package wheel

import (
	"log/slog"
	"time"
)

// SpinEvent describes one spin for observers.
type SpinEvent struct {
	Seq            int
	Participants   int
	Winner         Participant
	WinnerIndex    int
	ExtraSpins     int
	RotationNeeded float64
	From           float64
	To             float64
	Duration       time.Duration
}

// Observer receives lifecycle events from a Controller. Methods are called
// outside the controller's lock and must not block.
type Observer interface {
	SpinStarted(SpinEvent)
	SpinCompleted(SpinEvent)
	// SpinStalled fires when the watchdog completes a spin the animator
	// never reported.
	SpinStalled(SpinEvent)
}

type nopObserver struct{}

func (nopObserver) SpinStarted(SpinEvent)   {}
func (nopObserver) SpinCompleted(SpinEvent) {}
func (nopObserver) SpinStalled(SpinEvent)   {}

// LogObserver writes spin events to a structured logger.
type LogObserver struct {
	Logger *slog.Logger
	// Attrs are appended to every record, e.g. the session id.
	Attrs []any
}

func (o LogObserver) logger() *slog.Logger {
	l := o.Logger
	if l == nil {
		l = slog.Default()
	}
	return l.With(o.Attrs...)
}

func (o LogObserver) SpinStarted(e SpinEvent) {
	o.logger().Debug("spin started",
		"seq", e.Seq,
		"participants", e.Participants,
		"winner_index", e.WinnerIndex,
		"extra_spins", e.ExtraSpins,
		"rotation_needed", e.RotationNeeded,
		"from", e.From,
		"to", e.To,
		"duration", e.Duration,
	)
}

func (o LogObserver) SpinCompleted(e SpinEvent) {
	o.logger().Info("spin completed",
		"seq", e.Seq,
		"winner_id", e.Winner.ID,
		"winner", e.Winner.Name,
		"rotation", e.To,
	)
}

func (o LogObserver) SpinStalled(e SpinEvent) {
	o.logger().Warn("animation never completed, settling spin",
		"seq", e.Seq,
		"winner_id", e.Winner.ID,
		"rotation", e.To,
	)
}
