package session

import (
	"encoding/json"
	"log/slog"

	"whopays/internal/wheel"
	"whopays/pkg/realtime"
)

// SpinPayload is the JSON body of a spin stream event. Browsers play the
// rotation from From to To over DurationMs; the server timer is authoritative.
// ElapsedMs is set for viewers joining mid-spin so they resume the same curve.
type SpinPayload struct {
	From       float64 `json:"from"`
	To         float64 `json:"to"`
	DurationMs int64   `json:"durationMs"`
	ElapsedMs  int64   `json:"elapsedMs,omitempty"`
}

// streamAnimator publishes each animation to the session stream and reports
// completion from a server-side timer.
type streamAnimator struct {
	clock   realtime.Clock
	logger  *slog.Logger
	publish func(realtime.Event)
}

func (a *streamAnimator) Animate(anim wheel.Animation, done func()) func() {
	payload, err := json.Marshal(SpinPayload{
		From:       anim.From,
		To:         anim.To,
		DurationMs: anim.Duration.Milliseconds(),
	})
	if err != nil {
		// Viewers miss the animation but the spin still completes on time.
		a.logger.Error("failed to encode spin", "error", err, "from", anim.From, "to", anim.To)
	} else {
		a.publish(realtime.Event{Name: EventSpin, Data: string(payload)})
	}
	timer := a.clock.AfterFunc(anim.Duration, done)
	return func() { timer.Stop() }
}
