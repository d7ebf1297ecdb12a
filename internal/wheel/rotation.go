package wheel

import "math"

const (
	// MinExtraSpins and MaxExtraSpins bound the full turns played before landing.
	MinExtraSpins = 3
	MaxExtraSpins = 9

	angleEpsilon = 1e-9
)

// Participant is one named entry on the wheel. ID is the identity; Name is
// display only and may repeat.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Segment is the angular slice a participant occupies before any rotation.
// Angles are degrees clockwise from the pointer.
type Segment struct {
	Participant Participant
	Index       int
	StartAngle  float64
	EndAngle    float64
	Color       string
}

// MidAngle is the segment's center line.
func (s Segment) MidAngle() float64 {
	return (s.StartAngle + s.EndAngle) / 2
}

// Segments partitions [0, 360) among participants in order.
func Segments(participants []Participant) []Segment {
	n := len(participants)
	if n == 0 {
		return nil
	}
	colors := GenerateColors(n)
	step := 360 / float64(n)
	out := make([]Segment, n)
	for i, p := range participants {
		start := float64(i) * step
		out[i] = Segment{
			Participant: p,
			Index:       i,
			StartAngle:  start,
			EndAngle:    start + step,
			Color:       colors[i],
		}
	}
	return out
}

// Normalize maps any angle into [0, 360).
func Normalize(deg float64) float64 {
	r := math.Mod(deg, 360)
	if r < 0 {
		r += 360
	}
	if r >= 360 {
		r -= 360
	}
	return r
}

// SegmentCenter is the midpoint of segment index on an unrotated wheel of n.
func SegmentCenter(index, n int) float64 {
	per := 360 / float64(n)
	return float64(index)*per + per/2
}

// RotationNeeded is the smallest clockwise turn, in [0, 360), that brings
// the center of segment index under the pointer given rotation already applied.
func RotationNeeded(index, n int, cumulative float64) float64 {
	current := Normalize(SegmentCenter(index, n) + cumulative)
	needed := -current
	if needed < 0 {
		needed += 360
	}
	// A segment resting a rounding error past the pointer is already there.
	if needed >= 360-angleEpsilon {
		needed = 0
	}
	return needed
}

// ExtraSpins draws the number of full decorative turns, uniform in
// [MinExtraSpins, MaxExtraSpins].
func ExtraSpins(src Source) int {
	if src == nil {
		src = DefaultSource()
	}
	return MinExtraSpins + src.IntN(MaxExtraSpins-MinExtraSpins+1)
}

// Target returns the cumulative rotation at which segment index rests under
// the pointer after extraSpins full turns. The result is always greater
// than cumulative when extraSpins is positive.
func Target(cumulative float64, index, n, extraSpins int) float64 {
	return cumulative + float64(extraSpins)*360 + RotationNeeded(index, n, cumulative)
}
