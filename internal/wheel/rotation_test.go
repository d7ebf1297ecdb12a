package wheel

import (
	"math"
	"testing"
)

const epsilon = 1e-6

// atPointer reports whether an absolute angle sits on the pointer (0 deg).
func atPointer(deg float64) bool {
	d := Normalize(deg)
	return d < epsilon || 360-d < epsilon
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{360, 0},
		{720.5, 0.5},
		{-90, 270},
		{-360, 0},
		{-1e-20, 0},
		{359.999, 359.999},
	}
	for _, tc := range cases {
		got := Normalize(tc.in)
		if math.Abs(got-tc.want) > epsilon {
			t.Errorf("Normalize(%v) = %v, want %v", tc.in, got, tc.want)
		}
		if got < 0 || got >= 360 {
			t.Errorf("Normalize(%v) = %v out of [0,360)", tc.in, got)
		}
	}
}

func TestTarget_ThreeParticipantsScenario(t *testing.T) {
	if got := SegmentCenter(1, 3); got != 180 {
		t.Errorf("SegmentCenter %v, want 180", got)
	}
	if got := RotationNeeded(1, 3, 0); got != 180 {
		t.Errorf("RotationNeeded %v, want 180", got)
	}
	for extra := MinExtraSpins; extra <= MaxExtraSpins; extra++ {
		got := Target(0, 1, 3, extra)
		want := 180 + 360*float64(extra)
		if got != want {
			t.Errorf("extra=%d: Target %v, want %v", extra, got, want)
		}
	}
}

func TestTarget_LandsWinnerUnderPointer(t *testing.T) {
	priors := []float64{0, 17.5, 359.9, 1234.56, 36000}
	for _, r := range priors {
		for n := 2; n <= 13; n++ {
			for idx := 0; idx < n; idx++ {
				for _, extra := range []int{MinExtraSpins, 6, MaxExtraSpins} {
					target := Target(r, idx, n, extra)
					if target <= r {
						t.Fatalf("R=%v n=%d idx=%d: target %v not past %v", r, n, idx, target, r)
					}
					if !atPointer(SegmentCenter(idx, n) + target) {
						t.Errorf("R=%v n=%d idx=%d: center ends at %v", r, n, idx, Normalize(SegmentCenter(idx, n)+target))
					}
					turn := target - r
					if turn < float64(extra)*360-epsilon || turn > float64(extra+1)*360+epsilon {
						t.Errorf("R=%v n=%d idx=%d: turn %v outside extra=%d band", r, n, idx, turn, extra)
					}
				}
			}
		}
	}
}

func TestRotationNeeded_Range(t *testing.T) {
	for n := 1; n <= 12; n++ {
		for idx := 0; idx < n; idx++ {
			for _, r := range []float64{0, 90, 180 - 180/float64(n), 1e9} {
				got := RotationNeeded(idx, n, r)
				if got < 0 || got >= 360 {
					t.Errorf("n=%d idx=%d r=%v: %v out of [0,360)", n, idx, r, got)
				}
			}
		}
	}
}

func TestExtraSpins_Range(t *testing.T) {
	src := newSeededSource(7)
	seen := make(map[int]bool)
	for i := 0; i < 2000; i++ {
		e := ExtraSpins(src)
		if e < MinExtraSpins || e > MaxExtraSpins {
			t.Fatalf("ExtraSpins %d out of [%d,%d]", e, MinExtraSpins, MaxExtraSpins)
		}
		seen[e] = true
	}
	if len(seen) != MaxExtraSpins-MinExtraSpins+1 {
		t.Errorf("saw %d distinct values, want %d", len(seen), MaxExtraSpins-MinExtraSpins+1)
	}
}

func TestSegments_Partition(t *testing.T) {
	participants := make([]Participant, 14)
	for i := range participants {
		participants[i] = Participant{ID: string(rune('a' + i)), Name: "p"}
	}
	segs := Segments(participants)
	if len(segs) != len(participants) {
		t.Fatalf("len %d, want %d", len(segs), len(participants))
	}
	step := 360.0 / float64(len(participants))
	if segs[0].StartAngle != 0 {
		t.Errorf("first segment starts at %v, want 0", segs[0].StartAngle)
	}
	for i, s := range segs {
		if math.Abs(s.EndAngle-s.StartAngle-step) > epsilon {
			t.Errorf("segment %d width %v, want %v", i, s.EndAngle-s.StartAngle, step)
		}
		if i > 0 && math.Abs(s.StartAngle-segs[i-1].EndAngle) > epsilon {
			t.Errorf("segment %d starts at %v, previous ends at %v", i, s.StartAngle, segs[i-1].EndAngle)
		}
		if s.Participant != participants[i] || s.Index != i {
			t.Errorf("segment %d holds %+v at index %d", i, s.Participant, s.Index)
		}
		if s.Color != Palette[i%12] {
			t.Errorf("segment %d color %q, want %q", i, s.Color, Palette[i%12])
		}
		if math.Abs(s.MidAngle()-SegmentCenter(i, len(segs))) > epsilon {
			t.Errorf("segment %d mid %v, want %v", i, s.MidAngle(), SegmentCenter(i, len(segs)))
		}
	}
	if math.Abs(segs[len(segs)-1].EndAngle-360) > epsilon {
		t.Errorf("last segment ends at %v, want 360", segs[len(segs)-1].EndAngle)
	}
	if Segments(nil) != nil {
		t.Error("Segments(nil) should be nil")
	}
}
