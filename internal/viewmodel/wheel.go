package viewmodel

import (
	"fmt"
	"math"
	"unicode/utf8"

	"whopays/internal/wheel"
)

const (
	WheelSize = 300.0
	// WheelRadius leaves room for the rim stroke inside the view box.
	WheelRadius = 140.0

	labelRadiusRatio = 0.7
	maxLabelRunes    = 8
)

// WheelView is the SVG geometry of a wheel.
type WheelView struct {
	Size     float64
	Center   float64
	Radius   float64
	Rotation float64
	Count    int
	Segments []SegmentView
}

// SegmentView is one drawn slice. Path is an SVG path in view box units.
type SegmentView struct {
	Path        string
	Color       string
	Name        string
	Label       string
	LabelX      float64
	LabelY      float64
	LabelRotate float64
}

// BuildWheel lays out participants as SVG slices. Angle 0 is the pointer
// at the top and angles grow clockwise, matching wheel.Segments.
func BuildWheel(participants []wheel.Participant, rotation float64) WheelView {
	c := WheelSize / 2
	view := WheelView{
		Size:     WheelSize,
		Center:   c,
		Radius:   WheelRadius,
		Rotation: rotation,
		Count:    len(participants),
	}
	for _, seg := range wheel.Segments(participants) {
		mid := seg.MidAngle()
		lx, ly := polar(c, WheelRadius*labelRadiusRatio, mid)
		view.Segments = append(view.Segments, SegmentView{
			Path:        slicePath(c, WheelRadius, seg.StartAngle, seg.EndAngle),
			Color:       seg.Color,
			Name:        seg.Participant.Name,
			Label:       TruncateLabel(seg.Participant.Name),
			LabelX:      round2(lx),
			LabelY:      round2(ly),
			LabelRotate: round2(mid - 90),
		})
	}
	return view
}

// TruncateLabel shortens a name to fit inside a slice.
func TruncateLabel(name string) string {
	if utf8.RuneCountInString(name) <= maxLabelRunes {
		return name
	}
	return string([]rune(name)[:maxLabelRunes]) + "..."
}

func slicePath(c, r, start, end float64) string {
	if end-start >= 360 {
		// A lone participant fills the disc; an arc cannot end where it starts.
		return fmt.Sprintf("M %.2f %.2f A %.2f %.2f 0 1 1 %.2f %.2f A %.2f %.2f 0 1 1 %.2f %.2f Z",
			c, c-r, r, r, c, c+r, r, r, c, c-r)
	}
	x1, y1 := polar(c, r, start)
	x2, y2 := polar(c, r, end)
	largeArc := 0
	if end-start > 180 {
		largeArc = 1
	}
	return fmt.Sprintf("M %.2f %.2f L %.2f %.2f A %.2f %.2f 0 %d 1 %.2f %.2f Z",
		c, c, x1, y1, r, r, largeArc, x2, y2)
}

// polar converts a clockwise angle from the top into view box coordinates.
func polar(c, r, deg float64) (float64, float64) {
	rad := (deg - 90) * math.Pi / 180
	return c + r*math.Cos(rad), c + r*math.Sin(rad)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
