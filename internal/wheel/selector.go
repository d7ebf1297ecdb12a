package wheel

import "math/rand/v2"

// Source abstracts the random draws made by a wheel so tests can pin them.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// IntN returns a value in [0, n).
	IntN(n int) int
}

// stdSource delegates to math/rand/v2 (auto-seeded).
type stdSource struct{}

func (stdSource) Float64() float64 { return rand.Float64() }
func (stdSource) IntN(n int) int   { return rand.IntN(n) }

// DefaultSource returns the process-wide pseudo-random source.
func DefaultSource() Source { return stdSource{} }

// Pick is one item drawn from a sequence together with its position.
type Pick[T any] struct {
	Item  T
	Index int
}

// SelectRandom draws one element uniformly from items. It reports false
// for a nil or empty slice. A single element is returned without drawing.
func SelectRandom[T any](items []T, src Source) (Pick[T], bool) {
	switch len(items) {
	case 0:
		return Pick[T]{}, false
	case 1:
		return Pick[T]{Item: items[0], Index: 0}, true
	}
	if src == nil {
		src = DefaultSource()
	}
	index := int(src.Float64() * float64(len(items)))
	// A source returning exactly 1.0 would overflow the range.
	if index >= len(items) {
		index = len(items) - 1
	}
	if index < 0 {
		index = 0
	}
	return Pick[T]{Item: items[index], Index: index}, true
}

// Palette is the fixed ordered set of segment colors.
var Palette = [12]string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4",
	"#FFEAA7", "#DDA0DD", "#98D8C8", "#F7DC6F",
	"#BB8FCE", "#85C1E9", "#F8C471", "#82E0AA",
}

// GenerateColors returns count colors drawn cyclically from Palette.
// A negative count is a programming error and panics.
func GenerateColors(count int) []string {
	if count < 0 {
		panic("wheel: negative color count")
	}
	colors := make([]string, count)
	for i := range colors {
		colors[i] = Palette[i%len(Palette)]
	}
	return colors
}
