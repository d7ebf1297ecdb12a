package wheel

import (
	"math/rand/v2"
	"testing"
)

// fixedSource replays pre-set draws; each list wraps around.
type fixedSource struct {
	floats []float64
	ints   []int
	fi, ii int
}

func (s *fixedSource) Float64() float64 {
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[s.fi%len(s.floats)]
	s.fi++
	return v
}

func (s *fixedSource) IntN(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[s.ii%len(s.ints)] % n
	s.ii++
	return v
}

// seededSource is a reproducible math/rand/v2 source.
type seededSource struct{ r *rand.Rand }

func newSeededSource(seed uint64) *seededSource {
	return &seededSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *seededSource) Float64() float64 { return s.r.Float64() }
func (s *seededSource) IntN(n int) int   { return s.r.IntN(n) }

func TestSelectRandom_Empty(t *testing.T) {
	if _, ok := SelectRandom([]string{}, DefaultSource()); ok {
		t.Error("empty slice should yield no pick")
	}
	if _, ok := SelectRandom[string](nil, DefaultSource()); ok {
		t.Error("nil slice should yield no pick")
	}
}

func TestSelectRandom_SingleItem(t *testing.T) {
	src := &fixedSource{floats: []float64{0.99}}
	for i := 0; i < 5; i++ {
		pick, ok := SelectRandom([]string{"only-item"}, src)
		if !ok {
			t.Fatal("single item should yield a pick")
		}
		if pick.Item != "only-item" || pick.Index != 0 {
			t.Errorf("pick %+v, want {only-item 0}", pick)
		}
	}
	if src.fi != 0 {
		t.Errorf("single item drew %d floats, want 0", src.fi)
	}
}

func TestSelectRandom_IndexMapping(t *testing.T) {
	items := []string{"item1", "item2", "item3"}
	cases := []struct {
		f    float64
		want int
	}{
		{0, 0},
		{0.333, 0},
		{0.334, 1},
		{0.5, 1},
		{0.999999, 2},
		{1.0, 2},
	}
	for _, tc := range cases {
		pick, ok := SelectRandom(items, &fixedSource{floats: []float64{tc.f}})
		if !ok {
			t.Fatalf("f=%v: no pick", tc.f)
		}
		if pick.Index != tc.want {
			t.Errorf("f=%v: index %d, want %d", tc.f, pick.Index, tc.want)
		}
		if pick.Item != items[pick.Index] {
			t.Errorf("f=%v: item %q does not match index %d", tc.f, pick.Item, pick.Index)
		}
	}
}

func TestSelectRandom_InRangeAndRoughlyUniform(t *testing.T) {
	items := []int{10, 20, 30, 40, 50}
	src := newSeededSource(42)
	counts := make([]int, len(items))
	const draws = 50000
	for i := 0; i < draws; i++ {
		pick, ok := SelectRandom(items, src)
		if !ok {
			t.Fatal("no pick")
		}
		if pick.Index < 0 || pick.Index >= len(items) {
			t.Fatalf("index %d out of range", pick.Index)
		}
		if pick.Item != items[pick.Index] {
			t.Fatalf("item %d does not match index %d", pick.Item, pick.Index)
		}
		counts[pick.Index]++
	}
	expected := draws / len(items)
	for i, c := range counts {
		if c < expected*9/10 || c > expected*11/10 {
			t.Errorf("index %d drawn %d times, want about %d", i, c, expected)
		}
	}
}

func TestGenerateColors(t *testing.T) {
	colors := GenerateColors(5)
	if len(colors) != 5 {
		t.Fatalf("len %d, want 5", len(colors))
	}
	for i, c := range colors {
		if c != Palette[i] {
			t.Errorf("color %d = %q, want %q", i, c, Palette[i])
		}
	}

	colors = GenerateColors(15)
	if len(colors) != 15 {
		t.Fatalf("len %d, want 15", len(colors))
	}
	if colors[0] != colors[12] {
		t.Errorf("colors[0] %q != colors[12] %q", colors[0], colors[12])
	}

	if got := GenerateColors(0); len(got) != 0 {
		t.Errorf("GenerateColors(0) len %d, want 0", len(got))
	}
}

func TestGenerateColors_ManyColors(t *testing.T) {
	colors := GenerateColors(1000)
	for i, c := range colors {
		if c != colors[i%12] {
			t.Fatalf("color %d = %q breaks period 12", i, c)
		}
	}
}

func TestGenerateColors_PaletteDistinct(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range Palette {
		if seen[c] {
			t.Errorf("duplicate palette color %s", c)
		}
		seen[c] = true
	}
}

func TestGenerateColors_NegativePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("negative count should panic")
		}
	}()
	GenerateColors(-1)
}
