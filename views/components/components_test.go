package components

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"whopays/internal/viewmodel"
	"whopays/internal/wheel"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var sb strings.Builder
	if err := c.Render(context.Background(), &sb); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return sb.String()
}

func TestControlsFragment(t *testing.T) {
	idle := renderString(t, ControlsFragment(viewmodel.ControlsFragment{WheelID: "w1", Count: 1}))
	if !strings.Contains(idle, `action="/wheels/w1/spin"`) || !strings.Contains(idle, "SPIN!") {
		t.Errorf("idle controls %q", idle)
	}
	if strings.Contains(idle, "disabled") {
		t.Error("spin button should be enabled with participants")
	}
	if !strings.Contains(idle, "1 participant<") {
		t.Errorf("singular count missing from %q", idle)
	}

	spinning := renderString(t, ControlsFragment(viewmodel.ControlsFragment{WheelID: "w1", Count: 3, Spinning: true}))
	for _, want := range []string{"SPINNING...", " disabled", "3 participants", "Finding the winner..."} {
		if !strings.Contains(spinning, want) {
			t.Errorf("spinning controls missing %q", want)
		}
	}
}

func TestResultFragment(t *testing.T) {
	if got := renderString(t, ResultFragment(viewmodel.ResultFragment{WheelID: "w1"})); got != "" {
		t.Errorf("closed result rendered %q", got)
	}
	got := renderString(t, ResultFragment(viewmodel.ResultFragment{WheelID: "w1", Open: true, Winner: "<i>Bo</i>"}))
	if !strings.Contains(got, "&lt;i&gt;Bo&lt;/i&gt;") {
		t.Errorf("winner should be escaped in %q", got)
	}
	for _, action := range []string{"/wheels/w1/again", "/wheels/w1/back", "/wheels/w1/done"} {
		if !strings.Contains(got, `action="`+action+`"`) {
			t.Errorf("result missing form for %s", action)
		}
	}
}

func TestHistoryFragment(t *testing.T) {
	if got := renderString(t, HistoryFragment(viewmodel.HistoryFragment{})); got != "" {
		t.Errorf("empty history rendered %q", got)
	}
	got := renderString(t, HistoryFragment(viewmodel.HistoryFragment{Entries: []viewmodel.HistoryEntry{
		{Seq: 2, Name: "Bo", At: "12:01"},
		{Seq: 1, Name: "Ann", At: "12:00"},
	}}))
	if strings.Index(got, "Bo") > strings.Index(got, "Ann") {
		t.Error("entries should keep the given order")
	}
	if !strings.Contains(got, `<li value="2">`) {
		t.Errorf("history %q", got)
	}
}

func TestWheel(t *testing.T) {
	empty := renderString(t, Wheel(viewmodel.BuildWheel(nil, 0)))
	if !strings.Contains(empty, `<circle fill="#eeeeee"`) {
		t.Errorf("empty wheel should draw a placeholder disc: %q", empty)
	}

	v := viewmodel.BuildWheel([]wheel.Participant{{ID: "a", Name: "Ann"}, {ID: "b", Name: "Bo"}}, 90)
	got := renderString(t, Wheel(v))
	if strings.Count(got, "<path ") != 2 || strings.Count(got, `class="wheel-label"`) != 2 {
		t.Errorf("want two slices and labels, got %q", got)
	}
	if !strings.Contains(got, `data-rotation="90.00"`) || !strings.Contains(got, `transform="rotate(90.00)"`) {
		t.Errorf("rotor should carry the rotation: %q", got)
	}
}

func TestHeader(t *testing.T) {
	got := renderString(t, Header("Lunch", "", "/wheels/w1/reset"))
	if strings.Contains(got, "Back") {
		t.Error("empty back URL should hide the back button")
	}
	if !strings.Contains(got, "New Game") || !strings.Contains(got, "Lunch") {
		t.Errorf("header %q", got)
	}
}
