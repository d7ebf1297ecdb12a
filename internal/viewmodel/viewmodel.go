package viewmodel

// HomePage holds data for the landing page with the create-wheel form.
type HomePage struct {
	Title        string
	DefaultTitle string
	MaxTitleLen  int
}

// SetupPage holds data for the participant editor.
type SetupPage struct {
	Title           string
	WheelID         string
	Participants    []ParticipantItem
	Presets         []PresetOption
	CanStart        bool
	MinParticipants int
	MaxNameLen      int
	MaxTitleLen     int
	// ConfirmName is a duplicate name waiting for "Add Anyway".
	ConfirmName     string
	Error           string
}

// ParticipantItem is one row of the setup list.
type ParticipantItem struct {
	ID   string
	Name string
}

// PresetOption is a quick-add button.
type PresetOption struct {
	Key   string
	Label string
}

// SpinnerPage holds data for the wheel page.
type SpinnerPage struct {
	Title    string
	WheelID  string
	ShareURL string
	Wheel    WheelView
	Controls ControlsFragment
	Result   ResultFragment
	History  HistoryFragment
}

// ControlsFragment holds data for the spin button and status line.
type ControlsFragment struct {
	WheelID  string
	Count    int
	Spinning bool
}

// ResultFragment holds data for the winner dialog.
type ResultFragment struct {
	WheelID string
	Open    bool
	Winner  string
}

// HistoryFragment holds the winners announced so far, newest first.
type HistoryFragment struct {
	Entries []HistoryEntry
}

// HistoryEntry is one announced winner.
type HistoryEntry struct {
	Seq  int
	Name string
	At   string
}
