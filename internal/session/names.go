package session

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	DefaultTitle    = "Who Pays?"
	MaxNameLen      = 20
	MaxTitleLen     = 30
	MinParticipants = 2
	maxNameWords    = 3
)

var (
	ErrEmptyName          = errors.New("please enter a participant name")
	ErrMultipleNames      = errors.New("please enter only one participant name at a time")
	ErrTooFewParticipants = errors.New("please add at least 2 participants")
	ErrNotInSetup         = errors.New("participants can only change during setup")
	ErrUnknownPreset      = errors.New("unknown quick-add list")
	ErrDuplicateName      = errors.New("this participant already exists")
)

// Presets are the quick-add participant lists offered during setup.
var Presets = map[string][]string{
	"sample": {"Alice", "Bob", "Charlie", "Diana"},
	"food":   {"Pizza", "Burger", "Sushi", "Tacos"},
}

// NormalizeName trims a single participant name and caps its length.
// Input that looks like a list of names is rejected.
func NormalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", ErrEmptyName
	}
	if strings.ContainsAny(name, ",;|") || len(strings.Fields(name)) > maxNameWords {
		return "", ErrMultipleNames
	}
	return truncateRunes(name, MaxNameLen), nil
}

// NormalizeTitle trims and caps a wheel title, falling back to DefaultTitle.
func NormalizeTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if title == "" {
		return DefaultTitle
	}
	return truncateRunes(title, MaxTitleLen)
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:max]))
}
