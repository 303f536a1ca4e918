package models

import (
	"errors"
	"fmt"
	"strings"
)

// League identifies one of the supported sports leagues
type League string

const (
	NBA  League = "NBA"
	WNBA League = "WNBA"
	MLB  League = "MLB"
	NFL  League = "NFL"
	NHL  League = "NHL"
)

// ErrUnknownLeague is returned when a league string is not one of the supported leagues
var ErrUnknownLeague = errors.New("unknown league")

// AllLeagues returns every supported league in a fixed order
func AllLeagues() []League {
	return []League{NBA, WNBA, MLB, NFL, NHL}
}

// ParseLeague converts a case-insensitive league name into a League
func ParseLeague(s string) (League, error) {
	candidate := League(strings.ToUpper(strings.TrimSpace(s)))
	for _, l := range AllLeagues() {
		if l == candidate {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLeague, s)
}

// Valid reports whether l is a supported league
func (l League) Valid() bool {
	_, err := ParseLeague(string(l))
	return err == nil
}

// Key returns the lowercase form used in composite ids and storage keys
func (l League) Key() string {
	return strings.ToLower(string(l))
}

// LeagueStatus summarizes the active games of one league
type LeagueStatus struct {
	HasLive      bool `json:"has_live"`
	HasScheduled bool `json:"has_scheduled"`
}

// Mode is the polling cadence class assigned to a league
type Mode int

const (
	ModeIdle Mode = iota
	ModeScheduled
	ModeLive
)

func (m Mode) String() string {
	switch m {
	case ModeLive:
		return "live"
	case ModeScheduled:
		return "scheduled"
	default:
		return "idle"
	}
}

// MarshalText lets modes render as strings in JSON payloads
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText parses a mode name produced by MarshalText
func (m *Mode) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "live":
		*m = ModeLive
	case "scheduled":
		*m = ModeScheduled
	case "idle":
		*m = ModeIdle
	default:
		return fmt.Errorf("unknown mode %q", text)
	}
	return nil
}
