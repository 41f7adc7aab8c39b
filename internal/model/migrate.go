package model

import (
	"encoding/json"
	"fmt"
)

// storedMatch shadows the fields whose zero value is not the migration default,
// so an absent key can be told apart from an explicit false / 0.
type storedMatch struct {
	Match
	CurrentHalf   *Half `json:"currentHalf"`
	TrackShots    *bool `json:"trackShots"`
	TrackKickouts *bool `json:"trackKickouts"`
}

// DecodeMatch reads a persisted match document and fills in fields older
// versions did not write. A document without an id is treated as absent (nil, nil).
func DecodeMatch(data []byte) (*Match, error) {
	var raw storedMatch
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode match: %w", err)
	}
	if raw.ID == "" {
		return nil, nil
	}
	m := raw.Match
	m.CurrentHalf = FirstHalf
	if raw.CurrentHalf != nil {
		m.CurrentHalf = *raw.CurrentHalf
	}
	m.TrackShots = true
	if raw.TrackShots != nil {
		m.TrackShots = *raw.TrackShots
	}
	m.TrackKickouts = true
	if raw.TrackKickouts != nil {
		m.TrackKickouts = *raw.TrackKickouts
	}
	Normalize(&m)
	return &m, nil
}

// Normalize replaces nil collections with empty ones so the value encodes as [] and
// compares equal to a freshly built match.
func Normalize(m *Match) {
	if m.Shots == nil {
		m.Shots = []Shot{}
	}
	if m.Kickouts == nil {
		m.Kickouts = []Kickout{}
	}
	if m.Actions == nil {
		m.Actions = []Action{}
	}
}
