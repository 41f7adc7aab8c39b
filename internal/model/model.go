// Package model contains the match state entities and the roster entities used across layers.
// Behaviour is limited to construction, copying and counter lookup; the rules live in the engine.
package model

// TeamStats holds the ten per-team counters. Each counter equals the number of
// live ledger actions of that (team, event type).
type TeamStats struct {
	Point        int `json:"point"`
	TwoPoint     int `json:"two_point"`
	Goal         int `json:"goal"`
	Wide         int `json:"wide"`
	Short        int `json:"short"`
	Saved        int `json:"saved"`
	KickoutWon   int `json:"kickout_won"`
	KickoutLost  int `json:"kickout_lost"`
	TurnoverWon  int `json:"turnover_won"`
	TurnoverLost int `json:"turnover_lost"`
}

// Location is a pitch position: X across 0..100, Y along 0..120.
type Location struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Shot is a located shot record. Created only together with its ledger action.
type Shot struct {
	ID        string    `json:"id"`
	Team      Team      `json:"team"`
	Type      EventType `json:"type"`
	IsScore   bool      `json:"isScore"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Timestamp int64     `json:"timestamp"`
	Half      Half      `json:"half"`
}

// Kickout is a located kickout record.
type Kickout struct {
	ID        string    `json:"id"`
	Team      Team      `json:"team"`
	Type      EventType `json:"type"`
	Won       bool      `json:"won"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Timestamp int64     `json:"timestamp"`
	Half      Half      `json:"half"`
}

// Action is one ledger entry. ShotID / KickoutID reference the location record
// the same call created, if any.
type Action struct {
	ID        string    `json:"id"`
	Team      Team      `json:"team"`
	EventType EventType `json:"eventType"`
	Timestamp int64     `json:"timestamp"`
	ShotID    string    `json:"shotId,omitempty"`
	KickoutID string    `json:"kickoutId,omitempty"`
}

// HalfTimeSnapshot is the frozen copy of both stat blocks taken at half time.
type HalfTimeSnapshot struct {
	Home TeamStats `json:"home"`
	Away TeamStats `json:"away"`
}

// Match is the whole working value. It is persisted as one document.
type Match struct {
	ID                  string            `json:"id"`
	HomeTeam            string            `json:"homeTeam"`
	AwayTeam            string            `json:"awayTeam"`
	Date                string            `json:"date"`
	HomeStats           TeamStats         `json:"homeStats"`
	AwayStats           TeamStats         `json:"awayStats"`
	Shots               []Shot            `json:"shots"`
	Kickouts            []Kickout         `json:"kickouts"`
	Actions             []Action          `json:"actions"`
	CurrentHalf         Half              `json:"currentHalf"`
	HalfTimeSnapshot    *HalfTimeSnapshot `json:"halfTimeSnapshot"`
	IsFinished          bool              `json:"isFinished"`
	TrackShots          bool              `json:"trackShots"`
	TrackKickouts       bool              `json:"trackKickouts"`
	FirstHalfStartTime  *int64            `json:"firstHalfStartTime"`
	SecondHalfStartTime *int64            `json:"secondHalfStartTime"`
	MatchEndTime        *int64            `json:"matchEndTime"`
}

// EmptyStats returns a zeroed stat block.
func EmptyStats() TeamStats { return TeamStats{} }

// NewMatch builds a fresh match: zero counters, empty lists, first half, unfinished.
// startedAt (epoch ms) is recorded as the first-half start; pass 0 to leave it unset.
func NewMatch(id, homeTeam, awayTeam, date string, trackShots, trackKickouts bool, startedAt int64) Match {
	m := Match{
		ID:            id,
		HomeTeam:      homeTeam,
		AwayTeam:      awayTeam,
		Date:          date,
		HomeStats:     EmptyStats(),
		AwayStats:     EmptyStats(),
		Shots:         []Shot{},
		Kickouts:      []Kickout{},
		Actions:       []Action{},
		CurrentHalf:   FirstHalf,
		TrackShots:    trackShots,
		TrackKickouts: trackKickouts,
	}
	if startedAt > 0 {
		m.FirstHalfStartTime = &startedAt
	}
	return m
}

// Clone returns a deep copy; mutating the copy never touches the receiver.
func (m Match) Clone() Match {
	out := m
	out.Shots = make([]Shot, len(m.Shots))
	copy(out.Shots, m.Shots)
	out.Kickouts = make([]Kickout, len(m.Kickouts))
	copy(out.Kickouts, m.Kickouts)
	out.Actions = make([]Action, len(m.Actions))
	copy(out.Actions, m.Actions)
	if m.HalfTimeSnapshot != nil {
		snap := *m.HalfTimeSnapshot
		out.HalfTimeSnapshot = &snap
	}
	out.FirstHalfStartTime = cloneMillis(m.FirstHalfStartTime)
	out.SecondHalfStartTime = cloneMillis(m.SecondHalfStartTime)
	out.MatchEndTime = cloneMillis(m.MatchEndTime)
	return out
}

// StatsFor returns a pointer to the stat block of the given side, or nil for an unknown team.
func (m *Match) StatsFor(t Team) *TeamStats {
	switch t {
	case Home:
		return &m.HomeStats
	case Away:
		return &m.AwayStats
	default:
		return nil
	}
}

// TeamName resolves a side to the configured team name.
func (m Match) TeamName(t Team) string {
	if t == Away {
		return m.AwayTeam
	}
	return m.HomeTeam
}

// LastAction peeks at the ledger tail.
func (m Match) LastAction() (Action, bool) {
	if len(m.Actions) == 0 {
		return Action{}, false
	}
	return m.Actions[len(m.Actions)-1], true
}

func cloneMillis(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
