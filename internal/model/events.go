package model

// Team identifies a side of the match.
type Team string

const (
	Home Team = "home"
	Away Team = "away"
)

// Valid reports whether t is one of the two sides.
func (t Team) Valid() bool { return t == Home || t == Away }

// Half is the period of play, 1 or 2.
type Half int

const (
	FirstHalf  Half = 1
	SecondHalf Half = 2
)

// EventType tags every recordable event; it doubles as the counter name.
type EventType string

// Shot outcomes.
const (
	EventPoint    EventType = "point"
	EventTwoPoint EventType = "two_point"
	EventGoal     EventType = "goal"
	EventWide     EventType = "wide"
	EventShort    EventType = "short"
	EventSaved    EventType = "saved"
)

// Kickout outcomes.
const (
	EventKickoutWon  EventType = "kickout_won"
	EventKickoutLost EventType = "kickout_lost"
)

// Turnovers.
const (
	EventTurnoverWon  EventType = "turnover_won"
	EventTurnoverLost EventType = "turnover_lost"
)

// AllEventTypes lists every tag in counter order.
var AllEventTypes = []EventType{
	EventPoint, EventTwoPoint, EventGoal, EventWide, EventShort, EventSaved,
	EventKickoutWon, EventKickoutLost, EventTurnoverWon, EventTurnoverLost,
}

// counters maps each event tag to its field in TeamStats.
var counters = map[EventType]func(*TeamStats) *int{
	EventPoint:        func(s *TeamStats) *int { return &s.Point },
	EventTwoPoint:     func(s *TeamStats) *int { return &s.TwoPoint },
	EventGoal:         func(s *TeamStats) *int { return &s.Goal },
	EventWide:         func(s *TeamStats) *int { return &s.Wide },
	EventShort:        func(s *TeamStats) *int { return &s.Short },
	EventSaved:        func(s *TeamStats) *int { return &s.Saved },
	EventKickoutWon:   func(s *TeamStats) *int { return &s.KickoutWon },
	EventKickoutLost:  func(s *TeamStats) *int { return &s.KickoutLost },
	EventTurnoverWon:  func(s *TeamStats) *int { return &s.TurnoverWon },
	EventTurnoverLost: func(s *TeamStats) *int { return &s.TurnoverLost },
}

// Valid reports whether e is a known event tag.
func (e EventType) Valid() bool {
	_, ok := counters[e]
	return ok
}

// IsShot reports whether e is one of the six shot outcomes.
func (e EventType) IsShot() bool {
	switch e {
	case EventPoint, EventTwoPoint, EventGoal, EventWide, EventShort, EventSaved:
		return true
	}
	return false
}

// IsScore reports whether a shot outcome puts points on the board.
func (e EventType) IsScore() bool {
	return e == EventPoint || e == EventTwoPoint || e == EventGoal
}

// IsKickout reports whether e is a kickout outcome.
func (e EventType) IsKickout() bool {
	return e == EventKickoutWon || e == EventKickoutLost
}

// IsTurnover reports whether e is a turnover.
func (e EventType) IsTurnover() bool {
	return e == EventTurnoverWon || e == EventTurnoverLost
}

// Counter returns a pointer to the counter for e, or false for an unknown tag.
func (s *TeamStats) Counter(e EventType) (*int, bool) {
	f, ok := counters[e]
	if !ok {
		return nil, false
	}
	return f(s), true
}

// Get reads the counter for e; unknown tags read as 0.
func (s TeamStats) Get(e EventType) int {
	p, ok := s.Counter(e)
	if !ok {
		return 0
	}
	return *p
}

// Total sums all ten counters.
func (s TeamStats) Total() int {
	n := 0
	for _, e := range AllEventTypes {
		n += s.Get(e)
	}
	return n
}
