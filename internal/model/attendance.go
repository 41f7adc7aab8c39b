package model

// Player is a squad member. Inactive players are kept for their attendance history.
type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Number   string `json:"number,omitempty"`
	IsActive bool   `json:"isActive"`
}

// Squad is a named roster.
type Squad struct {
	ID        string   `json:"id"`
	TeamName  string   `json:"teamName"`
	Players   []Player `json:"players"`
	CreatedAt int64    `json:"createdAt"`
	UpdatedAt int64    `json:"updatedAt"`
}

// PlayerAttendance is one roll-call line.
type PlayerAttendance struct {
	PlayerID string `json:"playerId"`
	Present  bool   `json:"present"`
	Injured  bool   `json:"injured"`
}

// AttendanceEvent is a training session or match roll call for a squad.
type AttendanceEvent struct {
	ID         string             `json:"id"`
	SquadID    string             `json:"squadId"`
	Name       string             `json:"name"`
	Date       string             `json:"date"`
	Attendance []PlayerAttendance `json:"attendance"`
	CreatedAt  int64              `json:"createdAt"`
}

// NewSquad builds an empty squad.
func NewSquad(id, teamName string, now int64) Squad {
	return Squad{ID: id, TeamName: teamName, Players: []Player{}, CreatedAt: now, UpdatedAt: now}
}

// NewAttendanceEvent builds a roll call listing every active player as absent.
func NewAttendanceEvent(id, squadID, name, date string, players []Player, now int64) AttendanceEvent {
	roll := make([]PlayerAttendance, 0, len(players))
	for _, p := range players {
		if p.IsActive {
			roll = append(roll, PlayerAttendance{PlayerID: p.ID})
		}
	}
	return AttendanceEvent{ID: id, SquadID: squadID, Name: name, Date: date, Attendance: roll, CreatedAt: now}
}
