package stats

import (
	"fmt"
	"sort"

	"github.com/maxviazov/sideline-stats-service/internal/model"
)

// Filter narrows the timeline to one category of action.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterShots     Filter = "shots"
	FilterKickouts  Filter = "kickouts"
	FilterTurnovers Filter = "turnovers"
)

// ParseFilter accepts the four filter names; empty means all.
func ParseFilter(s string) (Filter, error) {
	switch Filter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterShots, FilterKickouts, FilterTurnovers:
		return Filter(s), nil
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

func (f Filter) match(e model.EventType) bool {
	switch f {
	case FilterShots:
		return e.IsShot()
	case FilterKickouts:
		return e.IsKickout()
	case FilterTurnovers:
		return e.IsTurnover()
	default:
		return true
	}
}

// Milestone labels.
const (
	MilestoneMatchStart      = "Match Start"
	MilestoneHalfTime        = "Half Time"
	MilestoneSecondHalfStart = "Second Half Start"
	MilestoneFullTime        = "Full Time"
)

// TimelineEntry is either a milestone or a recorded action.
type TimelineEntry struct {
	Timestamp int64           `json:"timestamp"`
	Clock     string          `json:"clock"`
	Milestone string          `json:"milestone,omitempty"`
	Team      model.Team      `json:"team,omitempty"`
	TeamName  string          `json:"teamName,omitempty"`
	EventType model.EventType `json:"eventType,omitempty"`
	ActionID  string          `json:"actionId,omitempty"`
}

// Timeline merges the half milestones with the filtered ledger, ordered by time.
// Milestones always appear; the filter applies to actions only.
func Timeline(m model.Match, f Filter) []TimelineEntry {
	out := make([]TimelineEntry, 0, len(m.Actions)+4)
	if m.FirstHalfStartTime != nil {
		out = append(out, milestone(m, *m.FirstHalfStartTime, MilestoneMatchStart))
	}
	if m.SecondHalfStartTime != nil {
		second := *m.SecondHalfStartTime
		out = append(out,
			milestone(m, second-1, MilestoneHalfTime),
			milestone(m, second, MilestoneSecondHalfStart),
		)
	}
	if m.MatchEndTime != nil {
		out = append(out, milestone(m, *m.MatchEndTime, MilestoneFullTime))
	}
	for _, a := range m.Actions {
		if !f.match(a.EventType) {
			continue
		}
		out = append(out, TimelineEntry{
			Timestamp: a.Timestamp,
			Clock:     clockFor(m, a.Timestamp),
			Team:      a.Team,
			TeamName:  m.TeamName(a.Team),
			EventType: a.EventType,
			ActionID:  a.ID,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

func milestone(m model.Match, ts int64, label string) TimelineEntry {
	return TimelineEntry{Timestamp: ts, Clock: clockFor(m, ts), Milestone: label}
}

// clockFor measures from the start of the half the timestamp falls in.
func clockFor(m model.Match, ts int64) string {
	if m.FirstHalfStartTime == nil {
		return "--:--"
	}
	if m.SecondHalfStartTime != nil && ts >= *m.SecondHalfStartTime {
		return FormatMatchTime(ts, *m.SecondHalfStartTime)
	}
	return FormatMatchTime(ts, *m.FirstHalfStartTime)
}

// FormatMatchTime renders the time elapsed since start as mm:ss. Times before start read 00:00.
func FormatMatchTime(ts, start int64) string {
	elapsed := (ts - start) / 1000
	if elapsed < 0 {
		elapsed = 0
	}
	return fmt.Sprintf("%02d:%02d", elapsed/60, elapsed%60)
}
