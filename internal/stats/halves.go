package stats

import (
	"fmt"

	"github.com/maxviazov/sideline-stats-service/internal/model"
)

// View selects which part of the match a breakdown covers.
type View string

const (
	ViewOverall View = "overall"
	ViewFirst   View = "first"
	ViewSecond  View = "second"
)

// ParseView accepts "", "overall", "first" and "second". Empty means overall.
func ParseView(s string) (View, error) {
	switch View(s) {
	case "", ViewOverall:
		return ViewOverall, nil
	case ViewFirst, ViewSecond:
		return View(s), nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// SecondHalf subtracts the half-time snapshot from the running totals field by field.
// A counter that would go negative reads as 0; that only happens if the snapshot was tampered with.
func SecondHalf(total, firstHalf model.TeamStats) model.TeamStats {
	var out model.TeamStats
	for _, e := range model.AllEventTypes {
		p, _ := out.Counter(e)
		if d := total.Get(e) - firstHalf.Get(e); d > 0 {
			*p = d
		}
	}
	return out
}

// TeamLine is one side of a breakdown with its derived figures.
type TeamLine struct {
	Name             string          `json:"name"`
	Stats            model.TeamStats `json:"stats"`
	Score            string          `json:"score"`
	TotalScore       int             `json:"totalScore"`
	TotalShots       int             `json:"totalShots"`
	ShootingAccuracy int             `json:"shootingAccuracy"`
	KickoutWinPct    int             `json:"kickoutWinPct"`
	KickoutLossPct   int             `json:"kickoutLossPct"`
}

// MatchBreakdown is the stats table shown for one view of a match.
type MatchBreakdown struct {
	View View     `json:"view"`
	Home TeamLine `json:"home"`
	Away TeamLine `json:"away"`
}

// Breakdown computes the stats for the requested view. Without a snapshot the
// first half is empty and the second half equals the totals.
func Breakdown(m model.Match, v View) MatchBreakdown {
	home, away := halves(m, v)
	return MatchBreakdown{
		View: v,
		Home: line(m.HomeTeam, home),
		Away: line(m.AwayTeam, away),
	}
}

func halves(m model.Match, v View) (model.TeamStats, model.TeamStats) {
	switch v {
	case ViewFirst:
		if m.HalfTimeSnapshot == nil {
			return model.EmptyStats(), model.EmptyStats()
		}
		return m.HalfTimeSnapshot.Home, m.HalfTimeSnapshot.Away
	case ViewSecond:
		if m.HalfTimeSnapshot == nil {
			return m.HomeStats, m.AwayStats
		}
		return SecondHalf(m.HomeStats, m.HalfTimeSnapshot.Home), SecondHalf(m.AwayStats, m.HalfTimeSnapshot.Away)
	default:
		return m.HomeStats, m.AwayStats
	}
}

func line(name string, s model.TeamStats) TeamLine {
	return TeamLine{
		Name:             name,
		Stats:            s,
		Score:            Score(s),
		TotalScore:       TotalScore(s),
		TotalShots:       TotalShots(s),
		ShootingAccuracy: ShootingAccuracy(s),
		KickoutWinPct:    KickoutWinPct(s),
		KickoutLossPct:   KickoutLossPct(s),
	}
}

// Outcome is the match result by total score.
type Outcome string

const (
	OutcomeHomeWin Outcome = "home_win"
	OutcomeAwayWin Outcome = "away_win"
	OutcomeDraw    Outcome = "draw"
)

// Result compares total scores.
func Result(m model.Match) Outcome {
	h, a := TotalScore(m.HomeStats), TotalScore(m.AwayStats)
	switch {
	case h > a:
		return OutcomeHomeWin
	case a > h:
		return OutcomeAwayWin
	default:
		return OutcomeDraw
	}
}
