package stats

import (
	"sort"

	"github.com/maxviazov/sideline-stats-service/internal/model"
)

// TeamMatch is one finished match seen from a team's side.
type TeamMatch struct {
	MatchID          string          `json:"matchId"`
	Date             string          `json:"date"`
	Opponent         string          `json:"opponent"`
	IsHome           bool            `json:"isHome"`
	Score            string          `json:"score"`
	OpponentScore    string          `json:"opponentScore"`
	Won              bool            `json:"won"`
	Drew             bool            `json:"drew"`
	ShootingAccuracy int             `json:"shootingAccuracy"`
	KickoutWinPct    int             `json:"kickoutWinPct"`
	Stats            model.TeamStats `json:"stats"`
}

// TeamSummary aggregates a team's record across the history.
type TeamSummary struct {
	Team                string      `json:"team"`
	Matches             []TeamMatch `json:"matches"`
	Wins                int         `json:"wins"`
	Draws               int         `json:"draws"`
	Losses              int         `json:"losses"`
	WinPct              int         `json:"winPct"`
	AvgShootingAccuracy int         `json:"avgShootingAccuracy"`
	AvgKickoutWinPct    int         `json:"avgKickoutWinPct"`
	AvgTurnoversWon     float64     `json:"avgTurnoversWon"`
	AvgTurnoversLost    float64     `json:"avgTurnoversLost"`
}

// Summarize builds the summary for the team named exactly team. Matches are newest first;
// a draw counts as half a win in WinPct.
func Summarize(team string, history []model.Match) TeamSummary {
	out := TeamSummary{Team: team, Matches: []TeamMatch{}}
	var accSum, koSum, towSum, tolSum int
	for _, m := range history {
		side, ok := sideOf(m, team)
		if !ok {
			continue
		}
		own, opp := m.HomeStats, m.AwayStats
		opponent := m.AwayTeam
		if side == model.Away {
			own, opp = opp, own
			opponent = m.HomeTeam
		}
		tm := TeamMatch{
			MatchID:          m.ID,
			Date:             m.Date,
			Opponent:         opponent,
			IsHome:           side == model.Home,
			Score:            Score(own),
			OpponentScore:    Score(opp),
			Won:              TotalScore(own) > TotalScore(opp),
			Drew:             TotalScore(own) == TotalScore(opp),
			ShootingAccuracy: ShootingAccuracy(own),
			KickoutWinPct:    KickoutWinPct(own),
			Stats:            own,
		}
		switch {
		case tm.Won:
			out.Wins++
		case tm.Drew:
			out.Draws++
		default:
			out.Losses++
		}
		accSum += tm.ShootingAccuracy
		koSum += tm.KickoutWinPct
		towSum += own.TurnoverWon
		tolSum += own.TurnoverLost
		out.Matches = append(out.Matches, tm)
	}
	sort.SliceStable(out.Matches, func(i, j int) bool { return out.Matches[i].Date > out.Matches[j].Date })

	n := len(out.Matches)
	if n == 0 {
		return out
	}
	out.WinPct = roundDiv((2*out.Wins+out.Draws)*50, n)
	out.AvgShootingAccuracy = roundDiv(accSum, n)
	out.AvgKickoutWinPct = roundDiv(koSum, n)
	out.AvgTurnoversWon = float64(roundDiv(towSum*10, n)) / 10
	out.AvgTurnoversLost = float64(roundDiv(tolSum*10, n)) / 10
	return out
}

// LocatedShot is a shot tagged with the match it came from.
type LocatedShot struct {
	model.Shot
	MatchID   string `json:"matchId"`
	MatchDate string `json:"matchDate"`
	Opponent  string `json:"opponent"`
}

// DateRange bounds match dates inclusively; empty ends are open. Dates compare as YYYY-MM-DD.
type DateRange struct {
	From string
	To   string
}

func (r DateRange) contains(date string) bool {
	d := dayOf(date)
	if r.From != "" && d < dayOf(r.From) {
		return false
	}
	if r.To != "" && d > dayOf(r.To) {
		return false
	}
	return true
}

// ShotsForTeam collects every located shot the named team took across the history.
func ShotsForTeam(team string, history []model.Match, r DateRange) []LocatedShot {
	out := []LocatedShot{}
	for _, m := range history {
		side, ok := sideOf(m, team)
		if !ok || !r.contains(m.Date) {
			continue
		}
		opponent := m.TeamName(model.Away)
		if side == model.Away {
			opponent = m.TeamName(model.Home)
		}
		for _, s := range m.Shots {
			if s.Team == side {
				out = append(out, LocatedShot{Shot: s, MatchID: m.ID, MatchDate: m.Date, Opponent: opponent})
			}
		}
	}
	return out
}

// Shots strips the match tags.
func Shots(ls []LocatedShot) []model.Shot {
	out := make([]model.Shot, len(ls))
	for i := range ls {
		out[i] = ls[i].Shot
	}
	return out
}

func sideOf(m model.Match, team string) (model.Team, bool) {
	switch team {
	case m.HomeTeam:
		return model.Home, true
	case m.AwayTeam:
		return model.Away, true
	}
	return "", false
}

func dayOf(date string) string {
	if len(date) > 10 {
		return date[:10]
	}
	return date
}
