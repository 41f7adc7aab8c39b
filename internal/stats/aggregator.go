// Package stats derives scores, percentages and display views from match values.
// Every function is pure and total: no errors, no division by zero, no negative results.
package stats

import (
	"fmt"

	"github.com/maxviazov/sideline-stats-service/internal/model"
)

// Score formats goals and points separately, e.g. "2-05". Two-pointers count as two points.
func Score(s model.TeamStats) string {
	return fmt.Sprintf("%d-%02d", s.Goal, s.Point+2*s.TwoPoint)
}

// TotalScore is the combined points value: goal 3, two-pointer 2, point 1.
func TotalScore(s model.TeamStats) int {
	return s.Goal*3 + s.TwoPoint*2 + s.Point
}

// TotalShots counts all six shot outcomes.
func TotalShots(s model.TeamStats) int {
	return s.Point + s.TwoPoint + s.Goal + s.Wide + s.Short + s.Saved
}

// Scores counts scoring shots.
func Scores(s model.TeamStats) int {
	return s.Point + s.TwoPoint + s.Goal
}

// ShootingAccuracy is the share of shots that scored, as a whole percentage.
func ShootingAccuracy(s model.TeamStats) int {
	return percent(Scores(s), TotalShots(s))
}

// KickoutWinPct is the share of kickouts won.
func KickoutWinPct(s model.TeamStats) int {
	return percent(s.KickoutWon, s.KickoutWon+s.KickoutLost)
}

// KickoutLossPct is the share of kickouts lost.
func KickoutLossPct(s model.TeamStats) int {
	return percent(s.KickoutLost, s.KickoutWon+s.KickoutLost)
}

// percent returns round-half-up(100*num/den), 0 for an empty denominator.
func percent(num, den int) int {
	return roundDiv(100*num, den)
}

// roundDiv is num/den rounded half up, for non-negative operands.
func roundDiv(num, den int) int {
	if den <= 0 || num <= 0 {
		return 0
	}
	return (2*num + den) / (2 * den)
}
