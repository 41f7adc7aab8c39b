package stats

import "github.com/maxviazov/sideline-stats-service/internal/model"

// Zone grid dimensions. Coordinates are percentages of pitch width and length.
const (
	ZoneRows = 8
	ZoneCols = 6
)

// Zone aggregates the shots taken from one grid cell.
type Zone struct {
	Total    int `json:"total"`
	Scores   int `json:"scores"`
	Misses   int `json:"misses"`
	Accuracy int `json:"accuracy"`
}

// ShotZones buckets shots into the ZoneRows x ZoneCols grid. Out-of-range
// coordinates are clamped to the edge cells.
func ShotZones(shots []model.Shot) [][]Zone {
	grid := make([][]Zone, ZoneRows)
	for i := range grid {
		grid[i] = make([]Zone, ZoneCols)
	}
	for _, s := range shots {
		z := &grid[cell(s.Y, ZoneRows)][cell(s.X, ZoneCols)]
		z.Total++
		if s.IsScore {
			z.Scores++
		} else {
			z.Misses++
		}
	}
	for r := range grid {
		for c := range grid[r] {
			grid[r][c].Accuracy = percent(grid[r][c].Scores, grid[r][c].Total)
		}
	}
	return grid
}

// cell buckets a pitch percentage into n bands. Rows scale Y against 100 like
// columns do, so Y from 100 up to the 120 touchline clamps into the last row.
func cell(v float64, n int) int {
	i := int(v / 100 * float64(n))
	if v < 0 || i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}
