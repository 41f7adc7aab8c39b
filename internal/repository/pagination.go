package repository

// Page represents a simple limit/offset window for listing operations.
// I keep it intentionally small; advanced filtering belongs to higher layers.
type Page struct {
	Limit  int
	Offset int
}

// PageResult carries a slice of items and the total count matching the query.
// I return the total so clients can compute pagination without an extra round trip.
type PageResult[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// DefaultPageLimit applies when a caller passes no limit.
const DefaultPageLimit = 50

// Sanitize clamps a page to a usable window.
func (p Page) Sanitize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
