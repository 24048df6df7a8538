package gameweek

import "time"

// Gameweek is one scheduled round of fixtures, the league's unit of
// scoring time. At most one gameweek is current and one is next within a
// snapshot; the normalizer enforces this.
type Gameweek struct {
	ID         int
	Name       string
	IsCurrent  bool
	IsNext     bool
	IsPrevious bool
	Finished   bool
	Deadline   time.Time
}
