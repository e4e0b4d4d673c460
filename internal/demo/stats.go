package demo

import "rosterly.org/internal/roster"

// Tally accumulates the headline numbers for a demo run across months.
type Tally struct {
	Months     int
	Slots      int
	Assigned   int
	Unassigned int
	Fallbacks  int
}

func (t *Tally) Add(grid *roster.Grid) {
	t.Months++
	for _, date := range grid.Dates {
		for _, memberID := range grid.Days[date] {
			t.Slots++
			if memberID == roster.Unassigned {
				t.Unassigned++
			} else {
				t.Assigned++
			}
		}
	}
	t.Fallbacks += grid.Fallbacks
}

// FillRate reports the assigned share of all slots, 0 when nothing ran.
func (t Tally) FillRate() float64 {
	if t.Slots == 0 {
		return 0
	}
	return float64(t.Assigned) / float64(t.Slots)
}
