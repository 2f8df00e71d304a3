package schedule

import (
	"errors"
	"fmt"
)

var (
	DefaultHours  = []int{16, 17, 18, 19, 20}
	DefaultCourts = 4
)

// Grid is the immutable capacity shape of a reservation day:
// a fixed ordered list of one-hour slots times a fixed number of courts.
type Grid struct {
	hours  []int
	courts int
	valid  map[int]struct{}
}

// DefaultGrid returns the 16h-20h x 4 courts grid the web client expects.
func DefaultGrid() *Grid {
	g, _ := NewGrid(DefaultHours, DefaultCourts)
	return g
}

// NewGrid validates the hour list (strictly ascending, within 0..23) and
// court count (>= 1).
func NewGrid(hours []int, courts int) (*Grid, error) {
	if len(hours) == 0 {
		return nil, errors.New("grid needs at least one hour")
	}
	if courts < 1 {
		return nil, fmt.Errorf("grid needs at least one court, got %d", courts)
	}

	valid := make(map[int]struct{}, len(hours))
	for i, h := range hours {
		if h < 0 || h > 23 {
			return nil, fmt.Errorf("hour %d out of range 0..23", h)
		}
		if i > 0 && h <= hours[i-1] {
			return nil, fmt.Errorf("hours must be strictly ascending, got %d after %d", h, hours[i-1])
		}
		valid[h] = struct{}{}
	}

	return &Grid{
		hours:  append([]int(nil), hours...),
		courts: courts,
		valid:  valid,
	}, nil
}

// Hours returns a copy of the ordered hour list.
func (g *Grid) Hours() []int {
	return append([]int(nil), g.hours...)
}

// Courts returns the ordered court numbers 1..N.
func (g *Grid) Courts() []int {
	out := make([]int, g.courts)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func (g *Grid) CourtCount() int {
	return g.courts
}

func (g *Grid) ValidHour(h int) bool {
	_, ok := g.valid[h]
	return ok
}

func (g *Grid) ValidCourt(c int) bool {
	return c >= 1 && c <= g.courts
}

// Contains reports whether (hour, court) is an addressable slot.
func (g *Grid) Contains(hour, court int) bool {
	return g.ValidHour(hour) && g.ValidCourt(court)
}

// Capacity is the number of slots in one reservation day.
func (g *Grid) Capacity() int {
	return len(g.hours) * g.courts
}
