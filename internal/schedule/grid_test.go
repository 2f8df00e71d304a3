package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGrid(t *testing.T) {
	g := DefaultGrid()

	assert.Equal(t, []int{16, 17, 18, 19, 20}, g.Hours())
	assert.Equal(t, []int{1, 2, 3, 4}, g.Courts())
	assert.Equal(t, 20, g.Capacity())

	assert.True(t, g.Contains(16, 1))
	assert.True(t, g.Contains(20, 4))
	assert.False(t, g.Contains(15, 1))
	assert.False(t, g.Contains(21, 1))
	assert.False(t, g.Contains(18, 0))
	assert.False(t, g.Contains(18, 5))
}

func TestGridIsImmutable(t *testing.T) {
	hours := []int{9, 10}
	g, err := NewGrid(hours, 2)
	require.NoError(t, err)

	hours[0] = 3
	got := g.Hours()
	got[1] = 99

	assert.Equal(t, []int{9, 10}, g.Hours())
}

func TestNewGridValidation(t *testing.T) {
	tests := []struct {
		name   string
		hours  []int
		courts int
	}{
		{"NoHours", nil, 4},
		{"NoCourts", []int{16}, 0},
		{"HourTooLarge", []int{16, 24}, 4},
		{"NegativeHour", []int{-1, 16}, 4},
		{"Unordered", []int{17, 16}, 4},
		{"Duplicate", []int{16, 16}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGrid(tt.hours, tt.courts)
			assert.Error(t, err)
		})
	}
}
