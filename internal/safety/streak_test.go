package safety

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(offset int, hour int) time.Time {
	base := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset).Add(time.Duration(hour) * time.Hour)
}

func TestComputeStreak(t *testing.T) {
	asOf := day(0, 12)

	tests := []struct {
		name    string
		history []time.Time
		want    int
	}{
		{
			name:    "empty history",
			history: nil,
			want:    0,
		},
		{
			name:    "single checkin today",
			history: []time.Time{day(0, 9)},
			want:    1,
		},
		{
			name:    "single checkin yesterday",
			history: []time.Time{day(-1, 22)},
			want:    1,
		},
		{
			name:    "two same day plus previous day counts two not three",
			history: []time.Time{day(0, 11), day(0, 8), day(-1, 20)},
			want:    2,
		},
		{
			name:    "five consecutive days",
			history: []time.Time{day(0, 9), day(-1, 9), day(-2, 9), day(-3, 9), day(-4, 9)},
			want:    5,
		},
		{
			name:    "two day gap breaks streak",
			history: []time.Time{day(0, 9), day(-1, 9), day(-3, 9), day(-4, 9)},
			want:    2,
		},
		{
			name:    "last checkin two days ago breaks immediately",
			history: []time.Time{day(-2, 9), day(-3, 9)},
			want:    0,
		},
		{
			name:    "same day repeats across several days",
			history: []time.Time{day(0, 20), day(0, 8), day(-1, 20), day(-1, 8), day(-2, 12)},
			want:    3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStreak(tt.history, asOf)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
		})
	}
}

func TestComputeStreakIgnoresTimeOfDay(t *testing.T) {
	// 23:59 和次日 00:01 虽然只差两分钟，但属于相邻日历日，连续成立
	asOf := day(0, 1)
	history := []time.Time{
		day(0, 0).Add(1 * time.Minute),
		day(-1, 23).Add(59 * time.Minute),
	}
	assert.Equal(t, 2, ComputeStreak(history, asOf))
}
