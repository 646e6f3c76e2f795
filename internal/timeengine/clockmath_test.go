package timeengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeOfDayToMinutes(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"00:00", 0},
		{"06:30", 390},
		{"7:05", 425},
		{"23:59", 1439},
	}
	for _, tt := range tests {
		got, err := TimeOfDayToMinutes(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestTimeOfDayToMinutesRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "1230", "24:00", "12:60", "ab:cd", "12:5", "-1:00"} {
		_, err := TimeOfDayToMinutes(in)
		assert.Error(t, err, in)
	}
}

func TestMinutesToTimeOfDayWraps(t *testing.T) {
	assert.Equal(t, "00:00", MinutesToTimeOfDay(1440))
	assert.Equal(t, "01:00", MinutesToTimeOfDay(1500))
	assert.Equal(t, "23:30", MinutesToTimeOfDay(-30))
}

func TestTimeOfDayRoundTrip(t *testing.T) {
	for m := 0; m < MinutesPerDay; m++ {
		s := MinutesToTimeOfDay(m)
		got, err := TimeOfDayToMinutes(s)
		require.NoError(t, err)
		require.Equal(t, m, got)
		require.Equal(t, s, MinutesToTimeOfDay(got))
	}
}

func TestApproachFullRateReachesTarget(t *testing.T) {
	for _, target := range []int{0, 390, 719, 720, 1380, 1439} {
		for x := 0; x < MinutesPerDay; x += 7 {
			require.Equal(t, target, Approach(x, target, 1.0), "x=%d target=%d", x, target)
		}
	}
}

func TestApproachConverged(t *testing.T) {
	for _, x := range []int{0, 1, 390, 1439} {
		for _, rate := range []float64{0.1, 0.5, 1} {
			assert.Equal(t, x, Approach(x, x, rate))
		}
	}
}

func TestApproachNeverMovesAway(t *testing.T) {
	for _, rate := range []float64{0.1, 0.3, 0.5, 0.9} {
		for current := 0; current < MinutesPerDay; current += 13 {
			for target := 0; target < MinutesPerDay; target += 17 {
				next := Approach(current, target, rate)
				require.LessOrEqual(t, ringDistance(next, target), ringDistance(current, target),
					"current=%d target=%d rate=%v next=%d", current, target, rate, next)
			}
		}
	}
}

func TestApproachSnapsWithinOneMinute(t *testing.T) {
	assert.Equal(t, 390, Approach(391, 390, 0.1))
	assert.Equal(t, 390, Approach(389, 390, 0.1))
}

func TestApproachConvergesAcrossMidnight(t *testing.T) {
	for _, target := range []int{0, 1, 1439} {
		for _, start := range []int{1400, 1438, 2, 40} {
			for _, rate := range []float64{0.1, 0.5, 0.9} {
				x := start
				for day := 0; day < 120 && x != target; day++ {
					x = Approach(x, target, rate)
				}
				require.Equal(t, target, x, "start=%d target=%d rate=%v", start, target, rate)
			}
		}
	}
	assert.Equal(t, 0, Approach(1439, 0, 0.5))
	assert.Equal(t, 1439, Approach(0, 1439, 0.5))
}

func TestApproachSmallGapStillMoves(t *testing.T) {
	assert.Equal(t, 393, Approach(394, 390, 0.1))
	assert.Equal(t, 387, Approach(386, 390, 0.1))
}

func TestApproachScenarios(t *testing.T) {
	tests := []struct {
		name            string
		current, target int
		rate            float64
		want            int
	}{
		{"earlier target", 420, 390, 0.5, 405},
		{"later target", 360, 420, 0.25, 375},
		{"forward across midnight", 1430, 10, 0.5, 0},
		{"backward across midnight", 20, 1400, 0.5, 1430},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Approach(tt.current, tt.target, tt.rate))
		})
	}
}

func TestVirtualWakeTime(t *testing.T) {
	wake := time.Date(2025, 3, 10, 7, 0, 42, 500, time.UTC)
	got, display := VirtualWakeTime(wake, 390, 0.5)
	assert.Equal(t, time.Date(2025, 3, 10, 6, 45, 0, 0, time.UTC), got)
	assert.Equal(t, "06:45", display)
}

func TestExpectedSleepTime(t *testing.T) {
	day := time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		yesterday time.Time
		target    int
		want      time.Time
	}{
		{
			name:      "past midnight pulled back to evening",
			yesterday: time.Date(2025, 3, 10, 0, 30, 0, 0, time.UTC),
			target:    1380,
			want:      time.Date(2025, 3, 10, 23, 45, 0, 0, time.UTC),
		},
		{
			name:      "evening stays on the wake day",
			yesterday: time.Date(2025, 3, 9, 23, 0, 0, 0, time.UTC),
			target:    1410,
			want:      time.Date(2025, 3, 10, 23, 15, 0, 0, time.UTC),
		},
		{
			name:      "before noon rolls to next day",
			yesterday: time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC),
			target:    60,
			want:      time.Date(2025, 3, 11, 1, 30, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpectedSleepTime(tt.yesterday, day, tt.target, 0.5))
		})
	}
}
