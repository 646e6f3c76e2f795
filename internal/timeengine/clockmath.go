package timeengine

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	MinutesPerDay = 24 * 60
	halfDay       = MinutesPerDay / 2

	// DisplayLayout is the HH:MM layout used for every clock shown to users.
	DisplayLayout = "15:04"
)

// TimeOfDayToMinutes parses an "HH:MM" string into minutes past midnight.
func TimeOfDayToMinutes(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("time of day %q: expected HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("time of day %q: bad hour", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 || len(mm) != 2 {
		return 0, fmt.Errorf("time of day %q: bad minute", s)
	}
	return h*60 + m, nil
}

// MinutesToTimeOfDay formats minutes past midnight as "HH:MM", wrapping
// modulo one day.
func MinutesToTimeOfDay(m int) string {
	m = wrapMinutes(m)
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func wrapMinutes(m int) int {
	return ((m % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// atMinute returns t's calendar date at the given minute of day, with seconds
// and sub-seconds zeroed.
func atMinute(t time.Time, minute int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), minute/60, minute%60, 0, 0, t.Location())
}

// Approach moves current one day-step toward target on the 1440-minute ring,
// closing rate of the gap along the shorter direction. Gaps of at most one
// minute snap to target; otherwise every step moves at least one minute.
func Approach(current, target int, rate float64) int {
	gap := signedGap(current, target)
	if gap >= -1 && gap <= 1 {
		return target
	}

	step := int(float64(gap) * rate)
	switch {
	case step == 0 && gap > 0:
		step = 1
	case step == 0 && gap < 0:
		step = -1
	}
	return wrapMinutes(current + step)
}

// signedGap is the shortest way round the ring from current to target:
// positive forward, negative backward, in (-720, 720].
func signedGap(current, target int) int {
	d := wrapMinutes(target - current)
	if d > halfDay {
		d -= MinutesPerDay
	}
	return d
}

// VirtualWakeTime approaches realWake's minute of day toward targetWake and
// stamps the result onto realWake's date.
func VirtualWakeTime(realWake time.Time, targetWake int, rate float64) (time.Time, string) {
	minutes := Approach(minuteOfDay(realWake), targetWake, rate)
	return atMinute(realWake, minutes), MinutesToTimeOfDay(minutes)
}

// ExpectedSleepTime approaches yesterday's sleep minute toward targetSleep and
// places it on day. Minutes before noon belong to the night after day.
func ExpectedSleepTime(yesterdaySleep, day time.Time, targetSleep int, rate float64) time.Time {
	return sleepOn(day, Approach(minuteOfDay(yesterdaySleep), targetSleep, rate))
}

func sleepOn(day time.Time, minute int) time.Time {
	t := atMinute(day, minute)
	if minute < halfDay {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// ringDistance is the circular distance between two minutes of day.
func ringDistance(a, b int) int {
	d := signedGap(a, b)
	if d < 0 {
		return -d
	}
	return d
}
