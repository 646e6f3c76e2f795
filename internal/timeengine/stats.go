package timeengine

import "time"

// LogInterval is one closed interval of a single activity at a single speed.
type LogInterval struct {
	Activity Activity
	Duration time.Duration
	Speed    float64
}

// VirtualDuration is the virtual time that elapsed during the interval.
func (l LogInterval) VirtualDuration() time.Duration {
	return scaleDuration(l.Duration, l.Speed)
}

// Totals holds real and virtual minutes for one category.
type Totals struct {
	RealMinutes    float64 `json:"real_minutes"`
	VirtualMinutes float64 `json:"virtual_minutes"`
}

// DailyStats holds per-category totals. Anything that is neither
// entertainment nor study counts as rest.
type DailyStats struct {
	Entertainment Totals `json:"entertainment"`
	Study         Totals `json:"study"`
	Rest          Totals `json:"rest"`
}

// Category maps an activity onto its stats bucket.
func Category(a Activity) Activity {
	switch a {
	case ActivityEntertainment, ActivityStudy:
		return a
	}
	return ActivityRest
}

// Record adds one interval.
func (s *DailyStats) Record(l LogInterval) {
	minutes := l.Duration.Seconds() / 60
	t := s.bucket(l.Activity)
	t.RealMinutes += minutes
	t.VirtualMinutes += minutes * l.Speed
}

func (s *DailyStats) bucket(a Activity) *Totals {
	switch Category(a) {
	case ActivityEntertainment:
		return &s.Entertainment
	case ActivityStudy:
		return &s.Study
	}
	return &s.Rest
}

// Add combines two partial aggregates.
func (s DailyStats) Add(o DailyStats) DailyStats {
	return DailyStats{
		Entertainment: Totals{s.Entertainment.RealMinutes + o.Entertainment.RealMinutes, s.Entertainment.VirtualMinutes + o.Entertainment.VirtualMinutes},
		Study:         Totals{s.Study.RealMinutes + o.Study.RealMinutes, s.Study.VirtualMinutes + o.Study.VirtualMinutes},
		Rest:          Totals{s.Rest.RealMinutes + o.Rest.RealMinutes, s.Rest.VirtualMinutes + o.Rest.VirtualMinutes},
	}
}

// Aggregate reduces intervals into per-category totals. Order does not
// matter.
func Aggregate(logs []LogInterval) DailyStats {
	var s DailyStats
	for _, l := range logs {
		s.Record(l)
	}
	return s
}

// AwakeHours returns the real and virtual length of a finished day.
func AwakeHours(realWake, realSleep, virtualWake, virtualSleep time.Time) (realHours, virtualHours float64) {
	return realSleep.Sub(realWake).Hours(), virtualSleep.Sub(virtualWake).Hours()
}
