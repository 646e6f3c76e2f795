package timeengine

import "time"

const (
	MinEntertainmentMultiplier = 0.5
	MaxEntertainmentMultiplier = 10.0
)

// MultiplierInput carries the day-start figures the entertainment multiplier
// is derived from.
type MultiplierInput struct {
	RealWake      time.Time
	ExpectedSleep time.Time
	VirtualWake   time.Time
	// YesterdayVirtualSleep is nil on the first recorded day.
	YesterdayVirtualSleep *time.Time

	TargetEntertainmentHours float64
	TargetStudyHours         float64
}

// EntertainmentMultiplier returns the speed applied during entertainment so
// the day's virtual awake budget stays on its approach trajectory.
func EntertainmentMultiplier(in MultiplierInput) float64 {
	realAwake := in.ExpectedSleep.Sub(in.RealWake).Minutes()

	virtualAwake := float64(MinutesPerDay)
	if in.YesterdayVirtualSleep != nil {
		virtualAwake = MinutesPerDay - in.VirtualWake.Sub(*in.YesterdayVirtualSleep).Minutes()
		if virtualAwake < 0 {
			virtualAwake += MinutesPerDay
		}
	}

	entertainment := in.TargetEntertainmentHours * 60
	study := in.TargetStudyHours * 60

	virtualRest := virtualAwake - entertainment - study
	realRest := realAwake - entertainment - study

	if virtualRest <= 0 {
		return 1.0
	}
	if realRest <= 0 {
		return MaxEntertainmentMultiplier
	}

	x := (2*virtualAwake - study - realAwake + entertainment) / (2 * entertainment)
	return clamp(x, MinEntertainmentMultiplier, MaxEntertainmentMultiplier)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
