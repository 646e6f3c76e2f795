package timeengine

import "math"

// CurveType names the decay shape of study speed over a session.
type CurveType string

const (
	CurveLinear      CurveType = "linear"
	CurveExponential CurveType = "exponential"
	CurveEaseOut     CurveType = "ease_out"
)

// Known reports whether c is one of the supported curves. Unknown curves are
// evaluated as linear.
func (c CurveType) Known() bool {
	switch c {
	case CurveLinear, CurveExponential, CurveEaseOut:
		return true
	}
	return false
}

// StudySpeed interpolates from start down to end for progress in [0,1].
// The result never drops below end.
func StudySpeed(curve CurveType, start, end, progress float64) float64 {
	if progress >= 1 {
		return end
	}
	if progress < 0 {
		progress = 0
	}

	var speed float64
	switch curve {
	case CurveExponential:
		speed = start * math.Pow(end/start, progress)
	case CurveEaseOut:
		speed = start - (start-end)*(1-(1-progress)*(1-progress))
	default:
		speed = start - (start-end)*progress
	}
	return math.Max(end, speed)
}
