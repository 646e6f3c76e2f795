package config

import (
	"fmt"
	"strconv"

	"github.com/sadopc/timesetor/internal/timeengine"
)

// UserSettingKeys are the per-user settings that override the time section.
var UserSettingKeys = []string{
	"target_wake_time",
	"target_sleep_time",
	"target_entertainment_hours",
	"target_study_hours",
	"time_approach_rate",
	"study_curve_type",
}

// UserDefaults returns the initial settings stored for a new user.
func UserDefaults(t timeengine.Config) map[string]string {
	return map[string]string{
		"target_wake_time":           t.TargetWakeTime,
		"target_sleep_time":          t.TargetSleepTime,
		"target_entertainment_hours": formatFloat(t.TargetEntertainmentHours),
		"target_study_hours":         formatFloat(t.TargetStudyHours),
		"time_approach_rate":         formatFloat(t.ApproachRate),
		"study_curve_type":           string(t.StudyCurve),
	}
}

// WithOverrides returns a copy of base with the user's settings applied and
// validated. Unknown keys are an error.
func WithOverrides(base timeengine.Config, settings map[string]string) (timeengine.Config, error) {
	cfg := base
	for k, v := range settings {
		var err error
		switch k {
		case "target_wake_time":
			cfg.TargetWakeTime = v
		case "target_sleep_time":
			cfg.TargetSleepTime = v
		case "study_curve_type":
			cfg.StudyCurve = timeengine.CurveType(v)
		case "target_entertainment_hours":
			cfg.TargetEntertainmentHours, err = strconv.ParseFloat(v, 64)
		case "target_study_hours":
			cfg.TargetStudyHours, err = strconv.ParseFloat(v, 64)
		case "time_approach_rate":
			cfg.ApproachRate, err = strconv.ParseFloat(v, 64)
		default:
			return base, fmt.Errorf("unknown setting %q", k)
		}
		if err != nil {
			return base, fmt.Errorf("setting %s=%q: %w", k, v, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
