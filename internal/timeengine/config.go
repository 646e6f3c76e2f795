package timeengine

import (
	"errors"
	"fmt"
)

// Config is the immutable speed and target configuration an Engine runs
// with. Engines keep their own copy, so replacing the process configuration
// never affects an engine that is already running.
type Config struct {
	TargetWakeTime  string  `yaml:"target_wake_time" json:"target_wake_time"`
	TargetSleepTime string  `yaml:"target_sleep_time" json:"target_sleep_time"`
	ApproachRate    float64 `yaml:"time_approach_rate" json:"time_approach_rate"`

	NormalSpeed            float64   `yaml:"normal_speed" json:"normal_speed"`
	RestSpeed              float64   `yaml:"rest_speed" json:"rest_speed"`
	StudyStartSpeed        float64   `yaml:"study_start_speed" json:"study_start_speed"`
	StudyEndSpeed          float64   `yaml:"study_end_speed" json:"study_end_speed"`
	StudyCurve             CurveType `yaml:"study_curve_type" json:"study_curve_type"`
	BreakSpeed             float64   `yaml:"break_speed" json:"break_speed"`
	EntertainmentBaseSpeed float64   `yaml:"entertainment_base_speed" json:"entertainment_base_speed"`

	TargetEntertainmentHours float64 `yaml:"target_entertainment_hours" json:"target_entertainment_hours"`
	TargetStudyHours         float64 `yaml:"target_study_hours" json:"target_study_hours"`
}

// DefaultConfig returns the stock targets and speeds.
func DefaultConfig() Config {
	return Config{
		TargetWakeTime:           "06:30",
		TargetSleepTime:          "23:00",
		ApproachRate:             0.25,
		NormalSpeed:              1.0,
		RestSpeed:                1.2,
		StudyStartSpeed:          3.0,
		StudyEndSpeed:            1.0,
		StudyCurve:               CurveLinear,
		BreakSpeed:               1.0,
		EntertainmentBaseSpeed:   2.0,
		TargetEntertainmentHours: 2,
		TargetStudyHours:         6,
	}
}

// Validate checks every field once so engine arithmetic can assume
// well-formed input.
func (c Config) Validate() error {
	var errs []error
	if _, err := TimeOfDayToMinutes(c.TargetWakeTime); err != nil {
		errs = append(errs, fmt.Errorf("target_wake_time: %w", err))
	}
	if _, err := TimeOfDayToMinutes(c.TargetSleepTime); err != nil {
		errs = append(errs, fmt.Errorf("target_sleep_time: %w", err))
	}
	if c.ApproachRate <= 0 || c.ApproachRate > 1 {
		errs = append(errs, fmt.Errorf("time_approach_rate %v: must be in (0,1]", c.ApproachRate))
	}

	speeds := []struct {
		name  string
		value float64
	}{
		{"normal_speed", c.NormalSpeed},
		{"rest_speed", c.RestSpeed},
		{"break_speed", c.BreakSpeed},
		{"entertainment_base_speed", c.EntertainmentBaseSpeed},
	}
	for _, s := range speeds {
		if s.value < 0 {
			errs = append(errs, fmt.Errorf("%s %v: must not be negative", s.name, s.value))
		}
	}
	if c.StudyStartSpeed <= 0 {
		errs = append(errs, fmt.Errorf("study_start_speed %v: must be positive", c.StudyStartSpeed))
	}
	if c.StudyEndSpeed <= 0 {
		errs = append(errs, fmt.Errorf("study_end_speed %v: must be positive", c.StudyEndSpeed))
	}
	if c.TargetEntertainmentHours <= 0 {
		errs = append(errs, fmt.Errorf("target_entertainment_hours %v: must be positive", c.TargetEntertainmentHours))
	}
	if c.TargetStudyHours < 0 {
		errs = append(errs, fmt.Errorf("target_study_hours %v: must not be negative", c.TargetStudyHours))
	}
	return errors.Join(errs...)
}

func (c Config) targetWake() int {
	m, _ := TimeOfDayToMinutes(c.TargetWakeTime)
	return m
}

func (c Config) targetSleep() int {
	m, _ := TimeOfDayToMinutes(c.TargetSleepTime)
	return m
}
