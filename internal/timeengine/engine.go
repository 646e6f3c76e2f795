// Package timeengine converts a stream of real-time activity transitions into
// a continuously queryable virtual timeline for one user-day.
//
// An Engine performs no I/O and no locking. Callers serialise every call for
// a given user and persist whatever results they need.
package timeengine

import (
	"math"
	"time"

	"github.com/sadopc/timesetor/internal/clock"
)

// Activity is what the user is doing right now.
type Activity string

const (
	ActivityRest          Activity = "rest"
	ActivityEntertainment Activity = "entertainment"
	ActivityStudy         Activity = "study"
	ActivityBreak         Activity = "pomodoro_break"
	ActivitySleep         Activity = "sleep"
)

// DayInit is the result of initialising a user-day.
type DayInit struct {
	VirtualWake             time.Time
	VirtualWakeDisplay      string
	ExpectedSleep           time.Time
	EntertainmentMultiplier float64
}

// State is a read-only view of an engine.
type State struct {
	Activity                Activity
	Speed                   float64
	Offset                  time.Duration
	LastUpdate              time.Time
	EntertainmentMultiplier float64
	StudyActive             bool
}

// StudyProgress describes the running study session.
type StudyProgress struct {
	Active    bool
	Elapsed   time.Duration
	Planned   time.Duration
	Progress  float64
	Speed     float64
	Remaining time.Duration
}

// Engine is the virtual clock of one user for one day.
type Engine struct {
	cfg   Config
	clock clock.Clock

	offset     time.Duration
	lastUpdate time.Time
	synced     bool

	activity Activity
	speed    float64

	entertainmentMultiplier float64
	hasMultiplier           bool

	studyActive  bool
	studyStart   time.Time
	studyPlanned time.Duration
}

// New returns an engine bound to its own copy of cfg. cfg must have passed
// Validate.
func New(cfg Config, clk clock.Clock) *Engine {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Engine{
		cfg:      cfg,
		clock:    clk,
		activity: ActivityRest,
		speed:    cfg.NormalSpeed,
	}
}

// Config returns the configuration snapshot the engine runs with.
func (e *Engine) Config() Config { return e.cfg }

// InitializeDay sets the day's starting offset from the real wake time and
// the previous night, if any. It resets the running clock, so the session
// layer must call it exactly once per user-day.
func (e *Engine) InitializeDay(realWake time.Time, yesterdaySleep, yesterdayVirtualSleep *time.Time) DayInit {
	virtualWake, display := VirtualWakeTime(realWake, e.cfg.targetWake(), e.cfg.ApproachRate)

	var expectedSleep time.Time
	if yesterdaySleep != nil {
		expectedSleep = ExpectedSleepTime(*yesterdaySleep, realWake, e.cfg.targetSleep(), e.cfg.ApproachRate)
	} else {
		expectedSleep = sleepOn(realWake, e.cfg.targetSleep())
	}

	multiplier := EntertainmentMultiplier(MultiplierInput{
		RealWake:                 realWake,
		ExpectedSleep:            expectedSleep,
		VirtualWake:              virtualWake,
		YesterdayVirtualSleep:    yesterdayVirtualSleep,
		TargetEntertainmentHours: e.cfg.TargetEntertainmentHours,
		TargetStudyHours:         e.cfg.TargetStudyHours,
	})

	e.offset = virtualWake.Sub(realWake)
	e.lastUpdate = realWake
	e.synced = true
	e.entertainmentMultiplier = multiplier
	e.hasMultiplier = true

	return DayInit{
		VirtualWake:             virtualWake,
		VirtualWakeDisplay:      display,
		ExpectedSleep:           expectedSleep,
		EntertainmentMultiplier: multiplier,
	}
}

// Resume rebuilds a running day from a persisted reconciliation point, such
// as the day's wake record or its latest time log, after a process restart.
// The activity is left as New set it; callers restore it with UpdateActivity.
func (e *Engine) Resume(realAt, virtualAt time.Time, multiplier float64) {
	e.offset = virtualAt.Sub(realAt)
	e.lastUpdate = realAt
	e.synced = true
	e.entertainmentMultiplier = multiplier
	e.hasMultiplier = true
}

// UpdateActivity switches activity and returns the new speed. The previous
// speed stays in effect up to this call, so callers reconcile with
// VirtualTime first to close the previous interval.
//
// Study without a started session runs at the study floor speed.
func (e *Engine) UpdateActivity(a Activity) float64 {
	e.activity = a
	switch a {
	case ActivitySleep:
		e.speed = 0
	case ActivityEntertainment:
		e.speed = e.entertainmentSpeed()
	case ActivityStudy:
		e.speed = e.studySpeedAt(e.clock.Now())
	case ActivityBreak:
		e.speed = e.cfg.BreakSpeed
	default:
		e.speed = e.cfg.RestSpeed
	}
	return e.speed
}

func (e *Engine) entertainmentSpeed() float64 {
	if e.hasMultiplier {
		return e.entertainmentMultiplier
	}
	return e.cfg.EntertainmentBaseSpeed
}

// StartStudySession starts the study curve now and switches to study.
func (e *Engine) StartStudySession(planned time.Duration) float64 {
	e.studyActive = true
	e.studyStart = e.clock.Now()
	e.studyPlanned = planned
	return e.UpdateActivity(ActivityStudy)
}

// ResumeStudySession restores a study session that started at start, without
// changing the current activity. The next interval runs at the curve speed
// of the last reconciliation.
func (e *Engine) ResumeStudySession(start time.Time, planned time.Duration) {
	e.studyActive = true
	e.studyStart = start
	e.studyPlanned = planned
	if e.activity != ActivityStudy {
		return
	}
	at := e.lastUpdate
	if !e.synced {
		at = e.clock.Now()
	}
	e.speed = e.studySpeedAt(at)
}

// EndStudySession forgets the study curve origin. The activity is left
// unchanged.
func (e *Engine) EndStudySession() {
	e.studyActive = false
	e.studyStart = time.Time{}
	e.studyPlanned = 0
}

// CurrentStudySpeed evaluates the study curve at the current instant.
func (e *Engine) CurrentStudySpeed() float64 {
	return e.studySpeedAt(e.clock.Now())
}

func (e *Engine) studySpeedAt(now time.Time) float64 {
	if !e.studyActive || e.studyPlanned <= 0 {
		return e.cfg.StudyEndSpeed
	}
	progress := now.Sub(e.studyStart).Seconds() / e.studyPlanned.Seconds()
	return StudySpeed(e.cfg.StudyCurve, e.cfg.StudyStartSpeed, e.cfg.StudyEndSpeed, progress)
}

// VirtualTime reconciles the offset up to now and returns the virtual time
// and its HH:MM display. Every call moves the integration high-water mark,
// so speed changes are applied only to the real time spent at each speed.
//
// A now earlier than the last reconciliation counts as zero elapsed time.
func (e *Engine) VirtualTime(now time.Time) (time.Time, string) {
	if !e.synced {
		e.lastUpdate = now
		e.synced = true
		return e.display(now.Add(e.offset))
	}

	if elapsed := now.Sub(e.lastUpdate); elapsed > 0 {
		e.offset += scaleDuration(elapsed, e.speed-1)
		e.lastUpdate = now
	}

	// Study speed decays continuously; the next interval runs at the
	// speed reached by now.
	if e.activity == ActivityStudy {
		e.speed = e.studySpeedAt(e.lastUpdate)
	}
	return e.display(e.lastUpdate.Add(e.offset))
}

// scaleDuration multiplies d by f, rounded to the nearest nanosecond.
func scaleDuration(d time.Duration, f float64) time.Duration {
	return time.Duration(math.Round(float64(d) * f))
}

// Now reconciles against the engine clock.
func (e *Engine) Now() (time.Time, string) {
	return e.VirtualTime(e.clock.Now())
}

func (e *Engine) display(v time.Time) (time.Time, string) {
	return v, v.Format(DisplayLayout)
}

// CurrentSpeed returns the live speed without reconciling.
func (e *Engine) CurrentSpeed() float64 {
	if e.activity == ActivityStudy {
		return e.CurrentStudySpeed()
	}
	return e.speed
}

// Activity returns the current activity.
func (e *Engine) Activity() Activity { return e.activity }

// SetEntertainmentMultiplier replaces the day's entertainment speed. It takes
// effect immediately when the user is in entertainment.
func (e *Engine) SetEntertainmentMultiplier(m float64) {
	e.entertainmentMultiplier = m
	e.hasMultiplier = true
	if e.activity == ActivityEntertainment {
		e.speed = m
	}
}

// RecordSleep performs the final reconciliation of the day. The engine must
// be discarded afterwards.
func (e *Engine) RecordSleep(realSleep time.Time) (time.Time, string) {
	v, display := e.VirtualTime(realSleep)
	e.activity = ActivitySleep
	e.speed = 0
	e.EndStudySession()
	return v, display
}

// StudyProgress reports the running study session, if any.
func (e *Engine) StudyProgress() StudyProgress {
	if !e.studyActive {
		return StudyProgress{}
	}
	now := e.clock.Now()
	elapsed := now.Sub(e.studyStart)
	p := StudyProgress{
		Active:  true,
		Elapsed: elapsed,
		Planned: e.studyPlanned,
		Speed:   e.studySpeedAt(now),
	}
	if e.studyPlanned > 0 {
		p.Progress = min(1, elapsed.Seconds()/e.studyPlanned.Seconds())
		p.Remaining = max(0, e.studyPlanned-elapsed)
	}
	return p
}

// Snapshot returns a copy of the engine state.
func (e *Engine) Snapshot() State {
	return State{
		Activity:                e.activity,
		Speed:                   e.CurrentSpeed(),
		Offset:                  e.offset,
		LastUpdate:              e.lastUpdate,
		EntertainmentMultiplier: e.entertainmentSpeed(),
		StudyActive:             e.studyActive,
	}
}
