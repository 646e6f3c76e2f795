package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sadopc/timesetor/internal/clock"
	"github.com/sadopc/timesetor/internal/config"
	"github.com/sadopc/timesetor/internal/logging"
	"github.com/sadopc/timesetor/internal/metrics"
	"github.com/sadopc/timesetor/internal/store"
	"github.com/sadopc/timesetor/internal/timeengine"
)

var (
	ErrAlreadyAwake    = errors.New("wake time already recorded today")
	ErrNotAwake        = errors.New("wake time not recorded")
	ErrNoSession       = errors.New("no such running pomodoro session")
	ErrPomodoroRunning = errors.New("a pomodoro session is already running")
	ErrNoRecord        = errors.New("no record for this date")
	ErrBadMultiplier   = errors.New("entertainment multiplier out of range")
)

// Store is the persistence the service needs. *store.Store satisfies it.
type Store interface {
	GetOrCreateDailyRecord(userID int64, date string) (*store.DailyRecord, error)
	GetDailyRecord(userID int64, date string) (*store.DailyRecord, error)
	GetDailyRecordByID(id int64) (*store.DailyRecord, error)
	LatestAwakeRecord(userID int64) (*store.DailyRecord, error)
	LastSleep(userID int64, before string) (realSleep, virtualSleep *time.Time, err error)
	RecentRecords(userID int64, n int) ([]store.DailyRecord, error)
	RecordWake(recordID int64, w store.Wake) error
	RecordSleep(recordID int64, realSleep, virtualSleep time.Time, display string, stats timeengine.DailyStats) error
	AbandonDay(recordID int64, realSleep, virtualSleep time.Time, display string, stats timeengine.DailyStats) error
	UpdateTotals(recordID int64, stats timeengine.DailyStats) error
	SetMultiplier(recordID int64, m float64) error

	AddTimeLog(l store.TimeLog) (*store.TimeLog, error)
	ListTimeLogs(recordID int64) ([]store.TimeLog, error)
	LatestTimeLog(recordID int64) (*store.TimeLog, error)

	StartPomodoro(userID, recordID int64, start, virtualStart time.Time, plannedMinutes int, sessionType string) (*store.PomodoroSession, error)
	GetPomodoro(id int64) (*store.PomodoroSession, error)
	RunningPomodoro(userID int64) (*store.PomodoroSession, error)
	EndPomodoro(id int64, end, virtualEnd time.Time, actualMinutes int, status string) error
	UpdatePomodoroNotes(id int64, notes string) error
	ListPomodoros(recordID int64) ([]store.PomodoroSession, error)

	SettingsMap(userID int64) (map[string]string, error)
}

// Service runs every user's day.
type Service struct {
	store   Store
	cfg     *config.Holder
	clock   clock.Clock
	reg     *Registry
	metrics *metrics.Registry
	log     *logging.Logger
}

func NewService(st Store, cfg *config.Holder, clk clock.Clock, m *metrics.Registry, log *logging.Logger) *Service {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if log == nil {
		log = logging.Default()
	}
	return &Service{
		store:   st,
		cfg:     cfg,
		clock:   clk,
		reg:     NewRegistry(),
		metrics: m,
		log:     log.WithComponent("session"),
	}
}

// Clock returns the service clock.
func (s *Service) Clock() clock.Clock { return s.clock }

// ActiveEngines returns how many users have a running engine in memory.
func (s *Service) ActiveEngines() int { return s.reg.Len() }

// UserConfig returns the time configuration a new engine for the user gets:
// the current process configuration with the user's settings applied.
// Invalid stored settings fall back to the process configuration.
func (s *Service) UserConfig(userID int64) timeengine.Config {
	base := s.cfg.Get().Time
	settings, err := s.store.SettingsMap(userID)
	if err != nil {
		s.log.Warn("load user settings", "user_id", userID, "error", err)
		return base
	}
	known := make(map[string]string, len(settings))
	for _, k := range config.UserSettingKeys {
		if v, ok := settings[k]; ok {
			known[k] = v
		}
	}
	cfg, err := config.WithOverrides(base, known)
	if err != nil {
		s.log.Warn("invalid user settings, using defaults", "user_id", userID, "error", err)
		return base
	}
	return cfg
}

// dayConfig returns the configuration the record's day was started with.
// Records without a stored configuration get the user's current one.
func (s *Service) dayConfig(userID int64, rec *store.DailyRecord) timeengine.Config {
	if rec.EngineConfig != "" {
		var cfg timeengine.Config
		err := json.Unmarshal([]byte(rec.EngineConfig), &cfg)
		if err == nil {
			err = cfg.Validate()
		}
		if err == nil {
			return cfg
		}
		s.log.Warn("stored engine config unusable", "record_id", rec.ID, "error", err)
	}
	return s.UserConfig(userID)
}

// WakeResult describes a freshly started day.
type WakeResult struct {
	RecordID                int64     `json:"record_id"`
	RealWake                time.Time `json:"real_wake_time"`
	VirtualWake             time.Time `json:"virtual_wake_time"`
	VirtualWakeDisplay      string    `json:"virtual_wake_display"`
	ExpectedSleep           time.Time `json:"expected_sleep_time"`
	EntertainmentMultiplier float64   `json:"entertainment_multiplier"`
}

// Wake starts the user's day at the given real time. A day from an earlier
// date that was never slept is closed as abandoned first.
func (s *Service) Wake(userID int64, at time.Time) (*WakeResult, error) {
	var res *WakeResult
	err := s.reg.Do(userID, func(slot *Slot) error {
		date := at.Format(store.DateLayout)
		if open, err := s.store.LatestAwakeRecord(userID); err == nil {
			if open.Date >= date {
				return ErrAlreadyAwake
			}
			if err := s.closeStaleDay(userID, slot, at); err != nil {
				return err
			}
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		rec, err := s.store.GetOrCreateDailyRecord(userID, date)
		if err != nil {
			return err
		}
		if rec.RealWake != nil {
			return ErrAlreadyAwake
		}

		ySleep, yVirtualSleep, err := s.store.LastSleep(userID, date)
		if err != nil {
			return err
		}

		cfg := s.UserConfig(userID)
		snapshot, err := json.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encode engine config: %w", err)
		}
		eng := timeengine.New(cfg, s.clock)
		init := eng.InitializeDay(at, ySleep, yVirtualSleep)

		err = s.store.RecordWake(rec.ID, store.Wake{
			RealWake:                 at,
			VirtualWake:              init.VirtualWake,
			VirtualWakeDisplay:       init.VirtualWakeDisplay,
			ExpectedSleep:            init.ExpectedSleep,
			TargetEntertainmentHours: cfg.TargetEntertainmentHours,
			TargetStudyHours:         cfg.TargetStudyHours,
			EntertainmentMultiplier:  init.EntertainmentMultiplier,
			EngineConfig:             string(snapshot),
		})
		if errors.Is(err, store.ErrConflict) {
			return ErrAlreadyAwake
		}
		if err != nil {
			return err
		}

		slot.set(eng, rec.ID, at, init.VirtualWake)
		if s.metrics != nil {
			s.metrics.DayEvents.WithLabelValues("wake").Inc()
			s.metrics.ActiveEngines.Inc()
			s.metrics.EntertainmentSpeed.Observe(init.EntertainmentMultiplier)
		}
		s.log.Info("day started",
			"user_id", userID,
			"date", date,
			"virtual_wake", init.VirtualWakeDisplay,
			"multiplier", init.EntertainmentMultiplier,
		)

		res = &WakeResult{
			RecordID:                rec.ID,
			RealWake:                at,
			VirtualWake:             init.VirtualWake,
			VirtualWakeDisplay:      init.VirtualWakeDisplay,
			ExpectedSleep:           init.ExpectedSleep,
			EntertainmentMultiplier: init.EntertainmentMultiplier,
		}
		return nil
	})
	return res, err
}

// SleepResult describes a finished day.
type SleepResult struct {
	RealSleep           time.Time             `json:"real_sleep_time"`
	VirtualSleep        time.Time             `json:"virtual_sleep_time"`
	VirtualSleepDisplay string                `json:"virtual_sleep_display"`
	Stats               timeengine.DailyStats `json:"stats"`
	RealAwakeHours      float64               `json:"real_awake_hours"`
	VirtualAwakeHours   float64               `json:"virtual_awake_hours"`
}

// Sleep ends the user's day. A running pomodoro is cancelled.
func (s *Service) Sleep(userID int64, at time.Time) (*SleepResult, error) {
	var res *SleepResult
	err := s.reg.Do(userID, func(slot *Slot) error {
		rec, err := s.ensure(userID, slot)
		if err != nil {
			return err
		}
		res, err = s.endDay(userID, slot, rec, at, store.StatusCompleted)
		return err
	})
	return res, err
}

// closeStaleDay ends the running day of an earlier date whose sleep was
// never recorded. It sleeps at the day's expected sleep time when that lies
// between the last stored event and now, otherwise at the last stored event.
func (s *Service) closeStaleDay(userID int64, slot *Slot, now time.Time) error {
	// Rebuild from storage so live reads past the last event are ignored.
	if slot.Engine != nil {
		slot.clear()
		if s.metrics != nil {
			s.metrics.ActiveEngines.Dec()
		}
	}
	rec, err := s.ensure(userID, slot)
	if err != nil {
		return err
	}

	at := slot.intervalReal
	if rec.ExpectedSleep != nil && rec.ExpectedSleep.After(at) && rec.ExpectedSleep.Before(now) {
		at = *rec.ExpectedSleep
	}
	if _, err := s.endDay(userID, slot, rec, at, store.StatusAbandoned); err != nil {
		return err
	}
	s.log.Warn("closed day without sleep", "user_id", userID, "date", rec.Date, "assumed_sleep", at)
	return nil
}

// endDay performs the final reconciliation of the slot's day, stores it with
// the given status and empties the slot.
func (s *Service) endDay(userID int64, slot *Slot, rec *store.DailyRecord, at time.Time, status string) (*SleepResult, error) {
	if _, err := s.closeInterval(userID, slot, at, timeengine.ActivitySleep, ""); err != nil {
		return nil, err
	}
	virtualSleep, display := slot.Engine.RecordSleep(at)

	if p, err := s.store.RunningPomodoro(userID); err != nil {
		return nil, err
	} else if p != nil {
		minutes := int(at.Sub(p.StartTime).Minutes())
		if err := s.store.EndPomodoro(p.ID, at, virtualSleep, max(0, minutes), store.PomodoroCancelled); err != nil {
			return nil, err
		}
	}

	stats, err := s.dayStats(slot.RecordID)
	if err != nil {
		return nil, err
	}
	closeDay, event := s.store.RecordSleep, "sleep"
	if status == store.StatusAbandoned {
		closeDay, event = s.store.AbandonDay, "abandon"
	}
	if err := closeDay(slot.RecordID, at, virtualSleep, display, stats); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrNotAwake
		}
		return nil, err
	}

	realHours, virtualHours := timeengine.AwakeHours(*rec.RealWake, at, *rec.VirtualWake, virtualSleep)
	slot.clear()
	if s.metrics != nil {
		s.metrics.DayEvents.WithLabelValues(event).Inc()
		s.metrics.ActiveEngines.Dec()
	}
	s.log.Info("day finished",
		"user_id", userID,
		"date", rec.Date,
		"status", status,
		"virtual_sleep", display,
		"study_virtual_minutes", stats.Study.VirtualMinutes,
	)

	return &SleepResult{
		RealSleep:           at,
		VirtualSleep:        virtualSleep,
		VirtualSleepDisplay: display,
		Stats:               stats,
		RealAwakeHours:      realHours,
		VirtualAwakeHours:   virtualHours,
	}, nil
}

// Status is the user's live clock.
type Status struct {
	State                   string                   `json:"status"`
	RealTime                time.Time                `json:"real_time"`
	VirtualTime             time.Time                `json:"virtual_time,omitzero"`
	VirtualTimeDisplay      string                   `json:"virtual_time_display,omitempty"`
	Speed                   float64                  `json:"current_speed"`
	Activity                timeengine.Activity      `json:"current_activity,omitempty"`
	EntertainmentMultiplier float64                  `json:"entertainment_multiplier,omitempty"`
	Study                   timeengine.StudyProgress `json:"study"`
	RecordID                int64                    `json:"record_id,omitempty"`
}

const (
	StateNotAwake = "not_awake"
	StateAwake    = "awake"
)

// Current reads the user's virtual clock. A user without a running day
// gets StateNotAwake and no error.
func (s *Service) Current(userID int64) (*Status, error) {
	var st *Status
	err := s.reg.Do(userID, func(slot *Slot) error {
		now := s.clock.Now()
		if _, err := s.ensure(userID, slot); errors.Is(err, ErrNotAwake) {
			st = &Status{State: StateNotAwake, RealTime: now}
			return nil
		} else if err != nil {
			return err
		}

		v, display := slot.Engine.VirtualTime(now)
		snap := slot.Engine.Snapshot()
		st = &Status{
			State:                   StateAwake,
			RealTime:                now,
			VirtualTime:             v,
			VirtualTimeDisplay:      display,
			Speed:                   slot.Engine.CurrentSpeed(),
			Activity:                snap.Activity,
			EntertainmentMultiplier: snap.EntertainmentMultiplier,
			Study:                   slot.Engine.StudyProgress(),
			RecordID:                slot.RecordID,
		}
		return nil
	})
	return st, err
}

// ActivityResult is returned by UpdateActivity.
type ActivityResult struct {
	Activity           timeengine.Activity `json:"activity_type"`
	Speed              float64             `json:"speed"`
	VirtualTime        time.Time           `json:"virtual_time"`
	VirtualTimeDisplay string              `json:"virtual_time_display"`
}

// UpdateActivity closes the current interval and switches activity. A
// non-empty app is classified with the configured Android app lists and
// overrides the activity when it is listed.
func (s *Service) UpdateActivity(userID int64, a timeengine.Activity, app string) (*ActivityResult, error) {
	a = s.cfg.Get().Android.Classify(app, a)

	var res *ActivityResult
	err := s.reg.Do(userID, func(slot *Slot) error {
		if _, err := s.ensure(userID, slot); err != nil {
			return err
		}
		now := s.clock.Now()
		l, err := s.closeInterval(userID, slot, now, a, app)
		if err != nil {
			return err
		}
		speed := slot.Engine.UpdateActivity(a)
		if err := s.refreshTotals(slot.RecordID); err != nil {
			return err
		}
		if s.metrics != nil {
			s.metrics.ActivitySwitches.WithLabelValues(string(a)).Inc()
		}
		s.log.Debug("activity changed", "user_id", userID, "activity", a, "app", app, "speed", speed)

		res = &ActivityResult{
			Activity:           a,
			Speed:              speed,
			VirtualTime:        l.VirtualTimestamp,
			VirtualTimeDisplay: l.VirtualTimeDisplay,
		}
		return nil
	})
	return res, err
}

// SetEntertainmentMultiplier replaces the running day's entertainment speed.
// The current interval is closed first so the old speed covers it.
func (s *Service) SetEntertainmentMultiplier(userID int64, m float64) (*ActivityResult, error) {
	if !(m >= timeengine.MinEntertainmentMultiplier && m <= timeengine.MaxEntertainmentMultiplier) {
		return nil, fmt.Errorf("%w: %v not in [%v, %v]", ErrBadMultiplier, m,
			timeengine.MinEntertainmentMultiplier, timeengine.MaxEntertainmentMultiplier)
	}

	var res *ActivityResult
	err := s.reg.Do(userID, func(slot *Slot) error {
		if _, err := s.ensure(userID, slot); err != nil {
			return err
		}
		a := slot.Engine.Activity()
		l, err := s.closeInterval(userID, slot, s.clock.Now(), a, "")
		if err != nil {
			return err
		}
		slot.Engine.SetEntertainmentMultiplier(m)
		if err := s.store.SetMultiplier(slot.RecordID, m); err != nil {
			return err
		}
		if err := s.refreshTotals(slot.RecordID); err != nil {
			return err
		}
		if s.metrics != nil {
			s.metrics.EntertainmentSpeed.Observe(m)
		}
		s.log.Info("entertainment multiplier set", "user_id", userID, "multiplier", m)

		res = &ActivityResult{
			Activity:           a,
			Speed:              slot.Engine.CurrentSpeed(),
			VirtualTime:        l.VirtualTimestamp,
			VirtualTimeDisplay: l.VirtualTimeDisplay,
		}
		return nil
	})
	return res, err
}

// StartPomodoro starts a session. Work sessions start the study speed
// curve; break sessions switch to the break speed. minutes <= 0 uses the
// configured length for the session type.
func (s *Service) StartPomodoro(userID int64, minutes int, kind string) (*store.PomodoroSession, error) {
	pc := s.cfg.Get().Pomodoro
	if kind == "" {
		kind = store.PomodoroWork
	}
	if minutes <= 0 {
		switch kind {
		case store.PomodoroShortBreak:
			minutes = pc.ShortBreakMinutes
		case store.PomodoroLongBreak:
			minutes = pc.LongBreakMinutes
		default:
			minutes = pc.WorkMinutes
		}
	}

	var p *store.PomodoroSession
	err := s.reg.Do(userID, func(slot *Slot) error {
		if _, err := s.ensure(userID, slot); err != nil {
			return err
		}
		if running, err := s.store.RunningPomodoro(userID); err != nil {
			return err
		} else if running != nil {
			return ErrPomodoroRunning
		}

		now := s.clock.Now()
		next := timeengine.ActivityBreak
		if kind == store.PomodoroWork {
			next = timeengine.ActivityStudy
		}
		l, err := s.closeInterval(userID, slot, now, next, "")
		if err != nil {
			return err
		}
		if kind == store.PomodoroWork {
			slot.Engine.StartStudySession(time.Duration(minutes) * time.Minute)
		} else {
			slot.Engine.UpdateActivity(timeengine.ActivityBreak)
		}
		if err := s.refreshTotals(slot.RecordID); err != nil {
			return err
		}

		p, err = s.store.StartPomodoro(userID, slot.RecordID, now, l.VirtualTimestamp, minutes, kind)
		if err != nil {
			return err
		}
		if s.metrics != nil {
			s.metrics.PomodoroSessions.WithLabelValues(kind, "start").Inc()
		}
		s.log.Info("pomodoro started", "user_id", userID, "session_id", p.ID, "type", kind, "minutes", minutes)
		return nil
	})
	return p, err
}

// EndPomodoro finishes the user's running session and returns to rest.
// actualMinutes <= 0 uses the elapsed real time; an empty status means
// completed. Non-empty notes are stored on the session.
func (s *Service) EndPomodoro(userID, sessionID int64, actualMinutes int, status, notes string) (*store.PomodoroSession, error) {
	if status == "" {
		status = store.PomodoroCompleted
	}
	if status != store.PomodoroCompleted && status != store.PomodoroCancelled {
		return nil, fmt.Errorf("invalid pomodoro status %q", status)
	}

	var p *store.PomodoroSession
	err := s.reg.Do(userID, func(slot *Slot) error {
		sess, err := s.store.GetPomodoro(sessionID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrNoSession
		}
		if err != nil {
			return err
		}
		if sess.UserID != userID || sess.Status != store.PomodoroRunning {
			return ErrNoSession
		}
		if _, err := s.ensure(userID, slot); err != nil {
			return err
		}

		now := s.clock.Now()
		l, err := s.closeInterval(userID, slot, now, timeengine.ActivityRest, "")
		if err != nil {
			return err
		}
		if sess.SessionType == store.PomodoroWork {
			slot.Engine.EndStudySession()
		}
		slot.Engine.UpdateActivity(timeengine.ActivityRest)

		if actualMinutes <= 0 {
			actualMinutes = int(now.Sub(sess.StartTime).Round(time.Minute).Minutes())
		}
		err = s.store.EndPomodoro(sess.ID, now, l.VirtualTimestamp, actualMinutes, status)
		if errors.Is(err, store.ErrConflict) {
			return ErrNoSession
		}
		if err != nil {
			return err
		}
		if notes != "" {
			if err := s.store.UpdatePomodoroNotes(sess.ID, notes); err != nil {
				return err
			}
		}
		if err := s.refreshTotals(slot.RecordID); err != nil {
			return err
		}
		if s.metrics != nil {
			s.metrics.PomodoroSessions.WithLabelValues(sess.SessionType, status).Inc()
		}
		s.log.Info("pomodoro ended", "user_id", userID, "session_id", sess.ID, "status", status, "minutes", actualMinutes)

		p, err = s.store.GetPomodoro(sess.ID)
		return err
	})
	return p, err
}

// ensure makes sure the slot holds the user's running engine, rebuilding
// it from storage when the process restarted since the wake.
func (s *Service) ensure(userID int64, slot *Slot) (*store.DailyRecord, error) {
	if slot.Engine != nil {
		return s.store.GetDailyRecordByID(slot.RecordID)
	}

	rec, err := s.store.LatestAwakeRecord(userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotAwake
	}
	if err != nil {
		return nil, err
	}
	if rec.RealWake == nil || rec.VirtualWake == nil {
		return nil, ErrNotAwake
	}

	eng := timeengine.New(s.dayConfig(userID, rec), s.clock)
	last, err := s.store.LatestTimeLog(rec.ID)
	if err != nil {
		return nil, err
	}
	realAt, virtualAt := *rec.RealWake, *rec.VirtualWake
	if last != nil {
		realAt, virtualAt = last.RealTimestamp, last.VirtualTimestamp
	}
	eng.Resume(realAt, virtualAt, rec.EntertainmentMultiplier)
	if last != nil {
		eng.UpdateActivity(timeengine.Activity(last.NextActivity))
	}

	running, err := s.store.RunningPomodoro(userID)
	if err != nil {
		return nil, err
	}
	if running != nil && running.SessionType == store.PomodoroWork {
		eng.ResumeStudySession(running.StartTime, time.Duration(running.PlannedMinutes)*time.Minute)
	}

	slot.set(eng, rec.ID, realAt, virtualAt)
	if s.metrics != nil {
		s.metrics.EngineRebuilds.Inc()
		s.metrics.ActiveEngines.Inc()
	}
	s.log.Info("engine rebuilt", "user_id", userID, "date", rec.Date, "activity", eng.Activity())
	return rec, nil
}

// closeInterval reconciles the engine at now and stores the interval since
// the previous log. The logged speed is the mean speed over the interval.
func (s *Service) closeInterval(userID int64, slot *Slot, now time.Time, next timeengine.Activity, app string) (*store.TimeLog, error) {
	prev := slot.Engine.Activity()
	v, display := slot.Engine.VirtualTime(now)

	realDur := now.Sub(slot.intervalReal)
	if realDur < 0 {
		realDur = 0
		now = slot.intervalReal
	}
	virtualDur := v.Sub(slot.intervalVirtual)
	speed := slot.Engine.CurrentSpeed()
	if realDur > 0 {
		speed = virtualDur.Seconds() / realDur.Seconds()
	}

	l, err := s.store.AddTimeLog(store.TimeLog{
		UserID:             userID,
		DailyRecordID:      slot.RecordID,
		RealTimestamp:      now,
		VirtualTimestamp:   v,
		VirtualTimeDisplay: display,
		Activity:           string(prev),
		NextActivity:       string(next),
		Speed:              speed,
		DurationSeconds:    int64(realDur.Seconds()),
		AppName:            app,
	})
	if err != nil {
		return nil, err
	}
	slot.intervalReal = now
	slot.intervalVirtual = v

	if s.metrics != nil {
		minutes := realDur.Minutes()
		s.metrics.RecordInterval(string(timeengine.Category(prev)), minutes, minutes*speed)
	}
	return l, nil
}

func (s *Service) dayStats(recordID int64) (timeengine.DailyStats, error) {
	logs, err := s.store.ListTimeLogs(recordID)
	if err != nil {
		return timeengine.DailyStats{}, err
	}
	return timeengine.Aggregate(store.Intervals(logs)), nil
}

func (s *Service) refreshTotals(recordID int64) error {
	stats, err := s.dayStats(recordID)
	if err != nil {
		return err
	}
	return s.store.UpdateTotals(recordID, stats)
}
