package session

import (
	"errors"
	"time"

	"github.com/sadopc/timesetor/internal/store"
	"github.com/sadopc/timesetor/internal/timeengine"
)

// DailyReport is one day with everything logged against it.
type DailyReport struct {
	Record            *store.DailyRecord      `json:"record"`
	Logs              []store.TimeLog         `json:"time_logs"`
	Pomodoros         []store.PomodoroSession `json:"pomodoro_sessions"`
	Stats             timeengine.DailyStats   `json:"stats"`
	RealAwakeHours    float64                 `json:"real_awake_hours,omitempty"`
	VirtualAwakeHours float64                 `json:"virtual_awake_hours,omitempty"`
}

// Daily returns the report for date (YYYY-MM-DD). An empty date means the
// service clock's current date.
func (s *Service) Daily(userID int64, date string) (*DailyReport, error) {
	if date == "" {
		date = s.clock.Now().Format(store.DateLayout)
	}
	if _, err := time.Parse(store.DateLayout, date); err != nil {
		return nil, err
	}
	rec, err := s.store.GetDailyRecord(userID, date)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, err
	}
	return s.report(rec)
}

// Today returns the report for the running day, or for the clock's date
// when the user is not awake. A day that started before midnight stays
// today until the user sleeps.
func (s *Service) Today(userID int64) (*DailyReport, error) {
	rec, err := s.store.LatestAwakeRecord(userID)
	if errors.Is(err, store.ErrNotFound) {
		return s.Daily(userID, "")
	}
	if err != nil {
		return nil, err
	}
	return s.report(rec)
}

func (s *Service) report(rec *store.DailyRecord) (*DailyReport, error) {
	logs, err := s.store.ListTimeLogs(rec.ID)
	if err != nil {
		return nil, err
	}
	pomodoros, err := s.store.ListPomodoros(rec.ID)
	if err != nil {
		return nil, err
	}
	r := &DailyReport{
		Record:    rec,
		Logs:      logs,
		Pomodoros: pomodoros,
		Stats:     timeengine.Aggregate(store.Intervals(logs)),
	}
	if rec.RealWake != nil && rec.RealSleep != nil && rec.VirtualWake != nil && rec.VirtualSleep != nil {
		r.RealAwakeHours, r.VirtualAwakeHours = timeengine.AwakeHours(*rec.RealWake, *rec.RealSleep, *rec.VirtualWake, *rec.VirtualSleep)
	}
	return r, nil
}

// WeeklyReport covers the user's last seven recorded days, newest first.
type WeeklyReport struct {
	Records []store.DailyRecord   `json:"records"`
	Totals  timeengine.DailyStats `json:"totals"`
	Days    int                   `json:"days"`
}

func (s *Service) Weekly(userID int64) (*WeeklyReport, error) {
	recs, err := s.store.RecentRecords(userID, 7)
	if err != nil {
		return nil, err
	}
	r := &WeeklyReport{Records: recs, Days: len(recs)}
	if r.Records == nil {
		r.Records = []store.DailyRecord{}
	}
	for i := range recs {
		r.Totals = r.Totals.Add(RecordStats(&recs[i]))
	}
	return r, nil
}

// RecordStats reads the persisted totals of a record.
func RecordStats(rec *store.DailyRecord) timeengine.DailyStats {
	return timeengine.DailyStats{
		Entertainment: timeengine.Totals{RealMinutes: rec.ActualEntertainmentMinutes, VirtualMinutes: rec.VirtualEntertainmentMinutes},
		Study:         timeengine.Totals{RealMinutes: rec.ActualStudyMinutes, VirtualMinutes: rec.VirtualStudyMinutes},
		Rest:          timeengine.Totals{RealMinutes: rec.ActualRestMinutes, VirtualMinutes: rec.VirtualRestMinutes},
	}
}
