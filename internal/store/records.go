package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sadopc/timesetor/internal/timeengine"
)

// ErrConflict is returned when a conditional update found the row in the
// wrong state.
var ErrConflict = errors.New("conflict")

const recordColumns = `id, user_id, date, real_wake_time, real_sleep_time,
	virtual_wake_time, virtual_sleep_time, virtual_wake_time_display,
	virtual_sleep_time_display, expected_sleep_time,
	target_entertainment_hours, target_study_hours,
	actual_entertainment_minutes, actual_study_minutes, actual_rest_minutes,
	virtual_entertainment_minutes, virtual_study_minutes, virtual_rest_minutes,
	entertainment_multiplier, engine_config, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*DailyRecord, error) {
	r := &DailyRecord{}
	var realWake, realSleep, virtualWake, virtualSleep, expectedSleep sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(&r.ID, &r.UserID, &r.Date, &realWake, &realSleep,
		&virtualWake, &virtualSleep, &r.VirtualWakeDisplay,
		&r.VirtualSleepDisplay, &expectedSleep,
		&r.TargetEntertainmentHours, &r.TargetStudyHours,
		&r.ActualEntertainmentMinutes, &r.ActualStudyMinutes, &r.ActualRestMinutes,
		&r.VirtualEntertainmentMinutes, &r.VirtualStudyMinutes, &r.VirtualRestMinutes,
		&r.EntertainmentMultiplier, &r.EngineConfig, &r.Status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	r.RealWake = parseNullTime(realWake)
	r.RealSleep = parseNullTime(realSleep)
	r.VirtualWake = parseNullTime(virtualWake)
	r.VirtualSleep = parseNullTime(virtualSleep)
	r.ExpectedSleep = parseNullTime(expectedSleep)
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	return r, nil
}

func (s *Store) queryRecord(what, query string, args ...any) (*DailyRecord, error) {
	r, err := scanRecord(s.db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get daily record %s: %w", what, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get daily record %s: %w", what, err)
	}
	return r, nil
}

func (s *Store) queryRecords(query string, args ...any) ([]DailyRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list daily records: %w", err)
	}
	defer rows.Close()

	var records []DailyRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// GetOrCreateDailyRecord returns the user's record for date, inserting a
// pending one if none exists.
func (s *Store) GetOrCreateDailyRecord(userID int64, date string) (*DailyRecord, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO daily_records (user_id, date, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, date) DO NOTHING`,
		userID, date, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create daily record: %w", err)
	}
	return s.GetDailyRecord(userID, date)
}

func (s *Store) GetDailyRecord(userID int64, date string) (*DailyRecord, error) {
	return s.queryRecord(date,
		`SELECT `+recordColumns+` FROM daily_records WHERE user_id = ? AND date = ?`, userID, date)
}

func (s *Store) GetDailyRecordByID(id int64) (*DailyRecord, error) {
	return s.queryRecord(fmt.Sprint(id),
		`SELECT `+recordColumns+` FROM daily_records WHERE id = ?`, id)
}

// LatestAwakeRecord returns the user's most recent day that has a wake but
// no sleep, which may be dated yesterday when the user stays up past
// midnight.
func (s *Store) LatestAwakeRecord(userID int64) (*DailyRecord, error) {
	return s.queryRecord("awake",
		`SELECT `+recordColumns+` FROM daily_records
		 WHERE user_id = ? AND status = ?
		 ORDER BY date DESC LIMIT 1`, userID, StatusAwake)
}

// LastSleep returns the real and virtual sleep of the most recent day
// before date that has one.
func (s *Store) LastSleep(userID int64, before string) (realSleep, virtualSleep *time.Time, err error) {
	var real, virtual sql.NullString
	err = s.db.QueryRow(
		`SELECT real_sleep_time, virtual_sleep_time FROM daily_records
		 WHERE user_id = ? AND date < ? AND real_sleep_time IS NOT NULL
		 ORDER BY date DESC LIMIT 1`, userID, before,
	).Scan(&real, &virtual)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("last sleep: %w", err)
	}
	return parseNullTime(real), parseNullTime(virtual), nil
}

// RecentRecords returns up to n of the user's latest records, newest first.
func (s *Store) RecentRecords(userID int64, n int) ([]DailyRecord, error) {
	return s.queryRecords(
		`SELECT `+recordColumns+` FROM daily_records WHERE user_id = ? ORDER BY date DESC LIMIT ?`,
		userID, n)
}

// RecordsBetween returns the records with from <= date <= to, oldest first.
func (s *Store) RecordsBetween(userID int64, from, to string) ([]DailyRecord, error) {
	return s.queryRecords(
		`SELECT `+recordColumns+` FROM daily_records
		 WHERE user_id = ? AND date >= ? AND date <= ? ORDER BY date`,
		userID, from, to)
}

// Wake holds the values written when a day starts.
type Wake struct {
	RealWake                 time.Time
	VirtualWake              time.Time
	VirtualWakeDisplay       string
	ExpectedSleep            time.Time
	TargetEntertainmentHours float64
	TargetStudyHours         float64
	EntertainmentMultiplier  float64
	// EngineConfig is the encoded configuration the day's engine runs with.
	EngineConfig string
}

// RecordWake starts the day. It fails with ErrConflict when the record
// already has a wake time.
func (s *Store) RecordWake(recordID int64, w Wake) error {
	res, err := s.db.Exec(
		`UPDATE daily_records SET real_wake_time = ?, virtual_wake_time = ?,
		        virtual_wake_time_display = ?, expected_sleep_time = ?,
		        target_entertainment_hours = ?, target_study_hours = ?,
		        entertainment_multiplier = ?, engine_config = ?, status = ?, updated_at = ?
		 WHERE id = ? AND real_wake_time IS NULL`,
		formatTime(w.RealWake), formatTime(w.VirtualWake), w.VirtualWakeDisplay,
		formatTime(w.ExpectedSleep), w.TargetEntertainmentHours, w.TargetStudyHours,
		w.EntertainmentMultiplier, w.EngineConfig, StatusAwake, time.Now().UTC().Format(time.RFC3339),
		recordID,
	)
	if err != nil {
		return fmt.Errorf("record wake: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("record wake %d: %w", recordID, ErrConflict)
	}
	return nil
}

// RecordSleep closes the day with its final totals. It fails with
// ErrConflict unless the day is awake.
func (s *Store) RecordSleep(recordID int64, realSleep, virtualSleep time.Time, display string, stats timeengine.DailyStats) error {
	return s.closeDay(recordID, StatusCompleted, realSleep, virtualSleep, display, stats)
}

// AbandonDay closes a day whose sleep was never recorded. The sleep times
// are the service's best estimate.
func (s *Store) AbandonDay(recordID int64, realSleep, virtualSleep time.Time, display string, stats timeengine.DailyStats) error {
	return s.closeDay(recordID, StatusAbandoned, realSleep, virtualSleep, display, stats)
}

func (s *Store) closeDay(recordID int64, status string, realSleep, virtualSleep time.Time, display string, stats timeengine.DailyStats) error {
	res, err := s.db.Exec(
		`UPDATE daily_records SET real_sleep_time = ?, virtual_sleep_time = ?,
		        virtual_sleep_time_display = ?, status = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		formatTime(realSleep), formatTime(virtualSleep), display, status,
		time.Now().UTC().Format(time.RFC3339), recordID, StatusAwake,
	)
	if err != nil {
		return fmt.Errorf("close day %s: %w", status, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("close day %d: %w", recordID, ErrConflict)
	}
	return s.UpdateTotals(recordID, stats)
}

// UpdateTotals overwrites the day's per-category minutes.
func (s *Store) UpdateTotals(recordID int64, stats timeengine.DailyStats) error {
	_, err := s.db.Exec(
		`UPDATE daily_records SET
		        actual_entertainment_minutes = ?, actual_study_minutes = ?, actual_rest_minutes = ?,
		        virtual_entertainment_minutes = ?, virtual_study_minutes = ?, virtual_rest_minutes = ?,
		        updated_at = ?
		 WHERE id = ?`,
		stats.Entertainment.RealMinutes, stats.Study.RealMinutes, stats.Rest.RealMinutes,
		stats.Entertainment.VirtualMinutes, stats.Study.VirtualMinutes, stats.Rest.VirtualMinutes,
		time.Now().UTC().Format(time.RFC3339), recordID,
	)
	if err != nil {
		return fmt.Errorf("update totals: %w", err)
	}
	return nil
}

// SetMultiplier stores a replaced entertainment multiplier.
func (s *Store) SetMultiplier(recordID int64, m float64) error {
	_, err := s.db.Exec(
		`UPDATE daily_records SET entertainment_multiplier = ?, updated_at = ? WHERE id = ?`,
		m, time.Now().UTC().Format(time.RFC3339), recordID,
	)
	if err != nil {
		return fmt.Errorf("set multiplier: %w", err)
	}
	return nil
}
