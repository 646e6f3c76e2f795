package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sadopc/timesetor/internal/timeengine"
)

const timeLogColumns = `id, user_id, daily_record_id, real_timestamp, virtual_timestamp,
	virtual_time_display, activity_type, next_activity, speed_multiplier,
	duration_seconds, app_name, notes`

func scanTimeLog(row rowScanner) (*TimeLog, error) {
	l := &TimeLog{}
	var realTS, virtualTS string
	err := row.Scan(&l.ID, &l.UserID, &l.DailyRecordID, &realTS, &virtualTS,
		&l.VirtualTimeDisplay, &l.Activity, &l.NextActivity, &l.Speed,
		&l.DurationSeconds, &l.AppName, &l.Notes)
	if err != nil {
		return nil, err
	}
	l.RealTimestamp = parseTime(realTS)
	l.VirtualTimestamp = parseTime(virtualTS)
	return l, nil
}

// AddTimeLog appends a closed interval.
func (s *Store) AddTimeLog(l TimeLog) (*TimeLog, error) {
	res, err := s.db.Exec(
		`INSERT INTO time_logs (user_id, daily_record_id, real_timestamp, virtual_timestamp,
		        virtual_time_display, activity_type, next_activity, speed_multiplier,
		        duration_seconds, app_name, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.UserID, l.DailyRecordID, formatTime(l.RealTimestamp), formatTime(l.VirtualTimestamp),
		l.VirtualTimeDisplay, l.Activity, l.NextActivity, l.Speed,
		l.DurationSeconds, l.AppName, l.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("add time log: %w", err)
	}
	l.ID, _ = res.LastInsertId()
	return &l, nil
}

// ListTimeLogs returns the day's intervals in real time order.
func (s *Store) ListTimeLogs(recordID int64) ([]TimeLog, error) {
	rows, err := s.db.Query(
		`SELECT `+timeLogColumns+` FROM time_logs WHERE daily_record_id = ? ORDER BY real_timestamp, id`,
		recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("list time logs: %w", err)
	}
	defer rows.Close()

	var logs []TimeLog
	for rows.Next() {
		l, err := scanTimeLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

// LatestTimeLog returns the day's last interval, or nil if there is none.
func (s *Store) LatestTimeLog(recordID int64) (*TimeLog, error) {
	l, err := scanTimeLog(s.db.QueryRow(
		`SELECT `+timeLogColumns+` FROM time_logs WHERE daily_record_id = ?
		 ORDER BY real_timestamp DESC, id DESC LIMIT 1`, recordID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest time log: %w", err)
	}
	return l, nil
}

// Intervals converts time logs into engine intervals.
func Intervals(logs []TimeLog) []timeengine.LogInterval {
	out := make([]timeengine.LogInterval, 0, len(logs))
	for _, l := range logs {
		out = append(out, timeengine.LogInterval{
			Activity: timeengine.Activity(l.Activity),
			Duration: time.Duration(l.DurationSeconds) * time.Second,
			Speed:    l.Speed,
		})
	}
	return out
}
