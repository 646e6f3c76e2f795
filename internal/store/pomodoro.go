package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const pomodoroColumns = `id, user_id, daily_record_id, start_time, end_time,
	planned_duration_minutes, actual_duration_minutes, session_type,
	virtual_start_time, virtual_end_time, status, notes`

func scanPomodoro(row rowScanner) (*PomodoroSession, error) {
	p := &PomodoroSession{}
	var startTime string
	var endTime, virtualStart, virtualEnd sql.NullString
	err := row.Scan(&p.ID, &p.UserID, &p.DailyRecordID, &startTime, &endTime,
		&p.PlannedMinutes, &p.ActualMinutes, &p.SessionType,
		&virtualStart, &virtualEnd, &p.Status, &p.Notes)
	if err != nil {
		return nil, err
	}
	p.StartTime = parseTime(startTime)
	p.EndTime = parseNullTime(endTime)
	p.VirtualStart = parseNullTime(virtualStart)
	p.VirtualEnd = parseNullTime(virtualEnd)
	return p, nil
}

// StartPomodoro inserts a running session.
func (s *Store) StartPomodoro(userID, recordID int64, start, virtualStart time.Time, plannedMinutes int, sessionType string) (*PomodoroSession, error) {
	res, err := s.db.Exec(
		`INSERT INTO pomodoro_sessions (user_id, daily_record_id, start_time, planned_duration_minutes,
		        session_type, virtual_start_time, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, recordID, formatTime(start), plannedMinutes, sessionType,
		formatTime(virtualStart), PomodoroRunning,
	)
	if err != nil {
		return nil, fmt.Errorf("start pomodoro: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetPomodoro(id)
}

func (s *Store) GetPomodoro(id int64) (*PomodoroSession, error) {
	p, err := scanPomodoro(s.db.QueryRow(
		`SELECT `+pomodoroColumns+` FROM pomodoro_sessions WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get pomodoro %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get pomodoro %d: %w", id, err)
	}
	return p, nil
}

// RunningPomodoro returns the user's running session, or nil.
func (s *Store) RunningPomodoro(userID int64) (*PomodoroSession, error) {
	p, err := scanPomodoro(s.db.QueryRow(
		`SELECT `+pomodoroColumns+` FROM pomodoro_sessions
		 WHERE user_id = ? AND status = ? ORDER BY id DESC LIMIT 1`, userID, PomodoroRunning,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("running pomodoro: %w", err)
	}
	return p, nil
}

// EndPomodoro finishes a running session. It fails with ErrConflict when the
// session is not running.
func (s *Store) EndPomodoro(id int64, end, virtualEnd time.Time, actualMinutes int, status string) error {
	res, err := s.db.Exec(
		`UPDATE pomodoro_sessions SET end_time = ?, virtual_end_time = ?,
		        actual_duration_minutes = ?, status = ?
		 WHERE id = ? AND status = ?`,
		formatTime(end), formatTime(virtualEnd), actualMinutes, status, id, PomodoroRunning,
	)
	if err != nil {
		return fmt.Errorf("end pomodoro: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("end pomodoro %d: %w", id, ErrConflict)
	}
	return nil
}

func (s *Store) UpdatePomodoroNotes(id int64, notes string) error {
	_, err := s.db.Exec(`UPDATE pomodoro_sessions SET notes = ? WHERE id = ?`, notes, id)
	if err != nil {
		return fmt.Errorf("update pomodoro notes: %w", err)
	}
	return nil
}

// ListPomodoros returns the day's sessions in start order.
func (s *Store) ListPomodoros(recordID int64) ([]PomodoroSession, error) {
	rows, err := s.db.Query(
		`SELECT `+pomodoroColumns+` FROM pomodoro_sessions WHERE daily_record_id = ? ORDER BY start_time, id`,
		recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("list pomodoros: %w", err)
	}
	defer rows.Close()

	var sessions []PomodoroSession
	for rows.Next() {
		p, err := scanPomodoro(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *p)
	}
	return sessions, rows.Err()
}

// GetPomodoroStats counts completed work sessions started in [from, to).
func (s *Store) GetPomodoroStats(userID int64, from, to time.Time) (completed int, workMinutes int64, err error) {
	err = s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(actual_duration_minutes), 0)
		FROM pomodoro_sessions
		WHERE user_id = ? AND status = ? AND session_type = ?
		  AND start_time >= ? AND start_time < ?`,
		userID, PomodoroCompleted, PomodoroWork, formatTime(from), formatTime(to),
	).Scan(&completed, &workMinutes)
	return
}
