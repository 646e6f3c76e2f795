package store

import (
	"database/sql"
	"fmt"
	"time"
)

// RegisterDevice upserts a device and marks it active at now.
func (s *Store) RegisterDevice(userID int64, deviceID, name, kind string, now time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO devices (user_id, device_id, device_name, device_type, last_active)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, device_id) DO UPDATE SET last_active = excluded.last_active`,
		userID, deviceID, name, kind, formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("register device: %w", err)
	}
	return nil
}

// ListDevices returns the user's devices, most recently active first.
func (s *Store) ListDevices(userID int64) ([]Device, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, device_id, device_name, device_type, last_active
		 FROM devices WHERE user_id = ? ORDER BY last_active DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		var d Device
		var lastActive string
		if err := rows.Scan(&d.ID, &d.UserID, &d.DeviceID, &d.Name, &d.Type, &lastActive); err != nil {
			return nil, err
		}
		d.LastActive = parseTime(lastActive)
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

func (s *Store) AddAppUsage(u AppUsage) (*AppUsage, error) {
	res, err := s.db.Exec(
		`INSERT INTO app_usage_logs (user_id, device_id, app_package, app_name, start_time,
		        end_time, duration_seconds, activity_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.UserID, u.DeviceID, u.AppPackage, u.AppName, formatTime(u.StartTime),
		formatTimePtr(u.EndTime), u.DurationSeconds, u.Activity,
	)
	if err != nil {
		return nil, fmt.Errorf("add app usage: %w", err)
	}
	u.ID, _ = res.LastInsertId()
	return &u, nil
}

// ListAppUsage returns usage that started in [from, to).
func (s *Store) ListAppUsage(userID int64, from, to time.Time) ([]AppUsage, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, device_id, app_package, app_name, start_time, end_time,
		        duration_seconds, activity_type
		 FROM app_usage_logs WHERE user_id = ? AND start_time >= ? AND start_time < ?
		 ORDER BY start_time`,
		userID, formatTime(from), formatTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("list app usage: %w", err)
	}
	defer rows.Close()

	var out []AppUsage
	for rows.Next() {
		var u AppUsage
		var start string
		var end sql.NullString
		if err := rows.Scan(&u.ID, &u.UserID, &u.DeviceID, &u.AppPackage, &u.AppName,
			&start, &end, &u.DurationSeconds, &u.Activity); err != nil {
			return nil, err
		}
		u.StartTime = parseTime(start)
		u.EndTime = parseNullTime(end)
		out = append(out, u)
	}
	return out, rows.Err()
}
