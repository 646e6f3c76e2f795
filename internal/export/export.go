package export

import (
	"fmt"
	"time"

	"github.com/sadopc/timesetor/internal/store"
)

// Day is one daily record with its time logs.
type Day struct {
	Record store.DailyRecord
	Logs   []store.TimeLog
}

// Source reads the records to export. *store.Store satisfies it.
type Source interface {
	RecordsBetween(userID int64, from, to string) ([]store.DailyRecord, error)
	ListTimeLogs(recordID int64) ([]store.TimeLog, error)
}

// Collect loads the user's days with from <= date <= to, oldest first.
func Collect(src Source, userID int64, from, to string) ([]Day, error) {
	recs, err := src.RecordsBetween(userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	days := make([]Day, 0, len(recs))
	for _, r := range recs {
		logs, err := src.ListTimeLogs(r.ID)
		if err != nil {
			return nil, fmt.Errorf("load logs for %s: %w", r.Date, err)
		}
		days = append(days, Day{Record: r, Logs: logs})
	}
	return days, nil
}

// All loads every day the user has recorded.
func All(src Source, userID int64) ([]Day, error) {
	return Collect(src, userID, "0000-01-01", "9999-12-31")
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
