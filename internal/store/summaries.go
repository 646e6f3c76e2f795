package store

import (
	"fmt"
	"time"
)

func (s *Store) AddSummary(sum Summary) (*Summary, error) {
	sum.CreatedAt = time.Now().UTC().Truncate(time.Second)
	res, err := s.db.Exec(
		`INSERT INTO ai_summaries (user_id, summary_type, period_start, period_end, summary_text, source_data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sum.UserID, sum.Type, sum.PeriodStart, sum.PeriodEnd, sum.Text, sum.SourceData,
		sum.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("add summary: %w", err)
	}
	sum.ID, _ = res.LastInsertId()
	return &sum, nil
}

// ListSummaries returns the newest summaries first. An empty kind matches
// every type.
func (s *Store) ListSummaries(userID int64, kind string, limit int) ([]Summary, error) {
	query := `SELECT id, user_id, summary_type, period_start, period_end, summary_text, source_data, created_at
		FROM ai_summaries WHERE user_id = ?`
	args := []any{userID}
	if kind != "" {
		query += ` AND summary_type = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var createdAt string
		if err := rows.Scan(&sum.ID, &sum.UserID, &sum.Type, &sum.PeriodStart, &sum.PeriodEnd,
			&sum.Text, &sum.SourceData, &createdAt); err != nil {
			return nil, err
		}
		sum.CreatedAt = parseTime(createdAt)
		out = append(out, sum)
	}
	return out, rows.Err()
}
