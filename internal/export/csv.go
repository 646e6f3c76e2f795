package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

// ToCSV writes one row per time log.
func ToCSV(days []Day, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"Date", "Log ID", "Real End", "Virtual End", "Activity", "Speed", "Duration (s)", "Duration", "Virtual Duration", "App", "Notes"}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, d := range days {
		for _, l := range d.Logs {
			virtual := int64(float64(l.DurationSeconds) * l.Speed)
			row := []string{
				d.Record.Date,
				strconv.FormatInt(l.ID, 10),
				l.RealTimestamp.Format(time.RFC3339),
				l.VirtualTimeDisplay,
				l.Activity,
				strconv.FormatFloat(l.Speed, 'f', 3, 64),
				strconv.FormatInt(l.DurationSeconds, 10),
				formatDuration(l.DurationSeconds),
				formatDuration(virtual),
				l.AppName,
				l.Notes,
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}
