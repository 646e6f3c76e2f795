package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/timesetor/internal/store"
	"github.com/sadopc/timesetor/internal/timeengine"
)

type jsonExport struct {
	ExportedAt string    `json:"exported_at"`
	Count      int       `json:"count"`
	Days       []jsonDay `json:"days"`
}

type jsonDay struct {
	Date                string                `json:"date"`
	Status              string                `json:"status"`
	RealWake            string                `json:"real_wake_time,omitempty"`
	RealSleep           string                `json:"real_sleep_time,omitempty"`
	VirtualWakeDisplay  string                `json:"virtual_wake_time_display,omitempty"`
	VirtualSleepDisplay string                `json:"virtual_sleep_time_display,omitempty"`
	Multiplier          float64               `json:"entertainment_multiplier"`
	Stats               timeengine.DailyStats `json:"stats"`
	Logs                []jsonLog             `json:"time_logs"`
}

type jsonLog struct {
	ID          int64   `json:"id"`
	RealEnd     string  `json:"real_end"`
	VirtualEnd  string  `json:"virtual_end"`
	Activity    string  `json:"activity"`
	Speed       float64 `json:"speed"`
	DurationSec int64   `json:"duration_seconds"`
	Duration    string  `json:"duration"`
	App         string  `json:"app,omitempty"`
}

func ToJSON(days []Day, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(days),
		Days:       []jsonDay{},
	}

	for _, d := range days {
		r := d.Record
		day := jsonDay{
			Date:                r.Date,
			Status:              r.Status,
			RealWake:            formatTime(r.RealWake),
			RealSleep:           formatTime(r.RealSleep),
			VirtualWakeDisplay:  r.VirtualWakeDisplay,
			VirtualSleepDisplay: r.VirtualSleepDisplay,
			Multiplier:          r.EntertainmentMultiplier,
			Stats:               timeengine.Aggregate(store.Intervals(d.Logs)),
			Logs:                []jsonLog{},
		}
		for _, l := range d.Logs {
			day.Logs = append(day.Logs, jsonLog{
				ID:          l.ID,
				RealEnd:     l.RealTimestamp.Format(time.RFC3339),
				VirtualEnd:  l.VirtualTimeDisplay,
				Activity:    l.Activity,
				Speed:       l.Speed,
				DurationSec: l.DurationSeconds,
				Duration:    formatDuration(l.DurationSeconds),
				App:         l.AppName,
			})
		}
		export.Days = append(export.Days, day)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
