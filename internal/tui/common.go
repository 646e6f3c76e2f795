package tui

import (
	"fmt"
	"time"

	"github.com/sadopc/timesetor/internal/session"
	"github.com/sadopc/timesetor/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewClock viewState = iota
	viewReports
	viewPomodoro
	viewSettings
)

var viewNames = []string{"Clock", "Reports", "Pomodoro", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

// clockMsg carries a fresh status read from the session service.
type clockMsg struct {
	status *session.Status
	err    error
}

// dayMsg carries the current day's report. A nil report means no record.
type dayMsg struct {
	report *session.DailyReport
}

// activityMsg follows a successful activity switch.
type activityMsg struct {
	result *session.ActivityResult
}

type wokeMsg struct {
	result *session.WakeResult
}

type sleptMsg struct {
	result *session.SleepResult
}

type pomodoroStartedMsg struct {
	session *store.PomodoroSession
}

type pomodoroEndedMsg struct {
	session *store.PomodoroSession
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func secondsDuration(secs int64) time.Duration {
	return time.Duration(secs) * time.Second
}

func formatMinutes(minutes float64) string {
	return formatDuration(time.Duration(minutes * float64(time.Minute)))
}

func formatHours(minutes float64) string {
	return fmt.Sprintf("%.1fh", minutes/60)
}

func errStatus(err error) statusMsg {
	return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
}
