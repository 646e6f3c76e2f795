package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/timesetor/internal/session"
	"github.com/sadopc/timesetor/internal/timeengine"
)

// clockModel mirrors the user's virtual clock as last read from the session
// service. The app polls it once per tick.
type clockModel struct {
	sessions *session.Service
	userID   int64

	status *session.Status
	err    error
}

func newClockModel(s *session.Service, userID int64) clockModel {
	return clockModel{sessions: s, userID: userID}
}

func (c clockModel) poll() tea.Cmd {
	return func() tea.Msg {
		st, err := c.sessions.Current(c.userID)
		return clockMsg{status: st, err: err}
	}
}

func (c *clockModel) apply(msg clockMsg) {
	c.err = msg.err
	if msg.err == nil {
		c.status = msg.status
	}
}

func (c clockModel) awake() bool {
	return c.status != nil && c.status.State == session.StateAwake
}

func (c clockModel) activity() timeengine.Activity {
	if !c.awake() {
		return timeengine.ActivitySleep
	}
	return c.status.Activity
}

func (c clockModel) speed() float64 {
	if !c.awake() {
		return 0
	}
	return c.status.Speed
}

// virtual returns the virtual wall time, or "--:--:--" while asleep.
func (c clockModel) virtual() string {
	if !c.awake() {
		return "--:--:--"
	}
	return c.status.VirtualTime.Format("15:04:05")
}

func (c clockModel) real() time.Time {
	if c.status == nil {
		return c.sessions.Clock().Now()
	}
	return c.status.RealTime
}
