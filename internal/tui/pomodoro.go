package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/timesetor/internal/config"
	"github.com/sadopc/timesetor/internal/session"
	"github.com/sadopc/timesetor/internal/store"
)

type pomodoroPhase int

const (
	pomodoroIdle pomodoroPhase = iota
	pomodoroWork
	pomodoroShortBreak
	pomodoroLongBreak
	pomodoroCompleted
)

var phaseNames = map[pomodoroPhase]string{
	pomodoroIdle:       "IDLE",
	pomodoroWork:       "WORK",
	pomodoroShortBreak: "SHORT BREAK",
	pomodoroLongBreak:  "LONG BREAK",
	pomodoroCompleted:  "COMPLETED",
}

// phaseKinds maps running phases onto stored session types.
var phaseKinds = map[pomodoroPhase]string{
	pomodoroWork:       store.PomodoroWork,
	pomodoroShortBreak: store.PomodoroShortBreak,
	pomodoroLongBreak:  store.PomodoroLongBreak,
}

// pomodoroModel runs a cycle of work sessions and breaks. Each phase is a
// separate session on the user's day, so work phases run the study curve
// and breaks run at break speed.
type pomodoroModel struct {
	sessions *session.Service
	cfg      *config.Holder
	userID   int64
	width    int
	height   int

	phase          pomodoroPhase
	completedCount int
	targetCount    int

	remaining time.Duration
	phaseEnd  time.Time

	workDuration      time.Duration
	breakDuration     time.Duration
	longBreakDuration time.Duration

	sessionID int64
}

func newPomodoroModel(s *session.Service, cfg *config.Holder, userID int64) pomodoroModel {
	m := pomodoroModel{
		sessions: s,
		cfg:      cfg,
		userID:   userID,
		phase:    pomodoroIdle,
	}
	m.loadSettings()
	return m
}

func (p *pomodoroModel) loadSettings() {
	pc := p.cfg.Get().Pomodoro
	p.workDuration = time.Duration(pc.WorkMinutes) * time.Minute
	p.breakDuration = time.Duration(pc.ShortBreakMinutes) * time.Minute
	p.longBreakDuration = time.Duration(pc.LongBreakMinutes) * time.Minute
	p.targetCount = pc.SessionsBeforeLongBreak
	if p.targetCount < 1 {
		p.targetCount = 1
	}
}

func (p *pomodoroModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

func (p pomodoroModel) running() bool {
	return p.phase == pomodoroWork || p.phase == pomodoroShortBreak || p.phase == pomodoroLongBreak
}

func (p pomodoroModel) update(msg tea.Msg) (pomodoroModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if p.running() {
			p.remaining = p.phaseEnd.Sub(p.sessions.Clock().Now())
			if p.remaining <= 0 {
				return p.advancePhase()
			}
		}
		return p, nil

	case sleptMsg:
		// Sleep cancels the running session on the server side.
		if p.running() {
			p.phase = pomodoroIdle
			p.sessionID = 0
			p.remaining = 0
		}
		return p, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Start):
			if p.phase == pomodoroIdle || p.phase == pomodoroCompleted {
				return p.startCycle()
			}
		case key.Matches(msg, keys.Stop):
			if p.running() {
				return p.cancelSession()
			}
		case key.Matches(msg, keys.Enter):
			// Skip the break; after a long break this ends the cycle.
			if p.phase == pomodoroShortBreak || p.phase == pomodoroLongBreak {
				return p.advancePhase()
			}
		}
	}
	return p, nil
}

func (p pomodoroModel) startCycle() (pomodoroModel, tea.Cmd) {
	p.completedCount = 0
	p.loadSettings()
	return p.startPhase(pomodoroWork)
}

func (p pomodoroModel) phaseDuration(phase pomodoroPhase) time.Duration {
	switch phase {
	case pomodoroShortBreak:
		return p.breakDuration
	case pomodoroLongBreak:
		return p.longBreakDuration
	}
	return p.workDuration
}

func (p pomodoroModel) startPhase(phase pomodoroPhase) (pomodoroModel, tea.Cmd) {
	d := p.phaseDuration(phase)
	sess, err := p.sessions.StartPomodoro(p.userID, int(d.Minutes()), phaseKinds[phase])
	if err != nil {
		p.phase = pomodoroIdle
		p.sessionID = 0
		if errors.Is(err, session.ErrNotAwake) {
			return p, statusCmd("Press w on the clock view to start the day first", true)
		}
		return p, func() tea.Msg { return errStatus(err) }
	}

	p.phase = phase
	p.sessionID = sess.ID
	p.remaining = d
	p.phaseEnd = sess.StartTime.Add(d)
	return p, func() tea.Msg { return pomodoroStartedMsg{session: sess} }
}

// endPhase closes the running session. On failure the cycle is reset.
func (p pomodoroModel) endPhase(status string) (pomodoroModel, tea.Cmd) {
	if p.sessionID == 0 {
		return p, nil
	}
	sess, err := p.sessions.EndPomodoro(p.userID, p.sessionID, 0, status, "")
	p.sessionID = 0
	if err != nil {
		p.phase = pomodoroIdle
		p.remaining = 0
		return p, func() tea.Msg { return errStatus(err) }
	}
	return p, func() tea.Msg { return pomodoroEndedMsg{session: sess} }
}

func (p pomodoroModel) advancePhase() (pomodoroModel, tea.Cmd) {
	if !p.running() {
		return p, nil
	}
	finished := p.phase
	var ended, next tea.Cmd
	p, ended = p.endPhase(store.PomodoroCompleted)
	if p.phase == pomodoroIdle {
		return p, ended
	}

	switch finished {
	case pomodoroWork:
		p.completedCount++
		if p.completedCount >= p.targetCount {
			p, next = p.startPhase(pomodoroLongBreak)
			return p, tea.Batch(ended, next, statusCmd("Long break earned! \a", false))
		}
		p, next = p.startPhase(pomodoroShortBreak)
		return p, tea.Batch(ended, next, statusCmd("Break time! \a", false))

	case pomodoroShortBreak:
		p, next = p.startPhase(pomodoroWork)
		return p, tea.Batch(ended, next)
	}

	p.phase = pomodoroCompleted
	p.remaining = 0
	return p, tea.Batch(ended, statusCmd("Pomodoro cycle complete! \a", false))
}

func (p pomodoroModel) cancelSession() (pomodoroModel, tea.Cmd) {
	p, ended := p.endPhase(store.PomodoroCancelled)
	p.phase = pomodoroIdle
	p.remaining = 0
	return p, tea.Batch(ended, statusCmd("Pomodoro cancelled", false))
}

func (p pomodoroModel) view() string {
	w := p.width - 4

	title := titleStyle.Render("Pomodoro")

	var timeDisplay string
	var phaseLabel string
	var indicator string

	switch p.phase {
	case pomodoroIdle:
		timeDisplay = clockStyle.Width(w - 6).Render(formatPomodoroTime(p.workDuration))
		phaseLabel = mutedStyle.Render("Ready to start")
		indicator = mutedStyle.Render("Press s to begin")
	case pomodoroWork:
		timeDisplay = accentStyle.Bold(true).Width(w - 6).Align(lipgloss.Center).Render(formatPomodoroTime(p.remaining))
		phaseLabel = accentStyle.Bold(true).Render(phaseNames[p.phase])
		indicator = p.renderProgress()
	case pomodoroShortBreak:
		timeDisplay = successStyle.Bold(true).Width(w - 6).Align(lipgloss.Center).Render(formatPomodoroTime(p.remaining))
		phaseLabel = successStyle.Bold(true).Render(phaseNames[p.phase])
		indicator = p.renderProgress()
	case pomodoroLongBreak:
		timeDisplay = highlightStyle.Bold(true).Width(w - 6).Align(lipgloss.Center).Render(formatPomodoroTime(p.remaining))
		phaseLabel = highlightStyle.Bold(true).Render(phaseNames[p.phase])
		indicator = p.renderProgress()
	case pomodoroCompleted:
		timeDisplay = successStyle.Bold(true).Width(w - 6).Align(lipgloss.Center).Render("Done!")
		phaseLabel = successStyle.Bold(true).Render("CYCLE COMPLETE")
		indicator = p.renderProgress()
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		title,
		"",
		timeDisplay,
		phaseLabel,
		"",
		indicator,
	)

	var controls string
	switch p.phase {
	case pomodoroIdle, pomodoroCompleted:
		controls = mutedStyle.Render("s: start  q: quit")
	case pomodoroWork:
		controls = mutedStyle.Render("x: cancel")
	case pomodoroShortBreak, pomodoroLongBreak:
		controls = mutedStyle.Render("enter: skip break  x: cancel")
	}

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center, content, "", controls),
	)
}

func (p pomodoroModel) renderProgress() string {
	var parts []string
	for i := 0; i < p.targetCount; i++ {
		if i < p.completedCount {
			parts = append(parts, successStyle.Render("●"))
		} else if i == p.completedCount && p.phase == pomodoroWork {
			parts = append(parts, accentStyle.Render("◐"))
		} else {
			parts = append(parts, mutedStyle.Render("○"))
		}
	}
	progress := strings.Join(parts, " ")
	counter := mutedStyle.Render(fmt.Sprintf("  %d/%d", p.completedCount, p.targetCount))
	return progress + counter
}

func formatPomodoroTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}
