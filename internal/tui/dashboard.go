package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/timesetor/internal/session"
	"github.com/sadopc/timesetor/internal/timeengine"
)

const recentLogs = 6

type dashboardModel struct {
	sessions *session.Service
	userID   int64
	clock    clockModel
	width    int
	height   int

	today *session.DailyReport

	confirmSleep bool
}

func newDashboardModel(s *session.Service, userID int64) dashboardModel {
	return dashboardModel{
		sessions: s,
		userID:   userID,
		clock:    newClockModel(s, userID),
	}
}

func (d dashboardModel) Init() tea.Cmd {
	return tea.Batch(d.clock.poll(), d.loadData())
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d dashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		rep, err := d.sessions.Today(d.userID)
		if err != nil {
			return dayMsg{}
		}
		return dayMsg{report: rep}
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case clockMsg:
		d.clock.apply(msg)
		return d, nil

	case dayMsg:
		d.today = msg.report
		return d, nil

	case tickMsg:
		return d, d.clock.poll()

	case wokeMsg, sleptMsg, activityMsg, pomodoroStartedMsg, pomodoroEndedMsg:
		return d, tea.Batch(d.clock.poll(), d.loadData())

	case tea.KeyMsg:
		if d.confirmSleep {
			switch {
			case key.Matches(msg, keys.Sleep), key.Matches(msg, keys.Enter):
				d.confirmSleep = false
				return d, d.sleep()
			case key.Matches(msg, keys.Back):
				d.confirmSleep = false
			}
			return d, nil
		}

		switch {
		case key.Matches(msg, keys.Wake):
			return d, d.wake()
		case key.Matches(msg, keys.Sleep):
			if !d.clock.awake() {
				return d, statusCmd("Not awake", true)
			}
			d.confirmSleep = true
			return d, nil
		case key.Matches(msg, keys.Rest):
			return d, d.switchTo(timeengine.ActivityRest)
		case key.Matches(msg, keys.Entertainment):
			return d, d.switchTo(timeengine.ActivityEntertainment)
		case key.Matches(msg, keys.Study):
			return d, d.switchTo(timeengine.ActivityStudy)
		}
	}
	return d, nil
}

func (d dashboardModel) wake() tea.Cmd {
	return func() tea.Msg {
		res, err := d.sessions.Wake(d.userID, d.sessions.Clock().Now())
		if errors.Is(err, session.ErrAlreadyAwake) {
			return statusMsg{text: "Already awake", isError: true}
		}
		if err != nil {
			return errStatus(err)
		}
		return wokeMsg{result: res}
	}
}

func (d dashboardModel) sleep() tea.Cmd {
	return func() tea.Msg {
		res, err := d.sessions.Sleep(d.userID, d.sessions.Clock().Now())
		if err != nil {
			return errStatus(err)
		}
		return sleptMsg{result: res}
	}
}

func (d dashboardModel) switchTo(a timeengine.Activity) tea.Cmd {
	return func() tea.Msg {
		res, err := d.sessions.UpdateActivity(d.userID, a, "")
		if errors.Is(err, session.ErrNotAwake) {
			return statusMsg{text: "Press w to start the day first", isError: true}
		}
		if err != nil {
			return errStatus(err)
		}
		return activityMsg{result: res}
	}
}

func statusCmd(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: isError} }
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	clockPanel := d.renderClockPanel(contentWidth)
	statsPanel := d.renderStatsPanel(contentWidth)
	bottom := d.renderLogPanel(contentWidth)
	if d.confirmSleep {
		bottom = d.renderSleepConfirm(contentWidth)
	}

	return lipgloss.JoinVertical(lipgloss.Left, clockPanel, statsPanel, bottom)
}

func (d dashboardModel) renderClockPanel(w int) string {
	if !d.clock.awake() {
		content := lipgloss.JoinVertical(lipgloss.Center,
			clockAsleepStyle.Width(w-6).Render(d.clock.virtual()),
			mutedStyle.Render("■  ASLEEP"),
			mutedStyle.Render("Press w to record your wake time"),
		)
		return panelStyle.Width(w).Render(content)
	}

	st := d.clock.status
	act := st.Activity
	indicator := lipgloss.NewStyle().Foreground(activityColor(act)).
		Render(fmt.Sprintf("●  %s  ×%.2f", strings.ToUpper(string(act)), st.Speed))
	realLine := mutedStyle.Render("real " + d.clock.real().Format("15:04:05"))

	lines := []string{
		clockAwakeStyle.Width(w - 6).Render(d.clock.virtual()),
		indicator,
		realLine,
	}
	if st.Study.Active {
		lines = append(lines, highlightStyle.Render(fmt.Sprintf(
			"study %s / %s  (%.0f%%)",
			formatDuration(st.Study.Elapsed), formatDuration(st.Study.Planned), st.Study.Progress*100,
		)))
	}
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
}

func (d dashboardModel) renderStatsPanel(w int) string {
	title := titleStyle.Render("Today")
	if d.today == nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No record today"),
		))
	}

	rec := d.today.Record
	header := fmt.Sprintf("%s  %s", title, mutedStyle.Render(rec.Date))
	if rec.VirtualWakeDisplay != "" {
		header += mutedStyle.Render("  woke " + rec.VirtualWakeDisplay)
	}
	if rec.EntertainmentMultiplier > 0 {
		header += accentStyle.Render(fmt.Sprintf("  fun ×%.2f", rec.EntertainmentMultiplier))
	}

	rows := []string{
		header,
		mutedStyle.Render(fmt.Sprintf("  %-16s %10s %10s %8s", "", "real", "virtual", "target")),
		d.statsRow(timeengine.ActivityEntertainment, d.today.Stats.Entertainment, rec.TargetEntertainmentHours),
		d.statsRow(timeengine.ActivityStudy, d.today.Stats.Study, rec.TargetStudyHours),
		d.statsRow(timeengine.ActivityRest, d.today.Stats.Rest, 0),
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) statsRow(a timeengine.Activity, t timeengine.Totals, targetHours float64) string {
	dot := lipgloss.NewStyle().Foreground(activityColor(a)).Render("●")
	target := ""
	if targetHours > 0 {
		target = fmt.Sprintf("%.1fh", targetHours)
	}
	return fmt.Sprintf("  %s %-14s %10s %10s %8s", dot, a, formatMinutes(t.RealMinutes), formatMinutes(t.VirtualMinutes), target)
}

func (d dashboardModel) renderLogPanel(w int) string {
	title := titleStyle.Render("Recent Activity")
	if d.today == nil || len(d.today.Logs) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No activity logged yet"),
		))
	}

	logs := d.today.Logs
	if len(logs) > recentLogs {
		logs = logs[len(logs)-recentLogs:]
	}
	rows := []string{title}
	for i := len(logs) - 1; i >= 0; i-- {
		l := logs[i]
		act := timeengine.Activity(l.Activity)
		dot := lipgloss.NewStyle().Foreground(activityColor(act)).Render("●")
		rows = append(rows, fmt.Sprintf("  %s %s  %-14s ×%-5.2f %s → %s",
			dot,
			l.RealTimestamp.Format("15:04"),
			l.Activity,
			l.Speed,
			formatDuration(secondsDuration(l.DurationSeconds)),
			l.VirtualTimeDisplay,
		))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderSleepConfirm(w int) string {
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("End the day?"),
		"",
		mutedStyle.Render("  z/enter: sleep now  esc: cancel"),
	))
}
