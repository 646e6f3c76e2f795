package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/timesetor/internal/clock"
	"github.com/sadopc/timesetor/internal/session"
	"github.com/sadopc/timesetor/internal/store"
	"github.com/sadopc/timesetor/internal/timeengine"
)

type reportMode int

const (
	reportReal reportMode = iota
	reportVirtual
)

// recordSource is the part of the store the reports view reads.
type recordSource interface {
	RecordsBetween(userID int64, from, to string) ([]store.DailyRecord, error)
}

var chartCategories = []timeengine.Activity{
	timeengine.ActivityEntertainment,
	timeengine.ActivityStudy,
	timeengine.ActivityRest,
}

type reportsModel struct {
	store  recordSource
	clock  clock.Clock
	userID int64
	width  int
	height int

	mode    reportMode
	records []store.DailyRecord
	offset  int // 7-day blocks back from today (0 = current)

	chart barchart.Model
}

func newReportsModel(s recordSource, clk clock.Clock, userID int64) reportsModel {
	return reportsModel{
		store:  s,
		clock:  clk,
		userID: userID,
		chart:  barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	records []store.DailyRecord
}

func (r reportsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		from, to := r.dateRange()
		recs, err := r.store.RecordsBetween(r.userID, from.Format(store.DateLayout), to.Format(store.DateLayout))
		if err != nil {
			return errStatus(err)
		}
		return reportsDataMsg{records: recs}
	}
}

// dateRange returns the first and last day shown, inclusive.
func (r reportsModel) dateRange() (time.Time, time.Time) {
	now := r.clock.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := today.AddDate(0, 0, -7*r.offset)
	return end.AddDate(0, 0, -6), end
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.records = msg.records
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Enter):
			if r.mode == reportReal {
				r.mode = reportVirtual
			} else {
				r.mode = reportReal
			}
			r.buildChart()
			return r, nil
		}
	}
	return r, nil
}

func (r reportsModel) hours(t timeengine.Totals) float64 {
	if r.mode == reportVirtual {
		return t.VirtualMinutes / 60
	}
	return t.RealMinutes / 60
}

func categoryTotals(s timeengine.DailyStats, a timeengine.Activity) timeengine.Totals {
	switch a {
	case timeengine.ActivityEntertainment:
		return s.Entertainment
	case timeengine.ActivityStudy:
		return s.Study
	}
	return s.Rest
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	byDate := make(map[string]timeengine.DailyStats, len(r.records))
	for i := range r.records {
		byDate[r.records[i].Date] = session.RecordStats(&r.records[i])
	}

	from, to := r.dateRange()
	var bars []barchart.BarData
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		stats, ok := byDate[d.Format(store.DateLayout)]

		var values []barchart.BarValue
		if ok {
			for _, a := range chartCategories {
				values = append(values, barchart.BarValue{
					Name:  string(a),
					Value: r.hours(categoryTotals(stats, a)),
					Style: lipgloss.NewStyle().Foreground(activityColor(a)),
				})
			}
		} else {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorBorder)}}
		}

		bars = append(bars, barchart.BarData{
			Label:  d.Format("Mon 02"),
			Values: values,
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	realTab := inactiveTabStyle.Render("Real")
	virtualTab := inactiveTabStyle.Render("Virtual")
	if r.mode == reportReal {
		realTab = activeTabStyle.Render("Real")
	} else {
		virtualTab = activeTabStyle.Render("Virtual")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, realTab, virtualTab)

	from, to := r.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s to %s", from.Format("Jan 02"), to.Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", modeTabs, "  ", dateLabel,
	)

	nav := mutedStyle.Render("  ←/→: navigate  enter: real/virtual")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", renderLegend(), "", r.renderTable(w), "", nav,
		),
	)
}

func (r reportsModel) renderTable(w int) string {
	if len(r.records) == 0 {
		return mutedStyle.Render("  No data for this period")
	}

	rows := []string{
		mutedStyle.Render(fmt.Sprintf("  %-12s %-7s %-7s %10s %10s %10s %6s", "Date", "Wake", "Sleep", "Fun", "Study", "Rest", "×Fun")),
		mutedStyle.Render("  " + strings.Repeat("─", min(w-6, 70))),
	}
	for i := range r.records {
		rec := &r.records[i]
		s := session.RecordStats(rec)
		rows = append(rows, fmt.Sprintf("  %-12s %-7s %-7s %10s %10s %10s %6.2f",
			rec.Date,
			orDash(rec.VirtualWakeDisplay),
			orDash(rec.VirtualSleepDisplay),
			formatHours(r.hours(s.Entertainment)*60),
			formatHours(r.hours(s.Study)*60),
			formatHours(r.hours(s.Rest)*60),
			rec.EntertainmentMultiplier,
		))
	}
	return strings.Join(rows, "\n")
}

func renderLegend() string {
	var items []string
	for _, a := range chartCategories {
		dot := lipgloss.NewStyle().Foreground(activityColor(a)).Render("●")
		items = append(items, fmt.Sprintf("%s %s", dot, a))
	}
	return "  " + strings.Join(items, "  ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
