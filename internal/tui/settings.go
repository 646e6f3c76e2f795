package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/timesetor/internal/config"
	"github.com/sadopc/timesetor/internal/timeengine"
)

// settingsStore is the part of the store the settings view uses.
type settingsStore interface {
	SettingsMap(userID int64) (map[string]string, error)
	SetSettings(userID int64, settings map[string]string) error
}

var settingLabels = map[string]string{
	"target_wake_time":           "Target wake time",
	"target_sleep_time":          "Target sleep time",
	"target_entertainment_hours": "Entertainment hours",
	"target_study_hours":         "Study hours",
	"time_approach_rate":         "Approach rate",
	"study_curve_type":           "Study curve",
}

// settingsModel edits the user's overrides of the time configuration.
// Changes take effect at the next wake.
type settingsModel struct {
	store  settingsStore
	cfg    *config.Holder
	userID int64
	width  int
	height int

	settings   map[string]string
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	values map[string]*string
}

func newSettingsModel(s settingsStore, cfg *config.Holder, userID int64) settingsModel {
	values := make(map[string]*string, len(config.UserSettingKeys))
	for _, k := range config.UserSettingKeys {
		v := ""
		values[k] = &v
	}
	return settingsModel{
		store:  s,
		cfg:    cfg,
		userID: userID,
		values: values,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings map[string]string
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, err := s.store.SettingsMap(s.userID)
		if err != nil {
			return errStatus(err)
		}
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Enter) {
			return s.showForm()
		}
	}
	return s, nil
}

// effective returns the user's value for k, falling back to the process
// configuration.
func (s settingsModel) effective(k string) string {
	if v, ok := s.settings[k]; ok {
		return v
	}
	return config.UserDefaults(s.cfg.Get().Time)[k]
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	for _, k := range config.UserSettingKeys {
		*s.values[k] = s.effective(k)
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title(settingLabels["target_wake_time"]).Placeholder("HH:MM").
				Validate(validateClock).Value(s.values["target_wake_time"]),
			huh.NewInput().Title(settingLabels["target_sleep_time"]).Placeholder("HH:MM").
				Validate(validateClock).Value(s.values["target_sleep_time"]),
			huh.NewInput().Title(settingLabels["time_approach_rate"]).Description("0 to 1, how fast the virtual clock converges").
				Validate(validateFloat).Value(s.values["time_approach_rate"]),
		).Title("Schedule"),
		huh.NewGroup(
			huh.NewInput().Title(settingLabels["target_entertainment_hours"]).
				Validate(validateFloat).Value(s.values["target_entertainment_hours"]),
			huh.NewInput().Title(settingLabels["target_study_hours"]).
				Validate(validateFloat).Value(s.values["target_study_hours"]),
			huh.NewSelect[string]().Title(settingLabels["study_curve_type"]).
				Options(
					huh.NewOption("Linear", string(timeengine.CurveLinear)),
					huh.NewOption("Exponential", string(timeengine.CurveExponential)),
					huh.NewOption("Ease out", string(timeengine.CurveEaseOut)),
				).Value(s.values["study_curve_type"]),
		).Title("Targets"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		if err := s.saveSettings(); err != nil {
			return s, func() tea.Msg { return errStatus(err) }
		}
		return s, tea.Batch(s.refresh(), statusCmd("Settings saved; they apply from the next wake", false))
	}

	return s, cmd
}

func (s settingsModel) formValues() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = *v
	}
	return out
}

// saveSettings validates the form against the process configuration
// before storing it.
func (s settingsModel) saveSettings() error {
	values := s.formValues()
	if _, err := config.WithOverrides(s.cfg.Get().Time, values); err != nil {
		return err
	}
	return s.store.SetSettings(s.userID, values)
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	rows := []string{title, ""}
	for _, k := range config.UserSettingKeys {
		label := lipgloss.NewStyle().Width(24).Render(settingLabels[k])
		value := highlightStyle.Render(formatSettingValue(k, s.effective(k)))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	pc := s.cfg.Get().Pomodoro
	rows = append(rows, "",
		mutedStyle.Render(fmt.Sprintf("  pomodoro %dm / %dm / %dm, long break every %d",
			pc.WorkMinutes, pc.ShortBreakMinutes, pc.LongBreakMinutes, pc.SessionsBeforeLongBreak)),
		"",
		mutedStyle.Render("Press enter to edit settings"),
	)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case "target_entertainment_hours", "target_study_hours":
		if h, err := strconv.ParseFloat(v, 64); err == nil {
			return fmt.Sprintf("%.1f hours", h)
		}
	case "time_approach_rate":
		if r, err := strconv.ParseFloat(v, 64); err == nil {
			return fmt.Sprintf("%.0f%%", r*100)
		}
	}
	return v
}

func validateClock(s string) error {
	_, err := timeengine.TimeOfDayToMinutes(s)
	return err
}

func validateFloat(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number")
	}
	if f < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}
