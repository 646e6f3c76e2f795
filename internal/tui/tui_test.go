package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sadopc/timesetor/internal/clock"
	"github.com/sadopc/timesetor/internal/config"
	"github.com/sadopc/timesetor/internal/metrics"
	"github.com/sadopc/timesetor/internal/session"
	"github.com/sadopc/timesetor/internal/store"
	"github.com/sadopc/timesetor/internal/timeengine"
)

type testEnv struct {
	store  *store.Store
	holder *config.Holder
	clock  *clock.MockClock
	svc    *session.Service
	userID int64
}

func newTestEnv(t *testing.T, tweak ...func(*config.Config)) *testEnv {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	cfg := config.Default()
	for _, fn := range tweak {
		fn(cfg)
	}
	holder := config.NewHolder(filepath.Join(t.TempDir(), "config.yaml"), cfg)

	u, err := s.CreateUser("local", "", config.UserDefaults(cfg.Time))
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	clk := clock.NewMockClock(time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC))
	svc := session.NewService(s, holder, clk, metrics.New(prometheus.NewRegistry()), nil)
	return &testEnv{store: s, holder: holder, clock: clk, svc: svc, userID: u.ID}
}

func (e *testEnv) app(t *testing.T) App {
	t.Helper()
	return NewApp(Deps{
		Sessions:  e.svc,
		Store:     e.store,
		Config:    e.holder,
		UserID:    e.userID,
		Username:  "local",
		ExportDir: t.TempDir(),
	})
}

func (e *testEnv) wake(t *testing.T) {
	t.Helper()
	if _, err := e.svc.Wake(e.userID, e.clock.Now()); err != nil {
		t.Fatalf("wake: %v", err)
	}
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var enterKey = tea.KeyMsg{Type: tea.KeyEnter}

// run executes a single (non-batch) command.
func run(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	return cmd()
}

// ============================================================
// Clock model
// ============================================================

func TestClockModelAsleep(t *testing.T) {
	e := newTestEnv(t)
	c := newClockModel(e.svc, e.userID)

	c.apply(run(t, c.poll()).(clockMsg))
	if c.err != nil {
		t.Fatal(c.err)
	}
	if c.awake() {
		t.Fatal("should not be awake before wake")
	}
	if c.virtual() != "--:--:--" {
		t.Fatalf("virtual = %q", c.virtual())
	}
	if c.activity() != timeengine.ActivitySleep {
		t.Fatalf("activity = %q, want sleep", c.activity())
	}
	if c.speed() != 0 {
		t.Fatalf("speed = %v, want 0", c.speed())
	}
}

func TestClockModelAwake(t *testing.T) {
	e := newTestEnv(t)
	e.wake(t)
	c := newClockModel(e.svc, e.userID)

	c.apply(run(t, c.poll()).(clockMsg))
	if !c.awake() {
		t.Fatal("should be awake")
	}
	if c.activity() != timeengine.ActivityRest {
		t.Fatalf("activity = %q, want rest", c.activity())
	}
	if c.virtual() != c.status.VirtualTime.Format("15:04:05") {
		t.Fatalf("virtual = %q", c.virtual())
	}
	if !c.real().Equal(e.clock.Now()) {
		t.Fatalf("real = %v", c.real())
	}
}

// ============================================================
// Dashboard model
// ============================================================

func TestDashboardLoadDataBeforeWake(t *testing.T) {
	e := newTestEnv(t)
	d := newDashboardModel(e.svc, e.userID)

	msg := run(t, d.loadData()).(dayMsg)
	if msg.report != nil {
		t.Fatal("no report expected before the first wake")
	}
}

func TestDashboardWake(t *testing.T) {
	e := newTestEnv(t)
	d := newDashboardModel(e.svc, e.userID)

	woke, ok := run(t, d.wake()).(wokeMsg)
	if !ok {
		t.Fatal("wake should return wokeMsg")
	}
	if woke.result.VirtualWakeDisplay == "" {
		t.Fatal("virtual wake display should be set")
	}

	again := run(t, d.wake()).(statusMsg)
	if !again.isError || again.text != "Already awake" {
		t.Fatalf("second wake = %+v", again)
	}

	day := run(t, d.loadData()).(dayMsg)
	if day.report == nil || day.report.Record.Date != "2025-03-10" {
		t.Fatalf("report after wake = %+v", day.report)
	}
}

func TestDashboardSwitchActivity(t *testing.T) {
	e := newTestEnv(t)
	d := newDashboardModel(e.svc, e.userID)

	before := run(t, d.switchTo(timeengine.ActivityStudy)).(statusMsg)
	if !before.isError {
		t.Fatal("switching before wake should fail")
	}

	e.wake(t)
	e.clock.Advance(30 * time.Minute)

	_, cmd := d.update(keyPress("f"))
	msg := run(t, cmd).(activityMsg)
	if msg.result.Activity != timeengine.ActivityEntertainment {
		t.Fatalf("activity = %q", msg.result.Activity)
	}

	day := run(t, d.loadData()).(dayMsg)
	d, _ = d.update(day)
	if len(d.today.Logs) != 1 || d.today.Logs[0].Activity != string(timeengine.ActivityRest) {
		t.Fatalf("logs = %+v", d.today.Logs)
	}
}

func TestDashboardSleepNeedsConfirmation(t *testing.T) {
	e := newTestEnv(t)
	d := newDashboardModel(e.svc, e.userID)

	_, cmd := d.update(keyPress("z"))
	if msg := run(t, cmd).(statusMsg); !msg.isError {
		t.Fatal("sleep while asleep should report an error")
	}

	e.wake(t)
	d.clock.apply(run(t, d.clock.poll()).(clockMsg))
	e.clock.Advance(time.Hour)

	d, cmd = d.update(keyPress("z"))
	if cmd != nil || !d.confirmSleep {
		t.Fatal("first z should ask for confirmation")
	}

	d, _ = d.update(tea.KeyMsg{Type: tea.KeyEsc})
	if d.confirmSleep {
		t.Fatal("esc should cancel the confirmation")
	}

	d, _ = d.update(keyPress("z"))
	d, cmd = d.update(enterKey)
	if d.confirmSleep {
		t.Fatal("confirmation should close")
	}
	slept, ok := run(t, cmd).(sleptMsg)
	if !ok {
		t.Fatal("confirmed sleep should return sleptMsg")
	}
	if slept.result.VirtualSleepDisplay == "" {
		t.Fatal("virtual sleep display should be set")
	}
}

func TestDashboardView(t *testing.T) {
	e := newTestEnv(t)
	d := newDashboardModel(e.svc, e.userID)
	d.setSize(120, 40)

	d.clock.apply(run(t, d.clock.poll()).(clockMsg))
	if v := d.view(); !strings.Contains(v, "ASLEEP") || !strings.Contains(v, "No record today") {
		t.Fatalf("asleep view missing markers:\n%s", v)
	}

	e.wake(t)
	e.clock.Advance(10 * time.Minute)
	run(t, d.switchTo(timeengine.ActivityStudy))
	d.clock.apply(run(t, d.clock.poll()).(clockMsg))
	d, _ = d.update(run(t, d.loadData()))

	v := d.view()
	for _, want := range []string{"STUDY", d.clock.virtual(), "Recent Activity", "2025-03-10"} {
		if !strings.Contains(v, want) {
			t.Fatalf("awake view missing %q:\n%s", want, v)
		}
	}

	d.confirmSleep = true
	if !strings.Contains(d.view(), "End the day?") {
		t.Fatal("confirmation panel should replace the log panel")
	}
}

func TestDashboardTooSmall(t *testing.T) {
	e := newTestEnv(t)
	d := newDashboardModel(e.svc, e.userID)
	d.setSize(10, 10)
	if d.view() != "Terminal too small" {
		t.Fatal("expected size warning")
	}
}

// ============================================================
// Pomodoro model
// ============================================================

func TestPomodoroInit(t *testing.T) {
	e := newTestEnv(t)
	pm := newPomodoroModel(e.svc, e.holder, e.userID)

	if pm.phase != pomodoroIdle {
		t.Fatalf("expected idle phase, got %d", pm.phase)
	}
	if pm.workDuration != 25*time.Minute {
		t.Fatalf("expected 25min work, got %v", pm.workDuration)
	}
	if pm.breakDuration != 5*time.Minute {
		t.Fatalf("expected 5min break, got %v", pm.breakDuration)
	}
	if pm.longBreakDuration != 15*time.Minute {
		t.Fatalf("expected 15min long break, got %v", pm.longBreakDuration)
	}
	if pm.targetCount != 4 {
		t.Fatalf("expected 4 target, got %d", pm.targetCount)
	}
}

func TestPomodoroLoadsConfig(t *testing.T) {
	e := newTestEnv(t, func(c *config.Config) {
		c.Pomodoro.WorkMinutes = 10
		c.Pomodoro.ShortBreakMinutes = 2
		c.Pomodoro.LongBreakMinutes = 8
		c.Pomodoro.SessionsBeforeLongBreak = 0
	})
	pm := newPomodoroModel(e.svc, e.holder, e.userID)
	if pm.workDuration != 10*time.Minute || pm.breakDuration != 2*time.Minute || pm.longBreakDuration != 8*time.Minute {
		t.Fatalf("durations = %v/%v/%v", pm.workDuration, pm.breakDuration, pm.longBreakDuration)
	}
	if pm.targetCount != 1 {
		t.Fatalf("target should clamp to 1, got %d", pm.targetCount)
	}
}

func TestPomodoroStartBeforeWake(t *testing.T) {
	e := newTestEnv(t)
	pm := newPomodoroModel(e.svc, e.holder, e.userID)

	pm, cmd := pm.startCycle()
	if pm.phase != pomodoroIdle {
		t.Fatal("should stay idle when not awake")
	}
	if msg := run(t, cmd).(statusMsg); !msg.isError {
		t.Fatal("expected an error status")
	}
}

func TestPomodoroStartCycle(t *testing.T) {
	e := newTestEnv(t)
	e.wake(t)
	pm := newPomodoroModel(e.svc, e.holder, e.userID)

	pm, cmd := pm.update(keyPress("s"))
	if pm.phase != pomodoroWork {
		t.Fatal("should be in work phase after start")
	}
	if pm.sessionID == 0 {
		t.Fatal("session ID should be set")
	}
	if pm.remaining != 25*time.Minute {
		t.Fatalf("remaining = %v", pm.remaining)
	}
	if _, ok := run(t, cmd).(pomodoroStartedMsg); !ok {
		t.Fatal("start should announce the session")
	}

	running, err := e.store.RunningPomodoro(e.userID)
	if err != nil || running == nil {
		t.Fatalf("running pomodoro = %v, %v", running, err)
	}
	if running.SessionType != store.PomodoroWork || running.PlannedMinutes != 25 {
		t.Fatalf("running = %+v", running)
	}

	st, _ := e.svc.Current(e.userID)
	if st.Activity != timeengine.ActivityStudy {
		t.Fatalf("activity during work = %q, want study", st.Activity)
	}
}

func TestPomodoroTickAdvancesToBreak(t *testing.T) {
	e := newTestEnv(t)
	e.wake(t)
	pm := newPomodoroModel(e.svc, e.holder, e.userID)
	pm, _ = pm.startCycle()
	workID := pm.sessionID

	e.clock.Advance(10 * time.Minute)
	pm, _ = pm.update(tickMsg(e.clock.Now()))
	if pm.phase != pomodoroWork || pm.remaining != 15*time.Minute {
		t.Fatalf("mid-work: phase=%d remaining=%v", pm.phase, pm.remaining)
	}

	e.clock.Advance(15 * time.Minute)
	pm, _ = pm.update(tickMsg(e.clock.Now()))
	if pm.phase != pomodoroShortBreak || pm.completedCount != 1 {
		t.Fatalf("after work: phase=%d count=%d", pm.phase, pm.completedCount)
	}

	work, err := e.store.GetPomodoro(workID)
	if err != nil {
		t.Fatal(err)
	}
	if work.Status != store.PomodoroCompleted || work.ActualMinutes != 25 {
		t.Fatalf("work session = %+v", work)
	}

	st, _ := e.svc.Current(e.userID)
	if st.Activity != timeengine.ActivityBreak {
		t.Fatalf("activity during break = %q", st.Activity)
	}
}

func TestPomodoroCancelSession(t *testing.T) {
	e := newTestEnv(t)
	e.wake(t)
	pm := newPomodoroModel(e.svc, e.holder, e.userID)
	pm, _ = pm.startCycle()
	id := pm.sessionID

	e.clock.Advance(5 * time.Minute)
	pm, _ = pm.update(keyPress("x"))
	if pm.phase != pomodoroIdle || pm.sessionID != 0 {
		t.Fatal("should be idle after cancel")
	}

	pom, _ := e.store.GetPomodoro(id)
	if pom.Status != store.PomodoroCancelled {
		t.Fatalf("DB status should be cancelled, got %s", pom.Status)
	}
}

func TestPomodoroSkipBreak(t *testing.T) {
	e := newTestEnv(t)
	e.wake(t)
	pm := newPomodoroModel(e.svc, e.holder, e.userID)
	pm, _ = pm.startCycle()
	pm, _ = pm.advancePhase()
	if pm.phase != pomodoroShortBreak {
		t.Fatal("should be on short break")
	}

	pm, _ = pm.update(enterKey)
	if pm.phase != pomodoroWork {
		t.Fatalf("enter should skip to work, got %d", pm.phase)
	}

	// Enter does nothing during work.
	pm, _ = pm.update(enterKey)
	if pm.phase != pomodoroWork {
		t.Fatal("enter during work should be ignored")
	}
}

func TestPomodoroFullCycle(t *testing.T) {
	e := newTestEnv(t, func(c *config.Config) { c.Pomodoro.SessionsBeforeLongBreak = 2 })
	e.wake(t)
	pm := newPomodoroModel(e.svc, e.holder, e.userID)
	pm, _ = pm.startCycle()

	steps := []struct {
		phase pomodoroPhase
		count int
	}{
		{pomodoroShortBreak, 1},
		{pomodoroWork, 1},
		{pomodoroLongBreak, 2},
		{pomodoroCompleted, 2},
	}
	for i, want := range steps {
		e.clock.Advance(time.Minute)
		pm, _ = pm.advancePhase()
		if pm.phase != want.phase || pm.completedCount != want.count {
			t.Fatalf("step %d: phase=%d count=%d, want %d/%d", i, pm.phase, pm.completedCount, want.phase, want.count)
		}
	}

	if running, _ := e.store.RunningPomodoro(e.userID); running != nil {
		t.Fatalf("no session should be running after the cycle, got %+v", running)
	}
	rec, _ := e.store.LatestAwakeRecord(e.userID)
	sessions, _ := e.store.ListPomodoros(rec.ID)
	if len(sessions) != 4 {
		t.Fatalf("expected 4 stored sessions, got %d", len(sessions))
	}
}

func TestPomodoroResetOnSleep(t *testing.T) {
	e := newTestEnv(t)
	e.wake(t)
	pm := newPomodoroModel(e.svc, e.holder, e.userID)
	pm, _ = pm.startCycle()

	pm, _ = pm.update(sleptMsg{})
	if pm.phase != pomodoroIdle || pm.sessionID != 0 {
		t.Fatal("sleep should reset the pomodoro view")
	}
}

func TestPomodoroPhaseNames(t *testing.T) {
	phases := []pomodoroPhase{pomodoroIdle, pomodoroWork, pomodoroShortBreak, pomodoroLongBreak, pomodoroCompleted}
	for _, p := range phases {
		name, ok := phaseNames[p]
		if !ok {
			t.Fatalf("missing phase name for %d", p)
		}
		if name == "" {
			t.Fatalf("empty phase name for %d", p)
		}
	}
}

func TestFormatPomodoroTime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{time.Second, "00:01"},
		{time.Minute, "01:00"},
		{25 * time.Minute, "25:00"},
		{5*time.Minute + 30*time.Second, "05:30"},
		{-time.Second, "00:00"}, // negative should clamp to 0
	}
	for _, tt := range tests {
		got := formatPomodoroTime(tt.d)
		if got != tt.want {
			t.Errorf("formatPomodoroTime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

// ============================================================
// Settings model
// ============================================================

func TestSettingsRefresh(t *testing.T) {
	e := newTestEnv(t)
	sm := newSettingsModel(e.store, e.holder, e.userID)

	msg := run(t, sm.refresh()).(settingsDataMsg)
	sm, _ = sm.update(msg)
	if sm.effective("target_wake_time") != config.Default().Time.TargetWakeTime {
		t.Fatalf("target_wake_time = %q", sm.effective("target_wake_time"))
	}

	delete(sm.settings, "study_curve_type")
	if sm.effective("study_curve_type") != string(config.Default().Time.StudyCurve) {
		t.Fatal("missing settings should fall back to the process config")
	}
}

func TestSettingsSave(t *testing.T) {
	e := newTestEnv(t)
	sm := newSettingsModel(e.store, e.holder, e.userID)
	sm, _ = sm.update(run(t, sm.refresh()))
	sm, _ = sm.showForm()
	if !sm.formActive {
		t.Fatal("form should be active")
	}

	*sm.values["target_wake_time"] = "07:15"
	*sm.values["target_study_hours"] = "3"
	if err := sm.saveSettings(); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _ := e.store.SettingsMap(e.userID)
	if got["target_wake_time"] != "07:15" || got["target_study_hours"] != "3" {
		t.Fatalf("stored settings = %v", got)
	}
	if cfg := e.svc.UserConfig(e.userID); cfg.TargetWakeTime != "07:15" {
		t.Fatalf("user config wake = %q", cfg.TargetWakeTime)
	}
}

func TestSettingsSaveRejectsInvalid(t *testing.T) {
	e := newTestEnv(t)
	sm := newSettingsModel(e.store, e.holder, e.userID)
	sm, _ = sm.update(run(t, sm.refresh()))
	sm, _ = sm.showForm()

	*sm.values["time_approach_rate"] = "2"
	if err := sm.saveSettings(); err == nil {
		t.Fatal("approach rate above 1 should be rejected")
	}
	got, _ := e.store.SettingsMap(e.userID)
	if got["time_approach_rate"] == "2" {
		t.Fatal("invalid settings must not be stored")
	}
}

func TestSettingsFormEscape(t *testing.T) {
	e := newTestEnv(t)
	sm := newSettingsModel(e.store, e.holder, e.userID)
	sm, _ = sm.update(enterKey)
	if !sm.formActive {
		t.Fatal("enter should open the form")
	}
	sm, _ = sm.update(tea.KeyMsg{Type: tea.KeyEsc})
	if sm.formActive || sm.form != nil {
		t.Fatal("esc should close the form")
	}
}

func TestSettingsView(t *testing.T) {
	e := newTestEnv(t)
	sm := newSettingsModel(e.store, e.holder, e.userID)
	sm.setSize(120, 40)
	sm, _ = sm.update(run(t, sm.refresh()))

	v := sm.view()
	for _, k := range config.UserSettingKeys {
		if !strings.Contains(v, settingLabels[k]) {
			t.Fatalf("view missing %q", settingLabels[k])
		}
	}
	if !strings.Contains(v, "pomodoro 25m / 5m / 15m") {
		t.Fatalf("view missing pomodoro line:\n%s", v)
	}
}

func TestFormatSettingValue(t *testing.T) {
	tests := []struct {
		key, val, want string
	}{
		{"target_entertainment_hours", "2", "2.0 hours"},
		{"target_study_hours", "4.5", "4.5 hours"},
		{"time_approach_rate", "0.25", "25%"},
		{"target_wake_time", "06:30", "06:30"},
		{"target_study_hours", "abc", "abc"},
	}
	for _, tt := range tests {
		if got := formatSettingValue(tt.key, tt.val); got != tt.want {
			t.Errorf("formatSettingValue(%q, %q) = %q, want %q", tt.key, tt.val, got, tt.want)
		}
	}
}

func TestSettingValidators(t *testing.T) {
	if err := validateClock("06:30"); err != nil {
		t.Fatalf("06:30: %v", err)
	}
	for _, bad := range []string{"", "6.30", "25:00"} {
		if validateClock(bad) == nil {
			t.Errorf("validateClock(%q) should fail", bad)
		}
	}
	if err := validateFloat("1.5"); err != nil {
		t.Fatalf("1.5: %v", err)
	}
	for _, bad := range []string{"", "x", "-1"} {
		if validateFloat(bad) == nil {
			t.Errorf("validateFloat(%q) should fail", bad)
		}
	}
}

// ============================================================
// Reports model
// ============================================================

func TestReportsDateRange(t *testing.T) {
	e := newTestEnv(t)
	r := newReportsModel(e.store, e.clock, e.userID)

	from, to := r.dateRange()
	if from.Format(store.DateLayout) != "2025-03-04" || to.Format(store.DateLayout) != "2025-03-10" {
		t.Fatalf("range = %s..%s", from.Format(store.DateLayout), to.Format(store.DateLayout))
	}

	r, _ = r.update(keyPress("h"))
	from, to = r.dateRange()
	if r.offset != 1 || from.Format(store.DateLayout) != "2025-02-25" || to.Format(store.DateLayout) != "2025-03-03" {
		t.Fatalf("offset %d range = %s..%s", r.offset, from.Format(store.DateLayout), to.Format(store.DateLayout))
	}

	r, _ = r.update(keyPress("l"))
	r, _ = r.update(keyPress("l"))
	if r.offset != 0 {
		t.Fatalf("offset should not go below 0, got %d", r.offset)
	}
}

func TestReportsData(t *testing.T) {
	e := newTestEnv(t)
	e.wake(t)
	e.clock.Advance(30 * time.Minute)
	if _, err := e.svc.UpdateActivity(e.userID, timeengine.ActivityEntertainment, ""); err != nil {
		t.Fatal(err)
	}
	e.clock.Advance(30 * time.Minute)
	if _, err := e.svc.UpdateActivity(e.userID, timeengine.ActivityRest, ""); err != nil {
		t.Fatal(err)
	}

	r := newReportsModel(e.store, e.clock, e.userID)
	r.setSize(120, 40)
	msg := run(t, r.refresh()).(reportsDataMsg)
	if len(msg.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(msg.records))
	}
	r, _ = r.update(msg)

	stats := session.RecordStats(&r.records[0])
	realFun := r.hours(stats.Entertainment)
	if realFun != 0.5 {
		t.Fatalf("real entertainment hours = %v, want 0.5", realFun)
	}

	r, _ = r.update(enterKey)
	if r.mode != reportVirtual {
		t.Fatal("enter should switch to virtual mode")
	}
	want := stats.Entertainment.VirtualMinutes / 60
	if got := r.hours(stats.Entertainment); got != want {
		t.Fatalf("virtual entertainment hours = %v, want %v", got, want)
	}

	v := r.view()
	if !strings.Contains(v, "2025-03-10") || !strings.Contains(v, "entertainment") {
		t.Fatalf("view missing data:\n%s", v)
	}
}

func TestReportsEmpty(t *testing.T) {
	e := newTestEnv(t)
	r := newReportsModel(e.store, e.clock, e.userID)
	r.setSize(120, 40)
	r, _ = r.update(run(t, r.refresh()))
	if !strings.Contains(r.view(), "No data for this period") {
		t.Fatal("empty period should say so")
	}
}

func TestCategoryTotals(t *testing.T) {
	s := timeengine.DailyStats{
		Entertainment: timeengine.Totals{RealMinutes: 1},
		Study:         timeengine.Totals{RealMinutes: 2},
		Rest:          timeengine.Totals{RealMinutes: 3},
	}
	for a, want := range map[timeengine.Activity]float64{
		timeengine.ActivityEntertainment: 1,
		timeengine.ActivityStudy:         2,
		timeengine.ActivityRest:          3,
		timeengine.ActivityBreak:         3,
	} {
		if got := categoryTotals(s, a).RealMinutes; got != want {
			t.Errorf("categoryTotals(%s) = %v, want %v", a, got, want)
		}
	}
}

// ============================================================
// Helpers
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{time.Second, "00:00:01"},
		{time.Minute, "00:01:00"},
		{time.Hour, "01:00:00"},
		{time.Hour + 30*time.Minute + 45*time.Second, "01:30:45"},
		{25 * time.Hour, "25:00:00"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatMinutesAndHours(t *testing.T) {
	if got := formatMinutes(90.5); got != "01:30:30" {
		t.Errorf("formatMinutes(90.5) = %q", got)
	}
	if got := formatHours(90); got != "1.5h" {
		t.Errorf("formatHours(90) = %q", got)
	}
	if got := secondsDuration(3600); got != time.Hour {
		t.Errorf("secondsDuration(3600) = %v", got)
	}
	if orDash("") != "-" || orDash("06:30") != "06:30" {
		t.Error("orDash")
	}
}

func TestViewNames(t *testing.T) {
	want := []string{"Clock", "Reports", "Pomodoro", "Settings"}
	if len(viewNames) != len(want) {
		t.Fatalf("expected %d view names, got %d", len(want), len(viewNames))
	}
	for i, name := range want {
		if viewNames[i] != name {
			t.Errorf("viewNames[%d] = %q, want %q", i, viewNames[i], name)
		}
	}
	if viewClock != 0 || viewSettings != 3 {
		t.Fatal("view state constants out of order")
	}
}

// ============================================================
// App model
// ============================================================

func TestNewApp(t *testing.T) {
	e := newTestEnv(t)
	app := e.app(t)

	if app.activeView != viewClock {
		t.Fatal("default view should be the clock")
	}
	if app.showHelp {
		t.Fatal("help should be hidden by default")
	}
	if app.exportPicking {
		t.Fatal("export picker should be hidden by default")
	}
	if app.isFormActive() {
		t.Fatal("no forms should be active initially")
	}
}

func TestAppViewStates(t *testing.T) {
	e := newTestEnv(t)
	app := e.app(t)
	model, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	app = model.(App)

	for v := range viewNames {
		app.activeView = viewState(v)
		if output := app.View(); output == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppTabCycles(t *testing.T) {
	e := newTestEnv(t)
	app := e.app(t)

	for i := 1; i <= len(viewNames); i++ {
		model, _ := app.Update(tea.KeyMsg{Type: tea.KeyTab})
		app = model.(App)
		if want := viewState(i % len(viewNames)); app.activeView != want {
			t.Fatalf("after %d tabs: view %d, want %d", i, app.activeView, want)
		}
	}

	model, _ := app.Update(keyPress("4"))
	if model.(App).activeView != viewSettings {
		t.Fatal("4 should open settings")
	}
}

func TestAppRenderHeader(t *testing.T) {
	e := newTestEnv(t)
	app := e.app(t)
	app.width = 120
	app.height = 40

	header := app.renderHeader()
	for _, name := range append([]string{"timesetor", "local"}, viewNames...) {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing %q", name)
		}
	}
}

func TestAppLoadingState(t *testing.T) {
	e := newTestEnv(t)
	app := e.app(t)
	if output := app.View(); output != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", output)
	}
}

func TestAppStatusMessage(t *testing.T) {
	e := newTestEnv(t)
	app := e.app(t)
	app.width = 120
	app.height = 40

	model, _ := app.Update(statusMsg{text: "test status", isError: true})
	app = model.(App)
	if !app.statusError {
		t.Fatal("error flag should be kept")
	}
	if !strings.Contains(app.renderFooter(), "test status") {
		t.Fatal("footer should contain status message")
	}
}

func TestAppWakeFromAnyView(t *testing.T) {
	e := newTestEnv(t)
	app := e.app(t)
	app.activeView = viewReports

	_, cmd := app.Update(keyPress("w"))
	woke, ok := run(t, cmd).(wokeMsg)
	if !ok {
		t.Fatal("w should wake from the reports view")
	}

	model, _ := app.Update(woke)
	app = model.(App)
	if !strings.Contains(app.status, woke.result.VirtualWakeDisplay) {
		t.Fatalf("status = %q", app.status)
	}

	model, _ = app.Update(run(t, app.dashboard.clock.poll()))
	app = model.(App)
	model, _ = app.Update(keyPress("z"))
	app = model.(App)
	if app.activeView != viewClock || !app.dashboard.confirmSleep {
		t.Fatal("sleep from another view should open the clock confirmation")
	}
	if !app.isFormActive() {
		t.Fatal("the confirmation should capture input")
	}
}

func TestAppFooterShowsVirtualClock(t *testing.T) {
	e := newTestEnv(t)
	e.wake(t)
	app := e.app(t)
	app.width = 160
	app.height = 40

	model, _ := app.Update(run(t, app.dashboard.clock.poll()))
	app = model.(App)
	if !strings.Contains(app.renderFooter(), app.dashboard.clock.virtual()) {
		t.Fatal("footer should show the virtual time while awake")
	}
}

func TestAppExport(t *testing.T) {
	e := newTestEnv(t)
	e.wake(t)
	e.clock.Advance(time.Hour)
	if _, err := e.svc.UpdateActivity(e.userID, timeengine.ActivityStudy, ""); err != nil {
		t.Fatal(err)
	}
	app := e.app(t)

	model, _ := app.Update(keyPress("e"))
	app = model.(App)
	if !app.exportPicking {
		t.Fatal("e should open the export picker")
	}
	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyDown})
	app = model.(App)
	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyDown})
	app = model.(App)
	if app.exportCursor != 1 {
		t.Fatalf("cursor = %d, want 1", app.exportCursor)
	}

	for format, ext := range []string{".csv", ".json"} {
		done, ok := run(t, app.doExport(format)).(exportDoneMsg)
		if !ok {
			t.Fatalf("format %d did not export", format)
		}
		if filepath.Ext(done.path) != ext || !strings.Contains(done.path, "timesetor-export-2025-03-10") {
			t.Fatalf("path = %q", done.path)
		}
		info, err := os.Stat(done.path)
		if err != nil || info.Size() == 0 {
			t.Fatalf("export file missing or empty: %v", err)
		}
	}

	model, _ = app.Update(exportDoneMsg{path: "/tmp/x.csv"})
	if model.(App).exportPicking {
		t.Fatal("picker should close after export")
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	bindings := keys.ShortHelp()
	if len(bindings) == 0 {
		t.Fatal("short help should have bindings")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

func TestDayKeys(t *testing.T) {
	for _, k := range []string{"w", "z", "r", "f", "t"} {
		if !isDayKey(keyPress(k)) {
			t.Errorf("%q should be a day key", k)
		}
	}
	for _, k := range []string{"s", "x", "e", "q"} {
		if isDayKey(keyPress(k)) {
			t.Errorf("%q should not be a day key", k)
		}
	}
}

// ============================================================
// Styles (smoke test — just verify they don't panic)
// ============================================================

func TestStylesRender(t *testing.T) {
	styles := []struct {
		name string
		fn   func() string
	}{
		{"activeTab", func() string { return activeTabStyle.Render("test") }},
		{"inactiveTab", func() string { return inactiveTabStyle.Render("test") }},
		{"panel", func() string { return panelStyle.Render("test") }},
		{"activePanel", func() string { return activePanelStyle.Render("test") }},
		{"clock", func() string { return clockStyle.Render("test") }},
		{"clockAwake", func() string { return clockAwakeStyle.Render("test") }},
		{"clockAsleep", func() string { return clockAsleepStyle.Render("test") }},
		{"title", func() string { return titleStyle.Render("test") }},
		{"accent", func() string { return accentStyle.Render("test") }},
		{"success", func() string { return successStyle.Render("test") }},
		{"error", func() string { return errorStyle.Render("test") }},
		{"muted", func() string { return mutedStyle.Render("test") }},
		{"highlight", func() string { return highlightStyle.Render("test") }},
		{"header", func() string { return headerStyle.Render("test") }},
		{"footer", func() string { return footerStyle.Render("test") }},
		{"selectedItem", func() string { return selectedItemStyle.Render("test") }},
		{"normalItem", func() string { return normalItemStyle.Render("test") }},
	}

	for _, s := range styles {
		result := s.fn()
		if result == "" {
			t.Fatalf("style %q rendered empty", s.name)
		}
	}

	if activityColor(timeengine.ActivityBreak) != activityColor(timeengine.ActivityRest) {
		t.Fatal("breaks should share the rest color")
	}
}
