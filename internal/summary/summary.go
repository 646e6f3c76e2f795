package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/timesetor/internal/clock"
	"github.com/sadopc/timesetor/internal/config"
	"github.com/sadopc/timesetor/internal/logging"
	"github.com/sadopc/timesetor/internal/metrics"
	"github.com/sadopc/timesetor/internal/session"
	"github.com/sadopc/timesetor/internal/store"
)

// Summary kinds.
const (
	Daily   = "daily"
	Weekly  = "weekly"
	Monthly = "monthly"
	Yearly  = "yearly"
)

var (
	ErrDisabled    = errors.New("AI summaries are not enabled")
	ErrUnknownKind = errors.New("unknown summary type")
	ErrEmpty       = errors.New("model returned an empty summary")
)

const systemPrompt = "You are a time management assistant. You help the user understand how they spent their real and virtual time. Keep it short and concrete."

// Completer turns a system and user prompt into text. *Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Source provides the data a summary is written from. *session.Service
// satisfies it.
type Source interface {
	Daily(userID int64, date string) (*session.DailyReport, error)
	Weekly(userID int64) (*session.WeeklyReport, error)
}

type Store interface {
	AddSummary(sum store.Summary) (*store.Summary, error)
}

// Generator writes and stores summaries.
type Generator struct {
	completer Completer
	source    Source
	store     Store
	cfg       *config.Holder
	clock     clock.Clock
	metrics   *metrics.Registry
	log       *logging.Logger
}

// NewGenerator returns a generator. A nil completer leaves summaries
// disabled.
func NewGenerator(c Completer, src Source, st Store, cfg *config.Holder, clk clock.Clock, m *metrics.Registry, log *logging.Logger) *Generator {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if log == nil {
		log = logging.Default()
	}
	return &Generator{
		completer: c,
		source:    src,
		store:     st,
		cfg:       cfg,
		clock:     clk,
		metrics:   m,
		log:       log.WithComponent("summary"),
	}
}

// Enabled reports whether summaries can be generated.
func (g *Generator) Enabled() bool {
	return g.completer != nil && g.cfg.Get().AI.Enabled
}

// Generate writes a summary of kind for the user and stores it. Daily
// summaries cover the current date, weekly ones the last seven records.
func (g *Generator) Generate(ctx context.Context, userID int64, kind string) (*store.Summary, error) {
	if !g.Enabled() {
		return nil, ErrDisabled
	}
	ai := g.cfg.Get().AI
	today := g.clock.Now().Format(store.DateLayout)

	var (
		prompt, data string
		source       any
		start, end   = today, today
	)
	switch kind {
	case Daily:
		r, err := g.source.Daily(userID, today)
		if err != nil {
			return nil, err
		}
		prompt, data, source = ai.DailySummaryPrompt, FormatDaily(r), r.Record
	case Weekly:
		r, err := g.source.Weekly(userID)
		if err != nil {
			return nil, err
		}
		if n := len(r.Records); n > 0 {
			start, end = r.Records[n-1].Date, r.Records[0].Date
		}
		prompt, data, source = ai.WeeklySummaryPrompt, FormatWeekly(r), r.Records
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	text, err := g.completer.Complete(ctx, systemPrompt, prompt+"\n\n"+data)
	if err == nil && text == "" {
		err = ErrEmpty
	}
	if err != nil {
		g.record(kind, "error")
		g.log.Warn("summary failed", "user_id", userID, "type", kind, "error", err)
		return nil, err
	}

	raw, err := json.Marshal(source)
	if err != nil {
		return nil, fmt.Errorf("encode source data: %w", err)
	}
	sum, err := g.store.AddSummary(store.Summary{
		UserID:      userID,
		Type:        kind,
		PeriodStart: start,
		PeriodEnd:   end,
		Text:        text,
		SourceData:  string(raw),
	})
	if err != nil {
		return nil, err
	}
	g.record(kind, "ok")
	g.log.Info("summary generated", "user_id", userID, "type", kind, "chars", len(text))
	return sum, nil
}

func (g *Generator) record(kind, result string) {
	if g.metrics != nil {
		g.metrics.Summaries.WithLabelValues(kind, result).Inc()
	}
}

// ShouldGenerate reports whether a scheduled summary of kind is due on date:
// daily every day, weekly on Sundays, monthly on the first and last day of
// the month, yearly on December 31.
func ShouldGenerate(kind string, date time.Time) bool {
	switch kind {
	case Daily:
		return true
	case Weekly:
		return date.Weekday() == time.Sunday
	case Monthly:
		return date.Day() == 1 || date.AddDate(0, 0, 1).Month() != date.Month()
	case Yearly:
		return date.Month() == time.December && date.Day() == 31
	}
	return false
}

// FormatDaily renders a day as prompt input.
func FormatDaily(r *session.DailyReport) string {
	rec := r.Record
	var b strings.Builder
	fmt.Fprintf(&b, "Date: %s\n", rec.Date)
	if rec.RealWake != nil {
		fmt.Fprintf(&b, "Real wake time: %s\n", rec.RealWake.Format("15:04"))
	}
	if rec.RealSleep != nil {
		fmt.Fprintf(&b, "Real sleep time: %s\n", rec.RealSleep.Format("15:04"))
	}
	if rec.VirtualWakeDisplay != "" {
		fmt.Fprintf(&b, "Virtual wake time: %s\n", rec.VirtualWakeDisplay)
	}
	if rec.VirtualSleepDisplay != "" {
		fmt.Fprintf(&b, "Virtual sleep time: %s\n", rec.VirtualSleepDisplay)
	}
	fmt.Fprintf(&b, "Target entertainment: %g hours\n", rec.TargetEntertainmentHours)
	fmt.Fprintf(&b, "Target study: %g hours\n", rec.TargetStudyHours)
	fmt.Fprintf(&b, "Entertainment: %.0f real minutes, %.0f virtual minutes\n", r.Stats.Entertainment.RealMinutes, r.Stats.Entertainment.VirtualMinutes)
	fmt.Fprintf(&b, "Study: %.0f real minutes, %.0f virtual minutes\n", r.Stats.Study.RealMinutes, r.Stats.Study.VirtualMinutes)
	fmt.Fprintf(&b, "Rest: %.0f real minutes\n", r.Stats.Rest.RealMinutes)
	if n := completedWork(r.Pomodoros); n > 0 {
		fmt.Fprintf(&b, "Pomodoros completed: %d\n", n)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// FormatWeekly renders the recent records as prompt input.
func FormatWeekly(r *session.WeeklyReport) string {
	days := 0
	for _, rec := range r.Records {
		if rec.RealWake != nil {
			days++
		}
	}
	t := r.Totals
	var b strings.Builder
	b.WriteString("Weekly totals:\n")
	fmt.Fprintf(&b, "Days recorded: %d\n", days)
	fmt.Fprintf(&b, "Entertainment: %.1f hours\n", t.Entertainment.RealMinutes/60)
	fmt.Fprintf(&b, "Study: %.1f hours\n", t.Study.RealMinutes/60)
	fmt.Fprintf(&b, "Rest: %.1f hours\n", t.Rest.RealMinutes/60)
	if days > 0 {
		fmt.Fprintf(&b, "Average entertainment per day: %.0f minutes\n", t.Entertainment.RealMinutes/float64(days))
		fmt.Fprintf(&b, "Average study per day: %.0f minutes", t.Study.RealMinutes/float64(days))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func completedWork(ps []store.PomodoroSession) int {
	n := 0
	for _, p := range ps {
		if p.SessionType == store.PomodoroWork && p.Status == store.PomodoroCompleted {
			n++
		}
	}
	return n
}
