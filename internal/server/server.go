package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sadopc/timesetor/internal/auth"
	"github.com/sadopc/timesetor/internal/config"
	"github.com/sadopc/timesetor/internal/logging"
	"github.com/sadopc/timesetor/internal/metrics"
	"github.com/sadopc/timesetor/internal/session"
	"github.com/sadopc/timesetor/internal/store"
	"github.com/sadopc/timesetor/internal/summary"
)

// Store is the persistence the handlers use directly.
type Store interface {
	SettingsMap(userID int64) (map[string]string, error)
	SetSettings(userID int64, settings map[string]string) error
	RegisterDevice(userID int64, deviceID, name, kind string, now time.Time) error
	AddAppUsage(u store.AppUsage) (*store.AppUsage, error)
	ListSummaries(userID int64, kind string, limit int) ([]store.Summary, error)
}

// Deps wires the server to the rest of the process.
type Deps struct {
	Config    *config.Holder
	Store     Store
	Sessions  *session.Service
	Auth      *auth.Service
	Summaries *summary.Generator
	Metrics   *metrics.Registry
	// Gatherer backs /metrics. Nil means the default registry.
	Gatherer prometheus.Gatherer
	Logger   *logging.Logger
}

// Server is the JSON API.
type Server struct {
	cfg       *config.Holder
	store     Store
	sessions  *session.Service
	auth      *auth.Service
	summaries *summary.Generator
	metrics   *metrics.Registry
	gatherer  prometheus.Gatherer
	log       *logging.Logger
	started   time.Time
	mux       *http.ServeMux
}

func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = logging.Default()
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		cfg:       d.Config,
		store:     d.Store,
		sessions:  d.Sessions,
		auth:      d.Auth,
		summaries: d.Summaries,
		metrics:   d.Metrics,
		gatherer:  d.Gatherer,
		log:       d.Logger.WithComponent("server"),
		started:   d.Sessions.Clock().Now(),
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	protected := auth.NewMiddleware(s.auth).RequireAuth

	s.handle("POST /api/auth/register", http.HandlerFunc(s.handleRegister))
	s.handle("POST /api/auth/login", http.HandlerFunc(s.handleLogin))
	s.handle("POST /api/auth/logout", protected(http.HandlerFunc(s.handleLogout)))

	s.handle("GET /api/user/settings", protected(http.HandlerFunc(s.handleGetSettings)))
	s.handle("PUT /api/user/settings", protected(http.HandlerFunc(s.handlePutSettings)))

	s.handle("POST /api/time/wake", protected(http.HandlerFunc(s.handleWake)))
	s.handle("POST /api/time/sleep", protected(http.HandlerFunc(s.handleSleep)))
	s.handle("GET /api/time/current", protected(http.HandlerFunc(s.handleCurrent)))
	s.handle("GET /api/time/stream", protected(http.HandlerFunc(s.handleStream)))
	s.handle("PUT /api/time/multiplier", protected(http.HandlerFunc(s.handleMultiplier)))

	s.handle("POST /api/activity/update", protected(http.HandlerFunc(s.handleActivity)))
	s.handle("POST /api/pomodoro/start", protected(http.HandlerFunc(s.handlePomodoroStart)))
	s.handle("POST /api/pomodoro/end", protected(http.HandlerFunc(s.handlePomodoroEnd)))

	s.handle("GET /api/data/daily", protected(http.HandlerFunc(s.handleDaily)))
	s.handle("GET /api/data/weekly", protected(http.HandlerFunc(s.handleWeekly)))

	s.handle("GET /api/summaries", protected(http.HandlerFunc(s.handleListSummaries)))
	s.handle("POST /api/summaries/generate", protected(http.HandlerFunc(s.handleGenerateSummary)))

	s.handle("GET /api/config", protected(http.HandlerFunc(s.handleConfig)))
	s.handle("GET /api/health", http.HandlerFunc(s.handleHealth))
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
}

// handle registers h under pattern with request metrics labelled by the
// pattern's path.
func (s *Server) handle(pattern string, h http.Handler) {
	_, route, _ := strings.Cut(pattern, " ")
	s.mux.Handle(pattern, s.instrument(route, h))
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.mux }

// Start serves on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	sc := s.cfg.Get().Server
	srv := &http.Server{
		Addr:         sc.Addr(),
		Handler:      s.mux,
		ReadTimeout:  sc.ReadTimeout(),
		WriteTimeout: sc.WriteTimeout(),
		IdleTimeout:  2 * sc.ReadTimeout(),
	}

	serverError := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), sc.ShutdownTimeout())
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	case err := <-serverError:
		return fmt.Errorf("server startup: %w", err)
	}
}
