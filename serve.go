package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/sadopc/timesetor/internal/auth"
	"github.com/sadopc/timesetor/internal/clock"
	"github.com/sadopc/timesetor/internal/config"
	"github.com/sadopc/timesetor/internal/logging"
	"github.com/sadopc/timesetor/internal/metrics"
	"github.com/sadopc/timesetor/internal/server"
	"github.com/sadopc/timesetor/internal/session"
	"github.com/sadopc/timesetor/internal/summary"
)

const tokenPruneInterval = time.Hour

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	holder, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := holder.Get()
	log, err := setupLogging(cfg, os.Stderr)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	clk := clock.RealClock{}
	m := metrics.Get()
	sessions := session.NewService(st, holder, clk, m, log)
	authSvc := auth.NewService(st, clk, auth.Options{
		BcryptCost:  cfg.Security.BcryptCost,
		TokenExpiry: cfg.Security.TokenExpiry(),
		Defaults:    func() map[string]string { return config.UserDefaults(holder.Get().Time) },
	})

	var completer summary.Completer
	if cfg.AI.Enabled {
		client, err := summary.NewClient(cfg.AI)
		if err != nil {
			log.Warn("ai summaries disabled", "error", err)
		} else {
			completer = client
		}
	}
	summaries := summary.NewGenerator(completer, sessions, st, holder, clk, m, log)

	go watchReload(ctx, holder, log)
	go pruneTokens(ctx, authSvc, log)

	srv := server.New(server.Deps{
		Config:    holder,
		Store:     st,
		Sessions:  sessions,
		Auth:      authSvc,
		Summaries: summaries,
		Metrics:   m,
		Gatherer:  prometheus.DefaultGatherer,
		Logger:    log,
	})
	log.Info("timesetor starting", "ai_enabled", summaries.Enabled())
	return srv.Start(ctx)
}

// watchReload re-reads the config file on SIGHUP. Running engines keep
// their snapshot; new wakes pick up the change.
func watchReload(ctx context.Context, holder *config.Holder, log *logging.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			cfg, err := holder.Reload()
			if err != nil {
				log.Error("config reload failed", "error", err)
				continue
			}
			if level, err := logging.ParseLevel(cfg.Logging.Level); err == nil {
				log.SetLevel(level)
			}
			log.Info("config reloaded")
		}
	}
}

func pruneTokens(ctx context.Context, a *auth.Service, log *logging.Logger) {
	ticker := time.NewTicker(tokenPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.Prune()
			if err != nil {
				log.Warn("token prune failed", "error", err)
				continue
			}
			if n > 0 {
				log.Debug("expired tokens pruned", "count", n)
			}
		}
	}
}
