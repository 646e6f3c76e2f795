package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/timesetor/internal/clock"
	"github.com/sadopc/timesetor/internal/config"
	"github.com/sadopc/timesetor/internal/export"
	"github.com/sadopc/timesetor/internal/metrics"
	"github.com/sadopc/timesetor/internal/session"
	"github.com/sadopc/timesetor/internal/store"
	"github.com/sadopc/timesetor/internal/tui"
)

// defaultUser is the local account name: $USER, or "local".
func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}

// localUser returns the named account, creating it without a password when
// missing. Such accounts cannot log in over HTTP until registered there.
func localUser(st *store.Store, holder *config.Holder, name string) (*store.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("user name is required")
	}
	u, err := st.GetUserByName(name)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return st.CreateUser(name, "", config.UserDefaults(holder.Get().Time))
}

func newTUICmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal client for a local user",
		RunE: func(_ *cobra.Command, _ []string) error {
			holder, err := loadConfig()
			if err != nil {
				return err
			}
			cfg := holder.Get()

			logFile, err := openLogFile(cfg)
			if err != nil {
				return err
			}
			defer logFile.Close()
			log, err := setupLogging(cfg, logFile)
			if err != nil {
				return err
			}

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			u, err := localUser(st, holder, user)
			if err != nil {
				return err
			}

			sessions := session.NewService(st, holder, clock.RealClock{}, metrics.Get(), log)
			app := tui.NewApp(tui.Deps{
				Sessions: sessions,
				Store:    st,
				Config:   holder,
				UserID:   u.ID,
				Username: u.Username,
			})
			_, err = tea.NewProgram(app, tea.WithAltScreen()).Run()
			return err
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", defaultUser(), "local user name")
	return cmd
}

func newExportCmd() *cobra.Command {
	var user, format, from, to, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export daily records and time logs as CSV or JSON",
		RunE: func(_ *cobra.Command, _ []string) error {
			if format != "csv" && format != "json" {
				return fmt.Errorf("unknown format %q (want csv or json)", format)
			}
			for _, d := range []string{from, to} {
				if d == "" {
					continue
				}
				if _, err := time.Parse(store.DateLayout, d); err != nil {
					return fmt.Errorf("bad date %q: want YYYY-MM-DD", d)
				}
			}

			holder, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(holder.Get())
			if err != nil {
				return err
			}
			defer st.Close()

			u, err := st.GetUserByName(user)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no user %q", user)
			}
			if err != nil {
				return err
			}

			var days []export.Day
			if from == "" && to == "" {
				days, err = export.All(st, u.ID)
			} else {
				days, err = export.Collect(st, u.ID, orDefault(from, "0000-01-01"), orDefault(to, "9999-12-31"))
			}
			if err != nil {
				return err
			}

			if out == "" {
				out = fmt.Sprintf("timesetor-export-%s.%s", time.Now().Format(store.DateLayout), format)
			}
			if format == "csv" {
				err = export.ToCSV(days, out)
			} else {
				err = export.ToJSON(days, out)
			}
			if err != nil {
				return err
			}
			fmt.Printf("exported %d days to %s\n", len(days), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", defaultUser(), "user name")
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv or json")
	cmd.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file")
	return cmd
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
