package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sadopc/timesetor/internal/config"
	"github.com/sadopc/timesetor/internal/logging"
	"github.com/sadopc/timesetor/internal/store"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "timesetor",
		Short:         "Virtual time engine that bends your clock toward a target schedule",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ~/.config/timesetor/config.yaml)")

	root.AddCommand(
		newServeCmd(),
		newTUICmd(),
		newExportCmd(),
		newConfigCmd(),
	)
	return root
}

// resolveConfigPath returns the --config flag or the default location.
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultPath()
}

func loadConfig() (*config.Holder, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return config.NewHolder(path, cfg), nil
}

// setupLogging installs the process logger. The terminal client passes a
// file so log lines do not tear the screen.
func setupLogging(cfg *config.Config, out io.Writer) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	log := logging.New(logging.Config{Level: level, Output: out, JSON: cfg.Logging.JSON})
	logging.SetDefault(log)
	return log, nil
}

func openStore(cfg *config.Config) (*store.Store, error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		if dbPath, err = store.DefaultDBPath(); err != nil {
			return nil, err
		}
	}
	s, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", dbPath, err)
	}
	return s, nil
}

// openLogFile opens timesetor.log next to the database.
func openLogFile(cfg *config.Config) (*os.File, error) {
	dir := filepath.Dir(cfg.Database.Path)
	if cfg.Database.Path == "" {
		dbPath, err := store.DefaultDBPath()
		if err != nil {
			return nil, err
		}
		dir = filepath.Dir(dbPath)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "timesetor.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
}
