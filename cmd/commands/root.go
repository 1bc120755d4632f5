// Package commands holds the perftop command tree.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/prabalesh/perftop/internal/collector"
	"github.com/prabalesh/perftop/internal/config"
	"github.com/prabalesh/perftop/internal/history"
	"github.com/prabalesh/perftop/internal/logging"
	"github.com/prabalesh/perftop/internal/ui"
)

// rootCmd runs the dashboard when called without a subcommand.
func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "perftop",
		Short: "A terminal performance monitor with rolling graphs",
		Long: `perftop shows CPU, memory, network, disk and battery activity as rolling
sparkline graphs, lists processes, and keeps a local history of every metric.

Quick start:
  perftop                       # Open the dashboard
  perftop snapshot              # Print one sample and exit
  perftop record --duration 1h  # Record history without the UI
  perftop history show cpu_usage --range 24h
  perftop clean --dry-run       # See what temporary files could go
  perftop scan ~                # See what is using disk space
  perftop impact --by cpu       # Rank processes over ten seconds`,
		RunE:         runDashboard,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "Config file (default is the user config directory)")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides the config)")

	cmd.AddCommand(snapshotCommand())
	cmd.AddCommand(recordCommand())
	cmd.AddCommand(historyCommand())
	cmd.AddCommand(cleanCommand())
	cmd.AddCommand(scanCommand())
	cmd.AddCommand(impactCommand())
	cmd.AddCommand(configCommand())

	return cmd
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig honours --config and --log-level, then applies the environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if f := cmd.Flag("config"); f != nil && f.Changed {
		config.SetPath(f.Value.String())
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if f := cmd.Flag("log-level"); f != nil && f.Changed {
		cfg.Log.Level = f.Value.String()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger logs to the configured file, or to fallback without one.
func newLogger(cfg *config.Config, fallback io.Writer) (*slog.Logger, io.Closer, error) {
	return logging.New(cfg.Log.Level, cfg.Log.File, fallback)
}

func openHistory(cfg *config.Config, logger *slog.Logger) (*history.Store, error) {
	opts := history.Options{
		RecordingInterval: cfg.RecordingInterval(),
		FlushInterval:     cfg.FlushInterval(),
		Logger:            logger,
	}
	if cfg.History.Path != "" {
		return history.OpenAt(cfg.History.Path, opts)
	}
	return history.Open(opts)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// stdout belongs to the UI, so without a log file nothing is logged
	logger, closer, err := newLogger(cfg, nil)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	updates := make(chan *config.Config, 1)
	if path, err := config.DefaultPath(); err == nil {
		go watchConfig(ctx, path, updates, logger)
	}

	source := collector.NewStatsCollector(collector.Options{Logger: logger})

	opts := ui.Options{
		Source:        source,
		Config:        cfg,
		ConfigUpdates: updates,
		Logger:        logger,
	}
	if cfg.History.Enabled {
		store, err := openHistory(cfg, logger)
		if err != nil {
			logger.Warn("history disabled", "error", err)
		} else {
			defer store.Close()
			if n, err := store.Purge(cfg.Retention()); err != nil {
				logger.Warn("history purge failed", "error", err)
			} else if n > 0 {
				logger.Info("history purged", "samples", n)
			}
			host, _ := os.Hostname()
			if _, err := store.StartSession(host); err != nil {
				logger.Warn("history session", "error", err)
			}
			opts.History = store
		}
	}

	p := tea.NewProgram(ui.NewApp(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}

// watchConfig forwards reloaded configs, keeping only the newest one when the
// UI falls behind.
func watchConfig(ctx context.Context, path string, updates chan *config.Config, logger *slog.Logger) {
	err := config.Watch(ctx, path, func(cfg *config.Config, err error) {
		if err != nil {
			logger.Warn("config reload failed", "error", err)
			return
		}
		select {
		case updates <- cfg:
		default:
			select {
			case <-updates:
			default:
			}
			updates <- cfg
		}
	})
	if err != nil {
		logger.Warn("config watch stopped", "error", err)
	}
}
