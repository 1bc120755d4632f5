package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/prabalesh/perftop/internal/collector"
	"github.com/prabalesh/perftop/internal/models"
)

func recordCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record metric history without the dashboard",
		Long: `Sample the system at the refresh interval and store every metric in the
history database until interrupted or until --duration has passed.`,
		Args:         cobra.NoArgs,
		RunE:         runRecord,
		SilenceUsage: true,
	}

	cmd.Flags().Duration("duration", 0, "Stop after this long (0 records until interrupted)")
	cmd.Flags().Duration("interval", 0, "Sampling interval (default is refresh.interval)")

	return cmd
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closer.Close()

	duration, _ := cmd.Flags().GetDuration("duration")
	interval, _ := cmd.Flags().GetDuration("interval")
	if interval <= 0 {
		interval = cfg.RefreshInterval()
	}

	store, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	host, _ := os.Hostname()
	session, err := store.StartSession(host)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	sampler := collector.NewSampler(collector.NewStatsCollector(collector.Options{Logger: logger}), interval)
	samples := 0
	sampler.Subscribe(func(stats models.SystemStats) {
		samples++
		if err := store.RecordStats(stats); err != nil {
			logger.Warn("record failed", "error", err)
		}
	})

	fmt.Fprintf(cmd.OutOrStdout(), "Recording to %s every %s (session %s). Press Ctrl+C to stop.\n",
		store.Path(), interval, session.ID)
	start := time.Now()

	err = sampler.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if err := store.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Recorded %d samples in %s.\n", samples, time.Since(start).Truncate(time.Second))
	return nil
}
