package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/prabalesh/perftop/internal/collector"
	"github.com/prabalesh/perftop/internal/models"
)

func impactCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "impact",
		Short: "Rank processes by their resource use over a sampling window",
		Long: `Sample the process list for --duration and rank processes by average CPU,
resident memory, disk traffic or a combined impact score (0-100, CPU,
memory against 4 GiB and disk against 50 MiB/s weighted equally).`,
		Example: `  perftop impact
  perftop impact --duration 1m --by disk --top 5`,
		Args:         cobra.NoArgs,
		RunE:         runImpact,
		SilenceUsage: true,
	}

	cmd.Flags().Duration("duration", 10*time.Second, "How long to sample")
	cmd.Flags().Duration("interval", 0, "Sampling interval (default is refresh.process_interval)")
	cmd.Flags().Int("top", 10, "Processes to list")
	cmd.Flags().String("by", string(models.ImpactByScore), "Ranking: score, cpu, memory or disk")
	cmd.Flags().Bool("json", false, "Print the ranking as JSON")

	return cmd
}

func runImpact(cmd *cobra.Command, args []string) error {
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
	top, _ := cmd.Flags().GetInt("top")
	asJSON, _ := cmd.Flags().GetBool("json")
	by := models.ImpactSort(cmd.Flag("by").Value.String())
	if !slices.Contains(models.ImpactSorts, by) {
		names := make([]string, len(models.ImpactSorts))
		for i, s := range models.ImpactSorts {
			names[i] = string(s)
		}
		return fmt.Errorf("unknown ranking %q (valid: %s)", by, strings.Join(names, ", "))
	}
	if duration <= 0 {
		return fmt.Errorf("--duration must be positive, got %s", duration)
	}
	if interval <= 0 {
		interval = cfg.ProcessInterval()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	if !asJSON {
		fmt.Fprintf(cmd.ErrOrStderr(), "Sampling processes every %s for %s...\n", interval, duration)
	}
	tracker := collector.NewImpactTracker(collector.ImpactOptions{Window: duration + interval})
	err = tracker.Run(ctx, collector.NewStatsCollector(collector.Options{Logger: logger}), interval)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	ranking := tracker.Top(by, top)
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(ranking)
	}
	printImpact(out, ranking)
	return nil
}

func printImpact(out io.Writer, ranking []models.ProcessImpact) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PID\tNAME\tSCORE\tAVG CPU\tPEAK CPU\tSPIKES\tRSS\tGROWTH\tREAD/S\tWRITE/S")
	for _, p := range ranking {
		growth := humanize.IBytes(uint64(max(p.MemGrowth, -p.MemGrowth)))
		if p.MemGrowth < 0 {
			growth = "-" + growth
		}
		fmt.Fprintf(w, "%d\t%s\t%.1f\t%.1f%%\t%.1f%%\t%d\t%s\t%s\t%s\t%s\n",
			p.PID, truncateName(p.Name, 24), p.Score, p.AvgCPU, p.PeakCPU, p.CPUSpikes,
			humanize.IBytes(p.MemRSS), growth,
			humanize.IBytes(uint64(p.AvgRead)), humanize.IBytes(uint64(p.AvgWrite)))
	}
	w.Flush()
}

func truncateName(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
