package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/prabalesh/perftop/internal/history"
)

func historyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect, export and prune recorded metrics",
		Long: "Work with the metric history recorded by the dashboard and by 'perftop record'.\n\n" +
			"Metrics: " + metricNames() + "\n" +
			"Ranges:  1h, 6h, 24h, 7d, 30d",
	}

	cmd.AddCommand(historyShowCommand())
	cmd.AddCommand(historyExportCommand())
	cmd.AddCommand(historyPurgeCommand())
	cmd.AddCommand(historyStatsCommand())
	cmd.AddCommand(historyCompareCommand())

	return cmd
}

func metricNames() string {
	names := make([]string, len(history.Metrics))
	for i, m := range history.Metrics {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// withStore loads the config, opens the history database and hands both to fn.
func withStore(cmd *cobra.Command, fn func(*history.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closer.Close()

	store, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func formatValue(m history.Metric, v float64) string {
	switch m.Unit() {
	case history.UnitCelsius:
		return fmt.Sprintf("%.1f°C", v)
	case history.UnitBytes:
		return humanize.IBytes(uint64(math.Max(0, v)))
	case history.UnitBytesPerSec:
		return humanize.IBytes(uint64(math.Max(0, v))) + "/s"
	default:
		return fmt.Sprintf("%.1f%%", v)
	}
}

func historyShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <metric>",
		Short: "Draw a metric over a time range",
		Example: `  perftop history show cpu_usage
  perftop history show cpu_core_usage --label 0 --range 24h
  perftop history show memory_used --range 7d --bucket 6h`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			metric, err := history.ParseMetric(args[0])
			if err != nil {
				return err
			}
			rng, err := history.ParseTimeRange(cmd.Flag("range").Value.String())
			if err != nil {
				return err
			}
			label := cmd.Flag("label").Value.String()
			height, _ := cmd.Flags().GetInt("height")
			bucket, _ := cmd.Flags().GetDuration("bucket")
			if bucket < 0 {
				return fmt.Errorf("--bucket must be positive, got %s", bucket)
			}

			width := 60
			if term.IsTerminal(int(os.Stdout.Fd())) {
				if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
					width = w - 2
				}
			}

			return withStore(cmd, func(store *history.Store) error {
				label, err := resolveLabel(cmd, store, metric, label)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if bucket > 0 {
					from, to := rng.Bounds(time.Now())
					buckets, err := store.Aggregate(metric, from, to, bucket, label)
					if err != nil {
						return err
					}
					if len(buckets) == 0 {
						fmt.Fprintf(out, "No %s samples in the last %s.\n", metric, rng)
						return nil
					}
					printBuckets(out, metric, buckets)
					return nil
				}

				points, err := store.QueryRange(metric, rng, label, width)
				if err != nil {
					return err
				}
				if len(points) == 0 {
					fmt.Fprintf(out, "No %s samples in the last %s.\n", metric, rng)
					return nil
				}
				printSeries(out, metric, points, width, height)
				return nil
			})
		},
	}

	cmd.Flags().String("range", string(history.LastHour), "Time range: 1h, 6h, 24h, 7d or 30d")
	cmd.Flags().String("label", "", "Series label, e.g. a core index for cpu_core_usage")
	cmd.Flags().Int("height", 8, "Chart height in rows")
	cmd.Flags().Duration("bucket", 0, "Print min/avg/max per bucket of this width instead of a chart")

	return cmd
}

// resolveLabel picks the series to read for metrics recorded per label. An
// empty label falls back to the first recorded one so series are never
// mixed; an unknown label is an error listing the recorded ones.
func resolveLabel(cmd *cobra.Command, store *history.Store, metric history.Metric, label string) (string, error) {
	labels, err := store.Labels(metric)
	if err != nil {
		return "", err
	}
	labels = slices.DeleteFunc(labels, func(l string) bool { return l == "" })
	if len(labels) == 0 {
		return label, nil
	}
	if label == "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s is recorded per label; showing %q (use --label, recorded: %s)\n",
			metric, labels[0], strings.Join(labels, ", "))
		return labels[0], nil
	}
	if !slices.Contains(labels, label) {
		return "", fmt.Errorf("no %s series labelled %q (recorded: %s)", metric, label, strings.Join(labels, ", "))
	}
	return label, nil
}

func printBuckets(out io.Writer, metric history.Metric, buckets []history.Aggregate) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "START\tMIN\tAVG\tMAX\tSAMPLES")
	for _, b := range buckets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", b.Start.Local().Format("Jan 2 15:04"),
			formatValue(metric, b.Min), formatValue(metric, b.Avg), formatValue(metric, b.Max), b.Count)
	}
	w.Flush()
}

func printSeries(out io.Writer, metric history.Metric, points []history.Point, width, height int) {
	lo, hi, sum := math.Inf(1), math.Inf(-1), 0.0
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
		sum += p.Value
	}

	opts := []sparkline.Option{sparkline.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("39")))}
	if metric.Unit() == history.UnitPercent {
		opts = append(opts, sparkline.WithMaxValue(100))
	}
	chart := sparkline.New(width, height, opts...)
	chart.PushAll(values)
	chart.Draw()

	fmt.Fprintf(out, "%s  %s to %s\n", metric,
		points[0].Time.Format("Jan 2 15:04"), points[len(points)-1].Time.Format("Jan 2 15:04"))
	fmt.Fprintln(out, chart.View())
	fmt.Fprintf(out, "min %s  avg %s  max %s  (%d points)\n",
		formatValue(metric, lo), formatValue(metric, sum/float64(len(values))), formatValue(metric, hi), len(values))
}

func historyExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export recorded metrics as CSV or JSON",
		Example: `  perftop history export --range 24h > day.csv
  perftop history export --format json --metric cpu_usage --metric memory_used -f out.json`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			names, _ := cmd.Flags().GetStringSlice("metric")
			file, _ := cmd.Flags().GetString("file")
			rng, err := history.ParseTimeRange(cmd.Flag("range").Value.String())
			if err != nil {
				return err
			}
			if format != "csv" && format != "json" {
				return fmt.Errorf("unknown format %q (valid: csv, json)", format)
			}
			var metrics []history.Metric
			for _, n := range names {
				m, err := history.ParseMetric(n)
				if err != nil {
					return err
				}
				metrics = append(metrics, m)
			}

			return withStore(cmd, func(store *history.Store) error {
				out := cmd.OutOrStdout()
				if file != "" {
					f, err := os.Create(file)
					if err != nil {
						return fmt.Errorf("create export file: %w", err)
					}
					defer f.Close()
					out = f
				}
				from, to := rng.Bounds(time.Now())
				if format == "json" {
					return store.ExportJSON(out, from, to, metrics)
				}
				return store.ExportCSV(out, from, to, metrics)
			})
		},
	}

	cmd.Flags().String("format", "csv", "Export format: csv or json")
	cmd.Flags().String("range", string(history.Last24Hours), "Time range: 1h, 6h, 24h, 7d or 30d")
	cmd.Flags().StringSlice("metric", nil, "Metric to export (repeatable, default all)")
	cmd.Flags().StringP("file", "f", "", "Write to this file instead of stdout")

	return cmd
}

func historyPurgeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "purge",
		Short:        "Delete samples older than the retention period",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			olderThan, _ := cmd.Flags().GetDuration("older-than")
			if olderThan <= 0 {
				olderThan = cfg.Retention()
			}
			return withStore(cmd, func(store *history.Store) error {
				n, err := store.Purge(olderThan)
				if err != nil {
					return err
				}
				if err := store.Vacuum(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d samples older than %s.\n", n, olderThan)
				return nil
			})
		},
	}

	cmd.Flags().Duration("older-than", 0, "Age cutoff (default is history.retention_days)")

	return cmd
}

func historyStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "stats",
		Short:        "Show database size, coverage and recent sessions",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *history.Store) error {
				count, err := store.Count()
				if err != nil {
					return err
				}
				size, err := store.Size()
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database: %s\n", store.Path())
				fmt.Fprintf(out, "Samples:  %s (%s)\n\n", humanize.Comma(count), humanize.IBytes(uint64(size)))

				w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
				fmt.Fprintln(w, "METRIC\tFIRST\tLAST")
				for _, m := range history.Metrics {
					first, last, ok, err := store.DataRange(m)
					if err != nil {
						return err
					}
					if !ok {
						continue
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", m, first.Format(time.DateTime), humanize.Time(last))
				}
				w.Flush()

				sessions, err := store.Sessions(5)
				if err != nil {
					return err
				}
				if len(sessions) == 0 {
					return nil
				}
				fmt.Fprintln(out)
				w = tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
				fmt.Fprintln(w, "SESSION\tHOST\tSTARTED\tDURATION")
				for _, s := range sessions {
					dur := "running"
					if s.EndedAt != nil {
						dur = s.EndedAt.Sub(s.StartedAt).Truncate(time.Second).String()
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID[:8], s.Host, s.StartedAt.Format(time.DateTime), dur)
				}
				return w.Flush()
			})
		},
	}
	return cmd
}

func historyCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <metric>",
		Short: "Compare today with yesterday, or this week with last week",
		Example: `  perftop history compare cpu_usage
  perftop history compare memory_used --period week --json`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			metric, err := history.ParseMetric(args[0])
			if err != nil {
				return err
			}
			period, _ := cmd.Flags().GetString("period")
			label, _ := cmd.Flags().GetString("label")
			asJSON, _ := cmd.Flags().GetBool("json")

			return withStore(cmd, func(store *history.Store) error {
				label, err := resolveLabel(cmd, store, metric, label)
				if err != nil {
					return err
				}
				var cmp history.Comparison
				var first, second string
				switch period {
				case "day":
					cmp, err = store.CompareTodayWithYesterday(metric, label)
					first, second = "Yesterday", "Today"
				case "week":
					cmp, err = store.CompareThisWeekWithLastWeek(metric, label)
					first, second = "Last week", "This week"
				default:
					return fmt.Errorf("unknown period %q (valid: day, week)", period)
				}
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(cmp)
				}
				w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
				fmt.Fprintln(w, "PERIOD\tAVG\tMIN\tMAX\tSAMPLES")
				for _, row := range []struct {
					name string
					st   history.PeriodStats
				}{{first, cmp.First}, {second, cmp.Second}} {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", row.name,
						formatValue(metric, row.st.Avg), formatValue(metric, row.st.Min), formatValue(metric, row.st.Max), row.st.Count)
				}
				w.Flush()
				fmt.Fprintf(out, "\nChange in average: %+.2f (%+.1f%%)\n", cmp.AvgDiff, cmp.AvgDiffPercent)
				return nil
			})
		},
	}

	cmd.Flags().String("period", "day", "Period to compare: day or week")
	cmd.Flags().String("label", "", "Series label")
	cmd.Flags().Bool("json", false, "Print the comparison as JSON")

	return cmd
}
