package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/prabalesh/perftop/internal/collector"
	"github.com/prabalesh/perftop/internal/models"
)

func snapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print one sample of every metric",
		Long: `Take two samples --interval apart (rates and CPU usage need a delta) and
print the second one. Output is a table on a terminal and JSON otherwise.`,
		Args:         cobra.NoArgs,
		RunE:         runSnapshot,
		SilenceUsage: true,
	}

	cmd.Flags().StringP("output", "o", "", "Output format: table or json")
	cmd.Flags().Bool("json", false, "Shorthand for --output json")
	cmd.Flags().Duration("interval", 500*time.Millisecond, "Time between the two samples")
	cmd.Flags().Int("top", 5, "Number of processes to list")

	return cmd
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closer.Close()

	output, _ := cmd.Flags().GetString("output")
	interval, _ := cmd.Flags().GetDuration("interval")
	top, _ := cmd.Flags().GetInt("top")
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		output = "json"
	}

	if output == "" {
		output = "table"
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			output = "json"
		}
	}

	c := collector.NewStatsCollector(collector.Options{Logger: logger})
	c.GetSystemStats()
	c.GetProcessList(models.SortByCPU)
	select {
	case <-cmd.Context().Done():
		return cmd.Context().Err()
	case <-time.After(interval):
	}
	stats := c.GetSystemStats()
	procs := c.GetProcessList(models.SortByCPU)
	if top >= 0 && len(procs.Processes) > top {
		procs.Processes = procs.Processes[:top]
	}

	switch output {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Stats     models.SystemStats `json:"stats"`
			Processes models.ProcessList `json:"processes"`
		}{stats, procs})
	case "table":
		printSnapshot(cmd.OutOrStdout(), stats, procs)
		return nil
	default:
		return fmt.Errorf("unknown output format %q (valid: table, json)", output)
	}
}

func printSnapshot(out io.Writer, stats models.SystemStats, procs models.ProcessList) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "HOST\t%s (%s %s)\n", stats.Host.Hostname, stats.Host.Platform, stats.Host.Kernel)
	fmt.Fprintf(w, "UPTIME\t%s\n", stats.Uptime.Truncate(time.Second))
	fmt.Fprintf(w, "CPU\t%.1f%%\t%d cores\t%.0f MHz\n", stats.CPU.Usage, len(stats.CPU.Cores), stats.CPU.Frequency)
	fmt.Fprintf(w, "MEMORY\t%.1f%%\t%s of %s\n", stats.Memory.UsagePercent,
		humanize.IBytes(stats.Memory.Used), humanize.IBytes(stats.Memory.Total))
	if stats.Memory.SwapTotal > 0 {
		fmt.Fprintf(w, "SWAP\t%.1f%%\t%s of %s\n", stats.Memory.SwapPercent(),
			humanize.IBytes(stats.Memory.SwapUsed), humanize.IBytes(stats.Memory.SwapTotal))
	}
	fmt.Fprintf(w, "NETWORK\trx %s/s\ttx %s/s\n",
		humanize.IBytes(uint64(stats.Network.RxRate)), humanize.IBytes(uint64(stats.Network.TxRate)))
	read, write := models.DiskIOTotals(stats.Disk)
	fmt.Fprintf(w, "DISK IO\tread %s/s\twrite %s/s\n", humanize.IBytes(uint64(read)), humanize.IBytes(uint64(write)))
	for _, d := range stats.Disk {
		fmt.Fprintf(w, "  %s\t%.1f%%\t%s free\n", d.Mountpoint, d.UsagePercent, humanize.IBytes(d.Free))
	}
	if stats.Battery.Present {
		fmt.Fprintf(w, "BATTERY\t%d%%\t%s\t%s\n", stats.Battery.Level, stats.Battery.Status, stats.Battery.TimeLeft)
	}
	w.Flush()

	if len(procs.Processes) == 0 {
		return
	}
	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "PID\tNAME\tCPU%\tMEM%\tRSS")
	fmt.Fprintln(w, "---\t----\t----\t----\t---")
	for _, p := range procs.Processes {
		fmt.Fprintf(w, "%d\t%s\t%.1f\t%.1f\t%s\n", p.PID, p.Name, p.CPUPercent, p.MemPercent, humanize.IBytes(p.MemRSS))
	}
	w.Flush()
}
