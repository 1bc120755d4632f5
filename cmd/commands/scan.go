package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/huh/spinner"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/prabalesh/perftop/internal/cleaner"
)

func scanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Show what is using disk space under a directory",
		Long: `Measure a directory: the size of each entry directly under it, the largest
files, the extensions using the most space and how file sizes are spread.
Symbolic links are not followed.`,
		Example: `  perftop scan ~/Downloads
  perftop scan / --large 1GiB --files 10
  perftop scan . --json`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         runScan,
		SilenceUsage: true,
	}

	cmd.Flags().Int("top", 15, "Entries to list, largest first")
	cmd.Flags().Int("files", 10, "Large files to list")
	cmd.Flags().String("large", "10MiB", "Size from which a file counts as large")
	cmd.Flags().Bool("json", false, "Print the full report as JSON")
	cmd.Flags().Bool("accessible", false, "Disable the progress spinner")

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	top, _ := cmd.Flags().GetInt("top")
	files, _ := cmd.Flags().GetInt("files")
	asJSON, _ := cmd.Flags().GetBool("json")
	accessible, _ := cmd.Flags().GetBool("accessible")
	large, err := humanize.ParseBytes(cmd.Flag("large").Value.String())
	if err != nil {
		return fmt.Errorf("invalid --large: %w", err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closer.Close()

	c := cleaner.New(cleaner.Options{Logger: logger})
	opts := cleaner.UsageOptions{LargeFileThreshold: int64(large), MaxLargeFiles: files}

	var rep cleaner.UsageReport
	measure := func() { rep, err = c.DiskUsage(cmd.Context(), root, opts) }
	if term.IsTerminal(int(os.Stdout.Fd())) && !accessible && !asJSON {
		if spinErr := spinner.New().Title("Scanning " + root + "...").Action(measure).Run(); spinErr != nil {
			return spinErr
		}
	} else {
		measure()
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	printUsage(out, rep, top)
	return nil
}

func printUsage(out io.Writer, rep cleaner.UsageReport, top int) {
	fmt.Fprintf(out, "%s: %s (%s)\n\n", rep.Root, rep, rep.Duration.Round(time.Millisecond))

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "SIZE\tSHARE\tFILES\tPATH")
	entries := rep.Entries
	if top > 0 && len(entries) > top {
		entries = entries[:top]
	}
	for _, e := range entries {
		path := e.Path
		if e.Dir {
			path += string(os.PathSeparator)
		}
		fmt.Fprintf(w, "%s\t%.1f%%\t%d\t%s\n", humanize.IBytes(uint64(e.Bytes)), e.Percent, e.Files, path)
	}
	w.Flush()
	if hidden := len(rep.Entries) - len(entries); hidden > 0 {
		fmt.Fprintf(out, "... and %d more\n", hidden)
	}

	if len(rep.LargeFiles) > 0 {
		fmt.Fprintln(out, "\nLargest files:")
		w = tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		for _, f := range rep.LargeFiles {
			fmt.Fprintf(w, "%s\t%s\t%s\n", humanize.IBytes(uint64(f.Size)), humanize.Time(f.ModTime), f.Path)
		}
		w.Flush()
	}

	if len(rep.Extensions) > 0 {
		fmt.Fprintln(out, "\nBy extension:")
		w = tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		for _, e := range rep.Extensions {
			fmt.Fprintf(w, "%s\t%s\t%d files\n", e.Ext, humanize.IBytes(uint64(e.Bytes)), e.Files)
		}
		w.Flush()
	}

	fmt.Fprintln(out, "\nFile sizes:")
	w = tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	for _, b := range rep.Buckets {
		fmt.Fprintf(w, "%s\t%d\n", b.Label, b.Files)
	}
	w.Flush()
	if rep.Skipped > 0 {
		fmt.Fprintf(out, "\n%d entries could not be read.\n", rep.Skipped)
	}
}
