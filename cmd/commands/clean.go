package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/prabalesh/perftop/internal/cleaner"
)

var errCleanAborted = errors.New("clean aborted")

func cleanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stale temporary and cache files",
		Long: `Scan the cleanup targets (temporary files, thumbnails, trash and package
caches, or the targets in the config file) for files older than their
minimum age, then delete them after confirmation.`,
		Example: `  perftop clean --dry-run
  perftop clean --yes`,
		Args:         cobra.NoArgs,
		RunE:         runClean,
		SilenceUsage: true,
	}

	cmd.Flags().Bool("dry-run", false, "Only report what would be removed")
	cmd.Flags().BoolP("yes", "y", false, "Delete without asking")
	cmd.Flags().Bool("accessible", false, "Use accessible prompts")

	return cmd
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closer.Close()

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	yes, _ := cmd.Flags().GetBool("yes")
	accessible, _ := cmd.Flags().GetBool("accessible")

	c := cleaner.New(cleaner.Options{Logger: logger})
	targets := cleaner.TargetsFromConfig(cfg)

	var scan cleaner.ScanResult
	scanAll := func() { scan, err = c.Scan(cmd.Context(), targets) }
	if term.IsTerminal(int(os.Stdout.Fd())) && !accessible {
		if spinErr := spinner.New().Title("Scanning cleanup targets...").Action(scanAll).Run(); spinErr != nil {
			return spinErr
		}
	} else {
		scanAll()
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printScan(out, scan)
	if scan.TotalFiles == 0 {
		fmt.Fprintln(out, "Nothing to clean.")
		return nil
	}

	if !dryRun && !yes {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("refusing to delete %s without --yes when not running in a terminal", scan)
		}
		if err := confirmClean(scan, accessible); err != nil {
			if errors.Is(err, errCleanAborted) {
				fmt.Fprintln(out, "Aborted.")
				return nil
			}
			return err
		}
	}

	res, err := c.Clean(cmd.Context(), scan, dryRun)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, res)
	for _, e := range res.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %v\n", e)
	}
	return nil
}

func printScan(out io.Writer, scan cleaner.ScanResult) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "TARGET\tFILES\tSIZE\tRISK\tDESCRIPTION")
	for _, t := range scan.Targets {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			t.Target.Name, len(t.Files), humanize.IBytes(uint64(t.Bytes)), t.Target.Risk, t.Target.Description)
	}
	fmt.Fprintf(w, "TOTAL\t%d\t%s\t\t\n", scan.TotalFiles, humanize.IBytes(uint64(scan.TotalBytes)))
	w.Flush()
}

func confirmClean(scan cleaner.ScanResult, accessible bool) error {
	confirm := false
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Delete %s?", scan)).
			Description("Files are removed permanently.").
			Affirmative("Yes, delete").
			Negative("Cancel").
			Value(&confirm),
	)).WithAccessible(accessible)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errCleanAborted
		}
		return err
	}
	if !confirm {
		return errCleanAborted
	}
	return nil
}
