package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/droidprune/internal/bulk"
	"github.com/blackwell-systems/droidprune/internal/output"
)

var uninstallFlagYes bool

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <package>...",
	Short: "Back up and uninstall packages for the current user",
	Long: `Uninstall the given packages from the connected device for user 0.

Each package is backed up first: its APKs are pulled into a new folder under
the backups directory, which 'droidprune restore' can reinstall later.
Packages are processed one at a time in the order given; a failure on one
package does not stop the others.

After the run the package list is rescanned.`,
	Example: `  # Remove two packages, asking for confirmation
  droidprune uninstall com.facebook.katana com.facebook.appmanager

  # Skip the confirmation prompt
  droidprune uninstall --yes com.example.bloat`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUninstall,
}

func init() {
	uninstallCmd.Flags().BoolVarP(&uninstallFlagYes, "yes", "y", false, "Skip confirmation prompt")
	RootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	e, err := openEnv(true, uninstallFlagYes)
	if err != nil {
		return err
	}
	defer e.Close()

	sess := e.session
	for _, pkg := range args {
		sess.Selection.Add(pkg)
	}

	report := uninstallWithProgress(cmd, e)
	if report.Aborted {
		return nil
	}

	fmt.Println()
	fmt.Print(output.RenderRunSummary(
		report.Count(bulk.Succeeded),
		report.Count(bulk.Failed),
		report.Count(bulk.Errored)))
	fmt.Printf("Run %s recorded. See 'droidprune history %s'.\n", report.RunID, report.RunID)

	if report.Count(bulk.Errored) > 0 {
		return fmt.Errorf("%d package(s) could not be processed", report.Count(bulk.Errored))
	}
	return nil
}

// uninstallWithProgress runs the selection with a progress bar on stderr
// and prints the run's log lines once the bar is done.
func uninstallWithProgress(cmd *cobra.Command, e *env) bulk.Report {
	sess := e.session
	mark := sess.Sink.Len()

	var progress *output.ProgressBar
	sess.Bulk.OnItem = func(done, total int, o bulk.Outcome) {
		if progress == nil {
			progress = output.NewProgress(total, "Uninstalling")
			progress.SetWriter(os.Stderr)
		}
		progress.Step(done, o.Package)
	}
	defer func() { sess.Bulk.OnItem = nil }()

	e.view.mute(true)
	report := sess.Bulk.UninstallSelected(cmd.Context())
	e.view.mute(false)

	if progress != nil {
		progress.Finish()
	}
	for _, line := range sess.Sink.Lines()[mark:] {
		fmt.Println(line)
	}
	return report
}
