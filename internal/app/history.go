package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/droidprune/internal/output"
	"github.com/blackwell-systems/droidprune/internal/store"
)

var historyFlagLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show past uninstall runs",
	Long: `Show the uninstall runs recorded in the database, newest first.

With a run id (or any unique prefix of one) the outcome of every package in
that run is shown.`,
	Example: `  droidprune history
  droidprune history --limit 5
  droidprune history 3f2a9c1e`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyFlagLimit, "limit", "n", 20, "maximum number of runs to list (0 for all)")
	RootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	e, err := openEnv(false, false)
	if err != nil {
		return err
	}
	defer e.Close()

	if len(args) == 0 {
		runs, err := e.store.ListRuns(historyFlagLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}
		fmt.Print(output.RenderRunTable(runs, time.Now()))
		return nil
	}

	runs, err := e.store.ListRuns(0)
	if err != nil {
		return err
	}
	run, err := findRun(runs, args[0])
	if err != nil {
		return err
	}
	items, err := e.store.GetRunItems(run.ID)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s (%s), started %s\n\n", run.ID, run.Kind, run.StartedAt.Local().Format(time.DateTime))
	fmt.Print(output.RenderRunItems(items))
	return nil
}

// findRun resolves a full run id or a unique prefix of one.
func findRun(runs []*store.Run, id string) (*store.Run, error) {
	var matches []*store.Run
	for _, r := range runs {
		if r.ID == id {
			return r, nil
		}
		if strings.HasPrefix(r.ID, id) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("run %s not found", id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("run id %s is ambiguous (%d matches)", id, len(matches))
	}
}
