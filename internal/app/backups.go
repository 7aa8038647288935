package app

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/droidprune/internal/gateway"
	"github.com/blackwell-systems/droidprune/internal/output"
)

var backupsFlagAll bool

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List backups on disk",
	Long: `List the backups in the backups directory.

By default only the newest backup of each package is shown, which is what
'droidprune restore' offers. --all shows every backup folder.

Listing also refreshes the backup index in the database.`,
	Args: cobra.NoArgs,
	RunE: runBackups,
}

func init() {
	backupsCmd.Flags().BoolVarP(&backupsFlagAll, "all", "a", false, "show every backup, not just the newest per package")
	RootCmd.AddCommand(backupsCmd)
}

func runBackups(cmd *cobra.Command, args []string) error {
	e, err := openEnv(false, false)
	if err != nil {
		return err
	}
	defer e.Close()

	entries, err := listBackups(cmd.Context(), e, backupsFlagAll)
	if err != nil {
		return err
	}

	fmt.Printf("Backups in %s\n\n", e.cfg.BackupsDir)
	if len(entries) == 0 {
		fmt.Println("No backups found.")
		return nil
	}
	fmt.Print(output.RenderBackupTable(entries, time.Now()))
	return nil
}

func listBackups(ctx context.Context, e *env, all bool) ([]gateway.BackupEntry, error) {
	latest, err := e.gateway.LatestBackups(ctx)
	if err != nil || !all {
		return latest, err
	}
	// LatestBackups has just synced the index with the disk.
	return e.store.ListBackups()
}
