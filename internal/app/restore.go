package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/droidprune/internal/gateway"
	"github.com/blackwell-systems/droidprune/internal/output"
	"github.com/blackwell-systems/droidprune/internal/prompt"
	"github.com/blackwell-systems/droidprune/internal/restore"
)

var (
	restoreFlagDir     string
	restoreFlagPackage string
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Reinstall a package from a backup",
	Long: `Reinstall a package from one of its backups.

Without flags, the newest backup of every package is listed and you pick one
by number, or enter "d" to restore from a folder of your own. Restores
install for user 0 and replace any installed version.

--package restores the newest backup of that package without asking.
--dir restores every .apk file in the given folder.`,
	Example: `  droidprune restore
  droidprune restore --package com.example.bloat
  droidprune restore --dir ~/Downloads/split-apks`,
	Args: cobra.NoArgs,
	RunE: runRestore,
}

func init() {
	restoreCmd.Flags().StringVarP(&restoreFlagDir, "dir", "d", "", "restore from this folder instead of a discovered backup")
	restoreCmd.Flags().StringVarP(&restoreFlagPackage, "package", "p", "", "restore the newest backup of this package")
	restoreCmd.MarkFlagsMutuallyExclusive("dir", "package")
	RootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, args []string) error {
	e, err := openEnv(true, false)
	if err != nil {
		return err
	}
	defer e.Close()

	return restoreFlow(cmd.Context(), e.session.Restore, e.term, os.Stdout, e.cfg.BackupsDir,
		restoreFlagDir, restoreFlagPackage)
}

// restoreFlow runs one restore workflow to completion. dir and pkg pick the
// source non-interactively; with both empty the user chooses on term.
func restoreFlow(ctx context.Context, wf *restore.Workflow, term *prompt.Terminal, out io.Writer,
	backupsDir, dir, pkg string) error {
	if err := wf.Start(ctx); err != nil {
		return err
	}
	v := wf.View()
	if v.State != restore.Choosing {
		// Discovery failed; the sink already carries the reason.
		return nil
	}

	switch {
	case dir != "":
		return wf.PickFolder(ctx, prompt.FixedDir(dir))
	case pkg != "":
		i := backupIndex(v.Backups, pkg)
		if i < 0 {
			if err := wf.Cancel(); err != nil {
				return err
			}
			return fmt.Errorf("no backup found for %s in %s", pkg, backupsDir)
		}
		return wf.SelectIndex(ctx, i)
	}

	if v.Empty() {
		fmt.Fprintf(out, "No backups found in %s\n", backupsDir)
	} else {
		fmt.Fprint(out, output.RenderBackupTable(v.Backups, time.Now()))
	}

	for {
		answer, err := term.Ask(`Backup number, "d" to pick a folder, empty to cancel: `)
		answer = strings.TrimSpace(answer)
		if err != nil || answer == "" {
			return wf.Cancel()
		}

		if strings.EqualFold(answer, "d") {
			if err := wf.PickFolder(ctx, term); err != nil {
				return err
			}
			if wf.State() == restore.Choosing {
				// chooser cancelled
				continue
			}
			return nil
		}

		n, convErr := strconv.Atoi(answer)
		if convErr != nil {
			fmt.Fprintf(out, "Not a number: %q\n", answer)
			continue
		}
		if err := wf.SelectIndex(ctx, n-1); err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		return nil
	}
}

func backupIndex(entries []gateway.BackupEntry, pkg string) int {
	for i, b := range entries {
		if b.Package == pkg {
			return i
		}
	}
	return -1
}
