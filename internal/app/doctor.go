package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/droidprune/internal/adb"
	"github.com/blackwell-systems/droidprune/internal/backups"
	"github.com/blackwell-systems/droidprune/internal/config"
	"github.com/blackwell-systems/droidprune/internal/store"
	"github.com/blackwell-systems/droidprune/internal/watcher"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose common issues and check system health",
	Long: `Runs diagnostic checks on your droidprune setup.

Checks:
  • adb can be found
  • A device is connected and authorized
  • The backups directory is writable
  • The database is accessible
  • Whether the backup watcher is running

Exits 1 on critical issues and 2 when only warnings were found.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

// doctorExit is swapped out in tests.
var doctorExit = os.Exit

func init() {
	RootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Println("Running droidprune diagnostics...")
	fmt.Println()

	critical, warnings := diagnose(cmd.Context(), cfg, adb.ExecRunner, os.Stdout)

	fmt.Println()
	if critical == 0 && warnings == 0 {
		fmt.Println("✓ All checks passed!")
		return nil
	}

	if critical > 0 {
		fmt.Printf("Found %d critical issue(s) and %d warning(s).\n", critical, warnings)
		return fmt.Errorf("diagnostics failed")
	}

	// Warnings only: exit 2 directly so main does not print an error too.
	fmt.Printf("Found %d warning(s). droidprune is usable but not fully set up.\n", warnings)
	doctorExit(2)
	return nil
}

// diagnose runs every check, printing one line per result to out, and
// returns the number of critical issues and warnings.
func diagnose(ctx context.Context, cfg *config.Config, run adb.Runner, out io.Writer) (critical, warnings int) {
	// Check 1: adb binary
	adbBin, err := adb.Resolve(cfg.ADBPath)
	if err != nil {
		fmt.Fprintln(out, "✗", err)
		fmt.Fprintln(out, "  Action: Install Android platform-tools or set adb_path in the config")
		critical++
	} else {
		fmt.Fprintln(out, "✓ adb found:", adbBin)

		// Check 2: device connected
		client := adb.New(adbBin, cfg.Serial, cfg.CommandTimeout, nil)
		client.Run = run
		devices, err := client.Devices(ctx)
		switch {
		case err != nil:
			fmt.Fprintln(out, "✗ Cannot list devices:", err)
			critical++
		default:
			connected, unauthorized := 0, 0
			for _, d := range devices {
				switch d.State {
				case "device":
					connected++
				case "unauthorized":
					unauthorized++
				}
			}
			switch {
			case connected > 0:
				fmt.Fprintf(out, "✓ %d device(s) connected\n", connected)
			case unauthorized > 0:
				fmt.Fprintln(out, "⚠ Device attached but unauthorized")
				fmt.Fprintln(out, "  Action: Accept the USB debugging prompt on the phone")
				warnings++
			default:
				fmt.Fprintln(out, "⚠ No device connected")
				fmt.Fprintln(out, "  Action: Connect a phone with USB debugging enabled")
				warnings++
			}
		}
	}

	// Check 3: backups directory
	if info, err := os.Stat(cfg.BackupsDir); os.IsNotExist(err) {
		fmt.Fprintln(out, "⚠ Backups directory does not exist yet:", cfg.BackupsDir)
		fmt.Fprintln(out, "  It will be created by the first uninstall")
		warnings++
	} else if err != nil || !info.IsDir() {
		fmt.Fprintln(out, "✗ Backups path is not a usable directory:", cfg.BackupsDir)
		critical++
	} else if err := checkWritable(cfg.BackupsDir); err != nil {
		fmt.Fprintln(out, "✗ Backups directory is not writable:", err)
		critical++
	} else {
		entries, err := backups.NewManager(cfg.BackupsDir, nil, nil).All()
		if err != nil {
			fmt.Fprintln(out, "⚠ Cannot read backups:", err)
			warnings++
		} else {
			fmt.Fprintf(out, "✓ Backups directory writable: %s (%s backups of %s packages)\n",
				cfg.BackupsDir,
				humanize.Comma(int64(len(entries))),
				humanize.Comma(int64(len(backups.Latest(entries)))))
		}
	}

	// Check 4: database
	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		fmt.Fprintln(out, "⚠ Database not found at:", cfg.DBPath)
		fmt.Fprintln(out, "  Action: Run 'droidprune backups' to create it")
		warnings++
	} else if db, err := store.New(cfg.DBPath); err != nil {
		fmt.Fprintln(out, "✗ Cannot open database:", err)
		critical++
	} else {
		runs, err := db.ListRuns(0)
		switch {
		case errors.Is(err, store.ErrNotInitialized):
			fmt.Fprintln(out, "⚠", err)
			warnings++
		case err != nil:
			fmt.Fprintln(out, "✗ Cannot read database:", err)
			critical++
		default:
			fmt.Fprintf(out, "✓ Database is accessible (%d runs recorded)\n", len(runs))
		}
		db.Close()
	}

	// Check 5: watcher daemon, informational only
	pidFile, err := getDefaultPIDFile()
	if err == nil {
		running, _ := watcher.IsDaemonRunning(pidFile)
		if running {
			if pid, started, err := watcher.DaemonProcess(pidFile); err == nil {
				fmt.Fprintf(out, "✓ Backup watcher running (PID %d, started %s)\n", pid, humanize.Time(started))
			} else {
				fmt.Fprintln(out, "✓ Backup watcher running")
			}
		} else {
			fmt.Fprintln(out, "- Backup watcher not running (optional: 'droidprune watch --daemon')")
		}
	}

	return critical, warnings
}

func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".droidprune-doctor-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
