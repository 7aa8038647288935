package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/droidprune/internal/config"
	"github.com/blackwell-systems/droidprune/internal/logging"
	"github.com/blackwell-systems/droidprune/internal/output"
	"github.com/blackwell-systems/droidprune/internal/store"
	"github.com/blackwell-systems/droidprune/internal/watcher"
)

var (
	watchDaemon      bool
	watchDaemonChild bool
	watchPIDFile     string
	watchLogFile     string
	watchStop        bool

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Keep the backup index in sync with the backups directory",
		Long: `Watch the backups directory and keep the backup index in the database
up to date as backup folders are created, deleted or renamed.

The index is always rebuilt from disk when restore lists backups, so the
watcher is optional. Running it keeps 'droidprune backups' and the restore
list current when backups are copied in or removed by hand.

Watch modes:
  • Foreground (default): Run in current terminal with Ctrl+C to stop
  • Daemon: Run as a background process
  • Stop: Stop a running daemon`,
		Example: `  # Run in foreground (Ctrl+C to stop)
  droidprune watch

  # Run as background daemon
  droidprune watch --daemon

  # Stop running daemon
  droidprune watch --stop

  # Use custom PID and log files
  droidprune watch --daemon --pid-file /tmp/watch.pid --log-file /tmp/watch.log`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "run as background daemon")
	watchCmd.Flags().BoolVar(&watchDaemonChild, "daemon-child", false, "internal flag for daemon child process")
	watchCmd.Flags().StringVar(&watchPIDFile, "pid-file", "", "PID file path (default: <config dir>/watch.pid)")
	watchCmd.Flags().StringVar(&watchLogFile, "log-file", "", "log file path (default: <config dir>/watch.log)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "stop running daemon")

	// Hide the internal daemon-child flag from help
	watchCmd.Flags().MarkHidden("daemon-child")

	RootCmd.AddCommand(watchCmd)
}

func getDefaultPIDFile() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "watch.pid"), nil
}

func getDefaultLogFile() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "watch.log"), nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchDaemon && watchStop {
		return fmt.Errorf("--daemon and --stop are mutually exclusive")
	}

	if watchPIDFile == "" {
		defaultPID, err := getDefaultPIDFile()
		if err != nil {
			return fmt.Errorf("failed to get default PID file path: %w", err)
		}
		watchPIDFile = defaultPID
	}

	if watchLogFile == "" {
		defaultLog, err := getDefaultLogFile()
		if err != nil {
			return fmt.Errorf("failed to get default log file path: %w", err)
		}
		watchLogFile = defaultLog
	}

	if watchStop {
		return stopWatchDaemon()
	}

	if watchDaemon {
		return startWatchDaemon()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	w, err := watcher.New(cfg.BackupsDir, db, logger.Named("watcher"))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if watchDaemonChild {
		// stdout and stderr are the log file here
		return w.RunDaemon(ctx, watchPIDFile)
	}

	w.OnChange = func(c watcher.Change) {
		fmt.Printf("%-8s %s\n", c.Op, c.Entry.Dir)
	}
	return runWatchForeground(ctx, w, cfg.BackupsDir)
}

func stopWatchDaemon() error {
	running, err := watcher.IsDaemonRunning(watchPIDFile)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if !running {
		fmt.Println("Daemon is not running")
		return nil
	}

	spinner := output.NewSpinner("Stopping daemon...")
	spinner.Start()
	if err := watcher.StopDaemon(watchPIDFile); err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to stop daemon: %w", err)
	}
	spinner.StopWithMessage("✓ Daemon stopped")

	return nil
}

func startWatchDaemon() error {
	running, err := watcher.IsDaemonRunning(watchPIDFile)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if running {
		fmt.Printf("Daemon already running (PID file: %s). Nothing to do.\n", watchPIDFile)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(watchPIDFile), 0755); err != nil {
		return fmt.Errorf("failed to create PID file directory: %w", err)
	}

	spinner := output.NewSpinner("Starting daemon...")
	spinner.Start()
	if err := watcher.StartDaemon(watchPIDFile, watchLogFile, daemonChildArgs()...); err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	spinner.StopWithMessage("✓ Daemon started")

	fmt.Printf("\nBackup index daemon started\n")
	fmt.Printf("  PID file: %s\n", watchPIDFile)
	fmt.Printf("  Log file: %s\n", watchLogFile)
	fmt.Printf("\nTo stop: droidprune watch --stop\n")

	return nil
}

// daemonChildArgs forwards the parent's global flags so the child opens the
// same config and database.
func daemonChildArgs() []string {
	args := []string{"--pid-file", watchPIDFile}
	if cfgFile != "" {
		args = append(args, "--config", cfgFile)
	}
	if dbPath != "" {
		args = append(args, "--db", dbPath)
	}
	if logLevel != "" {
		args = append(args, "--log-level", logLevel)
	}
	return args
}

// runWatchForeground watches until ctx is cancelled by SIGINT or SIGTERM.
func runWatchForeground(ctx context.Context, w *watcher.Watcher, root string) error {
	fmt.Println("Starting backup watcher (press Ctrl+C to stop)...")
	fmt.Println()

	spinner := output.NewSpinner("Indexing backups...")
	spinner.Start()

	if err := w.Start(); err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	spinner.StopWithMessage("✓ Watcher started")

	fmt.Printf("\nWatching %s\n\n", root)

	<-ctx.Done()
	fmt.Println("\nShutting down...")

	if err := w.Stop(); err != nil {
		return fmt.Errorf("failed to stop watcher: %w", err)
	}
	fmt.Println("✓ Watcher stopped")

	return nil
}
