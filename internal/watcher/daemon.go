package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// ErrNotRunning is returned when no live daemon owns the PID file.
var ErrNotRunning = errors.New("backup watcher daemon is not running")

// Run indexes the backups root and applies changes until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	<-ctx.Done()
	w.logger.Info("stopping watcher", zap.NamedError("cause", context.Cause(ctx)))
	return w.Stop()
}

// RunDaemon is the body of the detached child started by StartDaemon. It
// runs until SIGTERM or SIGINT and then removes pidFile.
func (w *Watcher) RunDaemon(ctx context.Context, pidFile string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, os.Interrupt)
	defer stop()

	runErr := w.Run(ctx)
	if err := os.Remove(pidFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Join(runErr, fmt.Errorf("failed to remove PID file: %w", err))
	}
	return runErr
}

// StartDaemon re-executes the current binary as "watch --daemon-child
// <childArgs>" in its own session with output appended to logFile, and
// records the child's PID in pidFile.
func StartDaemon(pidFile, logFile string, childArgs ...string) error {
	p, err := daemonProcess(pidFile)
	if err != nil {
		return err
	}
	if p != nil {
		return fmt.Errorf("daemon already running (PID %d)", p.Pid)
	}

	logF, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logF.Close()

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	cmd := exec.Command(exe, append([]string{"watch", "--daemon-child"}, childArgs...)...)
	cmd.Stdout, cmd.Stderr = logF, logF
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon process: %w", err)
	}
	if err := writePIDFile(pidFile, cmd.Process.Pid); err != nil {
		_ = cmd.Process.Kill()
		return err
	}
	return cmd.Process.Release()
}

// StopDaemon asks the daemon recorded in pidFile to terminate. The daemon
// removes its own PID file on the way out.
func StopDaemon(pidFile string) error {
	p, err := daemonProcess(pidFile)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotRunning
	}
	if err := p.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate daemon (PID %d): %w", p.Pid, err)
	}
	return nil
}

// IsDaemonRunning reports whether pidFile names a live process. Stale PID
// files are removed.
func IsDaemonRunning(pidFile string) (bool, error) {
	p, err := daemonProcess(pidFile)
	return p != nil, err
}

// DaemonProcess returns the PID of the running daemon and when it started.
func DaemonProcess(pidFile string) (int32, time.Time, error) {
	p, err := daemonProcess(pidFile)
	if err != nil {
		return 0, time.Time{}, err
	}
	if p == nil {
		return 0, time.Time{}, ErrNotRunning
	}
	created, err := p.CreateTime()
	if err != nil {
		return p.Pid, time.Time{}, fmt.Errorf("failed to read start time of process %d: %w", p.Pid, err)
	}
	return p.Pid, time.UnixMilli(created), nil
}

// daemonProcess resolves pidFile to a live process, or nil when there is
// none. A PID file that does not hold a PID, or names a process that has
// exited, is stale and gets removed.
func daemonProcess(pidFile string) (*process.Process, error) {
	data, err := os.ReadFile(pidFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read PID file: %w", err)
	}

	pid, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 32)
	if err == nil && pid > 0 {
		if alive, _ := process.PidExists(int32(pid)); alive {
			return process.NewProcess(int32(pid))
		}
	}

	if err := os.Remove(pidFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to remove stale PID file: %w", err)
	}
	return nil, nil
}

// writePIDFile replaces path atomically so readers never see a partial PID.
func writePIDFile(path string, pid int) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}
