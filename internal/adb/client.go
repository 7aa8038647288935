// Package adb wraps the adb command-line tool.
package adb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Runner executes a command and returns its standard output. Standard
// error is never mixed into the returned bytes; a failing command carries
// it in its *exec.ExitError.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Output()
}

// Client runs adb against one device, or the only connected device when
// Serial is empty.
type Client struct {
	Path    string
	Serial  string
	Timeout time.Duration
	Run     Runner
	Logger  *zap.Logger
}

// New creates a Client for the adb binary at path.
func New(path, serial string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{Path: path, Serial: serial, Timeout: timeout, Run: ExecRunner, Logger: logger}
}

// Filename is the adb executable name on this platform.
func Filename() string {
	if runtime.GOOS == "windows" {
		return "adb.exe"
	}
	return "adb"
}

// Resolve finds the adb binary: configured first, then a bundled
// platform-tools directory next to the executable, then $PATH.
func Resolve(configured string) (string, error) {
	var tried []string

	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured, nil
		}
		tried = append(tried, configured)
	}

	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		for _, cand := range []string{
			filepath.Join(dir, "platform-tools", Filename()),
			filepath.Join(dir, "resources", "platform-tools", Filename()),
		} {
			if _, err := os.Stat(cand); err == nil {
				return cand, nil
			}
			tried = append(tried, cand)
		}
	}

	if p, err := exec.LookPath(Filename()); err == nil {
		return p, nil
	}
	tried = append(tried, "$PATH")

	return "", fmt.Errorf("adb not found. Tried: %s", strings.Join(tried, ", "))
}

func (c *Client) run(ctx context.Context, device bool, args ...string) (string, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	verb := args[0]
	if device && c.Serial != "" {
		args = append([]string{"-s", c.Serial}, args...)
	}

	run := c.Run
	if run == nil {
		run = ExecRunner
	}

	start := time.Now()
	out, err := run(ctx, c.Path, args...)
	c.logger().Debug("adb",
		zap.Strings("args", args),
		zap.Duration("took", time.Since(start)),
		zap.Error(err))

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("adb %s failed: %w (output: %s)", verb, err, failureDetail(out, exitErr.Stderr))
		}
		return string(out), fmt.Errorf("failed to run adb (%s): %w", c.Path, err)
	}
	return string(out), nil
}

func (c *Client) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Devices lists attached devices.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	out, err := c.run(ctx, false, "devices")
	if err != nil {
		return nil, err
	}
	return parseDevices(out), nil
}

// ListPackages lists installed package names in the order pm reports them.
func (c *Client) ListPackages(ctx context.Context) ([]string, error) {
	out, err := c.run(ctx, true, "shell", "pm", "list", "packages")
	if err != nil {
		return nil, err
	}
	return parsePackages(out), nil
}

// APKPaths returns the on-device APK paths of pkg (base plus splits).
func (c *Client) APKPaths(ctx context.Context, pkg string) ([]string, error) {
	out, err := c.run(ctx, true, "shell", "pm", "path", pkg)
	if err != nil {
		return nil, fmt.Errorf("failed to get APK paths for %s: %w", pkg, err)
	}
	paths := parsePMPath(out)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no APK paths found for %s", pkg)
	}
	return paths, nil
}

// Pull copies a device file into destDir.
func (c *Client) Pull(ctx context.Context, remote, destDir string) error {
	if _, err := c.run(ctx, true, "pull", remote, destDir); err != nil {
		return fmt.Errorf("adb pull failed for %s -> %s: %w", remote, destDir, err)
	}
	return nil
}

// Uninstall removes pkg for user 0 and returns pm's output verbatim.
// pm reports most failures in its output rather than its exit code.
func (c *Client) Uninstall(ctx context.Context, pkg string) (string, error) {
	return textResult(c.run(ctx, true, "shell", "pm", "uninstall", "--user", "0", pkg))
}

// Install installs one APK, or several splits of one package, for user 0.
func (c *Client) Install(ctx context.Context, apks []string) (string, error) {
	if len(apks) == 0 {
		return "", errors.New("no APKs to install")
	}
	return textResult(c.run(ctx, true, installArgs(apks)...))
}

// Reboot restarts the device.
func (c *Client) Reboot(ctx context.Context) error {
	_, err := c.run(ctx, true, "reboot")
	return err
}

// textResult treats a non-zero exit that still printed something as a
// textual result; the caller classifies the text.
func textResult(out string, err error) (string, error) {
	var exitErr *exec.ExitError
	if err != nil && errors.As(err, &exitErr) && strings.TrimSpace(out) != "" {
		return out, nil
	}
	return out, err
}

// failureDetail joins what a failed command printed, stderr last.
func failureDetail(stdout, stderr []byte) string {
	var parts []string
	for _, b := range [][]byte{stdout, stderr} {
		if t := strings.TrimSpace(string(b)); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "; ")
}

func installArgs(apks []string) []string {
	verb := "install"
	if len(apks) > 1 {
		verb = "install-multiple"
	}
	args := []string{verb, "-r", "--user", "0"}
	return append(args, apks...)
}
