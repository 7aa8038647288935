// Package output provides terminal output utilities for droidprune.
//
// This package includes:
//   - Table rendering for devices, packages, backups and run history
//   - Progress bars for bulk uninstall runs
//   - Spinners for the current activity
//
// All table rendering functions use plain characters and ANSI color codes
// for terminal output. Progress indicators are safe for concurrent use.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/droidprune/internal/gateway"
	"github.com/blackwell-systems/droidprune/internal/store"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// RenderDeviceTable renders attached devices in the order adb reported them.
func RenderDeviceTable(devices []gateway.DeviceInfo) string {
	if len(devices) == 0 {
		return "No devices found.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-28s %s\n", "Device", "Status"))
	sb.WriteString(strings.Repeat("─", 44))
	sb.WriteString("\n")

	for _, d := range devices {
		// Pad before colorizing so escape codes don't skew the columns.
		status := fmt.Sprintf("%-14s", d.Status)
		sb.WriteString(fmt.Sprintf("%-28s %s\n", truncate(d.ID, 28), colorize(statusColor(d.Status), status)))
	}

	return sb.String()
}

func statusColor(s gateway.DeviceStatus) string {
	switch s {
	case gateway.StatusConnected:
		return colorGreen
	case gateway.StatusUnauthorized, gateway.StatusRecovery, gateway.StatusSideload, gateway.StatusBootloader:
		return colorYellow
	case gateway.StatusOffline:
		return colorRed
	default:
		return colorGray
	}
}

// RenderPackageList renders a numbered package list. Rows for which
// selected returns true are marked with [x]. Numbers are 1-based and are
// what the interactive shell accepts in "toggle".
func RenderPackageList(pkgs []string, selected func(string) bool) string {
	if len(pkgs) == 0 {
		return "No packages found.\n"
	}

	var sb strings.Builder
	marked := 0
	width := len(fmt.Sprint(len(pkgs)))
	for i, pkg := range pkgs {
		mark := "[ ]"
		if selected != nil && selected(pkg) {
			mark = colorize(colorYellow, "[x]")
			marked++
		}
		sb.WriteString(fmt.Sprintf("%*d %s %s\n", width, i+1, mark, pkg))
	}

	sb.WriteString(fmt.Sprintf("\n%s packages", humanize.Comma(int64(len(pkgs)))))
	if marked > 0 {
		sb.WriteString(fmt.Sprintf(" (%d selected)", marked))
	}
	sb.WriteString("\n")

	return sb.String()
}

// RenderBackupTable renders backup candidates with a 1-based index, the
// package, the backup age relative to now, and the directory.
func RenderBackupTable(entries []gateway.BackupEntry, now time.Time) string {
	if len(entries) == 0 {
		return "No backups found.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-4s %-36s %-16s %s\n", "#", "Package", "Taken", "Directory"))
	sb.WriteString(strings.Repeat("─", 90))
	sb.WriteString("\n")

	for i, e := range entries {
		sb.WriteString(fmt.Sprintf("%-4d %-36s %-16s %s\n",
			i+1,
			truncate(e.Package, 36),
			formatBackupAge(e.Timestamp, now),
			e.Dir))
	}

	return sb.String()
}

// formatBackupAge renders a unix timestamp relative to now. A zero
// timestamp comes from a directory whose suffix did not parse.
func formatBackupAge(ts int64, now time.Time) string {
	if ts <= 0 {
		return "unknown"
	}
	return humanize.RelTime(time.Unix(ts, 0), now, "ago", "from now")
}

// RenderRunTable renders recorded bulk runs, newest first as given.
func RenderRunTable(runs []*store.Run, now time.Time) string {
	if len(runs) == 0 {
		return "No runs recorded.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-10s %-10s %-16s %-6s %s\n", "Run", "Kind", "Started", "Items", "Duration"))
	sb.WriteString(strings.Repeat("─", 60))
	sb.WriteString("\n")

	for _, r := range runs {
		duration := "running"
		if r.FinishedAt != nil {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		sb.WriteString(fmt.Sprintf("%-10s %-10s %-16s %-6d %s\n",
			truncate(r.ID, 8),
			r.Kind,
			humanize.RelTime(r.StartedAt, now, "ago", "from now"),
			r.ItemCount,
			duration))
	}

	return sb.String()
}

// RenderRunItems renders the per-package outcomes of one run.
func RenderRunItems(items []*store.RunItem) string {
	if len(items) == 0 {
		return "No items recorded for this run.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-4s %-36s %-9s %s\n", "#", "Package", "Outcome", "Detail"))
	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")

	for _, it := range items {
		outcome := fmt.Sprintf("%-9s", it.Outcome)
		sb.WriteString(fmt.Sprintf("%-4d %-36s %s %s\n",
			it.Seq+1,
			truncate(it.Package, 36),
			colorize(outcomeColor(it.Outcome), outcome),
			truncate(firstLine(it.Detail), 60)))
	}

	return sb.String()
}

func outcomeColor(outcome string) string {
	switch outcome {
	case "success":
		return colorGreen
	case "failure":
		return colorYellow
	case "error":
		return colorRed
	default:
		return colorGray
	}
}

// RenderRunSummary renders the one-line tally printed after a bulk run.
func RenderRunSummary(succeeded, failed, errored int) string {
	return fmt.Sprintf("%s succeeded, %s failed, %s errored\n",
		colorize(colorGreen, fmt.Sprint(succeeded)),
		colorize(colorYellow, fmt.Sprint(failed)),
		colorize(colorRed, fmt.Sprint(errored)))
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
