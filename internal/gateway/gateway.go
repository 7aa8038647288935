// Package gateway defines the command surface droidprune uses to reach the
// device-management backend.
//
// The console core never talks to adb, the filesystem or the network
// directly. Every device operation goes through a Gateway, which keeps the
// orchestration code (inventory, bulk uninstall, restore) testable with an
// in-memory double (see package gatewaytest).
package gateway

import (
	"context"
	"strings"
)

// DeviceStatus is the connection state reported for a device.
type DeviceStatus string

const (
	StatusConnected    DeviceStatus = "connected"
	StatusUnauthorized DeviceStatus = "unauthorized"
	StatusOffline      DeviceStatus = "offline"
	StatusRecovery     DeviceStatus = "recovery"
	StatusSideload     DeviceStatus = "sideload"
	StatusBootloader   DeviceStatus = "bootloader"
	StatusUnknown      DeviceStatus = "unknown"
)

// ParseDeviceStatus maps an adb state word to a DeviceStatus.
// adb reports a usable device as "device".
func ParseDeviceStatus(s string) DeviceStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "device", "connected":
		return StatusConnected
	case "unauthorized":
		return StatusUnauthorized
	case "offline":
		return StatusOffline
	case "recovery":
		return StatusRecovery
	case "sideload":
		return StatusSideload
	case "bootloader":
		return StatusBootloader
	default:
		return StatusUnknown
	}
}

// DeviceInfo identifies one connected device.
type DeviceInfo struct {
	ID     string       `json:"id"`
	Status DeviceStatus `json:"status"`
}

// BackupEntry points at a directory holding the backed-up APKs of a package.
// Timestamp is unix seconds and is only used for ordering and display.
type BackupEntry struct {
	Package   string `json:"package"`
	Timestamp int64  `json:"timestamp"`
	Dir       string `json:"dir"`
}

// UpdateInfo is the result of a release check.
type UpdateInfo struct {
	Latest   string `json:"latest"`
	Outdated bool   `json:"outdated"`
}

// Gateway is the backend command surface. Any call may fail with a
// transport or backend error; textual results are returned verbatim.
type Gateway interface {
	ListDevices(ctx context.Context) ([]DeviceInfo, error)
	ListPackages(ctx context.Context) ([]string, error)
	Uninstall(ctx context.Context, pkg string) (string, error)
	Reboot(ctx context.Context) error
	CheckUpdate(ctx context.Context, current string) (UpdateInfo, error)
	LatestBackups(ctx context.Context) ([]BackupEntry, error)
	RestoreFromDir(ctx context.Context, dir string) (string, error)
}
