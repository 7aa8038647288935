// Package backend implements gateway.Gateway on the local machine: adb for
// device access, a backups directory for APK copies, SQLite for the backup
// index, and an HTTP release lookup for update checks.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/blackwell-systems/droidprune/internal/adb"
	"github.com/blackwell-systems/droidprune/internal/backups"
	"github.com/blackwell-systems/droidprune/internal/gateway"
	"github.com/blackwell-systems/droidprune/internal/store"
	"github.com/blackwell-systems/droidprune/internal/update"
)

var (
	// ErrEmptyPackage is returned by Uninstall for a blank package name.
	ErrEmptyPackage = errors.New("package name cannot be empty")
	// ErrNoAPKs is returned by RestoreFromDir when the folder has no .apk files.
	ErrNoAPKs = errors.New("no .apk files found in selected folder")
	// ErrInstallFailed is returned by RestoreFromDir when adb does not
	// report a successful install.
	ErrInstallFailed = errors.New("install failed")
)

// ReleaseLookup resolves the latest published version.
type ReleaseLookup interface {
	Latest(ctx context.Context) (string, error)
}

// Local is the gateway used by the droidprune binary.
type Local struct {
	adb      *adb.Client
	backups  *backups.Manager
	store    *store.Store // may be nil
	releases ReleaseLookup
	logger   *zap.Logger
}

var _ gateway.Gateway = (*Local)(nil)

// New creates a Local gateway. st may be nil, in which case backups are
// listed straight from disk.
func New(client *adb.Client, mgr *backups.Manager, st *store.Store, releases ReleaseLookup, logger *zap.Logger) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Local{
		adb:      client,
		backups:  mgr,
		store:    st,
		releases: releases,
		logger:   logger,
	}
}

// ListDevices lists attached devices.
func (l *Local) ListDevices(ctx context.Context) ([]gateway.DeviceInfo, error) {
	devices, err := l.adb.Devices(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]gateway.DeviceInfo, 0, len(devices))
	for _, d := range devices {
		infos = append(infos, gateway.DeviceInfo{ID: d.Serial, Status: gateway.ParseDeviceStatus(d.State)})
	}
	return infos, nil
}

// ListPackages lists package ids installed on the device.
func (l *Local) ListPackages(ctx context.Context) ([]string, error) {
	return l.adb.ListPackages(ctx)
}

// Uninstall backs pkg up, then removes it for user 0. The result is the
// backup location followed by pm's output, verbatim.
func (l *Local) Uninstall(ctx context.Context, pkg string) (string, error) {
	if strings.TrimSpace(pkg) == "" {
		return "", ErrEmptyPackage
	}

	entry, err := l.backups.Create(ctx, pkg)
	if err != nil {
		return "", err
	}
	l.index(entry)

	out, err := l.adb.Uninstall(ctx, pkg)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Backup saved to: %s\n%s", entry.Dir, out), nil
}

// Reboot restarts the device.
func (l *Local) Reboot(ctx context.Context) error {
	if err := l.adb.Reboot(ctx); err != nil {
		return fmt.Errorf("adb reboot failed: %w", err)
	}
	return nil
}

// CheckUpdate compares current with the latest published release.
func (l *Local) CheckUpdate(ctx context.Context, current string) (gateway.UpdateInfo, error) {
	latest, err := l.releases.Latest(ctx)
	if err != nil {
		return gateway.UpdateInfo{}, err
	}
	return gateway.UpdateInfo{Latest: latest, Outdated: update.IsOutdated(latest, current)}, nil
}

// LatestBackups rescans the backups root, brings the index in line with
// what is on disk, and returns the newest backup per package.
func (l *Local) LatestBackups(ctx context.Context) ([]gateway.BackupEntry, error) {
	all, err := l.backups.All()
	if err != nil {
		return nil, err
	}
	if l.store == nil {
		return backups.Latest(all), nil
	}

	if err := l.store.ReplaceBackups(all); err != nil {
		l.logger.Warn("backup index sync failed; listing from disk", zap.Error(err))
		return backups.Latest(all), nil
	}
	return l.store.LatestBackups()
}

// RestoreFromDir reinstalls every APK in dir as one package.
func (l *Local) RestoreFromDir(ctx context.Context, dir string) (string, error) {
	apks, err := backups.APKs(dir)
	if err != nil {
		return "", err
	}
	if len(apks) == 0 {
		return "", ErrNoAPKs
	}

	out, err := l.adb.Install(ctx, apks)
	if err != nil {
		return "", err
	}
	if !strings.Contains(strings.ToLower(out), "success") {
		return "", fmt.Errorf("%w: %s", ErrInstallFailed, oneLine(out))
	}

	l.logger.Info("restored backup", zap.String("dir", dir), zap.Int("apks", len(apks)))
	return fmt.Sprintf("Restored %d APK(s) from %s\n%s", len(apks), dir, out), nil
}

func (l *Local) index(entry gateway.BackupEntry) {
	if l.store == nil {
		return
	}
	if err := l.store.InsertBackup(entry); err != nil {
		l.logger.Warn("failed to index backup", zap.String("dir", entry.Dir), zap.Error(err))
	}
}

// oneLine folds multi-line tool output into a single line.
func oneLine(out string) string {
	var lines []string
	for _, l := range strings.Split(out, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "; ")
}
