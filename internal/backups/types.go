// Package backups manages on-disk APK backups taken before packages are
// uninstalled. Each backup is a directory named <package>-<unix seconds>
// under the backups root holding the pulled .apk files.
package backups

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/blackwell-systems/droidprune/internal/gateway"
)

// Device is the subset of the adb client a backup needs.
type Device interface {
	APKPaths(ctx context.Context, pkg string) ([]string, error)
	Pull(ctx context.Context, remote, destDir string) error
}

// Manager creates and lists backups under a root directory.
type Manager struct {
	root   string
	device Device
	logger *zap.Logger

	// now is replaced in tests.
	now func() time.Time
}

// NewManager creates a backup manager rooted at root.
func NewManager(root string, device Device, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		root:   root,
		device: device,
		logger: logger,
		now:    time.Now,
	}
}

// Root returns the backups root directory.
func (m *Manager) Root() string {
	return m.root
}

// DirName returns the directory name used for a backup of pkg taken at ts.
func DirName(pkg string, ts int64) string {
	return pkg + "-" + strconv.FormatInt(ts, 10)
}

// ParseDirName splits a backup directory name on its last '-'. A suffix
// that is not a number yields timestamp 0. ok is false when the name has
// no '-' or an empty package part.
func ParseDirName(name string) (pkg string, ts int64, ok bool) {
	idx := strings.LastIndex(name, "-")
	if idx <= 0 {
		return "", 0, false
	}
	pkg = name[:idx]
	ts, err := strconv.ParseInt(name[idx+1:], 10, 64)
	if err != nil || ts < 0 {
		ts = 0
	}
	return pkg, ts, true
}

// EntryFor describes the backup directory at path, if its name matches
// the backup layout.
func EntryFor(path string) (gateway.BackupEntry, bool) {
	pkg, ts, ok := ParseDirName(filepath.Base(path))
	if !ok {
		return gateway.BackupEntry{}, false
	}
	return gateway.BackupEntry{Package: pkg, Timestamp: ts, Dir: path}, true
}
