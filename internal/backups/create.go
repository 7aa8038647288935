package backups

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/blackwell-systems/droidprune/internal/gateway"
)

// Create pulls every APK of pkg (base plus splits) into a new backup
// directory. A partially written directory is removed on failure.
func (m *Manager) Create(ctx context.Context, pkg string) (gateway.BackupEntry, error) {
	paths, err := m.device.APKPaths(ctx, pkg)
	if err != nil {
		return gateway.BackupEntry{}, err
	}

	ts := m.now().Unix()
	dir := filepath.Join(m.root, DirName(pkg, ts))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return gateway.BackupEntry{}, fmt.Errorf("failed to create backup dir: %w", err)
	}

	for _, remote := range paths {
		if err := m.device.Pull(ctx, remote, dir); err != nil {
			if rmErr := os.RemoveAll(dir); rmErr != nil {
				m.logger.Warn("failed to remove partial backup", zap.String("dir", dir), zap.Error(rmErr))
			}
			return gateway.BackupEntry{}, err
		}
	}

	m.logger.Info("backup created",
		zap.String("package", pkg),
		zap.String("dir", dir),
		zap.Int("apks", len(paths)))

	return gateway.BackupEntry{Package: pkg, Timestamp: ts, Dir: dir}, nil
}
