package backups

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/blackwell-systems/droidprune/internal/gateway"
)

// All returns every backup directory under the root, in directory order.
// A missing root is not an error.
func (m *Manager) All() ([]gateway.BackupEntry, error) {
	dirEntries, err := os.ReadDir(m.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backups root: %w", err)
	}

	var entries []gateway.BackupEntry
	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		if e, ok := EntryFor(filepath.Join(m.root, de.Name())); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// Scan returns the newest backup of each package, sorted by package name.
func (m *Manager) Scan() ([]gateway.BackupEntry, error) {
	all, err := m.All()
	if err != nil {
		return nil, err
	}
	return Latest(all), nil
}

// Latest reduces entries to the newest one per package, sorted by package.
func Latest(entries []gateway.BackupEntry) []gateway.BackupEntry {
	byPkg := make(map[string]gateway.BackupEntry)
	for _, e := range entries {
		cur, ok := byPkg[e.Package]
		if !ok || e.Timestamp > cur.Timestamp {
			byPkg[e.Package] = e
		}
	}

	list := make([]gateway.BackupEntry, 0, len(byPkg))
	for _, e := range byPkg {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Package < list[j].Package
	})
	return list
}

// APKs lists the .apk files directly inside dir, sorted by file name so a
// base.apk precedes split_*.apk.
func APKs(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("backup path is not a directory: %s", dir)
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read dir: %w", err)
	}

	var apks []string
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(de.Name()), ".apk") {
			apks = append(apks, filepath.Join(dir, de.Name()))
		}
	}
	sort.Strings(apks)
	return apks, nil
}
