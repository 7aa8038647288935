package backups

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/blackwell-systems/droidprune/internal/gateway"
)

type fakeDevice struct {
	paths   []string
	pathErr error
	failOn  string
	pulled  []string
}

func (f *fakeDevice) APKPaths(ctx context.Context, pkg string) ([]string, error) {
	return f.paths, f.pathErr
}

func (f *fakeDevice) Pull(ctx context.Context, remote, destDir string) error {
	if remote == f.failOn {
		return errors.New("adb pull failed")
	}
	f.pulled = append(f.pulled, remote)
	return os.WriteFile(filepath.Join(destDir, filepath.Base(remote)), []byte("apk"), 0644)
}

func mkdirs(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.MkdirAll(filepath.Join(root, n), 0755); err != nil {
			t.Fatal(err)
		}
	}
}

func TestParseDirName(t *testing.T) {
	tests := []struct {
		name    string
		wantPkg string
		wantTS  int64
		wantOK  bool
	}{
		{"com.example.app-1700000000", "com.example.app", 1700000000, true},
		{"com.my-app-1700000000", "com.my-app", 1700000000, true},
		{"com.example-notanumber", "com.example", 0, true},
		{"noseparator", "", 0, false},
		{"-1700000000", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg, ts, ok := ParseDirName(tt.name)
			if pkg != tt.wantPkg || ts != tt.wantTS || ok != tt.wantOK {
				t.Errorf("ParseDirName(%q) = (%q, %d, %v), want (%q, %d, %v)",
					tt.name, pkg, ts, ok, tt.wantPkg, tt.wantTS, tt.wantOK)
			}
		})
	}
}

func TestCreate(t *testing.T) {
	root := filepath.Join(t.TempDir(), "backups")
	dev := &fakeDevice{paths: []string{"/data/app/x/base.apk", "/data/app/x/split_config.en.apk"}}
	m := NewManager(root, dev, nil)
	m.now = func() time.Time { return time.Unix(1700000000, 0) }

	entry, err := m.Create(context.Background(), "com.x")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	wantDir := filepath.Join(root, "com.x-1700000000")
	if entry.Dir != wantDir || entry.Package != "com.x" || entry.Timestamp != 1700000000 {
		t.Errorf("Create() = %+v", entry)
	}

	apks, err := APKs(wantDir)
	if err != nil {
		t.Fatalf("APKs() error = %v", err)
	}
	want := []string{filepath.Join(wantDir, "base.apk"), filepath.Join(wantDir, "split_config.en.apk")}
	if !reflect.DeepEqual(apks, want) {
		t.Errorf("APKs() = %v, want %v", apks, want)
	}
}

func TestCreatePullFailureRemovesDir(t *testing.T) {
	root := t.TempDir()
	dev := &fakeDevice{
		paths:  []string{"/data/app/x/base.apk", "/data/app/x/split.apk"},
		failOn: "/data/app/x/split.apk",
	}
	m := NewManager(root, dev, nil)
	m.now = func() time.Time { return time.Unix(42, 0) }

	if _, err := m.Create(context.Background(), "com.x"); err == nil {
		t.Fatal("Create() should fail when a pull fails")
	}
	if _, err := os.Stat(filepath.Join(root, "com.x-42")); !os.IsNotExist(err) {
		t.Errorf("partial backup dir should be removed, stat err = %v", err)
	}
}

func TestCreatePathLookupFailure(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root, &fakeDevice{pathErr: errors.New("no APK paths found for com.gone")}, nil)

	if _, err := m.Create(context.Background(), "com.gone"); err == nil {
		t.Fatal("Create() should fail when pm path fails")
	}
	if entries, _ := os.ReadDir(root); len(entries) != 0 {
		t.Errorf("no directory should be created, found %d", len(entries))
	}
}

func TestScanNewestPerPackage(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root,
		"com.b-100",
		"com.a-300",
		"com.a-200",
		"com.b-50",
		"stray",
	)
	if err := os.WriteFile(filepath.Join(root, "com.c-999"), []byte("file, not dir"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := NewManager(root, nil, nil).Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	want := []gateway.BackupEntry{
		{Package: "com.a", Timestamp: 300, Dir: filepath.Join(root, "com.a-300")},
		{Package: "com.b", Timestamp: 100, Dir: filepath.Join(root, "com.b-100")},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() = %+v, want %+v", got, want)
	}
}

func TestScanMissingRoot(t *testing.T) {
	got, err := NewManager(filepath.Join(t.TempDir(), "absent"), nil, nil).Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Scan() = %v, want empty", got)
	}
}

func TestAPKsRejectsNonDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "x.apk")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := APKs(file); err == nil {
		t.Error("APKs() should fail for a file path")
	}
}

func TestAPKsFiltersExtension(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"base.apk", "SPLIT.APK", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, n), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	mkdirs(t, dir, "nested.apk")

	got, err := APKs(dir)
	if err != nil {
		t.Fatalf("APKs() error = %v", err)
	}
	want := []string{filepath.Join(dir, "SPLIT.APK"), filepath.Join(dir, "base.apk")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("APKs() = %v, want %v", got, want)
	}
}
