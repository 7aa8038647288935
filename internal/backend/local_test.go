package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/droidprune/internal/adb"
	"github.com/blackwell-systems/droidprune/internal/backups"
	"github.com/blackwell-systems/droidprune/internal/gateway"
	"github.com/blackwell-systems/droidprune/internal/store"
)

// fakeADB answers adb invocations by their argument string and performs
// pulls against the local filesystem.
type fakeADB struct {
	responses map[string]string
	errs      map[string]error
	calls     []string
}

func (f *fakeADB) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	key := strings.Join(args, " ")
	f.calls = append(f.calls, key)

	if args[0] == "pull" {
		dest := filepath.Join(args[2], filepath.Base(args[1]))
		return nil, os.WriteFile(dest, []byte("apk"), 0644)
	}
	for prefix, err := range f.errs {
		if strings.HasPrefix(key, prefix) {
			return nil, err
		}
	}
	for prefix, out := range f.responses {
		if strings.HasPrefix(key, prefix) {
			return []byte(out), nil
		}
	}
	return nil, nil
}

type staticRelease string

func (s staticRelease) Latest(context.Context) (string, error) { return string(s), nil }

func newLocal(t *testing.T, fake *fakeADB, withStore bool) (*Local, string, *store.Store) {
	t.Helper()
	client := adb.New("adb", "", 0, nil)
	client.Run = fake.run

	root := filepath.Join(t.TempDir(), "backups")
	mgr := backups.NewManager(root, client, nil)

	var st *store.Store
	if withStore {
		var err error
		st, err = store.Open(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { st.Close() })
	}
	return New(client, mgr, st, staticRelease("2.1.0"), nil), root, st
}

func TestListDevices(t *testing.T) {
	fake := &fakeADB{responses: map[string]string{
		"devices": "List of devices attached\nemulator-5554\tdevice\nR58M\tunauthorized\n",
	}}
	l, _, _ := newLocal(t, fake, false)

	got, err := l.ListDevices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []gateway.DeviceInfo{
		{ID: "emulator-5554", Status: gateway.StatusConnected},
		{ID: "R58M", Status: gateway.StatusUnauthorized},
	}, got)
}

func TestUninstallBacksUpFirst(t *testing.T) {
	fake := &fakeADB{responses: map[string]string{
		"shell pm path com.x":                 "package:/data/app/com.x/base.apk\n",
		"shell pm uninstall --user 0 com.x": "Success\n",
	}}
	l, root, st := newLocal(t, fake, true)

	out, err := l.Uninstall(context.Background(), "com.x")
	require.NoError(t, err)

	require.Len(t, fake.calls, 3)
	assert.Equal(t, "shell pm path com.x", fake.calls[0])
	assert.True(t, strings.HasPrefix(fake.calls[1], "pull /data/app/com.x/base.apk "+root), fake.calls[1])
	assert.Equal(t, "shell pm uninstall --user 0 com.x", fake.calls[2])

	first, rest, _ := strings.Cut(out, "\n")
	require.True(t, strings.HasPrefix(first, "Backup saved to: "+filepath.Join(root, "com.x-")), first)
	assert.Equal(t, "Success\n", rest)

	indexed, err := st.LatestBackups()
	require.NoError(t, err)
	require.Len(t, indexed, 1)
	assert.Equal(t, "com.x", indexed[0].Package)
	assert.FileExists(t, filepath.Join(indexed[0].Dir, "base.apk"))
}

func TestUninstallEmptyPackage(t *testing.T) {
	fake := &fakeADB{}
	l, _, _ := newLocal(t, fake, false)

	_, err := l.Uninstall(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyPackage)
	assert.Empty(t, fake.calls, "adb must not be invoked for a blank package")
}

func TestUninstallBackupFailureSkipsUninstall(t *testing.T) {
	fake := &fakeADB{responses: map[string]string{"shell pm path": "\n"}}
	l, _, _ := newLocal(t, fake, false)

	_, err := l.Uninstall(context.Background(), "com.gone")
	require.Error(t, err)
	for _, c := range fake.calls {
		assert.NotContains(t, c, "uninstall")
	}
}

func TestUninstallPassesFailureTextThrough(t *testing.T) {
	fake := &fakeADB{responses: map[string]string{
		"shell pm path com.sys":                 "package:/system/app/Sys.apk\n",
		"shell pm uninstall --user 0 com.sys": "Failure [DELETE_FAILED_INTERNAL_ERROR]\n",
	}}
	l, _, _ := newLocal(t, fake, false)

	out, err := l.Uninstall(context.Background(), "com.sys")
	require.NoError(t, err)
	assert.Contains(t, out, "Failure [DELETE_FAILED_INTERNAL_ERROR]")
	assert.NotContains(t, out, "Success")
}

func TestRestoreFromDir(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"split_config.en.apk", "base.apk"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0644))
	}
	fake := &fakeADB{responses: map[string]string{"install-multiple": "Success\n"}}
	l, _, _ := newLocal(t, fake, false)

	out, err := l.RestoreFromDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "Restored 2 APK(s) from "+dir+"\nSuccess\n", out)

	want := "install-multiple -r --user 0 " + filepath.Join(dir, "base.apk") + " " + filepath.Join(dir, "split_config.en.apk")
	assert.Equal(t, []string{want}, fake.calls)
}

func TestRestoreFromDirInstallFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.apk"), nil, 0644))
	fake := &fakeADB{responses: map[string]string{"install": "Failure [INSTALL_FAILED_VERSION_DOWNGRADE]\n"}}
	l, _, _ := newLocal(t, fake, false)

	_, err := l.RestoreFromDir(context.Background(), dir)
	require.ErrorIs(t, err, ErrInstallFailed)
	assert.Equal(t, "install failed: Failure [INSTALL_FAILED_VERSION_DOWNGRADE]", err.Error())
}

func TestRestoreFromDirInstallFailureMultiLine(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.apk"), nil, 0644))
	fake := &fakeADB{responses: map[string]string{"install": "Performing Streamed Install\r\nFailure [INSTALL_FAILED_TEST_ONLY]\n\n"}}
	l, _, _ := newLocal(t, fake, false)

	_, err := l.RestoreFromDir(context.Background(), dir)
	require.ErrorIs(t, err, ErrInstallFailed)
	assert.Equal(t, "install failed: Performing Streamed Install; Failure [INSTALL_FAILED_TEST_ONLY]", err.Error())
	assert.NotContains(t, err.Error(), "\n")
}

func TestRestoreFromDirNoAPKs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), nil, 0644))
	l, _, _ := newLocal(t, &fakeADB{}, false)

	_, err := l.RestoreFromDir(context.Background(), dir)
	assert.ErrorIs(t, err, ErrNoAPKs)
}

func TestRestoreFromDirNotADirectory(t *testing.T) {
	l, _, _ := newLocal(t, &fakeADB{}, false)

	_, err := l.RestoreFromDir(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.ErrorContains(t, err, "not a directory")
}

func TestLatestBackupsSyncsIndex(t *testing.T) {
	l, root, st := newLocal(t, &fakeADB{}, true)

	// An entry whose directory no longer exists must disappear from the index.
	require.NoError(t, st.InsertBackup(gateway.BackupEntry{Package: "com.stale", Timestamp: 1, Dir: filepath.Join(root, "com.stale-1")}))
	for _, n := range []string{"com.a-10", "com.a-20", "com.b-5"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, n), 0755))
	}

	got, err := l.LatestBackups(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []gateway.BackupEntry{
		{Package: "com.a", Timestamp: 20, Dir: filepath.Join(root, "com.a-20")},
		{Package: "com.b", Timestamp: 5, Dir: filepath.Join(root, "com.b-5")},
	}, got)
}

func TestLatestBackupsWithoutStore(t *testing.T) {
	l, root, _ := newLocal(t, &fakeADB{}, false)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "com.a-10"), 0755))

	got, err := l.LatestBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "com.a", got[0].Package)
}

func TestCheckUpdate(t *testing.T) {
	l, _, _ := newLocal(t, &fakeADB{}, false)

	info, err := l.CheckUpdate(context.Background(), "2.0.0")
	require.NoError(t, err)
	assert.Equal(t, gateway.UpdateInfo{Latest: "2.1.0", Outdated: true}, info)

	info, err = l.CheckUpdate(context.Background(), "2.1.0")
	require.NoError(t, err)
	assert.False(t, info.Outdated)
}

func TestRebootError(t *testing.T) {
	fake := &fakeADB{errs: map[string]error{"reboot": errors.New("device offline")}}
	l, _, _ := newLocal(t, fake, false)

	assert.ErrorContains(t, l.Reboot(context.Background()), "device offline")
}
