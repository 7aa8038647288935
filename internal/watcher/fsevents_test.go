package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/blackwell-systems/droidprune/internal/gateway"
)

func TestNew(t *testing.T) {
	st := setupTestStore(t)

	w, err := New("/tmp/backups", st, nil)
	if err != nil {
		t.Fatalf("New() error = %v, want nil", err)
	}
	if w.root != "/tmp/backups" {
		t.Errorf("root = %q", w.root)
	}
	if w.logger == nil {
		t.Error("logger should default to a no-op logger")
	}
}

func TestNew_NilIndex(t *testing.T) {
	if _, err := New("/tmp/backups", nil, nil); err == nil {
		t.Error("New(nil index) expected error, got nil")
	}
}

func TestHandleEvent(t *testing.T) {
	st := setupTestStore(t)
	root := t.TempDir()

	w, err := New(root, st, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	var changes []Change
	w.OnChange = func(c Change) { changes = append(changes, c) }

	dir := filepath.Join(root, "com.example-1700000000")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}
	w.handleEvent(fsnotify.Event{Name: dir, Op: fsnotify.Create})

	got, err := st.LatestBackups()
	if err != nil {
		t.Fatalf("LatestBackups() error = %v", err)
	}
	want := gateway.BackupEntry{Package: "com.example", Timestamp: 1700000000, Dir: dir}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("after create, index = %+v, want [%+v]", got, want)
	}

	w.handleEvent(fsnotify.Event{Name: dir, Op: fsnotify.Remove})

	got, err = st.LatestBackups()
	if err != nil {
		t.Fatalf("LatestBackups() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("after remove, index = %+v, want empty", got)
	}

	if len(changes) != 2 || changes[0].Op != Added || changes[1].Op != Removed {
		t.Errorf("changes = %+v", changes)
	}
}

func TestHandleEvent_IgnoresFilesAndStrayNames(t *testing.T) {
	st := setupTestStore(t)
	root := t.TempDir()

	w, err := New(root, st, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	file := filepath.Join(root, "com.file-1")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	stray := filepath.Join(root, "notes")
	if err := os.Mkdir(stray, 0755); err != nil {
		t.Fatal(err)
	}

	w.handleEvent(fsnotify.Event{Name: file, Op: fsnotify.Create})
	w.handleEvent(fsnotify.Event{Name: stray, Op: fsnotify.Create})

	got, err := st.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("index = %+v, want empty", got)
	}
}

func TestStartResyncsAndWatches(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping fsnotify test in short mode")
	}

	st := setupTestStore(t)
	root := filepath.Join(t.TempDir(), "backups")
	if err := os.MkdirAll(filepath.Join(root, "com.pre-1"), 0755); err != nil {
		t.Fatal(err)
	}

	w, err := New(root, st, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	added := make(chan Change, 1)
	w.OnChange = func(c Change) {
		if c.Op == Added {
			select {
			case added <- c:
			default:
			}
		}
	}

	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	got, err := st.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups() error = %v", err)
	}
	if len(got) != 1 || got[0].Package != "com.pre" {
		t.Fatalf("after Start, index = %+v, want com.pre", got)
	}

	dir := filepath.Join(root, "com.copied-2")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-added:
		if c.Entry.Dir != dir {
			t.Errorf("added %q, want %q", c.Entry.Dir, dir)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for create event")
	}
}
