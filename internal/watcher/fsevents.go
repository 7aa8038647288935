package watcher

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/blackwell-systems/droidprune/internal/backups"
	"github.com/blackwell-systems/droidprune/internal/gateway"
)

// Index is the backup index the watcher maintains.
type Index interface {
	InsertBackup(e gateway.BackupEntry) error
	DeleteBackup(dir string) error
	ReplaceBackups(entries []gateway.BackupEntry) error
}

// Op is the kind of index change a directory event produced.
type Op string

const (
	Added   Op = "added"
	Removed Op = "removed"
)

// Change is reported to OnChange after the index has been updated.
type Change struct {
	Op    Op
	Entry gateway.BackupEntry
}

// Watcher mirrors backup directories into the index.
type Watcher struct {
	root   string
	index  Index
	logger *zap.Logger

	// OnChange, when set, is called from the event goroutine for every
	// applied change.
	OnChange func(Change)

	fsw    *fsnotify.Watcher
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a Watcher for the backups root.
func New(root string, index Index, logger *zap.Logger) (*Watcher, error) {
	if index == nil {
		return nil, fmt.Errorf("index cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		root:   root,
		index:  index,
		logger: logger,
		stopCh: make(chan struct{}),
	}, nil
}

// Start resyncs the index from disk and begins watching the root.
// The root is created if it does not exist yet.
func (w *Watcher) Start() error {
	if err := os.MkdirAll(w.root, 0755); err != nil {
		return fmt.Errorf("failed to create backups root: %w", err)
	}

	if err := w.Resync(); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(w.root); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}
	w.fsw = fsw

	w.wg.Add(1)
	go w.run()

	w.logger.Info("watching backups", zap.String("root", w.root))
	return nil
}

// Resync replaces the index with the backup directories currently on disk.
func (w *Watcher) Resync() error {
	all, err := backups.NewManager(w.root, nil, w.logger).All()
	if err != nil {
		return err
	}
	if err := w.index.ReplaceBackups(all); err != nil {
		return fmt.Errorf("failed to resync backup index: %w", err)
	}
	return nil
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("fsnotify error", zap.Error(err))
		case <-w.stopCh:
			return
		}
	}
}

// handleEvent applies one fsnotify event to the index. Names that do not
// follow the backup layout are ignored.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	entry, ok := backups.EntryFor(event.Name)
	if !ok {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil || !info.IsDir() {
			return
		}
		if err := w.index.InsertBackup(entry); err != nil {
			w.logger.Warn("failed to index backup", zap.String("dir", entry.Dir), zap.Error(err))
			return
		}
		w.notify(Change{Op: Added, Entry: entry})

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if err := w.index.DeleteBackup(entry.Dir); err != nil {
			w.logger.Warn("failed to unindex backup", zap.String("dir", entry.Dir), zap.Error(err))
			return
		}
		w.notify(Change{Op: Removed, Entry: entry})
	}
}

func (w *Watcher) notify(c Change) {
	w.logger.Debug("backup index changed", zap.String("op", string(c.Op)), zap.String("dir", c.Entry.Dir))
	if w.OnChange != nil {
		w.OnChange(c)
	}
}

// Stop halts the watcher.
func (w *Watcher) Stop() error {
	select {
	case <-w.stopCh:
		return nil
	default:
		close(w.stopCh)
	}

	var err error
	if w.fsw != nil {
		err = w.fsw.Close()
	}
	w.wg.Wait()
	return err
}
