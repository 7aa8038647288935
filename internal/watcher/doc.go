// Package watcher keeps the backup index in step with the backups directory.
//
// Backups are plain folders named <package>-<unix seconds>. Users copy them
// in from other machines or delete old ones by hand. The Watcher listens for
// directory create, remove and rename events on the backups root (via
// fsnotify) and inserts or deletes the matching rows, so restore discovery
// sees the same set of backups as the filesystem.
//
// Key features:
//   - Full resync on startup
//   - Incremental updates from directory events
//   - Daemon mode support with PID file management
//   - Graceful shutdown with SIGTERM/SIGINT handling
//
// Example usage:
//
//	st, err := store.Open(cfg.DBPath)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer st.Close()
//
//	w, err := watcher.New(cfg.BackupsDir, st, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := w.Start(); err != nil {
//		log.Fatal(err)
//	}
//	defer w.Stop()
package watcher
