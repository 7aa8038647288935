package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/blackwell-systems/droidprune/internal/adb"
	"github.com/blackwell-systems/droidprune/internal/backend"
	"github.com/blackwell-systems/droidprune/internal/backups"
	"github.com/blackwell-systems/droidprune/internal/config"
	"github.com/blackwell-systems/droidprune/internal/console"
	"github.com/blackwell-systems/droidprune/internal/logging"
	"github.com/blackwell-systems/droidprune/internal/output"
	"github.com/blackwell-systems/droidprune/internal/prompt"
	"github.com/blackwell-systems/droidprune/internal/status"
	"github.com/blackwell-systems/droidprune/internal/store"
	"github.com/blackwell-systems/droidprune/internal/update"
)

// Version is the running version, overridden at build time with
// -ldflags "-X github.com/blackwell-systems/droidprune/internal/app.Version=...".
var Version = "2.0.0"

// env is everything a command needs, built from config and global flags.
type env struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *store.Store
	backups *backups.Manager
	gateway *backend.Local
	term    *prompt.Terminal
	session *console.Session
	view    *consoleView
}

// loadConfig reads the config file and applies global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	applyFlagOverrides(cfg)
	return cfg, nil
}

// applyFlagOverrides copies the persistent flags that were set onto cfg.
func applyFlagOverrides(cfg *config.Config) {
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if adbPath != "" {
		cfg.ADBPath = adbPath
	}
	if serial != "" {
		cfg.Serial = serial
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
}

// openEnv wires the local backend and a console session. With requireADB
// set, a missing adb binary is an error; otherwise commands that only touch
// the backups directory or the database still work without it.
func openEnv(requireADB, assumeYes bool) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return nil, err
	}

	adbBin, err := adb.Resolve(cfg.ADBPath)
	if err != nil {
		if requireADB {
			logger.Sync() //nolint:errcheck
			return nil, err
		}
		adbBin = adb.Filename()
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	client := adb.New(adbBin, cfg.Serial, cfg.CommandTimeout, logger.Named("adb"))
	mgr := backups.NewManager(cfg.BackupsDir, client, logger.Named("backups"))
	releases := update.NewReleaseClient(cfg.ReleaseLatestURL, cfg.UpdateTimeout)
	gw := backend.New(client, mgr, st, releases, logger.Named("backend"))

	term := prompt.Stdio()
	term.AssumeYes = assumeYes

	sess := console.New(gw, console.Options{
		Version:        Version,
		ReleasePage:    cfg.ReleasePageURL,
		PackageInfoURL: cfg.PackageInfoURL,
		Confirm:        term,
		Notify:         term,
		Opener:         prompt.Browser{},
		Recorder:       console.History{Store: st},
		Logger:         logger,
	})

	view := newConsoleView(os.Stdout)
	sess.Sink.Subscribe(view.handle)

	return &env{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		backups: mgr,
		gateway: gw,
		term:    term,
		session: sess,
		view:    view,
	}, nil
}

// Close releases the database and flushes the logger.
func (e *env) Close() {
	e.view.stopSpinner()
	if err := e.store.Close(); err != nil {
		e.logger.Warn("failed to close database", zap.Error(err))
	}
	e.logger.Sync() //nolint:errcheck
}

// consoleView renders sink events on a terminal: log lines are printed as
// they are appended and the activity slot drives a spinner.
type consoleView struct {
	mu      sync.Mutex
	out     io.Writer
	spinner *output.Spinner
	muted   bool
}

func newConsoleView(out io.Writer) *consoleView {
	return &consoleView{out: out}
}

// mute suppresses live output, e.g. while a progress bar owns the line.
func (v *consoleView) mute(m bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.muted = m
}

func (v *consoleView) handle(ev status.Event) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.muted {
		return
	}

	switch ev.Kind {
	case status.LineAppended, status.UpdateMessageChanged:
		v.stopSpinnerLocked()
		fmt.Fprintln(v.out, ev.Text)
	case status.ActivityChanged:
		if ev.Text == "" {
			v.stopSpinnerLocked()
			return
		}
		if v.spinner == nil {
			v.spinner = output.NewSpinner(ev.Text)
			v.spinner.SetWriter(v.out)
			v.spinner.Start()
			return
		}
		v.spinner.UpdateMessage(ev.Text)
	}
}

func (v *consoleView) stopSpinner() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopSpinnerLocked()
}

func (v *consoleView) stopSpinnerLocked() {
	if v.spinner != nil {
		v.spinner.Stop()
		v.spinner = nil
	}
}
