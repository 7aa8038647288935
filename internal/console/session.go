// Package console assembles the droidprune console core: one status sink,
// selection set, inventory controller, bulk runner, restore workflow and
// update checker sharing a single gateway.
package console

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/blackwell-systems/droidprune/internal/bulk"
	"github.com/blackwell-systems/droidprune/internal/gateway"
	"github.com/blackwell-systems/droidprune/internal/inventory"
	"github.com/blackwell-systems/droidprune/internal/prompt"
	"github.com/blackwell-systems/droidprune/internal/restore"
	"github.com/blackwell-systems/droidprune/internal/selection"
	"github.com/blackwell-systems/droidprune/internal/status"
	"github.com/blackwell-systems/droidprune/internal/update"
)

// DefaultPackageInfoURL is a web search; %s receives the escaped query.
const DefaultPackageInfoURL = "https://www.google.com/search?q=%s"

// Options configures a Session.
type Options struct {
	Version        string
	ReleasePage    string
	PackageInfoURL string // printf pattern with one %s

	Confirm prompt.Confirmer
	Notify  prompt.Notifier
	Opener  prompt.LinkOpener

	// Recorder, when set, persists bulk runs.
	Recorder bulk.Recorder
	Logger   *zap.Logger
}

// Session is one console: every component writes to the same sink.
type Session struct {
	Sink      *status.Sink
	Selection *selection.Set
	Inventory *inventory.Controller
	Bulk      *bulk.Runner
	Restore   *restore.Workflow
	Update    *update.Checker

	gw     gateway.Gateway
	opts   Options
	logger *zap.Logger
}

// New wires a Session around gw.
func New(gw gateway.Gateway, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PackageInfoURL == "" {
		opts.PackageInfoURL = DefaultPackageInfoURL
	}

	sink := status.New(logger)
	sel := selection.New()
	inv := inventory.New(gw, sink, sel, logger)

	runner := bulk.New(gw, sink, sel, inv, opts.Confirm, opts.Notify, logger)
	runner.Recorder = opts.Recorder

	return &Session{
		Sink:      sink,
		Selection: sel,
		Inventory: inv,
		Bulk:      runner,
		Restore:   restore.New(gw, sink, logger),
		Update:    update.NewChecker(gw, sink, opts.Confirm, opts.Opener, opts.ReleasePage, logger),
		gw:        gw,
		opts:      opts,
		logger:    logger,
	}
}

// Init performs the start-up refresh of the device list.
func (s *Session) Init(ctx context.Context) {
	s.Inventory.RefreshDevices(ctx)
}

// CheckUpdate runs the update check against the session's version.
func (s *Session) CheckUpdate(ctx context.Context) gateway.UpdateInfo {
	return s.Update.Check(ctx, s.opts.Version)
}

// Reboot asks for confirmation and restarts the connected device.
func (s *Session) Reboot(ctx context.Context) {
	if !s.opts.Confirm.Confirm("Reboot connected device now?") {
		return
	}
	if err := s.gw.Reboot(ctx); err != nil {
		s.Sink.Append(fmt.Sprintf("Reboot failed: %v", err))
		return
	}
	s.Sink.Append("Device rebooting...")
}

// PackageInfoURL returns the web search link for a package id.
func (s *Session) PackageInfoURL(pkg string) string {
	q := url.QueryEscape(strings.TrimSpace(pkg) + " android package info")
	return fmt.Sprintf(s.opts.PackageInfoURL, q)
}

// OpenPackageInfo opens the package's search link. Failures are logged.
func (s *Session) OpenPackageInfo(pkg string) {
	if s.opts.Opener == nil {
		return
	}
	link := s.PackageInfoURL(pkg)
	if err := s.opts.Opener.Open(link); err != nil {
		s.logger.Warn("failed to open package info", zap.String("url", link), zap.Error(err))
	}
}
