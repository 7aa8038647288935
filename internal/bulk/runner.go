// Package bulk runs an uninstall over every selected package, one at a
// time, with per-package failure isolation.
package bulk

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blackwell-systems/droidprune/internal/gateway"
	"github.com/blackwell-systems/droidprune/internal/prompt"
	"github.com/blackwell-systems/droidprune/internal/selection"
	"github.com/blackwell-systems/droidprune/internal/status"
)

// SuccessMarker is the substring the backend puts in a successful
// uninstall result. The match is case-sensitive.
const SuccessMarker = "Success"

// Kind classifies the outcome of one uninstall.
type Kind string

const (
	Succeeded Kind = "success"
	Failed    Kind = "failure" // the call returned, but without SuccessMarker
	Errored   Kind = "error"   // the call itself failed
)

// Outcome is the result for one package.
type Outcome struct {
	Package string
	Kind    Kind
	Detail  string // raw result text or error message
}

// Line renders the outcome as the status log line.
func (o Outcome) Line() string {
	switch o.Kind {
	case Succeeded:
		return fmt.Sprintf("%s uninstalled.", o.Package)
	case Failed:
		return fmt.Sprintf("Failed %s: %s", o.Package, o.Detail)
	default:
		return fmt.Sprintf("Error %s: %s", o.Package, o.Detail)
	}
}

// Classify turns a textual uninstall result into an outcome kind.
func Classify(result string) Kind {
	if strings.Contains(result, SuccessMarker) {
		return Succeeded
	}
	return Failed
}

// Report summarises one UninstallSelected invocation.
type Report struct {
	RunID    string
	Aborted  bool // nothing selected, or the user declined
	Outcomes []Outcome
}

// Count returns how many outcomes have kind k.
func (r Report) Count(k Kind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == k {
			n++
		}
	}
	return n
}

// Rescanner re-synchronises the inventory after a run.
type Rescanner interface {
	ClearQuery()
	ScanPackages(ctx context.Context)
}

// Recorder persists run history. Recording failures never affect a run.
type Recorder interface {
	StartRun(id, kind string, startedAt time.Time) error
	RecordItem(runID string, seq int, o Outcome) error
	FinishRun(id string, finishedAt time.Time) error
}

// Runner executes bulk uninstalls.
type Runner struct {
	gw        gateway.Gateway
	sink      *status.Sink
	sel       *selection.Set
	inventory Rescanner
	confirm   prompt.Confirmer
	notify    prompt.Notifier
	logger    *zap.Logger

	// Recorder, when set, receives every run and outcome.
	Recorder Recorder
	// OnItem, when set, is called after each package is processed.
	OnItem func(done, total int, o Outcome)
}

// New creates a Runner.
func New(gw gateway.Gateway, sink *status.Sink, sel *selection.Set, inv Rescanner,
	confirm prompt.Confirmer, notify prompt.Notifier, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		gw:        gw,
		sink:      sink,
		sel:       sel,
		inventory: inv,
		confirm:   confirm,
		notify:    notify,
		logger:    logger,
	}
}

// UninstallSelected uninstalls every selected package in selection order.
//
// An empty selection produces a notice and no backend calls. A declined
// confirmation produces nothing at all. Otherwise exactly one log line is
// appended per selected package, after which the query is cleared and the
// inventory rescanned, which also clears the selection.
func (r *Runner) UninstallSelected(ctx context.Context) Report {
	if r.sel.Len() == 0 {
		r.notify.Notify("No packages selected.")
		return Report{Aborted: true}
	}

	members := r.sel.Members()
	msg := fmt.Sprintf("Uninstall %d packages? This cannot be undone.", len(members))
	if !r.confirm.Confirm(msg) {
		return Report{Aborted: true}
	}

	report := Report{RunID: uuid.NewString()}
	logger := r.logger.With(zap.String("run_id", report.RunID))
	r.record(logger, func(rec Recorder) error {
		return rec.StartRun(report.RunID, "uninstall", time.Now())
	})

	r.sink.SetActivity("Uninstalling...")
	for i, pkg := range members {
		o := r.uninstallOne(ctx, pkg)
		report.Outcomes = append(report.Outcomes, o)
		r.sink.Append(o.Line())
		logger.Info("uninstall", zap.String("package", pkg), zap.String("kind", string(o.Kind)))

		seq := i
		r.record(logger, func(rec Recorder) error {
			return rec.RecordItem(report.RunID, seq, o)
		})
		if r.OnItem != nil {
			r.OnItem(i+1, len(members), o)
		}
	}

	r.record(logger, func(rec Recorder) error {
		return rec.FinishRun(report.RunID, time.Now())
	})

	r.inventory.ClearQuery()
	r.inventory.ScanPackages(ctx)
	return report
}

func (r *Runner) uninstallOne(ctx context.Context, pkg string) Outcome {
	result, err := r.gw.Uninstall(ctx, pkg)
	if err != nil {
		return Outcome{Package: pkg, Kind: Errored, Detail: err.Error()}
	}
	return Outcome{Package: pkg, Kind: Classify(result), Detail: result}
}

func (r *Runner) record(logger *zap.Logger, fn func(Recorder) error) {
	if r.Recorder == nil {
		return
	}
	if err := fn(r.Recorder); err != nil {
		logger.Warn("failed to record run history", zap.Error(err))
	}
}
