// Package restore drives the restore-from-backup flow: discover the latest
// backups, let the user pick one (or a folder of their own), then restore.
//
// The flow is a small state machine:
//
//	Idle -> Discovering -> Choosing -> Applying -> Idle
//
// Every transition is published to observers as a View, so the selection
// surface can show its loading state before discovery resolves.
package restore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/blackwell-systems/droidprune/internal/gateway"
	"github.com/blackwell-systems/droidprune/internal/prompt"
	"github.com/blackwell-systems/droidprune/internal/status"
)

// State is the workflow state.
type State int

const (
	Idle State = iota
	Discovering
	Choosing
	Applying
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Discovering:
		return "discovering"
	case Choosing:
		return "choosing"
	case Applying:
		return "applying"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrBusy is returned by Start while another restore is in progress.
	ErrBusy = errors.New("a restore is already in progress")
	// ErrInvalidState is returned when an action does not apply to the
	// current state, e.g. selecting a backup before discovery finished.
	ErrInvalidState = errors.New("action not available in current restore state")
)

// View is what the selection surface shows.
type View struct {
	State   State
	Open    bool
	Loading bool
	Backups []gateway.BackupEntry
}

// Empty reports whether discovery finished without candidates.
func (v View) Empty() bool {
	return v.Open && !v.Loading && len(v.Backups) == 0
}

// Workflow is one restore flow. Only one instance runs at a time; Start
// refuses while the workflow is not Idle.
type Workflow struct {
	gw     gateway.Gateway
	sink   *status.Sink
	logger *zap.Logger

	mu        sync.Mutex
	view      View
	observers []func(View)
}

// New creates an idle Workflow.
func New(gw gateway.Gateway, sink *status.Sink, logger *zap.Logger) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{gw: gw, sink: sink, logger: logger}
}

// OnChange registers fn to receive every View transition.
func (w *Workflow) OnChange(fn func(View)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.observers = append(w.observers, fn)
}

// View returns the current view.
func (w *Workflow) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return copyView(w.view)
}

// State returns the current state.
func (w *Workflow) State() State {
	return w.View().State
}

// Start opens the selection surface in its loading state and discovers
// backups. On success the workflow waits in Choosing, even with zero
// candidates. On failure the surface closes and one error line is logged.
func (w *Workflow) Start(ctx context.Context) error {
	if !w.transition(Idle, View{State: Discovering, Open: true, Loading: true}) {
		return ErrBusy
	}

	backups, err := w.gw.LatestBackups(ctx)
	if err != nil {
		w.logger.Warn("backup discovery failed", zap.Error(err))
		w.set(View{State: Idle})
		w.sink.Append(fmt.Sprintf("Restore failed: %v", err))
		return nil
	}

	w.set(View{State: Choosing, Open: true, Backups: backups})
	return nil
}

// Select restores one discovered candidate.
func (w *Workflow) Select(ctx context.Context, entry gateway.BackupEntry) error {
	if !w.transition(Choosing, View{State: Applying}) {
		return ErrInvalidState
	}
	w.sink.SetActivity(fmt.Sprintf("Restoring %s from backup...", entry.Package))
	w.apply(ctx, entry.Dir)
	return nil
}

// SelectIndex restores the i-th discovered candidate.
func (w *Workflow) SelectIndex(ctx context.Context, i int) error {
	v := w.View()
	if v.State != Choosing {
		return ErrInvalidState
	}
	if i < 0 || i >= len(v.Backups) {
		return fmt.Errorf("no backup #%d (have %d)", i+1, len(v.Backups))
	}
	return w.Select(ctx, v.Backups[i])
}

// PickFolder lets the user bypass discovery and restore from any folder.
// A cancelled chooser leaves the workflow in Choosing with no backend call.
// A failing chooser closes the surface and returns the workflow to Idle.
func (w *Workflow) PickFolder(ctx context.Context, chooser prompt.DirChooser) error {
	if w.State() != Choosing {
		return ErrInvalidState
	}

	dir, ok, err := chooser.ChooseDir(ctx, "Select backup folder (contains .apk files)")
	if err != nil {
		w.logger.Warn("folder chooser failed", zap.Error(err))
		w.transition(Choosing, View{State: Idle})
		return fmt.Errorf("folder chooser failed: %w", err)
	}
	if !ok {
		return nil
	}

	if !w.transition(Choosing, View{State: Applying}) {
		return ErrInvalidState
	}
	w.sink.SetActivity(fmt.Sprintf("Restoring from %s...", dir))
	w.apply(ctx, dir)
	return nil
}

// Cancel closes the surface without restoring anything.
func (w *Workflow) Cancel() error {
	if !w.transition(Choosing, View{State: Idle}) {
		return ErrInvalidState
	}
	return nil
}

// apply issues the restore call. The result text is logged verbatim; the
// backend's wording is trusted for both success and failure.
func (w *Workflow) apply(ctx context.Context, dir string) {
	result, err := w.gw.RestoreFromDir(ctx, dir)
	w.sink.SetActivity("")
	if err != nil {
		w.logger.Warn("restore failed", zap.String("dir", dir), zap.Error(err))
		w.sink.Append(fmt.Sprintf("Restore failed: %v", err))
	} else {
		w.sink.Append(result)
	}
	w.set(View{State: Idle})
}

// transition moves to next only when the current state is from.
func (w *Workflow) transition(from State, next View) bool {
	w.mu.Lock()
	if w.view.State != from {
		w.mu.Unlock()
		return false
	}
	w.view = next
	obs := w.observers
	w.mu.Unlock()

	w.publish(obs, next)
	return true
}

func (w *Workflow) set(next View) {
	w.mu.Lock()
	w.view = next
	obs := w.observers
	w.mu.Unlock()

	w.publish(obs, next)
}

func (w *Workflow) publish(obs []func(View), v View) {
	w.logger.Debug("restore transition", zap.Stringer("state", v.State), zap.Bool("loading", v.Loading))
	for _, fn := range obs {
		fn(copyView(v))
	}
}

func copyView(v View) View {
	if v.Backups != nil {
		b := make([]gateway.BackupEntry, len(v.Backups))
		copy(b, v.Backups)
		v.Backups = b
	}
	return v
}
