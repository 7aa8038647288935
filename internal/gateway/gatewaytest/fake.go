// Package gatewaytest provides a scriptable in-memory gateway.Gateway.
package gatewaytest

import (
	"context"
	"sync"

	"github.com/blackwell-systems/droidprune/internal/gateway"
)

// Call records one invocation made against a Fake.
type Call struct {
	Method string
	Arg    string
}

// Fake is a gateway.Gateway whose behaviour is set per method through the
// Func fields. A nil Func returns zero values and no error.
type Fake struct {
	ListDevicesFunc    func(ctx context.Context) ([]gateway.DeviceInfo, error)
	ListPackagesFunc   func(ctx context.Context) ([]string, error)
	UninstallFunc      func(ctx context.Context, pkg string) (string, error)
	RebootFunc         func(ctx context.Context) error
	CheckUpdateFunc    func(ctx context.Context, current string) (gateway.UpdateInfo, error)
	LatestBackupsFunc  func(ctx context.Context) ([]gateway.BackupEntry, error)
	RestoreFromDirFunc func(ctx context.Context, dir string) (string, error)

	mu    sync.Mutex
	calls []Call
}

var _ gateway.Gateway = (*Fake)(nil)

// UninstallResults returns an UninstallFunc answering from a fixed table.
// Packages missing from the table report "Failure [NOT_INSTALLED]".
func UninstallResults(results map[string]string) func(context.Context, string) (string, error) {
	return func(_ context.Context, pkg string) (string, error) {
		if r, ok := results[pkg]; ok {
			return r, nil
		}
		return "Failure [NOT_INSTALLED]", nil
	}
}

func (f *Fake) record(method, arg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: method, Arg: arg})
}

// Calls returns a copy of the recorded invocations in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many times method was invoked.
func (f *Fake) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (f *Fake) ListDevices(ctx context.Context) ([]gateway.DeviceInfo, error) {
	f.record("ListDevices", "")
	if f.ListDevicesFunc == nil {
		return nil, nil
	}
	return f.ListDevicesFunc(ctx)
}

func (f *Fake) ListPackages(ctx context.Context) ([]string, error) {
	f.record("ListPackages", "")
	if f.ListPackagesFunc == nil {
		return nil, nil
	}
	return f.ListPackagesFunc(ctx)
}

func (f *Fake) Uninstall(ctx context.Context, pkg string) (string, error) {
	f.record("Uninstall", pkg)
	if f.UninstallFunc == nil {
		return "Success", nil
	}
	return f.UninstallFunc(ctx, pkg)
}

func (f *Fake) Reboot(ctx context.Context) error {
	f.record("Reboot", "")
	if f.RebootFunc == nil {
		return nil
	}
	return f.RebootFunc(ctx)
}

func (f *Fake) CheckUpdate(ctx context.Context, current string) (gateway.UpdateInfo, error) {
	f.record("CheckUpdate", current)
	if f.CheckUpdateFunc == nil {
		return gateway.UpdateInfo{Latest: current}, nil
	}
	return f.CheckUpdateFunc(ctx, current)
}

func (f *Fake) LatestBackups(ctx context.Context) ([]gateway.BackupEntry, error) {
	f.record("LatestBackups", "")
	if f.LatestBackupsFunc == nil {
		return nil, nil
	}
	return f.LatestBackupsFunc(ctx)
}

func (f *Fake) RestoreFromDir(ctx context.Context, dir string) (string, error) {
	f.record("RestoreFromDir", dir)
	if f.RestoreFromDirFunc == nil {
		return "Success", nil
	}
	return f.RestoreFromDirFunc(ctx, dir)
}
