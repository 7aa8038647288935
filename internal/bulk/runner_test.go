package bulk

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/droidprune/internal/gateway/gatewaytest"
	"github.com/blackwell-systems/droidprune/internal/inventory"
	"github.com/blackwell-systems/droidprune/internal/selection"
	"github.com/blackwell-systems/droidprune/internal/status"
)

type answer bool

func (a answer) Confirm(string) bool { return bool(a) }

type notices struct{ got []string }

func (n *notices) Notify(msg string) { n.got = append(n.got, msg) }

type mockRecorder struct{ mock.Mock }

func (m *mockRecorder) StartRun(id, kind string, startedAt time.Time) error {
	return m.Called(id, kind, startedAt).Error(0)
}

func (m *mockRecorder) RecordItem(runID string, seq int, o Outcome) error {
	return m.Called(runID, seq, o).Error(0)
}

func (m *mockRecorder) FinishRun(id string, finishedAt time.Time) error {
	return m.Called(id, finishedAt).Error(0)
}

type fixture struct {
	fake   *gatewaytest.Fake
	sink   *status.Sink
	sel    *selection.Set
	inv    *inventory.Controller
	notice *notices
	runner *Runner
}

func newFixture(confirm bool, inventoryPkgs []string) *fixture {
	f := &fixture{
		fake:   &gatewaytest.Fake{},
		sink:   status.New(nil),
		sel:    selection.New(),
		notice: &notices{},
	}
	f.fake.ListPackagesFunc = func(context.Context) ([]string, error) { return inventoryPkgs, nil }
	f.inv = inventory.New(f.fake, f.sink, f.sel, nil)
	f.runner = New(f.fake, f.sink, f.sel, f.inv, answer(confirm), f.notice, nil)
	return f
}

func TestClassify(t *testing.T) {
	assert.Equal(t, Succeeded, Classify("Success"))
	assert.Equal(t, Succeeded, Classify("Backup saved to: /b/pkg-1\nSuccess\n"))
	assert.Equal(t, Failed, Classify("success"), "match is case-sensitive")
	assert.Equal(t, Failed, Classify("Failure [DELETE_FAILED_INTERNAL_ERROR]"))
	assert.Equal(t, Failed, Classify(""))
}

func TestOutcomeLine(t *testing.T) {
	assert.Equal(t, "pkg.a uninstalled.", Outcome{Package: "pkg.a", Kind: Succeeded, Detail: "Success"}.Line())
	assert.Equal(t, "Failed pkg.a: ERR_DENIED", Outcome{Package: "pkg.a", Kind: Failed, Detail: "ERR_DENIED"}.Line())
	assert.Equal(t, "Error pkg.a: closed pipe", Outcome{Package: "pkg.a", Kind: Errored, Detail: "closed pipe"}.Line())
}

func TestUninstallSelected_EmptySelection(t *testing.T) {
	f := newFixture(true, nil)

	report := f.runner.UninstallSelected(context.Background())

	assert.True(t, report.Aborted)
	assert.Equal(t, []string{"No packages selected."}, f.notice.got)
	assert.Empty(t, f.fake.Calls())
	assert.Empty(t, f.sink.Lines())
}

func TestUninstallSelected_Declined(t *testing.T) {
	f := newFixture(false, nil)
	f.sel.Toggle("pkg.alpha")

	report := f.runner.UninstallSelected(context.Background())

	assert.True(t, report.Aborted)
	assert.Empty(t, f.fake.Calls())
	assert.Empty(t, f.sink.Lines())
	assert.True(t, f.sel.Contains("pkg.alpha"), "declining keeps the selection")
}

func TestUninstallSelected_MixedResults(t *testing.T) {
	f := newFixture(true, []string{"pkg.alpha", "pkg.beta"})
	f.inv.ScanPackages(context.Background())
	f.fake.UninstallFunc = gatewaytest.UninstallResults(map[string]string{
		"pkg.alpha": "Success",
		"pkg.beta":  "ERR_DENIED",
	})
	f.inv.SetQuery("pkg")
	f.sel.Toggle("pkg.alpha")
	f.sel.Toggle("pkg.beta")
	before := f.sink.Len()

	report := f.runner.UninstallSelected(context.Background())

	require.False(t, report.Aborted)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, []string{
		"pkg.alpha uninstalled.",
		"Failed pkg.beta: ERR_DENIED",
		"Found 2 packages",
	}, f.sink.Lines()[before:])
	assert.Equal(t, 0, f.sel.Len())
	assert.Empty(t, f.inv.Query())
	assert.Equal(t, 2, f.fake.CallCount("ListPackages"), "inventory re-scanned after the run")
	assert.Equal(t, 1, report.Count(Succeeded))
	assert.Equal(t, 1, report.Count(Failed))
}

func TestUninstallSelected_OneLinePerItemRegardlessOfFailures(t *testing.T) {
	for n := 1; n <= 6; n++ {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			f := newFixture(true, nil)
			f.fake.UninstallFunc = func(_ context.Context, pkg string) (string, error) {
				switch len(pkg) % 3 {
				case 0:
					return "Success", nil
				case 1:
					return "Failure [NOT_INSTALLED]", nil
				default:
					return "", errors.New("device disconnected")
				}
			}
			for i := 0; i < n; i++ {
				f.sel.Toggle(fmt.Sprintf("pkg.%c%d", 'a'+i, i*i))
			}
			members := f.sel.Members()

			report := f.runner.UninstallSelected(context.Background())

			require.Len(t, report.Outcomes, n)
			lines := f.sink.Lines()
			require.Len(t, lines, n+1, "n outcome lines plus the rescan summary")
			for i, pkg := range members {
				assert.Equal(t, pkg, report.Outcomes[i].Package, "processed in selection order")
				assert.Equal(t, report.Outcomes[i].Line(), lines[i])
			}
			assert.Equal(t, 0, f.sel.Len())
		})
	}
}

func TestUninstallSelected_TransportErrorDoesNotStopRun(t *testing.T) {
	f := newFixture(true, nil)
	f.fake.UninstallFunc = func(_ context.Context, pkg string) (string, error) {
		if pkg == "pkg.first" {
			return "", errors.New("rpc: connection reset")
		}
		return "Success", nil
	}
	f.sel.Toggle("pkg.first")
	f.sel.Toggle("pkg.second")

	report := f.runner.UninstallSelected(context.Background())

	assert.Equal(t, "Error pkg.first: rpc: connection reset", f.sink.Lines()[0])
	assert.Equal(t, "pkg.second uninstalled.", f.sink.Lines()[1])
	assert.Equal(t, 1, report.Count(Errored))
	assert.Equal(t, 2, f.fake.CallCount("Uninstall"))
}

func TestUninstallSelected_StaleSelectionFailsPerItem(t *testing.T) {
	f := newFixture(true, []string{"pkg.present"})
	f.fake.UninstallFunc = gatewaytest.UninstallResults(map[string]string{"pkg.present": "Success"})
	f.sel.Toggle("pkg.gone")
	f.sel.Toggle("pkg.present")

	f.runner.UninstallSelected(context.Background())

	lines := f.sink.Lines()
	assert.Equal(t, "Failed pkg.gone: Failure [NOT_INSTALLED]", lines[0])
	assert.Equal(t, "pkg.present uninstalled.", lines[1])
}

func TestUninstallSelected_RecordsHistoryAndProgress(t *testing.T) {
	f := newFixture(true, nil)
	f.sel.Toggle("pkg.a")
	f.sel.Toggle("pkg.b")

	rec := &mockRecorder{}
	rec.On("StartRun", mock.AnythingOfType("string"), "uninstall", mock.AnythingOfType("time.Time")).Return(nil)
	rec.On("RecordItem", mock.AnythingOfType("string"), 0, Outcome{Package: "pkg.a", Kind: Succeeded, Detail: "Success"}).Return(nil)
	rec.On("RecordItem", mock.AnythingOfType("string"), 1, Outcome{Package: "pkg.b", Kind: Succeeded, Detail: "Success"}).Return(errors.New("disk full"))
	rec.On("FinishRun", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)
	f.runner.Recorder = rec

	var progress []int
	f.runner.OnItem = func(done, total int, _ Outcome) {
		assert.Equal(t, 2, total)
		progress = append(progress, done)
	}

	report := f.runner.UninstallSelected(context.Background())

	rec.AssertExpectations(t)
	assert.Equal(t, []int{1, 2}, progress)
	assert.Equal(t, 2, report.Count(Succeeded), "recorder failures never change outcomes")
}
