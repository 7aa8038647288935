package console

import (
	"time"

	"github.com/blackwell-systems/droidprune/internal/bulk"
	"github.com/blackwell-systems/droidprune/internal/store"
)

// History records bulk runs in the SQLite store.
type History struct {
	Store *store.Store
}

var _ bulk.Recorder = History{}

func (h History) StartRun(id, kind string, startedAt time.Time) error {
	return h.Store.InsertRun(id, kind, startedAt)
}

func (h History) RecordItem(runID string, seq int, o bulk.Outcome) error {
	return h.Store.InsertRunItem(store.RunItem{
		RunID:   runID,
		Seq:     seq,
		Package: o.Package,
		Outcome: string(o.Kind),
		Detail:  o.Detail,
	})
}

func (h History) FinishRun(id string, finishedAt time.Time) error {
	return h.Store.FinishRun(id, finishedAt)
}
