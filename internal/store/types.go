package store

import "time"

// Run is one recorded bulk operation.
type Run struct {
	ID         string
	Kind       string // "uninstall"
	StartedAt  time.Time
	FinishedAt *time.Time
	ItemCount  int
}

// RunItem is the outcome for one package within a run.
type RunItem struct {
	RunID   string
	Seq     int
	Package string
	Outcome string // "success", "failure" or "error"
	Detail  string
}
