package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/blackwell-systems/droidprune/internal/gateway"
)

// Backup index operations

// InsertBackup inserts or replaces a backup directory in the index.
func (s *Store) InsertBackup(e gateway.BackupEntry) error {
	query := `
		INSERT OR REPLACE INTO backups (dir, package, timestamp)
		VALUES (?, ?, ?)
	`

	if _, err := s.db.Exec(query, e.Dir, e.Package, e.Timestamp); err != nil {
		return wrap(err, fmt.Sprintf("failed to insert backup %s", e.Dir))
	}
	return nil
}

// DeleteBackup removes a backup directory from the index. Deleting a
// directory that is not indexed is not an error.
func (s *Store) DeleteBackup(dir string) error {
	if _, err := s.db.Exec(`DELETE FROM backups WHERE dir = ?`, dir); err != nil {
		return wrap(err, fmt.Sprintf("failed to delete backup %s", dir))
	}
	return nil
}

// ListBackups returns every indexed backup ordered by package, newest first.
func (s *Store) ListBackups() ([]gateway.BackupEntry, error) {
	query := `
		SELECT package, timestamp, dir
		FROM backups
		ORDER BY package, timestamp DESC
	`
	return s.queryBackups(query, "failed to list backups")
}

// LatestBackups returns the newest backup of each package, sorted by
// package name. Ties on timestamp resolve to the greatest dir.
func (s *Store) LatestBackups() ([]gateway.BackupEntry, error) {
	query := `
		SELECT b.package, b.timestamp, MAX(b.dir)
		FROM backups b
		JOIN (
			SELECT package, MAX(timestamp) AS ts
			FROM backups
			GROUP BY package
		) latest ON latest.package = b.package AND latest.ts = b.timestamp
		GROUP BY b.package, b.timestamp
		ORDER BY b.package
	`
	return s.queryBackups(query, "failed to get latest backups")
}

// ReplaceBackups makes the index match entries exactly.
func (s *Store) ReplaceBackups(entries []gateway.BackupEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM backups`); err != nil {
		return wrap(err, "failed to clear backups")
	}
	for _, e := range entries {
		_, err := tx.Exec(`INSERT OR REPLACE INTO backups (dir, package, timestamp) VALUES (?, ?, ?)`,
			e.Dir, e.Package, e.Timestamp)
		if err != nil {
			return wrap(err, fmt.Sprintf("failed to insert backup %s", e.Dir))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit backups: %w", err)
	}
	return nil
}

func (s *Store) queryBackups(query, msg string) ([]gateway.BackupEntry, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, wrap(err, msg)
	}
	defer rows.Close()

	var entries []gateway.BackupEntry
	for rows.Next() {
		var e gateway.BackupEntry
		if err := rows.Scan(&e.Package, &e.Timestamp, &e.Dir); err != nil {
			return nil, fmt.Errorf("failed to scan backup row: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating backups: %w", err)
	}

	return entries, nil
}

// Run history operations

// InsertRun records the start of a bulk run.
func (s *Store) InsertRun(id, kind string, startedAt time.Time) error {
	query := `INSERT INTO runs (id, kind, started_at) VALUES (?, ?, ?)`

	if _, err := s.db.Exec(query, id, kind, startedAt.UTC().Format(time.RFC3339)); err != nil {
		return wrap(err, fmt.Sprintf("failed to insert run %s", id))
	}
	return nil
}

// FinishRun stamps a run's finish time.
func (s *Store) FinishRun(id string, finishedAt time.Time) error {
	result, err := s.db.Exec(`UPDATE runs SET finished_at = ? WHERE id = ?`,
		finishedAt.UTC().Format(time.RFC3339), id)
	if err != nil {
		return wrap(err, fmt.Sprintf("failed to finish run %s", id))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// InsertRunItem records one package outcome of a run.
func (s *Store) InsertRunItem(item RunItem) error {
	query := `
		INSERT INTO run_items (run_id, seq, package, outcome, detail)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query, item.RunID, item.Seq, item.Package, item.Outcome, item.Detail)
	if err != nil {
		return wrap(err, fmt.Sprintf("failed to insert item %d of run %s", item.Seq, item.RunID))
	}
	return nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 means all.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	query := `
		SELECT r.id, r.kind, r.started_at, r.finished_at, COUNT(i.seq)
		FROM runs r
		LEFT JOIN run_items i ON i.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at DESC, r.rowid DESC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrap(err, "failed to list runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var startedAt string
		var finishedAt sql.NullString

		if err := rows.Scan(&run.ID, &run.Kind, &startedAt, &finishedAt, &run.ItemCount); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}

		run.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse started_at for run %s: %w", run.ID, err)
		}
		if finishedAt.Valid {
			t, err := time.Parse(time.RFC3339, finishedAt.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse finished_at for run %s: %w", run.ID, err)
			}
			run.FinishedAt = &t
		}

		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// GetRunItems returns the outcomes of a run in processing order.
func (s *Store) GetRunItems(runID string) ([]*RunItem, error) {
	query := `
		SELECT run_id, seq, package, outcome, COALESCE(detail, '')
		FROM run_items
		WHERE run_id = ?
		ORDER BY seq
	`

	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, wrap(err, fmt.Sprintf("failed to get items of run %s", runID))
	}
	defer rows.Close()

	var items []*RunItem
	for rows.Next() {
		var item RunItem
		if err := rows.Scan(&item.RunID, &item.Seq, &item.Package, &item.Outcome, &item.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan run item row: %w", err)
		}
		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run items: %w", err)
	}

	return items, nil
}
