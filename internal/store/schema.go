package store

const schema = `
CREATE TABLE IF NOT EXISTS backups (
    dir TEXT PRIMARY KEY,
    package TEXT NOT NULL,
    timestamp INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS run_items (
    run_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    package TEXT NOT NULL,
    outcome TEXT NOT NULL,
    detail TEXT,
    PRIMARY KEY (run_id, seq),
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_backups_package ON backups(package);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`
