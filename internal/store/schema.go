package store

const schema = `
PRAGMA foreign_keys = ON;

-- One row per CLI or TUI invocation
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    target_url TEXT NOT NULL,
    kind TEXT NOT NULL,
    started_at TEXT NOT NULL,
    finished_at TEXT
);

-- Outcome of each content item of a run
CREATE TABLE IF NOT EXISTS items (
    run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    item_id TEXT NOT NULL,
    page_url TEXT NOT NULL,
    title TEXT,
    category TEXT,
    performer TEXT,
    status TEXT NOT NULL,       -- done, partial, failed
    ok_count INTEGER DEFAULT 0,
    failed_count INTEGER DEFAULT 0,
    PRIMARY KEY (run_id, item_id)
);

-- Every file written to disk
CREATE TABLE IF NOT EXISTS files (
    file_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    item_id TEXT,
    url TEXT NOT NULL,
    path TEXT NOT NULL,
    size_bytes INTEGER NOT NULL,
    saved_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_files_run ON files(run_id);
CREATE INDEX IF NOT EXISTS idx_files_url ON files(url);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`
