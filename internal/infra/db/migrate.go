package db

import (
	"database/sql"
)

// MigrateUp creates the feeds table and its indexes. Statements are
// idempotent so the migration can run at every startup.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS feeds (
    id              BIGSERIAL PRIMARY KEY,
    name            TEXT NOT NULL,
    feed_url        TEXT NOT NULL UNIQUE,
    last_seen_id    TEXT NOT NULL DEFAULT '',
    last_checked_at TIMESTAMPTZ,
    active          BOOLEAN DEFAULT TRUE
)`); err != nil {
		return err
	}

	indexes := []string{
		// poll loop filters on active feeds only
		`CREATE INDEX IF NOT EXISTS idx_feeds_active ON feeds(active) WHERE active = TRUE`,
		// staleness queries order by last check time
		`CREATE INDEX IF NOT EXISTS idx_feeds_last_checked_at ON feeds(last_checked_at)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown drops the feeds table. This deletes all checkpoints, so a
// subsequent poll re-reports every feed from scratch.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP INDEX IF EXISTS idx_feeds_last_checked_at`,
		`DROP INDEX IF EXISTS idx_feeds_active`,
		`DROP TABLE IF EXISTS feeds CASCADE`,
	}

	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
