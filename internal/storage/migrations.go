package storage

import "fmt"

// migration is one versioned schema step. Statements run inside a single
// transaction together with the version bookkeeping, so a failed step
// leaves the schema at the previous version.
type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "initial schema",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS incidents (
				id         TEXT PRIMARY KEY,
				title      TEXT NOT NULL DEFAULT '',
				created_at INTEGER NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS metric_points (
				incident_id TEXT NOT NULL REFERENCES incidents(id),
				metric      TEXT NOT NULL,
				ts          INTEGER NOT NULL,
				value       REAL NOT NULL,
				PRIMARY KEY (incident_id, metric, ts)
			)`,
			`CREATE TABLE IF NOT EXISTS events (
				incident_id TEXT NOT NULL REFERENCES incidents(id),
				ts          INTEGER NOT NULL,
				event_type  TEXT NOT NULL,
				metadata    TEXT NOT NULL DEFAULT '{}',
				PRIMARY KEY (incident_id, ts, event_type)
			)`,
		},
	},
	{
		version: 2,
		name:    "event type index",
		stmts: []string{
			`CREATE INDEX IF NOT EXISTS idx_events_type ON events (incident_id, event_type)`,
		},
	},
}

// applyMigrations brings the schema up to the latest version.
func (s *Store) applyMigrations() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
	)`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var current int
	err = s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.version, err)
		}

		for _, stmt := range m.stmts {
			if _, err := tx.Exec(stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
			}
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, m.version, m.name); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}

		s.logger.Info("applied migration %d: %s", m.version, m.name)
	}

	return nil
}
