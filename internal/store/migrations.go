package store

// migrate creates the cameras and fall_events tables and their indexes.
// Statements are idempotent so migrate runs on every open.
func (s *Store) migrate() error {
	migrations := []string{
		// Cameras table - stores registered camera sources
		`CREATE TABLE IF NOT EXISTS cameras (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'Inactive' CHECK(status IN ('Active', 'Inactive', 'Error')),
			fps INTEGER NOT NULL DEFAULT 30,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Fall events table - one row per confirmed fall
		`CREATE TABLE IF NOT EXISTS fall_events (
			id TEXT PRIMARY KEY,
			camera_id TEXT NOT NULL REFERENCES cameras(id) ON DELETE CASCADE,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
			confidence REAL NOT NULL,
			severity TEXT NOT NULL CHECK(severity IN ('High', 'Medium', 'Low')),
			status TEXT NOT NULL DEFAULT 'New' CHECK(status IN ('New', 'Acknowledged', 'FalseAlarm')),
			snapshot_path TEXT NOT NULL DEFAULT '',
			details TEXT NOT NULL DEFAULT '{}'
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_fall_events_camera_id ON fall_events(camera_id)`,
		`CREATE INDEX IF NOT EXISTS idx_fall_events_timestamp ON fall_events(timestamp)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
