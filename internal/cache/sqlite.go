package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/peterkuimelis/draftsync/internal/draft"
)

const schema = `
CREATE TABLE IF NOT EXISTS player_records (
	session_id  TEXT    NOT NULL,
	player_slot INTEGER NOT NULL,
	version     INTEGER NOT NULL DEFAULT 1,
	record      TEXT    NOT NULL,
	updated_at  TEXT    NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (session_id, player_slot)
);`

// SQLite is a draft.LocalCache backed by a local sqlite database, so a
// player's session view survives process restarts. One row per
// (session, slot); the row version increases on every save.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the cache database at path.
// Use ":memory:" for an ephemeral cache.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Load implements draft.LocalCache.
func (s *SQLite) Load(sessionID string, slot int) (draft.PlayerRecord, bool, error) {
	var (
		raw     string
		version int64
	)
	err := s.db.QueryRow(
		`SELECT record, version FROM player_records WHERE session_id = ? AND player_slot = ?`,
		sessionID, slot,
	).Scan(&raw, &version)
	if err == sql.ErrNoRows {
		return draft.PlayerRecord{}, false, nil
	}
	if err != nil {
		return draft.PlayerRecord{}, false, fmt.Errorf("load record: %w", err)
	}

	var rec draft.PlayerRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return draft.PlayerRecord{}, false, fmt.Errorf("decode record: %w", err)
	}
	rec.Version = version
	return rec, true, nil
}

// Save implements draft.LocalCache.
func (s *SQLite) Save(rec draft.PlayerRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO player_records (session_id, player_slot, version, record, updated_at)
		 VALUES (?, ?, 1, ?, datetime('now'))
		 ON CONFLICT (session_id, player_slot) DO UPDATE SET
			version = player_records.version + 1,
			record = excluded.record,
			updated_at = datetime('now')`,
		rec.SessionID, rec.PlayerSlot, string(raw),
	)
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

// Remove implements draft.LocalCache.
func (s *SQLite) Remove(sessionID string, slot int) error {
	_, err := s.db.Exec(
		`DELETE FROM player_records WHERE session_id = ? AND player_slot = ?`,
		sessionID, slot,
	)
	if err != nil {
		return fmt.Errorf("remove record: %w", err)
	}
	return nil
}

// Sessions implements draft.LocalCache.
func (s *SQLite) Sessions() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT session_id FROM player_records ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
