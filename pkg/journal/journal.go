// Package journal records sessions, unlocks and placements in SQLite so a
// run can be inspected after the fact.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ChicagoDave/crowpitcher/pkg/geo"
	"github.com/ChicagoDave/crowpitcher/pkg/placement"
	"github.com/ChicagoDave/crowpitcher/pkg/surface"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	seed INTEGER NOT NULL,
	threshold REAL NOT NULL,
	started_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS unlocks (
	session_id TEXT PRIMARY KEY REFERENCES sessions(id),
	total_area REAL NOT NULL,
	surfaces INTEGER NOT NULL,
	unlocked_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS placements (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	item_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	surface_id TEXT NOT NULL,
	x REAL NOT NULL,
	y REAL NOT NULL,
	z REAL NOT NULL,
	placed_at DATETIME NOT NULL,
	UNIQUE(session_id, item_id)
);
CREATE INDEX IF NOT EXISTS idx_placements_session ON placements(session_id);
`

// Store is a SQLite journal.
type Store struct {
	db *sql.DB
}

// Open opens or creates the journal at path. ":memory:" gives a throwaway
// in-memory journal.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	// A single connection keeps :memory: databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartSession records a new session.
func (s *Store) StartSession(ctx context.Context, sessionID string, seed uint64, threshold float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, seed, threshold, started_at) VALUES (?, ?, ?, ?)`,
		sessionID, int64(seed), threshold, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("recording session %s: %w", sessionID, err)
	}
	return nil
}

// RecordUnlock records the moment a session's area threshold was crossed.
// A second unlock for the same session is ignored.
func (s *Store) RecordUnlock(ctx context.Context, sessionID string, total float64, surfaces int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO unlocks (session_id, total_area, surfaces, unlocked_at) VALUES (?, ?, ?, ?)`,
		sessionID, total, surfaces, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("recording unlock for %s: %w", sessionID, err)
	}
	return nil
}

// RecordPlacement appends a placed item to the session's journal.
func (s *Store) RecordPlacement(ctx context.Context, sessionID string, p placement.Placement) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO placements (session_id, item_id, kind, surface_id, x, y, z, placed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, p.ID, string(p.Kind), string(p.SurfaceID),
		p.Position.X, p.Position.Y, p.Position.Z, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("recording placement %s: %w", p.ID, err)
	}
	return nil
}

// Unlock is a recorded threshold crossing.
type Unlock struct {
	SessionID  string    `json:"session_id"`
	TotalArea  float64   `json:"total_area"`
	Surfaces   int       `json:"surfaces"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// Unlocked returns the session's unlock, or false if it never unlocked.
func (s *Store) Unlocked(ctx context.Context, sessionID string) (Unlock, bool, error) {
	u := Unlock{SessionID: sessionID}
	err := s.db.QueryRowContext(ctx,
		`SELECT total_area, surfaces, unlocked_at FROM unlocks WHERE session_id = ?`, sessionID).
		Scan(&u.TotalArea, &u.Surfaces, &u.UnlockedAt)
	if err == sql.ErrNoRows {
		return Unlock{}, false, nil
	}
	if err != nil {
		return Unlock{}, false, fmt.Errorf("reading unlock for %s: %w", sessionID, err)
	}
	return u, true, nil
}

// Placements returns the session's placements in the order they were recorded.
func (s *Store) Placements(ctx context.Context, sessionID string) ([]placement.Placement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT item_id, kind, surface_id, x, y, z FROM placements WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying placements for %s: %w", sessionID, err)
	}
	defer rows.Close()

	var out []placement.Placement
	for rows.Next() {
		var (
			p         placement.Placement
			kind, sid string
			x, y, z   float64
		)
		if err := rows.Scan(&p.ID, &kind, &sid, &x, &y, &z); err != nil {
			return nil, fmt.Errorf("scanning placement: %w", err)
		}
		p.Kind = placement.Kind(kind)
		p.SurfaceID = surface.ID(sid)
		p.Position = geo.V3(x, y, z)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Sessions returns every recorded session ID, oldest first.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM sessions ORDER BY started_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SessionReport is everything recorded for one session.
type SessionReport struct {
	ID         string                `json:"id"`
	Unlock     *Unlock               `json:"unlock,omitempty"`
	Placements []placement.Placement `json:"placements"`
}

// Reports reads back the given sessions, or every session when ids is empty.
func (s *Store) Reports(ctx context.Context, ids ...string) ([]SessionReport, error) {
	if len(ids) == 0 {
		var err error
		if ids, err = s.Sessions(ctx); err != nil {
			return nil, err
		}
	}

	out := make([]SessionReport, 0, len(ids))
	for _, id := range ids {
		r := SessionReport{ID: id}
		u, ok, err := s.Unlocked(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			r.Unlock = &u
		}
		if r.Placements, err = s.Placements(ctx, id); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
