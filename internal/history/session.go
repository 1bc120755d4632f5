package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is one recording run, from `perftop record` or a TUI session with
// history enabled.
type Session struct {
	ID        string     `json:"id"`
	Host      string     `json:"host"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// StartSession opens a new session and makes it the store's current one.
func (s *Store) StartSession(host string) (Session, error) {
	sess := Session{
		ID:        uuid.NewString(),
		Host:      host,
		StartedAt: s.now(),
	}
	if _, err := s.db.Exec(`INSERT INTO sessions (id, host, started_at) VALUES (?, ?, ?)`,
		sess.ID, sess.Host, sess.StartedAt.UnixMilli()); err != nil {
		return Session{}, fmt.Errorf("history: start session: %w", err)
	}

	s.mu.Lock()
	s.session = sess.ID
	s.mu.Unlock()
	return sess, nil
}

// EndSession stamps the current session's end time. It is a no-op without an
// open session.
func (s *Store) EndSession() error {
	s.mu.Lock()
	id := s.session
	s.session = ""
	s.mu.Unlock()

	if id == "" {
		return nil
	}
	if _, err := s.db.Exec(`UPDATE sessions SET ended_at = ? WHERE id = ?`, s.now().UnixMilli(), id); err != nil {
		return fmt.Errorf("history: end session: %w", err)
	}
	return nil
}

// Sessions lists the most recent sessions, newest first.
func (s *Store) Sessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`SELECT id, host, started_at, ended_at FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var sess Session
		var started int64
		var ended sql.NullInt64
		if err := rows.Scan(&sess.ID, &sess.Host, &started, &ended); err != nil {
			return nil, fmt.Errorf("history: sessions: %w", err)
		}
		sess.StartedAt = time.UnixMilli(started)
		if ended.Valid {
			t := time.UnixMilli(ended.Int64)
			sess.EndedAt = &t
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}
