package history

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prabalesh/perftop/internal/database"
)

// Options tune recording. Zero values take the defaults below.
type Options struct {
	// RecordingInterval is the minimum spacing between stored samples of the
	// same metric and label; faster samples are dropped. A negative value
	// keeps every sample.
	RecordingInterval time.Duration
	// FlushInterval is how long samples may sit in memory before Record
	// writes them out.
	FlushInterval time.Duration
	Logger        *slog.Logger
}

const (
	DefaultRecordingInterval = 5 * time.Second
	DefaultFlushInterval     = 30 * time.Second
	DefaultMaxPoints         = 1000
)

type seriesKey struct {
	metric Metric
	label  string
}

type sample struct {
	metric Metric
	label  string
	at     time.Time
	value  float64
}

// Store is a SQLite-backed metric history. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	path   string
	opts   Options
	logger *slog.Logger
	now    func() time.Time

	mu         sync.Mutex
	pending    []sample
	lastRecord map[seriesKey]time.Time
	lastFlush  time.Time
	session    string
}

// Open opens the store at the default database path.
func Open(opts Options) (*Store, error) {
	path, err := database.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return OpenAt(path, opts)
}

// OpenAt creates or opens a store at path.
func OpenAt(path string, opts Options) (*Store, error) {
	if opts.RecordingInterval < 0 {
		opts.RecordingInterval = 0
	} else if opts.RecordingInterval == 0 {
		opts.RecordingInterval = DefaultRecordingInterval
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = DefaultFlushInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	db, err := database.Open(path)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	s := &Store{
		db:         db,
		path:       path,
		opts:       opts,
		logger:     opts.Logger,
		now:        time.Now,
		lastRecord: make(map[seriesKey]time.Time),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	s.lastFlush = s.now()
	return s, nil
}

func (s *Store) migrate() error {
	const ddl = `
        CREATE TABLE IF NOT EXISTS metrics (
            metric TEXT    NOT NULL,
            ts     INTEGER NOT NULL,
            value  REAL    NOT NULL,
            label  TEXT    NOT NULL DEFAULT '',
            UNIQUE (metric, ts, label)
        );
        CREATE INDEX IF NOT EXISTS idx_metrics_metric_ts ON metrics(metric, ts);
        CREATE INDEX IF NOT EXISTS idx_metrics_metric_label_ts ON metrics(metric, label, ts);
        CREATE TABLE IF NOT EXISTS sessions (
            id         TEXT    PRIMARY KEY,
            host       TEXT    NOT NULL DEFAULT '',
            started_at INTEGER NOT NULL,
            ended_at   INTEGER
        );
    `
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("history: migration failed: %w", err)
	}
	return nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Record queues one sample. Samples closer than the recording interval to the
// previous sample of the same series are dropped. Pending samples are written
// once the flush interval has passed since the last flush.
func (s *Store) Record(metric Metric, value float64, label string) error {
	now := s.now()

	s.mu.Lock()
	key := seriesKey{metric, label}
	if last, ok := s.lastRecord[key]; ok && now.Sub(last) < s.opts.RecordingInterval {
		s.mu.Unlock()
		return nil
	}
	s.lastRecord[key] = now
	s.pending = append(s.pending, sample{metric: metric, label: label, at: now, value: value})
	due := now.Sub(s.lastFlush) >= s.opts.FlushInterval
	s.mu.Unlock()

	if due {
		return s.Flush()
	}
	return nil
}

// Pending reports how many samples are waiting to be flushed.
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush writes every pending sample in one transaction.
func (s *Store) Flush() error {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.lastFlush = s.now()
	s.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("history: begin flush: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO metrics (metric, ts, value, label) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("history: prepare flush: %w", err)
	}
	defer stmt.Close()

	for _, smp := range batch {
		if _, err := stmt.Exec(string(smp.metric), smp.at.UnixMilli(), smp.value, smp.label); err != nil {
			tx.Rollback()
			return fmt.Errorf("history: insert %s: %w", smp.metric, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("history: commit flush: %w", err)
	}
	s.logger.Debug("history: flushed samples", "count", len(batch))
	return nil
}

// Close flushes pending samples, ends the open session and closes the database.
func (s *Store) Close() error {
	flushErr := s.Flush()
	sessionErr := s.EndSession()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("history: close: %w", err)
	}
	if flushErr != nil {
		return flushErr
	}
	return sessionErr
}

// Count returns the number of stored samples.
func (s *Store) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM metrics`).Scan(&n); err != nil {
		return 0, fmt.Errorf("history: count: %w", err)
	}
	return n, nil
}

// Size returns the database size in bytes as SQLite sees it.
func (s *Store) Size() (int64, error) {
	var pages, pageSize int64
	if err := s.db.QueryRow(`PRAGMA page_count`).Scan(&pages); err != nil {
		return 0, fmt.Errorf("history: size: %w", err)
	}
	if err := s.db.QueryRow(`PRAGMA page_size`).Scan(&pageSize); err != nil {
		return 0, fmt.Errorf("history: size: %w", err)
	}
	return pages * pageSize, nil
}

// Purge deletes samples older than olderThan and returns how many were removed.
func (s *Store) Purge(olderThan time.Duration) (int64, error) {
	if err := s.Flush(); err != nil {
		return 0, err
	}
	cutoff := s.now().Add(-olderThan).UnixMilli()
	res, err := s.db.Exec(`DELETE FROM metrics WHERE ts < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("history: purge: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE ended_at IS NOT NULL AND ended_at < ?`, cutoff); err != nil {
		return 0, fmt.Errorf("history: purge sessions: %w", err)
	}
	return res.RowsAffected()
}

// Vacuum reclaims space left by purged rows.
func (s *Store) Vacuum() error {
	if _, err := s.db.Exec(`VACUUM`); err != nil {
		return fmt.Errorf("history: vacuum: %w", err)
	}
	return nil
}
