package feedback

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Store is the append-only SQLite log of feedback entries. It is read in
// full (windowed) at the start of each allocation run and written to by
// the feedback CLI between runs.
type Store struct {
	db     *sql.DB
	dbPath string
}

// OpenStore opens (creating if needed) the feedback database under dataPath.
func OpenStore(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataPath, "feedback.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS feedback (
		id TEXT PRIMARY KEY,
		nurse_id TEXT NOT NULL,
		shift_date INTEGER NOT NULL,
		overwhelmed INTEGER NOT NULL DEFAULT 0,
		missed_visits INTEGER NOT NULL DEFAULT 0,
		comment TEXT,
		submitted_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_feedback_nurse_date ON feedback(nurse_id, shift_date);
	CREATE INDEX IF NOT EXISTS idx_feedback_date ON feedback(shift_date);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append records one entry. The ID is generated when empty; the stored
// entry is returned. Entries are never updated or deleted.
func (s *Store) Append(e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.SubmittedAt.IsZero() {
		e.SubmittedAt = time.Now()
	}
	overwhelmed := 0
	if e.Overwhelmed {
		overwhelmed = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO feedback (id, nurse_id, shift_date, overwhelmed, missed_visits, comment, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.NurseID, e.ShiftDate.Unix(), overwhelmed, e.MissedVisits, e.Comment, e.SubmittedAt.Unix(),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to append feedback: %w", err)
	}
	return e, nil
}

// Window returns the entries whose shift date falls in [asOf-lookback, asOf],
// oldest first.
func (s *Store) Window(asOf time.Time, lookback time.Duration) ([]Entry, error) {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	cutoff := asOf.Add(-lookback).Unix()

	rows, err := s.db.Query(
		`SELECT id, nurse_id, shift_date, overwhelmed, missed_visits, COALESCE(comment, ''), submitted_at
		 FROM feedback
		 WHERE shift_date >= ? AND shift_date <= ?
		 ORDER BY shift_date, submitted_at`,
		cutoff, asOf.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback window: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var shiftDate, submittedAt int64
		var overwhelmed int
		if err := rows.Scan(&e.ID, &e.NurseID, &shiftDate, &overwhelmed, &e.MissedVisits, &e.Comment, &submittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback row: %w", err)
		}
		e.ShiftDate = time.Unix(shiftDate, 0)
		e.SubmittedAt = time.Unix(submittedAt, 0)
		e.Overwhelmed = overwhelmed != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LoadBias computes the current bias map straight from the store.
func (s *Store) LoadBias(asOf time.Time, lookback time.Duration) (map[string]float64, error) {
	entries, err := s.Window(asOf, lookback)
	if err != nil {
		return nil, err
	}
	return ComputeLoadBias(entries, asOf, lookback), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
